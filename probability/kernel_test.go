package probability

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcdannyboy/kalshiq/models"
)

func flatInputs(s0, theta, xi float64) models.SimInputs {
	heston := models.HestonParams{Kappa: 2, Theta: theta, Xi: xi, Rho: 0}
	return models.SimInputs{
		S0:      s0,
		THours:  1,
		DtHours: 1.0 / 60.0,
		Regimes: [models.NumRegimes]models.RegimeParams{
			{Mu: 0, Heston: heston},
			{Mu: 0, Heston: heston},
		},
		HMM: models.HMM{
			P:   [models.NumRegimes][models.NumRegimes]float64{{1, 0}, {0, 1}},
			Pi0: [models.NumRegimes]float64{1, 0},
		},
		Jumps: models.JumpParams{Kind: models.JumpMerton},
	}
}

func TestSimulatePathNearZeroVol(t *testing.T) {
	in := flatInputs(60000, 1e-12, 1e-12)
	k := newKernel(in)
	s := NewStream(1)

	terminal, st, err := k.simulatePath(s, nil)
	require.NoError(t, err)
	assert.InDelta(t, 60000, terminal, 1)
	assert.Zero(t, st.moveClamps)
	assert.Zero(t, st.varianceCaps)
}

func TestSimulatePathDrift(t *testing.T) {
	// Per-step drift of 0.001 over 60 steps moves the mean by e^0.06.
	in := flatInputs(100, 1e-12, 1e-12)
	in.Regimes[0].Mu = 0.001
	k := newKernel(in)
	s := NewStream(1)

	terminal, _, err := k.simulatePath(s, nil)
	require.NoError(t, err)
	assert.InDelta(t, 100*math.Exp(0.06), terminal, 0.01)
}

func TestSimulatePathRecordsSample(t *testing.T) {
	in := flatInputs(60000, 0.04, 0.3)
	k := newKernel(in)
	s := NewStream(2)

	var rec models.PathSample
	_, _, err := k.simulatePath(s, &rec)
	require.NoError(t, err)
	require.Len(t, rec, in.Steps()+1)
	assert.Equal(t, models.PathPoint{THours: 0, Price: 60000}, rec[0])
	for i := 1; i < len(rec); i++ {
		assert.Greater(t, rec[i].THours, rec[i-1].THours)
		assert.Greater(t, rec[i].Price, 0.0)
	}
	assert.InDelta(t, 1.0, rec[len(rec)-1].THours, 1e-9)
}

func TestVariancePositivityUnderFellerViolation(t *testing.T) {
	// 2*kappa*theta = 0.01 << xi^2 = 1: the truncation scheme must keep the
	// variance usable on every step. Any negative variance under the square
	// root would surface as a NaN fault.
	in := flatInputs(60000, 0.01, 1)
	in.Regimes[0].Heston.Kappa = 0.5
	in.Regimes[1].Heston.Kappa = 0.5
	k := newKernel(in)
	s := NewStream(3)

	for i := 0; i < 20000; i++ {
		terminal, _, err := k.simulatePath(s, nil)
		require.NoError(t, err)
		require.False(t, math.IsNaN(terminal) || math.IsInf(terminal, 0))
		require.Greater(t, terminal, 0.0)
	}
}

func TestRegimeSwitchingUsesBothParameterSets(t *testing.T) {
	// BULL drifts hard up, BEAR hard down, chain flips every step from an
	// even start: the two tilts cancel on average.
	in := flatInputs(100, 1e-12, 1e-12)
	in.Regimes[0].Mu = 0.01
	in.Regimes[1].Mu = -0.01
	in.HMM.P = [models.NumRegimes][models.NumRegimes]float64{{0, 1}, {1, 0}}
	in.HMM.Pi0 = [models.NumRegimes]float64{0.5, 0.5}
	k := newKernel(in)
	s := NewStream(4)

	sum := 0.0
	n := 4000
	for i := 0; i < n; i++ {
		terminal, _, err := k.simulatePath(s, nil)
		require.NoError(t, err)
		sum += math.Log(terminal / 100)
	}
	assert.InDelta(t, 0, sum/float64(n), 0.002)
}

func TestMertonJumpSampler(t *testing.T) {
	js := newJumpSampler(models.JumpParams{Lambda: 2, MuJ: 0.01, SigmaJ: 0.05, Kind: models.JumpMerton}, 1.0/60.0, false)
	s := NewStream(5)

	n := 200000
	sum := 0.0
	nonZero := 0
	for i := 0; i < n; i++ {
		d := js.draw(s)
		sum += d
		if d != 0 {
			nonZero++
		}
	}
	// Mean displacement per step is lambda*dt*muJ.
	assert.InDelta(t, 2.0/60.0*0.01, sum/float64(n), 1e-4)
	assert.InDelta(t, 2.0/60.0, float64(nonZero)/float64(n), 0.005)
}

func TestKouJumpSamplerAsymmetry(t *testing.T) {
	// All-up jumps with a fat up tail must push the displacement positive.
	js := newJumpSampler(models.JumpParams{Lambda: 30, SigmaJ: 0.05, Kind: models.JumpKou, P: 1}, 1.0/60.0, false)
	require.Equal(t, 1.0, js.p)
	require.InDelta(t, 20.0, js.eta1, 1e-9)

	s := NewStream(6)
	sum := 0.0
	for i := 0; i < 100000; i++ {
		sum += js.draw(s)
	}
	assert.Greater(t, sum, 0.0)
}

func TestCompensatorLowersMeanDrift(t *testing.T) {
	params := models.JumpParams{Lambda: 2, MuJ: 0.05, SigmaJ: 0.05, Kind: models.JumpMerton}
	plain := newJumpSampler(params, 1.0/60.0, false)
	comp := newJumpSampler(params, 1.0/60.0, true)

	assert.Zero(t, plain.comp)
	assert.Greater(t, comp.comp, 0.0)
	// Compensator equals lambda*(E[e^Y]-1)*dt.
	expected := 2 * (math.Exp(0.05+0.5*0.05*0.05) - 1) / 60
	assert.InDelta(t, expected, comp.comp, 1e-12)
}

func TestMoveClampCountsExtremeSteps(t *testing.T) {
	// Guaranteed huge jumps every step trip the +-3 displacement guard.
	in := flatInputs(60000, 1e-12, 1e-12)
	in.Jumps = models.JumpParams{Lambda: 600, MuJ: 10, SigmaJ: 0.01, Kind: models.JumpMerton}
	k := newKernel(in)
	s := NewStream(7)

	terminal, st, err := k.simulatePath(s, nil)
	require.NoError(t, err)
	assert.Greater(t, st.moveClamps, 0)
	assert.False(t, math.IsInf(terminal, 0))
	// With every step clamped at +3 the terminal is bounded by s0*e^(3*steps).
	assert.LessOrEqual(t, terminal, 60000*math.Exp(3*60+1))
}
