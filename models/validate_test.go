package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInputs() SimInputs {
	heston := HestonParams{Kappa: 2, Theta: 0.04, Xi: 0.3, Rho: -0.5}
	return SimInputs{
		S0:      60000,
		THours:  1,
		DtHours: 1.0 / 60.0,
		Regimes: [NumRegimes]RegimeParams{
			{Mu: 0.0001, Heston: heston},
			{Mu: -0.0001, Heston: heston},
		},
		HMM: HMM{
			P:   [NumRegimes][NumRegimes]float64{{0.95, 0.05}, {0.05, 0.95}},
			Pi0: [NumRegimes]float64{0.6, 0.4},
		},
		Jumps: JumpParams{Lambda: 0.1, SigmaJ: 0.02, Kind: JumpMerton},
	}
}

func TestSimInputsValid(t *testing.T) {
	require.NoError(t, validInputs().Validate())
	assert.Equal(t, 60, validInputs().Steps())
}

func TestSimInputsInvalid(t *testing.T) {
	mutate := []struct {
		name string
		fn   func(*SimInputs)
	}{
		{"zero spot", func(in *SimInputs) { in.S0 = 0 }},
		{"negative horizon", func(in *SimInputs) { in.THours = -1 }},
		{"zero dt", func(in *SimInputs) { in.DtHours = 0 }},
		{"nan spot", func(in *SimInputs) { in.S0 = math.NaN() }},
		{"negative kappa", func(in *SimInputs) { in.Regimes[0].Heston.Kappa = -1 }},
		{"zero theta", func(in *SimInputs) { in.Regimes[1].Heston.Theta = 0 }},
		{"rho out of range", func(in *SimInputs) { in.Regimes[0].Heston.Rho = 1.5 }},
		{"negative lambda", func(in *SimInputs) { in.Jumps.Lambda = -0.1 }},
		{"bad jump kind", func(in *SimInputs) { in.Jumps.Kind = "gamma" }},
		{"non-stochastic row", func(in *SimInputs) { in.HMM.P[0] = [NumRegimes]float64{0.7, 0.7} }},
		{"negative transition", func(in *SimInputs) { in.HMM.P[1] = [NumRegimes]float64{-0.1, 1.1} }},
		{"pi0 not a distribution", func(in *SimInputs) { in.HMM.Pi0 = [NumRegimes]float64{0.9, 0.3} }},
	}

	for _, tc := range mutate {
		t.Run(tc.name, func(t *testing.T) {
			in := validInputs()
			tc.fn(&in)
			assert.ErrorIs(t, in.Validate(), ErrInvalidInput)
		})
	}
}

func TestFellerViolationIsAccepted(t *testing.T) {
	// 2*kappa*theta < xi^2 is allowed; the kernel clamps instead.
	in := validInputs()
	in.Regimes[0].Heston = HestonParams{Kappa: 0.5, Theta: 0.01, Xi: 1, Rho: 0}
	assert.NoError(t, in.Validate())
}

func TestValidateCandles(t *testing.T) {
	good := []Candle{
		{TimeMS: 1000, Open: 10, High: 12, Low: 9, Close: 11, Volume: 1},
		{TimeMS: 2000, Open: 11, High: 13, Low: 10, Close: 12, Volume: 1},
	}
	require.NoError(t, ValidateCandles(good))

	assert.ErrorIs(t, ValidateCandles(good[:1]), ErrCalibrationInput)

	outOfOrder := []Candle{good[1], good[0]}
	assert.ErrorIs(t, ValidateCandles(outOfOrder), ErrCalibrationInput)

	bad := []Candle{
		good[0],
		{TimeMS: 2000, Open: 11, High: 10, Low: 9, Close: 11, Volume: 1}, // high < open
	}
	assert.ErrorIs(t, ValidateCandles(bad), ErrInvalidInput)
}

func TestOverridesValidate(t *testing.T) {
	require.NoError(t, DefaultOverrides().Validate())
	require.NoError(t, Overrides{VolMult: 0.9, JumpIntensityMult: 1.1, JumpSizeMult: 1}.Validate())

	assert.ErrorIs(t, Overrides{VolMult: 0.8, JumpIntensityMult: 1, JumpSizeMult: 1}.Validate(), ErrInvalidInput)
	assert.ErrorIs(t, Overrides{VolMult: 1, JumpIntensityMult: 1.2, JumpSizeMult: 1}.Validate(), ErrInvalidInput)
	assert.ErrorIs(t, Overrides{VolMult: 1, JumpIntensityMult: 1, JumpSizeMult: 0}.Validate(), ErrInvalidInput)
}
