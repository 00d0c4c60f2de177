package calibration

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/exp/rand"
)

// syntheticGARCH simulates a GARCH(1,1) return series with known parameters.
func syntheticGARCH(g GARCH11, n int, seed uint64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	returns := make([]float64, n)
	variance := g.Omega / (1 - g.Alpha - g.Beta)
	for i := range returns {
		returns[i] = rng.NormFloat64() * math.Sqrt(variance)
		variance = g.Omega + g.Alpha*returns[i]*returns[i] + g.Beta*variance
	}
	return returns
}

func TestGARCHLogLikelihoodFinite(t *testing.T) {
	g := GARCH11{Omega: 1e-6, Alpha: 0.1, Beta: 0.8}
	returns := syntheticGARCH(g, 500, 1)
	ll := g.LogLikelihood(returns)
	assert.False(t, ll != ll, "log-likelihood must not be NaN")

	// The generating parameters should beat a clearly wrong candidate.
	wrong := GARCH11{Omega: 1e-2, Alpha: 0.01, Beta: 0.01}
	assert.Greater(t, ll, wrong.LogLikelihood(returns))
}

func TestEstimateGARCH11StaysStationary(t *testing.T) {
	truth := GARCH11{Omega: 2e-6, Alpha: 0.08, Beta: 0.85}
	returns := syntheticGARCH(truth, 800, 2)

	est, err := EstimateGARCH11(returns, garchSeed)
	require.NoError(t, err)
	assert.Greater(t, est.Omega, 0.0)
	assert.GreaterOrEqual(t, est.Alpha, 0.0)
	assert.GreaterOrEqual(t, est.Beta, 0.0)
	assert.Less(t, est.Alpha+est.Beta, 1.0)
}

func TestEstimateGARCH11Deterministic(t *testing.T) {
	returns := syntheticGARCH(GARCH11{Omega: 1e-6, Alpha: 0.1, Beta: 0.8}, 400, 3)
	a, err := EstimateGARCH11(returns, 5)
	require.NoError(t, err)
	b, err := EstimateGARCH11(returns, 5)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEstimateGARCH11ShortSeries(t *testing.T) {
	est, err := EstimateGARCH11([]float64{0.01, -0.01}, 1)
	require.NoError(t, err)
	assert.Equal(t, GARCH11{Omega: 0.000001, Alpha: 0.1, Beta: 0.8}, est)
}

func TestConditionalVolatility(t *testing.T) {
	g := GARCH11{Omega: 1e-6, Alpha: 0.1, Beta: 0.8}
	returns := syntheticGARCH(g, 300, 4)
	vol := g.ConditionalVolatility(returns)
	assert.Greater(t, vol, 0.0)

	unstable := GARCH11{Omega: 1e-6, Alpha: 0.6, Beta: 0.5}
	assert.Equal(t, 0.0, unstable.ConditionalVolatility(returns))
}
