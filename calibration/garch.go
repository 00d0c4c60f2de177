package calibration

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat/distuv"
)

// GARCH11 is the conditional-variance diagnostic fitted on hourly returns.
type GARCH11 struct {
	Omega float64
	Alpha float64
	Beta  float64
}

// LogLikelihood calculates the Gaussian log-likelihood of the GARCH(1,1)
// model over a return series.
func (g GARCH11) LogLikelihood(returns []float64) float64 {
	n := len(returns)
	logLik := 0.0
	variance := g.Omega / (1 - g.Alpha - g.Beta)

	for i := 1; i < n; i++ {
		variance = g.Omega + g.Alpha*returns[i-1]*returns[i-1] + g.Beta*variance
		logLik += -0.5*math.Log(2*math.Pi) - 0.5*math.Log(variance) - 0.5*returns[i]*returns[i]/variance
	}

	return logLik
}

// EstimateGARCH11 estimates GARCH(1,1) parameters with a short MCMC warm-up
// followed by Nelder-Mead refinement of the likelihood. The chain runs on a
// seeded stream so the estimate is reproducible.
func EstimateGARCH11(returns []float64, seed uint64) (GARCH11, error) {
	initialGuess := GARCH11{Omega: 0.000001, Alpha: 0.1, Beta: 0.8}
	if len(returns) < 10 {
		return initialGuess, nil
	}

	numIterations := 2000
	burnIn := 200
	stepSize := 0.01

	src := rand.NewSource(seed)
	step := distuv.Normal{Mu: 0, Sigma: stepSize, Src: src}
	accept := distuv.Uniform{Min: 0, Max: 1, Src: src}

	chain := make([]GARCH11, numIterations)
	chain[0] = initialGuess

	for i := 1; i < numIterations; i++ {
		proposal := GARCH11{
			Omega: chain[i-1].Omega + step.Rand(),
			Alpha: chain[i-1].Alpha + step.Rand(),
			Beta:  chain[i-1].Beta + step.Rand(),
		}

		// Reject proposals outside the stationarity region.
		if proposal.Omega <= 0 || proposal.Alpha < 0 || proposal.Beta < 0 || proposal.Alpha+proposal.Beta >= 1 {
			chain[i] = chain[i-1]
			continue
		}

		logAcceptProb := proposal.LogLikelihood(returns) - chain[i-1].LogLikelihood(returns)
		if math.Log(accept.Rand()) < logAcceptProb {
			chain[i] = proposal
		} else {
			chain[i] = chain[i-1]
		}
	}

	avgParams := GARCH11{}
	for i := burnIn; i < numIterations; i++ {
		avgParams.Omega += chain[i].Omega
		avgParams.Alpha += chain[i].Alpha
		avgParams.Beta += chain[i].Beta
	}
	avgParams.Omega /= float64(numIterations - burnIn)
	avgParams.Alpha /= float64(numIterations - burnIn)
	avgParams.Beta /= float64(numIterations - burnIn)

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			g := GARCH11{Omega: x[0], Alpha: x[1], Beta: x[2]}
			if g.Omega <= 0 || g.Alpha < 0 || g.Beta < 0 || g.Alpha+g.Beta >= 1 {
				return math.Inf(1)
			}
			return -g.LogLikelihood(returns)
		},
	}

	result, err := optimize.Minimize(problem, []float64{avgParams.Omega, avgParams.Alpha, avgParams.Beta}, nil, &optimize.NelderMead{})
	if err != nil {
		// Fall back to the MCMC average when Nelder-Mead fails.
		return avgParams, nil
	}

	return GARCH11{Omega: result.X[0], Alpha: result.X[1], Beta: result.X[2]}, nil
}

// ConditionalVolatility runs the fitted recursion over the series and returns
// the current per-return conditional volatility.
func (g GARCH11) ConditionalVolatility(returns []float64) float64 {
	if g.Alpha+g.Beta >= 1 {
		return 0
	}
	variance := g.Omega / (1 - g.Alpha - g.Beta)
	for i := 1; i < len(returns); i++ {
		variance = g.Omega + g.Alpha*returns[i-1]*returns[i-1] + g.Beta*variance
	}
	return math.Sqrt(variance)
}
