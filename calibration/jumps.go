package calibration

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/bcdannyboy/kalshiq/models"
)

// jumpThreshold flags a return as a jump when it sits more than this many
// standard deviations from the mean.
const jumpThreshold = 3.0

// DefaultJumpParams is the documented fallback when no jumps are observable.
func DefaultJumpParams() models.JumpParams {
	return models.JumpParams{
		Lambda: 0.1,
		MuJ:    0,
		SigmaJ: 0.02,
		Kind:   models.JumpMerton,
	}
}

// EstimateJumps fits the Merton jump component from minute returns using the
// threshold method: returns beyond 3 standard deviations are jumps, lambda is
// their observed frequency, sigma the dispersion of their log magnitudes.
// The mean jump is forced to zero (symmetric). The estimator never emits the
// kou kind.
func EstimateJumps(returns []float64) models.JumpParams {
	if len(returns) < 2 {
		return DefaultJumpParams()
	}

	mean := stat.Mean(returns, nil)
	std := stat.StdDev(returns, nil)
	if std == 0 {
		return DefaultJumpParams()
	}

	var jumps []float64
	for _, r := range returns {
		if math.Abs(r-mean) > jumpThreshold*std {
			jumps = append(jumps, r)
		}
	}
	if len(jumps) == 0 {
		return DefaultJumpParams()
	}

	logMags := make([]float64, 0, len(jumps))
	for _, j := range jumps {
		if j != 0 {
			logMags = append(logMags, math.Log(math.Abs(j)))
		}
	}
	sigma := 0.02
	if len(logMags) >= 2 {
		sigma = stat.StdDev(logMags, nil)
	}

	return models.JumpParams{
		Lambda: clamp(float64(len(jumps))/float64(len(returns)), 0.01, 1.0),
		MuJ:    0,
		SigmaJ: clamp(sigma, 0.01, 0.1),
		Kind:   models.JumpMerton,
	}
}
