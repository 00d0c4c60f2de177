package calibration

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/bcdannyboy/kalshiq/models"
)

// ewmaDecay is the RiskMetrics decay factor for the intraday estimator.
const ewmaDecay = 0.94

// EWMAVolatility is the exponentially weighted volatility of a return
// series: sigma2_0 = r_0^2, sigma2_i = decay*sigma2_{i-1} + (1-decay)*r_i^2.
func EWMAVolatility(returns []float64, decay float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	variance := returns[0] * returns[0]
	for _, r := range returns[1:] {
		variance = decay*variance + (1-decay)*r*r
	}
	return math.Sqrt(variance)
}

// SampleVolatility is the unbiased sample standard deviation of a return
// series.
func SampleVolatility(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	return stat.StdDev(returns, nil)
}

// ParkinsonVolatility estimates per-bar volatility from high/low extremes:
// sqrt((1/(4 ln2 n)) * sum(ln(high/low)^2)).
func ParkinsonVolatility(candles []models.Candle) float64 {
	n := 0
	sum := 0.0
	for _, c := range candles {
		if c.Low <= 0 || c.High < c.Low {
			continue
		}
		logRatio := math.Log(c.High / c.Low)
		sum += logRatio * logRatio
		n++
	}
	if n == 0 {
		return 0
	}
	return math.Sqrt(sum / (4 * float64(n) * math.Ln2))
}

// BlendedDailyRV mixes the close-to-close estimate with the Parkinson
// estimate 70/30, favouring the close series but letting intrabar extremes
// widen it.
func BlendedDailyRV(closeRV, parkinsonRV float64) float64 {
	return 0.7*closeRV + 0.3*parkinsonRV
}
