package feed

import (
	"math"

	"golang.org/x/exp/rand"

	"github.com/bcdannyboy/kalshiq/models"
)

// SyntheticCandles generates n GBM bars for demos and tests: seeded, so runs
// are repeatable. vol is the per-bar return volatility; stepMS the bar width.
func SyntheticCandles(seed uint64, n int, startMS, stepMS int64, s0, vol float64) []models.Candle {
	rng := rand.New(rand.NewSource(seed))
	candles := make([]models.Candle, n)
	price := s0

	for i := 0; i < n; i++ {
		open := price
		closePx := open * math.Exp(vol*rng.NormFloat64()-0.5*vol*vol)
		high := math.Max(open, closePx) * math.Exp(0.3*vol*math.Abs(rng.NormFloat64()))
		low := math.Min(open, closePx) * math.Exp(-0.3*vol*math.Abs(rng.NormFloat64()))
		candles[i] = models.Candle{
			TimeMS: startMS + int64(i)*stepMS,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closePx,
			Volume: 1 + 10*rng.Float64(),
		}
		price = closePx
	}
	return candles
}
