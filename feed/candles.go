// Package feed supplies candle series to the calibrator. It is the concrete
// form of the external market-data collaborator: typed JSON decoding, a file
// loader for offline use and a seeded synthetic generator. The core engine
// packages never import it.
package feed

import (
	"fmt"
	"os"
	"sort"

	"github.com/xhhuango/json"

	"github.com/bcdannyboy/kalshiq/models"
)

// ParseCandles decodes a JSON array of OHLCV bars, sorts it by time and
// checks the series invariants.
func ParseCandles(data []byte) ([]models.Candle, error) {
	var candles []models.Candle
	if err := json.Unmarshal(data, &candles); err != nil {
		return nil, fmt.Errorf("decoding candles: %w", err)
	}
	sort.Slice(candles, func(i, j int) bool { return candles[i].TimeMS < candles[j].TimeMS })
	if err := models.ValidateCandles(candles); err != nil {
		return nil, err
	}
	return candles, nil
}

// LoadCandleFile reads one candle series from disk.
func LoadCandleFile(path string) ([]models.Candle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return ParseCandles(data)
}
