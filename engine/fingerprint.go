package engine

import (
	"fmt"
	"math"

	"github.com/bcdannyboy/kalshiq/models"
)

// Fingerprint canonically encodes the request fields that key the result
// cache: the market, the spot rounded to the dollar, the time to close
// rounded to a tenth of an hour, and the sensitivity multipliers. Calibration
// data and Monte Carlo settings are not part of the key. Nearby requests
// collapse onto one key so repeated interactive queries hit the cache.
func Fingerprint(ticker string, spot, timeToCloseHours float64, ov models.Overrides) string {
	return fmt.Sprintf("%s|%.0f|%.1f|%.3f|%.3f|%.3f",
		ticker,
		math.Round(spot),
		math.Round(timeToCloseHours*10)/10,
		ov.VolMult,
		ov.JumpIntensityMult,
		ov.JumpSizeMult,
	)
}
