package calibration

import (
	"gonum.org/v1/gonum/stat"

	"github.com/bcdannyboy/kalshiq/models"
)

const (
	regimeWindow     = 20
	regimeMinReturns = 10
	calmVolThreshold = 0.02
)

// DefaultRegimeState is the uninformative prior used when history is thin or
// unavailable.
func DefaultRegimeState() models.RegimeState {
	return models.RegimeState{
		Current:       models.RegimeBull,
		Probabilities: [models.NumRegimes]float64{0.5, 0.5},
	}
}

// ClassifyRegime scores the current regime from the last 20 minute returns.
// Positive drift leans bull, calm realized vol adds conviction. This is a
// heuristic classifier, not an EM fit.
func ClassifyRegime(returns []float64) models.RegimeState {
	if len(returns) < regimeMinReturns {
		return DefaultRegimeState()
	}
	window := returns
	if len(window) > regimeWindow {
		window = window[len(window)-regimeWindow:]
	}

	mean := stat.Mean(window, nil)
	vol := stat.StdDev(window, nil)

	bull := 0.4
	if mean > 0 {
		bull = 0.6
	}
	if vol < calmVolThreshold {
		bull += 0.2
	}
	bear := 1 - bull

	state := models.RegimeState{
		Probabilities: [models.NumRegimes]float64{bull, bear},
	}
	if bear > bull {
		state.Current = models.RegimeBear
	} else {
		state.Current = models.RegimeBull
	}
	return state
}
