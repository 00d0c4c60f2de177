package calibration

import (
	"math"
	"math/rand"

	"github.com/MaxHalford/eaopt"

	"github.com/bcdannyboy/kalshiq/models"
)

// Refinement horizons in hours: one hour for the intraday/daily mismatch,
// one week for the daily/weekly mismatch.
const (
	shortHorizonHours = 1.0
	longHorizonHours  = 168.0
)

// hestonGenome searches (kappa, xi) within their calibration clamps so the
// model's variance dispersion at two horizons matches the observed spread of
// the realized-vol triple. Theta stays fixed at the calibrated value.
type hestonGenome struct {
	kappa, xi   float64
	theta       float64
	shortTarget float64
	longTarget  float64
}

// dispersion is the stationary variance-process standard deviation reached
// by horizon h: xi * sqrt(theta/(2 kappa)) * sqrt(1 - exp(-2 kappa h)).
func dispersion(kappa, theta, xi, h float64) float64 {
	return xi * math.Sqrt(theta/(2*kappa)) * math.Sqrt(1-math.Exp(-2*kappa*h))
}

func (g *hestonGenome) Evaluate() (float64, error) {
	short := dispersion(g.kappa, g.theta, g.xi, shortHorizonHours) - g.shortTarget
	long := dispersion(g.kappa, g.theta, g.xi, longHorizonHours) - g.longTarget
	return short*short + long*long, nil
}

func (g *hestonGenome) Mutate(rng *rand.Rand) {
	g.kappa = clamp(g.kappa+0.25*rng.NormFloat64(), kappaFloor, kappaCeil)
	g.xi = clamp(g.xi+0.05*rng.NormFloat64(), xiFloor, xiCeil)
}

func (g *hestonGenome) Crossover(other eaopt.Genome, rng *rand.Rand) {
	o := other.(*hestonGenome)
	w := rng.Float64()
	g.kappa, o.kappa = w*g.kappa+(1-w)*o.kappa, w*o.kappa+(1-w)*g.kappa
	g.xi, o.xi = w*g.xi+(1-w)*o.xi, w*o.xi+(1-w)*g.xi
}

func (g *hestonGenome) Clone() eaopt.Genome {
	c := *g
	return &c
}

// RefineHeston genetically adjusts (kappa, xi) so the Heston variance
// dispersion matches the observed realized-vol term structure. Off the main
// calibration path; callers opt in. Deterministic for a fixed seed.
func RefineHeston(hp models.HestonParams, c models.CalibrationData, seed uint64) (models.HestonParams, error) {
	cfg := eaopt.NewDefaultGAConfig()
	cfg.NGenerations = 40
	cfg.PopSize = 60
	cfg.RNG = rand.New(rand.NewSource(int64(seed)))

	ga, err := cfg.NewGA()
	if err != nil {
		return hp, err
	}

	shortTarget := math.Abs(c.IntradayRV*c.IntradayRV - c.DailyRV*c.DailyRV)
	longTarget := math.Abs(c.DailyRV*c.DailyRV - c.WeeklyRV*c.WeeklyRV)

	err = ga.Minimize(func(rng *rand.Rand) eaopt.Genome {
		return &hestonGenome{
			kappa:       kappaFloor + rng.Float64()*(kappaCeil-kappaFloor),
			xi:          xiFloor + rng.Float64()*(xiCeil-xiFloor),
			theta:       hp.Theta,
			shortTarget: shortTarget,
			longTarget:  longTarget,
		}
	})
	if err != nil {
		return hp, err
	}

	best := ga.HallOfFame[0].Genome.(*hestonGenome)
	hp.Kappa = best.kappa
	hp.Xi = best.xi
	return hp, nil
}
