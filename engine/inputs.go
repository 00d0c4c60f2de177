package engine

import (
	"fmt"

	"github.com/bcdannyboy/kalshiq/calibration"
	"github.com/bcdannyboy/kalshiq/models"
)

const (
	// stepHours is the simulation step: one minute.
	stepHours = 1.0 / 60.0

	// driftTilt scales the per-step regime drift off the daily realized vol.
	driftTilt = 0.25

	// Bear markets run hotter: long-run variance and vol-of-vol are inflated
	// relative to the calibrated base set.
	bearThetaInflation = 1.5
	bearXiInflation    = 1.25

	// regimePersistence is the per-step probability of staying in the
	// current hidden state.
	regimePersistence = 0.95
)

// BuildSimInputs assembles the immutable simulation bundle from a calibrated
// parameter set, the live spot and the market's time to close, with the
// sensitivity multipliers applied: volMult scales theta, the jump multipliers
// scale lambda and sigma_j.
func BuildSimInputs(calib models.CalibrationData, spot, timeToCloseHours float64, ov models.Overrides) (models.SimInputs, error) {
	if spot <= 0 {
		return models.SimInputs{}, fmt.Errorf("%w: spot must be > 0, got %g", models.ErrInvalidInput, spot)
	}
	if timeToCloseHours <= 0 {
		return models.SimInputs{}, fmt.Errorf("%w: time to close must be > 0, got %g", models.ErrInvalidInput, timeToCloseHours)
	}
	if err := ov.Validate(); err != nil {
		return models.SimInputs{}, err
	}

	dt := stepHours
	if timeToCloseHours < dt {
		dt = timeToCloseHours // one-step horizon for markets about to close
	}

	base := calibration.HestonFromCalibration(calib, ov.VolMult)

	bear := base
	bear.Theta = clampTheta(bear.Theta * bearThetaInflation)
	bear.Xi = clampXi(bear.Xi * bearXiInflation)

	dailyRV := calib.DailyRV
	if calib.Degraded || dailyRV <= 0 {
		dailyRV = 0.2
	}
	tilt := driftTilt * dailyRV * dt

	jumps := calib.Jumps
	jumps.Lambda *= ov.JumpIntensityMult
	jumps.SigmaJ *= ov.JumpSizeMult

	in := models.SimInputs{
		S0:      spot,
		THours:  timeToCloseHours,
		DtHours: dt,
		Regimes: [models.NumRegimes]models.RegimeParams{
			models.RegimeBull: {Mu: tilt, Heston: base},
			models.RegimeBear: {Mu: -tilt, Heston: bear},
		},
		HMM: models.HMM{
			P: [models.NumRegimes][models.NumRegimes]float64{
				{regimePersistence, 1 - regimePersistence},
				{1 - regimePersistence, regimePersistence},
			},
			Pi0: calib.Regime.Probabilities,
		},
		Jumps: jumps,
	}
	if err := in.Validate(); err != nil {
		return models.SimInputs{}, err
	}
	return in, nil
}

func clampTheta(v float64) float64 {
	if v > 0.25 {
		return 0.25
	}
	return v
}

func clampXi(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}
