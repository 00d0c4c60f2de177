package calibration

import (
	"math"
	"time"

	"github.com/bcdannyboy/kalshiq/models"
)

// Heston mapping clamps.
const (
	thetaFloor = 1e-4
	thetaCeil  = 0.25
	kappaFloor = 0.5
	kappaCeil  = 5.0
	xiFloor    = 0.1
	xiCeil     = 1.0
	hestonRho  = -0.5

	// garchSeed fixes the MCMC stream so repeated calibrations of the same
	// candles agree.
	garchSeed = 1
)

// Default bundle substituted when candle input is unusable.
const (
	defaultRV    = 0.2 // per-return volatility implying theta = 0.04
	defaultKappa = 2.0
	defaultTheta = 0.04
	defaultXi    = 0.3
)

// DefaultCalibration is the documented degraded bundle: flat 0.2 realized
// volatilities, default jumps, uninformative regime.
func DefaultCalibration() models.CalibrationData {
	return models.CalibrationData{
		DailyRV:    defaultRV,
		WeeklyRV:   defaultRV,
		IntradayRV: defaultRV,
		Jumps:      DefaultJumpParams(),
		Regime:     DefaultRegimeState(),
		Timestamp:  time.Now(),
		Degraded:   true,
	}
}

// Calibrate fits the full parameter bundle from three candle series: minute
// bars drive the EWMA intraday estimate, jump detection and the regime
// classifier; hourly bars drive the daily realized vol (blended with the
// Parkinson estimate) and the GARCH diagnostic; daily bars drive the weekly
// realized vol. Any unusable series degrades the whole bundle to defaults.
func Calibrate(minute, hourly, daily []models.Candle) models.CalibrationData {
	if models.ValidateCandles(minute) != nil ||
		models.ValidateCandles(hourly) != nil ||
		models.ValidateCandles(daily) != nil {
		return DefaultCalibration()
	}

	minuteReturns := LogReturns(minute)
	hourlyReturns := LogReturns(hourly)
	dailyReturns := LogReturns(daily)
	if len(minuteReturns) == 0 || len(hourlyReturns) == 0 || len(dailyReturns) == 0 {
		return DefaultCalibration()
	}

	dailyBase := SampleVolatility(hourlyReturns)
	parkinson := ParkinsonVolatility(hourly)

	garchRV := 0.0
	if g, err := EstimateGARCH11(hourlyReturns, garchSeed); err == nil {
		garchRV = g.ConditionalVolatility(hourlyReturns)
	}

	return models.CalibrationData{
		IntradayRV: EWMAVolatility(minuteReturns, ewmaDecay),
		DailyRV:    BlendedDailyRV(dailyBase, parkinson),
		WeeklyRV:   SampleVolatility(dailyReturns),
		GarchRV:    garchRV,
		Jumps:      EstimateJumps(minuteReturns),
		Regime:     ClassifyRegime(minuteReturns),
		Timestamp:  time.Now(),
	}
}

// HestonFromCalibration maps the realized-vol triple onto Heston parameters.
// volMult is the sensitivity multiplier on volatility, applied to theta as
// (rv*volMult)^2. A degraded bundle maps to the documented default set.
func HestonFromCalibration(c models.CalibrationData, volMult float64) models.HestonParams {
	if c.Degraded || c.DailyRV <= 0 {
		return models.HestonParams{
			Kappa: defaultKappa,
			Theta: clamp(defaultTheta*volMult*volMult, thetaFloor, thetaCeil),
			Xi:    defaultXi,
			Rho:   hestonRho,
		}
	}

	theta := 0.7*c.DailyRV*c.DailyRV + 0.3*c.WeeklyRV*c.WeeklyRV
	theta = clamp(theta*volMult*volMult, thetaFloor, thetaCeil)

	kappa := 2.0
	if diff := c.IntradayRV - c.DailyRV; diff > 0.01 || diff < -0.01 {
		kappa = 3.0
	}
	kappa = clamp(kappa, kappaFloor, kappaCeil)

	xi := clamp(math.Abs(c.IntradayRV-c.DailyRV)/c.DailyRV, xiFloor, xiCeil)

	return models.HestonParams{Kappa: kappa, Theta: theta, Xi: xi, Rho: hestonRho}
}
