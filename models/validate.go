package models

import (
	"fmt"
	"math"
)

func isReal(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Validate checks the Heston invariants. The Feller condition is deliberately
// not enforced; the kernel clamps variance at zero instead.
func (h HestonParams) Validate() error {
	if !isReal(h.Kappa, h.Theta, h.Xi, h.Rho) {
		return fmt.Errorf("%w: heston parameters must be finite", ErrInvalidInput)
	}
	if h.Kappa <= 0 {
		return fmt.Errorf("%w: kappa must be > 0, got %g", ErrInvalidInput, h.Kappa)
	}
	if h.Theta <= 0 {
		return fmt.Errorf("%w: theta must be > 0, got %g", ErrInvalidInput, h.Theta)
	}
	if h.Xi <= 0 {
		return fmt.Errorf("%w: xi must be > 0, got %g", ErrInvalidInput, h.Xi)
	}
	if h.Rho < -1 || h.Rho > 1 {
		return fmt.Errorf("%w: rho must be in [-1, 1], got %g", ErrInvalidInput, h.Rho)
	}
	return nil
}

func (j JumpParams) Validate() error {
	if !isReal(j.Lambda, j.MuJ, j.SigmaJ) {
		return fmt.Errorf("%w: jump parameters must be finite", ErrInvalidInput)
	}
	if j.Lambda < 0 {
		return fmt.Errorf("%w: jump lambda must be >= 0, got %g", ErrInvalidInput, j.Lambda)
	}
	if j.SigmaJ < 0 {
		return fmt.Errorf("%w: jump sigma must be >= 0, got %g", ErrInvalidInput, j.SigmaJ)
	}
	switch j.Kind {
	case JumpMerton, JumpKou, "": // empty kind defaults to merton
	default:
		return fmt.Errorf("%w: unknown jump kind %q", ErrInvalidInput, j.Kind)
	}
	return nil
}

const probTolerance = 1e-9

func (h HMM) Validate() error {
	rowSum := 0.0
	for i := 0; i < NumRegimes; i++ {
		rowSum = 0
		for j := 0; j < NumRegimes; j++ {
			p := h.P[i][j]
			if !isReal(p) || p < 0 || p > 1 {
				return fmt.Errorf("%w: transition p[%d][%d]=%g outside [0,1]", ErrInvalidInput, i, j, p)
			}
			rowSum += p
		}
		if math.Abs(rowSum-1) > probTolerance {
			return fmt.Errorf("%w: transition row %d sums to %g", ErrInvalidInput, i, rowSum)
		}
	}
	piSum := 0.0
	for i, p := range h.Pi0 {
		if !isReal(p) || p < 0 || p > 1 {
			return fmt.Errorf("%w: pi0[%d]=%g outside [0,1]", ErrInvalidInput, i, p)
		}
		piSum += p
	}
	if math.Abs(piSum-1) > probTolerance {
		return fmt.Errorf("%w: pi0 sums to %g", ErrInvalidInput, piSum)
	}
	return nil
}

// Validate checks the full simulation bundle before any path is drawn.
func (in SimInputs) Validate() error {
	if !isReal(in.S0, in.THours, in.DtHours) {
		return fmt.Errorf("%w: sim inputs must be finite", ErrInvalidInput)
	}
	if in.S0 <= 0 {
		return fmt.Errorf("%w: s0 must be > 0, got %g", ErrInvalidInput, in.S0)
	}
	if in.THours <= 0 {
		return fmt.Errorf("%w: t must be > 0, got %g", ErrInvalidInput, in.THours)
	}
	if in.DtHours <= 0 {
		return fmt.Errorf("%w: dt must be > 0, got %g", ErrInvalidInput, in.DtHours)
	}
	if in.Steps() < 1 {
		return fmt.Errorf("%w: t/dt must round to at least one step", ErrInvalidInput)
	}
	for i, reg := range in.Regimes {
		if !isReal(reg.Mu) {
			return fmt.Errorf("%w: regime %s drift must be finite", ErrInvalidInput, Regime(i))
		}
		if err := reg.Heston.Validate(); err != nil {
			return fmt.Errorf("regime %s: %w", Regime(i), err)
		}
	}
	if err := in.HMM.Validate(); err != nil {
		return err
	}
	return in.Jumps.Validate()
}

func (c Candle) Validate() error {
	if !isReal(c.Open, c.High, c.Low, c.Close, c.Volume) {
		return fmt.Errorf("%w: candle fields must be finite", ErrInvalidInput)
	}
	lo := math.Min(c.Open, c.Close)
	hi := math.Max(c.Open, c.Close)
	if c.Low > lo || hi > c.High {
		return fmt.Errorf("%w: candle at %d violates low <= open/close <= high", ErrInvalidInput, c.TimeMS)
	}
	return nil
}

// ValidateCandles checks per-candle sanity and strictly increasing timestamps.
func ValidateCandles(cs []Candle) error {
	if len(cs) < 2 {
		return fmt.Errorf("%w: need at least 2 candles, got %d", ErrCalibrationInput, len(cs))
	}
	for i, c := range cs {
		if err := c.Validate(); err != nil {
			return err
		}
		if i > 0 && c.TimeMS <= cs[i-1].TimeMS {
			return fmt.Errorf("%w: candle times not increasing at index %d", ErrCalibrationInput, i)
		}
	}
	return nil
}

func (m Market) Validate() error {
	if m.Ticker == "" {
		return fmt.Errorf("%w: market ticker is empty", ErrInvalidInput)
	}
	hasStrike := m.Strike != nil
	hasRange := m.RangeLow != nil && m.RangeHigh != nil
	if hasStrike == hasRange {
		return fmt.Errorf("%w: exactly one of strike or range must be set", ErrInvalidInput)
	}
	if hasStrike && *m.Strike <= 0 {
		return fmt.Errorf("%w: strike must be > 0, got %g", ErrInvalidInput, *m.Strike)
	}
	if hasRange && (*m.RangeLow <= 0 || *m.RangeLow >= *m.RangeHigh) {
		return fmt.Errorf("%w: range requires 0 < low < high", ErrInvalidInput)
	}
	return nil
}

func (o Overrides) Validate() error {
	for _, m := range []struct {
		name string
		v    float64
	}{
		{"vol_mult", o.VolMult},
		{"jump_intensity_mult", o.JumpIntensityMult},
		{"jump_size_mult", o.JumpSizeMult},
	} {
		if !isReal(m.v) || m.v < 0.9 || m.v > 1.1 {
			return fmt.Errorf("%w: %s must be in [0.9, 1.1], got %g", ErrInvalidInput, m.name, m.v)
		}
	}
	return nil
}
