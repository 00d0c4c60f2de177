package models

import "time"

// HestonParams holds the stochastic-variance parameters for one regime.
type HestonParams struct {
	Kappa float64 // Mean reversion speed of variance
	Theta float64 // Long-term variance
	Xi    float64 // Volatility of variance
	Rho   float64 // Correlation between asset returns and variance
}

type JumpKind string

const (
	JumpMerton JumpKind = "merton"
	JumpKou    JumpKind = "kou"
)

// JumpParams describes the compound Poisson jump component. Lambda is the
// jump rate per unit time; MuJ and SigmaJ parameterise the log jump size.
// For JumpKou the double-exponential shape (P, Eta1, Eta2) is derived from
// SigmaJ when left zero.
type JumpParams struct {
	Lambda float64
	MuJ    float64
	SigmaJ float64
	Kind   JumpKind

	// Kou shape, optional. P is the probability of an upward jump, Eta1 and
	// Eta2 the rates of the up and down exponentials.
	P    float64
	Eta1 float64
	Eta2 float64
}

// Regime indexes the hidden Markov state.
type Regime int

const (
	RegimeBull Regime = iota
	RegimeBear

	NumRegimes = 2
)

func (r Regime) String() string {
	switch r {
	case RegimeBull:
		return "BULL"
	case RegimeBear:
		return "BEAR"
	default:
		return "UNKNOWN"
	}
}

// RegimeParams bundles the per-regime drift and Heston set. Mu is per step,
// already multiplied by dt at configuration time.
type RegimeParams struct {
	Mu     float64
	Heston HestonParams
}

// HMM is the two-state regime chain: P is row-stochastic, Pi0 the initial
// distribution.
type HMM struct {
	P   [NumRegimes][NumRegimes]float64
	Pi0 [NumRegimes]float64
}

// SimInputs is the full immutable parameter bundle one simulation runs under.
type SimInputs struct {
	S0      float64 // Spot price at t=0
	THours  float64 // Horizon in hours
	DtHours float64 // Step size in hours
	Regimes [NumRegimes]RegimeParams
	HMM     HMM
	Jumps   JumpParams

	// Compensate subtracts the jump-drift compensator lambda*(E[e^Y]-1)*dt
	// from each diffusion step. Off by default; recorded in diagnostics.
	Compensate bool
}

// Steps returns the rounded step count for the horizon.
func (in SimInputs) Steps() int {
	n := int(in.THours/in.DtHours + 0.5)
	if n < 1 {
		n = 1
	}
	return n
}

type PathPoint struct {
	THours float64 `json:"t_hours"`
	Price  float64 `json:"price"`
}

// PathSample is one retained trajectory, monotone in time and starting at
// (0, s0).
type PathSample []PathPoint

type HistogramBin struct {
	Price       float64 `json:"price"`
	Probability float64 `json:"probability"`
}

// Distribution summarises the terminal-price cloud of a finished simulation.
type Distribution struct {
	Mean        float64        `json:"mean"`
	StdDev      float64        `json:"std_dev"`
	Bins        []HistogramBin `json:"bins"`
	SamplePaths []PathSample   `json:"sample_paths,omitempty"`
}

// Progress is one per-batch snapshot of the running estimate.
type Progress struct {
	CumulativeN    int     `json:"cumulative_n"`
	CumulativeHits int     `json:"cumulative_hits"`
	RunningP       float64    `json:"running_p"`
	RunningCI      [2]float64 `json:"running_ci"`
}

// Diagnostics carries the numerical bookkeeping of one simulation.
type Diagnostics struct {
	StdErr       float64    `json:"stderr"`
	N            int        `json:"n"`
	Faults       int        `json:"faults"`
	VarianceCaps int        `json:"variance_caps"`
	MoveClamps   int        `json:"move_clamps"`
	Compensated  bool       `json:"compensated"`
	TerminalMean float64    `json:"terminal_mean"`
	TerminalStd  float64    `json:"terminal_std"`
	Convergence  []Progress `json:"convergence,omitempty"`
}

// SimResult is the final pricing output for one target. Produced once per
// fingerprint and never mutated.
type SimResult struct {
	Target       Target        `json:"target"`
	Probability  float64       `json:"p"`
	CILow        float64       `json:"ci_low"`
	CIHigh       float64       `json:"ci_high"`
	FairCents    int           `json:"fair_cents"`
	Diagnostics  Diagnostics   `json:"diagnostics"`
	Distribution *Distribution `json:"distribution,omitempty"`
}

// RegimeState is the calibrated view of the hidden chain.
type RegimeState struct {
	Current       Regime              `json:"current"`
	Probabilities [NumRegimes]float64 `json:"probabilities"`
}

// CalibrationData is the bundle the calibrator produces from candle history.
// All volatilities are per-return standard deviations at their native
// granularity; GarchRV is a diagnostic conditional volatility on the hourly
// series.
type CalibrationData struct {
	DailyRV    float64     `json:"daily_rv"`
	WeeklyRV   float64     `json:"weekly_rv"`
	IntradayRV float64     `json:"intraday_rv"`
	GarchRV    float64     `json:"garch_rv"`
	Jumps      JumpParams  `json:"jumps"`
	Regime     RegimeState `json:"regime"`
	Timestamp  time.Time   `json:"timestamp"`

	// Degraded is set when candle input was unusable and the documented
	// default bundle was substituted.
	Degraded bool `json:"degraded"`
}

// Candle is one OHLCV bar. Time is unix milliseconds.
type Candle struct {
	TimeMS int64   `json:"time_ms"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// Market describes one binary market. Exactly one of Strike or the
// (RangeLow, RangeHigh) pair must be populated.
type Market struct {
	Ticker    string    `json:"ticker"`
	CloseTime time.Time `json:"close_time"`
	Strike    *float64  `json:"strike_price,omitempty"`
	RangeLow  *float64  `json:"range_low,omitempty"`
	RangeHigh *float64  `json:"range_high,omitempty"`
}

// Overrides are the sensitivity multipliers, each constrained to [0.9, 1.1].
type Overrides struct {
	VolMult           float64 `json:"vol_mult"`
	JumpIntensityMult float64 `json:"jump_intensity_mult"`
	JumpSizeMult      float64 `json:"jump_size_mult"`
}

// DefaultOverrides returns the neutral multiplier set.
func DefaultOverrides() Overrides {
	return Overrides{VolMult: 1, JumpIntensityMult: 1, JumpSizeMult: 1}
}
