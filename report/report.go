// Package report renders calibration and simulation results as plain text
// for the CLI.
package report

import (
	"fmt"
	"strings"

	"github.com/bcdannyboy/kalshiq/models"
)

// FormatCalibration renders the calibrated bundle, flagging degraded output.
func FormatCalibration(c models.CalibrationData) string {
	var b strings.Builder

	b.WriteString("Calibration\n")
	if c.Degraded {
		b.WriteString("  DEGRADED: candle input unavailable, using defaults\n")
	}
	fmt.Fprintf(&b, "  intraday RV: %.5f\n", c.IntradayRV)
	fmt.Fprintf(&b, "  daily RV:    %.5f\n", c.DailyRV)
	fmt.Fprintf(&b, "  weekly RV:   %.5f\n", c.WeeklyRV)
	if c.GarchRV > 0 {
		fmt.Fprintf(&b, "  GARCH RV:    %.5f\n", c.GarchRV)
	}
	fmt.Fprintf(&b, "  jumps:       lambda=%.3f sigma=%.3f (%s)\n", c.Jumps.Lambda, c.Jumps.SigmaJ, c.Jumps.Kind)
	fmt.Fprintf(&b, "  regime:      %s (bull=%.2f bear=%.2f)\n",
		c.Regime.Current, c.Regime.Probabilities[models.RegimeBull], c.Regime.Probabilities[models.RegimeBear])

	return b.String()
}

// FormatResult renders the priced result with its confidence interval and
// diagnostics.
func FormatResult(r *models.SimResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Target %s\n", r.Target)
	fmt.Fprintf(&b, "  probability: %.4f\n", r.Probability)
	fmt.Fprintf(&b, "  95%% CI:      [%.4f, %.4f]\n", r.CILow, r.CIHigh)
	fmt.Fprintf(&b, "  fair value:  %d cents\n", r.FairCents)
	fmt.Fprintf(&b, "  stderr:      %.5f over %d paths\n", r.Diagnostics.StdErr, r.Diagnostics.N)
	if r.Diagnostics.Faults > 0 || r.Diagnostics.MoveClamps > 0 || r.Diagnostics.VarianceCaps > 0 {
		fmt.Fprintf(&b, "  numerics:    faults=%d move_clamps=%d variance_caps=%d\n",
			r.Diagnostics.Faults, r.Diagnostics.MoveClamps, r.Diagnostics.VarianceCaps)
	}
	if r.Diagnostics.Compensated {
		b.WriteString("  jump compensator applied\n")
	}
	if d := r.Distribution; d != nil {
		fmt.Fprintf(&b, "  terminal:    mean=%.2f std=%.2f (%d bins, %d sample paths)\n",
			d.Mean, d.StdDev, len(d.Bins), len(d.SamplePaths))
	}

	return b.String()
}
