package probability

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/bcdannyboy/kalshiq/models"
)

const (
	DefaultBatches      = 10
	DefaultSamplePaths  = 15
	DefaultSamplePoints = 60

	// faultShare is the tolerated fraction of paths that may fault and be
	// redrawn before the whole job fails.
	faultShare = 0.01
)

// Config drives one Monte Carlo run.
type Config struct {
	Paths    int // total path count N
	Batches  int // progress batches B
	Threads  int // fixed sub-stream count per batch
	BaseSeed uint64

	// Parallel selects concurrent execution of a batch's sub-streams. The
	// sub-stream partition and seeds are fixed by Threads, so the result is
	// bit-identical either way.
	Parallel bool

	CaptureDistribution bool
	SamplePaths         int // retained trajectories, default 15
	SamplePoints        int // max points per retained trajectory, default 60
}

func (c Config) withDefaults() Config {
	if c.Batches <= 0 {
		c.Batches = DefaultBatches
	}
	if c.Threads <= 0 {
		c.Threads = 1
	}
	if c.SamplePaths <= 0 {
		c.SamplePaths = DefaultSamplePaths
	}
	if c.SamplePoints <= 0 {
		c.SamplePoints = DefaultSamplePoints
	}
	return c
}

// ProgressFunc receives one snapshot after every finished batch.
type ProgressFunc func(models.Progress)

// streamAcc accumulates one sub-stream's outcomes. Sub-stream accumulators
// merge in thread-index order so the run is deterministic regardless of
// execution mode.
type streamAcc struct {
	hits, n      int
	sumX, sumX2  float64
	min, max     float64
	terminals    []float64
	samples      []models.PathSample
	faults       int
	varianceCaps int
	moveClamps   int
}

// Run executes the full simulation: B batches of independent paths, progress
// after each batch, Wilson-priced final result. Cancellation is cooperative
// and checked between batches; a cancelled run returns no result.
func Run(ctx context.Context, in models.SimInputs, target models.Target, cfg Config, onProgress ProgressFunc) (*models.SimResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := target.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	if cfg.Paths <= 0 {
		return nil, fmt.Errorf("%w: paths must be > 0, got %d", models.ErrInvalidInput, cfg.Paths)
	}

	k := newKernel(in)

	perBatch := (cfg.Paths + cfg.Batches - 1) / cfg.Batches
	faultBudget := int(math.Ceil(faultShare * float64(cfg.Paths)))

	total := streamAcc{min: math.Inf(1), max: math.Inf(-1)}
	var convergence []models.Progress
	samplesLeft := 0
	if cfg.CaptureDistribution {
		samplesLeft = cfg.SamplePaths
	}

	assigned := 0
	for batch := 0; batch < cfg.Batches && assigned < cfg.Paths; batch++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("between batches: %w", models.ErrCancelled)
		}

		batchPaths := perBatch
		if assigned+batchPaths > cfg.Paths {
			batchPaths = cfg.Paths - assigned // last batch absorbs the remainder
		}
		assigned += batchPaths

		accs := runBatch(k, target, cfg, batch, batchPaths, samplesLeft, faultBudget)
		for _, acc := range accs {
			total.merge(acc)
		}
		samplesLeft -= len(accs[0].samples)

		if total.faults > faultBudget {
			return nil, fmt.Errorf("%d of %d paths faulted: %w", total.faults, cfg.Paths, models.ErrNumericalFault)
		}

		p := 0.0
		if total.n > 0 {
			p = float64(total.hits) / float64(total.n)
		}
		lo, hi := models.WilsonInterval(total.hits, total.n, models.Z95)
		snap := models.Progress{
			CumulativeN:    total.n,
			CumulativeHits: total.hits,
			RunningP:       p,
			RunningCI:      [2]float64{lo, hi},
		}
		convergence = append(convergence, snap)
		if onProgress != nil {
			onProgress(snap)
		}
	}

	p, lo, hi, stderr, fair := models.Price(total.hits, total.n)
	res := &models.SimResult{
		Target:      target,
		Probability: p,
		CILow:       lo,
		CIHigh:      hi,
		FairCents:   fair,
		Diagnostics: models.Diagnostics{
			StdErr:       stderr,
			N:            total.n,
			Faults:       total.faults,
			VarianceCaps: total.varianceCaps,
			MoveClamps:   total.moveClamps,
			Compensated:  in.Compensate,
			Convergence:  convergence,
		},
	}
	if total.n > 1 {
		mean := total.sumX / float64(total.n)
		res.Diagnostics.TerminalMean = mean
		res.Diagnostics.TerminalStd = math.Sqrt(math.Max(0, (total.sumX2-float64(total.n)*mean*mean)/float64(total.n-1)))
	}
	if cfg.CaptureDistribution {
		res.Distribution = Summarize(total.terminals, total.samples, cfg.SamplePoints)
	}
	return res, nil
}

// runBatch runs one batch's fixed sub-streams, concurrently or sequentially
// per cfg.Parallel, and returns their accumulators in thread order.
func runBatch(k *kernel, target models.Target, cfg Config, batch, batchPaths, samplesLeft, faultBudget int) []*streamAcc {
	accs := make([]*streamAcc, cfg.Threads)
	quota := batchPaths / cfg.Threads
	extra := batchPaths % cfg.Threads

	work := func(thread int) func() error {
		paths := quota
		if thread < extra {
			paths++
		}
		var seed uint64
		if cfg.Threads == 1 {
			seed = batchSeed(cfg.BaseSeed, batch)
		} else {
			seed = threadSeed(cfg.BaseSeed, batch, thread)
		}
		record := 0
		if thread == 0 {
			record = samplesLeft
		}
		return func() error {
			accs[thread] = runStream(k, target, seed, paths, record, cfg.CaptureDistribution, faultBudget)
			return nil
		}
	}

	if cfg.Parallel && cfg.Threads > 1 {
		var g errgroup.Group
		for t := 0; t < cfg.Threads; t++ {
			g.Go(work(t))
		}
		_ = g.Wait() // workers never return errors; faults are counted, not raised
	} else {
		for t := 0; t < cfg.Threads; t++ {
			_ = work(t)()
		}
	}
	return accs
}

// runStream draws one sub-stream's quota of paths from a fresh seeded stream.
// Faulted paths are replaced with fresh paths from the same stream until the
// fault budget is exhausted.
func runStream(k *kernel, target models.Target, seed uint64, paths, record int, capture bool, faultBudget int) *streamAcc {
	s := NewStream(seed)
	acc := &streamAcc{min: math.Inf(1), max: math.Inf(-1)}

	for i := 0; i < paths; i++ {
		var rec *models.PathSample
		if i < record {
			sp := make(models.PathSample, 0, k.steps+1)
			rec = &sp
		}

		terminal, st, err := k.simulatePath(s, rec)
		acc.varianceCaps += st.varianceCaps
		acc.moveClamps += st.moveClamps
		for err != nil {
			acc.faults++
			if acc.faults > faultBudget {
				return acc
			}
			terminal, st, err = k.simulatePath(s, nil)
			acc.varianceCaps += st.varianceCaps
			acc.moveClamps += st.moveClamps
			rec = nil
		}

		acc.n++
		if target.Hit(terminal) {
			acc.hits++
		}
		acc.sumX += terminal
		acc.sumX2 += terminal * terminal
		acc.min = math.Min(acc.min, terminal)
		acc.max = math.Max(acc.max, terminal)
		if capture {
			acc.terminals = append(acc.terminals, terminal)
		}
		if rec != nil {
			acc.samples = append(acc.samples, *rec)
		}
	}
	return acc
}

func (a *streamAcc) merge(b *streamAcc) {
	a.hits += b.hits
	a.n += b.n
	a.sumX += b.sumX
	a.sumX2 += b.sumX2
	a.min = math.Min(a.min, b.min)
	a.max = math.Max(a.max, b.max)
	a.terminals = append(a.terminals, b.terminals...)
	a.samples = append(a.samples, b.samples...)
	a.faults += b.faults
	a.varianceCaps += b.varianceCaps
	a.moveClamps += b.moveClamps
}
