package probability

import (
	"errors"
	"math"

	"github.com/bcdannyboy/kalshiq/models"
)

const (
	// maxStepVariance caps the variance applied to a price update (25.0 is
	// 500% annualised volatility), guarding against overflow on pathological
	// parameter sets.
	maxStepVariance = 25.0

	// maxStepMove bounds a single step's log-price displacement to ±3, a
	// twenty-fold move.
	maxStepMove = 3.0
)

var errPathFault = errors.New("path produced NaN or Inf")

// jumpSampler precomputes the per-step jump draw for one simulation.
type jumpSampler struct {
	kind       models.JumpKind
	lambdaDt   float64
	muJ        float64
	sigmaJ     float64
	p          float64 // Kou up-jump probability
	eta1, eta2 float64 // Kou up/down rates
	comp       float64 // per-step drift compensator, 0 when off
}

func newJumpSampler(j models.JumpParams, dt float64, compensate bool) jumpSampler {
	js := jumpSampler{
		kind:     j.Kind,
		lambdaDt: j.Lambda * dt,
		muJ:      j.MuJ,
		sigmaJ:   j.SigmaJ,
		p:        j.P,
		eta1:     j.Eta1,
		eta2:     j.Eta2,
	}
	if js.kind == models.JumpKou {
		// Derive the double-exponential shape from the moment parameters
		// when not given explicitly: symmetric, with mean jump magnitude
		// matching sigmaJ.
		if js.p == 0 {
			js.p = 0.5
		}
		if js.eta1 == 0 {
			js.eta1 = kouRate(j.SigmaJ)
		}
		if js.eta2 == 0 {
			js.eta2 = kouRate(j.SigmaJ)
		}
	}
	if compensate {
		js.comp = j.Lambda * (js.meanJumpFactor() - 1) * dt
		if math.IsNaN(js.comp) || math.IsInf(js.comp, 0) {
			js.comp = 0
		}
	}
	return js
}

func kouRate(sigma float64) float64 {
	if sigma <= 0 {
		return 50
	}
	return 1 / sigma
}

// meanJumpFactor is E[e^Y] for the configured jump-size law.
func (js jumpSampler) meanJumpFactor() float64 {
	switch js.kind {
	case models.JumpKou:
		if js.eta1 <= 1 {
			return 1
		}
		return js.p*js.eta1/(js.eta1-1) + (1-js.p)*js.eta2/(js.eta2+1)
	default:
		return math.Exp(js.muJ + 0.5*js.sigmaJ*js.sigmaJ)
	}
}

// draw returns the summed log-jump displacement for one step.
func (js jumpSampler) draw(s *Stream) float64 {
	if js.lambdaDt <= 0 {
		return 0
	}
	n := s.Poisson(js.lambdaDt)
	sum := 0.0
	for i := 0; i < n; i++ {
		switch js.kind {
		case models.JumpKou:
			if s.Uniform() < js.p {
				sum += s.Exponential() / js.eta1
			} else {
				sum -= s.Exponential() / js.eta2
			}
		default:
			sum += js.muJ + js.sigmaJ*s.Normal()
		}
	}
	return sum
}

// kernel is the compiled per-simulation form of the inputs, shared read-only
// across all streams of a run.
type kernel struct {
	in    models.SimInputs
	steps int
	dt    float64
	pi0   []float64
	rows  [models.NumRegimes][]float64
	jumps jumpSampler
}

func newKernel(in models.SimInputs) *kernel {
	k := &kernel{
		in:    in,
		steps: in.Steps(),
		dt:    in.DtHours,
		jumps: newJumpSampler(in.Jumps, in.DtHours, in.Compensate),
	}
	k.pi0 = k.in.HMM.Pi0[:]
	for i := 0; i < models.NumRegimes; i++ {
		k.rows[i] = k.in.HMM.P[i][:]
	}
	return k
}

type pathStats struct {
	varianceCaps int
	moveClamps   int
}

// simulatePath evolves (log-price, variance, regime) over the full horizon
// and returns the terminal price. When rec is non-nil every step point is
// appended to it, starting from (0, s0).
func (k *kernel) simulatePath(s *Stream, rec *models.PathSample) (float64, pathStats, error) {
	var st pathStats

	r := s.Categorical(k.pi0)
	x := math.Log(k.in.S0)
	v := k.in.Regimes[r].Heston.Theta // long-run variance as warm start

	if rec != nil {
		*rec = append(*rec, models.PathPoint{THours: 0, Price: k.in.S0})
	}

	for step := 0; step < k.steps; step++ {
		reg := k.in.Regimes[r]
		hp := reg.Heston

		zs, zv := s.NormalPair(hp.Rho)

		vPlus := math.Max(v, 0)
		if vPlus > maxStepVariance {
			vPlus = maxStepVariance
			st.varianceCaps++
		}

		// Full-truncation Euler on the variance.
		v += hp.Kappa*(hp.Theta-vPlus)*k.dt + hp.Xi*math.Sqrt(vPlus*k.dt)*zv
		v = math.Max(v, 0)

		// reg.Mu is per step, already in units of dt.
		dx := reg.Mu - 0.5*vPlus*k.dt + math.Sqrt(vPlus*k.dt)*zs
		dx += k.jumps.draw(s) - k.jumps.comp

		if dx > maxStepMove {
			dx = maxStepMove
			st.moveClamps++
		} else if dx < -maxStepMove {
			dx = -maxStepMove
			st.moveClamps++
		}
		x += dx

		if math.IsNaN(x) || math.IsInf(x, 0) || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, st, errPathFault
		}

		if rec != nil {
			*rec = append(*rec, models.PathPoint{
				THours: float64(step+1) * k.dt,
				Price:  math.Exp(x),
			})
		}

		r = s.Categorical(k.rows[r])
	}

	terminal := math.Exp(x)
	if math.IsNaN(terminal) || math.IsInf(terminal, 0) {
		return 0, st, errPathFault
	}
	return terminal, st, nil
}
