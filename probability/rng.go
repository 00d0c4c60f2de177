package probability

import (
	"math"

	"golang.org/x/exp/rand"
)

// Stream is one deterministic random stream. It wraps the x/exp PCG source,
// carries no global state and is cheap to construct, so the driver can seed a
// fresh stream per (batch, thread) pair.
type Stream struct {
	rng *rand.Rand
}

func NewStream(seed uint64) *Stream {
	return &Stream{rng: rand.New(rand.NewSource(seed))}
}

// splitmix64 is the finalizer used to derive sub-stream seeds. Distinct
// (base, batch, thread) triples map to well-separated seeds.
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

func batchSeed(base uint64, batch int) uint64 {
	return splitmix64(splitmix64(base) + uint64(batch))
}

func threadSeed(base uint64, batch, thread int) uint64 {
	return splitmix64(batchSeed(base, batch) + uint64(thread))
}

// Uniform returns a draw from [0, 1).
func (s *Stream) Uniform() float64 {
	return s.rng.Float64()
}

// Normal returns a standard normal draw.
func (s *Stream) Normal() float64 {
	return s.rng.NormFloat64()
}

// NormalPair returns two standard normal draws with correlation rho.
func (s *Stream) NormalPair(rho float64) (float64, float64) {
	z1 := s.rng.NormFloat64()
	z2 := s.rng.NormFloat64()
	return z1, rho*z1 + math.Sqrt(1-rho*rho)*z2
}

// Exponential returns a unit-rate exponential draw.
func (s *Stream) Exponential() float64 {
	return s.rng.ExpFloat64()
}

// Poisson draws a Poisson count by Knuth's product method. Adequate for the
// per-step jump means here, which are far below one.
func (s *Stream) Poisson(mean float64) int {
	if mean <= 0 {
		return 0
	}
	l := math.Exp(-mean)
	k := 0
	p := 1.0
	for {
		p *= s.rng.Float64()
		if p <= l {
			return k
		}
		k++
	}
}

// Categorical draws an index proportionally to the given weights. Weights
// need not be normalised; a degenerate weight vector returns the last index.
func (s *Stream) Categorical(weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	u := s.rng.Float64() * total
	acc := 0.0
	for i, w := range weights {
		acc += w
		if u < acc {
			return i
		}
	}
	return len(weights) - 1
}
