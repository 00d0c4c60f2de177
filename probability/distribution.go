package probability

import (
	"math"

	"github.com/bcdannyboy/kalshiq/models"
)

const histogramBins = 40

// Summarize builds the terminal distribution block: one-pass Welford moments,
// a 40-bin equal-width histogram over [min, max], and the retained sample
// paths downsampled to at most maxPoints each.
func Summarize(terminals []float64, samples []models.PathSample, maxPoints int) *models.Distribution {
	if len(terminals) == 0 {
		return nil
	}

	// Welford one-pass mean and variance.
	mean := 0.0
	m2 := 0.0
	lo := terminals[0]
	hi := terminals[0]
	for i, x := range terminals {
		delta := x - mean
		mean += delta / float64(i+1)
		m2 += delta * (x - mean)
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	std := 0.0
	if len(terminals) > 1 {
		std = math.Sqrt(m2 / float64(len(terminals)-1))
	}

	if hi-lo < 1e-6 {
		hi = lo + 1e-6
	}
	width := (hi - lo) / histogramBins
	counts := make([]int, histogramBins)
	for _, x := range terminals {
		idx := int((x - lo) / width)
		if idx >= histogramBins {
			idx = histogramBins - 1
		}
		counts[idx]++
	}

	bins := make([]models.HistogramBin, histogramBins)
	for i, c := range counts {
		bins[i] = models.HistogramBin{
			Price:       lo + (float64(i)+0.5)*width,
			Probability: float64(c) / float64(len(terminals)),
		}
	}

	dist := &models.Distribution{
		Mean:   mean,
		StdDev: std,
		Bins:   bins,
	}
	for _, sp := range samples {
		dist.SamplePaths = append(dist.SamplePaths, downsample(sp, maxPoints))
	}
	return dist
}

// downsample thins a path to at most maxPoints by uniform stride, always
// keeping the first and last point.
func downsample(sp models.PathSample, maxPoints int) models.PathSample {
	if maxPoints < 2 || len(sp) <= maxPoints {
		return sp
	}
	// ceil((len-1)/(maxPoints-1)) leaves room for the appended last point.
	stride := (len(sp) + maxPoints - 3) / (maxPoints - 1)
	out := make(models.PathSample, 0, maxPoints)
	for i := 0; i < len(sp); i += stride {
		out = append(out, sp[i])
	}
	if out[len(out)-1] != sp[len(sp)-1] {
		out = append(out, sp[len(sp)-1])
	}
	return out
}
