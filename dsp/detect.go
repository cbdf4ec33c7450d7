package dsp

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// madScale converts a median absolute deviation into a gaussian sigma.
const madScale = 0.6745

type DetectorConfig struct {
	SampleRate  float64 // Hz
	Threshold   float64 // threshold in multiples of the noise sigma
	Level       float64 // absolute threshold; overrides Threshold if > 0
	Refractory  float64 // dead time after a spike, ms
	NoiseWindow int     // samples used to estimate the noise
	Positive    bool    // detect upward crossings instead of downward
}

// Detector finds threshold crossings in a continuous signal.
type Detector struct {
	cfg DetectorConfig

	level      float64   // absolute threshold, 0 while estimating
	deadTime   int       // refractory period, samples
	deadLeft   int       // samples left in the current refractory period
	below      bool      // previous sample was past the threshold
	noise      []float64 // collected |x| for the estimate
	noiseReady bool
}

func NewDetector(cfg DetectorConfig) *Detector {
	if cfg.Threshold <= 0.0 {
		cfg.Threshold = 4.0
	}

	if cfg.NoiseWindow <= 0 {
		cfg.NoiseWindow = int(cfg.SampleRate)
	}

	d := &Detector{
		cfg:      cfg,
		deadTime: int(cfg.Refractory * cfg.SampleRate / 1000.0),
	}

	d.Recalibrate()

	return d
}

// Recalibrate drops the noise estimate. The next NoiseWindow samples are used
// to estimate it again.
func (d *Detector) Recalibrate() {
	d.noise = d.noise[:0]
	d.noiseReady = false
	d.level = 0.0

	if d.cfg.Level > 0.0 {
		d.level = d.cfg.Level
		d.noiseReady = true
	}
}

// Level returns the absolute threshold in use, 0 if it is still being
// estimated.
func (d *Detector) Level() float64 {
	return d.level
}

// NoiseLevel estimates the noise sigma of buf as median(|x|) / 0.6745.
func NoiseLevel(buf []float64) float64 {
	if len(buf) == 0 {
		return 0.0
	}

	abs := make([]float64, len(buf))
	for i, v := range buf {
		abs[i] = math.Abs(v)
	}

	sort.Float64s(abs)

	return stat.Quantile(0.5, stat.Empirical, abs, nil) / madScale
}

// Detect scans one block starting at sample index first and calls fn with
// the sample index of every crossing. Returns the number of spikes found.
func (d *Detector) Detect(first int64, buf []float64, fn func(int64)) int {
	if !d.noiseReady {
		d.estimate(buf)
		return 0
	}

	found := 0

	for idx, v := range buf {
		if !d.cfg.Positive {
			v = -v
		}

		past := v > d.level

		if d.deadLeft > 0 {
			d.deadLeft--
			d.below = past
			continue
		}

		if past && !d.below {
			fn(first + int64(idx))
			found++
			d.deadLeft = d.deadTime
		}

		d.below = past
	}

	return found
}

func (d *Detector) estimate(buf []float64) {
	need := d.cfg.NoiseWindow - len(d.noise)
	if need > len(buf) {
		need = len(buf)
	}

	d.noise = append(d.noise, buf[:need]...)

	if len(d.noise) < d.cfg.NoiseWindow {
		return
	}

	d.level = d.cfg.Threshold * NoiseLevel(d.noise)
	d.noiseReady = d.level > 0.0

	if !d.noiseReady {
		// flat signal, try again
		d.noise = d.noise[:0]
	}
}
