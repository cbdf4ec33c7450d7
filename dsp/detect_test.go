package dsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoiseLevel(t *testing.T) {
	assert := assert.New(t)

	assert.Zero(NoiseLevel(nil))

	buf := []float64{-1, 1, -1, 1, -1, 1, 5}
	assert.InDelta(1.0/madScale, NoiseLevel(buf), 1e-9)
}

// noisyBlock returns a +-1 square wave with spikes of height -20 at the
// given offsets.
func noisyBlock(size int, spikes ...int) []float64 {
	buf := make([]float64, size)
	for i := range buf {
		buf[i] = 1.0
		if i%2 == 0 {
			buf[i] = -1.0
		}
	}

	for _, idx := range spikes {
		buf[idx] = -20.0
	}

	return buf
}

func TestDetectorEstimate(t *testing.T) {
	assert := assert.New(t)

	d := NewDetector(DetectorConfig{
		SampleRate:  1000.0,
		Threshold:   5.0,
		Refractory:  2.0,
		NoiseWindow: 100,
	})

	var got []int64
	record := func(s int64) { got = append(got, s) }

	// first block only calibrates
	assert.Zero(d.Detect(0, noisyBlock(100, 10), record))
	assert.Empty(got)
	assert.InDelta(5.0/madScale, d.Level(), 1e-9)

	assert.Equal(2, d.Detect(100, noisyBlock(100, 20, 60), record))
	assert.Equal([]int64{120, 160}, got)
}

func TestDetectorRefractory(t *testing.T) {
	assert := assert.New(t)

	d := NewDetector(DetectorConfig{
		SampleRate: 1000.0,
		Level:      10.0,
		Refractory: 5.0,
	})

	var got []int64
	n := d.Detect(0, noisyBlock(50, 10, 12, 14, 30), func(s int64) {
		got = append(got, s)
	})

	require.Equal(t, 2, n)
	assert.Equal([]int64{10, 30}, got)
}

func TestDetectorPositive(t *testing.T) {
	assert := assert.New(t)

	d := NewDetector(DetectorConfig{
		SampleRate: 1000.0,
		Level:      10.0,
		Positive:   true,
	})

	buf := noisyBlock(20, 5)
	buf[15] = 20.0

	var got []int64
	d.Detect(1000, buf, func(s int64) { got = append(got, s) })
	assert.Equal([]int64{1015}, got)
}

func TestDetectorFlatSignal(t *testing.T) {
	d := NewDetector(DetectorConfig{
		SampleRate:  1000.0,
		NoiseWindow: 10,
	})

	d.Detect(0, make([]float64, 10), func(int64) {})
	assert.Zero(t, d.Level())

	d.Detect(10, noisyBlock(10), func(int64) {})
	assert.InDelta(t, 4.0/madScale, d.Level(), 1e-9)
}
