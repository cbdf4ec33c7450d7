package main

import (
	"errors"

	"github.com/noriah/rateviewer"
)

// config holds the command line parameters
type config struct {
	// backend is the backend name from list-backends
	backend string
	// electrode is the electrode name from list-electrodes
	electrode string
	// sampleRate overrides the electrode sample rate
	sampleRate float64
	// blockSize is the number of samples per block
	blockSize int
	// windowSize is the rate window, ms
	windowSize int
	// binSize is the bin width, ms
	binSize int
	// frameRate is the number of frames to draw every second
	frameRate int
	// source is the file read by the events backend
	source string
	// replay paces the events file to its sample clock
	replay bool
	// threshold is the spike threshold of the parec backend
	threshold float64
	// barSize is the max bar width, 0 fills the screen
	barSize int
	// spaceSize is the space between bars
	spaceSize int
	// useRaw prints rates instead of drawing them
	useRaw bool
	// logFile receives logs while the display is up
	logFile string
}

// newZeroConfig returns the default command line config.
func newZeroConfig() config {
	defaults := rateviewer.NewZeroConfig()

	return config{
		backend:    defaults.Backend,
		windowSize: defaults.WindowSize,
		binSize:    defaults.BinSize,
		frameRate:  defaults.FrameRate,
		threshold:  defaults.Threshold,
		spaceSize:  1,
	}
}

// validate checks the display parameters. The rest is checked by
// rateviewer.Config.
func (cfg *config) validate() error {
	if cfg.barSize < 0 {
		return errors.New("bar width must not be negative")
	}

	if cfg.spaceSize < 0 {
		return errors.New("space width must not be negative")
	}

	return nil
}
