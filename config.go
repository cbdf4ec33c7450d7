package rateviewer

import (
	"context"
	"fmt"

	"github.com/noriah/rateviewer/dsp"
	"github.com/noriah/rateviewer/input"
	"github.com/noriah/rateviewer/processor"
	"github.com/pkg/errors"
)

const (
	// MaxBlockSize is the largest number of samples per block.
	MaxBlockSize = 1 << 20

	// MaxFrameRate is the highest frame rate.
	MaxFrameRate = 240
)

type SetupFunc func() error
type StartFunc func(ctx context.Context) (context.Context, error)
type CleanupFunc func() error
type AttachFunc func(proc *processor.Processor)

type Config struct {
	// The name of the backend from the input package
	Backend string
	// The name of the electrode to watch, empty for the backend default
	Electrode string
	// The sample rate of the stream, 0 for the electrode's own rate
	SampleRate float64
	// The number of samples per block
	BlockSize int
	// Length of the rate window, ms
	WindowSize int
	// Width of one bin, ms
	BinSize int
	// The number of times per second to draw
	FrameRate int
	// File to read for file backed sessions, "-" is stdin
	Source string
	// Pace file backed sessions to the sample clock
	Replay bool
	// Spike threshold of signal backed sessions, noise sigmas
	Threshold float64
	// Keep running after the source ends until the context is done
	WaitOnEnd bool

	// Function to call when setting up the pipeline
	SetupFunc SetupFunc
	// Function to call when starting the pipeline
	StartFunc StartFunc
	// Function to call when cleaning up the pipeline
	CleanupFunc CleanupFunc
	// Function to call once the processor is ready
	AttachFunc AttachFunc
	// Where to send the rate frames
	Output processor.Output
}

func NewZeroConfig() Config {
	return Config{
		Backend:    input.DefaultBackend(),
		WindowSize: dsp.WindowSizeParam.Default,
		BinSize:    dsp.BinSizeParam.Default,
		FrameRate:  30,
		Threshold:  4.0,
	}
}

func (cfg *Config) Validate() error {
	if cfg.Backend == "" {
		return errors.New("no backend given")
	}

	if cfg.SampleRate < 0 {
		return errors.New("sample rate must not be negative")
	}

	switch {
	case cfg.BlockSize < 0:
		return errors.New("block size must not be negative")

	case cfg.BlockSize > MaxBlockSize:
		return fmt.Errorf("block size too large (%d max)", MaxBlockSize)

	case cfg.FrameRate < 0:
		return errors.New("frame rate must not be negative")

	case cfg.FrameRate > MaxFrameRate:
		return fmt.Errorf("frame rate too high (%d max)", MaxFrameRate)
	}

	if !dsp.WindowSizeParam.Contains(cfg.WindowSize) {
		return fmt.Errorf("window size out of range [%d, %d]",
			dsp.WindowSizeParam.Min, dsp.WindowSizeParam.Max)
	}

	if !dsp.BinSizeParam.Contains(cfg.BinSize) {
		return fmt.Errorf("bin size out of range [%d, %d]",
			dsp.BinSizeParam.Min, dsp.BinSizeParam.Max)
	}

	if cfg.BinSize > cfg.WindowSize {
		return errors.New("bin size larger than the window")
	}

	if cfg.Output == nil {
		return errors.New("no output given")
	}

	return nil
}
