// Package input provides spike sources.
//
// A Backend lists electrodes and starts sessions. A running Session reports
// spikes and processed blocks to a Sink from its own goroutine.
package input

import (
	"context"
	"fmt"

	"github.com/noriah/rateviewer/logging"
	"github.com/pkg/errors"
)

var logger = logging.New("input")

// ErrBadConfig is returned by sessions that cannot run with the given config.
var ErrBadConfig = errors.New("invalid session config")

// Electrode is a spike channel of a data stream.
type Electrode struct {
	Name       string  // channel name
	StreamID   uint16  // stream the channel belongs to
	SampleRate float64 // sample clock of the stream, Hz
}

func (e Electrode) String() string {
	return e.Name
}

// Describe returns a one-line description of the electrode.
func (e Electrode) Describe() string {
	return fmt.Sprintf("%s (stream %d, %.0f Hz)", e.Name, e.StreamID, e.SampleRate)
}

// Spike is a detected spike.
type Spike struct {
	Electrode string // name of the electrode that saw it
	StreamID  uint16
	Sample    int64 // sample index of the spike
}

// Block describes a processed block of samples.
type Block struct {
	StreamID    uint16
	FirstSample int64 // sample index of the first sample in the block
	Count       int   // number of samples in the block
}

// Last returns the sample index just past the block.
func (b Block) Last() int64 {
	return b.FirstSample + int64(b.Count)
}

// Sink receives data from a session.
type Sink interface {
	HandleSpike(Spike)
	HandleBlock(Block)
}

type SessionConfig struct {
	Electrode  Electrode // electrode to read
	SampleRate float64   // sample rate, 0 for the electrode's own rate
	BlockSize  int       // samples per block
	Source     string    // file to read for file backed sessions, "-" is stdin
	Replay     bool      // pace file backed sessions to the sample clock
	Threshold  float64   // spike threshold of signal backed sessions, noise sigmas
}

// Rate returns the effective sample rate of the session.
func (cfg SessionConfig) Rate() float64 {
	if cfg.SampleRate > 0 {
		return cfg.SampleRate
	}
	return cfg.Electrode.SampleRate
}

type Session interface {
	// Start runs the session until ctx is done or the source ends.
	Start(ctx context.Context, sink Sink) error
}

// SinkFuncs adapts two functions to a Sink.
type SinkFuncs struct {
	Spike func(Spike)
	Block func(Block)
}

func (s SinkFuncs) HandleSpike(sp Spike) {
	if s.Spike != nil {
		s.Spike(sp)
	}
}

func (s SinkFuncs) HandleBlock(b Block) {
	if s.Block != nil {
		s.Block(b)
	}
}
