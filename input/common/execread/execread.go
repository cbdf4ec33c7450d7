// Package execread provides a shared session that detects spikes in the
// floating-point signal a command writes to stdout.
package execread

import (
	"context"
	"encoding/binary"
	"io"
	"math"
	"os"
	"os/exec"

	"github.com/noriah/rateviewer/dsp"
	"github.com/noriah/rateviewer/input"
	"github.com/noriah/rateviewer/logging"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var logger = logging.New("execread")

// DefaultBlockSize is used when the session config has no block size.
const DefaultBlockSize = 1024

// Session is a session that reads floating-point samples from a command.
type Session struct {
	// OnStart is called when the session starts. Nil by default.
	OnStart func(ctx context.Context, cmd *exec.Cmd) error

	// prevents cmd.Stderr from pointing to os.Stderr. false by default.
	DisconnectedStderr bool

	argv []string
	cfg  input.SessionConfig

	detector *dsp.Detector

	// maligned.
	f32mode bool
}

// NewSession creates a new execread session.
func NewSession(argv []string, f32mode bool, cfg input.SessionConfig) (*Session, error) {
	if len(argv) < 1 {
		panic("argv has no arg0")
	}

	if cfg.Rate() <= 0 {
		return nil, errors.Wrap(input.ErrBadConfig, "sample rate must be positive")
	}

	if cfg.BlockSize <= 0 {
		cfg.BlockSize = DefaultBlockSize
	}

	return &Session{
		argv:    argv,
		cfg:     cfg,
		f32mode: f32mode,
		detector: dsp.NewDetector(dsp.DetectorConfig{
			SampleRate: cfg.Rate(),
			Threshold:  cfg.Threshold,
			Refractory: 1.0,
		}),
	}, nil
}

func (s *Session) Start(ctx context.Context, sink input.Sink) error {
	cmd := exec.CommandContext(ctx, s.argv[0], s.argv[1:]...)

	if !s.DisconnectedStderr {
		cmd.Stderr = os.Stderr
	}

	o, err := cmd.StdoutPipe()
	if err != nil {
		return errors.Wrap(err, "failed to get stdout pipe")
	}
	defer o.Close()

	if err := cmd.Start(); err != nil {
		return errors.Wrap(err, "failed to start "+s.argv[0])
	}

	logger.Info("reader started",
		zap.Strings("argv", s.argv),
		zap.String("electrode", s.cfg.Electrode.Describe()))

	if s.OnStart != nil {
		if err := s.OnStart(ctx, cmd); err != nil {
			return err
		}
	}

	err = s.Read(ctx, o, sink)

	// the command is killed with the context
	if werr := cmd.Wait(); werr != nil && err == nil && ctx.Err() == nil {
		err = errors.Wrap(werr, s.argv[0]+" failed")
	}

	if ctx.Err() != nil {
		return nil
	}

	return err
}

// Read runs spike detection over the samples in r, one block at a time,
// until r ends or ctx is done.
func (s *Session) Read(ctx context.Context, r io.Reader, sink input.Sink) error {
	reader := floatReader{
		order: binary.LittleEndian,
		f64:   !s.f32mode,
	}

	width := 4
	if !s.f32mode {
		width = 8
	}

	raw := make([]byte, s.cfg.BlockSize*width)
	buf := make([]float64, s.cfg.BlockSize)

	block := input.Block{StreamID: s.cfg.Electrode.StreamID}

	record := func(sample int64) {
		sink.HandleSpike(input.Spike{
			Electrode: s.cfg.Electrode.Name,
			StreamID:  s.cfg.Electrode.StreamID,
			Sample:    sample,
		})
	}

	for ctx.Err() == nil {
		n, err := io.ReadFull(r, raw)

		// a short read at the end still holds whole samples
		samples := n / width

		if samples > 0 {
			reader.reset(raw)
			for i := 0; i < samples; i++ {
				buf[i] = reader.next()
			}

			block.Count = samples
			s.detector.Detect(block.FirstSample, buf[:samples], record)
			sink.HandleBlock(block)

			block.FirstSample = block.Last()
		}

		switch {
		case err == nil:
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			return nil
		default:
			return errors.Wrap(err, "failed to read samples")
		}
	}

	return nil
}

type floatReader struct {
	order binary.ByteOrder
	buf   []byte
	f64   bool
}

func (f *floatReader) reset(b []byte) {
	f.buf = b
}

func (f *floatReader) next() float64 {
	if f.f64 {
		b := f.buf[:8]
		f.buf = f.buf[8:]
		return math.Float64frombits(f.order.Uint64(b))
	}

	b := f.buf[:4]
	f.buf = f.buf[4:]
	return float64(math.Float32frombits(f.order.Uint32(b)))
}
