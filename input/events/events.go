// Package events reads spike and block records from text.
//
// One record per line, fields separated by white space:
//
//	s <sample> [electrode]   a spike, default electrode "events"
//	b <first> <count>        a processed block
//	# ...                    a comment
//
// All records belong to stream 0.
package events

import (
	"bufio"
	"context"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/noriah/rateviewer/input"
	"github.com/noriah/rateviewer/logging"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var logger = logging.New("events")

// DefaultElectrode is the electrode of spikes that do not name one.
const DefaultElectrode = "events"

// DefaultSampleRate is the sample rate assumed when none is configured.
const DefaultSampleRate = 30000.0

func init() {
	input.RegisterBackend("events", Backend{})
}

type Backend struct{}

func (b Backend) Init() error {
	return nil
}

func (b Backend) Close() error {
	return nil
}

func (b Backend) Electrodes() ([]input.Electrode, error) {
	def, err := b.DefaultElectrode()
	return []input.Electrode{def}, err
}

func (b Backend) DefaultElectrode() (input.Electrode, error) {
	return input.Electrode{
		Name:       DefaultElectrode,
		SampleRate: DefaultSampleRate,
	}, nil
}

// NewElectrode names an electrode of the record stream.
func (b Backend) NewElectrode(name string) input.Electrode {
	return input.Electrode{Name: name, SampleRate: DefaultSampleRate}
}

func (b Backend) Start(cfg input.SessionConfig) (input.Session, error) {
	return NewSession(cfg), nil
}

type Session struct {
	cfg input.SessionConfig

	// Open returns the record stream. Defaults to the configured source.
	Open func() (io.ReadCloser, error)

	// Sleep waits between blocks when replaying. Defaults to a context
	// aware sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

func NewSession(cfg input.SessionConfig) *Session {
	s := &Session{
		cfg:   cfg,
		Sleep: sleep,
	}

	s.Open = s.openSource

	return s
}

func (s *Session) openSource() (io.ReadCloser, error) {
	if s.cfg.Source == "" || s.cfg.Source == "-" {
		return io.NopCloser(os.Stdin), nil
	}

	f, err := os.Open(s.cfg.Source)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open event source")
	}

	return f, nil
}

func (s *Session) Start(ctx context.Context, sink input.Sink) error {
	r, err := s.Open()
	if err != nil {
		return err
	}
	defer r.Close()

	rate := s.cfg.Rate()
	if rate <= 0 {
		rate = DefaultSampleRate
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line, skipped := 0, 0

	for scanner.Scan() {
		line++

		if err := ctx.Err(); err != nil {
			return nil
		}

		rec, err := ParseRecord(scanner.Text())
		if err != nil {
			skipped++
			logger.Debug("skipping record", zap.Int("line", line), zap.Error(err))
			continue
		}

		switch rec.Kind {
		case KindSpike:
			sink.HandleSpike(rec.Spike)

		case KindBlock:
			sink.HandleBlock(rec.Block)

			if s.cfg.Replay {
				d := time.Duration(float64(rec.Block.Count) / rate * float64(time.Second))
				if err := s.Sleep(ctx, d); err != nil {
					return nil
				}
			}
		}
	}

	if skipped > 0 {
		logger.Warn("skipped malformed records", zap.Int("count", skipped))
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "failed to read events")
	}

	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type Kind int

const (
	KindNone Kind = iota
	KindSpike
	KindBlock
)

// Record is one parsed line.
type Record struct {
	Kind  Kind
	Spike input.Spike
	Block input.Block
}

var errFields = errors.New("wrong number of fields")

// ParseRecord parses one line. Blank lines and comments give KindNone.
func ParseRecord(line string) (Record, error) {
	fields := strings.Fields(line)

	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return Record{}, nil
	}

	switch fields[0] {
	case "s", "S":
		if len(fields) < 2 || len(fields) > 3 {
			return Record{}, errFields
		}

		sample, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return Record{}, errors.Wrap(err, "bad spike sample")
		}

		name := DefaultElectrode
		if len(fields) == 3 {
			name = fields[2]
		}

		return Record{
			Kind:  KindSpike,
			Spike: input.Spike{Electrode: name, Sample: sample},
		}, nil

	case "b", "B":
		if len(fields) != 3 {
			return Record{}, errFields
		}

		first, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return Record{}, errors.Wrap(err, "bad block start")
		}

		count, err := strconv.Atoi(fields[2])
		if err != nil || count < 0 {
			return Record{}, errors.Errorf("bad block size %q", fields[2])
		}

		return Record{
			Kind:  KindBlock,
			Block: input.Block{FirstSample: first, Count: count},
		}, nil
	}

	return Record{}, errors.Errorf("unknown record type %q", fields[0])
}
