// Package synthetic simulates electrodes firing Poisson spike trains.
package synthetic

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/noriah/rateviewer/input"
	"github.com/noriah/rateviewer/input/common/timer"
	"github.com/noriah/rateviewer/logging"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

var logger = logging.New("synthetic")

func init() {
	input.RegisterBackend("synthetic", Backend{})
}

// DefaultBlockSize is used when the session config has no block size.
const DefaultBlockSize = 1024

// Unit is a simulated neuron on an electrode.
type Unit struct {
	input.Electrode
	Rate   float64       // mean firing rate, Hz
	Depth  float64       // rate modulation depth [0, 1]
	Period time.Duration // rate modulation period
}

// rateAt returns the firing rate at time t seconds.
func (u Unit) rateAt(t float64) float64 {
	if u.Period <= 0 || u.Depth <= 0 {
		return u.Rate
	}

	phase := 2.0 * math.Pi * t / u.Period.Seconds()
	return u.Rate * (1.0 + u.Depth*math.Sin(phase))
}

// Units are the simulated neurons, two streams with different clocks.
var Units = []Unit{
	{Electrode: input.Electrode{Name: "sim0", StreamID: 0, SampleRate: 30000}, Rate: 5},
	{Electrode: input.Electrode{Name: "sim1", StreamID: 0, SampleRate: 30000}, Rate: 20, Depth: 0.5, Period: 4 * time.Second},
	{Electrode: input.Electrode{Name: "sim2", StreamID: 0, SampleRate: 30000}, Rate: 60, Depth: 0.9, Period: 2 * time.Second},
	{Electrode: input.Electrode{Name: "sim3", StreamID: 1, SampleRate: 20000}, Rate: 100, Depth: 0.8, Period: 8 * time.Second},
}

type Backend struct{}

func (b Backend) Init() error {
	return nil
}

func (b Backend) Close() error {
	return nil
}

func (b Backend) Electrodes() ([]input.Electrode, error) {
	out := make([]input.Electrode, len(Units))
	for i, u := range Units {
		out[i] = u.Electrode
	}
	return out, nil
}

func (b Backend) DefaultElectrode() (input.Electrode, error) {
	return Units[1].Electrode, nil
}

func (b Backend) Start(cfg input.SessionConfig) (input.Session, error) {
	sess, err := NewSession(cfg, uint64(time.Now().UnixNano()))
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// Session generates spikes for every unit on the stream of the configured
// electrode, like an acquisition system that reports all channels.
type Session struct {
	cfg   input.SessionConfig
	units []Unit
	rate  float64

	src rand.Source
	rng *rand.Rand

	next int64 // first sample of the next block
}

func NewSession(cfg input.SessionConfig, seed uint64) (*Session, error) {
	if cfg.BlockSize <= 0 {
		cfg.BlockSize = DefaultBlockSize
	}

	rate := cfg.Rate()
	if rate <= 0 {
		return nil, errors.Wrap(input.ErrBadConfig, "sample rate must be positive")
	}

	var units []Unit
	for _, u := range Units {
		if u.StreamID == cfg.Electrode.StreamID {
			units = append(units, u)
		}
	}

	if len(units) == 0 {
		return nil, errors.Errorf("no simulated units on stream %d", cfg.Electrode.StreamID)
	}

	src := rand.NewSource(seed)

	return &Session{
		cfg:   cfg,
		units: units,
		rate:  rate,
		src:   src,
		rng:   rand.New(src),
	}, nil
}

func (s *Session) Start(ctx context.Context, sink input.Sink) error {
	logger.Info("synthetic session started",
		zap.String("electrode", s.cfg.Electrode.Describe()),
		zap.Int("units", len(s.units)))

	err := timer.Process(ctx, s.cfg, func(blocks int) error {
		s.Step(sink, blocks)
		return nil
	})

	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}

// Step generates the given number of blocks.
func (s *Session) Step(sink input.Sink, blocks int) {
	spikes := make([]input.Spike, 0, 16)

	for ; blocks > 0; blocks-- {
		block := input.Block{
			StreamID:    s.cfg.Electrode.StreamID,
			FirstSample: s.next,
			Count:       s.cfg.BlockSize,
		}

		spikes = spikes[:0]

		t := float64(block.FirstSample) / s.rate
		dur := float64(block.Count) / s.rate

		for _, u := range s.units {
			poisson := distuv.Poisson{Lambda: u.rateAt(t) * dur, Src: s.src}

			for n := int(poisson.Rand()); n > 0; n-- {
				spikes = append(spikes, input.Spike{
					Electrode: u.Name,
					StreamID:  u.StreamID,
					Sample:    block.FirstSample + s.rng.Int63n(int64(block.Count)),
				})
			}
		}

		sort.Slice(spikes, func(i, j int) bool {
			return spikes[i].Sample < spikes[j].Sample
		})

		for _, sp := range spikes {
			sink.HandleSpike(sp)
		}

		sink.HandleBlock(block)

		s.next = block.Last()
	}
}

// FindUnit returns the unit simulated on an electrode.
func FindUnit(name string) (Unit, bool) {
	for _, u := range Units {
		if strings.EqualFold(u.Name, name) {
			return u, true
		}
	}
	return Unit{}, false
}
