// Package processor routes spikes and blocks of the active electrode into a
// rate histogram and renders it at a fixed frame rate.
package processor

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/noriah/rateviewer/dsp"
	"github.com/noriah/rateviewer/input"
	"github.com/noriah/rateviewer/logging"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var logger = logging.New("processor")

// ErrUnknownParameter is returned by SetParameter for names it does not know.
var ErrUnknownParameter = errors.New("unknown parameter")

// Frame is a histogram frame with the plot title.
type Frame struct {
	dsp.Frame
	Title   string
	Running bool
}

type Output interface {
	Write(Frame) error
}

type Config struct {
	Histogram  *dsp.Histogram // rate histogram
	Output     Output         // frame output
	FrameRate  int            // target framerate
	WindowSize int            // window_size parameter, ms
	BinSize    int            // bin_size parameter, ms
}

type electrode struct {
	input.Electrode
	active bool
}

type Processor struct {
	mu sync.Mutex

	hist *dsp.Histogram
	out  Output

	frameRate int

	electrodes []*electrode
	params     map[string]int

	stream  uint16 // stream of the active electrode
	title   string
	running bool
	stale   bool // title or layout changed since the last frame

	kick chan bool
}

func New(cfg Config) *Processor {
	if cfg.WindowSize == 0 {
		cfg.WindowSize = dsp.WindowSizeParam.Default
	}

	if cfg.BinSize == 0 {
		cfg.BinSize = dsp.BinSizeParam.Default
	}

	cfg.WindowSize = dsp.WindowSizeParam.Clamp(cfg.WindowSize)
	cfg.BinSize = dsp.BinSizeParam.Clamp(cfg.BinSize)
	if cfg.BinSize > cfg.WindowSize {
		cfg.BinSize = cfg.WindowSize
	}

	hist := cfg.Histogram
	if hist == nil {
		hist = dsp.NewHistogram(dsp.HistogramConfig{
			WindowSize: cfg.WindowSize,
			BinSize:    cfg.BinSize,
		})
	}

	return &Processor{
		hist:      hist,
		out:       cfg.Output,
		frameRate: cfg.FrameRate,
		params: map[string]int{
			dsp.WindowSizeParam.Name: cfg.WindowSize,
			dsp.BinSizeParam.Name:    cfg.BinSize,
		},
		stale: true,
		kick:  make(chan bool, 1),
	}
}

// Histogram returns the histogram fed by the processor.
func (p *Processor) Histogram() *dsp.Histogram {
	return p.hist
}

// UpdateSettings replaces the known electrodes, all inactive, and reapplies
// the window and bin parameters.
func (p *Processor) UpdateSettings(electrodes []input.Electrode) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.electrodes = p.electrodes[:0]
	for _, e := range electrodes {
		p.electrodes = append(p.electrodes, &electrode{Electrode: e})
	}

	p.hist.SetWindowSize(p.params[dsp.WindowSizeParam.Name])
	p.hist.SetBinSize(p.params[dsp.BinSizeParam.Name])
	p.touch()

	logger.Debug("settings updated", zap.Int("electrodes", len(electrodes)))
}

// ElectrodesForStream returns the names of the electrodes on a stream.
func (p *Processor) ElectrodesForStream(streamID uint16) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var names []string
	for _, e := range p.electrodes {
		if e.StreamID == streamID {
			names = append(names, e.Name)
		}
	}

	return names
}

// SetActiveElectrode activates the named electrode on a stream and
// deactivates all others. The histogram takes the electrode's sample rate
// and the plot its name. Returns false if no electrode matched.
func (p *Processor) SetActiveElectrode(streamID uint16, name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	found := false

	for _, e := range p.electrodes {
		e.active = e.StreamID == streamID && strings.EqualFold(e.Name, name)
		if !e.active {
			continue
		}

		found = true
		p.stream = streamID
		p.title = e.Name
		p.hist.SetSampleRate(e.SampleRate)

		logger.Info("electrode selected",
			zap.String("electrode", e.Describe()))
	}

	if found {
		p.touch()
	}

	return found
}

// Parameter returns the current value of a parameter.
func (p *Processor) Parameter(name string) (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	v, ok := p.params[strings.ToLower(name)]
	return v, ok
}

// SetParameter clamps value to the parameter bounds and applies it. The bin
// never gets wider than the window: a window below the bin size is raised to
// it and a bin above the window size is lowered to it. Returns the value in
// use.
func (p *Processor) SetParameter(name string, value int) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case strings.EqualFold(name, dsp.WindowSizeParam.Name):
		value = dsp.WindowSizeParam.Clamp(value)
		if bin := p.params[dsp.BinSizeParam.Name]; value < bin {
			value = bin
		}

		p.hist.SetWindowSize(value)
		p.params[dsp.WindowSizeParam.Name] = value

	case strings.EqualFold(name, dsp.BinSizeParam.Name):
		value = dsp.BinSizeParam.Clamp(value)
		if window := p.params[dsp.WindowSizeParam.Name]; value > window {
			value = window
		}

		p.hist.SetBinSize(value)
		p.params[dsp.BinSizeParam.Name] = value

	default:
		return 0, errors.Wrap(ErrUnknownParameter, name)
	}

	p.touch()

	return value, nil
}

// StepParameter moves a parameter by delta.
func (p *Processor) StepParameter(name string, delta int) (int, error) {
	v, ok := p.Parameter(name)
	if !ok {
		return 0, errors.Wrap(ErrUnknownParameter, name)
	}

	return p.SetParameter(name, v+delta)
}

// HandleSpike records a spike of the active electrode. Others are dropped.
func (p *Processor) HandleSpike(s input.Spike) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running || s.StreamID != p.stream {
		return
	}

	for _, e := range p.electrodes {
		if e.active && e.StreamID == s.StreamID && strings.EqualFold(e.Name, s.Electrode) {
			p.hist.RecordSpike(s.Sample)
			return
		}
	}
}

// HandleBlock advances the histogram cursor to the end of a block of the
// active stream and wakes the render loop if a bin closed.
func (p *Processor) HandleBlock(b input.Block) {
	p.mu.Lock()
	match := p.running && b.StreamID == p.stream
	p.mu.Unlock()

	if !match {
		return
	}

	if p.hist.AdvanceCursor(b.Last()) {
		p.Kick()
	}
}

// StartAcquisition starts accepting data. The cursor is re-based on sample,
// the first sample the source will report.
func (p *Processor) StartAcquisition(sample int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.hist.ResetCursor(sample)
	p.running = true
	p.touch()
}

// StopAcquisition stops accepting data. The histogram keeps its contents.
func (p *Processor) StopAcquisition() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.running = false
	p.touch()
}

// Running reports whether the processor accepts data.
func (p *Processor) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Kick wakes the render loop without blocking.
func (p *Processor) Kick() {
	select {
	case p.kick <- true:
	default:
	}
}

// touch marks the frame stale and wakes the render loop. p.mu must be held.
func (p *Processor) touch() {
	p.stale = true
	p.Kick()
}

// Frame returns the current frame and whether it changed since the last call.
func (p *Processor) Frame() (Frame, bool) {
	frame, updated := p.hist.TakeFrame()

	p.mu.Lock()
	defer p.mu.Unlock()

	updated = updated || p.stale
	p.stale = false

	return Frame{
		Frame:   frame,
		Title:   p.title,
		Running: p.running,
	}, updated
}

// Flush writes the current frame whether it changed or not.
func (p *Processor) Flush() error {
	frame, _ := p.Frame()
	return p.out.Write(frame)
}

// Process writes a frame to the output whenever one is due, until ctx is
// done or the output fails.
func (p *Processor) Process(ctx context.Context) error {
	if p.frameRate <= 0 {
		// if we do not have a framerate set, allow at most 1 second per frame
		p.frameRate = 1
	}

	dur := time.Second / time.Duration(p.frameRate)
	ticker := time.NewTicker(dur)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-p.kick:
		case <-ticker.C:
		}

		frame, updated := p.Frame()
		if !updated {
			continue
		}

		if err := p.out.Write(frame); err != nil {
			return errors.Wrap(err, "failed to write frame")
		}
	}
}
