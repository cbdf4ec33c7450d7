// Package graphic draws rate histograms on the terminal.
package graphic

import (
	"context"
	"sync"

	"github.com/noriah/rateviewer/dsp"
	"github.com/noriah/rateviewer/logging"
	"github.com/noriah/rateviewer/processor"
	"github.com/nsf/termbox-go"
	"go.uber.org/zap"
)

var logger = logging.New("graphic")

// Control changes histogram parameters from key presses.
type Control interface {
	StepParameter(name string, delta int) (int, error)
}

// Styles is the termbox styles of the display.
type Styles struct {
	Foreground termbox.Attribute
	Background termbox.Attribute
	Title      termbox.Attribute
	Axis       termbox.Attribute
	Bar        termbox.Attribute
}

// DefaultStyles draws yellow bars like a plot.
var DefaultStyles = Styles{
	Foreground: termbox.ColorDefault,
	Background: termbox.ColorDefault,
	Title:      termbox.ColorDefault | termbox.AttrBold,
	Axis:       termbox.ColorDefault,
	Bar:        termbox.ColorYellow,
}

type Config struct {
	BarWidth   int    // max bar width, 0 for no limit
	SpaceWidth int    // space between bars
	WindowStep int    // window change per key press, ms
	BinStep    int    // bin change per key press, ms
	Styles     Styles // colors
}

// Display handles drawing our rate histogram.
type Display struct {
	cfg Config
	ctl Control

	mu   sync.Mutex
	last processor.Frame

	restore func()
}

func New(cfg Config, ctl Control) *Display {
	if cfg.WindowStep <= 0 {
		cfg.WindowStep = 100
	}

	if cfg.BinStep <= 0 {
		cfg.BinStep = 25
	}

	if cfg.Styles == (Styles{}) {
		cfg.Styles = DefaultStyles
	}

	return &Display{cfg: cfg, ctl: ctl}
}

// SetControl sets the target of parameter key presses. Call before Start.
func (d *Display) SetControl(ctl Control) {
	d.ctl = ctl
}

// Init sets up the terminal.
func (d *Display) Init() error {
	restore, err := normalizeTerminal()
	if err != nil {
		return err
	}

	if err = termbox.Init(); err != nil {
		restore()
		return err
	}

	d.restore = restore

	termbox.SetInputMode(termbox.InputEsc)
	termbox.HideCursor()

	return nil
}

// Close will stop display and clean up the terminal.
func (d *Display) Close() error {
	termbox.Close()

	if d.restore != nil {
		d.restore()
	}

	return nil
}

// Start polls terminal events. The returned context is canceled when the
// user quits.
func (d *Display) Start(ctx context.Context) context.Context {
	dispCtx, dispCancel := context.WithCancel(ctx)
	go d.eventPoller(dispCtx, dispCancel)
	return dispCtx
}

// Stop wakes the event poller so it can exit.
func (d *Display) Stop() error {
	termbox.Interrupt()
	return nil
}

func (d *Display) eventPoller(ctx context.Context, fn context.CancelFunc) {
	defer fn()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		ev := termbox.PollEvent()

		switch ev.Type {
		case termbox.EventKey:
			if d.handleKey(ev) {
				return
			}

		case termbox.EventResize:
			d.mu.Lock()
			if err := d.draw(d.last); err != nil {
				logger.Warn("redraw failed", zap.Error(err))
			}
			d.mu.Unlock()

		case termbox.EventInterrupt:
			return

		case termbox.EventError:
			logger.Error("terminal error", zap.Error(ev.Err))
			return
		}
	}
}

// handleKey applies a key press. Returns true if the user quits.
func (d *Display) handleKey(ev termbox.Event) bool {
	switch ev.Key {
	case termbox.KeyCtrlC, termbox.KeyEsc:
		return true

	case termbox.KeyArrowUp:
		d.step(dsp.WindowSizeParam.Name, d.cfg.WindowStep)

	case termbox.KeyArrowDown:
		d.step(dsp.WindowSizeParam.Name, -d.cfg.WindowStep)

	case termbox.KeyArrowRight:
		d.step(dsp.BinSizeParam.Name, d.cfg.BinStep)

	case termbox.KeyArrowLeft:
		d.step(dsp.BinSizeParam.Name, -d.cfg.BinStep)
	}

	switch ev.Ch {
	case 'q', 'Q':
		return true
	}

	return false
}

func (d *Display) step(name string, delta int) {
	if d.ctl == nil {
		return
	}

	v, err := d.ctl.StepParameter(name, delta)
	if err != nil {
		logger.Warn("parameter change failed", zap.String("param", name), zap.Error(err))
		return
	}

	logger.Debug("parameter changed", zap.String("param", name), zap.Int("value", v))
}

// Write draws a frame.
func (d *Display) Write(f processor.Frame) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.last = f

	return d.draw(f)
}
