package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/noriah/rateviewer"
	"github.com/noriah/rateviewer/graphic"
	"github.com/noriah/rateviewer/input"
	"github.com/noriah/rateviewer/logging"
	"github.com/noriah/rateviewer/processor"

	_ "github.com/noriah/rateviewer/input/all"

	"github.com/integrii/flaggy"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"
)

// AppName is the app name
const AppName = "rateviewer"

// AppDesc is the app description
const AppDesc = "Sliding window spike rate histogram for the terminal"

// AppSite is the app website
const AppSite = "https://github.com/noriah/rateviewer"

var version = "unknown"

func main() {
	log.SetFlags(0)
	defer logging.Sync()

	cfg := newZeroConfig()

	if doFlags(&cfg) {
		return
	}

	chk(cfg.validate(), "invalid config")

	rvCfg := rateviewer.Config{
		Backend:    cfg.backend,
		Electrode:  cfg.electrode,
		SampleRate: cfg.sampleRate,
		BlockSize:  cfg.blockSize,
		WindowSize: cfg.windowSize,
		BinSize:    cfg.binSize,
		FrameRate:  cfg.frameRate,
		Source:     cfg.source,
		Replay:     cfg.replay,
		Threshold:  cfg.threshold,
	}

	if cfg.useRaw {
		rvCfg.Output = NewRawOutput(os.Stdout)
	} else {
		setupDisplay(&cfg, &rvCfg)
	}

	// Root Context
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	chk(rateviewer.Run(&rvCfg, ctx), "failed to run rateviewer")
}

// setupDisplay draws on the terminal and keeps it drawn after the source
// ends. Logs go to the log file meanwhile.
func setupDisplay(cfg *config, rvCfg *rateviewer.Config) {
	display := graphic.New(graphic.Config{
		BarWidth:   cfg.barSize,
		SpaceWidth: cfg.spaceSize,
	}, nil)

	var logs zapcore.WriteSyncer = zapcore.AddSync(io.Discard)
	if cfg.logFile != "" {
		f, err := os.OpenFile(cfg.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		chk(err, "failed to open log file")
		logs = f
	}

	var restoreLogs func()

	rvCfg.WaitOnEnd = true
	rvCfg.Output = display
	rvCfg.AttachFunc = func(proc *processor.Processor) {
		display.SetControl(proc)
	}
	rvCfg.SetupFunc = func() error {
		if err := display.Init(); err != nil {
			return err
		}

		restoreLogs = logging.Redirect(logs)
		return nil
	}
	rvCfg.StartFunc = func(ctx context.Context) (context.Context, error) {
		return display.Start(ctx), nil
	}
	rvCfg.CleanupFunc = closeDisplay(display, restoreLogs)
}

type stopCloser interface {
	Stop() error
	Close() error
}

// closeDisplay stops and closes the display. Logs go back to their sink once
// the event loop is gone, before the terminal is released.
func closeDisplay(display stopCloser, restoreLogs func()) func() error {
	return func() error {
		err := display.Stop()

		if restoreLogs != nil {
			restoreLogs()
		}

		return multierr.Combine(err, display.Close())
	}
}

func doFlags(cfg *config) bool {

	parser := flaggy.NewParser(AppName)
	parser.Description = AppDesc
	parser.AdditionalHelpPrepend = AppSite
	parser.AdditionalHelpAppend = "\nkeys: up/down window size, left/right bin size, q quit"
	parser.Version = version

	listBackendsCmd := flaggy.Subcommand{
		Name:                 "list-backends",
		ShortName:            "lb",
		Description:          "list all supported backends",
		AdditionalHelpAppend: "\nuse the full name after the '-'",
	}

	parser.AttachSubcommand(&listBackendsCmd, 1)

	listElectrodesCmd := flaggy.Subcommand{
		Name:                 "list-electrodes",
		ShortName:            "le",
		Description:          "list all electrodes for a backend",
		AdditionalHelpAppend: "\nuse the full name after the '-'",
	}

	parser.AttachSubcommand(&listElectrodesCmd, 1)

	parser.String(&cfg.backend, "b", "backend", "backend name")
	parser.String(&cfg.electrode, "e", "electrode", "electrode name")
	parser.Float64(&cfg.sampleRate, "r", "rate", "sample rate (0 for the electrode rate)")
	parser.Int(&cfg.blockSize, "n", "block", "samples per block (0 for the backend default)")
	parser.Int(&cfg.windowSize, "w", "window", "window size in ms [100, 5000]")
	parser.Int(&cfg.binSize, "bs", "bin", "bin size in ms [25, 500]")
	parser.Int(&cfg.frameRate, "f", "fps", "frame rate")
	parser.String(&cfg.source, "i", "input", "events file ('-' for stdin)")
	parser.Bool(&cfg.replay, "p", "replay", "replay the events file at its sample rate")
	parser.Float64(&cfg.threshold, "t", "threshold", "spike threshold in noise sigmas")
	parser.Int(&cfg.barSize, "bw", "bar", "max bar width (0 fills the screen)")
	parser.Int(&cfg.spaceSize, "sw", "space", "space width [0, +Inf)")
	parser.Bool(&cfg.useRaw, "raw", "raw", "print rates instead of drawing them")
	parser.String(&cfg.logFile, "l", "log", "log file while drawing")

	chk(parser.Parse(), "failed to parse arguments")

	switch {
	case listBackendsCmd.Used:
		for _, backend := range input.Backends {
			fmt.Printf("- %s\n", backend.Name)
		}

		return true

	case listElectrodesCmd.Used:
		backend, err := input.InitBackend(cfg.backend)
		chk(err, "failed to init backend")
		defer backend.Close()

		electrodes, err := backend.Electrodes()
		chk(err, "failed to get electrodes")

		// We don't really need the default electrode to be indicated.
		defaultElectrode, _ := backend.DefaultElectrode()

		fmt.Printf("all electrodes for %q backend. '*' marks default\n", cfg.backend)

		for idx := range electrodes {
			star := ' '
			if electrodes[idx] == defaultElectrode {
				star = '*'
			}

			fmt.Printf("- %s %c\n", electrodes[idx].Describe(), star)
		}

		return true
	}

	return false
}

func chk(err error, wrap string) {
	if err != nil {
		log.Fatalln(wrap+": ", err)
	}
}
