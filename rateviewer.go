// Package rateviewer shows the firing rate of one electrode as a sliding
// histogram.
package rateviewer

import (
	"context"
	"strings"

	"github.com/noriah/rateviewer/input"
	"github.com/noriah/rateviewer/logging"
	"github.com/noriah/rateviewer/processor"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var logger = logging.New("rateviewer")

// Run starts the pipeline and blocks until the source ends or ctx is done.
func Run(cfg *Config, ctx context.Context) (err error) {
	if err := cfg.Validate(); err != nil {
		return err
	}

	backend, err := input.InitBackend(cfg.Backend)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, backend.Close()) }()

	electrode, err := input.GetElectrode(backend, cfg.Electrode)
	if err != nil {
		return err
	}

	if cfg.SampleRate > 0 {
		electrode.SampleRate = cfg.SampleRate
	}

	proc := processor.New(processor.Config{
		Output:     cfg.Output,
		FrameRate:  cfg.FrameRate,
		WindowSize: cfg.WindowSize,
		BinSize:    cfg.BinSize,
	})

	proc.UpdateSettings(electrodeList(backend, electrode))

	if !proc.SetActiveElectrode(electrode.StreamID, electrode.Name) {
		return errors.Errorf("electrode %q not selectable", electrode.Name)
	}

	if cfg.AttachFunc != nil {
		cfg.AttachFunc(proc)
	}

	session, err := backend.Start(input.SessionConfig{
		Electrode:  electrode,
		SampleRate: cfg.SampleRate,
		BlockSize:  cfg.BlockSize,
		Source:     cfg.Source,
		Replay:     cfg.Replay,
		Threshold:  cfg.Threshold,
	})
	if err != nil {
		return errors.Wrap(err, "failed to start the input backend")
	}

	if cfg.SetupFunc != nil {
		if err := cfg.SetupFunc(); err != nil {
			return err
		}
	}

	if cfg.CleanupFunc != nil {
		defer func() { err = multierr.Append(err, cfg.CleanupFunc()) }()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.StartFunc != nil {
		if ctx, err = cfg.StartFunc(ctx); err != nil {
			return err
		}
	}

	procCtx, procCancel := context.WithCancel(ctx)
	defer procCancel()

	procDone := make(chan error, 1)

	proc.StartAcquisition(0)
	go func() { procDone <- proc.Process(procCtx) }()

	logger.Info("acquisition started",
		zap.String("backend", cfg.Backend),
		zap.String("electrode", electrode.Describe()))

	sessErr := session.Start(ctx, proc)
	if ctx.Err() != nil {
		sessErr = nil
	}

	proc.StopAcquisition()

	if sessErr == nil && cfg.WaitOnEnd {
		logger.Info("source ended, waiting")
		<-ctx.Done()
	}

	procCancel()

	err = multierr.Combine(
		errors.Wrap(sessErr, "input session failed"),
		<-procDone,
	)

	if err == nil {
		err = proc.Flush()
	}

	return err
}

// electrodeList returns the backend electrodes, with the selected one added
// if the backend does not list it.
func electrodeList(backend input.Backend, selected input.Electrode) []input.Electrode {
	electrodes, err := backend.Electrodes()
	if err != nil {
		logger.Warn("failed to list electrodes", zap.Error(err))
	}

	for idx := range electrodes {
		e := &electrodes[idx]
		if e.StreamID == selected.StreamID && strings.EqualFold(e.Name, selected.Name) {
			e.SampleRate = selected.SampleRate
			return electrodes
		}
	}

	return append(electrodes, selected)
}
