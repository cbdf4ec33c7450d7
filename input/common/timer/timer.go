// Package timer paces sessions that generate data instead of reading it, so
// that their sample clock follows the wall clock.
package timer

import (
	"context"
	"time"

	"github.com/noriah/rateviewer/input"
)

// BlockDuration returns the wall time covered by one block of the session.
func BlockDuration(cfg input.SessionConfig) time.Duration {
	rate := cfg.Rate()
	if rate <= 0 || cfg.BlockSize <= 0 {
		return 0
	}

	return time.Duration(float64(cfg.BlockSize) / rate * float64(time.Second))
}

// Process calls fn on every block tick with the number of blocks that became
// due since the last call. Blocks missed while fn was running are handed over
// on the next call, so the total never drifts from the wall clock.
//
// Process returns when ctx is done or fn returns an error.
func Process(ctx context.Context, cfg input.SessionConfig, fn func(blocks int) error) error {
	rate := BlockDuration(cfg)
	if rate <= 0 {
		return input.ErrBadConfig
	}

	ticker := time.NewTicker(rate)
	defer ticker.Stop()

	start := time.Now()
	done := 0

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case now := <-ticker.C:
			due := int(now.Sub(start)/rate) - done
			if due <= 0 {
				continue
			}

			if err := fn(due); err != nil {
				return err
			}

			done += due
		}
	}
}
