package timer

import (
	"context"
	"testing"
	"time"

	"github.com/noriah/rateviewer/input"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestBlockDuration(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(10*time.Millisecond, BlockDuration(input.SessionConfig{
		SampleRate: 30000,
		BlockSize:  300,
	}))

	assert.Equal(time.Second, BlockDuration(input.SessionConfig{
		Electrode: input.Electrode{SampleRate: 1000},
		BlockSize: 1000,
	}))

	assert.Zero(BlockDuration(input.SessionConfig{BlockSize: 10}))
	assert.Zero(BlockDuration(input.SessionConfig{SampleRate: 10}))
}

func TestProcess(t *testing.T) {
	cfg := input.SessionConfig{SampleRate: 1000, BlockSize: 5}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	total := 0
	err := Process(ctx, cfg, func(blocks int) error {
		assert.Greater(t, blocks, 0)
		total += blocks
		return nil
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.InDelta(t, 20, total, 10)
}

func TestProcessError(t *testing.T) {
	failed := errors.New("stop")

	err := Process(context.Background(), input.SessionConfig{SampleRate: 1000, BlockSize: 1},
		func(int) error { return failed })
	assert.ErrorIs(t, err, failed)

	err = Process(context.Background(), input.SessionConfig{}, nil)
	assert.ErrorIs(t, err, input.ErrBadConfig)
}
