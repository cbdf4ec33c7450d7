package synthetic

import (
	"context"
	"testing"
	"time"

	"github.com/noriah/rateviewer/input"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	spikes []input.Spike
	blocks []input.Block
}

func (r *recorder) HandleSpike(s input.Spike) { r.spikes = append(r.spikes, s) }
func (r *recorder) HandleBlock(b input.Block) { r.blocks = append(r.blocks, b) }

func TestBackend(t *testing.T) {
	assert := assert.New(t)

	b := Backend{}
	electrodes, err := b.Electrodes()
	require.NoError(t, err)
	assert.Len(electrodes, len(Units))

	def, err := b.DefaultElectrode()
	require.NoError(t, err)
	assert.Equal("sim1", def.Name)

	e, err := input.GetElectrode(b, "SIM3")
	require.NoError(t, err)
	assert.Equal(uint16(1), e.StreamID)
	assert.Equal(20000.0, e.SampleRate)

	_, err = input.GetElectrode(b, "nope")
	assert.Error(err)
}

func TestSessionStep(t *testing.T) {
	assert := assert.New(t)

	sess, err := NewSession(input.SessionConfig{
		Electrode: Units[0].Electrode,
		BlockSize: 3000,
	}, 42)
	require.NoError(t, err)

	rec := &recorder{}
	sess.Step(rec, 100) // 10 seconds

	require.Len(t, rec.blocks, 100)

	for i, b := range rec.blocks {
		assert.Equal(int64(i*3000), b.FirstSample)
		assert.Equal(3000, b.Count)
		assert.Equal(uint16(0), b.StreamID)
	}

	perUnit := map[string]int{}
	for _, s := range rec.spikes {
		assert.Equal(uint16(0), s.StreamID, "only units of the session stream fire")
		assert.GreaterOrEqual(s.Sample, int64(0))
		assert.Less(s.Sample, int64(300000))
		perUnit[s.Electrode]++
	}

	assert.NotContains(perUnit, "sim3")

	// 10 s at 5, 20 and 60 Hz
	assert.InDelta(50, perUnit["sim0"], 35)
	assert.InDelta(200, perUnit["sim1"], 80)
	assert.InDelta(600, perUnit["sim2"], 150)
}

func TestSessionSeeded(t *testing.T) {
	cfg := input.SessionConfig{Electrode: Units[3].Electrode, BlockSize: 512}

	a, err := NewSession(cfg, 7)
	require.NoError(t, err)
	b, err := NewSession(cfg, 7)
	require.NoError(t, err)

	ra, rb := &recorder{}, &recorder{}
	a.Step(ra, 50)
	b.Step(rb, 50)

	assert.Equal(t, ra.spikes, rb.spikes)
	assert.Equal(t, ra.blocks, rb.blocks)
}

func TestSessionBadConfig(t *testing.T) {
	_, err := NewSession(input.SessionConfig{}, 1)
	assert.ErrorIs(t, err, input.ErrBadConfig)

	_, err = NewSession(input.SessionConfig{
		Electrode: input.Electrode{Name: "x", StreamID: 9, SampleRate: 1000},
	}, 1)
	assert.Error(t, err)
}

func TestSessionStart(t *testing.T) {
	sess, err := NewSession(input.SessionConfig{
		Electrode: Units[0].Electrode,
		BlockSize: 300, // 10 ms
	}, 1)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	blocks := 0
	sink := input.SinkFuncs{Block: func(input.Block) { blocks++ }}

	assert.Error(t, sess.Start(ctx, sink), "deadline is reported")
	assert.Greater(t, blocks, 5)
}
