package graphic

import (
	"testing"

	"github.com/noriah/rateviewer/dsp"
	"github.com/noriah/rateviewer/processor"
	"github.com/nsf/termbox-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testControl struct {
	steps map[string]int
}

func (c *testControl) StepParameter(name string, delta int) (int, error) {
	if c.steps == nil {
		c.steps = map[string]int{}
	}
	c.steps[name] += delta
	return c.steps[name], nil
}

func testFrame(rates ...float64) processor.Frame {
	points := make([]dsp.Point, len(rates))
	for i, r := range rates {
		points[i] = dsp.Point{Offset: float64(-50 * (len(rates) - i)), Rate: r}
	}

	return processor.Frame{
		Frame: dsp.Frame{
			Points:     points,
			Axis:       dsp.AxisRange{XMin: float64(-50 * len(rates)), YMax: 100},
			WindowSize: 50 * len(rates),
			BinSize:    50,
		},
		Title: "tet0",
	}
}

func TestStopAndTop(t *testing.T) {
	assert := assert.New(t)

	stop, top := stopAndTop(0, 20)
	assert.Equal(20, stop)
	assert.Equal(' ', top)

	stop, top = stopAndTop(3.5, 20)
	assert.Equal(17, stop)
	assert.Equal('▄', top)

	stop, top = stopAndTop(2, 20)
	assert.Equal(18, stop)
	assert.Equal(' ', top)
}

func TestLayout(t *testing.T) {
	assert := assert.New(t)

	cfg := Config{SpaceWidth: 1}
	l := computeLayout(testFrame(0, 50, 100, 200), 8+40, 23, cfg)

	assert.Equal(8, l.left)
	assert.Equal(40, l.width)
	assert.Equal(20, l.height)
	assert.Equal(21, l.base)

	require.Len(t, l.bars, 4)
	assert.Equal(8, l.bars[0].col)
	assert.Equal(18, l.bars[1].col)
	assert.Equal(9, l.bars[0].width)

	assert.Equal(0.0, l.bars[0].value)
	assert.Equal(10.0, l.bars[1].value)
	assert.Equal(20.0, l.bars[2].value)
	assert.Equal(20.0, l.bars[3].value, "clipped to the plot")

	assert.Equal("   100", l.rateLabels[0].text)
	assert.Equal(1, l.rateLabels[0].pos)
	assert.Equal("     0", l.rateLabels[2].text)
	assert.Equal("-200", l.offsetLabels[0].text)
	assert.Equal("0", l.offsetLabels[2].text)
}

func TestLayoutBarWidth(t *testing.T) {
	l := computeLayout(testFrame(1, 2), 8+40, 23, Config{BarWidth: 3, SpaceWidth: 1})

	require.Len(t, l.bars, 2)
	assert.Equal(t, 3, l.bars[0].width)
	assert.Equal(t, 28, l.bars[1].col)
}

func TestLayoutNarrow(t *testing.T) {
	rates := make([]float64, 100)
	for i := range rates {
		rates[i] = float64(i)
	}

	l := computeLayout(testFrame(rates...), 8+30, 23, Config{SpaceWidth: 1})

	require.Len(t, l.bars, 30)
	assert.Equal(t, 1, l.bars[0].width)
	assert.Equal(t, 70.0*20/100, l.bars[0].value, "most recent bins are shown")
	assert.Equal(t, "-1500", l.offsetLabels[0].text)
}

func TestLayoutEmpty(t *testing.T) {
	l := computeLayout(processor.Frame{}, 80, 24, Config{})
	assert.Empty(t, l.bars)

	l = computeLayout(testFrame(1), 4, 2, Config{})
	assert.Empty(t, l.bars)
}

func TestHandleKey(t *testing.T) {
	assert := assert.New(t)

	ctl := &testControl{}
	d := New(Config{}, ctl)

	assert.False(d.handleKey(termbox.Event{Key: termbox.KeyArrowUp}))
	assert.False(d.handleKey(termbox.Event{Key: termbox.KeyArrowUp}))
	assert.False(d.handleKey(termbox.Event{Key: termbox.KeyArrowLeft}))
	assert.Equal(200, ctl.steps[dsp.WindowSizeParam.Name])
	assert.Equal(-25, ctl.steps[dsp.BinSizeParam.Name])

	assert.True(d.handleKey(termbox.Event{Ch: 'q'}))
	assert.True(d.handleKey(termbox.Event{Key: termbox.KeyCtrlC}))
	assert.False(d.handleKey(termbox.Event{Ch: 'x'}))

	// no control attached
	assert.False(New(Config{}, nil).handleKey(termbox.Event{Key: termbox.KeyArrowDown}))
}
