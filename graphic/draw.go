package graphic

import (
	"fmt"
	"math"

	"github.com/mattn/go-runewidth"
	"github.com/noriah/rateviewer/processor"
	"github.com/nsf/termbox-go"
)

const (
	// BarRune is the block we use for bars
	BarRune rune = '█'

	// NumRunes number of runes for sub step bars
	NumRunes = 8

	// LabelWidth is the width of the rate labels left of the plot
	LabelWidth = 7
)

var barRunes = [NumRunes]rune{
	' ',
	'▁',
	'▂',
	'▃',
	'▄',
	'▅',
	'▆',
	'▇',
}

type label struct {
	pos  int
	text string
}

type bar struct {
	col   int
	width int
	value float64 // height in rows
}

// layout places a frame on a screen of the given size.
type layout struct {
	left, width  int // plot columns
	top, height  int // plot rows
	base         int // row of the axis line
	bars         []bar
	rateLabels   []label // rows
	offsetLabels []label // columns
}

func computeLayout(f processor.Frame, width, height int, cfg Config) layout {
	l := layout{
		left:  LabelWidth + 1,
		top:   1,
		base:  height - 2,
		width: width - LabelWidth - 1,
	}

	l.height = l.base - l.top
	if l.height < 0 || l.width < 1 {
		return layout{}
	}

	count := len(f.Points)
	if count == 0 {
		return l
	}

	points := f.Points
	colWidth := l.width / count

	if colWidth < 1 {
		// narrow screen, show the most recent bins
		points = points[count-l.width:]
		count = l.width
		colWidth = 1
	}

	barWidth := colWidth - cfg.SpaceWidth
	if barWidth < 1 {
		barWidth = colWidth
	}

	if cfg.BarWidth > 0 && barWidth > cfg.BarWidth {
		barWidth = cfg.BarWidth
	}

	pad := (l.width - colWidth*count) / 2
	scale := 0.0
	if f.Axis.YMax > 0 {
		scale = float64(l.height) / f.Axis.YMax
	}

	l.bars = make([]bar, count)
	for i, p := range points {
		l.bars[i] = bar{
			col:   l.left + pad + i*colWidth,
			width: barWidth,
			value: math.Min(p.Rate*scale, float64(l.height)),
		}
	}

	l.rateLabels = []label{
		{pos: l.top, text: formatRate(f.Axis.YMax)},
		{pos: l.top + l.height/2, text: formatRate(f.Axis.YMax / 2)},
		{pos: l.base - 1, text: formatRate(f.Axis.YMin)},
	}

	first := l.bars[0].col
	last := l.bars[count-1].col + colWidth - 1

	l.offsetLabels = []label{
		{pos: first, text: fmt.Sprintf("%.0f", points[0].Offset)},
		{pos: (first+last)/2 - 5, text: "offset (ms)"},
		{pos: last, text: fmt.Sprintf("%.0f", f.Axis.XMax)},
	}

	return l
}

func formatRate(hz float64) string {
	return fmt.Sprintf("%*.0f", LabelWidth-1, hz)
}

// stopAndTop returns the first row fully covered by a bar of value rows
// standing on row base, and the rune of the partial cell above it.
func stopAndTop(value float64, base int) (int, rune) {
	if value <= 0 {
		return base, barRunes[0]
	}

	whole, frac := math.Modf(value)
	return base - int(whole), barRunes[int(frac*NumRunes)]
}

func (d *Display) draw(f processor.Frame) error {
	styles := d.cfg.Styles

	if err := termbox.Clear(styles.Foreground, styles.Background); err != nil {
		return err
	}

	width, height := termbox.Size()
	l := computeLayout(f, width, height, d.cfg)

	title := f.Title
	if title == "" {
		title = "no electrode"
	}

	title = fmt.Sprintf("%s  window %d ms  bin %d ms", title, f.WindowSize, f.BinSize)
	if !f.Running {
		title += "  [stopped]"
	}

	printAt((width-runewidth.StringWidth(title))/2, 0, title, styles.Title, styles.Background)

	for xCol := l.left; xCol < l.left+l.width; xCol++ {
		termbox.SetCell(xCol, l.base, '─', styles.Axis, styles.Background)
	}

	for _, b := range l.bars {
		stop, top := stopAndTop(b.value, l.base-1)

		for xCol := b.col; xCol < b.col+b.width; xCol++ {
			for xRow := l.base - 1; xRow > stop; xRow-- {
				termbox.SetCell(xCol, xRow, BarRune, styles.Bar, styles.Background)
			}

			if top != barRunes[0] && stop >= l.top {
				termbox.SetCell(xCol, stop, top, styles.Bar, styles.Background)
			}
		}
	}

	for _, lb := range l.rateLabels {
		printAt(0, lb.pos, lb.text, styles.Foreground, styles.Background)
	}

	for _, lb := range l.offsetLabels {
		printAt(lb.pos, l.base+1, lb.text, styles.Foreground, styles.Background)
	}

	return termbox.Flush()
}

func printAt(x, y int, text string, fg, bg termbox.Attribute) {
	for _, r := range text {
		termbox.SetCell(x, y, r, fg, bg)
		x += runewidth.RuneWidth(r)
	}
}
