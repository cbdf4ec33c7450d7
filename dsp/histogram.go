// Package dsp provides spike rate analysis
//
// A Histogram keeps a sliding window of spike counts, one per bin, and turns
// them into rates for plotting. It never looks at spike history again once a
// bin is closed.
package dsp

import (
	"sync"

	"github.com/gammazero/deque"
)

type HistogramConfig struct {
	WindowSize int     // window length, ms
	BinSize    int     // bin width, ms
	SampleRate float64 // sample clock of the active stream, Hz
}

// Point is one bin ready for plotting.
type Point struct {
	Offset float64 // left edge of the bin, ms relative to now
	Rate   float64 // spike rate, Hz
}

// AxisRange is the plot range.
type AxisRange struct {
	XMin, XMax float64
	YMin, YMax float64
}

// Frame is a consistent copy of everything a renderer needs.
type Frame struct {
	Points     []Point
	Axis       AxisRange
	WindowSize int
	BinSize    int
	MaxCount   int
	Cursor     int64
}

// Histogram is a sliding window spike rate histogram.
//
// RecordSpike expects spikes that already belong to the active electrode. The
// histogram does no filtering of its own.
type Histogram struct {
	mu sync.Mutex

	windowSize int     // window length, ms
	binSize    int     // bin width, ms
	sampleRate float64 // Hz

	edges  []float64         // bin edges, ms
	counts *deque.Deque[int] // spike count per bin, oldest first

	pending []int64 // spikes since the last close

	mostRecent int64 // latest cursor
	lastClose  int64 // cursor at the last close

	maxCount int // largest count since the last bin size change
	axis     AxisRange
	dirty    bool // closed a bin since the last TakeFrame
}

func NewHistogram(cfg HistogramConfig) *Histogram {
	h := &Histogram{
		windowSize: cfg.WindowSize,
		binSize:    cfg.BinSize,
		sampleRate: cfg.SampleRate,
		counts:     deque.New[int](),
		maxCount:   1,
	}

	h.recalculate()
	h.updateAxis()

	return h
}

// BinEdges returns the edges for a window, stepping from -windowSize by
// binSize and always ending at exactly 0. Returns nil if either size is not
// positive.
func BinEdges(windowSize, binSize int) []float64 {
	if windowSize <= 0 || binSize <= 0 {
		return nil
	}

	edges := make([]float64, 0, windowSize/binSize+2)

	for edge := float64(-windowSize); edge < 0; edge += float64(binSize) {
		edges = append(edges, edge)
	}

	return append(edges, 0.0)
}

// SetWindowSize sets the window length in ms.
func (h *Histogram) SetWindowSize(ms int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.windowSize = ms
	h.recalculate()
	h.updateAxis()
}

// SetBinSize sets the bin width in ms. The running maximum goes back to 1
// because rates of the old bins no longer compare.
func (h *Histogram) SetBinSize(ms int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.binSize = ms
	h.recalculate()
	h.maxCount = 1
}

// SetSampleRate sets the sample clock of the active stream.
func (h *Histogram) SetSampleRate(hz float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sampleRate = hz
	h.recalculate()
}

// recalculate rebuilds the edge table and zeroes the count history.
func (h *Histogram) recalculate() {
	h.edges = BinEdges(h.windowSize, h.binSize)
	h.counts.Clear()

	for i := 1; i < len(h.edges); i++ {
		h.counts.PushBack(0)
	}
}

func (h *Histogram) updateAxis() {
	h.axis = AxisRange{
		XMin: float64(-h.windowSize),
		XMax: 0.0,
		YMin: 0.0,
	}

	if h.binSize > 0 {
		h.axis.YMax = float64(h.maxCount) * 1000.0 / float64(h.binSize)
	}
}

// RecordSpike adds a spike to the open bin.
func (h *Histogram) RecordSpike(sample int64) {
	h.mu.Lock()
	h.pending = append(h.pending, sample)
	h.mu.Unlock()
}

// AdvanceCursor moves the cursor to the last sample of a processed block and
// closes a bin if at least one bin width has passed since the last close.
// Returns true if a bin was closed.
func (h *Histogram) AdvanceCursor(sample int64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.mostRecent = sample

	if h.sampleRate <= 0.0 || h.counts.Len() == 0 {
		return false
	}

	elapsed := h.mostRecent - h.lastClose
	if elapsed < 0 {
		return false
	}

	if float64(elapsed)/h.sampleRate*1000.0 < float64(h.binSize) {
		return false
	}

	h.close()

	return true
}

func (h *Histogram) close() {
	h.counts.PopFront()

	count := len(h.pending)
	if count > h.maxCount {
		h.maxCount = count
	}

	h.counts.PushBack(count)

	// keep the backing array, spikes come back every bin
	h.pending = h.pending[:0]
	h.lastClose = h.mostRecent
	h.dirty = true

	h.updateAxis()
}

// ResetCursor re-bases the cursor, for a new acquisition or a restarted
// stream. Counts and pending spikes are kept.
func (h *Histogram) ResetCursor(sample int64) {
	h.mu.Lock()
	h.mostRecent = sample
	h.lastClose = sample
	h.mu.Unlock()
}

// Bins returns the number of bins.
func (h *Histogram) Bins() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.counts.Len()
}

// Edges returns a copy of the edge table.
func (h *Histogram) Edges() []float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]float64(nil), h.edges...)
}

// Counts returns a copy of the count history, oldest first.
func (h *Histogram) Counts() []int {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]int, h.counts.Len())
	for i := range out {
		out[i] = h.counts.At(i)
	}

	return out
}

// Pending returns the number of spikes in the open bin.
func (h *Histogram) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.pending)
}

// MaxCount returns the running maximum.
func (h *Histogram) MaxCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.maxCount
}

// Axis returns the plot range as of the last close or window change.
func (h *Histogram) Axis() AxisRange {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.axis
}

// Points returns the plot data for the current history.
func (h *Histogram) Points() []Point {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.points()
}

func (h *Histogram) points() []Point {
	points := make([]Point, h.counts.Len())

	for i := range points {
		points[i].Offset = h.edges[i]
		points[i].Rate = float64(h.counts.At(i)) * 1000.0 / float64(h.binSize)
	}

	return points
}

// Frame returns a snapshot of the histogram.
func (h *Histogram) Frame() Frame {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.frame()
}

// TakeFrame returns a snapshot and whether a bin closed since the last call.
func (h *Histogram) TakeFrame() (Frame, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	updated := h.dirty
	h.dirty = false

	return h.frame(), updated
}

func (h *Histogram) frame() Frame {
	return Frame{
		Points:     h.points(),
		Axis:       h.axis,
		WindowSize: h.windowSize,
		BinSize:    h.binSize,
		MaxCount:   h.maxCount,
		Cursor:     h.mostRecent,
	}
}
