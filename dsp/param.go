package dsp

// Param is a bounded integer parameter.
type Param struct {
	Name    string
	Desc    string
	Default int
	Min     int
	Max     int
}

var (
	WindowSizeParam = Param{
		Name:    "window_size",
		Desc:    "Size of the window in ms",
		Default: 1000,
		Min:     100,
		Max:     5000,
	}

	BinSizeParam = Param{
		Name:    "bin_size",
		Desc:    "Size of the bins in ms",
		Default: 50,
		Min:     25,
		Max:     500,
	}
)

// Clamp returns v limited to [Min, Max].
func (p Param) Clamp(v int) int {
	switch {
	case v < p.Min:
		return p.Min
	case v > p.Max:
		return p.Max
	default:
		return v
	}
}

// Contains reports whether v is within bounds.
func (p Param) Contains(v int) bool {
	return v >= p.Min && v <= p.Max
}
