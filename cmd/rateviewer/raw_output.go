package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/noriah/rateviewer/processor"
)

// RawOutput prints one line of rates per closed bin.
type RawOutput struct {
	w      io.Writer
	cursor int64
	header string
}

var _ processor.Output = &RawOutput{}

func NewRawOutput(w io.Writer) *RawOutput {
	return &RawOutput{w: w, cursor: -1}
}

// Write prints the cursor and the rates of the frame, oldest bin first. A
// header line precedes the first frame of every layout. Frames that repeat
// the last cursor are skipped.
func (d *RawOutput) Write(f processor.Frame) error {
	var sb strings.Builder

	header := fmt.Sprintf("# %s window=%dms bin=%dms", f.Title, f.WindowSize, f.BinSize)
	if header != d.header {
		sb.WriteString(header)
		sb.WriteByte('\n')
		d.header = header
	} else if f.Cursor == d.cursor {
		return nil
	}

	fmt.Fprintf(&sb, "%d", f.Cursor)
	for _, p := range f.Points {
		fmt.Fprintf(&sb, " %.2f", p.Rate)
	}
	sb.WriteByte('\n')

	d.cursor = f.Cursor

	_, err := io.WriteString(d.w, sb.String())
	return err
}
