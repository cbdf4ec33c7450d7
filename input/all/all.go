// Package all imports all backends implemented by the input package.
package all

import (
	_ "github.com/noriah/rateviewer/input/events"
	_ "github.com/noriah/rateviewer/input/parec"
	_ "github.com/noriah/rateviewer/input/synthetic"
)
