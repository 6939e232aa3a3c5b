// Package formats reads scene descriptions and writes the compiler's output
// files: .proc geometry and .lin leak traces.
package formats

import (
	"math"
	"strconv"
)

// File extensions used by the compiler.
const (
	ProcExt = ".proc"
	LinExt  = ".lin"
)

// integerEpsilon is the distance to an integer below which a number is
// written as that integer.
const integerEpsilon = 1e-4

// formatNumber writes values close to an integer as the integer and others
// in their shortest round-trip form.
func formatNumber(v float64) string {
	if r := math.Round(v); math.Abs(v-r) < integerEpsilon {
		if r == 0 {
			return "0"
		}
		return strconv.FormatFloat(r, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
