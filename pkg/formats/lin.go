package formats

import (
	"bufio"
	"io"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/dmap/pkg/proc"
)

// WriteLin writes a leak trace, one "x y z" line per point.
func WriteLin(w io.Writer, leak *proc.LeakFile) error {
	pw := &procWriter{w: bufio.NewWriter(w)}
	for _, p := range leak.Points {
		pw.point(p)
	}
	if pw.err != nil {
		return pw.err
	}
	return pw.w.Flush()
}

func (pw *procWriter) point(p mgl64.Vec3) {
	pw.printf("%s %s %s\n", formatNumber(p[0]), formatNumber(p[1]), formatNumber(p[2]))
}

// SaveLin writes a leak trace to path.
func SaveLin(path string, leak *proc.LeakFile) error {
	return writeFile(path, func(w io.Writer) error { return WriteLin(w, leak) })
}
