package formats

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/dmap/pkg/proc"
)

// Records per output line.
const (
	vertsPerLine   = 3
	indexesPerLine = 18
)

// procWriter writes .proc tokens and remembers the first write error so the
// block writers can stay linear.
type procWriter struct {
	w   *bufio.Writer
	err error
}

func (pw *procWriter) printf(format string, args ...any) {
	if pw.err != nil {
		return
	}
	_, pw.err = fmt.Fprintf(pw.w, format, args...)
}

func (pw *procWriter) numbers(values ...float64) {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = formatNumber(v)
	}
	pw.printf("( %s ) ", strings.Join(parts, " "))
}

func (pw *procWriter) indexes(indexes []int) {
	for i, idx := range indexes {
		pw.printf("%d ", idx)
		if (i+1)%indexesPerLine == 0 {
			pw.printf("\n")
		}
	}
	pw.printf("\n")
}

// WriteProc serializes a compiled map in the mapProcFile003 text format.
func WriteProc(w io.Writer, f *proc.File) error {
	pw := &procWriter{w: bufio.NewWriter(w)}
	pw.printf("%s\n\n", proc.FileID)

	for i := range f.Models {
		pw.model(&f.Models[i])
	}
	for i := range f.ShadowModels {
		pw.shadowModel(&f.ShadowModels[i])
	}
	pw.portals(f.NumAreas, f.Portals)
	pw.nodes(f.Nodes)

	if pw.err != nil {
		return pw.err
	}
	return pw.w.Flush()
}

func (pw *procWriter) model(m *proc.Model) {
	pw.printf("model { /* name = */ %q /* numSurfaces = */ %d\n\n", m.Name, len(m.Surfaces))
	for i := range m.Surfaces {
		s := &m.Surfaces[i]
		pw.printf("/* surface %d */ { %q /* numVerts = */ %d /* numIndexes = */ %d\n",
			i, s.Material, len(s.Verts), len(s.Indexes))
		for j, v := range s.Verts {
			pw.numbers(v.XYZ[0], v.XYZ[1], v.XYZ[2], v.ST[0], v.ST[1], v.Normal[0], v.Normal[1], v.Normal[2])
			if (j+1)%vertsPerLine == 0 {
				pw.printf("\n")
			}
		}
		pw.printf("\n")
		pw.indexes(s.Indexes)
		pw.printf("}\n\n")
	}
	pw.printf("}\n\n")
}

func (pw *procWriter) shadowModel(m *proc.ShadowModel) {
	pw.printf("shadowModel { /* name = */ %q\n\n", m.Name)
	pw.printf("/* numVerts = */ %d /* noCaps = */ %d /* noFrontCaps = */ %d /* numIndexes = */ %d /* planeBits = */ %d\n",
		len(m.Verts), m.NoCaps, m.NoFrontCaps, len(m.Indexes), m.PlaneBits)
	for j, v := range m.Verts {
		pw.numbers(v[0], v[1], v[2])
		if (j+1)%vertsPerLine == 0 {
			pw.printf("\n")
		}
	}
	pw.printf("\n")
	pw.indexes(m.Indexes)
	pw.printf("}\n\n")
}

func (pw *procWriter) portals(numAreas int, portals []proc.InterAreaPortal) {
	pw.printf("interAreaPortals { /* numAreas = */ %d /* numIAP = */ %d\n\n", numAreas, len(portals))
	pw.printf("/* interAreaPortal format is: numPoints positiveSideArea negativeSideArea ( point ) ... */\n")
	for i, p := range portals {
		pw.printf("/* iap %d */ %d %d %d ", i, len(p.Winding), p.Area0, p.Area1)
		for _, v := range p.Winding {
			pw.numbers(v[0], v[1], v[2])
		}
		pw.printf("\n")
	}
	pw.printf("}\n\n")
}

func (pw *procWriter) nodes(nodes []proc.Node) {
	pw.printf("nodes { /* numNodes = */ %d\n\n", len(nodes))
	pw.printf("/* node format is: ( planeVector ) positiveChild negativeChild */\n")
	pw.printf("/* a child number of 0 is an opaque, solid area */\n")
	pw.printf("/* negative child numbers are areas: (-1-child) */\n")
	for i, n := range nodes {
		pw.printf("/* node %d */ ", i)
		pw.numbers(n.Plane.Normal[0], n.Plane.Normal[1], n.Plane.Normal[2], -n.Plane.Dist)
		pw.printf("%d %d\n", n.Children[0], n.Children[1])
	}
	pw.printf("}\n\n")
}

// SaveProc writes a compiled map to path.
func SaveProc(path string, f *proc.File) error {
	return writeFile(path, func(w io.Writer) error { return WriteProc(w, f) })
}

// writeFile creates path, along with missing parent directories, and fills
// it with write.
func writeFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
