// Package optimize merges the triangles of coplanar optimize groups into
// fewer, larger triangles without T-junctions.
//
// Each group is turned into an arena graph of unique vertices, edges and
// triangles. Boundary edges are split at vertices lying on them, which joins
// fragments meeting at T-junctions. Interior edges are then discarded,
// colinear boundary vertices are merged away, and every connected island is
// re-triangulated greedily inside its boundary. Any
// inconsistency leaves the group's original triangles in place.
package optimize

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/dmap/pkg/geom"
	"github.com/Faultbox/dmap/pkg/proc"
)

// areaEpsilon is the doubled 2D area below which a triangle is degenerate.
const areaEpsilon = 1e-6

// Options tunes the optimizer.
type Options struct {
	Quantizer geom.Quantizer
	// ColinearEpsilon is the distance within which a boundary vertex counts
	// as lying on the line through its neighbours.
	ColinearEpsilon float64
	// TJunctionEpsilon is the distance within which a vertex counts as lying
	// on an edge.
	TJunctionEpsilon float64
	// MaxIslandVerts skips re-triangulation of larger islands.
	MaxIslandVerts int
}

// DefaultOptions returns the standard optimizer settings.
func DefaultOptions() Options {
	return Options{
		Quantizer:        geom.DefaultQuantizer,
		ColinearEpsilon:  0.01,
		TJunctionEpsilon: 0.1,
		MaxIslandVerts:   256,
	}
}

// Stats counts optimizer work.
type Stats struct {
	Groups      int
	Optimized   int
	Smoothed    int
	Fallbacks   int
	Islands     int
	TrisIn      int
	TrisOut     int
	MergedVerts int
	EdgeSplits  int

	// CombinedEdges counts the boundary edges left after colinear merging
	// that replace more than one original edge.
	CombinedEdges int
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Groups += o.Groups
	s.Optimized += o.Optimized
	s.Smoothed += o.Smoothed
	s.Fallbacks += o.Fallbacks
	s.Islands += o.Islands
	s.TrisIn += o.TrisIn
	s.TrisOut += o.TrisOut
	s.MergedVerts += o.MergedVerts
	s.CombinedEdges += o.CombinedEdges
	s.EdgeSplits += o.EdgeSplits
}

// Group optimizes g, which lies on plane. On success g.RegeneratedTris holds
// the new triangles; on failure it is left nil.
func Group(g *proc.OptimizeGroup, plane geom.Plane, opts Options) Stats {
	st := Stats{Groups: 1, TrisIn: len(g.Tris)}
	g.RegeneratedTris = nil
	if g.Key.Smoothed || g.Key.PlaneNum < 0 {
		st.Smoothed++
		st.TrisOut = len(g.Tris)
		return st
	}

	a, b := geom.NormalVectors(plane.Normal)
	g.Axis = [2]mgl64.Vec3{a, b}

	tris, ok := optimizeTris(g, opts, &st)
	if !ok {
		st.Fallbacks++
		st.TrisOut = len(g.Tris)
		return st
	}
	g.RegeneratedTris = tris
	st.Optimized++
	st.TrisOut = len(tris)
	return st
}

func optimizeTris(g *proc.OptimizeGroup, opts Options, st *Stats) ([]proc.Tri, bool) {
	if len(g.Tris) == 0 || !linearAttributes(g.Tris, g.Axis) {
		return nil, false
	}
	if g.TexVec != ([2]mgl64.Vec4{}) && !matchesTexVec(g.Tris, g.TexVec) {
		return nil, false
	}
	gr, ok := buildGraph(g.Tris, g.Axis, opts.Quantizer)
	if !ok || len(gr.tris) == 0 {
		return nil, false
	}

	splits, ok := gr.splitEdgeVertices(opts.TJunctionEpsilon)
	st.EdgeSplits += splits
	if !ok {
		return nil, false
	}

	numIslands := gr.findIslands()
	st.Islands += numIslands
	want := make([]float64, numIslands)
	for ti := range gr.tris {
		want[gr.tris[ti].island] += gr.triArea2D(ti)
	}

	gr.dropInteriorEdges()
	st.MergedVerts += gr.mergeColinear(opts.ColinearEpsilon)
	st.CombinedEdges += gr.numCombined()

	maxVerts := opts.MaxIslandVerts
	if maxVerts <= 0 {
		maxVerts = math.MaxInt
	}
	var out []proc.Tri
	for island := 0; island < numIslands; island++ {
		tris, area, ok := gr.regenerateIsland(island, maxVerts)
		if !ok || math.Abs(area-want[island]) > 1e-3+1e-4*want[island] {
			return nil, false
		}
		out = append(out, tris...)
	}
	return out, true
}

// linearAttributes reports whether texture coordinates are one affine
// function of the plane position and all normals agree, so vertices can be
// dropped and reconnected freely.
func linearAttributes(tris []proc.Tri, axis [2]mgl64.Vec3) bool {
	project := func(p mgl64.Vec3) mgl64.Vec2 { return mgl64.Vec2{p.Dot(axis[0]), p.Dot(axis[1])} }

	var st [2]mgl64.Vec3
	found := false
	for _, t := range tris {
		p0, p1, p2 := project(t.V[0].XYZ), project(t.V[1].XYZ), project(t.V[2].XYZ)
		det := orient2(p0, p1, p2)
		if math.Abs(det) < areaEpsilon {
			continue
		}
		// solve st = c.x*x + c.y*y + c.z for both coordinates
		e1, e2 := p1.Sub(p0), p2.Sub(p0)
		for k := 0; k < 2; k++ {
			d1 := t.V[1].ST[k] - t.V[0].ST[k]
			d2 := t.V[2].ST[k] - t.V[0].ST[k]
			cx := (d1*e2[1] - d2*e1[1]) / det
			cy := (e1[0]*d2 - e2[0]*d1) / det
			st[k] = mgl64.Vec3{cx, cy, t.V[0].ST[k] - cx*p0[0] - cy*p0[1]}
		}
		found = true
		break
	}
	if !found {
		return false
	}

	normal := tris[0].V[0].Normal
	for _, t := range tris {
		for _, v := range t.V {
			p := project(v.XYZ)
			for k := 0; k < 2; k++ {
				want := st[k][0]*p[0] + st[k][1]*p[1] + st[k][2]
				if math.Abs(want-v.ST[k]) > 1e-4*(1+math.Abs(want)) {
					return false
				}
			}
			if !v.Normal.ApproxEqualThreshold(normal, 1e-3) {
				return false
			}
		}
	}
	return true
}

// matchesTexVec reports whether every vertex carries the texture coordinates
// tv assigns to its position. Sides with another projection that ended up in
// the same group fail it.
func matchesTexVec(tris []proc.Tri, tv [2]mgl64.Vec4) bool {
	for _, t := range tris {
		for _, v := range t.V {
			for k := 0; k < 2; k++ {
				want := v.XYZ.Dot(tv[k].Vec3()) + tv[k][3]
				if math.Abs(want-v.ST[k]) > 1e-4*(1+math.Abs(want)) {
					return false
				}
			}
		}
	}
	return true
}

// Groups optimizes every group of an area. planes resolves group planes.
func Groups(groups []*proc.OptimizeGroup, planes *geom.PlaneSet, opts Options) Stats {
	var st Stats
	for _, g := range groups {
		var plane geom.Plane
		if g.Key.PlaneNum >= 0 {
			plane = planes.Plane(g.Key.PlaneNum)
		}
		st.Add(Group(g, plane, opts))
	}
	return st
}
