package optimize

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/dmap/pkg/geom"
	"github.com/Faultbox/dmap/pkg/proc"
)

// splitEdgeVertices subdivides boundary edges at every vertex lying
// strictly inside them. A sub-edge that already exists as the opposite edge
// of a neighbouring triangle takes the filled triangle into its empty slot
// and becomes interior. It returns the number of splits and false if a
// sub-edge is already filled on the same side.
func (g *graph) splitEdgeVertices(eps float64) (int, bool) {
	splits := 0
	for changed := true; changed; {
		changed = false
		for ei := 0; ei < len(g.edges); ei++ {
			e := &g.edges[ei]
			if e.dead || !e.boundary() {
				continue
			}
			a, b := e.directed()
			v := g.vertexOnEdge(a, b, eps)
			if v < 0 {
				continue
			}
			filled := e.filledTri()
			g.killEdge(ei)
			for _, pair := range [2][2]int{{a, v}, {v, b}} {
				if !g.linkTri(pair[0], pair[1], filled) {
					return splits, false
				}
			}
			splits++
			changed = true
		}
	}
	return splits, true
}

// linkTri puts ti on the left of the edge a->b, creating the edge if needed.
func (g *graph) linkTri(a, b, ti int) bool {
	ei := g.findEdge(a, b)
	if ei < 0 {
		ei = g.addEdge(a, b)
	}
	e := &g.edges[ei]
	slot := 0
	if e.v[0] != a {
		slot = 1
	}
	if e.tris[slot] != noTri {
		return false
	}
	e.tris[slot] = ti
	return true
}

// vertexOnEdge returns the first vertex strictly between a and b within eps,
// or -1.
func (g *graph) vertexOnEdge(a, b int, eps float64) int {
	pa, pb := g.verts[a].pos, g.verts[b].pos
	d := pb.Sub(pa)
	l := d.Len()
	if l <= 2*eps {
		return -1
	}
	for i := range g.verts {
		vert := &g.verts[i]
		if i == a || i == b || vert.removed {
			continue
		}
		rel := vert.pos.Sub(pa)
		along := rel.Dot(d) / l
		if along <= eps || along >= l-eps {
			continue
		}
		if perp := orient2(pa, pb, vert.pos) / l; math.Abs(perp) > eps {
			continue
		}
		return i
	}
	return -1
}

// tjunctionCell is the spatial hash cell size for FixTJunctions.
const tjunctionCell = 128.0

// maxTriSplits bounds the splits applied to one source triangle.
const maxTriSplits = 256

// vertexHash finds points near line segments.
type vertexHash struct {
	points []mgl64.Vec3
	cells  map[[3]int64][]int
}

func newVertexHash(groups []*proc.OptimizeGroup, q geom.Quantizer) *vertexHash {
	h := &vertexHash{cells: make(map[[3]int64][]int)}
	seen := make(map[[3]int64]bool)
	for _, g := range groups {
		for _, t := range g.Surface() {
			for _, v := range t.V {
				k := q.PositionKey(v.XYZ)
				if seen[k] {
					continue
				}
				seen[k] = true
				c := cellOf(v.XYZ)
				h.cells[c] = append(h.cells[c], len(h.points))
				h.points = append(h.points, v.XYZ)
			}
		}
	}
	return h
}

func cellOf(p mgl64.Vec3) [3]int64 {
	return [3]int64{
		int64(math.Floor(p[0] / tjunctionCell)),
		int64(math.Floor(p[1] / tjunctionCell)),
		int64(math.Floor(p[2] / tjunctionCell)),
	}
}

type edgePoint struct {
	t float64
	p mgl64.Vec3
}

// onSegment returns the points strictly inside segment ab, ordered from a.
func (h *vertexHash) onSegment(a, b mgl64.Vec3, eps float64) []edgePoint {
	d := b.Sub(a)
	l := d.Len()
	if l <= 2*eps {
		return nil
	}

	bounds := geom.BoundsFromPoints(a, b).Expand(eps)
	lo, hi := cellOf(bounds.Min), cellOf(bounds.Max)
	numCells := (hi[0] - lo[0] + 1) * (hi[1] - lo[1] + 1) * (hi[2] - lo[2] + 1)

	var found []edgePoint
	test := func(i int) {
		p := h.points[i]
		along := p.Sub(a).Dot(d) / l
		if along <= eps || along >= l-eps {
			return
		}
		closest := a.Add(d.Mul(along / l))
		if closest.Sub(p).Len() > eps {
			return
		}
		found = append(found, edgePoint{t: along / l, p: p})
	}

	if numCells > int64(len(h.points)) {
		for i := range h.points {
			test(i)
		}
	} else {
		for x := lo[0]; x <= hi[0]; x++ {
			for y := lo[1]; y <= hi[1]; y++ {
				for z := lo[2]; z <= hi[2]; z++ {
					for _, i := range h.cells[[3]int64{x, y, z}] {
						test(i)
					}
				}
			}
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].t < found[j].t })
	return found
}

// FixTJunctions splits every triangle edge of the groups that has another
// vertex of the groups strictly inside it. New vertices take the position of
// the hashed vertex and interpolate the other attributes along the edge.
// Running it twice changes nothing. It returns the number of splits.
func FixTJunctions(groups []*proc.OptimizeGroup, eps float64, q geom.Quantizer) int {
	h := newVertexHash(groups, q)
	splits := 0
	for _, g := range groups {
		src := g.Surface()
		out := make([]proc.Tri, 0, len(src))
		changed := false
		for _, t := range src {
			fixed, n := h.fixTri(t, eps)
			splits += n
			changed = changed || n > 0
			out = append(out, fixed...)
		}
		if !changed {
			continue
		}
		if g.RegeneratedTris != nil {
			g.RegeneratedTris = out
		} else {
			g.Tris = out
		}
	}
	return splits
}

func (h *vertexHash) fixTri(t proc.Tri, eps float64) ([]proc.Tri, int) {
	var done []proc.Tri
	pending := []proc.Tri{t}
	splits := 0
	for len(pending) > 0 {
		cur := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		split := false
		for i := 0; i < 3 && splits < maxTriSplits; i++ {
			a, b, c := cur.V[i], cur.V[(i+1)%3], cur.V[(i+2)%3]
			pts := h.onSegment(a.XYZ, b.XYZ, eps)
			if len(pts) == 0 {
				continue
			}
			prev := a
			for _, ep := range pts {
				mid := geom.LerpVertex(a, b, ep.t)
				mid.XYZ = ep.p
				pending = append(pending, withVerts(cur, prev, mid, c))
				prev = mid
			}
			pending = append(pending, withVerts(cur, prev, b, c))
			splits += len(pts)
			split = true
			break
		}
		if !split {
			done = append(done, cur)
		}
	}
	return done, splits
}

func withVerts(t proc.Tri, a, b, c geom.MeshVertex) proc.Tri {
	t.V = [3]geom.MeshVertex{a, b, c}
	return t
}
