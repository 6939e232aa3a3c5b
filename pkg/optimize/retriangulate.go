package optimize

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/dmap/pkg/proc"
)

// onSegmentEpsilon is the 2D distance at which a vertex blocks a candidate
// edge passing through it.
const onSegmentEpsilon = 1e-6

// segment is an undirected pair of vertex indices.
type segment [2]int

// islandVerts returns the sorted vertices on the live boundary of island.
func (g *graph) islandVerts(island int) ([]int, []segment) {
	set := make(map[int]bool)
	var segs []segment
	for ei := range g.edges {
		e := &g.edges[ei]
		if e.dead || !e.boundary() || g.edgeIsland(ei) != island {
			continue
		}
		set[e.v[0]] = true
		set[e.v[1]] = true
		segs = append(segs, segment{e.v[0], e.v[1]})
	}
	verts := make([]int, 0, len(set))
	for v := range set {
		verts = append(verts, v)
	}
	sort.Ints(verts)
	return verts, segs
}

// crosses reports whether segments ab and cd intersect at a point interior
// to both. Segments sharing an endpoint never cross.
func (g *graph) crosses(a, b, c, d int) bool {
	if a == c || a == d || b == c || b == d {
		return false
	}
	pa, pb, pc, pd := g.verts[a].pos, g.verts[b].pos, g.verts[c].pos, g.verts[d].pos
	d1 := side(pa, pb, pc)
	d2 := side(pa, pb, pd)
	if d1*d2 >= 0 {
		return false
	}
	d3 := side(pc, pd, pa)
	d4 := side(pc, pd, pb)
	return d3*d4 < 0
}

// side returns the signed distance of p from the line ab, snapped to zero
// within onSegmentEpsilon.
func side(a, b, p mgl64.Vec2) float64 {
	l := b.Sub(a).Len()
	if l == 0 {
		return 0
	}
	d := orient2(a, b, p) / l
	if math.Abs(d) < onSegmentEpsilon {
		return 0
	}
	return d
}

// blocked reports whether a vertex of verts lies strictly inside segment ab.
func (g *graph) blocked(a, b int, verts []int) bool {
	pa, pb := g.verts[a].pos, g.verts[b].pos
	d := pb.Sub(pa)
	l2 := d.Dot(d)
	for _, v := range verts {
		if v == a || v == b {
			continue
		}
		p := g.verts[v].pos
		if side(pa, pb, p) != 0 {
			continue
		}
		t := p.Sub(pa).Dot(d) / l2
		if t > 0 && t < 1 {
			return true
		}
	}
	return false
}

type candidate struct {
	a, b int
	len2 float64
}

// triangulate builds a constrained triangulation of the island vertices by
// inserting the shortest non-crossing edges first, keeping the boundary
// segments. It returns the adjacency of the result.
func (g *graph) triangulate(verts []int, segs []segment) map[int]map[int]bool {
	adj := make(map[int]map[int]bool, len(verts))
	for _, v := range verts {
		adj[v] = make(map[int]bool)
	}
	existing := make([]segment, 0, len(segs)*3)
	for _, s := range segs {
		adj[s[0]][s[1]] = true
		adj[s[1]][s[0]] = true
		existing = append(existing, s)
	}

	var cands []candidate
	for i, a := range verts {
		for _, b := range verts[i+1:] {
			if adj[a][b] {
				continue
			}
			d := g.verts[b].pos.Sub(g.verts[a].pos)
			cands = append(cands, candidate{a: a, b: b, len2: d.Dot(d)})
		}
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].len2 < cands[j].len2 })

	for _, c := range cands {
		if g.blocked(c.a, c.b, verts) {
			continue
		}
		ok := true
		for _, s := range existing {
			if g.crosses(c.a, c.b, s[0], s[1]) {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		adj[c.a][c.b] = true
		adj[c.b][c.a] = true
		existing = append(existing, segment{c.a, c.b})
	}
	return adj
}

// insideTri reports whether p is inside or on the counter-clockwise
// triangle abc.
func insideTri(p, a, b, c mgl64.Vec2) bool {
	const eps = -1e-9
	return orient2(a, b, p) >= eps && orient2(b, c, p) >= eps && orient2(c, a, p) >= eps
}

// regenerateIsland triangulates one island and keeps the triangles whose
// centroid lies inside one of the island's original triangles. It returns
// the new triangles and their total 2D area.
func (g *graph) regenerateIsland(island int, maxVerts int) ([]proc.Tri, float64, bool) {
	verts, segs := g.islandVerts(island)
	if len(verts) < 3 || len(verts) > maxVerts {
		return nil, 0, false
	}

	var sources []int
	for ti := range g.tris {
		if g.tris[ti].island == island {
			sources = append(sources, ti)
		}
	}
	template := g.tris[sources[0]].source

	adj := g.triangulate(verts, segs)
	var out []proc.Tri
	var area float64
	for _, a := range verts {
		for b := range adj[a] {
			if b <= a {
				continue
			}
			for c := range adj[b] {
				if c <= b || !adj[a][c] {
					continue
				}
				tri := [3]int{a, b, c}
				pa, pb, pc := g.verts[a].pos, g.verts[b].pos, g.verts[c].pos
				o := orient2(pa, pb, pc)
				if math.Abs(o) < areaEpsilon {
					continue
				}
				if o < 0 {
					tri[1], tri[2] = tri[2], tri[1]
					pb, pc = pc, pb
				}
				if g.enclosesVertex(tri, verts) {
					continue
				}
				centroid := pa.Add(pb).Add(pc).Mul(1.0 / 3)
				if !g.inOriginal(centroid, sources) {
					continue
				}
				t := template
				for i, v := range tri {
					t.V[i] = g.verts[v].mv
				}
				out = append(out, t)
				area += math.Abs(o) * 0.5
			}
		}
	}
	// map iteration order is random; keep the output stable
	sortTris(out)
	return out, area, true
}

// enclosesVertex reports whether another vertex lies strictly inside tri,
// which means the 3-cycle is not a face of the triangulation.
func (g *graph) enclosesVertex(tri [3]int, verts []int) bool {
	pa, pb, pc := g.verts[tri[0]].pos, g.verts[tri[1]].pos, g.verts[tri[2]].pos
	for _, v := range verts {
		if v == tri[0] || v == tri[1] || v == tri[2] {
			continue
		}
		p := g.verts[v].pos
		if side(pa, pb, p) > 0 && side(pb, pc, p) > 0 && side(pc, pa, p) > 0 {
			return true
		}
	}
	return false
}

func (g *graph) inOriginal(p mgl64.Vec2, sources []int) bool {
	for _, ti := range sources {
		v := g.tris[ti].v
		if insideTri(p, g.verts[v[0]].pos, g.verts[v[1]].pos, g.verts[v[2]].pos) {
			return true
		}
	}
	return false
}

func sortTris(tris []proc.Tri) {
	less := func(a, b mgl64.Vec3) int {
		for i := 0; i < 3; i++ {
			if a[i] != b[i] {
				if a[i] < b[i] {
					return -1
				}
				return 1
			}
		}
		return 0
	}
	sort.SliceStable(tris, func(i, j int) bool {
		for k := 0; k < 3; k++ {
			if c := less(tris[i].V[k].XYZ, tris[j].V[k].XYZ); c != 0 {
				return c < 0
			}
		}
		return false
	})
}
