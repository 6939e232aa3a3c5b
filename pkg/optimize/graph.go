package optimize

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/dmap/pkg/geom"
	"github.com/Faultbox/dmap/pkg/proc"
)

const noTri = -1

// optVertex is a unique vertex of a group graph.
type optVertex struct {
	mv     geom.MeshVertex
	pos    mgl64.Vec2
	edges []int
	// removed is set when edge merging dropped the vertex from the boundary
	removed bool
}

// optEdge joins two vertices. tris[0] is the triangle on the left of
// v[0]->v[1], tris[1] the one on the right.
type optEdge struct {
	v    [2]int
	tris [2]int
	// combined edges replaced two colinear boundary edges
	combined bool
	dead     bool
}

// boundary reports whether exactly one side of the edge is filled.
func (e *optEdge) boundary() bool {
	return (e.tris[0] == noTri) != (e.tris[1] == noTri)
}

// directed returns the endpoints ordered so the filled side is on the left.
func (e *optEdge) directed() (int, int) {
	if e.tris[0] != noTri {
		return e.v[0], e.v[1]
	}
	return e.v[1], e.v[0]
}

// filledTri returns the triangle on the filled side of a boundary edge.
func (e *optEdge) filledTri() int {
	if e.tris[0] != noTri {
		return e.tris[0]
	}
	return e.tris[1]
}

type optTri struct {
	v      [3]int
	source proc.Tri
	island int
}

// graph is the arena of one optimize group. Vertices, edges and triangles
// refer to each other by index.
type graph struct {
	verts []optVertex
	edges []optEdge
	tris  []optTri

	axis      [2]mgl64.Vec3
	byKey     map[geom.VertexKey]int
	edgeIndex map[[2]int]int
}

// project returns the 2D coordinates of p in the group plane.
func (g *graph) project(p mgl64.Vec3) mgl64.Vec2 {
	return mgl64.Vec2{p.Dot(g.axis[0]), p.Dot(g.axis[1])}
}

func (g *graph) vertex(v geom.MeshVertex, q geom.Quantizer) int {
	k := q.Key(v)
	if i, ok := g.byKey[k]; ok {
		return i
	}
	i := len(g.verts)
	g.verts = append(g.verts, optVertex{mv: v, pos: g.project(v.XYZ)})
	g.byKey[k] = i
	return i
}

// findEdge returns the edge between a and b, or -1.
func (g *graph) findEdge(a, b int) int {
	if i, ok := g.edgeIndex[edgeKey(a, b)]; ok {
		return i
	}
	return -1
}

func edgeKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

// addEdge creates an edge a->b and links it to both vertices.
func (g *graph) addEdge(a, b int) int {
	i := len(g.edges)
	g.edges = append(g.edges, optEdge{v: [2]int{a, b}, tris: [2]int{noTri, noTri}})
	g.edgeIndex[edgeKey(a, b)] = i
	g.verts[a].edges = append(g.verts[a].edges, i)
	g.verts[b].edges = append(g.verts[b].edges, i)
	return i
}

// killEdge unlinks an edge from the graph.
func (g *graph) killEdge(i int) {
	e := &g.edges[i]
	e.dead = true
	delete(g.edgeIndex, edgeKey(e.v[0], e.v[1]))
	for _, v := range e.v {
		g.verts[v].edges = removeInt(g.verts[v].edges, i)
	}
}

func removeInt(s []int, x int) []int {
	for i, y := range s {
		if y == x {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}

// orient2 returns twice the signed area of abc.
func orient2(a, b, c mgl64.Vec2) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

// buildGraph deduplicates vertices, drops degenerate triangles and links
// every triangle edge to its left or right slot. It fails on triangles facing
// away from the plane or edges used twice on the same side.
func buildGraph(tris []proc.Tri, axis [2]mgl64.Vec3, q geom.Quantizer) (*graph, bool) {
	g := &graph{
		axis:      axis,
		byKey:     make(map[geom.VertexKey]int),
		edgeIndex: make(map[[2]int]int),
	}
	for _, t := range tris {
		var v [3]int
		for i := range v {
			v[i] = g.vertex(t.V[i], q)
		}
		if v[0] == v[1] || v[1] == v[2] || v[2] == v[0] {
			continue
		}
		area := orient2(g.verts[v[0]].pos, g.verts[v[1]].pos, g.verts[v[2]].pos)
		if math.Abs(area) < areaEpsilon {
			continue
		}
		if area < 0 {
			return nil, false
		}

		ti := len(g.tris)
		g.tris = append(g.tris, optTri{v: v, source: t, island: -1})
		for i := 0; i < 3; i++ {
			if !g.linkTri(v[i], v[(i+1)%3], ti) {
				return nil, false
			}
		}
	}
	return g, true
}

// triArea2D returns the area of triangle ti in the plane.
func (g *graph) triArea2D(ti int) float64 {
	v := g.tris[ti].v
	return orient2(g.verts[v[0]].pos, g.verts[v[1]].pos, g.verts[v[2]].pos) * 0.5
}
