package optimize

// dropInteriorEdges removes edges with both sides filled and marks vertices
// left without edges as removed. Only the boundary constrains the new
// triangulation.
func (g *graph) dropInteriorEdges() {
	for i := range g.edges {
		e := &g.edges[i]
		if !e.dead && !e.boundary() {
			g.killEdge(i)
		}
	}
	for i := range g.verts {
		if len(g.verts[i].edges) == 0 {
			g.verts[i].removed = true
		}
	}
}

// mergeColinear removes every boundary vertex joining exactly two colinear
// boundary edges of one island that keep the filled side on the same hand,
// replacing the pair by one combined edge. It repeats until nothing changes
// and returns the number of vertices removed.
func (g *graph) mergeColinear(eps float64) int {
	removed := 0
	for changed := true; changed; {
		changed = false
		for v := range g.verts {
			if g.tryMerge(v, eps) {
				removed++
				changed = true
			}
		}
	}
	return removed
}

func (g *graph) tryMerge(v int, eps float64) bool {
	vert := &g.verts[v]
	if vert.removed || len(vert.edges) != 2 {
		return false
	}
	in, out := vert.edges[0], vert.edges[1]
	if _, head := g.edges[in].directed(); head != v {
		in, out = out, in
	}
	p, head := g.edges[in].directed()
	tail, n := g.edges[out].directed()
	if head != v || tail != v || p == n {
		return false
	}
	if g.edgeIsland(in) != g.edgeIsland(out) {
		return false
	}
	if g.findEdge(p, n) >= 0 {
		return false
	}

	pp, vp, np := g.verts[p].pos, vert.pos, g.verts[n].pos
	d := np.Sub(pp)
	l := d.Len()
	if l == 0 {
		return false
	}
	// perpendicular distance from the line, and v must lie between p and n
	if dist := orient2(pp, np, vp) / l; dist > eps || dist < -eps {
		return false
	}
	if vp.Sub(pp).Dot(np.Sub(vp)) <= 0 {
		return false
	}

	filled := g.edges[in].filledTri()
	g.killEdge(in)
	g.killEdge(out)
	ei := g.addEdge(p, n)
	g.edges[ei].tris[0] = filled
	g.edges[ei].combined = true
	vert.removed = true
	return true
}

// numCombined returns the number of live combined edges.
func (g *graph) numCombined() int {
	n := 0
	for i := range g.edges {
		if !g.edges[i].dead && g.edges[i].combined {
			n++
		}
	}
	return n
}
