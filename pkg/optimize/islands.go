package optimize

// findIslands labels triangles with their connected component. Triangles
// are connected when they share an edge, including the sub-edges created by
// splitting an edge at a T-junction. It returns the number of islands.
func (g *graph) findIslands() int {
	parent := make([]int, len(g.tris))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	for _, e := range g.edges {
		if e.dead || e.tris[0] == noTri || e.tris[1] == noTri {
			continue
		}
		a, b := find(e.tris[0]), find(e.tris[1])
		if a != b {
			parent[b] = a
		}
	}

	labels := make(map[int]int)
	for i := range g.tris {
		root := find(i)
		id, ok := labels[root]
		if !ok {
			id = len(labels)
			labels[root] = id
		}
		g.tris[i].island = id
	}
	return len(labels)
}

// edgeIsland returns the island of a boundary edge.
func (g *graph) edgeIsland(ei int) int {
	return g.tris[g.edges[ei].filledTri()].island
}
