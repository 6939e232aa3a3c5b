package bsp

import (
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/dmap/pkg/geom"
	"github.com/Faultbox/dmap/pkg/proc"
)

// AreaPortalWarning describes a group of areaportal leaves touching more than
// two areas.
type AreaPortalWarning struct {
	Center mgl64.Vec3
	Areas  []int
}

// passable reports whether a flood may cross p. Head portals lead to the
// outside node and never are.
func passable(p *Portal) bool {
	return p.OnNode != nil && !p.Nodes[0].Opaque && !p.Nodes[1].Opaque
}

// FloodAreas numbers the areas of the tree. Areas are flooded through
// non-opaque, non-areaportal leaves; each connected group of areaportal
// leaves then joins the lowest area it touches. It returns the number of
// areas and a warning per group touching more than two areas.
func (t *Tree) FloodAreas() (int, []AreaPortalWarning) {
	leaves := t.Leaves()
	for _, leaf := range leaves {
		leaf.Area = -1
	}

	numAreas := 0
	for _, leaf := range leaves {
		if leaf.Opaque || leaf.AreaPortal || leaf.Area != -1 {
			continue
		}
		t.floodArea(leaf, numAreas, func(n *Node) bool { return !n.AreaPortal })
		numAreas++
	}

	var warnings []AreaPortalWarning
	seen := make(map[*Node]bool)
	for _, leaf := range leaves {
		if !leaf.AreaPortal || seen[leaf] {
			continue
		}
		group := t.areaPortalGroup(leaf, seen)
		touching := touchingAreas(group)
		if len(touching) == 0 {
			continue
		}
		for _, n := range group {
			n.Area = touching[0]
		}
		if len(touching) > 2 {
			warnings = append(warnings, AreaPortalWarning{Center: group[0].Bounds.Center(), Areas: touching})
		}
	}
	return numAreas, warnings
}

func (t *Tree) floodArea(start *Node, area int, accept func(*Node) bool) {
	start.Area = area
	stack := []*Node{start}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, p := range n.Portals {
			if !passable(p) {
				continue
			}
			other := p.Other(n)
			if other.Area != -1 || !accept(other) {
				continue
			}
			other.Area = area
			stack = append(stack, other)
		}
	}
}

// areaPortalGroup collects the areaportal leaves connected to start.
func (t *Tree) areaPortalGroup(start *Node, seen map[*Node]bool) []*Node {
	seen[start] = true
	group := []*Node{start}
	for i := 0; i < len(group); i++ {
		for _, p := range group[i].Portals {
			if !passable(p) {
				continue
			}
			other := p.Other(group[i])
			if other.AreaPortal && !seen[other] {
				seen[other] = true
				group = append(group, other)
			}
		}
	}
	return group
}

// touchingAreas returns the sorted distinct areas adjacent to group.
func touchingAreas(group []*Node) []int {
	set := make(map[int]bool)
	for _, n := range group {
		for _, p := range n.Portals {
			if !passable(p) {
				continue
			}
			other := p.Other(n)
			if !other.AreaPortal && other.Area >= 0 {
				set[other.Area] = true
			}
		}
	}
	areas := make([]int, 0, len(set))
	for a := range set {
		areas = append(areas, a)
	}
	sort.Ints(areas)
	return areas
}

// InterAreaPortals returns one portal per leaf portal separating two areas.
// The front side of each winding faces Area0.
func (t *Tree) InterAreaPortals() []proc.InterAreaPortal {
	var out []proc.InterAreaPortal
	for _, leaf := range t.Leaves() {
		for _, p := range leaf.Portals {
			// visit each portal once, from its front leaf
			if p.Nodes[0] != leaf || !passable(p) {
				continue
			}
			a0, a1 := p.Nodes[0].Area, p.Nodes[1].Area
			if a0 < 0 || a1 < 0 || a0 == a1 {
				continue
			}
			// the portal normal points at the front leaf
			w := p.Winding.Copy()
			if a0 > a1 {
				a0, a1 = a1, a0
				w = w.Reverse()
			}
			out = append(out, proc.InterAreaPortal{Area0: a0, Area1: a1, Winding: w})
		}
	}
	return out
}

// Flatten numbers the nodes in preorder and returns them for output. A tree
// without nodes yields a single dummy node so portals have something to hit.
func (t *Tree) Flatten() []proc.Node {
	if t.Root.IsLeaf() {
		child := 0
		if !t.Root.Opaque && t.Root.Area >= 0 {
			child = proc.AreaChild(t.Root.Area)
		}
		plane := geom.Plane{Normal: mgl64.Vec3{1, 0, 0}}
		return []proc.Node{{Plane: plane, Children: [2]int{child, child}}}
	}

	numbers := make(map[*Node]int)
	var order []*Node
	var number func(n *Node)
	number = func(n *Node) {
		if n.IsLeaf() {
			return
		}
		numbers[n] = len(order)
		order = append(order, n)
		number(n.Children[0])
		number(n.Children[1])
	}
	number(t.Root)

	nodes := make([]proc.Node, len(order))
	for i, n := range order {
		nodes[i].Plane = t.Planes.Plane(n.PlaneNum)
		for c, child := range n.Children {
			switch {
			case !child.IsLeaf():
				nodes[i].Children[c] = numbers[child]
			case child.Opaque || child.Area < 0:
				nodes[i].Children[c] = 0
			default:
				nodes[i].Children[c] = proc.AreaChild(child.Area)
			}
		}
	}
	return nodes
}
