// Package bsp builds the binary space partition of an entity from its
// structural brush faces, portalizes it and runs the flood fills that find
// leaks and areas.
package bsp

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/dmap/pkg/geom"
	"github.com/Faultbox/dmap/pkg/winding"
)

// LeafPlane is the plane number of leaf nodes.
const LeafPlane = -1

// Options holds the tree building tolerances.
type Options struct {
	// BlockSize forces axial splits on multiples of this size; 0 disables.
	BlockSize float64
	// ClipEpsilon is the on-plane band for face and portal clipping.
	ClipEpsilon float64
	// BaseWindingEpsilon is used when clipping node windings by ancestors.
	BaseWindingEpsilon float64
	// SplitEpsilon is used when splitting portals onto child nodes.
	SplitEpsilon float64
	// TinyEdge is the minimum edge length counted by the tiny portal test.
	TinyEdge float64
}

// DefaultOptions returns the standard tolerances.
func DefaultOptions() Options {
	return Options{
		BlockSize:          1024,
		ClipEpsilon:        0.1,
		BaseWindingEpsilon: 0.001,
		SplitEpsilon:       0.001,
		TinyEdge:           0.2,
	}
}

// sideSpace pads the head portals so there are never null volume leaves.
const sideSpace = 8

// Node is a tree node. Leaves have PlaneNum == LeafPlane.
type Node struct {
	ID       int
	PlaneNum int
	Parent   *Node
	Children [2]*Node
	Bounds   geom.Bounds
	Portals  []*Portal

	// leaf state
	Opaque     bool
	AreaPortal bool
	Area       int
	// Occupied is the flood distance from an occupant, 0 if not reached.
	Occupied int
	Occupant *Occupant
}

// IsLeaf reports whether n is a leaf.
func (n *Node) IsLeaf() bool {
	return n.PlaneNum == LeafPlane
}

// Portal connects two leaves (or, while building, two nodes) through a
// convex winding on Plane. Nodes[0] is in front of the plane.
type Portal struct {
	Plane   geom.Plane
	OnNode  *Node
	Nodes   [2]*Node
	Winding winding.Winding
}

// Other returns the node on the far side of p from n.
func (p *Portal) Other(n *Node) *Node {
	if p.Nodes[0] == n {
		return p.Nodes[1]
	}
	return p.Nodes[0]
}

// Tree is the BSP of one entity.
type Tree struct {
	Root    *Node
	Outside *Node
	Bounds  geom.Bounds
	Planes  *geom.PlaneSet

	opts   Options
	nextID int
	stats  Stats
}

// Stats counts what the builder did.
type Stats struct {
	Nodes        int
	Leaves       int
	TinyPortals  int
	Portals      int
	OpaqueLeaves int
	FilledLeaves int
	FloodedLeafs int
}

// Stats returns the counters collected so far.
func (t *Tree) Stats() Stats {
	return t.stats
}

func (t *Tree) newNode(parent *Node) *Node {
	n := &Node{ID: t.nextID, PlaneNum: LeafPlane, Parent: parent, Area: -1}
	t.nextID++
	return n
}

// PointLeaf returns the leaf containing p. Points on a node plane go to the
// front child.
func (t *Tree) PointLeaf(p mgl64.Vec3) *Node {
	n := t.Root
	for !n.IsLeaf() {
		if t.Planes.Plane(n.PlaneNum).Distance(p) >= 0 {
			n = n.Children[0]
		} else {
			n = n.Children[1]
		}
	}
	return n
}

// Leaves returns all leaves in tree order.
func (t *Tree) Leaves() []*Node {
	var leaves []*Node
	var walk func(n *Node)
	walk = func(n *Node) {
		if n.IsLeaf() {
			leaves = append(leaves, n)
			return
		}
		walk(n.Children[0])
		walk(n.Children[1])
	}
	walk(t.Root)
	return leaves
}

// addPortal links p to front and back.
func addPortal(p *Portal, front, back *Node) {
	p.Nodes = [2]*Node{front, back}
	front.Portals = append(front.Portals, p)
	back.Portals = append(back.Portals, p)
}

// removePortal unlinks p from n.
func removePortal(p *Portal, n *Node) {
	for i, q := range n.Portals {
		if q == p {
			n.Portals = append(n.Portals[:i], n.Portals[i+1:]...)
			return
		}
	}
}
