package bsp

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/dmap/pkg/geom"
	"github.com/Faultbox/dmap/pkg/winding"
)

// MakePortals creates portals at every leaf boundary. The six head portals
// around the padded tree bounds connect the root to the outside node.
func (t *Tree) MakePortals() {
	t.makeHeadPortals()
	t.makeTreePortals(t.Root)
}

func (t *Tree) makeHeadPortals() {
	if t.Root.IsLeaf() {
		return
	}
	bounds := t.Bounds.Expand(sideSpace)

	var planes [6]geom.Plane
	var portals [6]*Portal
	for i := 0; i < 3; i++ {
		for j := 0; j < 2; j++ {
			n := j*3 + i
			var normal mgl64.Vec3
			// head portal planes face into the tree
			if j == 1 {
				normal[i] = -1
				planes[n] = geom.Plane{Normal: normal, Dist: -bounds.Max[i]}
			} else {
				normal[i] = 1
				planes[n] = geom.Plane{Normal: normal, Dist: bounds.Min[i]}
			}
			portals[n] = &Portal{Plane: planes[n], Winding: winding.ForPlane(planes[n])}
		}
	}
	for i, p := range portals {
		for j, pl := range planes {
			if i == j || p.Winding == nil {
				continue
			}
			p.Winding = winding.Chop(p.Winding, pl, t.opts.ClipEpsilon)
		}
		addPortal(p, t.Root, t.Outside)
		t.stats.Portals++
	}
}

// baseWinding returns the node plane winding clipped by all ancestors.
func (t *Tree) baseWinding(node *Node) winding.Winding {
	w := winding.ForPlane(t.Planes.Plane(node.PlaneNum))
	for n := node.Parent; n != nil && w != nil; n = n.Parent {
		plane := t.Planes.Plane(n.PlaneNum)
		if n.Children[0] == node {
			w = winding.Chop(w, plane, t.opts.BaseWindingEpsilon)
		} else {
			w = winding.Chop(w, plane.Flip(), t.opts.BaseWindingEpsilon)
		}
		node = n
	}
	return w
}

// makeNodePortal creates the portal on the node plane between the children.
func (t *Tree) makeNodePortal(node *Node) {
	w := t.baseWinding(node)
	for _, p := range node.Portals {
		if w == nil {
			break
		}
		plane := p.Plane
		if p.Nodes[1] == node {
			plane = plane.Flip()
		}
		w = winding.Chop(w, plane, t.opts.ClipEpsilon)
	}
	if w == nil {
		return
	}
	if w.IsTiny(t.opts.TinyEdge) {
		t.stats.TinyPortals++
		return
	}
	p := &Portal{Plane: t.Planes.Plane(node.PlaneNum), OnNode: node, Winding: w}
	addPortal(p, node.Children[0], node.Children[1])
	t.stats.Portals++
}

// splitNodePortals moves the portals of node onto its children, splitting
// them by the node plane.
func (t *Tree) splitNodePortals(node *Node) {
	plane := t.Planes.Plane(node.PlaneNum)
	f, b := node.Children[0], node.Children[1]

	portals := node.Portals
	node.Portals = nil
	for _, p := range portals {
		side := 0
		if p.Nodes[1] == node {
			side = 1
		}
		other := p.Nodes[1-side]
		removePortal(p, other)

		front, back := winding.Clip(p.Winding, plane, t.opts.SplitEpsilon)
		if front != nil && front.IsTiny(t.opts.TinyEdge) {
			front = nil
			t.stats.TinyPortals++
		}
		if back != nil && back.IsTiny(t.opts.TinyEdge) {
			back = nil
			t.stats.TinyPortals++
		}

		link := func(p *Portal, child *Node) {
			if side == 0 {
				addPortal(p, child, other)
			} else {
				addPortal(p, other, child)
			}
		}
		switch {
		case front == nil && back == nil:
			t.stats.Portals--
		case front == nil:
			p.Winding = back
			link(p, b)
		case back == nil:
			p.Winding = front
			link(p, f)
		default:
			q := &Portal{Plane: p.Plane, OnNode: p.OnNode, Winding: back}
			p.Winding = front
			link(p, f)
			link(q, b)
			t.stats.Portals++
		}
	}
}

func (t *Tree) makeTreePortals(node *Node) {
	node.Bounds = portalBounds(node)
	if node.IsLeaf() {
		return
	}
	t.makeNodePortal(node)
	t.splitNodePortals(node)
	t.makeTreePortals(node.Children[0])
	t.makeTreePortals(node.Children[1])
}

func portalBounds(node *Node) geom.Bounds {
	b := geom.EmptyBounds()
	for _, p := range node.Portals {
		b.AddBounds(p.Winding.Bounds())
	}
	return b
}
