package bsp

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/dmap/pkg/geom"
	"github.com/Faultbox/dmap/pkg/winding"
)

// FilterWinding clips w down the tree and calls fn with every fragment that
// ends in a leaf. planeNum is the plane w lies on: at a node on the same
// plane the winding goes to the front child, on the opposite plane to the
// back child, without splitting.
func (t *Tree) FilterWinding(w winding.Winding, planeNum int, fn func(leaf *Node, w winding.Winding)) {
	t.filterWinding(t.Root, w, planeNum, fn)
}

func (t *Tree) filterWinding(node *Node, w winding.Winding, planeNum int, fn func(*Node, winding.Winding)) {
	for !node.IsLeaf() {
		switch {
		case planeNum == node.PlaneNum:
			node = node.Children[0]
			continue
		case planeNum == node.PlaneNum^1:
			node = node.Children[1]
			continue
		}

		plane := t.Planes.Plane(node.PlaneNum)
		switch winding.Classify(w, plane, t.opts.ClipEpsilon) {
		case geom.SideFront:
			node = node.Children[0]
		case geom.SideBack:
			node = node.Children[1]
		case geom.SideOn:
			node = node.Children[facingChild(w, plane)]
		default:
			front, back := winding.Clip(w, plane, t.opts.ClipEpsilon)
			if back != nil {
				t.filterWinding(node.Children[1], back, planeNum, fn)
			}
			if front == nil {
				return
			}
			w = front
			node = node.Children[0]
		}
	}
	fn(node, w)
}

// FilterPolygon clips a polygon of mesh vertices down the tree, interpolating
// all attributes, and calls fn with every fragment that ends in a leaf. A
// polygon on a node plane goes to the child it faces, like FilterWinding.
func (t *Tree) FilterPolygon(poly []geom.MeshVertex, fn func(leaf *Node, poly []geom.MeshVertex)) {
	t.filterPolygon(t.Root, poly, fn)
}

func (t *Tree) filterPolygon(node *Node, poly []geom.MeshVertex, fn func(*Node, []geom.MeshVertex)) {
	for !node.IsLeaf() {
		plane := t.Planes.Plane(node.PlaneNum)
		if w := polygonWinding(poly); winding.Classify(w, plane, t.opts.ClipEpsilon) == geom.SideOn {
			node = node.Children[facingChild(w, plane)]
			continue
		}
		front, back := winding.ClipPolygon(poly, meshPos, geom.LerpVertex, plane, t.opts.ClipEpsilon)
		if back != nil {
			t.filterPolygon(node.Children[1], back, fn)
		}
		if front == nil {
			return
		}
		poly = front
		node = node.Children[0]
	}
	fn(node, poly)
}

func meshPos(v geom.MeshVertex) mgl64.Vec3 {
	return v.XYZ
}

func polygonWinding(poly []geom.MeshVertex) winding.Winding {
	w := make(winding.Winding, len(poly))
	for i, v := range poly {
		w[i] = v.XYZ
	}
	return w
}

// facingChild returns the child a coplanar winding belongs to: the front if
// it faces the same way as the plane.
func facingChild(w winding.Winding, plane geom.Plane) int {
	wp, ok := w.Plane()
	if ok && wp.Normal.Dot(plane.Normal) > 0 {
		return 0
	}
	return 1
}
