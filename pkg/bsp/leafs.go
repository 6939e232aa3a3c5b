package bsp

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/dmap/pkg/geom"
)

// Brush is the content volume of a structural brush.
type Brush struct {
	// Planes holds the plane numbers of the sides; normals face out.
	Planes     []int
	Opaque     bool
	AreaPortal bool
	Bounds     geom.Bounds
}

// Contains reports whether p lies strictly inside the brush.
func (b *Brush) Contains(planes *geom.PlaneSet, p mgl64.Vec3) bool {
	if !b.Bounds.Contains(p) {
		return false
	}
	for _, num := range b.Planes {
		if planes.Plane(num).Distance(p) >= 0 {
			return false
		}
	}
	return true
}

// ClassifyLeaves marks leaves inside opaque brushes as opaque and leaves
// inside areaportal brushes as areaportal. Leaves left without portals are
// slivers and count as opaque, except a root leaf.
func (t *Tree) ClassifyLeaves(brushes []*Brush) {
	for _, leaf := range t.Leaves() {
		if len(leaf.Portals) == 0 {
			if leaf != t.Root {
				leaf.Opaque = true
				t.stats.OpaqueLeaves++
			}
			continue
		}
		p := leafSample(leaf)
		for _, b := range brushes {
			if !b.Contains(t.Planes, p) {
				continue
			}
			if b.Opaque {
				leaf.Opaque = true
			}
			if b.AreaPortal {
				leaf.AreaPortal = true
			}
		}
		if leaf.Opaque {
			leaf.AreaPortal = false
			t.stats.OpaqueLeaves++
		}
	}
}

// leafSample returns a point inside the leaf volume: the average of its
// portal points.
func leafSample(leaf *Node) mgl64.Vec3 {
	var sum mgl64.Vec3
	n := 0
	for _, p := range leaf.Portals {
		for _, v := range p.Winding {
			sum = sum.Add(v)
			n++
		}
	}
	if n == 0 {
		return leaf.Bounds.Center()
	}
	return sum.Mul(1 / float64(n))
}
