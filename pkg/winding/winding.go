// Package winding provides planar convex polygons and plane clipping.
package winding

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/dmap/pkg/geom"
)

// MaxWorldCoord bounds the base winding generated for an infinite plane.
const MaxWorldCoord = 128 * 1024

// Winding is an ordered convex polygon, counter-clockwise when viewed from
// the front of its plane.
type Winding []mgl64.Vec3

// ForPlane returns a square winding on p large enough to cover the world.
func ForPlane(p geom.Plane) Winding {
	right, up := geom.NormalVectors(p.Normal)
	org := p.Normal.Mul(p.Dist)
	right = right.Mul(MaxWorldCoord)
	up = up.Mul(MaxWorldCoord)

	return Winding{
		org.Sub(right).Sub(up),
		org.Add(right).Sub(up),
		org.Add(right).Add(up),
		org.Sub(right).Add(up),
	}
}

// Copy returns an independent copy of w.
func (w Winding) Copy() Winding {
	if w == nil {
		return nil
	}
	c := make(Winding, len(w))
	copy(c, w)
	return c
}

// Reverse returns w with the opposite orientation.
func (w Winding) Reverse() Winding {
	r := make(Winding, len(w))
	for i, p := range w {
		r[len(w)-1-i] = p
	}
	return r
}

// Area returns the surface area of w.
func (w Winding) Area() float64 {
	var total float64
	for i := 2; i < len(w); i++ {
		total += geom.TriangleArea(w[0], w[i-1], w[i])
	}
	return total
}

// Center returns the average of the points.
func (w Winding) Center() mgl64.Vec3 {
	var c mgl64.Vec3
	if len(w) == 0 {
		return c
	}
	for _, p := range w {
		c = c.Add(p)
	}
	return c.Mul(1 / float64(len(w)))
}

// Bounds returns the bounding box of the points.
func (w Winding) Bounds() geom.Bounds {
	return geom.BoundsFromPoints(w...)
}

// Plane returns the plane of w, facing the side from which w is
// counter-clockwise. The second result is false for a degenerate winding.
func (w Winding) Plane() (geom.Plane, bool) {
	if len(w) < 3 {
		return geom.Plane{}, false
	}
	var n mgl64.Vec3
	for i := 2; i < len(w); i++ {
		n = n.Add(w[i-1].Sub(w[0]).Cross(w[i].Sub(w[0])))
	}
	l := n.Len()
	if l < 1e-9 {
		return geom.Plane{}, false
	}
	n = n.Mul(1 / l)
	return geom.Plane{Normal: n, Dist: n.Dot(w[0])}, true
}

// IsTiny reports whether fewer than three edges are longer than edgeLength.
func (w Winding) IsTiny(edgeLength float64) bool {
	edges := 0
	for i := range w {
		j := (i + 1) % len(w)
		if w[j].Sub(w[i]).Len() > edgeLength {
			edges++
			if edges == 3 {
				return false
			}
		}
	}
	return true
}

// IsHuge reports whether any coordinate lies outside +-limit.
func (w Winding) IsHuge(limit float64) bool {
	for _, p := range w {
		for j := 0; j < 3; j++ {
			if p[j] <= -limit || p[j] >= limit {
				return true
			}
		}
	}
	return false
}

// Fan returns the triangles of a fan around the first point as index triples.
func (w Winding) Fan() [][3]int {
	if len(w) < 3 {
		return nil
	}
	tris := make([][3]int, 0, len(w)-2)
	for i := 2; i < len(w); i++ {
		tris = append(tris, [3]int{0, i - 1, i})
	}
	return tris
}
