// Package geom provides the geometric primitives shared by the map compiler.
package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// PlaneType classifies a plane by its normal.
type PlaneType int

// Plane types. Axial planes have a normal of exactly +-1 on one axis.
const (
	PlaneX PlaneType = iota
	PlaneY
	PlaneZ
	PlaneNonAxial
)

// Side is the result of classifying a point or polygon against a plane.
type Side int

// Plane sides.
const (
	SideFront Side = iota
	SideBack
	SideOn
	SideCross
)

// String returns the side name.
func (s Side) String() string {
	switch s {
	case SideFront:
		return "front"
	case SideBack:
		return "back"
	case SideOn:
		return "on"
	case SideCross:
		return "cross"
	}
	return "unknown"
}

// Plane is a plane in Hessian normal form: Normal.p - Dist = 0.
type Plane struct {
	Normal mgl64.Vec3
	Dist   float64
}

// NewPlane returns a plane with a normalized normal.
// The second result is false if the normal has zero length.
func NewPlane(normal mgl64.Vec3, dist float64) (Plane, bool) {
	l := normal.Len()
	if l == 0 {
		return Plane{}, false
	}
	return Plane{Normal: normal.Mul(1 / l), Dist: dist / l}, true
}

// PlaneFromPoints returns the plane through a, b and c. The normal faces the
// side from which the points appear counter-clockwise.
func PlaneFromPoints(a, b, c mgl64.Vec3) (Plane, bool) {
	n := b.Sub(a).Cross(c.Sub(a))
	l := n.Len()
	if l < 1e-9 {
		return Plane{}, false
	}
	n = n.Mul(1 / l)
	return Plane{Normal: n, Dist: n.Dot(a)}, true
}

// Distance returns the signed distance from p to the plane.
func (p Plane) Distance(v mgl64.Vec3) float64 {
	return p.Normal.Dot(v) - p.Dist
}

// Flip returns the plane facing the other way.
func (p Plane) Flip() Plane {
	return Plane{Normal: p.Normal.Mul(-1), Dist: -p.Dist}
}

// Type returns the axial type of the plane.
func (p Plane) Type() PlaneType {
	switch {
	case p.Normal[0] == 1 || p.Normal[0] == -1:
		return PlaneX
	case p.Normal[1] == 1 || p.Normal[1] == -1:
		return PlaneY
	case p.Normal[2] == 1 || p.Normal[2] == -1:
		return PlaneZ
	}
	return PlaneNonAxial
}

// PointSide classifies a point with an on-plane band of eps.
func (p Plane) PointSide(v mgl64.Vec3, eps float64) Side {
	d := p.Distance(v)
	if d > eps {
		return SideFront
	}
	if d < -eps {
		return SideBack
	}
	return SideOn
}

// DominantAxis returns the axis with the largest absolute normal component.
func (p Plane) DominantAxis() int {
	return DominantAxis(p.Normal)
}

// DominantAxis returns the index of the largest absolute component of v.
func DominantAxis(v mgl64.Vec3) int {
	axis := 0
	best := math.Abs(v[0])
	for i := 1; i < 3; i++ {
		if a := math.Abs(v[i]); a > best {
			best = a
			axis = i
		}
	}
	return axis
}

// NormalVectors returns two unit vectors orthogonal to n and to each other,
// so that points on a plane can be handled in 2D.
func NormalVectors(n mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	var up mgl64.Vec3
	switch DominantAxis(n) {
	case 2:
		up = mgl64.Vec3{1, 0, 0}
	default:
		up = mgl64.Vec3{0, 0, 1}
	}
	a := n.Cross(up).Normalize()
	b := n.Cross(a).Normalize()
	return a, b
}
