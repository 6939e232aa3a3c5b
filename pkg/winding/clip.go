package winding

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/dmap/pkg/geom"
)

// Clipping tolerances used by the compiler.
const (
	OnEpsilon    = 0.1
	SplitEpsilon = 0.001
)

// Classify reports on which side of p the points lie. Points within eps of
// the plane do not count for either side.
func Classify(points []mgl64.Vec3, p geom.Plane, eps float64) geom.Side {
	front, back := false, false
	for _, v := range points {
		d := p.Distance(v)
		if d > eps {
			front = true
		} else if d < -eps {
			back = true
		}
		if front && back {
			return geom.SideCross
		}
	}
	switch {
	case front:
		return geom.SideFront
	case back:
		return geom.SideBack
	}
	return geom.SideOn
}

// Clip splits w by p. Points within eps of the plane are shared by both
// halves. A winding entirely on one side is returned as that side and nil for
// the other; a winding lying in the plane is returned as back. Results with
// fewer than three points are nil. w is never modified.
func Clip(w Winding, p geom.Plane, eps float64) (front, back Winding) {
	lerp := func(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
		return onPlane(a.Add(b.Sub(a).Mul(t)), p)
	}
	f, b := ClipPolygon(w, identity, lerp, p, eps)
	return f, b
}

// Chop returns the part of w in front of p, or nil.
func Chop(w Winding, p geom.Plane, eps float64) Winding {
	front, _ := Clip(w, p, eps)
	return front
}

// ClipPolygon clips a convex polygon of any vertex type. pos extracts the
// position of a vertex and lerp interpolates between two vertices; new
// vertices are created at t = d1 / (d1 - d2).
func ClipPolygon[V any](poly []V, pos func(V) mgl64.Vec3, lerp func(a, b V, t float64) V, p geom.Plane, eps float64) (front, back []V) {
	n := len(poly)
	if n < 3 {
		return nil, nil
	}

	dists := make([]float64, n+1)
	sides := make([]geom.Side, n+1)
	var counts [3]int
	for i, v := range poly {
		d := p.Distance(pos(v))
		dists[i] = d
		switch {
		case d > eps:
			sides[i] = geom.SideFront
		case d < -eps:
			sides[i] = geom.SideBack
		default:
			sides[i] = geom.SideOn
		}
		counts[sides[i]]++
	}
	dists[n] = dists[0]
	sides[n] = sides[0]

	if counts[geom.SideFront] == 0 {
		return nil, copyPolygon(poly)
	}
	if counts[geom.SideBack] == 0 {
		return copyPolygon(poly), nil
	}

	front = make([]V, 0, n+4)
	back = make([]V, 0, n+4)
	for i := 0; i < n; i++ {
		v := poly[i]
		switch sides[i] {
		case geom.SideOn:
			front = append(front, v)
			back = append(back, v)
			continue
		case geom.SideFront:
			front = append(front, v)
		case geom.SideBack:
			back = append(back, v)
		}

		if sides[i+1] == geom.SideOn || sides[i+1] == sides[i] {
			continue
		}

		next := poly[(i+1)%n]
		t := dists[i] / (dists[i] - dists[i+1])
		mid := lerp(v, next, t)
		front = append(front, mid)
		back = append(back, mid)
	}

	if len(front) < 3 {
		front = nil
	}
	if len(back) < 3 {
		back = nil
	}
	return front, back
}

func copyPolygon[V any](poly []V) []V {
	c := make([]V, len(poly))
	copy(c, poly)
	return c
}

func identity(v mgl64.Vec3) mgl64.Vec3 {
	return v
}

// onPlane copies the exact plane coordinate for axial normals so split
// points do not drift off axial planes.
func onPlane(v mgl64.Vec3, p geom.Plane) mgl64.Vec3 {
	for j := 0; j < 3; j++ {
		switch p.Normal[j] {
		case 1:
			v[j] = p.Dist
		case -1:
			v[j] = -p.Dist
		}
	}
	return v
}
