package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min, Max mgl64.Vec3
}

// EmptyBounds returns an inverted box that any added point will replace.
func EmptyBounds() Bounds {
	inf := math.Inf(1)
	return Bounds{
		Min: mgl64.Vec3{inf, inf, inf},
		Max: mgl64.Vec3{-inf, -inf, -inf},
	}
}

// BoundsFromPoints returns the bounds of the given points.
func BoundsFromPoints(points ...mgl64.Vec3) Bounds {
	b := EmptyBounds()
	for _, p := range points {
		b.AddPoint(p)
	}
	return b
}

// IsEmpty reports whether no point has been added.
func (b Bounds) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// AddPoint grows the box to include p.
func (b *Bounds) AddPoint(p mgl64.Vec3) {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}

// AddBounds grows the box to include o.
func (b *Bounds) AddBounds(o Bounds) {
	if o.IsEmpty() {
		return
	}
	b.AddPoint(o.Min)
	b.AddPoint(o.Max)
}

// Expand returns the box grown by d on every side.
func (b Bounds) Expand(d float64) Bounds {
	e := mgl64.Vec3{d, d, d}
	return Bounds{Min: b.Min.Sub(e), Max: b.Max.Add(e)}
}

// Intersects reports whether the boxes overlap, touching counts.
func (b Bounds) Intersects(o Bounds) bool {
	for i := 0; i < 3; i++ {
		if b.Min[i] > o.Max[i] || b.Max[i] < o.Min[i] {
			return false
		}
	}
	return true
}

// Contains reports whether p is inside the box, borders included.
func (b Bounds) Contains(p mgl64.Vec3) bool {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] || p[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// Center returns the midpoint of the box.
func (b Bounds) Center() mgl64.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the extent of the box on each axis.
func (b Bounds) Size() mgl64.Vec3 {
	return b.Max.Sub(b.Min)
}
