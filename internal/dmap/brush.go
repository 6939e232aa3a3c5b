package dmap

import (
	"github.com/pkg/errors"

	"github.com/Faultbox/dmap/pkg/bsp"
	"github.com/Faultbox/dmap/pkg/geom"
	"github.com/Faultbox/dmap/pkg/scene"
	"github.com/Faultbox/dmap/pkg/winding"
)

// hugeWinding is the coordinate limit beyond which a side winding is
// considered unbounded.
const hugeWinding = 1 << 17

// buildSide is a brush side resolved against the plane set.
type buildSide struct {
	planeNum int
	side     *scene.BrushSide
	material *scene.Material
	// winding is nil for sides that do not touch the brush volume.
	winding winding.Winding
}

// buildBrush is a brush with its side windings.
type buildBrush struct {
	index      int
	sides      []buildSide
	opaque     bool
	areaPortal bool
	bounds     geom.Bounds
}

// structural brushes shape the tree.
func (b *buildBrush) structural() bool {
	return b.opaque || b.areaPortal
}

// makeBrush resolves the sides of b and cuts their windings. It returns nil
// for brushes without volume.
func (c *compiler) makeBrush(index int, b *scene.Brush) (*buildBrush, error) {
	if len(b.Sides) == 0 {
		return nil, errors.Wrapf(ErrEmptyBrush, "brush %d", index)
	}

	bb := &buildBrush{index: index, bounds: geom.EmptyBounds()}
	seen := make(map[int]bool, len(b.Sides))
	for i := range b.Sides {
		side := &b.Sides[i]
		num := c.planes.InsertPlane(side.Plane)
		if num < 0 {
			return nil, errors.Wrapf(ErrEmptyBrush, "brush %d side %d has no plane", index, i)
		}
		if seen[num] {
			c.stats.DuplicateSides++
			continue
		}
		seen[num] = true
		mat := c.materials.Lookup(side.Material)
		bb.sides = append(bb.sides, buildSide{planeNum: num, side: side, material: mat})
		if mat.AreaPortal {
			bb.areaPortal = true
		}
		if mat.Opaque {
			bb.opaque = true
		}
	}
	if bb.areaPortal {
		bb.opaque = false
	}

	windings := 0
	for i := range bb.sides {
		w := winding.ForPlane(c.planes.Plane(bb.sides[i].planeNum))
		for j := range bb.sides {
			if j == i || w == nil {
				continue
			}
			w = winding.Chop(w, c.planes.Plane(bb.sides[j].planeNum).Flip(), 0)
		}
		if w == nil || w.IsHuge(hugeWinding) {
			continue
		}
		bb.sides[i].winding = w
		bb.bounds.AddBounds(w.Bounds())
		windings++
	}
	if windings < 4 {
		return nil, nil
	}
	return bb, nil
}

// volume returns the content volume used to classify leaves.
func (c *compiler) volume(b *buildBrush) *bsp.Brush {
	v := &bsp.Brush{Opaque: b.opaque, AreaPortal: b.areaPortal, Bounds: b.bounds}
	for _, s := range b.sides {
		v.Planes = append(v.Planes, s.planeNum)
	}
	return v
}

// faces returns the split candidates of a structural brush. Faces always use
// the even plane of a pair.
func faces(b *buildBrush) []*bsp.Face {
	if !b.structural() {
		return nil
	}
	var out []*bsp.Face
	for _, s := range b.sides {
		if s.winding == nil {
			continue
		}
		out = append(out, &bsp.Face{PlaneNum: s.planeNum &^ 1, Winding: s.winding, AreaPortal: b.areaPortal})
	}
	return out
}
