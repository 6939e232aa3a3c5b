package dmap

import (
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/Faultbox/dmap/pkg/proc"
)

// shadowPrefix names prelight shadow models after their light.
const shadowPrefix = "_prelight_"

// shadowModels builds one prelight shadow volume per shadow casting light
// from the world groups it carved.
func (c *compiler) shadowModels(groups []*proc.OptimizeGroup) []proc.ShadowModel {
	var out []proc.ShadowModel
	for li := range c.lights {
		light := &c.lights[li]
		if light.NoShadows {
			continue
		}
		var casters []proc.Tri
		for _, g := range groups {
			if !hasLight(g.Lights, li) || c.materials.Lookup(g.Key.Material).NoShadows {
				continue
			}
			for _, t := range g.Surface() {
				if facesLight(&t, light.Origin) {
					casters = append(casters, t)
				}
			}
		}
		if len(casters) == 0 {
			continue
		}
		m := c.shadowVolume(light, casters)
		c.log.Debug("shadow volume",
			zap.String("light", light.Name),
			zap.Int("casters", len(casters)),
			zap.Int("indexes", len(m.Indexes)))
		out = append(out, m)
	}
	return out
}

func hasLight(lights []int, l int) bool {
	for _, x := range lights {
		if x == l {
			return true
		}
	}
	return false
}

// facesLight reports whether the light is strictly in front of t.
func facesLight(t *proc.Tri, origin mgl64.Vec3) bool {
	n := t.V[1].XYZ.Sub(t.V[0].XYZ).Cross(t.V[2].XYZ.Sub(t.V[0].XYZ))
	return n.Dot(origin.Sub(t.V[0].XYZ)) > 0
}

// shadowVolume extrudes the casters away from the light by the length of its
// radius. Vertices come in near/far pairs; indexes are ordered sides, rear
// caps, front caps.
func (c *compiler) shadowVolume(light *proc.Light, casters []proc.Tri) proc.ShadowModel {
	m := proc.ShadowModel{Name: shadowPrefix + light.Name}
	extrude := light.Radius.Len()

	pairs := make(map[[3]int64]int)
	pair := func(p mgl64.Vec3) int {
		k := c.opts.Quantizer.PositionKey(p)
		if i, ok := pairs[k]; ok {
			return i
		}
		i := len(m.Verts)
		pairs[k] = i
		dir := p.Sub(light.Origin)
		if l := dir.Len(); l > 0 {
			dir = dir.Mul(1 / l)
		}
		m.Verts = append(m.Verts, p, p.Add(dir.Mul(extrude)))
		return i
	}

	tris := make([][3]int, 0, len(casters))
	edges := make(map[[2]int]int)
	for i := range casters {
		var t [3]int
		for k, v := range casters[i].V {
			t[k] = pair(v.XYZ)
		}
		if t[0] == t[1] || t[1] == t[2] || t[2] == t[0] {
			continue
		}
		tris = append(tris, t)
		for k := 0; k < 3; k++ {
			edges[[2]int{t[k], t[(k+1)%3]}]++
		}
	}

	// silhouette edges are not matched by a reversed edge of another caster
	var sides []int
	for _, t := range tris {
		for k := 0; k < 3; k++ {
			a, b := t[k], t[(k+1)%3]
			if edges[[2]int{b, a}] > 0 {
				continue
			}
			sides = append(sides, b, a, a+1, b, a+1, b+1)
		}
	}
	m.Indexes = append(m.Indexes, sides...)
	m.NoCaps = len(m.Indexes)

	for _, t := range tris {
		m.Indexes = append(m.Indexes, t[2]+1, t[1]+1, t[0]+1)
	}
	m.NoFrontCaps = len(m.Indexes)

	for _, t := range tris {
		m.Indexes = append(m.Indexes, t[0], t[1], t[2])
	}

	m.PlaneBits = planeBits(light, m.Verts)
	return m
}

// planeBits flags the light bound planes the volume crosses: bit 2*axis for
// the minimum side, 2*axis+1 for the maximum side.
func planeBits(light *proc.Light, verts []mgl64.Vec3) int {
	b := light.Bounds()
	bits := 0
	for _, v := range verts {
		for axis := 0; axis < 3; axis++ {
			if v[axis] < b.Min[axis] {
				bits |= 1 << (2 * axis)
			}
			if v[axis] > b.Max[axis] {
				bits |= 1 << (2*axis + 1)
			}
		}
	}
	return bits
}
