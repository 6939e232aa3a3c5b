package proc

import (
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/dmap/pkg/geom"
)

// GroupKey identifies an optimize group. Triangles only ever merge with
// triangles of the same key.
type GroupKey struct {
	PlaneNum   int
	Area       int
	Material   string
	Smoothed   bool
	LightSet   string
	MergeGroup int
	MergePatch int
}

// LightSetKey returns the canonical key of a sorted light index list.
func LightSetKey(lights []int) string {
	if len(lights) == 0 {
		return ""
	}
	parts := make([]string, len(lights))
	for i, l := range lights {
		parts[i] = strconv.Itoa(l)
	}
	return strings.Join(parts, ",")
}

// OptimizeGroup is a bucket of coplanar triangles with identical key.
type OptimizeGroup struct {
	Key    GroupKey
	Lights []int
	Tris   []Tri
	// RegeneratedTris replaces Tris once the optimizer succeeded.
	RegeneratedTris []Tri
	Axis            [2]mgl64.Vec3
	Bounds          geom.Bounds
	// TexVec is the texture projection of the side the group started from;
	// zero for patches.
	TexVec [2]mgl64.Vec4
}

// Surface returns the triangles to emit: the regenerated set when present.
func (g *OptimizeGroup) Surface() []Tri {
	if g.RegeneratedTris != nil {
		return g.RegeneratedTris
	}
	return g.Tris
}

// Area is the list of optimize groups of one area.
type Area struct {
	Groups []*OptimizeGroup
	byKey  map[GroupKey]*OptimizeGroup
}

// AddTri appends tri to the group with the given key, creating it on first
// use. Groups keep their creation order.
func (a *Area) AddTri(key GroupKey, lights []int, tri Tri) *OptimizeGroup {
	if a.byKey == nil {
		a.byKey = make(map[GroupKey]*OptimizeGroup)
		for _, g := range a.Groups {
			a.byKey[g.Key] = g
		}
	}
	g, ok := a.byKey[key]
	if !ok {
		g = &OptimizeGroup{Key: key, Lights: lights, Bounds: geom.EmptyBounds()}
		a.byKey[key] = g
		a.Groups = append(a.Groups, g)
	}
	g.Tris = append(g.Tris, tri)
	for _, v := range tri.V {
		g.Bounds.AddPoint(v.XYZ)
	}
	return g
}

// NumTris returns the number of emitted triangles in the area.
func (a *Area) NumTris() int {
	n := 0
	for _, g := range a.Groups {
		n += len(g.Surface())
	}
	return n
}

type surfaceKey struct {
	material   string
	mergeGroup int
	mergePatch int
}

// BuildSurfaces collapses groups sharing a material and merge identities into
// surfaces. Vertices are uniqued per surface using q.
func BuildSurfaces(groups []*OptimizeGroup, q geom.Quantizer) []Surface {
	var surfaces []Surface
	index := make(map[surfaceKey]int)
	vertexMaps := make([]map[geom.VertexKey]int, 0)

	for _, g := range groups {
		tris := g.Surface()
		if len(tris) == 0 {
			continue
		}
		sk := surfaceKey{g.Key.Material, g.Key.MergeGroup, g.Key.MergePatch}
		si, ok := index[sk]
		if !ok {
			si = len(surfaces)
			index[sk] = si
			surfaces = append(surfaces, Surface{Material: g.Key.Material})
			vertexMaps = append(vertexMaps, make(map[geom.VertexKey]int))
		}
		s := &surfaces[si]
		verts := vertexMaps[si]
		for _, tri := range tris {
			for _, v := range tri.V {
				k := q.Key(v)
				vi, ok := verts[k]
				if !ok {
					vi = len(s.Verts)
					verts[k] = vi
					s.Verts = append(s.Verts, v)
				}
				s.Indexes = append(s.Indexes, vi)
			}
		}
	}
	return surfaces
}
