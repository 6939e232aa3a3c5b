// Package proc holds the compiled map data: triangles bucketed into optimize
// groups per area, inter-area portals, lights, shadow volumes and the output
// tree, in the shape they are written to a .proc file.
package proc

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/dmap/pkg/geom"
	"github.com/Faultbox/dmap/pkg/winding"
)

// FileID is the header of every .proc file.
const FileID = "mapProcFile003"

// Tri is a single renderable triangle.
type Tri struct {
	V        [3]geom.MeshVertex
	Material string
	// PlaneNum is the plane set index, or -1 for smoothed triangles.
	PlaneNum int
	// MergeGroup is the source side of a unique material, MergePatch the
	// source patch; 0 means none.
	MergeGroup int
	MergePatch int
}

// Area returns the triangle area.
func (t *Tri) Area() float64 {
	return geom.TriangleArea(t.V[0].XYZ, t.V[1].XYZ, t.V[2].XYZ)
}

// Normal returns the geometric normal of the triangle, or a zero vector for a
// degenerate one.
func (t *Tri) Normal() mgl64.Vec3 {
	n := t.V[1].XYZ.Sub(t.V[0].XYZ).Cross(t.V[2].XYZ.Sub(t.V[0].XYZ))
	if l := n.Len(); l > 0 {
		return n.Mul(1 / l)
	}
	return mgl64.Vec3{}
}

// Light is a point light that carves groups and casts shadows.
type Light struct {
	Name      string
	Origin    mgl64.Vec3
	Radius    mgl64.Vec3
	NoShadows bool
}

// Bounds returns the box lit by the light.
func (l *Light) Bounds() geom.Bounds {
	return geom.Bounds{Min: l.Origin.Sub(l.Radius), Max: l.Origin.Add(l.Radius)}
}

// InterAreaPortal is a portal fragment between two areas, Area0 < Area1.
// The front side of the winding faces Area0.
type InterAreaPortal struct {
	Area0   int
	Area1   int
	Winding winding.Winding
}

// Node is a flattened BSP node. A positive child is a node index, 0 is an
// opaque leaf and a negative child c is area -1-c.
type Node struct {
	Plane    geom.Plane
	Children [2]int
}

// AreaChild encodes an area leaf as a node child.
func AreaChild(area int) int {
	return -1 - area
}

// ChildArea decodes a negative node child.
func ChildArea(child int) int {
	return -1 - child
}

// Surface is a set of triangles sharing a material, with unique vertices.
type Surface struct {
	Material string
	Verts    []geom.MeshVertex
	Indexes  []int
}

// Model is a named list of surfaces.
type Model struct {
	Name     string
	Surfaces []Surface
}

// ShadowModel is a closed prelight shadow volume for one light.
//
// Verts come in near/far pairs: even vertices lie on the casting surface, odd
// ones are projected away from the light. Indexes are ordered side quads,
// then rear caps, then front caps.
type ShadowModel struct {
	Name  string
	Verts []mgl64.Vec3
	// NoCaps is the number of side indexes.
	NoCaps int
	// NoFrontCaps is the number of side and rear cap indexes.
	NoFrontCaps int
	Indexes     []int
	// PlaneBits has bit i set when the volume crosses bound plane i of the
	// light.
	PlaneBits int
}

// LeakFile is the path from the outside of the map to a leaking entity.
type LeakFile struct {
	Points []mgl64.Vec3
}

// File is the complete compiled output.
type File struct {
	Models       []Model
	ShadowModels []ShadowModel
	NumAreas     int
	Portals      []InterAreaPortal
	Nodes        []Node
}
