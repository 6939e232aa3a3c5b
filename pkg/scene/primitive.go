package scene

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/dmap/pkg/geom"
)

// DefaultTextureScale is the world-to-texture scale of the default axial
// projection: one texture repeat every 128 units.
const DefaultTextureScale = 1.0 / 128

// Primitive is either a *Brush or a *Patch.
type Primitive interface {
	primitive()
}

// Brush is a convex solid bounded by its side planes. Side normals face out
// of the brush.
type Brush struct {
	Sides []BrushSide
}

func (*Brush) primitive() {}

// BrushSide is one bounding plane of a brush.
type BrushSide struct {
	Plane    geom.Plane
	Material string
	// TexVec maps positions to texture coordinates:
	// s = xyz.TexVec[0].xyz + TexVec[0].w. A zero value selects the default
	// axial projection.
	TexVec [2]mgl64.Vec4
}

// TextureVectors returns the projection of the side, falling back to the
// default axial one.
func (s *BrushSide) TextureVectors() [2]mgl64.Vec4 {
	if s.TexVec == ([2]mgl64.Vec4{}) {
		return AxialTexVec(s.Plane.Normal, DefaultTextureScale)
	}
	return s.TexVec
}

// TexCoord returns the texture coordinate of p on this side.
func (s *BrushSide) TexCoord(p mgl64.Vec3) mgl64.Vec2 {
	tv := s.TextureVectors()
	return mgl64.Vec2{
		p.Dot(tv[0].Vec3()) + tv[0][3],
		p.Dot(tv[1].Vec3()) + tv[1][3],
	}
}

// AxialTexVec returns a planar projection along the dominant axis of normal.
func AxialTexVec(normal mgl64.Vec3, scale float64) [2]mgl64.Vec4 {
	switch geom.DominantAxis(normal) {
	case 0:
		return [2]mgl64.Vec4{{0, scale, 0, 0}, {0, 0, -scale, 0}}
	case 1:
		return [2]mgl64.Vec4{{scale, 0, 0, 0}, {0, 0, -scale, 0}}
	}
	return [2]mgl64.Vec4{{scale, 0, 0, 0}, {0, -scale, 0, 0}}
}

// BoxBrush returns an axis aligned box brush with material on every side.
func BoxBrush(min, max mgl64.Vec3, material string) *Brush {
	b := &Brush{Sides: make([]BrushSide, 0, 6)}
	for axis := 0; axis < 3; axis++ {
		var n mgl64.Vec3
		n[axis] = 1
		b.Sides = append(b.Sides,
			BrushSide{Plane: geom.Plane{Normal: n, Dist: max[axis]}, Material: material},
			BrushSide{Plane: geom.Plane{Normal: n.Mul(-1), Dist: -min[axis]}, Material: material},
		)
	}
	return b
}

// Patch is a curved surface already tessellated into a grid of vertices.
type Patch struct {
	Material string
	Width    int
	Height   int
	// Verts holds Width*Height vertices in row-major order.
	Verts []geom.MeshVertex
}

func (*Patch) primitive() {}

// Vertex returns the grid vertex at column i, row j.
func (p *Patch) Vertex(i, j int) geom.MeshVertex {
	return p.Verts[j*p.Width+i]
}

// Triangles returns the grid as triangles. Missing normals are derived from
// the grid; zero-area triangles are skipped.
func (p *Patch) Triangles() [][3]geom.MeshVertex {
	if p.Width < 2 || p.Height < 2 || len(p.Verts) < p.Width*p.Height {
		return nil
	}
	verts := p.withNormals()
	at := func(i, j int) geom.MeshVertex { return verts[j*p.Width+i] }

	tris := make([][3]geom.MeshVertex, 0, (p.Width-1)*(p.Height-1)*2)
	for j := 0; j < p.Height-1; j++ {
		for i := 0; i < p.Width-1; i++ {
			a, b, c, d := at(i, j), at(i+1, j), at(i+1, j+1), at(i, j+1)
			for _, tri := range [2][3]geom.MeshVertex{{a, b, c}, {a, c, d}} {
				if geom.TriangleArea(tri[0].XYZ, tri[1].XYZ, tri[2].XYZ) > 0 {
					tris = append(tris, tri)
				}
			}
		}
	}
	return tris
}

func (p *Patch) withNormals() []geom.MeshVertex {
	verts := make([]geom.MeshVertex, len(p.Verts))
	copy(verts, p.Verts)
	for j := 0; j < p.Height; j++ {
		for i := 0; i < p.Width; i++ {
			v := &verts[j*p.Width+i]
			if v.Normal.Len() > 0 {
				v.Normal = v.Normal.Normalize()
				continue
			}
			i0, i1 := max(i-1, 0), min(i+1, p.Width-1)
			j0, j1 := max(j-1, 0), min(j+1, p.Height-1)
			du := p.Vertex(i1, j).XYZ.Sub(p.Vertex(i0, j).XYZ)
			dv := p.Vertex(i, j1).XYZ.Sub(p.Vertex(i, j0).XYZ)
			if n := du.Cross(dv); n.Len() > 0 {
				v.Normal = n.Normalize()
			}
		}
	}
	return verts
}
