package dmap

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/Faultbox/dmap/pkg/bsp"
	"github.com/Faultbox/dmap/pkg/geom"
	"github.com/Faultbox/dmap/pkg/proc"
	"github.com/Faultbox/dmap/pkg/scene"
	"github.com/Faultbox/dmap/pkg/winding"
)

// buildPatch is a drawable patch with its merge identity.
type buildPatch struct {
	id       int
	patch    *scene.Patch
	material *scene.Material
}

// primitives are the resolved primitives of one entity.
type primitives struct {
	brushes []*buildBrush
	patches []buildPatch
	faces   []*bsp.Face
	volumes []*bsp.Brush
}

// makePrimitives resolves the primitives of e against the plane set.
func (c *compiler) makePrimitives(e *scene.Entity) (*primitives, error) {
	prims := &primitives{}
	for i, p := range e.Primitives {
		switch p := p.(type) {
		case *scene.Brush:
			c.stats.Brushes++
			b, err := c.makeBrush(i, p)
			if err != nil {
				return nil, err
			}
			if b == nil {
				c.stats.DegenerateBrushes++
				continue
			}
			prims.brushes = append(prims.brushes, b)
			prims.faces = append(prims.faces, faces(b)...)
			if b.structural() {
				prims.volumes = append(prims.volumes, c.volume(b))
			}
		case *scene.Patch:
			c.stats.Patches++
			if p.Width < 2 || p.Height < 2 || len(p.Verts) < p.Width*p.Height {
				return nil, errors.Errorf("patch %d: %dx%d grid with %d vertices", i, p.Width, p.Height, len(p.Verts))
			}
			prims.patches = append(prims.patches, buildPatch{
				id:       len(prims.patches) + 1,
				patch:    p,
				material: c.materials.Lookup(p.Material),
			})
		default:
			return nil, errors.Errorf("primitive %d: unknown type %T", i, p)
		}
	}
	return prims, nil
}

// putPrimitivesInAreas filters the visible sides and patch triangles down the
// tree and buckets the fragments that land in area leaves.
func (c *compiler) putPrimitivesInAreas(tree *bsp.Tree, prims *primitives, areas []proc.Area, world bool) {
	uniqueSides := 0
	for _, b := range prims.brushes {
		for i := range b.sides {
			s := &b.sides[i]
			if s.winding == nil || !s.material.Drawn {
				continue
			}
			// each side of a unique material stays its own surface
			mergeGroup := 0
			if s.material.Unique {
				uniqueSides++
				mergeGroup = uniqueSides
			}
			normal := c.planes.Plane(s.planeNum).Normal
			texVec := s.side.TextureVectors()
			tree.FilterWinding(s.winding, s.planeNum, func(leaf *bsp.Node, w winding.Winding) {
				if !inArea(leaf, len(areas)) {
					return
				}
				for _, f := range w.Fan() {
					tri := proc.Tri{Material: s.material.Name, PlaneNum: s.planeNum, MergeGroup: mergeGroup}
					for k, idx := range f {
						p := w[idx]
						tri.V[k] = geom.MeshVertex{XYZ: p, ST: s.side.TexCoord(p), Normal: normal}
					}
					c.addTri(&areas[leaf.Area], leaf.Area, tri, texVec, world)
				}
			})
		}
	}

	for _, bp := range prims.patches {
		if !bp.material.Drawn {
			continue
		}
		for _, t := range bp.patch.Triangles() {
			tree.FilterPolygon(t[:], func(leaf *bsp.Node, poly []geom.MeshVertex) {
				if !inArea(leaf, len(areas)) {
					return
				}
				for k := 2; k < len(poly); k++ {
					tri := proc.Tri{
						V:          [3]geom.MeshVertex{poly[0], poly[k-1], poly[k]},
						Material:   bp.material.Name,
						PlaneNum:   -1,
						MergePatch: bp.id,
					}
					if tri.Area() == 0 {
						continue
					}
					c.addTri(&areas[leaf.Area], leaf.Area, tri, [2]mgl64.Vec4{}, world)
				}
			})
		}
	}
}

func inArea(leaf *bsp.Node, numAreas int) bool {
	return !leaf.Opaque && leaf.Area >= 0 && leaf.Area < numAreas
}

// addTri buckets tri by its group key. Side triangles carry the texture
// projection of their side, patch triangles a zero one and are smoothed.
// World triangles are carved by the lights touching them.
func (c *compiler) addTri(area *proc.Area, areaNum int, tri proc.Tri, texVec [2]mgl64.Vec4, world bool) {
	var lights []int
	if world {
		lights = c.lightsFor(geom.BoundsFromPoints(tri.V[0].XYZ, tri.V[1].XYZ, tri.V[2].XYZ))
	}
	key := proc.GroupKey{
		PlaneNum:   tri.PlaneNum,
		Area:       areaNum,
		Material:   tri.Material,
		Smoothed:   tri.PlaneNum < 0,
		LightSet:   proc.LightSetKey(lights),
		MergeGroup: tri.MergeGroup,
		MergePatch: tri.MergePatch,
	}
	if g := area.AddTri(key, lights, tri); len(g.Tris) == 1 {
		g.TexVec = texVec
	}
}
