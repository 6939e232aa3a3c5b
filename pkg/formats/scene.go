package formats

import (
	"bytes"
	"io"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/dmap/pkg/geom"
	"github.com/Faultbox/dmap/pkg/scene"
)

// Scene format errors.
var (
	ErrNoEntities    = errors.New("scene has no entities")
	ErrNoWorldspawn  = errors.New("entity 0 is not a worldspawn")
	ErrInvalidBrush  = errors.New("invalid brush")
	ErrInvalidPatch  = errors.New("invalid patch")
	ErrInvalidVector = errors.New("invalid vector")
)

// sceneDoc is the YAML layout of a scene description.
type sceneDoc struct {
	Materials []materialDoc `yaml:"materials"`
	Entities  []entityDoc   `yaml:"entities"`
}

// materialDoc overrides the default flags of a material. Missing flags keep
// the value guessed from the name.
type materialDoc struct {
	Name       string `yaml:"name"`
	Drawn      *bool  `yaml:"drawn"`
	Opaque     *bool  `yaml:"opaque"`
	AreaPortal *bool  `yaml:"areaportal"`
	NoShadows  *bool  `yaml:"noshadows"`
	Unique     *bool  `yaml:"unique"`
}

type entityDoc struct {
	Classname string            `yaml:"classname"`
	Name      string            `yaml:"name"`
	Origin    []float64         `yaml:"origin"`
	Keys      map[string]string `yaml:"keys"`
	Brushes   []brushDoc        `yaml:"brushes"`
	Patches   []patchDoc        `yaml:"patches"`
}

// brushDoc is either a box or a list of sides.
type brushDoc struct {
	Material string    `yaml:"material"`
	Box      *boxDoc   `yaml:"box"`
	Sides    []sideDoc `yaml:"sides"`
}

type boxDoc struct {
	Min []float64 `yaml:"min"`
	Max []float64 `yaml:"max"`
}

// sideDoc gives a side plane either as [nx, ny, nz, dist] or as three points
// that appear counter-clockwise seen from outside the brush.
type sideDoc struct {
	Plane    []float64   `yaml:"plane"`
	Points   [][]float64 `yaml:"points"`
	Material string      `yaml:"material"`
	TexVec   [][]float64 `yaml:"texvec"`
}

type patchDoc struct {
	Material string      `yaml:"material"`
	Width    int         `yaml:"width"`
	Height   int         `yaml:"height"`
	Verts    []vertexDoc `yaml:"verts"`
}

type vertexDoc struct {
	XYZ    []float64 `yaml:"xyz"`
	ST     []float64 `yaml:"st"`
	Normal []float64 `yaml:"normal"`
}

// ReadScene parses a YAML scene description.
func ReadScene(r io.Reader) (*scene.Scene, error) {
	var doc sceneDoc
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoEntities
		}
		return nil, errors.Wrap(err, "decode scene")
	}
	return doc.build()
}

// ParseScene parses a YAML scene description from memory.
func ParseScene(data []byte) (*scene.Scene, error) {
	return ReadScene(bytes.NewReader(data))
}

// LoadScene reads a scene description from a file.
func LoadScene(path string) (*scene.Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open scene")
	}
	defer f.Close()

	s, err := ReadScene(f)
	if err != nil {
		return nil, errors.WithMessage(err, path)
	}
	return s, nil
}

func (doc *sceneDoc) build() (*scene.Scene, error) {
	if len(doc.Entities) == 0 {
		return nil, ErrNoEntities
	}
	if doc.Entities[0].Classname != scene.ClassWorldspawn {
		return nil, errors.Wrapf(ErrNoWorldspawn, "classname %q", doc.Entities[0].Classname)
	}

	materials := scene.NewMaterialTable()
	for _, md := range doc.Materials {
		materials.Add(md.material())
	}

	s := &scene.Scene{Materials: materials}
	for i := range doc.Entities {
		e, err := doc.Entities[i].entity()
		if err != nil {
			return nil, errors.WithMessagef(err, "entity %d", i)
		}
		s.Entities = append(s.Entities, e)
	}
	return s, nil
}

func (md *materialDoc) material() scene.Material {
	m := scene.DefaultMaterial(md.Name)
	set := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	set(&m.Drawn, md.Drawn)
	set(&m.Opaque, md.Opaque)
	set(&m.AreaPortal, md.AreaPortal)
	set(&m.NoShadows, md.NoShadows)
	set(&m.Unique, md.Unique)
	return m
}

func (ed *entityDoc) entity() (*scene.Entity, error) {
	e := scene.NewEntity(ed.Classname)
	for k, v := range ed.Keys {
		e.SetKey(k, v)
	}
	if ed.Classname != "" {
		e.SetKey(scene.KeyClassname, ed.Classname)
	}
	if ed.Name != "" {
		e.SetKey(scene.KeyName, ed.Name)
	}
	if ed.Origin != nil {
		origin, err := vec3(ed.Origin)
		if err != nil {
			return nil, errors.WithMessage(err, "origin")
		}
		e.SetOrigin(origin)
	}

	for i := range ed.Brushes {
		b, err := ed.Brushes[i].brush()
		if err != nil {
			return nil, errors.WithMessagef(err, "brush %d", i)
		}
		e.Primitives = append(e.Primitives, b)
	}
	for i := range ed.Patches {
		p, err := ed.Patches[i].patch()
		if err != nil {
			return nil, errors.WithMessagef(err, "patch %d", i)
		}
		e.Primitives = append(e.Primitives, p)
	}
	return e, nil
}

func (bd *brushDoc) brush() (*scene.Brush, error) {
	if bd.Box != nil {
		if len(bd.Sides) > 0 {
			return nil, errors.Wrap(ErrInvalidBrush, "box and sides are exclusive")
		}
		min, err := vec3(bd.Box.Min)
		if err != nil {
			return nil, errors.WithMessage(err, "box min")
		}
		max, err := vec3(bd.Box.Max)
		if err != nil {
			return nil, errors.WithMessage(err, "box max")
		}
		for axis := 0; axis < 3; axis++ {
			if min[axis] >= max[axis] {
				return nil, errors.Wrapf(ErrInvalidBrush, "empty box on axis %d", axis)
			}
		}
		return scene.BoxBrush(min, max, bd.Material), nil
	}

	if len(bd.Sides) < 4 {
		return nil, errors.Wrapf(ErrInvalidBrush, "%d sides", len(bd.Sides))
	}
	b := &scene.Brush{Sides: make([]scene.BrushSide, 0, len(bd.Sides))}
	for i := range bd.Sides {
		side, err := bd.Sides[i].side(bd.Material)
		if err != nil {
			return nil, errors.WithMessagef(err, "side %d", i)
		}
		b.Sides = append(b.Sides, side)
	}
	return b, nil
}

func (sd *sideDoc) side(material string) (scene.BrushSide, error) {
	side := scene.BrushSide{Material: material}
	if sd.Material != "" {
		side.Material = sd.Material
	}

	switch {
	case len(sd.Plane) > 0 && len(sd.Points) > 0:
		return side, errors.Wrap(ErrInvalidBrush, "plane and points are exclusive")
	case len(sd.Plane) > 0:
		if len(sd.Plane) != 4 {
			return side, errors.Wrapf(ErrInvalidBrush, "plane has %d values, want 4", len(sd.Plane))
		}
		p, ok := geom.NewPlane(mgl64.Vec3{sd.Plane[0], sd.Plane[1], sd.Plane[2]}, sd.Plane[3])
		if !ok {
			return side, errors.Wrap(ErrInvalidBrush, "zero plane normal")
		}
		side.Plane = p
	case len(sd.Points) == 3:
		var pts [3]mgl64.Vec3
		for i, raw := range sd.Points {
			v, err := vec3(raw)
			if err != nil {
				return side, errors.WithMessagef(err, "point %d", i)
			}
			pts[i] = v
		}
		p, ok := geom.PlaneFromPoints(pts[0], pts[1], pts[2])
		if !ok {
			return side, errors.Wrap(ErrInvalidBrush, "colinear side points")
		}
		side.Plane = p
	default:
		return side, errors.Wrap(ErrInvalidBrush, "side needs a plane or three points")
	}

	if sd.TexVec != nil {
		if len(sd.TexVec) != 2 || len(sd.TexVec[0]) != 4 || len(sd.TexVec[1]) != 4 {
			return side, errors.Wrap(ErrInvalidBrush, "texvec must be two rows of four values")
		}
		for r := 0; r < 2; r++ {
			copy(side.TexVec[r][:], sd.TexVec[r])
		}
	}
	return side, nil
}

func (pd *patchDoc) patch() (*scene.Patch, error) {
	if pd.Width < 2 || pd.Height < 2 {
		return nil, errors.Wrapf(ErrInvalidPatch, "size %dx%d", pd.Width, pd.Height)
	}
	if len(pd.Verts) != pd.Width*pd.Height {
		return nil, errors.Wrapf(ErrInvalidPatch, "%d vertices, want %d", len(pd.Verts), pd.Width*pd.Height)
	}
	p := &scene.Patch{
		Material: pd.Material,
		Width:    pd.Width,
		Height:   pd.Height,
		Verts:    make([]geom.MeshVertex, len(pd.Verts)),
	}
	for i, vd := range pd.Verts {
		xyz, err := vec3(vd.XYZ)
		if err != nil {
			return nil, errors.WithMessagef(err, "vertex %d", i)
		}
		v := geom.MeshVertex{XYZ: xyz}
		if vd.ST != nil {
			if len(vd.ST) != 2 {
				return nil, errors.Wrapf(ErrInvalidPatch, "vertex %d st has %d values", i, len(vd.ST))
			}
			v.ST = mgl64.Vec2{vd.ST[0], vd.ST[1]}
		}
		if vd.Normal != nil {
			if v.Normal, err = vec3(vd.Normal); err != nil {
				return nil, errors.WithMessagef(err, "vertex %d normal", i)
			}
		}
		p.Verts[i] = v
	}
	return p, nil
}

func vec3(v []float64) (mgl64.Vec3, error) {
	if len(v) != 3 {
		return mgl64.Vec3{}, errors.Wrapf(ErrInvalidVector, "%d components", len(v))
	}
	return mgl64.Vec3{v[0], v[1], v[2]}, nil
}
