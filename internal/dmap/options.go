package dmap

import (
	"github.com/Faultbox/dmap/pkg/bsp"
	"github.com/Faultbox/dmap/pkg/geom"
	"github.com/Faultbox/dmap/pkg/optimize"
)

// Epsilons holds every geometric tolerance of a compile.
type Epsilons struct {
	PlaneNormal float64 `yaml:"plane_normal" toml:"plane_normal"`
	PlaneDist   float64 `yaml:"plane_dist" toml:"plane_dist"`
	Clip        float64 `yaml:"clip" toml:"clip"`
	BaseWinding float64 `yaml:"base_winding" toml:"base_winding"`
	Split       float64 `yaml:"split" toml:"split"`
	TinyEdge    float64 `yaml:"tiny_edge" toml:"tiny_edge"`
	Colinear    float64 `yaml:"colinear" toml:"colinear"`
	TJunction   float64 `yaml:"tjunction" toml:"tjunction"`
}

// Options controls a compile.
type Options struct {
	// BlockSize forces axial splits every BlockSize units; 0 disables.
	BlockSize float64 `yaml:"block_size" toml:"block_size"`

	NoOptimize   bool `yaml:"no_optimize" toml:"no_optimize"`
	NoTJunctions bool `yaml:"no_tjunctions" toml:"no_tjunctions"`
	NoFlood      bool `yaml:"no_flood" toml:"no_flood"`
	NoShadows    bool `yaml:"no_shadows" toml:"no_shadows"`
	NoLightCarve bool `yaml:"no_light_carve" toml:"no_light_carve"`

	// MaxIslandVerts skips re-triangulation of larger islands.
	MaxIslandVerts int `yaml:"max_island_verts" toml:"max_island_verts"`

	Epsilons  Epsilons       `yaml:"epsilons" toml:"epsilons"`
	Quantizer geom.Quantizer `yaml:"quantizer" toml:"quantizer"`
}

// DefaultOptions returns the standard compile settings.
func DefaultOptions() Options {
	tree := bsp.DefaultOptions()
	opt := optimize.DefaultOptions()
	return Options{
		BlockSize:      tree.BlockSize,
		MaxIslandVerts: opt.MaxIslandVerts,
		Epsilons: Epsilons{
			PlaneNormal: geom.DefaultPlaneNormalEpsilon,
			PlaneDist:   geom.DefaultPlaneDistEpsilon,
			Clip:        tree.ClipEpsilon,
			BaseWinding: tree.BaseWindingEpsilon,
			Split:       tree.SplitEpsilon,
			TinyEdge:    tree.TinyEdge,
			Colinear:    opt.ColinearEpsilon,
			TJunction:   opt.TJunctionEpsilon,
		},
		Quantizer: opt.Quantizer,
	}
}

func (o Options) bspOptions() bsp.Options {
	return bsp.Options{
		BlockSize:          o.BlockSize,
		ClipEpsilon:        o.Epsilons.Clip,
		BaseWindingEpsilon: o.Epsilons.BaseWinding,
		SplitEpsilon:       o.Epsilons.Split,
		TinyEdge:           o.Epsilons.TinyEdge,
	}
}

func (o Options) optimizeOptions() optimize.Options {
	return optimize.Options{
		Quantizer:        o.Quantizer,
		ColinearEpsilon:  o.Epsilons.Colinear,
		TJunctionEpsilon: o.Epsilons.TJunction,
		MaxIslandVerts:   o.MaxIslandVerts,
	}
}
