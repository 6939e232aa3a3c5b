// Package dmap compiles a scene into processed map geometry: one BSP per
// entity, areas and inter-area portals for the world, optimized surfaces per
// area and prelight shadow volumes.
package dmap

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/dmap/pkg/bsp"
	"github.com/Faultbox/dmap/pkg/geom"
	"github.com/Faultbox/dmap/pkg/optimize"
	"github.com/Faultbox/dmap/pkg/proc"
	"github.com/Faultbox/dmap/pkg/scene"
)

// Compile errors.
var (
	ErrNoWorldspawn = errors.New("entity 0 is not a worldspawn")
	ErrEmptyBrush   = errors.New("brush has no sides")
)

// Stats summarizes a compile.
type Stats struct {
	Entities          int
	Brushes           int
	Patches           int
	DegenerateBrushes int
	DuplicateSides    int
	Areas             int
	AreaTris          int // emitted world triangles after optimization
	Portals           int
	Lights            int
	LightOverflows    int
	ShadowModels      int
	TJunctionSplits   int
	Optimize          optimize.Stats
	Tree              bsp.Stats
}

// Result is the output of a compile.
type Result struct {
	RunID string
	File  *proc.File
	// Leak is set when the world leaked; File then holds no world areas.
	Leak  *proc.LeakFile
	Stats Stats
}

// compiler is the state of one run. The plane set is shared by every entity.
// materials is a copy of the scene's table so defaults resolved during the
// run never leak back into the scene.
type compiler struct {
	opts      Options
	log       *zap.Logger
	planes    *geom.PlaneSet
	materials *scene.MaterialTable
	lights    []proc.Light
	occupants []bsp.Occupant
	stats     Stats
}

// Compile processes every entity of s. A leak in the world entity is
// returned as an error wrapping *bsp.LeakError together with a result whose
// Leak holds the trace; the remaining entities are still compiled.
func Compile(ctx context.Context, s *scene.Scene, opts Options, log *zap.Logger) (*Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if len(s.Entities) == 0 || s.Entities[0].Classname() != scene.ClassWorldspawn {
		return nil, ErrNoWorldspawn
	}

	runID := uuid.NewString()
	c := &compiler{
		opts:      opts,
		log:       log.With(zap.String("run", runID)),
		planes:    geom.NewPlaneSet(opts.Epsilons.PlaneNormal, opts.Epsilons.PlaneDist),
		materials: s.Materials.Clone(),
	}
	c.lights = c.collectLights(s)
	c.stats.Lights = len(c.lights)
	for i, e := range s.Entities[1:] {
		if origin, ok := e.Origin(); ok {
			c.occupants = append(c.occupants, bsp.Occupant{Entity: i + 1, Origin: origin})
		}
	}

	res := &Result{RunID: runID, File: &proc.File{}}
	var leakErr error
	for i, e := range s.Entities {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "compile canceled")
		}
		if i > 0 && len(e.Primitives) == 0 {
			continue
		}
		c.stats.Entities++

		err := c.compileEntity(i, e, res)
		if err == nil {
			continue
		}
		if i != 0 || !isLeak(err) {
			return nil, errors.WithMessagef(err, "entity %d", i)
		}
		leakErr = errors.WithMessage(err, "entity 0")
		res.Leak = leakFile(err)
	}

	res.Stats = c.stats
	c.log.Info("compile finished",
		zap.Int("entities", c.stats.Entities),
		zap.Int("areas", c.stats.Areas),
		zap.Int("portals", c.stats.Portals),
		zap.Int("planes", c.planes.Len()),
		zap.Int("trisIn", c.stats.Optimize.TrisIn),
		zap.Int("trisOut", c.stats.Optimize.TrisOut),
		zap.Int("fallbacks", c.stats.Optimize.Fallbacks),
		zap.Int("combinedEdges", c.stats.Optimize.CombinedEdges),
		zap.Int("shadowModels", c.stats.ShadowModels),
		zap.Bool("leaked", res.Leak != nil))
	return res, leakErr
}

func isLeak(err error) bool {
	return errors.Is(err, bsp.ErrLeak) || errors.Is(err, bsp.ErrNoEntitiesInOpen)
}

// leakFile returns the trace of a leak error, empty when the error carries
// no path.
func leakFile(err error) *proc.LeakFile {
	var leak *bsp.LeakError
	if errors.As(err, &leak) {
		return &proc.LeakFile{Points: leak.Path}
	}
	return &proc.LeakFile{}
}

// compileEntity runs the pipeline for one entity and appends its output.
func (c *compiler) compileEntity(index int, e *scene.Entity, res *Result) error {
	log := c.log.With(zap.Int("entity", index), zap.String("classname", e.Classname()))
	world := index == 0

	prims, err := c.makePrimitives(e)
	if err != nil {
		return err
	}
	log.Debug("primitives",
		zap.Int("brushes", len(prims.brushes)),
		zap.Int("patches", len(prims.patches)),
		zap.Int("structuralFaces", len(prims.faces)))

	tree := bsp.BuildFaceTree(prims.faces, c.planes, c.opts.bspOptions())
	tree.MakePortals()
	tree.ClassifyLeaves(prims.volumes)

	if world && !c.opts.NoFlood {
		if err := tree.FloodEntities(c.occupants); err != nil {
			log.Warn("leak", zap.Error(err))
			return err
		}
		filled := tree.FillOutside()
		log.Debug("outside filled", zap.Int("leaves", filled))
	}

	numAreas, warnings := tree.FloodAreas()
	for _, w := range warnings {
		log.Warn("areaportal touches more than two areas",
			zap.Float64s("center", w.Center[:]),
			zap.Ints("areas", w.Areas))
	}

	areas := make([]proc.Area, numAreas)
	c.putPrimitivesInAreas(tree, prims, areas, world)

	var groups []*proc.OptimizeGroup
	for a := range areas {
		groups = append(groups, areas[a].Groups...)
	}
	if !c.opts.NoOptimize {
		c.stats.Optimize.Add(optimize.Groups(groups, c.planes, c.opts.optimizeOptions()))
	}
	if !c.opts.NoTJunctions {
		c.stats.TJunctionSplits += optimize.FixTJunctions(groups, c.opts.Epsilons.TJunction, c.opts.Quantizer)
	}

	treeStats := tree.Stats()
	c.stats.Tree.Nodes += treeStats.Nodes
	c.stats.Tree.Leaves += treeStats.Leaves
	c.stats.Tree.Portals += treeStats.Portals
	c.stats.Tree.TinyPortals += treeStats.TinyPortals
	c.stats.Tree.OpaqueLeaves += treeStats.OpaqueLeaves
	c.stats.Tree.FilledLeaves += treeStats.FilledLeaves
	c.stats.Tree.FloodedLeafs += treeStats.FloodedLeafs

	if !world {
		name := e.Name()
		if name == "" {
			name = fmt.Sprintf("_entity%d", index)
		}
		res.File.Models = append(res.File.Models, proc.Model{
			Name:     name,
			Surfaces: proc.BuildSurfaces(groups, c.opts.Quantizer),
		})
		log.Debug("entity model", zap.String("name", name), zap.Int("groups", len(groups)))
		return nil
	}

	for a := range areas {
		tris := areas[a].NumTris()
		c.stats.AreaTris += tris
		log.Debug("area", zap.Int("area", a), zap.Int("groups", len(areas[a].Groups)), zap.Int("tris", tris))
		res.File.Models = append(res.File.Models, proc.Model{
			Name:     fmt.Sprintf("_area%d", a),
			Surfaces: proc.BuildSurfaces(areas[a].Groups, c.opts.Quantizer),
		})
	}
	res.File.NumAreas = numAreas
	res.File.Portals = tree.InterAreaPortals()
	res.File.Nodes = tree.Flatten()
	if !c.opts.NoShadows {
		res.File.ShadowModels = c.shadowModels(groups)
		c.stats.ShadowModels = len(res.File.ShadowModels)
	}

	c.stats.Areas = numAreas
	c.stats.Portals = len(res.File.Portals)
	log.Info("world compiled",
		zap.Int("areas", numAreas),
		zap.Int("interAreaPortals", len(res.File.Portals)),
		zap.Int("nodes", len(res.File.Nodes)))
	return nil
}
