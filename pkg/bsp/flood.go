package bsp

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Flood errors.
var (
	ErrLeak             = errors.New("map leaked")
	ErrNoEntitiesInOpen = errors.New("no entities in open")
)

// LeakError reports a leak and the path from the outside of the map to the
// entity that was reached.
type LeakError struct {
	Entity int
	Path   []mgl64.Vec3
}

func (e *LeakError) Error() string {
	return fmt.Sprintf("%v: reached from entity %d (%d path points)", ErrLeak, e.Entity, len(e.Path))
}

// Unwrap returns ErrLeak.
func (e *LeakError) Unwrap() error {
	return ErrLeak
}

// Occupant is an entity origin used to seed the outside flood.
type Occupant struct {
	Entity int
	Origin mgl64.Vec3
}

// FloodEntities floods from every occupant through non-opaque leaves. It
// returns a *LeakError if the outside node is reached, or
// ErrNoEntitiesInOpen if no occupant is in open space.
func (t *Tree) FloodEntities(occupants []Occupant) error {
	t.Outside.Occupied = 0
	inside := false
	var leak *Occupant

	for i := range occupants {
		occ := &occupants[i]
		// in case the origin is exactly on the ground
		origin := occ.Origin.Add(mgl64.Vec3{0, 0, 1})
		leaf := t.PointLeaf(origin)
		if leaf.Opaque {
			continue
		}
		inside = true
		if leaf.Occupied == 0 {
			leaf.Occupant = &Occupant{Entity: occ.Entity, Origin: origin}
			t.floodPortals(leaf)
		}
		if t.Outside.Occupied != 0 && leak == nil {
			leak = occ
		}
	}

	if !inside {
		return ErrNoEntitiesInOpen
	}
	if leak != nil {
		return &LeakError{Entity: leak.Entity, Path: t.leakPath()}
	}
	return nil
}

// floodPortals runs a breadth first flood from start, recording distances.
func (t *Tree) floodPortals(start *Node) {
	start.Occupied = 1
	queue := []*Node{start}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		t.stats.FloodedLeafs++
		for _, p := range n.Portals {
			other := p.Other(n)
			if other.Opaque || other.Occupied != 0 {
				continue
			}
			other.Occupied = n.Occupied + 1
			queue = append(queue, other)
		}
	}
}

// leakPath walks from the outside node to the occupant by strictly
// decreasing flood distance through portal centers.
func (t *Tree) leakPath() []mgl64.Vec3 {
	var path []mgl64.Vec3
	node := t.Outside
	for node.Occupied > 1 {
		var next *Node
		var via *Portal
		best := node.Occupied
		for _, p := range node.Portals {
			other := p.Other(node)
			if other.Occupied != 0 && other.Occupied < best {
				best = other.Occupied
				next = other
				via = p
			}
		}
		if next == nil {
			break
		}
		path = append(path, via.Winding.Center())
		node = next
	}
	if node.Occupant != nil {
		path = append(path, node.Occupant.Origin)
	}
	return path
}

// FillOutside marks every leaf the flood did not reach as opaque and returns
// the number of leaves filled.
func (t *Tree) FillOutside() int {
	filled := 0
	for _, leaf := range t.Leaves() {
		if leaf.Occupied == 0 && !leaf.Opaque {
			leaf.Opaque = true
			leaf.AreaPortal = false
			filled++
		}
	}
	t.stats.FilledLeaves += filled
	return filled
}
