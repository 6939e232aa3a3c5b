package bsp

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/dmap/pkg/geom"
	"github.com/Faultbox/dmap/pkg/winding"
)

// Face is a structural polygon used to choose split planes.
type Face struct {
	PlaneNum   int
	Winding    winding.Winding
	AreaPortal bool
}

// BuildFaceTree partitions space by the planes of faces until every face has
// been consumed by a split on its own plane.
func BuildFaceTree(faces []*Face, planes *geom.PlaneSet, opts Options) *Tree {
	t := &Tree{Planes: planes, opts: opts, Bounds: geom.EmptyBounds()}
	for _, f := range faces {
		t.Bounds.AddBounds(f.Winding.Bounds())
	}
	t.Outside = t.newNode(nil)
	t.Root = t.newNode(nil)
	t.Root.Bounds = t.Bounds
	t.buildFaceTree(t.Root, faces)
	return t
}

func (t *Tree) buildFaceTree(node *Node, faces []*Face) {
	splitNum := t.selectSplitPlane(node, faces)
	if splitNum < 0 {
		t.stats.Leaves++
		return
	}
	t.stats.Nodes++
	node.PlaneNum = splitNum
	plane := t.Planes.Plane(splitNum)

	var lists [2][]*Face
	for _, f := range faces {
		if f.PlaneNum&^1 == splitNum&^1 {
			continue
		}
		switch winding.Classify(f.Winding, plane, t.opts.ClipEpsilon) {
		case geom.SideCross:
			front, back := winding.Clip(f.Winding, plane, t.opts.ClipEpsilon*2)
			if front != nil {
				lists[0] = append(lists[0], &Face{PlaneNum: f.PlaneNum, Winding: front, AreaPortal: f.AreaPortal})
			}
			if back != nil {
				lists[1] = append(lists[1], &Face{PlaneNum: f.PlaneNum, Winding: back, AreaPortal: f.AreaPortal})
			}
		case geom.SideFront:
			lists[0] = append(lists[0], f)
		case geom.SideBack:
			lists[1] = append(lists[1], f)
		}
	}

	for i := range node.Children {
		c := t.newNode(node)
		c.Bounds = node.Bounds
		node.Children[i] = c
	}
	if axis := int(plane.Type()); axis < 3 {
		d := plane.Dist
		if plane.Normal[axis] > 0 {
			node.Children[0].Bounds.Min[axis] = d
			node.Children[1].Bounds.Max[axis] = d
		} else {
			node.Children[0].Bounds.Max[axis] = -d
			node.Children[1].Bounds.Min[axis] = -d
		}
	}

	t.buildFaceTree(node.Children[0], lists[0])
	t.buildFaceTree(node.Children[1], lists[1])
}

// selectSplitPlane returns the plane to split node with, or -1 for a leaf.
func (t *Tree) selectSplitPlane(node *Node, faces []*Face) int {
	if len(faces) == 0 {
		return -1
	}

	// crossing a block boundary forces a split, which keeps epsilon problems
	// from extending an arbitrary distance across the map
	if bs := t.opts.BlockSize; bs > 0 && !node.Bounds.IsEmpty() {
		for axis := 0; axis < 3; axis++ {
			lo, hi := node.Bounds.Min[axis], node.Bounds.Max[axis]
			half := (hi - lo) * 0.5
			var dist float64
			if half > bs {
				dist = bs * (math.Floor((lo+half)/bs) + 1)
			} else {
				dist = bs * (math.Floor(lo/bs) + 1)
			}
			if dist > lo+1 && dist < hi-1 {
				var n mgl64.Vec3
				n[axis] = 1
				return t.Planes.Insert(n, dist)
			}
		}
	}

	havePortals := false
	for _, f := range faces {
		if f.AreaPortal {
			havePortals = true
			break
		}
	}

	checked := make(map[int]bool)
	best, bestValue := -1, math.MinInt
	for _, split := range faces {
		if checked[split.PlaneNum] || split.AreaPortal != havePortals {
			continue
		}
		checked[split.PlaneNum] = true
		plane := t.Planes.Plane(split.PlaneNum)

		facing, splits := 0, 0
		for _, check := range faces {
			if check.PlaneNum == split.PlaneNum {
				facing++
				continue
			}
			if winding.Classify(check.Winding, plane, t.opts.ClipEpsilon) == geom.SideCross {
				splits++
			}
		}
		value := 5*facing - 5*splits
		if plane.Type() != geom.PlaneNonAxial {
			value += 5
		}
		if value > bestValue {
			bestValue = value
			best = split.PlaneNum
		}
	}
	return best
}
