package bsp

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/dmap/pkg/geom"
	"github.com/Faultbox/dmap/pkg/winding"
)

type testBrush struct {
	min, max   mgl64.Vec3
	areaPortal bool
}

func box(x0, y0, z0, x1, y1, z1 float64) testBrush {
	return testBrush{min: mgl64.Vec3{x0, y0, z0}, max: mgl64.Vec3{x1, y1, z1}}
}

// buildTree builds, portalizes and classifies the tree of box brushes.
func buildTree(t *testing.T, brushes []testBrush) *Tree {
	t.Helper()
	planes := geom.NewPlaneSet(0, 0)

	var faces []*Face
	var volumes []*Brush
	for _, tb := range brushes {
		var sides []geom.Plane
		for axis := 0; axis < 3; axis++ {
			var n mgl64.Vec3
			n[axis] = 1
			sides = append(sides,
				geom.Plane{Normal: n, Dist: tb.max[axis]},
				geom.Plane{Normal: n.Mul(-1), Dist: -tb.min[axis]})
		}
		vol := &Brush{Opaque: !tb.areaPortal, AreaPortal: tb.areaPortal, Bounds: geom.Bounds{Min: tb.min, Max: tb.max}}
		for i, p := range sides {
			num := planes.InsertPlane(p)
			vol.Planes = append(vol.Planes, num)

			w := winding.ForPlane(p)
			for j, q := range sides {
				if j != i && w != nil {
					w = winding.Chop(w, q.Flip(), 0)
				}
			}
			if w == nil {
				t.Fatalf("brush %v side %d has no winding", tb, i)
			}
			faces = append(faces, &Face{PlaneNum: num &^ 1, Winding: w, AreaPortal: tb.areaPortal})
		}
		volumes = append(volumes, vol)
	}

	tree := BuildFaceTree(faces, planes, DefaultOptions())
	tree.MakePortals()
	tree.ClassifyLeaves(volumes)
	return tree
}

// sealedRoom is a 256 unit room with 16 unit walls.
func sealedRoom() []testBrush {
	return []testBrush{
		box(-16, -16, -16, 272, 272, 0),
		box(-16, -16, 256, 272, 272, 272),
		box(-16, -16, 0, 0, 272, 256),
		box(256, -16, 0, 272, 272, 256),
		box(0, -16, 0, 256, 0, 256),
		box(0, 256, 0, 256, 272, 256),
	}
}

// twoRooms are two rooms joined by a doorway sealed with an areaportal.
func twoRooms() []testBrush {
	door := box(256, 96, 0, 272, 160, 128)
	door.areaPortal = true
	return []testBrush{
		box(-16, -16, -16, 544, 272, 0),
		box(-16, -16, 256, 544, 272, 272),
		box(-16, -16, 0, 0, 272, 256),
		box(528, -16, 0, 544, 272, 256),
		box(0, -16, 0, 528, 0, 256),
		box(0, 256, 0, 528, 272, 256),
		box(256, 0, 0, 272, 96, 256),
		box(256, 160, 0, 272, 256, 256),
		box(256, 96, 128, 272, 160, 256),
		door,
	}
}

func TestPointLeafClassification(t *testing.T) {
	tree := buildTree(t, sealedRoom())

	if leaf := tree.PointLeaf(mgl64.Vec3{128, 128, 128}); leaf.Opaque {
		t.Error("room interior classified opaque")
	}
	for _, p := range []mgl64.Vec3{{-8, 128, 128}, {128, 128, -8}, {264, 264, 264}} {
		if leaf := tree.PointLeaf(p); !leaf.Opaque {
			t.Errorf("point %v inside a wall is not opaque", p)
		}
	}
}

func TestPortalsLinkLeaves(t *testing.T) {
	tree := buildTree(t, sealedRoom())

	nodes := append(tree.Leaves(), tree.Outside)
	for _, n := range nodes {
		for _, p := range n.Portals {
			if !p.Nodes[0].IsLeaf() || !p.Nodes[1].IsLeaf() {
				t.Fatalf("portal %v still references an interior node", p.Winding)
			}
			if p.Nodes[0] != n && p.Nodes[1] != n {
				t.Fatalf("portal in list of node %d does not reference it", n.ID)
			}
			if len(p.Winding) < 3 {
				t.Errorf("portal winding has %d points", len(p.Winding))
			}
			other := p.Other(n)
			found := false
			for _, q := range other.Portals {
				found = found || q == p
			}
			if !found {
				t.Errorf("portal missing from the list of node %d", other.ID)
			}
		}
	}
	if len(tree.Outside.Portals) == 0 {
		t.Error("outside node has no portals")
	}
}

func TestSealedRoom(t *testing.T) {
	tree := buildTree(t, sealedRoom())

	err := tree.FloodEntities([]Occupant{{Entity: 1, Origin: mgl64.Vec3{128, 128, 0}}})
	if err != nil {
		t.Fatalf("FloodEntities() error = %v", err)
	}
	if filled := tree.FillOutside(); filled == 0 {
		t.Error("FillOutside() filled no leaves")
	}

	numAreas, warnings := tree.FloodAreas()
	if numAreas != 1 {
		t.Errorf("FloodAreas() = %d areas, want 1", numAreas)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if portals := tree.InterAreaPortals(); len(portals) != 0 {
		t.Errorf("got %d inter-area portals, want 0", len(portals))
	}
	if leaf := tree.PointLeaf(mgl64.Vec3{10, 20, 30}); leaf.Area != 0 {
		t.Errorf("interior point in area %d, want 0", leaf.Area)
	}
}

func TestOpenRoomLeaks(t *testing.T) {
	brushes := sealedRoom()
	// drop the ceiling
	brushes = append(brushes[:1], brushes[2:]...)
	tree := buildTree(t, brushes)

	origin := mgl64.Vec3{128, 128, 0}
	err := tree.FloodEntities([]Occupant{{Entity: 3, Origin: origin}})
	if !errors.Is(err, ErrLeak) {
		t.Fatalf("FloodEntities() error = %v, want ErrLeak", err)
	}
	var leak *LeakError
	if !errors.As(err, &leak) {
		t.Fatalf("error %T is not a *LeakError", err)
	}
	if leak.Entity != 3 {
		t.Errorf("leak entity = %d, want 3", leak.Entity)
	}
	if len(leak.Path) < 2 {
		t.Fatalf("leak path has %d points, want at least 2", len(leak.Path))
	}
	last := leak.Path[len(leak.Path)-1]
	if !last.ApproxEqual(origin.Add(mgl64.Vec3{0, 0, 1})) {
		t.Errorf("leak path ends at %v, want the entity origin", last)
	}
	if first := leak.Path[0]; first[2] <= 256 {
		t.Errorf("leak path starts at %v, want above the open top", first)
	}
}

func TestNoEntitiesInOpen(t *testing.T) {
	tree := buildTree(t, sealedRoom())
	err := tree.FloodEntities([]Occupant{{Entity: 1, Origin: mgl64.Vec3{-8, 128, 128}}})
	if !errors.Is(err, ErrNoEntitiesInOpen) {
		t.Errorf("FloodEntities() error = %v, want ErrNoEntitiesInOpen", err)
	}
}

func TestTwoRoomsWithAreaPortal(t *testing.T) {
	tree := buildTree(t, twoRooms())

	if err := tree.FloodEntities([]Occupant{{Entity: 1, Origin: mgl64.Vec3{64, 64, 0}}}); err != nil {
		t.Fatalf("FloodEntities() error = %v", err)
	}
	tree.FillOutside()

	numAreas, _ := tree.FloodAreas()
	if numAreas != 2 {
		t.Fatalf("FloodAreas() = %d areas, want 2", numAreas)
	}
	a := tree.PointLeaf(mgl64.Vec3{128, 128, 64}).Area
	b := tree.PointLeaf(mgl64.Vec3{400, 128, 64}).Area
	if a == b || a < 0 || b < 0 {
		t.Errorf("rooms in areas %d and %d, want two distinct areas", a, b)
	}
	if door := tree.PointLeaf(mgl64.Vec3{264, 128, 64}); !door.AreaPortal || door.Area != min(a, b) {
		t.Errorf("doorway leaf areaportal=%v area=%d, want areaportal in area %d", door.AreaPortal, door.Area, min(a, b))
	}

	// the windings face the lower area
	wantX := -1.0
	if a > b {
		wantX = 1
	}
	portals := tree.InterAreaPortals()
	if len(portals) == 0 {
		t.Fatal("no inter-area portals")
	}
	for _, p := range portals {
		if p.Area0 >= p.Area1 {
			t.Errorf("portal areas %d, %d not ordered", p.Area0, p.Area1)
		}
		pl, ok := p.Winding.Plane()
		if !ok {
			t.Fatalf("degenerate portal winding %v", p.Winding)
		}
		if math.Abs(pl.Normal[0]-wantX) > 1e-9 {
			t.Errorf("portal normal = %v, want x = %v", pl.Normal, wantX)
		}
	}
}

func TestFlatten(t *testing.T) {
	tree := buildTree(t, twoRooms())
	if err := tree.FloodEntities([]Occupant{{Entity: 1, Origin: mgl64.Vec3{64, 64, 0}}}); err != nil {
		t.Fatal(err)
	}
	tree.FillOutside()
	numAreas, _ := tree.FloodAreas()

	nodes := tree.Flatten()
	if len(nodes) != tree.Stats().Nodes {
		t.Errorf("Flatten() = %d nodes, want %d", len(nodes), tree.Stats().Nodes)
	}
	seen := make(map[int]bool)
	for i, n := range nodes {
		for _, c := range n.Children {
			switch {
			case c > 0:
				if c <= i || c >= len(nodes) {
					t.Errorf("node %d child %d breaks preorder", i, c)
				}
			case c < 0:
				area := -1 - c
				if area >= numAreas {
					t.Errorf("node %d references area %d of %d", i, area, numAreas)
				}
				seen[area] = true
			}
		}
	}
	if len(seen) != numAreas {
		t.Errorf("flattened tree reaches %d areas, want %d", len(seen), numAreas)
	}
}

func TestFlattenSingleLeaf(t *testing.T) {
	tree := BuildFaceTree(nil, geom.NewPlaneSet(0, 0), DefaultOptions())
	tree.MakePortals()
	tree.ClassifyLeaves(nil)
	if n, _ := tree.FloodAreas(); n != 1 {
		t.Errorf("empty tree has %d areas, want 1", n)
	}
	nodes := tree.Flatten()
	if len(nodes) != 1 || nodes[0].Children != [2]int{-1, -1} {
		t.Errorf("Flatten() = %+v, want one dummy node into area 0", nodes)
	}
}

func TestFilterWinding(t *testing.T) {
	tree := buildTree(t, sealedRoom())
	if err := tree.FloodEntities([]Occupant{{Entity: 1, Origin: mgl64.Vec3{128, 128, 0}}}); err != nil {
		t.Fatal(err)
	}
	tree.FillOutside()
	tree.FloodAreas()

	// top face of the floor brush
	plane := geom.Plane{Normal: mgl64.Vec3{0, 0, 1}, Dist: 0}
	num := tree.Planes.InsertPlane(plane)
	w := winding.Winding{{-16, -16, 0}, {272, -16, 0}, {272, 272, 0}, {-16, 272, 0}}

	var visible float64
	tree.FilterWinding(w, num, func(leaf *Node, frag winding.Winding) {
		if !leaf.Opaque && leaf.Area == 0 {
			visible += frag.Area()
		}
	})
	if math.Abs(visible-256*256) > 1e-6 {
		t.Errorf("visible floor area = %v, want %v", visible, 256*256)
	}
}

func TestFilterPolygon(t *testing.T) {
	tree := buildTree(t, sealedRoom())
	poly := []geom.MeshVertex{
		{XYZ: mgl64.Vec3{-100, 128, 128}, ST: mgl64.Vec2{0, 0}},
		{XYZ: mgl64.Vec3{400, 128, 128}, ST: mgl64.Vec2{1, 0}},
		{XYZ: mgl64.Vec3{400, 128, 200}, ST: mgl64.Vec2{1, 1}},
	}
	var total float64
	tree.FilterPolygon(poly, func(leaf *Node, frag []geom.MeshVertex) {
		for i := 2; i < len(frag); i++ {
			total += geom.TriangleArea(frag[0].XYZ, frag[i-1].XYZ, frag[i].XYZ)
		}
	})
	want := geom.TriangleArea(poly[0].XYZ, poly[1].XYZ, poly[2].XYZ)
	if math.Abs(total-want) > 1e-6 {
		t.Errorf("fragment area = %v, want %v", total, want)
	}
}

func TestFilterPolygonOnNodePlane(t *testing.T) {
	tree := buildTree(t, sealedRoom())
	rug := []geom.MeshVertex{
		{XYZ: mgl64.Vec3{64, 64, 0}},
		{XYZ: mgl64.Vec3{192, 64, 0}},
		{XYZ: mgl64.Vec3{192, 192, 0}},
	}
	want := geom.TriangleArea(rug[0].XYZ, rug[1].XYZ, rug[2].XYZ)

	tests := []struct {
		name     string
		poly     []geom.MeshVertex
		wantOpen float64
	}{
		{"facing up lands in the room", rug, want},
		{"facing down lands in the floor", []geom.MeshVertex{rug[0], rug[2], rug[1]}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var open, total float64
			tree.FilterPolygon(tt.poly, func(leaf *Node, frag []geom.MeshVertex) {
				for i := 2; i < len(frag); i++ {
					a := geom.TriangleArea(frag[0].XYZ, frag[i-1].XYZ, frag[i].XYZ)
					total += a
					if !leaf.Opaque {
						open += a
					}
				}
			})
			if math.Abs(total-want) > 1e-6 {
				t.Errorf("fragment area = %v, want %v", total, want)
			}
			if math.Abs(open-tt.wantOpen) > 1e-6 {
				t.Errorf("area in open leaves = %v, want %v", open, tt.wantOpen)
			}
		})
	}
}
