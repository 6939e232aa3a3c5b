package winding

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/dmap/pkg/geom"
)

// square returns a 64x64 winding on z=0 facing +z.
func square() Winding {
	return Winding{
		{0, 0, 0},
		{64, 0, 0},
		{64, 64, 0},
		{0, 64, 0},
	}
}

func TestForPlaneOrientation(t *testing.T) {
	planes := []geom.Plane{
		{Normal: mgl64.Vec3{0, 0, 1}, Dist: 16},
		{Normal: mgl64.Vec3{-1, 0, 0}, Dist: 32},
		{Normal: mgl64.Vec3{1, 1, 0}.Normalize(), Dist: 5},
	}
	for _, p := range planes {
		w := ForPlane(p)
		got, ok := w.Plane()
		if !ok {
			t.Fatalf("ForPlane(%v) degenerate", p)
		}
		if !got.Normal.ApproxEqualThreshold(p.Normal, 1e-9) || math.Abs(got.Dist-p.Dist) > 1e-6 {
			t.Errorf("ForPlane(%v).Plane() = %v", p, got)
		}
	}
}

func TestClipSplit(t *testing.T) {
	w := square()
	p := geom.Plane{Normal: mgl64.Vec3{1, 0, 0}, Dist: 16}

	front, back := Clip(w, p, OnEpsilon)
	if front == nil || back == nil {
		t.Fatalf("Clip through the middle gave front=%v back=%v", front, back)
	}

	if got := front.Area() + back.Area(); math.Abs(got-w.Area()) > 1e-9 {
		t.Errorf("front+back area = %v, want %v", got, w.Area())
	}
	for _, v := range front {
		if p.Distance(v) < -OnEpsilon {
			t.Errorf("front point %v is behind the plane", v)
		}
	}
	for _, v := range back {
		if p.Distance(v) > OnEpsilon {
			t.Errorf("back point %v is in front of the plane", v)
		}
	}
	if math.Abs(front.Area()-48*64) > 1e-9 {
		t.Errorf("front area = %v, want %v", front.Area(), 48*64)
	}

	// the input must be untouched
	if w[1] != (mgl64.Vec3{64, 0, 0}) || len(w) != 4 {
		t.Errorf("Clip modified its input: %v", w)
	}
}

func TestClipOneSided(t *testing.T) {
	w := square()

	front, back := Clip(w, geom.Plane{Normal: mgl64.Vec3{1, 0, 0}, Dist: -10}, OnEpsilon)
	if front == nil || back != nil {
		t.Errorf("winding in front: front=%v back=%v", front, back)
	}

	front, back = Clip(w, geom.Plane{Normal: mgl64.Vec3{1, 0, 0}, Dist: 100}, OnEpsilon)
	if front != nil || back == nil {
		t.Errorf("winding behind: front=%v back=%v", front, back)
	}

	// a vertex on the plane belongs to the populated side only
	front, back = Clip(w, geom.Plane{Normal: mgl64.Vec3{1, 0, 0}, Dist: 0}, OnEpsilon)
	if front == nil || back != nil {
		t.Errorf("touching winding: front=%v back=%v", front, back)
	}
	if len(front) != 4 {
		t.Errorf("touching winding gained points: %v", front)
	}
}

func TestClipAxialExact(t *testing.T) {
	w := Winding{{0, 0, 0}, {3, 0, 0}, {3, 7, 0}, {0, 7, 0}}
	p := geom.Plane{Normal: mgl64.Vec3{0, 1, 0}, Dist: 1.0 / 3}
	front, _ := Clip(w, p, SplitEpsilon)
	for _, v := range front {
		if v[1] != p.Dist && v[1] != 7 {
			t.Errorf("split point %v not snapped to plane", v)
		}
	}
}

func TestClipDegenerate(t *testing.T) {
	front, back := Clip(Winding{{0, 0, 0}, {1, 0, 0}}, geom.Plane{Normal: mgl64.Vec3{1, 0, 0}}, OnEpsilon)
	if front != nil || back != nil {
		t.Errorf("two point winding should clip to nothing, got %v %v", front, back)
	}
}

func TestChop(t *testing.T) {
	w := square()
	got := Chop(w, geom.Plane{Normal: mgl64.Vec3{0, -1, 0}, Dist: -32}, OnEpsilon)
	if got == nil {
		t.Fatal("Chop removed everything")
	}
	b := got.Bounds()
	if b.Max[1] != 32 {
		t.Errorf("Chop bounds = %v, want max y 32", b)
	}
}

func TestClassify(t *testing.T) {
	w := square()
	tests := []struct {
		name  string
		plane geom.Plane
		want  geom.Side
	}{
		{"front", geom.Plane{Normal: mgl64.Vec3{0, 0, 1}, Dist: -1}, geom.SideFront},
		{"back", geom.Plane{Normal: mgl64.Vec3{0, 0, 1}, Dist: 1}, geom.SideBack},
		{"on", geom.Plane{Normal: mgl64.Vec3{0, 0, 1}, Dist: 0}, geom.SideOn},
		{"cross", geom.Plane{Normal: mgl64.Vec3{1, 0, 0}, Dist: 32}, geom.SideCross},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(w, tt.plane, OnEpsilon); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsTiny(t *testing.T) {
	if square().IsTiny(0.2) {
		t.Error("square should not be tiny")
	}
	sliver := Winding{{0, 0, 0}, {10, 0, 0}, {10, 0.1, 0}, {0, 0.1, 0}}
	if !sliver.IsTiny(0.2) {
		t.Error("sliver should be tiny")
	}
}

func TestReverseAndFan(t *testing.T) {
	w := square()
	p, _ := w.Plane()
	rp, _ := w.Reverse().Plane()
	if !rp.Normal.ApproxEqual(p.Normal.Mul(-1)) {
		t.Errorf("reversed normal = %v, want %v", rp.Normal, p.Normal.Mul(-1))
	}
	if got := len(w.Fan()); got != 2 {
		t.Errorf("Fan() = %d triangles, want 2", got)
	}
}

func TestClipPolygonMeshVertex(t *testing.T) {
	poly := []geom.MeshVertex{
		{XYZ: mgl64.Vec3{0, 0, 0}, ST: mgl64.Vec2{0, 0}, Normal: mgl64.Vec3{0, 0, 1}},
		{XYZ: mgl64.Vec3{10, 0, 0}, ST: mgl64.Vec2{1, 0}, Normal: mgl64.Vec3{0, 0, 1}},
		{XYZ: mgl64.Vec3{0, 10, 0}, ST: mgl64.Vec2{0, 1}, Normal: mgl64.Vec3{0, 0, 1}},
	}
	pos := func(v geom.MeshVertex) mgl64.Vec3 { return v.XYZ }
	front, back := ClipPolygon(poly, pos, geom.LerpVertex, geom.Plane{Normal: mgl64.Vec3{1, 0, 0}, Dist: 5}, OnEpsilon)
	if len(front) != 3 || len(back) != 4 {
		t.Fatalf("got %d front and %d back vertices, want 3 and 4", len(front), len(back))
	}
	for _, v := range front {
		if v.XYZ[0] == 5 && math.Abs(v.ST[0]-0.5) > 1e-9 {
			t.Errorf("split vertex %+v has s %v, want 0.5", v.XYZ, v.ST[0])
		}
	}
}
