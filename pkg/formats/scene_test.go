package formats

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/dmap/pkg/scene"
)

const roomScene = `
materials:
  - name: textures/base/wall
  - name: textures/base/glass
    opaque: false
    noshadows: true
entities:
  - classname: worldspawn
    brushes:
      - box: {min: [-128, -128, -16], max: [128, 128, 0]}
        material: textures/base/wall
      - material: textures/base/wall
        sides:
          - plane: [0, 0, 2, 256]
          - plane: [0, 0, -1, -128]
            material: textures/base/glass
          - points: [[0, 0, 0], [0, 1, 0], [0, 1, 1]]
          - plane: [1, 0, 0, 64]
            texvec: [[0.5, 0, 0, 1], [0, 0.5, 0, 2]]
    patches:
      - material: textures/base/floor
        width: 2
        height: 2
        verts:
          - {xyz: [0, 0, 4], st: [0, 0]}
          - {xyz: [16, 0, 4], st: [1, 0]}
          - {xyz: [0, 16, 4], st: [0, 1]}
          - {xyz: [16, 16, 4], st: [1, 1], normal: [0, 0, 2]}
  - classname: info_player_start
    name: player1
    origin: [0, 0, 64]
    keys:
      angle: "90"
`

func TestReadScene_Room(t *testing.T) {
	s, err := ReadScene(strings.NewReader(roomScene))
	if err != nil {
		t.Fatalf("ReadScene failed: %v", err)
	}

	if len(s.Entities) != 2 {
		t.Fatalf("expected 2 entities, got %d", len(s.Entities))
	}
	world := s.Entities[0]
	if world.Classname() != scene.ClassWorldspawn {
		t.Errorf("expected worldspawn, got %s", world.Classname())
	}
	if len(world.Primitives) != 3 {
		t.Fatalf("expected 3 primitives, got %d", len(world.Primitives))
	}

	box, ok := world.Primitives[0].(*scene.Brush)
	if !ok || len(box.Sides) != 6 {
		t.Fatalf("expected a 6 sided box brush, got %#v", world.Primitives[0])
	}

	brush := world.Primitives[1].(*scene.Brush)
	if len(brush.Sides) != 4 {
		t.Fatalf("expected 4 sides, got %d", len(brush.Sides))
	}
	if got := brush.Sides[0].Plane; got.Normal != (mgl64.Vec3{0, 0, 1}) || got.Dist != 128 {
		t.Errorf("expected normalized plane (0 0 1) 128, got %v", got)
	}
	if brush.Sides[0].Material != "textures/base/wall" {
		t.Errorf("expected brush material on side 0, got %s", brush.Sides[0].Material)
	}
	if brush.Sides[1].Material != "textures/base/glass" {
		t.Errorf("expected side material override, got %s", brush.Sides[1].Material)
	}
	if got := brush.Sides[2].Plane; !got.Normal.ApproxEqual(mgl64.Vec3{1, 0, 0}) || got.Dist != 0 {
		t.Errorf("expected plane (1 0 0) 0 from points, got %v", got)
	}
	if got := brush.Sides[3].TexVec[1]; got != (mgl64.Vec4{0, 0.5, 0, 2}) {
		t.Errorf("expected texvec row 1 (0 0.5 0 2), got %v", got)
	}

	patch, ok := world.Primitives[2].(*scene.Patch)
	if !ok {
		t.Fatalf("expected a patch, got %#v", world.Primitives[2])
	}
	if patch.Width != 2 || patch.Height != 2 || len(patch.Verts) != 4 {
		t.Errorf("expected 2x2 patch, got %dx%d with %d verts", patch.Width, patch.Height, len(patch.Verts))
	}
	if got := patch.Vertex(1, 1).ST; got != (mgl64.Vec2{1, 1}) {
		t.Errorf("expected st (1 1), got %v", got)
	}

	player := s.Entities[1]
	if player.Name() != "player1" {
		t.Errorf("expected name player1, got %s", player.Name())
	}
	if origin, ok := player.Origin(); !ok || origin != (mgl64.Vec3{0, 0, 64}) {
		t.Errorf("expected origin (0 0 64), got %v %v", origin, ok)
	}
	if player.ValueForKey("angle") != "90" {
		t.Errorf("expected angle 90, got %q", player.ValueForKey("angle"))
	}
}

func TestReadScene_Materials(t *testing.T) {
	s, err := ReadScene(strings.NewReader(roomScene))
	if err != nil {
		t.Fatalf("ReadScene failed: %v", err)
	}

	glass := s.Materials.Lookup("textures/base/glass")
	if glass.Opaque || !glass.Drawn || !glass.NoShadows {
		t.Errorf("expected drawn, non opaque, noshadows glass, got %+v", glass)
	}
	wall := s.Materials.Lookup("TEXTURES/BASE/WALL")
	if !wall.Opaque || !wall.Drawn {
		t.Errorf("expected default wall flags, got %+v", wall)
	}
	portal := s.Materials.Lookup("textures/editor/visportal")
	if !portal.AreaPortal {
		t.Errorf("expected undeclared visportal to be an areaportal, got %+v", portal)
	}
}

func TestReadScene_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want error
	}{
		{
			name: "empty",
			yaml: ``,
			want: ErrNoEntities,
		},
		{
			name: "no worldspawn",
			yaml: "entities:\n  - classname: light\n",
			want: ErrNoWorldspawn,
		},
		{
			name: "too few sides",
			yaml: "entities:\n  - classname: worldspawn\n    brushes:\n      - sides:\n          - plane: [1, 0, 0, 0]\n",
			want: ErrInvalidBrush,
		},
		{
			name: "empty box",
			yaml: "entities:\n  - classname: worldspawn\n    brushes:\n      - box: {min: [0, 0, 0], max: [0, 8, 8]}\n",
			want: ErrInvalidBrush,
		},
		{
			name: "bad origin",
			yaml: "entities:\n  - classname: worldspawn\n    origin: [1, 2]\n",
			want: ErrInvalidVector,
		},
		{
			name: "short patch",
			yaml: "entities:\n  - classname: worldspawn\n    patches:\n      - {width: 2, height: 2, verts: [{xyz: [0, 0, 0]}]}\n",
			want: ErrInvalidPatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadScene(strings.NewReader(tt.yaml))
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestReadScene_ErrorNamesPrimitive(t *testing.T) {
	yaml := "entities:\n  - classname: worldspawn\n    brushes:\n      - box: {min: [0, 0, 0], max: [8, 8, 8]}\n      - sides: []\n"
	_, err := ReadScene(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error")
	}
	if msg := err.Error(); !strings.Contains(msg, "entity 0") || !strings.Contains(msg, "brush 1") {
		t.Errorf("expected entity and brush index in %q", msg)
	}
}

func TestReadScene_UnknownField(t *testing.T) {
	yaml := "entities:\n  - classname: worldspawn\n    bogus: 1\n"
	if _, err := ReadScene(strings.NewReader(yaml)); err == nil {
		t.Error("expected error for unknown field")
	}
}

func TestLoadScene(t *testing.T) {
	path := filepath.Join(t.TempDir(), "room.yaml")
	if err := os.WriteFile(path, []byte(roomScene), 0644); err != nil {
		t.Fatalf("failed to write scene: %v", err)
	}

	s, err := LoadScene(path)
	if err != nil {
		t.Fatalf("LoadScene failed: %v", err)
	}
	if len(s.Entities) != 2 {
		t.Errorf("expected 2 entities, got %d", len(s.Entities))
	}

	if _, err := LoadScene(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
