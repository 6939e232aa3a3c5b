package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/Faultbox/dmap/internal/config"
	"github.com/Faultbox/dmap/pkg/bsp"
)

const roomWalls = `
      - box: {min: [-16, -16, -16], max: [272, 272, 0]}
      - box: {min: [-16, -16, 0], max: [0, 272, 256]}
      - box: {min: [256, -16, 0], max: [272, 272, 256]}
      - box: {min: [0, -16, 0], max: [256, 0, 256]}
      - box: {min: [0, 256, 0], max: [256, 272, 256]}
`

const roomCeiling = `
      - box: {min: [-16, -16, 256], max: [272, 272, 272]}
`

func writeScene(t *testing.T, sealed bool) string {
	t.Helper()
	brushes := roomWalls
	if sealed {
		brushes += roomCeiling
	}
	doc := `
materials:
  - name: textures/base/wall
entities:
  - classname: worldspawn
    brushes:` + strings.ReplaceAll(brushes, "}\n", "}\n        material: textures/base/wall\n") + `
  - classname: info_player_start
    origin: [128, 128, 64]
`
	path := filepath.Join(t.TempDir(), "room.yaml")
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatalf("failed to write scene: %v", err)
	}
	return path
}

func TestCompileScene_Sealed(t *testing.T) {
	scenePath := writeScene(t, true)
	cfg := config.Default()

	res, err := compileScene(context.Background(), cfg, scenePath)
	if err != nil {
		t.Fatalf("compileScene failed: %v", err)
	}
	if res.Stats.Areas != 1 {
		t.Errorf("expected 1 area, got %d", res.Stats.Areas)
	}

	procPath := cfg.Output.ProcPath(scenePath)
	data, err := os.ReadFile(procPath)
	if err != nil {
		t.Fatalf("expected proc file at %s: %v", procPath, err)
	}
	if !strings.HasPrefix(string(data), "mapProcFile003") {
		t.Errorf("expected proc header, got %q", firstLine(string(data)))
	}
	if _, err := os.Stat(cfg.Output.LinPath(scenePath)); !os.IsNotExist(err) {
		t.Errorf("expected no leak file, got stat error %v", err)
	}
}

func TestCompileScene_Leak(t *testing.T) {
	scenePath := writeScene(t, false)
	cfg := config.Default()

	res, err := compileScene(context.Background(), cfg, scenePath)
	if !errors.Is(err, bsp.ErrLeak) {
		t.Fatalf("expected leak error, got %v", err)
	}
	if res == nil || res.Leak == nil || len(res.Leak.Points) == 0 {
		t.Fatal("expected a leak trace")
	}

	if _, err := os.Stat(cfg.Output.ProcPath(scenePath)); !os.IsNotExist(err) {
		t.Errorf("expected no proc file on leak, got stat error %v", err)
	}
	data, err := os.ReadFile(cfg.Output.LinPath(scenePath))
	if err != nil {
		t.Fatalf("expected lin file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != len(res.Leak.Points) {
		t.Errorf("expected %d lin lines, got %d", len(res.Leak.Points), len(lines))
	}
}

func TestCompileScene_OutputDir(t *testing.T) {
	scenePath := writeScene(t, true)
	cfg := config.Default()
	cfg.Output.Dir = filepath.Join(t.TempDir(), "maps")

	if _, err := compileScene(context.Background(), cfg, scenePath); err != nil {
		t.Fatalf("compileScene failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Output.Dir, "room.proc")); err != nil {
		t.Errorf("expected proc in output dir: %v", err)
	}
}

func TestCompileScene_MissingFile(t *testing.T) {
	cfg := config.Default()
	if _, err := compileScene(context.Background(), cfg, filepath.Join(t.TempDir(), "none.yaml")); err == nil {
		t.Error("expected error for missing scene, got nil")
	}
}

func TestWriteConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Compile.NoShadows = true

	path := filepath.Join(t.TempDir(), "conf", "dmap.toml")
	got, err := writeConfig(cfg, path)
	if err != nil {
		t.Fatalf("writeConfig failed: %v", err)
	}
	if got != path {
		t.Errorf("expected %s, got %s", path, got)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected config at %s: %v", path, err)
	}
	if !strings.Contains(string(data), "[compile]") {
		t.Errorf("expected TOML tables, got %q", data)
	}
}

func TestWriteConfig_DefaultPath(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("config dir only follows XDG_CONFIG_HOME on linux")
	}
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)

	got, err := writeConfig(config.Default(), "")
	if err != nil {
		t.Fatalf("writeConfig failed: %v", err)
	}
	if want := filepath.Join(home, "dmap", "dmap.yaml"); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
	if _, err := os.Stat(got); err != nil {
		t.Errorf("expected config file: %v", err)
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
