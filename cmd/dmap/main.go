// dmap compiles scene descriptions into .proc render geometry.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/Faultbox/dmap/internal/config"
	"github.com/Faultbox/dmap/internal/dmap"
	"github.com/Faultbox/dmap/internal/logger"
	"github.com/Faultbox/dmap/pkg/bsp"
	"github.com/Faultbox/dmap/pkg/formats"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "compile", "c":
		os.Exit(cmdCompile(args))
	case "watch", "w":
		os.Exit(cmdWatch(args))
	case "config":
		os.Exit(cmdConfig(args))
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`dmap - level geometry compiler

Usage:
  dmap <command> [options] <scene.yaml>

Commands:
  compile <scene.yaml>   Compile a scene to .proc (writes .lin on a leak)
  watch <scene.yaml>     Recompile whenever the scene file changes
  config [file]          Write the effective config (default: user config dir)
  help                   Show this help

Options:
  -config <file>    Config file (.yaml or .toml)
  -o <file>         Output .proc path
  -noopt            Skip the surface optimizer
  -notjunc          Skip the global T-junction fix
  -noflood          Skip the outside flood and leak check
  -noshadows        Skip prelight shadow volumes
  -nolightcarve     Do not split surfaces by light
  -blocksize <n>    Forced axial split size (0 disables)
  -debug            Enable debug logging
  -logfile <file>   Also log to a rotating file

Examples:
  dmap compile maps/test_box.yaml
  dmap compile -noopt -o /tmp/box.proc maps/test_box.yaml
  dmap watch -config dmap.toml maps/test_box.yaml
  dmap config -noshadows dmap.toml`)
}

// setup parses the shared flags and initializes config and logging.
func setup(name string, args []string) (*config.Config, string, bool) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	config.RegisterFlags(fs)
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: dmap %s [options] <scene.yaml>\n", name)
		return nil, "", false
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return nil, "", false
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return nil, "", false
	}
	return cfg, fs.Arg(0), true
}

func cmdConfig(args []string) int {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	config.RegisterFlags(fs)
	fs.Parse(args)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	path, err := writeConfig(cfg, fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Printf("Wrote %s\n", path)
	return 0
}

// writeConfig saves cfg to path, or to the user's config directory when path
// is empty. It returns the path written.
func writeConfig(cfg *config.Config, path string) (string, error) {
	if path == "" {
		return config.DefaultPath(), cfg.Save()
	}
	return path, cfg.SaveTo(path)
}

func cmdCompile(args []string) int {
	cfg, scenePath, ok := setup("compile", args)
	if !ok {
		return 1
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if _, err := compileScene(ctx, cfg, scenePath); err != nil {
		logger.Error("compile failed", zap.String("scene", scenePath), zap.Error(err))
		return 1
	}
	return 0
}

// compileScene compiles the scene at scenePath and writes its outputs. On a
// leak only the .lin file is written and the leak error is returned.
func compileScene(ctx context.Context, cfg *config.Config, scenePath string) (*dmap.Result, error) {
	defer logger.Stage("compile", zap.String("scene", scenePath))()

	s, err := formats.LoadScene(scenePath)
	if err != nil {
		return nil, err
	}

	res, err := dmap.Compile(ctx, s, cfg.Compile, logger.Log)
	if errors.Is(err, bsp.ErrLeak) || errors.Is(err, bsp.ErrNoEntitiesInOpen) {
		linPath := cfg.Output.LinPath(scenePath)
		if werr := formats.SaveLin(linPath, res.Leak); werr != nil {
			return res, werr
		}
		logger.Warn("leak trace written", zap.String("path", linPath), zap.Int("points", len(res.Leak.Points)))
		return res, err
	}
	if err != nil {
		return nil, err
	}

	procPath := cfg.Output.ProcPath(scenePath)
	if err := formats.SaveProc(procPath, res.File); err != nil {
		return res, err
	}

	// A stale leak trace from an earlier run no longer applies.
	linPath := cfg.Output.LinPath(scenePath)
	if err := os.Remove(linPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("could not remove stale leak file", zap.String("path", linPath), zap.Error(err))
	}

	logger.Info("wrote proc file",
		zap.String("path", procPath),
		zap.Int("models", len(res.File.Models)),
		zap.Int("areas", res.Stats.Areas),
		zap.Int("portals", res.Stats.Portals),
		zap.Int("nodes", len(res.File.Nodes)),
		zap.Int("shadowModels", res.Stats.ShadowModels))
	return res, nil
}
