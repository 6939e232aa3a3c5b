package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/dmap/internal/config"
	"github.com/Faultbox/dmap/internal/logger"
)

// settleDelay lets editors finish writing before a recompile starts.
const settleDelay = 200 * time.Millisecond

func cmdWatch(args []string) int {
	cfg, scenePath, ok := setup("watch", args)
	if !ok {
		return 1
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := watchScene(ctx, cfg, scenePath); err != nil {
		logger.Error("watch failed", zap.String("scene", scenePath), zap.Error(err))
		return 1
	}
	return 0
}

// watchScene compiles the scene once, then again after every change to it,
// until ctx is done. Compiles never overlap.
func watchScene(ctx context.Context, cfg *config.Config, scenePath string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// Watch the directory, editors often replace the file instead of
	// writing it in place.
	abs, err := filepath.Abs(scenePath)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	recompile := func() {
		if _, err := compileScene(ctx, cfg, scenePath); err != nil {
			logger.Error("compile failed", zap.String("scene", scenePath), zap.Error(err))
		}
	}
	recompile()
	logger.Info("watching for changes", zap.String("scene", scenePath))

	timer := time.NewTimer(settleDelay)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil

		case e, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(e.Name) != abs {
				continue
			}
			if e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				timer.Reset(settleDelay)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", zap.Error(err))

		case <-timer.C:
			logger.Debug("scene changed", zap.String("scene", scenePath))
			recompile()
		}
	}
}
