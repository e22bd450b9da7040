package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/xplshn/gclean/pkg/config"
	"github.com/xplshn/gclean/pkg/util"
)

// settle absorbs the burst of events editors produce for a single save.
const settle = 100 * time.Millisecond

// watchAndLower lowers the inputs, then again after every change until
// interrupted. A change of the lowered unit is reported by fingerprint.
func watchAndLower(cfg *config.Config, inputFiles []string, outFile string, dump bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("unable to create watcher: %w", err)
	}
	defer watcher.Close()

	// directories survive editors that replace files on save
	watched := make(map[string]bool)
	inputs := make(map[string]bool)
	for _, path := range inputFiles {
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		inputs[abs] = true
		dir := filepath.Dir(abs)
		if watched[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("unable to watch '%s': %w", dir, err)
		}
		watched[dir] = true
	}

	var last uint64
	rerun := func() {
		fp, err := lowerOnce(cfg, inputFiles, outFile, dump)
		if err != nil {
			util.Report(err)
			return
		}
		if fp != last && last != 0 {
			util.Info("output changed (fingerprint %016x)", fp)
		}
		last = fp
	}
	rerun()

	var timer <-chan time.Time
	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			abs, _ := filepath.Abs(ev.Name)
			if !inputs[abs] || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timer = time.After(settle)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			util.Info("error whilst watching files: %v", err)
		case <-timer:
			timer = nil
			rerun()
		case <-ctx.Done():
			return nil
		}
	}
}
