package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sambeau/itlang/pkg/itlang/itlang"
)

// scriptWatcher re-runs one script whenever it is written
type scriptWatcher struct {
	watcher  *fsnotify.Watcher
	path     string
	interp   *itlang.Interpreter
	debounce time.Duration
	stdout   io.Writer
	stderr   io.Writer
	log      *slog.Logger
}

// watchScript runs path, then runs it again after every change until ctx
// is done. Each run starts from a fresh global scope; unchanged content
// reuses the previous scan.
func watchScript(ctx context.Context, path string, interp *itlang.Interpreter, debounce time.Duration, stdout, stderr io.Writer, logger *slog.Logger) (int, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return 1, err
	}
	defer fsWatcher.Close()

	w := &scriptWatcher{
		watcher:  fsWatcher,
		path:     filepath.Clean(path),
		interp:   interp,
		debounce: debounce,
		stdout:   stdout,
		stderr:   stderr,
		log:      logger,
	}

	// Editors often replace the file, so watch its directory
	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return 1, fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.log.Info("watching script", slog.String("file", w.path))

	w.runOnce()
	w.eventLoop(ctx)
	return 0, nil
}

// eventLoop processes file system events. A run starts once the script
// has been quiet for the debounce period, so a truncate followed by a
// write produces one run.
func (w *scriptWatcher) eventLoop(ctx context.Context) {
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			w.log.Debug("script changed", slog.String("file", w.path), slog.String("op", event.Op.String()))
			pending = time.After(w.debounce)

		case <-pending:
			pending = nil
			w.runOnce()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error("watcher error", slog.Any("error", err))
		}
	}
}

// runOnce runs the script in a fresh global scope and reports the outcome
func (w *scriptWatcher) runOnce() {
	w.interp.Reset()

	code, stopped := runFile(w.path, w.interp, w.stdout, w.stderr)
	if stopped && code != 0 {
		fmt.Fprintf(w.stderr, "[watch] %s stopped with status %d\n", w.path, code)
	}
}
