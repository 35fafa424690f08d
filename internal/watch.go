package internal

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/gnolang/tclean/internal/options"
)

// watchDelay groups bursts of writes to one file into a single clean.
const watchDelay = 100 * time.Millisecond

// WatchHandler receives the outcome of cleaning a file after it changed.
// c is nil when the file is already clean.
type WatchHandler func(path string, c *Change, err error)

// Watch cleans every .go file under dirs whenever it is written, until ctx
// is done. Changes are passed to handle and never written by Watch itself.
func (e *Engine) Watch(ctx context.Context, o options.Options, dirs []string, handle WatchHandler) error {
	if err := e.CheckPreconditions(o).Err(); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	for _, dir := range dirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return watcher.Add(path)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("error adding directory to watcher: %w", err)
		}
	}

	s := e.NewSession(o)
	src := NewFileSource()
	pending := make(map[string]bool)
	timer := time.NewTimer(watchDelay)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !strings.HasSuffix(event.Name, ".go") {
				continue
			}
			if e.cache != nil {
				e.cache.Invalidate(event.Name)
			}
			pending[event.Name] = true
			timer.Reset(watchDelay)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			e.logger.Warn("watch error", zap.Error(err))
		case <-timer.C:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			clear(pending)
			for _, p := range paths {
				unit, err := src.Load(ctx, p)
				if err != nil {
					handle(p, nil, &UnitError{ID: p, Err: fmt.Errorf("%w: %w", ErrModelAccess, err)})
					continue
				}
				c, err := e.Clean(ctx, s, unit)
				if err != nil && ctx.Err() != nil {
					return nil
				}
				e.logger.Debug("cleaned after change", zap.String("unit", p), zap.Bool("changed", c != nil))
				handle(p, c, err)
			}
		}
	}
}
