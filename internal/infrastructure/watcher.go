package infrastructure

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/Victor-armando18/cotizador-paneles/internal/interfaces"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// KnowledgeWatcher reloads the knowledge store when one of its files changes.
// Bursts of events inside the debounce window trigger a single reload.
type KnowledgeWatcher struct {
	paths    []string
	reloader interfaces.Reloader
	debounce time.Duration
	log      *zap.Logger
}

func NewKnowledgeWatcher(paths []string, reloader interfaces.Reloader, debounce time.Duration, log *zap.Logger) *KnowledgeWatcher {
	if log == nil {
		log = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &KnowledgeWatcher{paths: paths, reloader: reloader, debounce: debounce, log: log}
}

// Watch blocks until ctx is done. Directories are watched rather than files
// so editors that replace files on save are still seen.
func (w *KnowledgeWatcher) Watch(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	watched := map[string]bool{}
	files := map[string]bool{}
	for _, p := range w.paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		files[abs] = true
		dir := filepath.Dir(abs)
		if watched[dir] {
			continue
		}
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
		watched[dir] = true
	}

	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			abs, _ := filepath.Abs(ev.Name)
			if !files[abs] || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			w.log.Debug("knowledge file event", zap.String("file", ev.Name), zap.String("op", ev.Op.String()))
			fire = time.After(w.debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("knowledge watcher error", zap.Error(err))
		case <-fire:
			fire = nil
			if err := w.reloader.Reload(ctx); err != nil {
				w.log.Error("knowledge reload failed", zap.Error(err))
				continue
			}
			w.log.Info("knowledge reloaded after file change")
		}
	}
}
