package policy

import (
	"context"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
)

// FileWatcher polls the policy file and reloads the store when it changes
type FileWatcher struct {
	path     string
	interval time.Duration
	store    *Store

	lastModTime time.Time
}

// NewFileWatcher creates a watcher for path
func NewFileWatcher(path string, interval time.Duration, store *Store) *FileWatcher {
	return &FileWatcher{
		path:     path,
		interval: interval,
		store:    store,
	}
}

// Start polls in a goroutine until ctx is cancelled
func (w *FileWatcher) Start(ctx context.Context) {
	if fi, err := os.Stat(w.path); err == nil {
		w.lastModTime = fi.ModTime()
	}

	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		log.WithFields(log.Fields{
			"path":     w.path,
			"interval": w.interval,
		}).Info("Policy file watcher started")

		for {
			select {
			case <-ctx.Done():
				log.Info("Policy file watcher stopped")
				return
			case <-ticker.C:
				w.poll(ctx)
			}
		}
	}()
}

// poll reloads the file if its modification time moved forward
func (w *FileWatcher) poll(ctx context.Context) bool {
	fi, err := os.Stat(w.path)
	if err != nil {
		log.WithError(err).WithField("path", w.path).Warn("Policy file not readable, keeping current policy")
		return false
	}
	if !fi.ModTime().After(w.lastModTime) {
		return false
	}
	w.lastModTime = fi.ModTime()

	if err := w.store.ReloadFile(ctx, w.path); err != nil {
		log.WithError(err).WithField("path", w.path).Error("Failed to reload policy, keeping current policy")
		return false
	}
	return true
}
