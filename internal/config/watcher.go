package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/davidbz/wayfinder/internal/domain"
	"github.com/davidbz/wayfinder/internal/observability"
)

// CatalogWatcher reloads the backends file on change and atomically
// replaces the catalog's descriptor set. A reload that fails validation
// keeps the previous set in place.
type CatalogWatcher struct {
	path    string
	catalog domain.BackendCatalog
	watcher *fsnotify.Watcher
}

// NewCatalogWatcher creates a watcher for the backends file.
func NewCatalogWatcher(path string, cat domain.BackendCatalog) (*CatalogWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Watch the directory: editors replace files on save, which drops
	// watches registered on the file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}

	return &CatalogWatcher{
		path:    path,
		catalog: cat,
		watcher: watcher,
	}, nil
}

// Start watches for changes until the context is cancelled.
func (w *CatalogWatcher) Start(ctx context.Context) {
	logger := observability.FromContext(ctx)
	logger.Info("watching backends file", observability.String("path", w.path))

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if filepath.Clean(event.Name) != filepath.Clean(w.path) {
					continue
				}
				w.reload(ctx)
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("backends file watcher error", observability.Error(err))
			}
		}
	}()
}

func (w *CatalogWatcher) reload(ctx context.Context) {
	logger := observability.FromContext(ctx)

	descriptors, err := LoadBackends(w.path)
	if err != nil {
		logger.Warn("backends reload rejected, keeping previous set",
			observability.String("path", w.path),
			observability.Error(err))
		return
	}

	if err := w.catalog.Replace(ctx, descriptors); err != nil {
		logger.Warn("backends replace rejected, keeping previous set",
			observability.Error(err))
		return
	}

	logger.Info("backends reloaded",
		observability.Int("backends", len(descriptors)))
}

// Close stops the underlying file watcher.
func (w *CatalogWatcher) Close() error {
	return w.watcher.Close()
}
