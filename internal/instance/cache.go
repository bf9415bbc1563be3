// Package instance owns lazily-constructed, reusable backend handles.
// Construction is single-flight per backend id: concurrent first access
// never builds more than one handle, and a failed construction does not
// poison the key.
package instance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/multierr"
	"golang.org/x/sync/singleflight"

	"github.com/davidbz/wayfinder/internal/domain"
	"github.com/davidbz/wayfinder/internal/observability"
)

// Cache implements handle caching with single-flight construction.
type Cache struct {
	factory domain.BackendFactory
	group   singleflight.Group

	mu      sync.RWMutex
	handles map[string]domain.Handle
}

// NewCache creates a handle cache backed by the given factory.
func NewCache(factory domain.BackendFactory) *Cache {
	return &Cache{
		factory: factory,
		handles: make(map[string]domain.Handle),
	}
}

// GetOrCreate returns the cached handle for the backend id, constructing
// it via the factory on first access. Construction failures propagate to
// the caller unchanged and are retryable on the next call.
func (c *Cache) GetOrCreate(ctx context.Context, backendID string) (domain.Handle, error) {
	if backendID == "" {
		return nil, errors.New("backend id cannot be empty")
	}

	c.mu.RLock()
	handle, ok := c.handles[backendID]
	c.mu.RUnlock()
	if ok {
		return handle, nil
	}

	result, err, _ := c.group.Do(backendID, func() (interface{}, error) {
		// Re-check under the flight: another call may have stored the
		// handle between the fast path and Do.
		c.mu.RLock()
		existing, found := c.handles[backendID]
		c.mu.RUnlock()
		if found {
			return existing, nil
		}

		created, createErr := c.factory.Create(ctx, backendID)
		if createErr != nil {
			return nil, fmt.Errorf("backend construction failed for %s: %w", backendID, createErr)
		}

		c.mu.Lock()
		c.handles[backendID] = created
		c.mu.Unlock()

		observability.FromContext(ctx).Info("backend handle created",
			observability.String("backend", backendID))
		return created, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(domain.Handle), nil
}

// Len returns the number of cached handles.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.handles)
}

// Drain closes every cached handle that supports closing and empties the
// cache. Called once at process shutdown.
func (c *Cache) Drain(ctx context.Context) error {
	c.mu.Lock()
	handles := c.handles
	c.handles = make(map[string]domain.Handle)
	c.mu.Unlock()

	logger := observability.FromContext(ctx)

	var errs error
	for id, handle := range handles {
		closer, ok := handle.(io.Closer)
		if !ok {
			continue
		}
		if err := closer.Close(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("closing handle %s: %w", id, err))
			continue
		}
		logger.Info("backend handle closed", observability.String("backend", id))
	}
	return errs
}
