// Package catalog implements the backend registry. The registry is
// read-mostly after startup; registration and hot reload swap a
// copy-on-write snapshot so readers never observe a partial set.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/davidbz/wayfinder/internal/domain"
)

// Catalog implements domain.BackendCatalog.
type Catalog struct {
	mu        sync.RWMutex
	snapshot  map[string]domain.BackendDescriptor
	sortedIDs []string
}

// NewCatalog creates an empty backend catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		snapshot: make(map[string]domain.BackendDescriptor),
	}
}

// Register adds or replaces a descriptor by id. Registering the same id
// twice is idempotent (the latest descriptor wins). An invalid
// descriptor is rejected and the catalog is left unchanged.
func (c *Catalog) Register(_ context.Context, descriptor domain.BackendDescriptor) error {
	if err := descriptor.Validate(); err != nil {
		return fmt.Errorf("invalid descriptor: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	next := make(map[string]domain.BackendDescriptor, len(c.snapshot)+1)
	for id, d := range c.snapshot {
		next[id] = d
	}
	next[descriptor.ID] = descriptor

	c.snapshot = next
	c.sortedIDs = sortedKeys(next)
	return nil
}

// Replace atomically swaps the full descriptor set. Duplicate ids within
// the batch are rejected, leaving the previous set in place.
func (c *Catalog) Replace(_ context.Context, descriptors []domain.BackendDescriptor) error {
	next := make(map[string]domain.BackendDescriptor, len(descriptors))
	for _, d := range descriptors {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("invalid descriptor: %w", err)
		}
		if _, exists := next[d.ID]; exists {
			return fmt.Errorf("duplicate backend id: %s", d.ID)
		}
		next[d.ID] = d
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.snapshot = next
	c.sortedIDs = sortedKeys(next)
	return nil
}

// CandidatesFor returns every descriptor whose context window covers the
// requirements' context size. An empty slice means no backend qualifies;
// the router decides how to react.
func (c *Catalog) CandidatesFor(_ context.Context, requirements *domain.TaskRequirements) []domain.BackendDescriptor {
	if requirements == nil {
		return nil
	}

	c.mu.RLock()
	snapshot := c.snapshot
	ids := c.sortedIDs
	c.mu.RUnlock()

	candidates := make([]domain.BackendDescriptor, 0, len(ids))
	for _, id := range ids {
		d := snapshot[id]
		if d.MaxContextTokens >= requirements.ContextSizeTokens {
			candidates = append(candidates, d)
		}
	}
	return candidates
}

// Get retrieves a descriptor by id.
func (c *Catalog) Get(_ context.Context, id string) (domain.BackendDescriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	d, ok := c.snapshot[id]
	return d, ok
}

// List returns all registered descriptors in id order.
func (c *Catalog) List(_ context.Context) []domain.BackendDescriptor {
	c.mu.RLock()
	snapshot := c.snapshot
	ids := c.sortedIDs
	c.mu.RUnlock()

	all := make([]domain.BackendDescriptor, 0, len(ids))
	for _, id := range ids {
		all = append(all, snapshot[id])
	}
	return all
}

// Len returns the number of registered descriptors.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.snapshot)
}

func sortedKeys(m map[string]domain.BackendDescriptor) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
