// Package backend dispatches handle construction to provider-specific
// builders. Backend ids follow the "provider/model" convention, so the
// id prefix selects the builder and the suffix names the model.
package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/davidbz/wayfinder/internal/domain"
)

// Builder constructs a handle for one model of a provider.
type Builder func(ctx context.Context, backendID, model string) (domain.Handle, error)

// Factory implements domain.BackendFactory by provider dispatch.
type Factory struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewFactory creates an empty factory.
func NewFactory() *Factory {
	return &Factory{
		builders: make(map[string]Builder),
	}
}

// RegisterBuilder adds or replaces the builder for a provider prefix.
func (f *Factory) RegisterBuilder(provider string, builder Builder) error {
	if provider == "" {
		return errors.New("provider cannot be empty")
	}
	if builder == nil {
		return errors.New("builder cannot be nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.builders[provider] = builder
	return nil
}

// Create builds a handle for the backend id.
func (f *Factory) Create(ctx context.Context, backendID string) (domain.Handle, error) {
	provider, model, err := SplitBackendID(backendID)
	if err != nil {
		return nil, err
	}

	f.mu.RLock()
	builder, ok := f.builders[provider]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: no builder for provider %s", domain.ErrUnknownBackend, provider)
	}

	return builder(ctx, backendID, model)
}

// Providers returns the registered provider prefixes.
func (f *Factory) Providers() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	providers := make([]string, 0, len(f.builders))
	for p := range f.builders {
		providers = append(providers, p)
	}
	return providers
}

// SplitBackendID splits a "provider/model" backend id.
func SplitBackendID(backendID string) (provider, model string, err error) {
	provider, model, found := strings.Cut(backendID, "/")
	if !found || provider == "" || model == "" {
		return "", "", fmt.Errorf("backend id must be provider/model, got %q", backendID)
	}
	return provider, model, nil
}
