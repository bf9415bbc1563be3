// Package routing orchestrates catalog lookup, suitability scoring and
// the fallback policy to resolve task requirements to a single backend.
package routing

import (
	"context"
	"errors"
	"fmt"

	"github.com/davidbz/wayfinder/internal/domain"
	"github.com/davidbz/wayfinder/internal/observability"
	"github.com/davidbz/wayfinder/internal/scoring"
)

const (
	// expertPerformanceFloor is the hard minimum performance score for
	// expert-tier tasks. It is enforced as exclusion, not weighting.
	expertPerformanceFloor = 0.9

	// assumedOutputTokens is the flat output estimate used when the
	// true response length is unknown at routing time.
	assumedOutputTokens = 1000
)

// Config holds router settings.
type Config struct {
	// DefaultBackendID is the designated last-resort backend returned
	// when even the relaxed candidate set is empty.
	DefaultBackendID string
}

// SelectionRouter implements domain.Router. Routing is pure computation
// over the catalog snapshot: identical requirements against an unchanged
// catalog always yield an identical decision.
type SelectionRouter struct {
	catalog        domain.BackendCatalog
	scorer         *scoring.WeightedScorer
	estimator      domain.CostEstimator
	defaultBackend string
}

// NewRouter creates a router.
func NewRouter(
	cfg Config,
	cat domain.BackendCatalog,
	scorer *scoring.WeightedScorer,
	estimator domain.CostEstimator,
) (*SelectionRouter, error) {
	if cat == nil {
		return nil, errors.New("catalog cannot be nil")
	}
	if scorer == nil {
		return nil, errors.New("scorer cannot be nil")
	}
	if estimator == nil {
		return nil, errors.New("estimator cannot be nil")
	}
	if cfg.DefaultBackendID == "" {
		return nil, errors.New("default backend id is required")
	}

	return &SelectionRouter{
		catalog:        cat,
		scorer:         scorer,
		estimator:      estimator,
		defaultBackend: cfg.DefaultBackendID,
	}, nil
}

// Route selects a backend for the requirements. A request is never
// rejected for lack of a suitable backend: the strict filters are
// relaxed first, and the configured default backend is the last resort.
// The only errors are nil or invalid requirements.
func (r *SelectionRouter) Route(ctx context.Context, requirements *domain.TaskRequirements) (*domain.RoutingDecision, error) {
	if requirements == nil {
		return nil, errors.New("requirements cannot be nil")
	}
	if err := requirements.Validate(); err != nil {
		return nil, fmt.Errorf("invalid requirements: %w", err)
	}

	logger := observability.FromContext(ctx)

	candidates := r.catalog.CandidatesFor(ctx, requirements)
	strict := applyStrictFilters(candidates, requirements)

	if len(strict) > 0 {
		ranked := r.scorer.Rank(strict, requirements)
		top := ranked[0]
		return r.decision(top, requirements, false, "selected by suitability score"), nil
	}

	// Fallback: drop the expert floor and budget ceiling, keeping only
	// the context-size floor, and take the best-effort winner.
	if len(candidates) > 0 {
		ranked := r.scorer.Rank(candidates, requirements)
		top := ranked[0]

		logger.Warn("no backend satisfies strict filters, constraints relaxed",
			observability.String("category", requirements.Category),
			observability.String("backend", top.Descriptor.ID),
		)
		return r.decision(top, requirements, true, "strict filters relaxed: no candidate met expert floor or budget ceiling"), nil
	}

	// Last resort: the designated default backend.
	logger.Warn("no backend satisfies context floor, using default backend",
		observability.String("category", requirements.Category),
		observability.Int("context_size_tokens", requirements.ContextSizeTokens),
		observability.String("backend", r.defaultBackend),
	)

	decision := &domain.RoutingDecision{
		BackendID:    r.defaultBackend,
		FallbackUsed: true,
		Reason:       fmt.Sprintf("no candidate supports context size %d, using default backend", requirements.ContextSizeTokens),
	}
	if d, ok := r.catalog.Get(ctx, r.defaultBackend); ok {
		decision.SuitabilityScore = r.scorer.Score(&d, requirements)
		decision.EstimatedCostUSD = r.estimator.Estimate(&d, requirements.ContextSizeTokens, assumedOutputTokens, false)
	}
	return decision, nil
}

func (r *SelectionRouter) decision(
	top scoring.RankedBackend,
	requirements *domain.TaskRequirements,
	fallback bool,
	reason string,
) *domain.RoutingDecision {
	return &domain.RoutingDecision{
		BackendID:        top.Descriptor.ID,
		EstimatedCostUSD: r.estimator.Estimate(&top.Descriptor, requirements.ContextSizeTokens, assumedOutputTokens, false),
		SuitabilityScore: top.Score,
		FallbackUsed:     fallback,
		Reason:           reason,
	}
}

// applyStrictFilters enforces the expert performance floor and the
// budget ceiling on top of the context-size floor.
func applyStrictFilters(candidates []domain.BackendDescriptor, requirements *domain.TaskRequirements) []domain.BackendDescriptor {
	filtered := make([]domain.BackendDescriptor, 0, len(candidates))
	for _, d := range candidates {
		if requirements.Complexity == domain.TierExpert && d.PerformanceScore < expertPerformanceFloor {
			continue
		}
		if requirements.BudgetCeilingPerMillion != nil && d.Cost.Blended() > *requirements.BudgetCeilingPerMillion {
			continue
		}
		filtered = append(filtered, d)
	}
	return filtered
}
