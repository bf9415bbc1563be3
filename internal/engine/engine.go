// Package engine composes routing, handle caching and usage telemetry
// into the request path the HTTP layer exposes.
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/davidbz/wayfinder/internal/domain"
	"github.com/davidbz/wayfinder/internal/instance"
	"github.com/davidbz/wayfinder/internal/ledger"
	"github.com/davidbz/wayfinder/internal/observability"
)

// Engine orchestrates route -> handle -> invoke -> record.
type Engine struct {
	router    domain.Router
	catalog   domain.BackendCatalog
	cache     *instance.Cache
	estimator domain.CostEstimator
	usage     *ledger.Ledger
}

// NewEngine creates the engine service (DI constructor).
func NewEngine(
	router domain.Router,
	catalog domain.BackendCatalog,
	cache *instance.Cache,
	estimator domain.CostEstimator,
	usage *ledger.Ledger,
) *Engine {
	return &Engine{
		router:    router,
		catalog:   catalog,
		cache:     cache,
		estimator: estimator,
		usage:     usage,
	}
}

// Route resolves requirements to a backend without invoking it.
func (e *Engine) Route(ctx context.Context, requirements *domain.TaskRequirements) (*domain.RoutingDecision, error) {
	return e.router.Route(ctx, requirements)
}

// GenerateRequest is one end-to-end generation request.
type GenerateRequest struct {
	Requirements domain.TaskRequirements
	Prompt       string
	MaxTokens    int
	Batch        bool
}

// GenerateResponse carries the routing decision alongside the output.
type GenerateResponse struct {
	Decision     domain.RoutingDecision `json:"decision"`
	Content      string                 `json:"content"`
	InputTokens  int                    `json:"input_tokens"`
	OutputTokens int                    `json:"output_tokens"`
	CostUSD      float64                `json:"cost_usd"`
}

// Generate routes the request, invokes the selected backend and records
// the outcome into the usage ledger.
func (e *Engine) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}
	if req.Prompt == "" {
		return nil, errors.New("prompt cannot be empty")
	}

	decision, err := e.router.Route(ctx, &req.Requirements)
	if err != nil {
		return nil, fmt.Errorf("routing failed: %w", err)
	}

	ctx = observability.WithBackend(ctx, decision.BackendID)
	ctx = observability.WithCategory(ctx, req.Requirements.Category)
	logger := observability.FromContext(ctx)

	logger.Info("backend selected",
		observability.Float64("suitability_score", decision.SuitabilityScore),
		observability.Float64("estimated_cost_usd", decision.EstimatedCostUSD),
		observability.Bool("fallback_used", decision.FallbackUsed),
		observability.String("reason", decision.Reason),
	)

	handle, err := e.cache.GetOrCreate(ctx, decision.BackendID)
	if err != nil {
		return nil, fmt.Errorf("backend unavailable: %w", err)
	}

	result, err := handle.Generate(ctx, &domain.GenerateRequest{
		Prompt:    req.Prompt,
		MaxTokens: req.MaxTokens,
		Batch:     req.Batch,
	})
	if err != nil {
		e.usage.Record(ctx, decision.BackendID, req.Requirements.Category, 0, 0, false)
		return nil, fmt.Errorf("generation failed: %w", err)
	}

	cost := decision.EstimatedCostUSD
	if descriptor, ok := e.catalog.Get(ctx, decision.BackendID); ok {
		cost = e.estimator.Estimate(&descriptor, result.InputTokens, result.OutputTokens, req.Batch)
	}

	e.usage.Record(ctx, decision.BackendID, req.Requirements.Category, result.TotalTokens(), cost, true)

	logger.Info("generation succeeded",
		observability.Int("total_tokens", result.TotalTokens()),
		observability.Float64("cost_usd", cost),
	)

	return &GenerateResponse{
		Decision:     *decision,
		Content:      result.Content,
		InputTokens:  result.InputTokens,
		OutputTokens: result.OutputTokens,
		CostUSD:      cost,
	}, nil
}

// UsageReport aggregates the ledger for the reporting surface.
func (e *Engine) UsageReport() *ledger.Summary {
	return e.usage.Report()
}

// Shutdown drains cached backend handles.
func (e *Engine) Shutdown(ctx context.Context) error {
	if err := e.cache.Drain(ctx); err != nil {
		return fmt.Errorf("failed to drain handle cache: %w", err)
	}
	return nil
}
