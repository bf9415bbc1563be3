package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/davidbz/wayfinder/internal/domain"
	"github.com/davidbz/wayfinder/internal/engine"
	"github.com/davidbz/wayfinder/internal/ledger"
	"github.com/davidbz/wayfinder/internal/observability"
)

// Handler handles HTTP requests.
type Handler struct {
	engine  *engine.Engine
	metrics *ledger.Metrics
}

// NewHandler creates a new HTTP handler (DI constructor).
func NewHandler(eng *engine.Engine, metrics *ledger.Metrics) *Handler {
	return &Handler{
		engine:  eng,
		metrics: metrics,
	}
}

// requirementsRequest is the wire form of task requirements.
type requirementsRequest struct {
	Category                string   `json:"category"`
	Complexity              string   `json:"complexity"`
	ContextSizeTokens       int      `json:"context_size_tokens"`
	CreativityRequired      bool     `json:"creativity_required"`
	SpeedPriority           bool     `json:"speed_priority"`
	CostPriority            bool     `json:"cost_priority"`
	AccuracyPriority        bool     `json:"accuracy_priority"`
	BudgetCeilingPerMillion *float64 `json:"budget_ceiling_per_million,omitempty"`
}

func (r *requirementsRequest) toRequirements() (*domain.TaskRequirements, error) {
	tier, err := domain.ParseComplexityTier(r.Complexity)
	if err != nil {
		return nil, err
	}

	return &domain.TaskRequirements{
		Category:                r.Category,
		Complexity:              tier,
		ContextSizeTokens:       r.ContextSizeTokens,
		CreativityRequired:      r.CreativityRequired,
		SpeedPriority:           r.SpeedPriority,
		CostPriority:            r.CostPriority,
		AccuracyPriority:        r.AccuracyPriority,
		BudgetCeilingPerMillion: r.BudgetCeilingPerMillion,
	}, nil
}

// HandleRoute resolves task requirements to a backend without invoking it.
func (h *Handler) HandleRoute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req requirementsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	requirements, err := req.toRequirements()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx = observability.WithCategory(ctx, requirements.Category)
	logger := observability.FromContext(ctx)

	decision, err := h.engine.Route(ctx, requirements)
	if err != nil {
		logger.Error("routing failed", observability.Error(err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	logger.Info("routing decision",
		observability.String("backend", decision.BackendID),
		observability.Bool("fallback_used", decision.FallbackUsed),
	)

	writeJSON(w, decision)
}

// generateRequest is the wire form of an end-to-end generation request.
type generateRequest struct {
	Requirements requirementsRequest `json:"requirements"`
	Prompt       string              `json:"prompt"`
	MaxTokens    int                 `json:"max_tokens,omitempty"`
	Batch        bool                `json:"batch,omitempty"`
}

// HandleGenerate routes, invokes the selected backend and records usage.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	requirements, err := req.Requirements.toRequirements()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx = observability.WithCategory(ctx, requirements.Category)
	logger := observability.FromContext(ctx)

	response, err := h.engine.Generate(ctx, &engine.GenerateRequest{
		Requirements: *requirements,
		Prompt:       req.Prompt,
		MaxTokens:    req.MaxTokens,
		Batch:        req.Batch,
	})
	if err != nil {
		logger.Error("generation failed", observability.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, response)
}

// HandleUsage returns the aggregated usage report.
func (h *Handler) HandleUsage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, h.engine.UsageReport())
}

// HandleHealth handles health check requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "healthy"})
}

// MetricsHandler exposes the Prometheus collectors.
func (h *Handler) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(h.metrics.Registry(), promhttp.HandlerOpts{})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers already written, nothing left to report to the client.
		return
	}
}
