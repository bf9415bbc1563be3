package domain

import "context"

// BackendCatalog is the registry of known backends.
type BackendCatalog interface {
	// Register adds or replaces a descriptor by id. Registration is
	// atomic: an invalid descriptor leaves the catalog unchanged.
	Register(ctx context.Context, descriptor BackendDescriptor) error

	// Replace atomically swaps the full descriptor set. Readers see
	// either the old or the new set, never a partial one.
	Replace(ctx context.Context, descriptors []BackendDescriptor) error

	// CandidatesFor returns all descriptors whose context window
	// satisfies the requirements' context-size floor. It never fails;
	// an empty slice means no backend qualifies.
	CandidatesFor(ctx context.Context, requirements *TaskRequirements) []BackendDescriptor

	// Get retrieves a descriptor by id.
	Get(ctx context.Context, id string) (BackendDescriptor, bool)

	// List returns all registered descriptors.
	List(ctx context.Context) []BackendDescriptor
}

// SuitabilityScorer ranks a backend against task requirements.
type SuitabilityScorer interface {
	// Score returns a normalized suitability value in [0,1].
	Score(descriptor *BackendDescriptor, requirements *TaskRequirements) float64
}

// CostEstimator projects the monetary cost of an invocation.
type CostEstimator interface {
	// Estimate returns the cost in USD for the given token counts.
	// Missing (negative) counts are treated as zero.
	Estimate(descriptor *BackendDescriptor, inputTokens, outputTokens int, batch bool) float64
}

// Router maps task requirements onto a concrete backend.
type Router interface {
	// Route selects a backend for the requirements. It degrades to a
	// fallback rather than failing when no backend satisfies the
	// strict filters; the only errors are invalid requirements.
	Route(ctx context.Context, requirements *TaskRequirements) (*RoutingDecision, error)
}

// Handle is a ready-to-use client for a specific backend.
type Handle interface {
	// Generate produces a completion for the request.
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error)

	// BackendID returns the backend identity this handle serves.
	BackendID() string
}

// BackendFactory constructs live handles for backend ids. It may perform
// network or credential setup; the instance cache guarantees it is
// invoked at most once per id for successful constructions.
type BackendFactory interface {
	Create(ctx context.Context, backendID string) (Handle, error)
}

// UsageRecorder accumulates per-backend, per-category usage telemetry.
type UsageRecorder interface {
	Record(ctx context.Context, backendID, category string, tokensUsed int, costUSD float64, success bool)
}
