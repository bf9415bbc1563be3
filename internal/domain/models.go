package domain

import (
	"errors"
	"fmt"
	"time"
)

// Capability is a declared backend ability drawn from a fixed vocabulary.
type Capability string

const (
	// CapComplexReasoning marks backends suited for multi-step reasoning.
	CapComplexReasoning Capability = "complex-reasoning"

	// CapStructuredOutput marks backends that reliably emit structured data.
	CapStructuredOutput Capability = "structured-output"

	// CapCreativeDesign marks backends suited for creative generation.
	CapCreativeDesign Capability = "creative-design"

	// CapFastResponse marks low-latency backends.
	CapFastResponse Capability = "fast-response"

	// CapCostEffective marks low-cost backends.
	CapCostEffective Capability = "cost-effective"

	// CapLargeContext marks backends with large context windows.
	CapLargeContext Capability = "large-context"
)

// knownCapabilities is the closed capability vocabulary.
var knownCapabilities = map[Capability]struct{}{
	CapComplexReasoning: {},
	CapStructuredOutput: {},
	CapCreativeDesign:   {},
	CapFastResponse:     {},
	CapCostEffective:    {},
	CapLargeContext:     {},
}

// ParseCapability validates a capability tag against the closed vocabulary.
func ParseCapability(s string) (Capability, error) {
	c := Capability(s)
	if _, ok := knownCapabilities[c]; !ok {
		return "", fmt.Errorf("unknown capability: %s", s)
	}
	return c, nil
}

// ComplexityTier is the ordinal difficulty of a task.
type ComplexityTier int

const (
	// TierLow covers trivial lookups and formatting tasks.
	TierLow ComplexityTier = iota

	// TierMedium covers routine generation tasks.
	TierMedium

	// TierHigh covers tasks needing multi-step reasoning.
	TierHigh

	// TierExpert covers tasks that demand the strongest available backend.
	TierExpert
)

// String returns the tier's wire identifier.
func (t ComplexityTier) String() string {
	switch t {
	case TierLow:
		return "low"
	case TierMedium:
		return "medium"
	case TierHigh:
		return "high"
	case TierExpert:
		return "expert"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// ParseComplexityTier parses a tier from its wire identifier.
func ParseComplexityTier(s string) (ComplexityTier, error) {
	switch s {
	case "low", "":
		return TierLow, nil
	case "medium":
		return TierMedium, nil
	case "high":
		return TierHigh, nil
	case "expert":
		return TierExpert, nil
	default:
		return TierLow, fmt.Errorf("unknown complexity tier: %s", s)
	}
}

// TokenCost holds per-million-token pricing for a backend.
type TokenCost struct {
	InputPerMillion  float64 `json:"input_per_million"  yaml:"input_per_million"`
	OutputPerMillion float64 `json:"output_per_million" yaml:"output_per_million"`
}

// Blended returns a single per-million-token cost combining input and
// output pricing, used for budget filtering and cost-aware scoring.
func (c TokenCost) Blended() float64 {
	return (c.InputPerMillion + c.OutputPerMillion) / 2
}

// BackendDescriptor declares a routable backend and its static properties.
// Descriptors are registered once at startup (or on config reload) and are
// read-only thereafter.
type BackendDescriptor struct {
	ID                    string       `json:"id"`
	Cost                  TokenCost    `json:"cost"`
	MaxContextTokens      int          `json:"max_context_tokens"`
	Capabilities          []Capability `json:"capabilities"`
	BestForCategories     []string     `json:"best_for_categories,omitempty"`
	PerformanceScore      float64      `json:"performance_score"`
	SupportsBatchDiscount bool         `json:"supports_batch_discount,omitempty"`
}

// HasCapability reports whether the descriptor declares the capability.
func (d *BackendDescriptor) HasCapability(c Capability) bool {
	for _, have := range d.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

// RecommendedFor reports whether the descriptor is preferentially
// recommended for the task category.
func (d *BackendDescriptor) RecommendedFor(category string) bool {
	for _, c := range d.BestForCategories {
		if c == category {
			return true
		}
	}
	return false
}

// Validate checks the descriptor invariants.
func (d *BackendDescriptor) Validate() error {
	if d.ID == "" {
		return errors.New("backend id cannot be empty")
	}
	if d.Cost.InputPerMillion < 0 || d.Cost.OutputPerMillion < 0 {
		return fmt.Errorf("backend %s: cost cannot be negative", d.ID)
	}
	if d.PerformanceScore < 0 || d.PerformanceScore > 1 {
		return fmt.Errorf("backend %s: performance score must be in [0,1], got %v", d.ID, d.PerformanceScore)
	}
	if d.MaxContextTokens < 0 {
		return fmt.Errorf("backend %s: max context tokens cannot be negative", d.ID)
	}
	for _, c := range d.Capabilities {
		if _, err := ParseCapability(string(c)); err != nil {
			return fmt.Errorf("backend %s: %w", d.ID, err)
		}
	}
	return nil
}

// TaskRequirements describes a unit of work to route. It is constructed
// per request and never persisted.
type TaskRequirements struct {
	Category           string
	Complexity         ComplexityTier
	ContextSizeTokens  int
	CreativityRequired bool
	SpeedPriority      bool
	CostPriority       bool
	AccuracyPriority   bool

	// BudgetCeilingPerMillion, when set, excludes any backend whose
	// blended per-million-token cost exceeds it.
	BudgetCeilingPerMillion *float64
}

// Validate checks the requirements invariants.
func (r *TaskRequirements) Validate() error {
	if r.ContextSizeTokens < 0 {
		return errors.New("context size tokens cannot be negative")
	}
	if r.BudgetCeilingPerMillion != nil && *r.BudgetCeilingPerMillion < 0 {
		return errors.New("budget ceiling cannot be negative")
	}
	return nil
}

// RoutingDecision is the engine's output for a single routing request.
type RoutingDecision struct {
	BackendID        string  `json:"backend_id"`
	EstimatedCostUSD float64 `json:"estimated_cost_usd"`
	SuitabilityScore float64 `json:"suitability_score"`
	FallbackUsed     bool    `json:"fallback_used"`
	Reason           string  `json:"reason"`
}

// GenerateRequest is the input to a backend handle invocation.
type GenerateRequest struct {
	Prompt    string
	MaxTokens int
	Batch     bool
}

// GenerateResult is the output of a backend handle invocation.
type GenerateResult struct {
	Content      string
	InputTokens  int
	OutputTokens int
	FinishTime   time.Time
}

// TotalTokens returns combined input and output token usage.
func (r *GenerateResult) TotalTokens() int {
	return r.InputTokens + r.OutputTokens
}
