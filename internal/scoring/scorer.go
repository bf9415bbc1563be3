// Package scoring ranks backend descriptors against task requirements
// using a fixed weighted formula. The weights are configuration, not
// per-call parameters, so every call site biases decisions the same way.
package scoring

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/davidbz/wayfinder/internal/domain"
)

const (
	// costCeilingPerMillion is the assumed per-million-token cost at
	// which the cost term bottoms out.
	costCeilingPerMillion = 3.0

	// neutralCostTerm keeps cost-insensitive requests from zeroing out
	// the cost component entirely.
	neutralCostTerm = 0.1

	// largeContextThreshold is the context size above which the
	// large-context capability becomes mandatory.
	largeContextThreshold = 16000

	// scoreEpsilon is the window within which two scores tie.
	scoreEpsilon = 1e-6

	weightSumTolerance = 1e-9
)

// Weights configures the relative contribution of each scoring term.
// The weights must be non-negative and sum to 1.0.
type Weights struct {
	Performance     float64
	CapabilityMatch float64
	Cost            float64
	Speed           float64
}

// DefaultWeights returns the standard scoring weights.
func DefaultWeights() Weights {
	return Weights{
		Performance:     0.4,
		CapabilityMatch: 0.3,
		Cost:            0.2,
		Speed:           0.1,
	}
}

// Validate checks the weight invariants.
func (w Weights) Validate() error {
	if w.Performance < 0 || w.CapabilityMatch < 0 || w.Cost < 0 || w.Speed < 0 {
		return errors.New("weights cannot be negative")
	}

	sum := w.Performance + w.CapabilityMatch + w.Cost + w.Speed
	if math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("weights must sum to 1.0, got %v", sum)
	}
	return nil
}

// WeightedScorer implements domain.SuitabilityScorer.
type WeightedScorer struct {
	weights Weights
}

// NewScorer creates a scorer with the given weights.
func NewScorer(weights Weights) (*WeightedScorer, error) {
	if err := weights.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scoring weights: %w", err)
	}
	return &WeightedScorer{weights: weights}, nil
}

// Score returns the normalized suitability of a backend for the
// requirements, in [0,1].
func (s *WeightedScorer) Score(descriptor *domain.BackendDescriptor, requirements *domain.TaskRequirements) float64 {
	if descriptor == nil || requirements == nil {
		return 0
	}

	score := descriptor.PerformanceScore * s.weights.Performance
	score += s.capabilityTerm(descriptor, requirements) * s.weights.CapabilityMatch
	score += s.costTerm(descriptor, requirements) * s.weights.Cost
	score += s.speedTerm(descriptor, requirements) * s.weights.Speed

	return math.Min(1, math.Max(0, score))
}

// RequiredCapabilities derives the mandatory capability set from the
// requirements. Structured output is always implicitly required.
func RequiredCapabilities(requirements *domain.TaskRequirements) []domain.Capability {
	required := []domain.Capability{domain.CapStructuredOutput}

	if requirements.Complexity >= domain.TierHigh {
		required = append(required, domain.CapComplexReasoning)
	}
	if requirements.CreativityRequired {
		required = append(required, domain.CapCreativeDesign)
	}
	if requirements.SpeedPriority {
		required = append(required, domain.CapFastResponse)
	}
	if requirements.CostPriority {
		required = append(required, domain.CapCostEffective)
	}
	if requirements.ContextSizeTokens > largeContextThreshold {
		required = append(required, domain.CapLargeContext)
	}
	return required
}

func (s *WeightedScorer) capabilityTerm(descriptor *domain.BackendDescriptor, requirements *domain.TaskRequirements) float64 {
	required := RequiredCapabilities(requirements)
	if len(required) == 0 {
		return 1.0
	}

	matched := 0
	for _, c := range required {
		if descriptor.HasCapability(c) {
			matched++
		}
	}
	return float64(matched) / float64(len(required))
}

func (s *WeightedScorer) costTerm(descriptor *domain.BackendDescriptor, requirements *domain.TaskRequirements) float64 {
	if !requirements.CostPriority {
		return neutralCostTerm
	}
	return math.Max(0, 1-descriptor.Cost.Blended()/costCeilingPerMillion)
}

func (s *WeightedScorer) speedTerm(descriptor *domain.BackendDescriptor, requirements *domain.TaskRequirements) float64 {
	if requirements.SpeedPriority && descriptor.HasCapability(domain.CapFastResponse) {
		return 1.0
	}
	return 0
}

// RankedBackend pairs a descriptor with its suitability score.
type RankedBackend struct {
	Descriptor domain.BackendDescriptor
	Score      float64
}

// Rank scores all candidates and sorts them best-first. Scores within
// scoreEpsilon of each other tie; ties prefer the lower blended cost,
// then the lexicographically smaller id, so rankings are reproducible.
func (s *WeightedScorer) Rank(candidates []domain.BackendDescriptor, requirements *domain.TaskRequirements) []RankedBackend {
	ranked := make([]RankedBackend, 0, len(candidates))
	for i := range candidates {
		ranked = append(ranked, RankedBackend{
			Descriptor: candidates[i],
			Score:      s.Score(&candidates[i], requirements),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return betterRanked(ranked[i], ranked[j])
	})
	return ranked
}

func betterRanked(a, b RankedBackend) bool {
	if math.Abs(a.Score-b.Score) > scoreEpsilon {
		return a.Score > b.Score
	}

	costA, costB := a.Descriptor.Cost.Blended(), b.Descriptor.Cost.Blended()
	if costA != costB {
		return costA < costB
	}
	return a.Descriptor.ID < b.Descriptor.ID
}
