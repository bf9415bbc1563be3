package scoring_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/wayfinder/internal/domain"
	"github.com/davidbz/wayfinder/internal/scoring"
)

func newScorer(t *testing.T) *scoring.WeightedScorer {
	t.Helper()

	scorer, err := scoring.NewScorer(scoring.DefaultWeights())
	require.NoError(t, err)
	return scorer
}

func TestWeights_Validate(t *testing.T) {
	tests := []struct {
		name        string
		weights     scoring.Weights
		expectError bool
	}{
		{
			name:        "default weights are valid",
			weights:     scoring.DefaultWeights(),
			expectError: false,
		},
		{
			name:        "weights not summing to one are rejected",
			weights:     scoring.Weights{Performance: 0.5, CapabilityMatch: 0.3, Cost: 0.3, Speed: 0.1},
			expectError: true,
		},
		{
			name:        "negative weight is rejected",
			weights:     scoring.Weights{Performance: 1.2, CapabilityMatch: -0.2, Cost: 0, Speed: 0},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.weights.Validate()
			if tt.expectError {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestRequiredCapabilities(t *testing.T) {
	tests := []struct {
		name         string
		requirements domain.TaskRequirements
		expected     []domain.Capability
	}{
		{
			name:         "structured output is always required",
			requirements: domain.TaskRequirements{},
			expected:     []domain.Capability{domain.CapStructuredOutput},
		},
		{
			name:         "high complexity requires complex reasoning",
			requirements: domain.TaskRequirements{Complexity: domain.TierHigh},
			expected:     []domain.Capability{domain.CapStructuredOutput, domain.CapComplexReasoning},
		},
		{
			name:         "expert complexity requires complex reasoning",
			requirements: domain.TaskRequirements{Complexity: domain.TierExpert},
			expected:     []domain.Capability{domain.CapStructuredOutput, domain.CapComplexReasoning},
		},
		{
			name: "priorities map onto capability tags",
			requirements: domain.TaskRequirements{
				CreativityRequired: true,
				SpeedPriority:      true,
				CostPriority:       true,
			},
			expected: []domain.Capability{
				domain.CapStructuredOutput,
				domain.CapCreativeDesign,
				domain.CapFastResponse,
				domain.CapCostEffective,
			},
		},
		{
			name:         "large context above the threshold",
			requirements: domain.TaskRequirements{ContextSizeTokens: 16001},
			expected:     []domain.Capability{domain.CapStructuredOutput, domain.CapLargeContext},
		},
		{
			name:         "context at the threshold does not require large context",
			requirements: domain.TaskRequirements{ContextSizeTokens: 16000},
			expected:     []domain.Capability{domain.CapStructuredOutput},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scoring.RequiredCapabilities(&tt.requirements)
			require.ElementsMatch(t, tt.expected, got)
		})
	}
}

func TestWeightedScorer_Score(t *testing.T) {
	scorer := newScorer(t)

	cheap := domain.BackendDescriptor{
		ID:               "cheap/fast",
		Cost:             domain.TokenCost{InputPerMillion: 0.10, OutputPerMillion: 0.10},
		MaxContextTokens: 32000,
		Capabilities: []domain.Capability{
			domain.CapFastResponse, domain.CapCostEffective, domain.CapStructuredOutput,
		},
		PerformanceScore: 0.78,
	}
	strong := domain.BackendDescriptor{
		ID:               "strong/deep",
		Cost:             domain.TokenCost{InputPerMillion: 2.00, OutputPerMillion: 2.00},
		MaxContextTokens: 32000,
		Capabilities: []domain.Capability{
			domain.CapComplexReasoning, domain.CapCreativeDesign,
			domain.CapStructuredOutput, domain.CapLargeContext,
		},
		PerformanceScore: 0.95,
	}

	t.Run("should stay within unit interval", func(t *testing.T) {
		for _, d := range []domain.BackendDescriptor{cheap, strong} {
			score := scorer.Score(&d, &domain.TaskRequirements{CostPriority: true, SpeedPriority: true})
			require.GreaterOrEqual(t, score, 0.0)
			require.LessOrEqual(t, score, 1.0)
		}
	})

	t.Run("should favor cheap fast backend for cost and speed priorities", func(t *testing.T) {
		req := &domain.TaskRequirements{
			Complexity:        domain.TierLow,
			ContextSizeTokens: 1000,
			CostPriority:      true,
			SpeedPriority:     true,
		}

		require.Greater(t, scorer.Score(&cheap, req), scorer.Score(&strong, req))
	})

	t.Run("should favor strong backend for expert tier work", func(t *testing.T) {
		req := &domain.TaskRequirements{
			Complexity:        domain.TierExpert,
			ContextSizeTokens: 8000,
		}

		require.Greater(t, scorer.Score(&strong, req), scorer.Score(&cheap, req))
	})

	t.Run("should compute exact score for full capability match", func(t *testing.T) {
		req := &domain.TaskRequirements{
			Complexity:        domain.TierLow,
			ContextSizeTokens: 1000,
			CostPriority:      true,
			SpeedPriority:     true,
		}

		// performance 0.78*0.4 + full capability match 0.3 +
		// cost (1 - 0.1/3)*0.2 + speed 0.1
		expected := 0.78*0.4 + 0.3 + (1-0.1/3.0)*0.2 + 0.1
		require.InDelta(t, expected, scorer.Score(&cheap, req), 1e-9)
	})

	t.Run("should use neutral cost term when cost priority is off", func(t *testing.T) {
		req := &domain.TaskRequirements{Complexity: domain.TierLow, ContextSizeTokens: 1000}

		// performance 0.78*0.4 + capability 1/1*0.3 + neutral 0.1*0.2
		expected := 0.78*0.4 + 0.3 + 0.1*0.2
		require.InDelta(t, expected, scorer.Score(&cheap, req), 1e-9)
	})

	t.Run("should floor the cost term at zero for expensive backends", func(t *testing.T) {
		pricey := cheap
		pricey.Cost = domain.TokenCost{InputPerMillion: 10, OutputPerMillion: 10}

		req := &domain.TaskRequirements{CostPriority: true}

		// performance 0.78*0.4 + full capability match 0.3 + cost 0 + speed 0
		expected := 0.78*0.4 + 0.3
		require.InDelta(t, expected, scorer.Score(&pricey, req), 1e-9)
	})
}

func TestWeightedScorer_Rank(t *testing.T) {
	scorer := newScorer(t)

	t.Run("should order candidates best first", func(t *testing.T) {
		candidates := []domain.BackendDescriptor{
			{
				ID:               "weak/model",
				Cost:             domain.TokenCost{InputPerMillion: 1, OutputPerMillion: 1},
				Capabilities:     []domain.Capability{domain.CapStructuredOutput},
				PerformanceScore: 0.40,
			},
			{
				ID:               "strong/model",
				Cost:             domain.TokenCost{InputPerMillion: 1, OutputPerMillion: 1},
				Capabilities:     []domain.Capability{domain.CapStructuredOutput},
				PerformanceScore: 0.90,
			},
		}

		ranked := scorer.Rank(candidates, &domain.TaskRequirements{})

		require.Len(t, ranked, 2)
		require.Equal(t, "strong/model", ranked[0].Descriptor.ID)
	})

	t.Run("should break exact ties by lower cost", func(t *testing.T) {
		candidates := []domain.BackendDescriptor{
			{
				ID:               "pricey/model",
				Cost:             domain.TokenCost{InputPerMillion: 2, OutputPerMillion: 2},
				Capabilities:     []domain.Capability{domain.CapStructuredOutput},
				PerformanceScore: 0.80,
			},
			{
				ID:               "bargain/model",
				Cost:             domain.TokenCost{InputPerMillion: 1, OutputPerMillion: 1},
				Capabilities:     []domain.Capability{domain.CapStructuredOutput},
				PerformanceScore: 0.80,
			},
		}

		ranked := scorer.Rank(candidates, &domain.TaskRequirements{})

		require.Equal(t, "bargain/model", ranked[0].Descriptor.ID)
	})

	t.Run("should break cost ties lexicographically", func(t *testing.T) {
		candidates := []domain.BackendDescriptor{
			{
				ID:               "beta/model",
				Cost:             domain.TokenCost{InputPerMillion: 1, OutputPerMillion: 1},
				Capabilities:     []domain.Capability{domain.CapStructuredOutput},
				PerformanceScore: 0.80,
			},
			{
				ID:               "alpha/model",
				Cost:             domain.TokenCost{InputPerMillion: 1, OutputPerMillion: 1},
				Capabilities:     []domain.Capability{domain.CapStructuredOutput},
				PerformanceScore: 0.80,
			},
		}

		ranked := scorer.Rank(candidates, &domain.TaskRequirements{})

		require.Equal(t, "alpha/model", ranked[0].Descriptor.ID)
	})
}
