// Package costing projects invocation costs from token counts and
// backend pricing. Estimation is pure computation with no shared state.
package costing

import "github.com/davidbz/wayfinder/internal/domain"

const (
	tokensPerMillion = 1_000_000.0

	// batchDiscountFactor is applied when batch mode is requested and
	// the backend supports batch pricing.
	batchDiscountFactor = 0.5
)

// Estimator implements domain.CostEstimator.
type Estimator struct{}

// NewEstimator creates a cost estimator.
func NewEstimator() *Estimator {
	return &Estimator{}
}

// Estimate returns the projected cost in USD for the given token counts.
// Missing (negative) counts are treated as zero; the result is never
// negative and scales linearly with token counts.
func (e *Estimator) Estimate(descriptor *domain.BackendDescriptor, inputTokens, outputTokens int, batch bool) float64 {
	if descriptor == nil {
		return 0
	}
	if inputTokens < 0 {
		inputTokens = 0
	}
	if outputTokens < 0 {
		outputTokens = 0
	}

	cost := (float64(inputTokens)*descriptor.Cost.InputPerMillion +
		float64(outputTokens)*descriptor.Cost.OutputPerMillion) / tokensPerMillion

	if batch && descriptor.SupportsBatchDiscount {
		cost *= batchDiscountFactor
	}
	return cost
}
