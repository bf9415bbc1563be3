package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/davidbz/wayfinder/internal/domain"
)

// BackendsFile is the on-disk backend descriptor list.
type BackendsFile struct {
	Backends []BackendEntry `json:"backends" yaml:"backends"`
}

// BackendEntry is one backend descriptor as declared in YAML.
type BackendEntry struct {
	ID                    string   `json:"id"                                yaml:"id"`
	InputCostPerMillion   float64  `json:"input_cost_per_million"            yaml:"input_cost_per_million"`
	OutputCostPerMillion  float64  `json:"output_cost_per_million"           yaml:"output_cost_per_million"`
	MaxContextTokens      int      `json:"max_context_tokens"                yaml:"max_context_tokens"`
	Capabilities          []string `json:"capabilities"                      yaml:"capabilities"`
	BestForCategories     []string `json:"best_for_categories,omitempty"     yaml:"best_for_categories,omitempty"`
	PerformanceScore      float64  `json:"performance_score"                 yaml:"performance_score"`
	SupportsBatchDiscount bool     `json:"supports_batch_discount,omitempty" yaml:"supports_batch_discount,omitempty"`
}

// ToDescriptor converts the entry into a validated domain descriptor.
func (e BackendEntry) ToDescriptor() (domain.BackendDescriptor, error) {
	capabilities := make([]domain.Capability, 0, len(e.Capabilities))
	for _, raw := range e.Capabilities {
		c, err := domain.ParseCapability(raw)
		if err != nil {
			return domain.BackendDescriptor{}, fmt.Errorf("backend %s: %w", e.ID, err)
		}
		capabilities = append(capabilities, c)
	}

	d := domain.BackendDescriptor{
		ID: e.ID,
		Cost: domain.TokenCost{
			InputPerMillion:  e.InputCostPerMillion,
			OutputPerMillion: e.OutputCostPerMillion,
		},
		MaxContextTokens:      e.MaxContextTokens,
		Capabilities:          capabilities,
		BestForCategories:     e.BestForCategories,
		PerformanceScore:      e.PerformanceScore,
		SupportsBatchDiscount: e.SupportsBatchDiscount,
	}
	if err := d.Validate(); err != nil {
		return domain.BackendDescriptor{}, err
	}
	return d, nil
}

// LoadBackends reads and validates the backend descriptor file.
func LoadBackends(path string) ([]domain.BackendDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read backends file: %w", err)
	}
	return ParseBackends(data)
}

// ParseBackends parses YAML backend declarations into descriptors.
func ParseBackends(data []byte) ([]domain.BackendDescriptor, error) {
	var file BackendsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse backends file: %w", err)
	}

	if len(file.Backends) == 0 {
		return nil, fmt.Errorf("backends file declares no backends")
	}

	seen := make(map[string]struct{}, len(file.Backends))
	descriptors := make([]domain.BackendDescriptor, 0, len(file.Backends))
	for _, entry := range file.Backends {
		d, err := entry.ToDescriptor()
		if err != nil {
			return nil, err
		}
		if _, dup := seen[d.ID]; dup {
			return nil, fmt.Errorf("duplicate backend id: %s", d.ID)
		}
		seen[d.ID] = struct{}{}
		descriptors = append(descriptors, d)
	}
	return descriptors, nil
}
