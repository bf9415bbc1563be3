// Package ledger accumulates per-backend, per-category usage counters
// for reporting. The ledger is process-wide state: entries are created
// on first touch and live until process restart.
package ledger

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/davidbz/wayfinder/internal/observability"
)

const (
	// efficiencyPivotCostPerToken is the cost-per-token that maps to an
	// efficiency score of zero; cheaper usage scores higher.
	efficiencyPivotCostPerToken = 0.002

	efficiencyScale = 50000.0
	efficiencyMax   = 100.0
)

// Key identifies one logical usage row.
type Key struct {
	BackendID string
	Category  string
}

// Record holds monotonically non-decreasing usage counters for one
// (backend, category) pair.
type Record struct {
	RequestCount int64   `json:"request_count"`
	TotalTokens  int64   `json:"total_tokens"`
	TotalCostUSD float64 `json:"total_cost_usd"`
	SuccessCount int64   `json:"success_count"`
}

// SuccessRate derives the fraction of successful requests.
func (r Record) SuccessRate() float64 {
	if r.RequestCount == 0 {
		return 0
	}
	return float64(r.SuccessCount) / float64(r.RequestCount)
}

// Event is one usage observation, published to optional sinks.
type Event struct {
	BackendID  string    `json:"backend_id"`
	Category   string    `json:"category"`
	TokensUsed int       `json:"tokens_used"`
	CostUSD    float64   `json:"cost_usd"`
	Success    bool      `json:"success"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Sink receives usage events for downstream pipelines.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// Ledger implements domain.UsageRecorder.
type Ledger struct {
	mu      sync.RWMutex
	records map[Key]*Record

	metrics *Metrics
	sink    Sink
	now     func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithMetrics mirrors every recorded observation into Prometheus
// collectors.
func WithMetrics(m *Metrics) Option {
	return func(l *Ledger) {
		l.metrics = m
	}
}

// WithSink publishes every recorded observation to the sink. Publish
// failures are logged, never propagated: telemetry must not fail the
// request path.
func WithSink(s Sink) Option {
	return func(l *Ledger) {
		l.sink = s
	}
}

// New creates an empty usage ledger.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		records: make(map[Key]*Record),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Record increments the usage row for the (backend, category) pair,
// creating it on first touch. It never fails.
func (l *Ledger) Record(ctx context.Context, backendID, category string, tokensUsed int, costUSD float64, success bool) {
	if tokensUsed < 0 {
		tokensUsed = 0
	}
	if costUSD < 0 {
		costUSD = 0
	}

	key := Key{BackendID: backendID, Category: category}

	l.mu.Lock()
	record, ok := l.records[key]
	if !ok {
		record = &Record{}
		l.records[key] = record
	}
	record.RequestCount++
	record.TotalTokens += int64(tokensUsed)
	record.TotalCostUSD += costUSD
	if success {
		record.SuccessCount++
	}
	l.mu.Unlock()

	if l.metrics != nil {
		l.metrics.Observe(backendID, category, tokensUsed, costUSD, success)
	}

	if l.sink != nil {
		event := Event{
			BackendID:  backendID,
			Category:   category,
			TokensUsed: tokensUsed,
			CostUSD:    costUSD,
			Success:    success,
			RecordedAt: l.now(),
		}
		if err := l.sink.Publish(ctx, event); err != nil {
			observability.FromContext(ctx).Warn("usage sink publish failed",
				observability.String("backend", backendID),
				observability.Error(err))
		}
	}
}

// BackendUsage is one row of the usage report.
type BackendUsage struct {
	BackendID   string  `json:"backend_id"`
	Category    string  `json:"category"`
	Record      Record  `json:"record"`
	SuccessRate float64 `json:"success_rate"`
}

// Summary aggregates the ledger for reporting.
type Summary struct {
	Period          string         `json:"period"`
	TotalRequests   int64          `json:"total_requests"`
	TotalTokens     int64          `json:"total_tokens"`
	TotalCostUSD    float64        `json:"total_cost_usd"`
	CostPerToken    float64        `json:"cost_per_token"`
	EfficiencyScore float64        `json:"efficiency_score"`
	Backends        []BackendUsage `json:"backends"`
}

// Report aggregates totals across all rows. Readers may observe a
// slightly stale but internally consistent snapshot.
func (l *Ledger) Report() *Summary {
	l.mu.RLock()
	rows := make([]BackendUsage, 0, len(l.records))
	summary := &Summary{Period: "total"}
	for key, record := range l.records {
		rows = append(rows, BackendUsage{
			BackendID:   key.BackendID,
			Category:    key.Category,
			Record:      *record,
			SuccessRate: record.SuccessRate(),
		})
		summary.TotalRequests += record.RequestCount
		summary.TotalTokens += record.TotalTokens
		summary.TotalCostUSD += record.TotalCostUSD
	}
	l.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].BackendID != rows[j].BackendID {
			return rows[i].BackendID < rows[j].BackendID
		}
		return rows[i].Category < rows[j].Category
	})
	summary.Backends = rows

	if summary.TotalTokens > 0 {
		summary.CostPerToken = summary.TotalCostUSD / float64(summary.TotalTokens)
	}
	summary.EfficiencyScore = EfficiencyScore(summary.CostPerToken)
	return summary
}

// Get returns a copy of the usage row for the pair, if any.
func (l *Ledger) Get(backendID, category string) (Record, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	record, ok := l.records[Key{BackendID: backendID, Category: category}]
	if !ok {
		return Record{}, false
	}
	return *record, true
}

// EfficiencyScore maps cost-per-token onto a 0-100 scale where cheaper
// usage scores higher and a cost of 0.002 USD per token maps to zero.
func EfficiencyScore(costPerToken float64) float64 {
	score := (efficiencyPivotCostPerToken - costPerToken) * efficiencyScale
	return math.Min(efficiencyMax, math.Max(0, score))
}
