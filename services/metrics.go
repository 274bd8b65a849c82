package services

import (
	"sync"
	"time"
)

type metricRecord struct {
	count         int64
	errors        int64
	totalDuration time.Duration
	lastUpdated   time.Time
}

// OperationMetric is one row of the /metrics snapshot.
type OperationMetric struct {
	Operation   string        `json:"operation"`
	Count       int64         `json:"count"`
	Errors      int64         `json:"errors"`
	AvgDuration time.Duration `json:"avg_duration"`
	ErrorRate   float64       `json:"error_rate"`
	LastUpdated time.Time     `json:"last_updated"`
}

// Metrics aggregates request counts and latencies per operation in memory.
type Metrics struct {
	mu  sync.Mutex
	ops map[string]*metricRecord
}

func NewMetrics() *Metrics {
	return &Metrics{ops: make(map[string]*metricRecord)}
}

func (m *Metrics) Record(operation string, duration time.Duration, failed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.ops[operation]
	if !ok {
		rec = &metricRecord{}
		m.ops[operation] = rec
	}

	rec.count++
	rec.totalDuration += duration
	if failed {
		rec.errors++
	}
	rec.lastUpdated = time.Now()
}

func (m *Metrics) Snapshot() []OperationMetric {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]OperationMetric, 0, len(m.ops))
	for op, rec := range m.ops {
		metric := OperationMetric{
			Operation:   op,
			Count:       rec.count,
			Errors:      rec.errors,
			LastUpdated: rec.lastUpdated,
		}
		if rec.count > 0 {
			metric.AvgDuration = rec.totalDuration / time.Duration(rec.count)
			metric.ErrorRate = float64(rec.errors) / float64(rec.count) * 100
		}
		out = append(out, metric)
	}
	return out
}

// Sweep drops operations that have been idle longer than maxAge.
func (m *Metrics) Sweep(maxAge time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	for op, rec := range m.ops {
		if rec.lastUpdated.Before(cutoff) {
			delete(m.ops, op)
		}
	}
}
