package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu              sync.Mutex
	requestCount    map[string]int64
	errorCount      map[string]int64
	evaluationCount int64
	escalationCount map[string]int64
	breachCount     int64
	reactionCount   map[string]int64
}

// MetricsSnapshot is a point-in-time copy for the dashboard surface.
type MetricsSnapshot struct {
	Evaluations int64            `json:"evaluations"`
	Escalations map[string]int64 `json:"escalations_by_tier"`
	Breaches    int64            `json:"breaches"`
	Reactions   map[string]int64 `json:"reaction_tickets_by_status"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:    make(map[string]int64),
		errorCount:      make(map[string]int64),
		escalationCount: make(map[string]int64),
		reactionCount:   make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordEvaluations counts evaluator passes performed by the worker.
func (m *Metrics) RecordEvaluations(n int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evaluationCount += int64(n)
}

// RecordEscalation counts a committed tier advancement.
func (m *Metrics) RecordEscalation(toTier int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.escalationCount["L"+strconv.Itoa(toTier)]++
}

// RecordBreach counts a resolution-deadline breach observed during a tick.
func (m *Metrics) RecordBreach() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.breachCount++
}

// RecordReactionTicket counts tickets auto-opened by the asset reaction rule.
func (m *Metrics) RecordReactionTicket(assetStatus string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reactionCount[assetStatus]++
}

// Snapshot copies the SLA-related counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		Escalations: map[string]int64{},
		Reactions:   map[string]int64{},
	}
	if m == nil {
		return snap
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	snap.Evaluations = m.evaluationCount
	snap.Breaches = m.breachCount
	for k, v := range m.escalationCount {
		snap.Escalations[k] = v
	}
	for k, v := range m.reactionCount {
		snap.Reactions[k] = v
	}
	return snap
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
