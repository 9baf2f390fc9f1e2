package observability

import (
	"sort"
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters for console routes and outbound API calls.
type Metrics struct {
	mu           sync.Mutex
	requestCount map[string]int64
	errorCount   map[string]int64
	callCount    map[string]int64
	callLatency  map[string]time.Duration
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
		callCount:    make(map[string]int64),
		callLatency:  make(map[string]time.Duration),
	}
}

// RecordRequest increments counters for console requests.
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

// RecordCall increments counters for an outbound API call. Status 0 marks a transport failure.
func (m *Metrics) RecordCall(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount[key]++
	m.callLatency[key] += duration
}

// Counter is one entry of a metrics snapshot.
type Counter struct {
	Key     string        `json:"key"`
	Count   int64         `json:"count"`
	Latency time.Duration `json:"latency_ns,omitempty"`
}

// Snapshot is a point-in-time copy of all counters, sorted by key.
type Snapshot struct {
	Requests []Counter `json:"requests"`
	Errors   []Counter `json:"errors"`
	Calls    []Counter `json:"calls"`
}

// Snapshot copies the current counters.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := counters(m.callCount)
	for i := range calls {
		if n := calls[i].Count; n > 0 {
			calls[i].Latency = m.callLatency[calls[i].Key] / time.Duration(n)
		}
	}
	return Snapshot{
		Requests: counters(m.requestCount),
		Errors:   counters(m.errorCount),
		Calls:    calls,
	}
}

func counters(src map[string]int64) []Counter {
	out := make([]Counter, 0, len(src))
	for k, v := range src {
		out = append(out, Counter{Key: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
