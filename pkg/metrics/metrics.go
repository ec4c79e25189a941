package metrics

import (
	"sync"
	"sync/atomic"
)

// Kind is the exposition type of a metric.
type Kind int

const (
	KindCounter Kind = iota
	KindGauge
)

func (k Kind) String() string {
	switch k {
	case KindCounter:
		return "counter"
	case KindGauge:
		return "gauge"
	default:
		return "untyped"
	}
}

// Metric is a single int64 value identified by a dotted name such as route.slow.requests.
// All methods are safe for concurrent use.
type Metric struct {
	name  string
	kind  Kind
	value int64
}

func (m *Metric) Name() string {
	return m.name
}

func (m *Metric) Kind() Kind {
	return m.kind
}

func (m *Metric) Add(n int64) {
	atomic.AddInt64(&m.value, n)
}

func (m *Metric) Inc() {
	atomic.AddInt64(&m.value, 1)
}

// Set overwrites the value. It is meant for gauges; counters should only go up.
func (m *Metric) Set(n int64) {
	atomic.StoreInt64(&m.value, n)
}

func (m *Metric) Value() int64 {
	return atomic.LoadInt64(&m.value)
}

// Registry holds metrics in registration order.
type Registry struct {
	mu      sync.RWMutex
	metrics []*Metric
	byName  map[string]*Metric
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Metric)}
}

// Counter returns the counter registered under name, creating it if needed.
func (r *Registry) Counter(name string) *Metric {
	return r.get(name, KindCounter)
}

// Gauge returns the gauge registered under name, creating it if needed.
func (r *Registry) Gauge(name string) *Metric {
	return r.get(name, KindGauge)
}

// get returns an existing metric regardless of the kind requested; the first registration wins.
func (r *Registry) get(name string, kind Kind) *Metric {
	r.mu.RLock()
	m, ok := r.byName[name]
	r.mu.RUnlock()
	if ok {
		return m
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.byName[name]; ok {
		return m
	}
	m = &Metric{name: name, kind: kind}
	r.byName[name] = m
	r.metrics = append(r.metrics, m)
	return m
}

// Metrics returns a copy of the registered metrics in registration order.
func (r *Registry) Metrics() []*Metric {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Metric(nil), r.metrics...)
}

// Lookup returns the metric registered under name.
func (r *Registry) Lookup(name string) (*Metric, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byName[name]
	return m, ok
}
