package metrics

import (
	"sync"
	"sync/atomic"
)

// BasicProvider is a concurrency-safe in-memory Provider. Instruments are
// created on demand by name and reused for the same name. Suitable for
// tests, examples, and lightweight introspection; not a metrics backend.
type BasicProvider struct {
	mu         sync.Mutex
	counters   map[string]*BasicCounter
	updowns    map[string]*BasicUpDownCounter
	histograms map[string]*BasicHistogram
}

// NewBasicProvider constructs a new BasicProvider.
func NewBasicProvider() *BasicProvider {
	return &BasicProvider{
		counters:   make(map[string]*BasicCounter),
		updowns:    make(map[string]*BasicUpDownCounter),
		histograms: make(map[string]*BasicHistogram),
	}
}

// Counter returns the monotonic counter registered under name, creating it
// on first use. Options are advisory and ignored here.
func (p *BasicProvider) Counter(name string, _ ...InstrumentOption) Counter {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.counters[name]
	if !ok {
		c = &BasicCounter{}
		p.counters[name] = c
	}
	return c
}

// UpDownCounter returns the up/down counter registered under name, creating
// it on first use.
func (p *BasicProvider) UpDownCounter(name string, _ ...InstrumentOption) UpDownCounter {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.updowns[name]
	if !ok {
		c = &BasicUpDownCounter{}
		p.updowns[name] = c
	}
	return c
}

// Histogram returns the histogram registered under name, creating it on
// first use.
func (p *BasicProvider) Histogram(name string, _ ...InstrumentOption) Histogram {
	p.mu.Lock()
	defer p.mu.Unlock()
	h, ok := p.histograms[name]
	if !ok {
		h = &BasicHistogram{}
		p.histograms[name] = h
	}
	return h
}

// CounterValue returns the current value of the named counter, or 0 if it
// was never created.
func (p *BasicProvider) CounterValue(name string) int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.counters[name]; ok {
		return c.Value()
	}
	return 0
}

// UpDownValue returns the current value of the named up/down counter, or 0
// if it was never created.
func (p *BasicProvider) UpDownValue(name string) int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.updowns[name]; ok {
		return c.Value()
	}
	return 0
}

// BasicCounter is a monotonic counter backed by an atomic int64.
type BasicCounter struct {
	v atomic.Int64
}

func (c *BasicCounter) Add(n int64) { c.v.Add(n) }

// Value returns the current count.
func (c *BasicCounter) Value() int64 { return c.v.Load() }

// BasicUpDownCounter is a bidirectional counter backed by an atomic int64.
type BasicUpDownCounter struct {
	v atomic.Int64
}

func (c *BasicUpDownCounter) Add(n int64) { c.v.Add(n) }

// Value returns the current value.
func (c *BasicUpDownCounter) Value() int64 { return c.v.Load() }

// BasicHistogram keeps count and sum of recorded measurements.
type BasicHistogram struct {
	mu    sync.Mutex
	count int64
	sum   float64
}

func (h *BasicHistogram) Record(v float64) {
	h.mu.Lock()
	h.count++
	h.sum += v
	h.mu.Unlock()
}

// Count returns the number of recorded measurements.
func (h *BasicHistogram) Count() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

// Sum returns the sum of recorded measurements.
func (h *BasicHistogram) Sum() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sum
}
