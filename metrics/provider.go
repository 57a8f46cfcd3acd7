package metrics

// Provider constructs instruments used to record executor measurements.
// Implementations must be safe for concurrent use.
//
// The surface is intentionally minimal; optional capabilities belong in
// separate interfaces rather than on Provider.
type Provider interface {
	Counter(name string, opts ...InstrumentOption) Counter
	UpDownCounter(name string, opts ...InstrumentOption) UpDownCounter
	Histogram(name string, opts ...InstrumentOption) Histogram
}

// Counter records monotonic counts (e.g., operations submitted).
// Methods must be safe for concurrent use.
type Counter interface {
	Add(n int64)
}

// UpDownCounter records values that move both ways (e.g., queue depth).
// Methods must be safe for concurrent use.
type UpDownCounter interface {
	Add(n int64)
}

// Histogram records a distribution of float64 measurements (e.g., drain
// duration in seconds). Methods must be safe for concurrent use.
type Histogram interface {
	Record(v float64)
}

// InstrumentConfig carries optional instrument metadata. It is advisory
// only; implementations may ignore it.
type InstrumentConfig struct {
	Description string
	Unit        string
}

// InstrumentOption mutates InstrumentConfig.
type InstrumentOption func(*InstrumentConfig)

// WithDescription sets an advisory description for the instrument.
func WithDescription(desc string) InstrumentOption {
	return func(c *InstrumentConfig) { c.Description = desc }
}

// WithUnit sets an advisory unit for the instrument (e.g., "1", "seconds").
func WithUnit(unit string) InstrumentOption {
	return func(c *InstrumentConfig) { c.Unit = unit }
}
