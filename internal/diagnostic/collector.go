package diagnostic

import (
	"fmt"
	"sync"
)

// Logger receives warnings as they are recorded.
type Logger interface {
	Warnf(format string, v ...any)
}

// Collector accumulates diagnostics from concurrent or repeated resolution
// passes. The zero value is ready to use.
type Collector struct {
	mu     sync.Mutex
	diags  Diagnostics
	logger Logger
}

// NewCollector creates a Collector that also writes warnings to logger.
// A nil logger only records.
func NewCollector(logger Logger) *Collector {
	return &Collector{logger: logger}
}

// Warn records a warning and logs it.
func (c *Collector) Warn(code, context, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	c.mu.Lock()
	c.diags.AddWarning(code, msg, context, "")
	c.mu.Unlock()

	if c.logger != nil {
		c.logger.Warnf("%s: [%s] %s", context, code, msg)
	}
}

// Info records an informational note.
func (c *Collector) Info(code, context, format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.diags.AddInfo(code, fmt.Sprintf(format, args...), context, "")
}

// Error records err as an error diagnostic.
func (c *Collector) Error(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.diags.AddErr(err)
}

// Snapshot returns a copy of everything recorded so far.
func (c *Collector) Snapshot() Diagnostics {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out Diagnostics
	out.Merge(c.diags)

	return out
}

// Reset discards all recorded diagnostics.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.diags = Diagnostics{}
}
