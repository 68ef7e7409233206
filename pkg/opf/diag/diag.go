// Package diag collects the non-fatal findings produced while a drawing is
// translated into a pattern.
package diag

import (
	"fmt"
	"strings"
)

// Severity classifies a diagnostic. The numeric values are part of the JSON
// output.
type Severity int

const (
	Info Severity = iota + 1
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Diagnostic is a single finding. Data references the entity, block or
// vertices that triggered it.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Data     any      `json:"data,omitempty"`
}

// New creates a diagnostic
func New(sev Severity, msg string, data any) Diagnostic {
	return Diagnostic{Severity: sev, Message: msg, Data: data}
}

// Collector is the append-only list of diagnostics for one parse.
// A nil *Collector discards everything.
type Collector struct {
	items []Diagnostic
}

// NewCollector creates an empty collector
func NewCollector() *Collector {
	return &Collector{}
}

// Add appends one diagnostic
func (c *Collector) Add(sev Severity, msg string, data any) {
	if c == nil {
		return
	}
	c.items = append(c.items, New(sev, msg, data))
}

// Addf appends one diagnostic with a formatted message
func (c *Collector) Addf(sev Severity, data any, format string, args ...any) {
	c.Add(sev, fmt.Sprintf(format, args...), data)
}

// Append merges diagnostics returned by another component, keeping order.
func (c *Collector) Append(ds ...Diagnostic) {
	if c == nil {
		return
	}
	c.items = append(c.items, ds...)
}

// All returns a copy of the collected diagnostics in insertion order
func (c *Collector) All() []Diagnostic {
	if c == nil {
		return nil
	}
	out := make([]Diagnostic, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of collected diagnostics
func (c *Collector) Len() int {
	if c == nil {
		return 0
	}
	return len(c.items)
}

// Count returns how many diagnostics carry the given severity
func (c *Collector) Count(sev Severity) int {
	if c == nil {
		return 0
	}
	n := 0
	for _, d := range c.items {
		if d.Severity == sev {
			n++
		}
	}
	return n
}

// Messages returns every message in insertion order
func (c *Collector) Messages() []string {
	return Messages(c.All())
}

// Messages extracts the message of each diagnostic
func Messages(ds []Diagnostic) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Message
	}
	return out
}

// Join returns the newline-joined messages of ds
func Join(ds []Diagnostic) string {
	return strings.Join(Messages(ds), "\n")
}
