package diag

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
)

// Sink receives diagnostics.
type Sink interface {
	Emit(d Diagnostic)
}

// Collector is an in-memory sink.
type Collector struct {
	mu    sync.Mutex
	diags []Diagnostic
}

// NewCollector returns an empty collector.
func NewCollector() *Collector { return &Collector{} }

// Emit records d.
func (c *Collector) Emit(d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.diags = append(c.diags, d)
}

// Diagnostics returns a copy of everything emitted so far, in order.
func (c *Collector) Diagnostics() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Diagnostic, len(c.diags))
	copy(out, c.diags)
	return out
}

// Count returns the number of diagnostics with the given severity.
func (c *Collector) Count(sev Severity) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, d := range c.diags {
		if d.Severity == sev {
			n++
		}
	}
	return n
}

// HasErrors reports whether any error-severity diagnostic was emitted.
func (c *Collector) HasErrors() bool {
	return c.Count(SeverityError) > 0
}

// HasErrors reports whether diags contains an error-severity entry.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Writer is a sink that appends each diagnostic as one JSON line.
type Writer struct {
	mu  sync.Mutex
	enc *json.Encoder
	err error
}

// NewWriter creates a JSONL diagnostic writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: json.NewEncoder(w)}
}

// NewFileWriter appends diagnostics to a JSONL file.
func NewFileWriter(path string) (*Writer, io.Closer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open diagnostics file: %w", err)
	}
	return NewWriter(f), f, nil
}

// Emit writes d. The first encoding error is kept and reported by Err.
func (w *Writer) Emit(d Diagnostic) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enc.Encode(d); err != nil && w.err == nil {
		w.err = err
	}
}

// Err returns the first write error, if any.
func (w *Writer) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Tee fans every diagnostic out to all sinks.
type Tee []Sink

// Emit forwards d to each non-nil sink.
func (t Tee) Emit(d Diagnostic) {
	for _, s := range t {
		if s != nil {
			s.Emit(d)
		}
	}
}
