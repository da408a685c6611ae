// Package trace implements the append-only JSONL audit trail of an analysis
// pass: every resolution decision the engine makes, hash-chained so the
// trail can be verified afterwards.
package trace

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// SigningKeyEnv names the environment variable holding the HMAC key used to
// sign the final chain hash.
const SigningKeyEnv = "SPECREF_TRACE_SIGNING_KEY"

// EventType enumerates all trace event types.
type EventType string

const (
	EventPassStart       EventType = "pass_start"
	EventPassComplete    EventType = "pass_complete"
	EventCacheHit        EventType = "cache_hit"
	EventPassthrough     EventType = "passthrough"
	EventRefined         EventType = "refined"
	EventKindViolation   EventType = "kind_violation"
	EventConstraintError EventType = "constraint_error"
	EventCycleDetected   EventType = "cycle_detected"
)

// Event is a single trace event written to the JSONL stream.
type Event struct {
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	PassID    string         `json:"pass_id"`
	PrevHash  string         `json:"prev_hash"`
	Data      map[string]any `json:"data,omitempty"`
}

var genesisHash = strings.Repeat("0", 64)

// Writer writes trace events to an append-only JSONL stream.
type Writer struct {
	mu       sync.Mutex
	w        io.Writer
	passID   string
	prevHash string
	count    int
	now      func() time.Time
}

// NewWriter creates a trace writer that writes to the given io.Writer.
func NewWriter(w io.Writer, passID string) *Writer {
	return &Writer{
		w:        w,
		passID:   passID,
		prevHash: genesisHash,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// NewFileWriter creates a trace writer that appends to a JSONL file.
func NewFileWriter(path, passID string) (*Writer, io.Closer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open trace file: %w", err)
	}
	return NewWriter(f, passID), f, nil
}

// Emit writes a single trace event chained to the previous one.
func (tw *Writer) Emit(eventType EventType, data map[string]any) error {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	return tw.emitLocked(eventType, data)
}

func (tw *Writer) emitLocked(eventType EventType, data map[string]any) error {
	evt := Event{
		Type:      eventType,
		Timestamp: tw.now(),
		PassID:    tw.passID,
		PrevHash:  tw.prevHash,
		Data:      data,
	}
	line, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal trace event: %w", err)
	}
	if _, err := tw.w.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write trace event: %w", err)
	}
	tw.prevHash = hashLine(line)
	tw.count++
	return nil
}

// Count returns the number of events written.
func (tw *Writer) Count() int {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	return tw.count
}

// EmitPassStart emits a pass_start event.
func (tw *Writer) EmitPassStart(document string, calls int) error {
	return tw.Emit(EventPassStart, map[string]any{
		"document": document,
		"calls":    calls,
	})
}

// EmitResolution emits a cache_hit, passthrough or refined event for a query.
func (tw *Writer) EmitResolution(eventType EventType, query string, data map[string]any) error {
	out := map[string]any{"query": query}
	for k, v := range data {
		out[k] = v
	}
	return tw.Emit(eventType, out)
}

// EmitPassComplete emits the closing event with the chain hash of every
// event before it, signed when SigningKeyEnv is set.
func (tw *Writer) EmitPassComplete(status string, diagnostics int, duration time.Duration) error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	data := map[string]any{
		"status":      status,
		"diagnostics": diagnostics,
		"duration":    duration.String(),
		"chain_hash":  tw.prevHash,
	}
	if key := os.Getenv(SigningKeyEnv); key != "" {
		data["signature"] = sign(key, tw.prevHash)
		data["signing_key_id"] = keyID(key)
	}
	return tw.emitLocked(EventPassComplete, data)
}

func sign(key, chainHash string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(chainHash))
	return hex.EncodeToString(mac.Sum(nil))
}

func keyID(key string) string {
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:4])
}

func hashLine(line []byte) string {
	h := sha256.Sum256(line)
	return hex.EncodeToString(h[:])
}
