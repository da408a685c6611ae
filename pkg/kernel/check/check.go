// Package check resolves every call site of a specref/v0 document in one
// analysis pass and aggregates the resulting diagnostics.
package check

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ormasoftchile/specref/pkg/kernel/diag"
	"github.com/ormasoftchile/specref/pkg/kernel/eval"
	"github.com/ormasoftchile/specref/pkg/kernel/query"
	"github.com/ormasoftchile/specref/pkg/kernel/refine"
	"github.com/ormasoftchile/specref/pkg/kernel/schema"
	"github.com/ormasoftchile/specref/pkg/kernel/spec"
	"github.com/ormasoftchile/specref/pkg/kernel/symbols"
	"github.com/ormasoftchile/specref/pkg/kernel/table"
	"github.com/ormasoftchile/specref/pkg/kernel/trace"
)

// Status values reported by Run.
const (
	StatusPassed = "passed" // no error diagnostics
	StatusFailed = "failed" // at least one error diagnostic
	StatusError  = "error"  // an engine invariant was violated
)

// RunConfig configures an analysis pass.
type RunConfig struct {
	Name             string          // document name recorded in the trace
	Trace            *trace.Writer   // optional audit trail
	Logger           *slog.Logger    // nil discards
	Sink             diag.Sink       // optional extra sink, e.g. a JSONL writer
	WarningsAsErrors bool
}

// Resolution is the outcome of resolving one call site.
type Resolution struct {
	Call  schema.Call                  `json:"call"`
	Query string                       `json:"query"`
	Spec  *spec.ProcedureSpecification `json:"spec,omitempty"`
	Chain []string                     `json:"chain,omitempty"`
	Error string                       `json:"error,omitempty"`
}

// RunResult is the outcome of one analysis pass.
type RunResult struct {
	Status      string            `json:"status"`
	Resolutions []Resolution      `json:"resolutions"`
	Diagnostics []diag.Diagnostic `json:"diagnostics"`
	Duration    time.Duration     `json:"duration"`
	Error       error             `json:"-"`
}

// ErrorCount returns the number of error-severity diagnostics.
func (r *RunResult) ErrorCount() int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Severity == diag.SeverityError {
			n++
		}
	}
	return n
}

// Session holds everything one analysis pass of a document needs. The
// engine is exposed so hosts (REPL, MCP) can issue further queries against
// the same cache.
type Session struct {
	Doc       *schema.Document
	Table     *table.Table
	Program   *symbols.Program
	Engine    *refine.Engine
	Collector *diag.Collector

	cfg    RunConfig
	logger *slog.Logger
}

// NewSession builds the raw table, the symbol database and the engine for
// doc. Errors here are document errors, not diagnostics.
func NewSession(doc *schema.Document, cfg RunConfig) (*Session, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	ev := eval.MustNewEvaluator(eval.DefaultCacheSize)
	prog, err := symbols.FromDocument(doc, symbols.WithEvaluator(ev), symbols.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("program: %w", err)
	}
	tbl, err := table.FromDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("specs: %w", err)
	}

	collector := diag.NewCollector()
	var sink diag.Sink = collector
	if cfg.Sink != nil {
		sink = diag.Tee{collector, cfg.Sink}
	}

	opts := []refine.Option{
		refine.WithLogger(logger),
		refine.WithConstraintResolver(&table.ExprResolver{Eval: ev}),
	}
	if cfg.Trace != nil {
		opts = append(opts, refine.WithTrace(cfg.Trace))
	}

	return &Session{
		Doc:       doc,
		Table:     tbl,
		Program:   prog,
		Engine:    refine.New(tbl, prog, sink, opts...),
		Collector: collector,
		cfg:       cfg,
		logger:    logger,
	}, nil
}

// Load reads, decodes and prepares the document at path.
func Load(path string, cfg RunConfig) (*Session, error) {
	doc, err := schema.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if cfg.Name == "" {
		cfg.Name = path
	}
	return NewSession(doc, cfg)
}

// Run resolves every call site declared by the document, in order.
// Invariant violations do not stop the pass; they are recorded on the
// affected resolution and joined into RunResult.Error.
func (s *Session) Run(ctx context.Context) *RunResult {
	start := time.Now()
	if s.cfg.Trace != nil {
		if err := s.cfg.Trace.EmitPassStart(s.cfg.Name, len(s.Doc.Calls)); err != nil {
			s.logger.Warn("trace write failed", "error", err)
		}
	}

	result := &RunResult{Resolutions: make([]Resolution, 0, len(s.Doc.Calls))}
	var errs []error
	for _, call := range s.Doc.Calls {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res, err := s.ResolveCall(call)
		if err != nil {
			errs = append(errs, err)
		}
		result.Resolutions = append(result.Resolutions, res)
	}

	result.Diagnostics = s.Collector.Diagnostics()
	result.Error = errors.Join(errs...)
	result.Status = s.status(result)
	result.Duration = time.Since(start)

	s.logger.Debug("pass complete",
		"calls", len(result.Resolutions),
		"diagnostics", len(result.Diagnostics),
		"cached", s.Engine.CacheLen(),
		"status", result.Status)

	if s.cfg.Trace != nil {
		if err := s.cfg.Trace.EmitPassComplete(result.Status, len(result.Diagnostics), result.Duration); err != nil {
			s.logger.Warn("trace write failed", "error", err)
		}
	}
	return result
}

// ResolveCall resolves a single call site and its override chain.
func (s *Session) ResolveCall(call schema.Call) (Resolution, error) {
	q := CallQuery(call)
	res := Resolution{Call: call, Query: q.String()}

	chain, err := s.Engine.Chain(q)
	if err == nil {
		for _, c := range chain {
			res.Chain = append(res.Chain, c.String())
		}
	}

	sp, err := s.Engine.Resolve(q)
	if err != nil {
		res.Error = err.Error()
		return res, fmt.Errorf("resolve %s: %w", q, err)
	}
	res.Spec = sp
	return res, nil
}

func (s *Session) status(r *RunResult) string {
	switch {
	case r.Error != nil:
		return StatusError
	case r.ErrorCount() > 0:
		return StatusFailed
	case s.cfg.WarningsAsErrors && len(r.Diagnostics) > 0:
		return StatusFailed
	default:
		return StatusPassed
	}
}

// CallQuery converts a document call site into a query.
func CallQuery(call schema.Call) query.Query {
	return query.New(query.ProcedureID(call.Called), query.NewSubstitution(call.Substs))
}
