package check

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"themecheck/internal/diag"
	"themecheck/internal/source"
	"themecheck/internal/trace"
	"themecheck/internal/visitor"
)

// Error is a failure of one check on one document. It never aborts the run.
type Error struct {
	Check string
	URI   string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("check %s failed on %s: %v", e.Check, e.URI, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// PanicError wraps a value recovered from a panicking check.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Value) }

// Run executes one check over one document. Offenses of a failed run are
// discarded and the failure is returned as *Error.
func Run(ctx context.Context, chk Check, doc *source.SourceCode, shared *Shared) (offenses []diag.Offense, err error) {
	meta := chk.Meta()
	if doc == nil || !meta.Supports(doc.Kind) {
		return nil, nil
	}
	ctx, span := trace.Start(ctx, trace.ScopeCheck, "check:"+meta.ID)
	span.WithExtra("uri", doc.URI)
	began := time.Now()
	defer func() {
		failed := err != nil
		if shared != nil {
			shared.Stats.Observe(meta.ID, time.Since(began), failed)
		}
		detail := fmt.Sprintf("offenses=%d", len(offenses))
		if failed {
			detail = "failed"
		}
		span.End(detail)
	}()
	defer func() {
		if r := recover(); r != nil {
			offenses = nil
			err = &Error{Check: meta.ID, URI: doc.URI, Err: &PanicError{Value: r, Stack: debug.Stack()}}
		}
		if err != nil && ctx.Err() == nil {
			shared.logger().Error("check failed", "check", meta.ID, "uri", doc.URI, "err", err)
		}
	}()

	c := newContext(meta, doc, shared)
	lc := adapt(chk.New(c))

	if err := lc.start(ctx); err != nil {
		return nil, &Error{Check: meta.ID, URI: doc.URI, Err: err}
	}
	// Documents that failed to parse have no tree; only hooks run for them.
	if doc.AST != nil && len(lc.handlers) > 0 {
		if err := visitor.Traverse(ctx, doc.AST, lc.handlers); err != nil {
			return nil, &Error{Check: meta.ID, URI: doc.URI, Err: err}
		}
	}
	if err := lc.end(ctx); err != nil {
		return nil, &Error{Check: meta.ID, URI: doc.URI, Err: err}
	}
	return c.offenses, nil
}

// RunAll executes every check over doc concurrently. Check failures are
// joined into the returned error; offenses of the other checks are kept.
func RunAll(ctx context.Context, checks []Check, doc *source.SourceCode, shared *Shared) ([]diag.Offense, error) {
	results := make([][]diag.Offense, len(checks))
	errs := make([]error, len(checks))

	var g errgroup.Group
	for i, chk := range checks {
		g.Go(func() error {
			results[i], errs[i] = Run(ctx, chk, doc, shared)
			return nil
		})
	}
	_ = g.Wait()

	var out []diag.Offense
	for _, r := range results {
		out = append(out, r...)
	}
	diag.Sort(out)
	if err := ctx.Err(); err != nil {
		return out, err
	}
	return out, errors.Join(errs...)
}

// Result is the outcome of a theme run.
type Result struct {
	Offenses []diag.Offense
	Errors   []*Error
}

// RunTheme checks every document with at most shared.Jobs documents in
// flight. It returns early only on context cancellation.
func RunTheme(ctx context.Context, checks []Check, docs []*source.SourceCode, shared *Shared) (*Result, error) {
	if shared == nil {
		shared = &Shared{}
	}
	if shared.Theme == nil {
		shared.Theme = docs
	}
	ctx, span := trace.Start(ctx, trace.ScopeRun, "theme")
	defer span.End("")

	perDoc := make([][]diag.Offense, len(docs))
	perErr := make([]error, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	if shared.Jobs > 0 {
		g.SetLimit(shared.Jobs)
	}
	for i, doc := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			dctx, dspan := trace.Start(gctx, trace.ScopeDocument, "document")
			dspan.WithExtra("uri", doc.URI)
			offs, err := RunAll(dctx, checks, doc, shared)
			dspan.End(fmt.Sprintf("offenses=%d", len(offs)))
			if cerr := gctx.Err(); cerr != nil {
				return cerr
			}
			perDoc[i], perErr[i] = offs, err
			if shared.Progress != nil {
				shared.Progress(doc.URI, len(offs))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{}
	for i := range docs {
		res.Offenses = append(res.Offenses, perDoc[i]...)
		res.Errors = append(res.Errors, checkErrors(perErr[i])...)
	}
	diag.Sort(res.Offenses)
	sort.SliceStable(res.Errors, func(i, j int) bool {
		if res.Errors[i].URI != res.Errors[j].URI {
			return res.Errors[i].URI < res.Errors[j].URI
		}
		return res.Errors[i].Check < res.Errors[j].Check
	})
	return res, nil
}

func checkErrors(err error) []*Error {
	if err == nil {
		return nil
	}
	var out []*Error
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			out = append(out, checkErrors(e)...)
		}
		return out
	}
	var ce *Error
	if errors.As(err, &ce) {
		return []*Error{ce}
	}
	return nil
}
