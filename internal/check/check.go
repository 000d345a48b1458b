// Package check runs checks over documents.
//
// A Check is a definition: metadata plus a constructor. For every (check,
// document) pair the runtime builds a fresh Instance, so per-document state
// lives in the instance and never leaks across documents. An Instance only
// registers handlers for the node types it cares about; the runtime never
// calls anything it did not register, and the OnStart/OnEnd hooks are
// optional interfaces.
package check

import (
	"context"
	"slices"

	"themecheck/internal/diag"
	"themecheck/internal/source"
	"themecheck/internal/visitor"
)

// SettingSpec describes one configurable setting of a check.
type SettingSpec struct {
	Type        string // boolean | string | number | array
	Default     any
	Description string
}

// Docs is the user-facing documentation of a check.
type Docs struct {
	Description string
	URL         string
	Recommended bool
}

// Meta describes a check.
type Meta struct {
	ID       string
	Name     string
	Severity diag.Severity
	Fixable  bool
	Kinds    []source.Kind
	Schema   map[string]SettingSpec
	Docs     Docs
}

// Supports reports whether the check applies to documents of kind k.
func (m *Meta) Supports(k source.Kind) bool {
	return slices.Contains(m.Kinds, k)
}

// Check is a check definition.
type Check interface {
	Meta() *Meta
	New(c *Context) Instance
}

// Instance is the per-document part of a check.
type Instance interface {
	Handlers() visitor.Handlers
}

// Starter is implemented by instances that need a hook before traversal.
type Starter interface {
	OnStart(ctx context.Context) error
}

// Ender is implemented by instances that report after traversal, typically
// from state accumulated while visiting nodes.
type Ender interface {
	OnEnd(ctx context.Context) error
}

// Funcs is an Instance assembled from optional functions.
type Funcs struct {
	Nodes visitor.Handlers
	Start func(ctx context.Context) error
	End   func(ctx context.Context) error
}

func (f *Funcs) Handlers() visitor.Handlers { return f.Nodes }

func (f *Funcs) OnStart(ctx context.Context) error {
	if f.Start == nil {
		return nil
	}
	return f.Start(ctx)
}

func (f *Funcs) OnEnd(ctx context.Context) error {
	if f.End == nil {
		return nil
	}
	return f.End(ctx)
}

// Definition adapts a constructor function to Check.
type Definition struct {
	M      Meta
	Create func(c *Context) Instance
}

func (d *Definition) Meta() *Meta { return &d.M }

func (d *Definition) New(c *Context) Instance { return d.Create(c) }

type overridden struct {
	Check
	meta Meta
}

func (o *overridden) Meta() *Meta { return &o.meta }

// WithSeverity returns chk reporting at sev instead of its default.
func WithSeverity(chk Check, sev diag.Severity) Check {
	meta := *chk.Meta()
	meta.Severity = sev
	return &overridden{Check: chk, meta: meta}
}

// lifecycle is the total form of an Instance: every hook is callable.
type lifecycle struct {
	handlers visitor.Handlers
	start    func(ctx context.Context) error
	end      func(ctx context.Context) error
}

func noop(context.Context) error { return nil }

func adapt(inst Instance) lifecycle {
	lc := lifecycle{start: noop, end: noop}
	if inst == nil {
		return lc
	}
	lc.handlers = inst.Handlers()
	if s, ok := inst.(Starter); ok {
		lc.start = s.OnStart
	}
	if e, ok := inst.(Ender); ok {
		lc.end = e.OnEnd
	}
	return lc
}
