// Package command turns stored offenses into code actions and executes the
// resulting fix commands as a single workspace edit.
package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"themecheck/internal/diagnostics"
	"themecheck/internal/document"
	"themecheck/internal/fix"
	"themecheck/internal/source"
	"themecheck/internal/trace"
)

const (
	ApplyFixes      = "themeCheck/applyFixes"
	ApplySuggestion = "themeCheck/applySuggestion"
)

// Commands lists the command ids Execute understands.
var Commands = []string{ApplyFixes, ApplySuggestion}

const (
	KindQuickFix = "quickfix"
	KindFixAll   = "source.fixAll"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrBadArguments   = errors.New("bad command arguments")
)

// Command is an invocation the editor sends back through Execute.
type Command struct {
	Title     string `json:"title"`
	Command   string `json:"command"`
	Arguments []any  `json:"arguments,omitempty"`
}

// Action is one code action offered for a selection.
type Action struct {
	Title   string
	Kind    string
	Command Command
	// IDs are the anomalies the action resolves.
	IDs         []int
	IsPreferred bool
}

// Provider reads the document and diagnostics stores. Editor receives the
// edits of executed commands.
type Provider struct {
	Docs   *document.Manager
	Diags  *diagnostics.Manager
	Editor WorkspaceEditor
	Logger *slog.Logger
}

func (p *Provider) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

// CodeActions lists actions for the selection [start, end) of uri: a quick
// fix per fixable anomaly touching the selection, a suggestion action per
// suggestion of such anomalies, and one fix-all action whenever anything in
// the document is fixable.
func (p *Provider) CodeActions(uri string, sel Range) []Action {
	doc, ok := p.Docs.Get(uri)
	if !ok {
		return nil
	}
	st, ok := p.Diags.Get(uri)
	if !ok || st.Version != doc.Version {
		return nil
	}
	start := doc.Offset(sel.Start.Line, sel.Start.Character)
	end := doc.Offset(sel.End.Line, sel.End.Character)
	if end < start {
		start, end = end, start
	}

	var actions []Action
	var fixable []int
	for _, a := range st.Anomalies {
		o := a.Offense
		if o.Fixable() {
			fixable = append(fixable, a.ID)
		}
		if !o.Intersects(start, end) {
			continue
		}
		if o.Fixable() {
			title := fmt.Sprintf("Fix %s: %s", o.Check, o.Message)
			actions = append(actions, Action{
				Title:       title,
				Kind:        KindQuickFix,
				Command:     Command{Title: title, Command: ApplyFixes, Arguments: []any{uri, st.Version, []int{a.ID}}},
				IDs:         []int{a.ID},
				IsPreferred: true,
			})
		}
		for i, s := range o.Suggestions {
			actions = append(actions, Action{
				Title:   s.Message,
				Kind:    KindQuickFix,
				Command: Command{Title: s.Message, Command: ApplySuggestion, Arguments: []any{uri, st.Version, a.ID, i}},
				IDs:     []int{a.ID},
			})
		}
	}
	if len(fixable) > 0 {
		title := "Fix all auto-fixable problems"
		actions = append(actions, Action{
			Title:   title,
			Kind:    KindFixAll,
			Command: Command{Title: title, Command: ApplyFixes, Arguments: []any{uri, st.Version, fixable}},
			IDs:     fixable,
		})
	}
	return actions
}

// Execute decodes args and runs the command. Stale or unknown targets are a
// silent no-op.
func (p *Provider) Execute(ctx context.Context, cmd string, args []json.RawMessage) error {
	switch cmd {
	case ApplyFixes:
		var (
			uri     string
			version int
			ids     []int
		)
		if err := decodeArgs(args, &uri, &version, &ids); err != nil {
			return err
		}
		_, err := p.ApplyFixes(ctx, uri, version, ids)
		return err
	case ApplySuggestion:
		var (
			uri                string
			version, id, index int
		)
		if err := decodeArgs(args, &uri, &version, &id, &index); err != nil {
			return err
		}
		_, err := p.ApplySuggestion(ctx, uri, version, id, index)
		return err
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
	}
}

func decodeArgs(args []json.RawMessage, targets ...any) error {
	if len(args) != len(targets) {
		return fmt.Errorf("%w: expected %d, got %d", ErrBadArguments, len(targets), len(args))
	}
	for i, raw := range args {
		if err := json.Unmarshal(raw, targets[i]); err != nil {
			return fmt.Errorf("%w: argument %d: %v", ErrBadArguments, i, err)
		}
	}
	return nil
}

// ApplyFixes applies the fixes of the anomalies ids as one edit. It reports
// whether an edit was applied.
func (p *Provider) ApplyFixes(ctx context.Context, uri string, version int, ids []int) (bool, error) {
	doc, st, ok := p.current(uri, version)
	if !ok {
		trace.Point(ctx, trace.ScopeDocument, "command:stale", uri)
		return false, nil
	}
	var (
		builders []fix.Builder
		targeted []int
	)
	for _, a := range st.Anomalies {
		if slices.Contains(ids, a.ID) && a.Offense.Fixable() {
			builders = append(builders, a.Offense.Fix)
			targeted = append(targeted, a.ID)
		}
	}
	if len(builders) == 0 {
		return false, nil
	}
	label := "Fix offense"
	if len(targeted) > 1 {
		label = fmt.Sprintf("Fix %d offenses", len(targeted))
	}
	return p.apply(ctx, doc, label, builders, targeted)
}

// ApplySuggestion applies suggestion index of anomaly id.
func (p *Provider) ApplySuggestion(ctx context.Context, uri string, version, id, index int) (bool, error) {
	doc, st, ok := p.current(uri, version)
	if !ok {
		trace.Point(ctx, trace.ScopeDocument, "command:stale", uri)
		return false, nil
	}
	a, ok := st.Find(id)
	if !ok || index < 0 || index >= len(a.Offense.Suggestions) {
		return false, nil
	}
	s := a.Offense.Suggestions[index]
	if s.Fix == nil {
		return false, nil
	}
	return p.apply(ctx, doc, s.Message, []fix.Builder{s.Fix}, []int{id})
}

// current applies the version guard: both stores must hold version.
func (p *Provider) current(uri string, version int) (*source.SourceCode, diagnostics.State, bool) {
	doc, ok := p.Docs.Get(uri)
	if !ok || doc.Version != version {
		return nil, diagnostics.State{}, false
	}
	st, ok := p.Diags.Get(uri)
	if !ok || st.Version != version {
		return nil, diagnostics.State{}, false
	}
	return doc, st, true
}

func (p *Provider) apply(ctx context.Context, doc *source.SourceCode, label string, builders []fix.Builder, ids []int) (bool, error) {
	uri, version := doc.URI, doc.Version
	corrector, err := fix.NewCorrector(doc.Kind, doc.Text)
	if err != nil {
		return false, fmt.Errorf("fix %s: %w", uri, err)
	}
	descs, err := fix.Realize(corrector, builders...)
	if err != nil {
		p.logger().Error("fix rejected", "uri", uri, "ids", ids, "err", err)
		return false, fmt.Errorf("fix %s: %w", uri, err)
	}
	if len(descs) == 0 {
		return false, nil
	}
	edit := WorkspaceEdit{Documents: []DocumentEdit{{
		URI:     uri,
		Version: version,
		Edits:   TextEdits(doc, descs),
	}}}
	if p.Editor == nil {
		return false, errors.New("no workspace editor")
	}
	applied, err := p.Editor.ApplyEdit(ctx, label, edit)
	if err != nil {
		return false, fmt.Errorf("apply edit %s: %w", uri, err)
	}
	if !applied {
		return false, nil
	}
	p.Diags.Prune(uri, version, ids)
	trace.Point(ctx, trace.ScopeDocument, "command:applied", fmt.Sprintf("%s ids=%v", uri, ids))
	return true, nil
}
