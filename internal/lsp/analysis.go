package lsp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"themecheck/internal/check"
	"themecheck/internal/diag"
	"themecheck/internal/diagnostics"
	"themecheck/internal/source"
	"themecheck/internal/trace"
)

type pendingAnalysis struct {
	timer  *time.Timer
	cancel context.CancelFunc
}

// scheduleLocked (re)starts the debounce window of uri, cancelling any
// analysis of it still in flight.
func (s *Server) scheduleLocked(uri string) {
	s.cancelLocked(uri)
	ctx, cancel := context.WithCancel(s.baseCtx)
	p := &pendingAnalysis{cancel: cancel}
	p.timer = time.AfterFunc(s.debounce, func() {
		s.analyze(ctx, uri, p)
	})
	s.pending[uri] = p
}

func (s *Server) cancelLocked(uri string) {
	if p := s.pending[uri]; p != nil {
		p.timer.Stop()
		p.cancel()
		delete(s.pending, uri)
	}
}

// scheduleDependentsLocked re-checks open locale files when another locale
// file changes, since translations are compared across them.
func (s *Server) scheduleDependentsLocked(uri string) {
	rel, ok := s.relLocked(uri)
	if !ok || !isLocale(rel) {
		return
	}
	for _, doc := range s.docs.Snapshot(s.root) {
		if doc.URI == uri {
			continue
		}
		if other, ok := s.relLocked(doc.URI); ok && isLocale(other) {
			s.scheduleLocked(doc.URI)
		}
	}
}

func isLocale(rel string) bool {
	return strings.HasPrefix(rel, "locales/") && source.KindForURI(rel) == source.KindData
}

func (s *Server) rescheduleAllLocked() {
	for _, doc := range s.docs.Snapshot("") {
		s.scheduleLocked(doc.URI)
	}
}

func (s *Server) stopAnalyses() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for uri := range s.pending {
		s.cancelLocked(uri)
	}
}

// analyze runs the enabled checks over the current version of uri and
// commits the result only if that version is still current.
func (s *Server) analyze(ctx context.Context, uri string, p *pendingAnalysis) {
	defer func() {
		s.mu.Lock()
		if s.pending[uri] == p {
			delete(s.pending, uri)
		}
		s.mu.Unlock()
		p.cancel()
	}()

	s.mu.Lock()
	doc, ok := s.docs.Get(uri)
	shared, checks := s.sharedLocked()
	ignored := s.ignoredLocked(uri)
	s.mu.Unlock()
	if !ok {
		return
	}

	ctx, span := trace.Start(ctx, trace.ScopeDocument, "lsp:analyze")
	span.WithExtra("uri", uri)
	var offenses []diag.Offense
	if !ignored {
		var err error
		offenses, err = check.RunAll(ctx, checks, doc, shared)
		if ctx.Err() != nil {
			span.End("canceled")
			return
		}
		if err != nil {
			s.logger.Warn("check failures", "uri", uri, "version", doc.Version, "err", err)
		}
	}
	span.End(fmt.Sprintf("offenses=%d", len(offenses)))

	s.mu.Lock()
	cur, ok := s.docs.Get(uri)
	if !ok || cur.Version != doc.Version || cur.Text != doc.Text {
		s.mu.Unlock()
		trace.Point(ctx, trace.ScopeDocument, "lsp:discard", fmt.Sprintf("%s v%d", uri, doc.Version))
		return
	}
	s.diags.Set(uri, doc.Version, offenses)
	s.mu.Unlock()

	if err := s.publish(uri); err != nil {
		s.logf("failed to publish diagnostics: %v", err)
	}
}

// publish sends the stored diagnostics of uri.
func (s *Server) publish(uri string) error {
	st, ok := s.diags.Get(uri)
	if !ok {
		return nil
	}
	s.mu.Lock()
	limit := s.maxDiagnostics
	s.mu.Unlock()

	list := make([]lspDiagnostic, 0, len(st.Anomalies))
	for _, a := range st.Anomalies {
		if limit > 0 && len(list) >= limit {
			break
		}
		list = append(list, toDiagnostic(a))
	}

	s.mu.Lock()
	if len(list) > 0 {
		s.published[uri] = struct{}{}
	} else {
		delete(s.published, uri)
	}
	s.mu.Unlock()

	version := st.Version
	return s.sendPublish(uri, &version, list)
}

func toDiagnostic(a diagnostics.Anomaly) lspDiagnostic {
	o := a.Offense
	return lspDiagnostic{
		Range: lspRange{
			Start: position{Line: o.Start.Line, Character: o.Start.Character},
			End:   position{Line: o.End.Line, Character: o.End.Character},
		},
		Severity: toSeverity(o.Severity),
		Code:     o.Check,
		Source:   "themecheck",
		Message:  o.Message,
		Data:     diagnosticData{ID: a.ID, Fixable: o.Fixable()},
	}
}

func toSeverity(sev diag.Severity) int {
	switch sev {
	case diag.SevError:
		return severityError
	case diag.SevWarning:
		return severityWarning
	default:
		return severityInformation
	}
}
