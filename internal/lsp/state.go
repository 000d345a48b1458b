package lsp

import (
	"themecheck/internal/check"
	"themecheck/internal/docset"
	"themecheck/internal/source"
)

func (s *Server) setRootLocked(dir string) {
	s.rootDir = dir
	s.root = source.PathToURI(dir)
	s.overlay = docset.NewOverlay(docset.OS{Root: dir})
	for _, doc := range s.docs.Snapshot(s.root) {
		if rel, ok := s.relLocked(doc.URI); ok {
			s.overlay.Set(rel, doc.Text)
		}
	}
}

// relLocked maps uri below the theme root to its relative path.
func (s *Server) relLocked(uri string) (string, bool) {
	if s.root == "" {
		return "", false
	}
	rel := source.RelativePath(s.root, uri)
	return rel, rel != uri
}

func (s *Server) setOverlayLocked(uri, text string) {
	if rel, ok := s.relLocked(uri); ok {
		s.overlay.Set(rel, text)
	}
}

func (s *Server) ignoredLocked(uri string) bool {
	rel, ok := s.relLocked(uri)
	return ok && s.cfg.Ignored(rel)
}

// sharedLocked captures what an analysis needs from the server state.
func (s *Server) sharedLocked() (*check.Shared, []check.Check) {
	return &check.Shared{
		Root:     s.root,
		Theme:    s.docs.Snapshot(s.root),
		FS:       s.overlay,
		Docset:   s.docset,
		Settings: s.enabled.Settings,
		Logger:   s.logger,
	}, s.enabled.Checks
}

func (s *Server) isShuttingDown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdownRequested
}
