package lsp

import (
	"encoding/json"
	"fmt"

	"themecheck/internal/config"
)

func (s *Server) handleDidChangeConfiguration(msg *rpcMessage) error {
	if len(msg.Params) == 0 {
		return nil
	}
	var params didChangeConfigurationParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil
	}
	if err := s.applySettings(params.Settings); err != nil {
		s.logf("didChangeConfiguration: %v", err)
	}
	return nil
}

// applySettings re-resolves the enabled checks and re-checks every open
// document. Invalid settings leave the current state untouched.
func (s *Server) applySettings(raw json.RawMessage) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var settings lspSettings
	if err := json.Unmarshal(raw, &settings); err != nil {
		return fmt.Errorf("decode settings: %w", err)
	}
	tc := settings.ThemeCheck
	sel := config.Selection{Only: tc.Only, Exclude: tc.Exclude}

	s.mu.Lock()
	defer s.mu.Unlock()
	enabled, err := s.cfg.Resolve(s.available, sel)
	if err != nil {
		return err
	}
	s.selection = sel
	s.enabled = enabled
	if tc.MaxDiagnostics > 0 {
		s.maxDiagnostics = tc.MaxDiagnostics
	}
	if tc.Trace != nil {
		s.traceLSP = *tc.Trace
	}
	s.rescheduleAllLocked()
	return nil
}
