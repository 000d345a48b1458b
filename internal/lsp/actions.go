package lsp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"themecheck/internal/command"
)

func (s *Server) handleCodeAction(msg *rpcMessage) error {
	var params codeActionParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, codeInvalidParams, "invalid params")
	}
	uri := params.TextDocument.URI
	actions := s.provider.CodeActions(uri, params.Range)
	st, _ := s.diags.Get(uri)

	out := make([]codeAction, 0, len(actions))
	for _, a := range actions {
		if !kindAllowed(a.Kind, params.Context.Only) {
			continue
		}
		ca := codeAction{
			Title:       a.Title,
			Kind:        a.Kind,
			Command:     a.Command,
			IsPreferred: a.IsPreferred,
		}
		for _, id := range a.IDs {
			if an, ok := st.Find(id); ok {
				ca.Diagnostics = append(ca.Diagnostics, toDiagnostic(an))
			}
		}
		out = append(out, ca)
	}
	return s.sendResponse(msg.ID, out)
}

// kindAllowed applies the client's `only` filter; "source" admits
// "source.fixAll".
func kindAllowed(kind string, only []string) bool {
	if len(only) == 0 {
		return true
	}
	for _, k := range only {
		if kind == k || strings.HasPrefix(kind, k+".") {
			return true
		}
	}
	return false
}

// handleExecuteCommand runs the command off the read loop: applying an edit
// waits for the client's workspace/applyEdit response, which Run delivers.
func (s *Server) handleExecuteCommand(ctx context.Context, msg *rpcMessage) error {
	var params executeCommandParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, codeInvalidParams, "invalid params")
	}
	id := msg.ID
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.provider.Execute(ctx, params.Command, params.Arguments); err != nil {
			s.logger.Error("command failed", "command", params.Command, "err", err)
			code := codeInternalError
			if errors.Is(err, command.ErrUnknownCommand) || errors.Is(err, command.ErrBadArguments) {
				code = codeInvalidParams
			}
			if sendErr := s.sendError(id, code, err.Error()); sendErr != nil {
				s.logf("failed to send error: %v", sendErr)
			}
			return
		}
		if uri := commandURI(params.Arguments); uri != "" {
			if err := s.publish(uri); err != nil {
				s.logf("failed to publish diagnostics: %v", err)
			}
		}
		if err := s.sendResponse(id, nil); err != nil {
			s.logf("failed to send response: %v", err)
		}
	}()
	return nil
}

// commandURI is the document a fix command targets: its first argument.
func commandURI(args []json.RawMessage) string {
	if len(args) == 0 {
		return ""
	}
	var uri string
	if err := json.Unmarshal(args[0], &uri); err != nil {
		return ""
	}
	return uri
}

// ApplyEdit sends workspace/applyEdit and reports whether the client applied
// it.
func (s *Server) ApplyEdit(ctx context.Context, label string, edit command.WorkspaceEdit) (bool, error) {
	params := applyWorkspaceEditParams{Label: label}
	for _, d := range edit.Documents {
		params.Edit.DocumentChanges = append(params.Edit.DocumentChanges, textDocumentEdit{
			TextDocument: optionalVersionedTextDocumentIdentifier{URI: d.URI, Version: d.Version},
			Edits:        d.Edits,
		})
	}
	var result applyWorkspaceEditResult
	if err := s.call(ctx, "workspace/applyEdit", params, &result); err != nil {
		return false, err
	}
	if !result.Applied && result.FailureReason != "" {
		s.logf("edit %q rejected: %s", label, result.FailureReason)
	}
	return result.Applied, nil
}
