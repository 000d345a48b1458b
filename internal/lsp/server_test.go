package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"themecheck/internal/check"
	"themecheck/internal/checks"
	"themecheck/internal/command"
	"themecheck/internal/source"
)

const cardText = "{% assign x = 1 %}\n{{ y }}\n"

type testClient struct {
	t        *testing.T
	in       *io.PipeWriter
	msgs     chan *rpcMessage
	backlog  []*rpcMessage
	finished chan struct{}
	runErr   error
	nextID   int
}

func startServer(t *testing.T, opts ServerOptions) *testClient {
	t.Helper()
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	if opts.Debounce == 0 {
		opts.Debounce = time.Millisecond
	}
	if opts.Checks == nil {
		opts.Checks = []check.Check{checks.UnusedAssign}
	}
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := NewServer(inR, outW, opts)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	c := &testClient{
		t:        t,
		in:       inW,
		msgs:     make(chan *rpcMessage, 1024),
		finished: make(chan struct{}),
	}
	go func() {
		c.runErr = srv.Run(context.Background())
		_ = outW.Close()
		close(c.finished)
	}()
	go func() {
		r := bufio.NewReader(outR)
		for {
			payload, err := readMessage(r)
			if err != nil {
				close(c.msgs)
				return
			}
			msg := new(rpcMessage)
			if json.Unmarshal(payload, msg) == nil {
				c.msgs <- msg
			}
		}
	}()
	t.Cleanup(func() {
		_ = inW.Close()
		select {
		case <-c.finished:
		case <-time.After(5 * time.Second):
			t.Errorf("server did not stop")
		}
	})
	return c
}

func (c *testClient) write(msg map[string]any) {
	c.t.Helper()
	msg["jsonrpc"] = "2.0"
	payload, err := json.Marshal(msg)
	if err != nil {
		c.t.Fatalf("marshal: %v", err)
	}
	if err := writeMessage(c.in, payload); err != nil {
		c.t.Fatalf("write: %v", err)
	}
}

func (c *testClient) notify(method string, params any) {
	c.t.Helper()
	c.write(map[string]any{"method": method, "params": params})
}

func (c *testClient) request(method string, params any) int {
	c.t.Helper()
	c.nextID++
	c.write(map[string]any{"id": c.nextID, "method": method, "params": params})
	return c.nextID
}

func (c *testClient) waitFor(what string, match func(*rpcMessage) bool) *rpcMessage {
	c.t.Helper()
	for i, msg := range c.backlog {
		if match(msg) {
			c.backlog = append(c.backlog[:i], c.backlog[i+1:]...)
			return msg
		}
	}
	timeout := time.After(5 * time.Second)
	for {
		select {
		case msg, ok := <-c.msgs:
			if !ok {
				c.t.Fatalf("connection closed while waiting for %s", what)
			}
			if match(msg) {
				return msg
			}
			c.backlog = append(c.backlog, msg)
		case <-timeout:
			c.t.Fatalf("timed out waiting for %s", what)
		}
	}
}

func (c *testClient) response(id int) *rpcMessage {
	c.t.Helper()
	want := strconv.Itoa(id)
	return c.waitFor("response "+want, func(m *rpcMessage) bool {
		return m.Method == "" && string(m.ID) == want
	})
}

func (c *testClient) publish(uri string, match func(publishDiagnosticsParams) bool) publishDiagnosticsParams {
	c.t.Helper()
	var out publishDiagnosticsParams
	c.waitFor("diagnostics for "+uri, func(m *rpcMessage) bool {
		if m.Method != "textDocument/publishDiagnostics" {
			return false
		}
		var p publishDiagnosticsParams
		if json.Unmarshal(m.Params, &p) != nil || p.URI != uri || !match(p) {
			return false
		}
		out = p
		return true
	})
	return out
}

func atVersion(v, count int) func(publishDiagnosticsParams) bool {
	return func(p publishDiagnosticsParams) bool {
		return p.Version != nil && *p.Version == v && len(p.Diagnostics) == count
	}
}

func (c *testClient) initialize(dir string) initializeResult {
	c.t.Helper()
	id := c.request("initialize", map[string]any{"rootUri": source.PathToURI(dir)})
	resp := c.response(id)
	if resp.Error != nil {
		c.t.Fatalf("initialize: %v", resp.Error)
	}
	var result initializeResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		c.t.Fatalf("decode initialize: %v", err)
	}
	c.notify("initialized", map[string]any{})
	return result
}

func (c *testClient) open(uri, text string, version int) {
	c.t.Helper()
	c.notify("textDocument/didOpen", didOpenTextDocumentParams{
		TextDocument: textDocumentItem{URI: uri, LanguageID: "liquid", Version: version, Text: text},
	})
}

func (c *testClient) codeActions(uri string, only []string) []codeAction {
	c.t.Helper()
	id := c.request("textDocument/codeAction", codeActionParams{
		TextDocument: textDocumentIdentifier{URI: uri},
		Range:        lspRange{},
		Context:      codeActionContext{Only: only},
	})
	resp := c.response(id)
	if resp.Error != nil {
		c.t.Fatalf("codeAction: %v", resp.Error)
	}
	var actions []codeAction
	if err := json.Unmarshal(resp.Result, &actions); err != nil {
		c.t.Fatalf("decode actions: %v", err)
	}
	return actions
}

func (c *testClient) execute(cmd command.Command) int {
	c.t.Helper()
	args := make([]json.RawMessage, len(cmd.Arguments))
	for i, a := range cmd.Arguments {
		raw, err := json.Marshal(a)
		if err != nil {
			c.t.Fatalf("marshal argument: %v", err)
		}
		args[i] = raw
	}
	return c.request("workspace/executeCommand", executeCommandParams{Command: cmd.Command, Arguments: args})
}

func themeFile(t *testing.T, rel string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "locales"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	return dir, source.PathToURI(filepath.Join(dir, filepath.FromSlash(rel)))
}

func TestInitializeCapabilities(t *testing.T) {
	c := startServer(t, ServerOptions{})
	dir, _ := themeFile(t, "snippets/card.liquid")
	result := c.initialize(dir)
	caps := result.Capabilities
	if caps.TextDocumentSync.Change != 2 || !caps.TextDocumentSync.OpenClose {
		t.Fatalf("unexpected sync options %+v", caps.TextDocumentSync)
	}
	if caps.CodeActionProvider == nil || len(caps.CodeActionProvider.CodeActionKinds) != 2 {
		t.Fatalf("unexpected code action options %+v", caps.CodeActionProvider)
	}
	if caps.ExecuteCommandProvider == nil || caps.ExecuteCommandProvider.Commands[0] != command.ApplyFixes {
		t.Fatalf("unexpected command options %+v", caps.ExecuteCommandProvider)
	}
	if result.ServerInfo.Name != "themecheck" {
		t.Fatalf("unexpected server info %+v", result.ServerInfo)
	}
}

func TestPublishCodeActionAndFixAll(t *testing.T) {
	c := startServer(t, ServerOptions{})
	dir, uri := themeFile(t, "snippets/card.liquid")
	c.initialize(dir)
	c.open(uri, cardText, 1)

	pub := c.publish(uri, atVersion(1, 1))
	d := pub.Diagnostics[0]
	if d.Code != "UnusedAssign" || d.Severity != severityWarning || d.Source != "themecheck" {
		t.Fatalf("unexpected diagnostic %+v", d)
	}
	if d.Range.End.Character != 18 || d.Data.ID != 0 || !d.Data.Fixable {
		t.Fatalf("unexpected diagnostic range or data %+v", d)
	}

	actions := c.codeActions(uri, nil)
	if len(actions) != 2 {
		t.Fatalf("expected a quick fix and a fix-all, got %+v", actions)
	}
	if actions[0].Kind != command.KindQuickFix || !actions[0].IsPreferred || len(actions[0].Diagnostics) != 1 {
		t.Fatalf("unexpected quick fix %+v", actions[0])
	}
	fixAll := actions[1]
	if fixAll.Kind != command.KindFixAll || fixAll.Command.Command != command.ApplyFixes {
		t.Fatalf("unexpected fix-all %+v", fixAll)
	}
	if only := c.codeActions(uri, []string{"source"}); len(only) != 1 || only[0].Kind != command.KindFixAll {
		t.Fatalf("only filter not applied: %+v", only)
	}

	id := c.execute(fixAll.Command)
	req := c.waitFor("applyEdit", func(m *rpcMessage) bool { return m.Method == "workspace/applyEdit" })
	var params applyWorkspaceEditParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		t.Fatalf("decode applyEdit: %v", err)
	}
	if len(params.Edit.DocumentChanges) != 1 {
		t.Fatalf("expected one document edit, got %+v", params.Edit)
	}
	change := params.Edit.DocumentChanges[0]
	if change.TextDocument.URI != uri || change.TextDocument.Version != 1 || len(change.Edits) != 1 {
		t.Fatalf("unexpected document edit %+v", change)
	}
	edit := change.Edits[0]
	want := lspRange{Start: position{Line: 0, Character: 0}, End: position{Line: 1, Character: 0}}
	if edit.Range != want || edit.NewText != "" {
		t.Fatalf("unexpected text edit %+v", edit)
	}
	c.write(map[string]any{"id": json.RawMessage(req.ID), "result": applyWorkspaceEditResult{Applied: true}})

	if resp := c.response(id); resp.Error != nil {
		t.Fatalf("executeCommand: %v", resp.Error)
	}
	c.publish(uri, atVersion(1, 0))
	if actions := c.codeActions(uri, nil); len(actions) != 0 {
		t.Fatalf("fixed anomaly still offered: %+v", actions)
	}
}

func TestStaleCommandIsNoop(t *testing.T) {
	c := startServer(t, ServerOptions{})
	dir, uri := themeFile(t, "snippets/card.liquid")
	c.initialize(dir)
	c.open(uri, cardText, 1)
	c.publish(uri, atVersion(1, 1))
	actions := c.codeActions(uri, nil)

	c.notify("textDocument/didChange", didChangeTextDocumentParams{
		TextDocument: versionedTextDocumentIdentifier{URI: uri, Version: 2},
		ContentChanges: []textDocumentContentChangeEvent{{
			Range: &lspRange{Start: position{Line: 1, Character: 0}, End: position{Line: 1, Character: 0}},
			Text:  "{{ x }}",
		}},
	})
	id := c.execute(actions[0].Command)
	if resp := c.response(id); resp.Error != nil {
		t.Fatalf("executeCommand: %v", resp.Error)
	}
	for _, m := range c.backlog {
		if m.Method == "workspace/applyEdit" {
			t.Fatalf("stale command produced an edit")
		}
	}
	c.publish(uri, atVersion(2, 0))
}

func TestDidCloseClearsDiagnostics(t *testing.T) {
	c := startServer(t, ServerOptions{})
	dir, uri := themeFile(t, "snippets/card.liquid")
	c.initialize(dir)
	c.open(uri, cardText, 1)
	c.publish(uri, atVersion(1, 1))

	c.notify("textDocument/didClose", didCloseTextDocumentParams{TextDocument: textDocumentIdentifier{URI: uri}})
	c.publish(uri, func(p publishDiagnosticsParams) bool { return p.Version == nil && len(p.Diagnostics) == 0 })
}

func TestConfigurationExcludesCheck(t *testing.T) {
	c := startServer(t, ServerOptions{})
	dir, uri := themeFile(t, "snippets/card.liquid")
	c.initialize(dir)
	c.open(uri, cardText, 1)
	c.publish(uri, atVersion(1, 1))

	c.notify("workspace/didChangeConfiguration", map[string]any{
		"settings": map[string]any{"themeCheck": map[string]any{"exclude": []string{"UnusedAssign"}}},
	})
	c.publish(uri, atVersion(1, 0))
}

func TestUnsupportedDocumentIgnored(t *testing.T) {
	c := startServer(t, ServerOptions{})
	dir, uri := themeFile(t, "assets/app.js")
	c.initialize(dir)
	c.open(uri, "let x = 1", 1)
	if actions := c.codeActions(uri, nil); len(actions) != 0 {
		t.Fatalf("unexpected actions for unsupported document: %+v", actions)
	}
}

func TestUnknownMethod(t *testing.T) {
	c := startServer(t, ServerOptions{})
	id := c.request("textDocument/hover", map[string]any{})
	resp := c.response(id)
	if resp.Error == nil || resp.Error.Code != codeMethodNotFound {
		t.Fatalf("expected method not found, got %+v", resp)
	}
}

func TestShutdownAndExit(t *testing.T) {
	c := startServer(t, ServerOptions{})
	id := c.request("shutdown", nil)
	if resp := c.response(id); resp.Error != nil {
		t.Fatalf("shutdown: %v", resp.Error)
	}
	id = c.request("textDocument/codeAction", map[string]any{})
	if resp := c.response(id); resp.Error == nil || resp.Error.Code != codeInvalidRequest {
		t.Fatalf("expected requests to be refused after shutdown, got %+v", resp)
	}
	c.notify("exit", nil)
	<-c.finished
	if !errors.Is(c.runErr, ErrExit) {
		t.Fatalf("expected ErrExit, got %v", c.runErr)
	}
}

func TestExitWithoutShutdown(t *testing.T) {
	c := startServer(t, ServerOptions{})
	c.notify("exit", nil)
	<-c.finished
	if !errors.Is(c.runErr, ErrExitWithoutShutdown) {
		t.Fatalf("expected ErrExitWithoutShutdown, got %v", c.runErr)
	}
}
