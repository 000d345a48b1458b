// Package lsp serves theme diagnostics and fix commands over stdio JSON-RPC.
package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"themecheck/internal/check"
	"themecheck/internal/command"
	"themecheck/internal/config"
	"themecheck/internal/diagnostics"
	"themecheck/internal/docset"
	"themecheck/internal/document"
	"themecheck/internal/source"
	"themecheck/internal/version"
)

var (
	// ErrExit signals a graceful shutdown after receiving "exit".
	ErrExit = errors.New("lsp exit")
	// ErrExitWithoutShutdown signals an "exit" without a preceding "shutdown".
	ErrExitWithoutShutdown = errors.New("lsp exit without shutdown")
)

// ServerOptions configures LSP server behavior.
type ServerOptions struct {
	Debounce time.Duration
	// Config selects and tunes checks; nil means the defaults.
	Config *config.Config
	// Checks are the registered checks Config resolves against.
	Checks []check.Check
	Docset docset.Provider
	// MaxDiagnostics caps the diagnostics published per document.
	MaxDiagnostics int
	Logger         *slog.Logger
}

// Server handles stdio JSON-RPC for themecheck.
type Server struct {
	in     *bufio.Reader
	out    *bufio.Writer
	sendMu sync.Mutex
	mu     sync.Mutex

	docs     *document.Manager
	diags    *diagnostics.Manager
	provider *command.Provider
	overlay  *docset.Overlay

	cfg       *config.Config
	available []check.Check
	selection config.Selection
	enabled   *config.Resolved
	docset    docset.Provider

	rootDir           string
	root              string
	shutdownRequested bool
	debounce          time.Duration
	pending           map[string]*pendingAnalysis
	published         map[string]struct{}
	maxDiagnostics    int
	baseCtx           context.Context
	logger            *slog.Logger
	traceLSP          bool

	nextID atomic.Int64
	calls  map[int64]chan *rpcMessage
	wg     sync.WaitGroup
}

var _ command.WorkspaceEditor = (*Server)(nil)

// NewServer constructs a new LSP server.
func NewServer(in io.Reader, out io.Writer, opts ServerOptions) (*Server, error) {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}
	maxDiagnostics := opts.MaxDiagnostics
	if maxDiagnostics <= 0 {
		maxDiagnostics = 100
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	enabled, err := cfg.Resolve(opts.Checks, config.Selection{})
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	provider := opts.Docset
	if provider == nil {
		provider = &docset.Builtin{}
	}
	s := &Server{
		in:             bufio.NewReader(in),
		out:            bufio.NewWriter(out),
		docs:           document.NewManager(),
		diags:          diagnostics.NewManager(),
		overlay:        docset.NewOverlay(nil),
		cfg:            cfg,
		available:      opts.Checks,
		enabled:        enabled,
		docset:         provider,
		debounce:       debounce,
		pending:        make(map[string]*pendingAnalysis),
		published:      make(map[string]struct{}),
		maxDiagnostics: maxDiagnostics,
		baseCtx:        context.Background(),
		logger:         logger.With("component", "lsp"),
		calls:          make(map[int64]chan *rpcMessage),
	}
	s.provider = &command.Provider{Docs: s.docs, Diags: s.diags, Editor: s, Logger: s.logger}
	return s, nil
}

// Run serves LSP requests until exit or end of input.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		s.stopAnalyses()
		s.wg.Wait()
	}()
	s.mu.Lock()
	s.baseCtx = ctx
	s.mu.Unlock()

	for {
		payload, err := readMessage(s.in)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		msg := new(rpcMessage)
		if err := json.Unmarshal(payload, msg); err != nil {
			s.logf("failed to parse message: %v", err)
			continue
		}
		if msg.Method == "" {
			if len(msg.ID) > 0 {
				s.resolveCall(msg)
			}
			continue
		}
		if err := s.handleMessage(ctx, msg); err != nil {
			return err
		}
	}
}

func (s *Server) handleMessage(ctx context.Context, msg *rpcMessage) error {
	if msg.Method != "exit" && s.isShuttingDown() {
		if len(msg.ID) > 0 {
			return s.sendError(msg.ID, codeInvalidRequest, "server is shutting down")
		}
		return nil
	}
	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "initialized":
		return nil
	case "shutdown":
		return s.handleShutdown(msg)
	case "exit":
		if s.isShuttingDown() {
			return ErrExit
		}
		return ErrExitWithoutShutdown
	case "workspace/didChangeConfiguration":
		return s.handleDidChangeConfiguration(msg)
	case "textDocument/didOpen":
		return s.handleDidOpen(msg)
	case "textDocument/didChange":
		return s.handleDidChange(msg)
	case "textDocument/didSave":
		return s.handleDidSave(msg)
	case "textDocument/didClose":
		return s.handleDidClose(msg)
	case "textDocument/codeAction":
		return s.handleCodeAction(msg)
	case "workspace/executeCommand":
		return s.handleExecuteCommand(ctx, msg)
	default:
		if len(msg.ID) > 0 {
			return s.sendError(msg.ID, codeMethodNotFound, "method not found")
		}
		return nil
	}
}

func (s *Server) handleInitialize(msg *rpcMessage) error {
	var params initializeParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, codeInvalidParams, "invalid params")
		}
	}
	root := ""
	if params.RootURI != "" {
		root = source.URIToPath(params.RootURI)
	}
	if root == "" && params.RootPath != "" {
		root = params.RootPath
	}
	if root == "" && len(params.WorkspaceFolders) > 0 {
		root = source.URIToPath(params.WorkspaceFolders[0].URI)
	}
	if root != "" {
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
		s.mu.Lock()
		s.setRootLocked(root)
		s.mu.Unlock()
	}
	if err := s.applySettings(params.InitializationOptions); err != nil {
		s.logf("initializationOptions: %v", err)
	}

	result := initializeResult{
		Capabilities: serverCapabilities{
			TextDocumentSync: textDocumentSyncOptions{
				OpenClose: true,
				Change:    2,
				Save: saveOptions{
					IncludeText: true,
				},
			},
			CodeActionProvider: &codeActionOptions{
				CodeActionKinds: []string{command.KindQuickFix, command.KindFixAll},
			},
			ExecuteCommandProvider: &executeCommandOptions{
				Commands: command.Commands,
			},
		},
		ServerInfo: serverInfo{Name: "themecheck", Version: version.Version},
	}
	return s.sendResponse(msg.ID, result)
}

func (s *Server) handleShutdown(msg *rpcMessage) error {
	s.mu.Lock()
	s.shutdownRequested = true
	s.mu.Unlock()
	s.stopAnalyses()
	return s.sendResponse(msg.ID, nil)
}

func (s *Server) handleDidOpen(msg *rpcMessage) error {
	var params didOpenTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.logf("didOpen: %v", err)
		return nil
	}
	doc := params.TextDocument
	if doc.URI == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.root == "" {
		if dir := findThemeRoot(source.URIToPath(doc.URI)); dir != "" {
			s.setRootLocked(dir)
		}
	}
	if !s.docs.Open(doc.URI, doc.Text, doc.Version) {
		return nil
	}
	s.setOverlayLocked(doc.URI, doc.Text)
	s.scheduleLocked(doc.URI)
	s.scheduleDependentsLocked(doc.URI)
	return nil
}

func (s *Server) handleDidChange(msg *rpcMessage) error {
	var params didChangeTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.logf("didChange: %v", err)
		return nil
	}
	uri := params.TextDocument.URI
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.docs.Get(uri)
	if !ok {
		return nil
	}
	text := applyChanges(prev.Text, params.ContentChanges)
	s.docs.Change(uri, text, params.TextDocument.Version)
	s.setOverlayLocked(uri, text)
	if s.traceLSP {
		s.logf("didChange: uri=%s version=%d->%d", uri, prev.Version, params.TextDocument.Version)
	}
	s.scheduleLocked(uri)
	s.scheduleDependentsLocked(uri)
	return nil
}

func (s *Server) handleDidSave(msg *rpcMessage) error {
	var params didSaveTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.logf("didSave: %v", err)
		return nil
	}
	uri := params.TextDocument.URI
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.docs.Get(uri)
	if !ok {
		return nil
	}
	if params.Text != nil && *params.Text != prev.Text {
		s.docs.Change(uri, *params.Text, prev.Version)
		s.setOverlayLocked(uri, *params.Text)
	}
	s.scheduleLocked(uri)
	s.scheduleDependentsLocked(uri)
	return nil
}

func (s *Server) handleDidClose(msg *rpcMessage) error {
	var params didCloseTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.logf("didClose: %v", err)
		return nil
	}
	uri := params.TextDocument.URI
	s.mu.Lock()
	s.cancelLocked(uri)
	s.docs.Close(uri)
	s.diags.Delete(uri)
	if rel, ok := s.relLocked(uri); ok {
		s.overlay.Delete(rel)
	}
	_, hadDiagnostics := s.published[uri]
	delete(s.published, uri)
	s.mu.Unlock()
	if hadDiagnostics {
		if err := s.sendPublish(uri, nil, nil); err != nil {
			s.logf("failed to clear diagnostics: %v", err)
		}
	}
	return nil
}

func (s *Server) sendResponse(id json.RawMessage, result any) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result":  result,
	}
	return s.send(msg)
}

func (s *Server) sendError(id json.RawMessage, code int, message string) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"error": rpcError{
			Code:    code,
			Message: message,
		},
	}
	return s.send(msg)
}

func (s *Server) sendPublish(uri string, version *int, list []lspDiagnostic) error {
	if list == nil {
		list = []lspDiagnostic{}
	}
	msg := map[string]any{
		"jsonrpc": "2.0",
		"method":  "textDocument/publishDiagnostics",
		"params": publishDiagnosticsParams{
			URI:         uri,
			Version:     version,
			Diagnostics: list,
		},
	}
	return s.send(msg)
}

func (s *Server) send(msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if err := writeMessage(s.out, payload); err != nil {
		return err
	}
	return s.out.Flush()
}

// call sends a request to the client and waits for its response, which
// Run routes back through resolveCall.
func (s *Server) call(ctx context.Context, method string, params, result any) error {
	id := s.nextID.Add(1)
	ch := make(chan *rpcMessage, 1)
	s.mu.Lock()
	s.calls[id] = ch
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.calls, id)
		s.mu.Unlock()
	}()

	err := s.send(map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
		"params":  params,
	})
	if err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case resp := <-ch:
		if resp.Error != nil {
			return fmt.Errorf("%s: %w", method, resp.Error)
		}
		if result != nil && len(resp.Result) > 0 {
			return json.Unmarshal(resp.Result, result)
		}
		return nil
	}
}

func (s *Server) resolveCall(msg *rpcMessage) {
	var id int64
	if err := json.Unmarshal(msg.ID, &id); err != nil {
		s.logf("response with unexpected id %s", msg.ID)
		return
	}
	s.mu.Lock()
	ch := s.calls[id]
	s.mu.Unlock()
	if ch == nil {
		s.logf("response to unknown request %d", id)
		return
	}
	select {
	case ch <- msg:
	default:
	}
}

func (s *Server) logf(format string, args ...any) {
	s.logger.Info(fmt.Sprintf(format, args...))
}
