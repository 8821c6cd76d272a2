// Package lsp serves lenses to editors over the Language Server Protocol.
//
// Lenses are sent in two phases. textDocument/codeLens returns every match
// with the resolution already cached, or without a command if none is.
// codeLens/resolve starts the lens request and returns the pending lens.
// When requests complete the server sends workspace/codeLens/refresh so the
// editor asks again.
package lsp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	logging "github.com/ipfs/go-log/v2"
	"github.com/restlens/go-restlens/config"
	"github.com/restlens/go-restlens/document"
	"github.com/restlens/go-restlens/lens"
	"github.com/restlens/go-restlens/model"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"
)

var log = logging.Logger("restlens/lsp")

// Name is the server name reported to editors.
const Name = "restlens"

const (
	methodShowMessage        = "window/showMessage"
	methodShowMessageRequest = "window/showMessageRequest"
	methodShowDocument       = "window/showDocument"
	methodCodeLensRefresh    = "workspace/codeLens/refresh"
)

// Server is a lens language server.
type Server struct {
	lenses  *lens.Provider
	store   *config.Store
	docs    *document.Store
	actions *Actions
	version string
	handler protocol.Handler

	lock        sync.Mutex
	conn        *glsp.Context
	stopRefresh context.CancelFunc
}

// NewServer creates a language server that serves lenses from lenses and
// updates store from editor settings.
func NewServer(lenses *lens.Provider, store *config.Store, version string) *Server {
	s := &Server{
		lenses:  lenses,
		store:   store,
		docs:    document.NewStore(),
		version: version,
	}
	s.actions = NewActions(&editorClient{server: s}, lenses)
	s.handler = protocol.Handler{
		Initialize:                      s.initialize,
		Initialized:                     s.initialized,
		Shutdown:                        s.shutdown,
		SetTrace:                        s.setTrace,
		TextDocumentDidOpen:             s.didOpen,
		TextDocumentDidChange:           s.didChange,
		TextDocumentDidClose:            s.didClose,
		TextDocumentCodeLens:            s.codeLens,
		CodeLensResolve:                 s.codeLensResolve,
		WorkspaceExecuteCommand:         s.executeCommand,
		WorkspaceDidChangeConfiguration: s.didChangeConfiguration,
	}
	return s
}

// Handler returns the protocol handler.
func (s *Server) Handler() *protocol.Handler {
	return &s.handler
}

// RunStdio serves one editor over stdin and stdout until the connection
// closes.
func (s *Server) RunStdio() error {
	defer s.stopForwarding()
	return server.NewServer(&s.handler, Name, false).RunStdio()
}

func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	s.setConn(ctx)

	if params.InitializationOptions != nil {
		s.applySettings(params.InitializationOptions)
	}

	capabilities := s.handler.CreateServerCapabilities()
	openClose := true
	syncKind := protocol.TextDocumentSyncKindIncremental
	capabilities.TextDocumentSync = protocol.TextDocumentSyncOptions{
		OpenClose: &openClose,
		Change:    &syncKind,
	}
	resolveProvider := true
	capabilities.CodeLensProvider = &protocol.CodeLensOptions{
		ResolveProvider: &resolveProvider,
	}
	capabilities.ExecuteCommandProvider = &protocol.ExecuteCommandOptions{
		Commands: Commands,
	}

	log.Infow("Initialized", "providers", len(s.store.All()))
	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    Name,
			Version: &s.version,
		},
	}, nil
}

func (s *Server) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	s.setConn(ctx)
	s.startForwarding()
	return nil
}

func (s *Server) shutdown(ctx *glsp.Context) error {
	s.stopForwarding()
	protocol.SetTraceValue(protocol.TraceValueOff)
	return nil
}

func (s *Server) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (s *Server) didOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	item := params.TextDocument
	s.docs.Open(string(item.URI), int64(item.Version), item.Text)
	return nil
}

func (s *Server) didChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	changes, err := toChanges(params.ContentChanges)
	if err != nil {
		return err
	}
	uri := string(params.TextDocument.URI)
	if _, err = s.docs.Change(uri, int64(params.TextDocument.Version), changes); err != nil {
		return fmt.Errorf("cannot apply change to %s: %w", uri, err)
	}
	return nil
}

func (s *Server) didClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := string(params.TextDocument.URI)
	s.docs.Close(uri)
	s.lenses.ForgetDocument(uri)
	return nil
}

func (s *Server) codeLens(ctx *glsp.Context, params *protocol.CodeLensParams) ([]protocol.CodeLens, error) {
	doc, ok := s.docs.Get(string(params.TextDocument.URI))
	if !ok {
		return []protocol.CodeLens{}, nil
	}
	lenses := s.lenses.ProvideLenses(doc)
	codeLenses := make([]protocol.CodeLens, len(lenses))
	for i, l := range lenses {
		codeLenses[i] = toCodeLens(doc, l)
	}
	return codeLenses, nil
}

func (s *Server) codeLensResolve(ctx *glsp.Context, params *protocol.CodeLens) (*protocol.CodeLens, error) {
	m, err := matchFromData(params.Data)
	if err != nil {
		return nil, err
	}
	l := s.lenses.ResolveLens(m)
	resolved := *params
	resolved.Command = toCommand(l.Payload)
	return &resolved, nil
}

func (s *Server) executeCommand(ctx *glsp.Context, params *protocol.ExecuteCommandParams) (any, error) {
	switch params.Command {
	case model.ActionPending, model.ActionError:
		// These wait for the user to answer a message, so they must not hold
		// up the reply.
		go func() {
			if _, err := s.actions.Execute(params.Command, params.Arguments); err != nil {
				log.Errorw("Command failed", "command", params.Command, "err", err)
			}
		}()
		return nil, nil
	}
	return s.actions.Execute(params.Command, params.Arguments)
}

func (s *Server) didChangeConfiguration(ctx *glsp.Context, params *protocol.DidChangeConfigurationParams) error {
	s.applySettings(params.Settings)
	s.lenses.InvalidateMatches()
	return nil
}

// applySettings replaces the settings providers. Settings that cannot be
// decoded are reported and leave the providers unchanged.
func (s *Server) applySettings(settings any) {
	raw, err := json.Marshal(settings)
	if err != nil {
		log.Errorw("Cannot encode settings", "err", err)
		return
	}
	providers, err := config.ParseSettings(raw)
	if err != nil {
		log.Errorw("Invalid settings", "err", err)
		s.notify(methodShowMessage, protocol.ShowMessageParams{
			Type:    protocol.MessageTypeError,
			Message: "REST lens settings are invalid: " + err.Error(),
		})
		return
	}
	s.store.Set(config.SettingsSource, providers)
}

func (s *Server) setConn(ctx *glsp.Context) {
	s.lock.Lock()
	s.conn = ctx
	s.lock.Unlock()
}

func (s *Server) notify(method string, params any) {
	s.lock.Lock()
	conn := s.conn
	s.lock.Unlock()
	if conn == nil || conn.Notify == nil {
		return
	}
	conn.Notify(method, params)
}

func (s *Server) call(method string, params any, result any) bool {
	s.lock.Lock()
	conn := s.conn
	s.lock.Unlock()
	if conn == nil || conn.Call == nil {
		return false
	}
	conn.Call(method, params, result)
	return true
}

// startForwarding sends a codeLens refresh request to the editor for every
// refresh event of the lens provider.
func (s *Server) startForwarding() {
	s.lock.Lock()
	if s.stopRefresh != nil {
		s.lock.Unlock()
		return
	}
	events, cancel := s.lenses.OnRefresh()
	s.stopRefresh = cancel
	s.lock.Unlock()

	go func() {
		for range events {
			var ignored any
			if s.call(methodCodeLensRefresh, nil, &ignored) {
				log.Debug("Requested code lens refresh")
			}
		}
	}()
}

func (s *Server) stopForwarding() {
	s.lock.Lock()
	cancel := s.stopRefresh
	s.stopRefresh = nil
	s.lock.Unlock()

	if cancel != nil {
		cancel()
	}
}

// editorClient implements Client over the server connection.
type editorClient struct {
	server *Server
}

func (c *editorClient) ShowMessage(typ protocol.MessageType, msg string) {
	c.server.notify(methodShowMessage, protocol.ShowMessageParams{
		Type:    typ,
		Message: msg,
	})
}

func (c *editorClient) ShowMessageRequest(typ protocol.MessageType, msg string, actions ...string) (string, error) {
	items := make([]protocol.MessageActionItem, len(actions))
	for i, a := range actions {
		items[i] = protocol.MessageActionItem{Title: a}
	}
	var chosen *protocol.MessageActionItem
	if !c.server.call(methodShowMessageRequest, protocol.ShowMessageRequestParams{
		Type:    typ,
		Message: msg,
		Actions: items,
	}, &chosen) {
		return "", errNotConnected
	}
	if chosen == nil {
		return "", nil
	}
	return chosen.Title, nil
}

type showDocumentParams struct {
	URI      string `json:"uri"`
	External bool   `json:"external"`
}

type showDocumentResult struct {
	Success bool `json:"success"`
}

func (c *editorClient) OpenExternal(uri string) error {
	var result showDocumentResult
	if !c.server.call(methodShowDocument, showDocumentParams{URI: uri, External: true}, &result) {
		return errNotConnected
	}
	if !result.Success {
		return errNotOpened
	}
	return nil
}
