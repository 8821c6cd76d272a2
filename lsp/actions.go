package lsp

import (
	"errors"
	"fmt"

	"github.com/restlens/go-restlens/model"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Message actions offered for pending and failed lenses.
const (
	CopyURL = "Copy URL"
	OpenURL = "Open URL"
)

// Commands lists the commands the server executes.
var Commands = []string{
	model.ActionOpen,
	model.ActionPending,
	model.ActionError,
	model.ActionClearCache,
}

// Client is the editor side of the connection, as used by command handlers.
type Client interface {
	// ShowMessage displays a message.
	ShowMessage(typ protocol.MessageType, msg string)
	// ShowMessageRequest displays a message with actions and returns the
	// chosen action, or "" if the message was dismissed.
	ShowMessageRequest(typ protocol.MessageType, msg string, actions ...string) (string, error)
	// OpenExternal asks the editor to open uri outside the editor.
	OpenExternal(uri string) error
}

// CacheClearer drops cached lens results.
type CacheClearer interface {
	ClearCache()
}

// Actions executes the commands attached to lenses.
type Actions struct {
	client Client
	cache  CacheClearer
}

// NewActions creates a command executor.
func NewActions(client Client, cache CacheClearer) *Actions {
	return &Actions{
		client: client,
		cache:  cache,
	}
}

// Execute runs command with its arguments. The returned value is sent back to
// the editor as the command result.
func (a *Actions) Execute(command string, args []any) (any, error) {
	switch command {
	case model.ActionOpen:
		url, err := stringArg(args, 0, "url")
		if err != nil {
			return nil, fmt.Errorf("%s: %w", command, err)
		}
		a.open(url)
		return nil, nil
	case model.ActionPending:
		providerID, requestURL, err := providerArgs(args)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", command, err)
		}
		msg := fmt.Sprintf("REST lens is loading code lens for %s", providerID)
		return a.offerURL(protocol.MessageTypeInfo, msg, requestURL)
	case model.ActionError:
		providerID, requestURL, err := providerArgs(args)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", command, err)
		}
		errMsg, _ := stringArg(args, 2, "error message")
		msg := fmt.Sprintf("REST lens had trouble loading code lens for %s: %s", providerID, errMsg)
		return a.offerURL(protocol.MessageTypeError, msg, requestURL)
	case model.ActionClearCache:
		a.cache.ClearCache()
		a.client.ShowMessage(protocol.MessageTypeInfo, "Response cache has been cleared")
		return nil, nil
	}
	return nil, fmt.Errorf("unknown command %s", command)
}

// offerURL shows msg with options to copy or open the request URL. Editors
// have no clipboard access over LSP, so copying shows the URL as a message
// and returns it as the command result.
func (a *Actions) offerURL(typ protocol.MessageType, msg, requestURL string) (any, error) {
	choice, err := a.client.ShowMessageRequest(typ, msg, CopyURL, OpenURL)
	if err != nil {
		return nil, err
	}
	switch choice {
	case CopyURL:
		a.client.ShowMessage(protocol.MessageTypeInfo, requestURL)
		return requestURL, nil
	case OpenURL:
		a.open(requestURL)
	}
	return nil, nil
}

func (a *Actions) open(url string) {
	if err := a.client.OpenExternal(url); err != nil {
		log.Warnw("Cannot open url", "url", url, "err", err)
		a.client.ShowMessage(protocol.MessageTypeError, fmt.Sprintf("Cannot open %s: %s", url, err))
	}
}

func providerArgs(args []any) (string, string, error) {
	providerID, err := stringArg(args, 0, "provider id")
	if err != nil {
		return "", "", err
	}
	requestURL, err := stringArg(args, 1, "request url")
	if err != nil {
		return "", "", err
	}
	return providerID, requestURL, nil
}

func stringArg(args []any, i int, name string) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("missing %s argument", name)
	}
	s, ok := args[i].(string)
	if !ok {
		return "", errors.New(name + " argument must be a string")
	}
	return s, nil
}

var (
	errNotConnected = errors.New("no editor connection")
	errNotOpened    = errors.New("editor did not open the document")
)
