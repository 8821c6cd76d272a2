package model

import (
	"encoding/json"
	"fmt"
)

// Action identifiers attached to resolved lenses. The host dispatches these
// when the user activates a lens.
const (
	ActionOpen       = "restLens.open"
	ActionPending    = "restLens.pending"
	ActionError      = "restLens.error"
	ActionClearCache = "restLens.clearResponseCache"
)

// Payload is the display label and action of a lens.
type Payload struct {
	Title     string `json:"title"`
	ActionID  string `json:"command"`
	Arguments []any  `json:"arguments"`
}

// Response is the JSON body returned by a lens endpoint. Every field is
// optional.
type Response struct {
	Title     string          `json:"title,omitempty"`
	Command   string          `json:"command,omitempty"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
	URL       string          `json:"url,omitempty"`
}

// UnmarshalResponse decodes a lens endpoint response body.
func UnmarshalResponse(b []byte) (*Response, error) {
	var r Response
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("cannot decode lens response: %w", err)
	}
	return &r, nil
}

// PendingPayload is shown while a lens request is in flight.
func PendingPayload(m Match) Payload {
	return Payload{
		Title:     fmt.Sprintf("(loading %s…)", m.ProviderID),
		ActionID:  ActionPending,
		Arguments: []any{m.ProviderID, m.RequestURL},
	}
}

// ResponsePayload derives a lens payload from a successful response. A
// missing title falls back to a provider-attributed string, a missing command
// falls back to ActionOpen, and arguments that are not a JSON array fall back
// to the response URL.
func ResponsePayload(m Match, r *Response) Payload {
	title := r.Title
	if title == "" {
		title = fmt.Sprintf("%s did not provide a title", m.ProviderID)
	}
	action := r.Command
	if action == "" {
		action = ActionOpen
	}
	var args []any
	if err := json.Unmarshal(r.Arguments, &args); err != nil || args == nil {
		args = []any{r.URL}
	}
	return Payload{
		Title:     title,
		ActionID:  action,
		Arguments: args,
	}
}

// ErrorPayload is shown when a lens request fails. Its arguments let the
// user still open or copy the request URL.
func ErrorPayload(m Match, err error) Payload {
	msg := err.Error()
	return Payload{
		Title:     fmt.Sprintf("[%s] %s", m.ProviderID, msg),
		ActionID:  ActionError,
		Arguments: []any{m.ProviderID, m.RequestURL, msg},
	}
}
