package lsp

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/restlens/go-restlens/document"
	"github.com/restlens/go-restlens/lens"
	"github.com/restlens/go-restlens/model"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func toPosition(p document.Position) protocol.Position {
	return protocol.Position{
		Line:      p.Line,
		Character: p.Character,
	}
}

func fromPosition(p protocol.Position) document.Position {
	return document.Position{
		Line:      p.Line,
		Character: p.Character,
	}
}

// toRange converts a byte range in doc to an LSP range.
func toRange(doc *document.Document, r model.Range) protocol.Range {
	return protocol.Range{
		Start: toPosition(doc.PositionAt(r.Start)),
		End:   toPosition(doc.PositionAt(r.End)),
	}
}

// toChanges converts the content changes of a didChange notification.
func toChanges(contentChanges []any) ([]document.Change, error) {
	changes := make([]document.Change, 0, len(contentChanges))
	for _, c := range contentChanges {
		switch c := c.(type) {
		case protocol.TextDocumentContentChangeEvent:
			changes = append(changes, rangeChange(c))
		case *protocol.TextDocumentContentChangeEvent:
			changes = append(changes, rangeChange(*c))
		case protocol.TextDocumentContentChangeEventWhole:
			changes = append(changes, document.Change{Text: c.Text})
		case *protocol.TextDocumentContentChangeEventWhole:
			changes = append(changes, document.Change{Text: c.Text})
		default:
			return nil, fmt.Errorf("unsupported content change %T", c)
		}
	}
	return changes, nil
}

func rangeChange(c protocol.TextDocumentContentChangeEvent) document.Change {
	if c.Range == nil {
		return document.Change{Text: c.Text}
	}
	return document.Change{
		Range: &document.Span{
			Start: fromPosition(c.Range.Start),
			End:   fromPosition(c.Range.End),
		},
		Text: c.Text,
	}
}

func toCommand(p model.Payload) *protocol.Command {
	args := p.Arguments
	if args == nil {
		args = []any{}
	}
	return &protocol.Command{
		Title:     p.Title,
		Command:   p.ActionID,
		Arguments: args,
	}
}

// toCodeLens converts a lens. Unresolved lenses carry no command, so the
// editor asks for them with codeLens/resolve. The match travels in the data
// field either way.
func toCodeLens(doc *document.Document, l lens.Lens) protocol.CodeLens {
	cl := protocol.CodeLens{
		Range: toRange(doc, l.Match.Range),
		Data:  l.Match,
	}
	if l.Resolved() {
		cl.Command = toCommand(l.Payload)
	}
	return cl
}

// matchFromData recovers the match stored in a code lens data field. Data
// comes back from the editor as decoded JSON.
func matchFromData(data any) (model.Match, error) {
	if data == nil {
		return model.Match{}, errors.New("code lens has no data")
	}
	if m, ok := data.(model.Match); ok {
		return m, nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return model.Match{}, err
	}
	var m model.Match
	if err = json.Unmarshal(b, &m); err != nil {
		return model.Match{}, fmt.Errorf("cannot decode code lens data: %w", err)
	}
	if m.ProviderID == "" || m.RequestURL == "" {
		return model.Match{}, errors.New("code lens data is not a lens match")
	}
	return m, nil
}
