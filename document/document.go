// Package document keeps the text of open documents for the language server
// and translates between byte offsets and editor positions.
//
// Positions use zero-based lines and UTF-16 code unit columns, as in the
// Language Server Protocol.
package document

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrNotFound is returned for a document that is not open.
var ErrNotFound = errors.New("document not open")

// Position is a zero-based line and UTF-16 character offset.
type Position struct {
	Line      uint32
	Character uint32
}

// Change is an edit to a document. A nil Range replaces the whole text.
type Change struct {
	Range *Span
	Text  string
}

// Span is a range between two positions.
type Span struct {
	Start Position
	End   Position
}

// Document is an immutable snapshot of an open document.
type Document struct {
	uri     string
	version int64
	text    string
	// lines holds the byte offset at which each line starts.
	lines []int
}

// New creates a document snapshot.
func New(uri string, version int64, text string) *Document {
	return &Document{
		uri:     uri,
		version: version,
		text:    text,
		lines:   lineStarts(text),
	}
}

func (d *Document) URI() string {
	return d.uri
}

func (d *Document) Version() int64 {
	return d.version
}

func (d *Document) Text() string {
	return d.text
}

// PositionAt converts a byte offset into a position. Offsets beyond the end
// of the text are clamped.
func (d *Document) PositionAt(offset int) Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(d.text) {
		offset = len(d.text)
	}
	line := sort.Search(len(d.lines), func(i int) bool { return d.lines[i] > offset }) - 1
	start := d.lines[line]
	return Position{
		Line:      uint32(line),
		Character: uint32(utf16Len(d.text[start:offset])),
	}
}

// OffsetAt converts a position into a byte offset. Positions past the end of
// a line are clamped to the end of that line, and lines past the end of the
// document to the end of the text.
func (d *Document) OffsetAt(pos Position) int {
	if int(pos.Line) >= len(d.lines) {
		return len(d.text)
	}
	start := d.lines[pos.Line]
	end := len(d.text)
	if int(pos.Line)+1 < len(d.lines) {
		end = d.lines[pos.Line+1]
	}
	line := strings.TrimRight(d.text[start:end], "\r\n")

	units := int(pos.Character)
	for i, r := range line {
		if units <= 0 {
			return start + i
		}
		units -= utf16Width(r)
		if units < 0 {
			// Inside a surrogate pair; stay before the rune.
			return start + i
		}
	}
	return start + len(line)
}

// Apply returns a new snapshot with the changes applied in order.
func (d *Document) Apply(version int64, changes []Change) (*Document, error) {
	if version < d.version {
		return nil, fmt.Errorf("document %s: version %d is older than %d", d.uri, version, d.version)
	}
	cur := d
	for _, ch := range changes {
		if ch.Range == nil {
			cur = New(d.uri, version, ch.Text)
			continue
		}
		start := cur.OffsetAt(ch.Range.Start)
		end := cur.OffsetAt(ch.Range.End)
		if end < start {
			return nil, fmt.Errorf("document %s: invalid change range", d.uri)
		}
		cur = New(d.uri, version, cur.text[:start]+ch.Text+cur.text[end:])
	}
	if cur == d {
		cur = New(d.uri, version, d.text)
	}
	return cur, nil
}

func lineStarts(text string) []int {
	lines := []int{0}
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\n':
			lines = append(lines, i+1)
		case '\r':
			if i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			lines = append(lines, i+1)
		}
	}
	return lines
}

func utf16Len(s string) int {
	var n int
	for _, r := range s {
		n += utf16Width(r)
	}
	return n
}

func utf16Width(r rune) int {
	if r >= 0x10000 {
		return 2
	}
	return 1
}

// Store holds the open documents.
type Store struct {
	lock sync.RWMutex
	docs map[string]*Document
}

func NewStore() *Store {
	return &Store{
		docs: make(map[string]*Document),
	}
}

// Open adds or replaces a document.
func (s *Store) Open(uri string, version int64, text string) *Document {
	d := New(uri, version, text)
	s.lock.Lock()
	s.docs[uri] = d
	s.lock.Unlock()
	return d
}

// Change applies edits to an open document.
func (s *Store) Change(uri string, version int64, changes []Change) (*Document, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	d, ok := s.docs[uri]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, uri)
	}
	nd, err := d.Apply(version, changes)
	if err != nil {
		return nil, err
	}
	s.docs[uri] = nd
	return nd, nil
}

// Close removes a document.
func (s *Store) Close(uri string) {
	s.lock.Lock()
	delete(s.docs, uri)
	s.lock.Unlock()
}

// Get returns the current snapshot of a document.
func (s *Store) Get(uri string) (*Document, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	d, ok := s.docs[uri]
	return d, ok
}

func (s *Store) Len() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return len(s.docs)
}
