// Package test provides helpers shared by restlens tests.
package test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// LensServer is an httptest server that answers lens requests with a fixed
// JSON body and counts requests per URL.
type LensServer struct {
	*httptest.Server

	Requests atomic.Int32

	lock    sync.Mutex
	body    any
	status  int
	delay   time.Duration
	release chan struct{}
	byURL   map[string]int
}

// NewLensServer starts a lens server that responds with body encoded as JSON.
// The server is closed when the test ends.
func NewLensServer(t testing.TB, body any) *LensServer {
	s := &LensServer{
		body:   body,
		status: http.StatusOK,
		byURL:  make(map[string]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(func() {
		s.Unblock()
		s.Close()
	})
	return s
}

func (s *LensServer) serve(w http.ResponseWriter, r *http.Request) {
	s.Requests.Add(1)

	s.lock.Lock()
	s.byURL[r.URL.String()]++
	body, status, delay, release := s.body, s.status, s.delay, s.release
	s.lock.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-r.Context().Done():
			return
		}
	}
	if delay != 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	if status != http.StatusOK {
		http.Error(w, http.StatusText(status), status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(body)
}

// SetBody changes the response body.
func (s *LensServer) SetBody(body any) {
	s.lock.Lock()
	s.body = body
	s.lock.Unlock()
}

// SetStatus makes the server respond with the given error status.
func (s *LensServer) SetStatus(status int) {
	s.lock.Lock()
	s.status = status
	s.lock.Unlock()
}

// SetDelay delays every response.
func (s *LensServer) SetDelay(d time.Duration) {
	s.lock.Lock()
	s.delay = d
	s.lock.Unlock()
}

// Block holds all responses until Unblock is called.
func (s *LensServer) Block() {
	s.lock.Lock()
	if s.release == nil {
		s.release = make(chan struct{})
	}
	s.lock.Unlock()
}

// Unblock releases held responses.
func (s *LensServer) Unblock() {
	s.lock.Lock()
	if s.release != nil {
		close(s.release)
		s.release = nil
	}
	s.lock.Unlock()
}

// RequestsFor returns the number of requests received for a path and query,
// such as "/lookup?m[]=x".
func (s *LensServer) RequestsFor(uri string) int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.byURL[uri]
}

// Document is a minimal in-memory document for lens tests.
type Document struct {
	lock    sync.Mutex
	uri     string
	version int64
	text    string
}

func NewDocument(uri, text string) *Document {
	return &Document{
		uri:  uri,
		text: text,
	}
}

func (d *Document) URI() string {
	return d.uri
}

func (d *Document) Version() int64 {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.version
}

func (d *Document) Text() string {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.text
}

// Edit replaces the document text and bumps its version.
func (d *Document) Edit(text string) {
	d.lock.Lock()
	d.text = text
	d.version++
	d.lock.Unlock()
}
