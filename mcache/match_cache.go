// Package mcache caches the pattern matches of each open document, keyed by
// document URI and validated by document revision.
//
// A cached match list is reused until a newer document revision is seen. An
// equal or older revision never triggers a new scan, so repeated lens
// requests for an unchanged document cost only a map lookup. Entries are
// removed with Forget when the host closes the document, which keeps memory
// bounded by the set of open documents.
package mcache

import (
	"sync"
	"sync/atomic"

	"github.com/restlens/go-restlens/model"
)

// Entry is the match list computed for one document revision. Entries are
// never modified after they are stored.
type Entry struct {
	Revision int64
	Matches  []model.Match
}

// Stats counts cache activity.
type Stats struct {
	Hits       int64
	Recomputes int64
}

// Cache is a concurrency-safe per-document match cache. Each document has its
// own lock, so a long scan of one document does not hold up the others.
type Cache struct {
	lock  sync.Mutex
	slots map[string]*slot

	hits       atomic.Int64
	recomputes atomic.Int64
}

// slot holds the entry of one document. entry is nil until the first
// Refresh completes. lock serializes recomputes; reads load entry directly.
type slot struct {
	lock  sync.Mutex
	entry atomic.Pointer[Entry]
}

// New creates an empty match cache.
func New() *Cache {
	return &Cache{
		slots: make(map[string]*slot),
	}
}

// Get returns the cached entry for the document. A document that has never
// been matched gets revision -1 and no matches, so that its first Refresh
// always recomputes.
func (c *Cache) Get(docID string) Entry {
	c.lock.Lock()
	s, ok := c.slots[docID]
	c.lock.Unlock()
	if ok {
		if e := s.entry.Load(); e != nil {
			return *e
		}
	}
	return Entry{Revision: -1}
}

// Refresh returns the document's matches for the given revision. If the
// revision is newer than the cached one, recompute is called and its result
// replaces the cached entry. Otherwise the cached entry is returned as is.
// Concurrent refreshes of one document run recompute at most once per
// revision.
func (c *Cache) Refresh(docID string, revision int64, recompute func() []model.Match) Entry {
	c.lock.Lock()
	s, ok := c.slots[docID]
	if !ok {
		s = &slot{}
		c.slots[docID] = s
	}
	c.lock.Unlock()

	s.lock.Lock()
	defer s.lock.Unlock()

	if e := s.entry.Load(); e != nil && revision <= e.Revision {
		c.hits.Add(1)
		return *e
	}

	e := &Entry{
		Revision: revision,
		Matches:  recompute(),
	}
	s.entry.Store(e)
	c.recomputes.Add(1)
	return *e
}

// Forget removes the document's entry. A refresh running at the same time
// completes into the removed slot and is not seen again.
func (c *Cache) Forget(docID string) {
	c.lock.Lock()
	delete(c.slots, docID)
	c.lock.Unlock()
}

// Len returns the number of cached documents.
func (c *Cache) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	var n int
	for _, s := range c.slots {
		if s.entry.Load() != nil {
			n++
		}
	}
	return n
}

func (c *Cache) Stats() Stats {
	return Stats{
		Hits:       c.hits.Load(),
		Recomputes: c.recomputes.Load(),
	}
}
