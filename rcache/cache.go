package rcache

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	logging "github.com/ipfs/go-log/v2"
	"github.com/restlens/go-restlens/model"
)

var log = logging.Logger("restlens/rcache")

// State is the resolution state of a lens.
type State int

const (
	Placeholder State = iota
	Pending
	Ready
)

func (s State) String() string {
	switch s {
	case Placeholder:
		return "placeholder"
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	}
	return "unknown"
}

// Result is the outcome of a fetch.
type Result struct {
	Payload model.Payload
	// Failed marks a payload that describes a failed fetch. It selects the
	// error time-to-live.
	Failed bool
}

// FetchFunc resolves one key. It is run in its own goroutine and must not
// panic. Failures are reported through Result.Failed.
type FetchFunc func() Result

// Entry is a snapshot of a cache entry at lookup time.
type Entry struct {
	Key       model.Key
	State     State
	Payload   model.Payload
	ExpiresAt time.Time
}

// entry is the stored, mutable form of an entry. Its fields are guarded by the
// cache lock.
type entry struct {
	state     State
	payload   model.Payload
	expiresAt time.Time
}

// Cache is a concurrency-safe lens resolution cache.
type Cache struct {
	clock      clock.Clock
	errTTL     time.Duration
	onComplete func()
	ttl        time.Duration

	lock    sync.Mutex
	entries map[model.Key]*entry

	inflight sync.WaitGroup
}

// New creates a new resolution cache.
func New(options ...Option) (*Cache, error) {
	opts, err := getOpts(options)
	if err != nil {
		return nil, err
	}
	return &Cache{
		clock:      opts.clock,
		errTTL:     opts.errTTL,
		onComplete: opts.onComplete,
		ttl:        opts.ttl,
		entries:    make(map[model.Key]*entry),
	}, nil
}

// Lookup returns the live entry for key. If there is none and resolve is
// false, a Placeholder snapshot is returned and nothing is started. If there
// is none and resolve is true, a Pending entry carrying pending is stored and
// fetch is started in a new goroutine. Lookup never blocks on a fetch.
func (c *Cache) Lookup(key model.Key, resolve bool, pending model.Payload, fetch FetchFunc) Entry {
	c.lock.Lock()
	defer c.lock.Unlock()

	e, ok := c.entries[key]
	if ok && c.live(e) {
		return snapshot(key, e)
	}
	if !resolve {
		return Entry{
			Key:   key,
			State: Placeholder,
		}
	}

	e = &entry{
		state:   Pending,
		payload: pending,
	}
	c.entries[key] = e

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		c.complete(key, e, fetch())
	}()

	return snapshot(key, e)
}

// complete writes a fetch result into its entry. The entry may no longer be
// in the map if the cache was cleared, in which case the write is unseen.
func (c *Cache) complete(key model.Key, e *entry, res Result) {
	ttl := c.ttl
	if res.Failed {
		ttl = c.errTTL
	}

	c.lock.Lock()
	e.state = Ready
	e.payload = res.Payload
	if ttl != 0 {
		e.expiresAt = c.clock.Now().Add(ttl)
	}
	current := c.entries[key] == e
	c.lock.Unlock()

	if !current {
		log.Debugw("Dropped resolution for cleared entry", "key", key)
	}
	if c.onComplete != nil {
		c.onComplete()
	}
}

// live reports whether e has not expired. Must be called with the lock held.
func (c *Cache) live(e *entry) bool {
	return e.expiresAt.IsZero() || c.clock.Now().Before(e.expiresAt)
}

// Get returns the live entry for key without starting a fetch.
func (c *Cache) Get(key model.Key) (Entry, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	e, ok := c.entries[key]
	if !ok || !c.live(e) {
		return Entry{Key: key, State: Placeholder}, false
	}
	return snapshot(key, e), true
}

// Clear drops every entry, including pending ones.
func (c *Cache) Clear() {
	c.lock.Lock()
	c.entries = make(map[model.Key]*entry)
	c.lock.Unlock()
}

// Len returns the number of stored entries, including expired entries that
// have not yet been replaced.
func (c *Cache) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.entries)
}

// Wait blocks until all fetches started by this cache have completed.
func (c *Cache) Wait() {
	c.inflight.Wait()
}

func snapshot(key model.Key, e *entry) Entry {
	return Entry{
		Key:       key,
		State:     e.state,
		Payload:   e.payload,
		ExpiresAt: e.expiresAt,
	}
}
