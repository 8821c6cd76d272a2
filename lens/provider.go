// Package lens composes pattern matching, match caching, lens resolution and
// refresh notification into the two-phase lens protocol used by editors.
//
// ProvideLenses is called when a document is rendered. It returns every match
// in the document with whatever resolution is already cached, and never
// starts a request. ResolveLens is called lazily for each visible lens. It
// starts the request if none is in flight and returns immediately with the
// pending or cached state. When requests complete, subscribers of OnRefresh
// are told to render again.
package lens

import (
	"context"
	"sync"

	logging "github.com/ipfs/go-log/v2"
	"github.com/restlens/go-restlens/match"
	"github.com/restlens/go-restlens/mcache"
	"github.com/restlens/go-restlens/model"
	"github.com/restlens/go-restlens/rcache"
	"github.com/restlens/go-restlens/refresh"
)

var log = logging.Logger("restlens/lens")

// Document is a host document.
type Document interface {
	// URI identifies the document.
	URI() string
	// Version is the document revision. It never decreases.
	Version() int64
	// Text returns the full document text.
	Text() string
}

// ProviderSource supplies the providers that apply to a document.
type ProviderSource interface {
	Providers(uri string) []model.Provider
}

// Resolver resolves the lens for a single match. It must not fail; failures
// are reported as error payloads.
type Resolver interface {
	Resolve(context.Context, model.Match) rcache.Result
}

// Lens is a match together with its resolution state.
type Lens struct {
	Match   model.Match
	State   rcache.State
	Payload model.Payload
}

// Resolved reports whether the lens carries a payload to display.
func (l Lens) Resolved() bool {
	return l.State != rcache.Placeholder
}

// Provider is the lens resolution engine.
type Provider struct {
	source   ProviderSource
	resolver Resolver
	notifier *refresh.Notifier

	lock     sync.RWMutex
	matches  *mcache.Cache
	requests *rcache.Cache
}

// New creates a lens provider that matches documents with providers from
// source and resolves lenses with resolver.
func New(source ProviderSource, resolver Resolver, options ...Option) (*Provider, error) {
	opts, err := getOpts(options)
	if err != nil {
		return nil, err
	}

	notifier, err := refresh.New(
		refresh.WithClock(opts.clock),
		refresh.WithDelay(opts.refreshDelay),
	)
	if err != nil {
		return nil, err
	}

	requests, err := rcache.New(
		rcache.WithClock(opts.clock),
		rcache.WithTTL(opts.ttl),
		rcache.WithErrorTTL(opts.errTTL),
		rcache.WithOnComplete(notifier.RequestRefresh),
	)
	if err != nil {
		return nil, err
	}

	return &Provider{
		source:   source,
		resolver: resolver,
		notifier: notifier,
		matches:  mcache.New(),
		requests: requests,
	}, nil
}

// ProvideLenses returns the lenses of a document. Matches are recomputed only
// when the document version is newer than the cached one. Lenses that have no
// cached resolution are returned as placeholders.
func (p *Provider) ProvideLenses(doc Document) []Lens {
	p.lock.RLock()
	matches, requests := p.matches, p.requests
	p.lock.RUnlock()

	uri := doc.URI()
	var recomputed bool
	entry := matches.Refresh(uri, doc.Version(), func() []model.Match {
		recomputed = true
		found := match.Find(doc.Text(), p.source.Providers(uri))
		log.Debugw("Matched document", "uri", uri, "version", doc.Version(), "matches", len(found))
		return found
	})
	if recomputed {
		recomputeTotal.Inc()
	} else {
		matchHitTotal.Inc()
	}

	lenses := make([]Lens, len(entry.Matches))
	for i, m := range entry.Matches {
		lenses[i] = p.lookup(requests, m, false)
	}
	return lenses
}

// ResolveLens returns the resolution of a match, starting a request if none
// is cached or in flight. It does not wait for the request.
func (p *Provider) ResolveLens(m model.Match) Lens {
	p.lock.RLock()
	requests := p.requests
	p.lock.RUnlock()
	return p.lookup(requests, m, true)
}

func (p *Provider) lookup(requests *rcache.Cache, m model.Match, resolve bool) Lens {
	e := requests.Lookup(m.Key(), resolve, model.PendingPayload(m), func() rcache.Result {
		return p.resolver.Resolve(context.Background(), m)
	})
	lookupTotal.WithLabelValues(e.State.String()).Inc()
	return Lens{
		Match:   m,
		State:   e.State,
		Payload: e.Payload,
	}
}

// ClearCache drops all cached matches and resolutions, including requests in
// flight, and sends one refresh event.
func (p *Provider) ClearCache() {
	p.lock.Lock()
	p.matches = mcache.New()
	p.requests.Clear()
	p.lock.Unlock()

	log.Info("Cleared response cache")
	p.notifier.Notify()
}

// InvalidateMatches drops all cached matches but keeps resolutions, and sends
// one refresh event. Use it when provider configuration changes.
func (p *Provider) InvalidateMatches() {
	p.lock.Lock()
	p.matches = mcache.New()
	p.lock.Unlock()

	log.Info("Invalidated document matches")
	p.notifier.Notify()
}

// ForgetDocument releases the cached matches of a closed document.
func (p *Provider) ForgetDocument(uri string) {
	p.lock.RLock()
	matches := p.matches
	p.lock.RUnlock()
	matches.Forget(uri)
}

// OnRefresh returns a channel that receives an event whenever cached lens
// results change. Call the returned function to stop receiving events.
func (p *Provider) OnRefresh() (<-chan struct{}, context.CancelFunc) {
	return p.notifier.OnRefresh()
}

// MatchStats returns activity counters of the current match cache.
func (p *Provider) MatchStats() mcache.Stats {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return p.matches.Stats()
}

// Close waits for requests in flight and stops refresh delivery.
func (p *Provider) Close() {
	p.requests.Wait()
	p.notifier.Close()
}
