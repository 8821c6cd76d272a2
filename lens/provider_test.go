package lens_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/restlens/go-restlens/internal/test"
	"github.com/restlens/go-restlens/lens"
	"github.com/restlens/go-restlens/model"
	"github.com/restlens/go-restlens/rcache"
	"github.com/restlens/go-restlens/resolve"
	"github.com/stretchr/testify/require"
)

type staticSource []model.Provider

func (s staticSource) Providers(string) []model.Provider {
	return s
}

type countingSource struct {
	providers []model.Provider
	calls     atomic.Int32
}

func (s *countingSource) Providers(string) []model.Provider {
	s.calls.Add(1)
	return s.providers
}

// blockingResolver counts Resolve calls and holds each one until released.
type blockingResolver struct {
	calls   atomic.Int32
	release chan struct{}
}

func (r *blockingResolver) Resolve(ctx context.Context, m model.Match) rcache.Result {
	r.calls.Add(1)
	<-r.release
	return rcache.Result{Payload: model.Payload{Title: "done " + m.ProviderID, ActionID: model.ActionOpen}}
}

func waitRefresh(t *testing.T, events <-chan struct{}) {
	t.Helper()
	select {
	case <-events:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for refresh")
	}
}

func TestProvideAndResolve(t *testing.T) {
	srv := test.NewLensServer(t, map[string]any{"title": "OK", "url": "https://x"})
	src := staticSource{{ID: "api", Pattern: `GET (\S+)`, URL: srv.URL + "/lookup"}}
	res, err := resolve.New()
	require.NoError(t, err)

	p, err := lens.New(src, res)
	require.NoError(t, err)
	defer p.Close()

	events, cancel := p.OnRefresh()
	defer cancel()

	doc := test.NewDocument("file:///a.http", "GET /users/42")
	lenses := p.ProvideLenses(doc)
	require.Len(t, lenses, 1)
	require.Equal(t, rcache.Placeholder, lenses[0].State)
	require.False(t, lenses[0].Resolved())
	require.Zero(t, srv.Requests.Load())

	l := p.ResolveLens(lenses[0].Match)
	require.Equal(t, rcache.Pending, l.State)
	require.True(t, l.Resolved())
	require.Equal(t, "(loading api…)", l.Payload.Title)

	waitRefresh(t, events)

	lenses = p.ProvideLenses(doc)
	require.Len(t, lenses, 1)
	require.Equal(t, rcache.Ready, lenses[0].State)
	require.Equal(t, "OK", lenses[0].Payload.Title)
	require.Equal(t, model.ActionOpen, lenses[0].Payload.ActionID)
	require.Equal(t, []any{"https://x"}, lenses[0].Payload.Arguments)
	require.Equal(t, 1, srv.RequestsFor("/lookup?m[]=GET%20%2Fusers%2F42&m[]=%2Fusers%2F42"))
}

func TestProvideIdempotent(t *testing.T) {
	src := &countingSource{providers: []model.Provider{{ID: "t", Pattern: `#(\d+)`, URL: "https://t"}}}
	p, err := lens.New(src, &blockingResolver{release: make(chan struct{})})
	require.NoError(t, err)
	defer p.Close()

	doc := test.NewDocument("file:///a", "#1 #2")
	first := p.ProvideLenses(doc)
	second := p.ProvideLenses(doc)
	require.Equal(t, first, second)
	require.Equal(t, int32(1), src.calls.Load())
	require.Equal(t, int64(1), p.MatchStats().Recomputes)

	doc.Edit("#1 #2 #3")
	third := p.ProvideLenses(doc)
	require.Len(t, third, 3)
	require.Equal(t, int32(2), src.calls.Load())
	require.Equal(t, int64(2), p.MatchStats().Recomputes)
}

func TestResolveDeduplicates(t *testing.T) {
	src := staticSource{{ID: "t", Pattern: `#(\d+)`, URL: "https://t"}}
	r := &blockingResolver{release: make(chan struct{})}
	p, err := lens.New(src, r)
	require.NoError(t, err)

	doc := test.NewDocument("file:///a", "#7 and again #7")
	lenses := p.ProvideLenses(doc)
	require.Len(t, lenses, 2)
	require.NotEqual(t, lenses[0].Match.Range, lenses[1].Match.Range)
	require.Equal(t, lenses[0].Match.Key(), lenses[1].Match.Key())

	require.Equal(t, rcache.Pending, p.ResolveLens(lenses[0].Match).State)
	require.Equal(t, rcache.Pending, p.ResolveLens(lenses[1].Match).State)

	close(r.release)
	p.Close()
	require.Equal(t, int32(1), r.calls.Load())
}

func TestRefreshCoalesced(t *testing.T) {
	src := staticSource{{ID: "t", Pattern: `#(\d+)`, URL: "https://t"}}
	r := &blockingResolver{release: make(chan struct{})}
	p, err := lens.New(src, r, lens.WithRefreshDelay(200*time.Millisecond))
	require.NoError(t, err)
	defer p.Close()

	events, cancel := p.OnRefresh()
	defer cancel()

	doc := test.NewDocument("file:///a", "#1 #2 #3 #4 #5")
	for _, l := range p.ProvideLenses(doc) {
		p.ResolveLens(l.Match)
	}
	close(r.release)

	waitRefresh(t, events)
	require.Equal(t, int32(5), r.calls.Load())
	for _, l := range p.ProvideLenses(doc) {
		require.Equal(t, rcache.Ready, l.State)
	}
	select {
	case <-events:
		t.Fatal("expected a single refresh event")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestClearCacheDuringFetch(t *testing.T) {
	src := staticSource{{ID: "t", Pattern: `#(\d+)`, URL: "https://t"}}
	r := &blockingResolver{release: make(chan struct{})}
	p, err := lens.New(src, r)
	require.NoError(t, err)

	events, cancel := p.OnRefresh()
	defer cancel()

	doc := test.NewDocument("file:///a", "#1")
	m := p.ProvideLenses(doc)[0].Match
	require.Equal(t, rcache.Pending, p.ResolveLens(m).State)
	require.Equal(t, int32(1), r.calls.Load())

	p.ClearCache()
	waitRefresh(t, events)

	// The pending entry was dropped, so resolving again starts a new request.
	require.Equal(t, rcache.Placeholder, p.ProvideLenses(doc)[0].State)
	require.Equal(t, rcache.Pending, p.ResolveLens(m).State)
	require.Eventually(t, func() bool { return r.calls.Load() == 2 }, time.Second, 5*time.Millisecond)

	close(r.release)
	p.Close()
}

func TestExpiryRefetches(t *testing.T) {
	clk := clock.NewMock()
	srv := test.NewLensServer(t, map[string]any{"title": "v1"})
	src := staticSource{{ID: "api", Pattern: `id=(\d+)`, URL: srv.URL + "/x"}}
	res, err := resolve.New()
	require.NoError(t, err)

	p, err := lens.New(src, res, lens.WithClock(clk), lens.WithTTL(time.Minute))
	require.NoError(t, err)
	defer p.Close()

	doc := test.NewDocument("file:///a", "id=5")
	m := p.ProvideLenses(doc)[0].Match
	p.ResolveLens(m)
	require.Eventually(t, func() bool { return p.ResolveLens(m).State == rcache.Ready }, time.Second, 5*time.Millisecond)
	require.Equal(t, int32(1), srv.Requests.Load())

	srv.SetBody(map[string]any{"title": "v2"})
	clk.Add(2 * time.Minute)

	require.Equal(t, rcache.Placeholder, p.ProvideLenses(doc)[0].State)
	require.Equal(t, rcache.Pending, p.ResolveLens(m).State)
	require.Eventually(t, func() bool {
		l := p.ResolveLens(m)
		return l.State == rcache.Ready && l.Payload.Title == "v2"
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, int32(2), srv.Requests.Load())
}

func TestInvalidateMatchesKeepsResolutions(t *testing.T) {
	src := &countingSource{providers: []model.Provider{{ID: "t", Pattern: `#(\d+)`, URL: "https://t"}}}
	r := &blockingResolver{release: make(chan struct{})}
	close(r.release)
	p, err := lens.New(src, r)
	require.NoError(t, err)
	defer p.Close()

	doc := test.NewDocument("file:///a", "#1")
	m := p.ProvideLenses(doc)[0].Match
	p.ResolveLens(m)
	require.Eventually(t, func() bool { return p.ResolveLens(m).State == rcache.Ready }, time.Second, 5*time.Millisecond)

	p.InvalidateMatches()
	lenses := p.ProvideLenses(doc)
	require.Equal(t, int32(2), src.calls.Load())
	require.Equal(t, rcache.Ready, lenses[0].State)
	require.Equal(t, int32(1), r.calls.Load())

	p.ForgetDocument(doc.URI())
	p.ProvideLenses(doc)
	require.Equal(t, int32(3), src.calls.Load())
}

func TestResolveTimeoutBecomesErrorLens(t *testing.T) {
	srv := test.NewLensServer(t, map[string]any{"title": "late"})
	srv.Block()
	src := staticSource{{ID: "slow", Pattern: `x`, URL: srv.URL}}
	res, err := resolve.New(resolve.WithTimeout(50 * time.Millisecond))
	require.NoError(t, err)

	p, err := lens.New(src, res)
	require.NoError(t, err)
	defer p.Close()

	m := p.ProvideLenses(test.NewDocument("file:///a", "x"))[0].Match
	p.ResolveLens(m)
	require.Eventually(t, func() bool { return p.ResolveLens(m).State == rcache.Ready }, 2*time.Second, 5*time.Millisecond)

	l := p.ResolveLens(m)
	require.Equal(t, model.ActionError, l.Payload.ActionID)
	require.Contains(t, l.Payload.Title, "[slow]")
	require.Contains(t, l.Payload.Title, "deadline exceeded")
}
