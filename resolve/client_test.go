package resolve_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/restlens/go-restlens/apierror"
	"github.com/restlens/go-restlens/internal/test"
	"github.com/restlens/go-restlens/model"
	"github.com/restlens/go-restlens/resolve"
	"github.com/stretchr/testify/require"
)

func TestResolveDefaults(t *testing.T) {
	srv := test.NewLensServer(t, map[string]any{"title": "OK", "url": "https://x"})
	c, err := resolve.New()
	require.NoError(t, err)

	m := model.Match{ProviderID: "api", RequestURL: srv.URL + "/lookup?m[]=x"}
	res := c.Resolve(context.Background(), m)
	require.False(t, res.Failed)
	require.Equal(t, "OK", res.Payload.Title)
	require.Equal(t, model.ActionOpen, res.Payload.ActionID)
	require.Equal(t, []any{"https://x"}, res.Payload.Arguments)
	require.Equal(t, 1, srv.RequestsFor("/lookup?m[]=x"))
}

func TestResolveCommandAndArguments(t *testing.T) {
	srv := test.NewLensServer(t, map[string]any{
		"title":     "Run",
		"command":   "custom.run",
		"arguments": []any{"a", "b"},
		"url":       "https://ignored",
	})
	c, err := resolve.New()
	require.NoError(t, err)

	res := c.Resolve(context.Background(), model.Match{ProviderID: "api", RequestURL: srv.URL})
	require.False(t, res.Failed)
	require.Equal(t, "custom.run", res.Payload.ActionID)
	require.Equal(t, []any{"a", "b"}, res.Payload.Arguments)
}

func TestResolveTimeout(t *testing.T) {
	srv := test.NewLensServer(t, map[string]any{"title": "late"})
	srv.SetDelay(time.Second)
	c, err := resolve.New(resolve.WithTimeout(50 * time.Millisecond))
	require.NoError(t, err)

	m := model.Match{ProviderID: "slow", RequestURL: srv.URL + "/slow"}
	res := c.Resolve(context.Background(), m)
	require.True(t, res.Failed)
	require.Equal(t, model.ActionError, res.Payload.ActionID)
	require.Contains(t, res.Payload.Title, "[slow]")
	require.Contains(t, res.Payload.Title, "deadline exceeded")
	require.Len(t, res.Payload.Arguments, 3)
	require.Equal(t, "slow", res.Payload.Arguments[0])
	require.Equal(t, m.RequestURL, res.Payload.Arguments[1])
	require.Contains(t, res.Payload.Arguments[2], "deadline exceeded")
}

func TestFetchStatusError(t *testing.T) {
	srv := test.NewLensServer(t, nil)
	srv.SetStatus(http.StatusNotFound)
	c, err := resolve.New()
	require.NoError(t, err)

	_, err = c.Fetch(context.Background(), srv.URL+"/missing")
	require.Error(t, err)
	require.Equal(t, http.StatusNotFound, apierror.Status(err))

	res := c.Resolve(context.Background(), model.Match{ProviderID: "api", RequestURL: srv.URL + "/missing"})
	require.True(t, res.Failed)
	require.Contains(t, res.Payload.Title, "404 Not Found")
}

func TestFetchBadURL(t *testing.T) {
	c, err := resolve.New()
	require.NoError(t, err)

	_, err = c.Fetch(context.Background(), "ftp://example.com/x")
	require.ErrorContains(t, err, "http or https scheme")

	res := c.Resolve(context.Background(), model.Match{ProviderID: "api", RequestURL: "::bad"})
	require.True(t, res.Failed)
}

func TestFetchInvalidJSON(t *testing.T) {
	srv := test.NewLensServer(t, "just a string")
	c, err := resolve.New()
	require.NoError(t, err)

	_, err = c.Fetch(context.Background(), srv.URL)
	require.ErrorContains(t, err, "cannot decode lens response")
}

func TestRetry(t *testing.T) {
	srv := test.NewLensServer(t, map[string]any{"title": "OK"})
	srv.SetStatus(http.StatusServiceUnavailable)
	c, err := resolve.New(resolve.WithRetry(2, time.Millisecond, 2*time.Millisecond))
	require.NoError(t, err)

	res := c.Resolve(context.Background(), model.Match{ProviderID: "api", RequestURL: srv.URL})
	require.True(t, res.Failed)
	require.Equal(t, int32(3), srv.Requests.Load())
}

func TestRetryOnlyTemporary(t *testing.T) {
	srv := test.NewLensServer(t, map[string]any{"title": "OK"})
	srv.SetStatus(http.StatusNotFound)
	c, err := resolve.New(resolve.WithRetry(2, time.Millisecond, 2*time.Millisecond))
	require.NoError(t, err)

	res := c.Resolve(context.Background(), model.Match{ProviderID: "api", RequestURL: srv.URL})
	require.True(t, res.Failed)
	require.Contains(t, res.Payload.Title, "404 Not Found")
	require.Equal(t, int32(1), srv.Requests.Load())

	srv.SetStatus(http.StatusTooManyRequests)
	res = c.Resolve(context.Background(), model.Match{ProviderID: "api", RequestURL: srv.URL})
	require.True(t, res.Failed)
	require.Equal(t, int32(4), srv.Requests.Load())
}

func TestBadOptions(t *testing.T) {
	_, err := resolve.New(resolve.WithTimeout(0))
	require.ErrorContains(t, err, "timeout must be positive")
	_, err = resolve.New(resolve.WithRetry(-1, 0, 0))
	require.ErrorContains(t, err, "negative retry max")
}
