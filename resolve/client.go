// Package resolve fetches lens payloads from lens endpoints over HTTP.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	logging "github.com/ipfs/go-log/v2"
	"github.com/restlens/go-restlens/apierror"
	"github.com/restlens/go-restlens/model"
	"github.com/restlens/go-restlens/rcache"
)

var log = logging.Logger("restlens/resolve")

// maxBodySize limits how much of a lens response is read.
const maxBodySize = 1 << 20

// Client is an http client for lens endpoints.
type Client struct {
	c       *http.Client
	timeout time.Duration
}

// New creates a new lens HTTP client.
func New(options ...Option) (*Client, error) {
	opts, err := getOpts(options)
	if err != nil {
		return nil, err
	}

	httpClient := opts.httpClient
	if opts.retryMax != 0 {
		rclient := &retryablehttp.Client{
			HTTPClient:   httpClient,
			RetryWaitMin: opts.retryWaitMin,
			RetryWaitMax: opts.retryWaitMax,
			RetryMax:     opts.retryMax,
			CheckRetry:   retryPolicy,
			Backoff:      retryablehttp.DefaultBackoff,
		}
		httpClient = rclient.StandardClient()
	}

	return &Client{
		c:       httpClient,
		timeout: opts.timeout,
	}, nil
}

// retryPolicy retries connection failures like the default policy, and
// retries a response only if its status is temporary: 429 or a server error.
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil || resp == nil {
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}
	if resp.StatusCode == http.StatusNotImplemented {
		return false, nil
	}
	return apierror.New(nil, resp.StatusCode).Temporary(), nil
}

// Fetch sends a GET request to requestURL and decodes the lens response. A
// non-success status is returned as an *apierror.Error.
func (c *Client) Fetch(ctx context.Context, requestURL string) (*model.Response, error) {
	u, err := url.Parse(requestURL)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("url must have http or https scheme: %s", requestURL)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Add("Accept", "application/json")

	resp, err := c.c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apierror.FromResponse(resp.StatusCode, body)
	}

	return model.UnmarshalResponse(body)
}

// Resolve fetches the lens for a match and returns its payload. It never
// fails: a failed fetch produces an error payload and a Failed result.
func (c *Client) Resolve(ctx context.Context, m model.Match) rcache.Result {
	start := time.Now()
	resp, err := c.Fetch(ctx, m.RequestURL)
	fetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		outcome := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			outcome = "timeout"
		}
		fetchTotal.WithLabelValues(outcome).Inc()
		log.Warnw("Lens request failed", "provider", m.ProviderID, "url", m.RequestURL, "err", err)
		return rcache.Result{
			Payload: model.ErrorPayload(m, err),
			Failed:  true,
		}
	}
	fetchTotal.WithLabelValues("ok").Inc()
	log.Debugw("Lens resolved", "provider", m.ProviderID, "url", m.RequestURL)
	return rcache.Result{
		Payload: model.ResponsePayload(m, resp),
	}
}
