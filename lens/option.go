package lens

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/restlens/go-restlens/refresh"
)

type config struct {
	clock        clock.Clock
	errTTL       time.Duration
	refreshDelay time.Duration
	ttl          time.Duration
}

// Option is a function that sets a value in a config.
type Option func(*config) error

// getOpts creates a config and applies Options to it.
func getOpts(opts []Option) (config, error) {
	cfg := config{
		clock:        clock.New(),
		refreshDelay: refresh.DefaultDelay,
	}
	for i, opt := range opts {
		if err := opt(&cfg); err != nil {
			return config{}, fmt.Errorf("option %d failed: %s", i, err)
		}
	}
	return cfg, nil
}

// WithClock sets the clock used for resolution expiry and refresh timing.
func WithClock(clk clock.Clock) Option {
	return func(cfg *config) error {
		if clk != nil {
			cfg.clock = clk
		}
		return nil
	}
}

// WithTTL sets how long a resolved lens is reused before it is requested
// again. Zero means until the cache is cleared.
//
// Default is 0.
func WithTTL(ttl time.Duration) Option {
	return func(cfg *config) error {
		cfg.ttl = ttl
		return nil
	}
}

// WithErrorTTL sets how long a failed lens is shown before it is requested
// again. Zero means until the cache is cleared.
//
// Default is 0.
func WithErrorTTL(ttl time.Duration) Option {
	return func(cfg *config) error {
		cfg.errTTL = ttl
		return nil
	}
}

// WithRefreshDelay sets the window within which resolution completions are
// coalesced into one refresh event.
//
// Default is 100 milliseconds.
func WithRefreshDelay(d time.Duration) Option {
	return func(cfg *config) error {
		cfg.refreshDelay = d
		return nil
	}
}
