package rcache

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
)

type config struct {
	clock      clock.Clock
	errTTL     time.Duration
	onComplete func()
	ttl        time.Duration
}

// Option is a function that sets a value in a config.
type Option func(*config) error

// getOpts creates a config and applies Options to it.
func getOpts(opts []Option) (config, error) {
	cfg := config{
		clock: clock.New(),
	}
	for i, opt := range opts {
		if err := opt(&cfg); err != nil {
			return config{}, fmt.Errorf("option %d failed: %s", i, err)
		}
	}
	return cfg, nil
}

// WithClock sets the clock used to compute expiry times. Tests use a mock
// clock.
func WithClock(clk clock.Clock) Option {
	return func(cfg *config) error {
		if clk != nil {
			cfg.clock = clk
		}
		return nil
	}
}

// WithTTL sets how long a successful resolution stays in the cache. Zero
// means forever.
//
// Default is 0.
func WithTTL(ttl time.Duration) Option {
	return func(cfg *config) error {
		if ttl < 0 {
			return fmt.Errorf("negative ttl: %s", ttl)
		}
		cfg.ttl = ttl
		return nil
	}
}

// WithErrorTTL sets how long a failed resolution stays in the cache. Zero
// means forever.
//
// Default is 0.
func WithErrorTTL(ttl time.Duration) Option {
	return func(cfg *config) error {
		if ttl < 0 {
			return fmt.Errorf("negative error ttl: %s", ttl)
		}
		cfg.errTTL = ttl
		return nil
	}
}

// WithOnComplete sets a function that is called after every fetch completes,
// whether it succeeded or failed.
func WithOnComplete(f func()) Option {
	return func(cfg *config) error {
		cfg.onComplete = f
		return nil
	}
}
