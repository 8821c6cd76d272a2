// Package refresh provides a coalescing change signal for lens results.
//
// Many lens resolutions can complete within a short time, and each one would
// otherwise cause the host to redraw. RequestRefresh arms a single timer. All
// further requests made while the timer is armed are absorbed, and when the
// timer fires every subscriber receives exactly one event.
package refresh

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gammazero/channelqueue"
	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("restlens/refresh")

// DefaultDelay is the coalescing window.
const DefaultDelay = 100 * time.Millisecond

type config struct {
	clock clock.Clock
	delay time.Duration
}

// Option is a function that sets a value in a config.
type Option func(*config) error

func getOpts(opts []Option) (config, error) {
	cfg := config{
		clock: clock.New(),
		delay: DefaultDelay,
	}
	for i, opt := range opts {
		if err := opt(&cfg); err != nil {
			return config{}, fmt.Errorf("option %d failed: %s", i, err)
		}
	}
	return cfg, nil
}

// WithClock sets the clock that schedules refreshes.
func WithClock(clk clock.Clock) Option {
	return func(cfg *config) error {
		if clk != nil {
			cfg.clock = clk
		}
		return nil
	}
}

// WithDelay sets the coalescing window.
//
// Default is 100 milliseconds.
func WithDelay(d time.Duration) Option {
	return func(cfg *config) error {
		if d < 0 {
			return fmt.Errorf("negative delay: %s", d)
		}
		cfg.delay = d
		return nil
	}
}

// Notifier delivers coalesced refresh events to subscribers.
type Notifier struct {
	clock clock.Clock
	delay time.Duration

	lock   sync.Mutex
	armed  bool
	closed bool
	subs   []chan<- struct{}
}

// New creates a new Notifier.
func New(options ...Option) (*Notifier, error) {
	opts, err := getOpts(options)
	if err != nil {
		return nil, err
	}
	return &Notifier{
		clock: opts.clock,
		delay: opts.delay,
	}, nil
}

// RequestRefresh schedules a refresh event after the coalescing delay. If one
// is already scheduled, the request is absorbed by it.
func (n *Notifier) RequestRefresh() {
	n.lock.Lock()
	defer n.lock.Unlock()
	if n.armed || n.closed {
		return
	}
	n.armed = true
	n.clock.AfterFunc(n.delay, n.fire)
}

func (n *Notifier) fire() {
	n.lock.Lock()
	defer n.lock.Unlock()
	n.armed = false
	n.send()
}

// Notify sends a refresh event to all subscribers immediately. It does not
// affect a scheduled refresh.
func (n *Notifier) Notify() {
	n.lock.Lock()
	defer n.lock.Unlock()
	n.send()
}

// send delivers an event to each subscriber. Must be called with the lock
// held. Subscriber channels are unbounded, so this does not block on slow
// readers.
func (n *Notifier) send() {
	if n.closed {
		return
	}
	for _, ch := range n.subs {
		ch <- struct{}{}
	}
	log.Debugw("Sent refresh", "subscribers", len(n.subs))
}

// OnRefresh creates a channel that receives refresh events, and adds that
// channel to the list of notification channels.
//
// Calling the returned cancel function removes the notification channel from
// the list of channels to be notified, and closes the channel to allow any
// reading goroutines to stop waiting on the channel.
func (n *Notifier) OnRefresh() (<-chan struct{}, context.CancelFunc) {
	cq := channelqueue.New[struct{}](-1)
	ch := cq.In()

	n.lock.Lock()
	if n.closed {
		n.lock.Unlock()
		close(ch)
		return cq.Out(), func() {}
	}
	n.subs = append(n.subs, ch)
	n.lock.Unlock()

	var once sync.Once
	cncl := func() {
		once.Do(func() {
			n.lock.Lock()
			defer n.lock.Unlock()
			for i, ca := range n.subs {
				if ca == ch {
					n.subs[i] = n.subs[len(n.subs)-1]
					n.subs[len(n.subs)-1] = nil
					n.subs = n.subs[:len(n.subs)-1]
					close(ch)
					break
				}
			}
		})
	}
	return cq.Out(), cncl
}

// Close stops delivery and closes all subscriber channels. A scheduled
// refresh that fires after Close is dropped.
func (n *Notifier) Close() {
	n.lock.Lock()
	defer n.lock.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	for _, ch := range n.subs {
		close(ch)
	}
	n.subs = nil
}
