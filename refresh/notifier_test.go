package refresh_test

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/restlens/go-restlens/refresh"
	"github.com/stretchr/testify/require"
)

// drain counts the events available on ch within wait.
func drain(ch <-chan struct{}, wait time.Duration) int {
	var n int
	timeout := time.After(wait)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return n
			}
			n++
		case <-timeout:
			return n
		}
	}
}

func TestCoalescing(t *testing.T) {
	clk := clock.NewMock()
	n, err := refresh.New(refresh.WithClock(clk))
	require.NoError(t, err)
	defer n.Close()

	events, cancel := n.OnRefresh()
	defer cancel()

	for i := 0; i < 25; i++ {
		n.RequestRefresh()
	}
	require.Zero(t, drain(events, 20*time.Millisecond))

	clk.Add(refresh.DefaultDelay)
	require.Equal(t, 1, drain(events, 100*time.Millisecond))

	// Once fired, the notifier can be armed again.
	n.RequestRefresh()
	clk.Add(refresh.DefaultDelay)
	require.Equal(t, 1, drain(events, 100*time.Millisecond))
}

func TestCoalescingRealClock(t *testing.T) {
	n, err := refresh.New()
	require.NoError(t, err)
	defer n.Close()

	events, cancel := n.OnRefresh()
	defer cancel()

	start := time.Now()
	for i := 0; i < 10; i++ {
		n.RequestRefresh()
		time.Sleep(time.Millisecond)
	}
	select {
	case <-events:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for refresh")
	}
	require.GreaterOrEqual(t, time.Since(start), refresh.DefaultDelay)
	require.Zero(t, drain(events, 250*time.Millisecond))
}

func TestNotifyImmediate(t *testing.T) {
	n, err := refresh.New(refresh.WithClock(clock.NewMock()))
	require.NoError(t, err)
	defer n.Close()

	events1, cancel1 := n.OnRefresh()
	defer cancel1()
	events2, cancel2 := n.OnRefresh()
	defer cancel2()

	n.Notify()
	require.Equal(t, 1, drain(events1, 50*time.Millisecond))
	require.Equal(t, 1, drain(events2, 50*time.Millisecond))
}

func TestCancel(t *testing.T) {
	n, err := refresh.New(refresh.WithClock(clock.NewMock()))
	require.NoError(t, err)
	defer n.Close()

	events, cancel := n.OnRefresh()
	cancel()
	cancel()

	n.Notify()
	_, ok := <-events
	require.False(t, ok)
}

func TestClose(t *testing.T) {
	clk := clock.NewMock()
	n, err := refresh.New(refresh.WithClock(clk))
	require.NoError(t, err)

	events, cancel := n.OnRefresh()
	n.RequestRefresh()
	n.Close()
	cancel()

	clk.Add(refresh.DefaultDelay)
	_, ok := <-events
	require.False(t, ok)

	late, _ := n.OnRefresh()
	_, ok = <-late
	require.False(t, ok)

	_, err = refresh.New(refresh.WithDelay(-time.Second))
	require.ErrorContains(t, err, "negative delay")
}
