package protocol

import (
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jovyanlabs/kernel-debug-sdk-go/internal/dap"
)

// recorder collects delivered event names, safe for concurrent appends.
type recorder struct {
	mu   sync.Mutex
	seen []string
}

func (r *recorder) OnEvent(ev *dap.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seen = append(r.seen, ev.Event)
}

func (r *recorder) events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, len(r.seen))
	copy(out, r.seen)

	return out
}

func event(name string) *dap.Event {
	return &dap.Event{Type: dap.TypeEvent, Event: name}
}

func TestDispatcher_DeliversInOrder(t *testing.T) {
	d := NewDispatcher(slog.Default(), 16)
	d.Start()

	defer d.Close()

	rec := &recorder{}
	d.Subscribe(rec)

	names := []string{"output", "initialized", "process", "stopped", "continued"}
	for _, name := range names {
		d.Notify(event(name))
	}

	require.Eventually(t, func() bool {
		return len(rec.events()) == len(names)
	}, time.Second, time.Millisecond)

	require.Equal(t, names, rec.events())
}

func TestDispatcher_SubscriptionOrderWithinEvent(t *testing.T) {
	d := NewDispatcher(slog.Default(), 16)
	d.Start()

	defer d.Close()

	var mu sync.Mutex

	var order []string

	tag := func(name string) EventHandlerFunc {
		return func(ev *dap.Event) {
			mu.Lock()
			defer mu.Unlock()

			order = append(order, name+":"+ev.Event)
		}
	}

	d.Subscribe(tag("first"))
	d.Subscribe(tag("second"))

	d.Notify(event("stopped"))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()

		return len(order) == 2
	}, time.Second, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"first:stopped", "second:stopped"}, order)
}

func TestDispatcher_UnsubscribeFromInsideHandler(t *testing.T) {
	d := NewDispatcher(slog.Default(), 16)
	d.Start()

	defer d.Close()

	oneShot := &recorder{}
	steady := &recorder{}

	var sub *EventSubscription
	sub = d.Subscribe(EventHandlerFunc(func(ev *dap.Event) {
		oneShot.OnEvent(ev)
		sub.Cancel()
	}))
	d.Subscribe(steady)

	d.Notify(event("stopped"))
	d.Notify(event("continued"))

	require.Eventually(t, func() bool {
		return len(steady.events()) == 2
	}, time.Second, time.Millisecond)

	require.Equal(t, []string{"stopped"}, oneShot.events(),
		"a handler that cancels itself receives nothing after its pass")
	require.Equal(t, []string{"stopped", "continued"}, steady.events())
	require.False(t, sub.Active())
	require.Equal(t, 1, d.SubscriberCount())
}

func TestDispatcher_CancelBeforeDispatchPass(t *testing.T) {
	d := NewDispatcher(slog.Default(), 16)

	rec := &recorder{}
	sub := d.Subscribe(rec)
	sub.Cancel()

	d.Start()

	defer d.Close()

	d.Notify(event("stopped"))

	// Give the dispatch loop a moment; nothing should arrive.
	time.Sleep(20 * time.Millisecond)
	require.Empty(t, rec.events())
}

func TestDispatcher_PanickingSubscriberIsolated(t *testing.T) {
	d := NewDispatcher(slog.Default(), 16)
	d.Start()

	defer d.Close()

	steady := &recorder{}

	d.Subscribe(EventHandlerFunc(func(ev *dap.Event) {
		panic(fmt.Sprintf("handler exploded on %s", ev.Event))
	}))
	d.Subscribe(steady)

	d.Notify(event("output"))
	d.Notify(event("stopped"))

	require.Eventually(t, func() bool {
		return len(steady.events()) == 2
	}, time.Second, time.Millisecond)

	require.Equal(t, []string{"output", "stopped"}, steady.events())
	require.Equal(t, uint64(2), d.Panics())
	require.Equal(t, 2, d.SubscriberCount(), "panicking is not unsubscribing")
}

func TestDispatcher_CancelIdempotent(t *testing.T) {
	d := NewDispatcher(slog.Default(), 16)

	sub := d.Subscribe(&recorder{})
	require.True(t, sub.Active())

	sub.Cancel()
	sub.Cancel()
	sub.Cancel()

	require.False(t, sub.Active())
	require.Zero(t, d.SubscriberCount())
}

func TestDispatcher_SubscribeAfterClose(t *testing.T) {
	d := NewDispatcher(slog.Default(), 16)
	d.Start()
	d.Close()

	sub := d.Subscribe(&recorder{})
	require.False(t, sub.Active())
	require.Zero(t, d.SubscriberCount())

	// Notify after close must not block or panic.
	d.Notify(event("stopped"))
	require.Equal(t, uint64(1), d.Dropped())
}

func TestDispatcher_CloseDropsQueued(t *testing.T) {
	// Never started: everything queued is dropped at close.
	d := NewDispatcher(slog.Default(), 16)
	d.Subscribe(&recorder{})

	d.Notify(event("output"))
	d.Notify(event("stopped"))
	d.Notify(event("continued"))

	d.Close()

	require.Equal(t, uint64(3), d.Dropped())
	require.Zero(t, d.Dispatched())
}

func TestDispatcher_NotifyBackpressureReleasedByClose(t *testing.T) {
	d := NewDispatcher(slog.Default(), 1)

	d.Notify(event("output")) // fills the queue

	released := make(chan struct{})

	go func() {
		d.Notify(event("stopped")) // blocks until close
		close(released)
	}()

	select {
	case <-released:
		t.Fatal("Notify should block while the queue is full")
	case <-time.After(20 * time.Millisecond):
	}

	d.Close()

	select {
	case <-released:
	case <-time.After(time.Second):
		t.Fatal("Close must release a blocked Notify")
	}

	// The queued event is drained and counted; the released one is counted
	// on whichever branch its select lands.
	require.GreaterOrEqual(t, d.Dropped(), uint64(1))
	require.Zero(t, d.Dispatched())
}

func TestDispatcher_CloseIdempotentAndRaceSafe(t *testing.T) {
	// Run with: go test -race -count=100
	for range 100 {
		d := NewDispatcher(slog.Default(), 4)
		d.Start()

		rec := &recorder{}
		sub := d.Subscribe(rec)

		var wg sync.WaitGroup

		wg.Go(func() {
			d.Notify(event("stopped"))
		})
		wg.Go(func() {
			sub.Cancel()
		})
		wg.Go(func() {
			d.Close()
		})
		wg.Go(func() {
			d.Close()
		})

		wg.Wait()
	}
}
