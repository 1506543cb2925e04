package protocol

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/jovyanlabs/kernel-debug-sdk-go/internal/dap"
)

// EventHandler receives kernel debug events.
//
// Handlers run on the dispatch goroutine: events reach every handler in
// kernel order, and a slow handler delays later events rather than losing
// them. A handler that must block (for example to issue its own request)
// should hand the event off to another goroutine.
type EventHandler interface {
	OnEvent(event *dap.Event)
}

// EventHandlerFunc adapts a function to the EventHandler interface.
type EventHandlerFunc func(event *dap.Event)

// OnEvent implements EventHandler.
func (f EventHandlerFunc) OnEvent(event *dap.Event) { f(event) }

// EventSubscription is a handle on one registered handler.
type EventSubscription struct {
	id         uint64
	dispatcher *Dispatcher
	handler    EventHandler
	cancelled  atomic.Bool
}

// Cancel removes the subscription. It is idempotent and safe to call from
// inside the handler itself. After Cancel returns, the handler receives no
// events from any later dispatch pass; a pass already snapshotted may still
// be skipped mid-flight via the cancelled flag.
func (s *EventSubscription) Cancel() {
	if s == nil || s.cancelled.Swap(true) {
		return
	}

	s.dispatcher.remove(s.id)
}

// Active reports whether the subscription still receives events.
func (s *EventSubscription) Active() bool {
	return s != nil && !s.cancelled.Load()
}

// Dispatcher fans kernel events out to subscribers.
//
// Delivery order is kernel order: the routing loop queues events into a
// bounded ordered queue and a single dispatch goroutine drains it. Within
// one event, handlers run in subscription order. A panicking handler is
// isolated: the panic is logged and counted, the remaining handlers still
// run, and routing is unaffected.
type Dispatcher struct {
	log *slog.Logger

	mu     sync.Mutex
	nextID uint64
	subs   []*EventSubscription
	closed bool

	queue     chan *dap.Event
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	dispatched atomic.Uint64
	dropped    atomic.Uint64
	panics     atomic.Uint64
}

// NewDispatcher creates a dispatcher with the given queue capacity.
// Start must be called before events flow.
func NewDispatcher(log *slog.Logger, queueSize int) *Dispatcher {
	return &Dispatcher{
		log:   log.With("component", "dispatcher"),
		queue: make(chan *dap.Event, queueSize),
		done:  make(chan struct{}),
	}
}

// Start spawns the dispatch goroutine. It is called at most once; events
// queued via Notify beforehand are delivered once the goroutine runs.
func (d *Dispatcher) Start() {
	d.wg.Add(1)

	go d.run()
}

// Close unsubscribes every handler and stops the dispatch goroutine.
// Events still queued are dropped and counted. Safe to call multiple
// times, and safe to call on a dispatcher that was never started.
//
// Close waits for the dispatch goroutine, so it must not be called from
// inside an event handler; Cancel the subscription there, or hand the
// teardown to another goroutine.
func (d *Dispatcher) Close() {
	d.mu.Lock()

	d.closed = true
	for _, sub := range d.subs {
		sub.cancelled.Store(true)
	}
	d.subs = nil

	d.mu.Unlock()

	d.closeOnce.Do(func() {
		close(d.done)
	})

	d.wg.Wait()

	// The run loop is gone; anything still queued was never delivered.
	for {
		select {
		case <-d.queue:
			d.dropped.Add(1)
		default:
			return
		}
	}
}

// Subscribe registers a handler. Handlers receive events in subscription
// order. Subscribing on a closed dispatcher returns an already-cancelled
// subscription.
func (d *Dispatcher) Subscribe(h EventHandler) *EventSubscription {
	sub := &EventSubscription{dispatcher: d, handler: h}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		sub.cancelled.Store(true)

		return sub
	}

	d.nextID++
	sub.id = d.nextID
	d.subs = append(d.subs, sub)

	return sub
}

// SubscriberCount returns the number of live subscriptions.
func (d *Dispatcher) SubscriberCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.subs)
}

// Notify queues an event for ordered delivery. It blocks when the queue is
// full so kernel event order is never lost, and gives up (counting a drop)
// once the dispatcher closes.
func (d *Dispatcher) Notify(ev *dap.Event) {
	select {
	case d.queue <- ev:
	case <-d.done:
		d.dropped.Add(1)
	}
}

// Dispatched returns the number of events delivered to subscribers.
func (d *Dispatcher) Dispatched() uint64 { return d.dispatched.Load() }

// Dropped returns the number of events discarded at close.
func (d *Dispatcher) Dropped() uint64 { return d.dropped.Load() }

// Panics returns the number of recovered handler panics.
func (d *Dispatcher) Panics() uint64 { return d.panics.Load() }

func (d *Dispatcher) run() {
	defer d.wg.Done()
	defer d.log.Debug("Event dispatch loop stopped")

	for {
		select {
		case ev := <-d.queue:
			d.dispatch(ev)

		case <-d.done:
			// Closing races the queue: count whatever never got out.
			for {
				select {
				case <-d.queue:
					d.dropped.Add(1)
				default:
					return
				}
			}
		}
	}
}

// dispatch delivers one event to a snapshot of the registry. Subscriptions
// cancelled before this pass began are not in the snapshot; ones cancelled
// mid-pass are skipped by their flag.
func (d *Dispatcher) dispatch(ev *dap.Event) {
	d.mu.Lock()
	snapshot := make([]*EventSubscription, len(d.subs))
	copy(snapshot, d.subs)
	d.mu.Unlock()

	for _, sub := range snapshot {
		if sub.cancelled.Load() {
			continue
		}

		d.deliver(sub, ev)
	}

	d.dispatched.Add(1)
}

// deliver invokes one handler, isolating panics so a faulty subscriber
// cannot break the others or the routing loop.
func (d *Dispatcher) deliver(sub *EventSubscription, ev *dap.Event) {
	defer func() {
		if r := recover(); r != nil {
			d.panics.Add(1)
			d.log.Warn("Event handler panicked", "event", ev.Event, "panic", r)
		}
	}()

	sub.handler.OnEvent(ev)
}

// remove deletes a subscription from the ordered registry.
func (d *Dispatcher) remove(id uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, sub := range d.subs {
		if sub.id == id {
			d.subs = append(d.subs[:i], d.subs[i+1:]...)

			return
		}
	}
}
