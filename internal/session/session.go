package session

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/jovyanlabs/kernel-debug-sdk-go/internal/channel"
	"github.com/jovyanlabs/kernel-debug-sdk-go/internal/config"
	"github.com/jovyanlabs/kernel-debug-sdk-go/internal/dap"
	"github.com/jovyanlabs/kernel-debug-sdk-go/internal/errors"
	"github.com/jovyanlabs/kernel-debug-sdk-go/internal/protocol"
)

// Session lifecycle states. Disposed is terminal and reachable from any
// state; the others advance in one direction only.
const (
	stateNotStarted int32 = iota
	stateStarted
	stateStopped
	stateDisposed
)

// Session multiplexes one kernel channel into a debug request/reply API and
// an event stream.
//
// A session borrows its channel: it is the sole reader while started, but it
// never closes the channel, and non-debug traffic arriving on the channel is
// passed through untouched via KernelIO. Sessions are single-use: once
// stopped or disposed, create a new one.
type Session struct {
	log     *slog.Logger
	id      string
	ch      channel.Channel
	options *config.Options

	correlator *protocol.Correlator
	dispatcher *protocol.Dispatcher

	requestTimeout time.Duration
	kernelIO       chan *channel.Message

	// Errgroup for the routing goroutine
	eg          *errgroup.Group
	routeCancel context.CancelFunc

	// Lifecycle management
	mu          sync.Mutex
	state       atomic.Int32
	done        chan struct{}
	disposeOnce sync.Once

	// Counters
	requestsSent     atomic.Uint64
	repliesMatched   atomic.Uint64
	repliesUnmatched atomic.Uint64
	kernelIODropped  atomic.Uint64
}

// Stats is a point-in-time snapshot of a session's traffic counters.
type Stats struct {
	RequestsSent     uint64
	RepliesMatched   uint64
	RepliesUnmatched uint64
	EventsDispatched uint64
	EventsDropped    uint64
	SubscriberPanics uint64
	KernelIODropped  uint64
}

// New creates a debug session over ch.
//
// The session is not started after creation. Call Start() to begin routing
// kernel traffic and to enable debug handling on the kernel side.
func New(ch channel.Channel, options *config.Options) *Session {
	if options == nil {
		options = &config.Options{}
	}

	log := options.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	id := ulid.Make().String()
	log = log.With("component", "session", "session_id", id)

	return &Session{
		log:            log,
		id:             id,
		ch:             ch,
		options:        options,
		correlator:     protocol.NewCorrelator(log),
		dispatcher:     protocol.NewDispatcher(log, options.EffectiveEventQueueSize()),
		requestTimeout: options.EffectiveRequestTimeout(),
		kernelIO:       make(chan *channel.Message, options.EffectiveKernelIOBuffer()),
		done:           make(chan struct{}),
	}
}

// lifecycleError maps a non-started state to its sentinel.
func lifecycleError(state int32) error {
	switch state {
	case stateStopped:
		return errors.ErrSessionStopped
	case stateDisposed:
		return errors.ErrSessionDisposed
	default:
		return errors.ErrSessionNotStarted
	}
}

// ID returns the session's unique instance identifier.
func (s *Session) ID() string {
	return s.id
}

// IsStarted reports whether the session is currently started.
func (s *Session) IsStarted() bool {
	return s.state.Load() == stateStarted
}

// IsDisposed reports whether the session has been disposed. Once true it
// stays true.
func (s *Session) IsDisposed() bool {
	return s.state.Load() == stateDisposed
}

// Start begins routing kernel traffic and enables debug handling on the
// kernel side.
//
// The enable control message is sent before the session is marked started,
// so no request can reach a kernel that is not yet intercepting debug
// messages. Returns ErrSessionAlreadyStarted on a started session and
// ErrSessionStopped / ErrSessionDisposed on a spent one.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state.Load() {
	case stateStarted:
		return errors.ErrSessionAlreadyStarted
	case stateStopped:
		return errors.ErrSessionStopped
	case stateDisposed:
		return errors.ErrSessionDisposed
	}

	if !s.ch.Connected() {
		return &errors.ChannelError{Op: "start", Err: errors.ErrChannelNotConnected}
	}

	s.log.Info("Starting debug session")

	// Create errgroup with background context for the routing goroutine.
	// The caller's ctx may carry an initialization timeout; the routing
	// loop must outlive it and run until Dispose(). The done channel and
	// routeCancel provide explicit shutdown signaling.
	routeCtx, cancel := context.WithCancel(context.Background())
	s.routeCancel = cancel
	s.eg, routeCtx = errgroup.WithContext(routeCtx)

	s.eg.Go(func() error {
		return s.routeLoop(routeCtx)
	})

	if err := s.sendControl(ctx, channel.ClassDebugEnable); err != nil {
		s.log.Error("Failed to enable kernel debug handling", "error", err)

		// Only the routing loop is torn down. The dispatcher has not
		// started yet, so a retried Start gets a live one.
		cancel()
		_ = s.eg.Wait()
		s.routeCancel = nil

		return err
	}

	s.dispatcher.Start()
	s.state.Store(stateStarted)
	s.log.Info("Debug session started")

	return nil
}

// SendRequest sends one debug command and waits for the kernel's reply.
//
// The reply is returned as-is even when Success is false: the kernel
// declining a command is data, not a transport failure, and the Message
// field explains why. Errors are reserved for the session machinery:
// ErrSessionNotStarted outside the started state, ChannelError when the
// channel cannot carry the request, ErrRequestTimeout when the configured
// timeout elapses, and ErrSessionStopped / ErrSessionDisposed when teardown
// interrupts the request. Precondition failures consume no sequence number.
func (s *Session) SendRequest(
	ctx context.Context,
	command string,
	arguments map[string]any,
) (*dap.Response, error) {
	if s.state.Load() != stateStarted {
		return nil, errors.ErrSessionNotStarted
	}

	if !s.ch.Connected() {
		return nil, &errors.ChannelError{Op: "send", Err: errors.ErrChannelNotConnected}
	}

	seq, result := s.correlator.Track(command)

	// Stop and Dispose flip the state before draining the pending table.
	// An entry tracked after that drain would never be failed, so the
	// state is re-checked once the entry is registered.
	if state := s.state.Load(); state != stateStarted {
		s.correlator.Discard(seq)

		return nil, lifecycleError(state)
	}

	content, err := json.Marshal(dap.NewRequest(seq, command, arguments))
	if err != nil {
		s.correlator.Discard(seq)

		return nil, fmt.Errorf("marshal %s request: %w", command, err)
	}

	msg := &channel.Message{
		ID:      uuid.NewString(),
		Class:   channel.ClassDebugRequest,
		Content: content,
	}

	if err := s.ch.Send(ctx, msg); err != nil {
		s.correlator.Discard(seq)

		return nil, &errors.ChannelError{Op: "send", Err: err}
	}

	s.requestsSent.Add(1)
	s.log.Debug("Sent debug request", "seq", seq, "command", command)

	return s.await(ctx, seq, command, result)
}

// await blocks the caller (not the routing loop) until the tracked request
// resolves, the context ends, or the per-session timeout elapses.
func (s *Session) await(
	ctx context.Context,
	seq int,
	command string,
	result <-chan protocol.Result,
) (*dap.Response, error) {
	var timeout <-chan time.Time

	if s.requestTimeout > 0 {
		timer := time.NewTimer(s.requestTimeout)
		defer timer.Stop()

		timeout = timer.C
	}

	select {
	case res := <-result:
		if res.Err != nil {
			return nil, res.Err
		}

		return res.Response, nil

	case <-s.done:
		s.correlator.Discard(seq)

		return nil, errors.ErrSessionDisposed

	case <-ctx.Done():
		s.correlator.Discard(seq)
		s.log.Debug("Request cancelled", "seq", seq, "command", command)

		return nil, ctx.Err()

	case <-timeout:
		s.correlator.Discard(seq)
		s.log.Warn("Request timed out", "seq", seq, "command", command, "timeout", s.requestTimeout)

		return nil, fmt.Errorf("%s after %v: %w", command, s.requestTimeout, errors.ErrRequestTimeout)
	}
}

// Stop fails every pending request and disables debug handling on the
// kernel side.
//
// The state flips before pending requests are failed, so no new request
// slips in during teardown; the disable control message goes out last so a
// reply already in flight still finds an (empty) table instead of a dead
// loop. Routing keeps running until Dispose() so non-debug kernel traffic
// continues to flow. Idempotent once stopped or disposed.
func (s *Session) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state.Load() {
	case stateStopped, stateDisposed:
		return nil
	case stateNotStarted:
		s.state.Store(stateStopped)

		return nil
	}

	s.log.Info("Stopping debug session")
	s.state.Store(stateStopped)

	s.correlator.FailAll(errors.ErrSessionStopped)

	// Best effort: a kernel that already went away cannot be disabled.
	if err := s.sendControl(ctx, channel.ClassDebugDisable); err != nil {
		s.log.Warn("Failed to disable kernel debug handling", "error", err)
	}

	s.log.Info("Debug session stopped")

	return nil
}

// Dispose releases the session's resources: pending requests fail, all
// event subscriptions are cancelled, and the routing loop is shut down.
//
// The channel is left untouched; it belongs to whoever created it. Dispose
// is terminal and idempotent, and makes no kernel-side call: Stop() is the
// polite teardown path.
//
// Dispose must not be called from inside an event handler: it waits for
// the dispatch goroutine, which is the goroutine running the handler. A
// handler reacting to a terminal event hands the teardown off:
//
//	session.OnEvent(protocol.EventHandlerFunc(func(ev *dap.Event) {
//	    if ev.Event == dap.EventTerminated {
//	        go session.Dispose()
//	    }
//	}))
func (s *Session) Dispose() error {
	s.disposeOnce.Do(func() {
		s.log.Info("Disposing debug session")

		s.mu.Lock()
		s.state.Store(stateDisposed)
		s.mu.Unlock()

		s.correlator.FailAll(errors.ErrSessionDisposed)
		s.dispatcher.Close()

		close(s.done)

		if s.routeCancel != nil {
			s.routeCancel()
			_ = s.eg.Wait()
		}

		s.log.Info("Debug session disposed")
	})

	return nil
}

// Close disposes the session so it satisfies io.Closer.
func (s *Session) Close() error {
	return s.Dispose()
}

// OnEvent registers a handler for every inbound debug event, in kernel
// order. Cancel the returned subscription to stop receiving.
func (s *Session) OnEvent(h protocol.EventHandler) *protocol.EventSubscription {
	return s.dispatcher.Subscribe(h)
}

// Events returns an iterator over inbound debug events. Iteration ends when
// ctx is cancelled or the session is disposed.
func (s *Session) Events(ctx context.Context) iter.Seq[*dap.Event] {
	return func(yield func(*dap.Event) bool) {
		events := make(chan *dap.Event, s.options.EffectiveEventQueueSize())

		sub := s.dispatcher.Subscribe(protocol.EventHandlerFunc(func(ev *dap.Event) {
			select {
			case events <- ev:
			case <-ctx.Done():
			case <-s.done:
			}
		}))
		defer sub.Cancel()

		for {
			select {
			case ev := <-events:
				if !yield(ev) {
					return
				}

			case <-ctx.Done():
				return

			case <-s.done:
				return
			}
		}
	}
}

// WaitForEvent blocks until the kernel emits an event with the given name,
// the context ends, or the session is disposed.
func (s *Session) WaitForEvent(ctx context.Context, name string) (*dap.Event, error) {
	found := make(chan *dap.Event, 1)

	sub := s.dispatcher.Subscribe(protocol.EventHandlerFunc(func(ev *dap.Event) {
		if ev.Event != name {
			return
		}

		select {
		case found <- ev:
		default:
		}
	}))
	defer sub.Cancel()

	select {
	case ev := <-found:
		return ev, nil

	case <-ctx.Done():
		return nil, ctx.Err()

	case <-s.done:
		return nil, errors.ErrSessionDisposed
	}
}

// KernelIO returns the pass-through channel carrying every non-debug
// message the kernel sends while the session owns the read side. Consumers
// that fall behind lose messages: pass-through traffic is dropped (and
// counted) when the buffer is full, unlike debug events which backpressure.
func (s *Session) KernelIO() <-chan *channel.Message {
	return s.kernelIO
}

// Stats returns a snapshot of the session's traffic counters.
func (s *Session) Stats() Stats {
	return Stats{
		RequestsSent:     s.requestsSent.Load(),
		RepliesMatched:   s.repliesMatched.Load(),
		RepliesUnmatched: s.repliesUnmatched.Load(),
		EventsDispatched: s.dispatcher.Dispatched(),
		EventsDropped:    s.dispatcher.Dropped(),
		SubscriberPanics: s.dispatcher.Panics(),
		KernelIODropped:  s.kernelIODropped.Load(),
	}
}

// sendControl sends one content-less lifecycle control message.
func (s *Session) sendControl(ctx context.Context, class string) error {
	msg := &channel.Message{
		ID:    uuid.NewString(),
		Class: class,
	}

	if err := s.ch.Send(ctx, msg); err != nil {
		return &errors.ChannelError{Op: class, Err: err}
	}

	return nil
}

// routeLoop is the sole reader of the channel while the session lives. It
// classifies each inbound message by class: debug replies resolve pending
// requests, debug events feed the dispatcher, everything else passes
// through to KernelIO. Malformed debug payloads are logged and dropped,
// never fatal; a fatal channel error fails all pending requests and ends
// routing.
func (s *Session) routeLoop(ctx context.Context) error {
	defer s.log.Debug("Routing loop stopped")

	msgs, errs := s.ch.Recv(ctx)

	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				s.log.Debug("Channel message stream closed")
				s.failOnChannelLoss(&errors.ChannelError{Op: "recv", Err: errors.ErrChannelNotConnected})

				return nil
			}

			s.route(msg)

		case err, ok := <-errs:
			if !ok {
				// A nil channel never fires again; the message stream
				// closing is the shutdown signal.
				errs = nil

				continue
			}

			if parseErr, isParse := stderrors.AsType[*errors.MessageParseError](err); isParse {
				s.log.Warn("Dropping unreadable kernel message", "error", parseErr)

				continue
			}

			s.log.Error("Channel failed", "error", err)
			s.failOnChannelLoss(&errors.ChannelError{Op: "recv", Err: err})

			return err

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// failOnChannelLoss unblocks pending waiters when the channel dies under a
// started session. Stopped and disposed sessions already failed them.
func (s *Session) failOnChannelLoss(err *errors.ChannelError) {
	if s.state.Load() == stateStarted {
		s.correlator.FailAll(err)
	}
}

// route dispatches one inbound message by its class tag.
func (s *Session) route(msg *channel.Message) {
	switch msg.Class {
	case channel.ClassDebugReply:
		s.routeReply(msg)

	case channel.ClassDebugEvent:
		s.routeEvent(msg)

	default:
		select {
		case s.kernelIO <- msg:
		default:
			s.kernelIODropped.Add(1)
			s.log.Warn("Kernel IO buffer full, dropping message", "class", msg.Class, "id", msg.ID)
		}
	}
}

func (s *Session) routeReply(msg *channel.Message) {
	decoded, err := dap.Decode(msg.Content)
	if err != nil {
		s.log.Warn("Dropping undecodable debug reply", "error", err, "id", msg.ID)

		return
	}

	resp, ok := decoded.(*dap.Response)
	if !ok {
		s.log.Warn("Debug reply carried a non-response payload", "id", msg.ID)

		return
	}

	if !s.correlator.Resolve(resp) {
		s.repliesUnmatched.Add(1)
		s.log.Debug("Dropping unmatched reply", "request_seq", resp.RequestSeq, "command", resp.Command)

		return
	}

	s.repliesMatched.Add(1)
}

func (s *Session) routeEvent(msg *channel.Message) {
	decoded, err := dap.Decode(msg.Content)
	if err != nil {
		s.log.Warn("Dropping undecodable debug event", "error", err, "id", msg.ID)

		return
	}

	ev, ok := decoded.(*dap.Event)
	if !ok {
		s.log.Warn("Debug event carried a non-event payload", "id", msg.ID)

		return
	}

	s.log.Debug("Received debug event", "event", ev.Event, "seq", ev.Seq)
	s.dispatcher.Notify(ev)
}
