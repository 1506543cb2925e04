package kerneldebug

import (
	"context"
	"iter"
)

// Session is a debug-protocol session over one kernel channel.
//
// A session correlates asynchronous kernel replies with the requests that
// caused them, fans unsolicited debug events out to subscribers in kernel
// order, and passes non-debug kernel traffic through untouched. The
// channel is borrowed: disposing a session never closes it.
//
// Lifecycle: sessions are single-use. Start() enables debug handling on
// the kernel side before admitting requests; Stop() fails every pending
// request and disables it; Dispose() is terminal and idempotent. A stopped
// or disposed session cannot be restarted - create a new one with
// NewSession().
//
// Example usage:
//
//	session := kerneldebug.NewSession(ch,
//	    kerneldebug.WithLogger(slog.Default()),
//	)
//	defer session.Dispose()
//
//	if err := session.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := session.DumpCell(ctx, "i=0\ni+=1\ni+=1")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	_, err = session.SetBreakpoints(ctx,
//	    kerneldebug.Source{Path: result.SourcePath},
//	    []kerneldebug.SourceBreakpoint{{Line: 2}},
//	)
type Session interface {
	// Start begins routing kernel traffic and enables debug handling on
	// the kernel side. Returns ErrSessionAlreadyStarted on a started
	// session, ErrSessionStopped / ErrSessionDisposed on a spent one.
	Start(ctx context.Context) error

	// Stop fails every pending request with ErrSessionStopped and
	// disables debug handling on the kernel side. Idempotent once
	// stopped or disposed.
	Stop(ctx context.Context) error

	// Dispose releases the session's resources and cancels every event
	// subscription. Terminal, idempotent, never closes the channel.
	// Must not be called from inside an event handler (it waits for the
	// goroutine running the handlers); spawn a goroutine for that.
	Dispose() error

	// Close is an alias for Dispose so a session satisfies io.Closer.
	Close() error

	// IsStarted reports whether the session is currently started.
	IsStarted() bool

	// IsDisposed reports whether the session has been disposed. Once
	// true it stays true.
	IsDisposed() bool

	// ID returns the session's unique instance identifier.
	ID() string

	// SendRequest sends one raw debug command and waits for the reply.
	// A reply with Success=false is returned as data, not an error: the
	// Message field carries the kernel's explanation.
	SendRequest(ctx context.Context, command string, arguments map[string]any) (*Response, error)

	// OnEvent registers a handler for every inbound debug event, in
	// kernel order. Cancel the subscription to stop receiving.
	OnEvent(h EventHandler) *EventSubscription

	// Events returns an iterator over inbound debug events. Iteration
	// ends when ctx is cancelled or the session is disposed.
	Events(ctx context.Context) iter.Seq[*Event]

	// WaitForEvent blocks until the kernel emits an event with the given
	// name, the context ends, or the session is disposed.
	WaitForEvent(ctx context.Context, name string) (*Event, error)

	// KernelIO returns the pass-through stream of non-debug kernel
	// traffic received while the session owns the channel's read side.
	KernelIO() <-chan *Message

	// Stats returns a snapshot of the session's traffic counters.
	Stats() Stats

	// Initialize negotiates the debug protocol and returns the kernel's
	// capabilities. First command of a debug session.
	Initialize(ctx context.Context) (*Capabilities, error)

	// Attach attaches the debugger to the kernel's running interpreter.
	Attach(ctx context.Context) error

	// ConfigurationDone signals that breakpoint configuration is
	// complete and execution may proceed.
	ConfigurationDone(ctx context.Context) error

	// DumpCell submits code for debugging and returns the kernel-side
	// source path it was written to.
	DumpCell(ctx context.Context, code string) (*DumpCellResult, error)

	// SetBreakpoints replaces the breakpoints for one source and
	// returns what the kernel actually bound.
	SetBreakpoints(ctx context.Context, source Source, breakpoints []SourceBreakpoint) ([]Breakpoint, error)

	// Continue resumes execution of a stopped thread.
	Continue(ctx context.Context, threadID int) error

	// Next steps over the current line.
	Next(ctx context.Context, threadID int) error

	// StepIn steps into the call on the current line.
	StepIn(ctx context.Context, threadID int) error

	// StepOut runs until the current function returns.
	StepOut(ctx context.Context, threadID int) error

	// StackTrace returns the call stack of a stopped thread.
	StackTrace(ctx context.Context, threadID int) ([]StackFrame, error)

	// Scopes returns the variable scopes of one stack frame.
	Scopes(ctx context.Context, frameID int) ([]Scope, error)

	// Variables returns the children of a variable container.
	Variables(ctx context.Context, variablesReference int) ([]Variable, error)

	// Evaluate evaluates an expression, optionally in a stack frame
	// context (frameID 0 means global). A name the kernel cannot
	// resolve comes back as a RequestFailedError.
	Evaluate(ctx context.Context, expression string, frameID int) (*EvaluateResult, error)

	// DebugInfo returns the kernel's debug state snapshot.
	DebugInfo(ctx context.Context) (*DebugInfoResult, error)

	// Disconnect detaches the debugger from the kernel.
	Disconnect(ctx context.Context) error
}

// NewSession creates a debug session over ch.
//
// The session is not started after creation; call Start():
//
//	session := kerneldebug.NewSession(ch,
//	    kerneldebug.WithLogger(slog.Default()),
//	    kerneldebug.WithRequestTimeout(10*time.Second),
//	)
func NewSession(ch Channel, opts ...Option) Session {
	return newSessionImpl(ch, applySessionOptions(opts))
}
