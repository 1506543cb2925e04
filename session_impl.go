package kerneldebug

import (
	"context"
	"iter"

	"github.com/jovyanlabs/kernel-debug-sdk-go/internal/config"
	"github.com/jovyanlabs/kernel-debug-sdk-go/internal/session"
)

// sessionWrapper wraps the internal session to adapt it to the public
// interface.
type sessionWrapper struct {
	impl *session.Session
}

// Compile-time check that *sessionWrapper implements the Session interface.
var _ Session = (*sessionWrapper)(nil)

// newSessionImpl creates the internal session implementation.
func newSessionImpl(ch Channel, options *config.Options) Session {
	return &sessionWrapper{impl: session.New(ch, options)}
}

func (s *sessionWrapper) Start(ctx context.Context) error {
	return s.impl.Start(ctx)
}

func (s *sessionWrapper) Stop(ctx context.Context) error {
	return s.impl.Stop(ctx)
}

func (s *sessionWrapper) Dispose() error {
	return s.impl.Dispose()
}

func (s *sessionWrapper) Close() error {
	return s.impl.Close()
}

func (s *sessionWrapper) IsStarted() bool {
	return s.impl.IsStarted()
}

func (s *sessionWrapper) IsDisposed() bool {
	return s.impl.IsDisposed()
}

func (s *sessionWrapper) ID() string {
	return s.impl.ID()
}

func (s *sessionWrapper) SendRequest(
	ctx context.Context,
	command string,
	arguments map[string]any,
) (*Response, error) {
	return s.impl.SendRequest(ctx, command, arguments)
}

func (s *sessionWrapper) OnEvent(h EventHandler) *EventSubscription {
	return s.impl.OnEvent(h)
}

func (s *sessionWrapper) Events(ctx context.Context) iter.Seq[*Event] {
	return s.impl.Events(ctx)
}

func (s *sessionWrapper) WaitForEvent(ctx context.Context, name string) (*Event, error) {
	return s.impl.WaitForEvent(ctx, name)
}

func (s *sessionWrapper) KernelIO() <-chan *Message {
	return s.impl.KernelIO()
}

func (s *sessionWrapper) Stats() Stats {
	return s.impl.Stats()
}

func (s *sessionWrapper) Initialize(ctx context.Context) (*Capabilities, error) {
	return s.impl.Initialize(ctx)
}

func (s *sessionWrapper) Attach(ctx context.Context) error {
	return s.impl.Attach(ctx)
}

func (s *sessionWrapper) ConfigurationDone(ctx context.Context) error {
	return s.impl.ConfigurationDone(ctx)
}

func (s *sessionWrapper) DumpCell(ctx context.Context, code string) (*DumpCellResult, error) {
	return s.impl.DumpCell(ctx, code)
}

func (s *sessionWrapper) SetBreakpoints(
	ctx context.Context,
	source Source,
	breakpoints []SourceBreakpoint,
) ([]Breakpoint, error) {
	return s.impl.SetBreakpoints(ctx, source, breakpoints)
}

func (s *sessionWrapper) Continue(ctx context.Context, threadID int) error {
	return s.impl.Continue(ctx, threadID)
}

func (s *sessionWrapper) Next(ctx context.Context, threadID int) error {
	return s.impl.Next(ctx, threadID)
}

func (s *sessionWrapper) StepIn(ctx context.Context, threadID int) error {
	return s.impl.StepIn(ctx, threadID)
}

func (s *sessionWrapper) StepOut(ctx context.Context, threadID int) error {
	return s.impl.StepOut(ctx, threadID)
}

func (s *sessionWrapper) StackTrace(ctx context.Context, threadID int) ([]StackFrame, error) {
	return s.impl.StackTrace(ctx, threadID)
}

func (s *sessionWrapper) Scopes(ctx context.Context, frameID int) ([]Scope, error) {
	return s.impl.Scopes(ctx, frameID)
}

func (s *sessionWrapper) Variables(ctx context.Context, variablesReference int) ([]Variable, error) {
	return s.impl.Variables(ctx, variablesReference)
}

func (s *sessionWrapper) Evaluate(ctx context.Context, expression string, frameID int) (*EvaluateResult, error) {
	return s.impl.Evaluate(ctx, expression, frameID)
}

func (s *sessionWrapper) DebugInfo(ctx context.Context) (*DebugInfoResult, error) {
	return s.impl.DebugInfo(ctx)
}

func (s *sessionWrapper) Disconnect(ctx context.Context) error {
	return s.impl.Disconnect(ctx)
}
