package kerneldebug

import (
	"github.com/jovyanlabs/kernel-debug-sdk-go/internal/channel"
	"github.com/jovyanlabs/kernel-debug-sdk-go/internal/config"
	"github.com/jovyanlabs/kernel-debug-sdk-go/internal/dap"
	"github.com/jovyanlabs/kernel-debug-sdk-go/internal/protocol"
	"github.com/jovyanlabs/kernel-debug-sdk-go/internal/session"
)

// SessionOptions holds the full configuration for a debug session and,
// when the SDK launches the kernel itself, the kernel process. Most
// callers use the functional options instead.
type SessionOptions = config.Options

// ===== Wire envelopes =====

// Request asks the kernel to execute one debug command.
type Request = dap.Request

// Response answers exactly one request; RequestSeq echoes the request's
// sequence number. Success=false is a protocol-level outcome, not an
// error.
type Response = dap.Response

// Event is an unsolicited kernel notification (stopped, output, ...).
type Event = dap.Event

// Wire envelope kinds, carried in the type field of every message.
const (
	TypeRequest  = dap.TypeRequest
	TypeResponse = dap.TypeResponse
	TypeEvent    = dap.TypeEvent
)

// Names of the events kernels emit, for use with OnEvent and WaitForEvent.
const (
	EventInitialized = dap.EventInitialized
	EventOutput      = dap.EventOutput
	EventProcess     = dap.EventProcess
	EventThread      = dap.EventThread
	EventStopped     = dap.EventStopped
	EventContinued   = dap.EventContinued
	EventTerminated  = dap.EventTerminated
	EventExited      = dap.EventExited
)

// ===== Typed payloads =====

// Source identifies a unit of debuggable code.
type Source = dap.Source

// SourceBreakpoint is a breakpoint the client asks for in SetBreakpoints.
type SourceBreakpoint = dap.SourceBreakpoint

// SourceBreakpoints groups the breakpoints registered against one source
// path, as reported by DebugInfo.
type SourceBreakpoints = dap.SourceBreakpoints

// Breakpoint is the kernel's view of a requested breakpoint.
type Breakpoint = dap.Breakpoint

// StackFrame is one frame of a stopped thread's call stack.
type StackFrame = dap.StackFrame

// Scope is a named variable container within a stack frame.
type Scope = dap.Scope

// Variable is one name/value pair in a scope.
type Variable = dap.Variable

// Capabilities reports what the kernel's debug implementation supports.
type Capabilities = dap.Capabilities

// DumpCellResult carries the kernel-side source path assigned to
// submitted code.
type DumpCellResult = dap.DumpCellResult

// StackTraceResult is the body of a stackTrace response.
type StackTraceResult = dap.StackTraceResult

// EvaluateResult is the body of a successful evaluate response.
type EvaluateResult = dap.EvaluateResult

// DebugInfoResult is the kernel's debug state snapshot.
type DebugInfoResult = dap.DebugInfoResult

// StoppedEventBody is the body of a stopped event.
type StoppedEventBody = dap.StoppedEventBody

// ContinuedEventBody is the body of a continued event.
type ContinuedEventBody = dap.ContinuedEventBody

// OutputEventBody is the body of an output event.
type OutputEventBody = dap.OutputEventBody

// BodyAs decodes a schemaless event or response body into a typed struct.
func BodyAs[T any](body map[string]any) (T, error) {
	return dap.BodyAs[T](body)
}

// ===== Kernel channel =====

// Message is one unit of kernel channel traffic, tagged with a class.
type Message = channel.Message

// Channel is the session's view of a kernel connection. Implement this to
// provide custom channels for testing, mocking, or alternative transports
// (e.g., remote kernels).
//
// The default implementation is KernelProcess which spawns a subprocess.
type Channel = channel.Channel

// Message classes carried on a kernel channel.
const (
	ClassDebugRequest = channel.ClassDebugRequest
	ClassDebugReply   = channel.ClassDebugReply
	ClassDebugEvent   = channel.ClassDebugEvent
	ClassDebugEnable  = channel.ClassDebugEnable
	ClassDebugDisable = channel.ClassDebugDisable
)

// ===== Event subscription =====

// EventHandler receives kernel debug events in kernel order.
type EventHandler = protocol.EventHandler

// EventHandlerFunc adapts a function to the EventHandler interface.
type EventHandlerFunc = protocol.EventHandlerFunc

// EventSubscription is a handle on one registered handler; Cancel it to
// stop receiving events.
type EventSubscription = protocol.EventSubscription

// ===== Observability =====

// Stats is a point-in-time snapshot of a session's traffic counters.
type Stats = session.Stats
