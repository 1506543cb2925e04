package kerneldebug

import "github.com/jovyanlabs/kernel-debug-sdk-go/internal/errors"

// Re-export error types from internal package

// KernelDebugError is the base interface for all SDK errors.
type KernelDebugError = errors.KernelDebugError

// ChannelError indicates a kernel channel operation failed.
type ChannelError = errors.ChannelError

// MessageParseError indicates wire message parsing failed.
type MessageParseError = errors.MessageParseError

// ProcessError indicates the kernel process failed.
type ProcessError = errors.ProcessError

// KernelNotFoundError indicates no kernel host binary was found.
type KernelNotFoundError = errors.KernelNotFoundError

// RequestFailedError reports a typed debug command the kernel answered
// with an unsuccessful reply. Raw SendRequest never returns it.
type RequestFailedError = errors.RequestFailedError

// Re-export sentinel errors from internal package.
var (
	// ErrSessionNotStarted indicates a request was issued while the session
	// is not in the started state.
	ErrSessionNotStarted = errors.ErrSessionNotStarted

	// ErrSessionAlreadyStarted indicates Start was called on a session that
	// is already started.
	ErrSessionAlreadyStarted = errors.ErrSessionAlreadyStarted

	// ErrSessionStopped indicates the session was stopped. Sessions are
	// single-use; create a new one with NewSession().
	ErrSessionStopped = errors.ErrSessionStopped

	// ErrSessionDisposed indicates the session has been disposed and cannot
	// be used again.
	ErrSessionDisposed = errors.ErrSessionDisposed

	// ErrChannelNotConnected indicates the kernel channel is not connected.
	ErrChannelNotConnected = errors.ErrChannelNotConnected

	// ErrRequestTimeout indicates a debug request timed out.
	ErrRequestTimeout = errors.ErrRequestTimeout

	// ErrKernelExited indicates the kernel process terminated.
	ErrKernelExited = errors.ErrKernelExited

	// ErrUnknownMessageType indicates the wire message kind is not recognized.
	ErrUnknownMessageType = errors.ErrUnknownMessageType
)
