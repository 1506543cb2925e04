package errors

import (
	"errors"
	"fmt"
)

// KernelDebugError is the base interface for all SDK errors.
type KernelDebugError interface {
	error
	IsKernelDebugError() bool
}

// Compile-time verification that all error types implement KernelDebugError.
var (
	_ KernelDebugError = (*ChannelError)(nil)
	_ KernelDebugError = (*MessageParseError)(nil)
	_ KernelDebugError = (*ProcessError)(nil)
	_ KernelDebugError = (*KernelNotFoundError)(nil)
	_ KernelDebugError = (*RequestFailedError)(nil)
)

// Sentinel errors for commonly checked conditions.
var (
	// ErrSessionNotStarted indicates a request was issued while the session
	// is not in the started state. No sequence number is consumed.
	ErrSessionNotStarted = errors.New("session not started")

	// ErrSessionAlreadyStarted indicates Start was called on a session that
	// is already started.
	ErrSessionAlreadyStarted = errors.New("session already started")

	// ErrSessionStopped indicates the session was stopped. Pending requests
	// are failed with this error, and stopped sessions cannot be restarted:
	// sessions are single-use, create a new one with NewSession().
	ErrSessionStopped = errors.New("session stopped: sessions are single-use, create a new one with NewSession()")

	// ErrSessionDisposed indicates the session has been disposed and cannot
	// be used again.
	ErrSessionDisposed = errors.New("session disposed")

	// ErrChannelNotConnected indicates the kernel channel is not connected.
	ErrChannelNotConnected = errors.New("kernel channel not connected")

	// ErrRequestTimeout indicates a debug request timed out.
	ErrRequestTimeout = errors.New("request timeout")

	// ErrKernelExited indicates the kernel process terminated.
	ErrKernelExited = errors.New("kernel process exited")

	// ErrUnknownMessageType indicates the wire message kind is not recognized.
	// Callers should skip these messages rather than treating them as fatal.
	ErrUnknownMessageType = errors.New("unknown message type")
)

// ChannelError indicates a kernel channel operation failed.
type ChannelError struct {
	Op  string
	Err error
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("channel %s failed: %v", e.Op, e.Err)
}

func (e *ChannelError) Unwrap() error {
	return e.Err
}

// IsKernelDebugError implements KernelDebugError.
func (e *ChannelError) IsKernelDebugError() bool { return true }

// MessageParseError indicates wire message parsing failed.
// This error preserves the raw data that failed to parse.
type MessageParseError struct {
	RawData string
	Err     error
}

func (e *MessageParseError) Error() string {
	return fmt.Sprintf("failed to parse message: %v", e.Err)
}

func (e *MessageParseError) Unwrap() error {
	return e.Err
}

// IsKernelDebugError implements KernelDebugError.
func (e *MessageParseError) IsKernelDebugError() bool { return true }

// ProcessError indicates the kernel process failed.
type ProcessError struct {
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ProcessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("kernel process failed (exit %d): %v", e.ExitCode, e.Err)
	}

	return fmt.Sprintf("kernel process failed (exit %d): %s", e.ExitCode, e.Stderr)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// IsKernelDebugError implements KernelDebugError.
func (e *ProcessError) IsKernelDebugError() bool { return true }

// KernelNotFoundError indicates no kernel host binary was found.
type KernelNotFoundError struct {
	SearchedPaths []string
}

func (e *KernelNotFoundError) Error() string {
	return fmt.Sprintf("kernel host binary not found in: %v", e.SearchedPaths)
}

// IsKernelDebugError implements KernelDebugError.
func (e *KernelNotFoundError) IsKernelDebugError() bool { return true }

// RequestFailedError reports a debug command the kernel answered with an
// unsuccessful reply. Raw SendRequest never returns it: an unsuccessful
// reply is data there. Typed command helpers return it because they cannot
// produce their typed result from a failed reply.
type RequestFailedError struct {
	Command string
	Message string
}

func (e *RequestFailedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s request failed", e.Command)
	}

	return fmt.Sprintf("%s request failed: %s", e.Command, e.Message)
}

// IsKernelDebugError implements KernelDebugError.
func (e *RequestFailedError) IsKernelDebugError() bool { return true }
