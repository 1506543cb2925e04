package kerneldebug

import (
	"log/slog"
	"time"
)

// Option configures SessionOptions using the functional options pattern.
// This is the primary option type for configuring sessions and kernel
// processes.
type Option func(*SessionOptions)

// applySessionOptions applies functional options to a SessionOptions struct.
func applySessionOptions(opts []Option) *SessionOptions {
	options := &SessionOptions{}
	for _, opt := range opts {
		opt(options)
	}

	return options
}

// ===== Basic Configuration =====

// WithLogger sets the logger for debug output.
// If not set, logging is disabled (silent operation).
func WithLogger(logger *slog.Logger) Option {
	return func(o *SessionOptions) {
		o.Logger = logger
	}
}

// WithClientName identifies this client in initialize requests and log
// lines.
func WithClientName(name string) Option {
	return func(o *SessionOptions) {
		o.ClientName = name
	}
}

// ===== Session tuning =====

// WithRequestTimeout bounds how long a debug request waits for its reply.
// The default is 30 seconds; zero disables the timeout entirely. Context
// cancellation always applies regardless.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(o *SessionOptions) {
		o.RequestTimeout = &timeout
	}
}

// WithEventQueueSize sets the capacity of the ordered queue between the
// routing loop and event subscribers. A subscriber stalled longer than
// this backpressures routing rather than losing events.
func WithEventQueueSize(size int) Option {
	return func(o *SessionOptions) {
		o.EventQueueSize = size
	}
}

// WithKernelIOBuffer sets the capacity of the pass-through channel
// carrying non-debug kernel traffic. Unlike debug events, pass-through
// messages are dropped (and counted) when the buffer is full.
func WithKernelIOBuffer(size int) Option {
	return func(o *SessionOptions) {
		o.KernelIOBuffer = size
	}
}

// ===== Kernel process =====

// WithKernelPath sets the explicit path to the kernel host binary.
// If not set, the binary will be searched in PATH and common locations.
func WithKernelPath(path string) Option {
	return func(o *SessionOptions) {
		o.KernelPath = path
	}
}

// WithKernelArgs passes extra arguments to the kernel host process.
func WithKernelArgs(args ...string) Option {
	return func(o *SessionOptions) {
		o.KernelArgs = args
	}
}

// WithCwd sets the working directory for the kernel process.
func WithCwd(cwd string) Option {
	return func(o *SessionOptions) {
		o.Cwd = cwd
	}
}

// WithEnv provides additional environment variables for the kernel
// process.
func WithEnv(env map[string]string) Option {
	return func(o *SessionOptions) {
		o.Env = env
	}
}

// WithMaxBufferSize sets the maximum bytes for one kernel stdout line.
func WithMaxBufferSize(size int) Option {
	return func(o *SessionOptions) {
		o.MaxBufferSize = &size
	}
}

// WithStderr sets a callback function for handling kernel stderr output.
func WithStderr(handler func(string)) Option {
	return func(o *SessionOptions) {
		o.Stderr = handler
	}
}
