// Package config provides configuration types for the kernel debug SDK.
package config

import (
	"log/slog"
	"time"
)

// Defaults applied where an option is left unset.
const (
	// DefaultRequestTimeout bounds SendRequest when no timeout option is given.
	DefaultRequestTimeout = 30 * time.Second

	// DefaultEventQueueSize is the capacity of the ordered event dispatch queue.
	DefaultEventQueueSize = 64

	// DefaultKernelIOBuffer is the capacity of the non-debug pass-through channel.
	DefaultKernelIOBuffer = 100

	// DefaultClientName identifies this client to kernels that ask.
	DefaultClientName = "kernel-debug-sdk-go"
)

// Options configures a debug session and, when the SDK launches the kernel
// itself, the kernel process.
type Options struct {
	// Logger is the slog logger for debug output.
	// If nil, logging is disabled (silent operation).
	Logger *slog.Logger

	// ClientName identifies this client in initialize requests and log lines.
	// Defaults to DefaultClientName.
	ClientName string

	// RequestTimeout bounds how long a request waits for its reply.
	// If nil, defaults to DefaultRequestTimeout. A zero value disables the
	// timeout entirely; context cancellation still applies.
	RequestTimeout *time.Duration

	// EventQueueSize is the capacity of the ordered queue between the
	// routing loop and event subscribers. A subscriber stalled longer than
	// this backpressures routing rather than losing events.
	// Zero means DefaultEventQueueSize.
	EventQueueSize int

	// KernelIOBuffer is the capacity of the pass-through channel carrying
	// non-debug kernel traffic. Unlike debug events, pass-through messages
	// are dropped (and counted) when the buffer is full.
	// Zero means DefaultKernelIOBuffer.
	KernelIOBuffer int

	// KernelPath is the explicit path to the kernel host binary.
	// If empty, the binary is searched in PATH and conventional locations.
	KernelPath string

	// KernelArgs are extra arguments passed to the kernel host process.
	KernelArgs []string

	// Cwd sets the working directory for the kernel process.
	Cwd string

	// Env provides additional environment variables for the kernel process.
	Env map[string]string

	// MaxBufferSize sets the maximum bytes for one kernel stdout line.
	// If nil, uses the default buffering (1 MiB).
	MaxBufferSize *int

	// Stderr is a callback invoked with each kernel stderr line.
	Stderr func(string)
}

// EffectiveRequestTimeout resolves the three-state RequestTimeout field:
// nil means the default, zero means no timeout.
func (o *Options) EffectiveRequestTimeout() time.Duration {
	if o.RequestTimeout == nil {
		return DefaultRequestTimeout
	}

	return *o.RequestTimeout
}

// EffectiveEventQueueSize resolves EventQueueSize against its default.
func (o *Options) EffectiveEventQueueSize() int {
	if o.EventQueueSize <= 0 {
		return DefaultEventQueueSize
	}

	return o.EventQueueSize
}

// EffectiveKernelIOBuffer resolves KernelIOBuffer against its default.
func (o *Options) EffectiveKernelIOBuffer() int {
	if o.KernelIOBuffer <= 0 {
		return DefaultKernelIOBuffer
	}

	return o.KernelIOBuffer
}

// EffectiveClientName resolves ClientName against its default.
func (o *Options) EffectiveClientName() string {
	if o.ClientName == "" {
		return DefaultClientName
	}

	return o.ClientName
}
