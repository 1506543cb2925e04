// Package channel defines the kernel message channel contract.
//
// A channel carries all traffic between the client and one execution
// kernel: debug requests and replies, unsolicited debug events, and
// general kernel IO such as stream output. Every message is tagged with
// a class so consumers can pick out the traffic they own. Channels are
// created and closed by their owner; a debug session only borrows one.
package channel

import (
	"context"
	"encoding/json"
)

// Message classes carried on a kernel channel. Debug traffic uses the
// debug_* classes; everything else is general kernel IO and is passed
// through untouched by the debug session.
const (
	// ClassDebugRequest carries a wire request from client to kernel.
	ClassDebugRequest = "debug_request"

	// ClassDebugReply carries a wire response from kernel to client.
	ClassDebugReply = "debug_reply"

	// ClassDebugEvent carries an unsolicited wire event from kernel to client.
	ClassDebugEvent = "debug_event"

	// ClassDebugEnable instructs the kernel side to begin handling debug
	// messages. Sent by the session on start, before any request.
	ClassDebugEnable = "debug_enable"

	// ClassDebugDisable instructs the kernel side to stop handling debug
	// messages. Sent by the session on stop.
	ClassDebugDisable = "debug_disable"
)

// Message is one unit of kernel channel traffic.
//
// ID identifies the message itself; ParentID links a kernel-originated
// message to the client message that caused it. Debug reply correlation
// does not rely on these: the wire payload carries its own sequence
// numbers. Content is kept raw so non-debug traffic passes through the
// session without re-encoding.
type Message struct {
	ID       string          `json:"id"`
	ParentID string          `json:"parent_id,omitempty"`
	Class    string          `json:"class"`
	Content  json.RawMessage `json:"content,omitempty"`
}

// IsDebug reports whether the message belongs to the debug protocol.
func (m *Message) IsDebug() bool {
	switch m.Class {
	case ClassDebugRequest, ClassDebugReply, ClassDebugEvent, ClassDebugEnable, ClassDebugDisable:
		return true
	default:
		return false
	}
}

// Channel is the session's view of a kernel connection. Implement this to
// provide custom channels for testing, mocking, or alternative transports
// (e.g., remote kernels).
//
// The default implementation is kernelproc.KernelProcess, which spawns a
// kernel subprocess. Custom channels can be injected via NewSession.
//
// A Channel is externally owned: the debug session never closes it, and
// disposing a session leaves the channel usable by other consumers.
type Channel interface {
	// Send writes a message to the kernel. Delivery is ordered with
	// respect to other Send calls. This method must be safe for
	// concurrent use.
	Send(ctx context.Context, msg *Message) error

	// Recv returns channels for receiving messages and errors.
	// The message channel yields every inbound kernel message in arrival
	// order, debug and non-debug alike. The error channel yields any
	// errors that occur during reading. Both channels are closed when
	// reading completes or a fatal error occurs.
	Recv(ctx context.Context) (<-chan *Message, <-chan error)

	// Connected reports whether the channel can currently carry traffic.
	Connected() bool
}
