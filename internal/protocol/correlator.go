package protocol

import (
	"log/slog"
	"sync"

	"github.com/jovyanlabs/kernel-debug-sdk-go/internal/dap"
)

// Result is the terminal outcome of one tracked request: the kernel's reply,
// or the failure that ended the wait. Exactly one field is set.
type Result struct {
	Response *dap.Response
	Err      error
}

// Correlator matches asynchronous kernel replies to the requests that caused
// them.
//
// It owns the session's sequence counter and the pending-request table.
// Sequence numbers are strictly increasing and never reused, including after
// failed or abandoned requests. Callers must not rely on them being
// contiguous.
type Correlator struct {
	log *slog.Logger

	mu      sync.Mutex
	nextSeq int
	pending map[int]*pendingRequest
}

// pendingRequest tracks an outgoing request awaiting its reply.
type pendingRequest struct {
	command string
	result  chan Result
}

// NewCorrelator creates a correlator whose first allocated sequence number
// is 1.
func NewCorrelator(log *slog.Logger) *Correlator {
	return &Correlator{
		log:     log.With("component", "correlator"),
		nextSeq: 1,
		pending: make(map[int]*pendingRequest, 10),
	}
}

// Track allocates the next sequence number and registers a pending entry
// for it. The returned channel is buffered so resolution never blocks the
// routing loop, and it receives exactly one Result.
func (c *Correlator) Track(command string) (int, <-chan Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	seq := c.nextSeq
	c.nextSeq++

	pending := &pendingRequest{
		command: command,
		result:  make(chan Result, 1),
	}
	c.pending[seq] = pending

	c.log.Debug("Tracking request", "seq", seq, "command", command)

	return seq, pending.result
}

// Resolve delivers a reply to the request it answers, claiming the pending
// entry atomically so a reply can never resolve twice. It reports false for
// stale or unmatched replies; callers drop those.
func (c *Correlator) Resolve(resp *dap.Response) bool {
	c.mu.Lock()

	pending, exists := c.pending[resp.RequestSeq]
	if exists {
		delete(c.pending, resp.RequestSeq)
	}

	c.mu.Unlock()

	if !exists {
		return false
	}

	pending.result <- Result{Response: resp}

	return true
}

// Discard abandons a pending entry after a timeout, cancellation, or send
// failure. Safe to call for entries already resolved or never tracked.
func (c *Correlator) Discard(seq int) {
	c.mu.Lock()
	delete(c.pending, seq)
	c.mu.Unlock()
}

// FailAll resolves every pending entry with err and empties the table.
// Replies arriving afterwards find no entry and are dropped by the caller.
func (c *Correlator) FailAll(err error) {
	c.mu.Lock()

	pending := c.pending
	c.pending = make(map[int]*pendingRequest, 10)

	c.mu.Unlock()

	for seq, p := range pending {
		p.result <- Result{Err: err}
		c.log.Debug("Failed pending request", "seq", seq, "command", p.command, "reason", err)
	}
}

// Pending returns the number of requests still awaiting replies.
func (c *Correlator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.pending)
}
