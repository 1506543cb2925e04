// Package protocol implements debug message correlation and event fan-out.
//
// The Correlator owns a session's sequence counter and pending-request
// table: it matches kernel replies to the requests that caused them by
// request_seq, resolves each waiter exactly once, and can fail every
// outstanding request at teardown. Stale or unmatched replies are reported
// to the caller, which drops them.
//
// The Dispatcher fans unsolicited kernel events out to subscribers through
// a bounded ordered queue drained by a single goroutine, preserving kernel
// event order while isolating handler panics from routing.
//
// Example usage:
//
//	correlator := protocol.NewCorrelator(log)
//
//	seq, result := correlator.Track("evaluate")
//	// ... send the wire request carrying seq ...
//	res := <-result
package protocol
