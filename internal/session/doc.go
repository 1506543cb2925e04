// Package session implements the debug protocol session over a kernel
// channel.
//
// A Session owns the request correlator and event dispatcher from
// internal/protocol and wires them to one channel.Channel: outgoing debug
// commands are wrapped in debug_request envelopes, inbound traffic is
// classified by message class into replies (resolved against pending
// requests), events (fanned out to subscribers in kernel order), and
// everything else (passed through untouched on KernelIO).
//
// The session also models the debug lifecycle. Start enables debug handling
// on the kernel side before admitting requests; Stop fails pending requests
// before disabling it, so in-flight replies during teardown drop silently
// instead of crashing routing; Dispose is terminal, idempotent, and never
// closes the borrowed channel.
package session
