// Package kernelproc provides the subprocess-backed kernel channel.
//
// A KernelProcess spawns a kernel host binary and speaks newline-delimited
// JSON message envelopes with it over stdio. It implements channel.Channel,
// so a debug session can run over it directly; the process lifecycle
// (Start/Close) stays with the creator, never with the session.
//
// Stdout lines that fail to parse surface as MessageParseError on the
// error stream without stopping the read loop. Stderr is captured in a
// bounded rolling buffer and attached to the ProcessError raised when the
// process dies unexpectedly.
package kernelproc
