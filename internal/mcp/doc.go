// Package mcp exposes a live kernel debug session as MCP tools.
//
// A DebugToolServer wraps the official MCP SDK server and registers one
// tool per kernel debug command (debug_dump_cell, debug_set_breakpoints,
// debug_continue, ...) plus debug_wait_stopped for synchronizing on
// breakpoint hits. Handlers consume the narrow DebugSession interface and
// return their results as JSON text content; session and kernel failures
// become tool error results rather than protocol errors, so an agent can
// read and react to them.
package mcp
