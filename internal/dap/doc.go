// Package dap defines the debug protocol wire model.
//
// The protocol exchanges three JSON envelope kinds: requests carry a
// command from client to kernel, responses answer exactly one request by
// sequence number, and events arrive unsolicited from the kernel. Payloads
// (request arguments and response/event bodies) stay schemaless maps so
// kernel-specific commands pass through untouched; typed payload structs
// and BodyAs cover the common command set.
package dap
