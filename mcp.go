package kerneldebug

import (
	internalmcp "github.com/jovyanlabs/kernel-debug-sdk-go/internal/mcp"
)

// DebugToolServer exposes one live debug session as a set of MCP tools,
// so an agent can drive the debugger over any MCP transport.
//
// Each debug operation - dumping cells, setting breakpoints, stepping,
// inspecting stacks and variables, evaluating expressions - is registered
// as a separate tool. The server speaks the official MCP Go SDK, so it
// plugs into any transport that SDK supports:
//
//	session := kerneldebug.NewSession(ch)
//	if err := session.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer session.Dispose()
//
//	server := kerneldebug.NewDebugToolServer(session, "kernel-debugger", "1.0.0")
//	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
//	    log.Fatal(err)
//	}
type DebugToolServer = internalmcp.DebugToolServer

// NewDebugToolServer creates an MCP tool server over a started session,
// identified to MCP clients by name and version.
func NewDebugToolServer(session Session, name, version string, opts ...Option) *DebugToolServer {
	options := applySessionOptions(opts)

	return internalmcp.NewDebugToolServer(options.Logger, session, name, version)
}
