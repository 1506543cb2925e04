package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jovyanlabs/kernel-debug-sdk-go/internal/dap"
)

// DebugSession is the session surface the debug tools consume. The live
// session type satisfies it; tests substitute a scripted fake.
type DebugSession interface {
	DumpCell(ctx context.Context, code string) (*dap.DumpCellResult, error)
	SetBreakpoints(ctx context.Context, source dap.Source, breakpoints []dap.SourceBreakpoint) ([]dap.Breakpoint, error)
	ConfigurationDone(ctx context.Context) error
	Continue(ctx context.Context, threadID int) error
	Next(ctx context.Context, threadID int) error
	StepIn(ctx context.Context, threadID int) error
	StepOut(ctx context.Context, threadID int) error
	StackTrace(ctx context.Context, threadID int) ([]dap.StackFrame, error)
	Scopes(ctx context.Context, frameID int) ([]dap.Scope, error)
	Variables(ctx context.Context, variablesReference int) ([]dap.Variable, error)
	Evaluate(ctx context.Context, expression string, frameID int) (*dap.EvaluateResult, error)
	DebugInfo(ctx context.Context) (*dap.DebugInfoResult, error)
	WaitForEvent(ctx context.Context, name string) (*dap.Event, error)
}

// DebugToolServer exposes one live debug session as a set of MCP tools, so
// an agent can drive the debugger over any MCP transport.
//
// Tools are registered on an official MCP SDK server for transport-based
// serving, and mirrored in an internal registry for direct programmatic
// invocation (tests, embedding).
type DebugToolServer struct {
	log     *slog.Logger
	session DebugSession
	server  *mcp.Server

	mu    sync.RWMutex
	tools map[string]*registeredTool
}

// registeredTool holds tool metadata and handler for the internal registry.
type registeredTool struct {
	tool    *mcp.Tool
	handler mcp.ToolHandler
}

// NewDebugToolServer creates a tool server over session, identified to MCP
// clients by name and version.
func NewDebugToolServer(log *slog.Logger, session DebugSession, name, version string) *DebugToolServer {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &DebugToolServer{
		log:     log.With("component", "debug_tool_server"),
		session: session,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    name,
			Version: version,
		}, nil),
		tools: make(map[string]*registeredTool, 16),
	}

	s.registerTools()

	return s
}

// Server returns the underlying MCP server for advanced wiring.
func (s *DebugToolServer) Server() *mcp.Server {
	return s.server
}

// Run serves the debug tools over the given MCP transport until the
// context ends or the client disconnects.
func (s *DebugToolServer) Run(ctx context.Context, transport mcp.Transport) error {
	s.log.Info("Serving debug tools over MCP")

	return s.server.Run(ctx, transport)
}

// addTool registers a tool on both the MCP server and the internal registry.
func (s *DebugToolServer) addTool(tool *mcp.Tool, handler mcp.ToolHandler) {
	s.server.AddTool(tool, handler)

	s.mu.Lock()
	s.tools[tool.Name] = &registeredTool{tool: tool, handler: handler}
	s.mu.Unlock()
}

// ToolNames returns the names of all registered tools.
func (s *DebugToolServer) ToolNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.tools))
	for name := range s.tools {
		names = append(names, name)
	}

	return names
}

// CallTool executes a registered tool by name with the given input,
// bypassing any transport. Unknown tools and handler failures come back as
// error results, never as Go errors, matching MCP tool-call semantics.
func (s *DebugToolServer) CallTool(ctx context.Context, name string, input map[string]any) (*mcp.CallToolResult, error) {
	s.mu.RLock()
	t, exists := s.tools[name]
	s.mu.RUnlock()

	if !exists {
		return ErrorResult("Tool not found: " + name), nil
	}

	inputBytes, err := json.Marshal(input)
	if err != nil {
		return ErrorResult("Failed to marshal input: " + err.Error()), nil
	}

	req := &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{
			Name:      name,
			Arguments: inputBytes,
		},
	}

	result, err := t.handler(ctx, req)
	if err != nil {
		//nolint:nilerr // Intentionally return nil error - error is encoded in the result
		return ErrorResult("Tool execution failed: " + err.Error()), nil
	}

	return result, nil
}

// SimpleSchema creates a jsonschema.Schema from a simple type map.
//
// Input format: {"code": "string", "threadId": "int"}
// Every property is required; use an explicit jsonschema.Schema for
// optional fields.
func SimpleSchema(props map[string]string) *jsonschema.Schema {
	properties := make(map[string]*jsonschema.Schema, len(props))
	required := make([]string, 0, len(props))

	for name, goType := range props {
		properties[name] = goTypeToJSONSchema(goType)
		required = append(required, name)
	}

	return &jsonschema.Schema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}

// goTypeToJSONSchema converts a Go type string to a JSON Schema type.
func goTypeToJSONSchema(goType string) *jsonschema.Schema {
	switch goType {
	case "string":
		return &jsonschema.Schema{Type: "string"}
	case "int", "int8", "int16", "int32", "int64", "uint", "uint8", "uint16", "uint32", "uint64":
		return &jsonschema.Schema{Type: "integer"}
	case "float32", "float64", "float", "number":
		return &jsonschema.Schema{Type: "number"}
	case "bool", "boolean":
		return &jsonschema.Schema{Type: "boolean"}
	case "any", "object", "map[string]any":
		return &jsonschema.Schema{Type: "object"}
	default:
		// Check for array types
		if len(goType) > 2 && goType[:2] == "[]" {
			itemType := goType[2:]

			return &jsonschema.Schema{
				Type:  "array",
				Items: goTypeToJSONSchema(itemType),
			}
		}

		// Default to string
		return &jsonschema.Schema{Type: "string"}
	}
}

// NewTool creates an mcp.Tool with the given parameters.
func NewTool(name, description string, inputSchema *jsonschema.Schema) *mcp.Tool {
	return &mcp.Tool{
		Name:        name,
		Description: description,
		InputSchema: inputSchema,
	}
}

// TextResult creates a CallToolResult with text content.
func TextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// ErrorResult creates a CallToolResult indicating an error.
func ErrorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: message},
		},
		IsError: true,
	}
}

// jsonResult marshals v into a text content result.
func jsonResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ErrorResult("Failed to encode result: " + err.Error())
	}

	return TextResult(string(data))
}
