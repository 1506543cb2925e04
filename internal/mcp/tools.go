package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/tidwall/gjson"

	"github.com/jovyanlabs/kernel-debug-sdk-go/internal/dap"
)

// defaultWaitStoppedTimeout bounds debug_wait_stopped when the caller gives
// no timeout of its own.
const defaultWaitStoppedTimeout = 30 * time.Second

// registerTools wires every debug command tool onto the server. The tool
// set mirrors the kernel debug command set plus one event-wait helper.
func (s *DebugToolServer) registerTools() {
	s.addTool(NewTool(
		"debug_dump_cell",
		"Submit code to the kernel for debugging. Returns the kernel-side source path; "+
			"set breakpoints against that path.",
		SimpleSchema(map[string]string{"code": "string"}),
	), s.handleDumpCell)

	s.addTool(NewTool(
		"debug_set_breakpoints",
		"Replace the breakpoints for one source path with the given lines.",
		SimpleSchema(map[string]string{"sourcePath": "string", "lines": "[]int"}),
	), s.handleSetBreakpoints)

	s.addTool(NewTool(
		"debug_configuration_done",
		"Signal that breakpoint configuration is complete so execution may proceed.",
		SimpleSchema(map[string]string{}),
	), s.handleConfigurationDone)

	s.addTool(NewTool(
		"debug_continue",
		"Resume execution of a stopped thread.",
		threadSchema(),
	), s.stepTool("continue", s.session.Continue))

	s.addTool(NewTool(
		"debug_next",
		"Step over the current line of a stopped thread.",
		threadSchema(),
	), s.stepTool("next", s.session.Next))

	s.addTool(NewTool(
		"debug_step_in",
		"Step into the call on the current line of a stopped thread.",
		threadSchema(),
	), s.stepTool("stepIn", s.session.StepIn))

	s.addTool(NewTool(
		"debug_step_out",
		"Run until the current function returns.",
		threadSchema(),
	), s.stepTool("stepOut", s.session.StepOut))

	s.addTool(NewTool(
		"debug_stack_trace",
		"Return the call stack of a stopped thread.",
		threadSchema(),
	), s.handleStackTrace)

	s.addTool(NewTool(
		"debug_scopes",
		"Return the variable scopes of one stack frame.",
		SimpleSchema(map[string]string{"frameId": "int"}),
	), s.handleScopes)

	s.addTool(NewTool(
		"debug_variables",
		"Return the children of a variable container (a scope or structured variable).",
		SimpleSchema(map[string]string{"variablesReference": "int"}),
	), s.handleVariables)

	s.addTool(NewTool(
		"debug_evaluate",
		"Evaluate an expression, optionally in the context of a stack frame.",
		&jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"expression": {Type: "string"},
				"frameId":    {Type: "integer"},
			},
			Required: []string{"expression"},
		},
	), s.handleEvaluate)

	s.addTool(NewTool(
		"debug_info",
		"Return the kernel's debug state snapshot: temp-file scheme and registered breakpoints.",
		SimpleSchema(map[string]string{}),
	), s.handleDebugInfo)

	s.addTool(NewTool(
		"debug_wait_stopped",
		"Block until the kernel emits a stopped event (or the timeout elapses).",
		&jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"timeoutSeconds": {Type: "number"},
			},
		},
	), s.handleWaitStopped)
}

// threadSchema is the input schema shared by the execution-control tools.
func threadSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"threadId": {Type: "integer"},
		},
	}
}

// args returns the raw argument bytes of a tool call for gjson probing.
func args(req *mcp.CallToolRequest) []byte {
	if req == nil || req.Params == nil {
		return nil
	}

	return req.Params.Arguments
}

// threadID extracts the target thread, defaulting to the kernel's main
// thread.
func threadID(raw []byte) int {
	if id := gjson.GetBytes(raw, "threadId"); id.Exists() {
		return int(id.Int())
	}

	return 1
}

func (s *DebugToolServer) handleDumpCell(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code := gjson.GetBytes(args(req), "code").String()
	if code == "" {
		return ErrorResult("code is required"), nil
	}

	result, err := s.session.DumpCell(ctx, code)
	if err != nil {
		return ErrorResult(err.Error()), nil
	}

	return jsonResult(result), nil
}

func (s *DebugToolServer) handleSetBreakpoints(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw := args(req)

	sourcePath := gjson.GetBytes(raw, "sourcePath").String()
	if sourcePath == "" {
		return ErrorResult("sourcePath is required"), nil
	}

	var breakpoints []dap.SourceBreakpoint
	for _, line := range gjson.GetBytes(raw, "lines").Array() {
		breakpoints = append(breakpoints, dap.SourceBreakpoint{Line: int(line.Int())})
	}

	bound, err := s.session.SetBreakpoints(ctx, dap.Source{Path: sourcePath}, breakpoints)
	if err != nil {
		return ErrorResult(err.Error()), nil
	}

	return jsonResult(map[string]any{"breakpoints": bound}), nil
}

func (s *DebugToolServer) handleConfigurationDone(ctx context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.session.ConfigurationDone(ctx); err != nil {
		return ErrorResult(err.Error()), nil
	}

	return TextResult("configuration done"), nil
}

// stepTool adapts one execution-control session method into a tool handler.
func (s *DebugToolServer) stepTool(
	command string,
	step func(ctx context.Context, threadID int) error,
) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := threadID(args(req))

		if err := step(ctx, id); err != nil {
			return ErrorResult(err.Error()), nil
		}

		return TextResult(fmt.Sprintf("%s thread %d", command, id)), nil
	}
}

func (s *DebugToolServer) handleStackTrace(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	frames, err := s.session.StackTrace(ctx, threadID(args(req)))
	if err != nil {
		return ErrorResult(err.Error()), nil
	}

	return jsonResult(map[string]any{"stackFrames": frames}), nil
}

func (s *DebugToolServer) handleScopes(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	scopes, err := s.session.Scopes(ctx, int(gjson.GetBytes(args(req), "frameId").Int()))
	if err != nil {
		return ErrorResult(err.Error()), nil
	}

	return jsonResult(map[string]any{"scopes": scopes}), nil
}

func (s *DebugToolServer) handleVariables(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref := int(gjson.GetBytes(args(req), "variablesReference").Int())

	variables, err := s.session.Variables(ctx, ref)
	if err != nil {
		return ErrorResult(err.Error()), nil
	}

	return jsonResult(map[string]any{"variables": variables}), nil
}

func (s *DebugToolServer) handleEvaluate(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw := args(req)

	expression := gjson.GetBytes(raw, "expression").String()
	if expression == "" {
		return ErrorResult("expression is required"), nil
	}

	frameID := int(gjson.GetBytes(raw, "frameId").Int())

	result, err := s.session.Evaluate(ctx, expression, frameID)
	if err != nil {
		// A kernel that declines the evaluation is a tool-level error the
		// agent can read, not a transport fault.
		return ErrorResult(err.Error()), nil
	}

	return jsonResult(result), nil
}

func (s *DebugToolServer) handleDebugInfo(ctx context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	info, err := s.session.DebugInfo(ctx)
	if err != nil {
		return ErrorResult(err.Error()), nil
	}

	return jsonResult(info), nil
}

func (s *DebugToolServer) handleWaitStopped(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	timeout := defaultWaitStoppedTimeout
	if secs := gjson.GetBytes(args(req), "timeoutSeconds"); secs.Exists() {
		timeout = time.Duration(secs.Float() * float64(time.Second))
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ev, err := s.session.WaitForEvent(waitCtx, dap.EventStopped)
	if err != nil {
		return ErrorResult(err.Error()), nil
	}

	return jsonResult(ev), nil
}
