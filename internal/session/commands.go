package session

import (
	"context"
	"fmt"

	"github.com/jovyanlabs/kernel-debug-sdk-go/internal/dap"
	"github.com/jovyanlabs/kernel-debug-sdk-go/internal/errors"
)

// Typed wrappers over SendRequest for the kernel debug command set.
//
// Unlike raw SendRequest, a typed helper cannot hand back a declined reply
// as data: it has a typed result to produce. A reply with Success=false
// therefore becomes a RequestFailedError carrying the kernel's message.
// Callers that want the raw protocol semantics use SendRequest directly.

// request sends a command and converts a declined reply into an error.
func (s *Session) request(
	ctx context.Context,
	command string,
	arguments map[string]any,
) (*dap.Response, error) {
	resp, err := s.SendRequest(ctx, command, arguments)
	if err != nil {
		return nil, err
	}

	if !resp.Success {
		return nil, &errors.RequestFailedError{Command: command, Message: resp.Message}
	}

	return resp, nil
}

// Initialize negotiates the debug protocol with the kernel and returns its
// capabilities. It is the first command of a debug session.
func (s *Session) Initialize(ctx context.Context) (*dap.Capabilities, error) {
	resp, err := s.request(ctx, "initialize", map[string]any{
		"clientName":                   s.options.EffectiveClientName(),
		"adapterID":                    "kernel",
		"pathFormat":                   "path",
		"linesStartAt1":                true,
		"columnsStartAt1":              true,
		"supportsVariableType":         true,
		"supportsRunInTerminalRequest": false,
		"locale":                       "en",
	})
	if err != nil {
		return nil, err
	}

	caps, err := dap.BodyAs[dap.Capabilities](resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode initialize body: %w", err)
	}

	return &caps, nil
}

// Attach attaches the debugger to the kernel's running interpreter.
func (s *Session) Attach(ctx context.Context) error {
	_, err := s.request(ctx, "attach", nil)

	return err
}

// ConfigurationDone signals that breakpoint configuration is complete and
// execution may proceed.
func (s *Session) ConfigurationDone(ctx context.Context) error {
	_, err := s.request(ctx, "configurationDone", nil)

	return err
}

// DumpCell submits code to the kernel for debugging and returns the
// kernel-side source path it was written to. Breakpoints for that code are
// set against the returned path.
func (s *Session) DumpCell(ctx context.Context, code string) (*dap.DumpCellResult, error) {
	resp, err := s.request(ctx, "dumpCell", map[string]any{
		"code": code,
	})
	if err != nil {
		return nil, err
	}

	result, err := dap.BodyAs[dap.DumpCellResult](resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode dumpCell body: %w", err)
	}

	return &result, nil
}

// SetBreakpoints replaces the breakpoints for one source. The kernel reports
// back what it actually bound; unverified entries carry a message.
func (s *Session) SetBreakpoints(
	ctx context.Context,
	source dap.Source,
	breakpoints []dap.SourceBreakpoint,
) ([]dap.Breakpoint, error) {
	resp, err := s.request(ctx, "setBreakpoints", map[string]any{
		"source":         source,
		"breakpoints":    breakpoints,
		"sourceModified": false,
	})
	if err != nil {
		return nil, err
	}

	body, err := dap.BodyAs[struct {
		Breakpoints []dap.Breakpoint `json:"breakpoints"`
	}](resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode setBreakpoints body: %w", err)
	}

	return body.Breakpoints, nil
}

// Continue resumes execution of a stopped thread.
func (s *Session) Continue(ctx context.Context, threadID int) error {
	_, err := s.request(ctx, "continue", map[string]any{
		"threadId": threadID,
	})

	return err
}

// Next steps over the current line.
func (s *Session) Next(ctx context.Context, threadID int) error {
	_, err := s.request(ctx, "next", map[string]any{
		"threadId": threadID,
	})

	return err
}

// StepIn steps into the call on the current line.
func (s *Session) StepIn(ctx context.Context, threadID int) error {
	_, err := s.request(ctx, "stepIn", map[string]any{
		"threadId": threadID,
	})

	return err
}

// StepOut runs until the current function returns.
func (s *Session) StepOut(ctx context.Context, threadID int) error {
	_, err := s.request(ctx, "stepOut", map[string]any{
		"threadId": threadID,
	})

	return err
}

// StackTrace returns the call stack of a stopped thread.
func (s *Session) StackTrace(ctx context.Context, threadID int) ([]dap.StackFrame, error) {
	resp, err := s.request(ctx, "stackTrace", map[string]any{
		"threadId": threadID,
	})
	if err != nil {
		return nil, err
	}

	result, err := dap.BodyAs[dap.StackTraceResult](resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode stackTrace body: %w", err)
	}

	return result.StackFrames, nil
}

// Scopes returns the variable scopes of one stack frame.
func (s *Session) Scopes(ctx context.Context, frameID int) ([]dap.Scope, error) {
	resp, err := s.request(ctx, "scopes", map[string]any{
		"frameId": frameID,
	})
	if err != nil {
		return nil, err
	}

	body, err := dap.BodyAs[struct {
		Scopes []dap.Scope `json:"scopes"`
	}](resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode scopes body: %w", err)
	}

	return body.Scopes, nil
}

// Variables returns the children of a variable container (a scope or a
// structured variable).
func (s *Session) Variables(ctx context.Context, variablesReference int) ([]dap.Variable, error) {
	resp, err := s.request(ctx, "variables", map[string]any{
		"variablesReference": variablesReference,
	})
	if err != nil {
		return nil, err
	}

	body, err := dap.BodyAs[struct {
		Variables []dap.Variable `json:"variables"`
	}](resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode variables body: %w", err)
	}

	return body.Variables, nil
}

// Evaluate evaluates an expression, optionally in the context of a stack
// frame (frameID 0 means global context). A name the kernel cannot resolve
// comes back as a RequestFailedError, not a transport failure.
func (s *Session) Evaluate(ctx context.Context, expression string, frameID int) (*dap.EvaluateResult, error) {
	args := map[string]any{
		"expression": expression,
		"context":    "repl",
	}
	if frameID != 0 {
		args["frameId"] = frameID
	}

	resp, err := s.request(ctx, "evaluate", args)
	if err != nil {
		return nil, err
	}

	result, err := dap.BodyAs[dap.EvaluateResult](resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode evaluate body: %w", err)
	}

	return &result, nil
}

// DebugInfo returns the kernel's debug state snapshot: whether debugging is
// active, how submitted code maps to temp files, and which breakpoints are
// currently registered.
func (s *Session) DebugInfo(ctx context.Context) (*dap.DebugInfoResult, error) {
	resp, err := s.request(ctx, "debugInfo", nil)
	if err != nil {
		return nil, err
	}

	result, err := dap.BodyAs[dap.DebugInfoResult](resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode debugInfo body: %w", err)
	}

	return &result, nil
}

// Disconnect detaches the debugger from the kernel without stopping the
// session's own machinery; pair it with Stop() for a full teardown.
func (s *Session) Disconnect(ctx context.Context) error {
	_, err := s.request(ctx, "disconnect", map[string]any{
		"restart":           false,
		"terminateDebuggee": false,
	})

	return err
}
