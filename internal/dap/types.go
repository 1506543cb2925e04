package dap

// Typed payloads for the common debug command set. Kernels may attach
// extra fields; decoding ignores what is not modeled here.

// Source identifies a unit of debuggable code. For code submitted through
// dumpCell the kernel assigns Path under its temp-file scheme.
type Source struct {
	Name string `json:"name,omitempty"`
	Path string `json:"path,omitempty"`
}

// SourceBreakpoint is a breakpoint the client asks for in a setBreakpoints
// request.
type SourceBreakpoint struct {
	Line         int    `json:"line"`
	Condition    string `json:"condition,omitempty"`
	HitCondition string `json:"hitCondition,omitempty"`
	LogMessage   string `json:"logMessage,omitempty"`
}

// SourceBreakpoints groups the breakpoints registered against one source
// path, as reported by debugInfo.
type SourceBreakpoints struct {
	Source      string             `json:"source"`
	Breakpoints []SourceBreakpoint `json:"breakpoints"`
}

// Breakpoint is the kernel's view of a requested breakpoint. Verified is
// false when the kernel could not bind it.
type Breakpoint struct {
	ID       int     `json:"id,omitempty"`
	Verified bool    `json:"verified"`
	Line     int     `json:"line,omitempty"`
	Source   *Source `json:"source,omitempty"`
	Message  string  `json:"message,omitempty"`
}

// StackFrame is one frame of a stopped thread's call stack.
type StackFrame struct {
	ID     int     `json:"id"`
	Name   string  `json:"name"`
	Source *Source `json:"source,omitempty"`
	Line   int     `json:"line"`
	Column int     `json:"column"`
}

// Scope is a named variable container within a stack frame. Its variables
// are fetched through VariablesReference.
type Scope struct {
	Name               string `json:"name"`
	VariablesReference int    `json:"variablesReference"`
	Expensive          bool   `json:"expensive,omitempty"`
}

// Variable is one name/value pair. A non-zero VariablesReference means the
// value is structured and its children can be fetched with a variables
// request.
type Variable struct {
	Name               string `json:"name"`
	Value              string `json:"value"`
	Type               string `json:"type,omitempty"`
	EvaluateName       string `json:"evaluateName,omitempty"`
	VariablesReference int    `json:"variablesReference"`
}

// Capabilities reports what the kernel's debug implementation supports,
// returned by initialize.
type Capabilities struct {
	SupportsConfigurationDoneRequest  bool                         `json:"supportsConfigurationDoneRequest,omitempty"`
	SupportsConditionalBreakpoints    bool                         `json:"supportsConditionalBreakpoints,omitempty"`
	SupportsHitConditionalBreakpoints bool                         `json:"supportsHitConditionalBreakpoints,omitempty"`
	SupportsLogPoints                 bool                         `json:"supportsLogPoints,omitempty"`
	SupportsSetVariable               bool                         `json:"supportsSetVariable,omitempty"`
	SupportsEvaluateForHovers         bool                         `json:"supportsEvaluateForHovers,omitempty"`
	SupportsStepInTargetsRequest      bool                         `json:"supportsStepInTargetsRequest,omitempty"`
	ExceptionBreakpointFilters        []ExceptionBreakpointsFilter `json:"exceptionBreakpointFilters,omitempty"`
}

// ExceptionBreakpointsFilter is one exception-break option offered by the
// kernel.
type ExceptionBreakpointsFilter struct {
	Filter  string `json:"filter"`
	Label   string `json:"label"`
	Default bool   `json:"default,omitempty"`
}

// DumpCellResult is the body of a dumpCell response: the kernel-side path
// the submitted code was written to. Breakpoints for that code are set
// against SourcePath.
type DumpCellResult struct {
	SourcePath string `json:"sourcePath"`
}

// StackTraceResult is the body of a stackTrace response.
type StackTraceResult struct {
	StackFrames []StackFrame `json:"stackFrames"`
	TotalFrames int          `json:"totalFrames,omitempty"`
}

// EvaluateResult is the body of a successful evaluate response.
type EvaluateResult struct {
	Result             string `json:"result"`
	Type               string `json:"type,omitempty"`
	VariablesReference int    `json:"variablesReference"`
}

// DebugInfoResult is the body of a debugInfo response: the kernel's debug
// state snapshot, including how it hashes submitted code into temp files
// and which breakpoints it currently holds.
type DebugInfoResult struct {
	IsStarted      bool                `json:"isStarted"`
	HashMethod     string              `json:"hashMethod,omitempty"`
	HashSeed       int                 `json:"hashSeed,omitempty"`
	TmpFilePrefix  string              `json:"tmpFilePrefix,omitempty"`
	TmpFileSuffix  string              `json:"tmpFileSuffix,omitempty"`
	Breakpoints    []SourceBreakpoints `json:"breakpoints,omitempty"`
	StoppedThreads []int               `json:"stoppedThreads,omitempty"`
	RichRendering  bool                `json:"richRendering,omitempty"`
	ExceptionPaths []string            `json:"exceptionPaths,omitempty"`
}

// StoppedEventBody is the body of a stopped event.
type StoppedEventBody struct {
	Reason            string `json:"reason"`
	ThreadID          int    `json:"threadId,omitempty"`
	AllThreadsStopped bool   `json:"allThreadsStopped,omitempty"`
	HitBreakpointIDs  []int  `json:"hitBreakpointIds,omitempty"`
}

// ContinuedEventBody is the body of a continued event.
type ContinuedEventBody struct {
	ThreadID            int  `json:"threadId"`
	AllThreadsContinued bool `json:"allThreadsContinued,omitempty"`
}

// OutputEventBody is the body of an output event.
type OutputEventBody struct {
	Category string `json:"category,omitempty"`
	Output   string `json:"output"`
}
