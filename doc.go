// Package kerneldebug provides a Go SDK for debugging code running inside
// a compute kernel over the kernel's control channel.
//
// The SDK layers a debug-protocol session on top of one shared kernel
// channel: it correlates asynchronous kernel replies with the requests
// that caused them, fans unsolicited debug events out to subscribers in
// kernel order, and passes every non-debug message through untouched so
// the rest of the application keeps working while a debugger is attached.
//
// # Basic Usage
//
// Create a session over an existing channel, start it, and issue typed
// debug commands:
//
//	ctx := context.Background()
//
//	session := kerneldebug.NewSession(ch,
//	    kerneldebug.WithLogger(slog.Default()),
//	)
//	defer session.Dispose()
//
//	if err := session.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	if _, err := session.Initialize(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	if err := session.Attach(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := session.DumpCell(ctx, "i=0\ni+=1\ni+=1")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	_, err = session.SetBreakpoints(ctx,
//	    kerneldebug.Source{Path: result.SourcePath},
//	    []kerneldebug.SourceBreakpoint{{Line: 2}},
//	)
//
// For automatic lifecycle management, use the WithSession helper:
//
//	err := kerneldebug.WithSession(ctx, ch, func(s kerneldebug.Session) error {
//	    info, err := s.DebugInfo(ctx)
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println("stopped threads:", info.StoppedThreads)
//	    return nil
//	},
//	    kerneldebug.WithLogger(slog.Default()),
//	)
//
// # Events
//
// Debug events arrive in kernel order. Subscribe with a handler, or
// consume them as an iterator:
//
//	sub := session.OnEvent(kerneldebug.EventHandlerFunc(func(ev *kerneldebug.Event) {
//	    fmt.Println("event:", ev.Event)
//	}))
//	defer sub.Cancel()
//
//	for ev := range session.Events(ctx) {
//	    if ev.Event == kerneldebug.EventStopped {
//	        break
//	    }
//	}
//
// # Sessions Are Single-Use
//
// Stop() fails every pending request and disables debug handling on the
// kernel side; Dispose() is terminal. A stopped or disposed session
// cannot be restarted - create a new one with NewSession(). The channel
// is borrowed, never owned: disposing a session never closes it.
//
// # Error Handling
//
// Raw SendRequest treats an unsuccessful kernel reply as data: inspect
// Response.Success and Response.Message. Typed commands convert it into a
// RequestFailedError. Infrastructure failures surface as typed errors:
//
//	_, err := session.Evaluate(ctx, "undefined_name", 0)
//	if err != nil {
//	    if reqErr, ok := errors.AsType[*kerneldebug.RequestFailedError](err); ok {
//	        log.Printf("kernel rejected %s: %s", reqErr.Command, reqErr.Message)
//	    }
//	}
//
// # Running the Kernel
//
// Most applications already hold a channel to a live kernel. When the SDK
// should own the kernel process itself, NewKernelProcess launches the
// kernel host binary and exposes it as a Channel:
//
//	proc := kerneldebug.NewKernelProcess(
//	    kerneldebug.WithKernelPath("/usr/local/bin/kernel-debug-host"),
//	)
//	if err := proc.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer proc.Close()
//
//	session := kerneldebug.NewSession(proc)
package kerneldebug
