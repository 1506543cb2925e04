package kerneldebug

import (
	"context"
	"fmt"
)

// WithSession manages session lifecycle with automatic cleanup.
//
// This helper creates a session over ch, starts it with the provided
// options, executes the callback function, and ensures proper teardown via
// Stop() and Dispose() when done.
//
// The callback receives a fully started Session that is ready for use.
// If the callback returns an error, it is returned to the caller.
// Teardown failures are logged but do not override the callback's error.
//
// Example usage:
//
//	err := kerneldebug.WithSession(ctx, ch, func(s kerneldebug.Session) error {
//	    result, err := s.DumpCell(ctx, "i=0\ni+=1")
//	    if err != nil {
//	        return err
//	    }
//	    _, err = s.SetBreakpoints(ctx,
//	        kerneldebug.Source{Path: result.SourcePath},
//	        []kerneldebug.SourceBreakpoint{{Line: 2}},
//	    )
//	    return err
//	},
//	    kerneldebug.WithLogger(log),
//	)
func WithSession(ctx context.Context, ch Channel, fn func(Session) error, opts ...Option) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	options := applySessionOptions(opts)

	log := options.Logger
	if log == nil {
		log = NopLogger()
	}

	session := NewSession(ch, opts...)
	if err := session.Start(ctx); err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}

	defer func() {
		if stopErr := session.Stop(ctx); stopErr != nil {
			log.Warn("failed to stop session", "error", stopErr)
		}

		if disposeErr := session.Dispose(); disposeErr != nil {
			log.Warn("failed to dispose session", "error", disposeErr)
		}
	}()

	return fn(session)
}
