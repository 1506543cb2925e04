//go:build integration

package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	kerneldebug "github.com/jovyanlabs/kernel-debug-sdk-go"
)

// skipIfKernelNotInstalled skips the test if the error indicates no kernel
// host binary is available on this machine.
func skipIfKernelNotInstalled(t *testing.T, err error) {
	t.Helper()

	if _, ok := errors.AsType[*kerneldebug.KernelNotFoundError](err); ok {
		t.Skip("kernel host binary not installed")
	}
}

// startKernel launches a real kernel process and registers its cleanup.
func startKernel(t *testing.T, ctx context.Context, opts ...kerneldebug.Option) *kerneldebug.KernelProcess {
	t.Helper()

	proc := kerneldebug.NewKernelProcess(opts...)
	if err := proc.Start(ctx); err != nil {
		skipIfKernelNotInstalled(t, err)
		t.Fatalf("failed to start kernel: %v", err)
	}

	t.Cleanup(func() {
		if err := proc.Close(); err != nil {
			t.Logf("kernel close: %v", err)
		}
	})

	return proc
}

// attachSession starts a session over proc and runs the standard attach
// sequence up to the point where code can be submitted.
func attachSession(t *testing.T, ctx context.Context, proc *kerneldebug.KernelProcess) kerneldebug.Session {
	t.Helper()

	session := kerneldebug.NewSession(proc,
		kerneldebug.WithRequestTimeout(30*time.Second),
	)
	t.Cleanup(func() {
		if err := session.Dispose(); err != nil {
			t.Logf("session dispose: %v", err)
		}
	})

	if err := session.Start(ctx); err != nil {
		t.Fatalf("session start failed: %v", err)
	}

	if _, err := session.Initialize(ctx); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}

	if err := session.Attach(ctx); err != nil {
		t.Fatalf("attach failed: %v", err)
	}

	return session
}
