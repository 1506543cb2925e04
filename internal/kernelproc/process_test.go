package kernelproc

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jovyanlabs/kernel-debug-sdk-go/internal/channel"
	"github.com/jovyanlabs/kernel-debug-sdk-go/internal/config"
	"github.com/jovyanlabs/kernel-debug-sdk-go/internal/errors"
)

func requireUnix(t *testing.T) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("test relies on unix shell utilities")
	}
}

// catProcess starts /bin/cat as a loopback kernel: every envelope sent to
// stdin comes straight back on stdout.
func catProcess(t *testing.T) *KernelProcess {
	t.Helper()
	requireUnix(t)

	p := New(slog.Default(), &config.Options{KernelPath: "/bin/cat"})
	require.NoError(t, p.Start(context.Background()))

	t.Cleanup(func() {
		_ = p.Close()
	})

	return p
}

func TestKernelProcess_SendRecvRoundTrip(t *testing.T) {
	p := catProcess(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msgs, errs := p.Recv(ctx)

	sent := &channel.Message{
		Class:   channel.ClassDebugRequest,
		Content: []byte(`{"type":"request","seq":1,"command":"debugInfo"}`),
	}

	require.NoError(t, p.Send(ctx, sent))
	require.NotEmpty(t, sent.ID, "Send assigns an envelope ID")

	select {
	case got := <-msgs:
		require.Equal(t, sent.ID, got.ID)
		require.Equal(t, channel.ClassDebugRequest, got.Class)
		require.JSONEq(t, string(sent.Content), string(got.Content))
	case err := <-errs:
		t.Fatalf("unexpected channel error: %v", err)
	case <-ctx.Done():
		t.Fatal("message did not round-trip")
	}
}

func TestKernelProcess_Connected(t *testing.T) {
	p := catProcess(t)

	require.True(t, p.Connected())

	require.NoError(t, p.Close())
	require.False(t, p.Connected())
}

func TestKernelProcess_GarbageLineSurfacesParseError(t *testing.T) {
	requireUnix(t)

	p := New(slog.Default(), &config.Options{
		KernelPath: "/bin/sh",
		KernelArgs: []string{"-c", `echo 'not json'; echo '{"id":"m1","class":"status","content":{}}'`},
	})
	require.NoError(t, p.Start(context.Background()))

	t.Cleanup(func() {
		_ = p.Close()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msgs, errs := p.Recv(ctx)

	// The garbage line surfaces as a parse error ...
	select {
	case err := <-errs:
		var parseErr *errors.MessageParseError

		require.ErrorAs(t, err, &parseErr)
		require.Contains(t, parseErr.RawData, "not json")
	case <-ctx.Done():
		t.Fatal("parse error never surfaced")
	}

	// ... without killing the loop: the valid line still arrives.
	select {
	case msg := <-msgs:
		require.Equal(t, "m1", msg.ID)
		require.Equal(t, "status", msg.Class)
	case <-ctx.Done():
		t.Fatal("valid message never arrived")
	}
}

func TestKernelProcess_AbnormalExitSurfacesProcessError(t *testing.T) {
	requireUnix(t)

	p := New(slog.Default(), &config.Options{
		KernelPath: "/bin/sh",
		KernelArgs: []string{"-c", "echo 'kernel blew up' >&2; exit 3"},
	})
	require.NoError(t, p.Start(context.Background()))

	t.Cleanup(func() {
		_ = p.Close()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, errs := p.Recv(ctx)

	for {
		select {
		case err, ok := <-errs:
			if !ok {
				t.Fatal("error stream closed without a ProcessError")
			}

			procErr, isProc := stderrors.AsType[*errors.ProcessError](err)
			if !isProc {
				continue
			}

			require.Equal(t, 3, procErr.ExitCode)
			require.Contains(t, procErr.Stderr, "kernel blew up")

			return
		case <-ctx.Done():
			t.Fatal("process error never surfaced")
		}
	}
}

func TestKernelProcess_StderrCallback(t *testing.T) {
	requireUnix(t)

	var mu sync.Mutex

	var lines []string

	p := New(slog.Default(), &config.Options{
		KernelPath: "/bin/sh",
		KernelArgs: []string{"-c", "echo 'warn: slow start' >&2"},
		Stderr: func(line string) {
			mu.Lock()
			lines = append(lines, line)
			mu.Unlock()
		},
	})
	require.NoError(t, p.Start(context.Background()))

	t.Cleanup(func() {
		_ = p.Close()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msgs, _ := p.Recv(ctx)

	// Drain until the process exits so stderr is fully read.
	for range msgs { //nolint:revive // draining
	}

	mu.Lock()
	defer mu.Unlock()

	require.Len(t, lines, 1)
	require.True(t, strings.HasPrefix(lines[0], "warn:"))
}

func TestKernelProcess_CloseIdempotent(t *testing.T) {
	p := catProcess(t)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
}

func TestKernelProcess_SendAfterCloseFails(t *testing.T) {
	p := catProcess(t)

	require.NoError(t, p.Close())

	err := p.Send(context.Background(), &channel.Message{Class: channel.ClassDebugRequest})
	require.Error(t, err)

	var chanErr *errors.ChannelError

	require.ErrorAs(t, err, &chanErr)
}

func TestDiscover_ExplicitPathMissing(t *testing.T) {
	_, err := discover(slog.Default(), filepath.Join(t.TempDir(), "no-such-kernel"))
	require.Error(t, err)

	notFound, ok := stderrors.AsType[*errors.KernelNotFoundError](err)
	require.True(t, ok)
	require.Len(t, notFound.SearchedPaths, 1)
}

func TestDiscover_ExplicitPathWins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kernel-host")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755))

	found, err := discover(slog.Default(), path)
	require.NoError(t, err)
	require.Equal(t, path, found)
}

func TestDiscover_ReportsSearchedPaths(t *testing.T) {
	// Point PATH at an empty directory so the search comes up dry.
	t.Setenv("PATH", t.TempDir())

	_, err := discover(slog.Default(), "")
	if err == nil {
		t.Skip("a kernel host happens to be installed in a common location")
	}

	notFound, ok := stderrors.AsType[*errors.KernelNotFoundError](err)
	require.True(t, ok)
	require.Contains(t, notFound.SearchedPaths, "$PATH")
}
