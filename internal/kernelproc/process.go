package kernelproc

import (
	"bufio"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jovyanlabs/kernel-debug-sdk-go/internal/channel"
	"github.com/jovyanlabs/kernel-debug-sdk-go/internal/config"
	"github.com/jovyanlabs/kernel-debug-sdk-go/internal/errors"
)

const (
	// maxScanTokenSize is the maximum buffer size for reading kernel output lines.
	maxScanTokenSize = 1024 * 1024 // 1MB
	// maxStderrBufferSize is the maximum size for the stderr buffer.
	// Stderr reading continues indefinitely (callback receives all lines),
	// but the buffer stops growing after this limit to prevent unbounded memory usage.
	maxStderrBufferSize = 10 * 1024 * 1024 // 10MB
)

// KernelProcess implements channel.Channel by spawning a kernel host
// subprocess speaking newline-delimited JSON envelopes on stdio.
//
// The process is owned by whoever created it: debug sessions borrow the
// channel and never close it, so Close() stays with the creator.
type KernelProcess struct {
	log            *slog.Logger
	options        *config.Options
	binPath        string
	args           []string
	env            []string
	cwd            string
	cmd            *exec.Cmd
	stdin          io.WriteCloser
	stdout         io.ReadCloser
	stderr         io.ReadCloser
	stderrCallback func(string)
	mu             sync.Mutex // Protects stdin writes and lifecycle flags
	closing        bool
	stdinClosed    bool
}

// Compile-time verification that KernelProcess implements channel.Channel.
var _ channel.Channel = (*KernelProcess)(nil)

// New creates a kernel process channel with the given options.
//
// Binary discovery is deferred to Start(), which searches for the kernel
// host binary in the following order:
//  1. The explicit path in options.KernelPath (if provided)
//  2. The system PATH
//  3. Common installation directories (/usr/local/bin, /usr/bin, ~/.local/bin)
//
// Start() returns KernelNotFoundError if the binary cannot be located.
func New(log *slog.Logger, options *config.Options) *KernelProcess {
	if options == nil {
		options = &config.Options{}
	}

	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &KernelProcess{
		log:            log.With("component", "kernel_process"),
		options:        options,
		stderrCallback: options.Stderr,
	}
}

// Start spawns the kernel host subprocess.
//
// This method discovers the kernel host binary, builds the environment,
// and sets up stdin, stdout, and stderr pipes for communication.
//
// Returns KernelNotFoundError if the binary cannot be located, or
// ChannelError if the process fails to start.
func (p *KernelProcess) Start(ctx context.Context) error {
	p.log.Info("Starting kernel host subprocess")

	binPath, err := discover(p.log, p.options.KernelPath)
	if err != nil {
		return fmt.Errorf("discover kernel host: %w", err)
	}

	p.binPath = binPath
	p.args = p.options.KernelArgs

	p.env = os.Environ()
	for key, value := range p.options.Env {
		p.env = append(p.env, key+"="+value)
	}

	p.cwd = p.options.Cwd
	if p.cwd == "" {
		p.cwd, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("get working directory: %w", err)
		}
	}

	p.log.Debug("Set working directory", "cwd", p.cwd)

	//nolint:gosec // G204: Subprocess launching with dynamic args is expected for the kernel host
	cmd := exec.CommandContext(ctx, p.binPath, p.args...)
	cmd.Dir = p.cwd
	cmd.Env = p.env

	stdin, err := cmd.StdinPipe()
	if err != nil {
		p.log.Error("Failed to create stdin pipe", "error", err)

		return &errors.ChannelError{Op: "start", Err: fmt.Errorf("stdin pipe: %w", err)}
	}

	p.stdin = stdin

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		p.log.Error("Failed to create stdout pipe", "error", err)

		return &errors.ChannelError{Op: "start", Err: fmt.Errorf("stdout pipe: %w", err)}
	}

	p.stdout = stdout

	stderr, err := cmd.StderrPipe()
	if err != nil {
		p.log.Error("Failed to create stderr pipe", "error", err)

		return &errors.ChannelError{Op: "start", Err: fmt.Errorf("stderr pipe: %w", err)}
	}

	p.stderr = stderr

	if err := cmd.Start(); err != nil {
		p.log.Error("Failed to start kernel host process", "error", err)

		return &errors.ChannelError{Op: "start", Err: fmt.Errorf("start process: %w", err)}
	}

	p.cmd = cmd
	p.log.Info("Kernel host subprocess started successfully", "pid", cmd.Process.Pid)

	return nil
}

// Recv reads message envelopes from the kernel stdout.
//
// This method starts a goroutine that reads line-delimited JSON from the
// process stdout. Each line is parsed as a channel.Message and sent to the
// messages channel.
//
// The goroutine exits when:
//   - The kernel process terminates
//   - The context is cancelled
//   - An unrecoverable error occurs
//
// Parse errors for individual lines are sent to the error channel but do
// not stop message processing. The goroutine closes both channels when it
// exits.
func (p *KernelProcess) Recv(ctx context.Context) (<-chan *channel.Message, <-chan error) {
	messages := make(chan *channel.Message)
	errs := make(chan error, 1)

	var stderrWg sync.WaitGroup

	var stderrBuffer strings.Builder

	var stderrMu sync.Mutex

	// Always buffer stderr for error reporting (must complete reads before Wait())
	// See: https://pkg.go.dev/os/exec#Cmd.StderrPipe
	stderrWg.Go(func() {
		// Simple scanner loop - relies on process kill to close pipes and unblock Scan().
		scanner := bufio.NewScanner(p.stderr)
		for scanner.Scan() {
			select {
			case <-ctx.Done():
				return
			default:
			}

			line := scanner.Text()

			// Buffer stderr for error reporting (capped at maxStderrBufferSize)
			stderrMu.Lock()

			if stderrBuffer.Len() < maxStderrBufferSize {
				if stderrBuffer.Len() > 0 {
					stderrBuffer.WriteString("\n")
				}

				stderrBuffer.WriteString(line)
			}

			stderrMu.Unlock()

			if p.stderrCallback != nil {
				p.stderrCallback(line)
			}
		}

		if err := scanner.Err(); err != nil {
			p.log.Debug("Stderr scanner error", "error", err)
		}
	})

	go func() {
		defer close(messages)
		defer close(errs)
		defer p.log.Debug("Recv goroutine stopped")

		scanner := bufio.NewScanner(p.stdout)

		bufferSize := maxScanTokenSize
		if p.options.MaxBufferSize != nil {
			bufferSize = *p.options.MaxBufferSize
		}

		buf := make([]byte, bufferSize)
		scanner.Buffer(buf, bufferSize)

		messageCount := 0

		for scanner.Scan() {
			select {
			case <-ctx.Done():
				p.log.Debug("Context cancelled during scan", "error", ctx.Err())

				errs <- ctx.Err()

				return
			default:
			}

			line := scanner.Bytes()

			var msg channel.Message

			if err := json.Unmarshal(line, &msg); err != nil {
				p.log.Debug("Failed to unmarshal kernel message", "error", err, "line", string(line))

				errs <- &errors.MessageParseError{
					RawData: string(line),
					Err:     err,
				}

				continue
			}

			messageCount++
			p.log.Debug("Received message from kernel", "class", msg.Class, "message_count", messageCount)

			select {
			case messages <- &msg:
			case <-ctx.Done():
				p.log.Debug("Context cancelled during message send", "error", ctx.Err())

				errs <- ctx.Err()

				return
			}
		}

		if err := scanner.Err(); err != nil {
			p.log.Error("Scanner error while reading kernel output", "error", err)

			errs <- fmt.Errorf("scanner error: %w", err)
		}

		// Wait for stderr goroutine before process wait
		stderrWg.Wait()

		p.log.Debug("Waiting for kernel process to exit")

		if err := p.cmd.Wait(); err != nil {
			// Check if this is an intentional shutdown
			p.mu.Lock()
			isClosing := p.closing
			p.mu.Unlock()

			if isClosing {
				p.log.Debug("Kernel process terminated during shutdown")

				return
			}

			stderrMu.Lock()

			stderrOutput := stderrBuffer.String()

			stderrMu.Unlock()

			exitCode := 0

			if exitErr, ok := stderrors.AsType[*exec.ExitError](err); ok {
				exitCode = exitErr.ExitCode()
			}

			p.log.Error("Kernel process exited with error", "exit_code", exitCode, "stderr", stderrOutput)

			errs <- &errors.ProcessError{
				ExitCode: exitCode,
				Stderr:   stderrOutput,
				Err:      err,
			}
		} else {
			p.log.Info("Kernel process exited successfully")
		}
	}()

	return messages, errs
}

// Send writes one message envelope to the kernel stdin.
//
// An envelope without an ID is assigned one. This method is safe for
// concurrent use and respects context cancellation even during blocking
// writes.
//
// If context is cancelled during a blocked write, stdin is closed to unblock
// the goroutine (safe since Go 1.9+). Subsequent calls will fail.
func (p *KernelProcess) Send(ctx context.Context, msg *channel.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stdin == nil {
		return &errors.ChannelError{Op: "send", Err: errors.ErrChannelNotConnected}
	}

	if p.stdinClosed {
		return &errors.ChannelError{Op: "send", Err: errors.ErrKernelExited}
	}

	// Check context before starting
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	data = append(data, '\n')

	p.log.Debug("Sending message to kernel", "class", msg.Class, "data_len", len(data))

	// Write in goroutine to respect context cancellation
	done := make(chan error, 1)

	go func() {
		_, err := p.stdin.Write(data)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			p.log.Error("Failed to write message to kernel", "error", err)

			return &errors.ChannelError{Op: "send", Err: err}
		}

		return nil

	case <-ctx.Done():
		p.log.Debug("Context cancelled during write, closing stdin")
		// Close stdin to unblock the blocked Write (safe since Go 1.9+)
		if p.stdin != nil {
			_ = p.stdin.Close()
			p.stdinClosed = true
		}
		// Wait for goroutine to exit with timeout to prevent leak
		select {
		case <-done:
			// Write goroutine exited cleanly
		case <-time.After(1 * time.Second):
			p.log.Warn("Write goroutine did not exit after stdin close, potential leak")
		}

		return ctx.Err()
	}
}

// Connected reports whether the kernel process is running with an open
// stdin.
func (p *KernelProcess) Connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.cmd != nil && p.cmd.Process != nil && p.stdin != nil && !p.stdinClosed && !p.closing
}

// CloseStdin closes the stdin pipe to signal end of input.
//
// The kernel process will finish processing any pending input and then
// exit normally.
func (p *KernelProcess) CloseStdin() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stdin != nil && !p.stdinClosed {
		p.log.Debug("Closing stdin pipe")

		err := p.stdin.Close()
		p.stdinClosed = true
		p.stdin = nil

		return err
	}

	return nil
}

// Close terminates the kernel process.
//
// This forcefully kills the process using SIGKILL. It's safe to call Close
// multiple times or on an already-terminated process.
func (p *KernelProcess) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closing = true
	p.stdinClosed = true

	if p.cmd != nil && p.cmd.Process != nil {
		p.log.Debug("Killing kernel process", "pid", p.cmd.Process.Pid)

		if err := p.cmd.Process.Kill(); err != nil {
			return fmt.Errorf("kill kernel process (pid %d): %w", p.cmd.Process.Pid, err)
		}
	}

	return nil
}
