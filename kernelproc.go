package kerneldebug

import (
	"github.com/jovyanlabs/kernel-debug-sdk-go/internal/kernelproc"
)

// KernelProcess launches a kernel host binary as a subprocess and exposes
// it as a Channel speaking newline-delimited JSON over stdin/stdout.
//
// Most callers never need a KernelProcess directly: they already have a
// Channel from the surrounding application. Use it when the SDK should own
// the kernel's lifetime, for example in tests or standalone tools:
//
//	proc := kerneldebug.NewKernelProcess(
//	    kerneldebug.WithLogger(slog.Default()),
//	    kerneldebug.WithKernelArgs("--profile", "debug"),
//	)
//	if err := proc.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer proc.Close()
//
//	session := kerneldebug.NewSession(proc)
type KernelProcess = kernelproc.KernelProcess

// NewKernelProcess creates a kernel process configured by the given options.
//
// The process is not started after creation; call Start(). If WithKernelPath
// is not given, the binary is located by searching PATH and conventional
// install locations; Start returns KernelNotFoundError when nothing is found.
func NewKernelProcess(opts ...Option) *KernelProcess {
	options := applySessionOptions(opts)

	log := options.Logger
	if log == nil {
		log = NopLogger()
	}

	return kernelproc.New(log, options)
}
