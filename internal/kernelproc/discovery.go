package kernelproc

import (
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/jovyanlabs/kernel-debug-sdk-go/internal/errors"
)

// DefaultBinary is the kernel host binary name searched for when no
// explicit path is configured.
const DefaultBinary = "kernel-debug-host"

// discover locates the kernel host binary.
//
// An explicit path wins and is the only candidate when set. Otherwise the
// binary is searched in PATH and a handful of conventional locations.
func discover(log *slog.Logger, explicitPath string) (string, error) {
	// If explicit path provided, use it and only it
	if explicitPath != "" {
		log.Debug("Using explicit kernel host path", "path", explicitPath)

		if _, err := os.Stat(explicitPath); err == nil {
			return explicitPath, nil
		}

		log.Debug("Explicit kernel host path not found", "path", explicitPath)

		return "", &errors.KernelNotFoundError{SearchedPaths: []string{explicitPath}}
	}

	searchedPaths := make([]string, 0, 4)

	log.Debug("Searching for kernel host in PATH", "binary", DefaultBinary)

	if path, err := exec.LookPath(DefaultBinary); err == nil {
		log.Debug("Found kernel host in PATH", "path", path)

		return path, nil
	}

	searchedPaths = append(searchedPaths, "$PATH")

	commonPaths := []string{
		filepath.Join("/usr/local/bin", DefaultBinary),
		filepath.Join("/usr/bin", DefaultBinary),
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		commonPaths = append(commonPaths, filepath.Join(homeDir, ".local/bin", DefaultBinary))
	}

	for _, path := range commonPaths {
		searchedPaths = append(searchedPaths, path)
		log.Debug("Checking common path", "path", path)

		if _, err := os.Stat(path); err == nil {
			log.Debug("Found kernel host at common path", "path", path)

			return path, nil
		}
	}

	log.Warn("Kernel host not found in any searched paths", "searched_paths", searchedPaths)

	return "", &errors.KernelNotFoundError{SearchedPaths: searchedPaths}
}
