package main

import (
	"errors"
	"os"

	"github.com/alnah/go-mdpreview"
	"github.com/alnah/go-mdpreview/internal/config"
	"github.com/alnah/go-mdpreview/internal/fileutil"
	"github.com/alnah/go-mdpreview/internal/server"
	"github.com/alnah/go-mdpreview/internal/watch"
)

// Exit codes for the mdpreview CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Command completed
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // File not found, rejected, or not writable
	ExitBrowser = 4 // Browser/Chrome errors
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Browser errors (exit 4)
	if errors.Is(err, mdpreview.ErrBrowserConnect) ||
		errors.Is(err, mdpreview.ErrPageCreate) ||
		errors.Is(err, mdpreview.ErrPageLoad) ||
		errors.Is(err, mdpreview.ErrPDFGeneration) {
		return ExitBrowser
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, mdpreview.ErrRejectedFile) ||
		errors.Is(err, mdpreview.ErrImportRead) ||
		errors.Is(err, fileutil.ErrOutputDirectory) ||
		errors.Is(err, fileutil.ErrWriteOutput) ||
		errors.Is(err, server.ErrListen) ||
		errors.Is(err, watch.ErrWatch) ||
		errors.Is(err, ErrNoInput) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, mdpreview.ErrInvalidPageSettings) ||
		errors.Is(err, mdpreview.ErrStyleNotFound) ||
		errors.Is(err, mdpreview.ErrInvalidAssetPath) ||
		errors.Is(err, server.ErrTemplate) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, ErrInvalidTimeout) ||
		errors.Is(err, ErrUsage) {
		return ExitUsage
	}

	return ExitGeneral
}
