package main

import (
	"errors"
	"os"

	docfilter "github.com/halvar/go-docfilter"
)

// Exit codes for the docfilter CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful filtering
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // File not found, permission denied
	ExitRender  = 4 // HTML rendering errors
)

// ErrUsage marks command-line usage errors.
var ErrUsage = errors.New("usage error")

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, docfilter.ErrHTMLRender) {
		return ExitRender
	}

	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadInput) ||
		errors.Is(err, ErrWriteOutput) ||
		errors.Is(err, ErrNoInput) {
		return ExitIO
	}

	if errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrConfigNotFound) ||
		errors.Is(err, ErrConfigParse) ||
		errors.Is(err, docfilter.ErrEmptyMarkdown) ||
		errors.Is(err, docfilter.ErrInvalidFormat) ||
		errors.Is(err, docfilter.ErrInvalidMode) ||
		errors.Is(err, docfilter.ErrFrontMatterParse) {
		return ExitUsage
	}

	return ExitGeneral
}
