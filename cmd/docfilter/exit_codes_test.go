package main

import (
	"errors"
	"fmt"
	"os"
	"testing"

	docfilter "github.com/halvar/go-docfilter"
)

func TestExitCodeFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, ExitSuccess},
		{"usage error", ErrUsage, ExitUsage},
		{"wrapped usage error", fmt.Errorf("%w: extra arg", ErrUsage), ExitUsage},
		{"config not found", ErrConfigNotFound, ExitUsage},
		{"config parse", ErrConfigParse, ExitUsage},
		{"empty markdown", docfilter.ErrEmptyMarkdown, ExitUsage},
		{"invalid format", docfilter.ErrInvalidFormat, ExitUsage},
		{"invalid mode", docfilter.ErrInvalidMode, ExitUsage},
		{"front matter parse", docfilter.ErrFrontMatterParse, ExitUsage},
		{"no input", ErrNoInput, ExitIO},
		{"read input", fmt.Errorf("%w: doc.md", ErrReadInput), ExitIO},
		{"write output", fmt.Errorf("%w: out.md", ErrWriteOutput), ExitIO},
		{"file not found", os.ErrNotExist, ExitIO},
		{"permission denied", os.ErrPermission, ExitIO},
		{"html render", fmt.Errorf("rendering: %w", docfilter.ErrHTMLRender), ExitRender},
		{"unknown error", errors.New("boom"), ExitGeneral},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
