package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	docfilter "github.com/halvar/go-docfilter"
)

// Sentinel errors for CLI I/O.
var (
	ErrNoInput     = errors.New("no input file specified")
	ErrReadInput   = errors.New("failed to read input file")
	ErrWriteOutput = errors.New("failed to write output file")
)

// buildService assembles a Service from merged config and flags.
func buildService(cfg *Config, f *cliFlags, logger *slog.Logger) (*docfilter.Service, error) {
	opts := []docfilter.Option{docfilter.WithLogger(logger)}

	if cfg.Format != "" {
		format, err := docfilter.ParseFormat(cfg.Format)
		if err != nil {
			return nil, err
		}
		opts = append(opts, docfilter.WithFormat(format))
	}
	if cfg.Mode != "" {
		mode, err := docfilter.ParseAnnotationMode(cfg.Mode)
		if err != nil {
			return nil, err
		}
		opts = append(opts, docfilter.WithAnnotationMode(mode))
	}
	if cfg.AssetDir != "" {
		opts = append(opts, docfilter.WithAssetDir(cfg.AssetDir))
	}
	if cfg.Font != "" {
		opts = append(opts, docfilter.WithFont(cfg.Font))
	}
	if len(cfg.Libraries) > 0 {
		opts = append(opts, docfilter.WithLibraries(cfg.Libraries))
	}
	if cfg.NoImages {
		opts = append(opts, docfilter.WithDisabledProcessing())
	}
	if f.htmlOut {
		opts = append(opts, docfilter.WithHTMLRendering())
	}

	return docfilter.New(opts...), nil
}

// runOnce filters the input file a single time.
func runOnce(ctx context.Context, svc *docfilter.Service, f *cliFlags, logger *slog.Logger) error {
	if f.input == "" {
		return ErrNoInput
	}

	content, err := os.ReadFile(f.input)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrReadInput, f.input, err)
	}

	out, err := svc.Filter(ctx, docfilter.Input{
		Markdown:  string(content),
		SourceDir: filepath.Dir(f.input),
	})
	if err != nil {
		return err
	}

	if f.wordCount {
		fmt.Fprintf(os.Stderr, "%d words\n", out.Words)
	}

	result := out.Markdown
	if f.htmlOut && out.HTML != "" {
		result = out.HTML
	}

	if f.output == "" {
		fmt.Print(result)
		return nil
	}
	if err := os.WriteFile(f.output, []byte(result), 0o644); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWriteOutput, f.output, err)
	}
	logger.Info("wrote output", slog.String("path", f.output))
	return nil
}

// run executes the CLI: load config, build the service, and filter
// once or in watch mode.
func run(ctx context.Context, f *cliFlags, logger *slog.Logger) error {
	cfg := DefaultConfig()
	if f.config != "" {
		loaded, err := LoadConfig(f.config)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	cfg.merge(f)

	svc, err := buildService(cfg, f, logger)
	if err != nil {
		return err
	}

	if f.watch {
		return watchAndRun(ctx, svc, f, logger)
	}
	return runOnce(ctx, svc, f, logger)
}
