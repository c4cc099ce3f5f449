package docfilter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// External tool names. All are resolved on PATH at invocation time.
const (
	latexTool   = "lualatex"
	dotTool     = "dot"
	convertTool = "magick"
)

// convertDensity is the rasterization density passed to the converter
// when producing PNG from vector input.
const convertDensity = "300"

// CommandRunner abstracts command execution to enable testing without
// real subprocesses.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stdout string, stderr string, err error)
}

// ExecRunner implements CommandRunner using os/exec.
type ExecRunner struct{}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// Downloader abstracts remote resource fetching.
type Downloader interface {
	Download(ctx context.Context, url, destPath string) error
}

// httpDownloader fetches resources with net/http. The default client
// follows redirects; downloads stream to a temp file and rename into
// place so a failed fetch leaves no partial file.
type httpDownloader struct {
	client *http.Client
}

func newHTTPDownloader() *httpDownloader {
	return &httpDownloader{client: &http.Client{Timeout: 2 * time.Minute}}
}

func (d *httpDownloader) Download(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building request for %s: %w", url, err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching %s: unexpected status %s", url, resp.Status)
	}

	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".download-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", destPath, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming into place: %w", err)
	}
	return nil
}

// toolInvoker wraps the external typesetting, conversion, and download
// commands as fallible operations. Every method is synchronous and
// idempotent at the call site, returns an error wrapping the matching
// sentinel, and never leaves a partial artifact at the target path.
type toolInvoker struct {
	runner CommandRunner
	dl     Downloader
	logger *slog.Logger
}

func newToolInvoker(runner CommandRunner, dl Downloader, logger *slog.Logger) *toolInvoker {
	return &toolInvoker{runner: runner, dl: dl, logger: logger}
}

// download fetches url to destPath.
func (t *toolInvoker) download(ctx context.Context, url, destPath string) error {
	if err := t.dl.Download(ctx, url, destPath); err != nil {
		t.logger.Warn("download failed", slog.String("url", url), slog.String("error", err.Error()))
		return fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	t.logger.Debug("downloaded", slog.String("url", url), slog.String("dest", destPath))
	return nil
}

// typesetTex compiles sourceFile with the LaTeX engine into outputDir
// and returns the produced PDF path. A failed run removes any partial
// PDF the engine may have left behind.
func (t *toolInvoker) typesetTex(ctx context.Context, sourceFile, outputDir string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(sourceFile), filepath.Ext(sourceFile))
	pdfPath := filepath.Join(outputDir, base+".pdf")

	_, stderr, err := t.runner.Run(ctx, latexTool,
		"-interaction=nonstopmode",
		"-halt-on-error",
		"-output-directory="+outputDir,
		sourceFile,
	)
	if err != nil {
		_ = os.Remove(pdfPath)
		t.logger.Warn("typeset failed", slog.String("source", sourceFile), slog.String("error", err.Error()))
		return "", fmt.Errorf("%w: %s: %s: %v", ErrTypesetFailed, sourceFile, firstLine(stderr), err)
	}
	t.logger.Debug("typeset", slog.String("source", sourceFile), slog.String("pdf", pdfPath))
	return pdfPath, nil
}

// typesetDot compiles a Graphviz source directly to the target format.
func (t *toolInvoker) typesetDot(ctx context.Context, sourceFile, outputFile, format string) error {
	tmpOut := tempSibling(outputFile)
	_, stderr, err := t.runner.Run(ctx, dotTool, "-T"+format, "-o", tmpOut, sourceFile)
	if err != nil {
		_ = os.Remove(tmpOut)
		t.logger.Warn("graphviz failed", slog.String("source", sourceFile), slog.String("error", err.Error()))
		return fmt.Errorf("%w: %s: %s: %v", ErrTypesetFailed, sourceFile, firstLine(stderr), err)
	}
	if err := os.Rename(tmpOut, outputFile); err != nil {
		_ = os.Remove(tmpOut)
		return fmt.Errorf("%w: renaming into place: %v", ErrTypesetFailed, err)
	}
	t.logger.Debug("graphviz", slog.String("source", sourceFile), slog.String("output", outputFile))
	return nil
}

// convertFormat converts inputFile to outputFile, with format inferred
// from the file extensions.
func (t *toolInvoker) convertFormat(ctx context.Context, inputFile, outputFile string) error {
	tmpOut := tempSibling(outputFile)
	_, stderr, err := t.runner.Run(ctx, convertTool, "-density", convertDensity, inputFile, tmpOut)
	if err != nil {
		_ = os.Remove(tmpOut)
		t.logger.Warn("convert failed", slog.String("input", inputFile), slog.String("error", err.Error()))
		return fmt.Errorf("%w: %s: %s: %v", ErrConvertFailed, inputFile, firstLine(stderr), err)
	}
	if err := os.Rename(tmpOut, outputFile); err != nil {
		_ = os.Remove(tmpOut)
		return fmt.Errorf("%w: renaming into place: %v", ErrConvertFailed, err)
	}
	t.logger.Debug("converted", slog.String("input", inputFile), slog.String("output", outputFile))
	return nil
}

// copyFile copies sourceFile into destFile, refreshing its timestamp.
func (t *toolInvoker) copyFile(sourceFile, destFile string) error {
	in, err := os.Open(sourceFile)
	if err != nil {
		return fmt.Errorf("%w: opening %s: %v", ErrCopyFailed, sourceFile, err)
	}
	defer func() { _ = in.Close() }()

	tmpOut := tempSibling(destFile)
	out, err := os.Create(tmpOut)
	if err != nil {
		return fmt.Errorf("%w: creating %s: %v", ErrCopyFailed, tmpOut, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(tmpOut)
		return fmt.Errorf("%w: copying to %s: %v", ErrCopyFailed, destFile, err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmpOut)
		return fmt.Errorf("%w: closing %s: %v", ErrCopyFailed, tmpOut, err)
	}
	if err := os.Rename(tmpOut, destFile); err != nil {
		_ = os.Remove(tmpOut)
		return fmt.Errorf("%w: renaming into place: %v", ErrCopyFailed, err)
	}
	return nil
}

// tempSibling returns a scratch path in the same directory as path,
// keeping the extension so format-sniffing tools behave the same.
func tempSibling(path string) string {
	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(filepath.Base(path), ext)
	return filepath.Join(dir, "."+base+".tmp"+ext)
}

// firstLine trims tool stderr to its first non-empty line for error
// messages; full output goes to the logger only.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
