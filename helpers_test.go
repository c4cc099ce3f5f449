package docfilter

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// fakeRunner implements CommandRunner without spawning subprocesses.
// It records invocations per tool and simulates each tool's observable
// effect: writing its output file.
type fakeRunner struct {
	mu    sync.Mutex
	calls map[string]int
	fail  map[string]bool

	// output written into fake artifacts, to make replacement visible.
	stamp string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		calls: make(map[string]int),
		fail:  make(map[string]bool),
		stamp: "fake",
	}
}

func (r *fakeRunner) Run(_ context.Context, name string, args ...string) (string, string, error) {
	r.mu.Lock()
	r.calls[name]++
	shouldFail := r.fail[name]
	stamp := r.stamp
	r.mu.Unlock()

	if shouldFail {
		return "", "simulated tool failure", errors.New("exit status 1")
	}

	switch name {
	case dotTool:
		// dot -T<fmt> -o <out> <in>
		for i, a := range args {
			if a == "-o" && i+1 < len(args) {
				return "", "", os.WriteFile(args[i+1], []byte(stamp+"-dot"), 0o644)
			}
		}
	case latexTool:
		// lualatex ... -output-directory=<dir> <source>
		var outDir string
		for _, a := range args {
			if strings.HasPrefix(a, "-output-directory=") {
				outDir = strings.TrimPrefix(a, "-output-directory=")
			}
		}
		source := args[len(args)-1]
		base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
		return "", "", os.WriteFile(filepath.Join(outDir, base+".pdf"), []byte(stamp+"-pdf"), 0o644)
	case convertTool:
		// magick -density N <in> <out>
		return "", "", os.WriteFile(args[len(args)-1], []byte(stamp+"-converted"), 0o644)
	}
	return "", "", nil
}

func (r *fakeRunner) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[name]
}

// fakeDownloader implements Downloader, writing a stub file on success.
type fakeDownloader struct {
	mu    sync.Mutex
	calls []string
	fail  bool
}

func (d *fakeDownloader) Download(_ context.Context, url, destPath string) error {
	d.mu.Lock()
	d.calls = append(d.calls, url)
	shouldFail := d.fail
	d.mu.Unlock()

	if shouldFail {
		return errors.New("connection refused")
	}
	return os.WriteFile(destPath, []byte("fake-download"), 0o644)
}

func (d *fakeDownloader) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.calls)
}

// testLogger discards output; failures are asserted on behavior, not logs.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestResolver wires a resolver with fakes against a temp asset dir.
func newTestResolver(t *testing.T, format OutputFormat) (*assetResolver, *fakeRunner, *fakeDownloader) {
	t.Helper()

	runner := newFakeRunner()
	dl := &fakeDownloader{}
	tools := newToolInvoker(runner, dl, testLogger())
	r := newAssetResolver(t.TempDir(), format, tools, testLogger(), false)
	return r, runner, dl
}

// mustWriteFile writes a file or fails the test.
func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
