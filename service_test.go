package docfilter

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// newTestService builds a Service with fake tools and a temp asset dir.
func newTestService(t *testing.T, opts ...Option) (*Service, *fakeRunner, *fakeDownloader) {
	t.Helper()

	runner := newFakeRunner()
	dl := &fakeDownloader{}
	base := []Option{
		WithAssetDir(t.TempDir()),
		WithToolRunner(runner),
		WithDownloader(dl),
		WithLogger(testLogger()),
	}
	return New(append(base, opts...)...), runner, dl
}

func TestFilterEmptyMarkdown(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	if _, err := svc.Filter(context.Background(), Input{}); !errors.Is(err, ErrEmptyMarkdown) {
		t.Fatalf("error = %v, want ErrEmptyMarkdown", err)
	}
}

func TestFilterEndToEnd(t *testing.T) {
	t.Parallel()

	svc, runner, _ := newTestService(t, WithFormat(FormatLaTeX))
	doc := `---
title: Report
annotations: draft
---
# Intro

A ==key== point, see [@fig:flow].

` + "```dot {#fig:flow caption=\"Flow\"}\ndigraph { a -> b }\n```" + `

:::comment
check this
:::
`

	out, err := svc.Filter(context.Background(), Input{Markdown: doc})
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}

	for _, want := range []string{
		"title: Report",       // front matter preserved
		"\\hl{key}",           // highlight per format
		"\\ref{fig:flow}",     // reference resolved
		"![Flow](",            // diagram replaced by image
		"{\\color{red}",       // draft comment visible
		"check this",
	} {
		if !strings.Contains(out.Markdown, want) {
			t.Errorf("output missing %q:\n%s", want, out.Markdown)
		}
	}
	if strings.Contains(out.Markdown, "digraph") {
		t.Errorf("diagram source leaked:\n%s", out.Markdown)
	}
	if runner.count(dotTool) != 1 {
		t.Errorf("dot invoked %d times, want 1", runner.count(dotTool))
	}
	if out.Words == 0 {
		t.Error("word count missing")
	}
}

func TestFilterFrontMatterModeApplies(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, WithFormat(FormatLaTeX))
	doc := "---\nannotations: hide\n---\n:::comment\nsecret\n:::\nvisible"

	out, err := svc.Filter(context.Background(), Input{Markdown: doc})
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	if strings.Contains(out.Markdown, "secret") {
		t.Errorf("hide mode leaked comment:\n%s", out.Markdown)
	}
	if !strings.Contains(out.Markdown, "visible") {
		t.Errorf("body lost:\n%s", out.Markdown)
	}
}

func TestFilterOptionOverridesFrontMatterMode(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, WithFormat(FormatLaTeX), WithAnnotationMode(ModeDraft))
	doc := "---\nannotations: hide\n---\n:::comment\nnote text\n:::"

	out, err := svc.Filter(context.Background(), Input{Markdown: doc})
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	if !strings.Contains(out.Markdown, "note text") {
		t.Errorf("explicit draft mode was overridden by front matter:\n%s", out.Markdown)
	}
}

func TestFilterFontAffectsArtifactIdentity(t *testing.T) {
	t.Parallel()

	assetDir := t.TempDir()
	doc1 := "---\nfont: Alegreya\n---\n```tikz\n\\node{x};\n```"
	doc2 := "---\nfont: Lato\n---\n```tikz\n\\node{x};\n```"

	newSvc := func() *Service {
		runner := newFakeRunner()
		return New(
			WithFormat(FormatLaTeX),
			WithAssetDir(assetDir),
			WithToolRunner(runner),
			WithDownloader(&fakeDownloader{}),
			WithLogger(testLogger()),
		)
	}

	out1, err := newSvc().Filter(context.Background(), Input{Markdown: doc1})
	if err != nil {
		t.Fatal(err)
	}
	out2, err := newSvc().Filter(context.Background(), Input{Markdown: doc2})
	if err != nil {
		t.Fatal(err)
	}

	path1, path2 := imagePathIn(t, out1.Markdown), imagePathIn(t, out2.Markdown)
	if path1 == path2 {
		t.Errorf("font change did not change the artifact path: %s", path1)
	}
}

// imagePathIn extracts the single image path from a filtered document.
func imagePathIn(t *testing.T, doc string) string {
	t.Helper()
	m := imagePattern.FindStringSubmatch(doc)
	if m == nil {
		t.Fatalf("no image reference in:\n%s", doc)
	}
	return m[2]
}

func TestFilterBoxInjectsHeaderInclude(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, WithFormat(FormatLaTeX))
	doc := "---\ntitle: Doc\n---\n:::box\nboxed\n:::"

	out, err := svc.Filter(context.Background(), Input{Markdown: doc})
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	if !strings.Contains(out.Markdown, "header-includes") || !strings.Contains(out.Markdown, "tcolorbox") {
		t.Errorf("box package not injected:\n%s", out.Markdown)
	}

	// No box, no injection.
	out2, err := svc.Filter(context.Background(), Input{Markdown: "---\ntitle: Doc\n---\nplain"})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out2.Markdown, "header-includes") {
		t.Errorf("package injected without a box:\n%s", out2.Markdown)
	}
}

func TestFilterNoImagesFrontMatter(t *testing.T) {
	t.Parallel()

	svc, runner, dl := newTestService(t, WithFormat(FormatHTML))
	doc := "---\nno-images: true\n---\n![c](http://example.com/fig.jpeg)"

	out, err := svc.Filter(context.Background(), Input{Markdown: doc})
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	if !strings.Contains(out.Markdown, "http://example.com/fig.jpeg") {
		t.Errorf("reference not passed through unchanged:\n%s", out.Markdown)
	}
	if dl.count() != 0 || runner.count(convertTool) != 0 {
		t.Error("no-images still invoked tools")
	}
}

func TestFilterBadFrontMatter(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	_, err := svc.Filter(context.Background(), Input{Markdown: "---\nfont: [unclosed\n---\nbody"})
	if !errors.Is(err, ErrFrontMatterParse) {
		t.Fatalf("error = %v, want ErrFrontMatterParse", err)
	}
}

func TestFilterHTMLRendering(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, WithFormat(FormatHTML), WithHTMLRendering())
	doc := "# Title\n\nA ==marked== word."

	out, err := svc.Filter(context.Background(), Input{Markdown: doc})
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	if !strings.HasPrefix(out.HTML, "<!DOCTYPE html>") {
		t.Errorf("HTML output not standalone:\n%s", out.HTML)
	}
	if !strings.Contains(out.HTML, "<mark>marked</mark>") {
		t.Errorf("highlight missing from HTML:\n%s", out.HTML)
	}
	if !strings.Contains(out.HTML, "Title") {
		t.Errorf("heading missing from HTML:\n%s", out.HTML)
	}
}

func TestFilterNoHTMLForOtherFormats(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, WithFormat(FormatLaTeX), WithHTMLRendering())
	out, err := svc.Filter(context.Background(), Input{Markdown: "plain"})
	if err != nil {
		t.Fatal(err)
	}
	if out.HTML != "" {
		t.Error("HTML rendered for a non-html format")
	}
}

func TestFilterCancelledContext(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.Filter(ctx, Input{Markdown: "plain"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}
