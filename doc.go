// Package docfilter preprocesses Markdown documents for multi-format
// publishing. It resolves embedded diagrams (TikZ, Graphviz), local and
// remote images, and standalone .tex figures into a managed asset
// directory, and rewrites annotation containers, highlights, and
// cross-references into format-specific markup.
//
// # Quick Start
//
// Create a service, filter a document, and inspect the result:
//
//	svc := docfilter.New(docfilter.WithFormat(docfilter.FormatLaTeX))
//
//	out, err := svc.Filter(ctx, docfilter.Input{
//	    Markdown: source,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("filtered.md", []byte(out.Markdown), 0644)
//
// The result contains the filtered Markdown (out.Markdown) and, for the
// HTML format, a rendered standalone document (out.HTML).
//
// # Filter Pipeline
//
// Filtering follows these stages:
//
//  1. Front matter extraction (YAML metadata: font, libraries, mode)
//  2. Asset resolution (diagram typesetting, image mirroring, downloads)
//  3. Annotation rewriting (box/comment/speaker/hidden containers)
//  4. Cross-reference and ==highlight== substitution
//  5. Optional HTML rendering via Goldmark (GFM, syntax highlighting)
//
// # Asset Cache
//
// Generated diagrams are content-addressed: the artifact path is derived
// from a hash of the diagram source and the active font, so identical
// input never retriggers the external typesetter. File-backed sources
// (local images, .tex figures) are instead compared by modification
// time and regenerated only when stale. Remote images are fetched once
// and reused from the local mirror thereafter.
//
// A failed resolution never aborts the document: the reference is
// replaced with a visible inline error marker and filtering continues.
//
// # External Tools
//
// Diagram typesetting requires external programs on PATH: lualatex for
// TikZ and .tex figures, dot (Graphviz) for DOT sources, and magick
// (ImageMagick) for format conversion. Remote images are fetched with
// the built-in HTTP client. Use WithToolRunner and WithDownloader to
// substitute fakes in tests.
package docfilter
