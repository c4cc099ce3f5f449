package docfilter

import (
	"fmt"
	"strings"
)

// OutputFormat selects the target markup for annotation rewriting and
// the artifact format for resolved images.
type OutputFormat int

// Supported output formats.
const (
	FormatLaTeX OutputFormat = iota // print-ready typesetting (pandoc latex)
	FormatHTML                      // web hypertext
	FormatBeamer                    // slide presentation
	FormatDocx                      // word processor
)

// String returns the format name as used in config files and CLI flags.
func (f OutputFormat) String() string {
	switch f {
	case FormatLaTeX:
		return "latex"
	case FormatHTML:
		return "html"
	case FormatBeamer:
		return "beamer"
	case FormatDocx:
		return "docx"
	default:
		return fmt.Sprintf("OutputFormat(%d)", int(f))
	}
}

// ParseFormat converts a format name to an OutputFormat (case-insensitive).
func ParseFormat(s string) (OutputFormat, error) {
	switch strings.ToLower(s) {
	case "latex", "pdf":
		return FormatLaTeX, nil
	case "html":
		return FormatHTML, nil
	case "beamer", "slides":
		return FormatBeamer, nil
	case "docx", "word":
		return FormatDocx, nil
	default:
		return 0, fmt.Errorf("%w: %q (must be latex, html, beamer, or docx)", ErrInvalidFormat, s)
	}
}

// artifactExt returns the artifact file extension for resolved images:
// PDF for the LaTeX family, PNG for everything else.
func (f OutputFormat) artifactExt() string {
	switch f {
	case FormatLaTeX, FormatBeamer:
		return "pdf"
	default:
		return "png"
	}
}

// SourceKind identifies how an image or diagram reference is backed.
type SourceKind int

// Source kinds, in order of discovery preference.
const (
	KindEmbeddedTikz SourceKind = iota // fenced ```tikz code block
	KindEmbeddedDot                    // fenced ```dot / ```graphviz code block
	KindLocalFile                      // local raster/vector image path
	KindRemoteURL                      // http(s) URL
	KindLocalTex                       // local standalone .tex figure
)

// String returns a short name for logging.
func (k SourceKind) String() string {
	switch k {
	case KindEmbeddedTikz:
		return "tikz"
	case KindEmbeddedDot:
		return "dot"
	case KindLocalFile:
		return "file"
	case KindRemoteURL:
		return "url"
	case KindLocalTex:
		return "tex"
	default:
		return fmt.Sprintf("SourceKind(%d)", int(k))
	}
}

// SourceDescriptor identifies one diagram or image to materialize.
// Kind and Payload are fixed at construction; two descriptors with the
// same kind, payload, and render parameters resolve to the same
// artifact.
type SourceDescriptor struct {
	Kind    SourceKind
	Payload string // diagram source text (embedded kinds) or path/URL

	// Render parameters. Font and Libraries only affect embedded kinds.
	Caption   string
	Title     string
	Label     string   // cross-reference label, e.g. "fig:pipeline"
	Font      string   // main font for TikZ typesetting
	Libraries []string // \usetikzlibrary entries
}

// ResolutionResult is the outcome of resolving one SourceDescriptor:
// either a materialized artifact path plus pass-through metadata, or an
// error to be rendered as an inline marker.
type ResolutionResult struct {
	Path    string
	Caption string
	Title   string
	Label   string
	Err     error
}

// AnnotationMode controls the visibility of annotation blocks.
type AnnotationMode int

// Annotation visibility modes.
const (
	ModeDraft AnnotationMode = iota // comments rendered visibly
	ModePrint                       // boxes kept, comments dropped
	ModeHide                        // all annotation content dropped
)

// String returns the mode name as used in config files and front matter.
func (m AnnotationMode) String() string {
	switch m {
	case ModeDraft:
		return "draft"
	case ModePrint:
		return "print"
	case ModeHide:
		return "hide"
	default:
		return fmt.Sprintf("AnnotationMode(%d)", int(m))
	}
}

// ParseAnnotationMode converts a mode name to an AnnotationMode
// (case-insensitive).
func ParseAnnotationMode(s string) (AnnotationMode, error) {
	switch strings.ToLower(s) {
	case "draft":
		return ModeDraft, nil
	case "print":
		return ModePrint, nil
	case "hide":
		return ModeHide, nil
	default:
		return 0, fmt.Errorf("%w: %q (must be draft, print, or hide)", ErrInvalidMode, s)
	}
}

// BlockKind is the closed set of annotation container kinds. Dispatch
// on BlockKind is exhaustive; unrecognized container names never reach
// it.
type BlockKind int

// Annotation container kinds.
const (
	BlockBox     BlockKind = iota // emphasized call-out box
	BlockComment                  // author note, visible in draft only
	BlockSpeaker                  // presenter note, beamer only
	BlockHidden                   // never rendered
)

// parseBlockKind maps a container name to its BlockKind. The bool is
// false for names outside the closed set, which are left untouched in
// the document.
func parseBlockKind(name string) (BlockKind, bool) {
	switch strings.ToLower(name) {
	case "box":
		return BlockBox, true
	case "comment":
		return BlockComment, true
	case "speaker":
		return BlockSpeaker, true
	case "hidden":
		return BlockHidden, true
	default:
		return 0, false
	}
}
