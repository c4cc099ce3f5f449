package docfilter

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/halvar/go-docfilter/internal/fileutil"
)

// Precompiled patterns for the document walk.
var (
	// Fenced code block delimiter with optional info string.
	fencePattern = regexp.MustCompile("^(```|~~~)\\s*(.*)$")

	// Annotation container delimiters.
	containerOpenPattern  = regexp.MustCompile(`^:::+\s*([A-Za-z][\w-]*)\s*$`)
	containerClosePattern = regexp.MustCompile(`^:::+\s*$`)

	// Inline image with optional title and attribute block.
	imagePattern = regexp.MustCompile(`!\[([^\]]*)\]\(([^)\s]+)(?:\s+"([^"]*)")?\)(?:\{#([\w:-]+)\})?`)

	// Highlight syntax ==text==
	highlightPattern = regexp.MustCompile(`==([^=\n]+)==`)

	// Cross-reference [@label]
	refPattern = regexp.MustCompile(`\[@([A-Za-z][\w:-]*)\]`)

	// Label attribute, on images or fence info strings.
	labelPattern = regexp.MustCompile(`\{?#([\w:-]+)`)

	// Fence info attributes.
	captionAttrPattern = regexp.MustCompile(`caption="([^"]*)"`)
	titleAttrPattern   = regexp.MustCompile(`title="([^"]*)"`)
)

// transform is one document walk: it discovers source descriptors,
// feeds them to the resolver, and splices format-specific markup into
// the body. Walk-scoped state (box usage, known labels) accumulates
// here and is consulted at the end of the walk.
type transform struct {
	table    formatTable
	format   OutputFormat
	mode     AnnotationMode
	meta     Metadata
	resolver *assetResolver
	logger   *slog.Logger

	// sourceDir anchors relative local references.
	sourceDir string

	boxUsed bool
	labels  map[string]struct{}
}

func newTransform(format OutputFormat, mode AnnotationMode, meta Metadata, resolver *assetResolver, logger *slog.Logger) *transform {
	return &transform{
		table:    formatTableFor(format),
		format:   format,
		mode:     mode,
		meta:     meta,
		resolver: resolver,
		logger:   logger,
		labels:   make(map[string]struct{}),
	}
}

// apply runs the walk over the document body. Two passes: the first
// registers cross-reference labels so forward references resolve, the
// second rewrites blocks and inlines.
func (t *transform) apply(ctx context.Context, body string) string {
	t.collectLabels(body)
	return t.rewrite(ctx, body)
}

// collectLabels registers every {#label} attribute found outside code
// blocks, from both image lines and diagram fence info strings.
func (t *transform) collectLabels(body string) {
	inCode := false
	for _, line := range strings.Split(body, "\n") {
		if fencePattern.MatchString(line) {
			if !inCode {
				// Opening fence: the info string may carry a label.
				for _, m := range labelPattern.FindAllStringSubmatch(line, -1) {
					t.labels[m[1]] = struct{}{}
				}
			}
			inCode = !inCode
			continue
		}
		if inCode {
			continue
		}
		for _, m := range imagePattern.FindAllStringSubmatch(line, -1) {
			if m[4] != "" {
				t.labels[m[4]] = struct{}{}
			}
		}
	}
}

func (t *transform) rewrite(ctx context.Context, body string) string {
	lines := strings.Split(body, "\n")
	out := make([]string, 0, len(lines))

	for i := 0; i < len(lines); {
		line := lines[i]

		if m := fencePattern.FindStringSubmatch(line); m != nil {
			marker, info := m[1], strings.TrimSpace(m[2])
			content, next := collectFenced(lines, i+1, marker)

			if kind, attrs, ok := diagramInfo(info); ok {
				out = append(out, t.renderDiagram(ctx, kind, content, attrs))
			} else {
				// Ordinary code block: copy verbatim, fences included.
				out = append(out, lines[i:next]...)
			}
			i = next
			continue
		}

		if m := containerOpenPattern.FindStringSubmatch(line); m != nil {
			if kind, ok := parseBlockKind(m[1]); ok {
				content, next := collectContainer(lines, i+1)
				out = append(out, t.renderBlock(ctx, kind, content)...)
				i = next
				continue
			}
		}

		out = append(out, t.rewriteInline(ctx, line))
		i++
	}

	return strings.Join(out, "\n")
}

// collectFenced gathers lines from start until the closing fence
// marker, returning the content and the index after the close. An
// unterminated fence runs to end of document.
func collectFenced(lines []string, start int, marker string) (content []string, next int) {
	for i := start; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == marker {
			return lines[start:i], i + 1
		}
	}
	return lines[start:], len(lines)
}

// collectContainer gathers lines until the closing ::: delimiter.
// Containers do not nest.
func collectContainer(lines []string, start int) (content []string, next int) {
	for i := start; i < len(lines); i++ {
		if containerClosePattern.MatchString(lines[i]) {
			return lines[start:i], i + 1
		}
	}
	return lines[start:], len(lines)
}

// blockAttrs are the render parameters parsed from a diagram fence
// info string, e.g. ```dot {#fig:pipeline caption="The pipeline"}.
type blockAttrs struct {
	label   string
	caption string
	title   string
}

// diagramInfo classifies a fence info string. Only tikz, dot, and
// graphviz fences are diagrams; everything else is ordinary code.
func diagramInfo(info string) (SourceKind, blockAttrs, bool) {
	lang := info
	if idx := strings.IndexAny(info, " \t{"); idx >= 0 {
		lang = info[:idx]
	}

	var kind SourceKind
	switch strings.ToLower(lang) {
	case "tikz":
		kind = KindEmbeddedTikz
	case "dot", "graphviz":
		kind = KindEmbeddedDot
	default:
		return 0, blockAttrs{}, false
	}

	var attrs blockAttrs
	if m := labelPattern.FindStringSubmatch(info); m != nil {
		attrs.label = m[1]
	}
	if m := captionAttrPattern.FindStringSubmatch(info); m != nil {
		attrs.caption = m[1]
	}
	if m := titleAttrPattern.FindStringSubmatch(info); m != nil {
		attrs.title = m[1]
	}
	return kind, attrs, true
}

// renderDiagram resolves an embedded diagram block into an image
// reference, or an inline error marker on failure.
func (t *transform) renderDiagram(ctx context.Context, kind SourceKind, content []string, attrs blockAttrs) string {
	d := SourceDescriptor{
		Kind:      kind,
		Payload:   strings.Join(content, "\n"),
		Caption:   attrs.caption,
		Title:     attrs.title,
		Label:     attrs.label,
		Font:      t.meta.Font,
		Libraries: t.meta.Libraries,
	}

	res := t.resolver.Resolve(ctx, d)
	if res.Err != nil {
		return t.table.errorMarker(res.Err.Error())
	}
	return imageLine(res)
}

// renderBlock applies the visibility rules for one annotation
// container and returns the lines to emit.
func (t *transform) renderBlock(ctx context.Context, kind BlockKind, content []string) []string {
	var openTag, closeTag string

	switch kind {
	case BlockHidden:
		return nil
	case BlockBox:
		if t.mode == ModeHide {
			return nil
		}
		t.boxUsed = true
		openTag, closeTag = t.table.boxOpen, t.table.boxClose
	case BlockComment:
		if t.mode != ModeDraft {
			return nil
		}
		openTag, closeTag = t.table.commentOpen, t.table.commentClose
	case BlockSpeaker:
		if t.table.speakerVisible {
			openTag, closeTag = t.table.speakerOpen, t.table.speakerClose
		} else if t.mode == ModeDraft {
			openTag, closeTag = t.table.commentOpen, t.table.commentClose
		} else {
			return nil
		}
	}

	out := make([]string, 0, len(content)+2)
	if openTag != "" {
		out = append(out, openTag)
	}
	for _, line := range content {
		out = append(out, t.rewriteInline(ctx, line))
	}
	if closeTag != "" {
		out = append(out, closeTag)
	}
	return out
}

// rewriteInline applies image resolution, highlight, and
// cross-reference substitution to one line of prose.
func (t *transform) rewriteInline(ctx context.Context, line string) string {
	line = imagePattern.ReplaceAllStringFunc(line, func(match string) string {
		m := imagePattern.FindStringSubmatch(match)
		return t.renderImage(ctx, m[1], m[2], m[3], m[4])
	})

	line = highlightPattern.ReplaceAllString(line, t.table.highlightOpen+"$1"+t.table.highlightClose)

	line = refPattern.ReplaceAllStringFunc(line, func(match string) string {
		label := refPattern.FindStringSubmatch(match)[1]
		if _, ok := t.labels[label]; !ok {
			return t.table.errorMarker(fmt.Sprintf("unresolved reference @%s", label))
		}
		return t.table.reference(label)
	})

	return line
}

// renderImage resolves one referenced image and re-emits the image
// syntax with the artifact path substituted.
func (t *transform) renderImage(ctx context.Context, caption, ref, title, label string) string {
	kind := classifyReference(ref)
	if kind != KindRemoteURL && t.sourceDir != "" && !filepath.IsAbs(ref) {
		ref = filepath.Join(t.sourceDir, ref)
	}

	d := SourceDescriptor{
		Kind:    kind,
		Payload: ref,
		Caption: caption,
		Title:   title,
		Label:   label,
	}

	res := t.resolver.Resolve(ctx, d)
	if res.Err != nil {
		return t.table.errorMarker(res.Err.Error())
	}
	return imageLine(res)
}

// classifyReference maps an image reference to its source kind.
func classifyReference(ref string) SourceKind {
	switch {
	case fileutil.IsURL(ref):
		return KindRemoteURL
	case strings.HasSuffix(strings.ToLower(ref), ".tex"):
		return KindLocalTex
	default:
		return KindLocalFile
	}
}
