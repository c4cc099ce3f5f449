package docfilter

import (
	"fmt"
	"strings"
)

// formatTable holds the per-format markup fragments the transform
// splices into the document. One instance exists per OutputFormat,
// selected once at Service construction.
type formatTable struct {
	boxOpen, boxClose         string
	commentOpen, commentClose string
	speakerOpen, speakerClose string

	highlightOpen, highlightClose string

	refFmt   string // cross-reference, %s = label
	errorFmt string // inline error marker, %s = cause

	// boxPackage names a package requirement injected into the
	// document header when at least one box block was rendered.
	boxPackage string

	// speakerVisible reports whether speaker notes render natively in
	// this format (beamer). Elsewhere they follow comment visibility.
	speakerVisible bool
}

// formatTableFor returns the markup table for a format. The switch is
// exhaustive over OutputFormat; an unknown value falls back to the
// docx (plain) table.
func formatTableFor(f OutputFormat) formatTable {
	switch f {
	case FormatLaTeX:
		return formatTable{
			boxOpen:        "\\begin{tcolorbox}",
			boxClose:       "\\end{tcolorbox}",
			commentOpen:    "{\\color{red}",
			commentClose:   "}",
			highlightOpen:  "\\hl{",
			highlightClose: "}",
			refFmt:         "\\ref{%s}",
			errorFmt:       "<<error: %s>>",
			boxPackage:     "tcolorbox",
		}
	case FormatBeamer:
		return formatTable{
			boxOpen:        "\\begin{tcolorbox}",
			boxClose:       "\\end{tcolorbox}",
			commentOpen:    "{\\color{red}",
			commentClose:   "}",
			speakerOpen:    "\\note{",
			speakerClose:   "}",
			highlightOpen:  "\\hl{",
			highlightClose: "}",
			refFmt:         "\\ref{%s}",
			errorFmt:       "<<error: %s>>",
			boxPackage:     "tcolorbox",
			speakerVisible: true,
		}
	case FormatHTML:
		return formatTable{
			boxOpen:        `<div class="box">`,
			boxClose:       `</div>`,
			commentOpen:    `<div class="comment">`,
			commentClose:   `</div>`,
			highlightOpen:  "<mark>",
			highlightClose: "</mark>",
			refFmt:         `<a href="#%s">%s</a>`,
			errorFmt:       "<<error: %s>>",
		}
	case FormatDocx:
		fallthrough
	default:
		return formatTable{
			refFmt:   "%s",
			errorFmt: "<<error: %s>>",
		}
	}
}

// errorMarker renders the visible inline marker substituted for a
// failed resolution or an unresolvable reference.
func (t formatTable) errorMarker(cause string) string {
	return fmt.Sprintf(t.errorFmt, cause)
}

// reference renders a cross-reference to a registered label.
func (t formatTable) reference(label string) string {
	if strings.Count(t.refFmt, "%s") == 2 {
		return fmt.Sprintf(t.refFmt, label, label)
	}
	return fmt.Sprintf(t.refFmt, label)
}

// imageLine renders a resolved artifact as a markdown image reference,
// carrying caption, title, and label through unchanged.
func imageLine(res ResolutionResult) string {
	var b strings.Builder
	b.WriteString("![")
	b.WriteString(res.Caption)
	b.WriteString("](")
	b.WriteString(res.Path)
	if res.Title != "" {
		b.WriteString(` "`)
		b.WriteString(res.Title)
		b.WriteString(`"`)
	}
	b.WriteString(")")
	if res.Label != "" {
		b.WriteString("{#")
		b.WriteString(res.Label)
		b.WriteString("}")
	}
	return b.String()
}
