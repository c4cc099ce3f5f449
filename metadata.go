package docfilter

import (
	"fmt"
	"strings"

	"github.com/halvar/go-docfilter/internal/yamlutil"
)

// Metadata is the document-level configuration read from YAML front
// matter. Fields not listed here (title, author, ...) pass through to
// the output untouched.
type Metadata struct {
	Font        string   `yaml:"font"`
	Libraries   []string `yaml:"tikz-libraries"`
	Annotations string   `yaml:"annotations"` // draft, print, or hide
	NoImages    bool     `yaml:"no-images"`
}

// splitFrontMatter separates a leading YAML front matter block
// (delimited by --- lines) from the document body. Documents without
// front matter return an empty raw block and the input unchanged.
func splitFrontMatter(content string) (raw, body string) {
	if !strings.HasPrefix(content, "---\n") {
		return "", content
	}
	rest := content[len("---\n"):]

	// Scan for the closing fence: the first "---" sitting on its own
	// line. Lines that merely start with --- (separators, scalars)
	// are stepped over.
	for from := 0; ; {
		idx := strings.Index(rest[from:], "\n---")
		if idx < 0 {
			return "", content
		}
		fence := from + idx
		end := fence + len("\n---")
		tail := rest[end:]
		if tail == "" || strings.HasPrefix(tail, "\n") {
			return rest[:fence], strings.TrimPrefix(tail, "\n")
		}
		from = end
	}
}

// parseMetadata decodes the raw front matter block. An empty block
// yields zero-value metadata.
func parseMetadata(raw string) (Metadata, error) {
	var m Metadata
	if strings.TrimSpace(raw) == "" {
		return m, nil
	}
	if err := yamlutil.Unmarshal([]byte(raw), &m); err != nil {
		return m, fmt.Errorf("%w: %v", ErrFrontMatterParse, err)
	}
	return m, nil
}

// injectHeaderInclude re-emits the front matter with a LaTeX package
// requirement appended, used when a box block was rendered. The raw
// block is preserved verbatim; the include is only added when the
// package is not already mentioned.
func injectHeaderInclude(raw, pkg string) string {
	include := `\usepackage{` + pkg + `}`
	if strings.Contains(raw, include) || strings.Contains(raw, "header-includes") {
		// The author already manages includes; do not emit a duplicate
		// key.
		return raw
	}
	line := fmt.Sprintf("header-includes: [%q]", include)
	if strings.TrimSpace(raw) == "" {
		return line
	}
	return strings.TrimRight(raw, "\n") + "\n" + line
}

// assembleDocument reattaches front matter to a filtered body.
func assembleDocument(raw, body string) string {
	if raw == "" {
		return body
	}
	return "---\n" + strings.TrimRight(raw, "\n") + "\n---\n" + body
}
