package docfilter

import "strings"

// WordCount counts the words of prose that survive filtering for the
// given format and annotation mode. Fenced code blocks, annotation
// container delimiters, the content of containers the mode drops, and
// image references are excluded; highlight markers are stripped before
// counting.
func WordCount(body string, format OutputFormat, mode AnnotationMode) int {
	table := formatTableFor(format)
	count := 0
	inCode := false
	skipContainer := false

	for _, line := range strings.Split(body, "\n") {
		if fencePattern.MatchString(line) {
			inCode = !inCode
			continue
		}
		if inCode {
			continue
		}
		if m := containerOpenPattern.FindStringSubmatch(line); m != nil {
			if kind, ok := parseBlockKind(m[1]); ok {
				skipContainer = !blockCounts(kind, mode, table.speakerVisible)
			}
			continue
		}
		if containerClosePattern.MatchString(line) {
			skipContainer = false
			continue
		}
		if skipContainer {
			continue
		}

		line = imagePattern.ReplaceAllString(line, "")
		line = highlightPattern.ReplaceAllString(line, "$1")
		count += len(strings.Fields(line))
	}

	return count
}

// blockCounts reports whether a container's content renders, mirroring
// the visibility rules the transform applies.
func blockCounts(kind BlockKind, mode AnnotationMode, speakerVisible bool) bool {
	switch kind {
	case BlockHidden:
		return false
	case BlockBox:
		return mode != ModeHide
	case BlockComment:
		return mode == ModeDraft
	case BlockSpeaker:
		return speakerVisible || mode == ModeDraft
	}
	return true
}
