package docfilter

import "errors"

// Sentinel errors for library operations.
var (
	ErrEmptyMarkdown    = errors.New("markdown content cannot be empty")
	ErrInvalidFormat    = errors.New("invalid output format")
	ErrInvalidMode      = errors.New("invalid annotation mode")
	ErrHTMLRender       = errors.New("HTML rendering failed")
	ErrFrontMatterParse = errors.New("front matter parsing failed")

	// Asset resolution errors. Each Resolve failure wraps exactly one
	// of these so callers can classify with errors.Is.
	ErrSourceNotFound = errors.New("source file not found")
	ErrDownloadFailed = errors.New("download failed")
	ErrTypesetFailed  = errors.New("typesetting failed")
	ErrConvertFailed  = errors.New("format conversion failed")
	ErrCopyFailed     = errors.New("copy failed")

	// Asset directory errors.
	ErrAssetDir = errors.New("asset directory unavailable")
)
