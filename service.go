package docfilter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// defaultAssetSubdir is the managed asset directory under the user's
// home directory, used when no explicit directory is configured.
const defaultAssetSubdir = ".docfilter/assets"

// Input contains filtering parameters.
type Input struct {
	Markdown  string // Markdown content (required)
	SourceDir string // base directory for relative image references (optional)
}

// Output is the result of one filtering pass.
type Output struct {
	Markdown string // filtered document, front matter included
	HTML     string // standalone HTML, only for FormatHTML with rendering on
	Words    int    // body word count
}

// serviceConfig holds internal configuration for Service.
type serviceConfig struct {
	format     OutputFormat
	mode       AnnotationMode
	modeSet    bool
	assetDir   string
	font       string
	fontSet    bool
	libraries  []string
	disabled   bool
	renderHTML bool
}

// Option configures a Service.
type Option func(*Service)

// WithFormat sets the target output format. Default is FormatLaTeX.
func WithFormat(f OutputFormat) Option {
	return func(s *Service) { s.cfg.format = f }
}

// WithAnnotationMode sets the annotation visibility mode, overriding
// any mode declared in front matter.
func WithAnnotationMode(m AnnotationMode) Option {
	return func(s *Service) {
		s.cfg.mode = m
		s.cfg.modeSet = true
	}
}

// WithAssetDir sets the managed asset directory. Default is
// ~/.docfilter/assets.
func WithAssetDir(dir string) Option {
	return func(s *Service) { s.cfg.assetDir = dir }
}

// WithFont sets the diagram font, overriding front matter.
func WithFont(font string) Option {
	return func(s *Service) {
		s.cfg.font = font
		s.cfg.fontSet = true
	}
}

// WithLibraries sets the TikZ library inclusion list, merged with any
// libraries declared in front matter.
func WithLibraries(libs []string) Option {
	return func(s *Service) { s.cfg.libraries = libs }
}

// WithDisabledProcessing turns off image processing entirely: every
// reference passes through unchanged.
func WithDisabledProcessing() Option {
	return func(s *Service) { s.cfg.disabled = true }
}

// WithHTMLRendering enables standalone HTML output for FormatHTML.
func WithHTMLRendering() Option {
	return func(s *Service) { s.cfg.renderHTML = true }
}

// WithLogger sets the diagnostic logger. Default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithToolRunner substitutes the external command runner (tests).
func WithToolRunner(r CommandRunner) Option {
	return func(s *Service) { s.runner = r }
}

// WithDownloader substitutes the remote fetcher (tests).
func WithDownloader(d Downloader) Option {
	return func(s *Service) { s.dl = d }
}

// Service orchestrates the document filtering pipeline.
type Service struct {
	cfg    serviceConfig
	logger *slog.Logger
	runner CommandRunner
	dl     Downloader
	html   *htmlRenderer
}

// New creates a Service with default configuration. Use options to
// customize behavior (e.g., WithFormat, WithAssetDir).
func New(opts ...Option) *Service {
	s := &Service{
		cfg: serviceConfig{format: FormatLaTeX, mode: ModeDraft},
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if s.runner == nil {
		s.runner = &ExecRunner{}
	}
	if s.dl == nil {
		s.dl = newHTTPDownloader()
	}
	if s.cfg.assetDir == "" {
		s.cfg.assetDir = defaultAssetDir()
	}
	s.html = newHTMLRenderer()

	return s
}

// Filter runs one document-conversion pass. Asset failures never fail
// the pass; they surface as inline error markers in the output. Only
// invalid input, unparseable front matter, or a failed HTML render
// return an error.
func (s *Service) Filter(ctx context.Context, input Input) (*Output, error) {
	if input.Markdown == "" {
		return nil, ErrEmptyMarkdown
	}

	raw, body := splitFrontMatter(input.Markdown)
	meta, err := parseMetadata(raw)
	if err != nil {
		return nil, err
	}
	meta = s.mergeMetadata(meta)

	mode := s.cfg.mode
	if !s.cfg.modeSet && meta.Annotations != "" {
		mode, err = ParseAnnotationMode(meta.Annotations)
		if err != nil {
			return nil, err
		}
	}

	disabled := s.cfg.disabled || meta.NoImages
	tools := newToolInvoker(s.runner, s.dl, s.logger)
	resolver := newAssetResolver(s.cfg.assetDir, s.cfg.format, tools, s.logger, disabled)

	tr := newTransform(s.cfg.format, mode, meta, resolver, s.logger)
	tr.sourceDir = input.SourceDir
	filtered := tr.apply(ctx, body)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if tr.boxUsed {
		if pkg := tr.table.boxPackage; pkg != "" {
			raw = injectHeaderInclude(raw, pkg)
		}
	}

	out := &Output{
		Markdown: assembleDocument(raw, filtered),
		Words:    WordCount(body, s.cfg.format, mode),
	}

	if s.cfg.format == FormatHTML && s.cfg.renderHTML {
		rendered, err := s.html.Render(ctx, filtered)
		if err != nil {
			return nil, fmt.Errorf("rendering HTML: %w", err)
		}
		out.HTML = rendered
	}

	s.logger.Info("filtered document",
		slog.String("format", s.cfg.format.String()),
		slog.String("mode", mode.String()),
		slog.Int("words", out.Words))

	return out, nil
}

// mergeMetadata applies service-level overrides to document metadata.
func (s *Service) mergeMetadata(meta Metadata) Metadata {
	if s.cfg.fontSet || meta.Font == "" {
		meta.Font = s.cfg.font
	}
	if len(s.cfg.libraries) > 0 {
		meta.Libraries = append(meta.Libraries, s.cfg.libraries...)
	}
	return meta
}

// defaultAssetDir derives the managed asset directory from the user
// home directory, falling back to the working directory when the home
// cannot be determined.
func defaultAssetDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return defaultAssetSubdir
	}
	return filepath.Join(home, defaultAssetSubdir)
}
