package docfilter

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"

	"golang.org/x/sync/singleflight"

	"github.com/halvar/go-docfilter/internal/fileutil"
)

// assetResolver turns a SourceDescriptor into a materialized,
// format-correct artifact inside the managed asset directory, reusing
// cached artifacts where possible.
//
// Embedded diagram sources are content-addressed: the artifact path is
// a hash of the source and font, so an existing file at that path is
// correct without any freshness check. File-backed sources keep their
// base name and are compared by modification time on every resolution.
// Remote sources are fetched once; an existing mirror is trusted
// without re-contacting the origin.
type assetResolver struct {
	assetDir string
	format   OutputFormat
	tools    *toolInvoker
	logger   *slog.Logger
	disabled bool

	// group serializes resolutions that target the same artifact path,
	// so a concurrent document walk cannot interleave partial writes.
	group singleflight.Group
}

func newAssetResolver(assetDir string, format OutputFormat, tools *toolInvoker, logger *slog.Logger, disabled bool) *assetResolver {
	return &assetResolver{
		assetDir: assetDir,
		format:   format,
		tools:    tools,
		logger:   logger,
		disabled: disabled,
	}
}

// Resolve materializes one descriptor. Failures are reported in the
// result's Err field, never as a panic or a process-fatal error: the
// caller substitutes an inline marker and continues with the rest of
// the document.
func (r *assetResolver) Resolve(ctx context.Context, d SourceDescriptor) ResolutionResult {
	res := ResolutionResult{Caption: d.Caption, Title: d.Title, Label: d.Label}

	if r.disabled {
		// Processing opt-out: hand back the reference untouched, with
		// no extension substitution.
		res.Path = d.Payload
		return res
	}

	if err := os.MkdirAll(r.assetDir, 0o755); err != nil {
		res.Err = fmt.Errorf("%w: %s: %v", ErrAssetDir, r.assetDir, err)
		return res
	}

	var (
		path string
		err  error
	)
	switch d.Kind {
	case KindEmbeddedTikz, KindEmbeddedDot:
		path, err = r.resolveEmbedded(ctx, d)
	case KindRemoteURL:
		path, err = r.resolveRemote(ctx, d)
	case KindLocalFile:
		path, err = r.resolveLocal(ctx, d)
	case KindLocalTex:
		path, err = r.resolveTex(ctx, d)
	default:
		err = fmt.Errorf("unknown source kind %v", d.Kind)
	}

	if err != nil {
		r.logger.Warn("resolution failed",
			slog.String("kind", d.Kind.String()),
			slog.String("error", err.Error()))
		res.Err = err
		return res
	}
	res.Path = path
	return res
}

// locked runs work under the per-artifact-path lock and returns the
// resolved path. Concurrent calls for the same artifact share one
// execution and its outcome.
func (r *assetResolver) locked(artifactPath string, work func() (string, error)) (string, error) {
	v, err, _ := r.group.Do(artifactPath, func() (interface{}, error) {
		return work()
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// resolveEmbedded materializes a fenced TikZ or DOT block. The cache
// key hashes source and font, so a hit needs no staleness check.
func (r *assetResolver) resolveEmbedded(ctx context.Context, d SourceDescriptor) (string, error) {
	key := addressOf(d.Payload, d.Font)
	ext := r.format.artifactExt()
	artifact := filepath.Join(r.assetDir, key+"."+ext)

	return r.locked(artifact, func() (string, error) {
		if fileutil.FileExists(artifact) {
			r.logger.Debug("cache hit", slog.String("kind", d.Kind.String()), slog.String("artifact", artifact))
			return artifact, nil
		}
		r.logger.Debug("cache miss", slog.String("kind", d.Kind.String()), slog.String("artifact", artifact))

		if d.Kind == KindEmbeddedDot {
			return artifact, r.buildDot(ctx, d.Payload, artifact, ext)
		}
		return artifact, r.buildTikz(ctx, d, artifact, ext)
	})
}

// buildDot writes the DOT source to a scratch file and compiles it
// directly to the target format; Graphviz supports both pdf and png
// natively.
func (r *assetResolver) buildDot(ctx context.Context, payload, artifact, ext string) error {
	scratch, cleanup, err := fileutil.WriteTempFile(payload, "dot")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTypesetFailed, err)
	}
	defer cleanup()

	return r.tools.typesetDot(ctx, scratch, artifact, ext)
}

// buildTikz wraps the TikZ source in a standalone document, typesets
// it to PDF, and converts when the target format is not PDF. Scratch
// inputs and typesetter byproducts are removed regardless of outcome.
func (r *assetResolver) buildTikz(ctx context.Context, d SourceDescriptor, artifact, ext string) error {
	scratch, cleanup, err := fileutil.WriteTempFile(tikzDocument(d), "tex")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTypesetFailed, err)
	}
	defer cleanup()
	defer r.removeTexByproducts(scratch)

	pdf, err := r.tools.typesetTex(ctx, scratch, r.assetDir)
	if err != nil {
		return err
	}

	if ext == "pdf" {
		if err := os.Rename(pdf, artifact); err != nil {
			_ = os.Remove(pdf)
			return fmt.Errorf("%w: renaming into place: %v", ErrTypesetFailed, err)
		}
		return nil
	}

	defer func() { _ = os.Remove(pdf) }()
	return r.tools.convertFormat(ctx, pdf, artifact)
}

// removeTexByproducts deletes the .aux and .log files the LaTeX engine
// writes next to its PDF output.
func (r *assetResolver) removeTexByproducts(scratchTex string) {
	base, _ := fileutil.SplitExt(scratchTex)
	for _, ext := range []string{".aux", ".log"} {
		_ = os.Remove(filepath.Join(r.assetDir, base+ext))
	}
}

// resolveRemote mirrors a remote image. An existing mirror is reused
// without contacting the origin: remote staleness is never
// autodetected, only absence triggers a fetch.
func (r *assetResolver) resolveRemote(ctx context.Context, d SourceDescriptor) (string, error) {
	targetExt := r.format.artifactExt()
	base, ext := fileutil.SplitExt(remotePath(d.Payload))
	if ext == "" {
		// No recognizable extension: assume the target format and skip
		// conversion.
		ext = targetExt
	}

	mirror := filepath.Join(r.assetDir, base+"."+ext)
	final := mirror
	if ext != targetExt {
		final = filepath.Join(r.assetDir, base+"."+targetExt)
	}

	return r.locked(final, func() (string, error) {
		if !fileutil.FileExists(mirror) {
			r.logger.Debug("cache miss", slog.String("kind", "url"), slog.String("mirror", mirror))
			if err := r.tools.download(ctx, d.Payload, mirror); err != nil {
				return "", err
			}
		} else {
			r.logger.Debug("cache hit", slog.String("kind", "url"), slog.String("mirror", mirror))
		}

		if final != mirror && !fileutil.FileExists(final) {
			if err := r.tools.convertFormat(ctx, mirror, final); err != nil {
				return "", err
			}
		}
		return final, nil
	})
}

// resolveLocal mirrors a local image into the asset directory,
// refreshing the mirror when the original is newer, and converts when
// the extension differs from the target format.
func (r *assetResolver) resolveLocal(ctx context.Context, d SourceDescriptor) (string, error) {
	source := fileutil.DecodePath(d.Payload)
	if !fileutil.FileExists(source) {
		return "", fmt.Errorf("%w: %s", ErrSourceNotFound, source)
	}

	targetExt := r.format.artifactExt()
	base, ext := fileutil.SplitExt(source)
	if ext == "" {
		ext = targetExt
	}

	mirror := filepath.Join(r.assetDir, base+"."+ext)
	final := mirror
	if ext != targetExt {
		final = filepath.Join(r.assetDir, base+"."+targetExt)
	}

	return r.locked(final, func() (string, error) {
		if isStale(source, mirror) {
			r.logger.Debug("refreshing mirror", slog.String("source", source), slog.String("mirror", mirror))
			if err := r.tools.copyFile(source, mirror); err != nil {
				return "", err
			}
		}

		if final != mirror && isStale(mirror, final) {
			if err := r.tools.convertFormat(ctx, mirror, final); err != nil {
				return "", err
			}
		}
		return final, nil
	})
}

// resolveTex typesets a standalone .tex figure in place: the source's
// own directory is the typesetting output location, and conversion
// products live beside the PDF.
func (r *assetResolver) resolveTex(ctx context.Context, d SourceDescriptor) (string, error) {
	source := fileutil.DecodePath(d.Payload)
	if !fileutil.FileExists(source) {
		return "", fmt.Errorf("%w: %s", ErrSourceNotFound, source)
	}

	dir := filepath.Dir(source)
	base, _ := fileutil.SplitExt(source)
	pdf := filepath.Join(dir, base+".pdf")

	targetExt := r.format.artifactExt()
	final := pdf
	if targetExt != "pdf" {
		final = filepath.Join(dir, base+"."+targetExt)
	}

	return r.locked(final, func() (string, error) {
		if isStale(source, pdf) {
			r.logger.Debug("typesetting figure", slog.String("source", source))
			if _, err := r.tools.typesetTex(ctx, source, dir); err != nil {
				return "", err
			}
		}

		if final != pdf && isStale(pdf, final) {
			if err := r.tools.convertFormat(ctx, pdf, final); err != nil {
				return "", err
			}
		}
		return final, nil
	})
}

// remotePath reduces a URL to its path component so the mirror name
// carries no query or fragment.
func remotePath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" {
		return rawURL
	}
	return u.Path
}

// tikzDocument wraps a TikZ picture in the minimal standalone preamble
// the typesetter needs, including the configured libraries and font.
func tikzDocument(d SourceDescriptor) string {
	var b []byte
	b = append(b, "\\documentclass[tikz]{standalone}\n"...)
	for _, lib := range d.Libraries {
		b = append(b, ("\\usetikzlibrary{" + lib + "}\n")...)
	}
	if d.Font != "" {
		b = append(b, ("\\usepackage{fontspec}\n\\setmainfont{" + d.Font + "}\n")...)
	}
	b = append(b, "\\begin{document}\n"...)
	b = append(b, d.Payload...)
	if len(d.Payload) > 0 && d.Payload[len(d.Payload)-1] != '\n' {
		b = append(b, '\n')
	}
	b = append(b, "\\end{document}\n"...)
	return string(b)
}
