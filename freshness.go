package docfilter

import "os"

// isStale reports whether artifactPath must be regenerated from
// sourcePath. A missing artifact is always stale. An unreadable source
// is treated as stale so the regeneration attempt surfaces the real
// error instead of silently serving a possibly wrong artifact.
// Otherwise the artifact is stale iff the source was modified strictly
// after it.
func isStale(sourcePath, artifactPath string) bool {
	artInfo, err := os.Stat(artifactPath)
	if err != nil {
		return true
	}
	srcInfo, err := os.Stat(sourcePath)
	if err != nil {
		return true
	}
	return srcInfo.ModTime().After(artInfo.ModTime())
}
