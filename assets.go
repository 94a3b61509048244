package webproxy

import "strings"

// staticExtensions lists pathname extensions that never serve HTML.
var staticExtensions = []string{
	"css", "js", "mjs", "json", "xml", "pdf", "zip",
	"png", "jpg", "jpeg", "gif", "svg", "webp", "avif", "ico", "bmp",
	"mp4", "webm", "mov", "avi",
	"mp3", "wav", "ogg", "flac",
	"woff", "woff2", "ttf", "otf", "eot",
}

// IsStaticAsset reports whether a pathname looks like a binary/asset request
// that can bypass the translation pipeline entirely. The test is a
// case-insensitive extension suffix check, tolerant of a query string. It is
// a pre-filter only: classification by extension is not authoritative, so
// the orchestrator still branches on the origin's real Content-Type for
// anything not caught here.
func IsStaticAsset(pathname string) bool {
	p := strings.ToLower(pathname)
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	for _, ext := range staticExtensions {
		if strings.HasSuffix(p, "."+ext) {
			return true
		}
	}
	return false
}
