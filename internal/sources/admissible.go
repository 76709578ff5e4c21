package sources

import (
	"net/url"
	"strings"
)

// rasterExtensions are the only file types accepted as a final image
var rasterExtensions = []string{".jpg", ".jpeg", ".png", ".webp", ".gif"}

// rejectedExtensions are media and document types that backends sometimes
// return as the "image" for a result (video thumbnail pages, PDFs, audio)
var rejectedExtensions = []string{
	".ogv", ".ogg", ".oga", ".webm", ".mp4", ".mp3", ".mid", ".wav",
	".pdf", ".djvu", ".svg", ".tif", ".tiff",
}

// AdmissibleImageURL reports whether a resolved URL points at a usable
// raster image. The path must end in a raster extension and must not be a
// transcoded rendition or a non-raster file dressed up as one.
func AdmissibleImageURL(rawURL string) bool {
	if rawURL == "" {
		return false
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	path := strings.ToLower(u.Path)

	if strings.Contains(path, "/transcoded/") {
		return false
	}
	for _, ext := range rejectedExtensions {
		if strings.Contains(path, ext) {
			return false
		}
	}
	for _, ext := range rasterExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}
