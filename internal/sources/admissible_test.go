package sources

import "testing"

func TestAdmissibleImageURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want bool
	}{
		{"jpg", "https://upload.wikimedia.org/wikipedia/commons/a/ab/Sneeuwpret.jpg", true},
		{"jpeg", "https://example.org/photo.JPEG", true},
		{"png", "https://example.org/diagram.png", true},
		{"webp", "https://example.org/modern.webp", true},
		{"gif", "https://example.org/animation.gif", true},
		{"video thumbnail", "https://upload.wikimedia.org/wikipedia/commons/transcoded/b/bd/Clip.ogv/Clip.ogv.jpg", false},
		{"ogv", "https://example.org/broadcast.ogv", false},
		{"pdf", "https://example.org/scan.pdf", false},
		{"svg", "https://example.org/logo.svg", false},
		{"tiff", "https://example.org/archive.tiff", false},
		{"no extension", "https://example.org/page", false},
		{"empty", "", false},
		{"unparsable", "://bad", false},
		{"query string ignored", "https://example.org/photo.jpg?width=800", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AdmissibleImageURL(tt.url); got != tt.want {
				t.Errorf("AdmissibleImageURL(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestBuildSearchText(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		year        int
		useQuotes   bool
		includeYear bool
		want        string
	}{
		{"plain", "Apple Macintosh", 1984, false, false, "Apple Macintosh"},
		{"with year", "Apple Macintosh", 1984, false, true, "Apple Macintosh 1984"},
		{"quoted", "Apple Macintosh", 1984, true, false, `"Apple Macintosh"`},
		{"quoted with year", "Apple Macintosh", 1984, true, true, `"Apple Macintosh" 1984`},
		{"no year available", "Sneeuwpret", 0, false, true, "Sneeuwpret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildSearchText(tt.query, tt.year, tt.useQuotes, tt.includeYear)
			if got != tt.want {
				t.Errorf("buildSearchText = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecadeQualifier(t *testing.T) {
	if got := decadeQualifier(1984); got != "1980s" {
		t.Errorf("decadeQualifier(1984) = %q, want %q", got, "1980s")
	}
	if got := decadeQualifier(0); got != "" {
		t.Errorf("decadeQualifier(0) = %q, want empty", got)
	}
}
