// Package match implements the text normalization and candidate matching
// rules used to decide whether a search result actually depicts the queried
// event. Everything in this package is pure and synchronous.
package match

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// punctReplacer maps the fixed punctuation set to spaces
var punctReplacer = strings.NewReplacer(
	"-", " ", "_", " ", ".", " ", ",", " ", ":", " ", ";", " ",
	"!", " ", "?", " ", "(", " ", ")", " ", "[", " ", "]", " ",
	"{", " ", "}", " ", "'", " ", "\"", " ", "/", " ", "\\", " ",
	"|", " ", "&", " ", "+", " ", "’", " ", "“", " ", "”", " ",
)

var numberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

// Normalize folds text for comparison: lowercase, diacritics stripped,
// punctuation replaced by spaces, whitespace collapsed, trimmed.
// Pure, total, deterministic.
func Normalize(text string) string {
	lowered := strings.ToLower(text)
	stripped := stripDiacritics(lowered)
	spaced := punctReplacer.Replace(stripped)
	return strings.Join(strings.Fields(spaced), " ")
}

// stripDiacritics decomposes to NFD and drops combining marks
func stripDiacritics(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ExtractNumbers pulls integer and decimal tokens from text ("1.0", "64").
// Model numbers are load-bearing: "Commodore 64" must never match
// "Commodore 128", so callers enforce these tokens as a hard gate.
//
// Note ExtractNumbers runs on raw text, before Normalize turns "." into a
// space, so decimal tokens survive intact.
func ExtractNumbers(text string) []string {
	return numberPattern.FindAllString(text, -1)
}

// isBareYear reports whether a token is a standalone 4-digit year
func isBareYear(token string) bool {
	if len(token) != 4 {
		return false
	}
	for _, r := range token {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
