package match

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// maxSubjectWords caps the main-subject word set. Long generated queries
// trail off into descriptive filler; only the leading tokens identify the
// subject.
const maxSubjectWords = 4

// Matches decides whether a candidate search result is an acceptable match
// for the query. The snippet may contain HTML and may be empty.
//
// The numeric gate runs first in both modes: every numeric token of the
// query ("1.0", "64") must appear verbatim in the candidate's title+snippet,
// otherwise the candidate is rejected before any keyword logic. This is what
// keeps "Windows 1.0" from matching "Windows 10" and "Commodore 64" from
// matching "Commodore 128".
//
// Strict mode additionally applies the title-authority rule: a query of one
// or two subject words must have every word in the title itself. Short
// queries are usually proper nouns that should be the page's own subject;
// free-text encyclopedia search returns plenty of tangential articles whose
// snippet mentions the term only in passing. Medium queries (3+ subject
// words) need 75% coverage (rounded up) in title or snippet, whichever
// covers more.
//
// Lenient mode accepts a single subject word anywhere.
func Matches(candidateTitle, candidateSnippet, query string, strict bool) bool {
	snippetText := StripHTML(candidateSnippet)

	// Numeric gate on raw lowercased text so decimal tokens survive
	rawHaystack := strings.ToLower(candidateTitle + " " + snippetText)
	for _, num := range ExtractNumbers(query) {
		if !strings.Contains(rawHaystack, num) {
			return false
		}
	}

	subjectWords := mainSubjectWords(query)
	if len(subjectWords) == 0 {
		// Nothing left to check
		return true
	}

	normTitle := Normalize(candidateTitle)
	normSnippet := Normalize(snippetText)

	titleHits := countHits(normTitle, subjectWords)
	snippetHits := countHits(normSnippet, subjectWords)

	if !strict {
		return titleHits > 0 || snippetHits > 0
	}

	if len(subjectWords) <= 2 {
		// Title authority: snippets are untrusted for short queries
		return titleHits == len(subjectWords)
	}

	need := (len(subjectWords)*3 + 3) / 4 // ceil(75%)
	best := titleHits
	if snippetHits > best {
		best = snippetHits
	}
	return best >= need
}

// mainSubjectWords builds the word set checked against candidates:
// normalized query tokens minus stop-words and bare 4-digit years,
// truncated to the first maxSubjectWords tokens.
func mainSubjectWords(query string) []string {
	tokens := strings.Fields(Normalize(query))
	tokens = StripStopwords(tokens)

	kept := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if isBareYear(tok) {
			continue
		}
		kept = append(kept, tok)
		if len(kept) == maxSubjectWords {
			break
		}
	}
	return kept
}

// countHits counts subject words present in the normalized haystack.
// Words of 3 characters or fewer match on word boundaries only; longer
// words match as substrings (so "macintosh" hits "macintoshes").
func countHits(haystack string, words []string) int {
	fields := strings.Fields(haystack)
	hits := 0
	for _, word := range words {
		if len(word) <= 3 {
			for _, f := range fields {
				if f == word {
					hits++
					break
				}
			}
			continue
		}
		if strings.Contains(haystack, word) {
			hits++
		}
	}
	return hits
}

// StripHTML extracts the text content of an HTML fragment. Search backends
// return snippets with highlight markup; plain text passes through
// unchanged.
func StripHTML(fragment string) string {
	if fragment == "" || !strings.ContainsRune(fragment, '<') {
		return fragment
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	return doc.Text()
}
