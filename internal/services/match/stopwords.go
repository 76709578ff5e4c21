package match

// stopwords is the curated bilingual (Dutch + English) stop-word set.
// Three groups: generic media nouns that appear in file titles, event-shape
// words the upstream generator likes to include, and particles of both
// languages. Tokens of length <=1 are always dropped regardless of this set.
var stopwords = map[string]struct{}{
	// generic media nouns
	"file": {}, "image": {}, "photo": {}, "picture": {}, "logo": {},
	"bestand": {}, "afbeelding": {}, "foto": {}, "plaatje": {},

	// event-shape words
	"launch": {}, "release": {}, "winner": {}, "opening": {}, "premiere": {},
	"final": {}, "introduction": {}, "election": {}, "anniversary": {},
	"lancering": {}, "introductie": {}, "winnaar": {}, "finale": {},
	"verkiezing": {}, "verkiezingen": {}, "jubileum": {}, "viering": {},
	"uitreiking": {}, "verschijning": {},

	// Dutch particles
	"de": {}, "het": {}, "een": {}, "van": {}, "der": {}, "den": {},
	"en": {}, "in": {}, "op": {}, "te": {}, "bij": {}, "met": {},
	"voor": {}, "naar": {}, "aan": {}, "uit": {}, "over": {}, "door": {},

	// English particles
	"the": {}, "a": {}, "an": {}, "of": {}, "and": {}, "or": {},
	"at": {}, "on": {}, "by": {}, "for": {}, "to": {}, "from": {},
	"with": {}, "new": {},
}

// StripStopwords removes stop-words and single-character tokens
func StripStopwords(tokens []string) []string {
	kept := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if len(tok) <= 1 {
			continue
		}
		if _, ok := stopwords[tok]; ok {
			continue
		}
		kept = append(kept, tok)
	}
	return kept
}
