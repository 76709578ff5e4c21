package models

// Category classifies a timeline event and drives source-adapter ordering
type Category string

const (
	CategoryPolitics      Category = "politics"
	CategorySports        Category = "sports"
	CategoryEntertainment Category = "entertainment"
	CategoryScience       Category = "science"
	CategoryCulture       Category = "culture"
	CategoryWorld         Category = "world"
	CategoryLocal         Category = "local"
	CategoryPersonal      Category = "personal"
	CategoryMusic         Category = "music"
	CategoryTechnology    Category = "technology"
	CategoryCelebrity     Category = "celebrity"
)

// AllCategories lists every valid category. The resolver policy table is
// validated against this list at startup.
var AllCategories = []Category{
	CategoryPolitics,
	CategorySports,
	CategoryEntertainment,
	CategoryScience,
	CategoryCulture,
	CategoryWorld,
	CategoryLocal,
	CategoryPersonal,
	CategoryMusic,
	CategoryTechnology,
	CategoryCelebrity,
}

// IsValid reports whether c is a known category
func (c Category) IsValid() bool {
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}
	return false
}

// SearchQuery is the input unit for one image resolution.
// Query is never empty when enqueued; EventID is unique within a session.
type SearchQuery struct {
	EventID     string   `json:"event_id"`
	Query       string   `json:"query"`
	QueryEn     string   `json:"query_en,omitempty"`
	Year        int      `json:"year,omitempty"` // 4-digit year, 0 = unknown
	Category    Category `json:"category"`
	IsCelebrity bool     `json:"is_celebrity,omitempty"`
	IsMovie     bool     `json:"is_movie,omitempty"`
	IsTV        bool     `json:"is_tv,omitempty"`
	IsMusic     bool     `json:"is_music,omitempty"`
}

// TraceResult is the outcome of one search attempt
type TraceResult string

const (
	TraceFound    TraceResult = "found"
	TraceNotFound TraceResult = "not_found"
	TraceError    TraceResult = "error"
)

// SearchTraceEntry is an append-only audit record of one attempt made while
// resolving a SearchQuery. Observability only, never control flow.
type SearchTraceEntry struct {
	Source      string      `json:"source"`
	Query       string      `json:"query"`
	WithYear    bool        `json:"with_year"`
	Result      TraceResult `json:"result"`
	TimestampMs int64       `json:"timestamp_ms"` // relative to resolution start
}

// ImageResult is the output unit for one resolved event.
// Invariant: ImageURL is empty if and only if Source is empty.
type ImageResult struct {
	EventID     string             `json:"event_id"`
	ImageURL    string             `json:"image_url,omitempty"`
	Source      string             `json:"source,omitempty"`
	SearchTrace []SearchTraceEntry `json:"search_trace,omitempty"`
}

// Found reports whether the resolution produced a usable image
func (r *ImageResult) Found() bool {
	return r.ImageURL != ""
}

// SearchProgress is the live counter snapshot published on the event bus
// after every completed resolution.
type SearchProgress struct {
	Searched  int  `json:"searched"`
	Found     int  `json:"found"`
	Queued    int  `json:"queued"`
	Searching bool `json:"searching"`
}

// ImageCandidate is a single candidate returned by a source adapter after
// match evaluation and image URL resolution.
type ImageCandidate struct {
	ImageURL string `json:"image_url"`
	Source   string `json:"source"`
	Title    string `json:"title,omitempty"`
}
