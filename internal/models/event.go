package models

// TimelineEvent is one timeline entry as produced by the upstream generation
// pipeline. Events arrive incrementally (NDJSON); an event without a search
// query is skipped, not an error.
type TimelineEvent struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title,omitempty"`
	Year               int      `json:"year,omitempty"`
	Category           Category `json:"category"`
	ImageSearchQuery   string   `json:"image_search_query,omitempty"`
	ImageSearchQueryEn string   `json:"image_search_query_en,omitempty"`
	IsCelebrity        bool     `json:"is_celebrity,omitempty"`
	IsMovie            bool     `json:"is_movie,omitempty"`
	IsTV               bool     `json:"is_tv,omitempty"`
	IsMusic            bool     `json:"is_music,omitempty"`
}

// ToSearchQuery converts an event to its search unit. Returns nil when the
// event carries no search query.
func (e *TimelineEvent) ToSearchQuery() *SearchQuery {
	if e.ImageSearchQuery == "" {
		return nil
	}
	return &SearchQuery{
		EventID:     e.ID,
		Query:       e.ImageSearchQuery,
		QueryEn:     e.ImageSearchQueryEn,
		Year:        e.Year,
		Category:    e.Category,
		IsCelebrity: e.IsCelebrity,
		IsMovie:     e.IsMovie,
		IsTV:        e.IsTV,
		IsMusic:     e.IsMusic,
	}
}
