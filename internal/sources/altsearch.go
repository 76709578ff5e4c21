package sources

import (
	"context"
	"fmt"
	"net/url"

	"github.com/ternarybob/arbor"
	"github.com/tidwall/gjson"

	"github.com/ternarybob/memoria/internal/common"
	"github.com/ternarybob/memoria/internal/interfaces"
	"github.com/ternarybob/memoria/internal/models"
)

// AltSearchSource is the alternative general image-search backend. Unlike
// the cascade adapters it accepts loose queries and trusts the backend's
// own relevance ranking instead of strict match verification; an explicit
// decade qualifier keeps results in the right era. It replaces the whole
// cascade when the session mode selects it - it is not a cascade member.
type AltSearchSource struct {
	client  *apiClient
	baseURL string
	apiKey  string
}

// NewAltSearchSource creates the adapter. Returns nil when no base URL is
// configured.
func NewAltSearchSource(config *common.AltSearchConfig, logger arbor.ILogger) *AltSearchSource {
	if config.BaseURL == "" {
		return nil
	}
	return &AltSearchSource{
		client:  newAPIClient(config.RateLimit, config.RequestTimeout, logger),
		baseURL: config.BaseURL,
		apiKey:  config.APIKey,
	}
}

// Name implements interfaces.ImageSource
func (s *AltSearchSource) Name() string {
	return "altsearch"
}

// Search implements interfaces.ImageSource
func (s *AltSearchSource) Search(ctx context.Context, query string, year int, opts interfaces.SearchOptions) (*models.ImageCandidate, error) {
	searchText := query
	if decade := decadeQualifier(year); decade != "" {
		searchText = searchText + " " + decade
	}

	params := url.Values{}
	params.Set("q", searchText)
	params.Set("type", "photo")
	if s.apiKey != "" {
		params.Set("key", s.apiKey)
	}

	body, err := s.client.getRaw(ctx, s.baseURL, params)
	if err != nil {
		s.client.logger.Debug().
			Err(err).
			Str("source", "altsearch").
			Str("query", searchText).
			Msg("Backend call failed, treating as no match")
		return nil, nil
	}

	// The backend's response shape varies by deployment; pick fields
	// tolerantly instead of binding a struct
	results := gjson.GetBytes(body, "results")
	if !results.Exists() {
		results = gjson.GetBytes(body, "images")
	}

	var candidate *models.ImageCandidate
	results.ForEach(func(_, item gjson.Result) bool {
		imageURL := item.Get("url").String()
		if imageURL == "" {
			imageURL = item.Get("image_url").String()
		}
		if !AdmissibleImageURL(imageURL) {
			return true // keep scanning
		}
		candidate = &models.ImageCandidate{
			ImageURL: imageURL,
			Source:   "altsearch",
			Title:    item.Get("title").String(),
		}
		return false
	})

	return candidate, nil
}

// decadeQualifier renders a year as its decade ("1984" -> "1980s") for
// backends that rank by era keywords
func decadeQualifier(year int) string {
	if year < 1000 {
		return ""
	}
	return fmt.Sprintf("%ds", (year/10)*10)
}
