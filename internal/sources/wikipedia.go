package sources

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/memoria/internal/common"
	"github.com/ternarybob/memoria/internal/interfaces"
	"github.com/ternarybob/memoria/internal/models"
	"github.com/ternarybob/memoria/internal/services/match"
)

// maxSearchResults caps how many candidates one search call considers
const maxSearchResults = 5

// WikipediaSource searches a per-language encyclopedia and resolves the
// matched article's lead image.
type WikipediaSource struct {
	client   *apiClient
	endpoint string
	name     string
}

// NewWikipediaSource creates an adapter for the configured language edition
func NewWikipediaSource(config *common.WikipediaConfig, logger arbor.ILogger) *WikipediaSource {
	lang := config.Language
	if lang == "" {
		lang = "en"
	}
	endpoint := config.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.wikipedia.org/w/api.php", lang)
	}
	return &WikipediaSource{
		client:   newAPIClient(config.RateLimit, config.RequestTimeout, logger),
		endpoint: endpoint,
		name:     "wikipedia-" + lang,
	}
}

// Name implements interfaces.ImageSource
func (s *WikipediaSource) Name() string {
	return s.name
}

// Search implements interfaces.ImageSource. The search endpoint returns
// article titles, not images, so a second call resolves the accepted
// article's lead image.
func (s *WikipediaSource) Search(ctx context.Context, query string, year int, opts interfaces.SearchOptions) (*models.ImageCandidate, error) {
	searchText := buildSearchText(query, year, opts.UseQuotes, opts.IncludeYear)

	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "search")
	params.Set("srsearch", searchText)
	params.Set("srlimit", strconv.Itoa(maxSearchResults))
	params.Set("format", "json")

	var searchResp wikiSearchResponse
	if err := s.client.getJSON(ctx, s.endpoint, params, &searchResp); err != nil {
		s.client.logger.Debug().
			Err(err).
			Str("source", s.name).
			Str("query", searchText).
			Msg("Search call failed, treating as no match")
		return nil, nil
	}

	for _, hit := range searchResp.Query.Search {
		if !match.Matches(hit.Title, hit.Snippet, searchText, opts.StrictMatch) {
			continue
		}
		imageURL, err := s.resolveLeadImage(ctx, hit.Title)
		if err != nil || imageURL == "" {
			// First match only: an article without a usable lead image
			// ends this adapter's attempt
			return nil, nil
		}
		return &models.ImageCandidate{
			ImageURL: imageURL,
			Source:   s.name,
			Title:    hit.Title,
		}, nil
	}

	return nil, nil
}

// resolveLeadImage fetches the original lead image URL for an article
func (s *WikipediaSource) resolveLeadImage(ctx context.Context, title string) (string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("titles", title)
	params.Set("prop", "pageimages")
	params.Set("piprop", "original")
	params.Set("format", "json")

	var imgResp wikiPageImageResponse
	if err := s.client.getJSON(ctx, s.endpoint, params, &imgResp); err != nil {
		return "", err
	}

	for _, page := range imgResp.Query.Pages {
		if page.Original == nil {
			continue
		}
		if AdmissibleImageURL(page.Original.Source) {
			return page.Original.Source, nil
		}
	}
	return "", nil
}
