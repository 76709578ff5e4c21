package sources

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/memoria/internal/common"
	"github.com/ternarybob/memoria/internal/interfaces"
	"github.com/ternarybob/memoria/internal/models"
	"github.com/ternarybob/memoria/internal/services/match"
)

const commonsEndpoint = "https://commons.wikimedia.org/w/api.php"

// fileNamespace is the MediaWiki File: namespace searched on Commons
const fileNamespace = "6"

// CommonsSource searches Wikimedia Commons file titles directly. Commons
// file names tend to describe the photograph itself, which makes them a
// strong signal for event photos that have no encyclopedia article.
type CommonsSource struct {
	client   *apiClient
	endpoint string

	// qualifier is appended to every query; the archive-flavored variant
	// uses it to bias search toward a national collection
	qualifier string
	name      string
}

// NewCommonsSource creates the plain Commons adapter
func NewCommonsSource(config *common.CommonsConfig, logger arbor.ILogger) *CommonsSource {
	endpoint := config.Endpoint
	if endpoint == "" {
		endpoint = commonsEndpoint
	}
	return &CommonsSource{
		client:   newAPIClient(config.RateLimit, config.RequestTimeout, logger),
		endpoint: endpoint,
		name:     "commons",
	}
}

// NewArchiveSource creates the national-archive-flavored Commons adapter.
// It differs from the plain adapter only in the fixed qualifier and the
// source label.
func NewArchiveSource(config *common.ArchiveConfig, logger arbor.ILogger) *CommonsSource {
	endpoint := config.Endpoint
	if endpoint == "" {
		endpoint = commonsEndpoint
	}
	return &CommonsSource{
		client:    newAPIClient(config.RateLimit, config.RequestTimeout, logger),
		endpoint:  endpoint,
		qualifier: config.Qualifier,
		name:      "archive",
	}
}

// Name implements interfaces.ImageSource
func (s *CommonsSource) Name() string {
	return s.name
}

// Search implements interfaces.ImageSource
func (s *CommonsSource) Search(ctx context.Context, query string, year int, opts interfaces.SearchOptions) (*models.ImageCandidate, error) {
	searchText := buildSearchText(query, year, opts.UseQuotes, opts.IncludeYear)
	backendText := searchText
	if s.qualifier != "" {
		backendText = searchText + " " + s.qualifier
	}

	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "search")
	params.Set("srsearch", backendText)
	params.Set("srnamespace", fileNamespace)
	params.Set("srlimit", strconv.Itoa(maxSearchResults))
	params.Set("format", "json")

	var searchResp wikiSearchResponse
	if err := s.client.getJSON(ctx, s.endpoint, params, &searchResp); err != nil {
		s.client.logger.Debug().
			Err(err).
			Str("source", s.name).
			Str("query", backendText).
			Msg("Search call failed, treating as no match")
		return nil, nil
	}

	for _, hit := range searchResp.Query.Search {
		// Match against the caller's search text, not the qualifier-padded
		// backend text: the qualifier is routing, not subject
		title := strings.TrimPrefix(hit.Title, "File:")
		if !match.Matches(title, hit.Snippet, searchText, opts.StrictMatch) {
			continue
		}
		imageURL, err := s.resolveFileURL(ctx, hit.Title)
		if err != nil || imageURL == "" {
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

// resolveFileURL fetches the direct URL for a File: title
func (s *CommonsSource) resolveFileURL(ctx context.Context, fileTitle string) (string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("titles", fileTitle)
	params.Set("prop", "imageinfo")
	params.Set("iiprop", "url")
	params.Set("format", "json")

	var infoResp wikiImageInfoResponse
	if err := s.client.getJSON(ctx, s.endpoint, params, &infoResp); err != nil {
		return "", err
	}

	for _, page := range infoResp.Query.Pages {
		for _, info := range page.ImageInfo {
			if AdmissibleImageURL(info.URL) {
				return info.URL, nil
			}
		}
	}
	return "", nil
}
