package sources

import (
	"context"
	"net/url"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/memoria/internal/common"
	"github.com/ternarybob/memoria/internal/interfaces"
	"github.com/ternarybob/memoria/internal/models"
	"github.com/ternarybob/memoria/internal/services/match"
)

// MetadataSource queries the proxied person/movie metadata backend. The
// proxy holds the API credential server-side; this adapter only sees the
// forwarded multi-search results. Person and movie databases give far
// higher precision than encyclopedia search for celebrity, movie, music and
// entertainment subjects, so the resolver consults this adapter before the
// general cascade for those categories.
type MetadataSource struct {
	client   *apiClient
	proxyURL string
}

// NewMetadataSource creates the metadata adapter. Returns nil when no proxy
// URL is configured; the resolver treats a nil metadata source as absent.
func NewMetadataSource(config *common.MetadataConfig, logger arbor.ILogger) *MetadataSource {
	if config.ProxyURL == "" {
		return nil
	}
	return &MetadataSource{
		client:   newAPIClient(config.RateLimit, config.RequestTimeout, logger),
		proxyURL: config.ProxyURL,
	}
}

// Name implements interfaces.ImageSource
func (s *MetadataSource) Name() string {
	return "metadata"
}

// Search implements interfaces.ImageSource. Year is not forwarded: the
// metadata backend ranks by popularity and a year token only degrades its
// own matching.
func (s *MetadataSource) Search(ctx context.Context, query string, year int, opts interfaces.SearchOptions) (*models.ImageCandidate, error) {
	params := url.Values{}
	params.Set("query", query)

	var resp metadataSearchResponse
	if err := s.client.getJSON(ctx, s.proxyURL, params, &resp); err != nil {
		s.client.logger.Debug().
			Err(err).
			Str("source", "metadata").
			Str("query", query).
			Msg("Metadata proxy call failed, treating as no match")
		return nil, nil
	}

	for _, hit := range resp.Results {
		imageURL := hit.imageURL()
		if imageURL == "" {
			continue
		}
		if !match.Matches(hit.displayTitle(), hit.Overview, query, opts.StrictMatch) {
			continue
		}
		if !AdmissibleImageURL(imageURL) {
			continue
		}
		return &models.ImageCandidate{
			ImageURL: imageURL,
			Source:   "metadata",
			Title:    hit.displayTitle(),
		}, nil
	}

	return nil, nil
}
