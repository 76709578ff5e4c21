package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/memoria/internal/common"
	"github.com/ternarybob/memoria/internal/interfaces"
)

func wikipediaConfig(endpoint string) *common.WikipediaConfig {
	return &common.WikipediaConfig{
		Language:       "nl",
		Endpoint:       endpoint,
		RateLimit:      100,
		RequestTimeout: 5 * time.Second,
	}
}

func TestWikipediaSearchTwoRoundTrips(t *testing.T) {
	searchJSON := `{"query":{"search":[
		{"title":"Apple Macintosh","snippet":"De <span class=\"searchmatch\">Macintosh</span> verscheen in 1984.","pageid":42}
	]}}`
	pageImageJSON := `{"query":{"pages":{"42":{"title":"Apple Macintosh","original":
		{"source":"https://upload.wikimedia.org/wikipedia/commons/f/f5/Macintosh_128k.jpg"}
	}}}}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("list") == "search" {
			w.Write([]byte(searchJSON))
			return
		}
		w.Write([]byte(pageImageJSON))
	}))
	defer server.Close()

	source := NewWikipediaSource(wikipediaConfig(server.URL), common.GetLogger())
	assert.Equal(t, "wikipedia-nl", source.Name())

	candidate, err := source.Search(context.Background(), "Apple Macintosh 1984", 0, interfaces.SearchOptions{StrictMatch: true})

	require.NoError(t, err)
	require.NotNil(t, candidate)
	assert.Equal(t, "wikipedia-nl", candidate.Source)
	assert.Equal(t, "https://upload.wikimedia.org/wikipedia/commons/f/f5/Macintosh_128k.jpg", candidate.ImageURL)
	assert.Equal(t, "Apple Macintosh", candidate.Title)
}

func TestWikipediaTitleAuthorityRejectsTangentialArticle(t *testing.T) {
	// The only candidate mentions the subject in its snippet but the title
	// is a different subject: the strict evaluator must reject it and the
	// adapter must not issue the image round-trip.
	searchJSON := `{"query":{"search":[
		{"title":"History of Apple Inc.","snippet":"The <span class=\"searchmatch\">Macintosh</span> was introduced in 1984.","pageid":7}
	]}}`

	imageCalled := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("list") == "search" {
			w.Write([]byte(searchJSON))
			return
		}
		imageCalled = true
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	source := NewWikipediaSource(wikipediaConfig(server.URL), common.GetLogger())
	candidate, err := source.Search(context.Background(), "Apple Macintosh 1984", 0, interfaces.SearchOptions{StrictMatch: true})

	require.NoError(t, err)
	assert.Nil(t, candidate)
	assert.False(t, imageCalled, "rejected candidate must not trigger image resolution")
}

func TestWikipediaArticleWithoutLeadImage(t *testing.T) {
	searchJSON := `{"query":{"search":[
		{"title":"Apple Macintosh","snippet":"Macintosh 1984","pageid":42}
	]}}`
	// No "original" key: the article has no lead image
	pageImageJSON := `{"query":{"pages":{"42":{"title":"Apple Macintosh"}}}}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("list") == "search" {
			w.Write([]byte(searchJSON))
			return
		}
		w.Write([]byte(pageImageJSON))
	}))
	defer server.Close()

	source := NewWikipediaSource(wikipediaConfig(server.URL), common.GetLogger())
	candidate, err := source.Search(context.Background(), "Apple Macintosh 1984", 0, interfaces.SearchOptions{StrictMatch: true})

	require.NoError(t, err)
	assert.Nil(t, candidate)
}
