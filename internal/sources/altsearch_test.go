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

func altSearchConfig(baseURL string) *common.AltSearchConfig {
	return &common.AltSearchConfig{
		BaseURL:        baseURL,
		APIKey:         "test-key",
		RateLimit:      100,
		RequestTimeout: 5 * time.Second,
	}
}

func TestAltSearchAppendsDecadeQualifier(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[
			{"url":"https://img.example.org/strand.webm","title":"clip"},
			{"url":"https://img.example.org/strand.jpg","title":"Strandvakantie"}
		]}`))
	}))
	defer server.Close()

	source := NewAltSearchSource(altSearchConfig(server.URL), common.GetLogger())
	candidate, err := source.Search(context.Background(), "strandvakantie", 1987, interfaces.SearchOptions{})

	require.NoError(t, err)
	assert.Equal(t, "strandvakantie 1980s", gotQuery)
	require.NotNil(t, candidate)
	assert.Equal(t, "altsearch", candidate.Source)
	assert.Equal(t, "https://img.example.org/strand.jpg", candidate.ImageURL, "first admissible result wins")
}

func TestAltSearchAlternateResponseShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"images":[{"image_url":"https://img.example.org/photo.png"}]}`))
	}))
	defer server.Close()

	source := NewAltSearchSource(altSearchConfig(server.URL), common.GetLogger())
	candidate, err := source.Search(context.Background(), "photo", 0, interfaces.SearchOptions{})

	require.NoError(t, err)
	require.NotNil(t, candidate)
	assert.Equal(t, "https://img.example.org/photo.png", candidate.ImageURL)
}

func TestAltSearchUnconfiguredIsNil(t *testing.T) {
	source := NewAltSearchSource(&common.AltSearchConfig{RateLimit: 5}, common.GetLogger())
	assert.Nil(t, source)
}

func TestMetadataSearchPrefersProfileForPerson(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[
			{"media_type":"person","name":"John Lennon","overview":"English musician","profile_url":"https://img.example.org/lennon.jpg"}
		]}`))
	}))
	defer server.Close()

	config := &common.MetadataConfig{
		ProxyURL:       server.URL,
		RateLimit:      100,
		RequestTimeout: 5 * time.Second,
	}
	source := NewMetadataSource(config, common.GetLogger())
	require.NotNil(t, source)

	candidate, err := source.Search(context.Background(), "John Lennon", 1980, interfaces.SearchOptions{StrictMatch: true})

	require.NoError(t, err)
	require.NotNil(t, candidate)
	assert.Equal(t, "metadata", candidate.Source)
	assert.Equal(t, "https://img.example.org/lennon.jpg", candidate.ImageURL)
}

func TestMetadataSearchSkipsHitsWithoutImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[
			{"media_type":"person","name":"John Lennon","overview":"English musician"},
			{"media_type":"movie","title":"John Lennon Documentary","overview":"biopic","poster_url":"https://img.example.org/doc.jpg"}
		]}`))
	}))
	defer server.Close()

	config := &common.MetadataConfig{
		ProxyURL:       server.URL,
		RateLimit:      100,
		RequestTimeout: 5 * time.Second,
	}
	source := NewMetadataSource(config, common.GetLogger())

	candidate, err := source.Search(context.Background(), "John Lennon", 0, interfaces.SearchOptions{StrictMatch: true})

	require.NoError(t, err)
	require.NotNil(t, candidate)
	assert.Equal(t, "https://img.example.org/doc.jpg", candidate.ImageURL)
}
