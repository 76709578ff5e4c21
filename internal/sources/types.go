package sources

// MediaWiki API wire types shared by the encyclopedia and Commons adapters.
// Both expose the same action=query surface; only endpoint and namespace
// differ.

// wikiSearchResponse is the list=search response
type wikiSearchResponse struct {
	Query struct {
		Search []wikiSearchHit `json:"search"`
	} `json:"query"`
}

// wikiSearchHit is one free-text search result. Snippet contains highlight
// markup that is stripped before match evaluation.
type wikiSearchHit struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	PageID  int    `json:"pageid"`
}

// wikiPageImageResponse is the prop=pageimages response used to resolve an
// article title to its lead image
type wikiPageImageResponse struct {
	Query struct {
		Pages map[string]struct {
			Title    string `json:"title"`
			Original *struct {
				Source string `json:"source"`
			} `json:"original"`
		} `json:"pages"`
	} `json:"query"`
}

// wikiImageInfoResponse is the prop=imageinfo response used to resolve a
// File: title to its direct URL
type wikiImageInfoResponse struct {
	Query struct {
		Pages map[string]struct {
			Title     string `json:"title"`
			ImageInfo []struct {
				URL string `json:"url"`
			} `json:"imageinfo"`
		} `json:"pages"`
	} `json:"query"`
}

// metadataSearchResponse is the proxied person/movie backend response. The
// proxy forwards the upstream multi-search results with image paths already
// expanded to absolute URLs.
type metadataSearchResponse struct {
	Results []metadataHit `json:"results"`
}

type metadataHit struct {
	MediaType   string `json:"media_type"` // person, movie, tv
	Name        string `json:"name,omitempty"`
	Title       string `json:"title,omitempty"`
	Overview    string `json:"overview,omitempty"`
	ProfileURL  string `json:"profile_url,omitempty"`
	PosterURL   string `json:"poster_url,omitempty"`
	ReleaseDate string `json:"release_date,omitempty"`
}

// displayTitle returns the hit's display name regardless of media type
func (h *metadataHit) displayTitle() string {
	if h.Name != "" {
		return h.Name
	}
	return h.Title
}

// imageURL returns the hit's best image for its media type
func (h *metadataHit) imageURL() string {
	if h.MediaType == "person" {
		return h.ProfileURL
	}
	if h.PosterURL != "" {
		return h.PosterURL
	}
	return h.ProfileURL
}
