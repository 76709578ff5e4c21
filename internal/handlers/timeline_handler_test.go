package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/ternarybob/memoria/internal/common"
	"github.com/ternarybob/memoria/internal/models"
)

type fakeScheduler struct {
	mu       sync.Mutex
	enqueued []*models.SearchQuery
	resets   int
}

func (f *fakeScheduler) Enqueue(queries []*models.SearchQuery) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enqueued = append(f.enqueued, queries...)
}

func (f *fakeScheduler) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
}

func (f *fakeScheduler) IsSearching() bool  { return false }
func (f *fakeScheduler) SearchedCount() int { return 7 }
func (f *fakeScheduler) FoundCount() int    { return 4 }
func (f *fakeScheduler) QueueLength() int   { return 0 }

type fakeTraceStorage struct {
	results map[string]*models.ImageResult
}

func (f *fakeTraceStorage) SaveResult(ctx context.Context, result *models.ImageResult) error {
	f.results[result.EventID] = result
	return nil
}

func (f *fakeTraceStorage) GetResult(ctx context.Context, eventID string) (*models.ImageResult, error) {
	return f.results[eventID], nil
}

func TestSubmitEventsNDJSON(t *testing.T) {
	scheduler := &fakeScheduler{}
	handler := NewTimelineHandler(scheduler, nil, common.GetLogger())

	body := strings.Join([]string{
		`{"id": "ev-1", "title": "Elfstedentocht", "year": 1986, "category": "sports", "image_search_query": "Elfstedentocht 1986"}`,
		``,
		`{"id": "ev-2", "category": "politics"}`,
		`not json at all`,
		`{"id": "ev-3", "year": 1989, "category": "world", "image_search_query": "Val Berlijnse Muur", "image_search_query_en": "Fall of the Berlin Wall"}`,
	}, "\n")

	req := httptest.NewRequest("POST", "/api/timeline/events", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.SubmitEventsHandler(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	response := gjson.Parse(rec.Body.String())
	assert.Equal(t, int64(2), response.Get("accepted").Int())
	assert.Equal(t, int64(1), response.Get("skipped").Int(), "event without search query is skipped")
	assert.Equal(t, int64(1), response.Get("malformed").Int())

	require.Len(t, scheduler.enqueued, 2)
	assert.Equal(t, "ev-1", scheduler.enqueued[0].EventID)
	assert.Equal(t, models.CategorySports, scheduler.enqueued[0].Category)
	assert.Equal(t, "Fall of the Berlin Wall", scheduler.enqueued[1].QueryEn)
}

func TestSubmitEventsJSONArray(t *testing.T) {
	scheduler := &fakeScheduler{}
	handler := NewTimelineHandler(scheduler, nil, common.GetLogger())

	body := `[{"id": "ev-1", "category": "technology", "image_search_query": "Commodore 64", "year": 1982}]`
	req := httptest.NewRequest("POST", "/api/timeline/events", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.SubmitEventsHandler(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, scheduler.enqueued, 1)
	assert.Equal(t, 1982, scheduler.enqueued[0].Year)
}

func TestSubmitEventsRejectsBadArray(t *testing.T) {
	handler := NewTimelineHandler(&fakeScheduler{}, nil, common.GetLogger())

	req := httptest.NewRequest("POST", "/api/timeline/events", strings.NewReader(`[{"id": broken`))
	rec := httptest.NewRecorder()
	handler.SubmitEventsHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitEventsWrongMethod(t *testing.T) {
	handler := NewTimelineHandler(&fakeScheduler{}, nil, common.GetLogger())

	req := httptest.NewRequest("GET", "/api/timeline/events", nil)
	rec := httptest.NewRecorder()
	handler.SubmitEventsHandler(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestStatusHandlerReportsCounters(t *testing.T) {
	handler := NewTimelineHandler(&fakeScheduler{}, nil, common.GetLogger())

	req := httptest.NewRequest("GET", "/api/timeline/status", nil)
	rec := httptest.NewRecorder()
	handler.StatusHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	response := gjson.Parse(rec.Body.String())
	assert.Equal(t, int64(7), response.Get("searched").Int())
	assert.Equal(t, int64(4), response.Get("found").Int())
}

func TestResetHandler(t *testing.T) {
	scheduler := &fakeScheduler{}
	handler := NewTimelineHandler(scheduler, nil, common.GetLogger())

	req := httptest.NewRequest("POST", "/api/timeline/reset", nil)
	rec := httptest.NewRecorder()
	handler.ResetHandler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, scheduler.resets)
}

func TestTraceHandler(t *testing.T) {
	traces := &fakeTraceStorage{results: map[string]*models.ImageResult{
		"ev-1": {
			EventID:  "ev-1",
			ImageURL: "https://img.example/a.jpg",
			Source:   "commons",
			SearchTrace: []models.SearchTraceEntry{
				{Source: "commons", Query: "Elfstedentocht 1986", WithYear: true, Result: models.TraceFound},
			},
		},
	}}
	handler := NewTimelineHandler(&fakeScheduler{}, traces, common.GetLogger())

	req := httptest.NewRequest("GET", "/api/timeline/trace/ev-1", nil)
	rec := httptest.NewRecorder()
	handler.TraceHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	response := gjson.Parse(rec.Body.String())
	assert.Equal(t, "commons", response.Get("source").String())
	assert.Equal(t, int64(1), response.Get("search_trace.#").Int())

	req = httptest.NewRequest("GET", "/api/timeline/trace/ev-unknown", nil)
	rec = httptest.NewRecorder()
	handler.TraceHandler(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req = httptest.NewRequest("GET", "/api/timeline/trace/", nil)
	rec = httptest.NewRecorder()
	handler.TraceHandler(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
