package handlers

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/memoria/internal/interfaces"
	"github.com/ternarybob/memoria/internal/models"
)

// maxEventLineBytes bounds a single NDJSON line; a timeline event is a few
// hundred bytes in practice
const maxEventLineBytes = 64 * 1024

// TimelineHandler handles timeline event ingestion and search progress
type TimelineHandler struct {
	scheduler interfaces.SchedulerService
	traces    interfaces.TraceStorage
	logger    arbor.ILogger
}

// NewTimelineHandler creates a new TimelineHandler
func NewTimelineHandler(scheduler interfaces.SchedulerService, traces interfaces.TraceStorage, logger arbor.ILogger) *TimelineHandler {
	return &TimelineHandler{
		scheduler: scheduler,
		traces:    traces,
		logger:    logger,
	}
}

// SubmitEventsHandler handles POST /api/timeline/events.
//
// The body is NDJSON, one timeline event per line, so the upstream pipeline
// can submit events as it generates them. A JSON array body is accepted too.
// Events without a search query are skipped; malformed lines are counted and
// reported but do not fail the batch.
func (h *TimelineHandler) SubmitEventsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	events, malformed, err := decodeEvents(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	queries := make([]*models.SearchQuery, 0, len(events))
	skipped := 0
	for _, event := range events {
		query := event.ToSearchQuery()
		if query == nil || query.EventID == "" {
			skipped++
			continue
		}
		queries = append(queries, query)
	}

	h.scheduler.Enqueue(queries)

	h.logger.Info().
		Int("accepted", len(queries)).
		Int("skipped", skipped).
		Int("malformed", malformed).
		Msg("Timeline events submitted")

	WriteJSON(w, http.StatusAccepted, map[string]interface{}{
		"accepted":  len(queries),
		"skipped":   skipped,
		"malformed": malformed,
		"queued":    h.scheduler.QueueLength(),
	})
}

// decodeEvents reads the request body as NDJSON or as a JSON array
func decodeEvents(r *http.Request) ([]*models.TimelineEvent, int, error) {
	reader := bufio.NewReader(r.Body)

	head, _ := reader.Peek(1)
	if len(head) == 1 && head[0] == '[' {
		var events []*models.TimelineEvent
		if err := json.NewDecoder(reader).Decode(&events); err != nil {
			return nil, 0, err
		}
		return events, 0, nil
	}

	var events []*models.TimelineEvent
	malformed := 0

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 64*1024), maxEventLineBytes)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var event models.TimelineEvent
		if err := json.Unmarshal(line, &event); err != nil {
			malformed++
			continue
		}
		events = append(events, &event)
	}
	if err := scanner.Err(); err != nil {
		return nil, malformed, err
	}

	return events, malformed, nil
}

// StatusHandler handles GET /api/timeline/status
func (h *TimelineHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, &models.SearchProgress{
		Searched:  h.scheduler.SearchedCount(),
		Found:     h.scheduler.FoundCount(),
		Queued:    h.scheduler.QueueLength(),
		Searching: h.scheduler.IsSearching(),
	})
}

// ResetHandler handles POST /api/timeline/reset
func (h *TimelineHandler) ResetHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	h.scheduler.Reset()
	WriteSuccess(w, "search session reset")
}

// TraceHandler handles GET /api/timeline/trace/{eventId}
func (h *TimelineHandler) TraceHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	eventID := strings.TrimPrefix(r.URL.Path, "/api/timeline/trace/")
	if eventID == "" || strings.Contains(eventID, "/") {
		WriteError(w, http.StatusBadRequest, "event id required")
		return
	}

	if h.traces == nil {
		WriteError(w, http.StatusNotFound, "trace storage disabled")
		return
	}

	result, err := h.traces.GetResult(r.Context(), eventID)
	if err != nil {
		h.logger.Error().Err(err).Str("event_id", eventID).Msg("Failed to load search trace")
		WriteError(w, http.StatusInternalServerError, "failed to load trace")
		return
	}
	if result == nil {
		WriteError(w, http.StatusNotFound, "event not resolved")
		return
	}

	WriteJSON(w, http.StatusOK, result)
}
