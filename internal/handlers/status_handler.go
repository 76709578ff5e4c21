package handlers

import (
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/memoria/internal/common"
	"github.com/ternarybob/memoria/internal/interfaces"
)

// StatusHandler handles HTTP requests for application status
type StatusHandler struct {
	scheduler interfaces.SchedulerService
	blacklist interfaces.BlacklistService
	logger    arbor.ILogger
	startedAt time.Time
}

// NewStatusHandler creates a new StatusHandler
func NewStatusHandler(scheduler interfaces.SchedulerService, blacklist interfaces.BlacklistService, logger arbor.ILogger) *StatusHandler {
	return &StatusHandler{
		scheduler: scheduler,
		blacklist: blacklist,
		logger:    logger,
		startedAt: time.Now(),
	}
}

// GetStatusHandler handles GET /api/status
func (h *StatusHandler) GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	status := map[string]interface{}{
		"status":         "ok",
		"version":        common.GetVersion(),
		"uptime_seconds": int(time.Since(h.startedAt).Seconds()),
	}
	if h.scheduler != nil {
		status["searching"] = h.scheduler.IsSearching()
		status["searched"] = h.scheduler.SearchedCount()
		status["found"] = h.scheduler.FoundCount()
		status["queued"] = h.scheduler.QueueLength()
	}
	if h.blacklist != nil {
		status["blacklist_size"] = h.blacklist.Size()
	}

	WriteJSON(w, http.StatusOK, status)
}

// GetVersionHandler handles GET /api/version
func (h *StatusHandler) GetVersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}
