package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/memoria/internal/interfaces"
)

// BlacklistHandler exposes the local blacklist snapshot state
type BlacklistHandler struct {
	blacklist interfaces.BlacklistService
	logger    arbor.ILogger
}

// NewBlacklistHandler creates a new BlacklistHandler
func NewBlacklistHandler(blacklist interfaces.BlacklistService, logger arbor.ILogger) *BlacklistHandler {
	return &BlacklistHandler{
		blacklist: blacklist,
		logger:    logger,
	}
}

// GetBlacklistHandler handles GET /api/blacklist.
// Membership of a specific URL can be checked with ?url=
func (h *BlacklistHandler) GetBlacklistHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	response := map[string]interface{}{
		"size": h.blacklist.Size(),
	}
	if url := r.URL.Query().Get("url"); url != "" {
		response["url"] = url
		response["blacklisted"] = h.blacklist.Contains(url)
	}

	WriteJSON(w, http.StatusOK, response)
}

// RefreshBlacklistHandler handles POST /api/blacklist/refresh
func (h *BlacklistHandler) RefreshBlacklistHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	if err := h.blacklist.Refresh(r.Context()); err != nil {
		h.logger.Warn().Err(err).Msg("Manual blacklist refresh failed")
		WriteError(w, http.StatusBadGateway, "blacklist refresh failed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"size":   h.blacklist.Size(),
	})
}
