package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route
	mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)

	// API routes - Timeline (event ingestion and search progress)
	mux.HandleFunc("/api/timeline/events", s.app.TimelineHandler.SubmitEventsHandler) // POST - NDJSON event batch
	mux.HandleFunc("/api/timeline/status", s.app.TimelineHandler.StatusHandler)       // GET - progress counters
	mux.HandleFunc("/api/timeline/reset", s.app.TimelineHandler.ResetHandler)         // POST - abandon session
	mux.HandleFunc("/api/timeline/trace/", s.app.TimelineHandler.TraceHandler)        // GET /{eventId} - search trace

	// API routes - Blacklist
	mux.HandleFunc("/api/blacklist", s.handleBlacklistRoute)
	mux.HandleFunc("/api/blacklist/refresh", s.app.BlacklistHandler.RefreshBlacklistHandler)

	// API routes - System
	mux.HandleFunc("/api/status", s.app.StatusHandler.GetStatusHandler)
	mux.HandleFunc("/api/version", s.app.StatusHandler.GetVersionHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.notFoundHandler)

	return mux
}

// handleBlacklistRoute routes /api/blacklist requests
func (s *Server) handleBlacklistRoute(w http.ResponseWriter, r *http.Request) {
	RouteByMethod(w, r, MethodRouter{
		"GET": s.app.BlacklistHandler.GetBlacklistHandler,
	})
}

// notFoundHandler returns a JSON 404 for unknown API paths
func (s *Server) notFoundHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"status":"error","error":"not found"}`))
}
