package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/memoria/internal/common"
	"github.com/ternarybob/memoria/internal/interfaces"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// WSMessage is the envelope for every message sent to clients
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// LogEntry is a log line forwarded to clients by the websocket log writer
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

// WebSocketHandler streams resolution results, progress counters and log
// lines to connected timeline clients.
type WebSocketHandler struct {
	logger       arbor.ILogger
	eventService interfaces.EventService
	scheduler    interfaces.SchedulerService

	clients     map[*websocket.Conn]bool
	clientMutex map[*websocket.Conn]*sync.Mutex
	mu          sync.RWMutex

	// progressThrottler limits search_progress broadcasts; image_found and
	// image_not_found are never throttled
	progressThrottler *rate.Limiter

	// serverInstanceID changes on restart so clients can detect it and
	// resubmit their pending events
	serverInstanceID string
}

// NewWebSocketHandler creates the handler and subscribes it to the event bus
func NewWebSocketHandler(eventService interfaces.EventService, scheduler interfaces.SchedulerService, logger arbor.ILogger, config *common.WebSocketConfig) *WebSocketHandler {
	h := &WebSocketHandler{
		logger:           logger,
		eventService:     eventService,
		scheduler:        scheduler,
		clients:          make(map[*websocket.Conn]bool),
		clientMutex:      make(map[*websocket.Conn]*sync.Mutex),
		serverInstanceID: uuid.New().String(),
	}

	if config != nil && config.ProgressPerSecond > 0 {
		h.progressThrottler = rate.NewLimiter(rate.Limit(config.ProgressPerSecond), 1)
	}

	if eventService != nil {
		h.subscribeToSearchEvents()
	}

	return h
}

// subscribeToSearchEvents wires the bus events to client broadcasts
func (h *WebSocketHandler) subscribeToSearchEvents() {
	h.eventService.Subscribe(interfaces.EventImageFound, func(ctx context.Context, event interfaces.Event) error {
		h.broadcast("image_found", event.Payload)
		return nil
	})
	h.eventService.Subscribe(interfaces.EventImageNotFound, func(ctx context.Context, event interfaces.Event) error {
		h.broadcast("image_not_found", event.Payload)
		return nil
	})
	h.eventService.Subscribe(interfaces.EventSearchProgress, func(ctx context.Context, event interfaces.Event) error {
		if h.progressThrottler != nil && !h.progressThrottler.Allow() {
			return nil
		}
		h.broadcast("search_progress", event.Payload)
		return nil
	})
	h.eventService.Subscribe(interfaces.EventSearchDrained, func(ctx context.Context, event interfaces.Event) error {
		h.broadcast("search_drained", event.Payload)
		return nil
	})
}

// HandleWebSocket handles WebSocket connections
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.clientMutex[conn] = &sync.Mutex{}
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug().Msgf("WebSocket client connected (total: %d)", clientCount)

	h.sendHello(conn)

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		delete(h.clientMutex, conn)
		remaining := len(h.clients)
		h.mu.Unlock()

		conn.Close()
		h.logger.Debug().Msgf("WebSocket client disconnected (remaining: %d)", remaining)
	}()

	// Read messages from client (keep connection alive)
	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn().Err(err).Msg("WebSocket error")
			}
			break
		}
	}
}

// sendHello sends the connection greeting with the server instance id and
// the current progress counters.
func (h *WebSocketHandler) sendHello(conn *websocket.Conn) {
	payload := map[string]interface{}{
		"server_instance_id": h.serverInstanceID,
	}
	if h.scheduler != nil {
		payload["searching"] = h.scheduler.IsSearching()
		payload["searched"] = h.scheduler.SearchedCount()
		payload["found"] = h.scheduler.FoundCount()
		payload["queued"] = h.scheduler.QueueLength()
	}

	data, err := json.Marshal(WSMessage{Type: "hello", Payload: payload})
	if err != nil {
		return
	}

	h.mu.RLock()
	mutex := h.clientMutex[conn]
	h.mu.RUnlock()
	if mutex == nil {
		return
	}

	mutex.Lock()
	defer mutex.Unlock()
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to send hello to client")
	}
}

// BroadcastLog forwards a log line to all connected clients
func (h *WebSocketHandler) BroadcastLog(entry LogEntry) {
	h.broadcast("log", entry)
}

// ClientCount returns the number of connected clients
func (h *WebSocketHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *WebSocketHandler) broadcast(msgType string, payload interface{}) {
	data, err := json.Marshal(WSMessage{Type: msgType, Payload: payload})
	if err != nil {
		h.logger.Error().Err(err).Str("type", msgType).Msg("Failed to marshal websocket message")
		return
	}

	h.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	mutexes := make([]*sync.Mutex, 0, len(h.clients))
	for conn := range h.clients {
		clients = append(clients, conn)
		mutexes = append(mutexes, h.clientMutex[conn])
	}
	h.mu.RUnlock()

	for i, conn := range clients {
		mutex := mutexes[i]
		mutex.Lock()
		err := conn.WriteMessage(websocket.TextMessage, data)
		mutex.Unlock()

		if err != nil {
			h.logger.Warn().Err(err).Str("type", msgType).Msg("Failed to send message to client")
		}
	}
}
