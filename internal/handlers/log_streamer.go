package handlers

import (
	"context"
	"strings"
	"sync"

	plog "github.com/phuslu/log"
	"github.com/ternarybob/arbor/levels"
	arbormodels "github.com/ternarybob/arbor/models"

	"github.com/ternarybob/memoria/internal/common"
)

// logChannelCapacity bounds the arbor batch channel; when the streamer
// cannot keep up, arbor drops batches rather than blocking the logger
const logChannelCapacity = 10

// LogStreamer consumes arbor log batches and forwards them to websocket
// clients. Register its channel on the logger with SetChannel.
type LogStreamer struct {
	handler *WebSocketHandler
	channel chan []arbormodels.LogEvent

	minLevel        levels.LogLevel
	excludePatterns []string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// defaultExcludePatterns drops the chatter that would feed back into the
// stream it is reporting on
var defaultExcludePatterns = []string{
	"WebSocket client connected",
	"WebSocket client disconnected",
	"HTTP request",
	"HTTP response",
	"Search queries enqueued",
}

// NewLogStreamer creates the streamer with level and pattern filters
func NewLogStreamer(handler *WebSocketHandler, wsConfig *common.WebSocketConfig) *LogStreamer {
	minLevel := levels.InfoLevel
	excludePatterns := defaultExcludePatterns

	if wsConfig != nil {
		minLevel = parseLogLevel(wsConfig.MinLevel)
		if len(wsConfig.ExcludePatterns) > 0 {
			excludePatterns = wsConfig.ExcludePatterns
		}
	}

	return &LogStreamer{
		handler:         handler,
		channel:         make(chan []arbormodels.LogEvent, logChannelCapacity),
		minLevel:        minLevel,
		excludePatterns: excludePatterns,
	}
}

// Channel returns the channel for arbor to send log batches to
func (s *LogStreamer) Channel() chan []arbormodels.LogEvent {
	return s.channel
}

// Start launches the consumer goroutine
func (s *LogStreamer) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case batch := <-s.channel:
				for _, entry := range batch {
					s.forward(entry)
				}
			}
		}
	}()
}

// Stop shuts down the consumer goroutine
func (s *LogStreamer) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// forward applies the filters and broadcasts one log line
func (s *LogStreamer) forward(entry arbormodels.LogEvent) {
	arborLevel := plogToArborLevel(entry.Level)
	if arborLevel < s.minLevel {
		return
	}

	for _, pattern := range s.excludePatterns {
		if strings.Contains(entry.Message, pattern) {
			return
		}
	}

	s.handler.BroadcastLog(LogEntry{
		Timestamp: entry.Timestamp.Format("15:04:05"),
		Level:     mapLevel(arborLevel),
		Message:   entry.Message,
	})
}

// plogToArborLevel converts phuslu/log.Level to arbor levels.LogLevel
func plogToArborLevel(level plog.Level) levels.LogLevel {
	switch level {
	case plog.ErrorLevel:
		return levels.ErrorLevel
	case plog.WarnLevel:
		return levels.WarnLevel
	case plog.InfoLevel:
		return levels.InfoLevel
	case plog.DebugLevel:
		return levels.DebugLevel
	default:
		return levels.InfoLevel
	}
}

// parseLogLevel converts string log level to arbor levels.LogLevel
func parseLogLevel(level string) levels.LogLevel {
	switch strings.ToLower(level) {
	case "error":
		return levels.ErrorLevel
	case "warn", "warning":
		return levels.WarnLevel
	case "info":
		return levels.InfoLevel
	case "debug":
		return levels.DebugLevel
	default:
		return levels.InfoLevel
	}
}

// mapLevel maps arbor log levels to UI strings
func mapLevel(level levels.LogLevel) string {
	switch level {
	case levels.ErrorLevel:
		return "error"
	case levels.WarnLevel:
		return "warn"
	case levels.InfoLevel:
		return "info"
	case levels.DebugLevel:
		return "debug"
	default:
		return "info"
	}
}
