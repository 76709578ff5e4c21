package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	plog "github.com/phuslu/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	arbormodels "github.com/ternarybob/arbor/models"
	"github.com/tidwall/gjson"

	"github.com/ternarybob/memoria/internal/common"
	"github.com/ternarybob/memoria/internal/interfaces"
	"github.com/ternarybob/memoria/internal/models"
	"github.com/ternarybob/memoria/internal/services/events"
)

func wsServeMux(handler *WebSocketHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", handler.HandleWebSocket)
	return mux
}

func testLogBatch() []arbormodels.LogEvent {
	return []arbormodels.LogEvent{
		{Level: plog.DebugLevel, Timestamp: time.Now(), Message: "pump tick"},
		{Level: plog.InfoLevel, Timestamp: time.Now(), Message: "below min level"},
		{Level: plog.WarnLevel, Timestamp: time.Now(), Message: "backend unreachable"},
	}
}

func TestWebSocketHelloAndEventBroadcast(t *testing.T) {
	logger := common.GetLogger()
	bus := events.NewService(logger)
	handler := NewWebSocketHandler(bus, &fakeScheduler{}, logger, &common.WebSocketConfig{})

	server := httptest.NewServer(wsServeMux(handler))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	hello := gjson.ParseBytes(data)
	assert.Equal(t, "hello", hello.Get("type").String())
	assert.NotEmpty(t, hello.Get("payload.server_instance_id").String())
	assert.Equal(t, int64(7), hello.Get("payload.searched").Int())

	require.Eventually(t, func() bool { return handler.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, bus.PublishSync(context.Background(), interfaces.Event{
		Type: interfaces.EventImageFound,
		Payload: &models.ImageResult{
			EventID:  "ev-1",
			ImageURL: "https://img.example/a.jpg",
			Source:   "commons",
		},
	}))

	_, data, err = conn.ReadMessage()
	require.NoError(t, err)
	found := gjson.ParseBytes(data)
	assert.Equal(t, "image_found", found.Get("type").String())
	assert.Equal(t, "ev-1", found.Get("payload.event_id").String())
}

func TestWebSocketProgressThrottled(t *testing.T) {
	logger := common.GetLogger()
	bus := events.NewService(logger)
	handler := NewWebSocketHandler(bus, nil, logger, &common.WebSocketConfig{ProgressPerSecond: 1})

	server := httptest.NewServer(wsServeMux(handler))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err = conn.ReadMessage() // hello
	require.NoError(t, err)

	require.Eventually(t, func() bool { return handler.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	// burst of progress events; the limiter admits only the first
	for i := 0; i < 5; i++ {
		require.NoError(t, bus.PublishSync(context.Background(), interfaces.Event{
			Type:    interfaces.EventSearchProgress,
			Payload: &models.SearchProgress{Searched: i},
		}))
	}

	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "search_progress", gjson.ParseBytes(data).Get("type").String())

	conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err, "throttled progress events must not reach the client")
}

func TestLogStreamerFiltersAndForwards(t *testing.T) {
	logger := common.GetLogger()
	handler := NewWebSocketHandler(nil, nil, logger, nil)
	streamer := NewLogStreamer(handler, &common.WebSocketConfig{MinLevel: "warn"})
	streamer.Start()
	defer streamer.Stop()

	server := httptest.NewServer(wsServeMux(handler))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err = conn.ReadMessage() // hello
	require.NoError(t, err)

	require.Eventually(t, func() bool { return handler.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	streamer.Channel() <- testLogBatch()

	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	msg := gjson.ParseBytes(data)
	assert.Equal(t, "log", msg.Get("type").String())
	assert.Equal(t, "warn", msg.Get("payload.level").String())
	assert.Equal(t, "backend unreachable", msg.Get("payload.message").String())
}
