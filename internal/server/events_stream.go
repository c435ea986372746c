package server

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/aristath/fofliquidity/internal/events"
)

const (
	streamBufferSize  = 100
	heartbeatInterval = 30 * time.Second
	writeTimeout      = 10 * time.Second
)

// EventsStreamHandler pushes bus events to websocket clients
type EventsStreamHandler struct {
	eventBus       *events.Bus
	originPatterns []string
	log            zerolog.Logger
}

// NewEventsStreamHandler creates a new events stream handler. allowedOrigins
// uses the CORS syntax; "*" accepts every origin.
func NewEventsStreamHandler(eventBus *events.Bus, allowedOrigins []string, log zerolog.Logger) *EventsStreamHandler {
	return &EventsStreamHandler{
		eventBus:       eventBus,
		originPatterns: originPatterns(allowedOrigins),
		log:            log.With().Str("component", "events_stream").Logger(),
	}
}

// ServeHTTP handles GET /api/events/ws. The optional types query parameter is
// a comma-separated list of event types to receive.
func (h *EventsStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("Websocket handshake failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	var types []events.EventType
	for _, t := range strings.Split(r.URL.Query().Get("types"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			types = append(types, events.EventType(t))
		}
	}

	h.log.Info().Int("types", len(types)).Msg("Client connected to event stream")

	// Bus handlers run on the publisher's goroutine and must not block
	eventChan := make(chan *events.Event, streamBufferSize)
	unsubscribe := h.eventBus.Subscribe(func(event *events.Event) {
		select {
		case eventChan <- event:
		default:
			h.log.Warn().
				Str("event_type", string(event.Type)).
				Msg("Event channel full, dropping event")
		}
	}, types...)
	defer unsubscribe()

	// Client messages are ignored; CloseRead cancels ctx when the client goes away
	ctx := conn.CloseRead(r.Context())

	if err := h.write(ctx, conn, map[string]interface{}{
		"type":    "connected",
		"message": "Connected to event stream",
	}); err != nil {
		return
	}

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Info().Msg("Client disconnected from event stream")
			conn.Close(websocket.StatusNormalClosure, "")
			return

		case event := <-eventChan:
			if err := h.write(ctx, conn, event); err != nil {
				return
			}

		case <-heartbeat.C:
			if err := h.write(ctx, conn, map[string]interface{}{
				"type":      "heartbeat",
				"timestamp": time.Now().Format(time.RFC3339),
			}); err != nil {
				return
			}
		}
	}
}

func (h *EventsStreamHandler) write(ctx context.Context, conn *websocket.Conn, v interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if err := wsjson.Write(ctx, conn, v); err != nil {
		h.log.Debug().Err(err).Msg("Failed to write to event stream")
		return err
	}
	return nil
}

// originPatterns converts CORS origins to the host patterns websocket.Accept
// matches against
func originPatterns(allowedOrigins []string) []string {
	patterns := make([]string, 0, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin == "*" {
			return []string{"*"}
		}
		if u, err := url.Parse(origin); err == nil && u.Host != "" {
			patterns = append(patterns, u.Host)
			continue
		}
		patterns = append(patterns, origin)
	}
	return patterns
}
