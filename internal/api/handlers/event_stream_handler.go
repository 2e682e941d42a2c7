package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tinysteps/report-service/internal/domain/providers"
	"github.com/tinysteps/report-service/internal/infrastructure/observability"
)

// EventStreamHandler streams report lifecycle events over Server-Sent Events
type EventStreamHandler struct {
	sink          providers.EventSink
	eventsChannel string
}

// NewEventStreamHandler creates a new event stream handler reading from the
// given events channel
func NewEventStreamHandler(sink providers.EventSink, eventsChannel string) *EventStreamHandler {
	return &EventStreamHandler{
		sink:          sink,
		eventsChannel: eventsChannel,
	}
}

// StreamReportEvents handles SSE connections for report lifecycle updates
// GET /api/v1/stream/reports?userId=X
func (h *EventStreamHandler) StreamReportEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// Optional filter: only forward events for one user's reports
	userID := r.URL.Query().Get("userId")

	eventChan, err := h.sink.Subscribe(r.Context(), h.eventsChannel)
	if err != nil {
		observability.LoggerFromContext(r.Context()).Error().
			Err(err).
			Str("channel", h.eventsChannel).
			Msg("failed to subscribe to report events")
		respondWithError(w, http.StatusInternalServerError, "failed to subscribe to report events")
		return
	}

	// Set headers for SSE
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	h.sendEvent(w, "connected", map[string]interface{}{
		"channel":   h.eventsChannel,
		"timestamp": time.Now(),
	})
	flusher.Flush()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			h.sendEvent(w, "heartbeat", map[string]interface{}{
				"timestamp": time.Now(),
			})
			flusher.Flush()
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event == nil {
				continue
			}
			if userID != "" && event.UserID != userID {
				continue
			}
			h.sendEvent(w, string(event.EventType), event)
			flusher.Flush()
		}
	}
}

func (h *EventStreamHandler) sendEvent(w http.ResponseWriter, eventType string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, payload)
}
