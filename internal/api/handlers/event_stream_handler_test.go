package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinysteps/report-service/internal/domain/entities"
)

type streamSink struct {
	events chan *entities.ReportEvent
}

func newStreamSink() *streamSink {
	return &streamSink{events: make(chan *entities.ReportEvent, 10)}
}

func (s *streamSink) Publish(ctx context.Context, channel string, event *entities.ReportEvent) error {
	s.events <- event
	return nil
}

func (s *streamSink) Subscribe(ctx context.Context, channel string) (<-chan *entities.ReportEvent, error) {
	return s.events, nil
}

func (s *streamSink) Unsubscribe(ctx context.Context, channel string) error { return nil }
func (s *streamSink) Close() error                                          { return nil }

func streamEvents(t *testing.T, target string, events ...*entities.ReportEvent) string {
	t.Helper()

	sink := newStreamSink()
	handler := NewEventStreamHandler(sink, "report-events")

	for _, event := range events {
		sink.events <- event
	}

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, target, nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		handler.StreamReportEvents(rec, req)
		close(done)
	}()

	// Wait until the handler has drained every queued event, then disconnect
	require.Eventually(t, func() bool { return len(sink.events) == 0 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for stream handler to return")
	}

	return rec.Body.String()
}

func TestStreamReportEvents(t *testing.T) {
	event := &entities.ReportEvent{
		EventType:  entities.ReportEventTypeGenerated,
		ReportID:   "rep-1",
		ReportType: entities.ReportTypeAppointmentSummary,
		UserID:     "user-1",
		Timestamp:  time.Now(),
	}

	body := streamEvents(t, "/api/v1/stream/reports", event)

	assert.Contains(t, body, "event: connected")
	assert.Contains(t, body, "event: REPORT_GENERATED")
	assert.Contains(t, body, `"report_id":"rep-1"`)
}

func TestStreamReportEvents_UserFilter(t *testing.T) {
	mine := &entities.ReportEvent{
		EventType: entities.ReportEventTypeGenerated,
		ReportID:  "rep-mine",
		UserID:    "user-1",
		Timestamp: time.Now(),
	}
	other := &entities.ReportEvent{
		EventType: entities.ReportEventTypeFailed,
		ReportID:  "rep-other",
		UserID:    "user-2",
		Timestamp: time.Now(),
	}

	body := streamEvents(t, "/api/v1/stream/reports?userId=user-1", other, mine)

	assert.Contains(t, body, "rep-mine")
	assert.NotContains(t, body, "rep-other")
}
