package providers

import (
	"context"

	"github.com/tinysteps/report-service/internal/domain/entities"
)

// EventSink defines the interface for publishing report lifecycle events
type EventSink interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.ReportEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.ReportEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event sink and all subscriptions
	Close() error
}
