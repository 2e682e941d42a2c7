package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/tinysteps/report-service/internal/domain/entities"
	"github.com/tinysteps/report-service/internal/domain/providers"
	redisclient "github.com/tinysteps/report-service/internal/infrastructure/clients/redis"
)

// RedisEventSink implements the EventSink interface using Redis Pub/Sub
type RedisEventSink struct {
	client        *redisclient.Client
	subscriptions map[string]*redis.PubSub
	subscribers   map[string]map[chan *entities.ReportEvent]struct{}
	mu            sync.RWMutex
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewRedisEventSink creates a new Redis-based event sink
func NewRedisEventSink(client *redisclient.Client) providers.EventSink {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisEventSink{
		client:        client,
		subscriptions: make(map[string]*redis.PubSub),
		subscribers:   make(map[string]map[chan *entities.ReportEvent]struct{}),
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Publish publishes an event to all subscribers
func (s *RedisEventSink) Publish(ctx context.Context, channel string, event *entities.ReportEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := s.client.Client().Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	log.Debug().
		Str("channel", channel).
		Str("report_id", event.ReportID).
		Str("event_type", string(event.EventType)).
		Msg("published report event")
	return nil
}

// Subscribe subscribes to events on a channel
func (s *RedisEventSink) Subscribe(ctx context.Context, channel string) (<-chan *entities.ReportEvent, error) {
	s.mu.Lock()

	if _, exists := s.subscriptions[channel]; !exists {
		pubsub := s.client.Client().Subscribe(s.ctx, channel)
		s.subscriptions[channel] = pubsub
		go s.receiveMessages(channel, pubsub)
	}

	if s.subscribers[channel] == nil {
		s.subscribers[channel] = make(map[chan *entities.ReportEvent]struct{})
	}

	eventChan := make(chan *entities.ReportEvent, 100)
	s.subscribers[channel][eventChan] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.removeSubscriber(channel, eventChan)
	}()

	return eventChan, nil
}

// receiveMessages receives messages from Redis and broadcasts them to subscribers
func (s *RedisEventSink) receiveMessages(channel string, pubsub *redis.PubSub) {
	defer func() {
		if err := s.cleanupChannel(channel); err != nil {
			log.Error().Err(err).Str("channel", channel).Msg("failed to cleanup channel")
		}
	}()

	ch := pubsub.Channel()
	for {
		select {
		case <-s.ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}

			var event entities.ReportEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Error().Err(err).Str("channel", channel).Msg("failed to unmarshal report event")
				continue
			}

			s.mu.RLock()
			subscribers := s.subscribers[channel]
			for subscriber := range subscribers {
				select {
				case subscriber <- &event:
				default:
					// Subscriber channel full, skip event
					log.Warn().Str("channel", channel).Str("report_id", event.ReportID).Msg("subscriber channel full, skipping event")
				}
			}
			s.mu.RUnlock()
		}
	}
}

func (s *RedisEventSink) removeSubscriber(channel string, eventChan chan *entities.ReportEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subscribers, exists := s.subscribers[channel]
	if !exists {
		return
	}

	if _, ok := subscribers[eventChan]; !ok {
		return
	}

	delete(subscribers, eventChan)
	close(eventChan)

	if len(subscribers) == 0 {
		delete(s.subscribers, channel)
		if pubsub, ok := s.subscriptions[channel]; ok {
			_ = pubsub.Close()
			delete(s.subscriptions, channel)
		}
	}
}

func (s *RedisEventSink) cleanupChannel(channel string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	subscribers, exists := s.subscribers[channel]
	if exists {
		for subscriber := range subscribers {
			close(subscriber)
		}
		delete(s.subscribers, channel)
	}

	if pubsub, ok := s.subscriptions[channel]; ok {
		if err := pubsub.Close(); err != nil {
			return fmt.Errorf("failed to close subscription %s: %w", channel, err)
		}
		delete(s.subscriptions, channel)
	}

	return nil
}

// Unsubscribe unsubscribes from a channel
func (s *RedisEventSink) Unsubscribe(ctx context.Context, channel string) error {
	return s.cleanupChannel(channel)
}

// Close closes the event sink and all subscriptions
func (s *RedisEventSink) Close() error {
	s.cancel()

	s.mu.RLock()
	channels := make([]string, 0, len(s.subscriptions))
	for channel := range s.subscriptions {
		channels = append(channels, channel)
	}
	s.mu.RUnlock()

	var errs []error
	for _, channel := range channels {
		if err := s.cleanupChannel(channel); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing event sink: %v", errs)
	}

	return nil
}
