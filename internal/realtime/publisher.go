// Package realtime relays domain events to Redis pub/sub so dashboard
// gateways on other instances can push live updates to connected clients.
package realtime

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nixolabs/triage-service/internal/events"
)

// Publisher re-publishes dispatcher events as JSON on a Redis channel.
// Publishing is fire-and-forget: a Redis outage never affects the pipeline.
type Publisher struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

// NewPublisher creates the relay.
func NewPublisher(client *redis.Client, channel string, logger *zap.Logger) *Publisher {
	return &Publisher{client: client, channel: channel, logger: logger}
}

// RegisterHandlers subscribes the relay to every ticket event type.
func (p *Publisher) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	for _, eventType := range []events.EventType{
		events.EventTicketCreated,
		events.EventTicketUpdated,
		events.EventTicketDeleted,
		events.EventTicketMessageAdded,
	} {
		dispatcher.Subscribe(eventType, p.relay)
	}
}

func (p *Publisher) relay(ctx context.Context, event events.Event) error {
	if p.client == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn("failed to encode event", zap.Error(err))
		return nil
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		p.logger.Warn("failed to publish event",
			zap.String("channel", p.channel),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
	}
	return nil
}
