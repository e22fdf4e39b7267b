// Package events publishes pipeline progress over Redis Pub/Sub so external
// observers (the watch command, dashboards) can follow runs live. Delivery is
// at-most-once and purely advisory: the store remains the source of truth,
// and the pipeline runs fine with no publisher at all.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/bylinehq/byline/pkg/article"
)

// channel is the Pub/Sub channel carrying stage events.
const channel = "byline:stage_events"

// StageEvent announces one pipeline transition: a stage completing or an
// article changing status.
type StageEvent struct {
	ArticleID string         `json:"article_id"`
	Stage     article.Stage  `json:"stage,omitempty"` // Empty for pure status changes
	Agent     article.Role   `json:"agent,omitempty"`
	Status    article.Status `json:"status"`
	AtMs      int64          `json:"at_ms"` // Unix timestamp in milliseconds
}

// Publisher writes stage events to Redis. A nil Publisher is valid and drops
// every event, so callers never need to branch on whether events are enabled.
type Publisher struct {
	rdb *redis.Client
}

// NewPublisher creates a publisher for the given Redis options.
func NewPublisher(opts *redis.Options) *Publisher {
	return &Publisher{rdb: redis.NewClient(opts)}
}

// Close closes the Redis connection. Implements io.Closer.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.rdb.Close()
}

// Ping verifies Redis connectivity. Useful before starting a watch.
func (p *Publisher) Ping(ctx context.Context) error {
	if p == nil {
		return fmt.Errorf("events publisher not configured")
	}
	return p.rdb.Ping(ctx).Err()
}

// Publish sends one event. Failures are returned so the caller can log them,
// but publishing is never load-bearing: the engine logs and continues.
func (p *Publisher) Publish(ctx context.Context, ev StageEvent) error {
	if p == nil {
		return nil
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal stage event: %w", err)
	}

	if err := p.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish stage event: %w", err)
	}

	return nil
}

// Subscription is an active stream of stage events. Callers must Close it
// when done.
type Subscription struct {
	events <-chan StageEvent
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the event channel. Closed when the subscription ends.
func (s *Subscription) Events() <-chan StageEvent {
	return s.events
}

// Errors returns non-fatal subscription errors (bad payloads are skipped).
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription. Safe to call multiple times.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// Subscribe starts listening for stage events. Context cancellation also
// stops the subscription.
func (p *Publisher) Subscribe(ctx context.Context) (*Subscription, error) {
	if p == nil {
		return nil, fmt.Errorf("events publisher not configured")
	}

	pubsub := p.rdb.Subscribe(ctx, channel)

	eventsChan := make(chan StageEvent, 10)
	errorsChan := make(chan error, 10)
	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()

		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var ev StageEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to unmarshal stage event: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case eventsChan <- ev:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}
