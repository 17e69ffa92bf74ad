package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/rs/zerolog"
)

// resultTimeout bounds how long a queued event may wait for the server ack.
const resultTimeout = 30 * time.Second

// Publisher delivers fetch events to a sink.
type Publisher interface {
	PublishEvent(ctx context.Context, ev FetchEvent) error
	// Stop flushes pending events, bounded by ctx.
	Stop(ctx context.Context) error
}

// GooglePublisher sends each FetchEvent as a JSON Pub/Sub message. Events
// of one resource share an ordering key, so a subscriber sees a resource's
// outcomes in the order the orchestrator produced them.
type GooglePublisher struct {
	topic  *pubsub.Topic
	logger zerolog.Logger

	pending sync.WaitGroup
	sent    atomic.Int64
	failed  atomic.Int64
}

// NewGooglePublisher checks that topicID exists before returning.
func NewGooglePublisher(ctx context.Context, client *pubsub.Client, topicID string, logger zerolog.Logger) (*GooglePublisher, error) {
	if client == nil {
		return nil, fmt.Errorf("pubsub client cannot be nil")
	}
	topic := client.Topic(topicID)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check for topic %s: %w", topicID, err)
	}
	if !exists {
		return nil, fmt.Errorf("pubsub topic %s does not exist", topicID)
	}
	topic.EnableMessageOrdering = true

	return &GooglePublisher{
		topic:  topic,
		logger: logger.With().Str("component", "GooglePublisher").Str("topic_id", topicID).Logger(),
	}, nil
}

// PublishEvent queues ev and returns without waiting for the server. The
// outcome is logged when the ack arrives. A failed publish pauses the
// resource's ordering key; it is resumed so later events still flow.
func (p *GooglePublisher) PublishEvent(ctx context.Context, ev FetchEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode fetch event %s: %w", ev.ID, err)
	}
	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:        payload,
		Attributes:  ev.Attributes(),
		OrderingKey: ev.Resource,
	})

	p.pending.Add(1)
	go func() {
		defer p.pending.Done()
		getCtx, cancel := context.WithTimeout(context.Background(), resultTimeout)
		defer cancel()

		msgID, err := result.Get(getCtx)
		if err != nil {
			p.failed.Add(1)
			p.topic.ResumePublish(ev.Resource)
			p.logger.Error().Err(err).Str("event_id", ev.ID).Str("resource", ev.Resource).Msg("Failed to publish fetch event")
			return
		}
		p.sent.Add(1)
		p.logger.Debug().Str("published_msg_id", msgID).Str("outcome", string(ev.Outcome)).Msg("Fetch event sent.")
	}()
	return nil
}

// Sent counts events the server acknowledged.
func (p *GooglePublisher) Sent() int64 {
	return p.sent.Load()
}

// Failed counts events that could not be published.
func (p *GooglePublisher) Failed() int64 {
	return p.failed.Load()
}

// Stop flushes the topic and waits for every outstanding ack, giving up
// when ctx is done.
func (p *GooglePublisher) Stop(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.topic.Stop()
		p.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info().Int64("sent", p.Sent()).Int64("failed", p.Failed()).Msg("Fetch event publisher stopped.")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
