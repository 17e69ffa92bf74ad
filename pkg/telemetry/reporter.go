package telemetry

import (
	"context"
	"time"

	"github.com/illmade-knight/go-investor/pkg/orchestrator"
	"github.com/rs/zerolog"
)

// Source is the part of an orchestrator a Reporter attaches to.
type Source[T any] interface {
	Resource() string
	Subscribe(obs orchestrator.Observer[T]) *orchestrator.Subscription
}

// Reporter turns terminal orchestrator states into published FetchEvents.
type Reporter[T any] struct {
	resource string
	pub      Publisher
	now      func() time.Time
	logger   zerolog.Logger
}

// NewReporter creates a reporter for resource.
func NewReporter[T any](resource string, pub Publisher, logger zerolog.Logger) *Reporter[T] {
	return &Reporter[T]{
		resource: resource,
		pub:      pub,
		now:      time.Now,
		logger:   logger.With().Str("component", "Reporter").Str("resource", resource).Logger(),
	}
}

// Attach subscribes a new Reporter to src.
func Attach[T any](src Source[T], pub Publisher, logger zerolog.Logger) *orchestrator.Subscription {
	return src.Subscribe(NewReporter[T](src.Resource(), pub, logger))
}

// OnState implements orchestrator.Observer. Publish failures are logged;
// telemetry never affects the state machine.
func (r *Reporter[T]) OnState(s orchestrator.State[T]) {
	ev, ok := EventFor(r.resource, s, r.now())
	if !ok {
		return
	}
	if err := r.pub.PublishEvent(context.Background(), ev); err != nil {
		r.logger.Warn().Err(err).Str("key", ev.Key).Msg("Failed to publish fetch event")
	}
}
