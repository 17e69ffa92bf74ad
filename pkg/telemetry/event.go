// Package telemetry reports the outcome of every fetch an orchestrator
// completes: whether data came fresh from the network, from the cache, as a
// stale fallback, or not at all.
package telemetry

import (
	"time"

	"github.com/google/uuid"
	"github.com/illmade-knight/go-investor/pkg/orchestrator"
)

// Outcome classifies a completed fetch.
type Outcome string

const (
	OutcomeFresh         Outcome = "fresh"
	OutcomeCacheHit      Outcome = "cache_hit"
	OutcomeStaleFallback Outcome = "stale_fallback"
	OutcomeFailed        Outcome = "failed"
)

// FetchEvent is the message published for each completed fetch.
type FetchEvent struct {
	ID        string    `json:"id"`
	Resource  string    `json:"resource"`
	Key       string    `json:"key"`
	Outcome   Outcome   `json:"outcome"`
	ErrorKind string    `json:"error_kind,omitempty"`
	FromCache bool      `json:"from_cache"`
	Stale     bool      `json:"stale"`
	At        time.Time `json:"at"`
}

// EventFor derives the event for a published state. Loading and cleared
// states are not terminal and yield false.
func EventFor[T any](resource string, s orchestrator.State[T], at time.Time) (FetchEvent, bool) {
	if s.IsLoading || s.Key == "" {
		return FetchEvent{}, false
	}
	ev := FetchEvent{
		ID:        uuid.NewString(),
		Resource:  resource,
		Key:       s.Key,
		FromCache: s.FromCache,
		Stale:     s.Stale,
		At:        at.UTC(),
	}
	switch {
	case s.LastError != nil && s.HasData && s.FromCache:
		ev.Outcome = OutcomeStaleFallback
	case s.LastError != nil:
		ev.Outcome = OutcomeFailed
	case s.FromCache:
		ev.Outcome = OutcomeCacheHit
	default:
		ev.Outcome = OutcomeFresh
	}
	if s.LastError != nil {
		ev.ErrorKind = s.LastError.Kind.String()
	}
	return ev, true
}

// Attributes are the message attributes subscribers filter on.
func (ev FetchEvent) Attributes() map[string]string {
	attrs := map[string]string{
		"resource": ev.Resource,
		"outcome":  string(ev.Outcome),
	}
	if ev.ErrorKind != "" {
		attrs["error_kind"] = ev.ErrorKind
	}
	return attrs
}
