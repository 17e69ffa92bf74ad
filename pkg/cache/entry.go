package cache

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// Entry binds a Store to a TTL and a Codec for one resource kind.
type Entry[T any] struct {
	store  Store
	codec  Codec[T]
	ttl    time.Duration
	now    func() time.Time
	logger zerolog.Logger
}

// EntryOption customises an Entry.
type EntryOption func(*entryOptions)

type entryOptions struct {
	now func() time.Time
}

// WithClock replaces time.Now as the Entry's notion of the current time.
func WithClock(now func() time.Time) EntryOption {
	return func(o *entryOptions) {
		o.now = now
	}
}

// NewEntry creates a freshness policy over store.
func NewEntry[T any](store Store, codec Codec[T], ttl time.Duration, logger zerolog.Logger, opts ...EntryOption) *Entry[T] {
	o := entryOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Entry[T]{
		store:  store,
		codec:  codec,
		ttl:    ttl,
		now:    o.now,
		logger: logger.With().Str("component", "CacheEntry").Logger(),
	}
}

// TTL returns the freshness window.
func (e *Entry[T]) TTL() time.Duration {
	return e.ttl
}

// Now returns the Entry's current time.
func (e *Entry[T]) Now() time.Time {
	return e.now()
}

// IsValid reports whether key was written less than TTL ago.
func (e *Entry[T]) IsValid(ctx context.Context, key string) bool {
	storedAt, err := e.store.Timestamp(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			e.logger.Warn().Err(err).Str("key", key).Msg("Failed to read cache timestamp.")
		}
		return false
	}
	age := e.now().Sub(storedAt)
	valid := age < e.ttl
	if valid {
		e.logger.Debug().Str("key", key).Dur("expires_in", e.ttl-age).Msg("Cache valid.")
	} else {
		e.logger.Debug().Str("key", key).Dur("age", age).Msg("Cache expired.")
	}
	return valid
}

// ReadIfValid returns the cached value only while it is fresh. An expired
// slot is reported as a miss without being decoded.
func (e *Entry[T]) ReadIfValid(ctx context.Context, key string) (T, time.Time, bool) {
	if !e.IsValid(ctx, key) {
		var zero T
		return zero, time.Time{}, false
	}
	return e.read(ctx, key)
}

// ReadBestEffort returns the cached value regardless of age. It is the
// fallback used when a live fetch has failed.
func (e *Entry[T]) ReadBestEffort(ctx context.Context, key string) (T, time.Time, bool) {
	return e.read(ctx, key)
}

func (e *Entry[T]) read(ctx context.Context, key string) (T, time.Time, bool) {
	value, storedAt, err := Get(ctx, e.store, key, e.codec, e.logger)
	if err != nil {
		var zero T
		return zero, time.Time{}, false
	}
	return value, storedAt, true
}

// Write stores value under key stamped with the current time, which it returns.
func (e *Entry[T]) Write(ctx context.Context, key string, value T) (time.Time, error) {
	now := e.now()
	if err := Put(ctx, e.store, key, value, e.codec, now); err != nil {
		return time.Time{}, err
	}
	return now, nil
}

// StoredAt returns when key was last written.
func (e *Entry[T]) StoredAt(ctx context.Context, key string) (time.Time, bool) {
	storedAt, err := e.store.Timestamp(ctx, key)
	if err != nil {
		return time.Time{}, false
	}
	return storedAt, true
}

// Clear removes key.
func (e *Entry[T]) Clear(ctx context.Context, key string) error {
	return e.store.Clear(ctx, key)
}
