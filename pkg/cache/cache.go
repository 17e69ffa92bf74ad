// Package cache provides the persistent, timestamped slot store that sits
// between the investor API and the UI, plus the TTL policy wrapped around it.
package cache

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/illmade-knight/go-investor/pkg/errkind"
	"github.com/rs/zerolog"
)

// ErrMiss is returned when a slot holds no usable value.
var ErrMiss = errors.New("cache miss")

// Freshness policy per resource kind.
const (
	StockListTTL = 24 * time.Hour
	HomeTTL      = 5 * time.Minute
	OverviewTTL  = 15 * time.Minute
)

// Store is a keyed, timestamped byte store. Each key has one payload and one
// paired timestamp record; Put replaces both, Clear removes both.
type Store interface {
	// Put writes payload and its timestamp atomically. Failures are
	// errkind.StorageError.
	Put(ctx context.Context, key string, payload []byte, storedAt time.Time) error
	// Get returns the payload and the time it was stored, or ErrMiss.
	Get(ctx context.Context, key string) ([]byte, time.Time, error)
	// Timestamp returns when key was last written, or ErrMiss.
	Timestamp(ctx context.Context, key string) (time.Time, error)
	// Clear removes key. Clearing an absent key is not an error.
	Clear(ctx context.Context, key string) error
	io.Closer
}

// Put encodes value with codec and writes it under key.
func Put[T any](ctx context.Context, s Store, key string, value T, codec Codec[T], storedAt time.Time) error {
	payload, err := codec.Encode(value)
	if err != nil {
		return errkind.Wrap(errkind.StorageError, err, "encode "+key)
	}
	return s.Put(ctx, key, payload, storedAt)
}

// Get reads and decodes key. Storage failures and payloads that fail to
// decode are logged and reported as ErrMiss: a broken slot behaves as an
// empty one.
func Get[T any](ctx context.Context, s Store, key string, codec Codec[T], logger zerolog.Logger) (T, time.Time, error) {
	var zero T
	payload, storedAt, err := s.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			logger.Warn().Err(err).Str("key", key).Msg("Cache read failed, treating as miss.")
		}
		return zero, time.Time{}, ErrMiss
	}
	value, err := codec.Decode(payload)
	if err != nil {
		logger.Warn().Err(err).Str("key", key).Int("bytes", len(payload)).Msg("Cached payload failed to decode, treating as miss.")
		return zero, time.Time{}, ErrMiss
	}
	return value, storedAt, nil
}

// HomeKey is the slot of the home screen aggregate.
const HomeKey = "home"

// StockListKey returns the slot of a country's stock list.
func StockListKey(country string) string {
	return "stock_list:" + strings.ToUpper(country)
}

// OverviewKey returns the slot of a symbol's overview.
func OverviewKey(symbol string) string {
	return "stock_overview:" + strings.ToUpper(symbol)
}

// TimestampKey names the timestamp record paired with key.
func TimestampKey(key string) string {
	return key + ".timestamp"
}

// escapeKey maps a key onto a name that is safe as a file name, object name
// or document id.
func escapeKey(key string) string {
	return url.QueryEscape(key)
}

func storageError(key string, err error, msg string) error {
	return errkind.Wrap(errkind.StorageError, err, msg+" "+key)
}
