package cache

import (
	"context"
	"errors"
	"time"
)

// SizeRoutedStore sends payloads up to Threshold bytes to Small and larger
// ones to Large. A key lives in at most one backend: writing it to one
// clears the other.
type SizeRoutedStore struct {
	Small     Store
	Large     Store
	Threshold int
}

// NewSizeRoutedStore routes between a bounded store and an unbounded one.
func NewSizeRoutedStore(small, large Store, threshold int) *SizeRoutedStore {
	return &SizeRoutedStore{Small: small, Large: large, Threshold: threshold}
}

func (s *SizeRoutedStore) route(payload []byte) (target, other Store) {
	if len(payload) > s.Threshold {
		return s.Large, s.Small
	}
	return s.Small, s.Large
}

func (s *SizeRoutedStore) Put(ctx context.Context, key string, payload []byte, storedAt time.Time) error {
	target, other := s.route(payload)
	if err := target.Put(ctx, key, payload, storedAt); err != nil {
		return err
	}
	return other.Clear(ctx, key)
}

// Get returns the newer copy when both backends hold key, which can only
// happen after an interrupted Put.
func (s *SizeRoutedStore) Get(ctx context.Context, key string) ([]byte, time.Time, error) {
	smallPayload, smallAt, smallErr := s.Small.Get(ctx, key)
	largePayload, largeAt, largeErr := s.Large.Get(ctx, key)
	switch {
	case smallErr == nil && largeErr == nil:
		if largeAt.After(smallAt) {
			return largePayload, largeAt, nil
		}
		return smallPayload, smallAt, nil
	case smallErr == nil:
		return smallPayload, smallAt, nil
	case largeErr == nil:
		return largePayload, largeAt, nil
	case errors.Is(smallErr, ErrMiss) && errors.Is(largeErr, ErrMiss):
		return nil, time.Time{}, ErrMiss
	default:
		return nil, time.Time{}, errors.Join(smallErr, largeErr)
	}
}

func (s *SizeRoutedStore) Timestamp(ctx context.Context, key string) (time.Time, error) {
	smallAt, smallErr := s.Small.Timestamp(ctx, key)
	largeAt, largeErr := s.Large.Timestamp(ctx, key)
	switch {
	case smallErr == nil && largeErr == nil:
		if largeAt.After(smallAt) {
			return largeAt, nil
		}
		return smallAt, nil
	case smallErr == nil:
		return smallAt, nil
	case largeErr == nil:
		return largeAt, nil
	case errors.Is(smallErr, ErrMiss) && errors.Is(largeErr, ErrMiss):
		return time.Time{}, ErrMiss
	default:
		return time.Time{}, errors.Join(smallErr, largeErr)
	}
}

func (s *SizeRoutedStore) Clear(ctx context.Context, key string) error {
	return errors.Join(s.Small.Clear(ctx, key), s.Large.Clear(ctx, key))
}

func (s *SizeRoutedStore) Close() error {
	return errors.Join(s.Small.Close(), s.Large.Close())
}
