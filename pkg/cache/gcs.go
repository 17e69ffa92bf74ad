package cache

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"github.com/rs/zerolog"
)

const gcsStoredAtKey = "stored-at"

// GCSConfig holds configuration for the bucket-backed store.
type GCSConfig struct {
	BucketName   string
	ObjectPrefix string
}

// GCSStore keeps each slot as one gzip-compressed object whose custom
// metadata carries the timestamp. An upload only becomes visible when the
// writer closes, so payload and timestamp are replaced together.
type GCSStore struct {
	bucket GCSBucketHandle
	prefix string
	logger zerolog.Logger
}

// NewGCSStore creates a store over the configured bucket.
func NewGCSStore(client GCSClient, cfg *GCSConfig, logger zerolog.Logger) (*GCSStore, error) {
	if client == nil {
		return nil, errors.New("gcs client cannot be nil")
	}
	if cfg.BucketName == "" {
		return nil, errors.New("gcs bucket name is required")
	}
	logger.Info().Str("bucket", cfg.BucketName).Str("prefix", cfg.ObjectPrefix).Msg("GCSStore initialized.")
	return &GCSStore{
		bucket: client.Bucket(cfg.BucketName),
		prefix: cfg.ObjectPrefix,
		logger: logger.With().Str("component", "GCSStore").Logger(),
	}, nil
}

func (s *GCSStore) object(key string) GCSObjectHandle {
	return s.bucket.Object(s.prefix + escapeKey(key) + ".gz")
}

// Put uploads the slot. A failed write cancels the upload context so the
// partial object is never committed.
func (s *GCSStore) Put(ctx context.Context, key string, payload []byte, storedAt time.Time) error {
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := s.object(key).NewWriter(wctx)
	w.SetAttrs("application/octet-stream", "gzip", map[string]string{
		gcsStoredAtKey: storedAt.UTC().Format(time.RFC3339Nano),
	})

	gz := gzip.NewWriter(w)
	if _, err := gz.Write(payload); err != nil {
		cancel()
		return storageError(key, err, "failed to compress payload for")
	}
	if err := gz.Close(); err != nil {
		cancel()
		return storageError(key, err, "failed to finish gzip stream for")
	}
	if err := w.Close(); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Failed to upload slot to GCS.")
		return storageError(key, err, "failed to upload")
	}
	s.logger.Debug().Str("key", key).Int("bytes", len(payload)).Msg("Uploaded slot to GCS.")
	return nil
}

func (s *GCSStore) Get(ctx context.Context, key string) ([]byte, time.Time, error) {
	obj := s.object(key)
	r, err := obj.NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, time.Time{}, ErrMiss
		}
		return nil, time.Time{}, fmt.Errorf("gcs read for %s: %w", key, err)
	}
	defer func() { _ = r.Close() }()

	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("gcs payload for %s is not gzip: %w", key, err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, gz); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to decompress %s: %w", key, err)
	}

	storedAt, err := s.Timestamp(ctx, key)
	if err != nil {
		if errors.Is(err, ErrMiss) {
			return nil, time.Time{}, ErrMiss
		}
		s.logger.Warn().Err(err).Str("key", key).Msg("Unreadable timestamp, treating slot as stale.")
		storedAt = time.Time{}
	}
	return buf.Bytes(), storedAt, nil
}

func (s *GCSStore) Timestamp(ctx context.Context, key string) (time.Time, error) {
	md, err := s.object(key).Metadata(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return time.Time{}, ErrMiss
		}
		return time.Time{}, fmt.Errorf("gcs attrs for %s: %w", key, err)
	}
	stamp, ok := md[gcsStoredAtKey]
	if !ok {
		return time.Time{}, fmt.Errorf("object for %s has no %s metadata", key, gcsStoredAtKey)
	}
	storedAt, err := time.Parse(time.RFC3339Nano, stamp)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp for %s: %w", key, err)
	}
	return storedAt, nil
}

// Clear deletes the object. A missing object is not an error.
func (s *GCSStore) Clear(ctx context.Context, key string) error {
	if err := s.object(key).Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return storageError(key, err, "gcs delete for")
	}
	return nil
}

// Close is a no-op; the storage client is owned by the caller.
func (s *GCSStore) Close() error {
	return nil
}
