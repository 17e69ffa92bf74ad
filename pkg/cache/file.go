package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	payloadSuffix = ".bin"
	dirPerm       = 0o755
	filePerm      = 0o644
)

// FileStore keeps each slot as a payload file and a timestamp file inside a
// directory. Every file is replaced by writing a temp file in the same
// directory and renaming it over the target, so a crash leaves either the old
// or the new content, never a torn write. It has no size ceiling and is the
// backend for large listings.
type FileStore struct {
	dir    string
	logger zerolog.Logger

	// mu serialises the payload+timestamp pair for one store.
	mu sync.Mutex
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string, logger zerolog.Logger) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("file store directory is required")
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cache directory: %w", err)
	}
	if err := os.MkdirAll(absDir, dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	logger.Info().Str("dir", absDir).Msg("File cache store ready.")
	return &FileStore{
		dir:    absDir,
		logger: logger.With().Str("component", "FileStore").Logger(),
	}, nil
}

// Dir returns the directory the store writes to.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) payloadPath(key string) string {
	return filepath.Join(s.dir, escapeKey(key)+payloadSuffix)
}

func (s *FileStore) timestampPath(key string) string {
	return filepath.Join(s.dir, escapeKey(TimestampKey(key)))
}

// Put writes the payload first and the timestamp second. A crash between the
// two leaves the previous timestamp in place, which can only make the slot
// look older than it is.
func (s *FileStore) Put(_ context.Context, key string, payload []byte, storedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writeAtomic(s.payloadPath(key), payload); err != nil {
		return storageError(key, err, "failed to write payload for")
	}
	stamp := []byte(storedAt.UTC().Format(time.RFC3339Nano))
	if err := s.writeAtomic(s.timestampPath(key), stamp); err != nil {
		return storageError(key, err, "failed to write timestamp for")
	}
	s.logger.Debug().Str("key", key).Int("bytes", len(payload)).Msg("Stored cache slot.")
	return nil
}

func (s *FileStore) writeAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmpName, filePerm); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Get returns ErrMiss when the payload file does not exist. A payload
// without a timestamp file is returned with a zero time, i.e. as stale.
func (s *FileStore) Get(ctx context.Context, key string) ([]byte, time.Time, error) {
	payload, err := os.ReadFile(s.payloadPath(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, time.Time{}, ErrMiss
		}
		return nil, time.Time{}, fmt.Errorf("failed to read payload for %s: %w", key, err)
	}
	storedAt, err := s.Timestamp(ctx, key)
	if err != nil && !errors.Is(err, ErrMiss) {
		s.logger.Warn().Err(err).Str("key", key).Msg("Unreadable timestamp, treating slot as stale.")
	}
	return payload, storedAt, nil
}

// Timestamp reads the timestamp record of key.
func (s *FileStore) Timestamp(_ context.Context, key string) (time.Time, error) {
	raw, err := os.ReadFile(s.timestampPath(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return time.Time{}, ErrMiss
		}
		return time.Time{}, fmt.Errorf("failed to read timestamp for %s: %w", key, err)
	}
	storedAt, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(string(raw)))
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp for %s: %w", key, err)
	}
	return storedAt, nil
}

// Clear removes the timestamp first so a partially cleared slot reads as stale.
func (s *FileStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, path := range []string{s.timestampPath(key), s.payloadPath(key)} {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return storageError(key, err, "failed to clear")
		}
	}
	s.logger.Debug().Str("key", key).Msg("Cleared cache slot.")
	return nil
}

// Close is a no-op; the store holds no open files between calls.
func (s *FileStore) Close() error {
	return nil
}
