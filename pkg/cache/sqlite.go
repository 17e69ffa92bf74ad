package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/illmade-knight/go-investor/pkg/errkind"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // pure Go SQLite driver
)

// DefaultSQLiteMaxBytes is the payload ceiling of the small-value store.
const DefaultSQLiteMaxBytes = 2 << 20

const sqliteSchema = `CREATE TABLE IF NOT EXISTS cache_slots (
	key       TEXT PRIMARY KEY,
	payload   BLOB NOT NULL,
	stored_at INTEGER NOT NULL
)`

// SQLiteStore keeps slots as rows of a single table. The payload and its
// timestamp live in the same row, so one upsert replaces both atomically.
// Payloads above maxBytes are refused; route large values to a FileStore.
type SQLiteStore struct {
	db       *sql.DB
	ownsDB   bool
	maxBytes int
	logger   zerolog.Logger
}

// OpenSQLiteStore opens (or creates) the database at path.
func OpenSQLiteStore(path string, maxBytes int, logger zerolog.Logger) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	// SQLite serialises writers anyway.
	db.SetMaxOpenConns(1)

	s, err := NewSQLiteStore(context.Background(), db, maxBytes, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.ownsDB = true
	logger.Info().Str("path", path).Int("max_bytes", s.maxBytes).Msg("SQLite cache store ready.")
	return s, nil
}

// NewSQLiteStore uses an existing connection and creates the slot table if
// it is missing. The caller keeps ownership of db.
func NewSQLiteStore(ctx context.Context, db *sql.DB, maxBytes int, logger zerolog.Logger) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("sqlite db cannot be nil")
	}
	if maxBytes <= 0 {
		maxBytes = DefaultSQLiteMaxBytes
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return nil, fmt.Errorf("failed to create cache schema: %w", err)
	}
	return &SQLiteStore{
		db:       db,
		maxBytes: maxBytes,
		logger:   logger.With().Str("component", "SQLiteStore").Logger(),
	}, nil
}

// MaxBytes returns the payload ceiling.
func (s *SQLiteStore) MaxBytes() int {
	return s.maxBytes
}

// Put upserts the slot row.
func (s *SQLiteStore) Put(ctx context.Context, key string, payload []byte, storedAt time.Time) error {
	if len(payload) > s.maxBytes {
		return errkind.New(errkind.StorageError,
			fmt.Sprintf("payload for %s is %d bytes, limit is %d", key, len(payload), s.maxBytes))
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cache_slots (key, payload, stored_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, stored_at = excluded.stored_at`,
		key, payload, storedAt.UnixNano())
	if err != nil {
		return storageError(key, err, "failed to upsert")
	}
	s.logger.Debug().Str("key", key).Int("bytes", len(payload)).Msg("Stored cache slot.")
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, time.Time, error) {
	var payload []byte
	var nanos int64
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, stored_at FROM cache_slots WHERE key = ?`, key).Scan(&payload, &nanos)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, time.Time{}, ErrMiss
		}
		return nil, time.Time{}, fmt.Errorf("sqlite get for %s: %w", key, err)
	}
	return payload, time.Unix(0, nanos).UTC(), nil
}

func (s *SQLiteStore) Timestamp(ctx context.Context, key string) (time.Time, error) {
	var nanos int64
	err := s.db.QueryRowContext(ctx,
		`SELECT stored_at FROM cache_slots WHERE key = ?`, key).Scan(&nanos)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, ErrMiss
		}
		return time.Time{}, fmt.Errorf("sqlite timestamp for %s: %w", key, err)
	}
	return time.Unix(0, nanos).UTC(), nil
}

func (s *SQLiteStore) Clear(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cache_slots WHERE key = ?`, key); err != nil {
		return storageError(key, err, "failed to delete")
	}
	return nil
}

// Close closes the database only if the store opened it.
func (s *SQLiteStore) Close() error {
	if s.ownsDB {
		s.logger.Info().Msg("Closing SQLite cache store...")
		return s.db.Close()
	}
	return nil
}
