package cache

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreConfig holds configuration for the Firestore-backed store.
type FirestoreConfig struct {
	ProjectID      string
	CollectionName string
}

// firestoreSlot is the document shape of one slot. Payload and timestamp
// share a document, so a single Set replaces both.
type firestoreSlot struct {
	Payload  []byte    `firestore:"payload"`
	StoredAt time.Time `firestore:"stored_at"`
}

// FirestoreStore mirrors slots to a Firestore collection so a signed-in user
// gets a warm cache on a fresh device. Intended for low write volumes.
type FirestoreStore struct {
	client         *firestore.Client
	collectionName string
	logger         zerolog.Logger
}

// NewFirestoreStore wraps an existing client; its lifecycle stays with the caller.
func NewFirestoreStore(cfg *FirestoreConfig, client *firestore.Client, logger zerolog.Logger) (*FirestoreStore, error) {
	if client == nil {
		return nil, fmt.Errorf("firestore client cannot be nil")
	}
	if cfg.CollectionName == "" {
		return nil, fmt.Errorf("firestore collection name is required")
	}

	logger.Info().Str("project_id", cfg.ProjectID).Str("collection", cfg.CollectionName).Msg("FirestoreStore initialized.")

	return &FirestoreStore{
		client:         client,
		collectionName: cfg.CollectionName,
		logger:         logger.With().Str("component", "FirestoreStore").Logger(),
	}, nil
}

func (s *FirestoreStore) doc(key string) *firestore.DocumentRef {
	return s.client.Collection(s.collectionName).Doc(escapeKey(key))
}

func (s *FirestoreStore) Put(ctx context.Context, key string, payload []byte, storedAt time.Time) error {
	_, err := s.doc(key).Set(ctx, firestoreSlot{Payload: payload, StoredAt: storedAt.UTC()})
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Failed to write slot to Firestore.")
		return storageError(key, err, "firestore set for")
	}
	s.logger.Debug().Str("key", key).Msg("Successfully wrote slot to Firestore.")
	return nil
}

func (s *FirestoreStore) get(ctx context.Context, key string) (firestoreSlot, error) {
	var slot firestoreSlot
	snap, err := s.doc(key).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return slot, ErrMiss
		}
		s.logger.Error().Err(err).Str("key", key).Msg("Failed to get slot from Firestore.")
		return slot, fmt.Errorf("firestore get for %s: %w", key, err)
	}
	if err := snap.DataTo(&slot); err != nil {
		return slot, fmt.Errorf("firestore DataTo for %s: %w", key, err)
	}
	return slot, nil
}

func (s *FirestoreStore) Get(ctx context.Context, key string) ([]byte, time.Time, error) {
	slot, err := s.get(ctx, key)
	if err != nil {
		return nil, time.Time{}, err
	}
	return slot.Payload, slot.StoredAt, nil
}

func (s *FirestoreStore) Timestamp(ctx context.Context, key string) (time.Time, error) {
	slot, err := s.get(ctx, key)
	if err != nil {
		return time.Time{}, err
	}
	return slot.StoredAt, nil
}

// Clear deletes the slot document. Deleting a missing document succeeds.
func (s *FirestoreStore) Clear(ctx context.Context, key string) error {
	if _, err := s.doc(key).Delete(ctx); err != nil {
		return storageError(key, err, "firestore delete for")
	}
	return nil
}

// Close is a no-op as the Firestore client's lifecycle is managed externally.
func (s *FirestoreStore) Close() error {
	s.logger.Info().Msg("FirestoreStore does not close the injected Firestore client.")
	return nil
}
