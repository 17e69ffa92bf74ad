//go:build integration

package cache_test

import (
	"context"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/illmade-knight/go-investor/pkg/cache"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirestoreStore_Integration(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	const projectID = "test-project"
	const collectionName = "cache-slots"

	client, err := firestore.NewClient(ctx, projectID)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	s, err := cache.NewFirestoreStore(&cache.FirestoreConfig{ProjectID: projectID, CollectionName: collectionName}, client, zerolog.Nop())
	require.NoError(t, err)

	key := cache.StockListKey("US")
	storedAt := time.Date(2026, 6, 1, 8, 30, 0, 0, time.UTC)

	t.Run("Put, Get, and Clear cycle", func(t *testing.T) {
		// Act 1: Put a slot
		require.NoError(t, s.Put(ctx, key, []byte(`[{"symbol":"AAPL"}]`), storedAt))

		// Assert 1: Verify directly in Firestore that the document exists
		doc, err := client.Collection(collectionName).Doc("stock_list%3AUS").Get(ctx)
		require.NoError(t, err)
		require.True(t, doc.Exists())

		// Act 2: Read it back
		payload, at, err := s.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []byte(`[{"symbol":"AAPL"}]`), payload)
		assert.True(t, at.Equal(storedAt))

		// Act 3: Clear twice
		require.NoError(t, s.Clear(ctx, key))
		require.NoError(t, s.Clear(ctx, key))

		_, _, err = s.Get(ctx, key)
		assert.ErrorIs(t, err, cache.ErrMiss)
	})
}
