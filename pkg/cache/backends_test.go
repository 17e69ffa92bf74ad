package cache_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/illmade-knight/go-investor/pkg/cache"
	"github.com/illmade-knight/go-investor/pkg/errkind"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	t.Run("malformed bytes written on disk read as a miss", func(t *testing.T) {
		dir := t.TempDir()
		s, err := cache.NewFileStore(dir, zerolog.Nop())
		require.NoError(t, err)

		require.NoError(t, os.WriteFile(filepath.Join(dir, "home.bin"), []byte{0xff, 0x00, 0x13}, 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "home.timestamp"), []byte(now.Format(time.RFC3339Nano)), 0o644))

		_, _, err = cache.Get(ctx, s, cache.HomeKey, cache.JSONCodec[map[string]any]{}, zerolog.Nop())
		assert.ErrorIs(t, err, cache.ErrMiss)
	})

	t.Run("payload without timestamp is returned as stale", func(t *testing.T) {
		dir := t.TempDir()
		s, err := cache.NewFileStore(dir, zerolog.Nop())
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "home.bin"), []byte(`{}`), 0o644))

		payload, at, err := s.Get(ctx, cache.HomeKey)
		require.NoError(t, err)
		assert.Equal(t, []byte(`{}`), payload)
		assert.True(t, at.IsZero())
	})

	t.Run("writes leave no temp files behind", func(t *testing.T) {
		dir := t.TempDir()
		s, err := cache.NewFileStore(dir, zerolog.Nop())
		require.NoError(t, err)
		require.NoError(t, s.Put(ctx, cache.StockListKey("US"), []byte("x"), now))
		require.NoError(t, s.Put(ctx, cache.StockListKey("US"), []byte("y"), now))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		assert.ElementsMatch(t, []string{"stock_list%3AUS.bin", "stock_list%3AUS.timestamp"}, names)
	})

	t.Run("requires a directory", func(t *testing.T) {
		_, err := cache.NewFileStore("", zerolog.Nop())
		assert.Error(t, err)
	})
}

func TestSQLiteStore_RejectsOversizedPayload(t *testing.T) {
	ctx := context.Background()
	s, err := cache.OpenSQLiteStore(filepath.Join(t.TempDir(), "nested", "cache.db"), 16, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	assert.Equal(t, 16, s.MaxBytes())

	err = s.Put(ctx, cache.HomeKey, make([]byte, 17), time.Now())
	require.Error(t, err)
	assert.Equal(t, errkind.StorageError, errkind.KindOf(err))

	_, _, err = s.Get(ctx, cache.HomeKey)
	assert.ErrorIs(t, err, cache.ErrMiss)
}

func TestSizeRoutedStore(t *testing.T) {
	ctx := context.Background()
	small := cache.NewMemoryStore()
	large := cache.NewMemoryStore()
	s := cache.NewSizeRoutedStore(small, large, 8)
	now := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
	key := cache.StockListKey("US")

	t.Run("large payloads go to the large backend", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, key, []byte("0123456789"), now))
		assert.Equal(t, 0, small.Len())
		assert.Equal(t, 1, large.Len())
	})

	t.Run("shrinking moves the slot and clears the old copy", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, key, []byte("tiny"), now.Add(time.Second)))
		assert.Equal(t, 1, small.Len())
		assert.Equal(t, 0, large.Len())

		payload, _, err := s.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []byte("tiny"), payload)
	})

	t.Run("newest copy wins when both backends hold the key", func(t *testing.T) {
		require.NoError(t, large.Put(ctx, key, []byte("newer-large"), now.Add(time.Hour)))

		payload, at, err := s.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []byte("newer-large"), payload)
		assert.True(t, at.Equal(now.Add(time.Hour)))

		ts, err := s.Timestamp(ctx, key)
		require.NoError(t, err)
		assert.True(t, ts.Equal(now.Add(time.Hour)))
	})

	t.Run("clear empties both", func(t *testing.T) {
		require.NoError(t, s.Clear(ctx, key))
		assert.Equal(t, 0, small.Len())
		assert.Equal(t, 0, large.Len())
	})
}

func TestLRUStore_Eviction(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	_, err := cache.NewLRUStore(0)
	require.Error(t, err)

	s, err := cache.NewLRUStore(2)
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, cache.OverviewKey("AAPL"), []byte("a"), now))
	require.NoError(t, s.Put(ctx, cache.OverviewKey("MSFT"), []byte("m"), now))

	// Touch AAPL so MSFT becomes the least recently used.
	_, _, err = s.Get(ctx, cache.OverviewKey("AAPL"))
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, cache.OverviewKey("NFLX"), []byte("n"), now))
	assert.Equal(t, 2, s.Len())

	_, _, err = s.Get(ctx, cache.OverviewKey("MSFT"))
	assert.ErrorIs(t, err, cache.ErrMiss)
	_, _, err = s.Get(ctx, cache.OverviewKey("AAPL"))
	assert.NoError(t, err)
	_, _, err = s.Get(ctx, cache.OverviewKey("NFLX"))
	assert.NoError(t, err)

	t.Run("overwrite does not grow the store", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, cache.OverviewKey("NFLX"), []byte("n2"), now))
		assert.Equal(t, 2, s.Len())
	})
}
