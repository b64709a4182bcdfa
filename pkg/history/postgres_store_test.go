package history

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPostgres(t *testing.T) *PostgresStore {
	t.Helper()
	dsn, ok := os.LookupEnv("FOCUS_TEST_POSTGRES_DSN")
	if !ok || dsn == "" {
		t.Skip("env FOCUS_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	store, err := OpenPostgres(ctx, dsn)
	if err != nil {
		t.Skipf("Postgres not available: %v", err)
	}
	_, err = store.db.ExecContext(ctx, `TRUNCATE sessions`)
	require.NoError(t, err)

	t.Cleanup(func() { assert.NoError(t, store.Close()) })
	return store
}

func TestOpenPostgres_RequiresDSN(t *testing.T) {
	_, err := OpenPostgres(context.Background(), "")
	assert.True(t, errors.Is(err, ErrNoDSN), "got %v", err)
}

func TestPostgresStore_RoundTrip(t *testing.T) {
	store := setupPostgres(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	older := sampleRecord(base)
	newer := sampleRecord(base.Add(time.Hour))
	require.NoError(t, store.Save(ctx, older))
	require.NoError(t, store.Save(ctx, newer))

	got, err := store.Get(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, older.FocusedDuration, got.FocusedDuration)
	assert.Equal(t, older.EmotionCounts, got.EmotionCounts)
	assert.True(t, older.EndedAt.Equal(got.EndedAt))

	newer.Frames = 99
	require.NoError(t, store.Save(ctx, newer))

	list, err := store.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, 99, list[0].Frames)

	_, err = store.Get(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}
