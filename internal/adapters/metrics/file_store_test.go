package metrics

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/spam-sentry/internal/core"
)

func TestFileStoreLoadMissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "metrics.json"), zap.NewNop())

	snapshot, err := store.Load(context.Background())
	require.NoError(t, err)

	assert.Zero(t, snapshot.TotalMessages)
	assert.Zero(t, snapshot.FilteredLocally)
	assert.Zero(t, snapshot.SentToAPI)
	assert.Zero(t, snapshot.SpamDetected)
	assert.WithinDuration(t, time.Now(), snapshot.StartDate, 5*time.Second)
}

func TestFileStoreSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.json")
	store := NewFileStore(path, zap.NewNop())

	start := time.Date(2025, 10, 1, 8, 30, 0, 0, time.UTC)
	original := &core.MetricsSnapshot{
		TotalMessages:   1200,
		FilteredLocally: 1100,
		SentToAPI:       100,
		SpamDetected:    37,
		StartDate:       start,
	}
	require.NoError(t, store.Save(context.Background(), original))

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, original.TotalMessages, loaded.TotalMessages)
	assert.Equal(t, original.FilteredLocally, loaded.FilteredLocally)
	assert.Equal(t, original.SentToAPI, loaded.SentToAPI)
	assert.Equal(t, original.SpamDetected, loaded.SpamDetected)
	assert.True(t, loaded.StartDate.Equal(start))
}

func TestFileStoreSaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.json")
	store := NewFileStore(path, zap.NewNop())

	snapshot := &core.MetricsSnapshot{TotalMessages: 1, StartDate: time.Now()}
	require.NoError(t, store.Save(context.Background(), snapshot))

	snapshot.TotalMessages = 2
	snapshot.SentToAPI = 1
	require.NoError(t, store.Save(context.Background(), snapshot))

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), loaded.TotalMessages)
	assert.Equal(t, int64(1), loaded.SentToAPI)
}
