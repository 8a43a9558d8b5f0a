// file: internal/maintenance/maintenance_test.go
// version: 1.0.0
// guid: c5a2e8f0-7b34-4d19-96e1-2f8d0b4c7a53

package maintenance

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/jdfalk/speed-reader/internal/database"
	"github.com/jdfalk/speed-reader/internal/legacy"
	"github.com/jdfalk/speed-reader/internal/migration"
	"github.com/jdfalk/speed-reader/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mib = 1024 * 1024

func makeWords(n int) []string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	return words
}

func setupStores(t *testing.T) (*database.SQLiteStore, *legacy.Store, *legacy.MemoryBackend) {
	t.Helper()
	store, err := database.NewSQLiteStore(filepath.Join(t.TempDir(), "speedreader.db"), database.WithChunkSize(10))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	backend := legacy.NewMemoryBackend()
	return store, legacy.NewStore(backend, legacy.WithChunkSize(10)), backend
}

func putBook(t *testing.T, store database.ObjectStore, id string, words int) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.PutBook(ctx, &models.Book{
		ID:           id,
		FileName:     id + ".epub",
		Title:        id,
		Author:       "A",
		TotalWords:   words,
		LastReadDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, store.SaveWordChunks(ctx, id, makeWords(words)))
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		percent int
		want    Level
	}{
		{0, LevelOK},
		{70, LevelOK},
		{71, LevelWarning},
		{90, LevelWarning},
		{91, LevelCritical},
		{100, LevelCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelFor(tt.percent), "percent %d", tt.percent)
	}
}

func TestUsagePrefersLegacyEstimate(t *testing.T) {
	store, legacyStore, backend := setupStores(t)
	putBook(t, store, "b1", 25)
	require.NoError(t, backend.Set("k", "value"))

	m := NewMaintainer(store, legacyStore)
	rep := m.Usage(context.Background())

	want := legacyStore.EstimateUsage()
	assert.True(t, rep.LegacyAvailable)
	assert.Equal(t, want.UsedBytes, rep.UsedBytes)
	assert.Equal(t, want.TotalBytes, rep.TotalBytes)
	assert.Equal(t, want.UsedPercent, rep.UsedPercent)
	assert.Equal(t, 1, rep.BookCount)
	assert.Equal(t, 3, rep.ChunkCount)
	assert.Equal(t, LevelOK, rep.Level)
}

func TestUsageObjectStoreOnly(t *testing.T) {
	tests := []struct {
		name        string
		bytes       int64
		wantPercent int
		wantLevel   Level
	}{
		{"light", 5 * mib, 10, LevelOK},
		{"warning", 40 * mib, 80, LevelWarning},
		{"over budget caps at 100", 60 * mib, 100, LevelCritical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &database.MockStore{
				CountUsageFunc: func(ctx context.Context) (database.Usage, error) {
					return database.Usage{BookCount: 2, ChunkCount: 5, EstimatedBytes: tt.bytes}, nil
				},
			}
			rep := NewMaintainer(mock, nil).Usage(context.Background())

			assert.False(t, rep.LegacyAvailable)
			assert.Equal(t, DefaultObjectStoreBudget, rep.TotalBytes)
			assert.Equal(t, tt.bytes, rep.UsedBytes)
			assert.Equal(t, tt.wantPercent, rep.UsedPercent)
			assert.Equal(t, tt.wantLevel, rep.Level)
			assert.Equal(t, 2, rep.BookCount)
			assert.Equal(t, 5, rep.ChunkCount)
		})
	}
}

func TestUsageUnavailableLegacyFallsBack(t *testing.T) {
	store, legacyStore, backend := setupStores(t)
	require.NoError(t, backend.Close())

	rep := NewMaintainer(store, legacyStore, WithBudget(mib)).Usage(context.Background())
	assert.False(t, rep.LegacyAvailable)
	assert.Equal(t, int64(mib), rep.TotalBytes)
	assert.Positive(t, rep.UsedBytes)
}

func TestUsageIsCached(t *testing.T) {
	calls := 0
	mock := &database.MockStore{
		CountUsageFunc: func(ctx context.Context) (database.Usage, error) {
			calls++
			return database.Usage{ChunkCount: calls}, nil
		},
	}
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMaintainer(mock, nil, WithCacheTTL(time.Minute))
	m.Cache().WithClock(func() time.Time { return now })
	ctx := context.Background()

	assert.Equal(t, 1, m.Usage(ctx).ChunkCount)
	assert.Equal(t, 1, m.Usage(ctx).ChunkCount)

	now = now.Add(time.Minute)
	assert.Equal(t, 2, m.Usage(ctx).ChunkCount)

	m.CollectOrphans(ctx)
	assert.Equal(t, 3, m.Usage(ctx).ChunkCount)
}

func TestUsageCacheDisabled(t *testing.T) {
	calls := 0
	mock := &database.MockStore{
		CountUsageFunc: func(ctx context.Context) (database.Usage, error) {
			calls++
			return database.Usage{}, nil
		},
	}
	m := NewMaintainer(mock, nil, WithCacheTTL(0))
	m.Usage(context.Background())
	m.Usage(context.Background())
	assert.Equal(t, 2, calls)
}

func TestIsStorageLow(t *testing.T) {
	count := 0
	var countErr error
	mock := &database.MockStore{
		CountUsageFunc: func(ctx context.Context) (database.Usage, error) {
			return database.Usage{ChunkCount: count}, countErr
		},
	}
	m := NewMaintainer(mock, nil)
	ctx := context.Background()

	count = DefaultLowStorageThreshold
	assert.False(t, m.IsStorageLow(ctx))
	count = DefaultLowStorageThreshold + 1
	assert.True(t, m.IsStorageLow(ctx))

	countErr = errors.New("disk gone")
	assert.False(t, m.IsStorageLow(ctx))

	countErr = nil
	count = 6
	assert.True(t, NewMaintainer(mock, nil, WithLowThreshold(5)).IsStorageLow(ctx))
}

func TestCollectOrphansBothBackends(t *testing.T) {
	store, legacyStore, _ := setupStores(t)
	ctx := context.Background()

	putBook(t, store, "live", 15)
	require.NoError(t, store.SaveWordChunks(ctx, "ghost", makeWords(25)))
	require.True(t, legacyStore.SaveWords("live", makeWords(5)))
	require.True(t, legacyStore.SaveWords("ghost", makeWords(25)))

	m := NewMaintainer(store, legacyStore)
	res, err := m.Collect(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, res.ObjectChunks)
	// main key plus three chunk keys
	assert.Equal(t, 4, res.LegacyKeys)
	assert.True(t, res.Removed())

	refs, err := store.ListChunkRefs(ctx)
	require.NoError(t, err)
	require.Len(t, refs, 2)
	for _, ref := range refs {
		assert.Equal(t, "live", ref.BookID)
	}
	assert.Equal(t, []string{"live"}, legacyStore.WordBookIDs())
	assert.Equal(t, makeWords(5), legacyStore.LoadWords("live"))

	assert.False(t, m.CollectOrphans(ctx), "second pass has nothing left")
}

func TestCollectOrphansAfterCascade(t *testing.T) {
	store, legacyStore, _ := setupStores(t)
	ctx := context.Background()
	putBook(t, store, "gone", 12)
	require.NoError(t, store.RemoveBookCascade(ctx, "gone"))

	assert.False(t, NewMaintainer(store, legacyStore).CollectOrphans(ctx))
}

func TestCollectOrphansMigratesFirst(t *testing.T) {
	store, legacyStore, _ := setupStores(t)
	ctx := context.Background()
	require.NoError(t, legacyStore.SaveLibrary([]models.Book{{
		ID:           "old",
		FileName:     "old.epub",
		Title:        "Old",
		Author:       "A",
		TotalWords:   5,
		LastReadDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}}))
	require.True(t, legacyStore.SaveWords("old", makeWords(5)))

	engine := migration.NewEngine(legacyStore, store)
	m := NewMaintainer(store, legacyStore, WithMigrator(engine))

	assert.False(t, m.CollectOrphans(ctx))
	assert.True(t, engine.Done())
	assert.Equal(t, makeWords(5), legacyStore.LoadWords("old"))
}

func TestCollectOrphansStoreErrors(t *testing.T) {
	ctx := context.Background()

	listFails := &database.MockStore{
		ListChunkRefsFunc: func(ctx context.Context) ([]database.ChunkRef, error) {
			return nil, errors.New("locked")
		},
	}
	m := NewMaintainer(listFails, nil)
	_, err := m.Collect(ctx)
	assert.Error(t, err)
	assert.False(t, m.CollectOrphans(ctx))

	booksFail := &database.MockStore{
		GetAllBooksFunc: func(ctx context.Context) ([]models.Book, error) {
			return nil, errors.New("locked")
		},
	}
	assert.False(t, NewMaintainer(booksFail, nil).CollectOrphans(ctx))
}
