// file: internal/library/manager_test.go
// version: 1.0.0
// guid: 0f6b3a9d-c2e8-4715-b4d1-9a7e5c3f2b68

package library

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jdfalk/speed-reader/internal/database"
	"github.com/jdfalk/speed-reader/internal/legacy"
	"github.com/jdfalk/speed-reader/internal/migration"
	"github.com/jdfalk/speed-reader/internal/models"
	"github.com/jdfalk/speed-reader/internal/wordstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func makeWords(n int) []string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	return words
}

type fixture struct {
	mgr     *Manager
	store   *database.SQLiteStore
	legacy  *legacy.Store
	backend *legacy.MemoryBackend
	words   *wordstore.Facade
}

// setupManager wires a manager over a temp SQLite store and a memory legacy store
func setupManager(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	store, err := database.NewSQLiteStore(filepath.Join(t.TempDir(), "speedreader.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	backend := legacy.NewMemoryBackend()
	legacyStore := legacy.NewStore(backend)
	words := wordstore.NewFacade(store, legacyStore)
	t.Cleanup(func() {
		words.Close()
		store.Close()
	})
	opts = append([]Option{WithWords(words), WithClock(func() time.Time { return fixedNow })}, opts...)
	return &fixture{
		mgr:     NewManager(store, legacyStore, opts...),
		store:   store,
		legacy:  legacyStore,
		backend: backend,
		words:   words,
	}
}

func TestNewBookDefaults(t *testing.T) {
	f := setupManager(t)

	book := f.mgr.NewBook("/books/My Great Novel.epub", "", "", makeWords(5), nil)

	assert.Equal(t, "My Great Novel", book.Title)
	assert.Equal(t, models.DefaultAuthor, book.Author)
	assert.Equal(t, 5, book.TotalWords)
	assert.Equal(t, fixedNow, book.LastReadDate)
	assert.True(t, strings.HasPrefix(book.ID, "my-great-novel-"), book.ID)
	require.Len(t, book.Chapters, 1)
	assert.Equal(t, models.Chapter{Title: "My Great Novel", StartIndex: 0, EndIndex: 4}, book.Chapters[0])
	require.NotNil(t, book.CoverURL)
	assert.True(t, strings.HasPrefix(*book.CoverURL, dataURLPrefix))

	other := f.mgr.NewBook("/books/My Great Novel.epub", "", "", nil, nil)
	assert.NotEqual(t, book.ID, other.ID)
	assert.Nil(t, other.Chapters)
}

func TestAddDedupesByFileName(t *testing.T) {
	f := setupManager(t)
	ctx := context.Background()

	first := f.mgr.NewBook("same.epub", "First", "A", makeWords(10), nil)
	id, err := f.mgr.Add(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, first.ID, id)

	second := f.mgr.NewBook("same.epub", "Second", "B", makeWords(20), nil)
	id2, err := f.mgr.Add(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, id, id2)

	books := f.mgr.List(ctx)
	require.Len(t, books, 1)
	assert.Equal(t, "Second", books[0].Title)
	assert.Equal(t, 20, books[0].TotalWords)

	stubs := f.legacy.LoadLibrary()
	require.Len(t, stubs, 1)
	assert.Equal(t, id, stubs[0].ID)
	assert.Equal(t, "Second", stubs[0].Title)
	assert.True(t, stubs[0].IsStub())
}

func TestAddRejectsInvalidBooks(t *testing.T) {
	f := setupManager(t)
	ctx := context.Background()

	tests := []struct {
		name string
		book *models.Book
	}{
		{"nil", nil},
		{"missing id", &models.Book{FileName: "a.txt"}},
		{"missing file name", &models.Book{ID: "a"}},
		{"cursor past end", &models.Book{ID: "a", FileName: "a.txt", TotalWords: 3, CurrentWordIndex: 4}},
		{"chapter gap", &models.Book{ID: "a", FileName: "a.txt", TotalWords: 10, Chapters: []models.Chapter{
			{StartIndex: 0, EndIndex: 3}, {StartIndex: 5, EndIndex: 9},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.mgr.Add(ctx, tt.book)
			assert.ErrorIs(t, err, ErrInvalidBook)
		})
	}
	assert.Empty(t, f.mgr.List(ctx))
}

func TestImportSavesWordsUnderFinalID(t *testing.T) {
	f := setupManager(t)
	ctx := context.Background()

	original := f.mgr.NewBook("story.txt", "Story", "", makeWords(3), nil)
	id, err := f.mgr.Import(ctx, original, makeWords(3))
	require.NoError(t, err)

	replacement := f.mgr.NewBook("story.txt", "Story", "", makeWords(4), nil)
	id2, err := f.mgr.Import(ctx, replacement, makeWords(4))
	require.NoError(t, err)
	assert.Equal(t, id, id2)
	assert.Equal(t, makeWords(4), f.words.LoadWords(ctx, id))
	assert.Nil(t, f.words.LoadWords(ctx, replacement.ID))
}

func TestImportWithoutWordStorage(t *testing.T) {
	f := setupManager(t)
	mgr := NewManager(f.store, nil)

	book := mgr.NewBook("x.txt", "X", "", makeWords(2), nil)
	id, err := mgr.Import(context.Background(), book, makeWords(2))
	assert.ErrorIs(t, err, ErrWordsNotSaved)
	assert.Equal(t, book.ID, id)
}

func TestListOrdersByLastRead(t *testing.T) {
	f := setupManager(t)
	ctx := context.Background()

	for i, name := range []string{"old", "newest", "middle"} {
		b := f.mgr.NewBook(name+".txt", name, "", makeWords(1), nil)
		b.LastReadDate = fixedNow.Add(time.Duration([]int{-2, 0, -1}[i]) * time.Hour)
		_, err := f.mgr.Add(ctx, b)
		require.NoError(t, err)
	}

	books := f.mgr.List(ctx)
	require.Len(t, books, 3)
	assert.Equal(t, "newest", books[0].Title)
	assert.Equal(t, "middle", books[1].Title)
	assert.Equal(t, "old", books[2].Title)
}

func TestListRecoversLegacyLibrary(t *testing.T) {
	f := setupManager(t)
	ctx := context.Background()
	require.NoError(t, f.backend.Set(legacy.KeyLibrary, `[
		{"id":"old_1","fileName":"one.epub","title":"One","author":"A","coverUrl":null,"totalWords":5,"currentWordIndex":2,"lastReadDate":"2024-01-01T00:00:00.000Z","chapters":[]},
		{"id":"old_2","fileName":"two.epub","title":"Two","author":"B","coverUrl":null,"totalWords":5,"currentWordIndex":0,"lastReadDate":"2024-02-01T00:00:00.000Z","chapters":[]},
		{"id":"stub","title":"Stub"}
	]`))

	books := f.mgr.List(ctx)
	require.Len(t, books, 2)
	assert.Equal(t, "old_2", books[0].ID)
	assert.Equal(t, "old_1", books[1].ID)

	stored, err := f.store.GetBook(ctx, "old_1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 2, stored.CurrentWordIndex)
}

func TestListEmpty(t *testing.T) {
	f := setupManager(t)
	books := f.mgr.List(context.Background())
	assert.NotNil(t, books)
	assert.Empty(t, books)
}

func TestGet(t *testing.T) {
	f := setupManager(t)
	ctx := context.Background()

	assert.Nil(t, f.mgr.Get(ctx, "missing"))

	b := f.mgr.NewBook("g.txt", "G", "", makeWords(2), nil)
	id, err := f.mgr.Add(ctx, b)
	require.NoError(t, err)
	got := f.mgr.Get(ctx, id)
	require.NotNil(t, got)
	assert.Equal(t, "G", got.Title)
}

func TestGetFallsBackToLegacyRecord(t *testing.T) {
	f := setupManager(t)
	ctx := context.Background()
	require.NoError(t, f.legacy.SaveLibrary([]models.Book{{
		ID:           "old_1",
		FileName:     "one.epub",
		Title:        "One",
		Author:       "A",
		TotalWords:   5,
		LastReadDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}}))

	got := f.mgr.Get(ctx, "old_1")
	require.NotNil(t, got)
	assert.Equal(t, "One", got.Title)

	stored, err := f.store.GetBook(ctx, "old_1")
	require.NoError(t, err)
	assert.NotNil(t, stored)
}

func TestUpdateProgress(t *testing.T) {
	f := setupManager(t)
	ctx := context.Background()

	chapters := []models.Chapter{
		{Title: "One", StartIndex: 0, EndIndex: 49},
		{Title: "Two", StartIndex: 50, EndIndex: 99},
	}
	b := f.mgr.NewBook("p.txt", "P", "", makeWords(100), chapters)
	id, err := f.mgr.Add(ctx, b)
	require.NoError(t, err)

	require.NoError(t, f.mgr.UpdateProgress(ctx, id, 75))
	got, err := f.store.GetBook(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 75, got.CurrentWordIndex)

	progress, err := f.store.GetProgress(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, progress)
	assert.Equal(t, 75, progress.CurrentWordIndex)
	assert.Equal(t, 1, progress.CurrentChapter)

	// the end position is a valid cursor
	require.NoError(t, f.mgr.UpdateProgress(ctx, id, 100))
	assert.ErrorIs(t, f.mgr.UpdateProgress(ctx, id, 101), ErrInvalidProgress)
	assert.ErrorIs(t, f.mgr.UpdateProgress(ctx, id, -1), ErrInvalidProgress)
	assert.ErrorIs(t, f.mgr.UpdateProgress(ctx, "missing", 0), ErrBookNotFound)
}

func TestRemovePurgesEverything(t *testing.T) {
	f := setupManager(t)
	ctx := context.Background()

	b := f.mgr.NewBook("r.txt", "R", "", makeWords(30), nil)
	id, err := f.mgr.Import(ctx, b, makeWords(30))
	require.NoError(t, err)
	require.NoError(t, f.mgr.UpdateProgress(ctx, id, 10))

	require.True(t, f.legacy.SaveWords(id, makeWords(30)))
	require.NoError(t, f.legacy.SetString(legacy.KeyCurrentBookID, id))
	require.NoError(t, f.legacy.SetString(legacy.KeyProgress, "10"))
	require.NoError(t, f.legacy.SetString(legacy.KeyCurrentChapter, "0"))
	require.NoError(t, f.legacy.SetString(legacy.ChunkKey(id, 7), `["stray"]`))

	require.NoError(t, f.mgr.Remove(ctx, id))

	assert.Nil(t, f.mgr.Get(ctx, id))
	progress, err := f.store.GetProgress(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, progress)
	assert.Nil(t, f.words.LoadWords(ctx, id))
	assert.Empty(t, f.legacy.WordKeys())
	assert.Empty(t, f.legacy.LoadLibrary())
	for _, key := range []string{legacy.KeyCurrentBookID, legacy.KeyProgress, legacy.KeyCurrentChapter} {
		_, ok := f.legacy.GetString(key)
		assert.False(t, ok, key)
	}
}

func TestRemoveKeepsOtherCurrentBook(t *testing.T) {
	f := setupManager(t)
	ctx := context.Background()
	require.NoError(t, f.legacy.SetString(legacy.KeyCurrentBookID, "other"))

	require.NoError(t, f.mgr.Remove(ctx, "unknown"))

	current, ok := f.legacy.GetString(legacy.KeyCurrentBookID)
	assert.True(t, ok)
	assert.Equal(t, "other", current)
	assert.ErrorIs(t, f.mgr.Remove(ctx, ""), ErrInvalidBook)
}

func TestOperationsRunMigrationFirst(t *testing.T) {
	store, err := database.NewSQLiteStore(filepath.Join(t.TempDir(), "speedreader.db"))
	require.NoError(t, err)
	defer store.Close()
	backend := legacy.NewMemoryBackend()
	legacyStore := legacy.NewStore(backend)
	require.NoError(t, backend.Set(legacy.KeyLibrary,
		`[{"id":"m1","fileName":"m.epub","title":"M","author":"","coverUrl":null,"totalWords":3,"currentWordIndex":0,"lastReadDate":"2024-01-01T00:00:00.000Z","chapters":[]}]`))
	engine := migration.NewEngine(legacyStore, store)

	mgr := NewManager(store, legacyStore, WithMigrator(engine))
	books := mgr.List(context.Background())

	require.Len(t, books, 1)
	assert.Equal(t, models.DefaultAuthor, books[0].Author)
	assert.True(t, engine.Done())
}
