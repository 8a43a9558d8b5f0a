// file: internal/backup/backup_test.go
// version: 2.0.0
// guid: 9a0b1c2d-3e4f-5a6b-7c8d-9e0f1a2b3c4d

package backup

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jdfalk/speed-reader/internal/database"
	"github.com/jdfalk/speed-reader/internal/legacy"
	"github.com/jdfalk/speed-reader/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStores(t *testing.T) (*database.SQLiteStore, *legacy.Store) {
	t.Helper()
	store, err := database.NewSQLiteStore(filepath.Join(t.TempDir(), "speedreader.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	require.NoError(t, store.PutBook(ctx, &models.Book{
		ID:           "book-1",
		FileName:     "book.txt",
		Title:        "Book",
		Author:       "A",
		TotalWords:   3,
		LastReadDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, store.SaveWordChunks(ctx, "book-1", []string{"one", "two", "three"}))

	kv := legacy.NewStore(legacy.NewMemoryBackend())
	require.NoError(t, kv.Set("speedReaderCurrentBook", "book-1"))
	require.NoError(t, kv.Set("speedReaderWPM", "420"))
	return store, kv
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("/tmp/backups")
	assert.Equal(t, "/tmp/backups", cfg.Dir)
	assert.Equal(t, 10, cfg.MaxBackups)
	assert.Equal(t, gzip.BestCompression, cfg.CompressionLevel)
}

func TestCreateAndExtract(t *testing.T) {
	store, kv := setupStores(t)
	dir := filepath.Join(t.TempDir(), "backups")

	info, err := Create(context.Background(), store.DB(), kv, DefaultConfig(dir))
	require.NoError(t, err)
	assert.FileExists(t, info.Path)
	assert.FileExists(t, info.Path+checksumSuffix)
	assert.Equal(t, 2, info.LegacyKeys)
	assert.Len(t, info.Checksum, 64)
	assert.Greater(t, info.Size, int64(0))

	target := t.TempDir()
	files, err := Extract(info.Path, target)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(target, DatabaseEntry),
		filepath.Join(target, LegacyEntry),
	}, files)

	restored, err := database.NewSQLiteStore(filepath.Join(target, DatabaseEntry))
	require.NoError(t, err)
	defer restored.Close()
	book, err := restored.GetBook(context.Background(), "book-1")
	require.NoError(t, err)
	assert.Equal(t, "Book", book.Title)
	words, err := restored.LoadWordChunks(context.Background(), "book-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "three"}, words)
}

func TestCreateWithoutLegacy(t *testing.T) {
	store, _ := setupStores(t)
	info, err := Create(context.Background(), store.DB(), nil, DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	assert.Equal(t, 0, info.LegacyKeys)

	dst := legacy.NewStore(legacy.NewMemoryBackend())
	n, err := RestoreLegacy(info.Path, dst)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestCreateNilDatabase(t *testing.T) {
	_, err := Create(context.Background(), nil, nil, DefaultConfig(t.TempDir()))
	assert.Error(t, err)
}

func TestRestoreLegacy(t *testing.T) {
	store, kv := setupStores(t)
	info, err := Create(context.Background(), store.DB(), kv, DefaultConfig(t.TempDir()))
	require.NoError(t, err)

	dst := legacy.NewStore(legacy.NewMemoryBackend())
	n, err := RestoreLegacy(info.Path, dst)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	v, ok := dst.GetString("speedReaderWPM")
	assert.True(t, ok)
	assert.Equal(t, "420", v)
}

func TestVerifyDetectsTampering(t *testing.T) {
	store, kv := setupStores(t)
	info, err := Create(context.Background(), store.DB(), kv, DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	require.NoError(t, Verify(info.Path))

	f, err := os.OpenFile(info.Path, os.O_APPEND|os.O_WRONLY, 0)
	require.NoError(t, err)
	_, err = f.Write([]byte("junk"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	assert.ErrorIs(t, Verify(info.Path), ErrChecksumMismatch)
	_, err = Extract(info.Path, t.TempDir())
	assert.ErrorIs(t, err, ErrChecksumMismatch)
}

func TestVerifyWithoutChecksumFile(t *testing.T) {
	store, kv := setupStores(t)
	info, err := Create(context.Background(), store.DB(), kv, DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	require.NoError(t, os.Remove(info.Path+checksumSuffix))
	assert.NoError(t, Verify(info.Path))
}

func TestExtractRejectsForeignArchives(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evil.tar.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	body := []byte("owned")
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "../escape.txt", Mode: 0o644, Size: int64(len(body))}))
	_, err = tw.Write(body)
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	target := t.TempDir()
	_, err = Extract(path, target)
	assert.ErrorIs(t, err, ErrInvalidArchive)
	assert.NoFileExists(t, filepath.Join(filepath.Dir(target), "escape.txt"))

	_, err = RestoreLegacy(path, legacy.NewStore(legacy.NewMemoryBackend()))
	assert.ErrorIs(t, err, ErrInvalidArchive)
}

func TestExtractNotGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.tar.gz")
	require.NoError(t, os.WriteFile(path, []byte("not a gzip stream"), 0o644))
	_, err := Extract(path, t.TempDir())
	assert.ErrorIs(t, err, ErrInvalidArchive)
}

func TestListEmptyAndMissing(t *testing.T) {
	backups, err := List(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	assert.Empty(t, backups)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	backups, err = List(dir)
	require.NoError(t, err)
	assert.Empty(t, backups)
}

func writeFakeBackup(t *testing.T, dir, stamp string) string {
	t.Helper()
	path := filepath.Join(dir, filePrefix+stamp+archiveSuffix)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(path+checksumSuffix, []byte("abc  x\n"), 0o644))
	return path
}

func TestListNewestFirst(t *testing.T) {
	dir := t.TempDir()
	writeFakeBackup(t, dir, "20240101_120000")
	writeFakeBackup(t, dir, "20240301_120000")
	writeFakeBackup(t, dir, "20240201_120000")

	backups, err := List(dir)
	require.NoError(t, err)
	require.Len(t, backups, 3)
	assert.Equal(t, filePrefix+"20240301_120000"+archiveSuffix, backups[0].Filename)
	assert.Equal(t, filePrefix+"20240101_120000"+archiveSuffix, backups[2].Filename)
	assert.Equal(t, "abc", backups[0].Checksum)
	assert.Equal(t, 2024, backups[0].CreatedAt.Year())
}

func TestPrune(t *testing.T) {
	dir := t.TempDir()
	oldest := writeFakeBackup(t, dir, "20240101_120000")
	writeFakeBackup(t, dir, "20240201_120000")
	writeFakeBackup(t, dir, "20240301_120000")

	removed, err := Prune(dir, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.NoFileExists(t, oldest)
	assert.NoFileExists(t, oldest+checksumSuffix)

	removed, err = Prune(dir, 5)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}

func TestCreatePrunesToMax(t *testing.T) {
	store, kv := setupStores(t)
	dir := t.TempDir()
	writeFakeBackup(t, dir, "20200101_120000")
	writeFakeBackup(t, dir, "20200201_120000")

	cfg := DefaultConfig(dir)
	cfg.MaxBackups = 1
	info, err := Create(context.Background(), store.DB(), kv, cfg)
	require.NoError(t, err)

	backups, err := List(dir)
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.Equal(t, info.Filename, backups[0].Filename)
}

func TestDelete(t *testing.T) {
	dir := t.TempDir()
	path := writeFakeBackup(t, dir, "20240101_120000")
	require.NoError(t, Delete(path))
	assert.NoFileExists(t, path)
	assert.NoFileExists(t, path+checksumSuffix)

	assert.Error(t, Delete(path))
}
