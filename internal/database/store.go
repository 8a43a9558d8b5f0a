// file: internal/database/store.go
// version: 2.0.0
// guid: 41d8e2b6-9c3a-4f75-a0e1-7b5c9d3f6e28

package database

import (
	"context"
	"errors"

	"github.com/jdfalk/speed-reader/internal/models"
)

// ErrNotFound is returned by writes that target a missing record.
var ErrNotFound = errors.New("record not found")

// ChunkRef identifies a stored chunk without loading its words.
type ChunkRef struct {
	ID         string
	BookID     string
	ChunkIndex int
}

// Usage is the object store's own size estimate.
type Usage struct {
	BookCount      int
	ChunkCount     int
	EstimatedBytes int64
}

// ObjectStore is the transactional store that owns books, word chunks,
// settings and progress. Reads of a missing record return (nil, nil).
type ObjectStore interface {
	// Books
	GetAllBooks(ctx context.Context) ([]models.Book, error)
	GetBook(ctx context.Context, id string) (*models.Book, error)
	GetBookByFileName(ctx context.Context, fileName string) (*models.Book, error)
	PutBook(ctx context.Context, book *models.Book) error
	DeleteBook(ctx context.Context, id string) error

	// Word chunks
	SaveWordChunks(ctx context.Context, bookID string, words []string) error
	LoadWordChunks(ctx context.Context, bookID string) ([]string, error)
	DeleteWordChunks(ctx context.Context, bookID string) error
	ListChunkRefs(ctx context.Context) ([]ChunkRef, error)
	DeleteChunk(ctx context.Context, id string) error

	// Settings
	GetSettings(ctx context.Context) (models.AppSettings, error)
	PutSettings(ctx context.Context, patch models.SettingsPatch) (models.AppSettings, error)

	// Progress
	GetProgress(ctx context.Context, bookID string) (*models.BookProgress, error)
	PutProgress(ctx context.Context, bookID string, wordIndex, chapter int) error
	UpdateBookProgress(ctx context.Context, bookID string, wordIndex, chapter int) error

	// RemoveBookCascade deletes the book, its chunks and its progress atomically.
	RemoveBookCascade(ctx context.Context, bookID string) error

	CountUsage(ctx context.Context) (Usage, error)
	Close() error
}
