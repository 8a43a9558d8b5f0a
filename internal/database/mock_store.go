// file: internal/database/mock_store.go
// version: 2.0.0
// guid: 0a5e9c72-b4d1-4e68-9f23-c8d6a1b7e405

package database

import (
	"context"

	"github.com/jdfalk/speed-reader/internal/models"
)

// MockStore is a func-field ObjectStore for tests. Unset funcs return zero values.
type MockStore struct {
	GetAllBooksFunc        func(ctx context.Context) ([]models.Book, error)
	GetBookFunc            func(ctx context.Context, id string) (*models.Book, error)
	GetBookByFileNameFunc  func(ctx context.Context, fileName string) (*models.Book, error)
	PutBookFunc            func(ctx context.Context, book *models.Book) error
	DeleteBookFunc         func(ctx context.Context, id string) error
	SaveWordChunksFunc     func(ctx context.Context, bookID string, words []string) error
	LoadWordChunksFunc     func(ctx context.Context, bookID string) ([]string, error)
	DeleteWordChunksFunc   func(ctx context.Context, bookID string) error
	ListChunkRefsFunc      func(ctx context.Context) ([]ChunkRef, error)
	DeleteChunkFunc        func(ctx context.Context, id string) error
	GetSettingsFunc        func(ctx context.Context) (models.AppSettings, error)
	PutSettingsFunc        func(ctx context.Context, patch models.SettingsPatch) (models.AppSettings, error)
	GetProgressFunc        func(ctx context.Context, bookID string) (*models.BookProgress, error)
	PutProgressFunc        func(ctx context.Context, bookID string, wordIndex, chapter int) error
	UpdateBookProgressFunc func(ctx context.Context, bookID string, wordIndex, chapter int) error
	RemoveBookCascadeFunc  func(ctx context.Context, bookID string) error
	CountUsageFunc         func(ctx context.Context) (Usage, error)
	CloseFunc              func() error
}

var _ ObjectStore = (*MockStore)(nil)

func (m *MockStore) GetAllBooks(ctx context.Context) ([]models.Book, error) {
	if m.GetAllBooksFunc != nil {
		return m.GetAllBooksFunc(ctx)
	}
	return nil, nil
}

func (m *MockStore) GetBook(ctx context.Context, id string) (*models.Book, error) {
	if m.GetBookFunc != nil {
		return m.GetBookFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockStore) GetBookByFileName(ctx context.Context, fileName string) (*models.Book, error) {
	if m.GetBookByFileNameFunc != nil {
		return m.GetBookByFileNameFunc(ctx, fileName)
	}
	return nil, nil
}

func (m *MockStore) PutBook(ctx context.Context, book *models.Book) error {
	if m.PutBookFunc != nil {
		return m.PutBookFunc(ctx, book)
	}
	return nil
}

func (m *MockStore) DeleteBook(ctx context.Context, id string) error {
	if m.DeleteBookFunc != nil {
		return m.DeleteBookFunc(ctx, id)
	}
	return nil
}

func (m *MockStore) SaveWordChunks(ctx context.Context, bookID string, words []string) error {
	if m.SaveWordChunksFunc != nil {
		return m.SaveWordChunksFunc(ctx, bookID, words)
	}
	return nil
}

func (m *MockStore) LoadWordChunks(ctx context.Context, bookID string) ([]string, error) {
	if m.LoadWordChunksFunc != nil {
		return m.LoadWordChunksFunc(ctx, bookID)
	}
	return nil, nil
}

func (m *MockStore) DeleteWordChunks(ctx context.Context, bookID string) error {
	if m.DeleteWordChunksFunc != nil {
		return m.DeleteWordChunksFunc(ctx, bookID)
	}
	return nil
}

func (m *MockStore) ListChunkRefs(ctx context.Context) ([]ChunkRef, error) {
	if m.ListChunkRefsFunc != nil {
		return m.ListChunkRefsFunc(ctx)
	}
	return nil, nil
}

func (m *MockStore) DeleteChunk(ctx context.Context, id string) error {
	if m.DeleteChunkFunc != nil {
		return m.DeleteChunkFunc(ctx, id)
	}
	return nil
}

func (m *MockStore) GetSettings(ctx context.Context) (models.AppSettings, error) {
	if m.GetSettingsFunc != nil {
		return m.GetSettingsFunc(ctx)
	}
	return models.DefaultSettings(), nil
}

func (m *MockStore) PutSettings(ctx context.Context, patch models.SettingsPatch) (models.AppSettings, error) {
	if m.PutSettingsFunc != nil {
		return m.PutSettingsFunc(ctx, patch)
	}
	return patch.Apply(models.DefaultSettings()), nil
}

func (m *MockStore) GetProgress(ctx context.Context, bookID string) (*models.BookProgress, error) {
	if m.GetProgressFunc != nil {
		return m.GetProgressFunc(ctx, bookID)
	}
	return nil, nil
}

func (m *MockStore) PutProgress(ctx context.Context, bookID string, wordIndex, chapter int) error {
	if m.PutProgressFunc != nil {
		return m.PutProgressFunc(ctx, bookID, wordIndex, chapter)
	}
	return nil
}

func (m *MockStore) UpdateBookProgress(ctx context.Context, bookID string, wordIndex, chapter int) error {
	if m.UpdateBookProgressFunc != nil {
		return m.UpdateBookProgressFunc(ctx, bookID, wordIndex, chapter)
	}
	return nil
}

func (m *MockStore) RemoveBookCascade(ctx context.Context, bookID string) error {
	if m.RemoveBookCascadeFunc != nil {
		return m.RemoveBookCascadeFunc(ctx, bookID)
	}
	return nil
}

func (m *MockStore) CountUsage(ctx context.Context) (Usage, error) {
	if m.CountUsageFunc != nil {
		return m.CountUsageFunc(ctx)
	}
	return Usage{}, nil
}

func (m *MockStore) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}
