// file: internal/library/manager.go
// version: 1.0.0
// guid: e3a18f6c-02d7-4b95-8c4e-61f9b7d3a0c2

package library

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/oklog/ulid/v2"

	"github.com/jdfalk/speed-reader/internal/database"
	"github.com/jdfalk/speed-reader/internal/legacy"
	"github.com/jdfalk/speed-reader/internal/logger"
	"github.com/jdfalk/speed-reader/internal/migration"
	"github.com/jdfalk/speed-reader/internal/models"
	"github.com/jdfalk/speed-reader/internal/wordstore"
)

var (
	ErrBookNotFound    = errors.New("book not found")
	ErrInvalidProgress = errors.New("word index out of range")
	ErrInvalidBook     = errors.New("invalid book")
	ErrWordsNotSaved   = errors.New("words could not be saved")
)

// Option configures a Manager
type Option func(*Manager)

// WithMigrator runs m before every library operation. The engine only does
// work the first time.
func WithMigrator(m *migration.Engine) Option {
	return func(mgr *Manager) { mgr.migrator = m }
}

// WithWords lets Import and Remove handle word storage through f.
func WithWords(f *wordstore.Facade) Option {
	return func(mgr *Manager) { mgr.words = f }
}

// WithClock overrides time.Now for new books.
func WithClock(now func() time.Time) Option {
	return func(mgr *Manager) { mgr.now = now }
}

// Manager owns the book library: listing, import, progress and removal.
type Manager struct {
	store    database.ObjectStore
	legacy   *legacy.Store
	words    *wordstore.Facade
	migrator *migration.Engine
	now      func() time.Time
	log      *logger.Logger
}

// NewManager creates a manager. legacyStore may be nil.
func NewManager(store database.ObjectStore, legacyStore *legacy.Store, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		legacy: legacyStore,
		now:    time.Now,
		log:    logger.ForModule("library"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) migrate(ctx context.Context) {
	if m.migrator == nil || m.migrator.Done() {
		return
	}
	rep := m.migrator.Run(ctx)
	for _, err := range rep.Errors {
		m.log.Warn("migration: %v", err)
	}
}

func (m *Manager) legacyReady() bool {
	return m.legacy != nil && m.legacy.IsAvailable()
}

func sortByLastRead(books []models.Book) {
	sort.SliceStable(books, func(i, j int) bool {
		return books[i].LastReadDate.After(books[j].LastReadDate)
	})
}

// List returns every book, most recently read first. When the object store
// is empty, full records from the legacy library are copied in and returned.
func (m *Manager) List(ctx context.Context) []models.Book {
	m.migrate(ctx)

	books, err := m.store.GetAllBooks(ctx)
	if err != nil {
		m.log.Error("failed to list books: %v", err)
		books = nil
	}
	if len(books) > 0 {
		return books
	}

	if !m.legacyReady() {
		return []models.Book{}
	}
	recovered := []models.Book{}
	for _, b := range m.legacy.LoadLibrary() {
		if b.IsStub() {
			continue
		}
		book := b
		if err := m.store.PutBook(ctx, &book); err != nil {
			m.log.Warn("failed to copy legacy book %s: %v", book.ID, err)
		}
		recovered = append(recovered, book)
	}
	if len(recovered) > 0 {
		m.log.Info("recovered %d books from legacy library", len(recovered))
	}
	sortByLastRead(recovered)
	return recovered
}

// Get returns the book with id, or nil when no store has it.
func (m *Manager) Get(ctx context.Context, id string) *models.Book {
	m.migrate(ctx)

	book, err := m.store.GetBook(ctx, id)
	if err != nil {
		m.log.Error("failed to get book %s: %v", id, err)
	}
	if book != nil {
		return book
	}
	if !m.legacyReady() {
		return nil
	}
	for _, b := range m.legacy.LoadLibrary() {
		if b.ID != id || b.IsStub() {
			continue
		}
		found := b
		if err := m.store.PutBook(ctx, &found); err != nil {
			m.log.Warn("failed to copy legacy book %s: %v", id, err)
		}
		return &found
	}
	return nil
}

func validate(book *models.Book) error {
	switch {
	case book == nil:
		return fmt.Errorf("%w: nil book", ErrInvalidBook)
	case book.ID == "":
		return fmt.Errorf("%w: missing id", ErrInvalidBook)
	case book.FileName == "":
		return fmt.Errorf("%w: missing file name", ErrInvalidBook)
	case book.TotalWords < 0:
		return fmt.Errorf("%w: negative word count", ErrInvalidBook)
	case book.CurrentWordIndex < 0 || book.CurrentWordIndex > book.TotalWords:
		return fmt.Errorf("%w: cursor %d outside 0..%d", ErrInvalidBook, book.CurrentWordIndex, book.TotalWords)
	}
	if err := models.ValidateChapters(book.Chapters, book.TotalWords); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBook, err)
	}
	return nil
}

// Add stores book and returns its id. A book with the same file name is
// replaced in place and keeps its existing id.
func (m *Manager) Add(ctx context.Context, book *models.Book) (string, error) {
	if err := validate(book); err != nil {
		return "", err
	}
	m.migrate(ctx)

	record := book.Clone()
	existing, err := m.store.GetBookByFileName(ctx, record.FileName)
	if err != nil {
		return "", fmt.Errorf("failed to look up %s: %w", record.FileName, err)
	}
	if existing != nil {
		m.log.Info("replacing %s, keeping id %s", record.FileName, existing.ID)
		record.ID = existing.ID
	}
	if err := m.store.PutBook(ctx, record); err != nil {
		return "", fmt.Errorf("failed to save book %s: %w", record.ID, err)
	}

	if m.legacyReady() {
		if err := m.legacy.PutLibraryStub(record.ID, record.Title); err != nil {
			m.log.Warn("failed to write legacy stub for %s: %v", record.ID, err)
		}
	}
	return record.ID, nil
}

// Import adds book and saves its words under the id Add settled on.
func (m *Manager) Import(ctx context.Context, book *models.Book, words []string) (string, error) {
	id, err := m.Add(ctx, book)
	if err != nil {
		return "", err
	}
	if m.words == nil {
		return id, fmt.Errorf("%w: no word storage configured", ErrWordsNotSaved)
	}
	if !m.words.SaveWords(ctx, id, words) {
		return id, fmt.Errorf("%w: %s", ErrWordsNotSaved, id)
	}
	return id, nil
}

// NewBook builds a book record with a fresh id and defaults for missing
// metadata. Without chapters the whole text becomes one chapter.
func (m *Manager) NewBook(fileName, title, author string, words []string, chapters []models.Chapter) *models.Book {
	base := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	if strings.TrimSpace(title) == "" {
		title = base
	}
	if strings.TrimSpace(author) == "" {
		author = models.DefaultAuthor
	}
	if chapters == nil && len(words) > 0 {
		chapters = []models.Chapter{{Title: title, StartIndex: 0, EndIndex: len(words) - 1}}
	}
	cover := CoverPlaceholder(title, author)
	return &models.Book{
		ID:           newID(base),
		FileName:     fileName,
		Title:        title,
		Author:       author,
		CoverURL:     &cover,
		TotalWords:   len(words),
		LastReadDate: m.now().UTC(),
		Chapters:     chapters,
	}
}

// newID joins a slug of the file name with a ULID.
func newID(base string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(base) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case b.Len() > 0 && !strings.HasSuffix(b.String(), "-"):
			b.WriteByte('-')
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	id := strings.ToLower(ulid.Make().String())
	if slug == "" {
		return id
	}
	return slug + "-" + id
}

// UpdateProgress moves the reading cursor of id to wordIndex. The book and
// its progress row change together.
func (m *Manager) UpdateProgress(ctx context.Context, id string, wordIndex int) error {
	m.migrate(ctx)

	book, err := m.store.GetBook(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load book %s: %w", id, err)
	}
	if book == nil {
		return fmt.Errorf("%s: %w", id, ErrBookNotFound)
	}
	if wordIndex < 0 || wordIndex > book.TotalWords {
		return fmt.Errorf("%d not in 0..%d: %w", wordIndex, book.TotalWords, ErrInvalidProgress)
	}

	chapter := models.ChapterAt(book.Chapters, wordIndex)
	if err := m.store.UpdateBookProgress(ctx, id, wordIndex, chapter); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("%s: %w", id, ErrBookNotFound)
		}
		return fmt.Errorf("failed to update progress for %s: %w", id, err)
	}
	return nil
}

// Remove deletes a book with its words and progress from every store.
// Removing an unknown id is not an error.
func (m *Manager) Remove(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidBook)
	}
	m.migrate(ctx)

	if err := m.store.RemoveBookCascade(ctx, id); err != nil {
		return fmt.Errorf("failed to remove book %s: %w", id, err)
	}
	if m.words != nil {
		m.words.ClearWords(ctx, id)
	}
	if m.legacy != nil {
		m.purgeLegacy(id)
	}
	m.log.Info("removed book %s", id)
	return nil
}

func (m *Manager) purgeLegacy(id string) {
	if err := m.legacy.RemoveLibraryEntry(id); err != nil {
		m.log.Warn("failed to remove legacy library entry %s: %v", id, err)
	}
	m.legacy.ClearWords(id)
	for _, key := range m.legacy.WordKeys() {
		if legacy.BookIDFromWordKey(key) == id {
			m.legacy.Remove(key)
		}
	}
	if current, ok := m.legacy.GetString(legacy.KeyCurrentBookID); ok && current == id {
		m.legacy.Remove(legacy.KeyCurrentBookID)
		m.legacy.Remove(legacy.KeyProgress)
		m.legacy.Remove(legacy.KeyCurrentChapter)
	}
}
