// file: internal/database/sqlite_store.go
// version: 2.0.0
// guid: f2a6c8d1-3e57-4b09-8d4f-b1e0a7c593d2

package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jdfalk/speed-reader/internal/metrics"
	"github.com/jdfalk/speed-reader/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// timeLayout is fixed width so that text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

type rowScanner interface {
	Scan(dest ...any) error
}

const bookSelectColumns = `
	id, file_name, title, author, cover_url, total_words,
	current_word_index, last_read_date, chapters
`

func scanBook(scanner rowScanner) (*models.Book, error) {
	var book models.Book
	var cover sql.NullString
	var lastRead, chapters string
	if err := scanner.Scan(
		&book.ID, &book.FileName, &book.Title, &book.Author, &cover, &book.TotalWords,
		&book.CurrentWordIndex, &lastRead, &chapters,
	); err != nil {
		return nil, err
	}
	if cover.Valid {
		c := cover.String
		book.CoverURL = &c
	}
	book.LastReadDate = parseTime(lastRead)
	if err := json.Unmarshal([]byte(chapters), &book.Chapters); err != nil {
		return nil, fmt.Errorf("failed to decode chapters of %s: %w", book.ID, err)
	}
	return &book, nil
}

// StoreOption configures a SQLiteStore
type StoreOption func(*SQLiteStore)

// WithChunkSize sets the number of words per stored chunk.
func WithChunkSize(n int) StoreOption {
	return func(s *SQLiteStore) {
		if n > 0 {
			s.chunkSize = n
		}
	}
}

// WithClock overrides time.Now for lastReadDate stamps.
func WithClock(now func() time.Time) StoreOption {
	return func(s *SQLiteStore) { s.now = now }
}

// SQLiteStore implements ObjectStore using SQLite
type SQLiteStore struct {
	db        *sql.DB
	chunkSize int
	now       func() time.Time
}

// NewSQLiteStore opens the database at path and applies pending migrations
func NewSQLiteStore(path string, opts ...StoreOption) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// one writer; transactions never interleave
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	store := &SQLiteStore{db: db, chunkSize: models.DefaultChunkSize, now: time.Now}
	for _, opt := range opts {
		opt(store)
	}
	return store, nil
}

// DB exposes the underlying handle for diagnostics.
func (s *SQLiteStore) DB() *sql.DB { return s.db }

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func observe(op string, err error) error {
	metrics.ObserveStorageOp("sqlite", op, err)
	return err
}

// withTx runs fn in a transaction, rolling back on error
func (s *SQLiteStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Book operations

func (s *SQLiteStore) GetAllBooks(ctx context.Context) ([]models.Book, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+bookSelectColumns+` FROM books ORDER BY last_read_date DESC, id`)
	if err != nil {
		return nil, observe("get_all_books", fmt.Errorf("failed to query books: %w", err))
	}
	defer rows.Close()

	var books []models.Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, observe("get_all_books", err)
		}
		books = append(books, *book)
	}
	return books, observe("get_all_books", rows.Err())
}

func (s *SQLiteStore) getBookWhere(ctx context.Context, op, where string, arg any) (*models.Book, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+bookSelectColumns+` FROM books WHERE `+where+` LIMIT 1`, arg)
	book, err := scanBook(row)
	if err == sql.ErrNoRows {
		observe(op, nil)
		return nil, nil
	}
	if err != nil {
		return nil, observe(op, err)
	}
	observe(op, nil)
	return book, nil
}

func (s *SQLiteStore) GetBook(ctx context.Context, id string) (*models.Book, error) {
	return s.getBookWhere(ctx, "get_book", "id = ?", id)
}

func (s *SQLiteStore) GetBookByFileName(ctx context.Context, fileName string) (*models.Book, error) {
	return s.getBookWhere(ctx, "get_book_by_file_name", "file_name = ?", fileName)
}

// PutBook inserts or replaces the book row
func (s *SQLiteStore) PutBook(ctx context.Context, book *models.Book) error {
	if book == nil || book.ID == "" {
		return observe("put_book", fmt.Errorf("book id is required"))
	}
	chapters := book.Chapters
	if chapters == nil {
		chapters = []models.Chapter{}
	}
	chaptersJSON, err := json.Marshal(chapters)
	if err != nil {
		return observe("put_book", fmt.Errorf("failed to encode chapters: %w", err))
	}
	var cover any
	if book.CoverURL != nil {
		cover = *book.CoverURL
	}
	lastRead := book.LastReadDate
	if lastRead.IsZero() {
		lastRead = s.now()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO books (id, file_name, title, author, cover_url, total_words,
			current_word_index, last_read_date, chapters)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			file_name = excluded.file_name,
			title = excluded.title,
			author = excluded.author,
			cover_url = excluded.cover_url,
			total_words = excluded.total_words,
			current_word_index = excluded.current_word_index,
			last_read_date = excluded.last_read_date,
			chapters = excluded.chapters`,
		book.ID, book.FileName, book.Title, book.Author, cover, book.TotalWords,
		book.CurrentWordIndex, formatTime(lastRead), string(chaptersJSON))
	if err != nil {
		return observe("put_book", fmt.Errorf("failed to upsert book %s: %w", book.ID, err))
	}
	return observe("put_book", nil)
}

func (s *SQLiteStore) DeleteBook(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
	return observe("delete_book", err)
}

// Word chunk operations

// SaveWordChunks replaces every chunk of bookID in one transaction
func (s *SQLiteStore) SaveWordChunks(ctx context.Context, bookID string, words []string) error {
	if bookID == "" {
		return observe("save_chunks", fmt.Errorf("book id is required"))
	}
	chunks := models.SplitWords(bookID, words, s.chunkSize)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM word_chunks WHERE book_id = ?`, bookID); err != nil {
			return fmt.Errorf("failed to clear chunks: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO word_chunks (id, book_id, chunk_index, words) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, c := range chunks {
			data, err := json.Marshal(c.Words)
			if err != nil {
				return fmt.Errorf("failed to encode chunk %d: %w", c.ChunkIndex, err)
			}
			if _, err := stmt.ExecContext(ctx, c.ID, c.BookID, c.ChunkIndex, string(data)); err != nil {
				return fmt.Errorf("failed to insert chunk %d: %w", c.ChunkIndex, err)
			}
		}
		return nil
	})
	return observe("save_chunks", err)
}

// LoadWordChunks reassembles the words of bookID. Returns nil when no chunks exist.
func (s *SQLiteStore) LoadWordChunks(ctx context.Context, bookID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, chunk_index, words FROM word_chunks WHERE book_id = ?`, bookID)
	if err != nil {
		return nil, observe("load_chunks", err)
	}
	defer rows.Close()

	var chunks []models.WordChunk
	for rows.Next() {
		c := models.WordChunk{BookID: bookID}
		var data string
		if err := rows.Scan(&c.ID, &c.ChunkIndex, &data); err != nil {
			return nil, observe("load_chunks", err)
		}
		if err := json.Unmarshal([]byte(data), &c.Words); err != nil {
			return nil, observe("load_chunks", fmt.Errorf("chunk %s is corrupt: %w", c.ID, err))
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, observe("load_chunks", err)
	}
	observe("load_chunks", nil)
	return models.JoinChunks(chunks), nil
}

func (s *SQLiteStore) DeleteWordChunks(ctx context.Context, bookID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM word_chunks WHERE book_id = ?`, bookID)
	return observe("delete_chunks", err)
}

func (s *SQLiteStore) ListChunkRefs(ctx context.Context) ([]ChunkRef, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, book_id, chunk_index FROM word_chunks ORDER BY book_id, chunk_index`)
	if err != nil {
		return nil, observe("list_chunks", err)
	}
	defer rows.Close()

	var refs []ChunkRef
	for rows.Next() {
		var ref ChunkRef
		if err := rows.Scan(&ref.ID, &ref.BookID, &ref.ChunkIndex); err != nil {
			return nil, observe("list_chunks", err)
		}
		refs = append(refs, ref)
	}
	return refs, observe("list_chunks", rows.Err())
}

func (s *SQLiteStore) DeleteChunk(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM word_chunks WHERE id = ?`, id)
	return observe("delete_chunk", err)
}

// Settings operations

func getSettings(ctx context.Context, q interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}) (models.AppSettings, error) {
	settings := models.AppSettings{}
	err := q.QueryRowContext(ctx, `SELECT id, wpm, theme, input_type FROM settings WHERE id = ?`, models.SettingsID).
		Scan(&settings.ID, &settings.WPM, &settings.Theme, &settings.InputType)
	if err == sql.ErrNoRows {
		return models.DefaultSettings(), nil
	}
	if err != nil {
		return models.AppSettings{}, err
	}
	return settings, nil
}

// GetSettings returns the stored settings or the defaults
func (s *SQLiteStore) GetSettings(ctx context.Context) (models.AppSettings, error) {
	settings, err := getSettings(ctx, s.db)
	return settings, observe("get_settings", err)
}

// PutSettings merges patch into the current settings and stores the result
func (s *SQLiteStore) PutSettings(ctx context.Context, patch models.SettingsPatch) (models.AppSettings, error) {
	var merged models.AppSettings
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := getSettings(ctx, tx)
		if err != nil {
			return err
		}
		merged = patch.Apply(current)
		_, err = tx.ExecContext(ctx, `
			INSERT INTO settings (id, wpm, theme, input_type) VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				wpm = excluded.wpm,
				theme = excluded.theme,
				input_type = excluded.input_type`,
			merged.ID, merged.WPM, merged.Theme, merged.InputType)
		return err
	})
	if err != nil {
		return models.AppSettings{}, observe("put_settings", fmt.Errorf("failed to save settings: %w", err))
	}
	return merged, observe("put_settings", nil)
}

// Progress operations

func (s *SQLiteStore) GetProgress(ctx context.Context, bookID string) (*models.BookProgress, error) {
	var p models.BookProgress
	var lastRead string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, current_word_index, current_chapter, last_read_date FROM book_progress WHERE id = ?`, bookID).
		Scan(&p.ID, &p.CurrentWordIndex, &p.CurrentChapter, &lastRead)
	if err == sql.ErrNoRows {
		observe("get_progress", nil)
		return nil, nil
	}
	if err != nil {
		return nil, observe("get_progress", err)
	}
	p.LastReadDate = parseTime(lastRead)
	observe("get_progress", nil)
	return &p, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func putProgress(ctx context.Context, e execer, bookID string, wordIndex, chapter int, at time.Time) error {
	_, err := e.ExecContext(ctx, `
		INSERT INTO book_progress (id, current_word_index, current_chapter, last_read_date)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			current_word_index = excluded.current_word_index,
			current_chapter = excluded.current_chapter,
			last_read_date = excluded.last_read_date`,
		bookID, wordIndex, chapter, formatTime(at))
	return err
}

// PutProgress writes only the progress row
func (s *SQLiteStore) PutProgress(ctx context.Context, bookID string, wordIndex, chapter int) error {
	return observe("put_progress", putProgress(ctx, s.db, bookID, wordIndex, chapter, s.now()))
}

// UpdateBookProgress moves the cursor on the book and its progress row together.
// Returns ErrNotFound when the book does not exist.
func (s *SQLiteStore) UpdateBookProgress(ctx context.Context, bookID string, wordIndex, chapter int) error {
	now := s.now()
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE books SET current_word_index = ?, last_read_date = ? WHERE id = ?`,
			wordIndex, formatTime(now), bookID)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("book %s: %w", bookID, ErrNotFound)
		}
		return putProgress(ctx, tx, bookID, wordIndex, chapter, now)
	})
	return observe("update_progress", err)
}

// RemoveBookCascade deletes a book with its chunks and progress
func (s *SQLiteStore) RemoveBookCascade(ctx context.Context, bookID string) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range []string{
			`DELETE FROM word_chunks WHERE book_id = ?`,
			`DELETE FROM book_progress WHERE id = ?`,
			`DELETE FROM books WHERE id = ?`,
		} {
			if _, err := tx.ExecContext(ctx, stmt, bookID); err != nil {
				return err
			}
		}
		return nil
	})
	return observe("remove_cascade", err)
}

// CountUsage reports row counts and the database file size from page statistics
func (s *SQLiteStore) CountUsage(ctx context.Context) (Usage, error) {
	var u Usage
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`).Scan(&u.BookCount); err != nil {
		return Usage{}, observe("count_usage", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM word_chunks`).Scan(&u.ChunkCount); err != nil {
		return Usage{}, observe("count_usage", err)
	}
	var pageCount, pageSize int64
	if err := s.db.QueryRowContext(ctx, `PRAGMA page_count`).Scan(&pageCount); err != nil {
		return Usage{}, observe("count_usage", err)
	}
	if err := s.db.QueryRowContext(ctx, `PRAGMA page_size`).Scan(&pageSize); err != nil {
		return Usage{}, observe("count_usage", err)
	}
	u.EstimatedBytes = pageCount * pageSize
	return u, observe("count_usage", nil)
}

var _ ObjectStore = (*SQLiteStore)(nil)
