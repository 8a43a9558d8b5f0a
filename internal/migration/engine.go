// file: internal/migration/engine.go
// version: 1.0.0
// guid: 27f4c1b8-e6a3-4d09-95b2-8c0e7a3d5f61

package migration

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/jdfalk/speed-reader/internal/database"
	"github.com/jdfalk/speed-reader/internal/legacy"
	"github.com/jdfalk/speed-reader/internal/logger"
	"github.com/jdfalk/speed-reader/internal/metrics"
	"github.com/jdfalk/speed-reader/internal/models"
)

const migratedValue = "true"

// Step names passed to ProgressFunc
const (
	StepBooks    = "books"
	StepWords    = "words"
	StepSettings = "settings"
	StepProgress = "progress"
)

// ProgressFunc is called after each migrated item
type ProgressFunc func(step string, current, total int)

// Report summarizes one Run
type Report struct {
	// Skipped is true when nothing was attempted because migration already ran
	// or the legacy store is unavailable.
	Skipped  bool
	Books    int
	Words    int
	Settings bool
	Progress bool
	Errors   []error
}

// Option configures an Engine
type Option func(*Engine)

// WithProgress registers a callback for per-item progress
func WithProgress(fn ProgressFunc) Option {
	return func(e *Engine) { e.progress = fn }
}

// Engine copies legacy data into the object store once per installation.
type Engine struct {
	legacy *legacy.Store
	store  database.ObjectStore

	mu       sync.Mutex
	done     bool
	progress ProgressFunc
	log      *logger.Logger
}

// NewEngine creates a migration engine. legacyStore may be nil.
func NewEngine(legacyStore *legacy.Store, store database.ObjectStore, opts ...Option) *Engine {
	e := &Engine{
		legacy: legacyStore,
		store:  store,
		log:    logger.ForModule("migration"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetProgress replaces the progress callback
func (e *Engine) SetProgress(fn ProgressFunc) {
	e.mu.Lock()
	e.progress = fn
	e.mu.Unlock()
}

// Done reports whether this session has already completed a migration.
func (e *Engine) Done() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.done
}

// Reset clears both the session flag and the persisted flag so the next Run
// copies everything again. Legacy data is never deleted, so this is safe.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.done = false
	if e.legacy != nil {
		e.legacy.Remove(legacy.KeyMigrated)
	}
}

func (e *Engine) report(step string, current, total int) {
	if e.progress != nil {
		e.progress(step, current, total)
	}
}

// Run migrates legacy data if that has not happened yet. It is safe to call
// from several goroutines; only one migration runs at a time and later callers
// see the result through the flags. Item failures are logged and collected in
// the report; they do not stop the run. A canceled context leaves the flags
// unset so the next call retries.
func (e *Engine) Run(ctx context.Context) Report {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.done {
		return Report{Skipped: true}
	}
	if e.legacy == nil || !e.legacy.IsAvailable() {
		e.log.Info("legacy storage unavailable, nothing to migrate")
		e.done = true
		return Report{Skipped: true}
	}
	if flag, ok := e.legacy.GetString(legacy.KeyMigrated); ok && flag == migratedValue {
		e.log.Debug("migration already completed")
		e.done = true
		return Report{Skipped: true}
	}

	e.log.Info("starting migration from legacy storage")
	var rep Report

	e.migrateBooks(ctx, &rep)
	e.migrateWords(ctx, &rep)
	e.migrateSettings(ctx, &rep)
	e.migrateProgress(ctx, &rep)

	if err := ctx.Err(); err != nil {
		rep.Errors = append(rep.Errors, err)
		e.log.Warn("migration interrupted: %v", err)
		return rep
	}

	if err := e.legacy.SetString(legacy.KeyMigrated, migratedValue); err != nil {
		e.log.Error("failed to persist migration flag: %v", err)
		rep.Errors = append(rep.Errors, fmt.Errorf("persist flag: %w", err))
	}
	e.done = true

	if len(rep.Errors) > 0 {
		e.log.Warn("migration completed with %d errors (%d books, %d word sets)", len(rep.Errors), rep.Books, rep.Words)
	} else {
		e.log.Info("migration completed (%d books, %d word sets)", rep.Books, rep.Words)
	}
	return rep
}

func (e *Engine) migrateBooks(ctx context.Context, rep *Report) {
	books := e.legacy.LoadLibrary()
	for i := range books {
		if ctx.Err() != nil {
			return
		}
		b := books[i]
		if b.IsStub() {
			continue
		}
		if b.Author == "" {
			b.Author = models.DefaultAuthor
		}
		if err := e.store.PutBook(ctx, &b); err != nil {
			e.log.Error("failed to migrate book %s: %v", b.ID, err)
			rep.Errors = append(rep.Errors, fmt.Errorf("book %s: %w", b.ID, err))
			continue
		}
		rep.Books++
		e.report(StepBooks, i+1, len(books))
	}
	metrics.AddMigrated(StepBooks, rep.Books)
}

func (e *Engine) migrateWords(ctx context.Context, rep *Report) {
	ids := e.legacy.WordBookIDs()
	for i, id := range ids {
		if ctx.Err() != nil {
			return
		}
		words := e.legacy.LoadWords(id)
		if words == nil {
			e.log.Warn("skipping unreadable legacy words for %s", id)
			rep.Errors = append(rep.Errors, fmt.Errorf("words %s: unreadable legacy entry", id))
			continue
		}
		if err := e.store.SaveWordChunks(ctx, id, words); err != nil {
			e.log.Error("failed to migrate words for %s: %v", id, err)
			rep.Errors = append(rep.Errors, fmt.Errorf("words %s: %w", id, err))
			continue
		}
		rep.Words++
		e.report(StepWords, i+1, len(ids))
	}
	metrics.AddMigrated(StepWords, rep.Words)
}

func (e *Engine) migrateSettings(ctx context.Context, rep *Report) {
	var patch models.SettingsPatch

	if raw, ok := e.legacy.GetString(legacy.KeyWPM); ok {
		wpm, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			rep.Errors = append(rep.Errors, fmt.Errorf("settings wpm %q: %w", raw, err))
		} else {
			patch.WPM = &wpm
		}
	}
	if raw, ok := e.legacy.GetString(legacy.KeyTheme); ok {
		theme := models.ThemeLight
		if raw == models.ThemeDark {
			theme = models.ThemeDark
		}
		patch.Theme = &theme
	}
	if raw, ok := e.legacy.GetString(legacy.KeyInputType); ok && raw != "" {
		patch.InputType = &raw
	}

	if patch.IsEmpty() || ctx.Err() != nil {
		return
	}
	if _, err := e.store.PutSettings(ctx, patch); err != nil {
		e.log.Error("failed to migrate settings: %v", err)
		rep.Errors = append(rep.Errors, fmt.Errorf("settings: %w", err))
		return
	}
	rep.Settings = true
	metrics.AddMigrated(StepSettings, 1)
	e.report(StepSettings, 1, 1)
}

func (e *Engine) migrateProgress(ctx context.Context, rep *Report) {
	bookID, ok := e.legacy.GetString(legacy.KeyCurrentBookID)
	if !ok || bookID == "" || ctx.Err() != nil {
		return
	}
	index := e.legacyInt(legacy.KeyProgress, rep)
	chapter := e.legacyInt(legacy.KeyCurrentChapter, rep)

	book, err := e.store.GetBook(ctx, bookID)
	if err != nil {
		rep.Errors = append(rep.Errors, fmt.Errorf("progress %s: %w", bookID, err))
		return
	}
	if book != nil {
		if index > book.TotalWords {
			index = book.TotalWords
		}
		err = e.store.UpdateBookProgress(ctx, bookID, index, chapter)
	} else {
		err = e.store.PutProgress(ctx, bookID, index, chapter)
	}
	if err != nil {
		e.log.Error("failed to migrate progress for %s: %v", bookID, err)
		rep.Errors = append(rep.Errors, fmt.Errorf("progress %s: %w", bookID, err))
		return
	}
	rep.Progress = true
	metrics.AddMigrated(StepProgress, 1)
	e.report(StepProgress, 1, 1)
}

// legacyInt reads a non-negative integer key, defaulting to 0.
func (e *Engine) legacyInt(key string, rep *Report) int {
	raw, ok := e.legacy.GetString(key)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		rep.Errors = append(rep.Errors, fmt.Errorf("%s %q is not a valid index", key, raw))
		return 0
	}
	return n
}
