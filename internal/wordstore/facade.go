// file: internal/wordstore/facade.go
// version: 1.1.0
// guid: d84b2f17-6c9e-4a30-8e51-f7a0c3b9d2e6

package wordstore

import (
	"context"
	"sync"
	"time"

	"github.com/jdfalk/speed-reader/internal/database"
	"github.com/jdfalk/speed-reader/internal/legacy"
	"github.com/jdfalk/speed-reader/internal/logger"
	"github.com/jdfalk/speed-reader/internal/operations"
)

// TaskResave is the queue task type for copying legacy words into the object store.
const TaskResave = "resave_words"

// Option configures a Facade
type Option func(*Facade)

// WithQueue runs background re-saves on q instead of a private queue.
func WithQueue(q *operations.Queue) Option {
	return func(f *Facade) { f.queue = q }
}

// Facade saves and loads a book's words, preferring the object store and
// falling back to the legacy store. Nothing it does returns an error or
// panics; failures surface as false or nil.
type Facade struct {
	store     database.ObjectStore
	legacy    *legacy.Store
	queue     *operations.Queue
	ownsQueue bool
	log       *logger.Logger

	// generations counts writes and clears per book. A background re-save
	// only lands if no write or clear happened after it was scheduled.
	mu          sync.Mutex
	generations map[string]uint64
}

// NewFacade creates a facade over either or both stores. Nil stores are skipped.
func NewFacade(store database.ObjectStore, legacyStore *legacy.Store, opts ...Option) *Facade {
	f := &Facade{
		store:       store,
		legacy:      legacyStore,
		log:         logger.ForModule("wordstore"),
		generations: make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.queue == nil {
		f.queue = operations.NewQueue(1, 32)
		f.ownsQueue = true
	}
	return f
}

func (f *Facade) generation(bookID string) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.generations[bookID]
}

func (f *Facade) bump(bookID string) {
	f.mu.Lock()
	f.generations[bookID]++
	f.mu.Unlock()
}

func (f *Facade) recoverTo(op, bookID string) {
	if r := recover(); r != nil {
		f.log.Error("%s for %s panicked: %v", op, bookID, r)
	}
}

// SaveWords stores words for bookID. It returns true if either backend accepted them.
func (f *Facade) SaveWords(ctx context.Context, bookID string, words []string) (ok bool) {
	defer f.recoverTo("save", bookID)
	if bookID == "" {
		f.log.Error("invalid book id")
		return false
	}
	f.bump(bookID)

	if f.store != nil {
		err := f.store.SaveWordChunks(ctx, bookID, words)
		if err == nil {
			f.log.Debug("saved %d words for %s to object store", len(words), bookID)
			return true
		}
		f.log.Warn("object store save failed for %s, trying legacy storage: %v", bookID, err)
	}

	if f.legacy != nil && f.legacy.IsAvailable() {
		if f.legacy.Backend().Name() == "memory" {
			f.log.Warn("legacy fallback for %s is in memory and will not outlive the process", bookID)
		}
		return f.legacy.SaveWords(bookID, words)
	}
	f.log.Error("no storage accepted words for %s", bookID)
	return false
}

// LoadWords returns the words of bookID, or nil if neither backend has them.
// A legacy hit schedules a background copy into the object store.
func (f *Facade) LoadWords(ctx context.Context, bookID string) (words []string) {
	defer f.recoverTo("load", bookID)
	if bookID == "" {
		return nil
	}
	gen := f.generation(bookID)

	// an empty object store result still consults legacy
	var stored []string
	if f.store != nil {
		w, err := f.store.LoadWordChunks(ctx, bookID)
		if err != nil {
			f.log.Warn("object store load failed for %s: %v", bookID, err)
		} else if len(w) > 0 {
			return w
		} else {
			stored = w
		}
	}

	var w []string
	if f.legacy != nil {
		w = f.legacy.LoadWords(bookID)
	}
	if len(w) == 0 {
		if stored != nil {
			return stored
		}
		if w == nil {
			f.log.Debug("no words found for %s", bookID)
		}
		return w
	}
	f.log.Info("loaded %d words for %s from legacy storage", len(w), bookID)
	if f.store != nil {
		f.scheduleResave(bookID, w, gen)
	}
	return w
}

// scheduleResave copies words into the object store unless the book was
// written or cleared after generation gen was read.
func (f *Facade) scheduleResave(bookID string, words []string, gen uint64) {
	snapshot := make([]string, len(words))
	copy(snapshot, words)
	store := f.store
	f.queue.Submit(TaskResave, bookID, func(ctx context.Context) error {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.generations[bookID] != gen {
			f.log.Debug("words for %s changed since re-save was scheduled, skipping", bookID)
			return nil
		}
		if err := store.SaveWordChunks(ctx, bookID, snapshot); err != nil {
			return err
		}
		f.log.Info("migrated words for %s from legacy storage to object store", bookID)
		return nil
	})
}

// ClearWords removes bookID's words from both backends. Missing data is fine.
func (f *Facade) ClearWords(ctx context.Context, bookID string) {
	defer f.recoverTo("clear", bookID)
	if bookID == "" {
		return
	}
	f.bump(bookID)
	if f.store != nil {
		if err := f.store.DeleteWordChunks(ctx, bookID); err != nil {
			f.log.Warn("failed to clear object store words for %s: %v", bookID, err)
		}
	}
	if f.legacy != nil {
		f.legacy.ClearWords(bookID)
	}
}

// Wait blocks until scheduled background re-saves have finished.
func (f *Facade) Wait() {
	f.queue.Wait()
}

// Close stops the private queue, if the facade created one.
func (f *Facade) Close() error {
	if f.ownsQueue {
		return f.queue.Shutdown(5 * time.Second)
	}
	return nil
}

var placeholderWords = []string{
	"Content", "for", "this", "book", "is", "not", "available", "in", "storage.",
	"Please", "re-upload", "the", "EPUB", "file", "to", "read", "it", "again.",
}

// CreateErrorPlaceholder returns the words shown when a book's content is lost.
func CreateErrorPlaceholder(bookID string) []string {
	words := make([]string, 0, len(placeholderWords)+3)
	words = append(words, placeholderWords...)
	return append(words, "(Book", "ID:", bookID+")")
}

// CreateErrorPlaceholder is the method form of the package function.
func (f *Facade) CreateErrorPlaceholder(bookID string) []string {
	return CreateErrorPlaceholder(bookID)
}
