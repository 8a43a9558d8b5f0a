// file: internal/legacy/store.go
// version: 1.0.0
// guid: 5f3e8a16-2d7b-4c09-b1a4-e6c9d0f72b83

package legacy

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/jdfalk/speed-reader/internal/logger"
	"github.com/jdfalk/speed-reader/internal/metrics"
	"github.com/jdfalk/speed-reader/internal/models"
)

const (
	// DefaultQuotaBytes mirrors the 5 MiB per-origin limit of browser storage.
	DefaultQuotaBytes = 5 * 1024 * 1024
)

// ErrQuotaExceeded is returned by Set when the write would push usage over the quota.
var ErrQuotaExceeded = errors.New("legacy storage quota exceeded")

// Usage is a storage estimate in bytes (two bytes per UTF-16 code unit).
type Usage struct {
	UsedBytes   int64
	TotalBytes  int64
	UsedPercent int
}

// chunkIndex is the record stored under the main key of a chunked book.
type chunkIndex struct {
	TotalChunks int    `json:"totalChunks"`
	TotalWords  int    `json:"totalWords"`
	DateCreated string `json:"dateCreated"`
}

// Format describes what was found under a book's main words key.
type Format string

const (
	FormatNone    Format = "none"
	FormatArray   Format = "array"
	FormatChunked Format = "chunked"
	FormatUnknown Format = "unknown"
)

// WordsInfo summarizes a book's legacy words entry without loading all chunks.
type WordsInfo struct {
	Format      Format
	TotalWords  int
	TotalChunks int
}

// Option configures a Store
type Option func(*Store)

// WithQuota sets the quota in bytes.
func WithQuota(bytes int64) Option {
	return func(s *Store) {
		if bytes > 0 {
			s.quota = bytes
		}
	}
}

// WithChunkSize sets the word count above which books are chunked.
func WithChunkSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.chunkSize = n
		}
	}
}

// WithClock overrides time.Now for the dateCreated field.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Store is the synchronous legacy key-value adapter. None of its word methods
// return errors; failures are logged and reported as false or nil.
type Store struct {
	backend   Backend
	quota     int64
	chunkSize int
	now       func() time.Time
	log       *logger.Logger

	// mu serializes writes so the quota check and the write are atomic.
	mu        sync.Mutex
	used      int64
	usedKnown bool
}

// NewStore wraps backend with quota enforcement and the words layout.
func NewStore(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend:   backend,
		quota:     DefaultQuotaBytes,
		chunkSize: models.DefaultChunkSize,
		now:       time.Now,
		log:       logger.ForModule("legacy"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Backend returns the wrapped backend.
func (s *Store) Backend() Backend { return s.backend }

// Quota returns the configured quota in bytes.
func (s *Store) Quota() int64 { return s.quota }

// Close closes the backend.
func (s *Store) Close() error { return s.backend.Close() }

// utf16Len counts UTF-16 code units, which is what browser storage bills for.
func utf16Len(str string) int64 {
	var n int64
	for i := 0; i < len(str); {
		r, size := utf8.DecodeRuneInString(str[i:])
		i += size
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}

func entrySize(key, value string) int64 {
	return (utf16Len(key) + utf16Len(value)) * 2
}

// scanUsage walks the whole backend. Callers hold s.mu.
func (s *Store) scanUsage() (int64, error) {
	keys, err := s.backend.Keys()
	if err != nil {
		return 0, err
	}
	var total int64
	for _, k := range keys {
		v, ok, err := s.backend.Get(k)
		if err != nil {
			return 0, err
		}
		if ok {
			total += entrySize(k, v)
		}
	}
	return total, nil
}

// Set writes one key, rejecting the write with ErrQuotaExceeded if it would
// push usage past the quota.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.usedKnown {
		used, err := s.scanUsage()
		if err != nil {
			metrics.ObserveStorageOp(s.backend.Name(), "set", err)
			return fmt.Errorf("failed to compute usage: %w", err)
		}
		s.used, s.usedKnown = used, true
	}

	old, exists, err := s.backend.Get(key)
	if err != nil {
		metrics.ObserveStorageOp(s.backend.Name(), "set", err)
		return err
	}
	next := s.used + entrySize(key, value)
	if exists {
		next -= entrySize(key, old)
	}
	if next > s.quota {
		metrics.ObserveStorageOp(s.backend.Name(), "set", ErrQuotaExceeded)
		return fmt.Errorf("%w: writing %s would use %d of %d bytes", ErrQuotaExceeded, key, next, s.quota)
	}
	err = s.backend.Set(key, value)
	metrics.ObserveStorageOp(s.backend.Name(), "set", err)
	if err != nil {
		return err
	}
	s.used = next
	return nil
}

// Get reads one key.
func (s *Store) Get(key string) (string, bool, error) {
	v, ok, err := s.backend.Get(key)
	metrics.ObserveStorageOp(s.backend.Name(), "get", err)
	return v, ok, err
}

// Delete removes one key.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, exists, err := s.backend.Get(key)
	if err != nil {
		metrics.ObserveStorageOp(s.backend.Name(), "delete", err)
		return err
	}
	if !exists {
		return nil
	}
	err = s.backend.Delete(key)
	metrics.ObserveStorageOp(s.backend.Name(), "delete", err)
	if err != nil {
		return err
	}
	if s.usedKnown {
		s.used -= entrySize(key, old)
	}
	return nil
}

// Keys lists every key in the namespace.
func (s *Store) Keys() ([]string, error) {
	keys, err := s.backend.Keys()
	metrics.ObserveStorageOp(s.backend.Name(), "keys", err)
	return keys, err
}

// IsAvailable probes the backend with a write, a read and a delete.
func (s *Store) IsAvailable() bool {
	if err := s.backend.Set(probeKey, probeKey); err != nil {
		s.log.Debug("availability probe write failed: %v", err)
		return false
	}
	v, ok, err := s.backend.Get(probeKey)
	if delErr := s.backend.Delete(probeKey); delErr != nil {
		s.log.Debug("availability probe delete failed: %v", delErr)
		return false
	}
	return err == nil && ok && v == probeKey
}

// EstimateUsage recomputes usage from scratch. Used bytes are capped at the quota.
func (s *Store) EstimateUsage() Usage {
	s.mu.Lock()
	defer s.mu.Unlock()

	used, err := s.scanUsage()
	if err != nil {
		s.log.Error("failed to estimate usage: %v", err)
		return Usage{TotalBytes: s.quota}
	}
	s.used, s.usedKnown = used, true

	if used > s.quota {
		used = s.quota
	}
	return Usage{
		UsedBytes:   used,
		TotalBytes:  s.quota,
		UsedPercent: int(math.Round(float64(used) / float64(s.quota) * 100)),
	}
}

// GetString reads a scalar key, treating errors as absent.
func (s *Store) GetString(key string) (string, bool) {
	v, ok, err := s.Get(key)
	if err != nil {
		s.log.Warn("failed to read %s: %v", key, err)
		return "", false
	}
	return v, ok
}

// SetString writes a scalar key.
func (s *Store) SetString(key, value string) error {
	return s.Set(key, value)
}

// Remove deletes a key, logging failures.
func (s *Store) Remove(key string) bool {
	if err := s.Delete(key); err != nil {
		s.log.Warn("failed to remove %s: %v", key, err)
		return false
	}
	return true
}
