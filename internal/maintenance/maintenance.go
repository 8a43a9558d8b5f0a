// file: internal/maintenance/maintenance.go
// version: 1.0.0
// guid: 4e7b1c93-d6a0-4f25-8b3e-c1f9a5d07e84

package maintenance

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jdfalk/speed-reader/internal/cache"
	"github.com/jdfalk/speed-reader/internal/database"
	"github.com/jdfalk/speed-reader/internal/legacy"
	"github.com/jdfalk/speed-reader/internal/logger"
	"github.com/jdfalk/speed-reader/internal/metrics"
	"github.com/jdfalk/speed-reader/internal/migration"
)

const (
	// DefaultObjectStoreBudget is the assumed ceiling when only the object store reports.
	DefaultObjectStoreBudget int64 = 50 * 1024 * 1024
	// DefaultLowStorageThreshold is the chunk count above which storage is low.
	DefaultLowStorageThreshold = 1000
	DefaultCacheTTL            = 30 * time.Second

	warningPercent  = 70
	criticalPercent = 90
	usageKey        = "usage"
)

// Level classifies a usage percentage
type Level string

const (
	LevelOK       Level = "ok"
	LevelWarning  Level = "warning"
	LevelCritical Level = "critical"
)

// LevelFor returns warning above 70% and critical above 90%.
func LevelFor(percent int) Level {
	switch {
	case percent > criticalPercent:
		return LevelCritical
	case percent > warningPercent:
		return LevelWarning
	default:
		return LevelOK
	}
}

// Report is the merged storage usage of both backends
type Report struct {
	UsedBytes       int64
	TotalBytes      int64
	UsedPercent     int
	BookCount       int
	ChunkCount      int
	LegacyAvailable bool
	Level           Level
}

// GCResult counts what one orphan collection removed
type GCResult struct {
	ObjectChunks int
	LegacyKeys   int
}

// Removed reports whether anything was deleted.
func (r GCResult) Removed() bool {
	return r.ObjectChunks+r.LegacyKeys > 0
}

// Option configures a Maintainer
type Option func(*Maintainer)

// WithBudget sets the object store ceiling used for percentages.
func WithBudget(bytes int64) Option {
	return func(m *Maintainer) {
		if bytes > 0 {
			m.budget = bytes
		}
	}
}

// WithLowThreshold sets the chunk count IsStorageLow compares against.
func WithLowThreshold(chunks int) Option {
	return func(m *Maintainer) {
		if chunks > 0 {
			m.threshold = chunks
		}
	}
}

// WithCacheTTL sets how long a usage report is reused. Zero disables caching.
func WithCacheTTL(ttl time.Duration) Option {
	return func(m *Maintainer) { m.ttl = ttl }
}

// WithMigrator runs e before collecting orphans so unmigrated legacy words
// are not mistaken for orphans.
func WithMigrator(e *migration.Engine) Option {
	return func(m *Maintainer) { m.migrator = e }
}

// Maintainer reports storage usage and removes orphaned word data.
type Maintainer struct {
	store     database.ObjectStore
	legacy    *legacy.Store
	migrator  *migration.Engine
	budget    int64
	threshold int
	ttl       time.Duration
	usage     *cache.Cache[Report]
	log       *logger.Logger
}

// NewMaintainer creates a maintainer. legacyStore may be nil.
func NewMaintainer(store database.ObjectStore, legacyStore *legacy.Store, opts ...Option) *Maintainer {
	m := &Maintainer{
		store:     store,
		legacy:    legacyStore,
		budget:    DefaultObjectStoreBudget,
		threshold: DefaultLowStorageThreshold,
		ttl:       DefaultCacheTTL,
		log:       logger.ForModule("maintenance"),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.usage = cache.New[Report](m.ttl)
	return m
}

// Cache exposes the report cache so tests can control its clock.
func (m *Maintainer) Cache() *cache.Cache[Report] { return m.usage }

func percentOf(used, total int64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(used) / float64(total) * 100))
}

// Usage returns the merged usage report. The legacy estimate is used when that
// store is available, otherwise object store bytes against the budget.
func (m *Maintainer) Usage(ctx context.Context) Report {
	rep, _ := m.usage.GetOrLoad(usageKey, func() (Report, error) {
		return m.computeUsage(ctx), nil
	})
	return rep
}

func (m *Maintainer) computeUsage(ctx context.Context) Report {
	var rep Report

	counts, err := m.store.CountUsage(ctx)
	if err != nil {
		m.log.Error("failed to count object store usage: %v", err)
	}
	rep.BookCount = counts.BookCount
	rep.ChunkCount = counts.ChunkCount

	if m.legacy != nil && m.legacy.IsAvailable() {
		u := m.legacy.EstimateUsage()
		rep.LegacyAvailable = true
		rep.TotalBytes = u.TotalBytes
		rep.UsedBytes = u.UsedBytes
		rep.UsedPercent = u.UsedPercent
	} else {
		rep.TotalBytes = m.budget
		rep.UsedBytes = counts.EstimatedBytes
		rep.UsedPercent = min(percentOf(rep.UsedBytes, rep.TotalBytes), 100)
	}
	rep.Level = LevelFor(rep.UsedPercent)

	metrics.SetUsage(rep.UsedBytes, rep.UsedPercent)
	metrics.SetBooks(rep.BookCount)
	metrics.SetChunks(rep.ChunkCount)
	m.log.Debug("usage %d/%d bytes (%d%%), %d books, %d chunks",
		rep.UsedBytes, rep.TotalBytes, rep.UsedPercent, rep.BookCount, rep.ChunkCount)
	return rep
}

// IsStorageLow reports whether the object store holds more chunks than the
// threshold. Errors count as not low.
func (m *Maintainer) IsStorageLow(ctx context.Context) bool {
	u, err := m.store.CountUsage(ctx)
	if err != nil {
		m.log.Error("failed to check storage: %v", err)
		return false
	}
	return u.ChunkCount > m.threshold
}

// Collect deletes word data, in both stores, that belongs to no book in the
// object store.
func (m *Maintainer) Collect(ctx context.Context) (GCResult, error) {
	var res GCResult
	if m.migrator != nil {
		m.migrator.Run(ctx)
	}

	books, err := m.store.GetAllBooks(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to list books: %w", err)
	}
	live := make(map[string]struct{}, len(books))
	for _, b := range books {
		live[b.ID] = struct{}{}
	}

	refs, err := m.store.ListChunkRefs(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to list chunks: %w", err)
	}
	for _, ref := range refs {
		if _, ok := live[ref.BookID]; ok {
			continue
		}
		if err := m.store.DeleteChunk(ctx, ref.ID); err != nil {
			return res, fmt.Errorf("failed to delete chunk %s: %w", ref.ID, err)
		}
		res.ObjectChunks++
	}

	if m.legacy != nil && m.legacy.IsAvailable() {
		for _, key := range m.legacy.WordKeys() {
			if _, ok := live[legacy.BookIDFromWordKey(key)]; ok {
				continue
			}
			if m.legacy.Remove(key) {
				res.LegacyKeys++
			}
		}
	}

	metrics.AddOrphansRemoved("sqlite", res.ObjectChunks)
	metrics.AddOrphansRemoved("legacy", res.LegacyKeys)
	m.usage.InvalidateAll()
	m.log.Info("removed %d orphaned chunks and %d legacy keys", res.ObjectChunks, res.LegacyKeys)
	return res, nil
}

// CollectOrphans runs Collect and reports whether anything was removed.
func (m *Maintainer) CollectOrphans(ctx context.Context) bool {
	res, err := m.Collect(ctx)
	if err != nil {
		m.log.Error("orphan collection failed: %v", err)
		m.usage.InvalidateAll()
	}
	return res.Removed()
}
