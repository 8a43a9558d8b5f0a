// file: internal/library/find.go
// version: 1.0.0
// guid: 7c0d4e92-a18b-4f63-9d25-e8b3f6a1c047

package library

import (
	"context"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/jdfalk/speed-reader/internal/models"
)

func searchText(b models.Book) string {
	return b.Title + " " + b.Author + " " + b.FileName
}

// Find returns books whose title, author or file name fuzzily contain query,
// best match first. An empty query returns the whole library.
func (m *Manager) Find(ctx context.Context, query string) []models.Book {
	books := m.List(ctx)
	query = strings.TrimSpace(query)
	if query == "" {
		return books
	}

	targets := make([]string, len(books))
	for i, b := range books {
		targets[i] = searchText(b)
	}
	ranks := fuzzy.RankFindNormalizedFold(query, targets)
	sort.Stable(ranks)

	out := make([]models.Book, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, books[r.OriginalIndex])
	}
	return out
}
