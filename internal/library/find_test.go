// file: internal/library/find_test.go
// version: 1.0.0
// guid: 96c2e0b7-5a1d-4f83-8e6c-d4b1a3f7e925

package library

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFind(t *testing.T) {
	f := setupManager(t)
	ctx := context.Background()

	for _, b := range [][3]string{
		{"moby.epub", "Moby Dick", "Herman Melville"},
		{"pride.epub", "Pride and Prejudice", "Jane Austen"},
		{"emma.epub", "Emma", "Jane Austen"},
	} {
		_, err := f.mgr.Add(ctx, f.mgr.NewBook(b[0], b[1], b[2], makeWords(1), nil))
		require.NoError(t, err)
	}

	t.Run("title", func(t *testing.T) {
		got := f.mgr.Find(ctx, "moby")
		require.Len(t, got, 1)
		assert.Equal(t, "Moby Dick", got[0].Title)
	})

	t.Run("author folds case", func(t *testing.T) {
		got := f.mgr.Find(ctx, "AUSTEN")
		require.Len(t, got, 2)
		// the shorter target is the closer match
		assert.Equal(t, "Emma", got[0].Title)
	})

	t.Run("subsequence", func(t *testing.T) {
		got := f.mgr.Find(ctx, "prdprj")
		require.Len(t, got, 1)
		assert.Equal(t, "Pride and Prejudice", got[0].Title)
	})

	t.Run("no match", func(t *testing.T) {
		assert.Empty(t, f.mgr.Find(ctx, "zzzz"))
	})

	t.Run("empty query lists everything", func(t *testing.T) {
		assert.Len(t, f.mgr.Find(ctx, "  "), 3)
	})
}
