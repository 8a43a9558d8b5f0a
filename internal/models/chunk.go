// file: internal/models/chunk.go
// version: 1.0.0
// guid: 19e4b6a0-c37d-4a52-b8f1-6e0d2a9c5b38

package models

import (
	"fmt"
	"sort"
)

// DefaultChunkSize is the number of words stored per WordChunk.
const DefaultChunkSize = 10000

// WordChunk is one contiguous slice of a book's words.
type WordChunk struct {
	ID         string   `json:"id"`
	BookID     string   `json:"bookId"`
	ChunkIndex int      `json:"chunkIndex"`
	Words      []string `json:"words"`
}

// ChunkID builds the "<bookID>_<index>" identifier.
func ChunkID(bookID string, index int) string {
	return fmt.Sprintf("%s_%d", bookID, index)
}

// SplitWords partitions words into ceil(n/size) chunks. An empty sequence
// produces one empty chunk so that "stored but empty" stays distinguishable
// from "absent".
func SplitWords(bookID string, words []string, size int) []WordChunk {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if len(words) == 0 {
		return []WordChunk{{ID: ChunkID(bookID, 0), BookID: bookID, ChunkIndex: 0, Words: []string{}}}
	}
	chunks := make([]WordChunk, 0, (len(words)+size-1)/size)
	for i, start := 0, 0; start < len(words); i, start = i+1, start+size {
		end := min(start+size, len(words))
		part := make([]string, end-start)
		copy(part, words[start:end])
		chunks = append(chunks, WordChunk{
			ID:         ChunkID(bookID, i),
			BookID:     bookID,
			ChunkIndex: i,
			Words:      part,
		})
	}
	return chunks
}

// JoinChunks sorts chunks by ChunkIndex and concatenates their words. It
// returns nil for no chunks and a non-nil empty slice for empty chunks.
func JoinChunks(chunks []WordChunk) []string {
	if len(chunks) == 0 {
		return nil
	}
	sorted := make([]WordChunk, len(chunks))
	copy(sorted, chunks)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ChunkIndex < sorted[j].ChunkIndex })

	total := 0
	for _, c := range sorted {
		total += len(c.Words)
	}
	words := make([]string, 0, total)
	for _, c := range sorted {
		words = append(words, c.Words...)
	}
	return words
}
