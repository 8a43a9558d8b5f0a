// file: internal/legacy/keys.go
// version: 1.0.0
// guid: 94a7c2e1-5f0b-4d38-a6e9-3b1d8c7f0a52

package legacy

import (
	"fmt"
	"strings"
)

// Key namespace shared with older installations.
const (
	KeyLibrary        = "speedReaderLibrary"
	KeyWPM            = "speedReaderWpm"
	KeyTheme          = "speedReaderTheme"
	KeyInputType      = "speedReaderInputType"
	KeyCurrentBookID  = "speedReaderCurrentBookId"
	KeyProgress       = "speedReaderProgress"
	KeyCurrentChapter = "speedReaderCurrentChapter"
	KeyMigrated       = "speedReaderMigrated"

	WordsKeyPrefix = "speedReaderWords_"
	chunkInfix     = "_chunk_"
	probeKey       = "__storage_test__"
)

// WordsKey is the main words key of a book.
func WordsKey(bookID string) string {
	return WordsKeyPrefix + bookID
}

// ChunkKey is the key of chunk i of a book.
func ChunkKey(bookID string, i int) string {
	return fmt.Sprintf("%s%s%s%d", WordsKeyPrefix, bookID, chunkInfix, i)
}

// IsWordsKey reports whether key belongs to the words namespace (main or chunk).
func IsWordsKey(key string) bool {
	return strings.HasPrefix(key, WordsKeyPrefix)
}

// IsChunkKey reports whether key is a chunk key rather than a main key.
func IsChunkKey(key string) bool {
	return IsWordsKey(key) && strings.Contains(strings.TrimPrefix(key, WordsKeyPrefix), chunkInfix)
}

// BookIDFromWordKey extracts the book id from a main or chunk words key.
func BookIDFromWordKey(key string) string {
	rest := strings.TrimPrefix(key, WordsKeyPrefix)
	if i := strings.LastIndex(rest, chunkInfix); i >= 0 {
		return rest[:i]
	}
	return rest
}
