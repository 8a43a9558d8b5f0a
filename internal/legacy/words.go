// file: internal/legacy/words.go
// version: 1.0.0
// guid: b3d9e4f8-7a21-4c6e-95b0-1f8e2a6c4d97

package legacy

import (
	"encoding/json"
	"sort"
	"time"
)

// parseMain parses the main key as either a word array or a chunk index.
func parseMain(raw string) ([]string, *chunkIndex, bool) {
	var probe json.RawMessage
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		return nil, nil, false
	}
	trimmed := firstNonSpace(probe)
	switch trimmed {
	case '[':
		var words []string
		if err := json.Unmarshal(probe, &words); err != nil {
			return nil, nil, false
		}
		if words == nil {
			words = []string{}
		}
		return words, nil, true
	case '{':
		var idx chunkIndex
		if err := json.Unmarshal(probe, &idx); err != nil || idx.TotalChunks <= 0 {
			return nil, nil, false
		}
		return nil, &idx, true
	}
	return nil, nil, false
}

func firstNonSpace(b []byte) byte {
	for _, c := range b {
		switch c {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return c
	}
	return 0
}

// SaveWords replaces the stored words of bookID. Sequences longer than the
// chunk size are written as a chunk index plus chunk entries. Returns false on
// any failure; entries written before a quota failure are left in place.
func (s *Store) SaveWords(bookID string, words []string) bool {
	if bookID == "" {
		s.log.Error("refusing to save words without a book id")
		return false
	}
	s.ClearWords(bookID)

	if len(words) > s.chunkSize {
		total := (len(words) + s.chunkSize - 1) / s.chunkSize
		idx, err := json.Marshal(chunkIndex{
			TotalChunks: total,
			TotalWords:  len(words),
			DateCreated: s.now().UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			s.log.Error("failed to encode chunk index for %s: %v", bookID, err)
			return false
		}
		if err := s.Set(WordsKey(bookID), string(idx)); err != nil {
			s.log.Error("failed to save chunk index for %s: %v", bookID, err)
			return false
		}
		for i := 0; i < total; i++ {
			end := min((i+1)*s.chunkSize, len(words))
			data, err := json.Marshal(words[i*s.chunkSize : end])
			if err != nil {
				s.log.Error("failed to encode chunk %d for %s: %v", i, bookID, err)
				return false
			}
			if err := s.Set(ChunkKey(bookID, i), string(data)); err != nil {
				s.log.Error("failed to save chunk %d for %s: %v", i, bookID, err)
				return false
			}
		}
		s.log.Info("saved %d words for %s in %d chunks", len(words), bookID, total)
		return true
	}

	if words == nil {
		words = []string{}
	}
	data, err := json.Marshal(words)
	if err != nil {
		s.log.Error("failed to encode words for %s: %v", bookID, err)
		return false
	}
	if err := s.Set(WordsKey(bookID), string(data)); err != nil {
		s.log.Error("failed to save words for %s: %v", bookID, err)
		return false
	}
	s.log.Info("saved %d words for %s", len(words), bookID)
	return true
}

// LoadWords returns the stored words of bookID or nil when absent or corrupt.
// A chunked entry with a missing or unparseable chunk, or whose concatenated
// length differs from totalWords, counts as corrupt.
func (s *Store) LoadWords(bookID string) []string {
	if bookID == "" {
		return nil
	}
	raw, ok := s.GetString(WordsKey(bookID))
	if !ok {
		return nil
	}
	words, idx, ok := parseMain(raw)
	if !ok {
		s.log.Warn("unparseable words entry for %s", bookID)
		return nil
	}
	if idx == nil {
		return words
	}

	all := make([]string, 0, max(idx.TotalWords, 0))
	for i := 0; i < idx.TotalChunks; i++ {
		data, ok := s.GetString(ChunkKey(bookID, i))
		if !ok {
			s.log.Warn("chunk %d of %d missing for %s", i, idx.TotalChunks, bookID)
			return nil
		}
		var part []string
		if err := json.Unmarshal([]byte(data), &part); err != nil {
			s.log.Warn("chunk %d of %s is corrupt: %v", i, bookID, err)
			return nil
		}
		all = append(all, part...)
	}
	if len(all) != idx.TotalWords {
		s.log.Warn("word count mismatch for %s: index says %d, chunks hold %d", bookID, idx.TotalWords, len(all))
		return nil
	}
	return all
}

// ClearWords removes the main key and, for chunked entries, every chunk key.
func (s *Store) ClearWords(bookID string) {
	if bookID == "" {
		return
	}
	raw, ok := s.GetString(WordsKey(bookID))
	if !ok {
		return
	}
	if _, idx, ok := parseMain(raw); ok && idx != nil {
		for i := 0; i < idx.TotalChunks; i++ {
			s.Remove(ChunkKey(bookID, i))
		}
	}
	s.Remove(WordsKey(bookID))
}

// InspectWords reports the shape of a book's entry without reading chunks.
func (s *Store) InspectWords(bookID string) WordsInfo {
	raw, ok := s.GetString(WordsKey(bookID))
	if !ok {
		return WordsInfo{Format: FormatNone}
	}
	words, idx, ok := parseMain(raw)
	switch {
	case !ok:
		return WordsInfo{Format: FormatUnknown}
	case idx != nil:
		return WordsInfo{Format: FormatChunked, TotalWords: idx.TotalWords, TotalChunks: idx.TotalChunks}
	default:
		return WordsInfo{Format: FormatArray, TotalWords: len(words)}
	}
}

// WordKeys lists every key in the words namespace, main and chunk keys alike.
func (s *Store) WordKeys() []string {
	keys, err := s.Keys()
	if err != nil {
		s.log.Warn("failed to list keys: %v", err)
		return nil
	}
	var out []string
	for _, k := range keys {
		if IsWordsKey(k) {
			out = append(out, k)
		}
	}
	return out
}

// WordBookIDs returns the ids of books with a main words key, sorted.
func (s *Store) WordBookIDs() []string {
	var ids []string
	for _, k := range s.WordKeys() {
		if !IsChunkKey(k) {
			ids = append(ids, BookIDFromWordKey(k))
		}
	}
	sort.Strings(ids)
	return ids
}
