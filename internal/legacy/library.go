// file: internal/legacy/library.go
// version: 1.0.0
// guid: 60c2f7a4-e81b-4d53-9c06-a4b7e3d1f928

package legacy

import (
	"encoding/json"
	"fmt"

	"github.com/jdfalk/speed-reader/internal/models"
)

// libraryStub is the minimal reference record kept in the legacy library.
type libraryStub struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// LoadLibrary parses the legacy library array. Entries that fail to parse or
// lack an id are skipped; stubs come back with an empty FileName.
func (s *Store) LoadLibrary() []models.Book {
	raw, ok := s.GetString(KeyLibrary)
	if !ok || raw == "" {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.log.Warn("legacy library is not an array: %v", err)
		return nil
	}
	books := make([]models.Book, 0, len(items))
	for i, item := range items {
		var b models.Book
		if err := json.Unmarshal(item, &b); err != nil {
			s.log.Warn("skipping legacy library entry %d: %v", i, err)
			continue
		}
		if b.ID == "" {
			continue
		}
		books = append(books, b)
	}
	return books
}

// rawLibrary returns the library entries untouched so unknown fields survive
// a rewrite.
func (s *Store) rawLibrary() []json.RawMessage {
	raw, ok := s.GetString(KeyLibrary)
	if !ok || raw == "" {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil
	}
	return items
}

func entryID(item json.RawMessage) string {
	var head struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(item, &head); err != nil {
		return ""
	}
	return head.ID
}

func (s *Store) writeLibrary(items []json.RawMessage) error {
	if items == nil {
		items = []json.RawMessage{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode library: %w", err)
	}
	return s.Set(KeyLibrary, string(data))
}

// SaveLibrary replaces the legacy library with books.
func (s *Store) SaveLibrary(books []models.Book) error {
	items := make([]json.RawMessage, 0, len(books))
	for _, b := range books {
		data, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("failed to encode book %s: %w", b.ID, err)
		}
		items = append(items, data)
	}
	return s.writeLibrary(items)
}

// PutLibraryStub inserts or replaces the {id,title} reference for a book.
func (s *Store) PutLibraryStub(id, title string) error {
	stub, err := json.Marshal(libraryStub{ID: id, Title: title})
	if err != nil {
		return err
	}
	items := s.rawLibrary()
	for i, item := range items {
		if entryID(item) == id {
			items[i] = stub
			return s.writeLibrary(items)
		}
	}
	return s.writeLibrary(append(items, stub))
}

// RemoveLibraryEntry drops the entry with id. A missing entry is not an error.
func (s *Store) RemoveLibraryEntry(id string) error {
	items := s.rawLibrary()
	if items == nil {
		return nil
	}
	kept := items[:0]
	removed := false
	for _, item := range items {
		if entryID(item) == id {
			removed = true
			continue
		}
		kept = append(kept, item)
	}
	if !removed {
		return nil
	}
	return s.writeLibrary(kept)
}
