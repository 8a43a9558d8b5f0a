// file: internal/models/book.go
// version: 1.0.0
// guid: a7c31e5d-94b2-4f08-8e6a-2d15c9b4f073

package models

import (
	"errors"
	"fmt"
	"time"
)

// DefaultAuthor is used when a parser cannot determine the author.
const DefaultAuthor = "Unknown"

// Chapter is an inclusive word range inside a book.
type Chapter struct {
	Title      string `json:"title"`
	StartIndex int    `json:"startIndex"`
	EndIndex   int    `json:"endIndex"`
}

// Book is the metadata record of an imported book. Words live in WordChunks.
type Book struct {
	ID               string    `json:"id"`
	FileName         string    `json:"fileName"`
	Title            string    `json:"title"`
	Author           string    `json:"author"`
	CoverURL         *string   `json:"coverUrl"`
	TotalWords       int       `json:"totalWords"`
	CurrentWordIndex int       `json:"currentWordIndex"`
	LastReadDate     time.Time `json:"lastReadDate"`
	Chapters         []Chapter `json:"chapters"`
}

// Clone returns a deep copy so callers can mutate without aliasing.
func (b *Book) Clone() *Book {
	if b == nil {
		return nil
	}
	out := *b
	if b.CoverURL != nil {
		cover := *b.CoverURL
		out.CoverURL = &cover
	}
	if b.Chapters != nil {
		out.Chapters = append([]Chapter(nil), b.Chapters...)
	}
	return &out
}

// IsStub reports whether the record is a legacy reference stub ({id,title}
// without a file name) rather than a full book.
func (b *Book) IsStub() bool {
	return b.FileName == ""
}

// CurrentChapter returns the chapter index that contains the reading cursor.
func (b *Book) CurrentChapter() int {
	return ChapterAt(b.Chapters, b.CurrentWordIndex)
}

// ChapterAt returns the index of the chapter containing wordIndex. Indices past
// the last chapter map to the last chapter; no chapters maps to 0.
func ChapterAt(chapters []Chapter, wordIndex int) int {
	if len(chapters) == 0 {
		return 0
	}
	for i, ch := range chapters {
		if wordIndex >= ch.StartIndex && wordIndex <= ch.EndIndex {
			return i
		}
	}
	if wordIndex < chapters[0].StartIndex {
		return 0
	}
	return len(chapters) - 1
}

var ErrInvalidChapters = errors.New("invalid chapter ranges")

// ValidateChapters checks that chapters are ascending, contiguous inclusive
// ranges covering [0, totalWords-1].
func ValidateChapters(chapters []Chapter, totalWords int) error {
	if len(chapters) == 0 {
		return nil
	}
	next := 0
	for i, ch := range chapters {
		if ch.EndIndex < ch.StartIndex {
			return fmt.Errorf("%w: chapter %d ends before it starts (%d < %d)", ErrInvalidChapters, i, ch.EndIndex, ch.StartIndex)
		}
		if ch.StartIndex != next {
			return fmt.Errorf("%w: chapter %d starts at %d, expected %d", ErrInvalidChapters, i, ch.StartIndex, next)
		}
		next = ch.EndIndex + 1
	}
	if totalWords > 0 && next != totalWords {
		return fmt.Errorf("%w: chapters cover %d words, book has %d", ErrInvalidChapters, next, totalWords)
	}
	return nil
}
