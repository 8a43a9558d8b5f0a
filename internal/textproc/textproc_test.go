// file: internal/textproc/textproc_test.go
// version: 1.0.0
// guid: 2b9e4d7a-0c61-4f38-b5a2-e7d3c1f8a094

package textproc

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jdfalk/speed-reader/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"one", "two", "three"}, Tokenize("  one\ttwo\n\nthree "))
	assert.Equal(t, []string{}, Tokenize(" \n\t "))

	// e + combining acute composes to a single code point
	words := Tokenize("cafe\u0301 au lait")
	require.Len(t, words, 3)
	assert.Equal(t, "caf\u00e9", words[0])
}

func TestIsHeading(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"Chapter 1", true},
		{"  CHAPTER XII. The Storm", true},
		{"chapter one", true},
		{"Chapter", true},
		{"Chapters of the past", false},
		{"The chapter ended", false},
		{"", false},
		{"Chapter " + strings.Repeat("x", 100), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsHeading(tt.line), tt.line)
	}
}

func TestParseChapters(t *testing.T) {
	src := "A short preface.\n\nChapter 1\nIt was dark.\n\nChapter 2\nThe end came quickly here.\n"

	doc, err := Parse(strings.NewReader(src), "ignored")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"A", "short", "preface.",
		"Chapter", "1", "It", "was", "dark.",
		"Chapter", "2", "The", "end", "came", "quickly", "here.",
	}, doc.Words)
	assert.Equal(t, []models.Chapter{
		{Title: "Preface", StartIndex: 0, EndIndex: 2},
		{Title: "Chapter 1", StartIndex: 3, EndIndex: 7},
		{Title: "Chapter 2", StartIndex: 8, EndIndex: 14},
	}, doc.Chapters)
	assert.NoError(t, models.ValidateChapters(doc.Chapters, len(doc.Words)))
	assert.Equal(t, src, doc.Text)
}

func TestParseWithoutHeadingsIsOneChapter(t *testing.T) {
	doc, err := Parse(strings.NewReader("just some words\nacross lines"), "Notes")
	require.NoError(t, err)
	assert.Len(t, doc.Words, 5)
	assert.Equal(t, []models.Chapter{{Title: "Notes", StartIndex: 0, EndIndex: 4}}, doc.Chapters)
}

func TestParseEmpty(t *testing.T) {
	doc, err := Parse(strings.NewReader(""), "Empty")
	require.NoError(t, err)
	assert.NotNil(t, doc.Words)
	assert.Empty(t, doc.Words)
	assert.Nil(t, doc.Chapters)
}

func TestParseUTF16WithBOM(t *testing.T) {
	// UTF-16LE BOM followed by "hi there"
	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xFE})
	for _, r := range "hi there" {
		buf.Write([]byte{byte(r), 0})
	}

	doc, err := Parse(&buf, "t")
	require.NoError(t, err)
	assert.Equal(t, []string{"hi", "there"}, doc.Words)
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "My Story.txt")
	require.NoError(t, os.WriteFile(path, []byte("Once upon a time."), 0o644))

	doc, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Once", "upon", "a", "time."}, doc.Words)
	require.Len(t, doc.Chapters, 1)
	assert.Equal(t, "My Story", doc.Chapters[0].Title)

	_, err = ReadFile(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}
