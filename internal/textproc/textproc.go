// file: internal/textproc/textproc.go
// version: 1.0.0
// guid: 8f3c6a1d-e5b2-4097-a4d8-1b7e9c0f3d26

// Package textproc turns plain-text sources into the word sequence and
// chapter ranges the reader stores.
package textproc

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/jdfalk/speed-reader/internal/models"
)

const (
	maxLineBytes  = 1024 * 1024
	prefaceTitle  = "Preface"
	maxHeadingLen = 80
)

var headingPattern = regexp.MustCompile(`(?i)^chapter(\s+\S+|$)`)

// Document is the parsed form of a source file
type Document struct {
	Text     string
	Words    []string
	Chapters []models.Chapter
}

// Tokenize normalizes text to NFC and splits it on whitespace.
func Tokenize(text string) []string {
	words := strings.Fields(norm.NFC.String(text))
	if words == nil {
		return []string{}
	}
	return words
}

// IsHeading reports whether line starts a new chapter.
func IsHeading(line string) bool {
	line = strings.TrimSpace(line)
	return line != "" && len(line) <= maxHeadingLen && headingPattern.MatchString(line)
}

// Parse reads r as UTF-8 (or BOM-marked UTF-16) text. Chapters start at
// heading lines; text before the first heading becomes a preface. Without
// headings the whole text is one chapter named title.
func Parse(r io.Reader, title string) (*Document, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	scanner := bufio.NewScanner(decoded)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	doc := &Document{Words: []string{}}
	var text strings.Builder
	var current *models.Chapter
	closeChapter := func() {
		if current != nil && len(doc.Words) > current.StartIndex {
			current.EndIndex = len(doc.Words) - 1
			doc.Chapters = append(doc.Chapters, *current)
		}
		current = nil
	}

	for scanner.Scan() {
		line := scanner.Text()
		text.WriteString(line)
		text.WriteByte('\n')

		if IsHeading(line) {
			if current == nil && len(doc.Words) > 0 {
				doc.Chapters = append(doc.Chapters, models.Chapter{Title: prefaceTitle, StartIndex: 0, EndIndex: len(doc.Words) - 1})
			}
			closeChapter()
			current = &models.Chapter{Title: norm.NFC.String(strings.TrimSpace(line)), StartIndex: len(doc.Words)}
		}
		doc.Words = append(doc.Words, Tokenize(line)...)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read text: %w", err)
	}
	closeChapter()

	doc.Text = norm.NFC.String(text.String())
	if len(doc.Chapters) == 0 && len(doc.Words) > 0 {
		doc.Chapters = []models.Chapter{{Title: title, StartIndex: 0, EndIndex: len(doc.Words) - 1}}
	}
	return doc, nil
}

// ReadFile parses a plain-text file. The file name without extension names
// the single chapter of a file without headings.
func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Parse(f, title)
}
