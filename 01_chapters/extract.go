package chapters

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"book-video-pipeline/logger"
	"book-video-pipeline/types"
)

// ErrUnreadableInput is returned when the chaptered text cannot be read.
var ErrUnreadableInput = errors.New("unreadable input text")

var (
	markerPattern = regexp.MustCompile(`(?i)^\[\[chapter-(\d+)-start\]\]`)
	titlePattern  = regexp.MustCompile(`(?i)Chapter\s+(` + romanExpr + `)\.\s*(\S[^\n]*)`)
)

// Implicit chapter used when the text carries no markers at all.
const (
	implicitChapterID    = "1"
	implicitChapterTitle = "Start"
)

// ExtractFile reads path and extracts its word stream and chapter markers.
func ExtractFile(path string) (*types.Book, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableInput, err)
	}
	defer f.Close()
	return Extract(f)
}

// Extract scans line-oriented text and returns the flat word stream plus
// the ordered chapter markers, each pointing at a word offset in that stream.
// Marker offsets are non-decreasing. A title line directly following a
// marker is consumed and does not contribute words.
func Extract(r io.Reader) (*types.Book, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableInput, err)
	}
	text := norm.NFC.String(strings.TrimPrefix(string(data), "\ufeff"))
	lines := strings.Split(text, "\n")

	for i := 0; i < len(lines) && i < 5; i++ {
		logger.Debug("Input preview", map[string]interface{}{
			"stage": "chapters",
			"line":  i + 1,
			"text":  preview(strings.TrimSpace(lines[i]), 100),
		})
	}

	book := &types.Book{}
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}

		if m := markerPattern.FindStringSubmatch(line); m != nil {
			id := m[1]
			title, ok := findTitle(line[len(m[0]):], false)
			if !ok && i+1 < len(lines) {
				if title, ok = findTitle(strings.TrimSpace(lines[i+1]), true); ok {
					i++
				}
			}

			fields := map[string]interface{}{"stage": "chapters", "chapter": id, "word": len(book.Words)}
			if !ok {
				title = "Chapter " + id
				logger.Info("No title found for chapter marker, using default", fields)
			} else {
				logger.Info("Detected chapter", withField(fields, "title", title))
			}

			number, _ := strconv.Atoi(id)
			book.Chapters = append(book.Chapters, types.Chapter{
				ID:         id,
				Number:     number,
				Title:      title,
				WordOffset: len(book.Words),
			})
			continue
		}

		if strings.HasPrefix(strings.ToLower(line), "chapter") || strings.Contains(line, "[[") {
			logger.Debug("Potential chapter line not matched", map[string]interface{}{
				"stage": "chapters",
				"text":  preview(line, 100),
			})
		}
		book.Words = append(book.Words, strings.Fields(line)...)
	}

	if len(book.Chapters) == 0 {
		book.Chapters = []types.Chapter{{ID: implicitChapterID, Number: 1, Title: implicitChapterTitle}}
		logger.Info("No chapters detected, treating the entire text as a single section", map[string]interface{}{"stage": "chapters"})
	}

	logger.Info("Extraction complete", map[string]interface{}{
		"stage":    "chapters",
		"chapters": len(book.Chapters),
		"words":    len(book.Words),
	})
	return book, nil
}

// findTitle looks for "Chapter <ROMAN>. <TITLE>" in s. With anchored set the
// pattern must start at the beginning of s.
func findTitle(s string, anchored bool) (string, bool) {
	loc := titlePattern.FindStringSubmatchIndex(s)
	if loc == nil || (anchored && loc[0] != 0) {
		return "", false
	}
	roman := s[loc[2]:loc[3]]
	if roman == "" {
		return "", false
	}
	title := strings.TrimSpace(s[loc[4]:loc[5]])
	return fmt.Sprintf("Chapter %s. %s", roman, title), true
}

func withField(fields map[string]interface{}, k string, v interface{}) map[string]interface{} {
	fields[k] = v
	return fields
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
