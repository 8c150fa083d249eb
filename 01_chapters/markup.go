package chapters

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"book-video-pipeline/logger"
)

var tocLinePattern = regexp.MustCompile(`^(` + romanExpr + `)\.\s+(.+?)\s+\d+$`)

// TOCEntry is one line of a book's table of contents.
type TOCEntry struct {
	Roman  string
	Number int
	Title  string
}

// ParseTOC reads "<ROMAN>. <TITLE>   <page>" lines. Lines that do not
// match are ignored.
func ParseTOC(toc string) []TOCEntry {
	var entries []TOCEntry
	scanner := bufio.NewScanner(strings.NewReader(toc))
	for scanner.Scan() {
		m := tocLinePattern.FindStringSubmatch(strings.TrimSpace(scanner.Text()))
		if m == nil {
			continue
		}
		n, ok := RomanToInt(m[1])
		if !ok {
			continue
		}
		entries = append(entries, TOCEntry{Roman: m[1], Number: n, Title: strings.TrimSpace(m[2])})
	}
	return entries
}

// MarkChapters replaces each heading of the form
//
//	  IV.
//	  THE INTERVIEW.
//
// with a chapter marker followed by a title line the extractor recognises.
// It returns the rewritten text and how many headings were replaced.
func MarkChapters(text string, toc []TOCEntry) (string, int) {
	replaced := 0
	for _, e := range toc {
		pattern := regexp.MustCompile(`(?m)^[ \t]*` + regexp.QuoteMeta(e.Roman+".") +
			`[ \t]*\r?\n\s*` + regexp.QuoteMeta(e.Title) + `\.[ \t]*\r?$`)
		replacement := fmt.Sprintf("[[chapter-%d-start]]\nChapter %s. %s.", e.Number, e.Roman, e.Title)

		n := len(pattern.FindAllStringIndex(text, -1))
		if n == 0 {
			logger.Warn("Chapter heading not found in text", map[string]interface{}{
				"stage": "markup",
				"roman": e.Roman,
				"title": e.Title,
			})
			continue
		}
		text = pattern.ReplaceAllLiteralString(text, replacement)
		replaced += n
	}
	return text, replaced
}

// MarkFile rewrites inputPath using the TOC at tocPath and saves the result
// as <outRoot>/<stem>/<outName>. It returns the written path.
func MarkFile(inputPath, tocPath, outRoot, outName string) (string, error) {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadableInput, err)
	}
	tocData, err := os.ReadFile(tocPath)
	if err != nil {
		return "", fmt.Errorf("read table of contents: %w", err)
	}

	toc := ParseTOC(string(tocData))
	if len(toc) == 0 {
		return "", fmt.Errorf("no entries found in table of contents %s", tocPath)
	}

	marked, n := MarkChapters(string(data), toc)
	logger.Info("Chapter headings marked", map[string]interface{}{
		"stage":    "markup",
		"replaced": n,
		"toc":      len(toc),
	})

	stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	outDir := filepath.Join(outRoot, stem)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	outFile := filepath.Join(outDir, outName)
	if err := os.WriteFile(outFile, []byte(marked), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", outFile, err)
	}
	return outFile, nil
}
