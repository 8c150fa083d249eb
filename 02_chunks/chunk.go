package chunks

import (
	"errors"
	"fmt"
	"strings"

	"book-video-pipeline/logger"
	"book-video-pipeline/types"
)

// ErrInvalidChunkSize is returned when words per chunk is below one.
var ErrInvalidChunkSize = errors.New("words per chunk must be >= 1")

// Chunk groups the word stream into caption units of k words joined by a
// single space. The final chunk holds the remainder. Words are never
// dropped or reordered.
func Chunk(words []string, k int) ([]string, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidChunkSize, k)
	}
	if len(words) == 0 {
		return nil, nil
	}

	out := make([]string, 0, (len(words)+k-1)/k)
	for start := 0; start < len(words); start += k {
		end := start + k
		if end > len(words) {
			end = len(words)
		}
		out = append(out, strings.Join(words[start:end], " "))
	}
	return out, nil
}

// MapChapters converts chapter word offsets into chunk ranges.
//
// A chapter whose start index falls outside [0, numChunks) is dropped with a
// warning and returned in dropped. Each kept chapter ends where the next kept
// chapter starts, the last one at numChunks. Words before the first marker
// belong to the first kept chapter, so the ranges always cover [0, numChunks).
func MapChapters(chapters []types.Chapter, k, numChunks int) (ranges []types.ChapterRange, dropped []types.Chapter, err error) {
	if k < 1 {
		return nil, nil, fmt.Errorf("%w: got %d", ErrInvalidChunkSize, k)
	}

	for _, ch := range chapters {
		idx := ch.WordOffset / k
		if ch.WordOffset < 0 || idx >= numChunks {
			logger.Warn("Chapter maps to invalid chunk index, skipping", map[string]interface{}{
				"stage":       "chunks",
				"chapter":     ch.ID,
				"word_offset": ch.WordOffset,
				"chunk_index": idx,
				"chunks":      numChunks,
			})
			dropped = append(dropped, ch)
			continue
		}
		logger.Debug("Chapter mapped", map[string]interface{}{
			"stage":       "chunks",
			"chapter":     ch.ID,
			"chunk_index": idx,
		})
		ranges = append(ranges, types.ChapterRange{Chapter: ch, Start: idx})
	}

	if len(ranges) == 0 {
		if numChunks > 0 {
			logger.Warn("No chapter survived mapping, using a single section", map[string]interface{}{"stage": "chunks"})
			ranges = append(ranges, types.ChapterRange{
				Chapter: types.Chapter{ID: "1", Number: 1, Title: "Start"},
			})
		} else {
			return nil, dropped, nil
		}
	}

	if ranges[0].Start > 0 {
		logger.Info("Text before the first chapter marker folded into it", map[string]interface{}{
			"stage":   "chunks",
			"chapter": ranges[0].Chapter.ID,
			"chunks":  ranges[0].Start,
		})
		ranges[0].Start = 0
	}

	for i := range ranges {
		if i+1 < len(ranges) {
			ranges[i].End = ranges[i+1].Start
		} else {
			ranges[i].End = numChunks
		}
		if ranges[i].End < ranges[i].Start {
			// offsets out of order; keep the range empty rather than negative
			ranges[i].End = ranges[i].Start
		}
	}
	return ranges, dropped, nil
}
