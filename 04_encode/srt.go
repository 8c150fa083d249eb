package encode

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"book-video-pipeline/03_frames"
)

// WriteSRT writes a subtitle track matching the clip's timeline: one cue for
// the title card and one per caption chunk.
func WriteSRT(w io.Writer, clip *frames.Clip) error {
	bw := bufio.NewWriter(w)
	n := 1
	cue := func(from, to float64, text string) {
		fmt.Fprintf(bw, "%d\n%s --> %s\n%s\n\n", n, srtTimestamp(from), srtTimestamp(to), text)
		n++
	}

	if clip.TitleDuration > 0 {
		cue(0, clip.TitleDuration, strings.TrimSpace(clip.BookTitle+"\n"+clip.ChapterTitle))
	}
	for i := 0; i < clip.Count; i++ {
		idx := clip.Start + i
		if idx < 0 || idx >= len(clip.Chunks) {
			break
		}
		from := clip.TitleDuration + float64(i)*clip.SecondsPerChunk
		cue(from, from+clip.SecondsPerChunk, clip.Chunks[idx])
	}
	return bw.Flush()
}

// WriteSRTFile writes the clip's subtitle track to path.
func WriteSRTFile(path string, clip *frames.Clip) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create srt: %w", err)
	}
	if err := WriteSRT(f, clip); err != nil {
		f.Close()
		return fmt.Errorf("write srt: %w", err)
	}
	return f.Close()
}

// ValidateSRT checks that the SRT file is non-empty and well formed enough to
// hold at least one cue.
func ValidateSRT(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineCount := 0
	for scanner.Scan() {
		lineCount++
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if lineCount < 3 {
		return fmt.Errorf("SRT file appears empty or malformed (%d lines)", lineCount)
	}
	return nil
}

// srtTimestamp formats seconds as HH:MM:SS,mmm
func srtTimestamp(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	ms := int64(math.Round(sec * 1000))
	h := ms / 3600000
	m := (ms % 3600000) / 60000
	s := (ms % 60000) / 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms%1000)
}
