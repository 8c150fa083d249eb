package encode

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"book-video-pipeline/03_frames"
	"book-video-pipeline/config"
	"book-video-pipeline/logger"
	"book-video-pipeline/types"
)

// BookInfo is the title-card text shared by every chapter of a book.
type BookInfo struct {
	Title  string
	Author string
	// BaseName names output files: <BaseName>-<chapter id>.mp4
	BaseName string
}

// Emitter renders and encodes one video per chapter range
type Emitter struct {
	cfg     *config.Config
	encoder Encoder
	synth   *frames.Synthesizer
}

// NewEmitter creates an Emitter using enc for the actual encoding
func NewEmitter(cfg *config.Config, enc Encoder) *Emitter {
	return &Emitter{
		cfg:     cfg,
		encoder: enc,
		synth:   frames.NewSynthesizer(cfg.Frames),
	}
}

// OutputPath is where a chapter's video is written.
func OutputPath(outputDir, baseName, chapterID string) string {
	return filepath.Join(outputDir, fmt.Sprintf("%s-%s.mp4", baseName, chapterID))
}

// Clip builds the frame source for one chapter range.
func (e *Emitter) Clip(book BookInfo, chunks []string, r types.ChapterRange) *frames.Clip {
	return &frames.Clip{
		Synth:           e.synth,
		BookTitle:       book.Title,
		Author:          book.Author,
		ChapterTitle:    r.Chapter.Title,
		Chunks:          chunks,
		Start:           r.Start,
		Count:           r.Len(),
		TitleDuration:   e.cfg.Captions.TitleDurationSec,
		SecondsPerChunk: e.cfg.Captions.SecondsPerChunk(),
	}
}

// Run emits every chapter in order. A chapter that fails to encode is
// reported in its result and does not stop the remaining chapters.
func (e *Emitter) Run(ctx context.Context, book BookInfo, chunks []string, ranges []types.ChapterRange, outputDir string) ([]types.ChapterResult, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	results := make([]types.ChapterResult, 0, len(ranges))
	for i, r := range ranges {
		clip := e.Clip(book, chunks, r)
		result := types.ChapterResult{
			ChapterID:   r.Chapter.ID,
			Title:       r.Chapter.Title,
			StartChunk:  r.Start,
			EndChunk:    r.End,
			DurationSec: clip.Duration(),
		}
		out := OutputPath(outputDir, book.BaseName, r.Chapter.ID)
		fields := map[string]interface{}{
			"stage":    "encode",
			"chapter":  r.Chapter.ID,
			"progress": fmt.Sprintf("%d/%d", i+1, len(ranges)),
			"chunks":   r.Len(),
			"duration": fmt.Sprintf("%.2fs", result.DurationSec),
		}
		logger.Info("Generating chapter video", fields)

		start := time.Now()
		w, h := e.synth.Size()
		err := e.encoder.Encode(ctx, Job{
			Output:   out,
			Duration: result.DurationSec,
			FPS:      e.cfg.Video.FPS,
			Width:    w,
			Height:   h,
			Frame:    clip.Render,
		})
		if err != nil {
			logger.Error(err, "Failed to create chapter video", fields)
			result.Error = err.Error()
			results = append(results, result)
			continue
		}

		result.OutputFile = out
		if e.cfg.Captions.WriteSRT {
			srt := strings.TrimSuffix(out, filepath.Ext(out)) + ".srt"
			if err := WriteSRTFile(srt, clip); err != nil {
				logger.Warn("Could not write subtitles", withError(fields, err))
			} else {
				result.SRTFile = srt
			}
		}
		results = append(results, result)
		fields["took"] = time.Since(start).Round(time.Millisecond)
		fields["output"] = out
		logger.Info("Chapter video saved", fields)
	}
	return results, nil
}

func withError(fields map[string]interface{}, err error) map[string]interface{} {
	out := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out["error"] = err.Error()
	return out
}
