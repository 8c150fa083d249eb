package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"time"

	"book-video-pipeline/01_chapters"
	"book-video-pipeline/02_chunks"
	"book-video-pipeline/04_encode"
	"book-video-pipeline/06_upload"
	"book-video-pipeline/config"
	"book-video-pipeline/logger"
	"book-video-pipeline/runlog"
	"book-video-pipeline/types"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	cfg        *config.Config
	configPath string
)

var rootCmd = &cobra.Command{
	Use:           "bookvideo",
	Short:         "Turn chaptered book text into captioned chapter videos",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; real environment variables win
		_ = godotenv.Load()

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger.Init(cfg.LogLevel)
		return nil
	},
}

var captionsFlags struct {
	file   string
	title  string
	author string
}

var captionsCmd = &cobra.Command{
	Use:   "captions",
	Short: "Render one caption video per chapter of txts/<name>/chaptered.txt",
	RunE:  runCaptions,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to config file")

	captionsCmd.Flags().StringVar(&captionsFlags.file, "file", "", "text file name (prompted if empty)")
	captionsCmd.Flags().StringVar(&captionsFlags.title, "title", "", "book title (prompted if empty)")
	captionsCmd.Flags().StringVar(&captionsFlags.author, "author", "", "author name (prompted if empty)")
	rootCmd.AddCommand(captionsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runCaptions(cmd *cobra.Command, args []string) error {
	start := time.Now()
	p := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())

	fileName, err := p.ask("Enter the name of the text file: ", captionsFlags.file)
	if err != nil {
		return err
	}
	fileName = withTxtExt(fileName)
	baseName := baseNameOf(fileName)

	inputFile, err := locateInput(cfg.Paths, baseName)
	if err != nil {
		return err
	}

	bookTitle, err := p.ask("Enter the book title: ", captionsFlags.title)
	if err != nil {
		return err
	}
	author, err := p.ask("Enter the author name: ", captionsFlags.author)
	if err != nil {
		return err
	}

	runID := uuid.NewString()[:8]
	bookDir := filepath.Join(cfg.Paths.Videos, baseName)
	if err := os.MkdirAll(bookDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	logger.Info("🎬 Book video pipeline starting", map[string]interface{}{
		"run_id": runID,
		"input":  inputFile,
		"title":  bookTitle,
		"author": author,
	})

	state := &types.RunState{
		RunID:     runID,
		StartedAt: time.Now().UTC().Format(time.RFC3339),
		InputFile: inputFile,
		BookTitle: bookTitle,
		Author:    author,
	}
	defer func() {
		state.CompletedAt = time.Now().UTC().Format(time.RFC3339)
		saveState(state, bookDir)
		recordRun("captions", bookTitle, start)
		logMemStats()
	}()

	if err := buildChapterVideos(cmd.Context(), state, baseName, bookDir); err != nil {
		state.Error = err.Error()
		return err
	}

	logger.Info("✅ Pipeline complete", map[string]interface{}{
		"run_id":    runID,
		"chapters":  len(state.Chapters),
		"succeeded": state.Succeeded(),
		"dropped":   len(state.DroppedChapter),
		"took":      time.Since(start).Round(time.Second).String(),
	})
	return nil
}

// buildChapterVideos runs extraction, chunking, chapter mapping, emission
// and the optional upload for one book, filling in state as it goes.
func buildChapterVideos(ctx context.Context, state *types.RunState, baseName, bookDir string) error {
	book, err := chapters.ExtractFile(state.InputFile)
	if err != nil {
		return fmt.Errorf("extract chapters: %w", err)
	}
	state.TotalWords = len(book.Words)

	k := cfg.Captions.WordsPerChunk
	captionChunks, err := chunks.Chunk(book.Words, k)
	if err != nil {
		return fmt.Errorf("chunk words: %w", err)
	}
	state.TotalChunks = len(captionChunks)

	ranges, dropped, err := chunks.MapChapters(book.Chapters, k, len(captionChunks))
	if err != nil {
		return fmt.Errorf("map chapters: %w", err)
	}
	for _, c := range dropped {
		state.DroppedChapter = append(state.DroppedChapter, c.ID)
	}
	if len(ranges) == 0 {
		logger.Warn("No words found, nothing to render", map[string]interface{}{"input": state.InputFile})
		return nil
	}

	emitter := encode.NewEmitter(cfg, encode.NewFFmpegEncoder(cfg.Video))
	results, err := emitter.Run(ctx, encode.BookInfo{
		Title:    state.BookTitle,
		Author:   state.Author,
		BaseName: baseName,
	}, captionChunks, ranges, filepath.Join(bookDir, "chapters"))
	state.Chapters = results
	if err != nil {
		return fmt.Errorf("emit chapters: %w", err)
	}
	if state.Succeeded() == 0 {
		return errors.New("no chapter video could be created")
	}

	if cfg.Upload.Enabled {
		publisher := upload.New(cfg)
		if err := publisher.PublishAll(ctx, state.BookTitle, state.Author, state.Chapters); err != nil {
			logger.Warn("Upload skipped, continuing", map[string]interface{}{"error": err.Error()})
		}
	}
	return nil
}

// locateInput resolves txts/<base>/chaptered.txt and checks it exists.
func locateInput(paths config.PathsConfig, baseName string) (string, error) {
	if _, err := os.Stat(paths.Texts); err != nil {
		return "", fmt.Errorf("the '%s' directory does not exist", paths.Texts)
	}
	input := filepath.Join(paths.Texts, baseName, paths.ChapteredFile)
	if _, err := os.Stat(input); err != nil {
		return "", fmt.Errorf("the file '%s' does not exist", input)
	}
	return input, nil
}

// recordRun appends the run-log line; failures are logged, not returned.
func recordRun(script, bookTitle string, start time.Time) {
	entry := runlog.Entry{
		Date:      start,
		Script:    script,
		BookTitle: bookTitle,
		Runtime:   time.Since(start),
	}
	if err := runlog.Append(cfg.Paths.RunLog, entry); err != nil {
		logger.Warn("Could not write run log", map[string]interface{}{"error": err.Error()})
		return
	}
	logger.Info("Run details logged", map[string]interface{}{
		"file":    cfg.Paths.RunLog,
		"runtime": runlog.FormatRuntime(entry.Runtime),
	})
}

func logMemStats() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	logger.Debug("Memory usage", map[string]interface{}{
		"alloc_mb":       m.Alloc / 1024 / 1024,
		"total_alloc_mb": m.TotalAlloc / 1024 / 1024,
		"sys_mb":         m.Sys / 1024 / 1024,
		"num_gc":         m.NumGC,
	})
}

func saveState(state *types.RunState, dir string) {
	saveJSON(filepath.Join(dir, "pipeline_state.json"), state)
}

func saveJSON(path string, v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		logger.Warn("Could not marshal JSON", map[string]interface{}{"path": path, "error": err.Error()})
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		logger.Warn("Could not save file", map[string]interface{}{"path": path, "error": err.Error()})
	}
}
