package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Captions CaptionsConfig `yaml:"captions"`
	Frames   FramesConfig   `yaml:"frames"`
	Video    VideoConfig    `yaml:"video"`
	Noise    NoiseConfig    `yaml:"noise"`
	Merge    MergeConfig    `yaml:"merge"`
	Upload   UploadConfig   `yaml:"upload"`
	Paths    PathsConfig    `yaml:"paths"`
	LogLevel string         `yaml:"log_level"`
}

// CaptionsConfig controls segmentation and pacing of caption chunks.
type CaptionsConfig struct {
	// WordsPerChunk is the number of words shown per caption frame. Must be >= 1.
	WordsPerChunk int `yaml:"words_per_chunk"`
	// WordsPerMinute is the constant reading speed used to time chunks.
	WordsPerMinute float64 `yaml:"words_per_minute"`
	// TitleDurationSec is how long the title card is shown before captions start.
	TitleDurationSec float64 `yaml:"title_duration_sec"`
	// WriteSRT writes a <video>.srt sidecar next to each chapter video.
	WriteSRT bool `yaml:"write_srt"`
}

// FramesConfig controls frame raster size and typography.
type FramesConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	// FontPath is a TrueType/OpenType file. When it cannot be loaded the
	// built-in Go font is used instead.
	FontPath         string  `yaml:"font_path"`
	TitleFontSize    float64 `yaml:"title_font_size"`
	SubtitleFontSize float64 `yaml:"subtitle_font_size"`
	CaptionFontSize  float64 `yaml:"caption_font_size"`
	WatermarkSize    float64 `yaml:"watermark_font_size"`
	Watermark        string  `yaml:"watermark"`
}

// VideoConfig holds encoder settings passed to ffmpeg.
type VideoConfig struct {
	FFmpegPath string `yaml:"ffmpeg_path"`
	FPS        int    `yaml:"fps"`
	Bitrate    string `yaml:"bitrate"`
	Codec      string `yaml:"codec"`
	Preset     string `yaml:"preset"`
}

type NoiseConfig struct {
	SampleRate     int     `yaml:"sample_rate"`
	DurationSec    float64 `yaml:"duration_sec"`
	WhiteAmplitude float64 `yaml:"white_amplitude"`
	BrownAmplitude float64 `yaml:"brown_amplitude"`
}

type MergeConfig struct {
	AudioCodec   string  `yaml:"audio_codec"`
	AudioBitrate string  `yaml:"audio_bitrate"`
	BrownVolume  float64 `yaml:"brown_volume"`
	NoiseVolume  float64 `yaml:"noise_volume"`
}

type UploadConfig struct {
	Enabled           bool   `yaml:"enabled"`
	Visibility        string `yaml:"visibility"`
	CategoryID        string `yaml:"category_id"`
	NotifySubscribers bool   `yaml:"notify_subscribers"`
	MadeForKids       bool   `yaml:"made_for_kids"`
	DefaultLanguage   string `yaml:"default_language"`
}

type PathsConfig struct {
	Texts         string `yaml:"texts"`
	ChapteredFile string `yaml:"chaptered_file"`
	InputTexts    string `yaml:"input_texts"`
	Videos        string `yaml:"videos"`
	Audio         string `yaml:"audio"`
	VideosAudio   string `yaml:"videos_with_audio"`
	RunLog        string `yaml:"run_log"`
}

// Default returns the configuration used when no config.yaml is present.
func Default() *Config {
	return &Config{
		Captions: CaptionsConfig{
			WordsPerChunk:    1,
			WordsPerMinute:   450,
			TitleDurationSec: 3,
			WriteSRT:         true,
		},
		Frames: FramesConfig{
			Width:            640,
			Height:           360,
			FontPath:         "arial.ttf",
			TitleFontSize:    40,
			SubtitleFontSize: 30,
			CaptionFontSize:  30,
			WatermarkSize:    15,
			Watermark:        "Generated by book-video-pipeline",
		},
		Video: VideoConfig{
			FFmpegPath: "ffmpeg",
			FPS:        24,
			Bitrate:    "1000k",
			Codec:      "libx264",
			Preset:     "medium",
		},
		Noise: NoiseConfig{
			SampleRate:     44100,
			DurationSec:    60,
			WhiteAmplitude: 0.1,
			BrownAmplitude: 0.5,
		},
		Merge: MergeConfig{
			AudioCodec:   "aac",
			AudioBitrate: "192k",
			BrownVolume:  1.0,
			NoiseVolume:  0.5,
		},
		Upload: UploadConfig{
			Enabled:         false,
			Visibility:      "private",
			CategoryID:      "27",
			DefaultLanguage: "en",
		},
		Paths: PathsConfig{
			Texts:         "txts",
			ChapteredFile: "chaptered.txt",
			InputTexts:    "input-txts",
			Videos:        "videos",
			Audio:         "audio",
			VideosAudio:   "videos_with_audio",
			RunLog:        "run_details.txt",
		},
		LogLevel: "info",
	}
}

// Load reads config.yaml over the defaults and applies environment overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Captions.WordsPerMinute = getEnvAsFloat("BOOKVIDEO_WPM", c.Captions.WordsPerMinute)
	c.Captions.WordsPerChunk = getEnvAsInt("BOOKVIDEO_WORDS_PER_CHUNK", c.Captions.WordsPerChunk)
	c.Frames.FontPath = getEnv("BOOKVIDEO_FONT", c.Frames.FontPath)
	c.Frames.Watermark = getEnv("BOOKVIDEO_WATERMARK", c.Frames.Watermark)
	c.Upload.Enabled = getEnvAsBool("BOOKVIDEO_UPLOAD", c.Upload.Enabled)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
}

// Validate rejects settings the timing model cannot work with.
func (c *Config) Validate() error {
	if c.Captions.WordsPerChunk < 1 {
		return fmt.Errorf("captions.words_per_chunk must be >= 1, got %d", c.Captions.WordsPerChunk)
	}
	if c.Captions.WordsPerMinute <= 0 {
		return fmt.Errorf("captions.words_per_minute must be > 0, got %g", c.Captions.WordsPerMinute)
	}
	if c.Captions.TitleDurationSec < 0 {
		return fmt.Errorf("captions.title_duration_sec must be >= 0")
	}
	if c.Frames.Width <= 0 || c.Frames.Height <= 0 {
		return fmt.Errorf("frames size must be positive, got %dx%d", c.Frames.Width, c.Frames.Height)
	}
	if c.Video.FPS <= 0 {
		return fmt.Errorf("video.fps must be > 0, got %d", c.Video.FPS)
	}
	return nil
}

// SecondsPerChunk is the on-screen time of one caption chunk.
func (c CaptionsConfig) SecondsPerChunk() float64 {
	return (60 / c.WordsPerMinute) * float64(c.WordsPerChunk)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return valueStr == "true" || valueStr == "1"
}
