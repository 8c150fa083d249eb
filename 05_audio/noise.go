package audiobed

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"book-video-pipeline/config"
	"book-video-pipeline/logger"
)

// Color selects the noise spectrum.
type Color string

const (
	White Color = "white"
	Brown Color = "brown"
)

// ParseColor accepts "white" or "brown" in any case.
func ParseColor(s string) (Color, error) {
	switch c := Color(strings.ToLower(strings.TrimSpace(s))); c {
	case White, Brown:
		return c, nil
	default:
		return "", fmt.Errorf("unknown noise color %q (want white or brown)", s)
	}
}

// Amplitude returns the configured peak amplitude for the color.
func (c Color) Amplitude(cfg config.NoiseConfig) float64 {
	if c == Brown {
		return cfg.BrownAmplitude
	}
	return cfg.WhiteAmplitude
}

// NoiseGenerator writes noise beds as 16-bit mono WAV files
type NoiseGenerator struct {
	cfg *config.Config
}

// NewNoiseGenerator creates a new NoiseGenerator
func NewNoiseGenerator(cfg *config.Config) *NoiseGenerator {
	return &NoiseGenerator{cfg: cfg}
}

// NoiseArgs builds the ffmpeg arguments for a noise bed.
func (g *NoiseGenerator) NoiseArgs(color Color, output string) []string {
	n := g.cfg.Noise
	src := fmt.Sprintf("anoisesrc=color=%s:amplitude=%g:sample_rate=%d:duration=%g",
		color, color.Amplitude(n), n.SampleRate, n.DurationSec)
	return []string{"-y",
		"-loglevel", "error",
		"-f", "lavfi",
		"-i", src,
		"-ac", "1",
		"-c:a", "pcm_s16le",
		output,
	}
}

// Run generates <audio dir>/<color>_noise.wav and returns its path.
func (g *NoiseGenerator) Run(ctx context.Context, color Color) (string, error) {
	if err := os.MkdirAll(g.cfg.Paths.Audio, 0o755); err != nil {
		return "", fmt.Errorf("create audio dir: %w", err)
	}
	out := filepath.Join(g.cfg.Paths.Audio, fmt.Sprintf("%s_noise.wav", color))

	logger.Info("Generating noise", map[string]interface{}{
		"stage":    "audio",
		"color":    string(color),
		"duration": g.cfg.Noise.DurationSec,
		"rate":     g.cfg.Noise.SampleRate,
	})

	cmd := exec.CommandContext(ctx, g.cfg.Video.FFmpegPath, g.NoiseArgs(color, out)...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("ffmpeg noise: %w (%s)", err, strings.TrimSpace(string(output)))
	}

	logger.Info("Saved noise", map[string]interface{}{"stage": "audio", "output": out})
	return out, nil
}
