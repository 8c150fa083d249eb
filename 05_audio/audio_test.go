package audiobed

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"book-video-pipeline/config"
	"book-video-pipeline/logger"
)

func init() {
	logger.SetOutput(io.Discard)
}

func TestParseColor(t *testing.T) {
	for in, want := range map[string]Color{"white": White, " Brown ": Brown, "WHITE": White} {
		got, err := ParseColor(in)
		if err != nil || got != want {
			t.Errorf("ParseColor(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseColor("pink"); err == nil {
		t.Error("expected error for unsupported color")
	}
}

func TestNoiseArgs(t *testing.T) {
	g := NewNoiseGenerator(config.Default())

	white := strings.Join(g.NoiseArgs(White, "w.wav"), " ")
	if !strings.Contains(white, "anoisesrc=color=white:amplitude=0.1:sample_rate=44100:duration=60") {
		t.Errorf("white noise source wrong: %s", white)
	}
	if !strings.Contains(white, "-c:a pcm_s16le") {
		t.Errorf("expected 16-bit PCM: %s", white)
	}

	brown := strings.Join(g.NoiseArgs(Brown, "b.wav"), " ")
	if !strings.Contains(brown, "color=brown:amplitude=0.5") {
		t.Errorf("brown noise source wrong: %s", brown)
	}
}

func TestVolumeFor(t *testing.T) {
	m := NewMerger(config.Default())
	cases := map[string]float64{
		"audio/brown_noise.wav": 1.0,
		"audio/Brown_Noise.WAV": 1.0,
		"audio/white_noise.wav": 0.5,
		"audio/rain.mp3":        0.5,
		"brown_noise/rain.mp3":  0.5,
	}
	for path, want := range cases {
		t.Run(path, func(t *testing.T) {
			if got := m.VolumeFor(path); got != want {
				t.Errorf("VolumeFor(%q) = %g, want %g", path, got, want)
			}
		})
	}
}

func TestMergeArgs(t *testing.T) {
	cfg := config.Default()
	m := NewMerger(cfg)

	out := m.OutputPath("videos/book/chapters/book-3.mp4", "audio/brown_noise.wav")
	if want := filepath.Join("videos_with_audio", "book-3_brown_noise.mp4"); out != want {
		t.Fatalf("OutputPath = %q, want %q", out, want)
	}

	args := m.MergeArgs("v.mp4", "audio/brown_noise.wav", out)
	joined := strings.Join(args, " ")
	for _, want := range []string{
		"-stream_loop -1 -i audio/brown_noise.wav",
		"-filter:a volume=1",
		"-c:v copy",
		"-c:a aac",
		"-b:a 192k",
		"-shortest",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q: %s", want, joined)
		}
	}
	// loop flag must apply to the audio input, not the video
	if strings.Index(joined, "-stream_loop") < strings.Index(joined, "-i v.mp4") {
		t.Errorf("-stream_loop placed before video input: %s", joined)
	}
}

func TestMergeMissingInput(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.VideosAudio = t.TempDir()
	_, err := NewMerger(cfg).Run(context.Background(), filepath.Join(t.TempDir(), "nope.mp4"), "also-missing.wav")
	if !errors.Is(err, ErrInputMissing) {
		t.Fatalf("expected ErrInputMissing, got %v", err)
	}
}

func TestFitMode(t *testing.T) {
	if FitMode(10, 4) != "loop" || FitMode(4, 10) != "trim" || FitMode(5, 5) != "exact" {
		t.Fatal("unexpected fit mode")
	}
}

func TestHasAudioStream(t *testing.T) {
	if !hasAudioStream("audio\n") {
		t.Error("expected audio stream to be detected")
	}
	if hasAudioStream("") || hasAudioStream("video\n") {
		t.Error("unexpected audio stream detection")
	}
}

func TestMergeAllWithoutBeds(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.Audio = t.TempDir()
	if _, err := NewMerger(cfg).MergeAll(context.Background(), "v.mp4"); err == nil {
		t.Fatal("expected error when the audio dir has no .wav files")
	}
}
