package audiobed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"book-video-pipeline/config"
	"book-video-pipeline/logger"
)

// ErrInputMissing is returned when the video or audio file does not exist.
var ErrInputMissing = errors.New("input file not found")

// Merger lays an audio bed under an existing video
type Merger struct {
	cfg *config.Config
}

// NewMerger creates a new Merger
func NewMerger(cfg *config.Config) *Merger {
	return &Merger{cfg: cfg}
}

// VolumeFor picks the gain applied to an audio file. Brown noise beds are
// kept at full level, everything else is halved.
func (m *Merger) VolumeFor(audioPath string) float64 {
	if strings.Contains(strings.ToLower(filepath.Base(audioPath)), "brown_noise") {
		return m.cfg.Merge.BrownVolume
	}
	return m.cfg.Merge.NoiseVolume
}

// OutputPath is <videos_with_audio>/<video stem>_<audio stem>.mp4
func (m *Merger) OutputPath(videoPath, audioPath string) string {
	return filepath.Join(m.cfg.Paths.VideosAudio, fmt.Sprintf("%s_%s.mp4", stem(videoPath), stem(audioPath)))
}

// MergeArgs builds the ffmpeg command. The audio input is looped so a short
// bed covers the whole video, and -shortest trims it to the video length.
func (m *Merger) MergeArgs(videoPath, audioPath, output string) []string {
	return []string{"-y",
		"-loglevel", "error",
		"-i", videoPath,
		"-stream_loop", "-1",
		"-i", audioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-filter:a", fmt.Sprintf("volume=%g", m.VolumeFor(audioPath)),
		"-c:v", "copy",
		"-c:a", m.cfg.Merge.AudioCodec,
		"-b:a", m.cfg.Merge.AudioBitrate,
		"-shortest",
		"-movflags", "+faststart",
		output,
	}
}

// Run merges audioPath under videoPath and returns the output path.
func (m *Merger) Run(ctx context.Context, videoPath, audioPath string) (string, error) {
	for _, p := range []string{videoPath, audioPath} {
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("%w: %s", ErrInputMissing, p)
		}
	}
	if err := os.MkdirAll(m.cfg.Paths.VideosAudio, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	out := m.OutputPath(videoPath, audioPath)

	fields := map[string]interface{}{
		"stage":  "audio",
		"video":  videoPath,
		"audio":  audioPath,
		"volume": m.VolumeFor(audioPath),
	}
	vd, verr := Duration(ctx, videoPath)
	ad, aerr := Duration(ctx, audioPath)
	if verr == nil && aerr == nil {
		fields["video_sec"] = fmt.Sprintf("%.2f", vd)
		fields["audio_sec"] = fmt.Sprintf("%.2f", ad)
		fields["fit"] = FitMode(vd, ad)
	}
	logger.Info("Combining video + audio", fields)

	cmd := exec.CommandContext(ctx, m.cfg.Video.FFmpegPath, m.MergeArgs(videoPath, audioPath, out)...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("ffmpeg combine: %w (%s)", err, strings.TrimSpace(string(output)))
	}

	info, err := os.Stat(out)
	if err != nil {
		return "", fmt.Errorf("output not created: %w", err)
	}
	if info.Size() == 0 {
		return "", fmt.Errorf("output %s is empty", out)
	}

	hasAudio, err := probeHasAudio(ctx, out)
	switch {
	case err != nil:
		logger.Warn("Could not probe output", map[string]interface{}{"stage": "audio", "output": out, "error": err.Error()})
	case !hasAudio:
		logger.Warn("Output has no audio stream", map[string]interface{}{"stage": "audio", "output": out})
	}

	fields["output"] = out
	fields["size_mb"] = fmt.Sprintf("%.2f", float64(info.Size())/(1024*1024))
	logger.Info("Video with audio saved", fields)
	return out, nil
}

// MergeAll lays every .wav bed in the audio directory under videoPath in
// turn. A failed merge is logged and skipped.
func (m *Merger) MergeAll(ctx context.Context, videoPath string) ([]string, error) {
	beds, err := filepath.Glob(filepath.Join(m.cfg.Paths.Audio, "*.wav"))
	if err != nil {
		return nil, err
	}
	if len(beds) == 0 {
		return nil, fmt.Errorf("no .wav files found in %s", m.cfg.Paths.Audio)
	}

	var outputs []string
	for _, bed := range beds {
		out, err := m.Run(ctx, videoPath, bed)
		if errors.Is(err, ErrInputMissing) {
			return outputs, err
		}
		if err != nil {
			logger.Error(err, "Merge failed, continuing", map[string]interface{}{"stage": "audio", "audio": bed})
			continue
		}
		outputs = append(outputs, out)
	}
	return outputs, nil
}

// probeHasAudio uses ffprobe to check for at least one audio stream
func probeHasAudio(ctx context.Context, path string) (bool, error) {
	out, err := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-select_streams", "a",
		"-show_entries", "stream=codec_type",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	).Output()
	if err != nil {
		return false, err
	}
	return hasAudioStream(string(out)), nil
}

func hasAudioStream(probe string) bool {
	for _, line := range strings.Split(probe, "\n") {
		if strings.TrimSpace(line) == "audio" {
			return true
		}
	}
	return false
}

// Duration uses ffprobe to get a media file's duration in seconds
func Duration(ctx context.Context, path string) (float64, error) {
	out, err := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	).Output()
	if err != nil {
		return 0, err
	}
	var dur float64
	_, err = fmt.Sscanf(strings.TrimSpace(string(out)), "%f", &dur)
	return dur, err
}

// FitMode says how the audio bed is fitted to the video length.
func FitMode(videoSec, audioSec float64) string {
	switch {
	case audioSec < videoSec:
		return "loop"
	case audioSec > videoSec:
		return "trim"
	default:
		return "exact"
	}
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
