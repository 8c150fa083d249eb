package encode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"book-video-pipeline/config"
)

// ErrEncoderUnavailable is returned when the ffmpeg binary cannot be found.
var ErrEncoderUnavailable = errors.New("ffmpeg not found in PATH")

// FrameFunc returns the frame to show at t seconds.
type FrameFunc func(t float64) image.Image

// Job describes one video to encode from a frame callback.
type Job struct {
	Output   string
	Duration float64
	FPS      int
	Width    int
	Height   int
	Frame    FrameFunc
}

// Encoder turns a frame callback into a playable video file.
type Encoder interface {
	Encode(ctx context.Context, job Job) error
}

// FFmpegEncoder pipes raw RGBA frames into ffmpeg's stdin.
type FFmpegEncoder struct {
	path    string
	codec   string
	preset  string
	bitrate string
}

// NewFFmpegEncoder creates an encoder from the video settings
func NewFFmpegEncoder(cfg config.VideoConfig) *FFmpegEncoder {
	return &FFmpegEncoder{
		path:    cfg.FFmpegPath,
		codec:   cfg.Codec,
		preset:  cfg.Preset,
		bitrate: cfg.Bitrate,
	}
}

// FrameCount is the number of frames sampled at t = i/fps covering duration.
func FrameCount(duration float64, fps int) int {
	if duration <= 0 || fps <= 0 {
		return 0
	}
	return int(math.Ceil(duration*float64(fps) - 1e-9))
}

// Args builds the ffmpeg command line that reads rawvideo from stdin and
// writes output.
func (e *FFmpegEncoder) Args(job Job, output string) []string {
	args := []string{"-y",
		"-loglevel", "error",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", job.Width, job.Height),
		"-r", fmt.Sprintf("%d", job.FPS),
		"-i", "-",
		"-an",
		"-c:v", e.codec,
	}
	if e.preset != "" {
		args = append(args, "-preset", e.preset)
	}
	if e.bitrate != "" {
		args = append(args, "-b:v", e.bitrate)
	}
	return append(args,
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
		"-f", "mp4",
		output,
	)
}

// Encode renders every frame of the job and writes job.Output. ffmpeg writes
// to a temporary file next to the output which is renamed on success and
// removed on every failure path.
func (e *FFmpegEncoder) Encode(ctx context.Context, job Job) (err error) {
	bin, lookErr := exec.LookPath(e.path)
	if lookErr != nil {
		return fmt.Errorf("%w: %v", ErrEncoderUnavailable, lookErr)
	}

	tmp, err := os.CreateTemp(filepath.Dir(job.Output), "."+filepath.Base(job.Output)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp output: %w", err)
	}
	tmpName := tmp.Name()
	tmp.Close()
	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	cmd := exec.CommandContext(ctx, bin, e.Args(job, tmpName)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stdin: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	writeErr := writeFrames(ctx, stdin, job)
	closeErr := stdin.Close()
	waitErr := cmd.Wait()

	switch {
	case writeErr != nil:
		return fmt.Errorf("write frames: %w (ffmpeg: %s)", writeErr, tail(stderr.String()))
	case waitErr != nil:
		return fmt.Errorf("ffmpeg encode: %w (%s)", waitErr, tail(stderr.String()))
	case closeErr != nil:
		return fmt.Errorf("close ffmpeg stdin: %w", closeErr)
	}

	if err := os.Rename(tmpName, job.Output); err != nil {
		return fmt.Errorf("finalize %s: %w", job.Output, err)
	}
	return nil
}

func writeFrames(ctx context.Context, w io.Writer, job Job) error {
	n := FrameCount(job.Duration, job.FPS)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		img := toRGBA(job.Frame(float64(i)/float64(job.FPS)), job.Width, job.Height)
		if _, err := w.Write(img.Pix); err != nil {
			return err
		}
	}
	return nil
}

// toRGBA returns a tightly packed w×h RGBA copy unless img already is one.
func toRGBA(img image.Image, w, h int) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect == image.Rect(0, 0, w, h) && rgba.Stride == 4*w {
		return rgba
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if img != nil {
		draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Src)
	}
	return dst
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 500 {
		return "..." + s[len(s)-500:]
	}
	return s
}
