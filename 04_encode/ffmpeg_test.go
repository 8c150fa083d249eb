package encode

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
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

func TestFrameCount(t *testing.T) {
	cases := []struct {
		duration float64
		fps      int
		want     int
	}{
		{0, 24, 0},
		{-1, 24, 0},
		{1, 0, 0},
		{1, 24, 24},
		{3, 24, 72},
		{7.0, 24, 168},
		{1.01, 24, 25},
		// float noise just above an integer frame count must not add a frame
		{3 + 30*(60.0/450.0), 24, 168},
	}
	for _, tc := range cases {
		if got := FrameCount(tc.duration, tc.fps); got != tc.want {
			t.Errorf("FrameCount(%g, %d) = %d, want %d", tc.duration, tc.fps, got, tc.want)
		}
	}
}

func TestArgs(t *testing.T) {
	enc := NewFFmpegEncoder(config.Default().Video)
	args := enc.Args(Job{Width: 640, Height: 360, FPS: 24}, "out.mp4")
	joined := strings.Join(args, " ")

	for _, want := range []string{
		"-f rawvideo",
		"-pix_fmt rgba",
		"-s 640x360",
		"-r 24",
		"-i -",
		"-c:v libx264",
		"-preset medium",
		"-b:v 1000k",
		"-pix_fmt yuv420p",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q: %s", want, joined)
		}
	}
	if args[len(args)-1] != "out.mp4" {
		t.Errorf("last arg = %q, want output path", args[len(args)-1])
	}

	bare := &FFmpegEncoder{codec: "libx264"}
	joined = strings.Join(bare.Args(Job{Width: 2, Height: 2, FPS: 1}, "x.mp4"), " ")
	if strings.Contains(joined, "-preset") || strings.Contains(joined, "-b:v") {
		t.Errorf("empty preset/bitrate should be omitted: %s", joined)
	}
}

func TestToRGBA(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 2))
	if got := toRGBA(src, 4, 2); got != src {
		t.Fatal("matching RGBA should be returned as is")
	}

	gray := image.NewGray(image.Rect(0, 0, 4, 2))
	gray.SetGray(1, 1, color.Gray{Y: 200})
	got := toRGBA(gray, 4, 2)
	if len(got.Pix) != 4*2*4 {
		t.Fatalf("pix len = %d, want 32", len(got.Pix))
	}
	if c := got.RGBAAt(1, 1); c.R != 200 || c.A != 255 {
		t.Fatalf("converted pixel = %+v", c)
	}

	if blank := toRGBA(nil, 3, 3); len(blank.Pix) != 36 {
		t.Fatal("nil frame should produce a blank buffer")
	}
}

func TestWriteFrames(t *testing.T) {
	var times []float64
	job := Job{
		Duration: 0.5,
		FPS:      4,
		Width:    2,
		Height:   1,
		Frame: func(ts float64) image.Image {
			times = append(times, ts)
			return image.NewRGBA(image.Rect(0, 0, 2, 1))
		},
	}
	var buf bytes.Buffer
	if err := writeFrames(context.Background(), &buf, job); err != nil {
		t.Fatal(err)
	}
	if len(times) != 2 || times[0] != 0 || times[1] != 0.25 {
		t.Fatalf("sampled times = %v, want [0 0.25]", times)
	}
	if buf.Len() != 2*2*1*4 {
		t.Fatalf("wrote %d bytes, want 16", buf.Len())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := writeFrames(ctx, io.Discard, job); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestEncodeWithoutFFmpeg(t *testing.T) {
	enc := &FFmpegEncoder{path: filepath.Join(t.TempDir(), "no-such-ffmpeg")}
	err := enc.Encode(context.Background(), Job{Output: filepath.Join(t.TempDir(), "x.mp4")})
	if !errors.Is(err, ErrEncoderUnavailable) {
		t.Fatalf("expected ErrEncoderUnavailable, got %v", err)
	}
}
