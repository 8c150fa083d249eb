package frames

import (
	"bytes"
	"image"
	"io"
	"math"
	"path/filepath"
	"testing"

	"book-video-pipeline/config"
	"book-video-pipeline/logger"
)

func init() {
	logger.SetOutput(io.Discard)
}

func testSynth(t *testing.T) *Synthesizer {
	t.Helper()
	cfg := config.Default().Frames
	cfg.FontPath = filepath.Join(t.TempDir(), "missing.ttf")
	return NewSynthesizer(cfg)
}

func pix(t *testing.T, img image.Image) []byte {
	t.Helper()
	rgba, ok := img.(*image.RGBA)
	if !ok {
		t.Fatalf("expected *image.RGBA, got %T", img)
	}
	return rgba.Pix
}

func testClip(s *Synthesizer, chunks []string, start, count int) *Clip {
	return &Clip{
		Synth:           s,
		BookTitle:       "The Scarlet Letter",
		Author:          "Nathaniel Hawthorne",
		ChapterTitle:    "Chapter I. THE PRISON-DOOR.",
		Chunks:          chunks,
		Start:           start,
		Count:           count,
		TitleDuration:   3,
		SecondsPerChunk: 60.0 / 450.0,
	}
}

func TestResolveFontFallsBack(t *testing.T) {
	src := ResolveFont(filepath.Join(t.TempDir(), "nope.ttf"))
	if !src.Fallback || src.Reason == nil {
		t.Fatalf("expected fallback with reason, got %+v", src)
	}
	if src.Font == nil {
		t.Fatal("expected built-in font to be parsed")
	}
	if face := src.Face(30); face == nil {
		t.Fatal("expected a usable face")
	}
}

func TestFrameSize(t *testing.T) {
	s := testSynth(t)
	img := s.TitleCard("Book", "Author", "Chapter 1")
	if b := img.Bounds(); b.Dx() != 640 || b.Dy() != 360 {
		t.Fatalf("frame size = %v, want 640x360", b)
	}
}

func TestRenderDeterministic(t *testing.T) {
	s := testSynth(t)
	clip := testClip(s, []string{"alpha", "beta", "gamma"}, 0, 3)
	for _, ts := range []float64{0, 1.5, 3, 3.2, 3.3, 10} {
		a := pix(t, clip.Render(ts))
		b := pix(t, clip.Render(ts))
		if !bytes.Equal(a, b) {
			t.Fatalf("render(%g) not deterministic", ts)
		}
	}
	// non-monotonic access must not change results
	first := pix(t, clip.Render(3.2))
	_ = clip.Render(0)
	_ = clip.Render(100)
	if !bytes.Equal(first, pix(t, clip.Render(3.2))) {
		t.Fatal("render depends on call order")
	}
}

func TestRenderTitleBoundary(t *testing.T) {
	s := testSynth(t)
	chunks := []string{"zero", "one", "two", "three"}
	clip := testClip(s, chunks, 1, 2)

	title := pix(t, s.TitleCard(clip.BookTitle, clip.Author, clip.ChapterTitle))
	if !bytes.Equal(pix(t, clip.Render(3-1e-9)), title) {
		t.Fatal("frame just before title duration should be the title card")
	}
	if !bytes.Equal(pix(t, clip.Render(3)), pix(t, s.CaptionFrame("one"))) {
		t.Fatal("frame at title duration should show the chapter's first chunk")
	}
	if bytes.Equal(pix(t, s.CaptionFrame("one")), pix(t, s.CaptionFrame(""))) {
		t.Fatal("caption frame should differ from blank frame")
	}

	empty := testClip(s, chunks, 4, 0)
	if !bytes.Equal(pix(t, empty.Render(3)), pix(t, s.CaptionFrame(""))) {
		t.Fatal("chapter without chunks should render a blank frame after the title")
	}
}

func TestClipAt(t *testing.T) {
	s := testSynth(t)
	chunks := make([]string, 40)
	for i := range chunks {
		chunks[i] = "w"
	}
	clip := testClip(s, chunks, 5, 30)
	spc := clip.SecondsPerChunk

	cases := []struct {
		t     float64
		kind  FrameKind
		chunk int
	}{
		{-1, KindTitle, -1},
		{0, KindTitle, -1},
		{2.999, KindTitle, -1},
		{3, KindCaption, 5},
		{3 + spc*0.999, KindCaption, 5},
		{3 + spc*1.001, KindCaption, 6},
		{3 + spc*29.5, KindCaption, 34},
		{3 + spc*30.001, KindBlank, -1},
	}
	for _, tc := range cases {
		kind, idx := clip.At(tc.t)
		if kind != tc.kind || idx != tc.chunk {
			t.Errorf("At(%g) = %v,%d; want %v,%d", tc.t, kind, idx, tc.kind, tc.chunk)
		}
	}

	// range reaching past the chunk slice renders blank instead of panicking
	short := testClip(s, chunks[:6], 5, 3)
	if kind, _ := short.At(3 + spc*1.5); kind != KindBlank {
		t.Fatalf("expected blank for out-of-bounds chunk, got %v", kind)
	}
	_ = short.Render(3 + spc*1.5)
}

func TestClipDuration(t *testing.T) {
	clip := testClip(nil, nil, 0, 30)
	if got := clip.Duration(); math.Abs(got-7.0) > 1e-9 {
		t.Fatalf("duration = %g, want 7.0", got)
	}
}

func TestWrapKeepsAllWords(t *testing.T) {
	s := testSynth(t)
	text := "the quick brown fox jumps over the lazy dog again and again and again"
	lines := wrap(s.captionFace, text, 200)
	if len(lines) < 2 {
		t.Fatalf("expected wrapping, got %q", lines)
	}
	joined := ""
	for i, l := range lines {
		if i > 0 {
			joined += " "
		}
		joined += l
	}
	if joined != text {
		t.Fatalf("wrapped text = %q, want %q", joined, text)
	}
	if wrap(s.captionFace, "   ", 200) != nil {
		t.Fatal("blank text should produce no lines")
	}
}
