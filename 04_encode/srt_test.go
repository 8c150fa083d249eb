package encode

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"book-video-pipeline/03_frames"
)

func TestSRTTimestamp(t *testing.T) {
	cases := map[float64]string{
		0:            "00:00:00,000",
		3:            "00:00:03,000",
		60.0 / 450.0: "00:00:00,133",
		3725.5:       "01:02:05,500",
		-2:           "00:00:00,000",
	}
	for in, want := range cases {
		if got := srtTimestamp(in); got != want {
			t.Errorf("srtTimestamp(%g) = %q, want %q", in, got, want)
		}
	}
}

func TestWriteSRT(t *testing.T) {
	clip := &frames.Clip{
		BookTitle:       "Book",
		ChapterTitle:    "Chapter 1",
		Chunks:          []string{"zero", "one", "two"},
		Start:           1,
		Count:           2,
		TitleDuration:   3,
		SecondsPerChunk: 0.5,
	}
	var buf bytes.Buffer
	if err := WriteSRT(&buf, clip); err != nil {
		t.Fatal(err)
	}
	want := "1\n00:00:00,000 --> 00:00:03,000\nBook\nChapter 1\n\n" +
		"2\n00:00:03,000 --> 00:00:03,500\none\n\n" +
		"3\n00:00:03,500 --> 00:00:04,000\ntwo\n\n"
	if buf.String() != want {
		t.Fatalf("srt =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestWriteSRTFileValidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book-1.srt")
	clip := &frames.Clip{Chunks: []string{"a"}, Count: 1, TitleDuration: 3, SecondsPerChunk: 1}
	if err := WriteSRTFile(path, clip); err != nil {
		t.Fatal(err)
	}
	if err := ValidateSRT(path); err != nil {
		t.Fatalf("ValidateSRT: %v", err)
	}

	empty := filepath.Join(t.TempDir(), "empty.srt")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ValidateSRT(empty); err == nil || !strings.Contains(err.Error(), "malformed") {
		t.Fatalf("expected malformed error, got %v", err)
	}
}
