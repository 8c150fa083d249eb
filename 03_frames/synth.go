package frames

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"book-video-pipeline/config"
	"book-video-pipeline/logger"
)

const (
	watermarkMargin = 10
	captionMargin   = 20
)

var (
	titleBackground = color.RGBA{R: 20, G: 20, B: 40, A: 255}
	bookTitleColor  = color.RGBA{R: 255, G: 255, B: 200, A: 255}
	subtitleColor   = color.RGBA{R: 200, G: 200, B: 255, A: 255}
	watermarkColor  = color.RGBA{R: 128, G: 128, B: 128, A: 255}
	captionColor    = color.White
	captionBack     = color.Black
)

// Synthesizer draws title cards and caption frames at a fixed resolution.
// Faces are built once; a Synthesizer must not be shared across goroutines.
type Synthesizer struct {
	width, height int
	watermark     string
	titleFace     font.Face
	subtitleFace  font.Face
	captionFace   font.Face
	watermarkFace font.Face
}

// NewSynthesizer resolves the configured font (falling back to the built-in
// face) and prepares faces for each text band.
func NewSynthesizer(cfg config.FramesConfig) *Synthesizer {
	src := ResolveFont(cfg.FontPath)
	if src.Fallback {
		logger.Debug("Using built-in font", map[string]interface{}{
			"stage":  "frames",
			"reason": src.Reason.Error(),
		})
	}
	return &Synthesizer{
		width:         cfg.Width,
		height:        cfg.Height,
		watermark:     cfg.Watermark,
		titleFace:     src.Face(cfg.TitleFontSize),
		subtitleFace:  src.Face(cfg.SubtitleFontSize),
		captionFace:   src.Face(cfg.CaptionFontSize),
		watermarkFace: src.Face(cfg.WatermarkSize),
	}
}

// Size returns the frame width and height in pixels.
func (s *Synthesizer) Size() (int, int) {
	return s.width, s.height
}

// TitleCard renders the book title, author and chapter title in three
// horizontal bands plus the watermark.
func (s *Synthesizer) TitleCard(bookTitle, author, chapterTitle string) *image.RGBA {
	img := s.blank(titleBackground)
	s.drawCentered(img, s.titleFace, bookTitle, s.height/6, bookTitleColor)
	s.drawCentered(img, s.subtitleFace, "by "+author, s.height/2, subtitleColor)
	s.drawCentered(img, s.subtitleFace, chapterTitle, 5*s.height/6, subtitleColor)
	s.drawWatermark(img)
	return img
}

// CaptionFrame renders text centred on a black background plus the
// watermark. Text wider than the frame is wrapped on word boundaries.
func (s *Synthesizer) CaptionFrame(text string) *image.RGBA {
	img := s.blank(captionBack)
	lines := wrap(s.captionFace, text, s.width-2*captionMargin)
	if len(lines) > 0 {
		lineHeight := s.captionFace.Metrics().Height.Ceil()
		top := s.height/2 - lineHeight*(len(lines)-1)/2
		for i, line := range lines {
			s.drawCentered(img, s.captionFace, line, top+i*lineHeight, captionColor)
		}
	}
	s.drawWatermark(img)
	return img
}

func (s *Synthesizer) blank(bg color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)
	return img
}

// drawCentered draws text horizontally centred with its ink box centred on centerY.
func (s *Synthesizer) drawCentered(img *image.RGBA, face font.Face, text string, centerY int, c color.Color) {
	if text == "" {
		return
	}
	bounds, _ := font.BoundString(face, text)
	w := (bounds.Max.X - bounds.Min.X).Ceil()
	h := (bounds.Max.Y - bounds.Min.Y).Ceil()
	drawAt(img, face, text, (s.width-w)/2, centerY-h/2, bounds, c)
}

func (s *Synthesizer) drawWatermark(img *image.RGBA) {
	if s.watermark == "" {
		return
	}
	bounds, _ := font.BoundString(s.watermarkFace, s.watermark)
	w := (bounds.Max.X - bounds.Min.X).Ceil()
	h := (bounds.Max.Y - bounds.Min.Y).Ceil()
	drawAt(img, s.watermarkFace, s.watermark, s.width-w-watermarkMargin, s.height-h-watermarkMargin, bounds, watermarkColor)
}

// drawAt places the top-left corner of the text's ink box at (x, y).
func drawAt(img *image.RGBA, face font.Face, text string, x, y int, bounds fixed.Rectangle26_6, c color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.I(x) - bounds.Min.X,
			Y: fixed.I(y) - bounds.Min.Y,
		},
	}
	d.DrawString(text)
}

// wrap splits text into lines no wider than maxWidth. A single word wider
// than maxWidth is kept on its own line.
func wrap(face font.Face, text string, maxWidth int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	current := words[0]
	for _, w := range words[1:] {
		candidate := current + " " + w
		if font.MeasureString(face, candidate).Ceil() > maxWidth {
			lines = append(lines, current)
			current = w
			continue
		}
		current = candidate
	}
	return append(lines, current)
}

// FrameKind says what a chapter clip shows at a given time.
type FrameKind int

const (
	KindTitle FrameKind = iota
	KindCaption
	KindBlank
)

func (k FrameKind) String() string {
	switch k {
	case KindTitle:
		return "title"
	case KindCaption:
		return "caption"
	default:
		return "blank"
	}
}

// Clip is the frame source for one chapter: a title card followed by the
// chapter's caption chunks, each shown for SecondsPerChunk.
type Clip struct {
	Synth           *Synthesizer
	BookTitle       string
	Author          string
	ChapterTitle    string
	Chunks          []string
	Start           int
	Count           int
	TitleDuration   float64
	SecondsPerChunk float64
}

// Duration is the total clip length in seconds.
func (c *Clip) Duration() float64 {
	return c.TitleDuration + float64(c.Count)*c.SecondsPerChunk
}

// At maps a timestamp to the frame kind and, for captions, the global chunk
// index. Each chunk owns the half-open interval
// [title + i*spc, title + (i+1)*spc).
func (c *Clip) At(t float64) (FrameKind, int) {
	if t < c.TitleDuration {
		return KindTitle, -1
	}
	if c.SecondsPerChunk <= 0 {
		return KindBlank, -1
	}
	offset := int(math.Floor((t - c.TitleDuration) / c.SecondsPerChunk))
	if offset >= c.Count {
		return KindBlank, -1
	}
	idx := c.Start + offset
	if idx < 0 || idx >= len(c.Chunks) {
		return KindBlank, -1
	}
	return KindCaption, idx
}

// Render produces the frame for time t. It has no side effects and may be
// called with any timestamp in any order.
func (c *Clip) Render(t float64) image.Image {
	switch kind, idx := c.At(t); kind {
	case KindTitle:
		return c.Synth.TitleCard(c.BookTitle, c.Author, c.ChapterTitle)
	case KindCaption:
		return c.Synth.CaptionFrame(c.Chunks[idx])
	default:
		return c.Synth.CaptionFrame("")
	}
}
