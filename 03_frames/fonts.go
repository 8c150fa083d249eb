package frames

import (
	"fmt"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FontSource is the outcome of resolving the configured font file.
// When Fallback is set, Reason says why the named file could not be used.
type FontSource struct {
	Font     *opentype.Font
	Path     string
	Fallback bool
	Reason   error
}

// ResolveFont loads the font at path, falling back to the built-in Go
// Regular face. It never fails.
func ResolveFont(path string) FontSource {
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			f, perr := opentype.Parse(data)
			if perr == nil {
				return FontSource{Font: f, Path: path}
			}
			err = perr
		}
		return builtinFont(fmt.Errorf("load font %s: %w", path, err))
	}
	return builtinFont(fmt.Errorf("no font path configured"))
}

func builtinFont(reason error) FontSource {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return FontSource{Fallback: true, Reason: reason}
	}
	return FontSource{Font: f, Fallback: true, Reason: reason}
}

// Face returns a face of the given size. Without a parsed font, or when the
// face cannot be built, the fixed 7x13 bitmap face is used.
func (s FontSource) Face(size float64) font.Face {
	if s.Font == nil {
		return basicfont.Face7x13
	}
	face, err := opentype.NewFace(s.Font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return basicfont.Face7x13
	}
	return face
}
