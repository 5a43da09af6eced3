package minecrust

import (
	"fmt"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// GlyphMetrics describes one glyph's quad in pixels, relative to the pen
// position on the baseline.
type GlyphMetrics struct {
	Width    float32
	Height   float32
	BearingX float32
	BearingY float32
	Advance  float32
}

// Font precomputes glyph metrics for the printable ASCII range at a fixed
// pixel size. The overlay path uses these to lay out text quads; the
// glyph atlas texture is uploaded separately.
type Font struct {
	PixelHeight float32

	metrics map[rune]GlyphMetrics
}

const (
	fontRuneFirst = rune(' ')
	fontRuneLast  = rune('~')
)

// LoadFont parses TrueType/OpenType data and computes metrics at the given
// pixel height.
func LoadFont(ttf []byte, pixelHeight float64) (*Font, error) {
	parsed, err := opentype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    pixelHeight,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("creating font face: %w", err)
	}
	defer face.Close()

	f := &Font{
		PixelHeight: float32(pixelHeight),
		metrics:     make(map[rune]GlyphMetrics, int(fontRuneLast-fontRuneFirst)+1),
	}

	for r := fontRuneFirst; r <= fontRuneLast; r++ {
		bounds, advance, ok := face.GlyphBounds(r)
		if !ok {
			continue
		}
		f.metrics[r] = GlyphMetrics{
			Width:    fixedToFloat(bounds.Max.X - bounds.Min.X),
			Height:   fixedToFloat(bounds.Max.Y - bounds.Min.Y),
			BearingX: fixedToFloat(bounds.Min.X),
			BearingY: -fixedToFloat(bounds.Min.Y),
			Advance:  fixedToFloat(advance),
		}
	}

	return f, nil
}

// DefaultFont loads the bundled Go Regular face at a size suited to the
// status overlay.
func DefaultFont() (*Font, error) {
	return LoadFont(goregular.TTF, 24)
}

// Metrics returns the metrics for r, substituting '?' for glyphs outside
// the covered range.
func (f *Font) Metrics(r rune) GlyphMetrics {
	if m, ok := f.metrics[r]; ok {
		return m
	}
	return f.metrics['?']
}

// MaxBearingY returns the tallest ascent over the runes of s, used to place
// the text baseline so the top of the string sits at the requested origin.
func (f *Font) MaxBearingY(s string) float32 {
	var max float32
	for _, r := range s {
		if m := f.Metrics(r); m.BearingY > max {
			max = m.BearingY
		}
	}
	return max
}

func fixedToFloat(x fixed.Int26_6) float32 {
	return float32(x) / 64
}
