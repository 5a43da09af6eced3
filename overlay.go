package minecrust

import (
	"fmt"
)

// Glyph atlas layout: printable ASCII packed into a fixed grid, one cell
// per rune starting at space.
const (
	atlasColumns = 16
	atlasRows    = 6
)

const vertsPerGlyph = 6

// LayoutText converts a string into screen-space triangles, two per glyph.
// origin is the top-left corner of the string in pixels; the baseline is
// derived from the tallest glyph so the string top aligns with origin.
func LayoutText(f *Font, text string, origin [2]float32, color [3]float32) []OverlayVertex {
	verts := make([]OverlayVertex, 0, len(text)*vertsPerGlyph)

	baseline := origin[1] + f.MaxBearingY(text)
	pen := origin[0]

	cellW := 1.0 / float32(atlasColumns)
	cellH := 1.0 / float32(atlasRows)

	for _, r := range text {
		m := f.Metrics(r)

		if m.Width == 0 || m.Height == 0 {
			pen += m.Advance
			continue
		}

		x0 := pen + m.BearingX
		y0 := baseline - m.BearingY
		x1 := x0 + m.Width
		y1 := y0 + m.Height

		cell := atlasCell(r)
		col := cell % atlasColumns
		row := cell / atlasColumns

		u0 := float32(col) * cellW
		v0 := float32(row) * cellH
		u1 := u0 + cellW*(m.Width/f.PixelHeight)
		v1 := v0 + cellH*(m.Height/f.PixelHeight)

		verts = append(verts,
			OverlayVertex{Pos: [2]float32{x0, y0}, UV: [2]float32{u0, v0}, Color: color},
			OverlayVertex{Pos: [2]float32{x1, y0}, UV: [2]float32{u1, v0}, Color: color},
			OverlayVertex{Pos: [2]float32{x0, y1}, UV: [2]float32{u0, v1}, Color: color},

			OverlayVertex{Pos: [2]float32{x1, y0}, UV: [2]float32{u1, v0}, Color: color},
			OverlayVertex{Pos: [2]float32{x1, y1}, UV: [2]float32{u1, v1}, Color: color},
			OverlayVertex{Pos: [2]float32{x0, y1}, UV: [2]float32{u0, v1}, Color: color},
		)

		pen += m.Advance
	}

	return verts
}

func atlasCell(r rune) int {
	if r < fontRuneFirst || r > fontRuneLast {
		r = '?'
	}
	return int(r - fontRuneFirst)
}

var overlayTextColor = [3]float32{1, 1, 1}

// BuildOverlay lays out the frame-rate readout and optional status line
// for a payload.
func BuildOverlay(f *Font, payload *FramePayload) []OverlayVertex {
	verts := LayoutText(f, fmt.Sprintf("FPS: %.0f", payload.FPS), [2]float32{10, 10}, overlayTextColor)

	if payload.Status != "" {
		lineStep := f.PixelHeight * 1.25
		verts = append(verts, LayoutText(f, payload.Status, [2]float32{10, 10 + lineStep}, overlayTextColor)...)
	}

	return verts
}
