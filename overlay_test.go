package minecrust

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFont(t *testing.T) *Font {
	t.Helper()
	f, err := DefaultFont()
	require.NoError(t, err)
	return f
}

func TestLayoutText(t *testing.T) {
	f := testFont(t)

	verts := LayoutText(f, "FPS", [2]float32{10, 10}, overlayTextColor)
	assert.Len(t, verts, 3*vertsPerGlyph)

	// The top of the tallest glyph sits at the requested origin.
	minY := verts[0].Pos[1]
	for _, v := range verts {
		if v.Pos[1] < minY {
			minY = v.Pos[1]
		}
	}
	assert.InDelta(t, 10, minY, 0.5)

	// Quads advance left to right.
	assert.Less(t, verts[0].Pos[0], verts[2*vertsPerGlyph].Pos[0])
}

func TestLayoutTextSkipsSpaces(t *testing.T) {
	f := testFont(t)

	spaced := LayoutText(f, "a b", [2]float32{0, 0}, overlayTextColor)
	assert.Len(t, spaced, 2*vertsPerGlyph)

	// The space still advances the pen.
	tight := LayoutText(f, "ab", [2]float32{0, 0}, overlayTextColor)
	assert.Greater(t, spaced[vertsPerGlyph].Pos[0], tight[vertsPerGlyph].Pos[0])
}

func TestLayoutTextUVInAtlas(t *testing.T) {
	f := testFont(t)

	for _, v := range LayoutText(f, "Hello, World! ~", [2]float32{0, 0}, overlayTextColor) {
		assert.GreaterOrEqual(t, v.UV[0], float32(0))
		assert.LessOrEqual(t, v.UV[0], float32(1))
		assert.GreaterOrEqual(t, v.UV[1], float32(0))
		assert.LessOrEqual(t, v.UV[1], float32(1))
	}
}

func TestBuildOverlay(t *testing.T) {
	f := testFont(t)

	fpsOnly := BuildOverlay(f, &FramePayload{FPS: 60})
	assert.NotEmpty(t, fpsOnly)

	withStatus := BuildOverlay(f, &FramePayload{FPS: 60, Status: "paused"})
	assert.Greater(t, len(withStatus), len(fpsOnly))

	// The status line starts below the FPS readout.
	assert.Greater(t, withStatus[len(withStatus)-1].Pos[1], fpsOnly[len(fpsOnly)-1].Pos[1])
}
