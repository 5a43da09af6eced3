package minecrust

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFont(t *testing.T) {
	f, err := DefaultFont()
	require.NoError(t, err)
	assert.Equal(t, float32(24), f.PixelHeight)

	m := f.Metrics('A')
	assert.Greater(t, m.Width, float32(0))
	assert.Greater(t, m.Height, float32(0))
	assert.Greater(t, m.Advance, float32(0))
}

func TestMetricsFallback(t *testing.T) {
	f, err := DefaultFont()
	require.NoError(t, err)

	// Runes outside the atlas render as '?'.
	assert.Equal(t, f.Metrics('?'), f.Metrics('世'))
}

func TestMaxBearingY(t *testing.T) {
	f, err := DefaultFont()
	require.NoError(t, err)

	tall := f.MaxBearingY("Ay")
	assert.GreaterOrEqual(t, tall, f.Metrics('A').BearingY)
	assert.Greater(t, tall, f.MaxBearingY("."))
}

func TestAtlasCell(t *testing.T) {
	assert.Equal(t, 0, atlasCell(' '))
	assert.Equal(t, int('A'-' '), atlasCell('A'))
	assert.Equal(t, int('~'-' '), atlasCell('~'))
	assert.Equal(t, int('?'-' '), atlasCell('世'))

	assert.LessOrEqual(t, atlasCell('~'), atlasColumns*atlasRows-1)
}
