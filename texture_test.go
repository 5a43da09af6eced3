package minecrust

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMipLevelsFor(t *testing.T) {
	assert.Equal(t, uint32(1), mipLevelsFor(1, 1))
	assert.Equal(t, uint32(2), mipLevelsFor(2, 2))
	assert.Equal(t, uint32(9), mipLevelsFor(256, 256))

	// Non-square images mip down to the larger dimension.
	assert.Equal(t, uint32(9), mipLevelsFor(256, 16))
	assert.Equal(t, uint32(11), mipLevelsFor(128, 1024))
}

func TestWhiteImage(t *testing.T) {
	li := WhiteImage()
	assert.Equal(t, 1, li.Width())
	assert.Equal(t, 1, li.Height())

	b := li.Bytes()
	require.Len(t, b, 4)
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xff}, b)
}
