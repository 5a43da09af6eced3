package minecrust

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func TestChooseSurfaceFormat(t *testing.T) {
	f, err := chooseSurfaceFormat([]vk.SurfaceFormat{
		{Format: vk.FormatR8g8b8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
	})
	require.NoError(t, err)
	assert.Equal(t, vk.FormatR8g8b8a8Unorm, f.Format)
	assert.Equal(t, vk.ColorSpaceSrgbNonlinear, f.ColorSpace)
}

func TestChooseSurfaceFormatNoPreference(t *testing.T) {
	f, err := chooseSurfaceFormat([]vk.SurfaceFormat{
		{Format: vk.FormatUndefined, ColorSpace: vk.ColorSpaceSrgbNonlinear},
	})
	require.NoError(t, err)
	assert.Equal(t, vk.FormatB8g8r8a8Unorm, f.Format)
}

func TestChooseSurfaceFormatEmpty(t *testing.T) {
	_, err := chooseSurfaceFormat(nil)
	require.Error(t, err)

	var unsupported *SurfaceUnsupportedError
	assert.ErrorAs(t, err, &unsupported)
}

func TestChoosePresentMode(t *testing.T) {
	assert.Equal(t, vk.PresentModeMailbox, choosePresentMode([]vk.PresentMode{
		vk.PresentModeFifo, vk.PresentModeMailbox, vk.PresentModeImmediate,
	}))
	assert.Equal(t, vk.PresentModeFifo, choosePresentMode([]vk.PresentMode{
		vk.PresentModeFifo, vk.PresentModeImmediate,
	}))
	assert.Equal(t, vk.PresentModeFifo, choosePresentMode(nil))
}

func TestChooseSwapchainExtentPinned(t *testing.T) {
	current := vk.Extent2D{Width: 800, Height: 600}
	got := chooseSwapchainExtent(current,
		vk.Extent2D{Width: 1, Height: 1},
		vk.Extent2D{Width: 4096, Height: 4096},
		vk.Extent2D{Width: 1280, Height: 720})

	// Surface pins the extent; the requested size is ignored.
	assert.Equal(t, current, got)
}

func TestChooseSwapchainExtentUnpinned(t *testing.T) {
	sentinel := vk.Extent2D{Width: vk.MaxUint32, Height: vk.MaxUint32}
	min := vk.Extent2D{Width: 200, Height: 100}
	max := vk.Extent2D{Width: 2000, Height: 1000}

	got := chooseSwapchainExtent(sentinel, min, max, vk.Extent2D{Width: 1280, Height: 720})
	assert.Equal(t, vk.Extent2D{Width: 1280, Height: 720}, got)

	got = chooseSwapchainExtent(sentinel, min, max, vk.Extent2D{Width: 10, Height: 5000})
	assert.Equal(t, vk.Extent2D{Width: 200, Height: 1000}, got)
}

func TestDesiredImageCount(t *testing.T) {
	assert.Equal(t, uint32(3), desiredImageCount(2, 8))
	assert.Equal(t, uint32(4), desiredImageCount(4, 4))

	// Zero max means unbounded.
	assert.Equal(t, uint32(3), desiredImageCount(2, 0))
}
