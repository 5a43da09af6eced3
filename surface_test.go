package minecrust

import (
	"testing"

	"github.com/stretchr/testify/assert"
	vk "github.com/vulkan-go/vulkan"
)

func TestFramebufferAttachments(t *testing.T) {
	color := &ImageView{}
	depth := &ImageView{}
	swap := &ImageView{}

	// Single-sampled: the swapchain image is the color attachment.
	views := framebufferAttachments(nil, depth, swap)
	assert.Equal(t, []vk.ImageView{swap.VKImageView, depth.VKImageView}, views)

	// Multisampled: color, depth, then the swapchain resolve target.
	views = framebufferAttachments(color, depth, swap)
	assert.Equal(t, []vk.ImageView{color.VKImageView, depth.VKImageView, swap.VKImageView}, views)
}
