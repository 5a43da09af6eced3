package minecrust

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func TestAddCombinedImageSampler(t *testing.T) {
	dsl := &DescriptorSetLayout{}
	dsl.AddCombinedImageSampler(0)
	dsl.AddCombinedImageSampler(1)

	require.Len(t, dsl.bindings, 2)
	for i, b := range dsl.bindings {
		assert.Equal(t, uint32(i), b.Binding)
		assert.Equal(t, vk.DescriptorTypeCombinedImageSampler, b.DescriptorType)
		assert.Equal(t, uint32(1), b.DescriptorCount)
		assert.Equal(t, vk.ShaderStageFlags(vk.ShaderStageFragmentBit), b.StageFlags)
	}
}
