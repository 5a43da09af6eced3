package minecrust

import (
	"testing"

	"github.com/stretchr/testify/assert"
	vk "github.com/vulkan-go/vulkan"
)

func TestMaxSampleCount(t *testing.T) {
	assert.Equal(t, vk.SampleCount1Bit, maxSampleCount(0))
	assert.Equal(t, vk.SampleCount1Bit,
		maxSampleCount(vk.SampleCountFlags(vk.SampleCount1Bit)))
	assert.Equal(t, vk.SampleCount8Bit,
		maxSampleCount(vk.SampleCountFlags(vk.SampleCount8Bit|vk.SampleCount4Bit|vk.SampleCount1Bit)))
	assert.Equal(t, vk.SampleCount64Bit, maxSampleCount(^vk.SampleCountFlags(0)))
}
