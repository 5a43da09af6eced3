package minecrust

import (
	vk "github.com/vulkan-go/vulkan"
)

// DescriptorSet is one allocated set plus the pending writes that bind
// resources into it. Writes accumulate until Write flushes them.
type DescriptorSet struct {
	Device          *Device
	DescriptorPool  *DescriptorPool
	VKDescriptorSet vk.DescriptorSet

	writes []vk.WriteDescriptorSet
}

// AddCombinedImageSampler stages a texture binding: the sampled view, its
// expected layout and the sampler to read it through.
func (ds *DescriptorSet) AddCombinedImageSampler(dstBinding int, layout vk.ImageLayout, imageView vk.ImageView, sampler vk.Sampler) {
	imageInfo := vk.DescriptorImageInfo{
		ImageView:   imageView,
		ImageLayout: layout,
		Sampler:     sampler,
	}

	ds.writes = append(ds.writes, vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstBinding:      uint32(dstBinding),
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
		PImageInfo:      []vk.DescriptorImageInfo{imageInfo},
	})
}

// Write flushes the staged bindings into the set.
func (ds *DescriptorSet) Write() {
	for i := range ds.writes {
		ds.writes[i].DstSet = ds.VKDescriptorSet
	}
	vk.UpdateDescriptorSets(ds.Device.VKDevice, uint32(len(ds.writes)), ds.writes, 0, nil)
}
