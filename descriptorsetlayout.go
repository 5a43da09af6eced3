package minecrust

import (
	vk "github.com/vulkan-go/vulkan"
)

// DescriptorSetLayout accumulates bindings and materializes them into the
// Vulkan layout object shared by a pipeline layout and every set
// allocated against it.
type DescriptorSetLayout struct {
	Device                *Device
	VKDescriptorSetLayout vk.DescriptorSetLayout

	bindings []vk.DescriptorSetLayoutBinding
}

func (d *Device) NewDescriptorSetLayout() *DescriptorSetLayout {
	return &DescriptorSetLayout{Device: d}
}

// AddCombinedImageSampler declares a combined image sampler visible to the
// fragment stage at the given binding. Each pipeline samples exactly one
// texture, so this is the only binding kind the layouts carry.
func (d *DescriptorSetLayout) AddCombinedImageSampler(binding int) {
	d.bindings = append(d.bindings, vk.DescriptorSetLayoutBinding{
		Binding:         uint32(binding),
		DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
		DescriptorCount: 1,
		StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
	})
}

// CreateDescriptorSetLayout materializes the accumulated bindings.
func (d *Device) CreateDescriptorSetLayout(layout *DescriptorSetLayout) (*DescriptorSetLayout, error) {
	createInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(layout.bindings)),
		PBindings:    layout.bindings,
	}

	var dsl vk.DescriptorSetLayout
	if err := vk.Error(vk.CreateDescriptorSetLayout(d.VKDevice, &createInfo, nil, &dsl)); err != nil {
		return nil, err
	}

	layout.Device = d
	layout.VKDescriptorSetLayout = dsl
	return layout, nil
}

func (d *DescriptorSetLayout) Destroy() {
	vk.DestroyDescriptorSetLayout(d.Device.VKDevice, d.VKDescriptorSetLayout, nil)
}
