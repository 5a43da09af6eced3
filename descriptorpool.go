package minecrust

import (
	vk "github.com/vulkan-go/vulkan"
)

// DescriptorPool allocates the per-image descriptor sets. Sets are freed
// individually when the surface is torn down, so the pool is created with
// the free-descriptor-set flag rather than reset wholesale.
type DescriptorPool struct {
	Device           *Device
	VKDescriptorPool vk.DescriptorPool

	poolSizes []vk.DescriptorPoolSize
}

func (d *Device) NewDescriptorPool() *DescriptorPool {
	return &DescriptorPool{Device: d}
}

// AddPoolSize reserves capacity for count descriptors of the given type.
func (p *DescriptorPool) AddPoolSize(dtype vk.DescriptorType, count int) {
	p.poolSizes = append(p.poolSizes, vk.DescriptorPoolSize{
		Type:            dtype,
		DescriptorCount: uint32(count),
	})
}

// CreateDescriptorPool creates the pool with the reserved sizes. maxSets
// caps the number of live sets; the renderer needs two per swapchain
// image, so the cap leaves room for the longest supported chain.
func (d *Device) CreateDescriptorPool(pool *DescriptorPool, maxSets int) (*DescriptorPool, error) {
	createInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       uint32(maxSets),
		Flags:         vk.DescriptorPoolCreateFlags(vk.DescriptorPoolCreateFreeDescriptorSetBit),
		PoolSizeCount: uint32(len(pool.poolSizes)),
		PPoolSizes:    pool.poolSizes,
	}

	var descriptorPool vk.DescriptorPool
	if err := vk.Error(vk.CreateDescriptorPool(d.VKDevice, &createInfo, nil, &descriptorPool)); err != nil {
		return nil, err
	}

	pool.Device = d
	pool.VKDescriptorPool = descriptorPool
	return pool, nil
}

// Allocate allocates one descriptor set against the given layout.
func (p *DescriptorPool) Allocate(layout *DescriptorSetLayout) (*DescriptorSet, error) {
	allocInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     p.VKDescriptorPool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{layout.VKDescriptorSetLayout},
	}

	var set vk.DescriptorSet
	if err := vk.Error(vk.AllocateDescriptorSets(p.Device.VKDevice, &allocInfo, &set)); err != nil {
		return nil, err
	}

	return &DescriptorSet{
		Device:          p.Device,
		DescriptorPool:  p,
		VKDescriptorSet: set,
	}, nil
}

// Free returns a set to the pool.
func (p *DescriptorPool) Free(ds *DescriptorSet) error {
	set := ds.VKDescriptorSet
	return vk.Error(vk.FreeDescriptorSets(p.Device.VKDevice, p.VKDescriptorPool, 1, &set))
}

func (p *DescriptorPool) Destroy() {
	vk.DestroyDescriptorPool(p.Device.VKDevice, p.VKDescriptorPool, nil)
}
