package minecrust

import (
	vk "github.com/vulkan-go/vulkan"
)

type Image struct {
	Device    *Device
	VKImage   vk.Image
	VKFormat  vk.Format
	Extent    vk.Extent2D
	MipLevels uint32
}

func (i *Image) VKMemoryRequirements() vk.MemoryRequirements {
	var memRequirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(i.Device.VKDevice, i.VKImage, &memRequirements)
	return memRequirements
}

func (i *Image) AllocationRequirements() *AllocationRequirements {
	memoryRequirements := i.VKMemoryRequirements()
	mr := &memoryRequirements
	mr.Deref()

	return &AllocationRequirements{
		Size:           int(mr.Size),
		Alignment:      int(mr.Alignment),
		MemoryTypeBits: mr.MemoryTypeBits,
	}
}

type CreateImageOptions struct {
	MipLevels uint32
	Samples   vk.SampleCountFlagBits
}

func (d *Device) CreateImage(extent vk.Extent2D, format vk.Format, tiling vk.ImageTiling, usage vk.ImageUsageFlags) (*Image, error) {
	return d.CreateImageWithOptions(extent, format, tiling, usage, nil)
}

func (d *Device) CreateImageWithOptions(extent vk.Extent2D, format vk.Format, tiling vk.ImageTiling, usage vk.ImageUsageFlags, options *CreateImageOptions) (*Image, error) {
	mipLevels := uint32(1)
	if options != nil && options.MipLevels > 1 {
		mipLevels = options.MipLevels
	}

	samples := vk.SampleCount1Bit
	if options != nil && options.Samples != 0 {
		samples = options.Samples
	}

	var imageInfo = vk.ImageCreateInfo{}
	imageInfo.SType = vk.StructureTypeImageCreateInfo
	imageInfo.ImageType = vk.ImageType2d
	imageInfo.Extent.Width = extent.Width
	imageInfo.Extent.Height = extent.Height
	imageInfo.Extent.Depth = 1
	imageInfo.MipLevels = mipLevels
	imageInfo.ArrayLayers = 1
	imageInfo.Format = format
	imageInfo.Tiling = tiling
	imageInfo.InitialLayout = vk.ImageLayoutUndefined
	imageInfo.Usage = usage
	imageInfo.Samples = samples
	imageInfo.SharingMode = vk.SharingModeExclusive

	var image vk.Image

	err := vk.Error(vk.CreateImage(d.VKDevice, &imageInfo, nil, &image))
	if err != nil {
		return nil, err
	}

	var ret Image

	ret.Device = d
	ret.VKImage = image
	ret.VKFormat = format
	ret.Extent = extent
	ret.MipLevels = mipLevels

	return &ret, nil
}

// BoundImage is an image with its own dedicated memory allocation.
type BoundImage struct {
	Image
	DeviceMemory *DeviceMemory
}

func (d *Device) CreateBoundImage(extent vk.Extent2D, format vk.Format, tiling vk.ImageTiling, usage vk.ImageUsageFlags, props vk.MemoryPropertyFlags) (*BoundImage, error) {
	return d.CreateBoundImageWithOptions(extent, format, tiling, usage, props, nil)
}

func (d *Device) CreateBoundImageWithOptions(extent vk.Extent2D, format vk.Format, tiling vk.ImageTiling, usage vk.ImageUsageFlags, props vk.MemoryPropertyFlags, options *CreateImageOptions) (*BoundImage, error) {
	i, err := d.CreateImageWithOptions(extent, format, tiling, usage, options)
	if err != nil {
		return nil, err
	}

	mem, err := d.AllocateForImage(i, props)
	if err != nil {
		i.Destroy()
		return nil, err
	}

	err = vk.Error(vk.BindImageMemory(d.VKDevice, i.VKImage, mem.VKDeviceMemory, 0))
	if err != nil {
		mem.Destroy()
		i.Destroy()
		return nil, err
	}

	boundImage := &BoundImage{}
	boundImage.Image = *i
	boundImage.DeviceMemory = mem

	return boundImage, nil

}

func (b *BoundImage) Destroy() {
	b.Image.Destroy()
	b.DeviceMemory.Destroy()
}

func (i *Image) Destroy() {
	vk.DestroyImage(i.Device.VKDevice, i.VKImage, nil)
}
