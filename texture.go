package minecrust

import (
	"fmt"
	"image"
	"image/draw"
	"math"
	"os"
	"unsafe"

	_ "image/jpeg"
	_ "image/png"

	vk "github.com/vulkan-go/vulkan"
)

// LocalImage is decoded image data in host memory, always RGBA.
type LocalImage struct {
	img *image.RGBA
}

func (l *LocalImage) Bytes() []byte {
	const m = 0x7fffffff
	return (*[m]byte)(unsafe.Pointer(&l.img.Pix[0]))[:len(l.img.Pix)]
}

func (l *LocalImage) Width() int  { return l.img.Bounds().Dx() }
func (l *LocalImage) Height() int { return l.img.Bounds().Dy() }

func LoadImageFromDisk(file string) (*LocalImage, error) {
	imageFile, err := os.Open(file)
	if err != nil {
		return nil, err
	}

	defer imageFile.Close()

	src, _, err := image.Decode(imageFile)
	if err != nil {
		return nil, err
	}

	b := src.Bounds()
	m := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(m, m.Bounds(), src, b.Min, draw.Src)

	return &LocalImage{m}, nil
}

// WhiteImage returns a 1x1 opaque white image, used as the fallback
// texture when no asset is configured.
func WhiteImage() *LocalImage {
	m := image.NewRGBA(image.Rect(0, 0, 1, 1))
	m.Pix[0], m.Pix[1], m.Pix[2], m.Pix[3] = 0xff, 0xff, 0xff, 0xff
	return &LocalImage{m}
}

// Texture is a sampled device-local image with its view and sampler.
type Texture struct {
	Device    *Device
	Image     *BoundImage
	View      *ImageView
	VKSampler vk.Sampler
}

func (t *Texture) Destroy() {
	vk.DestroySampler(t.Device.VKDevice, t.VKSampler, nil)
	t.View.Destroy()
	t.Image.Destroy()
}

// mipLevelsFor returns the full mip chain length for a base extent.
func mipLevelsFor(width, height int) uint32 {
	larger := width
	if height > larger {
		larger = height
	}
	return uint32(math.Floor(math.Log2(float64(larger)))) + 1
}

// CreateTexture uploads a LocalImage into a device-local sampled texture,
// generating a full mip chain when mipmapped is set. The upload runs
// synchronously on the graphics queue; this is a startup cost, not part
// of the frame loop.
func CreateTexture(ctx *Context, li *LocalImage, mipmapped bool) (*Texture, error) {
	device := ctx.Device
	width, height := li.Width(), li.Height()

	mipLevels := uint32(1)
	if mipmapped {
		mipLevels = mipLevelsFor(width, height)
	}

	staging, stagingMem, err := createStagingFromBytes(device, li.Bytes())
	if err != nil {
		return nil, fmt.Errorf("creating texture staging buffer: %w", err)
	}
	defer func() {
		staging.Destroy()
		stagingMem.Destroy()
	}()

	usage := vk.ImageUsageFlags(vk.ImageUsageTransferDstBit | vk.ImageUsageSampledBit)
	if mipLevels > 1 {
		usage |= vk.ImageUsageFlags(vk.ImageUsageTransferSrcBit)
	}

	bound, err := device.CreateBoundImageWithOptions(
		vk.Extent2D{Width: uint32(width), Height: uint32(height)},
		vk.FormatR8g8b8a8Unorm,
		vk.ImageTilingOptimal,
		usage,
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		&CreateImageOptions{MipLevels: mipLevels})
	if err != nil {
		return nil, fmt.Errorf("creating texture image: %w", err)
	}

	cb, err := ctx.GraphicsPool.AllocateBuffer(vk.CommandBufferLevelPrimary)
	if err != nil {
		bound.Destroy()
		return nil, err
	}
	defer ctx.GraphicsPool.FreeBuffer(cb)

	if err := cb.BeginOneTime(); err != nil {
		bound.Destroy()
		return nil, err
	}

	transitionImageMips(cb, bound.VKImage, 0, mipLevels,
		vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal,
		0, vk.AccessFlags(vk.AccessTransferWriteBit),
		vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
		vk.PipelineStageFlags(vk.PipelineStageTransferBit))

	vk.CmdCopyBufferToImage(cb.VK(), staging.VKBuffer, bound.VKImage, vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{{
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LayerCount: 1,
		},
		ImageExtent: vk.Extent3D{Width: uint32(width), Height: uint32(height), Depth: 1},
	}})

	if mipLevels > 1 {
		if err := recordMipChain(ctx, cb, bound.VKImage, width, height, mipLevels); err != nil {
			bound.Destroy()
			return nil, err
		}
	} else {
		transitionImageMips(cb, bound.VKImage, 0, 1,
			vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal,
			vk.AccessFlags(vk.AccessTransferWriteBit), vk.AccessFlags(vk.AccessShaderReadBit),
			vk.PipelineStageFlags(vk.PipelineStageTransferBit),
			vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit))
	}

	if err := cb.End(); err != nil {
		bound.Destroy()
		return nil, err
	}

	if err := ctx.GraphicsQueue.SubmitWaitIdle(cb); err != nil {
		bound.Destroy()
		return nil, fmt.Errorf("submitting texture upload: %w", err)
	}

	view, err := bound.CreateImageView()
	if err != nil {
		bound.Destroy()
		return nil, err
	}

	sampler, err := createSampler(device, mipLevels)
	if err != nil {
		view.Destroy()
		bound.Destroy()
		return nil, err
	}

	return &Texture{
		Device:    device,
		Image:     bound,
		View:      view,
		VKSampler: sampler,
	}, nil
}

func createStagingFromBytes(device *Device, data []byte) (*Buffer, *DeviceMemory, error) {
	buffer, err := device.CreateBuffer(uint64(len(data)), vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit))
	if err != nil {
		return nil, nil, err
	}

	memory, err := device.AllocateForBuffer(buffer,
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		buffer.Destroy()
		return nil, nil, err
	}

	if err := buffer.Bind(memory, 0); err != nil {
		memory.Destroy()
		buffer.Destroy()
		return nil, nil, err
	}

	if err := memory.MapCopyUnmap(data); err != nil {
		memory.Destroy()
		buffer.Destroy()
		return nil, nil, err
	}

	return buffer, memory, nil
}

// recordMipChain records the blit cascade producing every mip level from
// level 0. The format must support linear blit filtering; there is no
// non-filtered fallback, hardware without it gets a hard error.
func recordMipChain(ctx *Context, cb *CommandBuffer, img vk.Image, width, height int, mipLevels uint32) error {
	props := ctx.PhysicalDevice.FormatProperties(vk.FormatR8g8b8a8Unorm)
	want := vk.FormatFeatureFlags(vk.FormatFeatureSampledImageFilterLinearBit)
	if vk.FormatFeatureFlags(props.OptimalTilingFeatures)&want != want {
		return fmt.Errorf("device cannot linearly filter R8G8B8A8 blits, mip generation unavailable")
	}

	mipW, mipH := int32(width), int32(height)

	for level := uint32(1); level < mipLevels; level++ {
		// Source level: transfer-dst -> transfer-src.
		transitionImageMips(cb, img, level-1, 1,
			vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutTransferSrcOptimal,
			vk.AccessFlags(vk.AccessTransferWriteBit), vk.AccessFlags(vk.AccessTransferReadBit),
			vk.PipelineStageFlags(vk.PipelineStageTransferBit),
			vk.PipelineStageFlags(vk.PipelineStageTransferBit))

		nextW, nextH := mipW/2, mipH/2
		if nextW < 1 {
			nextW = 1
		}
		if nextH < 1 {
			nextH = 1
		}

		blit := vk.ImageBlit{
			SrcSubresource: vk.ImageSubresourceLayers{
				AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
				MipLevel:   level - 1,
				LayerCount: 1,
			},
			DstSubresource: vk.ImageSubresourceLayers{
				AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
				MipLevel:   level,
				LayerCount: 1,
			},
		}
		blit.SrcOffsets[1] = vk.Offset3D{X: mipW, Y: mipH, Z: 1}
		blit.DstOffsets[1] = vk.Offset3D{X: nextW, Y: nextH, Z: 1}

		vk.CmdBlitImage(cb.VK(),
			img, vk.ImageLayoutTransferSrcOptimal,
			img, vk.ImageLayoutTransferDstOptimal,
			1, []vk.ImageBlit{blit}, vk.FilterLinear)

		// Source level is final, move it to shader-read.
		transitionImageMips(cb, img, level-1, 1,
			vk.ImageLayoutTransferSrcOptimal, vk.ImageLayoutShaderReadOnlyOptimal,
			vk.AccessFlags(vk.AccessTransferReadBit), vk.AccessFlags(vk.AccessShaderReadBit),
			vk.PipelineStageFlags(vk.PipelineStageTransferBit),
			vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit))

		mipW, mipH = nextW, nextH
	}

	// Last level never becomes a blit source.
	transitionImageMips(cb, img, mipLevels-1, 1,
		vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal,
		vk.AccessFlags(vk.AccessTransferWriteBit), vk.AccessFlags(vk.AccessShaderReadBit),
		vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit))

	return nil
}

func transitionImageMips(cb *CommandBuffer, img vk.Image, baseLevel, levelCount uint32,
	oldLayout, newLayout vk.ImageLayout, srcAccess, dstAccess vk.AccessFlags,
	srcStage, dstStage vk.PipelineStageFlags) {

	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		OldLayout:           oldLayout,
		NewLayout:           newLayout,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               img,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:   vk.ImageAspectFlags(vk.ImageAspectColorBit),
			BaseMipLevel: baseLevel,
			LevelCount:   levelCount,
			LayerCount:   1,
		},
		SrcAccessMask: srcAccess,
		DstAccessMask: dstAccess,
	}

	vk.CmdPipelineBarrier(cb.VK(), srcStage, dstStage, 0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
}

func createSampler(device *Device, mipLevels uint32) (vk.Sampler, error) {
	createInfo := vk.SamplerCreateInfo{
		SType:            vk.StructureTypeSamplerCreateInfo,
		MagFilter:        vk.FilterLinear,
		MinFilter:        vk.FilterLinear,
		AddressModeU:     vk.SamplerAddressModeRepeat,
		AddressModeV:     vk.SamplerAddressModeRepeat,
		AddressModeW:     vk.SamplerAddressModeRepeat,
		AnisotropyEnable: vk.True,
		MaxAnisotropy:    16,
		BorderColor:      vk.BorderColorIntOpaqueBlack,
		CompareOp:        vk.CompareOpAlways,
		MipmapMode:       vk.SamplerMipmapModeLinear,
		MaxLod:           float32(mipLevels),
	}

	var sampler vk.Sampler
	err := vk.Error(vk.CreateSampler(device.VKDevice, &createInfo, nil, &sampler))
	if err != nil {
		return vk.NullSampler, err
	}
	return sampler, nil
}
