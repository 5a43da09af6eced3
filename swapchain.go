package minecrust

import (
	vk "github.com/vulkan-go/vulkan"
)

type Swapchain struct {
	Extent      vk.Extent2D
	Format      vk.Format
	ColorSpace  vk.ColorSpace
	Device      *Device
	VKSwapchain vk.Swapchain
}

func (s *Swapchain) Destroy() {
	vk.DestroySwapchain(s.Device.VKDevice, s.VKSwapchain, nil)
}

func (s *Swapchain) GetImages() ([]*Image, error) {
	var imageCount uint32
	err := vk.Error(vk.GetSwapchainImages(s.Device.VKDevice, s.VKSwapchain, &imageCount, nil))
	if err != nil {
		return nil, err
	}

	swapchainImages := make([]vk.Image, imageCount)
	err = vk.Error(vk.GetSwapchainImages(s.Device.VKDevice, s.VKSwapchain, &imageCount, swapchainImages))

	ret := make([]*Image, imageCount)
	for i := range swapchainImages {
		ret[i] = &Image{}
		ret[i].Device = s.Device
		ret[i].VKImage = swapchainImages[i]
		ret[i].VKFormat = s.Format
	}

	return ret, err
}

// AcquireNextImage acquires the next presentable image, signaling the given
// semaphore when the image is ready. stale reports that no image could be
// acquired and the swapchain must be rebuilt. A suboptimal acquire still
// signals the semaphore, so that frame is drawn and presented; present
// reports the staleness and triggers the rebuild.
func (s *Swapchain) AcquireNextImage(sem *Semaphore) (index uint32, stale bool, err error) {
	res := vk.AcquireNextImage(s.Device.VKDevice, s.VKSwapchain, vk.MaxUint64, sem.VKSemaphore, vk.NullFence, &index)
	switch res {
	case vk.Success, vk.Suboptimal:
		return index, false, nil
	case vk.ErrorOutOfDate:
		return 0, true, nil
	default:
		return 0, false, newRenderError("acquire", res)
	}
}

// Present queues the image at index for presentation on q after wait is
// signaled. stale reports Suboptimal or OutOfDate, which the caller
// handles by rebuilding the swapchain.
func (s *Swapchain) Present(q *Queue, index uint32, wait *Semaphore) (stale bool, err error) {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{wait.VKSemaphore},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{s.VKSwapchain},
		PImageIndices:      []uint32{index},
	}

	res := vk.QueuePresent(q.VKQueue, &presentInfo)
	switch {
	case res == vk.Success:
		return false, nil
	case isSurfaceStale(res):
		return true, nil
	default:
		return false, newRenderError("present", res)
	}
}

// chooseSurfaceFormat picks the first supported format, substituting
// B8G8R8A8Unorm when the surface reports no preference. Formats must
// already be dereferenced.
func chooseSurfaceFormat(formats []vk.SurfaceFormat) (vk.SurfaceFormat, error) {
	if len(formats) == 0 {
		return vk.SurfaceFormat{}, &SurfaceUnsupportedError{Reason: "surface reports no formats"}
	}
	f := formats[0]
	if f.Format == vk.FormatUndefined {
		f.Format = vk.FormatB8g8r8a8Unorm
	}
	return f, nil
}

// choosePresentMode prefers mailbox when available and otherwise falls
// back to FIFO, which every conforming implementation supports.
func choosePresentMode(modes []vk.PresentMode) vk.PresentMode {
	for _, m := range modes {
		if m == vk.PresentModeMailbox {
			return m
		}
	}
	return vk.PresentModeFifo
}

// chooseSwapchainExtent resolves the swapchain extent from the surface
// capabilities. When the surface pins the extent it is used as-is; the
// all-ones sentinel means the swapchain decides, so the requested size is
// clamped into the supported range.
func chooseSwapchainExtent(current, min, max vk.Extent2D, requested vk.Extent2D) vk.Extent2D {
	if current.Width != vk.MaxUint32 {
		return current
	}
	return vk.Extent2D{
		Width:  clampUint32(requested.Width, min.Width, max.Width),
		Height: clampUint32(requested.Height, min.Height, max.Height),
	}
}

func clampUint32(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// desiredImageCount asks for one image more than the driver minimum so a
// frame can be recorded while the compositor holds another, capped at the
// reported maximum when the surface has one.
func desiredImageCount(min, max uint32) uint32 {
	count := min + 1
	if max > 0 && count > max {
		count = max
	}
	return count
}

type CreateSwapchainOptions struct {
	OldSwapchain              *Swapchain
	ActualSize                vk.Extent2D
	DesiredNumSwapchainImages int
}

func (d *Device) CreateSwapchain(surface vk.Surface, graphicsQueue, presentQueue *Queue, options *CreateSwapchainOptions) (*Swapchain, error) {

	modes, err := d.PhysicalDevice.GetSurfacePresentModes(surface)
	if err != nil {
		return nil, err
	}
	presentMode := choosePresentMode(modes)

	formats, err := d.PhysicalDevice.GetSurfaceFormats(surface)
	if err != nil {
		return nil, err
	}
	for i := range formats {
		formats[i].Deref()
	}

	format, err := chooseSurfaceFormat(formats)
	if err != nil {
		return nil, err
	}

	caps, err := d.PhysicalDevice.GetSurfaceCapabilities(surface)
	if err != nil {
		return nil, err
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()

	var requested vk.Extent2D
	if options != nil {
		requested = options.ActualSize
	}
	swapchainSize := chooseSwapchainExtent(caps.CurrentExtent, caps.MinImageExtent, caps.MaxImageExtent, requested)

	imageCount := desiredImageCount(caps.MinImageCount, caps.MaxImageCount)
	if options != nil && options.DesiredNumSwapchainImages > 0 {
		imageCount = uint32(options.DesiredNumSwapchainImages)
	}

	var swapchain vk.Swapchain

	createInfo := &vk.SwapchainCreateInfo{
		SType:           vk.StructureTypeSwapchainCreateInfo,
		Surface:         surface,
		MinImageCount:   imageCount,
		ImageFormat:     format.Format,
		ImageColorSpace: format.ColorSpace,
		ImageExtent: vk.Extent2D{
			Width:  swapchainSize.Width,
			Height: swapchainSize.Height,
		},
		PresentMode:      presentMode,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageArrayLayers: 1,
		Clipped:          vk.True,
		PreTransform:     caps.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		OldSwapchain:     vk.NullSwapchain,
	}

	if options != nil && options.OldSwapchain != nil {
		createInfo.OldSwapchain = options.OldSwapchain.VKSwapchain
	}

	if graphicsQueue.QueueFamily.Index != presentQueue.QueueFamily.Index {
		createInfo.QueueFamilyIndexCount = 2
		createInfo.PQueueFamilyIndices = []uint32{uint32(graphicsQueue.QueueFamily.Index), uint32(presentQueue.QueueFamily.Index)}
		createInfo.ImageSharingMode = vk.SharingModeConcurrent
	} else {
		createInfo.QueueFamilyIndexCount = 0
		createInfo.PQueueFamilyIndices = nil
		createInfo.ImageSharingMode = vk.SharingModeExclusive
	}

	err = vk.Error(vk.CreateSwapchain(d.VKDevice, createInfo, nil, &swapchain))
	if err != nil {
		return nil, err
	}

	var ret Swapchain
	ret.VKSwapchain = swapchain
	ret.Device = d
	ret.Extent = vk.Extent2D{
		Width:  swapchainSize.Width,
		Height: swapchainSize.Height,
	}
	ret.Format = format.Format
	ret.ColorSpace = format.ColorSpace

	return &ret, nil

}
