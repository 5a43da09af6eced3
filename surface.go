package minecrust

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// SurfaceState is the aggregate of every object sized to the presentation
// surface: the swapchain, its image views, the multisampled color and
// depth attachments, the render pass and one framebuffer per presentable
// image. It is built as a whole and destroyed as a whole; recreation
// never mutates an existing instance in place.
type SurfaceState struct {
	Device *Device

	Swapchain  *Swapchain
	Images     []*Image
	ImageViews []*ImageView

	// ColorImage is the multisampled render target resolved into the
	// swapchain image each frame. Nil when Samples is one sample per
	// pixel; the swapchain image is drawn to directly then.
	ColorImage *BoundImage
	ColorView  *ImageView

	DepthImage *BoundImage
	DepthView  *ImageView

	RenderPass   *RenderPass
	Framebuffers []vk.Framebuffer

	Extent  vk.Extent2D
	Format  vk.Format
	Samples vk.SampleCountFlagBits
}

// ImageCount returns the number of presentable images in the chain.
func (s *SurfaceState) ImageCount() int {
	return len(s.Images)
}

// BuildSurfaceState creates a fresh surface aggregate for the requested
// extent. old, when non-nil, is passed to swapchain creation so the driver
// can recycle its images; the caller still destroys it afterwards.
func BuildSurfaceState(ctx *Context, requested vk.Extent2D, old *Swapchain) (*SurfaceState, error) {
	device := ctx.Device

	swapchain, err := device.CreateSwapchain(ctx.VKSurface, ctx.GraphicsQueue, ctx.PresentQueue, &CreateSwapchainOptions{
		OldSwapchain: old,
		ActualSize:   requested,
	})
	if err != nil {
		return nil, fmt.Errorf("creating swapchain: %w", err)
	}

	s := &SurfaceState{
		Device:    device,
		Swapchain: swapchain,
		Extent:    swapchain.Extent,
		Format:    swapchain.Format,
		Samples:   ctx.Device.PhysicalDevice.MaxUsableSampleCount(),
	}

	s.Images, err = swapchain.GetImages()
	if err != nil {
		s.Destroy()
		return nil, fmt.Errorf("getting swapchain images: %w", err)
	}

	s.ImageViews = make([]*ImageView, 0, len(s.Images))
	for i, img := range s.Images {
		view, err := img.CreateImageView()
		if err != nil {
			s.Destroy()
			return nil, fmt.Errorf("creating view for image %d: %w", i, err)
		}
		s.ImageViews = append(s.ImageViews, view)
	}

	depthFormat, err := device.PhysicalDevice.FindDepthFormat()
	if err != nil {
		s.Destroy()
		return nil, err
	}

	if s.Samples != vk.SampleCount1Bit {
		s.ColorImage, err = device.CreateBoundImageWithOptions(s.Extent, s.Format,
			vk.ImageTilingOptimal,
			vk.ImageUsageFlags(vk.ImageUsageTransientAttachmentBit|vk.ImageUsageColorAttachmentBit),
			vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
			&CreateImageOptions{Samples: s.Samples})
		if err != nil {
			s.Destroy()
			return nil, fmt.Errorf("creating multisampled color image: %w", err)
		}

		s.ColorView, err = s.ColorImage.CreateImageView()
		if err != nil {
			s.Destroy()
			return nil, fmt.Errorf("creating multisampled color view: %w", err)
		}
	}

	s.DepthImage, err = device.CreateBoundImageWithOptions(s.Extent, depthFormat,
		vk.ImageTilingOptimal,
		vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		&CreateImageOptions{Samples: s.Samples})
	if err != nil {
		s.Destroy()
		return nil, fmt.Errorf("creating depth image: %w", err)
	}

	s.DepthView, err = s.DepthImage.CreateImageViewWithAspectMask(vk.ImageAspectFlags(vk.ImageAspectDepthBit))
	if err != nil {
		s.Destroy()
		return nil, fmt.Errorf("creating depth view: %w", err)
	}

	s.RenderPass, err = device.CreateRenderPass(s.Format, depthFormat, s.Samples)
	if err != nil {
		s.Destroy()
		return nil, fmt.Errorf("creating render pass: %w", err)
	}

	s.Framebuffers = make([]vk.Framebuffer, 0, len(s.ImageViews))
	for i, view := range s.ImageViews {
		attachments := framebufferAttachments(s.ColorView, s.DepthView, view)
		fb, err := createFramebuffer(device, s.RenderPass.VKRenderPass, s.Extent, attachments...)
		if err != nil {
			s.Destroy()
			return nil, fmt.Errorf("creating framebuffer %d: %w", i, err)
		}
		s.Framebuffers = append(s.Framebuffers, fb)
	}

	return s, nil
}

// framebufferAttachments orders the views to match the render pass:
// color, depth, then the swapchain image as the resolve target when a
// multisampled color view exists, or swapchain image and depth when
// rendering single-sampled.
func framebufferAttachments(colorView, depthView, swapchainView *ImageView) []vk.ImageView {
	if colorView == nil {
		return []vk.ImageView{swapchainView.VKImageView, depthView.VKImageView}
	}
	return []vk.ImageView{colorView.VKImageView, depthView.VKImageView, swapchainView.VKImageView}
}

func createFramebuffer(d *Device, renderPass vk.RenderPass, extent vk.Extent2D, attachments ...vk.ImageView) (vk.Framebuffer, error) {
	createInfo := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      renderPass,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		Width:           extent.Width,
		Height:          extent.Height,
		Layers:          1,
	}

	var fb vk.Framebuffer
	err := vk.Error(vk.CreateFramebuffer(d.VKDevice, &createInfo, nil, &fb))
	if err != nil {
		return vk.NullFramebuffer, err
	}
	return fb, nil
}

// Destroy releases the aggregate. The caller must have made the device
// idle first; no submitted work may still reference these objects.
func (s *SurfaceState) Destroy() {
	for _, fb := range s.Framebuffers {
		vk.DestroyFramebuffer(s.Device.VKDevice, fb, nil)
	}
	s.Framebuffers = nil

	if s.RenderPass != nil {
		s.RenderPass.Destroy()
		s.RenderPass = nil
	}

	if s.DepthView != nil {
		s.DepthView.Destroy()
		s.DepthView = nil
	}
	if s.DepthImage != nil {
		s.DepthImage.Destroy()
		s.DepthImage = nil
	}

	if s.ColorView != nil {
		s.ColorView.Destroy()
		s.ColorView = nil
	}
	if s.ColorImage != nil {
		s.ColorImage.Destroy()
		s.ColorImage = nil
	}

	for _, view := range s.ImageViews {
		view.Destroy()
	}
	s.ImageViews = nil

	// Swapchain images are owned by the chain and destroyed with it.
	s.Images = nil

	if s.Swapchain != nil {
		s.Swapchain.Destroy()
		s.Swapchain = nil
	}
}
