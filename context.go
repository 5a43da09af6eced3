package minecrust

import (
	"fmt"
	"log"

	"github.com/vulkan-go/glfw/v3.3/glfw"
	vk "github.com/vulkan-go/vulkan"
)

// Context owns the long-lived GPU objects: instance, logical device and
// the three queues frame rendering runs on. It is created once and
// destroyed last, after everything that borrows the device.
type Context struct {
	App      *App
	Instance *Instance
	Window   *glfw.Window

	VKSurface vk.Surface

	PhysicalDevice *PhysicalDevice
	Device         *Device

	GraphicsQueue *Queue
	TransferQueue *Queue
	PresentQueue  *Queue

	GraphicsPool *CommandPool
	TransferPool *CommandPool
}

// NewContext initializes Vulkan against the given window: instance,
// surface, device selection, queues and command pools. The transfer queue
// prefers a dedicated transfer-only family and falls back to the graphics
// family when the hardware has none.
func NewContext(app *App, window *glfw.Window) (*Context, error) {
	vk.SetGetInstanceProcAddr(glfw.GetVulkanGetInstanceProcAddress())
	if err := vk.Init(); err != nil {
		return nil, fmt.Errorf("initializing vulkan: %w", err)
	}

	for _, ext := range window.GetRequiredInstanceExtensions() {
		app.EnableExtension(ext)
	}

	instance, err := app.CreateInstance()
	if err != nil {
		return nil, fmt.Errorf("creating instance: %w", err)
	}

	surfacePtr, err := window.CreateWindowSurface(instance.VKInstance, nil)
	if err != nil {
		return nil, fmt.Errorf("creating window surface: %w", err)
	}
	surface := vk.SurfaceFromPointer(surfacePtr)

	ctx := &Context{
		App:       app,
		Instance:  instance,
		Window:    window,
		VKSurface: surface,
	}

	if err := ctx.selectDeviceAndQueues(); err != nil {
		return nil, err
	}

	ctx.GraphicsPool, err = ctx.Device.CreateCommandPool(ctx.GraphicsQueue.QueueFamily)
	if err != nil {
		return nil, fmt.Errorf("creating graphics command pool: %w", err)
	}
	ctx.TransferPool, err = ctx.Device.CreateCommandPool(ctx.TransferQueue.QueueFamily)
	if err != nil {
		return nil, fmt.Errorf("creating transfer command pool: %w", err)
	}

	return ctx, nil
}

func (c *Context) selectDeviceAndQueues() error {
	devices, err := c.Instance.PhysicalDevices()
	if err != nil {
		return fmt.Errorf("enumerating physical devices: %w", err)
	}
	if len(devices) == 0 {
		return &SurfaceUnsupportedError{Reason: "no physical devices found"}
	}

	for _, pd := range devices {
		if !deviceSupportsSwapchain(pd) {
			continue
		}

		qfs, err := pd.QueueFamilies()
		if err != nil {
			return err
		}

		graphics := qfs.FilterGraphicsAndPresent(c.VKSurface)
		if len(graphics) == 0 {
			continue
		}

		graphicsFamily := graphics[0]
		transferFamily := graphicsFamily
		if dedicated := qfs.FilterDedicatedTransfer(); len(dedicated) > 0 {
			transferFamily = dedicated[0]
		}

		families := QueueFamilySlice{graphicsFamily}
		if transferFamily.Index != graphicsFamily.Index {
			families = append(families, transferFamily)
		}

		device, err := pd.CreateLogicalDeviceWithOptions(families, &CreateDeviceOptions{
			EnabledExtensions: []string{"VK_KHR_swapchain"},
		})
		if err != nil {
			return fmt.Errorf("creating logical device on %s: %w", pd, err)
		}

		c.PhysicalDevice = pd
		c.Device = device
		c.GraphicsQueue = device.GetQueue(graphicsFamily)
		c.TransferQueue = device.GetQueue(transferFamily)
		c.PresentQueue = c.GraphicsQueue

		log.Printf("using device %s, graphics family %d, transfer family %d",
			pd, graphicsFamily.Index, transferFamily.Index)
		return nil
	}

	return &SurfaceUnsupportedError{Reason: "no device can render to the surface"}
}

func deviceSupportsSwapchain(pd *PhysicalDevice) bool {
	exts, err := pd.SupportedExtensions()
	if err != nil {
		return false
	}
	for _, e := range exts {
		e.Deref()
		if vk.ToString(e.ExtensionName[:]) == "VK_KHR_swapchain" {
			return true
		}
	}
	return false
}

// SeparateTransferFamily reports whether uploads run on a different queue
// family than rendering, which is when ownership transfer barriers are
// required.
func (c *Context) SeparateTransferFamily() bool {
	return c.TransferQueue.QueueFamily.Index != c.GraphicsQueue.QueueFamily.Index
}

// FramebufferExtent reads the window's current framebuffer size.
func (c *Context) FramebufferExtent() vk.Extent2D {
	w, h := c.Window.GetFramebufferSize()
	return vk.Extent2D{Width: uint32(w), Height: uint32(h)}
}

// Destroy tears down the context. All dependents must already be gone.
func (c *Context) Destroy() {
	if c.Device != nil {
		c.Device.WaitIdle()
	}
	if c.GraphicsPool != nil {
		c.GraphicsPool.Destroy()
	}
	if c.TransferPool != nil {
		c.TransferPool.Destroy()
	}
	if c.Device != nil {
		c.Device.Destroy()
	}
	if c.VKSurface != vk.NullSurface {
		vk.DestroySurface(c.Instance.VKInstance, c.VKSurface, nil)
	}
	if c.Instance != nil {
		c.Instance.Destroy()
	}
}
