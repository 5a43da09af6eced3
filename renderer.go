package minecrust

import (
	"fmt"
	"log"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// RendererOptions configures a Renderer. Zero values select the defaults
// noted on each field.
type RendererOptions struct {
	// FramesInFlight bounds CPU submission ahead of the GPU. Defaults to
	// MaxFramesInFlight.
	FramesInFlight int

	// VertexBufferCapacity is the byte capacity of each per-image vertex
	// buffer. Defaults to DefaultVertexBufferCapacity.
	VertexBufferCapacity uint64

	// SPIR-V bytecode for the two pipelines.
	WorldVertexShader   []byte
	WorldFragmentShader []byte

	OverlayVertexShader   []byte
	OverlayFragmentShader []byte

	// WorldTexture is the block texture atlas; nil selects a 1x1 white
	// fallback. GlyphAtlas is the rasterized font atlas for the overlay.
	WorldTexture *LocalImage
	GlyphAtlas   *LocalImage

	// Font provides glyph metrics for overlay layout. Defaults to
	// DefaultFont.
	Font *Font
}

// Renderer drives the per-tick frame loop: fence pacing, image
// acquisition, staged upload, the transfer/graphics submission sequence
// with its ownership handoff, and presentation. It owns the surface
// aggregate and rebuilds it when the surface goes stale or the window is
// resized.
type Renderer struct {
	ctx  *Context
	opts RendererOptions

	font         *Font
	worldTexture *Texture
	glyphTexture *Texture

	worldDSL   *DescriptorSetLayout
	overlayDSL *DescriptorSetLayout

	worldLayout   *PipelineLayout
	overlayLayout *PipelineLayout

	descriptorPool *DescriptorPool

	sync    *SyncRegistry
	surface *SurfaceState
	frames  *FrameResourceSet

	worldPipeline   *Pipeline
	overlayPipeline *Pipeline

	tick uint64
}

const projViewPushSize = 16 * 4 // mat4 of float32
const screenPushSize = 2 * 4   // vec2 of float32

// NewRenderer builds the renderer against an initialized context. Fatal
// setup errors (shader compilation, texture upload, surface creation)
// surface here, before the frame loop starts.
func NewRenderer(ctx *Context, opts RendererOptions) (*Renderer, error) {
	if opts.FramesInFlight <= 0 {
		opts.FramesInFlight = MaxFramesInFlight
	}
	if opts.VertexBufferCapacity == 0 {
		opts.VertexBufferCapacity = DefaultVertexBufferCapacity
	}

	r := &Renderer{ctx: ctx, opts: opts}

	var err error
	r.font = opts.Font
	if r.font == nil {
		r.font, err = DefaultFont()
		if err != nil {
			return nil, fmt.Errorf("loading default font: %w", err)
		}
	}

	worldImage := opts.WorldTexture
	if worldImage == nil {
		worldImage = WhiteImage()
	}
	r.worldTexture, err = CreateTexture(ctx, worldImage, true)
	if err != nil {
		return nil, fmt.Errorf("uploading world texture: %w", err)
	}

	glyphImage := opts.GlyphAtlas
	if glyphImage == nil {
		glyphImage = WhiteImage()
	}
	r.glyphTexture, err = CreateTexture(ctx, glyphImage, false)
	if err != nil {
		return nil, fmt.Errorf("uploading glyph atlas: %w", err)
	}

	if err := r.createLayouts(); err != nil {
		return nil, err
	}

	if err := r.buildSurfaceDependents(ctx.FramebufferExtent(), nil); err != nil {
		return nil, err
	}

	r.sync, err = NewSyncRegistry(ctx.Device, opts.FramesInFlight, r.surface.ImageCount())
	if err != nil {
		return nil, fmt.Errorf("creating sync registry: %w", err)
	}

	return r, nil
}

func (r *Renderer) createLayouts() error {
	device := r.ctx.Device

	worldDSL := device.NewDescriptorSetLayout()
	worldDSL.AddCombinedImageSampler(0)
	if _, err := device.CreateDescriptorSetLayout(worldDSL); err != nil {
		return fmt.Errorf("creating world descriptor layout: %w", err)
	}
	r.worldDSL = worldDSL

	overlayDSL := device.NewDescriptorSetLayout()
	overlayDSL.AddCombinedImageSampler(0)
	if _, err := device.CreateDescriptorSetLayout(overlayDSL); err != nil {
		return fmt.Errorf("creating overlay descriptor layout: %w", err)
	}
	r.overlayDSL = overlayDSL

	var err error
	r.worldLayout, err = device.CreatePipelineLayoutWithPushConstants(
		[]*DescriptorSetLayout{worldDSL},
		[]vk.PushConstantRange{{
			StageFlags: vk.ShaderStageFlags(vk.ShaderStageVertexBit),
			Offset:     0,
			Size:       projViewPushSize,
		}})
	if err != nil {
		return fmt.Errorf("creating world pipeline layout: %w", err)
	}

	r.overlayLayout, err = device.CreatePipelineLayoutWithPushConstants(
		[]*DescriptorSetLayout{overlayDSL},
		[]vk.PushConstantRange{{
			StageFlags: vk.ShaderStageFlags(vk.ShaderStageVertexBit),
			Offset:     0,
			Size:       screenPushSize,
		}})
	if err != nil {
		return fmt.Errorf("creating overlay pipeline layout: %w", err)
	}

	pool := device.NewDescriptorPool()
	pool.AddPoolSize(vk.DescriptorTypeCombinedImageSampler, 32)
	if _, err := device.CreateDescriptorPool(pool, 32); err != nil {
		return fmt.Errorf("creating descriptor pool: %w", err)
	}
	r.descriptorPool = pool

	return nil
}

// buildSurfaceDependents constructs the surface aggregate and everything
// sized to it: pipelines, per-image resources, descriptor sets and the
// pre-recorded ownership-acquire command buffers.
func (r *Renderer) buildSurfaceDependents(requested vk.Extent2D, old *Swapchain) error {
	surface, err := BuildSurfaceState(r.ctx, requested, old)
	if err != nil {
		return err
	}
	r.surface = surface

	if err := r.createPipelines(); err != nil {
		return err
	}

	r.frames, err = NewFrameResourceSet(r.ctx, surface.ImageCount(), r.opts.VertexBufferCapacity)
	if err != nil {
		return err
	}

	tf := uint32(r.ctx.TransferQueue.QueueFamily.Index)
	gf := uint32(r.ctx.GraphicsQueue.QueueFamily.Index)

	for i := 0; i < r.frames.Count(); i++ {
		ir := r.frames.Image(uint32(i))

		if err := ir.RecordTakeOwnership(tf, gf); err != nil {
			return fmt.Errorf("recording ownership acquire for image %d: %w", i, err)
		}

		ir.WorldDescriptorSet, err = r.descriptorPool.Allocate(r.worldDSL)
		if err != nil {
			return fmt.Errorf("allocating world descriptor set for image %d: %w", i, err)
		}
		ir.WorldDescriptorSet.AddCombinedImageSampler(0, vk.ImageLayoutShaderReadOnlyOptimal,
			r.worldTexture.View.VKImageView, r.worldTexture.VKSampler)
		ir.WorldDescriptorSet.Write()

		ir.OverlayDescriptorSet, err = r.descriptorPool.Allocate(r.overlayDSL)
		if err != nil {
			return fmt.Errorf("allocating overlay descriptor set for image %d: %w", i, err)
		}
		ir.OverlayDescriptorSet.AddCombinedImageSampler(0, vk.ImageLayoutShaderReadOnlyOptimal,
			r.glyphTexture.View.VKImageView, r.glyphTexture.VKSampler)
		ir.OverlayDescriptorSet.Write()
	}

	return nil
}

func (r *Renderer) createPipelines() error {
	device := r.ctx.Device

	worldConfig := device.CreateGraphicsPipelineConfig()
	if err := worldConfig.AddShaderStageFromBytes(r.opts.WorldVertexShader, "main", vk.ShaderStageVertexBit); err != nil {
		return fmt.Errorf("world vertex shader: %w", err)
	}
	if err := worldConfig.AddShaderStageFromBytes(r.opts.WorldFragmentShader, "main", vk.ShaderStageFragmentBit); err != nil {
		return fmt.Errorf("world fragment shader: %w", err)
	}
	worldConfig.AddVertexDescriptor(&Vertex{})
	worldConfig.SetPipelineLayout(r.worldLayout)
	worldConfig.RasterizationSamples = r.surface.Samples

	worldPipeline, err := device.CreateGraphicsPipeline(worldConfig, r.surface.Extent, r.surface.RenderPass.VKRenderPass)
	worldConfig.Destroy()
	if err != nil {
		return fmt.Errorf("creating world pipeline: %w", err)
	}
	r.worldPipeline = worldPipeline

	overlayConfig := device.CreateGraphicsPipelineConfig()
	if err := overlayConfig.AddShaderStageFromBytes(r.opts.OverlayVertexShader, "main", vk.ShaderStageVertexBit); err != nil {
		return fmt.Errorf("overlay vertex shader: %w", err)
	}
	if err := overlayConfig.AddShaderStageFromBytes(r.opts.OverlayFragmentShader, "main", vk.ShaderStageFragmentBit); err != nil {
		return fmt.Errorf("overlay fragment shader: %w", err)
	}
	overlayConfig.AddVertexDescriptor(&OverlayVertex{})
	overlayConfig.SetPipelineLayout(r.overlayLayout)
	overlayConfig.AddAlphaBlendAttachment()
	overlayConfig.DepthTestEnable = false
	overlayConfig.DepthWriteEnable = false
	overlayConfig.CullMode = vk.CullModeNone
	overlayConfig.RasterizationSamples = r.surface.Samples

	overlayPipeline, err := device.CreateGraphicsPipeline(overlayConfig, r.surface.Extent, r.surface.RenderPass.VKRenderPass)
	overlayConfig.Destroy()
	if err != nil {
		return fmt.Errorf("creating overlay pipeline: %w", err)
	}
	r.overlayPipeline = overlayPipeline

	return nil
}

// DrawFrame renders one tick of the frame loop. resized forces a surface
// rebuild without drawing. Stale-surface conditions are recovered
// internally; every other failure is fatal to the loop and returned.
func (r *Renderer) DrawFrame(world *WorldState, payload *FramePayload, resized bool) error {
	slot := r.sync.Slot(r.tick)

	// The single host block per tick: cap outstanding frames at K.
	if err := slot.Fence.Wait(); err != nil {
		return fmt.Errorf("waiting on frame fence: %w", err)
	}

	if resized {
		// A resize tick is spent entirely on the rebuild.
		return r.recreateSurface()
	}

	index, stale, err := r.surface.Swapchain.AcquireNextImage(slot.ImageAvailable)
	if err != nil {
		return err
	}
	if stale {
		return r.recreateSurface()
	}

	ir := r.frames.Image(index)

	overlayVerts := BuildOverlay(r.font, payload)
	if err := ir.Stage(payload.WorldVertices(), overlayVerts); err != nil {
		return err
	}

	tf := uint32(r.ctx.TransferQueue.QueueFamily.Index)
	gf := uint32(r.ctx.GraphicsQueue.QueueFamily.Index)

	if err := ir.RecordTransfer(tf, gf); err != nil {
		return fmt.Errorf("recording transfer commands: %w", err)
	}

	ownershipSem := r.sync.OwnershipTransferred(index)

	// Transfer queue: copy and release ownership. The host does not wait
	// before issuing the graphics side; ordering lives entirely in the
	// ownership semaphore.
	err = r.ctx.TransferQueue.Submit(&SubmitOptions{
		CommandBuffers:   []*CommandBuffer{ir.TransferCmd},
		SignalSemaphores: []*Semaphore{ownershipSem},
	})
	if err != nil {
		return fmt.Errorf("submitting transfer: %w", err)
	}

	// Graphics queue: acquire ownership before vertex input touches the
	// buffers.
	err = r.ctx.GraphicsQueue.Submit(&SubmitOptions{
		CommandBuffers: []*CommandBuffer{ir.TakeOwnershipCmd},
		WaitSemaphores: []*Semaphore{ownershipSem},
		WaitStages:     []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageVertexInputBit)},
	})
	if err != nil {
		return fmt.Errorf("submitting ownership acquire: %w", err)
	}

	if err := r.recordDraw(ir, index, world); err != nil {
		return fmt.Errorf("recording draw commands: %w", err)
	}

	// Re-arm the slot fence as part of the render submission so the next
	// cycle's wait observes this frame.
	if err := slot.Fence.Reset(); err != nil {
		return fmt.Errorf("resetting frame fence: %w", err)
	}

	err = r.ctx.GraphicsQueue.Submit(&SubmitOptions{
		CommandBuffers:   []*CommandBuffer{ir.RenderCmd},
		WaitSemaphores:   []*Semaphore{slot.ImageAvailable},
		WaitStages:       []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
		SignalSemaphores: []*Semaphore{slot.RenderFinished},
		Fence:            slot.Fence,
	})
	if err != nil {
		return fmt.Errorf("submitting render: %w", err)
	}

	stale, err = r.surface.Swapchain.Present(r.ctx.PresentQueue, index, slot.RenderFinished)
	if err != nil {
		return err
	}

	r.tick++

	if stale {
		return r.recreateSurface()
	}
	return nil
}

// Tick returns the number of successfully presented frames.
func (r *Renderer) Tick() uint64 {
	return r.tick
}

// recordDraw re-records the two secondary draw buffers and the primary
// render-pass buffer for this image.
func (r *Renderer) recordDraw(ir *ImageResources, index uint32, world *WorldState) error {
	fb := r.surface.Framebuffers[index]
	rp := r.surface.RenderPass.VKRenderPass

	// World geometry.
	cb := ir.WorldDrawCmd
	if err := cb.Reset(); err != nil {
		return err
	}
	if err := cb.BeginContinueRenderPass(rp, fb); err != nil {
		return err
	}
	cb.CmdBindGraphicsPipeline(r.worldPipeline)
	cb.CmdBindDescriptorSets(vk.PipelineBindPointGraphics, r.worldLayout, 0, ir.WorldDescriptorSet)

	projView := world.ProjView
	vk.CmdPushConstants(cb.VK(), r.worldLayout.VKPipelineLayout,
		vk.ShaderStageFlags(vk.ShaderStageVertexBit), 0, projViewPushSize,
		unsafe.Pointer(&projView[0][0]))

	cb.CmdBindVertexBuffer(ir.World.Device)
	vk.CmdDraw(cb.VK(), ir.World.StagedCount(), 1, 0, 0)
	if err := cb.End(); err != nil {
		return err
	}

	// Overlay text.
	cb = ir.OverlayDrawCmd
	if err := cb.Reset(); err != nil {
		return err
	}
	if err := cb.BeginContinueRenderPass(rp, fb); err != nil {
		return err
	}
	cb.CmdBindGraphicsPipeline(r.overlayPipeline)
	cb.CmdBindDescriptorSets(vk.PipelineBindPointGraphics, r.overlayLayout, 0, ir.OverlayDescriptorSet)

	screen := [2]float32{float32(r.surface.Extent.Width), float32(r.surface.Extent.Height)}
	vk.CmdPushConstants(cb.VK(), r.overlayLayout.VKPipelineLayout,
		vk.ShaderStageFlags(vk.ShaderStageVertexBit), 0, screenPushSize,
		unsafe.Pointer(&screen[0]))

	cb.CmdBindVertexBuffer(ir.Overlay.Device)
	vk.CmdDraw(cb.VK(), ir.Overlay.StagedCount(), 1, 0, 0)
	if err := cb.End(); err != nil {
		return err
	}

	// Primary: begin the pass and run both secondaries.
	cb = ir.RenderCmd
	if err := cb.Reset(); err != nil {
		return err
	}
	if err := cb.BeginOneTime(); err != nil {
		return err
	}

	clearValues := make([]vk.ClearValue, 2)
	clearValues[0].SetColor([]float32{0.53, 0.81, 0.92, 1})
	clearValues[1].SetDepthStencil(1, 0)

	beginInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  rp,
		Framebuffer: fb,
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{},
			Extent: r.surface.Extent,
		},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}

	vk.CmdBeginRenderPass(cb.VK(), &beginInfo, vk.SubpassContentsSecondaryCommandBuffers)
	cb.CmdExecuteCommands(ir.WorldDrawCmd, ir.OverlayDrawCmd)
	vk.CmdEndRenderPass(cb.VK())

	return cb.End()
}

// recreateSurface tears down and rebuilds every surface-sized object.
// This is the one fully blocking path; it only runs on resize or stale
// surface events.
func (r *Renderer) recreateSurface() error {
	if err := r.ctx.Device.WaitIdle(); err != nil {
		return fmt.Errorf("draining device for surface rebuild: %w", err)
	}

	r.destroySurfaceDependents()

	extent := r.ctx.FramebufferExtent()
	log.Printf("rebuilding surface at %dx%d", extent.Width, extent.Height)

	if err := r.buildSurfaceDependents(extent, nil); err != nil {
		return err
	}

	if r.sync != nil {
		if err := r.sync.SetImageCount(r.surface.ImageCount()); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) destroySurfaceDependents() {
	if r.frames != nil {
		for i := 0; i < r.frames.Count(); i++ {
			ir := r.frames.Image(uint32(i))
			if ir.WorldDescriptorSet != nil {
				if err := r.descriptorPool.Free(ir.WorldDescriptorSet); err != nil {
					log.Printf("freeing world descriptor set %d: %v", i, err)
				}
			}
			if ir.OverlayDescriptorSet != nil {
				if err := r.descriptorPool.Free(ir.OverlayDescriptorSet); err != nil {
					log.Printf("freeing overlay descriptor set %d: %v", i, err)
				}
			}
		}
		r.frames.Destroy()
		r.frames = nil
	}

	if r.worldPipeline != nil {
		r.worldPipeline.Destroy()
		r.worldPipeline = nil
	}
	if r.overlayPipeline != nil {
		r.overlayPipeline.Destroy()
		r.overlayPipeline = nil
	}

	if r.surface != nil {
		r.surface.Destroy()
		r.surface = nil
	}
}

// Destroy drains the device and releases everything the renderer owns.
// The context survives and is destroyed separately by its owner.
func (r *Renderer) Destroy() {
	r.ctx.Device.WaitIdle()

	if r.sync != nil {
		if err := r.sync.Destroy(); err != nil {
			log.Printf("draining sync registry: %v", err)
		}
		r.sync = nil
	}

	r.destroySurfaceDependents()

	if r.descriptorPool != nil {
		r.descriptorPool.Destroy()
	}
	if r.worldLayout != nil {
		r.worldLayout.Destroy()
	}
	if r.overlayLayout != nil {
		r.overlayLayout.Destroy()
	}
	if r.worldDSL != nil {
		r.worldDSL.Destroy()
	}
	if r.overlayDSL != nil {
		r.overlayDSL.Destroy()
	}
	if r.worldTexture != nil {
		r.worldTexture.Destroy()
	}
	if r.glyphTexture != nil {
		r.glyphTexture.Destroy()
	}
}
