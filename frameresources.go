package minecrust

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// DefaultVertexBufferCapacity bounds the bytes of vertex data one frame
// may stage per buffer. Uploads beyond it fail; the buffers never grow.
const DefaultVertexBufferCapacity uint64 = 1 << 20

// VertexBufferPair is a host-visible staging buffer and its device-local
// counterpart. The staging side stays persistently mapped; stagedLen and
// stagedCount track the bytes written this tick and the vertex count they
// decode to, which must stay in lockstep with the device copy and the
// draw call.
type VertexBufferPair struct {
	Staging *Buffer
	Device  *Buffer

	Capacity uint64

	mapped []byte

	stagedLen   uint64
	stagedCount uint32
}

// StagedLen returns the bytes staged this tick.
func (p *VertexBufferPair) StagedLen() uint64 { return p.stagedLen }

// StagedCount returns the vertex count staged this tick.
func (p *VertexBufferPair) StagedCount() uint32 { return p.stagedCount }

// ImageResources is everything owned per presentable image, indexed by
// the image index returned at acquire time (never by frame slot).
type ImageResources struct {
	World   VertexBufferPair
	Overlay VertexBufferPair

	// TransferCmd runs on the transfer queue: both copies plus the
	// ownership release. Re-recorded every tick.
	TransferCmd *CommandBuffer

	// TakeOwnershipCmd runs on the graphics queue to complete the
	// ownership handoff. Recorded once per surface build.
	TakeOwnershipCmd *CommandBuffer

	// Secondary draw buffers executed from RenderCmd's render pass.
	WorldDrawCmd   *CommandBuffer
	OverlayDrawCmd *CommandBuffer

	// RenderCmd is the primary buffer that begins the render pass.
	RenderCmd *CommandBuffer

	WorldDescriptorSet   *DescriptorSet
	OverlayDescriptorSet *DescriptorSet
}

// FrameResourceSet owns the per-image resources for the current surface
// state. All staging buffers share one mapped host memory block and all
// device buffers share one device-local block, packed with a pool
// allocator so recreation costs two allocations regardless of image
// count.
type FrameResourceSet struct {
	ctx *Context

	hostMemory   *DeviceMemory
	deviceMemory *DeviceMemory

	images []*ImageResources
}

// Image returns the resources for a presentable image index.
func (f *FrameResourceSet) Image(index uint32) *ImageResources {
	return f.images[index]
}

// Count returns the number of per-image resource sets.
func (f *FrameResourceSet) Count() int {
	return len(f.images)
}

// NewFrameResourceSet builds per-image buffers and command buffers for
// imageCount presentable images with the given per-buffer capacity.
func NewFrameResourceSet(ctx *Context, imageCount int, capacity uint64) (*FrameResourceSet, error) {
	if capacity == 0 {
		capacity = DefaultVertexBufferCapacity
	}

	f := &FrameResourceSet{
		ctx:    ctx,
		images: make([]*ImageResources, imageCount),
	}

	device := ctx.Device

	stagingUsage := vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit)
	deviceUsage := vk.BufferUsageFlags(vk.BufferUsageTransferDstBit | vk.BufferUsageVertexBufferBit)

	var hostBuffers, deviceBuffers []*Buffer

	for i := range f.images {
		ir := &ImageResources{}
		f.images[i] = ir

		for _, pair := range []*VertexBufferPair{&ir.World, &ir.Overlay} {
			staging, err := device.CreateBuffer(capacity, stagingUsage)
			if err != nil {
				return nil, fmt.Errorf("creating staging buffer for image %d: %w", i, err)
			}
			dev, err := device.CreateBuffer(capacity, deviceUsage)
			if err != nil {
				return nil, fmt.Errorf("creating device buffer for image %d: %w", i, err)
			}
			pair.Staging = staging
			pair.Device = dev
			pair.Capacity = capacity
			hostBuffers = append(hostBuffers, staging)
			deviceBuffers = append(deviceBuffers, dev)
		}
	}

	hostMem, hostOffsets, err := packBuffers(device, hostBuffers,
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		return nil, fmt.Errorf("packing staging buffers: %w", err)
	}
	f.hostMemory = hostMem

	devMem, _, err := packBuffers(device, deviceBuffers,
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		return nil, fmt.Errorf("packing device buffers: %w", err)
	}
	f.deviceMemory = devMem

	if _, err := hostMem.Map(); err != nil {
		return nil, fmt.Errorf("mapping staging memory: %w", err)
	}

	bufIdx := 0
	for _, ir := range f.images {
		for _, pair := range []*VertexBufferPair{&ir.World, &ir.Overlay} {
			pair.mapped, err = hostMem.Bytes(hostOffsets[bufIdx], int(capacity))
			if err != nil {
				return nil, err
			}
			bufIdx++
		}
	}

	for i, ir := range f.images {
		if err := f.allocateCommandBuffers(ir); err != nil {
			return nil, fmt.Errorf("allocating command buffers for image %d: %w", i, err)
		}
	}

	return f, nil
}

// packBuffers binds a set of buffers into one freshly allocated memory
// block, using a pool allocator to honor each buffer's alignment. Returns
// the block and each buffer's offset within it.
func packBuffers(device *Device, buffers []*Buffer, props vk.MemoryPropertyFlags) (*DeviceMemory, []uint64, error) {
	reqs := make([]*AllocationRequirements, len(buffers))

	var total uint64
	typeBits := ^uint32(0)
	for i, b := range buffers {
		reqs[i] = b.AllocationRequirements()
		total += makeAlignUp(uint64(reqs[i].Size), uint64(reqs[i].Alignment))
		typeBits &= reqs[i].MemoryTypeBits
	}
	if typeBits == 0 {
		return nil, nil, fmt.Errorf("buffers share no memory type")
	}

	mem, err := device.Allocate(int(total), typeBits, props)
	if err != nil {
		return nil, nil, err
	}

	pool := PoolAllocator{Size: total}
	offsets := make([]uint64, len(buffers))
	for i, b := range buffers {
		alloc := pool.AllocateAligned(uint64(reqs[i].Size), uint64(reqs[i].Alignment))
		if alloc == nil {
			mem.Destroy()
			return nil, nil, fmt.Errorf("pool exhausted packing buffer %d", i)
		}
		if err := b.Bind(mem, alloc.Offset); err != nil {
			mem.Destroy()
			return nil, nil, err
		}
		offsets[i] = alloc.Offset
	}

	return mem, offsets, nil
}

func (f *FrameResourceSet) allocateCommandBuffers(ir *ImageResources) error {
	var err error

	ir.TransferCmd, err = f.ctx.TransferPool.AllocateBuffer(vk.CommandBufferLevelPrimary)
	if err != nil {
		return err
	}

	ir.TakeOwnershipCmd, err = f.ctx.GraphicsPool.AllocateBuffer(vk.CommandBufferLevelPrimary)
	if err != nil {
		return err
	}
	ir.RenderCmd, err = f.ctx.GraphicsPool.AllocateBuffer(vk.CommandBufferLevelPrimary)
	if err != nil {
		return err
	}

	ir.WorldDrawCmd, err = f.ctx.GraphicsPool.AllocateBuffer(vk.CommandBufferLevelSecondary)
	if err != nil {
		return err
	}
	ir.OverlayDrawCmd, err = f.ctx.GraphicsPool.AllocateBuffer(vk.CommandBufferLevelSecondary)
	if err != nil {
		return err
	}

	return nil
}

// RecordTransfer re-records the transfer-queue work for this image: copy
// both staged ranges into the device buffers, then release buffer
// ownership to the graphics family when the families differ.
func (ir *ImageResources) RecordTransfer(transferFamily, graphicsFamily uint32) error {
	cb := ir.TransferCmd
	if err := cb.Reset(); err != nil {
		return err
	}
	if err := cb.BeginOneTime(); err != nil {
		return err
	}

	for _, pair := range []*VertexBufferPair{&ir.World, &ir.Overlay} {
		if pair.stagedLen == 0 {
			continue
		}
		cb.CmdCopyBuffer(pair.Staging, pair.Device, pair.stagedLen)
	}

	if barriers := ir.releaseBarriers(transferFamily, graphicsFamily); len(barriers) > 0 {
		vk.CmdPipelineBarrier(cb.VK(),
			vk.PipelineStageFlags(vk.PipelineStageTransferBit),
			vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit),
			0, 0, nil, uint32(len(barriers)), barriers, 0, nil)
	}

	return cb.End()
}

// RecordTakeOwnership records the graphics-side barrier run before vertex
// input reads the device buffers: the ownership acquire when transfer and
// graphics live on different families, a plain memory barrier when they
// share one. Recorded once per surface build.
func (ir *ImageResources) RecordTakeOwnership(transferFamily, graphicsFamily uint32) error {
	cb := ir.TakeOwnershipCmd
	if err := cb.Reset(); err != nil {
		return err
	}
	if err := cb.Begin(); err != nil {
		return err
	}

	barriers, srcStage := ir.acquireBarriers(transferFamily, graphicsFamily)
	vk.CmdPipelineBarrier(cb.VK(),
		srcStage,
		vk.PipelineStageFlags(vk.PipelineStageVertexInputBit),
		0, 0, nil, uint32(len(barriers)), barriers, 0, nil)

	return cb.End()
}

// releaseBarriers returns the transfer-side ownership release for both
// device buffers, or nil when transfer and graphics share a family and
// no ownership transfer takes place.
func (ir *ImageResources) releaseBarriers(transferFamily, graphicsFamily uint32) []vk.BufferMemoryBarrier {
	if transferFamily == graphicsFamily {
		return nil
	}
	return ir.ownershipBarriers(transferFamily, graphicsFamily,
		vk.AccessFlags(vk.AccessTransferWriteBit), 0)
}

// acquireBarriers returns the barriers recorded into the take-ownership
// buffer, plus the source stage they wait on. With distinct families this
// is the acquire half matching releaseBarriers. With a shared family the
// copy and the draw run on one queue, but the ownership semaphore only
// orders the batches; it does not make the transfer writes visible to
// vertex fetch, so a plain memory barrier is still required.
func (ir *ImageResources) acquireBarriers(transferFamily, graphicsFamily uint32) ([]vk.BufferMemoryBarrier, vk.PipelineStageFlags) {
	if transferFamily != graphicsFamily {
		return ir.ownershipBarriers(transferFamily, graphicsFamily,
				0, vk.AccessFlags(vk.AccessVertexAttributeReadBit)),
			vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit)
	}
	return ir.ownershipBarriers(vk.QueueFamilyIgnored, vk.QueueFamilyIgnored,
			vk.AccessFlags(vk.AccessTransferWriteBit),
			vk.AccessFlags(vk.AccessVertexAttributeReadBit)),
		vk.PipelineStageFlags(vk.PipelineStageTransferBit)
}

// ownershipBarriers builds the queue-family transfer barriers for both
// device buffers. Release and acquire sides must name identical families
// and buffers; only the access masks differ.
func (ir *ImageResources) ownershipBarriers(srcFamily, dstFamily uint32, srcAccess, dstAccess vk.AccessFlags) []vk.BufferMemoryBarrier {
	barriers := make([]vk.BufferMemoryBarrier, 0, 2)
	for _, pair := range []*VertexBufferPair{&ir.World, &ir.Overlay} {
		barriers = append(barriers, vk.BufferMemoryBarrier{
			SType:               vk.StructureTypeBufferMemoryBarrier,
			SrcAccessMask:       srcAccess,
			DstAccessMask:       dstAccess,
			SrcQueueFamilyIndex: srcFamily,
			DstQueueFamilyIndex: dstFamily,
			Buffer:              pair.Device.VKBuffer,
			Offset:              0,
			Size:                vk.DeviceSize(vk.WholeSize),
		})
	}
	return barriers
}

// Destroy frees the per-image command buffers, buffers and the two shared
// memory blocks. The device must be idle.
func (f *FrameResourceSet) Destroy() {
	for _, ir := range f.images {
		if ir.TransferCmd != nil {
			f.ctx.TransferPool.FreeBuffer(ir.TransferCmd)
		}
		for _, cb := range []*CommandBuffer{ir.TakeOwnershipCmd, ir.RenderCmd, ir.WorldDrawCmd, ir.OverlayDrawCmd} {
			if cb != nil {
				f.ctx.GraphicsPool.FreeBuffer(cb)
			}
		}
		for _, pair := range []*VertexBufferPair{&ir.World, &ir.Overlay} {
			if pair.Staging != nil {
				pair.Staging.Destroy()
			}
			if pair.Device != nil {
				pair.Device.Destroy()
			}
		}
	}
	f.images = nil

	if f.hostMemory != nil {
		if f.hostMemory.IsMapped() {
			f.hostMemory.Unmap()
		}
		f.hostMemory.Destroy()
		f.hostMemory = nil
	}
	if f.deviceMemory != nil {
		f.deviceMemory.Destroy()
		f.deviceMemory = nil
	}
}
