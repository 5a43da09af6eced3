package minecrust

import (
	"fmt"
	"time"
)

// MaxFramesInFlight is the default number of frames the CPU may record
// ahead of GPU completion.
const MaxFramesInFlight = 5

// FrameSlot holds the pacing primitives for one in-flight frame. The
// fence starts signaled so the first pass through each slot does not
// block.
type FrameSlot struct {
	Fence          *Fence
	ImageAvailable *Semaphore
	RenderFinished *Semaphore
}

// SyncRegistry owns the fixed pool of synchronization objects: one
// FrameSlot per in-flight frame and one ownership-transferred semaphore
// per presentable image. The per-image semaphores are keyed by image
// index, not slot index, because a transfer targeting an image can still
// be outstanding after its frame slot has been reused.
type SyncRegistry struct {
	device *Device
	slots  []FrameSlot

	ownershipTransferred []*Semaphore
}

// NewSyncRegistry creates the slot pool for k frames in flight and the
// per-image semaphores for imageCount presentable images.
func NewSyncRegistry(device *Device, k, imageCount int) (*SyncRegistry, error) {
	if k <= 0 {
		return nil, fmt.Errorf("frames in flight must be positive, got %d", k)
	}

	r := &SyncRegistry{
		device: device,
		slots:  make([]FrameSlot, k),
	}

	for i := range r.slots {
		fence, err := device.CreateSignaledFence()
		if err != nil {
			return nil, fmt.Errorf("creating slot %d fence: %w", i, err)
		}
		imageAvailable, err := device.CreateSemaphore()
		if err != nil {
			return nil, fmt.Errorf("creating slot %d image-available semaphore: %w", i, err)
		}
		renderFinished, err := device.CreateSemaphore()
		if err != nil {
			return nil, fmt.Errorf("creating slot %d render-finished semaphore: %w", i, err)
		}
		r.slots[i] = FrameSlot{
			Fence:          fence,
			ImageAvailable: imageAvailable,
			RenderFinished: renderFinished,
		}
	}

	if err := r.SetImageCount(imageCount); err != nil {
		return nil, err
	}

	return r, nil
}

// SlotCount returns the number of in-flight frame slots.
func (r *SyncRegistry) SlotCount() int {
	return len(r.slots)
}

// slotIndex maps a monotonically increasing tick onto a slot.
func slotIndex(tick uint64, k int) int {
	return int(tick % uint64(k))
}

// Slot returns the frame slot for the given tick.
func (r *SyncRegistry) Slot(tick uint64) *FrameSlot {
	return &r.slots[slotIndex(tick, len(r.slots))]
}

// OwnershipTransferred returns the per-image semaphore signaling that the
// transfer queue has released the image's vertex buffers.
func (r *SyncRegistry) OwnershipTransferred(imageIndex uint32) *Semaphore {
	return r.ownershipTransferred[imageIndex]
}

// SetImageCount resizes the per-image semaphore pool after a surface
// rebuild. The device must be idle.
func (r *SyncRegistry) SetImageCount(imageCount int) error {
	if imageCount == len(r.ownershipTransferred) {
		return nil
	}

	for _, sem := range r.ownershipTransferred {
		sem.Destroy()
	}

	r.ownershipTransferred = make([]*Semaphore, imageCount)
	for i := range r.ownershipTransferred {
		sem, err := r.device.CreateSemaphore()
		if err != nil {
			return fmt.Errorf("creating image %d ownership semaphore: %w", i, err)
		}
		r.ownershipTransferred[i] = sem
	}
	return nil
}

// Drain waits on every slot fence so no submission still references the
// registry's primitives.
func (r *SyncRegistry) Drain() error {
	fences := make([]*Fence, len(r.slots))
	for i := range r.slots {
		fences[i] = r.slots[i].Fence
	}
	return r.device.WaitForFences(true, time.Duration(1<<62), fences...)
}

// Destroy drains all fences and releases every primitive.
func (r *SyncRegistry) Destroy() error {
	if err := r.Drain(); err != nil {
		return err
	}
	for i := range r.slots {
		r.slots[i].Fence.Destroy()
		r.slots[i].ImageAvailable.Destroy()
		r.slots[i].RenderFinished.Destroy()
	}
	for _, sem := range r.ownershipTransferred {
		sem.Destroy()
	}
	r.slots = nil
	r.ownershipTransferred = nil
	return nil
}
