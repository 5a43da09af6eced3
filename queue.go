package minecrust

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

type Queue struct {
	Device      *Device
	QueueFamily *QueueFamily
	VKQueue     vk.Queue
}

// SubmitOptions describes a single queue submission: the command buffers
// to run, the semaphores (and pipeline stages) to wait on before they run,
// the semaphores to signal afterwards, and an optional fence.
type SubmitOptions struct {
	CommandBuffers   []*CommandBuffer
	WaitSemaphores   []*Semaphore
	WaitStages       []vk.PipelineStageFlags
	SignalSemaphores []*Semaphore
	Fence            *Fence
}

func (q *Queue) WaitIdle() error {
	return vk.Error(vk.QueueWaitIdle(q.VKQueue))
}

// Submit submits command buffers with full semaphore and fence control.
// WaitStages must be the same length as WaitSemaphores.
func (q *Queue) Submit(opts *SubmitOptions) error {
	if len(opts.WaitSemaphores) != len(opts.WaitStages) {
		return fmt.Errorf("submit: %d wait semaphores but %d wait stages", len(opts.WaitSemaphores), len(opts.WaitStages))
	}

	b := make([]vk.CommandBuffer, len(opts.CommandBuffers))
	for i := range opts.CommandBuffers {
		b[i] = opts.CommandBuffers[i].VKCommandBuffer
	}

	waits := make([]vk.Semaphore, len(opts.WaitSemaphores))
	for i := range opts.WaitSemaphores {
		waits[i] = opts.WaitSemaphores[i].VKSemaphore
	}

	signals := make([]vk.Semaphore, len(opts.SignalSemaphores))
	for i := range opts.SignalSemaphores {
		signals[i] = opts.SignalSemaphores[i].VKSemaphore
	}

	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		CommandBufferCount:   uint32(len(b)),
		PCommandBuffers:      b,
		WaitSemaphoreCount:   uint32(len(waits)),
		PWaitSemaphores:      waits,
		PWaitDstStageMask:    opts.WaitStages,
		SignalSemaphoreCount: uint32(len(signals)),
		PSignalSemaphores:    signals,
	}

	var fence vk.Fence
	if opts.Fence != nil {
		fence = opts.Fence.VKFence
	}

	return vk.Error(vk.QueueSubmit(q.VKQueue, 1, []vk.SubmitInfo{submitInfo}, fence))
}

func (q *Queue) SubmitWaitIdle(buffers ...*CommandBuffer) error {
	err := q.Submit(&SubmitOptions{CommandBuffers: buffers})
	if err != nil {
		return err
	}

	return q.WaitIdle()
}

func (q *Queue) SubmitWithFence(fence *Fence, buffers ...*CommandBuffer) error {
	return q.Submit(&SubmitOptions{CommandBuffers: buffers, Fence: fence})
}

func (q *Queue) String() string {
	return fmt.Sprintf("{Device: %s QueueFamily: %s}", q.Device.String(), q.QueueFamily.String())
}
