/*
Package minecrust implements the frame-rendering backend of a voxel-world
viewer on top of Vulkan. It turns a per-frame snapshot of world geometry and
camera state into presented pixels, tolerating window resizes and transient
surface invalidation.

The package is organized the way the underlying API is: thin wrappers around
the instance, physical and logical device, queues, swapchain, buffers and
synchronization primitives, and on top of those a Renderer which owns the
swapchain-sized state and drives the per-tick submission sequence.

Each tick the Renderer waits on the fence of the current frame slot (the only
host-side blocking point, bounding the CPU to FramesInFlight frames ahead of
the GPU), acquires a presentable image, writes the frame payload into that
image's staging buffers, submits the staging copy on the transfer queue, hands
buffer ownership to the graphics queue family through a release/acquire
barrier pair ordered by a per-image semaphore, submits the draw, and presents.
A stale or suboptimal surface is recovered by rebuilding the swapchain and
everything sized to it; all other device errors are fatal and surface as a
*RenderError.
*/
package minecrust
