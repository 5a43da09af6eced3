package minecrust

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// RenderError is a fatal error reported by the device during the frame loop.
// It carries the stage of the tick that failed and the underlying result code
// so callers can distinguish error classes without string parsing. The frame
// loop never retries a RenderError; the stale-surface conditions are absorbed
// before one is ever constructed.
type RenderError struct {
	Stage  string
	Result vk.Result
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render error at %s: %v (%d)", e.Stage, vk.Error(e.Result), e.Result)
}

func (e *RenderError) Unwrap() error {
	return vk.Error(e.Result)
}

// newRenderError wraps a non-success result, returning nil on success.
func newRenderError(stage string, res vk.Result) error {
	if res == vk.Success {
		return nil
	}
	return &RenderError{Stage: stage, Result: res}
}

// isSurfaceStale reports whether a result means the presentation surface no
// longer matches the swapchain and must be rebuilt. Both conditions are
// recovered locally and never escape DrawFrame.
func isSurfaceStale(res vk.Result) bool {
	return res == vk.ErrorOutOfDate || res == vk.Suboptimal
}

// PreconditionError signals a programmer error such as staging more bytes
// than a fixed-capacity buffer can hold. It is fatal and never retried.
type PreconditionError struct {
	Op     string
	Detail string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("precondition violated in %s: %s", e.Op, e.Detail)
}

// SurfaceUnsupportedError is returned when no acceptable surface format or
// capable physical device exists at startup.
type SurfaceUnsupportedError struct {
	Reason string
}

func (e *SurfaceUnsupportedError) Error() string {
	return "surface unsupported: " + e.Reason
}
