package minecrust

import (
	"fmt"
)

// stageBytes writes data into the pair's mapped staging memory and records
// the matching device-copy length and draw count. Capacity is fixed;
// exceeding it is a programmer error, never a silent truncation.
func (p *VertexBufferPair) stageBytes(op string, data []byte, count uint32) error {
	if uint64(len(data)) > p.Capacity {
		return &PreconditionError{
			Op:     op,
			Detail: fmt.Sprintf("payload %d bytes exceeds staging capacity %d", len(data), p.Capacity),
		}
	}

	copy(p.mapped[:len(data)], data)
	p.stagedLen = uint64(len(data))
	p.stagedCount = count
	return nil
}

// Stage writes a tick's world and overlay vertices into this image's
// staging buffers. After it returns, staged byte length, device copy
// length and draw vertex count agree for both buffers.
func (ir *ImageResources) Stage(world []Vertex, overlay []OverlayVertex) error {
	if err := ir.World.stageBytes("stage world vertices", VertexBytes(world), uint32(len(world))); err != nil {
		return err
	}
	return ir.Overlay.stageBytes("stage overlay vertices", OverlayVertexBytes(overlay), uint32(len(overlay)))
}
