package minecrust

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPair(capacity uint64) *VertexBufferPair {
	return &VertexBufferPair{
		Capacity: capacity,
		mapped:   make([]byte, capacity),
	}
}

func TestStageBytes(t *testing.T) {
	p := testPair(64)

	data := []byte{1, 2, 3, 4, 5}
	require.NoError(t, p.stageBytes("stage test", data, 5))

	assert.Equal(t, uint64(len(data)), p.StagedLen())
	assert.Equal(t, uint32(5), p.StagedCount())
	assert.Equal(t, data, p.mapped[:len(data)])
}

func TestStageBytesOverflow(t *testing.T) {
	p := testPair(8)

	err := p.stageBytes("stage test", make([]byte, 9), 9)
	require.Error(t, err)

	var precondition *PreconditionError
	require.ErrorAs(t, err, &precondition)
	assert.Equal(t, "stage test", precondition.Op)

	// A failed stage leaves nothing recorded.
	assert.Zero(t, p.StagedLen())
	assert.Zero(t, p.StagedCount())
}

func TestStageBytesAtCapacity(t *testing.T) {
	p := testPair(8)
	require.NoError(t, p.stageBytes("stage test", make([]byte, 8), 8))
	assert.Equal(t, uint64(8), p.StagedLen())
}

func TestImageResourcesStage(t *testing.T) {
	ir := &ImageResources{
		World:   *testPair(1024),
		Overlay: *testPair(1024),
	}

	world := []Vertex{{Pos: [3]float32{1, 2, 3}}, {Pos: [3]float32{4, 5, 6}}}
	overlay := []OverlayVertex{{Pos: [2]float32{10, 10}}}

	require.NoError(t, ir.Stage(world, overlay))

	// Staged length, copy length and draw count stay in lockstep.
	assert.Equal(t, uint64(len(world)*vertexSize), ir.World.StagedLen())
	assert.Equal(t, uint32(len(world)), ir.World.StagedCount())
	assert.Equal(t, uint64(len(overlay)*overlayVertexSize), ir.Overlay.StagedLen())
	assert.Equal(t, uint32(len(overlay)), ir.Overlay.StagedCount())
}

func TestImageResourcesStageOverflow(t *testing.T) {
	ir := &ImageResources{
		World:   *testPair(uint64(vertexSize)),
		Overlay: *testPair(1024),
	}

	world := []Vertex{{}, {}}
	err := ir.Stage(world, nil)

	var precondition *PreconditionError
	require.ErrorAs(t, err, &precondition)
}
