package minecrust

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVertexLayout(t *testing.T) {
	assert.Equal(t, 20, vertexSize)
	assert.Equal(t, 28, overlayVertexSize)

	var v Vertex
	attrs := v.GetAttributeDescriptions()
	require.Len(t, attrs, 2)
	assert.Equal(t, uint32(0), attrs[0].Offset)
	assert.Equal(t, uint32(12), attrs[1].Offset)
}

func TestVertexBytes(t *testing.T) {
	assert.Nil(t, VertexBytes(nil))

	vs := []Vertex{
		{Pos: [3]float32{1, 2, 3}, UV: [2]float32{0, 1}},
		{Pos: [3]float32{4, 5, 6}, UV: [2]float32{1, 0}},
	}
	assert.Len(t, VertexBytes(vs), 2*vertexSize)

	ovs := []OverlayVertex{{Pos: [2]float32{1, 2}}}
	assert.Len(t, OverlayVertexBytes(ovs), overlayVertexSize)
}

func TestWorldVerticesOrdering(t *testing.T) {
	a := []Vertex{{Pos: [3]float32{1, 0, 0}}, {Pos: [3]float32{2, 0, 0}}, {Pos: [3]float32{3, 0, 0}}}
	b := []Vertex{{Pos: [3]float32{4, 0, 0}}, {Pos: [3]float32{5, 0, 0}}}
	hl := []Vertex{{Pos: [3]float32{9, 9, 9}}}

	payload := &FramePayload{
		Groups:    map[MaterialID][]Vertex{7: b, 2: a},
		Highlight: hl,
	}

	got := payload.WorldVertices()
	require.Len(t, got, len(a)+len(b)+len(hl))

	// Materials ascending, highlight last.
	assert.Equal(t, a, got[:3])
	assert.Equal(t, b, got[3:5])
	assert.Equal(t, hl, got[5:])

	// Map iteration order must not leak into the draw order.
	for i := 0; i < 50; i++ {
		assert.Equal(t, got, payload.WorldVertices())
	}
}

func TestWorldVerticesEmpty(t *testing.T) {
	payload := &FramePayload{}
	assert.Empty(t, payload.WorldVertices())
}
