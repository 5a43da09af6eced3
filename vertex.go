package minecrust

import (
	"sort"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
	lin "github.com/xlab/linmath"
)

// MaterialID keys vertex groups within a frame payload. Vertices sharing a
// material are drawn contiguously.
type MaterialID uint32

// Vertex is the fixed layout for world geometry: position plus texture
// coordinate.
type Vertex struct {
	Pos [3]float32
	UV  [2]float32
}

var vertexSize = int(unsafe.Sizeof(Vertex{}))

func (v *Vertex) GetBindingDescription() vk.VertexInputBindingDescription {
	return vk.VertexInputBindingDescription{
		Binding:   0,
		Stride:    uint32(vertexSize),
		InputRate: vk.VertexInputRateVertex,
	}
}

func (v *Vertex) GetAttributeDescriptions() []vk.VertexInputAttributeDescription {
	return []vk.VertexInputAttributeDescription{
		{
			Binding:  0,
			Location: 0,
			Format:   vk.FormatR32g32b32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Pos)),
		},
		{
			Binding:  0,
			Location: 1,
			Format:   vk.FormatR32g32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.UV)),
		},
	}
}

// VertexBytes reinterprets a vertex slice as raw bytes for staging writes.
func VertexBytes(vs []Vertex) []byte {
	if len(vs) == 0 {
		return nil
	}
	return ToBytes(unsafe.Pointer(&vs[0]), len(vs)*vertexSize)
}

// OverlayVertex is the layout for screen-space text quads: pixel position,
// glyph atlas coordinate and color.
type OverlayVertex struct {
	Pos   [2]float32
	UV    [2]float32
	Color [3]float32
}

var overlayVertexSize = int(unsafe.Sizeof(OverlayVertex{}))

func (v *OverlayVertex) GetBindingDescription() vk.VertexInputBindingDescription {
	return vk.VertexInputBindingDescription{
		Binding:   0,
		Stride:    uint32(overlayVertexSize),
		InputRate: vk.VertexInputRateVertex,
	}
}

func (v *OverlayVertex) GetAttributeDescriptions() []vk.VertexInputAttributeDescription {
	return []vk.VertexInputAttributeDescription{
		{
			Binding:  0,
			Location: 0,
			Format:   vk.FormatR32g32Sfloat,
			Offset:   uint32(unsafe.Offsetof(OverlayVertex{}.Pos)),
		},
		{
			Binding:  0,
			Location: 1,
			Format:   vk.FormatR32g32Sfloat,
			Offset:   uint32(unsafe.Offsetof(OverlayVertex{}.UV)),
		},
		{
			Binding:  0,
			Location: 2,
			Format:   vk.FormatR32g32b32Sfloat,
			Offset:   uint32(unsafe.Offsetof(OverlayVertex{}.Color)),
		},
	}
}

// OverlayVertexBytes reinterprets an overlay vertex slice as raw bytes.
func OverlayVertexBytes(vs []OverlayVertex) []byte {
	if len(vs) == 0 {
		return nil
	}
	return ToBytes(unsafe.Pointer(&vs[0]), len(vs)*overlayVertexSize)
}

// WorldState carries the camera matrices the caller recomputes before each
// frame. ProjView is pushed to the world pipeline as-is.
type WorldState struct {
	View     lin.Mat4x4
	ProjView lin.Mat4x4
}

// FramePayload is the per-tick snapshot handed to DrawFrame. It is
// consumed once and not retained.
type FramePayload struct {
	// Groups maps a material to the world vertices drawn with it.
	Groups map[MaterialID][]Vertex

	// Highlight holds selection-highlight vertices appended after the
	// grouped geometry.
	Highlight []Vertex

	// FPS and Status feed the text overlay.
	FPS    float64
	Status string
}

// WorldVertices flattens the grouped geometry into one draw order:
// materials ascending, then the highlight vertices. The order is
// deterministic so the staged bytes always match the draw count.
func (p *FramePayload) WorldVertices() []Vertex {
	keys := make([]MaterialID, 0, len(p.Groups))
	for k := range p.Groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	n := len(p.Highlight)
	for _, k := range keys {
		n += len(p.Groups[k])
	}

	out := make([]Vertex, 0, n)
	for _, k := range keys {
		out = append(out, p.Groups[k]...)
	}
	out = append(out, p.Highlight...)
	return out
}
