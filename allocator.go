package minecrust

import (
	"fmt"
)

// Allocation is a suballocation out of a PoolAllocator managed range.
type Allocation struct {
	Offset uint64
	Size   uint64
}

func (a *Allocation) String() string {
	return fmt.Sprintf("[%d %d]", a.Offset, a.Size)
}

// PoolAllocator hands out offsets within a fixed-size range using a
// first-fit search. It is used to pack several buffers into one
// DeviceMemory block so that one allocation and one map call serve all
// of them.
type PoolAllocator struct {
	Size   uint64
	Align  uint64
	allocs []*Allocation
}

func makeAlignUp(a uint64, align uint64) uint64 {
	m := a % align
	if m == 0 {
		return a
	}
	a = (a - m) + align
	return a
}

func (p *PoolAllocator) Free(fa *Allocation) {
	fi := -1
	for i, a := range p.allocs {
		if a == fa {
			fi = i
		}
	}
	if fi != -1 {
		p.allocs = append(p.allocs[:fi], p.allocs[fi+1:]...)
	}
}

// Allocate finds space for size bytes at the pool's default alignment.
// It returns nil when no gap is large enough.
func (p *PoolAllocator) Allocate(size uint64) *Allocation {
	align := p.Align
	if align == 0 {
		align = 1
	}
	return p.AllocateAligned(size, align)
}

// AllocateAligned finds space for size bytes at the given alignment.
func (p *PoolAllocator) AllocateAligned(size uint64, align uint64) *Allocation {
	if len(p.allocs) == 0 {
		if size <= p.Size {
			na := &Allocation{Offset: 0, Size: size}
			p.allocs = append(p.allocs, na)
			return na
		}
		return nil
	}

	// Is there room before the first allocation?
	if p.allocs[0].Offset >= size {
		na := &Allocation{Offset: 0, Size: size}
		p.allocs = append([]*Allocation{na}, p.allocs...)
		return na
	}

	// First fit between existing allocations.
	for i := 0; i+1 < len(p.allocs); i++ {
		c := p.allocs[i]
		n := p.allocs[i+1]

		l := makeAlignUp(c.Offset+c.Size, align)
		h := n.Offset

		if h >= l && h-l >= size {
			na := &Allocation{Offset: l, Size: size}
			p.allocs = append(p.allocs[:i+1], append([]*Allocation{na}, p.allocs[i+1:]...)...)
			return na
		}
	}

	// Tail of the range.
	last := p.allocs[len(p.allocs)-1]
	nl := makeAlignUp(last.Offset+last.Size, align)
	if nl <= p.Size && p.Size-nl >= size {
		na := &Allocation{Offset: nl, Size: size}
		p.allocs = append(p.allocs, na)
		return na
	}
	return nil
}

func (p *PoolAllocator) String() string {
	return fmt.Sprintf("%v", p.allocs)
}
