package minecrust

import (
	"testing"
)

func TestAlign(t *testing.T) {
	if makeAlignUp(12, 3) != 12 {
		t.Fail()
	}

	if makeAlignUp(10, 3) != 12 {
		t.Fail()
	}

}

func TestAllocator(t *testing.T) {

	a := PoolAllocator{Size: 1024, Align: 1}

	ra := a.Allocate(2048)
	if ra != nil {
		t.Error("Failed first allocation")
	}

	ra = a.Allocate(512)
	fa := ra
	if ra == nil {
		t.Error("Failed 2nd allocation")
	}

	ra = a.Allocate(768)
	if ra != nil {
		t.Error("Failed 3rd allocation")
	}

	ra = a.Allocate(500)
	k := ra
	if ra == nil {
		t.Error("Failed 4th allocation")
	}

	ra = a.Allocate(50)
	if ra != nil {
		t.Error("Failed 5th allocation")
	}

	ra = a.Allocate(5)
	if ra == nil {
		t.Error("Failed 6th allocation")
	}

	ra = a.Allocate(20)
	if ra != nil {
		t.Error("Failed 7th allocation")
	}

	a.Free(k)
	ra = a.Allocate(500)
	if ra == nil {
		t.Error("Failed 8th allocation")
	}

	a.Free(fa)
	ra = a.Allocate(20)
	if ra == nil {
		t.Error("Failed 9th allocation")
	}

	ra = a.Allocate(40)
	if ra == nil {
		t.Error("Failed 10th allocation")
	}

	ra = a.Allocate(12)
	if ra == nil {
		t.Error("Failed 11th allocation")
	}
	ra = a.Allocate(500)
	if ra != nil {
		t.Error("Failed 12th allocation")
	}
	ra = a.Allocate(5)
	if ra == nil {
		t.Error("Failed 13th allocation")
	}
}

func TestAllocatorAlignment(t *testing.T) {
	a := PoolAllocator{Size: 1024, Align: 256}

	first := a.Allocate(10)
	if first == nil || first.Offset != 0 {
		t.Fatalf("expected first allocation at 0, got %v", first)
	}

	second := a.Allocate(10)
	if second == nil || second.Offset != 256 {
		t.Fatalf("expected second allocation at 256, got %v", second)
	}

	// an explicit alignment can reuse the gap left between the first two
	third := a.AllocateAligned(10, 64)
	if third == nil || third.Offset != 64 {
		t.Fatalf("expected third allocation at 64, got %v", third)
	}
}
