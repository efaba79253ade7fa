package memalloc

import "testing"

func TestProcessMemoryConcurrentModeIsolatesHandles(t *testing.T) {
	pm := NewProcessMemory(ModeConcurrent)
	h1 := pm.NewHandle()
	h2 := pm.NewHandle()
	if h1.alloc == h2.alloc {
		t.Errorf("ModeConcurrent handles share an allocator")
	}
}

func TestProcessMemorySerialModeSharesHandles(t *testing.T) {
	pm := NewProcessMemory(ModeSerial)
	h1 := pm.NewHandle()
	h2 := pm.NewHandle()
	if h1.alloc != h2.alloc {
		t.Errorf("ModeSerial handles do not share an allocator")
	}
}

func TestHandleAllocateDeallocate(t *testing.T) {
	pm := NewProcessMemory(ModeConcurrent)
	h := pm.NewHandle()
	blk, err := h.Allocate(12)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if err := h.Deallocate(blk); err != nil {
		t.Errorf("Deallocate: %v", err)
	}
}
