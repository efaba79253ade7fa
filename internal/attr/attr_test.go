package attr

import (
	"testing"

	"evtrace/internal/memalloc"
)

func newHandle() *memalloc.Handle {
	return memalloc.NewProcessMemory(memalloc.ModeConcurrent).NewHandle()
}

func TestListAddLookupOrder(t *testing.T) {
	l := NewList(newHandle())
	if err := l.Add(7, NewUint32(42)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := l.Add(3, NewInt8(-1)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if l.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", l.Len())
	}

	v, ok := l.Lookup(7)
	if !ok || v.Uint() != 42 {
		t.Errorf("Lookup(7) = (%v, %v), want (42, true)", v, ok)
	}

	var ids []uint32
	l.All(func(id uint32, v Value) bool {
		ids = append(ids, id)
		return true
	})
	if len(ids) != 2 || ids[0] != 7 || ids[1] != 3 {
		t.Errorf("All() order = %v, want [7 3]", ids)
	}
}

func TestListRemoveAllClearsAndReleasesBlocks(t *testing.T) {
	l := NewList(newHandle())
	l.Add(1, NewUint8(1))
	l.Add(2, NewUint8(2))
	l.RemoveAll()
	if l.Len() != 0 {
		t.Errorf("Len() after RemoveAll = %d, want 0", l.Len())
	}
	if _, ok := l.Lookup(1); ok {
		t.Errorf("Lookup(1) after RemoveAll found a value")
	}
}

func TestValueFloatRoundTrip(t *testing.T) {
	l := NewList(newHandle())
	l.Add(1, NewFloat64(3.25))
	v, ok := l.Lookup(1)
	if !ok || v.Float64() != 3.25 {
		t.Errorf("Lookup(1) = (%v, %v), want (3.25, true)", v, ok)
	}
}

func TestValueReferenceKind(t *testing.T) {
	l := NewList(newHandle())
	l.Add(1, NewRef(KindRegion, 99))
	v, _ := l.Lookup(1)
	if !v.Kind.IsReference() {
		t.Errorf("KindRegion.IsReference() = false, want true")
	}
	if v.RefID() != 99 {
		t.Errorf("RefID() = %d, want 99", v.RefID())
	}
}
