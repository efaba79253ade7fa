package memalloc

import "sync"

// Mode selects how ProcessMemory shares SmallBlockAllocator instances across
// handles. The upstream trace reader keeps one allocator per OS thread under
// OpenMP and a single one when built serially; Go has no equivalent of
// thread-local storage a library can hook into, so that distinction is
// exposed explicitly instead of being inferred from the runtime.
type Mode int

const (
	// ModeConcurrent gives every Handle its own SmallBlockAllocator, safe for
	// concurrent use from goroutines that never share a Handle.
	ModeConcurrent Mode = iota
	// ModeSerial shares one SmallBlockAllocator across every Handle obtained
	// from the same ProcessMemory, matching the non-OpenMP build.
	ModeSerial
)

// ProcessMemory is the top-level allocator registry: the equivalent of the
// reference reader's global process-memory singleton, rendered as an
// explicit object so callers choose their own lifetime and concurrency mode
// instead of relying on a hidden global.
type ProcessMemory struct {
	mu      sync.Mutex
	mode    Mode
	shared  *SmallBlockAllocator // used only in ModeSerial
	handles []*Handle
}

// NewProcessMemory returns a ProcessMemory in the given mode.
func NewProcessMemory(mode Mode) *ProcessMemory {
	return &ProcessMemory{mode: mode}
}

// Handle binds a caller (a goroutine decoding one location, or the single
// decoding path in serial mode) to a SmallBlockAllocator.
type Handle struct {
	alloc *SmallBlockAllocator
}

// NewHandle returns a handle for a new caller. In ModeConcurrent each handle
// gets an independent allocator; in ModeSerial all handles from the same
// ProcessMemory share one.
func (pm *ProcessMemory) NewHandle() *Handle {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	var alloc *SmallBlockAllocator
	switch pm.mode {
	case ModeSerial:
		if pm.shared == nil {
			pm.shared = NewSmallBlockAllocator()
		}
		alloc = pm.shared
	default:
		alloc = NewSmallBlockAllocator()
	}
	h := &Handle{alloc: alloc}
	pm.handles = append(pm.handles, h)
	return h
}

// Finalize drops the registry's references to every handle's allocator. It
// does not, and cannot, forcibly invalidate outstanding Blocks; callers must
// stop using handles obtained before Finalize.
func (pm *ProcessMemory) Finalize() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.handles = nil
	pm.shared = nil
}

// Allocate requests a block of size bytes from the handle's allocator.
func (h *Handle) Allocate(size uint32) (Block, error) {
	return h.alloc.Allocate(size)
}

// Deallocate returns blk to the handle's allocator.
func (h *Handle) Deallocate(blk Block) error {
	return h.alloc.Deallocate(blk)
}
