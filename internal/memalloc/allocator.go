package memalloc

import "evtrace/internal/errcode"

// ChunkSizeForBlock maps a block size to the chunk size ChunkAllocator uses
// to back it: smaller blocks get smaller chunks, so a lightly used size
// class does not commit a large arena for a handful of objects.
func ChunkSizeForBlock(blockSize uint32) (uint32, error) {
	switch {
	case blockSize == 0:
		return 0, errcode.ErrInvalidArgument
	case blockSize < 4:
		return 256, nil
	case blockSize < 16:
		return 1024, nil
	case blockSize <= 1024:
		return 4096, nil
	default:
		return 0, errcode.ErrInvalidArgument
	}
}

// ChunkAllocator serves fixed-size blocks of one size, backed by a growing
// set of MemoryChunk arenas. A chunk is created on demand when no existing
// chunk has a free block, and is released back to the runtime as soon as it
// empties out completely.
type ChunkAllocator struct {
	blockSize uint32
	tree      ChunkTree
	freeHead  *MemoryChunk // doubly-linked list of chunks with available > 0
	nextAddr  Addr
}

// NewChunkAllocator returns a ChunkAllocator for blocks of size blockSize.
func NewChunkAllocator(blockSize uint32) *ChunkAllocator {
	return &ChunkAllocator{blockSize: blockSize}
}

// Allocate returns a fresh block's address and payload slice, creating a new
// chunk first if every existing chunk is full.
func (a *ChunkAllocator) Allocate() (Addr, []byte, error) {
	if a.freeHead == nil {
		chunkSize, err := ChunkSizeForBlock(a.blockSize)
		if err != nil {
			return 0, nil, err
		}
		c, err := CreateChunk(a.nextAddr, chunkSize, a.blockSize)
		if err != nil {
			return 0, nil, err
		}
		a.nextAddr += Addr(chunkSize)
		a.tree.Insert(c)
		a.pushFree(c)
	}
	c := a.freeHead
	addr, block := c.Allocate()
	if c.available == 0 {
		a.popFree(c)
	}
	return addr, block, nil
}

// Deallocate returns the block at addr to its owning chunk, found via the
// splay tree. If the chunk becomes completely empty it is unlinked and
// dropped (letting the Go runtime reclaim its backing array).
func (a *ChunkAllocator) Deallocate(addr Addr) error {
	c := a.tree.Find(addr)
	if c == nil || c.IsLessThan(addr) || c.IsGreaterThan(addr) {
		return errcode.ErrIntegrityFault
	}
	wasFull := c.available == 0
	if err := c.Deallocate(addr); err != nil {
		return err
	}
	if wasFull {
		a.pushFree(c)
	}
	if c.available == c.capacity {
		a.popFree(c)
		a.tree.RemoveRoot() // c is root: Find() just splayed it there
	}
	return nil
}

// BlockAt returns the live payload slice for addr without altering the free
// list; used when decoding needs to write into an address it already holds.
func (a *ChunkAllocator) BlockAt(addr Addr) []byte {
	c := a.tree.Find(addr)
	return c.BlockAt(addr)
}

func (a *ChunkAllocator) pushFree(c *MemoryChunk) {
	c.flNext = a.freeHead
	c.flPrev = nil
	if a.freeHead != nil {
		a.freeHead.flPrev = c
	}
	a.freeHead = c
}

func (a *ChunkAllocator) popFree(c *MemoryChunk) {
	if c.flPrev != nil {
		c.flPrev.flNext = c.flNext
	} else {
		a.freeHead = c.flNext
	}
	if c.flNext != nil {
		c.flNext.flPrev = c.flPrev
	}
	c.flPrev, c.flNext = nil, nil
}
