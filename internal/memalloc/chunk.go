// Package memalloc implements the fixed-block small-object allocator used by
// attribute lists and decoder-internal objects: MemoryChunk (an arena of
// equal-size blocks with an intra-chunk free list), ChunkTree (a splay-tree
// index over chunks for address lookup), ChunkAllocator (one fixed block
// size, many chunks), SmallBlockAllocator (routes by size bucket), and
// ProcessMemory (the per-caller allocator registry).
//
// Rather than real process addresses (which Go cannot compare or do
// arithmetic on without unsafe), each chunk is assigned a contiguous range
// in a logical arena address space on creation. Splay-tree ordering and the
// free/full transitions behave identically to a pointer-based
// implementation; only the representation of "address" changed.
package memalloc

import "evtrace/internal/errcode"

// Addr is a logical arena address. It has no relation to real memory
// addresses; it only needs to support the ordering the splay tree requires.
type Addr uint64

// chunkAlloc is the hook used to obtain backing storage for a chunk's
// payload. Tests may replace it to simulate allocation failure.
var chunkAlloc = func(n int) ([]byte, error) {
	return make([]byte, n), nil
}

// MemoryChunk manages up to 256 fixed-size blocks inside one contiguous
// logical region, with O(1) allocate/deallocate via an index-based
// intra-chunk free list: each free block's first byte stores the index of
// the next free block.
type MemoryChunk struct {
	base      Addr
	blockSize uint32
	chunkSize uint32
	capacity  uint16
	available uint16
	firstFree uint16 // index of first free block; meaningful only if available > 0
	payload   []byte // capacity*blockSize bytes

	// Free-list links (ChunkAllocator's doubly-linked list of chunks with
	// at least one free block).
	flPrev, flNext *MemoryChunk

	// Splay-tree links (ChunkTree).
	left, right *MemoryChunk
}

// Capacity returns the number of blocks of size blockSize that fit in a
// chunk of chunkSize bytes.
func Capacity(chunkSize, blockSize uint32) uint16 {
	if blockSize == 0 {
		return 0
	}
	return uint16(chunkSize / blockSize)
}

// CreateChunk allocates a new chunk's backing storage and initializes its
// free list to [1, 2, ..., capacity-1]; the last block's link byte is left
// zero and is never consulted. Fails with errcode.ErrMemoryExhausted.
func CreateChunk(base Addr, chunkSize, blockSize uint32) (*MemoryChunk, error) {
	capacity := Capacity(chunkSize, blockSize)
	payload, err := chunkAlloc(int(capacity) * int(blockSize))
	if err != nil {
		return nil, errcode.ErrMemoryExhausted
	}
	for i := uint16(0); i+1 < capacity; i++ {
		payload[int(i)*int(blockSize)] = byte(i + 1)
	}
	return &MemoryChunk{
		base:      base,
		blockSize: blockSize,
		chunkSize: chunkSize,
		capacity:  capacity,
		available: capacity,
		firstFree: 0,
		payload:   payload,
	}, nil
}

// AvailableBlocks reports the number of free blocks in the chunk.
func (c *MemoryChunk) AvailableBlocks() uint16 { return c.available }

// Capacity reports the chunk's total block count.
func (c *MemoryChunk) Capacity() uint16 { return c.capacity }

// Base returns the chunk's starting logical address.
func (c *MemoryChunk) Base() Addr { return c.base }

// IsLessThan reports whether this chunk compares less than addr: true when
// addr lies strictly above the chunk's end.
func (c *MemoryChunk) IsLessThan(addr Addr) bool {
	return addr >= c.base+Addr(c.chunkSize)
}

// IsGreaterThan reports whether this chunk compares greater than addr: true
// when addr lies strictly below the chunk's start.
func (c *MemoryChunk) IsGreaterThan(addr Addr) bool {
	return addr < c.base
}

// Allocate removes and returns the head of the chunk's free list.
// Precondition: AvailableBlocks() > 0.
func (c *MemoryChunk) Allocate() (Addr, []byte) {
	off := int(c.firstFree) * int(c.blockSize)
	block := c.payload[off : off+int(c.blockSize)]
	c.firstFree = uint16(block[0])
	c.available--
	return c.base + Addr(off), block
}

// Deallocate returns a block at addr to the free list.
// Precondition: addr was previously returned by Allocate on this chunk and
// has not already been deallocated.
func (c *MemoryChunk) Deallocate(addr Addr) error {
	off := int(addr - c.base)
	if off < 0 || off%int(c.blockSize) != 0 || off >= int(c.capacity)*int(c.blockSize) {
		return errcode.ErrIntegrityFault
	}
	idx := uint16(off / int(c.blockSize))
	c.payload[off] = byte(c.firstFree)
	c.firstFree = idx
	c.available++
	return nil
}

// BlockAt returns the block payload for addr, e.g. for use as AttributeList
// node storage. It does not check liveness; callers must not touch a block
// that has already been returned to the free list.
func (c *MemoryChunk) BlockAt(addr Addr) []byte {
	off := int(addr - c.base)
	return c.payload[off : off+int(c.blockSize)]
}
