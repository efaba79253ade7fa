package memalloc

import "evtrace/internal/errcode"

// maxPooledBlock is the largest size SmallBlockAllocator routes through a
// ChunkAllocator bucket. Anything larger, or a zero-size request, falls
// through to the Go runtime allocator directly.
const maxPooledBlock = 64

// bucketGranularity is the rounding unit for bucket selection: requests are
// rounded up to the nearest multiple of 4 bytes before bucketing.
const bucketGranularity = 4

// Block is a handle to an allocated region: either chunk-pooled (bucket !=
// nil) or a plain Go allocation (bucket == nil, Deallocate is then a no-op
// and the memory is reclaimed by the garbage collector).
type Block struct {
	Addr   Addr
	Data   []byte
	bucket *ChunkAllocator
}

// SmallBlockAllocator routes allocation requests of 1..64 bytes to one of 16
// ChunkAllocator buckets by rounding the request up to a multiple of 4;
// requests outside that range bypass pooling entirely.
type SmallBlockAllocator struct {
	buckets [maxPooledBlock/bucketGranularity + 1]*ChunkAllocator // index 0 unused
}

// NewSmallBlockAllocator returns an allocator with no buckets created yet;
// they are created lazily on first use of a given size class.
func NewSmallBlockAllocator() *SmallBlockAllocator {
	return &SmallBlockAllocator{}
}

func bucketIndex(size uint32) uint32 {
	return (size + bucketGranularity - 1) / bucketGranularity
}

// Allocate returns a Block of at least size bytes.
func (s *SmallBlockAllocator) Allocate(size uint32) (Block, error) {
	if size == 0 || size > maxPooledBlock {
		return Block{Data: make([]byte, size)}, nil
	}
	idx := bucketIndex(size)
	b := s.buckets[idx]
	if b == nil {
		b = NewChunkAllocator(idx * bucketGranularity)
		s.buckets[idx] = b
	}
	addr, data, err := b.Allocate()
	if err != nil {
		return Block{}, err
	}
	return Block{Addr: addr, Data: data[:size], bucket: b}, nil
}

// Deallocate returns blk to its owning bucket, or is a no-op for
// system-allocated blocks.
func (s *SmallBlockAllocator) Deallocate(blk Block) error {
	if blk.bucket == nil {
		return nil
	}
	if err := blk.bucket.Deallocate(blk.Addr); err != nil {
		return errcode.ErrIntegrityFault
	}
	return nil
}
