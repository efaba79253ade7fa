// Package evtio defines ChunkStream, the byte-oriented contract an
// EventDecoder reads through, and MemStream, an in-memory reference
// implementation used by decoder and merger tests in place of a real
// archive file.
package evtio

// Tag identifies a decoded record's wire tag byte.
type Tag uint8

const (
	TagEndOfFile     Tag = 0x00
	TagEndOfChunk    Tag = 0x01
	TagAttributeList Tag = 0x04
)

// Position is an opaque ChunkStream cursor; callers only ever save and
// restore values obtained from GetPosition/GetPositionTimestamp.
type Position int64

// ChunkStream is the decoder's external contract: a sequence of chunks of
// framed event records, with compressed-integer field accessors,
// intra-chunk position save/restore, and chunk-boundary navigation.
type ChunkStream interface {
	ReadU8() (uint8, error)
	ReadU32V() (uint32, error)
	ReadU64V() (uint64, error)
	ReadI64V() (int64, error)
	ReadF32() (float32, error)
	ReadF64() (float64, error)
	ReadTimestamp() (uint64, error)

	// GuaranteeRead reports ErrIndexOutOfBounds unless n more bytes can be
	// read at the current position; it never moves to another chunk.
	GuaranteeRead(n int) error
	// GuaranteeCompressed checks that a varint's length byte is available;
	// the varint's value bytes are bounds-checked by the read itself.
	GuaranteeCompressed() error
	// GuaranteeRecord decodes and consumes the length-framed record's
	// length prefix, ensures that many bytes are available, and returns
	// the announced length.
	GuaranteeRecord() (uint32, error)

	GetPosition() Position
	SetPosition(Position)
	Skip(n int) error
	SkipCompressed() error

	GetPositionTimestamp() Position
	SetPositionTimestamp(Position)

	ReadSeekChunk(eventIndex uint64) error
	ReadGetNextChunk() error
	ReadGetPreviousChunk() error

	// GetNumberEvents returns the global event-index range [first, last]
	// of the chunk the stream is currently positioned in.
	GetNumberEvents() (first, last uint64)

	// RewriteTimestamp un-reads the timestamp most recently consumed by
	// ReadTimestamp, rewinding to GetPositionTimestamp().
	RewriteTimestamp(ts uint64)
}
