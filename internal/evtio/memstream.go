package evtio

import (
	"encoding/binary"
	"math"

	"evtrace/internal/errcode"
	"evtrace/internal/varint"
)

// Chunk is one pre-assembled chunk of raw framed record bytes, paired with
// the global event-index range it covers.
type Chunk struct {
	Data                  []byte
	FirstEvent, LastEvent uint64
}

// MemStream is a flattened, single-buffer ChunkStream over a slice of
// Chunks, standing in for a real archive file in tests. It does not model
// records spanning a chunk boundary transparently; real files never split a
// record across chunks either, so GuaranteeRead only needs to fail cleanly
// at true end of stream.
type MemStream struct {
	data     []byte
	bounds   []chunkBounds
	curChunk int
	pos      int
	tsPos    int
}

type chunkBounds struct {
	start, end            int
	firstEvent, lastEvent uint64
}

// NewMemStream concatenates chunks into one buffer and indexes their
// boundaries.
func NewMemStream(chunks []Chunk) *MemStream {
	s := &MemStream{}
	for _, c := range chunks {
		start := len(s.data)
		s.data = append(s.data, c.Data...)
		s.bounds = append(s.bounds, chunkBounds{
			start: start, end: len(s.data),
			firstEvent: c.FirstEvent, lastEvent: c.LastEvent,
		})
	}
	return s
}

func (s *MemStream) readByte() (byte, error) {
	if s.pos >= len(s.data) {
		return 0, errcode.ErrIndexOutOfBounds
	}
	b := s.data[s.pos]
	s.pos++
	return b, nil
}

// byteReaderAdapter satisfies io.ByteReader over MemStream's shared cursor,
// for use by the varint package.
type byteReaderAdapter struct{ s *MemStream }

func (a byteReaderAdapter) ReadByte() (byte, error) { return a.s.readByte() }

func (s *MemStream) ReadU8() (uint8, error) {
	b, err := s.readByte()
	return b, err
}

func (s *MemStream) ReadU32V() (uint32, error) {
	v, err := varint.ReadUint(byteReaderAdapter{s}, 4)
	return uint32(v), err
}

func (s *MemStream) ReadU64V() (uint64, error) {
	return varint.ReadUint(byteReaderAdapter{s}, 8)
}

func (s *MemStream) ReadI64V() (int64, error) {
	return varint.ReadInt(byteReaderAdapter{s}, 8)
}

func (s *MemStream) ReadF32() (float32, error) {
	if err := s.GuaranteeRead(4); err != nil {
		return 0, err
	}
	bits := binary.BigEndian.Uint32(s.data[s.pos : s.pos+4])
	s.pos += 4
	return math.Float32frombits(bits), nil
}

func (s *MemStream) ReadF64() (float64, error) {
	if err := s.GuaranteeRead(8); err != nil {
		return 0, err
	}
	bits := binary.BigEndian.Uint64(s.data[s.pos : s.pos+8])
	s.pos += 8
	return math.Float64frombits(bits), nil
}

func (s *MemStream) ReadTimestamp() (uint64, error) {
	if err := s.GuaranteeRead(8); err != nil {
		return 0, err
	}
	s.tsPos = s.pos
	ts := binary.BigEndian.Uint64(s.data[s.pos : s.pos+8])
	s.pos += 8
	return ts, nil
}

func (s *MemStream) GuaranteeRead(n int) error {
	if s.pos+n > len(s.data) {
		return errcode.ErrIndexOutOfBounds
	}
	return nil
}

func (s *MemStream) GuaranteeCompressed() error {
	return s.GuaranteeRead(1)
}

func (s *MemStream) GuaranteeRecord() (uint32, error) {
	length, err := s.ReadU32V()
	if err != nil {
		return 0, err
	}
	if err := s.GuaranteeRead(int(length)); err != nil {
		return 0, err
	}
	return length, nil
}

func (s *MemStream) GetPosition() Position { return Position(s.pos) }
func (s *MemStream) SetPosition(p Position) { s.pos = int(p) }

func (s *MemStream) Skip(n int) error {
	if err := s.GuaranteeRead(n); err != nil {
		return err
	}
	s.pos += n
	return nil
}

func (s *MemStream) SkipCompressed() error {
	_, err := s.ReadU64V()
	return err
}

func (s *MemStream) GetPositionTimestamp() Position { return Position(s.tsPos) }
func (s *MemStream) SetPositionTimestamp(p Position) { s.tsPos = int(p) }

func (s *MemStream) ReadSeekChunk(eventIndex uint64) error {
	for i, b := range s.bounds {
		if eventIndex >= b.firstEvent && eventIndex <= b.lastEvent {
			s.curChunk = i
			s.pos = b.start
			s.tsPos = b.start
			return nil
		}
	}
	return errcode.ErrIndexOutOfBounds
}

func (s *MemStream) ReadGetNextChunk() error {
	if s.curChunk+1 >= len(s.bounds) {
		return errcode.ErrIndexOutOfBounds
	}
	s.curChunk++
	s.pos = s.bounds[s.curChunk].start
	return nil
}

func (s *MemStream) ReadGetPreviousChunk() error {
	if s.curChunk == 0 {
		return errcode.ErrIndexOutOfBounds
	}
	s.curChunk--
	s.pos = s.bounds[s.curChunk].start
	return nil
}

func (s *MemStream) GetNumberEvents() (first, last uint64) {
	if s.curChunk >= len(s.bounds) {
		return 0, 0
	}
	b := s.bounds[s.curChunk]
	return b.firstEvent, b.lastEvent
}

func (s *MemStream) RewriteTimestamp(ts uint64) {
	s.pos = s.tsPos
}
