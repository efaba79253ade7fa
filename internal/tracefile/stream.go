// Package tracefile implements the concrete file-backed ChunkStream and
// Context: one or more chunk files per location directory, each prefixed
// by a format.Header, read through mmap for sealed chunks and stdio for
// the still-growing active chunk, with optional zstd-seekable compression
// for sealed chunks.
package tracefile

import (
	"encoding/binary"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"evtrace/internal/errcode"
	"evtrace/internal/evtio"
	"evtrace/internal/format"
	"evtrace/internal/varint"
)

const chunkVersion = 1

// chunkHeaderSize is the format.Header plus two trailing u64 fields this
// format adds: the chunk's genuine event count (for first/last event
// numbering) and its uncompressed payload byte length (so a sealed,
// zstd-seekable chunk's bounds are known without fully decompressing it).
const chunkHeaderSize = format.HeaderSize + 8 + 8

// chunkInfo describes one discovered chunk file's static metadata.
type chunkInfo struct {
	path                  string
	firstEvent, lastEvent uint64
	eventCount            uint64
	payloadSize           int64
	compressed            bool
	active                bool
}

// FileChunkStream is the concrete evtio.ChunkStream over a location
// directory's chunk files.
type FileChunkStream struct {
	dir    string
	chunks []chunkInfo

	curChunk int
	cursor   chunkCursor
	pos      int64
	tsPos    int64
}

// OpenFileChunkStream discovers dir's evt.<n>.log chunk files, reads each
// one's header metadata, and positions the stream at the start of the
// first chunk's event area.
func OpenFileChunkStream(dir string) (*FileChunkStream, error) {
	chunks, err := discoverChunks(dir)
	if err != nil {
		return nil, err
	}
	s := &FileChunkStream{dir: dir, chunks: chunks}
	if err := s.openChunk(0); err != nil {
		return nil, err
	}
	return s, nil
}

// chunkGlob matches this directory's chunk files, same shape as the glob
// patterns an archive watcher matches directory contents against.
const chunkGlob = "evt.*.log"

func discoverChunks(dir string) ([]chunkInfo, error) {
	matches, err := doublestar.FilepathGlob(filepath.Join(dir, chunkGlob))
	if err != nil {
		return nil, err
	}
	var names []string
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		names = append(names, filepath.Base(m))
	}
	if len(names) == 0 {
		return nil, errNoChunks
	}
	sort.Slice(names, func(i, j int) bool {
		return chunkIndexOf(names[i]) < chunkIndexOf(names[j])
	})

	chunks := make([]chunkInfo, 0, len(names))
	var running uint64
	for i, name := range names {
		path := filepath.Join(dir, name)
		hdr, err := readChunkHeader(path)
		if err != nil {
			return nil, err
		}
		h, err := format.DecodeAndValidate(hdr[:format.HeaderSize], format.TypeEventChunk, chunkVersion)
		if err != nil {
			return nil, err
		}
		eventCount := binary.LittleEndian.Uint64(hdr[format.HeaderSize : format.HeaderSize+8])
		payloadSize := int64(binary.LittleEndian.Uint64(hdr[format.HeaderSize+8 : format.HeaderSize+16]))

		first := running
		last := first
		if eventCount > 0 {
			last = first + eventCount - 1
		}
		running += eventCount

		chunks = append(chunks, chunkInfo{
			path:        path,
			firstEvent:  first,
			lastEvent:   last,
			eventCount:  eventCount,
			payloadSize: payloadSize,
			compressed:  h.Flags&format.FlagCompressed != 0,
			active:      i == len(names)-1,
		})
	}
	return chunks, nil
}

func readChunkHeader(path string) ([chunkHeaderSize]byte, error) {
	var hdr [chunkHeaderSize]byte
	f, err := os.Open(path)
	if err != nil {
		return hdr, err
	}
	defer f.Close()
	_, err = io.ReadFull(f, hdr[:])
	return hdr, err
}

func chunkIndexOf(name string) int {
	trimmed := strings.TrimSuffix(strings.TrimPrefix(name, "evt."), ".log")
	n, _ := strconv.Atoi(trimmed)
	return n
}

func (s *FileChunkStream) cur() chunkInfo { return s.chunks[s.curChunk] }

func (s *FileChunkStream) openChunk(i int) error {
	if s.cursor != nil {
		s.cursor.Close()
		s.cursor = nil
	}
	info := s.chunks[i]
	var cur chunkCursor
	var err error
	switch {
	case info.compressed:
		cur, err = openSeekableCursor(info.path, chunkHeaderSize)
	case info.active:
		cur, err = openStdioCursor(info.path)
	default:
		cur, err = openMmapCursor(info.path)
	}
	if err != nil {
		return err
	}
	s.cursor = cur
	s.curChunk = i
	s.pos = int64(chunkHeaderSize)
	s.tsPos = s.pos
	return nil
}

// GuaranteeRead implements evtio.ChunkStream.
func (s *FileChunkStream) GuaranteeRead(n int) error {
	end := int64(chunkHeaderSize) + s.cur().payloadSize
	if s.pos+int64(n) > end {
		return errcode.ErrIndexOutOfBounds
	}
	return nil
}

// GuaranteeCompressed implements evtio.ChunkStream.
func (s *FileChunkStream) GuaranteeCompressed() error { return s.GuaranteeRead(1) }

// GuaranteeRecord implements evtio.ChunkStream.
func (s *FileChunkStream) GuaranteeRecord() (uint32, error) {
	length, err := s.ReadU32V()
	if err != nil {
		return 0, err
	}
	if err := s.GuaranteeRead(int(length)); err != nil {
		return 0, err
	}
	return length, nil
}

func (s *FileChunkStream) readByte() (byte, error) {
	if err := s.GuaranteeRead(1); err != nil {
		return 0, err
	}
	var b [1]byte
	if _, err := s.cursor.ReadAt(b[:], s.pos); err != nil {
		return 0, errcode.ErrIndexOutOfBounds
	}
	s.pos++
	return b[0], nil
}

type byteReaderAdapter struct{ s *FileChunkStream }

func (a byteReaderAdapter) ReadByte() (byte, error) { return a.s.readByte() }

// ReadU8 implements evtio.ChunkStream.
func (s *FileChunkStream) ReadU8() (uint8, error) { return s.readByte() }

// ReadU32V implements evtio.ChunkStream.
func (s *FileChunkStream) ReadU32V() (uint32, error) {
	v, err := varint.ReadUint(byteReaderAdapter{s}, 4)
	return uint32(v), err
}

// ReadU64V implements evtio.ChunkStream.
func (s *FileChunkStream) ReadU64V() (uint64, error) {
	return varint.ReadUint(byteReaderAdapter{s}, 8)
}

// ReadI64V implements evtio.ChunkStream.
func (s *FileChunkStream) ReadI64V() (int64, error) {
	return varint.ReadInt(byteReaderAdapter{s}, 8)
}

// ReadF32 implements evtio.ChunkStream.
func (s *FileChunkStream) ReadF32() (float32, error) {
	if err := s.GuaranteeRead(4); err != nil {
		return 0, err
	}
	var buf [4]byte
	if _, err := s.cursor.ReadAt(buf[:], s.pos); err != nil {
		return 0, errcode.ErrIndexOutOfBounds
	}
	s.pos += 4
	return math.Float32frombits(binary.BigEndian.Uint32(buf[:])), nil
}

// ReadF64 implements evtio.ChunkStream.
func (s *FileChunkStream) ReadF64() (float64, error) {
	if err := s.GuaranteeRead(8); err != nil {
		return 0, err
	}
	var buf [8]byte
	if _, err := s.cursor.ReadAt(buf[:], s.pos); err != nil {
		return 0, errcode.ErrIndexOutOfBounds
	}
	s.pos += 8
	return math.Float64frombits(binary.BigEndian.Uint64(buf[:])), nil
}

// ReadTimestamp implements evtio.ChunkStream.
func (s *FileChunkStream) ReadTimestamp() (uint64, error) {
	if err := s.GuaranteeRead(8); err != nil {
		return 0, err
	}
	s.tsPos = s.pos
	var buf [8]byte
	if _, err := s.cursor.ReadAt(buf[:], s.pos); err != nil {
		return 0, errcode.ErrIndexOutOfBounds
	}
	s.pos += 8
	return binary.BigEndian.Uint64(buf[:]), nil
}

// GetPosition implements evtio.ChunkStream.
func (s *FileChunkStream) GetPosition() evtio.Position { return evtio.Position(s.pos) }

// SetPosition implements evtio.ChunkStream.
func (s *FileChunkStream) SetPosition(p evtio.Position) { s.pos = int64(p) }

// Skip implements evtio.ChunkStream.
func (s *FileChunkStream) Skip(n int) error {
	if err := s.GuaranteeRead(n); err != nil {
		return err
	}
	s.pos += int64(n)
	return nil
}

// SkipCompressed implements evtio.ChunkStream.
func (s *FileChunkStream) SkipCompressed() error {
	_, err := s.ReadU64V()
	return err
}

// GetPositionTimestamp implements evtio.ChunkStream.
func (s *FileChunkStream) GetPositionTimestamp() evtio.Position { return evtio.Position(s.tsPos) }

// SetPositionTimestamp implements evtio.ChunkStream.
func (s *FileChunkStream) SetPositionTimestamp(p evtio.Position) { s.tsPos = int64(p) }

// ReadSeekChunk implements evtio.ChunkStream.
func (s *FileChunkStream) ReadSeekChunk(eventIndex uint64) error {
	for i, c := range s.chunks {
		if eventIndex >= c.firstEvent && eventIndex <= c.lastEvent {
			return s.openChunk(i)
		}
	}
	return errcode.ErrIndexOutOfBounds
}

// ReadGetNextChunk implements evtio.ChunkStream.
func (s *FileChunkStream) ReadGetNextChunk() error {
	if s.curChunk+1 >= len(s.chunks) {
		return errcode.ErrIndexOutOfBounds
	}
	return s.openChunk(s.curChunk + 1)
}

// ReadGetPreviousChunk implements evtio.ChunkStream.
func (s *FileChunkStream) ReadGetPreviousChunk() error {
	if s.curChunk == 0 {
		return errcode.ErrIndexOutOfBounds
	}
	return s.openChunk(s.curChunk - 1)
}

// GetNumberEvents implements evtio.ChunkStream.
func (s *FileChunkStream) GetNumberEvents() (first, last uint64) {
	c := s.cur()
	return c.firstEvent, c.lastEvent
}

// RewriteTimestamp implements evtio.ChunkStream. Like MemStream, this is a
// reader: rewriting means rewinding the cursor to re-read the timestamp
// just consumed, not mutating bytes on disk.
func (s *FileChunkStream) RewriteTimestamp(ts uint64) { s.pos = s.tsPos }

// Close releases the current chunk's cursor (unmapping it if mmap-backed).
func (s *FileChunkStream) Close() error {
	if s.cursor != nil {
		return s.cursor.Close()
	}
	return nil
}
