package tracefile

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"evtrace/internal/format"
	"evtrace/internal/loc"
	"evtrace/internal/varint"
)

func u64be(v uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[7-i] = byte(v >> (8 * i))
	}
	return b
}

// writeChunkFile assembles one evt.<n>.log fixture: the chunk header (event
// count + payload size) followed by raw record bytes.
func writeChunkFile(t *testing.T, dir string, n int, eventCount uint64, records []byte) {
	t.Helper()
	hdr := format.Header{Type: format.TypeEventChunk, Version: chunkVersion}.Encode()
	buf := append([]byte{}, hdr[:]...)
	countBuf := make([]byte, 8)
	binary.LittleEndian.PutUint64(countBuf, eventCount)
	buf = append(buf, countBuf...)
	sizeBuf := make([]byte, 8)
	binary.LittleEndian.PutUint64(sizeBuf, uint64(len(records)))
	buf = append(buf, sizeBuf...)
	buf = append(buf, records...)

	path := filepath.Join(dir, "evt."+itoa(n)+".log")
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func enterRecordBytes(ts uint64, region uint32) []byte {
	buf := u64be(ts)
	buf = append(buf, 0x05) // decoder.KindEnter's tag value
	buf = varint.AppendUint(buf, uint64(region))
	return buf
}

func endOfFileBytes() []byte {
	return append(u64be(0), 0x00)
}

func endOfChunkBytes() []byte {
	return append(u64be(0), 0x01)
}

func TestFileChunkStreamSingleChunk(t *testing.T) {
	dir := t.TempDir()
	var records []byte
	records = append(records, enterRecordBytes(10, 1)...)
	records = append(records, endOfFileBytes()...)
	writeChunkFile(t, dir, 0, 1, records)

	s, err := OpenFileChunkStream(dir)
	if err != nil {
		t.Fatalf("OpenFileChunkStream: %v", err)
	}
	defer s.Close()

	ts, err := s.ReadTimestamp()
	if err != nil {
		t.Fatalf("ReadTimestamp: %v", err)
	}
	if ts != 10 {
		t.Errorf("ts = %d, want 10", ts)
	}
	tag, err := s.ReadU8()
	if err != nil {
		t.Fatalf("ReadU8: %v", err)
	}
	if tag != 0x05 {
		t.Fatalf("tag = 0x%02x, want 0x05", tag)
	}
	region, err := s.ReadU32V()
	if err != nil {
		t.Fatalf("ReadU32V: %v", err)
	}
	if region != 1 {
		t.Errorf("region = %d, want 1", region)
	}

	first, last := s.GetNumberEvents()
	if first != 0 || last != 0 {
		t.Errorf("GetNumberEvents = (%d, %d), want (0, 0)", first, last)
	}
}

func TestFileChunkStreamMultiChunk(t *testing.T) {
	dir := t.TempDir()
	writeChunkFile(t, dir, 0, 1, append(enterRecordBytes(1, 1), endOfChunkBytes()...))
	writeChunkFile(t, dir, 1, 1, append(enterRecordBytes(2, 2), endOfFileBytes()...))

	s, err := OpenFileChunkStream(dir)
	if err != nil {
		t.Fatalf("OpenFileChunkStream: %v", err)
	}
	defer s.Close()

	if len(s.chunks) != 2 {
		t.Fatalf("discovered %d chunks, want 2", len(s.chunks))
	}
	if s.chunks[1].firstEvent != 1 {
		t.Errorf("chunk 1 firstEvent = %d, want 1", s.chunks[1].firstEvent)
	}

	if _, err := s.ReadTimestamp(); err != nil {
		t.Fatalf("ReadTimestamp chunk 0: %v", err)
	}
	if _, err := s.ReadU8(); err != nil {
		t.Fatalf("ReadU8 chunk 0: %v", err)
	}
	if _, err := s.ReadU32V(); err != nil {
		t.Fatalf("ReadU32V chunk 0: %v", err)
	}
	// Next record is EndOfChunk; the decoder would dispatch on tag, here we
	// just exercise the chunk-transition primitive directly.
	if _, err := s.ReadTimestamp(); err != nil {
		t.Fatalf("ReadTimestamp EndOfChunk marker: %v", err)
	}
	tag, err := s.ReadU8()
	if err != nil || tag != 0x01 {
		t.Fatalf("expected EndOfChunk tag, got %d err=%v", tag, err)
	}

	if err := s.ReadGetNextChunk(); err != nil {
		t.Fatalf("ReadGetNextChunk: %v", err)
	}
	ts, err := s.ReadTimestamp()
	if err != nil {
		t.Fatalf("ReadTimestamp chunk 1: %v", err)
	}
	if ts != 2 {
		t.Errorf("ts in chunk 1 = %d, want 2", ts)
	}
}

func TestLoadMappingMissingFileIsIdentity(t *testing.T) {
	dir := t.TempDir()
	m, err := LoadMapping(dir, loc.RefRegion)
	if err != nil {
		t.Fatalf("LoadMapping: %v", err)
	}
	if got := m.Get(42); got != 42 {
		t.Errorf("Get(42) on missing mapping file = %d, want 42 (identity fallback)", got)
	}
}

func TestLoadClockChainMissingFileIsNil(t *testing.T) {
	dir := t.TempDir()
	chain, err := LoadClockChain(dir)
	if err != nil {
		t.Fatalf("LoadClockChain: %v", err)
	}
	if chain != nil {
		t.Errorf("chain = %+v, want nil", chain)
	}
}

func TestContextLoadsFromDisk(t *testing.T) {
	dir := t.TempDir()
	ctx := NewContext(dir)
	if m := ctx.MappingTable(loc.RefRegion); m.Get(7) != 7 {
		t.Errorf("MappingTable identity fallback failed")
	}
	if ctx.ClockIntervals() != nil {
		t.Errorf("ClockIntervals() = non-nil, want nil with no clock.intervals file")
	}
}
