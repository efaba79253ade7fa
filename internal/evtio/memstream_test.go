package evtio

import (
	"errors"
	"testing"

	"evtrace/internal/errcode"
	"evtrace/internal/varint"
)

func buildChunk(firstEvent, lastEvent uint64, fields ...byte) Chunk {
	return Chunk{Data: fields, FirstEvent: firstEvent, LastEvent: lastEvent}
}

func TestMemStreamReadU8AndVarints(t *testing.T) {
	var data []byte
	data = append(data, 0x2A)
	data = varint.AppendUint(data, 300)
	data = varint.AppendInt(data, -7)

	s := NewMemStream([]Chunk{buildChunk(0, 0, data...)})

	b, err := s.ReadU8()
	if err != nil || b != 0x2A {
		t.Fatalf("ReadU8() = (%d, %v), want (42, nil)", b, err)
	}
	u, err := s.ReadU32V()
	if err != nil || u != 300 {
		t.Fatalf("ReadU32V() = (%d, %v), want (300, nil)", u, err)
	}
	i, err := s.ReadI64V()
	if err != nil || i != -7 {
		t.Fatalf("ReadI64V() = (%d, %v), want (-7, nil)", i, err)
	}
}

func TestMemStreamReadTimestampAndRewrite(t *testing.T) {
	data := make([]byte, 8)
	data[7] = 42 // big-endian 42
	s := NewMemStream([]Chunk{buildChunk(0, 0, data...)})

	ts, err := s.ReadTimestamp()
	if err != nil || ts != 42 {
		t.Fatalf("ReadTimestamp() = (%d, %v), want (42, nil)", ts, err)
	}
	if s.GetPosition() != 8 {
		t.Fatalf("position after ReadTimestamp = %d, want 8", s.GetPosition())
	}
	s.RewriteTimestamp(42)
	if s.GetPosition() != 0 {
		t.Errorf("position after RewriteTimestamp = %d, want 0", s.GetPosition())
	}
	ts, err = s.ReadTimestamp()
	if err != nil || ts != 42 {
		t.Errorf("ReadTimestamp() after rewrite = (%d, %v), want (42, nil)", ts, err)
	}
}

func TestMemStreamGuaranteeReadEOF(t *testing.T) {
	s := NewMemStream([]Chunk{buildChunk(0, 0, 1, 2, 3)})
	if err := s.GuaranteeRead(4); !errors.Is(err, errcode.ErrIndexOutOfBounds) {
		t.Errorf("GuaranteeRead(4) = %v, want ErrIndexOutOfBounds", err)
	}
	if err := s.GuaranteeRead(3); err != nil {
		t.Errorf("GuaranteeRead(3) = %v, want nil", err)
	}
}

func TestMemStreamChunkNavigation(t *testing.T) {
	s := NewMemStream([]Chunk{
		buildChunk(0, 2, 1, 2, 3),
		buildChunk(3, 5, 4, 5, 6),
	})

	if err := s.ReadSeekChunk(4); err != nil {
		t.Fatalf("ReadSeekChunk(4): %v", err)
	}
	first, last := s.GetNumberEvents()
	if first != 3 || last != 5 {
		t.Errorf("GetNumberEvents() = (%d,%d), want (3,5)", first, last)
	}
	b, _ := s.ReadU8()
	if b != 4 {
		t.Errorf("ReadU8() after seek = %d, want 4", b)
	}

	if err := s.ReadGetPreviousChunk(); err != nil {
		t.Fatalf("ReadGetPreviousChunk: %v", err)
	}
	first, last = s.GetNumberEvents()
	if first != 0 || last != 2 {
		t.Errorf("GetNumberEvents() after previous = (%d,%d), want (0,2)", first, last)
	}

	if err := s.ReadGetNextChunk(); err != nil {
		t.Fatalf("ReadGetNextChunk: %v", err)
	}
	if err := s.ReadGetNextChunk(); !errors.Is(err, errcode.ErrIndexOutOfBounds) {
		t.Errorf("ReadGetNextChunk past end = %v, want ErrIndexOutOfBounds", err)
	}
}

func TestMemStreamGuaranteeRecord(t *testing.T) {
	var data []byte
	data = varint.AppendUint(data, 3)
	data = append(data, 9, 9, 9)
	s := NewMemStream([]Chunk{buildChunk(0, 0, data...)})

	length, err := s.GuaranteeRecord()
	if err != nil {
		t.Fatalf("GuaranteeRecord: %v", err)
	}
	if length != 3 {
		t.Errorf("GuaranteeRecord() length = %d, want 3", length)
	}
}
