package varint

import (
	"bytes"
	"errors"
	"testing"

	"evtrace/internal/errcode"
)

func TestUintRoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 255, 256, 65535, 1 << 32, 1<<64 - 1}
	for _, v := range cases {
		buf := AppendUint(nil, v)
		got, err := ReadUint(bytes.NewReader(buf), 8)
		if err != nil {
			t.Fatalf("ReadUint(%d): %v", v, err)
		}
		if got != v {
			t.Errorf("round trip %d -> %x -> %d", v, buf, got)
		}
	}
}

func TestIntRoundTrip(t *testing.T) {
	cases := []int64{0, 1, -1, 127, -128, 1 << 40, -(1 << 40)}
	for _, v := range cases {
		buf := AppendInt(nil, v)
		got, err := ReadInt(bytes.NewReader(buf), 8)
		if err != nil {
			t.Fatalf("ReadInt(%d): %v", v, err)
		}
		if got != v {
			t.Errorf("round trip %d -> %x -> %d", v, buf, got)
		}
	}
}

func TestReadUintEscapeMarker(t *testing.T) {
	buf := []byte{0xFF, 1, 0, 0, 0, 0, 0, 0, 0} // little-endian 1
	got, err := ReadUint(bytes.NewReader(buf), 4)
	if err != nil {
		t.Fatalf("ReadUint: %v", err)
	}
	if got != 1 {
		t.Errorf("ReadUint(escape) = %d, want 1", got)
	}
}

func TestReadUintLengthTooLong(t *testing.T) {
	buf := []byte{5, 1, 2, 3, 4, 5}
	_, err := ReadUint(bytes.NewReader(buf), 4)
	if !errors.Is(err, errcode.ErrIntegrityFault) {
		t.Errorf("ReadUint(overlong) = %v, want ErrIntegrityFault", err)
	}
}

func TestAppendUintMinimalLength(t *testing.T) {
	buf := AppendUint(nil, 0)
	if len(buf) != 1 || buf[0] != 0 {
		t.Errorf("AppendUint(0) = %x, want [0]", buf)
	}
	buf = AppendUint(nil, 1)
	if len(buf) != 2 || buf[0] != 1 || buf[1] != 1 {
		t.Errorf("AppendUint(1) = %x, want [1 1]", buf)
	}
}

func FuzzUintRoundTrip(f *testing.F) {
	f.Add(uint64(0))
	f.Add(uint64(1 << 63))
	f.Fuzz(func(t *testing.T, v uint64) {
		buf := AppendUint(nil, v)
		got, err := ReadUint(bytes.NewReader(buf), 8)
		if err != nil {
			t.Fatalf("ReadUint: %v", err)
		}
		if got != v {
			t.Fatalf("round trip mismatch: %d != %d", got, v)
		}
	})
}

func FuzzIntRoundTrip(f *testing.F) {
	f.Add(int64(0))
	f.Add(int64(-1))
	f.Fuzz(func(t *testing.T, v int64) {
		buf := AppendInt(nil, v)
		got, err := ReadInt(bytes.NewReader(buf), 8)
		if err != nil {
			t.Fatalf("ReadInt: %v", err)
		}
		if got != v {
			t.Fatalf("round trip mismatch: %d != %d", got, v)
		}
	})
}
