package tracefile

import (
	"encoding/binary"
	"io"
	"math"
	"os"
	"path/filepath"

	"evtrace/internal/format"
	"evtrace/internal/loc"
)

const clockVersion = 1

// clockEntrySize is one ClockInterval: begin:u64, end:u64, slope:f64,
// offset:i64.
const clockEntrySize = 8 + 8 + 8 + 8

// LoadClockChain reads dir/clock.intervals into a loc.ClockInterval chain in
// file order. A missing file yields a nil chain, which loc.ClockCursor
// treats as "apply no correction".
func LoadClockChain(dir string) (*loc.ClockInterval, error) {
	f, err := os.Open(filepath.Join(dir, "clock.intervals"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var hdr [format.HeaderSize]byte
	if _, err := io.ReadFull(f, hdr[:]); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, err
	}
	if _, err := format.DecodeAndValidate(hdr[:], format.TypeClockIntervals, clockVersion); err != nil {
		return nil, err
	}

	var head, tail *loc.ClockInterval
	entry := make([]byte, clockEntrySize)
	for {
		if _, err := io.ReadFull(f, entry); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			return nil, err
		}
		iv := &loc.ClockInterval{
			Begin:  binary.LittleEndian.Uint64(entry[0:8]),
			End:    binary.LittleEndian.Uint64(entry[8:16]),
			Slope:  math.Float64frombits(binary.LittleEndian.Uint64(entry[16:24])),
			Offset: int64(binary.LittleEndian.Uint64(entry[24:32])),
		}
		if head == nil {
			head = iv
		} else {
			tail.Next = iv
		}
		tail = iv
	}
	return head, nil
}
