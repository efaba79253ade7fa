package merger

import (
	"testing"

	"evtrace/internal/attr"
	"evtrace/internal/callback"
	"evtrace/internal/decoder"
	"evtrace/internal/evtio"
	"evtrace/internal/loc"
	"evtrace/internal/memalloc"
	"evtrace/internal/varint"
)

func u64be(v uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[7-i] = byte(v >> (8 * i))
	}
	return b
}

func enterRecord(ts uint64, region uint32) []byte {
	buf := u64be(ts)
	buf = append(buf, byte(decoder.KindEnter))
	buf = varint.AppendUint(buf, uint64(region))
	return buf
}

func endOfFile() []byte {
	buf := u64be(0)
	return append(buf, byte(decoder.KindEndOfFile))
}

func newDecoder(t *testing.T, locationID uint64, events []struct {
	ts     uint64
	region uint32
}) *decoder.EventDecoder {
	t.Helper()
	var data []byte
	for _, e := range events {
		data = append(data, enterRecord(e.ts, e.region)...)
	}
	data = append(data, endOfFile()...)

	last := uint64(0)
	if len(events) > 0 {
		last = uint64(len(events) - 1)
	}
	stream := evtio.NewMemStream([]evtio.Chunk{{Data: data, FirstEvent: 0, LastEvent: last}})
	ctx := &loc.StaticContext{}
	pm := memalloc.NewProcessMemory(memalloc.ModeConcurrent)
	attrs := attr.NewList(pm.NewHandle())
	scratch := attr.NewList(pm.NewHandle())
	d := decoder.New(stream, ctx, attrs, scratch, nil, nil)
	d.LocationID = locationID
	return d
}

func TestGlobalMergerOrdersByTimeThenLocation(t *testing.T) {
	d0 := newDecoder(t, 0, []struct {
		ts     uint64
		region uint32
	}{{10, 1}, {30, 3}})
	d1 := newDecoder(t, 1, []struct {
		ts     uint64
		region uint32
	}{{10, 2}, {20, 4}})

	var order []uint64
	table := callback.NewGlobalTable()
	table.OnUnknown(func(user any, attrs *attr.List, rec *decoder.Record) bool {
		return false
	})
	table.On(decoder.KindEnter, func(user any, attrs *attr.List, rec *decoder.Record) bool {
		order = append(order, rec.Time)
		return false
	})

	m := New([]*decoder.EventDecoder{d0, d1}, table, nil)

	for m.Len() > 0 {
		if err := m.ReadOne(); err != nil {
			t.Fatalf("ReadOne: %v", err)
		}
	}

	want := []uint64{10, 10, 20, 30}
	if len(order) != len(want) {
		t.Fatalf("delivered %d events, want %d: %v", len(order), len(want), order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %d, want %d (full: %v)", i, order[i], want[i], order)
		}
	}
}

func TestGlobalMergerRetiresExhaustedDecoderAtPriming(t *testing.T) {
	empty := newDecoder(t, 0, nil)
	live := newDecoder(t, 1, []struct {
		ts     uint64
		region uint32
	}{{5, 1}})

	table := callback.NewGlobalTable()
	count := 0
	table.On(decoder.KindEnter, func(user any, attrs *attr.List, rec *decoder.Record) bool {
		count++
		return false
	})

	m := New([]*decoder.EventDecoder{empty, live}, table, nil)
	if m.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 (empty decoder retired at priming)", m.Len())
	}
	for m.Len() > 0 {
		if err := m.ReadOne(); err != nil {
			t.Fatalf("ReadOne: %v", err)
		}
	}
	if count != 1 {
		t.Errorf("delivered %d events, want 1", count)
	}
}

func TestGlobalMergerInterrupt(t *testing.T) {
	d := newDecoder(t, 0, []struct {
		ts     uint64
		region uint32
	}{{1, 1}, {2, 2}})

	table := callback.NewGlobalTable()
	table.On(decoder.KindEnter, func(user any, attrs *attr.List, rec *decoder.Record) bool {
		return true
	})
	m := New([]*decoder.EventDecoder{d}, table, nil)

	err := m.ReadOne()
	if err == nil {
		t.Fatalf("ReadOne = nil, want ErrInterruptedByCallback")
	}
	// The merger must still have advanced past the delivered event.
	if m.Len() != 1 {
		t.Errorf("Len() after interrupted ReadOne = %d, want 1 (decoder still live)", m.Len())
	}
}
