// Package merger implements GlobalMerger: a k-way min-heap merge of
// per-location EventDecoders, ordered by (timestamp, location id).
package merger

import (
	"container/heap"

	"evtrace/internal/callback"
	"evtrace/internal/decoder"
	"evtrace/internal/errcode"
)

// decoderHeap orders live decoders by their staged event's (time, location
// id), breaking timestamp ties on location id for a deterministic order.
type decoderHeap []*decoder.EventDecoder

func (h decoderHeap) Len() int { return len(h) }

func (h decoderHeap) Less(i, j int) bool {
	a, b := h[i].Current(), h[j].Current()
	if a.Time != b.Time {
		return a.Time < b.Time
	}
	return h[i].LocationID < h[j].LocationID
}

func (h decoderHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *decoderHeap) Push(x any) {
	*h = append(*h, x.(*decoder.EventDecoder))
}

func (h *decoderHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return x
}

// GlobalMerger delivers events from every supplied decoder in global
// timestamp order (ties broken by location id), invoking a GlobalTable for
// each.
type GlobalMerger struct {
	h     decoderHeap
	table *callback.GlobalTable
	user  any
}

// New primes each decoder (one ReadNext call in DrivenByMerger mode),
// retiring any that yield an error immediately, and heapifies the
// remainder bottom-up.
func New(decoders []*decoder.EventDecoder, table *callback.GlobalTable, user any) *GlobalMerger {
	m := &GlobalMerger{table: table, user: user}
	for _, d := range decoders {
		d.DrivenByMerger = true
		if err := d.ReadNext(); err != nil {
			continue
		}
		m.h = append(m.h, d)
	}
	heap.Init(&m.h)
	return m
}

// Len reports how many decoders are still live.
func (m *GlobalMerger) Len() int { return m.h.Len() }

// ReadOne delivers exactly one event in global order. It returns nil with
// nothing delivered once every decoder is exhausted, or
// errcode.ErrInterruptedByCallback if the callback invoked for the
// delivered event requested interruption; the event is still fully
// delivered and accounted for before that error is returned.
func (m *GlobalMerger) ReadOne() error {
	if m.h.Len() == 0 {
		return nil
	}
	d := m.h[0]
	rec := d.Current()

	_, interrupt := m.table.Dispatch(m.user, d.Attrs(), rec)
	d.Attrs().RemoveAll()

	switch err := d.ReadNext(); {
	case err == nil:
		heap.Fix(&m.h, 0)
	case errcode.Classify(err) == errcode.IndexOutOfBounds:
		heap.Remove(&m.h, 0)
	default:
		return err
	}

	if interrupt {
		return errcode.ErrInterruptedByCallback
	}
	return nil
}
