// Package tracetest provides shared test helpers for constructing
// ready-to-use decoders and merged fixtures, removing the boilerplate that
// would otherwise be duplicated across every package's tests.
package tracetest

import (
	"testing"

	"evtrace/internal/attr"
	"evtrace/internal/callback"
	"evtrace/internal/decoder"
	"evtrace/internal/evtio"
	"evtrace/internal/loc"
	"evtrace/internal/memalloc"
	"evtrace/internal/merger"
)

// Store bundles one location's decoder with its owned attribute lists and
// backing allocator, the minimum a test needs to drive a decoder without
// repeating the ProcessMemory/Handle/List wiring.
type Store struct {
	PM      *memalloc.ProcessMemory
	Decoder *decoder.EventDecoder
}

// NewStore builds a decoder reading chunks over a MemStream, backed by a
// fresh serial-mode ProcessMemory, dispatching through dispatcher (nil is
// fine for merger-driven tests).
func NewStore(locationID uint64, chunks []evtio.Chunk, ctx loc.Context, dispatcher decoder.Dispatcher, user any) *Store {
	pm := memalloc.NewProcessMemory(memalloc.ModeSerial)
	stream := evtio.NewMemStream(chunks)
	d := decoder.New(stream, ctx, attr.NewList(pm.NewHandle()), attr.NewList(pm.NewHandle()), dispatcher, user)
	d.LocationID = locationID
	return &Store{PM: pm, Decoder: d}
}

// MustNewStore is like NewStore but never errors (MemStream construction
// cannot fail); kept for symmetry with the other MustNew helpers in this
// package.
func MustNewStore(t *testing.T, locationID uint64, chunks []evtio.Chunk, ctx loc.Context, dispatcher decoder.Dispatcher, user any) *Store {
	t.Helper()
	return NewStore(locationID, chunks, ctx, dispatcher, user)
}

// MustNewMerger builds a GlobalMerger over one Store per location, priming
// every decoder and failing the test immediately if construction leaves no
// live decoders despite non-empty input (a sign the fixture data was
// malformed).
func MustNewMerger(t *testing.T, stores []*Store, table *callback.GlobalTable, user any) *merger.GlobalMerger {
	t.Helper()
	decoders := make([]*decoder.EventDecoder, len(stores))
	for i, s := range stores {
		decoders[i] = s.Decoder
	}
	m := merger.New(decoders, table, user)
	if len(stores) > 0 && m.Len() == 0 {
		t.Fatalf("MustNewMerger: all %d decoders retired at priming", len(stores))
	}
	return m
}

// StaticContext returns an empty loc.StaticContext, convenient when a test
// needs a Context but not any id remapping or clock correction.
func StaticContext() *loc.StaticContext {
	return &loc.StaticContext{}
}
