// Package callback implements Table: the struct-of-function-references a
// decoder or GlobalMerger dispatches a decoded event through.
package callback

import (
	"evtrace/internal/attr"
	"evtrace/internal/decoder"
)

// Handler is one per-location consumer hook. It returns true to request that
// the decoder (or merger) stop after this event.
type Handler func(locationID uint64, user any, attrs *attr.List, rec *decoder.Record) bool

// GlobalHandler mirrors Handler for GlobalMerger registration, which has no
// per-location id to pass.
type GlobalHandler func(user any, attrs *attr.List, rec *decoder.Record) bool

// Table is keyed by event kind, plus a generic Unknown fallback.
// Registration is last-writer-wins; an event whose kind has no registered
// handler (and no Unknown fallback) is decoded and its state cleared but
// never delivered.
type Table struct {
	handlers map[decoder.Kind]Handler
	unknown  Handler
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{handlers: make(map[decoder.Kind]Handler)}
}

// On registers h for kind, replacing any previously registered handler.
func (t *Table) On(kind decoder.Kind, h Handler) {
	t.handlers[kind] = h
}

// OnUnknown registers the fallback invoked for kinds with no specific
// handler.
func (t *Table) OnUnknown(h Handler) {
	t.unknown = h
}

// Dispatch implements decoder.Dispatcher.
func (t *Table) Dispatch(locationID uint64, user any, attrs *attr.List, rec *decoder.Record) (handled, interrupt bool) {
	h := t.handlers[rec.Kind]
	if h == nil {
		h = t.unknown
	}
	if h == nil {
		return false, false
	}
	return true, h(locationID, user, attrs, rec)
}

// GlobalTable parallels Table for GlobalMerger use.
type GlobalTable struct {
	handlers map[decoder.Kind]GlobalHandler
	unknown  GlobalHandler
}

// NewGlobalTable returns an empty GlobalTable.
func NewGlobalTable() *GlobalTable {
	return &GlobalTable{handlers: make(map[decoder.Kind]GlobalHandler)}
}

// On registers h for kind, replacing any previously registered handler.
func (t *GlobalTable) On(kind decoder.Kind, h GlobalHandler) {
	t.handlers[kind] = h
}

// OnUnknown registers the fallback invoked for kinds with no specific
// handler.
func (t *GlobalTable) OnUnknown(h GlobalHandler) {
	t.unknown = h
}

// Dispatch invokes the registered handler for rec.Kind, falling back to the
// legacy conversion's handler and then to Unknown. (On the non-merger path
// decoder.EventDecoder tries the legacy conversion only after its dispatcher,
// Unknown included, reports no handler.)
func (t *GlobalTable) Dispatch(user any, attrs *attr.List, rec *decoder.Record) (handled, interrupt bool) {
	if h := t.handlers[rec.Kind]; h != nil {
		return true, h(user, attrs, rec)
	}
	if legacy, ok := decoder.LowerToLegacy(rec); ok {
		if h := t.handlers[legacy.Kind]; h != nil {
			return true, h(user, attrs, &legacy)
		}
	}
	if t.unknown != nil {
		return true, t.unknown(user, attrs, rec)
	}
	return false, false
}
