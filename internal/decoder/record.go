package decoder

import "evtrace/internal/attr"

// Record is the decoder's current_event staging buffer: the most recently
// decoded (timestamp, kind, payload) tuple, valid until the next ReadNext
// call overwrites it.
type Record struct {
	Kind   Kind
	Time   uint64
	Fields []attr.Value // positional, per schemaFor(Kind).Fields order
}

// Field returns the i-th positional field, or the zero Value if the record
// has fewer fields (e.g. an opaque or empty-payload kind).
func (r *Record) Field(i int) attr.Value {
	if i < 0 || i >= len(r.Fields) {
		return attr.Value{}
	}
	return r.Fields[i]
}

// Region returns field 0 as a region reference id. Valid for Enter, Leave.
func (r *Record) Region() uint32 { return r.Field(0).RefID() }

// RequestID returns field 0 as a request id. Valid for MpiIsendComplete,
// MpiIrecvRequest, MpiRequestTest, MpiRequestCancelled.
func (r *Record) RequestID() uint64 { return r.Field(0).Uint() }
