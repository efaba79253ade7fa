package decoder

import (
	"evtrace/internal/attr"
	"evtrace/internal/errcode"
	"evtrace/internal/evtio"
	"evtrace/internal/loc"
)

// Dispatcher is the callback-invocation seam an EventDecoder calls through;
// the concrete implementation lives in package callback, which depends on
// decoder for Record rather than the other way around.
type Dispatcher interface {
	// Dispatch invokes the handler registered for rec.Kind, if any, passing
	// a borrowed view of attrs. It reports whether a handler was registered
	// and whether it requested interruption.
	Dispatch(locationID uint64, user any, attrs *attr.List, rec *Record) (handled, interrupt bool)
}

// EventDecoder is the per-location streaming decoder: it pulls bytes from
// a ChunkStream, decodes one (timestamp, kind, payload) tuple per ReadNext
// call, applies id remapping and clock correction, and either stages the
// result for a GlobalMerger or dispatches it through a Dispatcher.
type EventDecoder struct {
	LocationID uint64

	stream     evtio.ChunkStream
	ctx        loc.Context
	attrs      *attr.List
	scratch    *attr.List // used only while building the backward-read index
	dispatcher Dispatcher
	user       any

	ApplyMappings  bool
	ApplyClocks    bool
	DrivenByMerger bool

	current Record

	globalEventPos       uint64
	chunkLocalRecordPos  uint64
	positionTable        []evtio.Position
	timestampTable       []uint64
	clock                *loc.ClockCursor
}

// New returns a decoder reading from stream, consulting ctx for id
// remapping and clock correction, and staging AttributeList nodes through
// attrs (normally backed by a per-location memalloc.Handle).
func New(stream evtio.ChunkStream, ctx loc.Context, attrs, scratch *attr.List, dispatcher Dispatcher, user any) *EventDecoder {
	return &EventDecoder{
		stream:        stream,
		ctx:           ctx,
		attrs:         attrs,
		scratch:       scratch,
		dispatcher:    dispatcher,
		user:          user,
		ApplyMappings: true,
		ApplyClocks:   true,
		clock:         loc.NewClockCursor(ctx.ClockIntervals()),
	}
}

// Current returns the most recently decoded record, valid until the next
// ReadNext or StepBack call.
func (d *EventDecoder) Current() *Record { return &d.current }

// Attrs returns the decoder's owned AttributeList, staged alongside
// Current() and borrowed (not copied) by GlobalMerger when DrivenByMerger.
func (d *EventDecoder) Attrs() *attr.List { return d.attrs }

// GlobalEventPosition returns the number of genuine events delivered so far.
func (d *EventDecoder) GlobalEventPosition() uint64 { return d.globalEventPos }

// ReadNext decodes the next record, transparently consuming EndOfChunk and
// AttributeList control records, and returns once a genuine event has been
// staged (and, unless DrivenByMerger, dispatched). Returns
// errcode.ErrIndexOutOfBounds at end of file.
func (d *EventDecoder) ReadNext() error {
	for {
		ts, err := d.stream.ReadTimestamp()
		if err != nil {
			return err
		}
		if err := d.stream.GuaranteeRead(1); err != nil {
			return err
		}
		tagByte, err := d.stream.ReadU8()
		if err != nil {
			return err
		}
		tag := Kind(tagByte)

		switch tag {
		case KindEndOfChunk:
			d.chunkLocalRecordPos = 0
			d.positionTable = nil
			d.timestampTable = nil
			if err := d.stream.ReadGetNextChunk(); err != nil {
				return err
			}
			continue
		case KindEndOfFile:
			return errcode.ErrIndexOutOfBounds
		case KindAttributeList:
			if err := d.decodeAttributeList(d.attrs); err != nil {
				return err
			}
			d.chunkLocalRecordPos++
			continue
		default:
			rec, err := d.decodePayload(tag, ts)
			if err != nil {
				return err
			}
			d.current = rec
			d.chunkLocalRecordPos++
			d.globalEventPos++
			return d.afterDecode()
		}
	}
}

// afterDecode implements the dispatch policy: merger-driven decoders only
// stage current_event, everyone else invokes
// the registered callback (falling back to the legacy conversion if the
// dispatcher reports no handler at all for the record) and clears the
// attribute list.
func (d *EventDecoder) afterDecode() error {
	if d.DrivenByMerger {
		return nil
	}
	if d.dispatcher == nil {
		d.attrs.RemoveAll()
		return nil
	}

	handled, interrupt := d.dispatcher.Dispatch(d.LocationID, d.user, d.attrs, &d.current)
	if !handled {
		if legacy, ok := lowerToLegacy(&d.current); ok {
			handled, interrupt = d.dispatcher.Dispatch(d.LocationID, d.user, d.attrs, &legacy)
		}
	}
	d.attrs.RemoveAll()
	if interrupt {
		return errcode.ErrInterruptedByCallback
	}
	_ = handled
	return nil
}

// remap applies the id mapping for kind, honoring ApplyMappings except that
// mapping is always enforced when DrivenByMerger (so the merger observes
// globally-unique ids).
func (d *EventDecoder) remap(kind loc.RefKind, v uint32) uint32 {
	if !d.ApplyMappings && !d.DrivenByMerger {
		return v
	}
	return d.ctx.MappingTable(kind).Get(v)
}

// applyClockCorrection rewrites t through the location's clock cursor,
// unless clock correction is disabled and the decoder isn't merger-driven.
func (d *EventDecoder) applyClockCorrection(t uint64) uint64 {
	if !d.ApplyClocks && !d.DrivenByMerger {
		return t
	}
	return d.clock.Correct(t)
}

// Seek repositions the decoder so the next ReadNext delivers the event at
// global index p.
func (d *EventDecoder) Seek(p uint64) error {
	if err := d.stream.ReadSeekChunk(p); err != nil {
		return err
	}
	d.positionTable = nil
	d.timestampTable = nil
	first, _ := d.stream.GetNumberEvents()
	d.globalEventPos = first - 1
	d.chunkLocalRecordPos = 0
	for d.globalEventPos+1 < p {
		if err := d.skipOne(); err != nil {
			return err
		}
	}
	d.globalEventPos = p - 1
	d.clock.Reset()
	return nil
}

// skipOne decodes and discards the next record without dispatching,
// identical framing traversal to ReadNext but never invoking callbacks.
func (d *EventDecoder) skipOne() error {
	ts, err := d.stream.ReadTimestamp()
	if err != nil {
		return err
	}
	if err := d.stream.GuaranteeRead(1); err != nil {
		return err
	}
	tagByte, err := d.stream.ReadU8()
	if err != nil {
		return err
	}
	tag := Kind(tagByte)
	switch tag {
	case KindEndOfChunk:
		d.chunkLocalRecordPos = 0
		if err := d.stream.ReadGetNextChunk(); err != nil {
			return err
		}
		return nil
	case KindEndOfFile:
		return errcode.ErrIndexOutOfBounds
	case KindAttributeList:
		if err := d.decodeAttributeList(d.scratch); err != nil {
			return err
		}
		d.scratch.RemoveAll()
		d.chunkLocalRecordPos++
		return nil
	default:
		if _, err := d.decodePayload(tag, ts); err != nil {
			return err
		}
		d.chunkLocalRecordPos++
		d.globalEventPos++
		return nil
	}
}
