// Package decoder implements the per-location streaming event decoder: the
// state machine that walks a ChunkStream, decodes one (timestamp, kind,
// payload) tuple per step, applies id remapping and clock correction, and
// either stages the result for the merger or dispatches it to a
// CallbackTable.
package decoder

import (
	"fmt"

	"evtrace/internal/loc"
)

// Kind is the closed set of event and control tags a decoder can dispatch
// on. Control tags (EndOfFile, EndOfChunk, AttributeList) never reach a
// callback; they drive the decoder's own state machine.
type Kind uint8

const (
	KindEndOfFile     Kind = 0x00
	KindEndOfChunk    Kind = 0x01
	KindAttributeList Kind = 0x04

	// Event kinds. Tag values start at 0x05, contiguous in declaration
	// order; the exact numbering only needs to stay self-consistent
	// between encoder and decoder.
	KindEnter Kind = iota + 0x05 - 3
	KindLeave
	KindMpiSend
	KindMpiIsend
	KindMpiIsendComplete
	KindMpiIrecvRequest
	KindMpiRecv
	KindMpiIrecv
	KindMpiRequestTest
	KindMpiRequestCancelled
	KindMpiCollectiveBegin
	KindMpiCollectiveEnd
	KindOmpFork
	KindOmpJoin
	KindOmpAcquireLock
	KindOmpReleaseLock
	KindOmpTaskCreate
	KindOmpTaskSwitch
	KindOmpTaskComplete
	KindMetric
	KindParameterString
	KindParameterInt
	KindParameterUnsignedInt
	KindRmaWinCreate
	KindRmaWinDestroy
	KindRmaCollectiveBegin
	KindRmaCollectiveEnd
	KindRmaGroupSync
	KindRmaRequestLock
	KindRmaAcquireLock
	KindRmaTryLock
	KindRmaReleaseLock
	KindRmaSync
	KindRmaWaitChange
	KindRmaPut
	KindRmaGet
	KindRmaAtomic
	KindRmaOpCompleteBlocking
	KindRmaOpCompleteNonBlocking
	KindRmaOpCompleteTest
	KindRmaOpCompleteRemote
	KindThreadFork
	KindThreadJoin
	KindThreadTeamBegin
	KindThreadTeamEnd
	KindThreadAcquireLock
	KindThreadReleaseLock
	KindThreadTaskCreate
	KindThreadTaskSwitch
	KindThreadTaskComplete
	KindThreadCreate
	KindThreadBegin
	KindThreadWait
	KindThreadEnd
	KindCallingContextEnter
	KindCallingContextLeave
	KindCallingContextSample
	KindIoCreateHandle
	KindIoDestroyHandle
	KindIoDuplicateHandle
	KindIoSeek
	KindIoChangeStatusFlags
	KindIoDeleteFile
	KindIoOperationBegin
	KindIoOperationTest
	KindIoOperationIssued
	KindIoOperationComplete
	KindIoOperationCancelled
	KindIoAcquireLock
	KindIoReleaseLock
	KindIoTryLock
	KindProgramBegin
	KindProgramEnd
	KindBufferFlush
	KindMeasurementOnOff
)

// kindNames is consulted by String; a Kind absent from it prints as its raw
// tag value.
var kindNames = map[Kind]string{
	KindEndOfFile:     "EndOfFile",
	KindEndOfChunk:    "EndOfChunk",
	KindAttributeList: "AttributeList",

	KindEnter: "Enter",
	KindLeave: "Leave",

	KindMpiSend:             "MpiSend",
	KindMpiIsend:            "MpiIsend",
	KindMpiIsendComplete:    "MpiIsendComplete",
	KindMpiIrecvRequest:     "MpiIrecvRequest",
	KindMpiRecv:             "MpiRecv",
	KindMpiIrecv:            "MpiIrecv",
	KindMpiRequestTest:      "MpiRequestTest",
	KindMpiRequestCancelled: "MpiRequestCancelled",
	KindMpiCollectiveBegin:  "MpiCollectiveBegin",
	KindMpiCollectiveEnd:    "MpiCollectiveEnd",

	KindOmpFork:         "OmpFork",
	KindOmpJoin:         "OmpJoin",
	KindOmpAcquireLock:  "OmpAcquireLock",
	KindOmpReleaseLock:  "OmpReleaseLock",
	KindOmpTaskCreate:   "OmpTaskCreate",
	KindOmpTaskSwitch:   "OmpTaskSwitch",
	KindOmpTaskComplete: "OmpTaskComplete",

	KindMetric:               "Metric",
	KindParameterString:      "ParameterString",
	KindParameterInt:         "ParameterInt",
	KindParameterUnsignedInt: "ParameterUnsignedInt",

	KindRmaWinCreate:            "RmaWinCreate",
	KindRmaWinDestroy:           "RmaWinDestroy",
	KindRmaCollectiveBegin:      "RmaCollectiveBegin",
	KindRmaCollectiveEnd:        "RmaCollectiveEnd",
	KindRmaGroupSync:            "RmaGroupSync",
	KindRmaRequestLock:          "RmaRequestLock",
	KindRmaAcquireLock:          "RmaAcquireLock",
	KindRmaTryLock:              "RmaTryLock",
	KindRmaReleaseLock:          "RmaReleaseLock",
	KindRmaSync:                 "RmaSync",
	KindRmaWaitChange:           "RmaWaitChange",
	KindRmaPut:                  "RmaPut",
	KindRmaGet:                  "RmaGet",
	KindRmaAtomic:               "RmaAtomic",
	KindRmaOpCompleteBlocking:   "RmaOpCompleteBlocking",
	KindRmaOpCompleteNonBlocking: "RmaOpCompleteNonBlocking",
	KindRmaOpCompleteTest:       "RmaOpCompleteTest",
	KindRmaOpCompleteRemote:     "RmaOpCompleteRemote",

	KindThreadFork:         "ThreadFork",
	KindThreadJoin:         "ThreadJoin",
	KindThreadTeamBegin:    "ThreadTeamBegin",
	KindThreadTeamEnd:      "ThreadTeamEnd",
	KindThreadAcquireLock:  "ThreadAcquireLock",
	KindThreadReleaseLock:  "ThreadReleaseLock",
	KindThreadTaskCreate:   "ThreadTaskCreate",
	KindThreadTaskSwitch:   "ThreadTaskSwitch",
	KindThreadTaskComplete: "ThreadTaskComplete",
	KindThreadCreate:       "ThreadCreate",
	KindThreadBegin:        "ThreadBegin",
	KindThreadWait:         "ThreadWait",
	KindThreadEnd:          "ThreadEnd",

	KindCallingContextEnter:  "CallingContextEnter",
	KindCallingContextLeave:  "CallingContextLeave",
	KindCallingContextSample: "CallingContextSample",

	KindIoCreateHandle:      "IoCreateHandle",
	KindIoDestroyHandle:     "IoDestroyHandle",
	KindIoDuplicateHandle:   "IoDuplicateHandle",
	KindIoSeek:              "IoSeek",
	KindIoChangeStatusFlags: "IoChangeStatusFlags",
	KindIoDeleteFile:        "IoDeleteFile",
	KindIoOperationBegin:    "IoOperationBegin",
	KindIoOperationTest:     "IoOperationTest",
	KindIoOperationIssued:   "IoOperationIssued",
	KindIoOperationComplete: "IoOperationComplete",
	KindIoOperationCancelled: "IoOperationCancelled",
	KindIoAcquireLock:       "IoAcquireLock",
	KindIoReleaseLock:       "IoReleaseLock",
	KindIoTryLock:           "IoTryLock",

	KindProgramBegin:     "ProgramBegin",
	KindProgramEnd:       "ProgramEnd",
	KindBufferFlush:      "BufferFlush",
	KindMeasurementOnOff: "MeasurementOnOff",
}

// String implements fmt.Stringer, used by CLI output and log messages.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(0x%02x)", uint8(k))
}

// Framing distinguishes the two wire record shapes.
type Framing uint8

const (
	// FramingSingleton: a single varint payload field, no length prefix.
	FramingSingleton Framing = iota
	// FramingLengthFramed: a byte-length prefix, then fields; the cursor is
	// forced to record_start+length after decoding, skipping any trailing
	// bytes a newer producer may have appended.
	FramingLengthFramed
)

// FieldType names the wire representation of one scalar field.
type FieldType uint8

const (
	FieldU8 FieldType = iota
	FieldU32V
	FieldU64V
	FieldI64V
	FieldF32
	FieldF64
)

// FieldSpec describes one positional field in a Schema.
type FieldSpec struct {
	Name   string
	Type   FieldType
	Ref    loc.RefKind
	HasRef bool
}

// Schema describes one Kind's wire shape. Opaque kinds have no named field
// layout; the decoder still frames and skips them correctly, but does not
// claim to interpret their fields.
type Schema struct {
	Framing Framing
	Fields  []FieldSpec
	Opaque  bool
	Dynamic bool // true only for Metric: field count depends on payload content
}

func ref(name string, k loc.RefKind) FieldSpec {
	return FieldSpec{Name: name, Type: FieldU32V, Ref: k, HasRef: true}
}

func field(name string, t FieldType) FieldSpec {
	return FieldSpec{Name: name, Type: t}
}

// schemas holds the wire shape for every Kind with a named field layout.
// Kinds absent from this map use the opaque fallback schema.
var schemas = map[Kind]Schema{
	KindEnter: {Framing: FramingSingleton, Fields: []FieldSpec{ref("region", loc.RefRegion)}},
	KindLeave: {Framing: FramingSingleton, Fields: []FieldSpec{ref("region", loc.RefRegion)}},

	KindMpiSend: {Framing: FramingLengthFramed, Fields: []FieldSpec{
		field("receiver", FieldU32V), ref("communicator", loc.RefComm),
		field("tag", FieldU32V), field("length", FieldU64V),
	}},
	KindMpiIsend: {Framing: FramingLengthFramed, Fields: []FieldSpec{
		field("receiver", FieldU32V), ref("communicator", loc.RefComm),
		field("tag", FieldU32V), field("length", FieldU64V), field("request_id", FieldU64V),
	}},
	KindMpiIsendComplete: {Framing: FramingSingleton, Fields: []FieldSpec{field("request_id", FieldU64V)}},
	KindMpiIrecvRequest:  {Framing: FramingSingleton, Fields: []FieldSpec{field("request_id", FieldU64V)}},
	KindMpiRecv: {Framing: FramingLengthFramed, Fields: []FieldSpec{
		field("sender", FieldU32V), ref("communicator", loc.RefComm),
		field("tag", FieldU32V), field("length", FieldU64V),
	}},
	KindMpiIrecv: {Framing: FramingLengthFramed, Fields: []FieldSpec{
		field("sender", FieldU32V), ref("communicator", loc.RefComm),
		field("tag", FieldU32V), field("length", FieldU64V), field("request_id", FieldU64V),
	}},
	KindMpiRequestTest:      {Framing: FramingSingleton, Fields: []FieldSpec{field("request_id", FieldU64V)}},
	KindMpiRequestCancelled: {Framing: FramingSingleton, Fields: []FieldSpec{field("request_id", FieldU64V)}},
	KindMpiCollectiveBegin:  {Framing: FramingLengthFramed, Fields: nil},
	KindMpiCollectiveEnd: {Framing: FramingLengthFramed, Fields: []FieldSpec{
		field("op", FieldU8), ref("communicator", loc.RefComm), field("root", FieldU32V),
		field("sent", FieldU64V), field("received", FieldU64V),
	}},

	KindOmpFork: {Framing: FramingLengthFramed, Fields: []FieldSpec{
		field("model", FieldU8), field("team_size", FieldU32V),
	}},
	KindOmpTaskCreate:  {Framing: FramingSingleton, Fields: []FieldSpec{field("task_id", FieldU64V)}},
	KindOmpTaskSwitch:  {Framing: FramingSingleton, Fields: []FieldSpec{field("task_id", FieldU64V)}},
	KindOmpTaskComplete: {Framing: FramingSingleton, Fields: []FieldSpec{field("task_id", FieldU64V)}},

	KindMetric: {Framing: FramingLengthFramed, Dynamic: true, Fields: []FieldSpec{ref("metric", loc.RefMetric)}},

	KindParameterString: {Framing: FramingLengthFramed, Fields: []FieldSpec{
		ref("parameter", loc.RefParameter), ref("string", loc.RefString),
	}},

	KindRmaCollectiveEnd: {Framing: FramingLengthFramed, Fields: []FieldSpec{
		field("op", FieldU8), field("sync_level", FieldU32V), field("root", FieldU32V),
		ref("rma_win", loc.RefRmaWin), field("sent", FieldU64V), field("received", FieldU64V),
	}},

	// ThreadFork carries the same (model, team_size) pair as OmpFork, so
	// lowerToLegacy's field-count match succeeds for the ThreadFork ->
	// OmpFork conversion instead of always failing against an empty field
	// list.
	KindThreadFork: {Framing: FramingLengthFramed, Fields: []FieldSpec{
		field("model", FieldU8), field("team_size", FieldU32V),
	}},

	// CallingContextEnter/Leave only decode their leading calling_context
	// reference field; any trailing unwind_distance is skipped by the
	// forced end-of-record seek. A single-field record lets
	// lowerToLegacy's field-count match succeed for the
	// CallingContextEnter -> Enter and CallingContextLeave -> Leave
	// conversions, which otherwise always failed against Enter/Leave's
	// one-field region schema.
	KindCallingContextEnter: {Framing: FramingLengthFramed, Fields: []FieldSpec{
		ref("calling_context", loc.RefCallingContext),
	}},
	KindCallingContextLeave: {Framing: FramingLengthFramed, Fields: []FieldSpec{
		ref("calling_context", loc.RefCallingContext),
	}},
}

// schemaFor returns k's Schema, falling back to an opaque length-framed
// schema for kinds with no named field layout.
func schemaFor(k Kind) Schema {
	if s, ok := schemas[k]; ok {
		return s
	}
	return Schema{Framing: FramingLengthFramed, Opaque: true}
}

// SchemaFor exports schemaFor for callers outside this package that format
// a Record's fields by name, namely the CLI's dump command.
func SchemaFor(k Kind) Schema { return schemaFor(k) }
