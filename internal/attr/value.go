// Package attr implements AttributeValue and AttributeList: the typed
// key-value pairs a decoder attaches to the event immediately following an
// ATTRIBUTE_LIST record.
package attr

import (
	"fmt"
	"math"
)

// Kind discriminates an AttributeValue's payload type.
type Kind uint8

const (
	KindInt8 Kind = iota
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	// KindTypeClass carries the metric/type-kind enumeration used by Metric
	// and ParameterString/Int/UnsignedInt payloads.
	KindTypeClass

	// Reference kinds: the payload is a 32-bit id into a LocationContext
	// mapping table of the matching name (loc.RefKind's eleven families).
	KindRegion
	KindMetric
	KindComm
	KindParameter
	KindRmaWin
	KindString
	KindGroup
	KindIoFile
	KindIoHandle
	KindCallingContext
	KindInterruptGenerator
)

// IsReference reports whether k is one of the reference kinds whose payload
// is a mapping-table id rather than an inline scalar.
func (k Kind) IsReference() bool {
	return k >= KindRegion && k <= KindInterruptGenerator
}

// Value is a tagged union over Kind's scalar and reference payloads. Unlike
// a packed C union, it keeps separate int64/float64 fields rather than
// reinterpreting raw bits, since Go has no portable way to alias them
// without unsafe; the cost is a few unused bytes per value, not a
// correctness concern.
type Value struct {
	Kind Kind
	i    int64
	f    float64
}

func NewInt8(v int8) Value     { return Value{Kind: KindInt8, i: int64(v)} }
func NewInt16(v int16) Value   { return Value{Kind: KindInt16, i: int64(v)} }
func NewInt32(v int32) Value   { return Value{Kind: KindInt32, i: int64(v)} }
func NewInt64(v int64) Value   { return Value{Kind: KindInt64, i: v} }
func NewUint8(v uint8) Value   { return Value{Kind: KindUint8, i: int64(v)} }
func NewUint16(v uint16) Value { return Value{Kind: KindUint16, i: int64(v)} }
func NewUint32(v uint32) Value { return Value{Kind: KindUint32, i: int64(v)} }
func NewUint64(v uint64) Value { return Value{Kind: KindUint64, i: int64(v)} }
func NewFloat32(v float32) Value {
	return Value{Kind: KindFloat32, f: float64(v)}
}
func NewFloat64(v float64) Value   { return Value{Kind: KindFloat64, f: v} }
func NewTypeClass(v uint8) Value   { return Value{Kind: KindTypeClass, i: int64(v)} }
func NewRef(kind Kind, id uint32) Value {
	return Value{Kind: kind, i: int64(id)}
}

// NewSigned boxes v under kind, for callers decoding a wire type tag whose
// declared width is only known at runtime (e.g. ATTRIBUTE_LIST entries).
func NewSigned(kind Kind, v int64) Value { return Value{Kind: kind, i: v} }

// NewUnsigned boxes v under kind; see NewSigned.
func NewUnsigned(kind Kind, v uint64) Value { return Value{Kind: kind, i: int64(v)} }

// Int returns the value as a signed integer, valid for the signed Kinds.
func (v Value) Int() int64 { return v.i }

// Uint returns the value as an unsigned integer, valid for the unsigned
// Kinds, KindTypeClass, and the reference Kinds (cast down via RefID).
func (v Value) Uint() uint64 { return uint64(v.i) }

// Float32 returns the value as a float32, valid for KindFloat32.
func (v Value) Float32() float32 { return float32(v.f) }

// Float64 returns the value as a float64, valid for KindFloat64.
func (v Value) Float64() float64 { return v.f }

// RefID returns the mapping-table id carried by a reference Kind.
func (v Value) RefID() uint32 { return uint32(v.i) }

// String implements fmt.Stringer for CLI and log output.
func (v Value) String() string {
	switch v.Kind {
	case KindFloat32:
		return fmt.Sprintf("%g", v.Float32())
	case KindFloat64:
		return fmt.Sprintf("%g", v.Float64())
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return fmt.Sprintf("%d", v.Int())
	default:
		if v.Kind.IsReference() {
			return fmt.Sprintf("#%d", v.RefID())
		}
		return fmt.Sprintf("%d", v.Uint())
	}
}

// encodedSize is the fixed scratch-storage footprint of any Value: one tag
// byte plus 8 payload bytes, regardless of the Kind's natural width. It is
// intentionally not varint-compressed: this is AttributeList's private node
// storage, not the wire format ATTRIBUTE_LIST records use.
const encodedSize = 9

func encodeValue(buf []byte, v Value) {
	buf[0] = byte(v.Kind)
	var bits uint64
	switch v.Kind {
	case KindFloat32, KindFloat64:
		bits = math.Float64bits(v.f)
	default:
		bits = uint64(v.i)
	}
	for i := 0; i < 8; i++ {
		buf[1+i] = byte(bits >> (56 - 8*i))
	}
}

func decodeValue(buf []byte) Value {
	kind := Kind(buf[0])
	var bits uint64
	for i := 0; i < 8; i++ {
		bits = bits<<8 | uint64(buf[1+i])
	}
	switch kind {
	case KindFloat32, KindFloat64:
		return Value{Kind: kind, f: math.Float64frombits(bits)}
	default:
		return Value{Kind: kind, i: int64(bits)}
	}
}
