package decoder

import (
	"evtrace/internal/attr"
	"evtrace/internal/errcode"
	"evtrace/internal/loc"
)

func refKindForAttrKind(k attr.Kind) (loc.RefKind, bool) {
	switch k {
	case attr.KindRegion:
		return loc.RefRegion, true
	case attr.KindMetric:
		return loc.RefMetric, true
	case attr.KindComm:
		return loc.RefComm, true
	case attr.KindParameter:
		return loc.RefParameter, true
	case attr.KindRmaWin:
		return loc.RefRmaWin, true
	case attr.KindString:
		return loc.RefString, true
	case attr.KindGroup:
		return loc.RefGroup, true
	case attr.KindIoFile:
		return loc.RefIoFile, true
	case attr.KindIoHandle:
		return loc.RefIoHandle, true
	case attr.KindCallingContext:
		return loc.RefCallingContext, true
	case attr.KindInterruptGenerator:
		return loc.RefInterruptGenerator, true
	default:
		return 0, false
	}
}

// decodeAttributeValue reads one (type_tag-determined) payload. Integer
// payloads are read through the same varint accessors as event fields
// regardless of the tag's declared width; only the Kind carried alongside
// the Value records that width, since Value stores every integer as a
// 64-bit quantity internally.
func (d *EventDecoder) decodeAttributeValue(tag attr.Kind) (attr.Value, error) {
	switch tag {
	case attr.KindInt8, attr.KindInt16, attr.KindInt32, attr.KindInt64:
		v, err := d.stream.ReadI64V()
		if err != nil {
			return attr.Value{}, err
		}
		return attr.NewSigned(tag, v), nil
	case attr.KindUint8, attr.KindUint16, attr.KindUint32, attr.KindUint64, attr.KindTypeClass:
		v, err := d.stream.ReadU64V()
		if err != nil {
			return attr.Value{}, err
		}
		return attr.NewUnsigned(tag, v), nil
	case attr.KindFloat32:
		v, err := d.stream.ReadF32()
		if err != nil {
			return attr.Value{}, err
		}
		return attr.NewFloat32(v), nil
	case attr.KindFloat64:
		v, err := d.stream.ReadF64()
		if err != nil {
			return attr.Value{}, err
		}
		return attr.NewFloat64(v), nil
	default:
		refKind, ok := refKindForAttrKind(tag)
		if !ok {
			return attr.Value{}, errcode.ErrIntegrityFault
		}
		id, err := d.stream.ReadU32V()
		if err != nil {
			return attr.Value{}, err
		}
		return attr.NewRef(tag, d.remap(refKind, id)), nil
	}
}

// decodeAttributeList reads an ATTRIBUTE_LIST record's payload, a
// length-prefixed array of (attribute_id, type_tag, payload), into dst.
// The record describes the event immediately following it; the caller is
// responsible for recursing back into the main dispatch loop afterward.
func (d *EventDecoder) decodeAttributeList(dst *attr.List) error {
	n, err := d.stream.ReadU32V()
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		id, err := d.stream.ReadU32V()
		if err != nil {
			return err
		}
		typeTag, err := d.stream.ReadU8()
		if err != nil {
			return err
		}
		v, err := d.decodeAttributeValue(attr.Kind(typeTag))
		if err != nil {
			return err
		}
		if err := dst.Add(id, v); err != nil {
			return err
		}
	}
	return nil
}
