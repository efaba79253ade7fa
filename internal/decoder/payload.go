package decoder

import (
	"evtrace/internal/attr"
	"evtrace/internal/errcode"
	"evtrace/internal/evtio"
	"evtrace/internal/loc"
)

// refAttrKind maps a LocationContext reference family to the matching
// attr.Kind so a decoded reference field can carry its family alongside its
// remapped id.
func refAttrKind(k loc.RefKind) attr.Kind {
	switch k {
	case loc.RefRegion:
		return attr.KindRegion
	case loc.RefMetric:
		return attr.KindMetric
	case loc.RefComm:
		return attr.KindComm
	case loc.RefParameter:
		return attr.KindParameter
	case loc.RefRmaWin:
		return attr.KindRmaWin
	case loc.RefString:
		return attr.KindString
	case loc.RefGroup:
		return attr.KindGroup
	case loc.RefIoFile:
		return attr.KindIoFile
	case loc.RefIoHandle:
		return attr.KindIoHandle
	case loc.RefCallingContext:
		return attr.KindCallingContext
	case loc.RefInterruptGenerator:
		return attr.KindInterruptGenerator
	default:
		return attr.KindUint32
	}
}

func (d *EventDecoder) readField(fs FieldSpec) (attr.Value, error) {
	switch fs.Type {
	case FieldU8:
		v, err := d.stream.ReadU8()
		if err != nil {
			return attr.Value{}, err
		}
		return attr.NewUint8(v), nil
	case FieldU32V:
		v, err := d.stream.ReadU32V()
		if err != nil {
			return attr.Value{}, err
		}
		if fs.HasRef {
			v = d.remap(fs.Ref, v)
			return attr.NewRef(refAttrKind(fs.Ref), v), nil
		}
		return attr.NewUint32(v), nil
	case FieldU64V:
		v, err := d.stream.ReadU64V()
		if err != nil {
			return attr.Value{}, err
		}
		return attr.NewUint64(v), nil
	case FieldI64V:
		v, err := d.stream.ReadI64V()
		if err != nil {
			return attr.Value{}, err
		}
		return attr.NewInt64(v), nil
	case FieldF32:
		v, err := d.stream.ReadF32()
		if err != nil {
			return attr.Value{}, err
		}
		return attr.NewFloat32(v), nil
	case FieldF64:
		v, err := d.stream.ReadF64()
		if err != nil {
			return attr.Value{}, err
		}
		return attr.NewFloat64(v), nil
	default:
		return attr.Value{}, errcode.ErrInvalid
	}
}

// metricValueTag values for Metric's dynamic per-entry type byte. Local to
// this decoder; distinct from attr.Kind, since the wire only distinguishes
// three storage representations here.
const (
	metricValueUint64 = 0
	metricValueInt64  = 1
	metricValueFloat64 = 2
)

func (d *EventDecoder) readMetricValue(typeTag uint8) (attr.Value, error) {
	switch typeTag {
	case metricValueUint64:
		v, err := d.stream.ReadU64V()
		return attr.NewUint64(v), err
	case metricValueInt64:
		v, err := d.stream.ReadI64V()
		return attr.NewInt64(v), err
	case metricValueFloat64:
		v, err := d.stream.ReadF64()
		return attr.NewFloat64(v), err
	default:
		return attr.Value{}, errcode.ErrIntegrityFault
	}
}

// decodePayload decodes tag's payload (already past the tag byte) and
// returns the assembled Record, forcing the cursor to the announced record
// end for length-framed kinds regardless of how many fields this decoder
// understands, so an unrecognized future field layout can't desync the
// stream.
func (d *EventDecoder) decodePayload(tag Kind, ts uint64) (Record, error) {
	schema := schemaFor(tag)

	var payloadStart evtio.Position
	var length uint32
	if schema.Framing == FramingLengthFramed {
		l, err := d.stream.GuaranteeRecord()
		if err != nil {
			return Record{}, err
		}
		length = l
		payloadStart = d.stream.GetPosition()
	} else {
		if err := d.stream.GuaranteeCompressed(); err != nil {
			return Record{}, err
		}
	}

	var fields []attr.Value
	switch {
	case schema.Opaque:
		// Fields intentionally left empty; the forced seek below still
		// advances past the payload correctly.
	case schema.Dynamic:
		metricID, err := d.stream.ReadU32V()
		if err != nil {
			return Record{}, err
		}
		metricID = d.remap(loc.RefMetric, metricID)
		fields = append(fields, attr.NewRef(attr.KindMetric, metricID))
		n, err := d.stream.ReadU8()
		if err != nil {
			return Record{}, err
		}
		for i := 0; i < int(n); i++ {
			typeTag, err := d.stream.ReadU8()
			if err != nil {
				return Record{}, err
			}
			v, err := d.readMetricValue(typeTag)
			if err != nil {
				return Record{}, err
			}
			fields = append(fields, v)
		}
	default:
		for _, fs := range schema.Fields {
			v, err := d.readField(fs)
			if err != nil {
				return Record{}, err
			}
			fields = append(fields, v)
		}
	}

	if schema.Framing == FramingLengthFramed {
		d.stream.SetPosition(payloadStart + evtio.Position(length))
	}

	return Record{Kind: tag, Time: d.applyClockCorrection(ts), Fields: fields}, nil
}
