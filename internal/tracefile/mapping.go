package tracefile

import (
	"encoding/binary"
	"io"
	"os"
	"path/filepath"

	"evtrace/internal/format"
	"evtrace/internal/loc"
)

const mappingVersion = 1

// mappingEntrySize is the fixed width of one (local, global) pair: two
// little-endian u32s, the same fixed-width-entry discipline as the
// teacher's key_dict.go dictionary entries, simplified since both fields
// here are already fixed-width (no embedded string length to frame).
const mappingEntrySize = 4 + 4

func refKindFileName(k loc.RefKind) (string, error) {
	switch k {
	case loc.RefRegion:
		return "region.map", nil
	case loc.RefMetric:
		return "metric.map", nil
	case loc.RefComm:
		return "comm.map", nil
	case loc.RefParameter:
		return "parameter.map", nil
	case loc.RefRmaWin:
		return "rma_win.map", nil
	case loc.RefString:
		return "string.map", nil
	case loc.RefGroup:
		return "group.map", nil
	case loc.RefIoFile:
		return "io_file.map", nil
	case loc.RefIoHandle:
		return "io_handle.map", nil
	case loc.RefCallingContext:
		return "calling_context.map", nil
	case loc.RefInterruptGenerator:
		return "interrupt_generator.map", nil
	default:
		return "", errUnknownKind
	}
}

// LoadMapping reads dir/<kind>.map into an IdMap. A missing file yields an
// empty IdMap, so every lookup falls back to its local id unchanged.
func LoadMapping(dir string, kind loc.RefKind) (*loc.IdMap, error) {
	name, err := refKindFileName(kind)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return loc.NewIdMap(nil), nil
		}
		return nil, err
	}
	defer f.Close()

	var hdr [format.HeaderSize]byte
	if _, err := io.ReadFull(f, hdr[:]); err != nil {
		if err == io.EOF {
			return loc.NewIdMap(nil), nil
		}
		return nil, err
	}
	if _, err := format.DecodeAndValidate(hdr[:], format.TypeMapping, mappingVersion); err != nil {
		return nil, err
	}

	table := make(map[uint32]uint32)
	entry := make([]byte, mappingEntrySize)
	for {
		if _, err := io.ReadFull(f, entry); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			return nil, err
		}
		local := binary.LittleEndian.Uint32(entry[0:4])
		global := binary.LittleEndian.Uint32(entry[4:8])
		table[local] = global
	}
	return loc.NewIdMap(table), nil
}
