// Package varint implements the compact "…v" integer encoding used
// throughout event records: a one-byte length prefix followed by that many
// big-endian value bytes, with 0xFF reserved to mean "the next eight bytes
// are the full value, little-endian".
package varint

import (
	"encoding/binary"
	"io"

	"evtrace/internal/errcode"
)

// escapeMarker is the length-byte value meaning "skip the compact form,
// the next 8 bytes are the whole value, little-endian".
const escapeMarker = 0xFF

// ReadUint decodes a uK varint from r, where maxBytes is K in bytes (4 for
// u32v, 8 for u64v). It returns errcode.ErrIntegrityFault if the stream
// claims a length longer than maxBytes.
func ReadUint(r io.ByteReader, maxBytes int) (uint64, error) {
	l, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	if l == escapeMarker {
		var buf [8]byte
		for i := range buf {
			b, err := r.ReadByte()
			if err != nil {
				return 0, err
			}
			buf[i] = b
		}
		return binary.LittleEndian.Uint64(buf[:]), nil
	}
	length := int(l)
	if length > maxBytes {
		return 0, errcode.ErrIntegrityFault
	}
	var v uint64
	for i := 0; i < length; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		v = v<<8 | uint64(b)
	}
	return v, nil
}

// ReadInt decodes an iK varint from r with sign extension from the
// announced byte length.
func ReadInt(r io.ByteReader, maxBytes int) (int64, error) {
	l, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	if l == escapeMarker {
		var buf [8]byte
		for i := range buf {
			b, err := r.ReadByte()
			if err != nil {
				return 0, err
			}
			buf[i] = b
		}
		return int64(binary.LittleEndian.Uint64(buf[:])), nil
	}
	length := int(l)
	if length > maxBytes {
		return 0, errcode.ErrIntegrityFault
	}
	var v uint64
	for i := 0; i < length; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		v = v<<8 | uint64(b)
	}
	return signExtend(v, length), nil
}

func signExtend(v uint64, byteLen int) int64 {
	if byteLen == 0 || byteLen >= 8 {
		return int64(v)
	}
	shift := uint(64 - byteLen*8)
	return int64(v<<shift) >> shift
}

// AppendUint appends the minimal-length varint encoding of v to dst.
func AppendUint(dst []byte, v uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	i := 0
	for i < 8 && buf[i] == 0 {
		i++
	}
	dst = append(dst, byte(8-i))
	return append(dst, buf[i:]...)
}

// AppendInt appends the minimal-length varint encoding of v to dst, choosing
// the shortest byte length whose sign-extension reproduces v exactly.
func AppendInt(dst []byte, v int64) []byte {
	u := uint64(v)
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], u)
	for length := 0; length < 8; length++ {
		off := 8 - length
		var tail uint64
		for _, b := range buf[off:] {
			tail = tail<<8 | uint64(b)
		}
		if signExtend(tail, length) == v {
			dst = append(dst, byte(length))
			return append(dst, buf[off:]...)
		}
	}
	dst = append(dst, 8)
	return append(dst, buf[:]...)
}
