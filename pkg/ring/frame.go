package ring

import "encoding/binary"

// span splits a cursor-relative length into the contiguous run up to the end
// of the data region and the wrapped remainder that continues at offset 0,
// per spec.md §4.3:
//
//	first = min(len, S - (cursor & (S-1)))
//	remainder: len - first bytes at offset 0
func span(cursor uint64, length int, ringSize uint64) (first, second int) {
	idx := int(cursor & (ringSize - 1))
	toEnd := int(ringSize) - idx
	if length <= toEnd {
		return length, 0
	}
	return toEnd, length - toEnd
}

// writeAt writes src into the data region at cursor, wrapping as needed. It
// never touches head/tail.
func writeAt(data []byte, cursor uint64, src []byte, ringSize uint64) {
	idx := int(cursor & (ringSize - 1))
	first, second := span(cursor, len(src), ringSize)
	copy(data[idx:idx+first], src[:first])
	if second > 0 {
		copy(data[:second], src[first:])
	}
}

// readAt reads len(dst) bytes from the data region starting at cursor,
// wrapping as needed. It never touches head/tail.
func readAt(data []byte, cursor uint64, dst []byte, ringSize uint64) {
	idx := int(cursor & (ringSize - 1))
	first, second := span(cursor, len(dst), ringSize)
	copy(dst[:first], data[idx:idx+first])
	if second > 0 {
		copy(dst[first:], data[:second])
	}
}

// encodeHeader writes h as 16 little-endian bytes into buf (len(buf) >= 16).
func encodeHeader(buf []byte, h Header) {
	binary.LittleEndian.PutUint16(buf[0:2], uint16(h.Type))
	binary.LittleEndian.PutUint16(buf[2:4], h.Flags)
	binary.LittleEndian.PutUint32(buf[4:8], h.Len)
	binary.LittleEndian.PutUint64(buf[8:16], h.TsNS)
}

// decodeHeader parses 16 little-endian bytes from buf into a Header.
func decodeHeader(buf []byte) Header {
	return Header{
		Type:  RecordType(binary.LittleEndian.Uint16(buf[0:2])),
		Flags: binary.LittleEndian.Uint16(buf[2:4]),
		Len:   binary.LittleEndian.Uint32(buf[4:8]),
		TsNS:  binary.LittleEndian.Uint64(buf[8:16]),
	}
}

// encodeDropPayload writes p as 20 little-endian bytes into buf.
func encodeDropPayload(buf []byte, p DropPayload) {
	binary.LittleEndian.PutUint32(buf[0:4], p.Lost)
	binary.LittleEndian.PutUint64(buf[4:12], p.StartNS)
	binary.LittleEndian.PutUint64(buf[12:20], p.EndNS)
}

// decodeDropPayload parses 20 little-endian bytes from buf into a DropPayload.
func decodeDropPayload(buf []byte) DropPayload {
	return DropPayload{
		Lost:    binary.LittleEndian.Uint32(buf[0:4]),
		StartNS: binary.LittleEndian.Uint64(buf[4:12]),
		EndNS:   binary.LittleEndian.Uint64(buf[12:20]),
	}
}

// writeHeaderAt writes a record header at cursor, wrapping as needed.
func writeHeaderAt(data []byte, cursor uint64, h Header, ringSize uint64) {
	var buf [HeaderSize]byte
	encodeHeader(buf[:], h)
	writeAt(data, cursor, buf[:], ringSize)
}

// readHeaderAt reads and decodes a record header at cursor, wrapping as needed.
func readHeaderAt(data []byte, cursor uint64, ringSize uint64) Header {
	var buf [HeaderSize]byte
	readAt(data, cursor, buf[:], ringSize)
	return decodeHeader(buf[:])
}
