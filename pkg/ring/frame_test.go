package ring

import "testing"

func TestSpanNoWrap(t *testing.T) {
	first, second := span(10, 5, 64)
	if first != 5 || second != 0 {
		t.Fatalf("got (%d,%d), want (5,0)", first, second)
	}
}

func TestSpanWraps(t *testing.T) {
	// cursor=60, size=64 -> 4 bytes to end, wants 22 total -> (4, 18)
	first, second := span(60, 22, 64)
	if first != 4 || second != 18 {
		t.Fatalf("got (%d,%d), want (4,18)", first, second)
	}
}

func TestWriteReadAtRoundTripWrapped(t *testing.T) {
	data := make([]byte, 64)
	src := []byte("0123456789abcdefghij") // 20 bytes
	writeAt(data, 60, src, 64)

	dst := make([]byte, len(src))
	readAt(data, 60, dst, 64)
	if string(dst) != string(src) {
		t.Fatalf("got %q, want %q", dst, src)
	}
}

func TestHeaderEncodeDecodeRoundTrip(t *testing.T) {
	h := Header{Type: RecordPKT, Flags: 0x0102, Len: 99, TsNS: 1234567890}
	var buf [HeaderSize]byte
	encodeHeader(buf[:], h)
	got := decodeHeader(buf[:])
	if got != h {
		t.Fatalf("got %+v, want %+v", got, h)
	}
}

func TestHeaderWrapsAcrossBoundary(t *testing.T) {
	data := make([]byte, 64)
	h := Header{Type: RecordDROP, Flags: 0, Len: DropPayloadSize, TsNS: 42}
	writeHeaderAt(data, 60, h, 64)
	got := readHeaderAt(data, 60, 64)
	if got != h {
		t.Fatalf("got %+v, want %+v", got, h)
	}
}

func TestDropPayloadEncodeDecodeRoundTrip(t *testing.T) {
	p := DropPayload{Lost: 7, StartNS: 100, EndNS: 200}
	var buf [DropPayloadSize]byte
	encodeDropPayload(buf[:], p)
	got := decodeDropPayload(buf[:])
	if got != p {
		t.Fatalf("got %+v, want %+v", got, p)
	}
}
