package ring

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// newTestRing builds a Ring directly over an in-process memRegion, bypassing
// New's page-aligned minimum-size gate so tests can exercise the wire
// protocol at the small scales spec.md §8's literal scenarios use (S=64
// etc.); see newUnchecked.
func newTestRing(t *testing.T, size int, hiPct, loPct uint32) *Ring {
	t.Helper()
	r, err := newUnchecked(newMemRegion(size), Config{HiPct: hiPct, LoPct: loPct})
	require.NoError(t, err)
	return r
}

// Scenario 1 (spec.md §8): single packet round trip.
func TestSinglePacketRoundTrip(t *testing.T) {
	r := newTestRing(t, 64, 50, 25)
	n := newChanNotifier()
	r.BindNotifier(n)

	ok := r.Push([]byte{0xAA, 0xBB}, 1000)
	require.True(t, ok)
	require.Equal(t, uint64(18), r.cb.loadHeadAcquire())

	var got Record
	c := NewConsumer(r, n)
	n.Signal() // deterministic wake for this single-shot drain
	require.NoError(t, c.drainOnce(&got))

	require.Equal(t, RecordPKT, got.Type)
	require.Equal(t, uint64(1000), got.TsNS)
	require.True(t, cmp.Equal([]byte{0xAA, 0xBB}, got.Payload))

	stats := r.GetStats()
	require.Equal(t, uint64(18), stats.Head)
	require.Equal(t, uint64(18), stats.Tail)
	require.False(t, n.Readable()) // 18 bytes used at peak < 32-byte hi threshold, and level semantics use Ring.Readable below
	require.False(t, r.Readable())
}

// Scenario 2 (spec.md §8): wrap-around.
func TestWrapAroundDecode(t *testing.T) {
	r := newTestRing(t, 64, 50, 25)
	r.cb.releaseHead(60)
	r.cb.releaseTail(60)

	payload := []byte{1, 2, 3, 4, 5, 6}
	ok := r.Push(payload, 4242)
	require.True(t, ok)
	require.Equal(t, uint64(82), r.cb.loadHeadAcquire()) // 60 + 22

	// First four header bytes (type=1 LE, flags=0 LE) land at the tail of
	// the data region before the wrap.
	require.Equal(t, byte(1), r.data[60])
	require.Equal(t, byte(0), r.data[61])
	require.Equal(t, byte(0), r.data[62])
	require.Equal(t, byte(0), r.data[63])

	n := newChanNotifier()
	c := NewConsumer(r, n)
	var got Record
	n.Signal()
	require.NoError(t, c.drainOnce(&got))
	require.Equal(t, RecordPKT, got.Type)
	require.Equal(t, uint64(4242), got.TsNS)
	require.Equal(t, payload, got.Payload)
	require.Equal(t, uint64(82), r.cb.loadTailAcquire())
}

// Scenario 3 (spec.md §8): a burst of failed reservations coalesces into one
// DROP record immediately preceding the next committed PKT.
func TestDropBurstCoalescing(t *testing.T) {
	r := newTestRing(t, 64, 50, 25)
	r.cb.releaseHead(60)
	r.cb.releaseTail(0) // 60 bytes used, 4 free

	payload20 := make([]byte, 4) // header(16) + 4 = 20 bytes total
	for i := 0; i < 4; i++ {
		ok := r.Push(payload20, uint64(1000+i))
		require.False(t, ok, "attempt %d should fail: only 4 bytes free", i)
	}
	require.True(t, r.cb.dropping())
	lost, _ := r.cb.burstSnapshot()
	require.Equal(t, uint64(4), lost)

	// Drain everything so the ring is fully empty again.
	r.cb.releaseTail(r.cb.loadHeadAcquire())

	ok := r.Push(payload20, 5000)
	require.True(t, ok)
	require.False(t, r.cb.dropping())

	n := newChanNotifier()
	c := NewConsumer(r, n)

	var drop Record
	n.Signal()
	require.NoError(t, c.drainOnce(&drop))
	require.Equal(t, RecordDROP, drop.Type)
	dp := DecodeDropPayload(drop.Payload)
	require.Equal(t, uint32(4), dp.Lost)

	var pkt Record
	n.Signal()
	require.NoError(t, c.drainOnce(&pkt))
	require.Equal(t, RecordPKT, pkt.Type)
	require.Equal(t, uint64(5000), pkt.TsNS)

	stats := r.GetStats()
	require.Equal(t, uint64(4), stats.Drops)
}

// Scenario 4 (spec.md §8): watermark hysteresis, tested against the pure
// state machine directly since the example's S=100 is not a power of two.
func TestWatermarkHysteresis(t *testing.T) {
	const size = 100
	w := &watermark{}

	require.False(t, w.onHeadRelease(49, size, 50))
	require.True(t, w.onHeadRelease(51, size, 50))
	require.False(t, w.onHeadRelease(80, size, 50)) // already above, no further signal

	w.onTailRelease(30, size, 25) // still above lo, no change
	require.True(t, w.aboveHi)
	w.onTailRelease(24, size, 25) // crosses lo, cleared, no signal returned
	require.False(t, w.aboveHi)

	require.True(t, w.onHeadRelease(60, size, 50))
}

// Scenario 5 (spec.md §8): exact fill is full, not empty.
func TestExactFillIsFull(t *testing.T) {
	r := newTestRing(t, 64, 50, 25)
	payload := make([]byte, 48) // 16 + 48 == 64
	ok := r.Push(payload, 1)
	require.True(t, ok)

	stats := r.GetStats()
	require.Equal(t, uint64(64), stats.Head-stats.Tail)

	_, ok2 := r.tryReserve(1)
	require.False(t, ok2, "ring at exact fill must reject any further reservation")
}

// Scenario 6 (spec.md §8): Reset during idle.
func TestResetDuringIdle(t *testing.T) {
	r := newTestRing(t, 4096, 50, 25)
	for i := 0; i < 10; i++ {
		require.True(t, r.Push([]byte{byte(i)}, uint64(i)))
	}

	n := newChanNotifier()
	c := NewConsumer(r, n)
	for i := 0; i < 5; i++ {
		var rec Record
		n.Signal()
		require.NoError(t, c.drainOnce(&rec))
	}

	r.Reset()

	stats := r.GetStats()
	require.Zero(t, stats.Head)
	require.Zero(t, stats.Tail)
	require.Zero(t, stats.Records)
	require.False(t, r.cb.dropping())
}

// spec.md §6: ring_order is page-aligned, so New must reject a data region
// smaller than PageSize even though it is a valid power of two, the same
// range New's own ValidateDataSize enforces for shm.Create.
func TestNewRejectsSubPageSize(t *testing.T) {
	_, err := New(newMemRegion(64), Config{})
	require.Error(t, err)
	require.Equal(t, InvalidArgument, err.(*Error).Kind)

	_, err = New(newMemRegion(PageSize), Config{})
	require.NoError(t, err)
}

func TestValidateDataSizeRejectsAboveMax(t *testing.T) {
	err := ValidateDataSize(uint64(1) << (MaxRingOrder + 1))
	require.Error(t, err)
	require.Equal(t, InvalidArgument, err.(*Error).Kind)
}

// drainOnce decodes exactly one record for deterministic single-step tests,
// reusing the same header/read/release path as Consumer.drain.
func (c *Consumer) drainOnce(out *Record) error {
	r := c.ring
	head := r.cb.loadHeadAcquire()
	tail := r.cb.loadTailRelaxed()
	if head == tail {
		return context.Canceled
	}
	hdr := readHeaderAt(r.data, tail, r.size)
	total := uint64(HeaderSize) + uint64(hdr.Len)
	payload := make([]byte, hdr.Len)
	if hdr.Len > 0 {
		readAt(r.data, tail+HeaderSize, payload, r.size)
	}
	*out = Record{Type: hdr.Type, Flags: hdr.Flags, TsNS: hdr.TsNS, Payload: payload}
	r.releaseTail(tail + total)
	return nil
}
