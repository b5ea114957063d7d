package ring

import (
	"encoding/binary"
	"sync/atomic"
	"unsafe"
)

// controlBlock is a view over the first PageSize bytes of a mapped region.
// head/tail are accessed through atomic.Uint64, obtained by pointing
// directly at their 8-byte-aligned slots: this is the single exception to
// "never cast a pointer into the mapped region" (see design notes on
// unaligned packed structs) because a lone 8-byte-aligned counter is not a
// packed multi-field struct, and cross-domain acquire/release ordering on
// head/tail is the one place the protocol genuinely needs a hardware atomic
// rather than a byte-safe copy. Every other field is read/written through
// encoding/binary, matching the byte-safe accessor pattern used
// throughout the shared-memory examples this package is grounded on.
type controlBlock struct {
	raw  []byte
	head *atomic.Uint64
	tail *atomic.Uint64
}

func newControlBlock(raw []byte) *controlBlock {
	if len(raw) < PageSize {
		panic("ring: control block region smaller than PageSize")
	}
	return &controlBlock{
		raw:  raw,
		head: (*atomic.Uint64)(unsafe.Pointer(&raw[offHead])),
		tail: (*atomic.Uint64)(unsafe.Pointer(&raw[offTail])),
	}
}

func (c *controlBlock) loadHeadAcquire() uint64 { return c.head.Load() }
func (c *controlBlock) loadHeadRelaxed() uint64 { return c.head.Load() }
func (c *controlBlock) releaseHead(v uint64)    { c.head.Store(v) }

func (c *controlBlock) loadTailAcquire() uint64 { return c.tail.Load() }
func (c *controlBlock) loadTailRelaxed() uint64 { return c.tail.Load() }
func (c *controlBlock) releaseTail(v uint64)    { c.tail.Store(v) }

func (c *controlBlock) size() uint64 { return binary.LittleEndian.Uint64(c.raw[offSize:]) }
func (c *controlBlock) setSize(s uint64) {
	binary.LittleEndian.PutUint64(c.raw[offSize:], s)
}

func (c *controlBlock) hiPct() uint32 { return binary.LittleEndian.Uint32(c.raw[offHiPct:]) }
func (c *controlBlock) setHiPct(v uint32) {
	binary.LittleEndian.PutUint32(c.raw[offHiPct:], v)
}

func (c *controlBlock) loPct() uint32 { return binary.LittleEndian.Uint32(c.raw[offLoPct:]) }
func (c *controlBlock) setLoPct(v uint32) {
	binary.LittleEndian.PutUint32(c.raw[offLoPct:], v)
}

func (c *controlBlock) flags() uint32 { return binary.LittleEndian.Uint32(c.raw[offFlags:]) }
func (c *controlBlock) setFlags(v uint32) {
	binary.LittleEndian.PutUint32(c.raw[offFlags:], v)
}

func (c *controlBlock) dropping() bool {
	return c.flags()&flagDropping != 0
}

func (c *controlBlock) setDropping(on bool) {
	f := c.flags()
	if on {
		f |= flagDropping
	} else {
		f &^= flagDropping
	}
	c.setFlags(f)
}

func (c *controlBlock) dropStartNS() uint64 {
	return binary.LittleEndian.Uint64(c.raw[offDropStartNS:])
}
func (c *controlBlock) setDropStartNS(v uint64) {
	binary.LittleEndian.PutUint64(c.raw[offDropStartNS:], v)
}

func (c *controlBlock) lostInDrop() uint64 {
	return binary.LittleEndian.Uint64(c.raw[offLostInDrop:])
}
func (c *controlBlock) setLostInDrop(v uint64) {
	binary.LittleEndian.PutUint64(c.raw[offLostInDrop:], v)
}

// reset zeros head, tail, flags and the coalescer accumulators. size,
// hi_pct and lo_pct survive a reset (spec.md §4.8: Reset reinitializes
// head/tail/coalescer, not configuration).
func (c *controlBlock) reset() {
	c.head.Store(0)
	c.tail.Store(0)
	c.setFlags(0)
	c.setDropStartNS(0)
	c.setLostInDrop(0)
}
