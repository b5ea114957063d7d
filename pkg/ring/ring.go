package ring

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// MemoryRegion is the minimal surface the core needs from whatever mapped
// the ring into this address space (spec.md §1: "the memory mapping
// primitive... [is] out of scope"). Control must be at least PageSize
// bytes; Data must be exactly a power-of-two number of bytes.
type MemoryRegion interface {
	Control() []byte
	Data() []byte
}

// Config is the producer-init-time / control-surface-visible configuration
// (spec.md §6).
type Config struct {
	Size  uint64 // S, power of two
	HiPct uint32
	LoPct uint32
}

// Stats is a GetStats snapshot (spec.md §4.8). Fields are individually
// consistent but not mutually atomic.
type Stats struct {
	Head    uint64
	Tail    uint64
	Records uint64
	Bytes   uint64
	Drops   uint64 // cumulative count of packets lost to overflow, across all bursts
}

type counters struct {
	records atomic.Uint64
	bytes   atomic.Uint64
	drops   atomic.Uint64
}

// Ring is a producer-side or consumer-side handle over a MemoryRegion. All
// ring state is carried in this value rather than a process-wide global
// (design notes §9): a producer creates one with New, a consumer attaches
// to the same region with Attach, and both may be used concurrently by
// their respective single goroutine/thread.
type Ring struct {
	region MemoryRegion
	cb     *controlBlock
	data   []byte
	size   uint64

	// mu guards the control surface (SetWatermarks, BindNotifier, Reset,
	// AdvanceTail) and the notifier/watermark state. It is never held
	// across a data-region read or write.
	mu       sync.Mutex
	wm       watermark
	notifier Notifier

	cnt counters
}

// ValidateDataSize reports whether size is an acceptable ring data-region
// size: a power of two within [2^MinRingOrder, 2^MaxRingOrder] bytes, i.e.
// page-aligned per spec.md §6 ("ring_order >= log2(P)"). New, Attach and
// shm.Create all go through this single check so the range can't drift
// between call sites the way the teacher's SetWorkerRingSize validates
// against [minRingSize, maxRingSize] in one place
// (modules/pdump/controlplane/service.go).
func ValidateDataSize(size uint64) error {
	if size == 0 || size&(size-1) != 0 {
		return newError(InvalidArgument, fmt.Sprintf("ring size %d is not a nonzero power of two", size))
	}
	min := uint64(1) << MinRingOrder
	max := uint64(1) << MaxRingOrder
	if size < min || size > max {
		return newError(InvalidArgument, fmt.Sprintf("ring size %d not in range [%d, %d]", size, min, max))
	}
	return nil
}

// New initializes a fresh ring over region: zeros head/tail/flags/
// accumulators, sets size from region.Data(), and applies cfg's watermarks
// (HiPct and LoPct both 0 selects DefaultHiPct/DefaultLoPct). Only the producer calls New;
// a consumer calls Attach. The data region must satisfy ValidateDataSize;
// package-internal callers that deliberately exercise the wire protocol at
// sub-page scale (the literal S=64-style scenarios of spec.md §8) use
// newUnchecked instead, the same way the teacher's own ring tests build a
// cRingBuffer/workerArea directly rather than going through
// SetWorkerRingSize's [minRingSize, maxRingSize] gate.
func New(region MemoryRegion, cfg Config) (*Ring, error) {
	if err := ValidateDataSize(uint64(len(region.Data()))); err != nil {
		return nil, err
	}
	return newUnchecked(region, cfg)
}

// newUnchecked builds a Ring without enforcing ValidateDataSize's minimum/
// maximum bound, only that the data region is a nonzero power of two (the
// property the cursor/frame arithmetic actually depends on).
func newUnchecked(region MemoryRegion, cfg Config) (*Ring, error) {
	data := region.Data()
	size := uint64(len(data))
	if size == 0 || size&(size-1) != 0 {
		return nil, newError(InvalidArgument, fmt.Sprintf("ring size %d is not a nonzero power of two", size))
	}
	if cfg.Size != 0 && cfg.Size != size {
		return nil, newError(InvalidArgument, fmt.Sprintf("cfg.Size %d does not match region data length %d", cfg.Size, size))
	}

	hiPct, loPct := cfg.HiPct, cfg.LoPct
	if hiPct == 0 && loPct == 0 {
		hiPct, loPct = DefaultHiPct, DefaultLoPct
	}
	if hiPct > 100 || loPct > hiPct {
		return nil, newError(InvalidArgument, fmt.Sprintf("invalid watermarks hi=%d lo=%d", hiPct, loPct))
	}

	cb := newControlBlock(region.Control())
	cb.reset()
	cb.setSize(size)
	cb.setHiPct(hiPct)
	cb.setLoPct(loPct)

	return &Ring{region: region, cb: cb, data: data, size: size}, nil
}

// Attach binds to an already-initialized ring without resetting it: the
// consumer resumes from the current tail (spec.md §3 lifecycles). size,
// hi_pct and lo_pct are read from the control block.
func Attach(region MemoryRegion) (*Ring, error) {
	data := region.Data()
	size := uint64(len(data))
	if err := ValidateDataSize(size); err != nil {
		return nil, err
	}
	cb := newControlBlock(region.Control())
	if cb.size() != size {
		return nil, newError(InvalidArgument, fmt.Sprintf("control block size %d does not match region data length %d", cb.size(), size))
	}
	return &Ring{region: region, cb: cb, data: data, size: size}, nil
}

// Close releases the notifier, if any. The memory region itself is owned by
// the caller (pkg/shm.Region.Close unmaps it).
func (r *Ring) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.notifier != nil {
		err := r.notifier.Close()
		r.notifier = nil
		return err
	}
	return nil
}

// Push writes one PKT record with the given payload and timestamp. It never
// blocks. If there is not enough free space, the packet is not written and
// the drop coalescer records it; a DROP summary record is emitted ahead of
// the next PKT that successfully reserves space. Push reports whether the
// PKT itself was committed (false while a burst is being absorbed).
func (r *Ring) Push(payload []byte, tsNS uint64) bool {
	n := uint64(HeaderSize + len(payload))

	if r.cb.dropping() {
		dropSize := uint64(HeaderSize + DropPayloadSize)
		cursor, ok := r.tryReserve(dropSize + n)
		if !ok {
			// The reservation for drop-record-plus-packet failed as one
			// unit; count the packet as another lost one and keep the
			// burst open (spec.md §4.5 "critical correctness point").
			r.cb.extendBurst()
			return false
		}

		lost, startNS := r.cb.burstSnapshot()
		r.writeDropRecord(cursor, lost, startNS, tsNS)
		pktCursor := cursor + dropSize
		r.writeRecord(pktCursor, RecordPKT, payload, tsNS)
		r.cb.clearBurst()

		r.cnt.records.Add(2)
		r.cnt.bytes.Add(dropSize + n)
		r.cnt.drops.Add(lost)
		r.publishHead(cursor + dropSize + n)
		return true
	}

	cursor, ok := r.tryReserve(n)
	if !ok {
		r.cb.enterBurst(tsNS)
		return false
	}

	r.writeRecord(cursor, RecordPKT, payload, tsNS)
	r.cnt.records.Add(1)
	r.cnt.bytes.Add(n)
	r.publishHead(cursor + n)
	return true
}

func (r *Ring) writeRecord(cursor uint64, typ RecordType, payload []byte, tsNS uint64) {
	h := Header{Type: typ, Len: uint32(len(payload)), TsNS: tsNS}
	writeHeaderAt(r.data, cursor, h, r.size)
	if len(payload) > 0 {
		writeAt(r.data, cursor+HeaderSize, payload, r.size)
	}
}

func (r *Ring) writeDropRecord(cursor uint64, lost, startNS, endNS uint64) {
	h := Header{Type: RecordDROP, Len: DropPayloadSize, TsNS: endNS}
	writeHeaderAt(r.data, cursor, h, r.size)
	var buf [DropPayloadSize]byte
	encodeDropPayload(buf[:], DropPayload{Lost: uint32(lost), StartNS: startNS, EndNS: endNS})
	writeAt(r.data, cursor+HeaderSize, buf[:], r.size)
}

// publishHead releases the new head with release-ordered semantics and, if
// this crossed the hi watermark, signals the bound notifier (spec.md §4.6).
// The watermark/notifier pair is guarded by mu because BindNotifier can run
// concurrently with the producer; the lock is held only across the cheap
// edge computation, never across the preceding data-region write.
func (r *Ring) publishHead(newHead uint64) {
	r.cb.releaseHead(newHead)

	r.mu.Lock()
	tail := r.cb.loadTailRelaxed()
	used := newHead - tail
	crossed := r.wm.onHeadRelease(used, r.size, r.cb.hiPct())
	n := r.notifier
	r.mu.Unlock()

	if crossed && n != nil {
		n.Signal()
	}
}
