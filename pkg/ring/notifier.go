package ring

import "context"

// Notifier is the abstract notification channel spec.md §6 leaves to an
// external collaborator: "any primitive that supports 'signal one waiter,
// coalesceable' suffices (an event count, a semaphore, a pipe with byte
// writes)". pkg/shm provides a channel implementation and an eventfd
// implementation, both used within one process, and a polling implementation
// that watches a ring shared with another process.
type Notifier interface {
	// Signal delivers one rising-edge wake. Multiple signals that arrive
	// before a waiter calls Wait may coalesce into a single wakeup.
	Signal()
	// Wait blocks until Signal has been called at least once since the
	// last successful Wait, or until ctx is done. Returns ctx.Err() on
	// cancellation.
	Wait(ctx context.Context) error
	// Readable reports whether the caller should currently expect data,
	// for consumers that prefer polling over blocking. Level-triggered,
	// distinct from the edge-triggered Signal/Wait pair.
	Readable() bool
	// Close releases the notifier. Pending signals on a closed notifier
	// are dropped; a blocked Wait must return promptly with an error.
	Close() error
}

// watermark tracks the hi/lo hysteresis state machine of spec.md §4.6. It
// holds the single above_hi bit; everything else is recomputed from
// head/tail/size/hi_pct/lo_pct on every call.
type watermark struct {
	aboveHi bool
}

// pct computes 100*(head-tail)/size without overflowing: size is capped at
// 2^MaxRingOrder and used <= size, so 100*used fits safely in a uint64.
func pct(used, size uint64) uint64 {
	return (100 * used) / size
}

// onHeadRelease re-evaluates the rising edge after the producer publishes a
// new head. Returns true iff a signal should be emitted.
func (w *watermark) onHeadRelease(used, size uint64, hiPct uint32) bool {
	p := pct(used, size)
	if !w.aboveHi && p >= uint64(hiPct) {
		w.aboveHi = true
		return true
	}
	return false
}

// onTailRelease re-evaluates the falling edge after the consumer publishes a
// new tail. Never emits a signal (spec.md §4.6: "no signal is emitted on
// the falling edge").
func (w *watermark) onTailRelease(used, size uint64, loPct uint32) {
	p := pct(used, size)
	if w.aboveHi && p <= uint64(loPct) {
		w.aboveHi = false
	}
}

// readable implements the level-triggered poll semantics of spec.md §4.6,
// independent of the aboveHi edge state.
func readable(used, size uint64, hiPct uint32) bool {
	return pct(used, size) >= uint64(hiPct)
}
