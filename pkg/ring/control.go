package ring

// Control Surface (spec.md §4.8): six operations, none blocking on producer
// I/O. SetWatermarks, BindNotifier, GetConfig and Reset are serialized by mu.
// GetStats reads the atomic cursors and counters without mu. AdvanceTail
// validates and publishes the new tail without mu and takes it only for the
// watermark re-evaluation in releaseTail.

// SetWatermarks updates hi_pct/lo_pct. Fails with InvalidArgument if
// hi > 100 || lo > hi.
func (r *Ring) SetWatermarks(hiPct, loPct uint32) error {
	if hiPct > 100 || loPct > hiPct {
		return newError(InvalidArgument, "hi_pct/lo_pct out of range")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cb.setHiPct(hiPct)
	r.cb.setLoPct(loPct)
	return nil
}

// BindNotifier replaces any previously bound notifier; nil unbinds. The
// caller retains ownership of the previous notifier (BindNotifier does not
// close it).
func (r *Ring) BindNotifier(n Notifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifier = n
}

// GetStats returns a snapshot of head, tail, records, bytes and drops.
// Individual fields are consistent but the snapshot as a whole is not
// mutually atomic (spec.md §4.8).
func (r *Ring) GetStats() Stats {
	return Stats{
		Head:    r.cb.loadHeadAcquire(),
		Tail:    r.cb.loadTailAcquire(),
		Records: r.cnt.records.Load(),
		Bytes:   r.cnt.bytes.Load(),
		Drops:   r.cnt.drops.Load(),
	}
}

// GetConfig returns the ring's size and watermark configuration.
func (r *Ring) GetConfig() Config {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Config{
		Size:  r.cb.size(),
		HiPct: r.cb.hiPct(),
		LoPct: r.cb.loPct(),
	}
}

// AdvanceTail is the consumer-initiated equivalent of the release step in
// the consumer loop (spec.md §4.7), exposed as a control-surface operation
// for consumers that manage their own read cursor externally (e.g. the
// gopacket-decoding demo consumer). It fails with InvalidArgument if
// newTail is outside [current_tail, head]; newTail == current_tail is an
// accepted no-op.
func (r *Ring) AdvanceTail(newTail uint64) error {
	head := r.cb.loadHeadAcquire()
	tail := r.cb.loadTailRelaxed()
	if newTail > head || newTail < tail {
		return newError(InvalidArgument, "tail advance out of range")
	}
	r.releaseTail(newTail)
	return nil
}

// releaseTail publishes the new tail with release semantics and
// re-evaluates the falling-edge watermark state. Shared by AdvanceTail and
// the built-in Consumer loop.
func (r *Ring) releaseTail(newTail uint64) {
	r.cb.releaseTail(newTail)

	r.mu.Lock()
	head := r.cb.loadHeadRelaxed()
	used := head - newTail
	r.wm.onTailRelease(used, r.size, r.cb.loPct())
	r.mu.Unlock()
}

// Reset zeros head, tail, flags and the coalescer accumulators, and the
// records/bytes/drops counters. Only valid when no consumer is draining;
// callers must stop the producer, call Reset, then resume (spec.md §4.8).
func (r *Ring) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cb.reset()
	r.wm = watermark{}
	r.cnt.records.Store(0)
	r.cnt.bytes.Store(0)
	r.cnt.drops.Store(0)
}

// Readable implements the level-triggered poll semantics of spec.md §4.6
// for consumers that prefer polling the signal channel over blocking on it.
func (r *Ring) Readable() bool {
	head := r.cb.loadHeadAcquire()
	tail := r.cb.loadTailRelaxed()
	return readable(head-tail, r.size, r.cb.hiPct())
}
