package ring

// The drop coalescer (spec.md §4.5) folds a contiguous run of failed
// reservations into a single DROP record emitted immediately before the
// PKT that ends the burst. Its state — the DROPPING flag, drop_start_ns
// and lost_in_drop — lives in the shared control block so a consumer can
// observe it for diagnostics, but it is producer-exclusive: the consumer
// must never use it for correctness, only the in-band DROP records.

// enterBurst transitions IDLE -> IN-BURST on the first reservation failure.
func (cb *controlBlock) enterBurst(nowNS uint64) {
	cb.setDropping(true)
	cb.setDropStartNS(nowNS)
	cb.setLostInDrop(1)
}

// extendBurst accounts for one more failed reservation while IN-BURST.
func (cb *controlBlock) extendBurst() {
	cb.setLostInDrop(cb.lostInDrop() + 1)
}

// burstSnapshot returns the accumulators to embed in the DROP record about
// to be emitted.
func (cb *controlBlock) burstSnapshot() (lost uint64, startNS uint64) {
	return cb.lostInDrop(), cb.dropStartNS()
}

// clearBurst transitions IN-BURST -> IDLE after the DROP record and the
// PKT that follows it have both been committed.
func (cb *controlBlock) clearBurst() {
	cb.setDropping(false)
	cb.setDropStartNS(0)
	cb.setLostInDrop(0)
}
