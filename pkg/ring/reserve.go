package ring

// tryReserve implements spec.md §4.4: load head (producer-local, relaxed),
// load tail (acquire), and return the cursor to write at if n bytes are
// free. It never blocks and never allocates.
//
// n == 0 is a caller bug (unspecified behavior upstream); here it always
// succeeds trivially since zero bytes are always free, which is a safe
// interpretation. n > S is always rejected. Exact fill (head-tail == S) is
// correctly "full", not "empty" because head/tail are unbounded counters.
func (r *Ring) tryReserve(n uint64) (cursor uint64, ok bool) {
	head := r.cb.loadHeadRelaxed()
	tail := r.cb.loadTailAcquire()
	size := r.size
	if n > size {
		return 0, false
	}
	free := size - (head - tail)
	if free < n {
		return 0, false
	}
	return head, true
}
