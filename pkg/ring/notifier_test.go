package ring

import "context"

// chanNotifier is a minimal in-process Notifier for tests: a size-1
// buffered channel coalesces rising edges exactly like spec.md §4.6
// requires, modeled on the teacher's spawnWakers non-blocking send.
type chanNotifier struct {
	ch     chan struct{}
	closed chan struct{}
}

func newChanNotifier() *chanNotifier {
	return &chanNotifier{ch: make(chan struct{}, 1), closed: make(chan struct{})}
}

func (n *chanNotifier) Signal() {
	select {
	case n.ch <- struct{}{}:
	default:
	}
}

func (n *chanNotifier) Wait(ctx context.Context) error {
	select {
	case <-n.ch:
		return nil
	case <-n.closed:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *chanNotifier) Readable() bool {
	return false
}

func (n *chanNotifier) Close() error {
	close(n.closed)
	return nil
}

var _ Notifier = (*chanNotifier)(nil)
