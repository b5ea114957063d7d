package shm

import (
	"context"
	"sync"

	"github.com/yanet-platform/shmring/pkg/ring"
)

// ChanNotifier is an in-process ring.Notifier for single-process use (tests,
// or a demo that runs producer and consumer as goroutines in one binary),
// modeled on the teacher's spawnWakers non-blocking buffered-channel send.
type ChanNotifier struct {
	ch        chan struct{}
	closed    chan struct{}
	closeOnce sync.Once
}

var _ ring.Notifier = (*ChanNotifier)(nil)

// NewChanNotifier creates a ready-to-use in-process notifier.
func NewChanNotifier() *ChanNotifier {
	return &ChanNotifier{ch: make(chan struct{}, 1), closed: make(chan struct{})}
}

// Signal delivers a non-blocking, coalesceable wake.
func (n *ChanNotifier) Signal() {
	select {
	case n.ch <- struct{}{}:
	default:
	}
}

// Wait blocks until Signal fires, ctx is done, or Close is called.
func (n *ChanNotifier) Wait(ctx context.Context) error {
	select {
	case <-n.ch:
		return nil
	case <-n.closed:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Readable reports whether a wake is currently buffered.
func (n *ChanNotifier) Readable() bool {
	return len(n.ch) > 0
}

// Close unblocks any pending Wait; pending signals are dropped.
func (n *ChanNotifier) Close() error {
	n.closeOnce.Do(func() { close(n.closed) })
	return nil
}
