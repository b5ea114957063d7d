package shm

import (
	"context"
	"sync"
	"time"

	"github.com/yanet-platform/shmring/pkg/ring"
)

// PollNotifier is a ring.Notifier for unrelated processes attached to the
// same region that have no side channel to hand each other an eventfd. It is
// grounded directly in the teacher's spawnWakers: a ticker periodically polls
// the ring for readability and forwards a non-blocking wake, exactly the
// "ticker + buffered channel" shape ring.go in the teacher repo uses for its
// own cross-goroutine wakeups.
type PollNotifier struct {
	r        *ring.Ring
	interval time.Duration

	wake      chan struct{}
	closed    chan struct{}
	closeOnce sync.Once
}

var _ ring.Notifier = (*PollNotifier)(nil)

// NewPollNotifier starts polling r for readability every interval.
func NewPollNotifier(r *ring.Ring, interval time.Duration) *PollNotifier {
	n := &PollNotifier{
		r:        r,
		interval: interval,
		wake:     make(chan struct{}, 1),
		closed:   make(chan struct{}),
	}
	go n.loop()
	return n
}

func (n *PollNotifier) loop() {
	ticker := time.NewTicker(n.interval)
	defer ticker.Stop()
	for {
		select {
		case <-n.closed:
			return
		case <-ticker.C:
			if n.r.Readable() {
				select {
				case n.wake <- struct{}{}:
				default:
				}
			}
		}
	}
}

// Signal is a no-op: PollNotifier never has its own producer to signal, it
// only observes the ring's control block from the outside.
func (n *PollNotifier) Signal() {}

// Wait blocks until the ring looks readable, ctx is done, or Close is called.
func (n *PollNotifier) Wait(ctx context.Context) error {
	select {
	case <-n.wake:
		return nil
	case <-n.closed:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Readable reports the ring's instantaneous state directly, bypassing the
// poll cadence.
func (n *PollNotifier) Readable() bool {
	return n.r.Readable()
}

// Close stops the polling goroutine.
func (n *PollNotifier) Close() error {
	n.closeOnce.Do(func() { close(n.closed) })
	return nil
}
