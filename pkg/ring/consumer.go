package ring

import (
	"context"

	"go.uber.org/zap"
)

// Record is a decoded frame handed to a consumer callback. For RecordDROP,
// Payload holds the raw 20-byte drop payload; call DecodeDropPayload to
// parse it.
type Record struct {
	Type  RecordType
	Flags uint16
	TsNS  uint64
	// Payload aliases an internal buffer that is reused on the next
	// Record; callers that need to retain it past the handler call must
	// copy it.
	Payload []byte
}

// DecodeDropPayload parses a RecordDROP's Payload.
func DecodeDropPayload(payload []byte) DropPayload {
	return decodeDropPayload(payload)
}

// Handler processes one decoded record. Consumers must treat an unknown
// Type as opaque and continue (spec.md §4.7: "preserves forward
// compatibility"); Run already skips the bytes regardless of what Handler
// does, so an unrecognized type is simply handed through.
type Handler func(Record) error

// Consumer runs the blocking drain loop of spec.md §4.7 against a Ring and
// a bound Notifier.
type Consumer struct {
	ring     *Ring
	notifier Notifier
	buf      []byte
	log      *zap.Logger
}

// NewConsumer builds a Consumer. notifier is the channel the producer
// signals on crossing the hi watermark; it is independent of whatever
// notifier (if any) is bound via Ring.BindNotifier on the producer side —
// in the cross-process case they are the two ends of the same primitive.
// The logger defaults to a no-op one; use WithLogger to attach a real one.
func NewConsumer(r *Ring, notifier Notifier) *Consumer {
	return &Consumer{ring: r, notifier: notifier, log: zap.NewNop()}
}

// WithLogger attaches log to the consumer, used the way the teacher's
// workerArea carries a *zap.Logger for diagnosing anomalies in the drain
// loop (modules/pdump/controlplane/ring.go's discard-on-corruption log).
// Returns c for chaining.
func (c *Consumer) WithLogger(log *zap.Logger) *Consumer {
	c.log = log
	return c
}

// Run executes the loop: wait for a signal, drain until empty, repeat,
// until ctx is done or a corrupt header is detected. A corrupt header
// (16+len > S) is fatal per spec.md §7 and is returned as a *ring.Error
// with Kind == ErrCorrupt.
func (c *Consumer) Run(ctx context.Context, handle Handler) error {
	for {
		if err := c.notifier.Wait(ctx); err != nil {
			return err
		}
		if err := c.drain(handle); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// drain runs the inner loop of spec.md §4.7 until the ring is empty.
func (c *Consumer) drain(handle Handler) error {
	r := c.ring
	for {
		head := r.cb.loadHeadAcquire()
		tail := r.cb.loadTailRelaxed()
		if head == tail {
			return nil
		}

		hdr := readHeaderAt(r.data, tail, r.size)
		total := uint64(HeaderSize) + uint64(hdr.Len)
		if total > r.size {
			c.log.Error("corrupt record header, stopping consumer",
				zap.Uint64("tail", tail), zap.Uint32("len", hdr.Len), zap.Uint64("ring_size", r.size))
			return wrapError(ErrCorrupt, "header length exceeds ring size", nil)
		}

		if cap(c.buf) < int(hdr.Len) {
			c.buf = make([]byte, hdr.Len)
		}
		payload := c.buf[:hdr.Len]
		if hdr.Len > 0 {
			readAt(r.data, tail+HeaderSize, payload, r.size)
		}

		if err := handle(Record{Type: hdr.Type, Flags: hdr.Flags, TsNS: hdr.TsNS, Payload: payload}); err != nil {
			return err
		}

		r.releaseTail(tail + total)
	}
}
