package ring

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// A corrupt header (16+len > S) is fatal for the consumer (spec.md §7): the
// loop must surface it and stop rather than guess.
func TestConsumerStopsOnCorruptHeader(t *testing.T) {
	r := newTestRing(t, 64, 50, 25)

	// Hand-craft a header with an impossible length directly into the data
	// region and advance head past it, bypassing Push's own bookkeeping to
	// simulate ring corruption.
	h := Header{Type: RecordPKT, Len: 1000, TsNS: 1}
	writeHeaderAt(r.data, 0, h, r.size)
	r.cb.releaseHead(HeaderSize)

	n := newChanNotifier()
	c := NewConsumer(r, n).WithLogger(zaptest.NewLogger(t))
	n.Signal()

	err := c.Run(context.Background(), func(Record) error { return nil })
	require.Error(t, err)
	re, ok := err.(*Error)
	require.True(t, ok)
	require.Equal(t, ErrCorrupt, re.Kind)
}
