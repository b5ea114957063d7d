package ring

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// TestRoundTripRandomPayloads covers spec.md §8's round-trip property: for a
// sequence of random-length payloads whose framed total fits the ring, with
// lazy (batched, end-of-sequence) consumption, the consumer decodes back the
// exact payload bytes and types in order.
func TestRoundTripRandomPayloads(t *testing.T) {
	const size = 8192
	r := newTestRing(t, size, 50, 30)
	n := newChanNotifier()
	r.BindNotifier(n)

	rng := rand.New(rand.NewSource(7))
	var want [][]byte
	budget := size - HeaderSize - DropPayloadSize // leave room per spec.md §4.3
	for budget > HeaderSize {
		l := rng.Intn(64)
		if HeaderSize+l > budget {
			break
		}
		payload := make([]byte, l)
		rng.Read(payload)
		require.True(t, r.Push(payload, uint64(len(want))))
		want = append(want, payload)
		budget -= HeaderSize + l
	}
	require.NotEmpty(t, want)

	c := NewConsumer(r, n)
	var got [][]byte
	for range want {
		var rec Record
		n.Signal()
		require.NoError(t, c.drainOnce(&rec))
		require.Equal(t, RecordPKT, rec.Type)
		got = append(got, append([]byte(nil), rec.Payload...))
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("decoded payload sequence mismatch (-want +got):\n%s", diff)
	}
}
