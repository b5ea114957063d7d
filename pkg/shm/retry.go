package shm

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/yanet-platform/shmring/pkg/ring"
)

// OpenWithRetry opens path and attaches to it with ring.Attach, retrying
// with exponential backoff while the producer hasn't finished initializing
// the region yet (the file doesn't exist, is too small, or its control
// block isn't there). It gives up once ctx is done, mirroring the teacher's
// own reconnectStream: a backoff.ExponentialBackOff driving a
// backoff.NewTicker, selected against ctx.Done() in a loop.
func OpenWithRetry(ctx context.Context, path string) (*Region, *ring.Ring, error) {
	ticker := backoff.NewTicker(&backoff.ExponentialBackOff{
		InitialInterval:     50 * time.Millisecond,
		RandomizationFactor: backoff.DefaultRandomizationFactor,
		Multiplier:          backoff.DefaultMultiplier,
		MaxInterval:         2 * time.Second,
	})
	defer ticker.Stop()

	attempt := func() (*Region, *ring.Ring, error) {
		region, err := Open(path)
		if err != nil {
			return nil, nil, fmt.Errorf("shm: open %s: %w", path, err)
		}
		r, err := ring.Attach(region)
		if err != nil {
			region.Close()
			return nil, nil, fmt.Errorf("shm: attach %s: %w", path, err)
		}
		return region, r, nil
	}

	if region, r, err := attempt(); err == nil {
		return region, r, nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case _, ok := <-ticker.C:
			if !ok {
				return nil, nil, ctx.Err()
			}
			region, r, err := attempt()
			if err == nil {
				return region, r, nil
			}
		}
	}
}
