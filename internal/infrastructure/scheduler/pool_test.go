package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestForEach_BoundsConcurrency(t *testing.T) {
	var inFlight, peak, total atomic.Int32
	items := make([]int, 20)

	err := ForEach(context.Background(), 3, items, func(context.Context, int) error {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		inFlight.Add(-1)
		total.Add(1)
		return nil
	})

	assert.NoError(t, err)
	assert.EqualValues(t, 20, total.Load())
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestForEach_ReturnsFirstError(t *testing.T) {
	boom := errors.New("boom")
	err := ForEach(context.Background(), 0, []int{1, 2, 3}, func(_ context.Context, i int) error {
		if i == 2 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
}
