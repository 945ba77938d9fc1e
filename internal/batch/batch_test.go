package batch_test

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MichalMitros/vendor-feed-reconciler/internal/batch"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitPartition(t *testing.T) {
	tests := map[string]struct {
		items    int
		size     int
		wantLens []int
	}{
		"73 items by 25": {items: 73, size: 25, wantLens: []int{25, 25, 23}},
		"exact multiple":  {items: 50, size: 25, wantLens: []int{25, 25}},
		"single batch":    {items: 3, size: 25, wantLens: []int{3}},
		"no items":        {items: 0, size: 25, wantLens: nil},
		"zero size":       {items: 2, size: 0, wantLens: []int{1, 1}},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			batches := batch.Partition(lo.Range(tt.items), tt.size)

			var lens []int
			for _, b := range batches {
				lens = append(lens, len(b))
			}
			assert.Equal(t, tt.wantLens, lens, "should form correct batches")
		})
	}
}

func TestUnitEach(t *testing.T) {
	items := lo.Range(73)
	sleeper := &countingSleeper{}
	batchSizes := make(map[int32]int)
	var mu sync.Mutex

	cfg := batch.Config{
		Size:  25,
		Delay: 3 * time.Second,
		Sleep: sleeper.Sleep,
	}

	outcomes, err := batch.Each(context.TODO(), items, cfg, func(_ context.Context, item int) (string, error) {
		mu.Lock()
		batchSizes[sleeper.calls.Load()]++
		mu.Unlock()
		if item%10 == 0 {
			return "", fmt.Errorf("item %d: %w", item, assert.AnError)
		}
		return strconv.Itoa(item), nil
	})

	require.NoError(t, err, "shouldn't return any error")
	assert.Equal(t, map[int32]int{0: 25, 1: 25, 2: 23}, batchSizes, "should process items in batches of 25")
	assert.Equal(t, int32(2), sleeper.calls.Load(), "should sleep only between batches")
	assert.Equal(t, []time.Duration{3 * time.Second, 3 * time.Second}, sleeper.delays, "should sleep configured delay")

	require.Len(t, outcomes, len(items), "should return outcome for every item")
	for ix, outcome := range outcomes {
		assert.Equal(t, ix, outcome.Item, "should keep items order")
		if ix%10 == 0 {
			assert.ErrorIs(t, outcome.Err, assert.AnError, "should capture item error")
			continue
		}
		assert.NoError(t, outcome.Err, "shouldn't fail successful item")
		assert.Equal(t, strconv.Itoa(ix), outcome.Value, "should capture item value")
	}
}

func TestUnitEachConcurrencyLimit(t *testing.T) {
	var running, maxRunning atomic.Int32

	cfg := batch.Config{
		Size:        10,
		Concurrency: 3,
		Sleep:       (&countingSleeper{}).Sleep,
	}

	_, err := batch.Each(context.TODO(), lo.Range(20), cfg, func(_ context.Context, _ int) (int, error) {
		current := running.Add(1)
		for {
			seen := maxRunning.Load()
			if current <= seen || maxRunning.CompareAndSwap(seen, current) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		return 0, nil
	})

	require.NoError(t, err, "shouldn't return any error")
	assert.LessOrEqual(t, maxRunning.Load(), int32(3), "shouldn't exceed concurrency limit")
}

func TestUnitEachCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	cfg := batch.Config{
		Size: 2,
		Sleep: func(ctx context.Context, _ time.Duration) error {
			cancel()
			return ctx.Err()
		},
	}

	outcomes, err := batch.Each(ctx, lo.Range(5), cfg, func(_ context.Context, item int) (int, error) {
		return item, nil
	})

	require.ErrorIs(t, err, context.Canceled, "should return context error")
	assert.Len(t, outcomes, 2, "should return outcomes of processed batches")
}

func TestUnitBatches(t *testing.T) {
	sleeper := &countingSleeper{}
	calls := 0

	cfg := batch.Config{Size: 25, Delay: time.Second, Sleep: sleeper.Sleep}

	outcomes, err := batch.Batches(context.TODO(), lo.Range(73), cfg,
		func(_ context.Context, items []int) ([]batch.Outcome[int, int], error) {
			calls++
			if calls == 2 {
				return nil, assert.AnError
			}
			return lo.Map(items, func(item int, _ int) batch.Outcome[int, int] {
				return batch.Outcome[int, int]{Item: item, Value: item * 2}
			}), nil
		},
	)

	require.NoError(t, err, "shouldn't return any error")
	assert.Equal(t, 3, calls, "should call fn once per batch")
	assert.Equal(t, int32(2), sleeper.calls.Load(), "should sleep only between batches")
	require.Len(t, outcomes, 73, "should return outcome for every item")

	failed := lo.CountBy(outcomes, func(o batch.Outcome[int, int]) bool { return o.Err != nil })
	assert.Equal(t, 25, failed, "should fail every item of failed batch only")
	assert.Equal(t, 100, outcomes[50].Value, "should keep values of successful batches")
}

func TestUnitByDestination(t *testing.T) {
	sleeper := &countingSleeper{}
	destinations := []string{"CA-ON", "CA-BC", "US-NY"}
	var seen sync.Map

	cfg := batch.Config{Size: 2, Delay: time.Second, Sleep: sleeper.Sleep}

	results, err := batch.ByDestination(context.TODO(), []string{"a", "b", "c"}, destinations, cfg,
		func(_ context.Context, item string, destination string) (string, error) {
			seen.Store(item+"@"+destination, true)
			if item == "b" && destination == "CA-BC" {
				return "", assert.AnError
			}
			return item + "@" + destination, nil
		},
	)

	require.NoError(t, err, "shouldn't return any error")
	require.Len(t, results, 3, "should return outcomes for every destination")
	for _, destination := range destinations {
		assert.Len(t, results[destination], 3, "should return outcome for every item of %s", destination)
	}
	assert.ErrorIs(t, results["CA-BC"][1].Err, assert.AnError, "should capture item error")
	assert.Equal(t, "c@US-NY", results["US-NY"][2].Value, "should capture item value")
	// 2 batches per destination, 6 batches in total
	assert.Equal(t, int32(5), sleeper.calls.Load(), "should sleep between all batches of all passes")
}

type countingSleeper struct {
	mu     sync.Mutex
	calls  atomic.Int32
	delays []time.Duration
}

func (s *countingSleeper) Sleep(_ context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	s.calls.Add(1)
	return nil
}
