// Package batch schedules outbound vendor calls in fixed-size batches.
//
// Batches run one after another with a delay between them, items inside a
// batch run concurrently. Every item gets its own Outcome, so a failing item
// never aborts its batch. Only context cancellation stops the processing.
package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform/retry"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Config configures batching of work items.
type Config struct {
	// Size is maximum number of items in single batch.
	Size int
	// Delay is pause between two consecutive batches.
	Delay time.Duration
	// Concurrency limits concurrent calls inside a batch, defaults to Size.
	Concurrency int
	// Limiter throttles every single call when set.
	Limiter *rate.Limiter
	// Sleep waits between batches, retry.Sleep when nil.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Outcome is result of processing single item.
type Outcome[T, R any] struct {
	Item  T
	Value R
	Err   error
}

// Partition splits items into batches of cfg.Size items.
func Partition[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	return lo.Chunk(items, max(size, 1))
}

// Each calls fn for every item. Items of single batch are processed concurrently.
// Returned outcomes keep items order. Error is returned only when ctx is done,
// together with outcomes of already processed batches.
func Each[T, R any](
	ctx context.Context,
	items []T,
	cfg Config,
	fn func(ctx context.Context, item T) (R, error),
) ([]Outcome[T, R], error) {
	outcomes := make([]Outcome[T, R], 0, len(items))
	first := true

	err := forEachBatch(ctx, items, cfg, &first, func(ctx context.Context, batch []T) {
		outcomes = append(outcomes, processBatch(ctx, batch, cfg, fn)...)
	})

	return outcomes, err
}

// Batches calls fn once per batch. Error returned from fn marks every item of that batch as failed.
// Outcomes returned by fn are appended as they are, fn is responsible for reporting every item.
func Batches[T, R any](
	ctx context.Context,
	items []T,
	cfg Config,
	fn func(ctx context.Context, batch []T) ([]Outcome[T, R], error),
) ([]Outcome[T, R], error) {
	outcomes := make([]Outcome[T, R], 0, len(items))
	first := true

	err := forEachBatch(ctx, items, cfg, &first, func(ctx context.Context, batch []T) {
		if cfg.Limiter != nil {
			if err := cfg.Limiter.Wait(ctx); err != nil {
				outcomes = append(outcomes, failAll[T, R](batch, fmt.Errorf("can't wait for rate limiter: %w", err))...)
				return
			}
		}

		results, err := fn(ctx, batch)
		if err != nil {
			outcomes = append(outcomes, failAll[T, R](batch, err)...)
			return
		}
		outcomes = append(outcomes, results...)
	})

	return outcomes, err
}

// ByDestination processes items × destinations as repeated passes, one destination at a time.
// Every pass uses the same batching discipline and the delay separates batches across passes too.
func ByDestination[T, D comparable, R any](
	ctx context.Context,
	items []T,
	destinations []D,
	cfg Config,
	fn func(ctx context.Context, item T, destination D) (R, error),
) (map[D][]Outcome[T, R], error) {
	results := make(map[D][]Outcome[T, R], len(destinations))
	first := true

	for _, destination := range destinations {
		outcomes := make([]Outcome[T, R], 0, len(items))
		err := forEachBatch(ctx, items, cfg, &first, func(ctx context.Context, batch []T) {
			outcomes = append(outcomes, processBatch(ctx, batch, cfg, func(ctx context.Context, item T) (R, error) {
				return fn(ctx, item, destination)
			})...)
		})
		results[destination] = outcomes
		if err != nil {
			return results, err
		}
	}

	return results, nil
}

// forEachBatch calls process for every batch, sleeping between batches.
// first tracks whether any batch was processed already, so the delay isn't applied before the very first one.
func forEachBatch[T any](
	ctx context.Context,
	items []T,
	cfg Config,
	first *bool,
	process func(ctx context.Context, batch []T),
) error {
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = retry.Sleep
	}

	for _, batch := range Partition(items, cfg.Size) {
		if !*first {
			if err := sleep(ctx, cfg.Delay); err != nil {
				return fmt.Errorf("can't wait for next batch: %w", err)
			}
		}
		*first = false

		if err := ctx.Err(); err != nil {
			return fmt.Errorf("can't process batch: %w", err)
		}

		process(ctx, batch)
	}

	return nil
}

func processBatch[T, R any](
	ctx context.Context,
	batch []T,
	cfg Config,
	fn func(ctx context.Context, item T) (R, error),
) []Outcome[T, R] {
	outcomes := make([]Outcome[T, R], len(batch))

	var group errgroup.Group
	group.SetLimit(concurrency(cfg, len(batch)))

	for ix := range batch {
		group.Go(func() error {
			outcomes[ix].Item = batch[ix]
			if cfg.Limiter != nil {
				if err := cfg.Limiter.Wait(ctx); err != nil {
					outcomes[ix].Err = fmt.Errorf("can't wait for rate limiter: %w", err)
					return nil
				}
			}
			outcomes[ix].Value, outcomes[ix].Err = fn(ctx, batch[ix])
			return nil
		})
	}

	_ = group.Wait()

	return outcomes
}

func failAll[T, R any](batch []T, err error) []Outcome[T, R] {
	return lo.Map(batch, func(item T, _ int) Outcome[T, R] {
		return Outcome[T, R]{Item: item, Err: err}
	})
}

func concurrency(cfg Config, batchLen int) int {
	if cfg.Concurrency > 0 {
		return min(cfg.Concurrency, batchLen)
	}
	return batchLen
}
