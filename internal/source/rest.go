package source

import (
	"context"
	"fmt"
	"time"

	"github.com/MichalMitros/vendor-feed-reconciler/internal/batch"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform/models"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform/retry"
)

// BatchFetcher fetches vendor items by identifiers, one result per identifier.
type BatchFetcher interface {
	FetchBatch(ctx context.Context, ids []string) ([]models.FetchResult, error)
}

// REST streams records of vendor items requested in batches by catalog vendor codes.
type REST struct {
	vendorID string
	catalog  CodeLister
	client   BatchFetcher
	batch    batch.Config
	policy   retry.Policy
	layout   string
	now      func() time.Time
}

// NewREST returns new REST source.
func NewREST(
	vendorID string,
	catalog CodeLister,
	client BatchFetcher,
	batchCfg batch.Config,
	policy retry.Policy,
	timestampLayout string,
) *REST {
	return &REST{
		vendorID: vendorID,
		catalog:  catalog,
		client:   client,
		batch:    batchCfg,
		policy:   policy,
		layout:   timestampLayout,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Fetch requests all vendor codes known to the catalog. Batch failing in all attempts
// reports every of its items as failed after the last batch. Permanent failure stops the remaining batches.
// Records without timestamp are stamped with time of their batch.
func (r *REST) Fetch(ctx context.Context, output chan<- models.FetchResult) error {
	ids, err := r.catalog.ListVendorCodes(ctx, r.vendorID)
	if err != nil {
		return fmt.Errorf("can't list %s vendor codes: %w", r.vendorID, err)
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	var permanent error

	outcomes, err := batch.Batches(ctx, ids, r.batch, func(ctx context.Context, ids []string) ([]batch.Outcome[string, struct{}], error) {
		var results []models.FetchResult
		err := r.policy.Do(ctx, func(ctx context.Context, _ int) error {
			var err error
			results, err = r.client.FetchBatch(ctx, ids)
			return err
		})
		if err != nil {
			if platform.IsPermanent(err) {
				permanent = err
				cancel(err)
			}
			return nil, err
		}

		fetched := r.now()
		for _, result := range results {
			if result.Record != nil && result.Record[models.FieldTimestamp] == "" {
				result.Record[models.FieldTimestamp] = fetched.Format(r.layout)
			}
			if err := emit(ctx, output, result); err != nil {
				return nil, err
			}
		}

		return nil, nil
	})

	if permanent != nil {
		return fmt.Errorf("can't fetch %s items: %w", r.vendorID, permanent)
	}
	if err != nil {
		return err
	}

	for _, outcome := range outcomes {
		if outcome.Err == nil {
			continue
		}
		if err := emit(ctx, output, models.FetchResult{Error: fmt.Errorf("can't fetch %s: %w", outcome.Item, outcome.Err)}); err != nil {
			return err
		}
	}

	return nil
}
