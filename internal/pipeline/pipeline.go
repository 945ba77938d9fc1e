// Package pipeline runs vendor reconciliations: it fetches raw vendor records,
// normalizes and matches them, collects shipping quotes and reconciles offers.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MichalMitros/vendor-feed-reconciler/internal/batch"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/matcher"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/normalizer"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform/models"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/reconciler"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/source"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/vendor"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

//go:generate mockery --name Transports --filename transports.go
//go:generate mockery --name Storage --filename storage.go

// finishTimeout bounds storing result of run, which outlives cancellation of the run itself.
const finishTimeout = 10 * time.Second

// Profiles is vendor profiles registry.
type Profiles interface {
	Get(id string) (*vendor.Profile, error)
	IDs() []string
}

// Transports builds vendor sources and shipping quoters.
type Transports interface {
	Source(profile *vendor.Profile) (source.Source, error)
	// Quoter returns nil when vendor has no shipping destinations.
	Quoter(profile *vendor.Profile) source.Quoter
}

// Normalizer converts raw records into offers.
type Normalizer interface {
	Normalize(raw models.RawRecord, cfg normalizer.Config) (*models.NormalizedOffer, error)
}

// Matcher matches offers to catalog products.
type Matcher interface {
	Match(ctx context.Context, offer *models.NormalizedOffer, cfg matcher.Config) (*models.MatchResult, error)
}

// Reconciler writes offers into offer store.
type Reconciler interface {
	Reconcile(
		ctx context.Context,
		offer *models.NormalizedOffer,
		match *models.MatchResult,
		matchErr error,
		cfg reconciler.Config,
	) (models.Outcome, error)
}

// Clock provides times.
type Clock interface {
	// Version returns version of run being started.
	Version() int64
	// Now returns current UTC time.
	Now() *time.Time
}

// Storage is runs storage.
type Storage interface {
	// StartRun creates new run if there is no run of vendor running.
	StartRun(ctx context.Context, vendorID string, version int64) (*models.Run, error)
	// FinishRun finishes provided run and updates its statistics.
	FinishRun(ctx context.Context, run *models.Run) error
}

// Option is custom configuration of Pipeline.
type Option func(p *Pipeline)

// Pipeline reconciles vendor data with catalog.
type Pipeline struct {
	profiles   Profiles
	transports Transports
	normalizer Normalizer
	matcher    Matcher
	reconciler Reconciler
	storage    Storage
	workers    int
	parallel   int
	clock      Clock
	logger     *zerolog.Logger
}

// NewPipeline returns new Pipeline reconciling up to workers offers concurrently.
func NewPipeline(
	profiles Profiles,
	transports Transports,
	normalizer Normalizer,
	matcher Matcher,
	reconciler Reconciler,
	storage Storage,
	workers int,
	logger *zerolog.Logger,
	ops ...Option,
) *Pipeline {
	p := &Pipeline{
		profiles:   profiles,
		transports: transports,
		normalizer: normalizer,
		matcher:    matcher,
		reconciler: reconciler,
		storage:    storage,
		workers:    max(workers, 1),
		parallel:   1,
		clock:      systemClock{},
		logger:     logger,
	}

	for _, op := range ops {
		op(p)
	}

	return p
}

// WithClock sets Pipeline's custom Clock.
func WithClock(c Clock) Option {
	return func(p *Pipeline) {
		p.clock = c
	}
}

// WithParallelVendors sets number of vendors reconciled concurrently by RunAll.
func WithParallelVendors(n int) Option {
	return func(p *Pipeline) {
		p.parallel = max(n, 1)
	}
}

// item is matched offer travelling through pipeline.
type item struct {
	offer    *models.NormalizedOffer
	match    *models.MatchResult
	matchErr error
}

// Run reconciles single vendor and returns its finished run.
// Returned run is nil when run couldn't be started.
func (p *Pipeline) Run(ctx context.Context, vendorID string) (*models.Run, error) {
	profile, err := p.profiles.Get(vendorID)
	if err != nil {
		return nil, fmt.Errorf("can't start reconciliation: %w", err)
	}

	version := p.clock.Version()

	// insert new run in storage.
	run, err := p.storage.StartRun(ctx, vendorID, version)
	if err != nil {
		return nil, fmt.Errorf("can't start reconciliation: %w", err)
	}

	logger := p.logger.With().
		Str("vendorId", vendorID).
		Str("runId", uuid.NewString()).
		Logger()

	logger.Debug().Msg("reconciliation started")

	src, err := p.transports.Source(profile)
	if err != nil {
		return run, p.finishRun(ctx, run, &logger, fmt.Errorf("can't create source: %w", err))
	}

	// lookups cached by previous runs may miss products created since then
	if cache, ok := p.matcher.(interface{ Flush() }); ok {
		cache.Flush()
	}

	summary, err := p.reconcile(ctx, profile, src, &logger)
	summary.Apply(run)

	return run, p.finishRun(ctx, run, &logger, err)
}

// RunAll reconciles every registered vendor. Failure of one vendor never stops the others,
// returned error joins errors of all failed vendors.
func (p *Pipeline) RunAll(ctx context.Context) ([]*models.Run, error) {
	ids := p.profiles.IDs()
	runs := make([]*models.Run, len(ids))
	errs := make([]error, len(ids))

	var group errgroup.Group
	group.SetLimit(p.parallel)

	for ix, id := range ids {
		group.Go(func() error {
			run, err := p.Run(ctx, id)
			runs[ix] = run
			if err != nil {
				errs[ix] = fmt.Errorf("vendor %s: %w", id, err)
			}
			return nil
		})
	}

	_ = group.Wait()

	return lo.Compact(runs), errors.Join(errs...)
}

func (p *Pipeline) reconcile(
	ctx context.Context,
	profile *vendor.Profile,
	src source.Source,
	logger *zerolog.Logger,
) (models.Summary, error) {
	fetched := make(chan models.FetchResult)
	matched := make(chan []item)
	quoted := make(chan []item)

	var fetchSummary, reconcileSummary models.Summary

	errGroup, egCtx := errgroup.WithContext(ctx)

	// fetch vendor records.
	errGroup.Go(func() error {
		defer close(fetched)
		if err := src.Fetch(egCtx, fetched); err != nil {
			return fmt.Errorf("can't fetch records: %w", err)
		}
		return nil
	})

	// normalize and match records into batches.
	errGroup.Go(func() error {
		defer close(matched)

		var err error
		fetchSummary, err = p.matchOffers(egCtx, profile, fetched, matched, logger)
		if err != nil {
			return fmt.Errorf("can't match records: %w", err)
		}
		return nil
	})

	// collect shipping quotes.
	errGroup.Go(func() error {
		defer close(quoted)

		if err := p.quoteShippings(egCtx, profile, matched, quoted, logger); err != nil {
			return fmt.Errorf("can't quote shippings: %w", err)
		}
		return nil
	})

	// reconcile offers.
	errGroup.Go(func() error {
		var err error
		reconcileSummary, err = p.reconcileOffers(egCtx, profile, quoted, logger)
		if err != nil {
			return fmt.Errorf("can't reconcile offers: %w", err)
		}
		return nil
	})

	err := errGroup.Wait()

	return fetchSummary.Merge(reconcileSummary), err
}

func (p *Pipeline) matchOffers(
	ctx context.Context,
	profile *vendor.Profile,
	input <-chan models.FetchResult,
	output chan<- []item,
	logger *zerolog.Logger,
) (models.Summary, error) {
	var summary models.Summary
	size := max(profile.Batch.Size, 1)
	items := make([]item, 0, size)

	for result := range input {
		if result.Error != nil {
			countRejected(&summary, result.Error, logger)
			continue
		}

		logger.Trace().
			Interface("record", result.Record).
			Msg("raw record")

		offer, err := p.normalizer.Normalize(result.Record, profile.Normalize)
		if err != nil {
			countRejected(&summary, err, logger)
			continue
		}

		match, err := p.matcher.Match(ctx, offer, profile.Match)
		var matchErr *platform.MatchError
		if err != nil && !errors.As(err, &matchErr) {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			summary.Failed++
			logger.Error().
				Err(err).
				Str("vendorKey", offer.VendorKey).
				Msg("can't match offer")
			continue
		}

		items = append(items, item{offer: offer, match: match, matchErr: err})
		if len(items) == size {
			if err := send(ctx, output, items); err != nil {
				return summary, err
			}
			items = make([]item, 0, size)
		}
	}

	if len(items) > 0 {
		if err := send(ctx, output, items); err != nil {
			return summary, err
		}
	}

	return summary, nil
}

// quoteShippings sets shippings of matched offers for every vendor destination.
// Offer with any failed quote keeps shippings stored by previous runs.
func (p *Pipeline) quoteShippings(
	ctx context.Context,
	profile *vendor.Profile,
	input <-chan []item,
	output chan<- []item,
	logger *zerolog.Logger,
) error {
	quoter := p.transports.Quoter(profile)

	for items := range input {
		if quoter != nil {
			if err := p.quoteBatch(ctx, profile, quoter, items, logger); err != nil {
				return err
			}
		}

		if err := send(ctx, output, items); err != nil {
			return err
		}
	}

	return nil
}

func (p *Pipeline) quoteBatch(
	ctx context.Context,
	profile *vendor.Profile,
	quoter source.Quoter,
	items []item,
	logger *zerolog.Logger,
) error {
	offers := lo.FilterMap(items, func(it item, _ int) (*models.NormalizedOffer, bool) {
		return it.offer, it.match != nil
	})

	quotes, err := batch.ByDestination(ctx, offers, profile.Shipping.Destinations, profile.Batch,
		func(ctx context.Context, offer *models.NormalizedOffer, destination string) (*models.Shipping, error) {
			return quoter.Quote(ctx, offer.VendorKey, destination)
		})
	if err != nil {
		return err
	}

	failed := make(map[*models.NormalizedOffer]bool)
	shippings := make(map[*models.NormalizedOffer][]models.Shipping, len(offers))
	for _, destination := range profile.Shipping.Destinations {
		for _, outcome := range quotes[destination] {
			if outcome.Err != nil {
				failed[outcome.Item] = true
				logger.Warn().
					Err(outcome.Err).
					Str("vendorKey", outcome.Item.VendorKey).
					Str("destination", destination).
					Msg("can't quote shipping")
				continue
			}
			shippings[outcome.Item] = append(shippings[outcome.Item], *outcome.Value)
		}
	}

	for _, offer := range offers {
		if failed[offer] {
			offer.Shippings = nil
			continue
		}
		offer.Shippings = shippings[offer]
	}

	return nil
}

func (p *Pipeline) reconcileOffers(
	ctx context.Context,
	profile *vendor.Profile,
	input <-chan []item,
	logger *zerolog.Logger,
) (models.Summary, error) {
	var summary models.Summary
	cfg := batch.Config{Concurrency: p.workers}

	for items := range input {
		cfg.Size = len(items)
		outcomes, err := batch.Each(ctx, items, cfg, func(ctx context.Context, it item) (models.Outcome, error) {
			return p.reconciler.Reconcile(ctx, it.offer, it.match, it.matchErr, profile.Reconcile)
		})
		if err != nil {
			return summary, err
		}

		for _, outcome := range outcomes {
			if outcome.Err != nil {
				summary.Failed++
				logger.Error().
					Err(outcome.Err).
					Str("vendorKey", outcome.Item.offer.VendorKey).
					Msg("can't reconcile offer")
				continue
			}
			summary.Add(outcome.Value)
			if outcome.Value == models.OutcomeUnmatched {
				logger.Debug().
					Err(outcome.Item.matchErr).
					Str("vendorKey", outcome.Item.offer.VendorKey).
					Msg("offer unmatched")
			}
		}
	}

	return summary, nil
}

func (p *Pipeline) finishRun(ctx context.Context, run *models.Run, logger *zerolog.Logger, status error) error {
	if status != nil {
		run.StatusMessage = lo.ToPtr(status.Error())
	}
	run.IsSuccess = lo.ToPtr(status == nil)
	run.FinishedAt = p.clock.Now()

	event := logger.Info()
	if status != nil {
		event = logger.Error().Err(status)
	}
	event.
		Int32("created", lo.FromPtr(run.Created)).
		Int32("updated", lo.FromPtr(run.Updated)).
		Int32("unmatched", lo.FromPtr(run.Unmatched)).
		Int32("skipped", lo.FromPtr(run.Skipped)).
		Int32("failed", lo.FromPtr(run.Failed)).
		Msg("reconciliation finished")

	// run cancelled by shutdown must still be finished, otherwise it blocks next runs of vendor
	finishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finishTimeout)
	defer cancel()

	err := p.storage.FinishRun(finishCtx, run)
	if err != nil && status == nil {
		return fmt.Errorf("can't finish reconciliation: %w", err)
	}

	if err != nil && status != nil {
		return fmt.Errorf("can't finish failed reconciliation: %w (fail reason: %w)", err, status)
	}

	return status
}

// countRejected counts record rejected before matching.
func countRejected(summary *models.Summary, err error, logger *zerolog.Logger) {
	if errors.Is(err, platform.ErrNormalization) {
		summary.Skipped++
		logger.Debug().
			Err(err).
			Msg("record skipped")
		return
	}

	summary.Failed++
	logger.Error().
		Err(err).
		Msg("can't fetch record")
}

func send[T any](ctx context.Context, output chan<- T, value T) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case output <- value:
		return nil
	}
}
