package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/MichalMitros/vendor-feed-reconciler/cmd/reconciler/config"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/handler"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/matcher"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/normalizer"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/pipeline"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform/models"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform/rabbitmq"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform/storage"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/reconciler"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/source"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/vendor"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const (
	// UserAgent is user agent header value used when calling vendor endpoints.
	UserAgent = "vendor-feed-reconciler/0.0.1"

	runAllVendors = "all"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().
			Err(err).
			Msg("can't load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Fatal().
			Err(err).
			Msg("can't parse log level")
	}
	logger = logger.Level(level)

	registry, err := vendor.Load(cfg.VendorsFile, vendor.Defaults{
		BatchSize:   cfg.BatchSize,
		Concurrency: cfg.Concurrency,
		MaxAttempts: cfg.Retry.MaxAttempts,
		Backoff:     cfg.Retry.Backoff,
	})
	if err != nil {
		logger.Fatal().
			Err(err).
			Msg("can't load vendor profiles")
	}

	store, closeStore, err := storage.Open(
		ctx,
		cfg.StorageBackend,
		cfg.DatabaseURL,
		cfg.MigrateDatabase,
		storage.WithStaleRunAfter(cfg.StaleRunAfter),
	)
	if err != nil {
		logger.Fatal().
			Err(err).
			Msg("can't open storage")
	}

	// scraped vendors need scrapers registered in Deps.Scrapers, the binary ships none
	sources := source.NewFactory(source.Deps{
		HTTPClient:  &http.Client{Timeout: cfg.HTTPTimeout},
		UserAgent:   UserAgent,
		Timeout:     cfg.HTTPTimeout,
		DownloadDir: cfg.DownloadDir,
		Catalog:     store,
	})
	if err := sources.Check(registry.Profiles()...); err != nil {
		logger.Fatal().
			Err(err).
			Msg("can't prepare vendor sources")
	}

	pipe := pipeline.NewPipeline(
		registry,
		sources,
		normalizer.NewNormalizer(),
		matcher.NewMatcher(store, matcher.WithCache(cfg.MatchCacheTTL)),
		reconciler.NewReconciler(store, store),
		store,
		cfg.Workers,
		&logger,
		pipeline.WithParallelVendors(cfg.ParallelVendors),
	)

	// handle graceful shutdown and context cancellation
	termChan := make(chan os.Signal, 1)
	signal.Notify(termChan, syscall.SIGINT, syscall.SIGTERM)

	if cfg.RunVendor != "" {
		go func() {
			<-termChan
			cancel()
		}()

		ok := runOnce(ctx, pipe, store, cfg.RunVendor, &logger)
		if err := closeStore(); err != nil {
			logger.Error().
				Err(err).
				Msg("can't close storage")
		}
		if !ok {
			os.Exit(1)
		}
		return
	}

	amqpConnection, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		logger.Fatal().
			Err(err).
			Msg("can't open RabbitMQ connection")
	}

	conn, err := rabbitmq.NewRabbitMQ(amqpConnection, cfg.RabbitMQ.Exchange)
	if err != nil {
		logger.Fatal().
			Err(err).
			Msg("can't open RabbitMQ connection")
	}

	if err := conn.DeclareQueue(cfg.RabbitMQ.Queue, cfg.RabbitMQ.CommandRoutingKey); err != nil {
		logger.Fatal().
			Err(err).
			Msg("can't declare RabbitMQ queue")
	}

	han := handler.NewHandler(conn, pipe, cfg.RabbitMQ.SummaryRoutingKey, &logger)

	// start consuming and handling messages
	err = han.Start(ctx, cfg.RabbitMQ.Queue)
	if err != nil {
		logger.Fatal().
			Err(err).
			Msg("can't start consuming")
	}

	logger.Info().
		Strs("vendors", registry.IDs()).
		Msg("vendor feed reconciler up and running")

	select {
	case <-termChan:
		cancel()
	case <-ctx.Done():
	}

	logger.Info().Msg("graceful shutdown start")

	// wait for consumer to finish
	<-conn.Done()

	// close connections
	wg := sync.WaitGroup{}
	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := closeStore(); err != nil {
			logger.Fatal().
				Err(err).
				Msg("can't close storage")
		}
	}()

	go func() {
		defer wg.Done()
		if err := amqpConnection.Close(); err != nil {
			logger.Fatal().
				Err(err).
				Msg("can't close RabbitMQ connection")
		}
	}()

	wg.Wait()

	logger.Info().Msg("graceful shutdown successful")
}

// runOnce reconciles vendor, or all vendors, and logs their unmatched records count.
func runOnce(ctx context.Context, pipe *pipeline.Pipeline, store storage.Store, vendorID string, logger *zerolog.Logger) bool {
	var (
		runs []*models.Run
		err  error
	)

	if vendorID == runAllVendors {
		runs, err = pipe.RunAll(ctx)
	} else {
		var run *models.Run
		run, err = pipe.Run(ctx, vendorID)
		if run != nil {
			runs = append(runs, run)
		}
	}

	if err != nil {
		logger.Error().
			Err(err).
			Msg("reconciliation failed")
	}

	for _, run := range runs {
		unmatched, listErr := store.ListUnmatched(ctx, run.VendorID)
		if listErr != nil {
			logger.Error().
				Err(listErr).
				Str("vendorId", run.VendorID).
				Msg("can't list unmatched records")
			continue
		}

		logger.Info().
			Str("vendorId", run.VendorID).
			Int("runId", run.ID).
			Int("unmatchedTotal", len(unmatched)).
			Msg("unmatched records waiting for mapping")
	}

	return err == nil
}
