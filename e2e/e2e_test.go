package e2e

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/MichalMitros/vendor-feed-reconciler/cmd/reconciler/config"
	"github.com/MichalMitros/vendor-feed-reconciler/e2e/helpers"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/handler"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/matcher"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/normalizer"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/pipeline"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform/models"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform/rabbitmq"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform/storage"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform/storage/storagetesting"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/reconciler"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/source"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/vendor"
	"github.com/MichalMitros/vendor-feed-reconciler/pkg/v1/commander"
	"github.com/caarlos0/env/v6"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	pgmodels "github.com/MichalMitros/vendor-feed-reconciler/internal/platform/storage/gen/postgres/public/model"
)

const (
	userAgent      = "vfr-e2e-test/0.0.1"
	exchange       = "vfr-e2e"
	destination    = "US-NY"
	summaryTimeout = 30 * time.Second
)

var (
	firstFeedFile = []byte(`Part Number,Line,Cost,Qty
000123,Dorman,10.00,4
777,Dorman,5.50,0
9001,Motorcraft,1.00,2
4242,Dorman,2.00,1
,Dorman,1.00,3
`)
	secondFeedFile = []byte(`Part Number,Line,Cost,Qty
000123,Dorman,10.00,3
777,Dorman,6.00,8
9001,Motorcraft,1.00,2
4242,Dorman,2.00,1
,Dorman,1.00,3
`)
	catalog = []models.CanonicalProduct{
		{SKU: "DOR-123", Brand: "Dorman", SearchableKey: "123"},
		{SKU: "DOR-777", Brand: "Dorman", SearchableKey: "777"},
		{SKU: "MOT-9001A", Brand: "Motorcraft", SearchableKey: "9001A"},
		{SKU: "MOT-9001B", Brand: "Motorcraft", SearchableKey: "9001B"},
	}
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	os.Exit(m.Run())
}

func TestE2E(t *testing.T) {
	if os.Getenv("DATABASE_URL") == "" || os.Getenv("RABBITMQ_URL") == "" {
		t.Skip("please provide DATABASE_URL and RABBITMQ_URL environment variables")
	}

	suite.Run(t, new(E2ETestSuite))
}

type E2ETestSuite struct {
	suite.Suite
	cfg        *config.Config
	connection *amqp.Connection
	channel    *amqp.Channel
	db         *sql.DB
}

func (s *E2ETestSuite) SetupSuite() {
	var err error

	var cfg config.Config
	if err = env.Parse(&cfg); err != nil {
		s.Require().FailNow("can't parse env variables", err)
	}
	s.cfg = &cfg

	if s.connection, err = amqp.Dial(cfg.RabbitMQ.URL); err != nil {
		s.Require().FailNow("can't open RabbitMQ connection", err)
	}

	if s.channel, err = s.connection.Channel(); err != nil {
		s.Require().FailNow("can't open RabbitMQ channel", err)
	}

	helpers.DeclareRMQExchange(s.T(), s.channel, exchange)

	s.db = storagetesting.Open(s.T())
	storagetesting.CleanupData(s.T(), s.db)
}

func (s *E2ETestSuite) TearDownSuite() {
	storagetesting.CleanupData(s.T(), s.db)
	if err := s.db.Close(); err != nil {
		s.FailNow("can't close Postgres connection", err)
	}

	if err := s.channel.Close(); err != nil {
		s.FailNow("can't close RabbitMQ channel", err)
	}

	if err := s.connection.Close(); err != nil {
		s.FailNow("can't close RabbitMQ connection", err)
	}
}

func (s *E2ETestSuite) TestReconciliation() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	vendorID := fmt.Sprintf("vendor-%d", rand.Int63n(100000))

	// Prepare test RMQ queues
	queue := fmt.Sprintf("vfr-e2e-test-%d", rand.Int63n(100000))
	routingKey := fmt.Sprintf("vfr.cmd.e2e.%d", rand.Int63n(100000))
	helpers.DeclareRMQQueue(s.T(), s.channel, queue, exchange, routingKey)

	summaryQueue := fmt.Sprintf("vfr-e2e-runs-%d", rand.Int63n(100000))
	summaryKey := fmt.Sprintf("vfr.runs.e2e.%d", rand.Int63n(100000))
	helpers.DeclareRMQQueue(s.T(), s.channel, summaryQueue, exchange, summaryKey)
	summaries := helpers.ConsumeRMQQueue(s.T(), s.channel, summaryQueue)

	// Mock vendor servers
	lastModified := time.Date(2024, time.May, 2, 8, 0, 0, 0, time.UTC)
	feedSrv, setFeedFile := helpers.PrepareMockedHTTPServer(s.T(), [][]byte{firstFeedFile, secondFeedFile}, lastModified)
	setFeedFile(0)
	quoteSrv := helpers.PrepareQuoteServer(s.T(), "ground", "4.99")

	registry, err := vendor.Parse(
		helpers.VendorsFile(vendorID, feedSrv.URL+"/inventory.csv", quoteSrv.URL, destination),
		vendor.Defaults{BatchSize: 10, MaxAttempts: 1},
	)
	s.Require().NoError(err, "vendors file should be valid")

	// Prepare catalog
	store := storage.NewPostgres(s.db)
	helpers.SeedProducts(s.T(), store, catalog...)

	// Prepare pipeline
	pipelineLogger := zerolog.Nop()
	pipe := pipeline.NewPipeline(
		registry,
		source.NewFactory(source.Deps{
			HTTPClient: &http.Client{Timeout: 5 * time.Second},
			UserAgent:  userAgent,
			Timeout:    5 * time.Second,
			Catalog:    store,
		}),
		normalizer.NewNormalizer(),
		matcher.NewMatcher(store, matcher.WithCache(time.Minute)),
		reconciler.NewReconciler(store, store),
		store,
		4,
		&pipelineLogger,
	)

	// Prepare RMQ client and commander
	rmq, err := rabbitmq.NewRabbitMQ(s.connection, exchange)
	if err != nil {
		s.Require().FailNow("can't create RabbitMQ client", err)
	}
	publisher := commander.NewReconcileCommander(commander.NewRabbitMQSender(rmq, routingKey))

	// Prepare test logger
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	// Prepare and run handler
	han := handler.NewHandler(rmq, pipe, summaryKey, &logger)
	handlerErr := han.Start(ctx, queue)
	s.Require().NoError(handlerErr, "handler shouldn't return any error")

	// Send reconcile command
	if err := publisher.SendReconcileCommand(ctx, vendorID); err != nil {
		s.Require().FailNow("can't publish reconcile command", err)
	}

	// Wait for reconciliation to be finished
	firstRun := helpers.WaitForSummary(s.T(), summaries, vendorID, summaryTimeout)

	s.True(firstRun.Success, "first run should succeed")
	s.Equal(int32(2), firstRun.Created, "should return correct number of created offers")
	s.Equal(int32(0), firstRun.Updated, "should return correct number of updated offers")
	s.Equal(int32(2), firstRun.Unmatched, "should return correct number of unmatched records")
	s.Equal(int32(1), firstRun.Skipped, "should return correct number of skipped records")
	s.Equal(int32(0), firstRun.Failed, "should return correct number of failed records")
	s.assertOffers(vendorID, map[string]float64{"DOR-123": 15, "DOR-777": 8.25}, lastModified)

	// Second iteration
	setFeedFile(1)

	// Send reconcile command
	if err := publisher.SendReconcileCommand(ctx, vendorID); err != nil {
		s.Require().FailNow("can't publish reconcile command", err)
	}

	// Wait for reconciliation to be finished
	secondRun := helpers.WaitForSummary(s.T(), summaries, vendorID, summaryTimeout)

	// Cancel context and wait for consumer to stop
	cancel()
	<-rmq.Done()

	// Check results
	logs := strings.Split(buf.String(), "\n")
	logs = lo.Filter(logs, func(log string, _ int) bool { return strings.TrimSpace(log) != "" })

	s.True(secondRun.Success, "second run should succeed")
	s.Greater(secondRun.RunID, firstRun.RunID, "second run should be newer")
	s.Equal(int32(0), secondRun.Created, "should return correct number of created offers")
	s.Equal(int32(2), secondRun.Updated, "should return correct number of updated offers")
	s.Equal(int32(2), secondRun.Unmatched, "should return correct number of unmatched records")
	s.Equal(int32(1), secondRun.Skipped, "should return correct number of skipped records")
	s.Equal(int32(0), secondRun.Failed, "should return correct number of failed records")
	s.assertOffers(vendorID, map[string]float64{"DOR-123": 15, "DOR-777": 9}, lastModified)

	unmatched, err := store.ListUnmatched(context.Background(), vendorID)
	s.Require().NoError(err, "shouldn't return any error")
	s.ElementsMatch(
		[]string{"9001", "4242"},
		lo.Map(unmatched, func(r models.UnmatchedRecord, _ int) string { return r.VendorKey }),
		"unmatched records should be kept once per vendor key",
	)

	runs := lo.Filter(storagetesting.GetRuns(s.T(), s.db), func(r pgmodels.Run, _ int) bool { return r.VendorID == vendorID })
	s.Len(runs, 2, "should store both runs")

	assertLogsMessages(s.T(), []string{
		"reconciliation started", "reconciliation finished",
		"reconciliation started", "reconciliation finished",
	}, logs)
}

// assertOffers asserts stored offers costs and shippings by product sku.
func (s *E2ETestSuite) assertOffers(vendorID string, wantCosts map[string]float64, lastSeen time.Time) {
	s.T().Helper()

	offers := storagetesting.GetOffers(s.T(), s.db, vendorID)
	s.Require().Len(offers, len(wantCosts), "incorrect number of offers")

	for _, offer := range offers {
		want, ok := wantCosts[offer.ProductSku]
		if !s.Truef(ok, "unexpected offer of %s", offer.ProductSku) {
			continue
		}

		s.Require().NotNil(offer.Cost, "offer cost should be stored")
		s.InDeltaf(want, *offer.Cost, 0.00001, "offer of %s has incorrect cost", offer.ProductSku)
		s.Truef(lastSeen.Equal(offer.LastSeen), "offer of %s should be last seen at file modification time", offer.ProductSku)

		shippings := storagetesting.GetShippings(s.T(), s.db, offer.ID)
		s.Require().Lenf(shippings, 1, "offer of %s should have one shipping quote", offer.ProductSku)
		s.Equal(destination, shippings[0].Destination, "shipping should be quoted for destination")
		s.Equal("ground", shippings[0].Service, "shipping should have quoted service")
		s.InDelta(4.99, shippings[0].Price, 0.00001, "shipping should have quoted price")
	}
}

// assertLogsMessages is helper function which unmarshals log json and asserts message.
func assertLogsMessages(t *testing.T, expected []string, actual []string) {
	t.Helper()

	require.Len(t, actual, len(expected), "incorrect number of logs")

	for ix, exp := range expected {
		var log struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal([]byte(actual[ix]), &log); err != nil {
			require.FailNow(t, "can't unmarshal json log", err)
		}

		assert.Equalf(t, exp, log.Message, "log at index %d is incorrect", ix)
	}
}
