package helpers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform/models"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform/storage"
	"github.com/MichalMitros/vendor-feed-reconciler/pkg/v1/commander"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
)

const (
	contentType = "Content-Type"
)

// WaitForSummary is blocking helper function, returns next run summary published for vendor.
func WaitForSummary(t *testing.T, deliveries <-chan amqp.Delivery, vendorID string, timeout time.Duration) *commander.RunSummary {
	t.Helper()

	deadline := time.After(timeout)
	for {
		select {
		case <-deadline:
			require.FailNow(t, "run summary wasn't published in time", vendorID)
			return nil
		case delivery, ok := <-deliveries:
			if !ok {
				require.FailNow(t, "summaries channel closed")
			}

			summary, err := commander.DecodeRunSummary(delivery.Body)
			require.NoError(t, err, "published summary should be valid")

			if summary.VendorID == vendorID {
				return summary
			}
		}
	}
}

// PrepareMockedHTTPServer is helper function for mocking vendor file server.
// Returns function for setting feed file to return, feed number is from 0 to len(feedFiles) exclusive.
func PrepareMockedHTTPServer(t *testing.T, feedFiles [][]byte, lastModified time.Time) (*httptest.Server, func(int)) {
	t.Helper()

	var feedFileToReturnIx atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(wrt http.ResponseWriter, req *http.Request) {
		wrt.Header().Add(contentType, "text/csv")
		wrt.Header().Add("Last-Modified", lastModified.UTC().Format(http.TimeFormat))
		wrt.WriteHeader(http.StatusOK)
		_, _ = wrt.Write(feedFiles[feedFileToReturnIx.Load()])
	}))

	t.Cleanup(func() {
		srv.Close()
	})

	return srv, func(i int) { feedFileToReturnIx.Store(int32(i)) }
}

// PrepareQuoteServer is helper function for mocking shipping quotes endpoint returning the same quote for every item.
func PrepareQuoteServer(t *testing.T, service, price string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(wrt http.ResponseWriter, req *http.Request) {
		if req.URL.Query().Get("sku") == "" {
			wrt.WriteHeader(http.StatusBadRequest)
			return
		}
		wrt.Header().Add(contentType, "application/json")
		wrt.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(wrt, `{"service":%q,"price":%q}`, service, price)
	}))

	t.Cleanup(func() {
		srv.Close()
	})

	return srv
}

// VendorsFile renders vendors file with single csv vendor served over http.
func VendorsFile(vendorID, feedURL, quoteURL, destination string) []byte {
	return []byte(fmt.Sprintf(`vendors:
  - id: %s
    source:
      kind: http
      url: %s
      format: csv
      columns:
        sku: Part Number
        brand: Line
        price: Cost
        quantity: Qty
      numeric: [quantity]
    rules:
      - kind: trim_space
      - kind: strip_leading_zeros
    multiplier: "1.5"
    tiers: [searchable_key, sku_contains]
    batch:
      size: 2
    retry:
      max_attempts: 2
      backoff: 10ms
    shipping:
      url: %s
      destinations: [%s]
`, vendorID, feedURL, quoteURL, destination))
}

// SeedProducts is helper function for creating canonical products.
func SeedProducts(t *testing.T, store storage.Postgres, products ...models.CanonicalProduct) {
	t.Helper()

	for _, product := range products {
		if err := store.CreateProduct(context.Background(), product); err != nil {
			require.FailNow(t, "can't create product", product.SKU, err)
		}
	}
}

// DeclareRMQExchange is helper function for declaring RMQ exchange.
func DeclareRMQExchange(t *testing.T, ch *amqp.Channel, exchange string) {
	t.Helper()

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		require.FailNow(t, "can't declare exchange", exchange, err)
	}
}

// DeclareRMQQueue is helper function for declaring RMQ queue and binding and cleaning them after test is finished.
func DeclareRMQQueue(t *testing.T, channel *amqp.Channel, queueName, exchange, routingKey string) {
	t.Helper()

	_, err := channel.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		require.FailNow(t, "can't declare queue", queueName, err)
	}

	err = channel.QueueBind(queueName, routingKey, exchange, false, nil)
	if err != nil {
		require.FailNow(t, "can't bind queue", queueName, routingKey, err)
	}

	t.Cleanup(func() {
		_, err := channel.QueueDelete(queueName, false, false, true)
		if err != nil {
			require.FailNow(t, "can't delete queue", queueName, err)
		}
	})
}

// ConsumeRMQQueue is helper function for consuming queue with auto acknowledge.
func ConsumeRMQQueue(t *testing.T, channel *amqp.Channel, queueName string) <-chan amqp.Delivery {
	t.Helper()

	deliveries, err := channel.Consume(queueName, "", true, false, false, false, nil)
	if err != nil {
		require.FailNow(t, "can't consume queue", queueName, err)
	}

	return deliveries
}
