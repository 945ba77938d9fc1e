package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform/models"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform/storage/schema"

	_ "github.com/lib/pq"
)

// Storage backends.
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// DefaultStaleRunAfter is age after which unfinished run is treated as abandoned.
const DefaultStaleRunAfter = 6 * time.Hour

// Option is custom configuration of storage backends.
type Option func(o *options)

type options struct {
	staleRunAfter time.Duration
	now           func() time.Time
}

func newOptions(ops []Option) options {
	o := options{
		staleRunAfter: DefaultStaleRunAfter,
		now:           time.Now,
	}

	for _, op := range ops {
		op(&o)
	}

	return o
}

// WithStaleRunAfter sets age after which unfinished run no longer blocks next run of its vendor.
// Non positive values keep DefaultStaleRunAfter.
func WithStaleRunAfter(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.staleRunAfter = d
		}
	}
}

// WithNow sets time source used for detecting stale runs.
func WithNow(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// blocksStart reports whether last run of vendor is still running.
// Unfinished run older than stale run age was abandoned, e.g. by crashed process.
func (o options) blocksStart(createdAt time.Time, finishedAt *time.Time, success *bool) bool {
	if finishedAt != nil || success != nil {
		return false
	}
	return o.now().Sub(createdAt) < o.staleRunAfter
}

// Store is catalog, offer store and runs storage.
type Store interface {
	StartRun(ctx context.Context, vendorID string, version int64) (*models.Run, error)
	FinishRun(ctx context.Context, run *models.Run) error
	FindProducts(ctx context.Context, query models.ProductQuery) ([]models.CanonicalProduct, error)
	CreateProduct(ctx context.Context, product models.CanonicalProduct) error
	ListVendorCodes(ctx context.Context, vendorID string) ([]string, error)
	FindOffer(ctx context.Context, vendorID, sku string) (*models.VendorOffer, error)
	CreateOffer(ctx context.Context, offer *models.VendorOffer) error
	UpdateOffer(ctx context.Context, offer *models.VendorOffer) error
	AppendUnmatched(ctx context.Context, record models.UnmatchedRecord) error
	ListUnmatched(ctx context.Context, vendorID string) ([]models.UnmatchedRecord, error)
}

// Open returns store of backend and function closing it.
// Postgres schema is applied when migrate is true.
func Open(ctx context.Context, backend, databaseURL string, migrate bool, ops ...Option) (Store, func() error, error) {
	switch backend {
	case BackendMemory:
		return NewMemory().With(ops...), func() error { return nil }, nil
	case BackendPostgres, "":
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", backend)
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("can't open database connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("can't connect to database: %w", err)
	}

	if migrate {
		if _, err := db.ExecContext(ctx, schema.SQL); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("can't apply database schema: %w", err)
		}
	}

	return NewPostgres(db, ops...), db.Close, nil
}
