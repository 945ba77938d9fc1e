package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform/models"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform/storage/gen/postgres/public/table"
	"github.com/lib/pq"
	"github.com/samber/lo"

	pgmodels "github.com/MichalMitros/vendor-feed-reconciler/internal/platform/storage/gen/postgres/public/model"
	pg "github.com/go-jet/jet/v2/postgres"
	"github.com/go-jet/jet/v2/qrm"
)

const uniqueViolation = "23505"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Postgres is storage for catalog products, vendor offers, unmatched records and runs.
type Postgres struct {
	db   *sql.DB
	opts options
}

// NewPostgres returns new Postgres.
func NewPostgres(db *sql.DB, ops ...Option) Postgres {
	return Postgres{
		db:   db,
		opts: newOptions(ops),
	}
}

// StartRun creates new unfinished run of vendor in database and returns it.
// It returns ErrAlreadyRunning if previous run is not finished yet.
func (p Postgres) StartRun(ctx context.Context, vendorID string, version int64) (*models.Run, error) {
	run := &models.Run{
		VendorID: vendorID,
		Version:  version,
	}

	err := runInTransaction(ctx, p.db, func(tx *sql.Tx) error {
		// serializes concurrent starts of the same vendor until commit
		if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", vendorID); err != nil {
			return fmt.Errorf("can't lock vendor runs: %w", err)
		}

		lastRun, err := getLastRun(ctx, tx, vendorID)
		if err != nil && !errors.Is(err, qrm.ErrNoRows) {
			return fmt.Errorf("can't get last run from database: %w", err)
		}

		if lastRun != nil && p.opts.blocksStart(lastRun.CreatedAt, lastRun.FinishedAt, lastRun.Success) {
			return platform.ErrAlreadyRunning
		}

		newRun := toDBRun(run)
		err = table.Run.INSERT(
			table.Run.VendorID,
			table.Run.Version,
		).
			MODEL(newRun).
			RETURNING(table.Run.ID, table.Run.CreatedAt).
			QueryContext(ctx, tx, newRun)
		if err != nil {
			return fmt.Errorf("can't insert run into database: %w", err)
		}

		run.ID = int(newRun.ID)
		run.CreatedAt = newRun.CreatedAt

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("can't add run: %w", err)
	}

	return run, nil
}

// FinishRun sets run as finished and updates run's statistics.
func (p Postgres) FinishRun(ctx context.Context, run *models.Run) error {
	columnList := table.Run.AllColumns.Except(table.Run.ID, table.Run.CreatedAt, table.Run.VendorID, table.Run.Version)

	result, err := table.Run.UPDATE(columnList).
		MODEL(toDBRun(run)).
		WHERE(table.Run.ID.EQ(pg.Int32(int32(run.ID)))).
		ExecContext(ctx, p.db)
	if err != nil {
		return fmt.Errorf("can't update run: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("can't update run: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("can't update run %d: %w", run.ID, platform.ErrNotFound)
	}

	return nil
}

// FindProducts returns catalog products matching query ordered by SKU.
func (p Postgres) FindProducts(ctx context.Context, query models.ProductQuery) ([]models.CanonicalProduct, error) {
	condition, err := p.productCondition(ctx, query)
	if err != nil {
		return nil, err
	}
	if condition == nil {
		return nil, nil
	}

	if len(query.Brands) > 0 {
		brands := lo.Map(query.Brands, func(brand string, _ int) pg.Expression {
			return pg.String(strings.ToLower(brand))
		})
		condition = condition.AND(pg.LOWER(table.Product.Brand).IN(brands...))
	}

	var products []pgmodels.Product
	err = table.Product.SELECT(table.Product.AllColumns).
		WHERE(condition).
		ORDER_BY(table.Product.Sku.ASC()).
		QueryContext(ctx, p.db, &products)
	if err != nil {
		return nil, fmt.Errorf("can't find products by %s: %w", query.Field, err)
	}

	if len(products) == 0 {
		return nil, nil
	}

	codes, err := getVendorCodes(ctx, p.db, lo.Map(products, func(product pgmodels.Product, _ int) string {
		return product.Sku
	}))
	if err != nil {
		return nil, fmt.Errorf("can't get products vendor codes: %w", err)
	}

	result := make([]models.CanonicalProduct, 0, len(products))
	for ix := range products {
		result = append(result, toProduct(&products[ix], codes[products[ix].Sku]))
	}

	return result, nil
}

// CreateProduct creates catalog product with its vendor codes.
// It returns ErrConflict when SKU is taken.
func (p Postgres) CreateProduct(ctx context.Context, product models.CanonicalProduct) error {
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}

	dbProduct, codes := ToDBProduct(&product)

	err := runInTransaction(ctx, p.db, func(tx *sql.Tx) error {
		_, err := table.Product.INSERT(table.Product.AllColumns).
			MODEL(dbProduct).
			ExecContext(ctx, tx)
		if err != nil {
			return fmt.Errorf("can't insert product into database: %w", conflictError(err))
		}

		if len(codes) == 0 {
			return nil
		}

		_, err = table.ProductVendorCode.INSERT(table.ProductVendorCode.AllColumns).
			MODELS(codes).
			ExecContext(ctx, tx)
		if err != nil {
			return fmt.Errorf("can't insert product vendor codes into database: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("can't create product %s: %w", product.SKU, err)
	}

	return nil
}

// ListVendorCodes returns sorted distinct vendor's codes of all catalog products.
func (p Postgres) ListVendorCodes(ctx context.Context, vendorID string) ([]string, error) {
	var codes []pgmodels.ProductVendorCode
	err := table.ProductVendorCode.SELECT(table.ProductVendorCode.AllColumns).
		WHERE(pg.AND(
			table.ProductVendorCode.VendorID.EQ(pg.String(vendorID)),
			table.ProductVendorCode.Code.NOT_EQ(pg.String("")),
		)).
		ORDER_BY(table.ProductVendorCode.Code.ASC()).
		QueryContext(ctx, p.db, &codes)
	if err != nil {
		return nil, fmt.Errorf("can't list vendor codes: %w", err)
	}

	result := lo.Map(codes, func(code pgmodels.ProductVendorCode, _ int) string { return code.Code })
	slices.Sort(result)

	return slices.Compact(result), nil
}

// FindOffer returns vendor's offer for sku with its shippings or ErrNotFound.
func (p Postgres) FindOffer(ctx context.Context, vendorID, sku string) (*models.VendorOffer, error) {
	var offer pgmodels.Offer
	err := table.Offer.SELECT(table.Offer.AllColumns).
		WHERE(pg.AND(
			table.Offer.VendorID.EQ(pg.String(vendorID)),
			table.Offer.ProductSku.EQ(pg.String(sku)),
		)).
		QueryContext(ctx, p.db, &offer)
	if errors.Is(err, qrm.ErrNoRows) {
		return nil, platform.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("can't get offer from database: %w", err)
	}

	shippings, err := getShippings(ctx, p.db, offer.ID)
	if err != nil {
		return nil, fmt.Errorf("can't get offer shippings: %w", err)
	}

	return toOffer(&offer, shippings), nil
}

// CreateOffer creates offer with its shippings and sets its ID.
// It returns ErrConflict when vendor's offer for sku exists.
func (p Postgres) CreateOffer(ctx context.Context, offer *models.VendorOffer) error {
	dbOffer := ToDBOffer(offer)

	err := runInTransaction(ctx, p.db, func(tx *sql.Tx) error {
		err := table.Offer.INSERT(table.Offer.AllColumns.Except(table.Offer.ID)).
			MODEL(dbOffer).
			RETURNING(table.Offer.ID).
			QueryContext(ctx, tx, dbOffer)
		if err != nil {
			return fmt.Errorf("can't insert offer into database: %w", conflictError(err))
		}

		return insertShippings(ctx, tx, dbOffer.ID, offer.Shippings)
	})
	if err != nil {
		return fmt.Errorf("can't create offer %s: %w", offer.ProductSKU, err)
	}

	offer.ID = int(dbOffer.ID)

	return nil
}

// UpdateOffer updates mutable offer fields. Shippings are replaced unless nil.
// It returns ErrNotFound when vendor has no offer for sku.
func (p Postgres) UpdateOffer(ctx context.Context, offer *models.VendorOffer) error {
	columnList := table.Offer.MutableColumns.Except(
		table.Offer.VendorID,
		table.Offer.ProductSku,
		table.Offer.CreatedAt,
	)

	err := runInTransaction(ctx, p.db, func(tx *sql.Tx) error {
		var updated pgmodels.Offer
		err := table.Offer.UPDATE(columnList).
			MODEL(ToDBOffer(offer)).
			WHERE(pg.AND(
				table.Offer.VendorID.EQ(pg.String(offer.VendorID)),
				table.Offer.ProductSku.EQ(pg.String(offer.ProductSKU)),
			)).
			RETURNING(table.Offer.ID).
			QueryContext(ctx, tx, &updated)
		if errors.Is(err, qrm.ErrNoRows) {
			return platform.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("can't update offer in database: %w", err)
		}

		if offer.Shippings == nil {
			return nil
		}

		_, err = table.OfferShipping.DELETE().
			WHERE(table.OfferShipping.OfferID.EQ(pg.Int32(updated.ID))).
			ExecContext(ctx, tx)
		if err != nil {
			return fmt.Errorf("can't delete outdated offer shippings from database: %w", err)
		}

		return insertShippings(ctx, tx, updated.ID, offer.Shippings)
	})
	if err != nil {
		return fmt.Errorf("can't update offer %s: %w", offer.ProductSKU, err)
	}

	return nil
}

// AppendUnmatched stores record unless vendor key was already recorded for vendor.
func (p Postgres) AppendUnmatched(ctx context.Context, record models.UnmatchedRecord) error {
	_, err := table.UnmatchedRecord.INSERT(table.UnmatchedRecord.AllColumns.Except(table.UnmatchedRecord.ID)).
		MODEL(toDBUnmatched(&record)).
		ON_CONFLICT(table.UnmatchedRecord.VendorID, table.UnmatchedRecord.VendorKey).
		DO_NOTHING().
		ExecContext(ctx, p.db)
	if err != nil {
		return fmt.Errorf("can't insert unmatched record into database: %w", err)
	}

	return nil
}

// ListUnmatched returns unmatched records of vendor in insertion order.
func (p Postgres) ListUnmatched(ctx context.Context, vendorID string) ([]models.UnmatchedRecord, error) {
	var records []pgmodels.UnmatchedRecord
	err := table.UnmatchedRecord.SELECT(table.UnmatchedRecord.AllColumns).
		WHERE(table.UnmatchedRecord.VendorID.EQ(pg.String(vendorID))).
		ORDER_BY(table.UnmatchedRecord.ID.ASC()).
		QueryContext(ctx, p.db, &records)
	if err != nil {
		return nil, fmt.Errorf("can't list unmatched records: %w", err)
	}

	return lo.Map(records, func(record pgmodels.UnmatchedRecord, _ int) models.UnmatchedRecord {
		return toUnmatched(&record)
	}), nil
}

// productCondition returns nil condition when query can't match any product.
func (p Postgres) productCondition(ctx context.Context, query models.ProductQuery) (pg.BoolExpression, error) {
	switch query.Field {
	case models.FieldProductSKU:
		return table.Product.Sku.EQ(pg.String(query.Value)), nil
	case models.FieldSearchableKey:
		return table.Product.SearchableKey.EQ(pg.String(query.Value)), nil
	case models.FieldSKUSuffix:
		return table.Product.Sku.LIKE(pg.String("%" + likeEscaper.Replace(query.Value))), nil
	case models.FieldSKUContains:
		return table.Product.Sku.LIKE(pg.String("%" + likeEscaper.Replace(query.Value) + "%")), nil
	case models.FieldVendorCode:
		var codes []pgmodels.ProductVendorCode
		err := table.ProductVendorCode.SELECT(table.ProductVendorCode.AllColumns).
			WHERE(pg.AND(
				table.ProductVendorCode.VendorID.EQ(pg.String(query.VendorID)),
				table.ProductVendorCode.Code.EQ(pg.String(query.Value)),
			)).
			QueryContext(ctx, p.db, &codes)
		if err != nil {
			return nil, fmt.Errorf("can't find products by vendor code: %w", err)
		}
		if len(codes) == 0 {
			return nil, nil
		}

		skus := lo.Map(codes, func(code pgmodels.ProductVendorCode, _ int) pg.Expression {
			return pg.String(code.ProductSku)
		})
		return table.Product.Sku.IN(skus...), nil
	default:
		return nil, nil
	}
}

func getLastRun(ctx context.Context, db qrm.DB, vendorID string) (*pgmodels.Run, error) {
	var run pgmodels.Run
	err := table.Run.SELECT(
		table.Run.ID,
		table.Run.CreatedAt,
		table.Run.FinishedAt,
		table.Run.Success,
		table.Run.StatusMessage,
	).
		WHERE(table.Run.VendorID.EQ(pg.String(vendorID))).
		ORDER_BY(table.Run.CreatedAt.DESC(), table.Run.ID.DESC()).
		LIMIT(1).
		QueryContext(ctx, db, &run)
	if err != nil {
		return nil, err
	}

	return &run, nil
}

func getVendorCodes(ctx context.Context, db qrm.DB, skus []string) (map[string][]pgmodels.ProductVendorCode, error) {
	ids := make([]pg.Expression, 0, len(skus))
	for ix := range skus {
		ids = append(ids, pg.String(skus[ix]))
	}

	var codes []pgmodels.ProductVendorCode
	err := table.ProductVendorCode.SELECT(table.ProductVendorCode.AllColumns).
		WHERE(table.ProductVendorCode.ProductSku.IN(ids...)).
		QueryContext(ctx, db, &codes)
	if err != nil {
		return nil, err
	}

	return lo.GroupBy(codes, func(code pgmodels.ProductVendorCode) string { return code.ProductSku }), nil
}

func getShippings(ctx context.Context, db qrm.DB, offerID int32) ([]pgmodels.OfferShipping, error) {
	var shippings []pgmodels.OfferShipping
	err := table.OfferShipping.SELECT(table.OfferShipping.AllColumns).
		WHERE(table.OfferShipping.OfferID.EQ(pg.Int32(offerID))).
		ORDER_BY(table.OfferShipping.ID.ASC()).
		QueryContext(ctx, db, &shippings)
	if err != nil {
		return nil, err
	}

	return shippings, nil
}

func insertShippings(ctx context.Context, db qrm.DB, offerID int32, shippings []models.Shipping) error {
	if len(shippings) == 0 {
		return nil
	}

	_, err := table.OfferShipping.INSERT(table.OfferShipping.AllColumns.Except(table.OfferShipping.ID)).
		MODELS(ToDBShippings(offerID, shippings)).
		ExecContext(ctx, db)
	if err != nil {
		return fmt.Errorf("can't insert shippings into database: %w", err)
	}

	return nil
}

// conflictError maps unique violation into platform.ErrConflict.
func conflictError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", platform.ErrConflict, pqErr.Constraint)
	}
	return err
}

func runInTransaction(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	var (
		tx  *sql.Tx
		err error
	)

	if tx, err = db.BeginTx(ctx, nil); err != nil {
		return fmt.Errorf("can't begin transaction: %w", err)
	}

	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("can't rollback transaction: %w (rollback reason: %w)", rbErr, err)
		}
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("can't commit transaction: %w", err)
	}

	return nil
}
