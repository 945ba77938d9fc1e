package storagetesting

import (
	"database/sql"
	"os"
	"testing"

	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform/storage/gen/postgres/public/table"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform/storage/schema"
	"github.com/go-jet/jet/v2/qrm"

	pgmodels "github.com/MichalMitros/vendor-feed-reconciler/internal/platform/storage/gen/postgres/public/model"
	pg "github.com/go-jet/jet/v2/postgres"

	_ "github.com/lib/pq"
)

// Open opens connection to DB and applies schema. Test is skipped without DATABASE_URL.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("please provide database URL via DATABASE_URL environment variable")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		t.Fatalf("can't open connection to %q: %s", dbURL, err)
	}

	if _, err := db.Exec(schema.SQL); err != nil {
		t.Fatalf("can't apply schema: %s", err)
	}

	return db
}

// InsertProducts is a helper test function to insert products.
func InsertProducts(t *testing.T, exc qrm.Executable, products ...pgmodels.Product) {
	t.Helper()

	if len(products) == 0 {
		return
	}

	_, err := table.Product.INSERT(table.Product.AllColumns).MODELS(products).Exec(exc)
	if err != nil {
		t.Fatal("can't insert products", err)
	}
}

// InsertVendorCodes is a helper test function to insert product vendor codes.
func InsertVendorCodes(t *testing.T, exc qrm.Executable, codes ...pgmodels.ProductVendorCode) {
	t.Helper()

	if len(codes) == 0 {
		return
	}

	_, err := table.ProductVendorCode.INSERT(table.ProductVendorCode.AllColumns).MODELS(codes).Exec(exc)
	if err != nil {
		t.Fatal("can't insert vendor codes", err)
	}
}

// InsertRuns is a helper test function to insert runs.
func InsertRuns(t *testing.T, exc qrm.Executable, runs ...pgmodels.Run) {
	t.Helper()

	if len(runs) == 0 {
		return
	}

	_, err := table.Run.INSERT(table.Run.AllColumns).MODELS(runs).Exec(exc)
	if err != nil {
		t.Fatal("can't insert runs", err)
	}
}

// GetRuns is a helper test function to get all runs.
func GetRuns(t *testing.T, queryable qrm.Queryable) []pgmodels.Run {
	t.Helper()

	runs := []pgmodels.Run{}
	err := table.Run.SELECT(table.Run.AllColumns).
		WHERE(table.Run.ID.IS_NOT_NULL()).
		Query(queryable, &runs)
	if err != nil {
		t.Fatal("can't get runs", err)
	}

	return runs
}

// GetOffers is a helper test function to get all offers of vendor.
func GetOffers(t *testing.T, queryable qrm.Queryable, vendorID string) []pgmodels.Offer {
	t.Helper()

	offers := []pgmodels.Offer{}
	err := table.Offer.SELECT(table.Offer.AllColumns).
		WHERE(table.Offer.VendorID.EQ(pg.String(vendorID))).
		ORDER_BY(table.Offer.ProductSku.ASC()).
		Query(queryable, &offers)
	if err != nil {
		t.Fatal("can't get offers", err)
	}

	return offers
}

// GetShippings is a helper test function to get shippings of offer.
func GetShippings(t *testing.T, queryable qrm.Queryable, offerID int32) []pgmodels.OfferShipping {
	t.Helper()

	shippings := []pgmodels.OfferShipping{}
	err := table.OfferShipping.SELECT(table.OfferShipping.AllColumns).
		WHERE(table.OfferShipping.OfferID.EQ(pg.Int32(offerID))).
		ORDER_BY(table.OfferShipping.ID.ASC()).
		Query(queryable, &shippings)
	if err != nil {
		t.Fatal("can't get shippings", err)
	}

	return shippings
}

// CleanupData is a helper test function to delete all data.
func CleanupData(t *testing.T, exc qrm.Executable) {
	t.Helper()

	_, err := table.OfferShipping.DELETE().WHERE(table.OfferShipping.ID.IS_NOT_NULL()).Exec(exc)
	if err != nil {
		t.Fatal("can't delete shippings data", err)
	}

	_, err = table.Offer.DELETE().WHERE(table.Offer.ID.IS_NOT_NULL()).Exec(exc)
	if err != nil {
		t.Fatal("can't delete offers data", err)
	}

	_, err = table.UnmatchedRecord.DELETE().WHERE(table.UnmatchedRecord.ID.IS_NOT_NULL()).Exec(exc)
	if err != nil {
		t.Fatal("can't delete unmatched records data", err)
	}

	_, err = table.ProductVendorCode.DELETE().WHERE(table.ProductVendorCode.ProductSku.IS_NOT_NULL()).Exec(exc)
	if err != nil {
		t.Fatal("can't delete vendor codes data", err)
	}

	_, err = table.Product.DELETE().WHERE(table.Product.Sku.IS_NOT_NULL()).Exec(exc)
	if err != nil {
		t.Fatal("can't delete products data", err)
	}

	_, err = table.Run.DELETE().WHERE(table.Run.ID.IS_NOT_NULL()).Exec(exc)
	if err != nil {
		t.Fatal("can't delete runs data", err)
	}
}
