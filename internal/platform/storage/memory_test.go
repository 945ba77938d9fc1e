package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform/models"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform/storage"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitMemoryFindProducts(t *testing.T) {
	mem := storage.NewMemory(
		models.CanonicalProduct{SKU: "DOR-000123", Brand: "Dorman", SearchableKey: "123"},
		models.CanonicalProduct{SKU: "DOR-123", Brand: "Dorman", SearchableKey: "123", VendorCodes: map[string]string{"acme": "A-1"}},
		models.CanonicalProduct{SKU: "MOT-5123X", Brand: "Motorcraft", SearchableKey: "5123X"},
	)

	tests := map[string]struct {
		query    models.ProductQuery
		wantSKUs []string
	}{
		"by sku": {
			query:    models.ProductQuery{Field: models.FieldProductSKU, Value: "DOR-123"},
			wantSKUs: []string{"DOR-123"},
		},
		"by vendor code": {
			query:    models.ProductQuery{Field: models.FieldVendorCode, VendorID: "acme", Value: "A-1"},
			wantSKUs: []string{"DOR-123"},
		},
		"by searchable key and brand": {
			query:    models.ProductQuery{Field: models.FieldSearchableKey, Value: "123", Brands: []string{"dorman"}},
			wantSKUs: []string{"DOR-000123", "DOR-123"},
		},
		"by sku suffix and other brand": {
			query:    models.ProductQuery{Field: models.FieldSKUSuffix, Value: "123", Brands: []string{"Motorcraft"}},
			wantSKUs: []string{},
		},
		"by sku substring": {
			query:    models.ProductQuery{Field: models.FieldSKUContains, Value: "512"},
			wantSKUs: []string{"MOT-5123X"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			products, err := mem.FindProducts(context.TODO(), tt.query)

			require.NoError(t, err, "shouldn't return any error")
			assert.Equal(t, tt.wantSKUs, lo.Map(products, func(p models.CanonicalProduct, _ int) string { return p.SKU }),
				"should find correct products")
		})
	}
}

func TestUnitMemoryRuns(t *testing.T) {
	mem := storage.NewMemory()

	run, err := mem.StartRun(context.TODO(), "acme", 1)
	require.NoError(t, err, "shouldn't return any error")

	_, err = mem.StartRun(context.TODO(), "acme", 2)
	require.ErrorIs(t, err, platform.ErrAlreadyRunning, "should reject second run of vendor")

	_, err = mem.StartRun(context.TODO(), "globex", 2)
	require.NoError(t, err, "should start run of other vendor")

	run.IsSuccess = lo.ToPtr(true)
	require.NoError(t, mem.FinishRun(context.TODO(), run), "shouldn't return any error")

	_, err = mem.StartRun(context.TODO(), "acme", 3)
	require.NoError(t, err, "should start run after finished one")
	assert.Len(t, mem.Runs("acme"), 2, "should keep all vendor runs")

	err = mem.FinishRun(context.TODO(), &models.Run{ID: 4242})
	assert.ErrorIs(t, err, platform.ErrNotFound, "should return not found for unknown run")
}

func TestUnitMemoryStaleRuns(t *testing.T) {
	startedAt := time.Date(2024, time.April, 1, 1, 0, 0, 0, time.UTC)
	now := startedAt
	mem := storage.NewMemory().With(
		storage.WithStaleRunAfter(time.Hour),
		storage.WithNow(func() time.Time { return now }),
	)

	abandoned, err := mem.StartRun(context.TODO(), "acme", 1)
	require.NoError(t, err, "shouldn't return any error")
	assert.Equal(t, startedAt, abandoned.CreatedAt, "should set run start time")

	now = startedAt.Add(59 * time.Minute)
	_, err = mem.StartRun(context.TODO(), "acme", 2)
	require.ErrorIs(t, err, platform.ErrAlreadyRunning, "should reject run while previous one is fresh")

	now = startedAt.Add(time.Hour)
	run, err := mem.StartRun(context.TODO(), "acme", 3)
	require.NoError(t, err, "should start run after previous one was abandoned")
	assert.Equal(t, int64(3), run.Version, "should start new run")

	now = now.Add(time.Minute)
	_, err = mem.StartRun(context.TODO(), "acme", 4)
	require.ErrorIs(t, err, platform.ErrAlreadyRunning, "should reject run while new one is fresh")
}

func TestUnitMemoryConflicts(t *testing.T) {
	mem := storage.NewMemory(models.CanonicalProduct{SKU: "DOR-123"})

	err := mem.CreateProduct(context.TODO(), models.CanonicalProduct{SKU: "DOR-123"})
	require.ErrorIs(t, err, platform.ErrConflict, "should reject taken sku")

	offer := &models.VendorOffer{VendorID: "acme", ProductSKU: "DOR-123"}
	require.NoError(t, mem.CreateOffer(context.TODO(), offer), "shouldn't return any error")
	require.ErrorIs(t, mem.CreateOffer(context.TODO(), offer), platform.ErrConflict, "should reject second offer")

	missing := &models.VendorOffer{VendorID: "globex", ProductSKU: "DOR-123"}
	require.ErrorIs(t, mem.UpdateOffer(context.TODO(), missing), platform.ErrNotFound, "should reject unknown offer")
}
