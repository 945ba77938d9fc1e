// Package reconciler writes matched offers into the offer store.
package reconciler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform/models"
)

//go:generate mockery --name Catalog --filename catalog.go
//go:generate mockery --name OfferStore --filename offer_store.go

// Catalog is canonical products lookup with minimal create.
type Catalog interface {
	FindProducts(ctx context.Context, query models.ProductQuery) ([]models.CanonicalProduct, error)
	// CreateProduct creates product, returns platform.ErrConflict when SKU is taken.
	CreateProduct(ctx context.Context, product models.CanonicalProduct) error
}

// OfferStore is vendor offers and unmatched records storage.
type OfferStore interface {
	// FindOffer returns platform.ErrNotFound when vendor has no offer for sku.
	FindOffer(ctx context.Context, vendorID, sku string) (*models.VendorOffer, error)
	// CreateOffer returns platform.ErrConflict when offer for vendor and sku already exists.
	CreateOffer(ctx context.Context, offer *models.VendorOffer) error
	// UpdateOffer updates mutable offer fields and replaces its shippings.
	UpdateOffer(ctx context.Context, offer *models.VendorOffer) error
	// AppendUnmatched stores unmatched record once per vendor key.
	AppendUnmatched(ctx context.Context, record models.UnmatchedRecord) error
}

// AutoCreate configures creating catalog products for unmatched vendor records.
type AutoCreate struct {
	SKUPrefix string
}

// Config is vendor specific reconciliation setup.
type Config struct {
	VendorID string
	// AutoCreate, when set, creates missing products instead of recording them as unmatched.
	AutoCreate *AutoCreate
}

// Option is custom configuration of Reconciler.
type Option func(r *Reconciler)

// Reconciler creates and updates vendor offers.
type Reconciler struct {
	catalog Catalog
	offers  OfferStore
	locks   *keyLock
	now     func() time.Time
}

// NewReconciler returns new Reconciler.
func NewReconciler(catalog Catalog, offers OfferStore, ops ...Option) *Reconciler {
	r := &Reconciler{
		catalog: catalog,
		offers:  offers,
		locks:   newKeyLock(),
		now:     func() time.Time { return time.Now().UTC() },
	}

	for _, op := range ops {
		op(r)
	}

	return r
}

// WithNow sets time source for created entities.
func WithNow(now func() time.Time) Option {
	return func(r *Reconciler) {
		r.now = now
	}
}

// Reconcile writes offer matched to match.Product. When match is nil offer is
// recorded as unmatched with matchErr as reason, or auto-created when configured.
func (r *Reconciler) Reconcile(
	ctx context.Context,
	offer *models.NormalizedOffer,
	match *models.MatchResult,
	matchErr error,
	cfg Config,
) (models.Outcome, error) {
	if match != nil {
		return r.upsert(ctx, offer, match.Product.SKU, cfg)
	}

	if cfg.AutoCreate != nil && !errors.Is(matchErr, platform.ErrAmbiguousMatch) {
		product, err := r.autoCreate(ctx, offer, cfg)
		if err != nil {
			return "", fmt.Errorf("can't auto-create product for %s: %w", offer.VendorKey, err)
		}
		return r.upsert(ctx, offer, product.SKU, cfg)
	}

	if err := r.appendUnmatched(ctx, offer, matchErr, cfg); err != nil {
		return "", err
	}

	return models.OutcomeUnmatched, nil
}

func (r *Reconciler) upsert(ctx context.Context, offer *models.NormalizedOffer, sku string, cfg Config) (models.Outcome, error) {
	unlock := r.locks.Lock(cfg.VendorID + "/" + sku)
	defer unlock()

	existing, err := r.offers.FindOffer(ctx, cfg.VendorID, sku)
	if err != nil && !errors.Is(err, platform.ErrNotFound) {
		return "", fmt.Errorf("can't find offer %s: %w", sku, err)
	}

	if existing != nil {
		if err := r.update(ctx, existing, offer); err != nil {
			return "", err
		}
		return models.OutcomeUpdated, nil
	}

	created := &models.VendorOffer{
		VendorID:            cfg.VendorID,
		ProductSKU:          sku,
		VendorKey:           offer.VendorKey,
		ManufacturerKey:     offer.ManufacturerKey,
		Cost:                offer.Cost,
		InventoryQuantity:   offer.InventoryQuantity,
		InventoryDescriptor: offer.InventoryDescriptor,
		SourceTimestamp:     offer.SourceTimestamp,
		LastSeen:            offer.SourceTimestamp,
		CreatedAt:           r.now(),
		Shippings:           offer.Shippings,
	}

	err = r.offers.CreateOffer(ctx, created)
	if err == nil {
		return models.OutcomeCreated, nil
	}

	if !errors.Is(err, platform.ErrConflict) {
		return "", fmt.Errorf("can't create offer %s: %w", sku, err)
	}

	// offer was created concurrently outside of this process, retry once as update
	existing, err = r.offers.FindOffer(ctx, cfg.VendorID, sku)
	if err != nil {
		return "", fmt.Errorf("can't find conflicting offer %s: %w", sku, err)
	}

	if err := r.update(ctx, existing, offer); err != nil {
		return "", err
	}

	return models.OutcomeUpdated, nil
}

// update overwrites mutable fields only, product identity is never touched.
func (r *Reconciler) update(ctx context.Context, existing *models.VendorOffer, offer *models.NormalizedOffer) error {
	updated := *existing
	updated.VendorKey = offer.VendorKey
	updated.ManufacturerKey = offer.ManufacturerKey
	updated.InventoryQuantity = offer.InventoryQuantity
	updated.InventoryDescriptor = offer.InventoryDescriptor
	updated.SourceTimestamp = offer.SourceTimestamp
	updated.LastSeen = offer.SourceTimestamp

	if offer.Cost != nil {
		updated.Cost = offer.Cost
	}

	// nil shippings mean quotes weren't collected, keep last known ones
	if offer.Shippings != nil {
		updated.Shippings = offer.Shippings
	}

	if err := r.offers.UpdateOffer(ctx, &updated); err != nil {
		return fmt.Errorf("can't update offer %s: %w", existing.ProductSKU, err)
	}

	return nil
}

func (r *Reconciler) autoCreate(ctx context.Context, offer *models.NormalizedOffer, cfg Config) (*models.CanonicalProduct, error) {
	sku := cfg.AutoCreate.SKUPrefix + offer.VendorKey

	existing, err := r.findBySKU(ctx, sku)
	if err != nil || existing != nil {
		return existing, err
	}

	product := models.CanonicalProduct{
		SKU:           sku,
		Brand:         offer.Brand,
		SearchableKey: offer.VendorKey,
		VendorCodes:   map[string]string{cfg.VendorID: offer.VendorKey},
		CreatedAt:     r.now(),
	}

	err = r.catalog.CreateProduct(ctx, product)
	if errors.Is(err, platform.ErrConflict) {
		existing, err = r.findBySKU(ctx, sku)
		if err == nil && existing == nil {
			err = fmt.Errorf("conflicting product %s disappeared: %w", sku, platform.ErrNotFound)
		}
		return existing, err
	}
	if err != nil {
		return nil, err
	}

	return &product, nil
}

func (r *Reconciler) findBySKU(ctx context.Context, sku string) (*models.CanonicalProduct, error) {
	products, err := r.catalog.FindProducts(ctx, models.ProductQuery{
		Field: models.FieldProductSKU,
		Value: sku,
	})
	if err != nil {
		return nil, fmt.Errorf("can't find product %s: %w", sku, err)
	}

	if len(products) == 0 {
		return nil, nil
	}

	return &products[0], nil
}

func (r *Reconciler) appendUnmatched(ctx context.Context, offer *models.NormalizedOffer, matchErr error, cfg Config) error {
	reason := "no_match"
	var me *platform.MatchError
	if errors.As(matchErr, &me) {
		reason = me.Reason()
	}

	payload, err := json.Marshal(offer.Raw)
	if err != nil {
		return fmt.Errorf("can't encode unmatched record %s: %w", offer.VendorKey, err)
	}

	err = r.offers.AppendUnmatched(ctx, models.UnmatchedRecord{
		VendorID:   cfg.VendorID,
		VendorKey:  offer.VendorKey,
		RawPayload: string(payload),
		Reason:     reason,
		FirstSeen:  offer.SourceTimestamp,
	})
	if err != nil {
		return fmt.Errorf("can't append unmatched record %s: %w", offer.VendorKey, err)
	}

	return nil
}
