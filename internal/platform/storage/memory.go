package storage

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform/models"
	"github.com/samber/lo"
)

// Memory is in-process storage for catalog, offers, unmatched records and runs.
type Memory struct {
	mu        sync.RWMutex
	products  map[string]models.CanonicalProduct
	offers    map[offerKey]models.VendorOffer
	unmatched []models.UnmatchedRecord
	runs      []models.Run
	lastID    int
	opts      options
}

type offerKey struct {
	vendorID string
	sku      string
}

// NewMemory returns new Memory seeded with products.
func NewMemory(products ...models.CanonicalProduct) *Memory {
	m := &Memory{
		products: make(map[string]models.CanonicalProduct, len(products)),
		offers:   make(map[offerKey]models.VendorOffer),
		opts:     newOptions(nil),
	}

	for _, product := range products {
		m.products[product.SKU] = cloneProduct(product)
	}

	return m
}

// With applies options to Memory and returns it.
func (m *Memory) With(ops ...Option) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, op := range ops {
		op(&m.opts)
	}

	return m
}

// StartRun creates new unfinished run. It returns ErrAlreadyRunning if previous run is not finished yet.
func (m *Memory) StartRun(_ context.Context, vendorID string, version int64) (*models.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for ix := len(m.runs) - 1; ix >= 0; ix-- {
		if m.runs[ix].VendorID != vendorID {
			continue
		}
		last := m.runs[ix]
		if m.opts.blocksStart(last.CreatedAt, last.FinishedAt, last.IsSuccess) {
			return nil, platform.ErrAlreadyRunning
		}
		break
	}

	m.lastID++
	run := models.Run{
		ID:        m.lastID,
		VendorID:  vendorID,
		CreatedAt: m.opts.now().UTC(),
		Version:   version,
	}
	m.runs = append(m.runs, run)

	return &run, nil
}

// FinishRun stores run's status and statistics.
func (m *Memory) FinishRun(_ context.Context, run *models.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for ix := range m.runs {
		if m.runs[ix].ID == run.ID {
			createdAt := m.runs[ix].CreatedAt
			m.runs[ix] = *run
			m.runs[ix].CreatedAt = createdAt
			return nil
		}
	}

	return platform.ErrNotFound
}

// Runs returns all runs of vendor, oldest first.
func (m *Memory) Runs(vendorID string) []models.Run {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return lo.Filter(m.runs, func(run models.Run, _ int) bool { return run.VendorID == vendorID })
}

// FindProducts returns products matching query ordered by SKU.
func (m *Memory) FindProducts(_ context.Context, query models.ProductQuery) ([]models.CanonicalProduct, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var found []models.CanonicalProduct
	for _, product := range m.products {
		if matchesQuery(product, query) {
			found = append(found, cloneProduct(product))
		}
	}

	slices.SortFunc(found, func(a, b models.CanonicalProduct) int { return strings.Compare(a.SKU, b.SKU) })

	return found, nil
}

// CreateProduct creates product. It returns ErrConflict when SKU is taken.
func (m *Memory) CreateProduct(_ context.Context, product models.CanonicalProduct) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[product.SKU]; ok {
		return platform.ErrConflict
	}
	m.products[product.SKU] = cloneProduct(product)

	return nil
}

// ListVendorCodes returns vendor's codes of all catalog products, sorted.
func (m *Memory) ListVendorCodes(_ context.Context, vendorID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	codes := make([]string, 0)
	for _, product := range m.products {
		if code, ok := product.VendorCodes[vendorID]; ok && code != "" {
			codes = append(codes, code)
		}
	}
	slices.Sort(codes)

	return slices.Compact(codes), nil
}

// FindOffer returns vendor's offer for sku or ErrNotFound.
func (m *Memory) FindOffer(_ context.Context, vendorID, sku string) (*models.VendorOffer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	offer, ok := m.offers[offerKey{vendorID, sku}]
	if !ok {
		return nil, platform.ErrNotFound
	}

	offer = cloneOffer(offer)
	return &offer, nil
}

// CreateOffer creates offer. It returns ErrConflict when vendor's offer for sku exists.
func (m *Memory) CreateOffer(_ context.Context, offer *models.VendorOffer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := offerKey{offer.VendorID, offer.ProductSKU}
	if _, ok := m.offers[key]; ok {
		return platform.ErrConflict
	}

	m.lastID++
	offer.ID = m.lastID
	m.offers[key] = cloneOffer(*offer)

	return nil
}

// UpdateOffer replaces stored offer. Identity fields of stored offer are kept.
func (m *Memory) UpdateOffer(_ context.Context, offer *models.VendorOffer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := offerKey{offer.VendorID, offer.ProductSKU}
	stored, ok := m.offers[key]
	if !ok {
		return platform.ErrNotFound
	}

	updated := cloneOffer(*offer)
	updated.ID = stored.ID
	updated.CreatedAt = stored.CreatedAt
	m.offers[key] = updated

	return nil
}

// Offers returns all offers of vendor ordered by SKU.
func (m *Memory) Offers(vendorID string) []models.VendorOffer {
	m.mu.RLock()
	defer m.mu.RUnlock()

	offers := make([]models.VendorOffer, 0)
	for _, key := range slices.SortedFunc(maps.Keys(m.offers), func(a, b offerKey) int {
		return strings.Compare(a.vendorID+"/"+a.sku, b.vendorID+"/"+b.sku)
	}) {
		if key.vendorID == vendorID {
			offers = append(offers, cloneOffer(m.offers[key]))
		}
	}

	return offers
}

// AppendUnmatched stores record unless vendor key was already recorded for vendor.
func (m *Memory) AppendUnmatched(_ context.Context, record models.UnmatchedRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if lo.ContainsBy(m.unmatched, func(r models.UnmatchedRecord) bool {
		return r.VendorID == record.VendorID && r.VendorKey == record.VendorKey
	}) {
		return nil
	}

	m.lastID++
	record.ID = m.lastID
	m.unmatched = append(m.unmatched, record)

	return nil
}

// ListUnmatched returns unmatched records of vendor in insertion order.
func (m *Memory) ListUnmatched(_ context.Context, vendorID string) ([]models.UnmatchedRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return lo.Filter(m.unmatched, func(r models.UnmatchedRecord, _ int) bool { return r.VendorID == vendorID }), nil
}

func matchesQuery(product models.CanonicalProduct, query models.ProductQuery) bool {
	if len(query.Brands) > 0 && !lo.ContainsBy(query.Brands, func(brand string) bool {
		return strings.EqualFold(brand, product.Brand)
	}) {
		return false
	}

	switch query.Field {
	case models.FieldProductSKU:
		return product.SKU == query.Value
	case models.FieldVendorCode:
		code, ok := product.VendorCodes[query.VendorID]
		return ok && code == query.Value
	case models.FieldSearchableKey:
		return product.SearchableKey == query.Value
	case models.FieldSKUSuffix:
		return strings.HasSuffix(product.SKU, query.Value)
	case models.FieldSKUContains:
		return strings.Contains(product.SKU, query.Value)
	default:
		return false
	}
}

func cloneProduct(product models.CanonicalProduct) models.CanonicalProduct {
	product.VendorCodes = maps.Clone(product.VendorCodes)
	if product.VendorCodes == nil {
		product.VendorCodes = map[string]string{}
	}
	return product
}

func cloneOffer(offer models.VendorOffer) models.VendorOffer {
	offer.Shippings = slices.Clone(offer.Shippings)
	return offer
}
