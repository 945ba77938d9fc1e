// Package matcher resolves normalized vendor offers to canonical products.
package matcher

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform/models"
	gocache "github.com/patrickmn/go-cache"
	"github.com/samber/lo"
)

//go:generate mockery --name Catalog --filename catalog.go

// Tiers lists match tiers in precision order.
var Tiers = []models.Field{
	models.FieldVendorCode,
	models.FieldSearchableKey,
	models.FieldSKUSuffix,
	models.FieldSKUContains,
}

// Catalog is canonical products lookup.
type Catalog interface {
	FindProducts(ctx context.Context, query models.ProductQuery) ([]models.CanonicalProduct, error)
}

// Config is vendor specific matching setup.
type Config struct {
	VendorID string
	// Tiers enabled for vendor, all Tiers when empty. Always attempted in precision order.
	Tiers []models.Field
	// Brands maps folded vendor brand labels to canonical brands.
	Brands          map[string][]string
	DefaultBrands   []string
	SuffixDelimiter string
}

// Option is custom configuration of Matcher.
type Option func(m *Matcher)

// Matcher matches offers against catalog tier by tier.
type Matcher struct {
	catalog Catalog
	cache   *gocache.Cache
}

// NewMatcher returns new Matcher.
func NewMatcher(catalog Catalog, ops ...Option) *Matcher {
	m := &Matcher{
		catalog: catalog,
	}

	for _, op := range ops {
		op(m)
	}

	return m
}

// WithCache caches catalog lookups for ttl.
func WithCache(ttl time.Duration) Option {
	return func(m *Matcher) {
		if ttl > 0 {
			m.cache = gocache.New(ttl, 2*ttl)
		}
	}
}

// Match returns product matched by the most precise tier with exactly one candidate.
// Returns *platform.MatchError when no tier yields single candidate.
func (m *Matcher) Match(ctx context.Context, offer *models.NormalizedOffer, cfg Config) (*models.MatchResult, error) {
	brands := brandsFor(offer.Brand, cfg)

	var ambiguous []string
	for _, tier := range enabledTiers(cfg.Tiers) {
		query, ok := tierQuery(tier, offer, brands, cfg)
		if !ok {
			continue
		}

		candidates, err := m.find(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("can't match %s by %s: %w", offer.VendorKey, tier, err)
		}

		switch len(candidates) {
		case 0:
			continue
		case 1:
			return &models.MatchResult{Product: candidates[0], Tier: tier}, nil
		default:
			if ambiguous == nil {
				ambiguous = lo.Map(candidates, func(p models.CanonicalProduct, _ int) string { return p.SKU })
			}
		}
	}

	return nil, &platform.MatchError{
		VendorKey:  offer.VendorKey,
		Candidates: ambiguous,
	}
}

// Flush drops cached lookups.
func (m *Matcher) Flush() {
	if m.cache != nil {
		m.cache.Flush()
	}
}

func (m *Matcher) find(ctx context.Context, query models.ProductQuery) ([]models.CanonicalProduct, error) {
	if m.cache == nil {
		return m.catalog.FindProducts(ctx, query)
	}

	key := cacheKey(query)
	if cached, ok := m.cache.Get(key); ok {
		return cached.([]models.CanonicalProduct), nil
	}

	products, err := m.catalog.FindProducts(ctx, query)
	if err != nil {
		return nil, err
	}
	m.cache.Set(key, products, gocache.DefaultExpiration)

	return products, nil
}

func tierQuery(tier models.Field, offer *models.NormalizedOffer, brands []string, cfg Config) (models.ProductQuery, bool) {
	query := models.ProductQuery{
		Field:    tier,
		VendorID: cfg.VendorID,
		Value:    offer.VendorKey,
		Brands:   brands,
	}

	switch tier {
	case models.FieldVendorCode:
		query.Brands = nil
		return query, true
	case models.FieldSKUSuffix:
		query.Value = cfg.SuffixDelimiter + offer.VendorKey
	}

	// brand scoped tiers are never attempted without brands
	return query, len(brands) > 0
}

func enabledTiers(configured []models.Field) []models.Field {
	if len(configured) == 0 {
		return Tiers
	}
	return lo.Filter(Tiers, func(tier models.Field, _ int) bool {
		return slices.Contains(configured, tier)
	})
}

func cacheKey(query models.ProductQuery) string {
	brands := slices.Clone(query.Brands)
	slices.Sort(brands)
	return strings.Join([]string{string(query.Field), query.VendorID, query.Value, strings.Join(brands, ",")}, "|")
}
