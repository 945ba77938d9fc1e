package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Logical raw record field names, produced by transport column mappings.
const (
	FieldSKU          = "sku"
	FieldPrice        = "price"
	FieldBrand        = "brand"
	FieldQuantity     = "quantity"
	FieldAvailability = "availability"
	FieldTimestamp    = "timestamp"
)

// RawRecord is vendor record as delivered, keyed by logical field names.
type RawRecord map[string]string

// FetchResult contains raw record with fetching error if there is any.
type FetchResult struct {
	Record RawRecord
	Error  error
}

// CanonicalProduct is catalog product model.
type CanonicalProduct struct {
	SKU           string
	Brand         string
	SearchableKey string
	// VendorCodes maps vendor ID to vendor's dedicated identifier.
	VendorCodes map[string]string
	CreatedAt   time.Time
}

// NormalizedOffer is vendor record after normalization.
type NormalizedOffer struct {
	VendorID            string
	VendorKey           string
	ManufacturerKey     string
	Brand               string
	Cost                *decimal.Decimal
	InventoryQuantity   *int32
	InventoryDescriptor *string
	SourceTimestamp     time.Time
	Shippings           []Shipping
	Raw                 RawRecord
}

// VendorOffer is persisted vendor cost and inventory for one canonical product.
type VendorOffer struct {
	ID                  int
	VendorID            string
	ProductSKU          string
	VendorKey           string
	ManufacturerKey     string
	Cost                *decimal.Decimal
	InventoryQuantity   *int32
	InventoryDescriptor *string
	SourceTimestamp     time.Time
	LastSeen            time.Time
	CreatedAt           time.Time
	Shippings           []Shipping
}

// Shipping is offer's shipping quote for one destination.
type Shipping struct {
	Destination string
	Service     string
	Price       decimal.Decimal
}

// UnmatchedRecord is vendor record kept for manual SKU mapping.
type UnmatchedRecord struct {
	ID         int
	VendorID   string
	VendorKey  string
	RawPayload string
	Reason     string
	FirstSeen  time.Time
}

// Run is reconciliation run model.
type Run struct {
	ID            int
	VendorID      string
	CreatedAt     time.Time
	FinishedAt    *time.Time
	IsSuccess     *bool
	StatusMessage *string
	Created       *int32
	Updated       *int32
	Unmatched     *int32
	Skipped       *int32
	Failed        *int32
	Version       int64
}

// Field is catalog field used by product queries.
type Field string

// Catalog fields used by matcher tiers.
const (
	FieldProductSKU    Field = "sku"
	FieldVendorCode    Field = "vendor_code"
	FieldSearchableKey Field = "searchable_key"
	FieldSKUSuffix     Field = "sku_suffix"
	FieldSKUContains   Field = "sku_contains"
)

// ProductQuery is catalog lookup criteria.
// Brands, when not empty, constrains results to products with one of the brands (case-insensitive).
type ProductQuery struct {
	Field    Field
	VendorID string
	Value    string
	Brands   []string
}

// MatchResult is matched canonical product with tier which found it.
type MatchResult struct {
	Product CanonicalProduct
	Tier    Field
}

// Outcome is result of reconciling single offer.
type Outcome string

// Reconciliation outcomes.
const (
	OutcomeCreated   Outcome = "created"
	OutcomeUpdated   Outcome = "updated"
	OutcomeUnmatched Outcome = "unmatched"
)
