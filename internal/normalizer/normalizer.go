// Package normalizer turns raw vendor records into normalized offers.
package normalizer

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform/models"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// CostPrecision is number of fractional digits of stored costs.
const CostPrecision = 4

// Config is vendor specific normalization setup.
type Config struct {
	VendorID string
	Rules    []Rule
	// Multiplier converts vendor currency into canonical currency.
	Multiplier decimal.Decimal
	// QuantityFields are summed into inventory quantity, FieldQuantity when empty.
	QuantityFields []string
	// TimestampLayout parses FieldTimestamp, time.RFC3339 when empty.
	TimestampLayout string
	// DecimalComma reads prices like "1.250,40", dot is the decimal separator otherwise.
	DecimalComma bool
}

// Normalizer normalizes raw vendor records.
type Normalizer struct {
	now func() time.Time
}

// Option is custom configuration of Normalizer.
type Option func(n *Normalizer)

// NewNormalizer returns new Normalizer.
func NewNormalizer(ops ...Option) *Normalizer {
	n := &Normalizer{
		now: func() time.Time { return time.Now().UTC() },
	}

	for _, op := range ops {
		op(n)
	}

	return n
}

// WithNow sets time source used when record has no timestamp.
func WithNow(now func() time.Time) Option {
	return func(n *Normalizer) {
		n.now = now
	}
}

// Normalize converts raw record into normalized offer.
// Records without identifier or price are rejected with *platform.NormalizationError.
func (n *Normalizer) Normalize(raw models.RawRecord, cfg Config) (*models.NormalizedOffer, error) {
	manufacturerKey := strings.TrimSpace(raw[models.FieldSKU])
	if manufacturerKey == "" {
		return nil, n.reject(cfg, models.FieldSKU, "is missing")
	}

	vendorKey := NormalizeKey(manufacturerKey, cfg.Rules)
	if vendorKey == "" {
		return nil, n.reject(cfg, models.FieldSKU, "normalizes to empty key")
	}

	price, ok := raw[models.FieldPrice]
	if !ok || strings.TrimSpace(price) == "" {
		return nil, n.reject(cfg, models.FieldPrice, "is missing")
	}

	cost, err := ConvertCost(price, cfg.Multiplier, cfg.DecimalComma)
	if err != nil {
		return nil, n.reject(cfg, models.FieldPrice, err.Error())
	}

	quantity, descriptor := parseInventory(raw, cfg.QuantityFields)

	return &models.NormalizedOffer{
		VendorID:            cfg.VendorID,
		VendorKey:           vendorKey,
		ManufacturerKey:     manufacturerKey,
		Brand:               strings.TrimSpace(raw[models.FieldBrand]),
		Cost:                &cost,
		InventoryQuantity:   quantity,
		InventoryDescriptor: descriptor,
		SourceTimestamp:     n.timestamp(raw, cfg.TimestampLayout),
		Raw:                 raw,
	}, nil
}

// ConvertCost parses vendor price and converts it into canonical currency.
func ConvertCost(price string, multiplier decimal.Decimal, decimalComma bool) (decimal.Decimal, error) {
	amount, err := ParseAmount(price, decimalComma)
	if err != nil {
		return decimal.Zero, err
	}

	if multiplier.IsZero() {
		multiplier = decimal.NewFromInt(1)
	}

	cost := amount.Mul(multiplier).Round(CostPrecision)
	if cost.IsNegative() {
		return decimal.Zero, errNegativeCost
	}

	return cost, nil
}

// ParseAmount parses money amount ignoring currency symbols, codes and thousands separators.
// Thousands separators must be followed by groups of three digits, so "1,50" isn't read as 150.
func ParseAmount(value string, decimalComma bool) (decimal.Decimal, error) {
	decimalSep, groupSep := '.', ','
	if decimalComma {
		decimalSep, groupSep = ',', '.'
	}

	var (
		cleaned strings.Builder
		// digits after last thousands separator, -1 outside of group
		group = -1
	)
	for _, r := range value {
		switch {
		case r >= '0' && r <= '9':
			cleaned.WriteRune(r)
			if group >= 0 {
				group++
			}
		case r == decimalSep || r == groupSep:
			if group >= 0 && group != 3 {
				return decimal.Zero, errAmbiguousAmount
			}
			group = -1
			if r == groupSep {
				group = 0
				continue
			}
			cleaned.WriteRune('.')
		case r == '-':
			cleaned.WriteRune(r)
		}
	}

	if group >= 0 && group != 3 {
		return decimal.Zero, errAmbiguousAmount
	}

	amount, err := decimal.NewFromString(cleaned.String())
	if err != nil {
		return decimal.Zero, errInvalidAmount
	}

	return amount, nil
}

func (n *Normalizer) reject(cfg Config, field, reason string) error {
	return &platform.NormalizationError{
		VendorID: cfg.VendorID,
		Field:    field,
		Reason:   reason,
	}
}

func (n *Normalizer) timestamp(raw models.RawRecord, layout string) time.Time {
	value := strings.TrimSpace(raw[models.FieldTimestamp])
	if value == "" {
		return n.now()
	}

	if layout == "" {
		layout = time.RFC3339
	}

	ts, err := time.Parse(layout, value)
	if err != nil {
		return n.now()
	}

	return ts.UTC()
}

// parseInventory returns total quantity and descriptor.
// Single field: numeric value is the quantity, any other text is the descriptor.
// Many fields: numeric values are summed, missing or non-numeric locations count as zero.
func parseInventory(raw models.RawRecord, fields []string) (*int32, *string) {
	if len(fields) == 0 {
		fields = []string{models.FieldQuantity}
	}

	var descriptor *string
	if availability := strings.TrimSpace(raw[models.FieldAvailability]); availability != "" {
		descriptor = lo.ToPtr(availability)
	}

	if len(fields) == 1 {
		value := strings.TrimSpace(raw[fields[0]])
		if value == "" {
			return nil, descriptor
		}
		quantity, ok := parseQuantity(value)
		if !ok {
			return nil, lo.ToPtr(value)
		}
		return lo.ToPtr(quantity), descriptor
	}

	var (
		total int64
		known bool
	)
	for _, field := range fields {
		value, ok := raw[field]
		if !ok {
			continue
		}
		known = true
		if quantity, ok := parseQuantity(strings.TrimSpace(value)); ok {
			total = min(total+int64(quantity), math.MaxInt32)
		}
	}

	if !known {
		return nil, descriptor
	}

	return lo.ToPtr(int32(total)), descriptor
}

// parseQuantity parses integer quantities like "12", "12.0", "+12" or ">12".
// Values are clamped to [0, math.MaxInt32].
func parseQuantity(value string) (int32, bool) {
	value = strings.TrimLeft(value, "+>")
	if value == "" {
		return 0, false
	}

	if quantity, err := strconv.ParseInt(value, 10, 64); err == nil {
		return int32(min(max(quantity, 0), math.MaxInt32)), true
	}

	if quantity, err := strconv.ParseFloat(value, 64); err == nil && !math.IsNaN(quantity) && !math.IsInf(quantity, 0) {
		return int32(min(max(quantity, 0), math.MaxInt32)), true
	}

	return 0, false
}
