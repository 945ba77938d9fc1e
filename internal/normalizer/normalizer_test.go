package normalizer_test

import (
	"math"
	"testing"
	"time"

	"github.com/MichalMitros/vendor-feed-reconciler/internal/normalizer"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform/models"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, time.April, 1, 1, 1, 1, 0, time.UTC)

func TestUnitNormalizeKey(t *testing.T) {
	tests := map[string]struct {
		rules []normalizer.RuleConfig
		key   string
		want  string
	}{
		"leading zeros": {
			rules: []normalizer.RuleConfig{{Kind: normalizer.KindStripLeadingZeros}},
			key:   "0000000000123",
			want:  "123",
		},
		"all zeros keep single zero": {
			rules: []normalizer.RuleConfig{{Kind: normalizer.KindStripLeadingZeros}},
			key:   "0000",
			want:  "0",
		},
		"fixed numeric prefix": {
			rules: []normalizer.RuleConfig{{Kind: normalizer.KindTrimPrefix, Value: "700"}},
			key:   "70012345",
			want:  "12345",
		},
		"alphabetic prefix": {
			rules: []normalizer.RuleConfig{{Kind: normalizer.KindStripPrefixChars, Value: "letters"}},
			key:   "DOR955-410",
			want:  "955-410",
		},
		"separator replaced": {
			rules: []normalizer.RuleConfig{{Kind: normalizer.KindReplace, Old: "-", New: ""}},
			key:   "955-410",
			want:  "955410",
		},
		"digit groups rewritten when suffix matches": {
			rules: []normalizer.RuleConfig{{
				Kind:     normalizer.KindRewriteDigits,
				Pattern:  `^(\d{2})(\d{4})$`,
				Template: "$1-$2",
			}},
			key:  "123456",
			want: "12-3456",
		},
		"digit groups kept when suffix doesn't match": {
			rules: []normalizer.RuleConfig{{
				Kind:     normalizer.KindRewriteDigits,
				Pattern:  `^(\d{2})(\d{4})$`,
				Template: "$1-$2",
			}},
			key:  "AB3456",
			want: "AB3456",
		},
		"rules applied in order": {
			rules: []normalizer.RuleConfig{
				{Kind: normalizer.KindTrimSpace},
				{Kind: normalizer.KindUpper},
				{Kind: normalizer.KindTrimPrefix, Value: "ACM"},
				{Kind: normalizer.KindStripLeadingZeros},
			},
			key:  "  acm00042x ",
			want: "42X",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			rules, err := normalizer.CompileRules(tt.rules)
			require.NoError(t, err, "shouldn't return any error")

			assert.Equal(t, tt.want, normalizer.NormalizeKey(tt.key, rules), "should normalize key")
		})
	}
}

func TestUnitCompileRulesError(t *testing.T) {
	tests := map[string]normalizer.RuleConfig{
		"unknown kind":         {Kind: "soundex"},
		"missing prefix":       {Kind: normalizer.KindTrimPrefix},
		"missing old":          {Kind: normalizer.KindReplace, New: "-"},
		"bad class":            {Kind: normalizer.KindStripPrefixChars, Value: "symbols"},
		"bad pattern":          {Kind: normalizer.KindRewriteDigits, Pattern: "(["},
		"missing pattern":      {Kind: normalizer.KindRewriteDigits},
		"missing suffix value": {Kind: normalizer.KindTrimSuffix},
	}

	for name, cfg := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := normalizer.CompileRules([]normalizer.RuleConfig{cfg})
			require.Error(t, err, "should return error")
		})
	}
}

func TestUnitNormalize(t *testing.T) {
	rules, err := normalizer.CompileRules([]normalizer.RuleConfig{{Kind: normalizer.KindStripLeadingZeros}})
	require.NoError(t, err)

	cfg := normalizer.Config{
		VendorID:   "acme-usd",
		Rules:      rules,
		Multiplier: decimal.RequireFromString("1.3625"),
	}

	tests := map[string]struct {
		cfg  *normalizer.Config
		raw  models.RawRecord
		want *models.NormalizedOffer
	}{
		"converted cost": {
			raw: models.RawRecord{
				models.FieldSKU:      "0000000000123",
				models.FieldBrand:    " Acme ",
				models.FieldPrice:    "$1,250.40",
				models.FieldQuantity: "7",
			},
			want: &models.NormalizedOffer{
				VendorID:          "acme-usd",
				VendorKey:         "123",
				ManufacturerKey:   "0000000000123",
				Brand:             "Acme",
				Cost:              lo.ToPtr(decimal.RequireFromString("1703.67")),
				InventoryQuantity: lo.ToPtr(int32(7)),
				SourceTimestamp:   now,
			},
		},
		"cost rounded to precision": {
			raw: models.RawRecord{
				models.FieldSKU:   "9",
				models.FieldPrice: "0.33333",
			},
			want: &models.NormalizedOffer{
				VendorID:        "acme-usd",
				VendorKey:       "9",
				ManufacturerKey: "9",
				Cost:            lo.ToPtr(decimal.RequireFromString("0.4542")),
				SourceTimestamp: now,
			},
		},
		"out of stock descriptor": {
			raw: models.RawRecord{
				models.FieldSKU:      "55",
				models.FieldPrice:    "10",
				models.FieldQuantity: "Call for availability",
			},
			want: &models.NormalizedOffer{
				VendorID:            "acme-usd",
				VendorKey:           "55",
				ManufacturerKey:     "55",
				Cost:                lo.ToPtr(decimal.RequireFromString("13.625")),
				InventoryDescriptor: lo.ToPtr("Call for availability"),
				SourceTimestamp:     now,
			},
		},
		"availability kept with quantity": {
			raw: models.RawRecord{
				models.FieldSKU:          "55",
				models.FieldPrice:        "10",
				models.FieldQuantity:     ">50",
				models.FieldAvailability: "in stock",
				models.FieldTimestamp:    "2024-03-01T10:00:00Z",
			},
			want: &models.NormalizedOffer{
				VendorID:            "acme-usd",
				VendorKey:           "55",
				ManufacturerKey:     "55",
				Cost:                lo.ToPtr(decimal.RequireFromString("13.625")),
				InventoryQuantity:   lo.ToPtr(int32(50)),
				InventoryDescriptor: lo.ToPtr("in stock"),
				SourceTimestamp:     time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC),
			},
		},
		"per location quantities summed": {
			cfg: &normalizer.Config{
				VendorID:       "parts-ca",
				QuantityFields: []string{"qty_on", "qty_bc", "qty_ab", "qty_qc"},
			},
			raw: models.RawRecord{
				models.FieldSKU:   "X-1",
				models.FieldPrice: "2.5",
				"qty_on":          "4",
				"qty_bc":          "",
				"qty_ab":          "n/a",
			},
			want: &models.NormalizedOffer{
				VendorID:          "parts-ca",
				VendorKey:         "X-1",
				ManufacturerKey:   "X-1",
				Cost:              lo.ToPtr(decimal.RequireFromString("2.5")),
				InventoryQuantity: lo.ToPtr(int32(4)),
				SourceTimestamp:   now,
			},
		},
		"quantity above int32 range clamped": {
			raw: models.RawRecord{
				models.FieldSKU:      "77",
				models.FieldPrice:    "10",
				models.FieldQuantity: "3000000000",
			},
			want: &models.NormalizedOffer{
				VendorID:          "acme-usd",
				VendorKey:         "77",
				ManufacturerKey:   "77",
				Cost:              lo.ToPtr(decimal.RequireFromString("13.625")),
				InventoryQuantity: lo.ToPtr(int32(math.MaxInt32)),
				SourceTimestamp:   now,
			},
		},
		"per location sum clamped": {
			cfg: &normalizer.Config{
				VendorID:       "parts-ca",
				QuantityFields: []string{"qty_on", "qty_bc"},
			},
			raw: models.RawRecord{
				models.FieldSKU:   "X-1",
				models.FieldPrice: "2.5",
				"qty_on":          "2000000000",
				"qty_bc":          "2000000000.0",
			},
			want: &models.NormalizedOffer{
				VendorID:          "parts-ca",
				VendorKey:         "X-1",
				ManufacturerKey:   "X-1",
				Cost:              lo.ToPtr(decimal.RequireFromString("2.5")),
				InventoryQuantity: lo.ToPtr(int32(math.MaxInt32)),
				SourceTimestamp:   now,
			},
		},
		"decimal comma vendor": {
			cfg: &normalizer.Config{
				VendorID:     "teile-de",
				DecimalComma: true,
			},
			raw: models.RawRecord{
				models.FieldSKU:   "X-1",
				models.FieldPrice: "1.250,40 EUR",
			},
			want: &models.NormalizedOffer{
				VendorID:        "teile-de",
				VendorKey:       "X-1",
				ManufacturerKey: "X-1",
				Cost:            lo.ToPtr(decimal.RequireFromString("1250.40")),
				SourceTimestamp: now,
			},
		},
		"unknown stock": {
			cfg: &normalizer.Config{
				VendorID:       "parts-ca",
				QuantityFields: []string{"qty_on", "qty_bc"},
			},
			raw: models.RawRecord{
				models.FieldSKU:   "X-1",
				models.FieldPrice: "2.5",
			},
			want: &models.NormalizedOffer{
				VendorID:        "parts-ca",
				VendorKey:       "X-1",
				ManufacturerKey: "X-1",
				Cost:            lo.ToPtr(decimal.RequireFromString("2.5")),
				SourceTimestamp: now,
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			nor := normalizer.NewNormalizer(normalizer.WithNow(func() time.Time { return now }))

			c := cfg
			if tt.cfg != nil {
				c = *tt.cfg
			}

			offer, err := nor.Normalize(tt.raw, c)

			require.NoError(t, err, "shouldn't return any error")
			tt.want.Raw = tt.raw
			require.NotNil(t, offer.Cost, "should set cost")
			assert.True(t, tt.want.Cost.Equal(*offer.Cost), "should convert cost, want %s got %s", tt.want.Cost, offer.Cost)
			tt.want.Cost = offer.Cost
			assert.Equal(t, tt.want, offer, "should normalize record")
		})
	}
}

func TestUnitNormalizeRejected(t *testing.T) {
	tests := map[string]struct {
		raw       models.RawRecord
		wantField string
	}{
		"missing identifier": {
			raw:       models.RawRecord{models.FieldPrice: "10"},
			wantField: models.FieldSKU,
		},
		"missing price": {
			raw:       models.RawRecord{models.FieldSKU: "123"},
			wantField: models.FieldPrice,
		},
		"blank price": {
			raw:       models.RawRecord{models.FieldSKU: "123", models.FieldPrice: "  "},
			wantField: models.FieldPrice,
		},
		"invalid price": {
			raw:       models.RawRecord{models.FieldSKU: "123", models.FieldPrice: "free"},
			wantField: models.FieldPrice,
		},
		"negative price": {
			raw:       models.RawRecord{models.FieldSKU: "123", models.FieldPrice: "-4.00"},
			wantField: models.FieldPrice,
		},
		"comma decimal price": {
			raw:       models.RawRecord{models.FieldSKU: "123", models.FieldPrice: "1,50"},
			wantField: models.FieldPrice,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			nor := normalizer.NewNormalizer()

			offer, err := nor.Normalize(tt.raw, normalizer.Config{VendorID: "acme"})

			require.ErrorIs(t, err, platform.ErrNormalization, "should return normalization error")
			var normErr *platform.NormalizationError
			require.ErrorAs(t, err, &normErr)
			assert.Equal(t, tt.wantField, normErr.Field, "should report rejected field")
			assert.Nil(t, offer, "shouldn't return offer")
		})
	}
}

func TestUnitConvertCostExact(t *testing.T) {
	multiplier := decimal.RequireFromString("1.35")

	for _, price := range []string{"0", "0.01", "19.99", "1234.5678", "99999.9999"} {
		cost, err := normalizer.ConvertCost(price, multiplier, false)
		require.NoError(t, err)

		want := decimal.RequireFromString(price).Mul(multiplier).Round(normalizer.CostPrecision)
		assert.True(t, want.Equal(cost), "cost of %s should be exactly price × multiplier", price)
	}
}

func TestUnitParseAmount(t *testing.T) {
	tests := map[string]struct {
		value        string
		decimalComma bool
		want         string
		wantErr      bool
	}{
		"plain":                        {value: "19.99", want: "19.99"},
		"currency and thousands":       {value: "$1,250.40", want: "1250.40"},
		"many thousands groups":        {value: "1,000,000", want: "1000000"},
		"comma decimal rejected":       {value: "1,50", wantErr: true},
		"short thousands group":        {value: "1,2500.00", wantErr: true},
		"comma after decimal point":    {value: "1.250,40", wantErr: true},
		"decimal comma":                {value: "12,5", decimalComma: true, want: "12.5"},
		"decimal comma with thousands": {value: "1.250,40 €", decimalComma: true, want: "1250.40"},
		"decimal comma short group":    {value: "1.50", decimalComma: true, wantErr: true},
		"not a number":                 {value: "call us", wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			amount, err := normalizer.ParseAmount(tt.value, tt.decimalComma)

			if tt.wantErr {
				require.Error(t, err, "should return error")
				return
			}
			require.NoError(t, err, "shouldn't return any error")
			assert.True(t, decimal.RequireFromString(tt.want).Equal(amount), "want %s got %s", tt.want, amount)
		})
	}
}
