// Package decoder decodes vendor spreadsheets and CSV files into raw records.
package decoder

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform/models"
	"github.com/samber/lo"
)

// Layout describes how file rows map to logical record fields.
type Layout struct {
	// VendorID is reported in errors of filtered rows.
	VendorID string
	// SkipRows rows are dropped before header or first data row.
	SkipRows int
	// NoHeader marks files without header row, only Indexes are used then.
	NoHeader bool
	// Columns maps logical field names to header names (case-insensitive).
	Columns map[string]string
	// Indexes maps logical field names to zero based column indexes.
	Indexes map[string]int
	// Required fields must be non-empty, rows without them are filtered. FieldSKU and FieldPrice when nil.
	Required []string
	// Numeric fields are coerced to numbers, unparseable values become "0".
	Numeric []string
}

// rowMapper converts rows into records using resolved column indexes.
type rowMapper struct {
	layout  Layout
	indexes map[string]int
}

func newRowMapper(layout Layout, header []string) (*rowMapper, error) {
	indexes := make(map[string]int, len(layout.Columns)+len(layout.Indexes))
	for field, ix := range layout.Indexes {
		indexes[field] = ix
	}

	if len(layout.Columns) > 0 {
		positions := make(map[string]int, len(header))
		for ix, name := range header {
			name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
			if _, ok := positions[name]; !ok {
				positions[name] = ix
			}
		}

		for field, name := range layout.Columns {
			ix, ok := positions[strings.ToLower(strings.TrimSpace(name))]
			if !ok {
				return nil, platform.Permanent("decode", fmt.Errorf("%w: %q", ErrMissingColumn, name))
			}
			indexes[field] = ix
		}
	}

	if layout.Required == nil {
		layout.Required = []string{models.FieldSKU, models.FieldPrice}
	}

	return &rowMapper{layout: layout, indexes: indexes}, nil
}

// record maps row into raw record. Rows without required fields return *platform.NormalizationError.
func (m *rowMapper) record(row []string) (models.RawRecord, error) {
	record := make(models.RawRecord, len(m.indexes))
	for field, ix := range m.indexes {
		if ix < 0 || ix >= len(row) {
			continue
		}
		record[field] = strings.TrimSpace(row[ix])
	}

	for _, field := range m.layout.Required {
		if record[field] == "" {
			return nil, &platform.NormalizationError{
				VendorID: m.layout.VendorID,
				Field:    field,
				Reason:   "is missing",
			}
		}
	}

	for _, field := range m.layout.Numeric {
		if value, ok := record[field]; ok {
			record[field] = coerceNumber(value)
		}
	}

	return record, nil
}

// coerceNumber returns value when it's a number, "0" otherwise.
func coerceNumber(value string) string {
	if _, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", ""), 64); err != nil {
		return "0"
	}
	return value
}

func isEmptyRow(row []string) bool {
	return lo.EveryBy(row, func(cell string) bool { return strings.TrimSpace(cell) == "" })
}

// emit sends result into output unless ctx is done.
func emit(ctx context.Context, output chan<- models.FetchResult, result models.FetchResult) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case output <- result:
		return nil
	}
}
