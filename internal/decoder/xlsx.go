package decoder

import (
	"context"
	"fmt"
	"io"

	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform/models"
	"github.com/xuri/excelize/v2"
)

// XLSX decodes single sheet of xlsx workbook.
type XLSX struct {
	layout Layout
	sheet  string
}

// NewXLSX returns XLSX decoder of sheet, first sheet when empty.
func NewXLSX(layout Layout, sheet string) *XLSX {
	return &XLSX{
		layout: layout,
		sheet:  sheet,
	}
}

// Decode decodes records from workbook and sends each record with its error into output channel.
// Rows lacking required fields are sent with *platform.NormalizationError.
func (d *XLSX) Decode(ctx context.Context, file io.Reader, output chan<- models.FetchResult) error {
	book, err := excelize.OpenReader(file)
	if err != nil {
		return platform.Permanent("open workbook", err)
	}
	defer book.Close()

	sheet := d.sheet
	if sheet == "" {
		sheets := book.GetSheetList()
		if len(sheets) == 0 {
			return platform.Permanent("decode", ErrMissingSheet)
		}
		sheet = sheets[0]
	}

	if ix, err := book.GetSheetIndex(sheet); err != nil || ix < 0 {
		return platform.Permanent("decode", fmt.Errorf("%w: %q", ErrMissingSheet, sheet))
	}

	rows, err := book.Rows(sheet)
	if err != nil {
		return platform.Permanent("read sheet", err)
	}
	defer rows.Close()

	var (
		mapper  *rowMapper
		skipped int
	)

	if d.layout.NoHeader {
		if mapper, err = newRowMapper(d.layout, nil); err != nil {
			return err
		}
	}

	for rows.Next() {
		row, err := rows.Columns()
		if err != nil {
			return platform.Permanent("read row", err)
		}

		if skipped < d.layout.SkipRows {
			skipped++
			continue
		}

		if mapper == nil {
			if mapper, err = newRowMapper(d.layout, row); err != nil {
				return err
			}
			continue
		}

		if isEmptyRow(row) {
			continue
		}

		record, err := mapper.record(row)
		if err := emit(ctx, output, models.FetchResult{Record: record, Error: err}); err != nil {
			return err
		}
	}

	if err := rows.Error(); err != nil {
		return platform.Permanent("read sheet", err)
	}

	if mapper == nil {
		return platform.Permanent("decode", ErrMissingHeader)
	}

	return nil
}
