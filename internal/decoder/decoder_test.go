package decoder_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/MichalMitros/vendor-feed-reconciler/internal/decoder"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding/charmap"
)

// Decoder decodes file into fetch results.
type Decoder interface {
	Decode(context.Context, io.Reader, chan<- models.FetchResult) error
}

var layout = decoder.Layout{
	VendorID: "acme",
	SkipRows: 1,
	Columns: map[string]string{
		models.FieldSKU:      "Part Number",
		models.FieldBrand:    "Line",
		models.FieldPrice:    "Cost",
		models.FieldQuantity: "Qty Avail",
	},
	Numeric: []string{models.FieldQuantity},
}

const inventoryCSV = `ACME inventory export 2024-03-01
PART NUMBER,Line,Cost,Qty Avail,Notes
000123,Dorman,10.50,7,
000456,Café Parts,"1,250.40",n/a,discontinued
,Dorman,3.00,1,
789,Dorman,,4,

999,Dorman,1.00,2,
`

var wantRecords = []models.RawRecord{
	{models.FieldSKU: "000123", models.FieldBrand: "Dorman", models.FieldPrice: "10.50", models.FieldQuantity: "7"},
	{models.FieldSKU: "000456", models.FieldBrand: "Café Parts", models.FieldPrice: "1,250.40", models.FieldQuantity: "0"},
	{models.FieldSKU: "999", models.FieldBrand: "Dorman", models.FieldPrice: "1.00", models.FieldQuantity: "2"},
}

func TestUnitDecodeCSV(t *testing.T) {
	encoded, err := charmap.Windows1252.NewEncoder().String(inventoryCSV)
	require.NoError(t, err)

	tests := map[string]struct {
		file    string
		charset string
	}{
		"utf-8":        {file: inventoryCSV},
		"windows-1252": {file: encoded, charset: "windows-1252"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			dec, err := decoder.NewCSV(layout, tt.charset, "")
			require.NoError(t, err, "shouldn't return any error")

			records, skipped, err := decode(t, dec, strings.NewReader(tt.file))

			require.NoError(t, err, "shouldn't return any error")
			assert.Equal(t, wantRecords, records, "should decode mapped fields")
			require.Len(t, skipped, 2, "should filter rows without identifier or price")
			assert.Equal(t, models.FieldSKU, skipped[0].Field, "should report missing identifier")
			assert.Equal(t, models.FieldPrice, skipped[1].Field, "should report missing price")
		})
	}
}

func TestUnitDecodeCSVByIndexes(t *testing.T) {
	dec, err := decoder.NewCSV(decoder.Layout{
		NoHeader: true,
		Indexes:  map[string]int{models.FieldSKU: 0, models.FieldPrice: 2},
	}, "", `\t`)
	require.NoError(t, err)

	records, skipped, err := decode(t, dec, strings.NewReader("A-1\tx\t9.99\nA-2\ty\t1.25\n"))

	require.NoError(t, err, "shouldn't return any error")
	assert.Empty(t, skipped, "shouldn't skip any row")
	assert.Equal(t, []models.RawRecord{
		{models.FieldSKU: "A-1", models.FieldPrice: "9.99"},
		{models.FieldSKU: "A-2", models.FieldPrice: "1.25"},
	}, records, "should decode fields by indexes")
}

func TestUnitDecodeCSVErrors(t *testing.T) {
	tests := map[string]struct {
		file    string
		wantErr error
	}{
		"missing column": {
			file:    "title\nPART NUMBER,Cost\n1,2\n",
			wantErr: decoder.ErrMissingColumn,
		},
		"missing header": {
			file:    "title\n",
			wantErr: decoder.ErrMissingHeader,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			dec, err := decoder.NewCSV(layout, "", "")
			require.NoError(t, err)

			_, _, err = decode(t, dec, strings.NewReader(tt.file))

			require.ErrorIs(t, err, tt.wantErr, "should return decoding error")
			assert.ErrorIs(t, err, platform.ErrPermanent, "should be permanent")
		})
	}
}

func TestUnitNewCSVErrors(t *testing.T) {
	_, err := decoder.NewCSV(layout, "ebcdic", "")
	require.ErrorIs(t, err, decoder.ErrUnknownEncoding, "should reject unknown charset")

	_, err = decoder.NewCSV(layout, "", ";;")
	require.Error(t, err, "should reject multi character delimiter")
}

func TestUnitDecodeXLSX(t *testing.T) {
	book := excelize.NewFile()
	t.Cleanup(func() { book.Close() })

	_, err := book.NewSheet("Inventory")
	require.NoError(t, err)

	rows := [][]any{
		{"ACME inventory export 2024-03-01"},
		{"Part Number", "Line", "Cost", "Qty Avail"},
		{"000123", "Dorman", "10.50", 7},
		{"000456", "Café Parts", "1,250.40", "n/a"},
		{"", "Dorman", "3.00", 1},
		{"999", "Dorman", "1.00", 2},
	}
	for ix, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, ix+1)
		require.NoError(t, err)
		require.NoError(t, book.SetSheetRow("Inventory", cell, &row))
	}

	buf, err := book.WriteToBuffer()
	require.NoError(t, err)

	t.Run("configured sheet", func(t *testing.T) {
		records, skipped, err := decode(t, decoder.NewXLSX(layout, "Inventory"), bytes.NewReader(buf.Bytes()))

		require.NoError(t, err, "shouldn't return any error")
		assert.Equal(t, wantRecords, records, "should decode mapped fields")
		require.Len(t, skipped, 1, "should filter rows without identifier")
	})

	t.Run("missing sheet", func(t *testing.T) {
		_, _, err := decode(t, decoder.NewXLSX(layout, "Prices"), bytes.NewReader(buf.Bytes()))

		require.ErrorIs(t, err, decoder.ErrMissingSheet, "should return missing sheet error")
	})

	t.Run("not a workbook", func(t *testing.T) {
		_, _, err := decode(t, decoder.NewXLSX(layout, ""), strings.NewReader("sku,price"))

		require.ErrorIs(t, err, platform.ErrPermanent, "should return permanent error")
	})
}

func TestUnitDecodeCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dec, err := decoder.NewCSV(layout, "", "")
	require.NoError(t, err)

	// nobody reads output
	err = dec.Decode(ctx, strings.NewReader(inventoryCSV), make(chan models.FetchResult))

	require.ErrorIs(t, err, context.Canceled, "should stop when context is done")
}

// decode runs dec and collects its results.
func decode(t *testing.T, dec Decoder, file io.Reader) ([]models.RawRecord, []*platform.NormalizationError, error) {
	t.Helper()

	results := make(chan models.FetchResult)

	var eg errgroup.Group
	eg.Go(func() error {
		defer close(results)
		return dec.Decode(context.TODO(), file, results)
	})

	var (
		records []models.RawRecord
		skipped []*platform.NormalizationError
	)
	for result := range results {
		if result.Error != nil {
			normErr, ok := result.Error.(*platform.NormalizationError)
			require.True(t, ok, "should only skip rows, got %v", result.Error)
			skipped = append(skipped, normErr)
			continue
		}
		records = append(records, result.Record)
	}

	return records, skipped, eg.Wait()
}
