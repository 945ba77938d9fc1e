package decoder

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform/models"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

var encodings = map[string]encoding.Encoding{
	"windows-1250": charmap.Windows1250,
	"windows-1251": charmap.Windows1251,
	"windows-1252": charmap.Windows1252,
	"cp1252":       charmap.Windows1252,
	"iso-8859-1":   charmap.ISO8859_1,
	"latin1":       charmap.ISO8859_1,
	"iso-8859-15":  charmap.ISO8859_15,
}

// CSV decodes delimited text files.
type CSV struct {
	layout    Layout
	encoding  encoding.Encoding
	delimiter rune
}

// NewCSV returns CSV decoder. Empty charset means UTF-8, empty delimiter means comma.
func NewCSV(layout Layout, charset, delimiter string) (*CSV, error) {
	dec := &CSV{layout: layout, delimiter: ','}

	if charset != "" && !strings.EqualFold(charset, "utf-8") {
		enc, ok := encodings[strings.ToLower(charset)]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownEncoding, charset)
		}
		dec.encoding = enc
	}

	if delimiter != "" {
		if delimiter == `\t` {
			delimiter = "\t"
		}
		r, size := utf8.DecodeRuneInString(delimiter)
		if size != len(delimiter) {
			return nil, fmt.Errorf("delimiter must be single character, got %q", delimiter)
		}
		dec.delimiter = r
	}

	return dec, nil
}

// Decode decodes records from file and sends each record with its error into output channel.
// Rows lacking required fields are sent with *platform.NormalizationError.
func (d *CSV) Decode(ctx context.Context, file io.Reader, output chan<- models.FetchResult) error {
	if d.encoding != nil {
		file = transform.NewReader(file, d.encoding.NewDecoder())
	}

	reader := csv.NewReader(file)
	reader.Comma = d.delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	for range d.layout.SkipRows {
		if _, err := reader.Read(); err != nil {
			return d.readError(err)
		}
	}

	var header []string
	if !d.layout.NoHeader {
		row, err := reader.Read()
		if err != nil {
			return d.readError(err)
		}
		header = row
	}

	mapper, err := newRowMapper(d.layout, header)
	if err != nil {
		return err
	}

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}

		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			if err := emit(ctx, output, models.FetchResult{Error: fmt.Errorf("can't parse row: %w", err)}); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return platform.Transient("read", err)
		}

		if isEmptyRow(row) {
			continue
		}

		record, err := mapper.record(row)
		if err := emit(ctx, output, models.FetchResult{Record: record, Error: err}); err != nil {
			return err
		}
	}
}

func (d *CSV) readError(err error) error {
	if errors.Is(err, io.EOF) {
		if d.layout.NoHeader {
			return nil
		}
		return platform.Permanent("decode", ErrMissingHeader)
	}
	return platform.Transient("read", err)
}
