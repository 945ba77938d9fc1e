package decoder

import "errors"

var (
	// ErrMissingColumn is returned when mapped column isn't present in file header.
	ErrMissingColumn = errors.New("column missing in header")
	// ErrMissingHeader is returned when file ends before header row.
	ErrMissingHeader = errors.New("file has no header row")
	// ErrMissingSheet is returned when workbook has no configured sheet.
	ErrMissingSheet = errors.New("sheet missing in workbook")
	// ErrUnknownEncoding is returned for unsupported charsets.
	ErrUnknownEncoding = errors.New("unknown encoding")
)
