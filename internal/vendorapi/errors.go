package vendorapi

import "errors"

var (
	// ErrItemMissing is returned for requested identifier absent in vendor response.
	ErrItemMissing = errors.New("item missing in response")
	// ErrItemFailed is returned for item which vendor reported as failed.
	ErrItemFailed = errors.New("vendor reported item error")
	// ErrMalformedResponse is returned when response body can't be decoded.
	ErrMalformedResponse = errors.New("malformed response")
)
