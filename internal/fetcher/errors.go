package fetcher

import "errors"

var (
	// ErrStatusNotOK is wrapped by StatusError for every response other than 200 OK.
	ErrStatusNotOK = errors.New("unexpected response status")
	// ErrContentTypeNotSupported is returned when vendor file isn't csv, xlsx or compressed one of them.
	ErrContentTypeNotSupported = errors.New("vendor file content type not supported")
	// ErrSizeMismatch is returned when transfer ended before whole remote file was received.
	ErrSizeMismatch = errors.New("downloaded size doesn't match remote size")
)
