// Package fetcher retrieves vendor files over http and sftp.
package fetcher

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform"
	"github.com/samber/lo"
)

// Accepted file content types.
var contentTypes = []string{
	"text/csv",
	"application/csv",
	"text/plain",
	"application/octet-stream",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// Fetcher builds http requests and fetches files via http.
type Fetcher struct {
	client    *http.Client
	userAgent string
	now       func() time.Time
}

// NewFetcher returns new Fetcher.
func NewFetcher(client *http.Client, userAgent string) *Fetcher {
	return &Fetcher{
		client:    client,
		userAgent: userAgent,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// File is fetched file body with its modification time.
type File struct {
	io.ReadCloser
	// ModTime is Last-Modified header value, fetch time when header is missing.
	ModTime time.Time
}

// FetchFile returns file fetched from provided url or error.
// Failures are *platform.TransportError, 5xx, 408 and 429 responses are transient.
// The caller is responsible for closing returned file.
func (f *Fetcher) FetchFile(ctx context.Context, url string) (*File, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, platform.Permanent("build request", fmt.Errorf("can't build http request: %w", err))
	}

	req.Header.Add("Accept", "text/csv, application/vnd.openxmlformats-officedocument.spreadsheetml.sheet, */*")
	req.Header.Add("Accept-Encoding", "gzip")
	req.Header.Add("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, platform.Transient("fetch", fmt.Errorf("can't get http response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, StatusError(resp.StatusCode)
	}

	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		mediaType = "application/octet-stream"
	}

	file := &File{ReadCloser: resp.Body, ModTime: f.now()}
	if modified, err := http.ParseTime(resp.Header.Get("Last-Modified")); err == nil {
		file.ModTime = modified.UTC()
	}

	switch {
	case mediaType == "application/gzip" || mediaType == "application/zip" || resp.Header.Get("Content-Encoding") == "gzip":
		body, err := decompressResponse(resp.Body)
		if err != nil {
			_ = resp.Body.Close()
			return nil, platform.Transient("decompress", err)
		}
		file.ReadCloser = body
		return file, nil
	case lo.Contains(contentTypes, mediaType):
		return file, nil
	default:
		_ = resp.Body.Close()
		return nil, platform.Permanent("fetch", fmt.Errorf("%w: %s", ErrContentTypeNotSupported, mediaType))
	}
}

// StatusError classifies non 200 response status. 5xx, 408 and 429 are transient, the rest permanent.
func StatusError(code int) error {
	err := fmt.Errorf("%w: %d %s", ErrStatusNotOK, code, http.StatusText(code))
	if code >= http.StatusInternalServerError || code == http.StatusTooManyRequests || code == http.StatusRequestTimeout {
		return platform.Transient("fetch", err)
	}
	return platform.Permanent("fetch", err)
}

// decompressResponse returns io.ReadCloser with decompressed http response and error.
func decompressResponse(response io.ReadCloser) (io.ReadCloser, error) {
	decompressed, err := gzip.NewReader(response)
	if err != nil {
		return nil, fmt.Errorf("can't decompress response: %w", err)
	}

	return &decompressedReadCloser{
		compressed:   response,
		decompressed: decompressed,
	}, nil
}

// decompressedReadCloser wraps decompressed Reader and compressed ReadCloser.
// It reads from decompressed Reader, but closes compressed ReadCloser.
type decompressedReadCloser struct {
	compressed   io.ReadCloser
	decompressed io.Reader
}

// Read reads uncompressed bytes from underlying Reader into p.
// Returns number of read bytes and error.
func (r decompressedReadCloser) Read(p []byte) (n int, err error) {
	return r.decompressed.Read(p)
}

// Close closes underlying compressed ReadCloser.
func (r decompressedReadCloser) Close() error {
	return r.compressed.Close()
}
