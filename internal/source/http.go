package source

import (
	"context"
	"fmt"

	"github.com/MichalMitros/vendor-feed-reconciler/internal/fetcher"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform/models"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform/retry"
)

// HTTP streams records of file published over http.
type HTTP struct {
	fetcher *fetcher.Fetcher
	decoder Decoder
	url     string
	policy  retry.Policy
	layout  string
}

// NewHTTP returns new HTTP source.
func NewHTTP(fetcher *fetcher.Fetcher, decoder Decoder, url string, policy retry.Policy, timestampLayout string) *HTTP {
	return &HTTP{
		fetcher: fetcher,
		decoder: decoder,
		url:     url,
		policy:  policy,
		layout:  timestampLayout,
	}
}

// Fetch fetches file, retrying transient failures, and decodes it.
// Records are stamped with file modification time.
func (h *HTTP) Fetch(ctx context.Context, output chan<- models.FetchResult) error {
	var file *fetcher.File
	err := h.policy.Do(ctx, func(ctx context.Context, _ int) error {
		var err error
		file, err = h.fetcher.FetchFile(ctx, h.url)
		return err
	})
	if err != nil {
		return fmt.Errorf("can't fetch %s: %w", h.url, err)
	}
	defer file.Close()

	return stamped(ctx, output, file.ModTime, h.layout, func(ctx context.Context, results chan<- models.FetchResult) error {
		return h.decoder.Decode(ctx, file, results)
	})
}
