package vendorapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform/models"
	"github.com/shopspring/decimal"
)

// QuoteClient requests shipping quotes for vendor items.
type QuoteClient struct {
	api *api
}

// NewQuoteClient returns new QuoteClient of quotes endpoint at url.
func NewQuoteClient(client *http.Client, url, token, userAgent string) *QuoteClient {
	return &QuoteClient{
		api: &api{
			client:    client,
			url:       url,
			token:     token,
			userAgent: userAgent,
		},
	}
}

type quoteResponse struct {
	Service string          `json:"service"`
	Price   decimal.Decimal `json:"price"`
}

// Quote returns cheapest shipping of vendor item into destination.
func (c *QuoteClient) Quote(ctx context.Context, vendorKey, destination string) (*models.Shipping, error) {
	query := url.Values{}
	query.Set("sku", vendorKey)
	query.Set("destination", destination)

	var resp quoteResponse
	if err := c.api.do(ctx, http.MethodGet, c.api.url+"?"+query.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("can't quote %s shipping to %s: %w", vendorKey, destination, err)
	}

	if resp.Price.IsNegative() {
		return nil, fmt.Errorf("can't quote %s shipping to %s: %w: negative price", vendorKey, destination, ErrMalformedResponse)
	}

	return &models.Shipping{
		Destination: destination,
		Service:     resp.Service,
		Price:       resp.Price,
	}, nil
}
