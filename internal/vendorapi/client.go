// Package vendorapi is a client of vendor item and shipping quote REST APIs.
package vendorapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/MichalMitros/vendor-feed-reconciler/internal/fetcher"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform/models"
)

// Response keys with special meaning in item objects.
const (
	keyID    = "id"
	keyError = "error"
)

// Client fetches vendor items in batches.
type Client struct {
	api *api
}

// NewClient returns new Client posting batches to url.
// Empty token disables authorization header.
func NewClient(client *http.Client, url, token, userAgent string) *Client {
	return &Client{
		api: &api{
			client:    client,
			url:       url,
			token:     token,
			userAgent: userAgent,
		},
	}
}

type itemsRequest struct {
	IDs []string `json:"ids"`
}

type itemsResponse struct {
	Items []map[string]any `json:"items"`
}

// FetchBatch requests items by vendor identifiers and returns one result per identifier, in ids order.
// Identifiers missing in response or reported with error get item error, other items are delivered.
// Returned error means whole call failed and is *platform.TransportError.
func (c *Client) FetchBatch(ctx context.Context, ids []string) ([]models.FetchResult, error) {
	var resp itemsResponse
	if err := c.api.do(ctx, http.MethodPost, c.api.url, itemsRequest{IDs: ids}, &resp); err != nil {
		return nil, err
	}

	items := make(map[string]map[string]any, len(resp.Items))
	for _, item := range resp.Items {
		id, ok := item[keyID]
		if !ok {
			continue
		}
		items[stringify(id)] = item
	}

	results := make([]models.FetchResult, len(ids))
	for ix, id := range ids {
		item, ok := items[id]
		if !ok {
			results[ix].Error = fmt.Errorf("%w: %s", ErrItemMissing, id)
			continue
		}

		if msg, ok := item[keyError]; ok && msg != nil {
			results[ix].Error = fmt.Errorf("%w: %s: %s", ErrItemFailed, id, stringify(msg))
			continue
		}

		results[ix].Record = record(id, item)
	}

	return results, nil
}

// record flattens item into raw record, vendor identifier becomes sku when item has none.
func record(id string, item map[string]any) models.RawRecord {
	rec := make(models.RawRecord, len(item))
	for key, value := range item {
		if key == keyID || key == keyError || value == nil {
			continue
		}
		rec[key] = stringify(value)
	}

	if rec[models.FieldSKU] == "" {
		rec[models.FieldSKU] = id
	}

	return rec
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		data, _ := json.Marshal(v)
		return string(data)
	}
}

// api sends json requests and classifies failures.
type api struct {
	client    *http.Client
	url       string
	token     string
	userAgent string
}

func (a *api) do(ctx context.Context, method, url string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return platform.Permanent("encode request", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return platform.Permanent("build request", fmt.Errorf("can't build http request: %w", err))
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", a.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return platform.Transient("call", fmt.Errorf("can't get http response: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fetcher.StatusError(resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return platform.Transient("read response", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return platform.Permanent("decode response", fmt.Errorf("%w: %w", ErrMalformedResponse, err))
	}

	return nil
}
