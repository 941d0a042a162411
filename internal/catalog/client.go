// Package catalog consumes the external stock catalog service and adapts its
// legacy tax labels into structured GST rates.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// ErrLookup wraps any failure to fetch a catalog record. Callers treat it as
// recoverable: the affected quotation line is skipped, not the whole build.
var ErrLookup = errors.New("catalog lookup failed")

// Record is the catalog's view of a stock item. GSTPercent is the structured
// rate derived from the legacy SalesTax label by ParseTaxLabel.
type Record struct {
	StockItemID    int64           `json:"stock_item_id"`
	QuantityOnHand int64           `json:"quantity_on_hand"`
	Status         string          `json:"status"`
	HSNCode        string          `json:"hsn_code"`
	SalesTax       string          `json:"sales_tax"`
	GSTPercent     decimal.Decimal `json:"gst_percent"`
}

// Client fetches stock item records over HTTP with a Redis read-through
// cache. Concurrent lookups for the same item are collapsed to one request.
type Client struct {
	baseURL string
	http    *http.Client
	cache   *redis.Client
	ttl     time.Duration
	logger  *slog.Logger
	group   singleflight.Group
}

// NewClient constructs a catalog client. The cache client may be nil, in
// which case every lookup goes to the upstream service.
func NewClient(baseURL string, cache *redis.Client, ttl time.Duration, logger *slog.Logger) *Client {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		cache:   cache,
		ttl:     ttl,
		logger:  logger,
	}
}

// Lookup returns the catalog record for a stock item.
func (c *Client) Lookup(ctx context.Context, stockItemID int64) (*Record, error) {
	key := fmt.Sprintf("catalog:stock-item:%d", stockItemID)

	if rec := c.fromCache(ctx, key); rec != nil {
		return rec, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		return c.fetch(ctx, stockItemID)
	})
	if err != nil {
		return nil, err
	}
	rec := v.(*Record)
	c.toCache(ctx, key, rec)
	return rec, nil
}

func (c *Client) fetch(ctx context.Context, stockItemID int64) (*Record, error) {
	url := fmt.Sprintf("%s/stock-items/%d", c.baseURL, stockItemID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLookup, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLookup, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: stock item %d returned status %d", ErrLookup, stockItemID, resp.StatusCode)
	}

	var payload struct {
		QuantityOnHand int64  `json:"quantityOnHand"`
		Status         string `json:"status"`
		HSNCode        string `json:"hsnCode"`
		SalesTax       string `json:"salesTax"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode stock item %d: %v", ErrLookup, stockItemID, err)
	}

	rate, ok := ParseTaxLabel(payload.SalesTax)
	if !ok && c.logger != nil {
		c.logger.Warn("unparseable sales tax label, using default rate",
			slog.Int64("stock_item_id", stockItemID),
			slog.String("label", payload.SalesTax),
			slog.Int("default", DefaultGSTPercent))
	}

	return &Record{
		StockItemID:    stockItemID,
		QuantityOnHand: payload.QuantityOnHand,
		Status:         payload.Status,
		HSNCode:        payload.HSNCode,
		SalesTax:       payload.SalesTax,
		GSTPercent:     rate,
	}, nil
}

func (c *Client) fromCache(ctx context.Context, key string) *Record {
	if c.cache == nil {
		return nil
	}
	data, err := c.cache.Get(ctx, key).Bytes()
	if err != nil {
		return nil
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil
	}
	return &rec
}

func (c *Client) toCache(ctx context.Context, key string, rec *Record) {
	if c.cache == nil {
		return
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, data, c.ttl).Err(); err != nil && c.logger != nil {
		c.logger.Warn("catalog cache write failed", slog.Any("error", err))
	}
}
