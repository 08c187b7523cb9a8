// Package exchange implements the adapter for the market-data vendor's REST
// API.
//
// The vendor fronts two prediction-market venues behind one surface:
//   - FetchOrderBook: GET /orderbook/{venue}/{id}, depth snapshots, newest one used
//   - FetchTrades:    GET /trades/{venue}/{id}, fills inside a seconds-bounded window
//
// Every request carries a bearer credential and is rate-limited per
// endpoint category. The exported methods never return errors: transport
// failures, non-2xx statuses, unparseable payloads, and a missing
// credential are logged and surface as an empty book or trade list, which
// the layers above treat as a reason to descend tiers, not to abort.
package exchange

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"bellwether/internal/config"
	"bellwether/internal/telemetry"
	"bellwether/pkg/types"
)

// Endpoint kinds for upstream telemetry.
const (
	kindOrderbook = "orderbook"
	kindTrades    = "trades"
)

// Client is the vendor REST API client.
type Client struct {
	http   *resty.Client
	apiKey string
	rl     *RateLimiter
	tel    *telemetry.Metrics
	logger *slog.Logger
	now    func() time.Time
}

// NewClient creates a rate-limited vendor client. No retries: an upstream
// failure is a single-shot degradation.
func NewClient(cfg config.VendorConfig, tel *telemetry.Metrics, logger *slog.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		httpClient.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	}

	return &Client{
		http:   httpClient,
		apiKey: cfg.APIKey,
		rl:     NewRateLimiter(),
		tel:    tel,
		logger: logger.With("component", "exchange"),
		now:    time.Now,
	}
}

// FetchOrderBook returns the normalised book from the venue's most recent
// snapshot. Empty on any upstream failure.
func (c *Client) FetchOrderBook(ctx context.Context, venue types.Venue, id string) types.OrderBook {
	if c.apiKey == "" {
		c.tel.UpstreamRequest(string(venue), kindOrderbook, telemetry.OutcomeNoCredential)
		c.logger.Warn("vendor credential not configured, returning empty book", "venue", venue, "id", id)
		return types.OrderBook{}
	}

	book, err := c.fetchOrderBook(ctx, venue, id)
	if err != nil {
		c.tel.UpstreamRequest(string(venue), kindOrderbook, telemetry.OutcomeError)
		c.logger.Warn("orderbook fetch degraded to empty", "venue", venue, "id", id, "error", err)
		return types.OrderBook{}
	}

	outcome := telemetry.OutcomeOK
	if book.Empty() {
		outcome = telemetry.OutcomeEmpty
	}
	c.tel.UpstreamRequest(string(venue), kindOrderbook, outcome)
	c.logger.Debug("orderbook fetched", "venue", venue, "id", id, "bids", len(book.Bids), "asks", len(book.Asks))
	return book
}

func (c *Client) fetchOrderBook(ctx context.Context, venue types.Venue, id string) (types.OrderBook, error) {
	if err := c.rl.Book.Wait(ctx); err != nil {
		return types.OrderBook{}, err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"venue": string(venue), "id": id}).
		Get("/orderbook/{venue}/{id}")
	if err != nil {
		return types.OrderBook{}, fmt.Errorf("get orderbook: %w", err)
	}
	if !resp.IsSuccess() {
		return types.OrderBook{}, fmt.Errorf("get orderbook: status %d: %s", resp.StatusCode(), resp.String())
	}

	snaps, err := decodeList[rawBookSnapshot](resp.Body())
	if err != nil {
		return types.OrderBook{}, fmt.Errorf("parse orderbook: %w", err)
	}
	if len(snaps) == 0 {
		return types.OrderBook{}, nil
	}
	return latestSnapshot(snaps).orderBook(), nil
}

// FetchTrades returns the normalised trades of the trailing windowHours.
// Empty on any upstream failure.
func (c *Client) FetchTrades(ctx context.Context, venue types.Venue, id string, windowHours int) []types.Trade {
	if c.apiKey == "" {
		c.tel.UpstreamRequest(string(venue), kindTrades, telemetry.OutcomeNoCredential)
		c.logger.Warn("vendor credential not configured, returning no trades", "venue", venue, "id", id)
		return nil
	}

	trades, err := c.fetchTrades(ctx, venue, id, windowHours)
	if err != nil {
		c.tel.UpstreamRequest(string(venue), kindTrades, telemetry.OutcomeError)
		c.logger.Warn("trades fetch degraded to empty", "venue", venue, "id", id, "window_hours", windowHours, "error", err)
		return nil
	}

	outcome := telemetry.OutcomeOK
	if len(trades) == 0 {
		outcome = telemetry.OutcomeEmpty
	}
	c.tel.UpstreamRequest(string(venue), kindTrades, outcome)
	c.logger.Debug("trades fetched", "venue", venue, "id", id, "window_hours", windowHours, "count", len(trades))
	return trades
}

func (c *Client) fetchTrades(ctx context.Context, venue types.Venue, id string, windowHours int) ([]types.Trade, error) {
	if err := c.rl.Trades.Wait(ctx); err != nil {
		return nil, err
	}

	end := c.now().UTC()
	start := end.Add(-time.Duration(windowHours) * time.Hour)

	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"venue": string(venue), "id": id}).
		SetQueryParams(map[string]string{
			"start_time": strconv.FormatInt(start.Unix(), 10),
			"end_time":   strconv.FormatInt(end.Unix(), 10),
		}).
		Get("/trades/{venue}/{id}")
	if err != nil {
		return nil, fmt.Errorf("get trades: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("get trades: status %d: %s", resp.StatusCode(), resp.String())
	}

	raws, err := decodeList[rawTrade](resp.Body())
	if err != nil {
		return nil, fmt.Errorf("parse trades: %w", err)
	}

	windowStartMs := start.UnixMilli()
	trades := make([]types.Trade, 0, len(raws))
	for _, rt := range raws {
		if tr, ok := rt.normalize(windowStartMs); ok {
			trades = append(trades, tr)
		}
	}
	return trades, nil
}
