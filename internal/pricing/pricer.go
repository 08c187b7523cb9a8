// Package pricing implements the tiered bellwether price and the
// robustness policy graded on top of it.
//
// The cascade prefers recent consensus over book structure: the first
// VWAP window holding enough trades wins (tier 1 for the shortest window,
// tier 2 for the longer ones), then the order-book midpoint (tier 3),
// then the stale side-cache of the last successful VWAP (tier 4), then an
// explicit no-data answer (also tier 4). Window order is a contract: the
// shortest qualifying window is adopted even when a longer one holds more
// trades.
package pricing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"bellwether/internal/market"
	"bellwether/internal/telemetry"
	"bellwether/pkg/types"
)

// TradeSource supplies the trailing trade buffer for one market.
// Implemented by the exchange client.
type TradeSource interface {
	FetchTrades(ctx context.Context, venue types.Venue, id string, windowHours int) []types.Trade
}

// StaleStore is the side-cache the pricer persists winning VWAPs into and
// falls back to at tier 4. Implemented by the cache.
type StaleStore interface {
	ReadStaleVWAP(ctx context.Context, key string) (*types.StaleVWAP, bool)
	WriteStaleVWAP(ctx context.Context, key string, entry types.StaleVWAP)
}

// Pricer runs the cascade against one trade source and one stale store.
type Pricer struct {
	trades TradeSource
	stale  StaleStore
	tel    *telemetry.Metrics
	logger *slog.Logger
	now    func() time.Time
}

// New wires a pricer.
func New(trades TradeSource, stale StaleStore, tel *telemetry.Metrics, logger *slog.Logger) *Pricer {
	return &Pricer{
		trades: trades,
		stale:  stale,
		tel:    tel,
		logger: logger.With("component", "pricing"),
		now:    time.Now,
	}
}

// Result is the per-market outcome plus the 24h buffer it was computed
// from, so the coordinator can derive current_price without refetching.
type Result struct {
	Price  types.TieredPrice
	Trades []types.Trade
}

// CrossResult is the cross-venue outcome with each venue's own buffer.
type CrossResult struct {
	Price        types.TieredPrice
	PolyTrades   []types.Trade
	KalshiTrades []types.Trade
}

// Price fetches the market's 24h trade buffer once and cascades. The
// winning VWAP, if any, is persisted under the market id.
func (p *Pricer) Price(ctx context.Context, venue types.Venue, id string, book types.OrderBook) Result {
	buffer := p.trades.FetchTrades(ctx, venue, id, types.TradeBufferHours)
	return Result{Price: p.cascade(ctx, id, buffer, book), Trades: buffer}
}

// PriceAcrossVenues pools both venues' 24h buffers (fetched in parallel,
// absent ids skipped) and cascades over the union, with the midpoint taken
// on the concatenated-and-resorted books. The stale key is the composite
// "<poly_token>_<kalshi_ticker>".
func (p *Pricer) PriceAcrossVenues(ctx context.Context, pmToken, kTicker string, pmBook, kBook types.OrderBook) CrossResult {
	var polyTrades, kalshiTrades []types.Trade

	g, gctx := errgroup.WithContext(ctx)
	if pmToken != "" {
		g.Go(func() error {
			polyTrades = p.trades.FetchTrades(gctx, types.VenuePolymarket, pmToken, types.TradeBufferHours)
			return nil
		})
	}
	if kTicker != "" {
		g.Go(func() error {
			kalshiTrades = p.trades.FetchTrades(gctx, types.VenueKalshi, kTicker, types.TradeBufferHours)
			return nil
		})
	}
	_ = g.Wait()

	pooled := make([]types.Trade, 0, len(polyTrades)+len(kalshiTrades))
	pooled = append(pooled, polyTrades...)
	pooled = append(pooled, kalshiTrades...)

	price := p.cascade(ctx, pmToken+"_"+kTicker, pooled, market.Merge(pmBook, kBook))
	return CrossResult{Price: price, PolyTrades: polyTrades, KalshiTrades: kalshiTrades}
}

func (p *Pricer) cascade(ctx context.Context, staleKey string, trades []types.Trade, book types.OrderBook) types.TieredPrice {
	nowMs := p.now().UnixMilli()

	for _, window := range types.VWAPWindowsHours {
		cutoff := nowMs - int64(window)*time.Hour.Milliseconds()
		res := market.VWAP(market.FilterSince(trades, cutoff))
		if res.TradeCount < types.MinTradesForVWAP || res.Price == nil {
			continue
		}

		tier := types.TierLongVWAP
		if window == types.VWAPWindowsHours[0] {
			tier = types.TierShortVWAP
		}

		p.stale.WriteStaleVWAP(ctx, staleKey, types.StaleVWAP{
			Price:       *res.Price,
			WindowHours: window,
			TradeCount:  res.TradeCount,
			StoredAt:    p.now().UTC(),
		})

		p.tel.PriceTier(tier)
		return types.TieredPrice{
			Tier:        tier,
			Price:       res.Price,
			Label:       fmt.Sprintf("%dh VWAP", window),
			Source:      fmt.Sprintf("%dh_vwap", window),
			WindowHours: types.IntPtr(window),
			TradeCount:  res.TradeCount,
			TotalVolume: res.TotalVolume,
		}
	}

	if mid := market.Midpoint(book); mid != nil {
		buffer := market.VWAP(trades)
		p.tel.PriceTier(types.TierMidpoint)
		return types.TieredPrice{
			Tier:        types.TierMidpoint,
			Price:       mid,
			Label:       "Order book midpoint",
			Source:      "orderbook_midpoint",
			TradeCount:  buffer.TradeCount,
			TotalVolume: buffer.TotalVolume,
		}
	}

	if entry, ok := p.stale.ReadStaleVWAP(ctx, staleKey); ok {
		p.logger.Debug("serving stale vwap", "key", staleKey, "stored_at", entry.StoredAt)
		p.tel.PriceTier(types.TierStale)
		return types.TieredPrice{
			Tier:        types.TierStale,
			Price:       types.Float64Ptr(entry.Price),
			Label:       "Last VWAP (stale)",
			Source:      "stale_vwap",
			WindowHours: types.IntPtr(entry.WindowHours),
			TradeCount:  entry.TradeCount,
		}
	}

	p.tel.PriceTier(types.TierStale)
	return types.TieredPrice{
		Tier:  types.TierStale,
		Label: "No data",
	}
}
