// Package metrics is the coordinator behind the metric endpoints.
//
// Each request runs the same shape: consult the cache, fetch depth, run
// the tiered pricer over the 24h trade buffer, grade robustness from the
// cost-to-move walk, assemble the record, cache it, return it. The
// per-market path refuses to answer without a book (the API maps
// ErrBookUnavailable to 404); the cross-venue path always answers, even
// if the answer is a tier-4 no-data record.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"bellwether/internal/market"
	"bellwether/internal/pricing"
	"bellwether/pkg/types"
)

// ErrBookUnavailable reports an empty order book on the per-market path.
var ErrBookUnavailable = errors.New("order book unavailable")

// BookSource supplies normalised order books. Implemented by the exchange
// client.
type BookSource interface {
	FetchOrderBook(ctx context.Context, venue types.Venue, id string) types.OrderBook
}

// RecordCache is the short-TTL record store. Implemented by the cache.
type RecordCache interface {
	GetMetrics(ctx context.Context, venue types.Venue, id string) (*types.MarketMetrics, bool)
	SetMetrics(ctx context.Context, venue types.Venue, id string, m *types.MarketMetrics)
	GetCombined(ctx context.Context, pmToken, kTicker string) (*types.CombinedMetrics, bool)
	SetCombined(ctx context.Context, pmToken, kTicker string, m *types.CombinedMetrics)
}

// Service assembles metric records on demand. It holds no per-request
// state; concurrent requests share nothing but the cache.
type Service struct {
	books  BookSource
	pricer *pricing.Pricer
	cache  RecordCache
	logger *slog.Logger
	now    func() time.Time
}

// NewService wires the coordinator.
func NewService(books BookSource, pricer *pricing.Pricer, cache RecordCache, logger *slog.Logger) *Service {
	return &Service{
		books:  books,
		pricer: pricer,
		cache:  cache,
		logger: logger.With("component", "metrics"),
		now:    time.Now,
	}
}

// MarketMetrics answers the per-market endpoint. A cached record is
// replayed byte-identical except for the cached flag. An empty order book
// returns ErrBookUnavailable; the stale side-cache is deliberately not
// consulted on this path.
func (s *Service) MarketMetrics(ctx context.Context, venue types.Venue, id string) (*types.MarketMetrics, error) {
	if rec, ok := s.cache.GetMetrics(ctx, venue, id); ok && s.fresh(rec.FetchedAt) {
		replay := *rec
		replay.Cached = true
		return &replay, nil
	}

	book := s.books.FetchOrderBook(ctx, venue, id)
	if book.Empty() {
		return nil, ErrBookUnavailable
	}

	res := s.pricer.Price(ctx, venue, id, book)

	cost := market.CostToMove(book)
	raw := pricing.RawReportability(cost)

	rec := &types.MarketMetrics{
		TokenID:           id,
		Platform:          venue,
		BellwetherPrice:   res.Price.Price,
		PriceTier:         res.Price.Tier,
		PriceLabel:        res.Price.Label,
		PriceSource:       res.Price.Source,
		VWAPWindowHours:   res.Price.WindowHours,
		TradeCount:        res.Price.TradeCount,
		TotalVolume:       res.Price.TotalVolume,
		CostToMove5c:      cost,
		RawReportability:  raw,
		Reportability:     pricing.AdjustForTier(raw, res.Price.Tier),
		OrderbookMidpoint: market.Midpoint(book),
		CurrentPrice:      market.LatestTradePrice(res.Trades),
		FetchedAt:         s.now().UTC(),
	}

	// A cancelled request degrades the trade fetch to empty; caching the
	// resulting lower-tier record would poison the next 5 minutes.
	if ctx.Err() == nil {
		s.cache.SetMetrics(ctx, venue, id, rec)
	}
	return rec, nil
}

// CombinedMetrics answers the cross-venue endpoint. It never refuses:
// with both venues dark it still returns a stale or no-data tier-4
// record. Caller guarantees at least one id is present.
func (s *Service) CombinedMetrics(ctx context.Context, pmToken, kTicker string) *types.CombinedMetrics {
	if rec, ok := s.cache.GetCombined(ctx, pmToken, kTicker); ok && s.fresh(rec.FetchedAt) {
		replay := *rec
		replay.Cached = true
		return &replay
	}

	var pmBook, kBook types.OrderBook
	g, gctx := errgroup.WithContext(ctx)
	if pmToken != "" {
		g.Go(func() error {
			pmBook = s.books.FetchOrderBook(gctx, types.VenuePolymarket, pmToken)
			return nil
		})
	}
	if kTicker != "" {
		g.Go(func() error {
			kBook = s.books.FetchOrderBook(gctx, types.VenueKalshi, kTicker)
			return nil
		})
	}
	_ = g.Wait()

	res := s.pricer.PriceAcrossVenues(ctx, pmToken, kTicker, pmBook, kBook)

	pmCost := market.CostToMove(pmBook)
	kCost := market.CostToMove(kBook)
	cost, weakest := pricing.WeakestVenue(pmCost, kCost)
	raw := pricing.RawReportability(cost)

	rec := &types.CombinedMetrics{
		PolymarketToken:   pmToken,
		KalshiTicker:      kTicker,
		Platform:          types.PlatformCombined,
		BellwetherPrice:   res.Price.Price,
		PriceTier:         res.Price.Tier,
		PriceLabel:        res.Price.Label,
		PriceSource:       res.Price.Source,
		VWAPWindowHours:   res.Price.WindowHours,
		TradeCount:        res.Price.TradeCount,
		TotalVolume:       res.Price.TotalVolume,
		CostToMove5c:      cost,
		WeakestPlatform:   weakest,
		RawReportability:  raw,
		Reportability:     pricing.AdjustForTier(raw, res.Price.Tier),
		OrderbookMidpoint: market.Midpoint(market.Merge(pmBook, kBook)),
		PlatformPrices: types.PlatformPrices{
			Polymarket: market.LatestTradePrice(res.PolyTrades),
			Kalshi:     market.LatestTradePrice(res.KalshiTrades),
		},
		FetchedAt: s.now().UTC(),
	}

	// A cancelled request degrades every fetch to empty; caching the
	// resulting no-data record would poison the next 5 minutes.
	if ctx.Err() == nil {
		s.cache.SetCombined(ctx, pmToken, kTicker, rec)
	}
	return rec
}

func (s *Service) fresh(fetchedAt time.Time) bool {
	return s.now().Sub(fetchedAt) <= types.MetricsCacheTTL
}
