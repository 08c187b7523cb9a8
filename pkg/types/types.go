// Package types defines shared data structures used across all packages.
//
// This package is the common vocabulary for the service: venues, order
// books, trades, tiered prices, and the metric records the API serves. It
// has no dependencies on internal packages, so it can be imported by any
// layer. Algorithm parameters that must stay identical everywhere (TTLs,
// VWAP windows, cost thresholds) live here as compile-time constants.
package types

import (
	"time"
)

// ————————————————————————————————————————————————————————————————————————
// Venues
// ————————————————————————————————————————————————————————————————————————

// Venue identifies one of the two markets the vendor aggregates.
type Venue string

const (
	VenuePolymarket Venue = "polymarket"
	VenueKalshi     Venue = "kalshi"
)

// ParseVenue maps a URL path segment to a known venue.
func ParseVenue(s string) (Venue, bool) {
	switch Venue(s) {
	case VenuePolymarket:
		return VenuePolymarket, true
	case VenueKalshi:
		return VenueKalshi, true
	default:
		return "", false
	}
}

// ————————————————————————————————————————————————————————————————————————
// Algorithm constants
// ————————————————————————————————————————————————————————————————————————

const (
	// MetricsCacheTTL bounds how long a computed metrics record is served
	// from cache before the coordinator refetches.
	MetricsCacheTTL = 5 * time.Minute

	// StaleVWAPTTL bounds the last-resort VWAP side-cache.
	StaleVWAPTTL = 7 * 24 * time.Hour

	// MinTradesForVWAP is the floor a window must meet for its VWAP to be
	// adopted as the bellwether price.
	MinTradesForVWAP = 10

	// TradeBufferHours is the span of the single trade fetch the pricer
	// slices into windows.
	TradeBufferHours = 24

	// CostMoveDelta is the price displacement the depth walk measures, in
	// probability units (5 cents).
	CostMoveDelta = 0.05

	// Reportability thresholds on the min cost-to-move, in currency units.
	CautionCostThreshold    = 10_000.0
	ReportableCostThreshold = 100_000.0
)

// VWAPWindowsHours are the pricing windows probed in order; the first
// window meeting MinTradesForVWAP wins. Order is a contract: the shortest
// qualifying window is used even when a longer one holds more trades.
var VWAPWindowsHours = []int{6, 12, 24}

// ————————————————————————————————————————————————————————————————————————
// Market data
// ————————————————————————————————————————————————————————————————————————

// BookLevel is a single bid or ask level. After adapter normalisation both
// fields are strictly positive and Price lies inside (0, 1).
type BookLevel struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

// OrderBook holds one market's normalised depth: bids sorted descending by
// price, asks ascending. Either side may be empty.
type OrderBook struct {
	Bids []BookLevel `json:"bids"`
	Asks []BookLevel `json:"asks"`
}

// Empty reports whether the book carries no levels on either side.
func (b OrderBook) Empty() bool {
	return len(b.Bids) == 0 && len(b.Asks) == 0
}

// Trade is one normalised fill: probability price, positive size, and a
// millisecond UTC timestamp.
type Trade struct {
	Price       float64 `json:"price"`
	Size        float64 `json:"size"`
	TimestampMs int64   `json:"timestamp_ms"`
}

// ————————————————————————————————————————————————————————————————————————
// Tiered price
// ————————————————————————————————————————————————————————————————————————

// Price tiers, strongest first. A lower tier number means a stronger answer.
const (
	TierShortVWAP = 1 // 6h VWAP
	TierLongVWAP  = 2 // 12h or 24h VWAP
	TierMidpoint  = 3 // order-book midpoint
	TierStale     = 4 // stale side-cache, or no data at all
)

// TieredPrice is the pricer's answer: which tier produced the number, the
// number itself (nil only at tier 4 with nothing to say), and the
// descriptive fields the API flattens into the metrics record.
type TieredPrice struct {
	Tier        int
	Price       *float64
	Label       string
	Source      string
	WindowHours *int
	TradeCount  int
	TotalVolume float64
}

// ————————————————————————————————————————————————————————————————————————
// Robustness
// ————————————————————————————————————————————————————————————————————————

// Reportability grades how robust the bellwether price is against book
// manipulation.
type Reportability string

const (
	ReportabilityFragile    Reportability = "fragile"
	ReportabilityCaution    Reportability = "caution"
	ReportabilityReportable Reportability = "reportable"
)

// WeakestUnknown is the weakest-venue tag when neither venue produced a
// cost-to-move.
const WeakestUnknown = "unknown"

// ————————————————————————————————————————————————————————————————————————
// Served records
// ————————————————————————————————————————————————————————————————————————

// MarketMetrics is the single-venue answer served by the API and stored in
// the cache. Cached is the only field that differs between a stored record
// and its replay.
type MarketMetrics struct {
	TokenID  string `json:"token_id"`
	Platform Venue  `json:"platform"`

	BellwetherPrice *float64 `json:"bellwether_price"`
	PriceTier       int      `json:"price_tier"`
	PriceLabel      string   `json:"price_label"`
	PriceSource     string   `json:"price_source,omitempty"`

	VWAPWindowHours *int    `json:"vwap_window_hours"`
	TradeCount      int     `json:"trade_count"`
	TotalVolume     float64 `json:"total_volume"`

	CostToMove5c     *float64      `json:"cost_to_move_5c"`
	RawReportability Reportability `json:"raw_reportability"`
	Reportability    Reportability `json:"reportability"`

	OrderbookMidpoint *float64 `json:"orderbook_midpoint"`
	CurrentPrice      *float64 `json:"current_price"`

	FetchedAt time.Time `json:"fetched_at"`
	Cached    bool      `json:"cached"`
}

// PlatformPrices carries each venue's newest 24h trade price on the
// combined record. Either side may be nil.
type PlatformPrices struct {
	Polymarket *float64 `json:"polymarket"`
	Kalshi     *float64 `json:"kalshi"`
}

// CombinedMetrics is the cross-venue answer: pooled pricing plus the
// weakest-link robustness across both venues.
type CombinedMetrics struct {
	PolymarketToken string `json:"polymarket_token,omitempty"`
	KalshiTicker    string `json:"kalshi_ticker,omitempty"`
	Platform        string `json:"platform"`

	BellwetherPrice *float64 `json:"bellwether_price"`
	PriceTier       int      `json:"price_tier"`
	PriceLabel      string   `json:"price_label"`
	PriceSource     string   `json:"price_source,omitempty"`

	VWAPWindowHours *int    `json:"vwap_window_hours"`
	TradeCount      int     `json:"trade_count"`
	TotalVolume     float64 `json:"total_volume"`

	CostToMove5c     *float64      `json:"cost_to_move_5c"`
	WeakestPlatform  string        `json:"weakest_platform"`
	RawReportability Reportability `json:"raw_reportability"`
	Reportability    Reportability `json:"reportability"`

	OrderbookMidpoint *float64       `json:"orderbook_midpoint"`
	PlatformPrices    PlatformPrices `json:"platform_prices"`

	FetchedAt time.Time `json:"fetched_at"`
	Cached    bool      `json:"cached"`
}

// PlatformCombined is the platform tag on CombinedMetrics.
const PlatformCombined = "combined"

// StaleVWAP is the long-lived side-cache entry written whenever a VWAP tier
// wins, and read only when tiers 1 through 3 all fail.
type StaleVWAP struct {
	Price       float64   `json:"price"`
	WindowHours int       `json:"window_hours"`
	TradeCount  int       `json:"trade_count"`
	StoredAt    time.Time `json:"stored_at"`
}

// Float64Ptr returns a pointer to v. Nullable JSON fields are pointers
// throughout; this keeps literals short at call sites.
func Float64Ptr(v float64) *float64 { return &v }

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }
