// orderbook.go parses the vendor's two order-book payload shapes into the
// normalised internal book.
//
// Polymarket-style snapshots carry bids/asks arrays of objects keyed
// price|p and size|s. Kalshi-style snapshots carry yes_dollars/no_dollars
// arrays of [price, quantity] pairs where prices arrive as strings;
// yes_dollars quote asks directly, and a resting bid on "No" at price p is
// economically a bid on "Yes" at 1-p. Both shapes may wrap numbers in
// strings, so every scalar decodes through flexNumber.
package exchange

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"bellwether/internal/market"
	"bellwether/pkg/types"
)

// rawBookSnapshot is one depth snapshot in either venue shape.
type rawBookSnapshot struct {
	Timestamp *flexTime `json:"timestamp"`

	Bids []rawLevel `json:"bids"`
	Asks []rawLevel `json:"asks"`

	YesDollars []kalshiLevel `json:"yes_dollars"`
	NoDollars  []kalshiLevel `json:"no_dollars"`
}

// rawLevel is a polymarket-style level with its short-key aliases.
type rawLevel struct {
	Price *flexNumber `json:"price"`
	P     *flexNumber `json:"p"`
	Size  *flexNumber `json:"size"`
	S     *flexNumber `json:"s"`
}

// kalshiLevel is one [price, quantity] pair from the kalshi book shape.
type kalshiLevel struct {
	Price flexNumber
	Qty   flexNumber
}

func (l *kalshiLevel) UnmarshalJSON(b []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(b, &pair); err != nil {
		return err
	}
	if len(pair) < 2 {
		return fmt.Errorf("level needs [price, quantity], got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &l.Price); err != nil {
		return fmt.Errorf("level price: %w", err)
	}
	if err := json.Unmarshal(pair[1], &l.Qty); err != nil {
		return fmt.Errorf("level quantity: %w", err)
	}
	return nil
}

// orderBook normalises the snapshot: venue shape resolved, invalid levels
// discarded (price outside (0,1) or size <= 0), bids sorted descending and
// asks ascending.
func (s rawBookSnapshot) orderBook() types.OrderBook {
	var book types.OrderBook

	if len(s.Bids) > 0 || len(s.Asks) > 0 {
		for _, l := range s.Bids {
			book.Bids = appendLevel(book.Bids, pick(l.Price, l.P), pick(l.Size, l.S))
		}
		for _, l := range s.Asks {
			book.Asks = appendLevel(book.Asks, pick(l.Price, l.P), pick(l.Size, l.S))
		}
	} else {
		for _, l := range s.YesDollars {
			book.Asks = appendLevel(book.Asks, float64(l.Price), float64(l.Qty))
		}
		for _, l := range s.NoDollars {
			book.Bids = appendLevel(book.Bids, complementPrice(float64(l.Price)), float64(l.Qty))
		}
	}

	market.SortBids(book.Bids)
	market.SortAsks(book.Asks)
	return book
}

// complementPrice converts a no-side quote into the equivalent yes-side bid.
// The subtraction runs through decimal so 0.55 maps to an exact 0.45 rather
// than a binary-float artifact.
func complementPrice(p float64) float64 {
	return decimal.NewFromInt(1).Sub(decimal.NewFromFloat(p)).InexactFloat64()
}

// appendLevel keeps only levels a walk can price: probability strictly
// inside (0,1) and positive size.
func appendLevel(levels []types.BookLevel, price, size float64) []types.BookLevel {
	if price <= 0 || price >= 1 || size <= 0 {
		return levels
	}
	return append(levels, types.BookLevel{Price: price, Size: size})
}

// pick returns the first alias that was present, or 0.
func pick(aliases ...*flexNumber) float64 {
	for _, a := range aliases {
		if a != nil {
			return float64(*a)
		}
	}
	return 0
}

// latestSnapshot selects the snapshot with the greatest timestamp, falling
// back to the first when none carry one. Callers guarantee len > 0.
func latestSnapshot(snaps []rawBookSnapshot) rawBookSnapshot {
	best := snaps[0]
	bestTS := int64(-1)
	if best.Timestamp != nil {
		bestTS = int64(*best.Timestamp)
	}
	for _, s := range snaps[1:] {
		if s.Timestamp != nil && int64(*s.Timestamp) > bestTS {
			best = s
			bestTS = int64(*s.Timestamp)
		}
	}
	return best
}
