// Package market implements the numeric kernel: pure order-book and trade
// math with no I/O.
//
// Everything here is deterministic in its inputs. The adapter hands over
// normalised books (bids descending, asks ascending, every level inside
// (0,1) with positive size) and normalised trades (millisecond timestamps);
// this package derives the midpoint, the volume-weighted average price, and
// the cost of walking the book through a five-cent move. Rounding is applied
// only at return: prices to four decimals, volumes and costs to whole numbers.
package market

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"bellwether/pkg/types"
)

// Midpoint returns (bestBid+bestAsk)/2 rounded to four decimals, or nil when
// either side of the book is empty.
func Midpoint(book types.OrderBook) *float64 {
	if len(book.Bids) == 0 || len(book.Asks) == 0 {
		return nil
	}
	mid := (book.Bids[0].Price + book.Asks[0].Price) / 2
	return types.Float64Ptr(round4(mid))
}

// Merge concatenates two books and re-sorts both sides, for cross-venue
// queries that price over the union of depth. Inputs are not modified.
func Merge(a, b types.OrderBook) types.OrderBook {
	merged := types.OrderBook{
		Bids: make([]types.BookLevel, 0, len(a.Bids)+len(b.Bids)),
		Asks: make([]types.BookLevel, 0, len(a.Asks)+len(b.Asks)),
	}
	merged.Bids = append(append(merged.Bids, a.Bids...), b.Bids...)
	merged.Asks = append(append(merged.Asks, a.Asks...), b.Asks...)
	SortBids(merged.Bids)
	SortAsks(merged.Asks)
	return merged
}

// SortBids orders bid levels descending by price, best bid first.
func SortBids(levels []types.BookLevel) {
	sort.Slice(levels, func(i, j int) bool { return levels[i].Price > levels[j].Price })
}

// SortAsks orders ask levels ascending by price, best ask first.
func SortAsks(levels []types.BookLevel) {
	sort.Slice(levels, func(i, j int) bool { return levels[i].Price < levels[j].Price })
}

// round4 rounds a probability to four decimal places. Going through decimal
// avoids the usual *10000/10000 float artifacts at representational edges.
func round4(v float64) float64 {
	return decimal.NewFromFloat(v).Round(4).InexactFloat64()
}

// roundWhole rounds currency amounts and volumes to integers.
func roundWhole(v float64) float64 {
	return math.Round(v)
}
