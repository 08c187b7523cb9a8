package market

import (
	"bellwether/pkg/types"
)

// VWAPResult carries the volume-weighted average price of a trade slice
// along with the count and total volume the metrics record reports.
// Price is nil when the slice holds no volume.
type VWAPResult struct {
	Price       *float64
	TradeCount  int
	TotalVolume float64 // rounded to a whole number of contracts
}

// VWAP computes sum(price*size)/sum(size) over the given trades, rounded
// to four decimals.
func VWAP(trades []types.Trade) VWAPResult {
	var notional, volume float64
	for _, tr := range trades {
		notional += tr.Price * tr.Size
		volume += tr.Size
	}

	res := VWAPResult{
		TradeCount:  len(trades),
		TotalVolume: roundWhole(volume),
	}
	if volume == 0 {
		return res
	}
	res.Price = types.Float64Ptr(round4(notional / volume))
	return res
}

// FilterSince returns the trades at or after cutoffMs. The input order is
// preserved.
func FilterSince(trades []types.Trade, cutoffMs int64) []types.Trade {
	out := make([]types.Trade, 0, len(trades))
	for _, tr := range trades {
		if tr.TimestampMs >= cutoffMs {
			out = append(out, tr)
		}
	}
	return out
}

// LatestTradePrice returns the price of the most recent trade by timestamp,
// or nil for an empty slice.
func LatestTradePrice(trades []types.Trade) *float64 {
	if len(trades) == 0 {
		return nil
	}
	latest := trades[0]
	for _, tr := range trades[1:] {
		if tr.TimestampMs > latest.TimestampMs {
			latest = tr
		}
	}
	return types.Float64Ptr(latest.Price)
}
