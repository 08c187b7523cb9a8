package market

import (
	"bellwether/pkg/types"
)

// priceEps absorbs float representation error in threshold comparisons, so
// a level listed exactly at the five-cent threshold counts as crossing.
const priceEps = 1e-9

// CostToMoveUp walks the asks from the best ask p0 and returns the spend,
// rounded to a whole number, required to consume every level below
// p0 + CostMoveDelta. The first level at or past the threshold becomes the
// new best ask and is not paid for. Returns nil when asks is empty or the
// walk exhausts the book without crossing.
func CostToMoveUp(asks []types.BookLevel) *float64 {
	if len(asks) == 0 {
		return nil
	}
	target := asks[0].Price + types.CostMoveDelta

	var spend float64
	for _, lvl := range asks {
		if lvl.Price >= target-priceEps {
			return types.Float64Ptr(roundWhole(spend))
		}
		spend += lvl.Price * lvl.Size
	}
	return nil
}

// CostToMoveDown is the bid-side mirror: spend to consume every bid above
// p0 - CostMoveDelta, nil when bids is empty or too shallow to cross.
func CostToMoveDown(bids []types.BookLevel) *float64 {
	if len(bids) == 0 {
		return nil
	}
	target := bids[0].Price - types.CostMoveDelta

	var spend float64
	for _, lvl := range bids {
		if lvl.Price <= target+priceEps {
			return types.Float64Ptr(roundWhole(spend))
		}
		spend += lvl.Price * lvl.Size
	}
	return nil
}

// CostToMove returns the cheaper of the two directional costs, the
// direction a manipulator would pick. When only one direction is
// computable that one is returned; when neither, nil.
func CostToMove(book types.OrderBook) *float64 {
	up := CostToMoveUp(book.Asks)
	down := CostToMoveDown(book.Bids)

	switch {
	case up == nil:
		return down
	case down == nil:
		return up
	case *down < *up:
		return down
	default:
		return up
	}
}
