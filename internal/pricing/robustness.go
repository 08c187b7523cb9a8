// robustness.go grades how safely the bellwether price can be quoted.
//
// The raw grade comes from the minimum cost to move the price five cents:
// a book that can be pushed a nickel for under $10k is fragile, under
// $100k merits caution, anything above is reportable. The grade is then
// weakened by how indirect the price tier is, since a thin recent window
// or a bare midpoint deserves less trust than a busy 6h VWAP regardless
// of book depth.
package pricing

import (
	"bellwether/pkg/types"
)

// RawReportability grades the minimum cost to move the price five cents.
// A nil cost means the walk found no usable depth and is graded fragile.
func RawReportability(cost *float64) types.Reportability {
	switch {
	case cost == nil || *cost < types.CautionCostThreshold:
		return types.ReportabilityFragile
	case *cost < types.ReportableCostThreshold:
		return types.ReportabilityCaution
	default:
		return types.ReportabilityReportable
	}
}

// AdjustForTier applies the tier policy: tier 1 keeps the raw grade,
// tier 2 downgrades one level, tier 3 caps at caution, tier 4 is always
// fragile.
func AdjustForTier(raw types.Reportability, tier int) types.Reportability {
	switch tier {
	case types.TierShortVWAP:
		return raw
	case types.TierLongVWAP:
		return downgrade(raw)
	case types.TierMidpoint:
		if raw == types.ReportabilityReportable {
			return types.ReportabilityCaution
		}
		return raw
	default:
		return types.ReportabilityFragile
	}
}

func downgrade(r types.Reportability) types.Reportability {
	switch r {
	case types.ReportabilityReportable:
		return types.ReportabilityCaution
	default:
		return types.ReportabilityFragile
	}
}

// WeakestVenue picks the smaller of the two venue costs, since a
// manipulator attacks the cheapest book, and names the venue that
// produced it. Ties go to polymarket; two nil costs yield (nil, unknown).
func WeakestVenue(pmCost, kCost *float64) (*float64, string) {
	switch {
	case pmCost == nil && kCost == nil:
		return nil, types.WeakestUnknown
	case kCost == nil:
		return pmCost, string(types.VenuePolymarket)
	case pmCost == nil:
		return kCost, string(types.VenueKalshi)
	case *pmCost <= *kCost:
		return pmCost, string(types.VenuePolymarket)
	default:
		return kCost, string(types.VenueKalshi)
	}
}
