package pricing

import (
	"testing"

	"bellwether/pkg/types"
)

func TestRawReportability(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cost *float64
		want types.Reportability
	}{
		{"nil cost", nil, types.ReportabilityFragile},
		{"zero", types.Float64Ptr(0), types.ReportabilityFragile},
		{"just under caution floor", types.Float64Ptr(9999.99), types.ReportabilityFragile},
		{"at caution floor", types.Float64Ptr(10000), types.ReportabilityCaution},
		{"just under reportable floor", types.Float64Ptr(99999.99), types.ReportabilityCaution},
		{"at reportable floor", types.Float64Ptr(100000), types.ReportabilityReportable},
		{"deep book", types.Float64Ptr(300000), types.ReportabilityReportable},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := RawReportability(tt.cost); got != tt.want {
				t.Errorf("RawReportability(%v) = %q, want %q", tt.cost, got, tt.want)
			}
		})
	}
}

func TestAdjustForTier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  types.Reportability
		tier int
		want types.Reportability
	}{
		{"tier1 keeps reportable", types.ReportabilityReportable, types.TierShortVWAP, types.ReportabilityReportable},
		{"tier1 keeps caution", types.ReportabilityCaution, types.TierShortVWAP, types.ReportabilityCaution},
		{"tier1 keeps fragile", types.ReportabilityFragile, types.TierShortVWAP, types.ReportabilityFragile},
		{"tier2 downgrades reportable", types.ReportabilityReportable, types.TierLongVWAP, types.ReportabilityCaution},
		{"tier2 downgrades caution", types.ReportabilityCaution, types.TierLongVWAP, types.ReportabilityFragile},
		{"tier2 floors at fragile", types.ReportabilityFragile, types.TierLongVWAP, types.ReportabilityFragile},
		{"tier3 caps reportable", types.ReportabilityReportable, types.TierMidpoint, types.ReportabilityCaution},
		{"tier3 keeps caution", types.ReportabilityCaution, types.TierMidpoint, types.ReportabilityCaution},
		{"tier3 keeps fragile", types.ReportabilityFragile, types.TierMidpoint, types.ReportabilityFragile},
		{"tier4 forces fragile from reportable", types.ReportabilityReportable, types.TierStale, types.ReportabilityFragile},
		{"tier4 forces fragile from caution", types.ReportabilityCaution, types.TierStale, types.ReportabilityFragile},
		{"tier4 keeps fragile", types.ReportabilityFragile, types.TierStale, types.ReportabilityFragile},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := AdjustForTier(tt.raw, tt.tier); got != tt.want {
				t.Errorf("AdjustForTier(%q, %d) = %q, want %q", tt.raw, tt.tier, got, tt.want)
			}
		})
	}
}

func TestWeakestVenue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		pmCost    *float64
		kCost     *float64
		wantCost  *float64
		wantVenue string
	}{
		{"kalshi is thinner", types.Float64Ptr(300000), types.Float64Ptr(8000), types.Float64Ptr(8000), "kalshi"},
		{"polymarket is thinner", types.Float64Ptr(8000), types.Float64Ptr(300000), types.Float64Ptr(8000), "polymarket"},
		{"tie goes to polymarket", types.Float64Ptr(5000), types.Float64Ptr(5000), types.Float64Ptr(5000), "polymarket"},
		{"only kalshi computable", nil, types.Float64Ptr(7000), types.Float64Ptr(7000), "kalshi"},
		{"only polymarket computable", types.Float64Ptr(7000), nil, types.Float64Ptr(7000), "polymarket"},
		{"neither computable", nil, nil, nil, types.WeakestUnknown},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			gotCost, gotVenue := WeakestVenue(tt.pmCost, tt.kCost)
			if gotVenue != tt.wantVenue {
				t.Errorf("venue = %q, want %q", gotVenue, tt.wantVenue)
			}
			switch {
			case tt.wantCost == nil && gotCost != nil:
				t.Errorf("cost = %v, want nil", *gotCost)
			case tt.wantCost != nil && (gotCost == nil || *gotCost != *tt.wantCost):
				t.Errorf("cost = %v, want %v", gotCost, *tt.wantCost)
			}
		})
	}
}
