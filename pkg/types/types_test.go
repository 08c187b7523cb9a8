package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseVenue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     string
		want   Venue
		wantOK bool
	}{
		{"polymarket", VenuePolymarket, true},
		{"kalshi", VenueKalshi, true},
		{"POLYMARKET", "", false},
		{"nyse", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseVenue(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ParseVenue(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestOrderBookEmpty(t *testing.T) {
	t.Parallel()

	if !(OrderBook{}).Empty() {
		t.Error("zero book should be empty")
	}
	if (OrderBook{Bids: []BookLevel{{Price: 0.5, Size: 1}}}).Empty() {
		t.Error("book with a bid should not be empty")
	}
	if (OrderBook{Asks: []BookLevel{{Price: 0.5, Size: 1}}}).Empty() {
		t.Error("book with an ask should not be empty")
	}
}

// The UI keys off these exact field names; nullable fields must serialise
// as JSON null rather than disappear.
func TestMarketMetricsWireFields(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(MarketMetrics{TokenID: "tok", Platform: VenuePolymarket})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(data)

	for _, field := range []string{
		`"token_id"`, `"platform"`, `"bellwether_price":null`, `"price_tier"`,
		`"price_label"`, `"vwap_window_hours":null`, `"trade_count"`,
		`"total_volume"`, `"cost_to_move_5c":null`, `"raw_reportability"`,
		`"reportability"`, `"orderbook_midpoint":null`, `"current_price":null`,
		`"fetched_at"`, `"cached"`,
	} {
		if !strings.Contains(s, field) {
			t.Errorf("MarketMetrics JSON missing %s: %s", field, s)
		}
	}
	if strings.Contains(s, `"price_source"`) {
		t.Errorf("empty price_source should be omitted: %s", s)
	}
}

func TestCombinedMetricsWireFields(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(CombinedMetrics{
		PolymarketToken: "tok",
		Platform:        PlatformCombined,
		WeakestPlatform: WeakestUnknown,
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(data)

	for _, field := range []string{
		`"polymarket_token"`, `"platform":"combined"`, `"weakest_platform":"unknown"`,
		`"platform_prices":{"polymarket":null,"kalshi":null}`, `"cost_to_move_5c":null`,
	} {
		if !strings.Contains(s, field) {
			t.Errorf("CombinedMetrics JSON missing %s: %s", field, s)
		}
	}
	if strings.Contains(s, `"kalshi_ticker"`) {
		t.Errorf("absent kalshi_ticker should be omitted: %s", s)
	}
	if strings.Contains(s, `"token_id"`) {
		t.Errorf("combined record must not carry token_id: %s", s)
	}
}
