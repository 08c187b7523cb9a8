package exchange

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"bellwether/internal/config"
	"bellwether/internal/telemetry"
	"bellwether/pkg/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestClient(t *testing.T, apiKey string, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.VendorConfig{BaseURL: srv.URL, APIKey: apiKey, Timeout: 2 * time.Second}
	return NewClient(cfg, telemetry.New(), testLogger())
}

func TestFetchOrderBookUsesNewestSnapshot(t *testing.T) {
	t.Parallel()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orderbook/polymarket/tok-1" {
			t.Errorf("path = %q, want /orderbook/polymarket/tok-1", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q, want bearer credential", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"timestamp": 1700000000, "asks": [{"price": 0.90, "size": 1}]},
			{"timestamp": 1700050000,
			 "bids": [{"price": 0.50, "size": 200}, {"price": "0.55", "size": "100"}],
			 "asks": [{"p": 0.62, "s": 10}, {"price": 0.58, "size": 20}]}
		]`))
	})

	c := newTestClient(t, "test-key", handler)
	book := c.FetchOrderBook(context.Background(), types.VenuePolymarket, "tok-1")

	assertLevels(t, "bids", book.Bids, []types.BookLevel{
		{Price: 0.55, Size: 100},
		{Price: 0.50, Size: 200},
	})
	assertLevels(t, "asks", book.Asks, []types.BookLevel{
		{Price: 0.58, Size: 20},
		{Price: 0.62, Size: 10},
	})
}

func TestFetchOrderBookKalshiShapeWrapped(t *testing.T) {
	t.Parallel()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orderbook/kalshi/MKT-1" {
			t.Errorf("path = %q, want /orderbook/kalshi/MKT-1", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": [
			{"yes_dollars": [["0.70", 50], ["0.65", 100]],
			 "no_dollars": [["0.25", 200], ["0.55", 40]]}
		]}`))
	})

	c := newTestClient(t, "test-key", handler)
	book := c.FetchOrderBook(context.Background(), types.VenueKalshi, "MKT-1")

	assertLevels(t, "asks", book.Asks, []types.BookLevel{
		{Price: 0.65, Size: 100},
		{Price: 0.70, Size: 50},
	})
	assertLevels(t, "bids", book.Bids, []types.BookLevel{
		{Price: 0.75, Size: 200},
		{Price: 0.45, Size: 40},
	})
}

func TestFetchOrderBookEmptyPayload(t *testing.T) {
	t.Parallel()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	})

	c := newTestClient(t, "test-key", handler)
	book := c.FetchOrderBook(context.Background(), types.VenuePolymarket, "tok-1")

	if !book.Empty() {
		t.Errorf("book = %+v, want empty", book)
	}
}

func TestFetchOrderBookDegradesOnServerError(t *testing.T) {
	t.Parallel()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusInternalServerError)
	})

	c := newTestClient(t, "test-key", handler)
	book := c.FetchOrderBook(context.Background(), types.VenuePolymarket, "tok-1")

	if !book.Empty() {
		t.Errorf("book = %+v, want empty on 500", book)
	}
}

func TestFetchOrderBookDegradesOnMalformedPayload(t *testing.T) {
	t.Parallel()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": "nope"}`))
	})

	c := newTestClient(t, "test-key", handler)
	book := c.FetchOrderBook(context.Background(), types.VenuePolymarket, "tok-1")

	if !book.Empty() {
		t.Errorf("book = %+v, want empty on parse failure", book)
	}
}

func TestFetchOrderBookWithoutCredentialSkipsHTTP(t *testing.T) {
	t.Parallel()
	var hits atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`[]`))
	})

	c := newTestClient(t, "", handler)
	book := c.FetchOrderBook(context.Background(), types.VenuePolymarket, "tok-1")

	if !book.Empty() {
		t.Errorf("book = %+v, want empty without credential", book)
	}
	if n := hits.Load(); n != 0 {
		t.Errorf("upstream hits = %d, want 0", n)
	}
}

func TestFetchTradesWindowAndNormalization(t *testing.T) {
	t.Parallel()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/trades/kalshi/MKT-1" {
			t.Errorf("path = %q, want /trades/kalshi/MKT-1", r.URL.Path)
		}
		q := r.URL.Query()
		if got := q.Get("start_time"); got != "1700013600" {
			t.Errorf("start_time = %q, want 1700013600", got)
		}
		if got := q.Get("end_time"); got != "1700100000" {
			t.Errorf("end_time = %q, want 1700100000", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": [
			{"price": 0.60, "shares_normalized": 100, "timestamp": 1700050000},
			{"p": "0.55", "shares": 50, "t": 1700060000000},
			{"yes_price_dollars": "0.58", "count": 3, "created_at": "2023-11-15T12:00:00Z"},
			{"price": 0.52, "timestamp": 1700090000},
			{"price": 0.50, "size": 10, "time": 1700000000},
			{"price": -1, "size": 10, "timestamp": 1700050000},
			{"price": 0.50, "size": 10}
		]}`))
	})

	c := newTestClient(t, "test-key", handler)
	c.now = func() time.Time { return time.Unix(1_700_100_000, 0) }

	trades := c.FetchTrades(context.Background(), types.VenueKalshi, "MKT-1", 24)

	want := []types.Trade{
		{Price: 0.60, Size: 100, TimestampMs: 1_700_050_000_000},
		{Price: 0.55, Size: 50, TimestampMs: 1_700_060_000_000},
		{Price: 0.58, Size: 3, TimestampMs: 1_700_049_600_000},
		{Price: 0.52, Size: 1, TimestampMs: 1_700_090_000_000},
	}
	if len(trades) != len(want) {
		t.Fatalf("got %d trades (%v), want %d", len(trades), trades, len(want))
	}
	for i := range want {
		if trades[i] != want[i] {
			t.Errorf("trades[%d] = %+v, want %+v", i, trades[i], want[i])
		}
	}
}

func TestFetchTradesDegradesOnServerError(t *testing.T) {
	t.Parallel()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	c := newTestClient(t, "test-key", handler)
	trades := c.FetchTrades(context.Background(), types.VenuePolymarket, "tok-1", 6)

	if len(trades) != 0 {
		t.Errorf("trades = %v, want none on 429", trades)
	}
}

func TestFetchTradesWithoutCredentialSkipsHTTP(t *testing.T) {
	t.Parallel()
	var hits atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`[]`))
	})

	c := newTestClient(t, "", handler)
	trades := c.FetchTrades(context.Background(), types.VenuePolymarket, "tok-1", 6)

	if len(trades) != 0 {
		t.Errorf("trades = %v, want none without credential", trades)
	}
	if n := hits.Load(); n != 0 {
		t.Errorf("upstream hits = %d, want 0", n)
	}
}

func TestUpstreamOutcomesCounted(t *testing.T) {
	t.Parallel()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/trades/") {
			http.Error(w, "upstream exploded", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"timestamp": 1700000000,
			"bids": [{"price": 0.50, "size": 10}],
			"asks": [{"price": 0.60, "size": 10}]}]`))
	})
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	tel := telemetry.New()
	cfg := config.VendorConfig{BaseURL: srv.URL, APIKey: "test-key", Timeout: 2 * time.Second}
	c := NewClient(cfg, tel, testLogger())
	bare := NewClient(config.VendorConfig{BaseURL: srv.URL, Timeout: 2 * time.Second}, tel, testLogger())

	ctx := context.Background()
	c.FetchOrderBook(ctx, types.VenuePolymarket, "tok-1")
	c.FetchTrades(ctx, types.VenuePolymarket, "tok-1", 6)
	bare.FetchTrades(ctx, types.VenueKalshi, "MKT-1", 6)

	scrape := httptest.NewRecorder()
	tel.Handler().ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := scrape.Body.String()

	for _, line := range []string{
		`bellwether_upstream_requests_total{kind="orderbook",outcome="ok",venue="polymarket"} 1`,
		`bellwether_upstream_requests_total{kind="trades",outcome="error",venue="polymarket"} 1`,
		`bellwether_upstream_requests_total{kind="trades",outcome="no_credential",venue="kalshi"} 1`,
	} {
		if !strings.Contains(body, line) {
			t.Errorf("exposition missing %q", line)
		}
	}
}
