package exchange

import (
	"encoding/json"
	"testing"
)

func decodeTrade(t *testing.T, payload string) rawTrade {
	t.Helper()
	var rt rawTrade
	if err := json.Unmarshal([]byte(payload), &rt); err != nil {
		t.Fatalf("unmarshal trade: %v", err)
	}
	return rt
}

func TestTradeNormalize(t *testing.T) {
	t.Parallel()

	const windowStartMs = int64(1_700_000_000_000)

	tests := []struct {
		name      string
		payload   string
		wantOK    bool
		wantPrice float64
		wantSize  float64
		wantTs    int64
	}{
		{
			name:      "canonical fields, seconds timestamp",
			payload:   `{"price": 0.60, "shares_normalized": 100, "timestamp": 1700050000}`,
			wantOK:    true,
			wantPrice: 0.60,
			wantSize:  100,
			wantTs:    1_700_050_000_000,
		},
		{
			name:      "short aliases with string values, millisecond timestamp",
			payload:   `{"p": "0.55", "s": "50", "t": 1700050000000}`,
			wantOK:    true,
			wantPrice: 0.55,
			wantSize:  50,
			wantTs:    1_700_050_000_000,
		},
		{
			name:      "kalshi aliases with rfc3339 time",
			payload:   `{"yes_price_dollars": "0.58", "count": 3, "created_at": "2023-11-15T12:00:00Z"}`,
			wantOK:    true,
			wantPrice: 0.58,
			wantSize:  3,
			wantTs:    1_700_049_600_000,
		},
		{
			name:      "price alias order is fixed",
			payload:   `{"price": 0.60, "p": 0.10, "yes_price_dollars": 0.20, "timestamp": 1700050000}`,
			wantOK:    true,
			wantPrice: 0.60,
			wantSize:  1,
			wantTs:    1_700_050_000_000,
		},
		{
			name:      "size alias order is fixed",
			payload:   `{"price": 0.60, "shares_normalized": 7, "size": 99, "amount": 500, "timestamp": 1700050000}`,
			wantOK:    true,
			wantPrice: 0.60,
			wantSize:  7,
			wantTs:    1_700_050_000_000,
		},
		{
			name:      "missing size defaults to one",
			payload:   `{"price": 0.52, "timestamp": 1700050000}`,
			wantOK:    true,
			wantPrice: 0.52,
			wantSize:  1,
			wantTs:    1_700_050_000_000,
		},
		{
			name:      "numeric string seconds timestamp",
			payload:   `{"price": 0.52, "time": "1700050000"}`,
			wantOK:    true,
			wantPrice: 0.52,
			wantSize:  1,
			wantTs:    1_700_050_000_000,
		},
		{
			name:      "at window start kept",
			payload:   `{"price": 0.60, "size": 10, "timestamp": 1700000000}`,
			wantOK:    true,
			wantPrice: 0.60,
			wantSize:  10,
			wantTs:    windowStartMs,
		},
		{
			name:    "zero price discarded",
			payload: `{"price": 0, "timestamp": 1700050000}`,
		},
		{
			name:    "negative price discarded",
			payload: `{"price": -0.4, "timestamp": 1700050000}`,
		},
		{
			name:    "zero size discarded",
			payload: `{"price": 0.60, "size": 0, "timestamp": 1700050000}`,
		},
		{
			name:    "missing timestamp discarded",
			payload: `{"price": 0.60, "size": 10}`,
		},
		{
			name:    "before window discarded",
			payload: `{"price": 0.60, "size": 10, "timestamp": 1699999999}`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tr, ok := decodeTrade(t, tt.payload).normalize(windowStartMs)
			if ok != tt.wantOK {
				t.Fatalf("normalize() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if tr.Price != tt.wantPrice {
				t.Errorf("Price = %v, want %v", tr.Price, tt.wantPrice)
			}
			if tr.Size != tt.wantSize {
				t.Errorf("Size = %v, want %v", tr.Size, tt.wantSize)
			}
			if tr.TimestampMs != tt.wantTs {
				t.Errorf("TimestampMs = %v, want %v", tr.TimestampMs, tt.wantTs)
			}
		})
	}
}

func TestTradeRejectsJunkNumericString(t *testing.T) {
	t.Parallel()
	var rt rawTrade
	if err := json.Unmarshal([]byte(`{"price": "n/a"}`), &rt); err == nil {
		t.Fatal("expected error for non-numeric price string")
	}
}

func TestDecodeListShapes(t *testing.T) {
	t.Parallel()

	bare, err := decodeList[rawTrade]([]byte(`[{"price": 0.5}]`))
	if err != nil {
		t.Fatalf("bare array: %v", err)
	}
	if len(bare) != 1 {
		t.Fatalf("bare array: got %d trades, want 1", len(bare))
	}

	wrapped, err := decodeList[rawTrade]([]byte(`{"data": [{"price": 0.5}, {"price": 0.6}]}`))
	if err != nil {
		t.Fatalf("wrapped array: %v", err)
	}
	if len(wrapped) != 2 {
		t.Fatalf("wrapped array: got %d trades, want 2", len(wrapped))
	}

	if _, err := decodeList[rawTrade]([]byte(`"nope"`)); err == nil {
		t.Fatal("expected error for a non-list payload")
	}
}
