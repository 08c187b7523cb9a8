// trades.go parses vendor trade payloads, whose field names vary by venue
// and feed generation. Aliases are tried in a fixed order and the first
// recognised one wins; aliases are never mixed within one field.
package exchange

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bellwether/pkg/types"
)

// flexNumber decodes a JSON number or a numeric string. String prices go
// through decimal so "0.6500" and 0.65 land on the same float.
type flexNumber float64

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		d, err := decimal.NewFromString(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("numeric string %q: %w", s, err)
		}
		*n = flexNumber(d.InexactFloat64())
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*n = flexNumber(f)
	return nil
}

// flexTime decodes a trade timestamp into milliseconds. Accepts epoch
// numbers and numeric strings (values below 1e12 are seconds and scaled by
// 1000) plus RFC3339 strings, which created_at fields tend to be.
type flexTime int64

func (t *flexTime) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if d, err := decimal.NewFromString(strings.TrimSpace(s)); err == nil {
			*t = flexTime(epochToMillis(d.InexactFloat64()))
			return nil
		}
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("timestamp %q: %w", s, err)
		}
		*t = flexTime(parsed.UnixMilli())
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*t = flexTime(epochToMillis(f))
	return nil
}

func epochToMillis(v float64) int64 {
	if v < 1e12 {
		return int64(v * 1000)
	}
	return int64(v)
}

// rawTrade is one trade object with every accepted alias.
type rawTrade struct {
	Price           *flexNumber `json:"price"`
	P               *flexNumber `json:"p"`
	YesPriceDollars *flexNumber `json:"yes_price_dollars"`

	SharesNormalized *flexNumber `json:"shares_normalized"`
	Shares           *flexNumber `json:"shares"`
	Size             *flexNumber `json:"size"`
	Amount           *flexNumber `json:"amount"`
	S                *flexNumber `json:"s"`
	Count            *flexNumber `json:"count"`

	Timestamp   *flexTime `json:"timestamp"`
	T           *flexTime `json:"t"`
	Time        *flexTime `json:"time"`
	CreatedAt   *flexTime `json:"created_at"`
	CreatedTime *flexTime `json:"created_time"`
}

// normalize resolves aliases and applies the discard rules: non-positive
// price or size, no usable timestamp, or a timestamp before the window
// start. Size defaults to 1 when every alias is absent.
func (rt rawTrade) normalize(windowStartMs int64) (types.Trade, bool) {
	price, ok := firstNumber(rt.Price, rt.P, rt.YesPriceDollars)
	if !ok || price <= 0 {
		return types.Trade{}, false
	}

	size, ok := firstNumber(rt.SharesNormalized, rt.Shares, rt.Size, rt.Amount, rt.S, rt.Count)
	if !ok {
		size = 1
	}
	if size <= 0 {
		return types.Trade{}, false
	}

	ts, ok := firstTime(rt.Timestamp, rt.T, rt.Time, rt.CreatedAt, rt.CreatedTime)
	if !ok || ts < windowStartMs {
		return types.Trade{}, false
	}

	return types.Trade{Price: price, Size: size, TimestampMs: ts}, true
}

func firstNumber(aliases ...*flexNumber) (float64, bool) {
	for _, a := range aliases {
		if a != nil {
			return float64(*a), true
		}
	}
	return 0, false
}

func firstTime(aliases ...*flexTime) (int64, bool) {
	for _, a := range aliases {
		if a != nil {
			return int64(*a), true
		}
	}
	return 0, false
}

// decodeList accepts both a bare JSON array and a {"data": [...]} wrapper,
// which the vendor alternates between across endpoints.
func decodeList[T any](body []byte) ([]T, error) {
	var list []T
	if err := json.Unmarshal(body, &list); err == nil {
		return list, nil
	}
	var wrapper struct {
		Data []T `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil, err
	}
	return wrapper.Data, nil
}
