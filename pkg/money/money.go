// Package money provides deterministic 2-decimal monetary arithmetic matching
// the backend's rounding policy.
package money

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Round2 rounds a value to 2 decimal places, half away from zero.
// Every client-computed monetary derivation (balances, preview totals)
// must pass through here so that float artifacts like 0.30000000000000004
// never reach a caller.
func Round2(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	f, _ := decimal.NewFromFloat(x).Round(2).Float64()
	// Normalize negative zero so -0.00 never renders.
	if f == 0 {
		return 0
	}
	return f
}

// Sum adds values and rounds the result to 2 decimal places.
func Sum(values ...float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		total = total.Add(decimal.NewFromFloat(v))
	}
	f, _ := total.Round(2).Float64()
	if f == 0 {
		return 0
	}
	return f
}

// Coerce converts a loosely-typed numeric value to float64.
// The backend is known to return amounts both as JSON numbers and as
// numeric strings (sometimes with thousands separators). Malformed input
// coerces to 0; Coerce never fails.
func Coerce(v interface{}) float64 {
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0
		}
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(n), ",", "")
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		return f
	default:
		return 0
	}
}
