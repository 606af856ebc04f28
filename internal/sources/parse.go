// internal/sources/parse.go
package sources

import (
	"bytes"
	"math"
	"strconv"
	"strings"
	"time"
)

// flexFloat decodes a JSON number, a numeric string or null. Anything that
// does not parse to a finite number leaves the value unset instead of
// failing the whole response.
type flexFloat struct {
	value float64
	valid bool
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	*f = flexFloat{}
	raw := bytes.TrimSpace(data)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if p := parseFloat(string(bytes.Trim(raw, `"`))); p != nil {
		*f = flexFloat{value: *p, valid: true}
	}
	return nil
}

// Ptr returns the value or nil when unset.
func (f flexFloat) Ptr() *float64 {
	if !f.valid {
		return nil
	}
	v := f.value
	return &v
}

// Int64Ptr returns the value as a count. Negative, fractional and
// out-of-range values are unset.
func (f flexFloat) Int64Ptr() *int64 {
	if !f.valid || f.value < 0 || f.value >= math.MaxInt64 || f.value != math.Trunc(f.value) {
		return nil
	}
	v := int64(f.value)
	return &v
}

// parseFloat returns nil for empty, invalid, NaN or infinite input.
func parseFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// parseTime accepts RFC 3339 timestamps, nil otherwise.
func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}

func int64Ptr(v int64) *int64 { return &v }

// scaleSupply converts a raw integer supply into whole tokens.
func scaleSupply(raw *float64, decimals int) *float64 {
	if raw == nil {
		return nil
	}
	v := *raw / math.Pow10(decimals)
	return &v
}

// sumCounts adds two optional counters; nil when both are unset.
func sumCounts(a, b *int64) *int64 {
	if a == nil && b == nil {
		return nil
	}
	var total int64
	if a != nil {
		total += *a
	}
	if b != nil {
		if *b > math.MaxInt64-total {
			return nil
		}
		total += *b
	}
	return &total
}
