package sources

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexFloat(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  *float64
	}{
		{"number", `{"v": 1.5}`, floatPtr(1.5)},
		{"numeric string", `{"v": "0.0001"}`, floatPtr(0.0001)},
		{"null", `{"v": null}`, nil},
		{"missing", `{}`, nil},
		{"empty string", `{"v": ""}`, nil},
		{"garbage", `{"v": "n/a"}`, nil},
		{"nan string", `{"v": "NaN"}`, nil},
		{"infinity string", `{"v": "+Inf"}`, nil},
		{"negative", `{"v": -12.25}`, floatPtr(-12.25)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var dst struct {
				V flexFloat `json:"v"`
			}
			require.NoError(t, json.Unmarshal([]byte(tt.input), &dst))
			assert.Equal(t, tt.want, dst.V.Ptr())
		})
	}
}

func TestFlexFloatInt64(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  *int64
	}{
		{"numeric string", `{"v": "1234"}`, int64Ptr(1234)},
		{"number", `{"v": 42}`, int64Ptr(42)},
		{"zero", `{"v": 0}`, int64Ptr(0)},
		{"out of range", `{"v": "1e19"}`, nil},
		{"negative", `{"v": -3}`, nil},
		{"fractional", `{"v": 3.7}`, nil},
		{"null", `{"v": null}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var dst struct {
				V flexFloat `json:"v"`
			}
			require.NoError(t, json.Unmarshal([]byte(tt.input), &dst))
			assert.Equal(t, tt.want, dst.V.Int64Ptr())
		})
	}
}

func TestParseTime(t *testing.T) {
	got := parseTime("2021-11-06T21:54:35.825Z")
	require.NotNil(t, got)
	assert.Equal(t, 2021, got.Year())
	assert.Nil(t, parseTime(""))
	assert.Nil(t, parseTime("yesterday"))
}

func TestScaleSupply(t *testing.T) {
	got := scaleSupply(floatPtr(1_000_000_000), 6)
	require.NotNil(t, got)
	assert.InDelta(t, 1000.0, *got, 1e-9)
	assert.Nil(t, scaleSupply(nil, 6))
}

func TestSumCounts(t *testing.T) {
	assert.Nil(t, sumCounts(nil, nil))
	assert.Equal(t, int64(5), *sumCounts(int64Ptr(5), nil))
	assert.Equal(t, int64(7), *sumCounts(int64Ptr(5), int64Ptr(2)))
	assert.Nil(t, sumCounts(int64Ptr(math.MaxInt64), int64Ptr(1)))
}

func floatPtr(v float64) *float64 { return &v }
