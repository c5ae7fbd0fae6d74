package money

import (
	"encoding/json"
	"math"
	"math/big"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type cents int64

func intPtr(v int) *int { return &v }

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  float64
	}{
		{"nil", nil, 0},
		{"float", 12.5, 12.5},
		{"int", 3, 3},
		{"string", " 19.90 ", 19.9},
		{"unparsable string", "abc", 0},
		{"NaN", math.NaN(), 0},
		{"decimal", decimal.RequireFromString("1234.56"), 1234.56},
		{"nil decimal pointer", (*decimal.Decimal)(nil), 0},
		{"numeric", pgtype.Numeric{Int: big.NewInt(4550), Exp: -2, Valid: true}, 45.5},
		{"null numeric", pgtype.Numeric{}, 0},
		{"uint", uint(7), 7},
		{"int8", int8(-3), -3},
		{"int16", int16(300), 300},
		{"uint32", uint32(42), 42},
		{"uint64", uint64(1 << 40), 1 << 40},
		{"json number", json.Number("12.34"), 12.34},
		{"bad json number", json.Number("x"), 0},
		{"named integer", cents(250), 250},
		{"pointer to int", intPtr(9), 9},
		{"nil pointer", (*int)(nil), 0},
		{"unsupported type", struct{}{}, 0},
		{"bool", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Normalize(tt.value), 1e-9)
		})
	}
}

func TestNumericRoundTripKeepsScale(t *testing.T) {
	d := decimal.RequireFromString("30.00")
	got := FromNumeric(ToNumeric(d))
	assert.True(t, d.Equal(got))
}

func TestFromNullableNumeric(t *testing.T) {
	assert.Nil(t, FromNullableNumeric(pgtype.Numeric{}))

	got := FromNullableNumeric(pgtype.Numeric{Int: big.NewInt(125), Exp: -1, Valid: true})
	if assert.NotNil(t, got) {
		assert.Equal(t, "12.5", got.String())
	}
}

func TestRound(t *testing.T) {
	assert.Equal(t, "10.01", Round(decimal.RequireFromString("10.005")).String())
	assert.Equal(t, "3.33", Round(decimal.NewFromInt(10).Div(decimal.NewFromInt(3))).String())
}

func TestRoundQuantity(t *testing.T) {
	assert.Equal(t, "1.235", RoundQuantity(decimal.RequireFromString("1.2345")).String())
}

func TestFitsScale(t *testing.T) {
	assert.True(t, FitsScale(decimal.RequireFromString("10.50"), Scale))
	assert.True(t, FitsScale(decimal.RequireFromString("10.500"), Scale))
	assert.True(t, FitsScale(decimal.NewFromInt(3), Scale))
	assert.False(t, FitsScale(decimal.RequireFromString("0.125"), Scale))
	assert.True(t, FitsScale(decimal.RequireFromString("0.125"), QuantityScale))
	assert.False(t, FitsScale(decimal.RequireFromString("1.0001"), QuantityScale))
}
