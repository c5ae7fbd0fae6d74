// Package money converts between the numeric shapes amounts arrive in
// (strings, floats, decimals, Postgres NUMERIC) and normalises them for
// computation and display.
package money

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

const (
	// Scale is the number of fractional digits kept for currency amounts.
	Scale = 2

	// QuantityScale is the number of fractional digits kept for quantities.
	QuantityScale = 3
)

// Normalize converts value to a float64 amount. Nil, unparsable strings and
// NaN all collapse to 0. Other numeric kinds are converted by value.
func Normalize(value any) float64 {
	var f float64
	switch v := value.(type) {
	case nil:
		return 0
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case string:
		f = parseFloat(v)
	case json.Number:
		f = parseFloat(string(v))
	case decimal.Decimal:
		f = v.InexactFloat64()
	case *decimal.Decimal:
		if v == nil {
			return 0
		}
		f = v.InexactFloat64()
	case decimal.NullDecimal:
		if !v.Valid {
			return 0
		}
		f = v.Decimal.InexactFloat64()
	case pgtype.Numeric:
		f = FromNumeric(v).InexactFloat64()
	default:
		f = reflectFloat(reflect.ValueOf(value))
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func parseFloat(raw string) float64 {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return parsed
}

// reflectFloat covers the remaining integer, unsigned, float and string kinds,
// named types included.
func reflectFloat(v reflect.Value) float64 {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(v.Uint())
	case reflect.Float32, reflect.Float64:
		return v.Float()
	case reflect.String:
		return parseFloat(v.String())
	case reflect.Pointer:
		if v.IsNil() {
			return 0
		}
		return Normalize(v.Elem().Interface())
	default:
		return 0
	}
}

// Round rounds d to currency precision using half-away-from-zero.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// RoundQuantity rounds q to quantity precision.
func RoundQuantity(q decimal.Decimal) decimal.Decimal {
	return q.Round(QuantityScale)
}

// FitsScale reports whether d carries no significant digits past scale
// fractional digits. Trailing zeros do not count.
func FitsScale(d decimal.Decimal, scale int32) bool {
	return d.Equal(d.Truncate(scale))
}

// FromNumeric converts a scanned NUMERIC into a decimal. NULL and NaN become zero.
func FromNumeric(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.NaN || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

// FromNullableNumeric converts a scanned NUMERIC into a decimal pointer, nil for NULL.
func FromNullableNumeric(n pgtype.Numeric) *decimal.Decimal {
	if !n.Valid || n.NaN || n.Int == nil {
		return nil
	}
	d := decimal.NewFromBigInt(n.Int, n.Exp)
	return &d
}

// ToNumeric converts a decimal into a NUMERIC argument.
func ToNumeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

// ToNullableNumeric converts an optional decimal into a NUMERIC argument.
func ToNullableNumeric(d *decimal.Decimal) pgtype.Numeric {
	if d == nil {
		return pgtype.Numeric{}
	}
	return ToNumeric(*d)
}
