package invoice

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var (
	maxAmount = decimal.RequireFromString("999999999.99")
	printer   = message.NewPrinter(language.AmericanEnglish)
)

// FormatCurrency renders v as "$1,234.56". Accepted inputs are
// decimal.Decimal, numeric strings, and Go float and integer types. Anything
// malformed, negative or non-finite renders as $0.00; amounts above
// 999,999,999.99 are clamped.
func FormatCurrency(v any) string {
	d, ok := toDecimal(v)
	if !ok || d.IsNegative() {
		d = decimal.Zero
	}
	if d.GreaterThan(maxAmount) {
		d = maxAmount
	}
	f, _ := d.Round(2).Float64()
	return printer.Sprintf("$%v", number.Decimal(f, number.Scale(2)))
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x, true
	case *decimal.Decimal:
		if x == nil {
			return decimal.Zero, false
		}
		return *x, true
	case string:
		d, err := decimal.NewFromString(strings.TrimPrefix(strings.TrimSpace(x), "$"))
		return d, err == nil
	case float64:
		return fromFloat(x)
	case float32:
		return fromFloat(float64(x))
	case int:
		return decimal.NewFromInt(int64(x)), true
	case int64:
		return decimal.NewFromInt(x), true
	default:
		return decimal.Zero, false
	}
}

func fromFloat(f float64) (decimal.Decimal, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(f), true
}
