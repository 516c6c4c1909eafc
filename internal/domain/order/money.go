package order

import (
	"github.com/shopspring/decimal"
)

// TaxRate is the flat sales tax applied to the product price.
var TaxRate = decimal.RequireFromString("0.08")

// Money is a decimal amount serialized as a fixed two-decimal JSON string.
type Money struct {
	decimal.Decimal
}

// NewMoney wraps d rounded to cents.
func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d.Round(2)}
}

// MarshalJSON implements json.Marshaler.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.StringFixed(2) + `"`), nil
}

// String returns the amount with exactly two decimals.
func (m Money) String() string {
	return m.StringFixed(2)
}

// Totals holds the derived pricing of an order.
type Totals struct {
	Price        Money
	ShippingCost Money
	Tax          Money
	TotalCost    Money
}

// ComputeTotals derives tax and total cost from price and shipping. The total
// is rounded once from the unrounded sum so it always equals
// round(price + shipping + price*TaxRate, 2).
func ComputeTotals(price, shipping decimal.Decimal) Totals {
	tax := price.Mul(TaxRate)
	return Totals{
		Price:        NewMoney(price),
		ShippingCost: NewMoney(shipping),
		Tax:          NewMoney(tax),
		TotalCost:    NewMoney(price.Add(shipping).Add(tax)),
	}
}
