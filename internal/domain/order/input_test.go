package order

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldNames(t *testing.T, err error) []string {
	t.Helper()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	names := make([]string, len(verr.Fields))
	for i, f := range verr.Fields {
		names[i] = f.Field
	}
	return names
}

func TestInputValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Input)
		field  string
	}{
		{"MissingFirstName", func(in *Input) { in.FirstName = "" }, "firstName"},
		{"BadEmail", func(in *Input) { in.Email = "ada@example" }, "email"},
		{"BadExpiry", func(in *Input) { in.ExpiryDate = "13/29" }, "expiryDate"},
		{"ExpiryLongYear", func(in *Input) { in.ExpiryDate = "12/2029" }, "expiryDate"},
		{"ShortCard", func(in *Input) { in.CardNumber = "4111 1111" }, "cardNumber"},
		{"LetterInCard", func(in *Input) { in.CardNumber = "4111 1111 1111 11x1" }, "cardNumber"},
		{"ShortCVV", func(in *Input) { in.CVV = "12" }, "cvv"},
		{"AlphaCVV", func(in *Input) { in.CVV = "12a" }, "cvv"},
		{"ZeroPrice", func(in *Input) { in.Price = decimal.Zero }, "price"},
		{"NegativeShipping", func(in *Input) { in.ShippingCost = decimal.RequireFromString("-1") }, "shippingCost"},
		{"HugePrice", func(in *Input) { in.Price = decimal.RequireFromString("1e15") }, "price"},
		{"PriceJustOverLimit", func(in *Input) { in.Price = decimal.RequireFromString("1000000000") }, "price"},
		{"HugeShipping", func(in *Input) { in.ShippingCost = decimal.RequireFromString("1e12") }, "shippingCost"},
		{"UnknownStatus", func(in *Input) { in.Status = "Shipped" }, "status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.modify(&in)
			assert.Contains(t, fieldNames(t, in.Validate(true)), tt.field)
		})
	}
}

func TestInputValidate_Valid(t *testing.T) {
	in := validInput()
	require.NoError(t, in.Validate(true))

	in.CVV = ""
	in.ShippingCost = decimal.Zero
	require.NoError(t, in.Validate(true), "cvv is optional and shipping may be free")

	in.Price = decimal.RequireFromString("999999999.99")
	in.ShippingCost = decimal.RequireFromString("999999999.99")
	require.NoError(t, in.Validate(true), "largest amounts still fit storage")
	total := ComputeTotals(in.Price, in.ShippingCost).TotalCost
	assert.True(t, total.LessThan(decimal.RequireFromString("9999999999.99")), total.String())

	in.CardNumber = ""
	require.NoError(t, in.Validate(false), "updates may omit the card")
	assert.Equal(t, []string{"cardNumber"}, fieldNames(t, in.Validate(true)))
}

func TestInputValidate_Message(t *testing.T) {
	in := validInput()
	in.Status = "lost"
	var verr *ValidationError
	require.ErrorAs(t, in.Validate(false), &verr)
	assert.Equal(t, "must be one of received, processing, shipped, in-transit, delivered, cancelled, on-hold, returned", verr.Fields[0].Message)
	assert.Contains(t, verr.Error(), "status: must be one of")
}

func TestInput_DecodesNumbersAndStrings(t *testing.T) {
	var in Input
	require.NoError(t, json.Unmarshal([]byte(`{"price": 19.5, "shippingCost": "4.25"}`), &in))
	assert.True(t, in.Price.Equal(decimal.RequireFromString("19.5")))
	assert.True(t, in.ShippingCost.Equal(decimal.RequireFromString("4.25")))
}

func TestNewOrder(t *testing.T) {
	in := validInput()
	in.CVV = ""
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	o := in.newOrder("id-1", now)

	assert.Equal(t, "id-1", o.ID)
	assert.Equal(t, StatusReceived, o.Status)
	assert.Equal(t, "1234", o.CardNumberLast4)
	assert.False(t, o.SecurityProvided)
	assert.Equal(t, now, o.CreatedAt)

	raw, err := json.Marshal(o)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "4111")
	assert.Contains(t, string(raw), `"totalCost":"117.99"`)
}

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		price, shipping string
		tax, total      string
	}{
		{"99.99", "10.00", "8.00", "117.99"},
		{"0.01", "0", "0.00", "0.01"},
		{"10.05", "0.99", "0.80", "11.84"},
		{"1234.56", "25", "98.76", "1358.32"},
	}
	for _, tt := range tests {
		t.Run(tt.price+"+"+tt.shipping, func(t *testing.T) {
			got := ComputeTotals(decimal.RequireFromString(tt.price), decimal.RequireFromString(tt.shipping))
			assert.Equal(t, tt.tax, got.Tax.String())
			assert.Equal(t, tt.total, got.TotalCost.String())
		})
	}
}

func TestMoneyJSON(t *testing.T) {
	m := NewMoney(decimal.RequireFromString("5"))
	raw, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `"5.00"`, string(raw))

	var back Money
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.True(t, back.Equal(m.Decimal))
}

func TestPatchApply(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	o := &Order{ID: "x", FirstName: "Ada", Status: StatusReceived, UpdatedAt: now}
	later := now.Add(time.Hour)

	StatusPatch(StatusCancelled).Apply(o, later)

	assert.Equal(t, &Order{ID: "x", FirstName: "Ada", Status: StatusCancelled, UpdatedAt: later}, o)
}

func TestPatchApply_ReportsPreviousStatus(t *testing.T) {
	o := &Order{ID: "x", Status: StatusShipped}

	var prev Status
	p := StatusPatch(StatusDelivered)
	p.OnApply = func(s Status) { prev = s }
	p.Apply(o, time.Now())

	assert.Equal(t, StatusShipped, prev)
	assert.Equal(t, StatusDelivered, o.Status)
}

func TestParseStatus(t *testing.T) {
	for _, s := range Statuses {
		got, err := ParseStatus(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	_, err := ParseStatus("in transit")
	require.ErrorIs(t, err, ErrInvalidStatus)
}
