package main

import (
	"io"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/shiptrack/internal/domain/order"
)

// writeExport writes one JSON object per order. Card and contact details
// beyond the email are left out.
func writeExport(w io.Writer, orders []order.Order) (int, error) {
	var e jx.Encoder
	for i, o := range orders {
		e.Reset()
		encodeOrder(&e, o)
		e.RawStr("\n")
		if _, err := w.Write(e.Bytes()); err != nil {
			return i, errors.Wrapf(err, "write order %s", o.ID)
		}
	}
	return len(orders), nil
}

func encodeOrder(e *jx.Encoder, o order.Order) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("orderId", func(e *jx.Encoder) { e.Str(o.ID) })
		e.Field("status", func(e *jx.Encoder) { e.Str(string(o.Status)) })
		e.Field("customer", func(e *jx.Encoder) { e.Str(o.CustomerName()) })
		e.Field("email", func(e *jx.Encoder) { e.Str(o.Email) })
		e.Field("country", func(e *jx.Encoder) { e.Str(o.Country) })
		e.Field("product", func(e *jx.Encoder) { e.Str(o.Product) })
		e.Field("price", func(e *jx.Encoder) { e.Str(o.Price.String()) })
		e.Field("shippingCost", func(e *jx.Encoder) { e.Str(o.ShippingCost.String()) })
		e.Field("tax", func(e *jx.Encoder) { e.Str(o.Tax.String()) })
		e.Field("totalCost", func(e *jx.Encoder) { e.Str(o.TotalCost.String()) })
		e.Field("createdAt", func(e *jx.Encoder) { e.Str(o.CreatedAt.UTC().Format(time.RFC3339)) })
		e.Field("updatedAt", func(e *jx.Encoder) { e.Str(o.UpdatedAt.UTC().Format(time.RFC3339)) })
	})
}
