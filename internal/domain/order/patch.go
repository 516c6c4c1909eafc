package order

import "time"

// Patch is a partial update. Nil fields are left untouched by Apply.
type Patch struct {
	FirstName *string
	LastName  *string
	Email     *string
	Phone     *string
	Address   *string
	City      *string
	State     *string
	Country   *string
	ZipCode   *string

	CardholderName   *string
	BillingAddress   *string
	BillingCity      *string
	BillingState     *string
	BillingCountry   *string
	BillingZipCode   *string
	CardNumberLast4  *string
	SecurityProvided *bool
	ExpiryDate       *string

	Product *string
	Totals  *Totals

	Status *Status

	// OnApply, when set, receives the status held before the merge. Stores
	// call Apply under their write lock, so the value is consistent with the
	// result of the same update.
	OnApply func(prev Status)
}

// StatusPatch builds a patch that changes only the status.
func StatusPatch(s Status) Patch {
	return Patch{Status: &s}
}

// Apply merges p into o and stamps UpdatedAt with now.
func (p Patch) Apply(o *Order, now time.Time) {
	if p.OnApply != nil {
		p.OnApply(o.Status)
	}
	set(&o.FirstName, p.FirstName)
	set(&o.LastName, p.LastName)
	set(&o.Email, p.Email)
	set(&o.Phone, p.Phone)
	set(&o.Address, p.Address)
	set(&o.City, p.City)
	set(&o.State, p.State)
	set(&o.Country, p.Country)
	set(&o.ZipCode, p.ZipCode)

	set(&o.CardholderName, p.CardholderName)
	set(&o.BillingAddress, p.BillingAddress)
	set(&o.BillingCity, p.BillingCity)
	set(&o.BillingState, p.BillingState)
	set(&o.BillingCountry, p.BillingCountry)
	set(&o.BillingZipCode, p.BillingZipCode)
	set(&o.CardNumberLast4, p.CardNumberLast4)
	set(&o.SecurityProvided, p.SecurityProvided)
	set(&o.ExpiryDate, p.ExpiryDate)

	set(&o.Product, p.Product)
	if p.Totals != nil {
		o.Price = p.Totals.Price
		o.ShippingCost = p.Totals.ShippingCost
		o.Tax = p.Totals.Tax
		o.TotalCost = p.Totals.TotalCost
	}

	set(&o.Status, p.Status)
	o.UpdatedAt = now
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
