package order

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	emailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	expiryPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)

	minPrice = decimal.RequireFromString("0.01")
	// maxAmount keeps any total within the persistent NUMERIC(12,2) column.
	maxAmount = decimal.RequireFromString("999999999.99")

	validate = newValidator()
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every field-level problem found in an input.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Input is the client-supplied order payload for create and full update.
// CardNumber and CVV are request-scoped and never copied onto an Order.
type Input struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,emailshape"`
	Phone     string `json:"phone" validate:"required"`
	Address   string `json:"address" validate:"required"`
	City      string `json:"city" validate:"required"`
	State     string `json:"state" validate:"required"`
	Country   string `json:"country" validate:"required"`
	ZipCode   string `json:"zipCode" validate:"required"`

	CardholderName string `json:"cardholderName" validate:"required"`
	BillingAddress string `json:"billingAddress" validate:"required"`
	BillingCity    string `json:"billingCity" validate:"required"`
	BillingState   string `json:"billingState" validate:"required"`
	BillingCountry string `json:"billingCountry" validate:"required"`
	BillingZipCode string `json:"billingZipCode" validate:"required"`
	CardNumber     string `json:"cardNumber" validate:"omitempty,cardnumber"`
	CVV            string `json:"cvv" validate:"omitempty,numeric,min=3,max=4"`
	ExpiryDate     string `json:"expiryDate" validate:"required,expiry"`

	Product      string          `json:"product" validate:"required"`
	Price        decimal.Decimal `json:"price"`
	ShippingCost decimal.Decimal `json:"shippingCost"`

	// Status is optional on full update; create always starts at received.
	Status string `json:"status" validate:"omitempty,orderstatus"`
}

// Validate checks the input. requireCard is set on create, where the card
// number must be present; updates may omit it to keep the stored digits.
func (in *Input) Validate(requireCard bool) error {
	var fields []FieldError

	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return errors.Wrap(err, "validate input")
		}
		for _, fe := range verrs {
			fields = append(fields, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
		}
	}

	if requireCard && in.CardNumber == "" {
		fields = append(fields, FieldError{Field: "cardNumber", Message: "is required"})
	}
	switch {
	case in.Price.LessThan(minPrice):
		fields = append(fields, FieldError{Field: "price", Message: "must be at least 0.01"})
	case in.Price.GreaterThan(maxAmount):
		fields = append(fields, FieldError{Field: "price", Message: "must be at most 999999999.99"})
	}
	switch {
	case in.ShippingCost.IsNegative():
		fields = append(fields, FieldError{Field: "shippingCost", Message: "must not be negative"})
	case in.ShippingCost.GreaterThan(maxAmount):
		fields = append(fields, FieldError{Field: "shippingCost", Message: "must be at most 999999999.99"})
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// newOrder builds the record persisted on create.
func (in *Input) newOrder(id string, now time.Time) *Order {
	t := ComputeTotals(in.Price, in.ShippingCost)
	return &Order{
		ID:               id,
		FirstName:        in.FirstName,
		LastName:         in.LastName,
		Email:            in.Email,
		Phone:            in.Phone,
		Address:          in.Address,
		City:             in.City,
		State:            in.State,
		Country:          in.Country,
		ZipCode:          in.ZipCode,
		CardholderName:   in.CardholderName,
		BillingAddress:   in.BillingAddress,
		BillingCity:      in.BillingCity,
		BillingState:     in.BillingState,
		BillingCountry:   in.BillingCountry,
		BillingZipCode:   in.BillingZipCode,
		CardNumberLast4:  last4(in.CardNumber),
		SecurityProvided: in.CVV != "",
		ExpiryDate:       in.ExpiryDate,
		Product:          in.Product,
		Price:            t.Price,
		ShippingCost:     t.ShippingCost,
		Tax:              t.Tax,
		TotalCost:        t.TotalCost,
		Status:           StatusReceived,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// patch builds the full-update patch. Card fields and status are only
// included when supplied.
func (in *Input) patch() Patch {
	t := ComputeTotals(in.Price, in.ShippingCost)
	p := Patch{
		FirstName:      &in.FirstName,
		LastName:       &in.LastName,
		Email:          &in.Email,
		Phone:          &in.Phone,
		Address:        &in.Address,
		City:           &in.City,
		State:          &in.State,
		Country:        &in.Country,
		ZipCode:        &in.ZipCode,
		CardholderName: &in.CardholderName,
		BillingAddress: &in.BillingAddress,
		BillingCity:    &in.BillingCity,
		BillingState:   &in.BillingState,
		BillingCountry: &in.BillingCountry,
		BillingZipCode: &in.BillingZipCode,
		ExpiryDate:     &in.ExpiryDate,
		Product:        &in.Product,
		Totals:         &t,
	}
	if in.CardNumber != "" {
		l4 := last4(in.CardNumber)
		provided := in.CVV != ""
		p.CardNumberLast4 = &l4
		p.SecurityProvided = &provided
	}
	if in.Status != "" {
		s := Status(in.Status)
		p.Status = &s
	}
	return p
}

func last4(card string) string {
	d := digits(card)
	if len(d) <= 4 {
		return d
	}
	return d[len(d)-4:]
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	must(v.RegisterValidation("emailshape", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	}))
	must(v.RegisterValidation("expiry", func(fl validator.FieldLevel) bool {
		return expiryPattern.MatchString(fl.Field().String())
	}))
	must(v.RegisterValidation("cardnumber", func(fl validator.FieldLevel) bool {
		raw := fl.Field().String()
		for _, r := range raw {
			if (r < '0' || r > '9') && r != ' ' && r != '-' {
				return false
			}
		}
		n := len(digits(raw))
		return n >= 12 && n <= 19
	}))
	must(v.RegisterValidation("orderstatus", func(fl validator.FieldLevel) bool {
		return Status(fl.Field().String()).Valid()
	}))
	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "emailshape":
		return "must be a valid email address"
	case "expiry":
		return "must be in MM/YY format"
	case "cardnumber":
		return "must contain 12 to 19 digits"
	case "numeric":
		return "must contain only digits"
	case "min", "max":
		return fmt.Sprintf("length must be %s %s", map[string]string{"min": "at least", "max": "at most"}[fe.Tag()], fe.Param())
	case "orderstatus":
		return "must be one of " + statusList()
	default:
		return "is invalid"
	}
}

func statusList() string {
	names := make([]string, len(Statuses))
	for i, s := range Statuses {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}
