package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when no order exists for the given id.
	ErrNotFound = errors.New("order not found")
	// ErrInvalidStatus is returned when a status literal is outside the allowed set.
	ErrInvalidStatus = errors.New("invalid order status")
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusReceived   Status = "received"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusInTransit  Status = "in-transit"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusOnHold     Status = "on-hold"
	StatusReturned   Status = "returned"
)

// Statuses lists every allowed status in lifecycle order.
var Statuses = []Status{
	StatusReceived,
	StatusProcessing,
	StatusShipped,
	StatusInTransit,
	StatusDelivered,
	StatusCancelled,
	StatusOnHold,
	StatusReturned,
}

// Valid reports whether s is one of the allowed statuses.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// ParseStatus converts a raw literal into a Status, returning ErrInvalidStatus
// for anything outside the allowed set.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", errors.Wrapf(ErrInvalidStatus, "%q", raw)
	}
	return s, nil
}

// Order is the persisted order record. Only the last four digits of the card
// number are ever stored; the full number and CVV live on Input only.
type Order struct {
	ID string `json:"orderId"`

	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	Country   string `json:"country"`
	ZipCode   string `json:"zipCode"`

	CardholderName   string `json:"cardholderName"`
	BillingAddress   string `json:"billingAddress"`
	BillingCity      string `json:"billingCity"`
	BillingState     string `json:"billingState"`
	BillingCountry   string `json:"billingCountry"`
	BillingZipCode   string `json:"billingZipCode"`
	CardNumberLast4  string `json:"cardNumberLast4"`
	SecurityProvided bool   `json:"securityProvided"`
	ExpiryDate       string `json:"expiryDate"`

	Product      string `json:"product"`
	Price        Money  `json:"price"`
	ShippingCost Money  `json:"shippingCost"`
	Tax          Money  `json:"tax"`
	TotalCost    Money  `json:"totalCost"`

	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CustomerName returns "First Last" with empty parts dropped.
func (o *Order) CustomerName() string {
	switch {
	case o.FirstName == "":
		return o.LastName
	case o.LastName == "":
		return o.FirstName
	default:
		return o.FirstName + " " + o.LastName
	}
}

// MaskedCard renders the stored card digits for display.
func (o *Order) MaskedCard() string {
	last4 := o.CardNumberLast4
	if last4 == "" {
		last4 = "????"
	}
	return "**** **** **** " + last4
}

// Repository is the key-value contract over stored orders. All operations are
// keyed by order id; Update merges only the fields set on the patch and always
// refreshes UpdatedAt.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	Update(ctx context.Context, id string, p Patch) (*Order, error)
	Delete(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context) ([]Order, error)
	ListByStatus(ctx context.Context, s Status) ([]Order, error)
	// ListByEmail matches case-insensitively.
	ListByEmail(ctx context.Context, email string) ([]Order, error)
}
