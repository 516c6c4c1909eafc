package order

import (
	"context"
	"time"

	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// InvoiceReceipt is the result descriptor returned by the invoices service.
type InvoiceReceipt struct {
	Success    bool      `json:"success"`
	InvoiceID  string    `json:"invoiceId"`
	OrderID    string    `json:"orderId"`
	Amount     string    `json:"amount"`
	PDFURL     string    `json:"pdfUrl"`
	EmailSent  bool      `json:"emailSent"`
	EmailError string    `json:"emailError,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// StatusNotice asks the notifications service to tell a customer about a
// status change.
type StatusNotice struct {
	OrderID       string `json:"orderId"`
	CustomerEmail string `json:"customerEmail"`
	Status        string `json:"status"`
	CustomerName  string `json:"customerName,omitempty"`
}

// NotificationReceipt is the delivery report returned by the notifications service.
type NotificationReceipt struct {
	Success    bool     `json:"success"`
	MessageID  *string  `json:"messageId"`
	Recipients []string `json:"recipients"`
	Error      string   `json:"error,omitempty"`
	ErrorType  string   `json:"errorType,omitempty"`
	Suggestion string   `json:"suggestion,omitempty"`
}

// Invoicer reaches the invoices service.
type Invoicer interface {
	// PushOrder sends a replica of the order so the invoices service can see it.
	PushOrder(ctx context.Context, o *Order) error
	GenerateInvoice(ctx context.Context, orderID string) (*InvoiceReceipt, error)
}

// Notifier reaches the notifications service. A non-nil receipt may
// accompany an error when the service reported a delivery failure.
type Notifier interface {
	Notify(ctx context.Context, n StatusNotice) (*NotificationReceipt, error)
}

// InvoiceOutcome is the best-effort invoice result embedded in a create response.
type InvoiceOutcome struct {
	Generated bool            `json:"generated"`
	Details   *InvoiceReceipt `json:"details,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// NotificationOutcome is the best-effort notification result embedded in a
// create response.
type NotificationOutcome struct {
	Sent    bool                 `json:"sent"`
	Details *NotificationReceipt `json:"details,omitempty"`
	Error   string               `json:"error,omitempty"`
}

const (
	effectPushReplica = "push_replica"
	effectInvoice     = "generate_invoice"
	effectNotify      = "notify_customer"
)

// sideEffect runs fn with its own timeout and records the outcome. The
// returned error is for the caller to fold into an outcome; it never fails
// the surrounding request.
func (s *Service) sideEffect(ctx context.Context, effect, orderID string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ctx, span := s.tracer.Start(ctx, "order."+effect,
		trace.WithAttributes(attribute.String("order.id", orderID)),
	)
	defer span.End()

	err := fn(ctx)

	outcome := "ok"
	if err != nil {
		outcome = "failed"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		zctx.From(ctx).Warn("Side effect failed",
			zap.String("effect", effect),
			zap.String("order_id", orderID),
			zap.Error(err),
		)
	}
	s.sideEffects.Add(ctx, 1, metric.WithAttributes(
		attribute.String("effect", effect),
		attribute.String("outcome", outcome),
	))
	return err
}

// invoice pushes the replica (when configured) and asks for an invoice.
// Replica push failures are logged and do not stop generation.
func (s *Service) invoice(ctx context.Context, o *Order) InvoiceOutcome {
	if s.pushReplica {
		_ = s.sideEffect(ctx, effectPushReplica, o.ID, func(ctx context.Context) error {
			return s.invoices.PushOrder(ctx, o)
		})
	}

	var receipt *InvoiceReceipt
	err := s.sideEffect(ctx, effectInvoice, o.ID, func(ctx context.Context) error {
		var err error
		receipt, err = s.invoices.GenerateInvoice(ctx, o.ID)
		return err
	})
	if err != nil {
		return InvoiceOutcome{Error: err.Error()}
	}
	return InvoiceOutcome{Generated: true, Details: receipt}
}

// notify tells the customer about the order's current status.
func (s *Service) notify(ctx context.Context, o *Order) NotificationOutcome {
	var receipt *NotificationReceipt
	err := s.sideEffect(ctx, effectNotify, o.ID, func(ctx context.Context) error {
		var err error
		receipt, err = s.notifier.Notify(ctx, StatusNotice{
			OrderID:       o.ID,
			CustomerEmail: o.Email,
			Status:        string(o.Status),
			CustomerName:  o.CustomerName(),
		})
		return err
	})
	if err != nil {
		return NotificationOutcome{Details: receipt, Error: err.Error()}
	}
	return NotificationOutcome{Sent: true, Details: receipt}
}

// notifyDetached fires a notification that outlives the request. Wait
// blocks until every detached notification has finished.
func (s *Service) notifyDetached(ctx context.Context, o *Order) {
	snapshot := *o
	ctx = context.WithoutCancel(ctx)

	s.detached.Add(1)
	go func() {
		defer s.detached.Done()
		s.notify(ctx, &snapshot)
	}()
}
