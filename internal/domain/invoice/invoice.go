// Package invoice generates PDF invoices for orders, stores them and emails
// them to the customer.
package invoice

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"html"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xenking/shiptrack/internal/artifact"
	"github.com/xenking/shiptrack/internal/domain/order"
	"github.com/xenking/shiptrack/internal/mail"
)

// ErrOrderNotFound is returned when the invoices service has no visibility of
// the requested order.
var ErrOrderNotFound = errors.New("order not found for invoice")

// Prefix is the artifact prefix invoices are stored under.
const Prefix = "invoices"

// Result describes one generated invoice. It is not persisted.
type Result struct {
	Success    bool      `json:"success"`
	InvoiceID  string    `json:"invoiceId"`
	OrderID    string    `json:"orderId"`
	Amount     string    `json:"amount"`
	PDFURL     string    `json:"pdfUrl"`
	EmailSent  bool      `json:"emailSent"`
	EmailError string    `json:"emailError,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// OrderSource is the invoices service's read view of orders plus upsert for
// push-replicas.
type OrderSource interface {
	Get(ctx context.Context, id string) (*order.Order, error)
	Save(ctx context.Context, o *order.Order) error
}

// Renderer turns an invoice document into file bytes.
type Renderer interface {
	Render(ctx context.Context, doc Document) ([]byte, error)
}

// Service generates invoices.
type Service struct {
	orders    OrderSource
	renderer  Renderer
	artifacts artifact.Store
	mailer    mail.Mailer
	company   string
	now       func() time.Time
}

// NewService creates an invoice Service.
func NewService(
	orders OrderSource,
	renderer Renderer,
	artifacts artifact.Store,
	mailer mail.Mailer,
	company string,
) *Service {
	return &Service{
		orders:    orders,
		renderer:  renderer,
		artifacts: artifacts,
		mailer:    mailer,
		company:   company,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Receive upserts a pushed order replica.
func (s *Service) Receive(ctx context.Context, o *order.Order) error {
	if o.ID == "" {
		return errors.New("order id is required")
	}
	if err := s.orders.Save(ctx, o); err != nil {
		return errors.Wrap(err, "save order replica")
	}
	return nil
}

// Generate renders, stores and emails an invoice for the order. A failed
// email does not fail generation; it is reported on the result.
func (s *Service) Generate(ctx context.Context, orderID string) (*Result, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, errors.Wrap(err, "get order")
	}

	now := s.now()
	doc := Document{InvoiceID: uuid.NewString(), IssuedAt: now, Order: o}

	pdf, err := s.renderer.Render(ctx, doc)
	if err != nil {
		return nil, errors.Wrap(err, "render invoice")
	}

	name := fileName(o.ID, now)
	url, err := s.artifacts.Put(ctx, artifact.Object{
		Prefix:      Prefix,
		Name:        name,
		ContentType: "application/pdf",
		Data:        pdf,
	})
	if err != nil {
		return nil, errors.Wrap(err, "store invoice")
	}

	res := &Result{
		Success:   true,
		InvoiceID: doc.InvoiceID,
		OrderID:   o.ID,
		Amount:    o.TotalCost.String(),
		PDFURL:    url,
		CreatedAt: now,
	}

	if err := s.email(ctx, doc, name, pdf); err != nil {
		zctx.From(ctx).Warn("Invoice email failed",
			zap.String("order_id", o.ID),
			zap.String("invoice_id", doc.InvoiceID),
			zap.Error(err),
		)
		res.EmailError = err.Error()
	} else {
		res.EmailSent = true
	}
	return res, nil
}

func (s *Service) email(ctx context.Context, doc Document, name string, pdf []byte) error {
	o := doc.Order
	total := FormatCurrency(o.TotalCost.Decimal)
	subject := fmt.Sprintf("Your %s invoice for order %s", s.company, o.ID)
	htmlBody := fmt.Sprintf(`<p>Hello %s,</p><p>Thank you for your order of <strong>%s</strong>.</p>`+
		`<p>Your invoice <strong>%s</strong> for <strong>%s</strong> is attached.</p><p>%s</p>`,
		html.EscapeString(o.CustomerName()), html.EscapeString(o.Product), doc.InvoiceID, total, html.EscapeString(s.company))
	text := fmt.Sprintf("Hello %s,\n\nThank you for your order of %s.\nYour invoice %s for %s is attached.\n\n%s\n",
		o.CustomerName(), o.Product, doc.InvoiceID, total, s.company)

	_, err := s.mailer.Send(ctx, mail.Message{
		To:      []string{o.Email},
		Subject: subject,
		HTML:    htmlBody,
		Text:    text,
		Attachments: []mail.Attachment{{
			Name:        name,
			ContentType: "application/pdf",
			Data:        pdf,
		}},
	})
	return err
}

// fileName is derived from the order id plus a timestamp and random suffix
// so regenerated invoices never overwrite each other.
func fileName(orderID string, now time.Time) string {
	var suffix [3]byte
	_, _ = rand.Read(suffix[:])
	return fmt.Sprintf("invoice-%s-%d-%s.pdf", artifact.SafeName(orderID), now.UnixMilli(), hex.EncodeToString(suffix[:]))
}
