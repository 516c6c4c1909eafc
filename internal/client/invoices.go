package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/go-faster/errors"

	"github.com/xenking/shiptrack/internal/domain/order"
)

var _ order.Invoicer = (*Invoices)(nil)

// Invoices talks to the invoices service.
type Invoices struct {
	baseURL string
	http    *http.Client
}

// NewInvoices returns a client for the invoices service at baseURL.
func NewInvoices(baseURL string, opts Options) *Invoices {
	return &Invoices{baseURL: baseURL, http: newHTTPClient(opts)}
}

// PushOrder sends a replica of o to POST /orders.
func (c *Invoices) PushOrder(ctx context.Context, o *order.Order) error {
	code, body, err := postJSON(ctx, c.http, joinURL(c.baseURL, "orders"), o)
	if err != nil {
		return err
	}
	if !ok(code) {
		return errors.Wrap(statusError(code, body), "push order")
	}
	return nil
}

// GenerateInvoice calls POST /invoices/generate/:orderId.
func (c *Invoices) GenerateInvoice(ctx context.Context, orderID string) (*order.InvoiceReceipt, error) {
	u := joinURL(c.baseURL, "invoices", "generate", url.PathEscape(orderID))
	code, body, err := postJSON(ctx, c.http, u, nil)
	if err != nil {
		return nil, err
	}
	if !ok(code) {
		return nil, errors.Wrap(statusError(code, body), "generate invoice")
	}

	var receipt order.InvoiceReceipt
	if err := json.Unmarshal(body, &receipt); err != nil {
		return nil, errors.Wrap(err, "decode invoice")
	}
	if !receipt.Success {
		return &receipt, errors.New("invoice service reported failure")
	}
	return &receipt, nil
}
