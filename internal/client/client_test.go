package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/shiptrack/internal/domain/order"
)

type recorded struct {
	method string
	path   string
	body   []byte
}

func newServer(t *testing.T, code int, response string) (*httptest.Server, *recorded) {
	t.Helper()
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.EscapedPath()
		rec.body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func TestInvoices_PushOrder(t *testing.T) {
	srv, rec := newServer(t, http.StatusCreated, `{"message":"Order received","orderId":"o-1"}`)

	err := NewInvoices(srv.URL+"/", Options{}).PushOrder(context.Background(), &order.Order{ID: "o-1", Status: order.StatusReceived})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/orders", rec.path)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.body, &got))
	assert.Equal(t, "o-1", got["orderId"])
	assert.Equal(t, "received", got["status"])
}

func TestInvoices_PushOrder_Rejected(t *testing.T) {
	srv, _ := newServer(t, http.StatusBadRequest, `{"error":"Order ID is required"}`)

	err := NewInvoices(srv.URL, Options{}).PushOrder(context.Background(), &order.Order{})
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.Code)
	assert.Contains(t, se.Body, "Order ID is required")
}

func TestInvoices_GenerateInvoice(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, `{
		"success": true,
		"invoiceId": "inv-1",
		"orderId": "a b",
		"amount": "117.99",
		"pdfUrl": "http://invoices/files/invoices/x.pdf",
		"emailSent": true,
		"createdAt": "2026-05-01T12:00:00Z"
	}`)

	receipt, err := NewInvoices(srv.URL, Options{}).GenerateInvoice(context.Background(), "a b")
	require.NoError(t, err)

	assert.Equal(t, "/invoices/generate/a%20b", rec.path)
	assert.Equal(t, "inv-1", receipt.InvoiceID)
	assert.Equal(t, "117.99", receipt.Amount)
	assert.True(t, receipt.EmailSent)
	assert.Equal(t, time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC), receipt.CreatedAt)
}

func TestInvoices_GenerateInvoice_Failures(t *testing.T) {
	for _, tt := range []struct {
		name     string
		code     int
		response string
		contains string
	}{
		{"NotFound", http.StatusNotFound, `{"error":"Order not found"}`, "unexpected status 404"},
		{"ServerError", http.StatusInternalServerError, strings.Repeat("x", 2000), "unexpected status 500"},
		{"ReportedFailure", http.StatusOK, `{"success":false}`, "reported failure"},
		{"Garbage", http.StatusOK, `not json`, "decode invoice"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newServer(t, tt.code, tt.response)

			_, err := NewInvoices(srv.URL, Options{}).GenerateInvoice(context.Background(), "o-1")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
			assert.Less(t, len(err.Error()), 700)
		})
	}
}

func TestInvoices_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewInvoices(srv.URL, Options{}).GenerateInvoice(ctx, "o-1")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNotifications_Notify(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, `{
		"message": "Notification sent",
		"success": true,
		"details": {"success": true, "messageId": "m-1", "recipients": ["ada@example.com"]}
	}`)

	receipt, err := NewNotifications(srv.URL, Options{}).Notify(context.Background(), order.StatusNotice{
		OrderID:       "o-1",
		CustomerEmail: "ada@example.com",
		Status:        "shipped",
		CustomerName:  "Ada Lovelace",
	})
	require.NoError(t, err)

	assert.Equal(t, "/notify", rec.path)
	assert.JSONEq(t, `{
		"orderId": "o-1",
		"customerEmail": "ada@example.com",
		"status": "shipped",
		"customerName": "Ada Lovelace"
	}`, string(rec.body))

	require.NotNil(t, receipt.MessageID)
	assert.Equal(t, "m-1", *receipt.MessageID)
	assert.Equal(t, []string{"ada@example.com"}, receipt.Recipients)
}

func TestNotifications_Notify_DeliveryFailure(t *testing.T) {
	srv, _ := newServer(t, http.StatusBadGateway, `{
		"message": "Failed to send notification",
		"success": false,
		"details": {
			"success": false,
			"messageId": null,
			"recipients": ["ada@example.com"],
			"error": "535 authentication failed",
			"errorType": "auth_failed",
			"suggestion": "Check the SMTP username and password."
		}
	}`)

	receipt, err := NewNotifications(srv.URL, Options{}).Notify(context.Background(), order.StatusNotice{OrderID: "o-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "535 authentication failed")

	require.NotNil(t, receipt)
	assert.Nil(t, receipt.MessageID)
	assert.Equal(t, "auth_failed", receipt.ErrorType)
}

func TestNotifications_Notify_ValidationFailure(t *testing.T) {
	srv, _ := newServer(t, http.StatusBadRequest, `{"error":"Validation failed","details":["status is required"]}`)

	receipt, err := NewNotifications(srv.URL, Options{}).Notify(context.Background(), order.StatusNotice{})
	require.Error(t, err)
	assert.Nil(t, receipt)
}

func TestNotifications_Notify_NonJSONError(t *testing.T) {
	srv, _ := newServer(t, http.StatusServiceUnavailable, `upstream down`)

	_, err := NewNotifications(srv.URL, Options{}).Notify(context.Background(), order.StatusNotice{})
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusServiceUnavailable, se.Code)
	assert.Equal(t, "upstream down", se.Body)
}
