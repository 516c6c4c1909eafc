package client

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"

	"github.com/xenking/shiptrack/internal/domain/order"
)

var _ order.Notifier = (*Notifications)(nil)

// Notifications talks to the notifications service.
type Notifications struct {
	baseURL string
	http    *http.Client
}

// NewNotifications returns a client for the notifications service at baseURL.
func NewNotifications(baseURL string, opts Options) *Notifications {
	return &Notifications{baseURL: baseURL, http: newHTTPClient(opts)}
}

type notifyResponse struct {
	Message string                     `json:"message"`
	Success bool                       `json:"success"`
	Details *order.NotificationReceipt `json:"details"`
	Error   string                     `json:"error"`
}

// Notify calls POST /notify. A delivery failure reported by the service
// returns its receipt alongside the error.
func (c *Notifications) Notify(ctx context.Context, n order.StatusNotice) (*order.NotificationReceipt, error) {
	code, body, err := postJSON(ctx, c.http, joinURL(c.baseURL, "notify"), n)
	if err != nil {
		return nil, err
	}

	var resp notifyResponse
	if jsonErr := json.Unmarshal(body, &resp); jsonErr != nil {
		if !ok(code) {
			return nil, errors.Wrap(statusError(code, body), "notify")
		}
		return nil, errors.Wrap(jsonErr, "decode notification")
	}

	if !ok(code) || !resp.Success {
		msg := resp.Message
		if resp.Details != nil && resp.Details.Error != "" {
			msg = resp.Details.Error
		}
		if msg == "" {
			msg = resp.Error
		}
		if msg == "" {
			return resp.Details, errors.Wrap(statusError(code, body), "notify")
		}
		return resp.Details, errors.Errorf("notify: %s", msg)
	}
	return resp.Details, nil
}
