// Package notification emails customers about order status changes.
package notification

import (
	"context"
	"regexp"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/shiptrack/internal/mail"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidationError lists the problems with a notify request.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid notification request: " + strings.Join(e.Problems, "; ")
}

// Request asks for a customer to be told about an order status.
type Request struct {
	OrderID       string `json:"orderId"`
	CustomerEmail string `json:"customerEmail"`
	Status        string `json:"status"`
	CustomerName  string `json:"customerName,omitempty"`
}

// Validate checks required fields and the email shape. Unknown statuses are
// accepted.
func (r Request) Validate() error {
	var problems []string
	if strings.TrimSpace(r.OrderID) == "" {
		problems = append(problems, "orderId is required")
	}
	switch {
	case strings.TrimSpace(r.CustomerEmail) == "":
		problems = append(problems, "customerEmail is required")
	case !emailPattern.MatchString(r.CustomerEmail):
		problems = append(problems, "customerEmail must be a valid email address")
	}
	if strings.TrimSpace(r.Status) == "" {
		problems = append(problems, "status is required")
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// Result reports the delivery outcome. It is not persisted.
type Result struct {
	Success    bool     `json:"success"`
	MessageID  *string  `json:"messageId"`
	Recipients []string `json:"recipients"`
	Error      string   `json:"error,omitempty"`
	ErrorType  string   `json:"errorType,omitempty"`
	Suggestion string   `json:"suggestion,omitempty"`
}

// Service renders status templates and hands them to a Mailer.
type Service struct {
	mailer mail.Mailer
}

// NewService creates a notification Service.
func NewService(mailer mail.Mailer) *Service {
	return &Service{mailer: mailer}
}

// Notify emails the customer. Only validation problems are returned as
// errors; delivery failures are reported on the Result.
func (s *Service) Notify(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	lg := zctx.From(ctx).With(zap.String("order_id", req.OrderID), zap.String("status", req.Status))

	tmpl, known := Lookup(req.Status)
	if !known {
		lg.Info("Non-standard status, using generic template")
	}

	htmlBody, textBody, err := Render(tmpl, req)
	if err != nil {
		return nil, err
	}

	recipients := []string{req.CustomerEmail}
	receipt, err := s.mailer.Send(ctx, mail.Message{
		To:      recipients,
		Subject: tmpl.Subject + " - Order " + req.OrderID,
		HTML:    htmlBody,
		Text:    textBody,
	})
	if err != nil {
		se := mail.Classify(err)
		lg.Warn("Notification delivery failed",
			zap.String("error_type", string(se.Type)),
			zap.Error(err),
		)
		return &Result{
			Recipients: recipients,
			Error:      se.Err.Error(),
			ErrorType:  string(se.Type),
			Suggestion: se.Suggestion,
		}, nil
	}

	if len(receipt.Recipients) > 0 {
		recipients = receipt.Recipients
	}
	lg.Info("Notification sent", zap.String("message_id", receipt.MessageID))
	return &Result{
		Success:    true,
		MessageID:  &receipt.MessageID,
		Recipients: recipients,
	}, nil
}

// IsValidation reports whether err came from request validation.
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
