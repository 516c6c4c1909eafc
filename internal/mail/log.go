package mail

import (
	"context"

	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var _ Mailer = LogMailer{}

// LogMailer is a dry-run mailer for development: it logs the message and
// returns a synthetic message id.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, msg Message) (*Receipt, error) {
	id := "log-" + uuid.NewString()
	zctx.From(ctx).Info("Mail not sent (log mode)",
		zap.String("message_id", id),
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("attachments", len(msg.Attachments)),
	)
	return &Receipt{MessageID: id, Recipients: msg.To}, nil
}

var _ Mailer = (*Sandbox)(nil)

// Sandbox redirects every message to a single verified recipient, for
// providers that only deliver to pre-verified addresses.
type Sandbox struct {
	Next      Mailer
	Recipient string
}

func (s *Sandbox) Send(ctx context.Context, msg Message) (*Receipt, error) {
	zctx.From(ctx).Debug("Sandbox recipient substituted",
		zap.Strings("original", msg.To),
		zap.String("recipient", s.Recipient),
	)
	msg.To = []string{s.Recipient}
	return s.Next.Send(ctx, msg)
}
