package mail

import (
	"bytes"
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	gomail "github.com/wneessen/go-mail"
)

// SMTPConfig configures an SMTPMailer.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

var _ Mailer = (*SMTPMailer)(nil)

// SMTPMailer delivers messages through an SMTP relay.
type SMTPMailer struct {
	client *gomail.Client
	from   string
	domain string
}

// NewSMTPMailer builds a client for the relay. No connection is made until
// the first Send.
func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, gomail.WithTimeout(cfg.Timeout))
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "create smtp client")
	}
	return &SMTPMailer{client: client, from: cfg.From, domain: cfg.Host}, nil
}

// Send builds a multipart message (text with an HTML alternative, plus
// attachments) and delivers it.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) (*Receipt, error) {
	gm := gomail.NewMsg()
	if err := gm.From(m.from); err != nil {
		return nil, Classify(errors.Wrap(err, "sender address rejected"))
	}
	if err := gm.To(msg.To...); err != nil {
		return nil, Classify(errors.Wrap(err, "invalid recipient"))
	}
	gm.Subject(msg.Subject)
	gm.SetBodyString(gomail.TypeTextPlain, msg.Text)
	gm.AddAlternativeString(gomail.TypeTextHTML, msg.HTML)

	for _, a := range msg.Attachments {
		err := gm.AttachReader(a.Name, bytes.NewReader(a.Data),
			gomail.WithFileContentType(gomail.ContentType(a.ContentType)),
		)
		if err != nil {
			return nil, Classify(errors.Wrapf(err, "attach %q", a.Name))
		}
	}

	id := uuid.NewString() + "@" + m.domain
	gm.SetGenHeader(gomail.HeaderMessageID, "<"+id+">")

	if err := m.client.DialAndSendWithContext(ctx, gm); err != nil {
		return nil, Classify(err)
	}
	return &Receipt{MessageID: id, Recipients: msg.To}, nil
}
