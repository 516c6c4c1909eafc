// Package mail sends templated HTML+text email and classifies delivery
// failures into coarse categories with remediation hints.
package mail

import (
	"context"
)

// Attachment is a file sent along with a message.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// Message is one email addressed to one or more recipients.
type Message struct {
	To          []string
	Subject     string
	HTML        string
	Text        string
	Attachments []Attachment
}

// Receipt identifies an accepted message.
type Receipt struct {
	MessageID  string
	Recipients []string
}

// Mailer delivers messages. Failures are returned as *SendError.
type Mailer interface {
	Send(ctx context.Context, msg Message) (*Receipt, error)
}
