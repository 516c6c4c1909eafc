package mail

import (
	"net/textproto"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
)

// ErrorType is a coarse delivery failure category.
type ErrorType string

const (
	ErrorRejectedContent  ErrorType = "rejected_content"
	ErrorUnverifiedSender ErrorType = "unverified_sender"
	ErrorRateLimited      ErrorType = "rate_limited"
	ErrorAuthFailed       ErrorType = "auth_failed"
	ErrorUnknown          ErrorType = "unknown"
)

var suggestions = map[ErrorType]string{
	ErrorRejectedContent:  "The provider rejected the message content; review the template for spam triggers or oversized attachments.",
	ErrorUnverifiedSender: "Verify the sender address or domain with the mail provider, or send to a verified sandbox recipient.",
	ErrorRateLimited:      "The provider is throttling requests; wait before retrying or raise the sending quota.",
	ErrorAuthFailed:       "Check the SMTP username and password configured for the notifications service.",
	ErrorUnknown:          "Inspect the provider response and service logs for details.",
}

// SendError is a classified delivery failure.
type SendError struct {
	Type       ErrorType
	Suggestion string
	Err        error
}

func (e *SendError) Error() string {
	return string(e.Type) + ": " + e.Err.Error()
}

func (e *SendError) Unwrap() error {
	return e.Err
}

var smtpCodePattern = regexp.MustCompile(`\b([45]\d\d)\b`)

// Classify maps err onto a SendError. Errors already classified are
// returned as is.
func Classify(err error) *SendError {
	var se *SendError
	if errors.As(err, &se) {
		return se
	}

	t := classify(smtpCode(err), strings.ToLower(err.Error()))
	return &SendError{Type: t, Suggestion: suggestions[t], Err: err}
}

func classify(code int, msg string) ErrorType {
	switch {
	case code == 530 || code == 534 || code == 535 ||
		strings.Contains(msg, "authentication") || strings.Contains(msg, "auth failed"):
		return ErrorAuthFailed
	case code == 421 || code == 450 || code == 451 || code == 452 ||
		strings.Contains(msg, "rate limit") || strings.Contains(msg, "too many"):
		return ErrorRateLimited
	case code == 553 ||
		strings.Contains(msg, "not verified") || strings.Contains(msg, "unverified") ||
		strings.Contains(msg, "sender address rejected"):
		return ErrorUnverifiedSender
	case code == 550 || code == 552 || code == 554 ||
		strings.Contains(msg, "rejected") || strings.Contains(msg, "spam"):
		return ErrorRejectedContent
	default:
		return ErrorUnknown
	}
}

// smtpCode extracts an SMTP reply code from err, if any.
func smtpCode(err error) int {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		return tpErr.Code
	}
	if m := smtpCodePattern.FindStringSubmatch(err.Error()); m != nil {
		code, _ := strconv.Atoi(m[1])
		return code
	}
	return 0
}
