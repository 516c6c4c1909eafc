package notification

import (
	"bytes"
	"html/template"
	"regexp"
	"strings"

	"github.com/go-faster/errors"
)

// Template is the canned copy for one order status.
type Template struct {
	Subject string
	Title   string
	Body    string
	Color   template.CSS
}

var templates = map[string]Template{
	"received": {
		Subject: "Order Received",
		Title:   "We've received your order",
		Body:    "Thank you for your order. We have received it and will start processing it shortly.",
		Color:   "#2563eb",
	},
	"processing": {
		Subject: "Order Processing",
		Title:   "Your order is being prepared",
		Body:    "Good news! Your order is now being processed and packed for shipment.",
		Color:   "#7c3aed",
	},
	"shipped": {
		Subject: "Order Shipped",
		Title:   "Your order is on its way",
		Body:    "Your order has left our warehouse and has been handed to the carrier.",
		Color:   "#0891b2",
	},
	"in-transit": {
		Subject: "Order In Transit",
		Title:   "Your order is in transit",
		Body:    "Your package is moving through the carrier network toward your address.",
		Color:   "#0d9488",
	},
	"delivered": {
		Subject: "Order Delivered",
		Title:   "Your order has been delivered",
		Body:    "Your package has been delivered. We hope you enjoy your purchase!",
		Color:   "#16a34a",
	},
	"cancelled": {
		Subject: "Order Cancelled",
		Title:   "Your order has been cancelled",
		Body:    "Your order has been cancelled. If you were charged, a refund will be issued to your original payment method.",
		Color:   "#dc2626",
	},
	"on-hold": {
		Subject: "Order On Hold",
		Title:   "Your order is on hold",
		Body:    "Your order has been placed on hold. Our team will contact you if we need more information.",
		Color:   "#d97706",
	},
	"returned": {
		Subject: "Order Returned",
		Title:   "Your return has been received",
		Body:    "We have received your returned order and will process it shortly.",
		Color:   "#64748b",
	},
}

var fallback = Template{
	Subject: "Order Status Update",
	Title:   "Your order status has changed",
	Body:    "The status of your order has been updated.",
	Color:   "#334155",
}

// Lookup returns the template for status and whether it is a known one.
func Lookup(status string) (Template, bool) {
	t, ok := templates[status]
	if !ok {
		return fallback, false
	}
	return t, true
}

var page = template.Must(template.New("notification").Parse(`<!DOCTYPE html>
<html>
<body style="margin:0;padding:0;background:#f4f4f5;font-family:Helvetica,Arial,sans-serif;">
  <div style="max-width:600px;margin:24px auto;background:#ffffff;border-radius:8px;overflow:hidden;">
    <div style="background:{{.Template.Color}};color:#ffffff;padding:24px;">
      <h1 style="margin:0;font-size:22px;">{{.Template.Title}}</h1>
    </div>
    <div style="padding:24px;color:#18181b;line-height:1.5;">
      <p>Hello {{.Name}},</p>
      <p>{{.Template.Body}}</p>
      <p><strong>Order ID:</strong> {{.OrderID}}<br><strong>Status:</strong> {{.Status}}</p>
    </div>
    <div style="padding:16px 24px;background:#fafafa;color:#71717a;font-size:12px;">
      <p>This is an automated message about your order.</p>
    </div>
  </div>
</body>
</html>`))

type pageData struct {
	Template Template
	Name     string
	OrderID  string
	Status   string
}

// Render returns the HTML body and the plain-text body derived from it.
func Render(t Template, req Request) (htmlBody, textBody string, err error) {
	name := req.CustomerName
	if name == "" {
		name = "Customer"
	}

	var buf bytes.Buffer
	err = page.Execute(&buf, pageData{
		Template: t,
		Name:     name,
		OrderID:  req.OrderID,
		Status:   req.Status,
	})
	if err != nil {
		return "", "", errors.Wrap(err, "render notification")
	}
	htmlBody = buf.String()
	return htmlBody, PlainText(htmlBody), nil
}

var (
	blockTag   = regexp.MustCompile(`(?i)<\s*(br|/p|/h\d|/div)\s*/?>`)
	anyTag     = regexp.MustCompile(`<[^>]*>`)
	inlineWS   = regexp.MustCompile(`[ \t\r\f\v]+`)
	blankLines = regexp.MustCompile(`\n\s*\n+`)
	entities   = strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">", "&#39;", "'", "&#34;", `"`, "&quot;", `"`, "&nbsp;", " ")
)

// PlainText strips tags from an HTML body and collapses whitespace.
func PlainText(htmlBody string) string {
	s := blockTag.ReplaceAllString(htmlBody, "\n")
	s = anyTag.ReplaceAllString(s, "")
	s = entities.Replace(s)
	s = inlineWS.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	s = strings.Join(lines, "\n")
	s = blankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
