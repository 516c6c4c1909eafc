package invoice

import (
	"bytes"
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"

	"github.com/xenking/shiptrack/internal/domain/order"
)

// Document is the data placed on a rendered invoice.
type Document struct {
	InvoiceID string
	IssuedAt  time.Time
	Order     *order.Order
}

// PDFRenderer lays out invoices as single-page A4 PDFs. Content streams are
// left uncompressed so the text stays extractable.
type PDFRenderer struct {
	Company string
}

// NewPDFRenderer returns a renderer printing company in the header.
func NewPDFRenderer(company string) *PDFRenderer {
	return &PDFRenderer{Company: company}
}

// Render produces the PDF bytes for doc.
func (r *PDFRenderer) Render(ctx context.Context, doc Document) ([]byte, error) {
	o := doc.Order
	lg := zctx.From(ctx)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(false)
	pdf.SetTitle("Invoice "+doc.InvoiceID, false)
	pdf.SetAuthor(r.Company, false)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	// Header.
	pdf.SetFont("Helvetica", "B", 22)
	pdf.CellFormat(0, 12, tr(r.Company), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, "INVOICE "+doc.InvoiceID, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Order ID: "+o.ID, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Date: "+doc.IssuedAt.Format("January 2, 2006"), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	// Bill to.
	section(pdf, "Bill To")
	for _, line := range []string{
		o.CustomerName(),
		o.Email,
		o.Phone,
		o.Address,
		o.City + ", " + o.State + " " + o.ZipCode,
		o.Country,
	} {
		pdf.CellFormat(0, 6, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	// Order line.
	section(pdf, "Order Details")
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(120, 8, "Product", "B", 0, "L", false, 0, "")
	pdf.CellFormat(0, 8, "Price", "B", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(120, 8, tr(o.Product), "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 8, amount(lg, "price", o.Price.Decimal), "", 1, "R", false, 0, "")
	pdf.CellFormat(0, 6, "Payment: "+o.MaskedCard()+"  exp "+o.ExpiryDate, "", 1, "L", false, 0, "")
	pdf.Ln(4)

	// Payment summary.
	section(pdf, "Payment Summary")
	summary := []struct {
		label string
		value order.Money
	}{
		{"Subtotal", o.Price},
		{"Shipping", o.ShippingCost},
		{"Tax (8%)", o.Tax},
	}
	for _, row := range summary {
		pdf.CellFormat(120, 7, row.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 7, amount(lg, row.label, row.value.Decimal), "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(120, 9, "Total", "T", 0, "L", false, 0, "")
	pdf.CellFormat(0, 9, amount(lg, "total", o.TotalCost.Decimal), "T", 1, "R", false, 0, "")

	// Footer.
	pdf.SetY(-35)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.CellFormat(0, 5, tr("Thank you for shipping with "+r.Company+"."), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 5, "Questions? Reply to this email with your order ID.", "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Wrap(err, "write pdf")
	}
	return buf.Bytes(), nil
}

func section(pdf *fpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
}

// amount formats v, logging when it had to be coerced.
func amount(lg *zap.Logger, label string, v any) string {
	if d, ok := toDecimal(v); !ok || d.IsNegative() {
		lg.Debug("Coerced invalid amount", zap.String("field", label), zap.Any("value", v))
	}
	return FormatCurrency(v)
}
