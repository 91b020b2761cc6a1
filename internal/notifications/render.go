package notifications

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/opticalquote-backend/internal/quote"
	"github.com/angelmondragon/opticalquote-backend/pkg/enums"
	"github.com/microcosm-cc/bluemonday"
	"github.com/phpdave11/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// QuoteDocument is everything the email and PDF need about a presented quote.
type QuoteDocument struct {
	QuoteID     string
	PatientName string
	StoreName   string
	ExpiresAt   *time.Time
	Pricing     quote.Breakdown
}

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// emailPolicy strips anything a mail client should not receive from patient
// supplied text.
var emailPolicy = bluemonday.UGCPolicy()

var layerTitles = map[enums.QuoteLayer]string{
	enums.LayerExam:       "Eye exam",
	enums.LayerEyeglasses: "Eyeglasses",
	enums.LayerContacts:   "Contact lenses",
}

// Markdown renders the quote summary the email body is built from.
func (d QuoteDocument) Markdown() string {
	var b strings.Builder
	name := d.PatientName
	if name == "" {
		name = "there"
	}
	fmt.Fprintf(&b, "# Your eyewear quote\n\nHi %s,\n\n", name)
	if d.StoreName != "" {
		fmt.Fprintf(&b, "Here is the quote prepared for you at %s.\n\n", d.StoreName)
	} else {
		b.WriteString("Here is the quote prepared for you.\n\n")
	}

	b.WriteString("| | Price | Insurance | You pay |\n|---|---:|---:|---:|\n")
	for _, l := range d.Pricing.Layers {
		if l.Subtotal.IsZero() && l.SecondPair.IsZero() {
			continue
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
			layerTitles[l.Layer], money(l.DiscountedSubtotal.Add(l.SecondPair)), money(l.Coverage), money(l.PatientResponsibility))
	}
	if !d.Pricing.Tax.IsZero() {
		fmt.Fprintf(&b, "| Tax | | | %s |\n", money(d.Pricing.Tax))
	}
	fmt.Fprintf(&b, "| **Total** | | | **%s** |\n\n", money(d.Pricing.GrandTotal))

	if !d.Pricing.TotalDiscounts.IsZero() {
		fmt.Fprintf(&b, "Savings applied: %s.\n\n", money(d.Pricing.TotalDiscounts))
	}
	if d.ExpiresAt != nil {
		fmt.Fprintf(&b, "This quote is valid until %s.\n\n", d.ExpiresAt.Format("January 2, 2006"))
	}
	fmt.Fprintf(&b, "Quote reference: `%s`\n", d.QuoteID)
	return b.String()
}

// HTML converts the markdown summary to an HTML email body.
func (d QuoteDocument) HTML() (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(d.Markdown()), &buf); err != nil {
		return "", fmt.Errorf("render quote html: %w", err)
	}
	return emailPolicy.Sanitize(buf.String()), nil
}

// PDF renders a printable one-page copy of the quote with a QR code of the
// quote reference for in-store lookup.
func (d QuoteDocument) PDF() ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "Letter", "")
	pdf.SetTitle("Eyewear quote "+d.QuoteID, false)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	title := "Eyewear quote"
	if d.StoreName != "" {
		title = d.StoreName + " - " + title
	}
	pdf.Cell(0, 10, title)
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 11)
	if d.PatientName != "" {
		pdf.Cell(0, 7, "Patient: "+d.PatientName)
		pdf.Ln(7)
	}
	pdf.Cell(0, 7, "Reference: "+d.QuoteID)
	pdf.Ln(7)
	if d.ExpiresAt != nil {
		pdf.Cell(0, 7, "Valid until: "+d.ExpiresAt.Format("January 2, 2006"))
		pdf.Ln(7)
	}
	pdf.Ln(5)

	widths := []float64{70, 40, 40, 40}
	pdf.SetFont("Arial", "B", 11)
	for i, h := range []string{"", "Price", "Insurance", "You pay"} {
		pdf.CellFormat(widths[i], 8, h, "B", 0, alignFor(i), false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 11)
	for _, l := range d.Pricing.Layers {
		if l.Subtotal.IsZero() && l.SecondPair.IsZero() {
			continue
		}
		row := []string{layerTitles[l.Layer], money(l.DiscountedSubtotal.Add(l.SecondPair)), money(l.Coverage), money(l.PatientResponsibility)}
		for i, v := range row {
			pdf.CellFormat(widths[i], 7, v, "", 0, alignFor(i), false, 0, "")
		}
		pdf.Ln(-1)
	}
	if !d.Pricing.Tax.IsZero() {
		pdf.CellFormat(150, 7, "Tax", "", 0, "L", false, 0, "")
		pdf.CellFormat(40, 7, money(d.Pricing.Tax), "", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(150, 9, "Total", "T", 0, "L", false, 0, "")
	pdf.CellFormat(40, 9, money(d.Pricing.GrandTotal), "T", 0, "R", false, 0, "")
	pdf.Ln(-1)

	qr, err := qrcode.Encode("quote:"+d.QuoteID, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("encode quote qr: %w", err)
	}
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("quote-qr", opts, bytes.NewReader(qr))
	pdf.ImageOptions("quote-qr", 160, 15, 35, 35, false, opts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render quote pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func alignFor(col int) string {
	if col == 0 {
		return "L"
	}
	return "R"
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
