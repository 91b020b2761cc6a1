package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/angelmondragon/opticalquote-backend/internal/quote"
	"github.com/angelmondragon/opticalquote-backend/pkg/outbox/payloads"
)

// Sender turns presented quotes into emails.
type Sender struct {
	mailer    Mailer
	from      string
	storeName string
}

func NewSender(mailer Mailer, from, storeName string) (*Sender, error) {
	if mailer == nil {
		return nil, fmt.Errorf("mailer required")
	}
	return &Sender{mailer: mailer, from: from, storeName: storeName}, nil
}

// SendQuote emails the quote to the patient. Returns false when the event
// has no recipient and nothing was sent.
func (s *Sender) SendQuote(ctx context.Context, event payloads.QuotePresentedEvent) (bool, error) {
	to := strings.TrimSpace(event.RecipientEmail)
	if to == "" {
		return false, nil
	}
	var pricing quote.Breakdown
	if len(event.Pricing) > 0 {
		if err := json.Unmarshal(event.Pricing, &pricing); err != nil {
			return false, fmt.Errorf("decode quote pricing: %w", err)
		}
	}

	doc := QuoteDocument{
		QuoteID:     event.QuoteID.String(),
		PatientName: event.PatientName,
		StoreName:   s.storeName,
		ExpiresAt:   event.ExpiresAt,
		Pricing:     pricing,
	}
	body, err := doc.HTML()
	if err != nil {
		return false, err
	}
	pdf, err := doc.PDF()
	if err != nil {
		return false, err
	}

	subject := "Your eyewear quote"
	if s.storeName != "" {
		subject += " from " + s.storeName
	}
	msg := Message{
		From:    s.from,
		To:      to,
		Subject: subject,
		Text:    doc.Markdown(),
		HTML:    body,
		Attachments: []Attachment{{
			Filename:    fmt.Sprintf("quote-%s.pdf", doc.QuoteID),
			ContentType: "application/pdf",
			Data:        pdf,
		}},
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return false, fmt.Errorf("send quote email: %w", err)
	}
	return true, nil
}
