package payloads

import (
	"encoding/json"
	"time"

	"github.com/angelmondragon/opticalquote-backend/pkg/enums"
	"github.com/google/uuid"
)

// QuoteCreatedEvent announces a new quote.
type QuoteCreatedEvent struct {
	QuoteID   uuid.UUID  `json:"quote_id"`
	StaffID   string     `json:"staff_id,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// QuoteStatusChangedEvent is emitted for every lifecycle transition.
type QuoteStatusChangedEvent struct {
	QuoteID         uuid.UUID         `json:"quote_id"`
	From            enums.QuoteStatus `json:"from"`
	To              enums.QuoteStatus `json:"to"`
	Actor           string            `json:"actor,omitempty"`
	Reason          string            `json:"reason,omitempty"`
	GrandTotalCents int64             `json:"grand_total_cents"`
	OccurredAt      time.Time         `json:"occurred_at"`
}

// QuotePresentedEvent asks the email collaborator to send the quote. Pricing
// carries the rounded breakdown snapshot taken at presentation.
type QuotePresentedEvent struct {
	QuoteID            uuid.UUID                `json:"quote_id"`
	Status             enums.QuoteStatus        `json:"status"`
	RecipientEmail     string                   `json:"recipient_email"`
	PatientName        string                   `json:"patient_name"`
	PresentationMethod enums.PresentationMethod `json:"presentation_method"`
	ExpiresAt          *time.Time               `json:"expires_at,omitempty"`
	Pricing            json.RawMessage          `json:"pricing"`
}

// QuoteExpiredEvent reports a quote the expiry job retired.
type QuoteExpiredEvent struct {
	QuoteID   uuid.UUID         `json:"quote_id"`
	From      enums.QuoteStatus `json:"from"`
	ExpiredAt time.Time         `json:"expired_at"`
}
