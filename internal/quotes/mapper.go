package quotes

import (
	"encoding/json"
	"fmt"

	"github.com/angelmondragon/opticalquote-backend/internal/quote"
	"github.com/angelmondragon/opticalquote-backend/pkg/db/models"
	"github.com/angelmondragon/opticalquote-backend/pkg/types"
	"github.com/google/uuid"
)

type signatures struct {
	Customer *quote.Signature `json:"customer,omitempty"`
	Staff    *quote.Signature `json:"staff,omitempty"`
}

func toModel(q quote.Quote) (models.Quote, error) {
	m := models.Quote{
		ID:                 q.ID,
		Status:             q.Status,
		Version:            q.Version,
		StaffID:            optional(q.StaffID),
		PatientFirstName:   q.Patient.FirstName,
		PatientLastName:    q.Patient.LastName,
		PatientEmail:       optional(q.Patient.Email),
		Carrier:            q.Insurance.Carrier,
		PlanName:           optional(q.Insurance.PlanName),
		CancellationReason: optional(q.CancellationReason),
		ExpiresAt:          q.ExpiresAt,
		CreatedAt:          q.CreatedAt,
		UpdatedAt:          q.UpdatedAt,
	}
	if q.PresentationMethod != "" {
		method := q.PresentationMethod
		m.PresentationMethod = &method
	}

	var err error
	if m.Patient, err = json.Marshal(q.Patient); err != nil {
		return models.Quote{}, fmt.Errorf("encode patient: %w", err)
	}
	if m.Insurance, err = json.Marshal(q.Insurance); err != nil {
		return models.Quote{}, fmt.Errorf("encode insurance: %w", err)
	}
	if m.Exam, err = json.Marshal(q.Exam); err != nil {
		return models.Quote{}, fmt.Errorf("encode exam: %w", err)
	}
	if m.Eyeglasses, err = json.Marshal(q.Eyeglasses); err != nil {
		return models.Quote{}, fmt.Errorf("encode eyeglasses: %w", err)
	}
	if m.Contacts, err = json.Marshal(q.Contacts); err != nil {
		return models.Quote{}, fmt.Errorf("encode contacts: %w", err)
	}
	if m.Signatures, err = json.Marshal(signatures{Customer: q.CustomerSignature, Staff: q.StaffSignature}); err != nil {
		return models.Quote{}, fmt.Errorf("encode signatures: %w", err)
	}
	if q.Pricing != nil {
		if m.Pricing, err = json.Marshal(q.Pricing); err != nil {
			return models.Quote{}, fmt.Errorf("encode pricing: %w", err)
		}
		total := types.DollarsToCents(q.Pricing.Display().GrandTotal)
		m.GrandTotalCents = &total
	}
	return m, nil
}

func fromModel(m models.Quote, history []models.QuoteTransition) (quote.Quote, error) {
	q := quote.Quote{
		ID:                 m.ID,
		Version:            m.Version,
		Status:             m.Status,
		StaffID:            deref(m.StaffID),
		CancellationReason: deref(m.CancellationReason),
		ExpiresAt:          m.ExpiresAt,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
	if m.PresentationMethod != nil {
		q.PresentationMethod = *m.PresentationMethod
	}

	parts := []struct {
		name string
		raw  json.RawMessage
		dst  any
	}{
		{"patient", m.Patient, &q.Patient},
		{"insurance", m.Insurance, &q.Insurance},
		{"exam", m.Exam, &q.Exam},
		{"eyeglasses", m.Eyeglasses, &q.Eyeglasses},
		{"contacts", m.Contacts, &q.Contacts},
	}
	for _, part := range parts {
		if len(part.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(part.raw, part.dst); err != nil {
			return quote.Quote{}, fmt.Errorf("decode %s: %w", part.name, err)
		}
	}

	if len(m.Signatures) > 0 {
		var sigs signatures
		if err := json.Unmarshal(m.Signatures, &sigs); err != nil {
			return quote.Quote{}, fmt.Errorf("decode signatures: %w", err)
		}
		q.CustomerSignature = sigs.Customer
		q.StaffSignature = sigs.Staff
	}
	if len(m.Pricing) > 0 && string(m.Pricing) != "null" {
		var snapshot quote.Breakdown
		if err := json.Unmarshal(m.Pricing, &snapshot); err != nil {
			return quote.Quote{}, fmt.Errorf("decode pricing: %w", err)
		}
		q.Pricing = &snapshot
	}

	for _, row := range history {
		var snapshot quote.Breakdown
		if err := json.Unmarshal(row.Pricing, &snapshot); err != nil {
			return quote.Quote{}, fmt.Errorf("decode transition %s: %w", row.ID, err)
		}
		q.History = append(q.History, quote.Transition{
			From:    row.FromStatus,
			To:      row.ToStatus,
			At:      row.CreatedAt,
			Actor:   deref(row.Actor),
			Reason:  deref(row.Reason),
			Pricing: snapshot,
		})
	}
	return q, nil
}

func transitionModel(quoteID uuid.UUID, t quote.Transition) (models.QuoteTransition, error) {
	pricing, err := json.Marshal(t.Pricing)
	if err != nil {
		return models.QuoteTransition{}, fmt.Errorf("encode transition pricing: %w", err)
	}
	return models.QuoteTransition{
		ID:         uuid.New(),
		QuoteID:    quoteID,
		FromStatus: t.From,
		ToStatus:   t.To,
		Actor:      optional(t.Actor),
		Reason:     optional(t.Reason),
		Pricing:    pricing,
		CreatedAt:  t.At,
	}, nil
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
