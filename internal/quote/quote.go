package quote

import (
	"strings"
	"time"

	"github.com/angelmondragon/opticalquote-backend/internal/benefits"
	"github.com/angelmondragon/opticalquote-backend/pkg/enums"
	"github.com/google/uuid"
)

// Insurance is the patient's coverage as selected on the quote. Plan holds
// the resolved carrier configuration; nil means the plan has not been
// resolved (or could not be) and the quote prices as cash pay.
type Insurance struct {
	Carrier    enums.Carrier           `json:"carrier"`
	PlanName   string                  `json:"planName,omitempty"`
	MemberID   string                  `json:"memberId,omitempty"`
	Plan       *benefits.InsurancePlan `json:"plan,omitempty"`
	PriorUsage benefits.PriorUsage     `json:"priorUsage,omitempty"`
}

// EffectivePlan returns the plan used for allocation.
func (i Insurance) EffectivePlan() benefits.InsurancePlan {
	if i.Plan == nil || i.Carrier.IsCashPay() {
		return benefits.CashPay()
	}
	return *i.Plan
}

// Signature is one required signature slot. How it was captured is not
// tracked, only that it exists and who signed.
type Signature struct {
	Present  bool       `json:"present"`
	Signer   string     `json:"signer"`
	SignedAt *time.Time `json:"signedAt,omitempty"`
}

// IsComplete reports whether the slot has a signature and a signer identity.
func (s *Signature) IsComplete() bool {
	return s != nil && s.Present && strings.TrimSpace(s.Signer) != ""
}

// Transition is an entry in the quote's status history.
type Transition struct {
	From    enums.QuoteStatus `json:"from"`
	To      enums.QuoteStatus `json:"to"`
	At      time.Time         `json:"at"`
	Actor   string            `json:"actor,omitempty"`
	Reason  string            `json:"reason,omitempty"`
	Pricing Breakdown         `json:"pricing"`
}

// Quote is the aggregate the pricing and lifecycle functions operate on.
// Functions take a Quote by value and return a new one.
type Quote struct {
	ID                 uuid.UUID                `json:"id"`
	Version            int                      `json:"version"`
	Status             enums.QuoteStatus        `json:"status"`
	StaffID            string                   `json:"staffId,omitempty"`
	Patient            Patient                  `json:"patient"`
	Insurance          Insurance                `json:"insurance"`
	Exam               ExamLayer                `json:"exam"`
	Eyeglasses         EyeglassesLayer          `json:"eyeglasses"`
	Contacts           ContactsLayer            `json:"contacts"`
	PresentationMethod enums.PresentationMethod `json:"presentationMethod,omitempty"`
	CustomerSignature  *Signature               `json:"customerSignature,omitempty"`
	StaffSignature     *Signature               `json:"staffSignature,omitempty"`
	CancellationReason string                   `json:"cancellationReason,omitempty"`
	ExpiresAt          *time.Time               `json:"expiresAt,omitempty"`
	Pricing            *Breakdown               `json:"pricing,omitempty"`
	History            []Transition             `json:"history,omitempty"`
	CreatedAt          time.Time                `json:"createdAt"`
	UpdatedAt          time.Time                `json:"updatedAt"`
}

// New starts a quote in the building state.
func New(id uuid.UUID, staffID string, now time.Time, ttl time.Duration) Quote {
	q := Quote{
		ID:        id,
		Version:   1,
		Status:    enums.QuoteStatusBuilding,
		StaffID:   staffID,
		Insurance: Insurance{Carrier: enums.CarrierNone},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if ttl > 0 {
		expires := now.Add(ttl)
		q.ExpiresAt = &expires
	}
	return q
}

// IsExpiredAt reports whether expiresAt has passed at now.
func (q Quote) IsExpiredAt(now time.Time) bool {
	return q.ExpiresAt != nil && !now.Before(*q.ExpiresAt)
}

// HasLineItems reports whether at least one priced selection exists across
// the three layers. A second pair with a frame counts on its own.
func (q Quote) HasLineItems() bool {
	if sp := q.Eyeglasses.SecondPair; sp != nil && sp.Frame != nil {
		return true
	}
	return len(q.LineItems()) > 0
}

// Clone returns a deep copy so callers can mutate the result freely.
func (q Quote) Clone() Quote {
	out := q
	out.Exam.Services = append([]Selection(nil), q.Exam.Services...)
	out.Eyeglasses = q.Eyeglasses.clone()
	out.Contacts = q.Contacts.clone()
	out.Insurance = q.Insurance.clone()
	if q.CustomerSignature != nil {
		sig := *q.CustomerSignature
		out.CustomerSignature = &sig
	}
	if q.StaffSignature != nil {
		sig := *q.StaffSignature
		out.StaffSignature = &sig
	}
	if q.ExpiresAt != nil {
		exp := *q.ExpiresAt
		out.ExpiresAt = &exp
	}
	if q.Pricing != nil {
		snapshot := q.Pricing.Clone()
		out.Pricing = &snapshot
	}
	if q.History != nil {
		out.History = make([]Transition, len(q.History))
		for i, t := range q.History {
			t.Pricing = t.Pricing.Clone()
			out.History[i] = t
		}
	}
	return out
}

func (i Insurance) clone() Insurance {
	out := i
	if i.Plan != nil {
		plan := i.Plan.Clone()
		out.Plan = &plan
	}
	if i.PriorUsage != nil {
		out.PriorUsage = make(benefits.PriorUsage, len(i.PriorUsage))
		for k, v := range i.PriorUsage {
			out.PriorUsage[k] = v
		}
	}
	return out
}

func (l EyeglassesLayer) clone() EyeglassesLayer {
	out := l
	out.Frame = cloneSelection(l.Frame)
	out.LensType = cloneSelection(l.LensType)
	if l.Material != nil {
		m := *l.Material
		out.Material = &m
	}
	out.Enhancements = append([]Selection(nil), l.Enhancements...)
	if l.SecondPair != nil {
		sp := *l.SecondPair
		sp.Frame = cloneSelection(l.SecondPair.Frame)
		out.SecondPair = &sp
	}
	return out
}

func (l ContactsLayer) clone() ContactsLayer {
	out := l
	out.Product = cloneSelection(l.Product)
	return out
}

func cloneSelection(s *Selection) *Selection {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
