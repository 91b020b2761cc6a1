package quotes

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/opticalquote-backend/api/validators"
	"github.com/angelmondragon/opticalquote-backend/internal/benefits"
	"github.com/angelmondragon/opticalquote-backend/internal/quote"
	internalquotes "github.com/angelmondragon/opticalquote-backend/internal/quotes"
	"github.com/angelmondragon/opticalquote-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/opticalquote-backend/pkg/errors"
)

const (
	maxNameLen   = 100
	maxReasonLen = 500
)

type patientRequest struct {
	FirstName   string `json:"firstName" validate:"max=100"`
	LastName    string `json:"lastName" validate:"max=100"`
	Email       string `json:"email" validate:"omitempty,email"`
	Phone       string `json:"phone" validate:"omitempty,max=32"`
	DateOfBirth string `json:"dateOfBirth" validate:"omitempty,datetime=2006-01-02"`
}

func (p patientRequest) toPatient() quote.Patient {
	return quote.Patient{
		FirstName:   validators.SanitizeString(p.FirstName, maxNameLen),
		LastName:    validators.SanitizeString(p.LastName, maxNameLen),
		Email:       validators.SanitizeString(p.Email, 254),
		Phone:       validators.SanitizeString(p.Phone, 32),
		DateOfBirth: validators.SanitizeString(p.DateOfBirth, 10),
	}
}

type createQuoteRequest struct {
	Patient patientRequest `json:"patient"`
}

type updatePatientRequest struct {
	Version int `json:"version" validate:"gte=0"`
	patientRequest
}

type updateInsuranceRequest struct {
	Version    int                        `json:"version" validate:"gte=0"`
	Carrier    string                     `json:"carrier" validate:"required"`
	PlanName   string                     `json:"planName" validate:"max=120"`
	MemberID   string                     `json:"memberId" validate:"max=64"`
	PriorUsage map[string]decimal.Decimal `json:"priorUsage"`
}

func (r updateInsuranceRequest) toInput() (internalquotes.InsuranceInput, error) {
	carrier, err := enums.ParseCarrier(r.Carrier)
	if err != nil {
		return internalquotes.InsuranceInput{}, fieldError("carrier", err)
	}
	usage := benefits.PriorUsage{}
	for raw, amount := range r.PriorUsage {
		category, err := enums.ParseBenefitCategory(raw)
		if err != nil {
			return internalquotes.InsuranceInput{}, fieldError("priorUsage", err)
		}
		if amount.IsNegative() {
			return internalquotes.InsuranceInput{}, pkgerrors.New(pkgerrors.CodeValidation, "prior usage cannot be negative").
				WithDetails(map[string]any{"field": "priorUsage", "category": raw})
		}
		usage[category] = amount
	}
	return internalquotes.InsuranceInput{
		Carrier:    carrier,
		PlanName:   validators.SanitizeString(r.PlanName, 120),
		MemberID:   validators.SanitizeString(r.MemberID, 64),
		PriorUsage: usage,
	}, nil
}

type updateExamRequest struct {
	Version    int      `json:"version" validate:"gte=0"`
	ServiceIDs []string `json:"serviceIds" validate:"max=10,dive,uuid"`
}

type secondPairRequest struct {
	FrameID         string          `json:"frameId" validate:"omitempty,uuid"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
}

type updateEyeglassesRequest struct {
	Version           int                `json:"version" validate:"gte=0"`
	FrameID           string             `json:"frameId" validate:"omitempty,uuid"`
	PatientOwnedFrame bool               `json:"patientOwnedFrame"`
	LensTypeID        string             `json:"lensTypeId" validate:"omitempty,uuid"`
	MaterialID        string             `json:"materialId" validate:"omitempty,uuid"`
	EnhancementIDs    []string           `json:"enhancementIds" validate:"max=10,dive,uuid"`
	SecondPair        *secondPairRequest `json:"secondPair"`
}

func (r updateEyeglassesRequest) toInput() internalquotes.EyeglassesInput {
	in := internalquotes.EyeglassesInput{
		FrameID:           r.FrameID,
		PatientOwnedFrame: r.PatientOwnedFrame,
		LensTypeID:        r.LensTypeID,
		MaterialID:        r.MaterialID,
		EnhancementIDs:    r.EnhancementIDs,
	}
	if r.SecondPair != nil {
		in.SecondPair = &internalquotes.SecondPairInput{
			FrameID:         r.SecondPair.FrameID,
			DiscountPercent: r.SecondPair.DiscountPercent,
		}
	}
	return in
}

type updateContactsRequest struct {
	Version            int             `json:"version" validate:"gte=0"`
	ProductID          string          `json:"productId" validate:"omitempty,uuid"`
	Boxes              int             `json:"boxes" validate:"gte=0,lte=24"`
	AnnualSupply       bool            `json:"annualSupply"`
	ManufacturerRebate decimal.Decimal `json:"manufacturerRebate"`
}

func (r updateContactsRequest) toInput() internalquotes.ContactsInput {
	return internalquotes.ContactsInput{
		ProductID:          r.ProductID,
		Boxes:              r.Boxes,
		AnnualSupply:       r.AnnualSupply,
		ManufacturerRebate: r.ManufacturerRebate,
	}
}

type signatureRequest struct {
	Present bool   `json:"present"`
	Signer  string `json:"signer" validate:"max=120"`
}

func (s *signatureRequest) toSignature() *quote.Signature {
	if s == nil {
		return nil
	}
	return &quote.Signature{Present: s.Present, Signer: validators.SanitizeString(s.Signer, 120)}
}

type transitionRequest struct {
	Version            int               `json:"version" validate:"gte=0"`
	To                 string            `json:"to" validate:"required"`
	PresentationMethod string            `json:"presentationMethod"`
	CustomerSignature  *signatureRequest `json:"customerSignature"`
	StaffSignature     *signatureRequest `json:"staffSignature"`
	Reason             string            `json:"reason" validate:"max=500"`
}

func (r transitionRequest) toInput(actor string) (internalquotes.TransitionInput, error) {
	to, err := enums.ParseQuoteStatus(r.To)
	if err != nil {
		return internalquotes.TransitionInput{}, fieldError("to", err)
	}
	in := internalquotes.TransitionInput{
		To:                to,
		Version:           r.Version,
		Actor:             actor,
		CustomerSignature: r.CustomerSignature.toSignature(),
		StaffSignature:    r.StaffSignature.toSignature(),
		Reason:            validators.SanitizeString(r.Reason, maxReasonLen),
	}
	if r.PresentationMethod != "" {
		method, err := enums.ParsePresentationMethod(r.PresentationMethod)
		if err != nil {
			return internalquotes.TransitionInput{}, fieldError("presentationMethod", err)
		}
		in.PresentationMethod = method
	}
	return in, nil
}

func fieldError(field string, err error) error {
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error()).WithDetails(map[string]any{"field": field})
}
