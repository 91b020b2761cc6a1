package quotes

import (
	"github.com/angelmondragon/opticalquote-backend/internal/benefits"
	"github.com/angelmondragon/opticalquote-backend/internal/quote"
	"github.com/angelmondragon/opticalquote-backend/pkg/enums"
	"github.com/angelmondragon/opticalquote-backend/pkg/types"
	"github.com/shopspring/decimal"
)

// Result is what every quote operation returns: the quote, its rounded
// pricing and the soft warnings raised along the way.
type Result struct {
	Quote    quote.Quote         `json:"quote"`
	Pricing  quote.Breakdown     `json:"pricing"`
	Warnings types.QuoteWarnings `json:"warnings"`
}

type CreateInput struct {
	StaffID string
	Patient quote.Patient
}

type InsuranceInput struct {
	Carrier    enums.Carrier
	PlanName   string
	MemberID   string
	PriorUsage benefits.PriorUsage
}

type ExamInput struct {
	ServiceIDs []string
}

// EyeglassesInput carries product ids. Empty ids mean "not selected yet".
type EyeglassesInput struct {
	FrameID           string
	PatientOwnedFrame bool
	LensTypeID        string
	MaterialID        string
	EnhancementIDs    []string
	SecondPair        *SecondPairInput
}

type SecondPairInput struct {
	FrameID         string
	DiscountPercent decimal.Decimal
}

type ContactsInput struct {
	ProductID          string
	Boxes              int
	AnnualSupply       bool
	ManufacturerRebate decimal.Decimal
}

type TransitionInput struct {
	To                 enums.QuoteStatus
	Version            int
	Actor              string
	PresentationMethod enums.PresentationMethod
	CustomerSignature  *quote.Signature
	StaffSignature     *quote.Signature
	Reason             string
}

// ExpirySummary reports one pass of the expiry sweep.
type ExpirySummary struct {
	Scanned int
	Expired int
	Skipped int
}
