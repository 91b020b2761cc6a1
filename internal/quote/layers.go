package quote

import (
	"strings"

	"github.com/angelmondragon/opticalquote-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// Patient is the demographic header of a quote.
type Patient struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
}

// FullName joins first and last name.
func (p Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Selection is a catalog product captured at the price it had when it was
// picked. Later catalog changes never reach a captured selection.
type Selection struct {
	ProductID string              `json:"productId"`
	SKU       string              `json:"sku,omitempty"`
	Name      string              `json:"name"`
	Price     decimal.Decimal     `json:"price"`
	Tier      enums.FormularyTier `json:"tier,omitempty"`
}

// MaterialSelection is a lens material with its price multiplier.
type MaterialSelection struct {
	Selection
	Multiplier decimal.Decimal `json:"multiplier"`
}

// ExamLayer holds the exam services selected for the visit.
type ExamLayer struct {
	Services []Selection `json:"services,omitempty"`
}

// IsEmpty reports whether nothing was selected.
func (l ExamLayer) IsEmpty() bool {
	return len(l.Services) == 0
}

// SecondPair is an additional pair of glasses priced on its own.
type SecondPair struct {
	Frame *Selection `json:"frame,omitempty"`
	// StandardLensPrice is captured when the pair is added. Zero means the
	// configured default applies.
	StandardLensPrice decimal.Decimal `json:"standardLensPrice"`
	DiscountPercent   decimal.Decimal `json:"discountPercent"`
}

// EyeglassesLayer is the primary pair plus an optional second pair.
type EyeglassesLayer struct {
	Frame             *Selection         `json:"frame,omitempty"`
	PatientOwnedFrame bool               `json:"patientOwnedFrame,omitempty"`
	POFFee            decimal.Decimal    `json:"pofFee"`
	LensType          *Selection         `json:"lensType,omitempty"`
	Material          *MaterialSelection `json:"material,omitempty"`
	Enhancements      []Selection        `json:"enhancements,omitempty"`
	SecondPair        *SecondPair        `json:"secondPair,omitempty"`
}

// IsEmpty reports whether the layer was never started.
func (l EyeglassesLayer) IsEmpty() bool {
	return l.Frame == nil && !l.PatientOwnedFrame && l.LensType == nil &&
		l.Material == nil && len(l.Enhancements) == 0 && l.SecondPair == nil
}

// Missing lists the required selections not made yet.
func (l EyeglassesLayer) Missing() []string {
	var missing []string
	if l.Frame == nil && !l.PatientOwnedFrame {
		missing = append(missing, "frame")
	}
	if l.LensType == nil {
		missing = append(missing, "lens type")
	}
	if l.Material == nil {
		missing = append(missing, "lens material")
	}
	return missing
}

// ContactsLayer is a contact lens purchase.
type ContactsLayer struct {
	Product            *Selection      `json:"product,omitempty"`
	Boxes              int             `json:"boxes"`
	AnnualSupply       bool            `json:"annualSupply,omitempty"`
	ManufacturerRebate decimal.Decimal `json:"manufacturerRebate"`
}

// IsEmpty reports whether the layer was never started.
func (l ContactsLayer) IsEmpty() bool {
	return l.Product == nil && l.Boxes == 0 && !l.AnnualSupply && l.ManufacturerRebate.IsZero()
}

// Missing lists the required selections not made yet.
func (l ContactsLayer) Missing() []string {
	var missing []string
	if l.Product == nil {
		missing = append(missing, "contact lens product")
	}
	if l.Boxes <= 0 {
		missing = append(missing, "box quantity")
	}
	return missing
}
