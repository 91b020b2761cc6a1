package quotes

import (
	"context"
	"strings"

	"github.com/angelmondragon/opticalquote-backend/internal/quote"
	"github.com/angelmondragon/opticalquote-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/opticalquote-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

// Selections are resolved against the catalog before the quote lock is
// taken. The captured prices travel with the quote from then on.

func (s *Service) selection(ctx context.Context, id string, category enums.ProductCategory) (*quote.Selection, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	p, err := s.catalog.Resolve(ctx, id, category)
	if err != nil {
		return nil, err
	}
	sel := p.Selection()
	return &sel, nil
}

func (s *Service) buildExam(ctx context.Context, in ExamInput) (quote.ExamLayer, error) {
	var layer quote.ExamLayer
	for _, id := range in.ServiceIDs {
		sel, err := s.selection(ctx, id, enums.ProductCategoryExamService)
		if err != nil {
			return quote.ExamLayer{}, err
		}
		if sel != nil {
			layer.Services = append(layer.Services, *sel)
		}
	}
	return layer, nil
}

func (s *Service) buildEyeglasses(ctx context.Context, in EyeglassesInput) (quote.EyeglassesLayer, error) {
	var (
		layer quote.EyeglassesLayer
		err   error
	)
	if in.PatientOwnedFrame {
		if strings.TrimSpace(in.FrameID) != "" {
			return layer, pkgerrors.New(pkgerrors.CodeValidation, "a patient-owned frame cannot also select a catalog frame")
		}
		layer.PatientOwnedFrame = true
		layer.POFFee = s.pofFee
	} else if layer.Frame, err = s.selection(ctx, in.FrameID, enums.ProductCategoryFrame); err != nil {
		return layer, err
	}

	if layer.LensType, err = s.selection(ctx, in.LensTypeID, enums.ProductCategoryLensType); err != nil {
		return layer, err
	}
	if id := strings.TrimSpace(in.MaterialID); id != "" {
		p, err := s.catalog.Resolve(ctx, id, enums.ProductCategoryLensMaterial)
		if err != nil {
			return layer, err
		}
		material := p.Material()
		layer.Material = &material
	}
	for _, id := range in.EnhancementIDs {
		sel, err := s.selection(ctx, id, enums.ProductCategoryEnhancement)
		if err != nil {
			return layer, err
		}
		if sel != nil {
			layer.Enhancements = append(layer.Enhancements, *sel)
		}
	}

	if in.SecondPair != nil {
		pct := in.SecondPair.DiscountPercent
		if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
			return layer, pkgerrors.New(pkgerrors.CodeValidation, "second pair discount must be between 0 and 100")
		}
		frame, err := s.selection(ctx, in.SecondPair.FrameID, enums.ProductCategoryFrame)
		if err != nil {
			return layer, err
		}
		layer.SecondPair = &quote.SecondPair{
			Frame:             frame,
			StandardLensPrice: s.pricing.SecondPairStandardLens,
			DiscountPercent:   pct,
		}
	}
	return layer, nil
}

func (s *Service) buildContacts(ctx context.Context, in ContactsInput) (quote.ContactsLayer, error) {
	if in.Boxes < 0 {
		return quote.ContactsLayer{}, pkgerrors.New(pkgerrors.CodeValidation, "boxes cannot be negative")
	}
	if in.ManufacturerRebate.IsNegative() {
		return quote.ContactsLayer{}, pkgerrors.New(pkgerrors.CodeValidation, "manufacturer rebate cannot be negative")
	}
	product, err := s.selection(ctx, in.ProductID, enums.ProductCategoryContactLens)
	if err != nil {
		return quote.ContactsLayer{}, err
	}
	return quote.ContactsLayer{
		Product:            product,
		Boxes:              in.Boxes,
		AnnualSupply:       in.AnnualSupply,
		ManufacturerRebate: in.ManufacturerRebate,
	}, nil
}
