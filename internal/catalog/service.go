package catalog

import (
	"context"
	"fmt"

	"github.com/angelmondragon/opticalquote-backend/pkg/db"
	"github.com/angelmondragon/opticalquote-backend/pkg/db/models"
	"github.com/angelmondragon/opticalquote-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/opticalquote-backend/pkg/errors"
	"github.com/google/uuid"
)

type productReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListActiveByCategory(ctx context.Context, category enums.ProductCategory) ([]models.Product, error)
}

// Service resolves product ids into priced selections.
type Service struct {
	repo productReader
}

func NewService(repo productReader) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &Service{repo: repo}, nil
}

// GetProduct loads a product by id.
func (s *Service) GetProduct(ctx context.Context, id string) (Product, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return Product{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid product id").
			WithDetails(map[string]any{"productId": id})
	}
	row, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if db.IsNotFound(err) {
			return Product{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
				WithDetails(map[string]any{"productId": id})
		}
		return Product{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return fromModel(*row), nil
}

// Resolve loads an active product and checks it belongs to the expected
// category, so a frame id can never be submitted as a lens material.
func (s *Service) Resolve(ctx context.Context, id string, want enums.ProductCategory) (Product, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return Product{}, err
	}
	details := map[string]any{"productId": id, "expected": want, "category": p.Category}
	if !p.Active {
		return Product{}, pkgerrors.New(pkgerrors.CodeValidation, "product is not available").WithDetails(details)
	}
	if p.Category != want {
		return Product{}, pkgerrors.New(pkgerrors.CodeValidation, "product category mismatch").WithDetails(details)
	}
	return p, nil
}

// List returns the active products of one category.
func (s *Service) List(ctx context.Context, category enums.ProductCategory) ([]Product, error) {
	if !category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product category")
	}
	rows, err := s.repo.ListActiveByCategory(ctx, category)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	out := make([]Product, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromModel(row))
	}
	return out, nil
}
