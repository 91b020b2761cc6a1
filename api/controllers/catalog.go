package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/opticalquote-backend/api/responses"
	"github.com/angelmondragon/opticalquote-backend/internal/benefits"
	"github.com/angelmondragon/opticalquote-backend/internal/catalog"
	"github.com/angelmondragon/opticalquote-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/opticalquote-backend/pkg/errors"
	"github.com/angelmondragon/opticalquote-backend/pkg/logger"
)

type CatalogLister interface {
	List(ctx context.Context, category enums.ProductCategory) ([]catalog.Product, error)
}

type PlanLister interface {
	ListPlans(ctx context.Context, carrier enums.Carrier) ([]benefits.InsurancePlan, error)
}

// CatalogProducts lists active products of one category for the builder's pickers.
func CatalogProducts(svc CatalogLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		category, err := enums.ParseProductCategory(strings.TrimSpace(r.URL.Query().Get("category")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category").
				WithDetails(map[string]any{"field": "category"}))
			return
		}
		products, err := svc.List(r.Context(), category)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}

// InsurancePlans lists active plans for a carrier.
func InsurancePlans(svc PlanLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		carrier, err := enums.ParseCarrier(r.URL.Query().Get("carrier"))
		if err != nil || carrier == enums.CarrierNone {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "carrier is required").
				WithDetails(map[string]any{"field": "carrier"}))
			return
		}
		plans, err := svc.ListPlans(r.Context(), carrier)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, plans)
	}
}
