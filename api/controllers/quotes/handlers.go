package quotes

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/opticalquote-backend/api/middleware"
	"github.com/angelmondragon/opticalquote-backend/api/responses"
	"github.com/angelmondragon/opticalquote-backend/api/validators"
	"github.com/angelmondragon/opticalquote-backend/internal/quote"
	internalquotes "github.com/angelmondragon/opticalquote-backend/internal/quotes"
	pkgerrors "github.com/angelmondragon/opticalquote-backend/pkg/errors"
	"github.com/angelmondragon/opticalquote-backend/pkg/logger"
)

// Service is the quote surface the handlers drive. *quotes.Service satisfies it.
type Service interface {
	Create(ctx context.Context, in internalquotes.CreateInput) (internalquotes.Result, error)
	Get(ctx context.Context, id uuid.UUID) (internalquotes.Result, error)
	Preview(ctx context.Context, id uuid.UUID) (internalquotes.Result, error)
	UpdatePatient(ctx context.Context, id uuid.UUID, version int, p quote.Patient) (internalquotes.Result, error)
	UpdateInsurance(ctx context.Context, id uuid.UUID, version int, in internalquotes.InsuranceInput) (internalquotes.Result, error)
	UpdateExam(ctx context.Context, id uuid.UUID, version int, in internalquotes.ExamInput) (internalquotes.Result, error)
	UpdateEyeglasses(ctx context.Context, id uuid.UUID, version int, in internalquotes.EyeglassesInput) (internalquotes.Result, error)
	UpdateContacts(ctx context.Context, id uuid.UUID, version int, in internalquotes.ContactsInput) (internalquotes.Result, error)
	Transition(ctx context.Context, id uuid.UUID, in internalquotes.TransitionInput) (internalquotes.Result, error)
}

// Create starts a new quote owned by the calling staff member.
func Create(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createQuoteRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Create(r.Context(), internalquotes.CreateInput{
			StaffID: middleware.StaffIDFromContext(r.Context()),
			Patient: req.Patient.toPatient(),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// Get returns the quote with its current pricing and warnings.
func Get(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseQuoteID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// Pricing returns only the rounded breakdown and warnings.
func Pricing(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseQuoteID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Preview(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"quoteId":  result.Quote.ID,
			"version":  result.Quote.Version,
			"status":   result.Quote.Status,
			"pricing":  result.Pricing,
			"warnings": result.Warnings,
		})
	}
}

func UpdatePatient(svc Service, logg *logger.Logger) http.HandlerFunc {
	return editHandler(logg, func(ctx context.Context, id uuid.UUID, r *http.Request) (internalquotes.Result, error) {
		var req updatePatientRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return internalquotes.Result{}, err
		}
		return svc.UpdatePatient(ctx, id, req.Version, req.toPatient())
	})
}

func UpdateInsurance(svc Service, logg *logger.Logger) http.HandlerFunc {
	return editHandler(logg, func(ctx context.Context, id uuid.UUID, r *http.Request) (internalquotes.Result, error) {
		var req updateInsuranceRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return internalquotes.Result{}, err
		}
		in, err := req.toInput()
		if err != nil {
			return internalquotes.Result{}, err
		}
		return svc.UpdateInsurance(ctx, id, req.Version, in)
	})
}

func UpdateExam(svc Service, logg *logger.Logger) http.HandlerFunc {
	return editHandler(logg, func(ctx context.Context, id uuid.UUID, r *http.Request) (internalquotes.Result, error) {
		var req updateExamRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return internalquotes.Result{}, err
		}
		return svc.UpdateExam(ctx, id, req.Version, internalquotes.ExamInput{ServiceIDs: req.ServiceIDs})
	})
}

func UpdateEyeglasses(svc Service, logg *logger.Logger) http.HandlerFunc {
	return editHandler(logg, func(ctx context.Context, id uuid.UUID, r *http.Request) (internalquotes.Result, error) {
		var req updateEyeglassesRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return internalquotes.Result{}, err
		}
		return svc.UpdateEyeglasses(ctx, id, req.Version, req.toInput())
	})
}

func UpdateContacts(svc Service, logg *logger.Logger) http.HandlerFunc {
	return editHandler(logg, func(ctx context.Context, id uuid.UUID, r *http.Request) (internalquotes.Result, error) {
		var req updateContactsRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return internalquotes.Result{}, err
		}
		return svc.UpdateContacts(ctx, id, req.Version, req.toInput())
	})
}

// Transition moves the quote through its lifecycle. The caller is recorded as
// the actor on the history entry.
func Transition(svc Service, logg *logger.Logger) http.HandlerFunc {
	return editHandler(logg, func(ctx context.Context, id uuid.UUID, r *http.Request) (internalquotes.Result, error) {
		var req transitionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return internalquotes.Result{}, err
		}
		in, err := req.toInput(middleware.StaffIDFromContext(ctx))
		if err != nil {
			return internalquotes.Result{}, err
		}
		return svc.Transition(ctx, id, in)
	})
}

type editFunc func(ctx context.Context, id uuid.UUID, r *http.Request) (internalquotes.Result, error)

func editHandler(logg *logger.Logger, fn editFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseQuoteID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithQuoteID(ctx, id.String())
		}
		result, err := fn(ctx, id, r.WithContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func parseQuoteID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "quoteId"))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid quote id").WithDetails(map[string]any{"field": "quoteId"})
	}
	return id, nil
}
