package quotes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/opticalquote-backend/api/middleware"
	"github.com/angelmondragon/opticalquote-backend/internal/quote"
	internalquotes "github.com/angelmondragon/opticalquote-backend/internal/quotes"
	"github.com/angelmondragon/opticalquote-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/opticalquote-backend/pkg/errors"
	"github.com/angelmondragon/opticalquote-backend/pkg/logger"
)

type stubQuoteService struct {
	create        internalquotes.CreateInput
	version       int
	insurance     internalquotes.InsuranceInput
	contacts      internalquotes.ContactsInput
	eyeglasses    internalquotes.EyeglassesInput
	transition    internalquotes.TransitionInput
	transitionErr error
	getErr        error
}

func (s *stubQuoteService) result(id uuid.UUID) internalquotes.Result {
	return internalquotes.Result{Quote: quote.Quote{ID: id, Version: 2, Status: enums.QuoteStatusDraft}}
}

func (s *stubQuoteService) Create(_ context.Context, in internalquotes.CreateInput) (internalquotes.Result, error) {
	s.create = in
	return s.result(uuid.New()), nil
}

func (s *stubQuoteService) Get(_ context.Context, id uuid.UUID) (internalquotes.Result, error) {
	if s.getErr != nil {
		return internalquotes.Result{}, s.getErr
	}
	return s.result(id), nil
}

func (s *stubQuoteService) Preview(ctx context.Context, id uuid.UUID) (internalquotes.Result, error) {
	return s.Get(ctx, id)
}

func (s *stubQuoteService) UpdatePatient(_ context.Context, id uuid.UUID, version int, _ quote.Patient) (internalquotes.Result, error) {
	s.version = version
	return s.result(id), nil
}

func (s *stubQuoteService) UpdateInsurance(_ context.Context, id uuid.UUID, version int, in internalquotes.InsuranceInput) (internalquotes.Result, error) {
	s.version = version
	s.insurance = in
	return s.result(id), nil
}

func (s *stubQuoteService) UpdateExam(_ context.Context, id uuid.UUID, version int, _ internalquotes.ExamInput) (internalquotes.Result, error) {
	s.version = version
	return s.result(id), nil
}

func (s *stubQuoteService) UpdateEyeglasses(_ context.Context, id uuid.UUID, version int, in internalquotes.EyeglassesInput) (internalquotes.Result, error) {
	s.version = version
	s.eyeglasses = in
	return s.result(id), nil
}

func (s *stubQuoteService) UpdateContacts(_ context.Context, id uuid.UUID, version int, in internalquotes.ContactsInput) (internalquotes.Result, error) {
	s.version = version
	s.contacts = in
	return s.result(id), nil
}

func (s *stubQuoteService) Transition(_ context.Context, id uuid.UUID, in internalquotes.TransitionInput) (internalquotes.Result, error) {
	s.transition = in
	if s.transitionErr != nil {
		return internalquotes.Result{}, s.transitionErr
	}
	return s.result(id), nil
}

func newTestRouter(svc Service) http.Handler {
	logg := logger.Nop()
	r := chi.NewRouter()
	r.Use(middleware.StaffContext(logg))
	r.Post("/api/v1/quotes", Create(svc, logg))
	r.Route("/api/v1/quotes/{quoteId}", func(r chi.Router) {
		r.Get("/", Get(svc, logg))
		r.Get("/pricing", Pricing(svc, logg))
		r.Put("/patient", UpdatePatient(svc, logg))
		r.Put("/insurance", UpdateInsurance(svc, logg))
		r.Put("/eyeglasses", UpdateEyeglasses(svc, logg))
		r.Put("/contacts", UpdateContacts(svc, logg))
		r.Post("/transition", Transition(svc, logg))
	})
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Staff-Id", "staff-7")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload.Error.Code
}

func TestCreateUsesCallingStaff(t *testing.T) {
	svc := &stubQuoteService{}
	rec := do(t, newTestRouter(svc), http.MethodPost, "/api/v1/quotes", `{"patient":{"firstName":"  Ada ","lastName":"Lovelace","email":"ada@example.com"}}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "staff-7", svc.create.StaffID)
	assert.Equal(t, "Ada", svc.create.Patient.FirstName)
	assert.Equal(t, "ada@example.com", svc.create.Patient.Email)
}

func TestCreateRejectsBadEmail(t *testing.T) {
	rec := do(t, newTestRouter(&stubQuoteService{}), http.MethodPost, "/api/v1/quotes", `{"patient":{"email":"nope"}}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeValidation), errorCode(t, rec))
}

func TestMissingStaffHeaderIsUnauthorized(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/quotes/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	newTestRouter(&stubQuoteService{}).ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetRejectsMalformedID(t *testing.T) {
	rec := do(t, newTestRouter(&stubQuoteService{}), http.MethodGet, "/api/v1/quotes/not-a-uuid", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetMapsNotFound(t *testing.T) {
	svc := &stubQuoteService{getErr: pkgerrors.New(pkgerrors.CodeNotFound, "quote not found")}
	rec := do(t, newTestRouter(svc), http.MethodGet, "/api/v1/quotes/"+uuid.NewString()+"/pricing", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateInsuranceParsesCarrierAndUsage(t *testing.T) {
	svc := &stubQuoteService{}
	id := uuid.NewString()
	rec := do(t, newTestRouter(svc), http.MethodPut, "/api/v1/quotes/"+id+"/insurance",
		`{"version":3,"carrier":"vsp","planName":"Choice","memberId":"M-1","priorUsage":{"frame":"40.50"}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, svc.version)
	assert.Equal(t, enums.CarrierVSP, svc.insurance.Carrier)
	assert.True(t, svc.insurance.PriorUsage[enums.BenefitFrame].Equal(decimal.RequireFromString("40.50")))
}

func TestUpdateInsuranceRejectsUnknownCarrier(t *testing.T) {
	rec := do(t, newTestRouter(&stubQuoteService{}), http.MethodPut, "/api/v1/quotes/"+uuid.NewString()+"/insurance",
		`{"carrier":"acme"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateInsuranceRejectsNegativeUsage(t *testing.T) {
	rec := do(t, newTestRouter(&stubQuoteService{}), http.MethodPut, "/api/v1/quotes/"+uuid.NewString()+"/insurance",
		`{"carrier":"vsp","planName":"Choice","priorUsage":{"lens":-5}}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateEyeglassesMapsSecondPair(t *testing.T) {
	svc := &stubQuoteService{}
	frame := uuid.NewString()
	body := `{"version":1,"frameId":"` + frame + `","secondPair":{"frameId":"` + frame + `","discountPercent":"50"}}`
	rec := do(t, newTestRouter(svc), http.MethodPut, "/api/v1/quotes/"+uuid.NewString()+"/eyeglasses", body)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.eyeglasses.SecondPair)
	assert.Equal(t, frame, svc.eyeglasses.FrameID)
	assert.True(t, svc.eyeglasses.SecondPair.DiscountPercent.Equal(decimal.NewFromInt(50)))
}

func TestUpdateContactsValidatesBoxes(t *testing.T) {
	svc := &stubQuoteService{}
	path := "/api/v1/quotes/" + uuid.NewString() + "/contacts"

	rec := do(t, newTestRouter(svc), http.MethodPut, path, `{"boxes":40}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, newTestRouter(svc), http.MethodPut, path, `{"version":2,"productId":"`+uuid.NewString()+`","boxes":4,"annualSupply":true,"manufacturerRebate":"50"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 4, svc.contacts.Boxes)
	assert.True(t, svc.contacts.AnnualSupply)
	assert.True(t, svc.contacts.ManufacturerRebate.Equal(decimal.NewFromInt(50)))
}

func TestTransitionRecordsActorAndMethod(t *testing.T) {
	svc := &stubQuoteService{}
	rec := do(t, newTestRouter(svc), http.MethodPost, "/api/v1/quotes/"+uuid.NewString()+"/transition",
		`{"version":4,"to":"presented","presentationMethod":"email"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, enums.QuoteStatusPresented, svc.transition.To)
	assert.Equal(t, enums.PresentationEmail, svc.transition.PresentationMethod)
	assert.Equal(t, "staff-7", svc.transition.Actor)
	assert.Equal(t, 4, svc.transition.Version)
}

func TestTransitionMapsSignatures(t *testing.T) {
	svc := &stubQuoteService{}
	rec := do(t, newTestRouter(svc), http.MethodPost, "/api/v1/quotes/"+uuid.NewString()+"/transition",
		`{"to":"signed","customerSignature":{"present":true,"signer":" Ada "},"staffSignature":{"present":true,"signer":"staff-7"}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.transition.CustomerSignature)
	assert.Equal(t, "Ada", svc.transition.CustomerSignature.Signer)
	assert.True(t, svc.transition.StaffSignature.IsComplete())
}

func TestTransitionRejectedIsConflict(t *testing.T) {
	svc := &stubQuoteService{transitionErr: pkgerrors.New(pkgerrors.CodeInvalidTransition, "cannot move from signed to draft")}
	rec := do(t, newTestRouter(svc), http.MethodPost, "/api/v1/quotes/"+uuid.NewString()+"/transition", `{"to":"draft"}`)

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeInvalidTransition), errorCode(t, rec))
}

func TestTransitionRejectsUnknownStatus(t *testing.T) {
	rec := do(t, newTestRouter(&stubQuoteService{}), http.MethodPost, "/api/v1/quotes/"+uuid.NewString()+"/transition", `{"to":"archived"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
