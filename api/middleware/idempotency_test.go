package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	pkgerrors "github.com/angelmondragon/opticalquote-backend/pkg/errors"
)

type fakeStore struct {
	data map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string)}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	str, _ := value.(string)
	f.data[key] = str
	return true, nil
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("fake:%s:%s", scope, id)
}

const transitionPattern = "/api/v1/quotes/{quoteId}/transition"

func requestWithPattern(method, url, pattern string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, url, body)
	rc := chi.NewRouteContext()
	rc.RoutePatterns = []string{pattern}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func TestRouteTTLSelection(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		pattern string
		want    time.Duration
		ok      bool
	}{
		{"create quote", http.MethodPost, "/api/v1/quotes", defaultIdempotencyTTL, true},
		{"transition", http.MethodPost, transitionPattern, criticalIdempotencyTTL, true},
		{"edit layer", http.MethodPut, "/api/v1/quotes/{quoteId}/exam", 0, false},
		{"read", http.MethodGet, "/api/v1/quotes/{quoteId}", 0, false},
	}

	for _, tt := range tests {
		ttl, ok := routeTTL(tt.method, tt.pattern)
		if ok != tt.ok {
			t.Fatalf("%s: expected ok=%v got %v", tt.name, tt.ok, ok)
		}
		if ok && ttl != tt.want {
			t.Fatalf("%s: expected ttl=%v got %v", tt.name, tt.want, ttl)
		}
	}
}

func TestIdempotencyMiddlewareRequiresHeader(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, nil)
	handlerCalled := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusCreated)
	})

	req := requestWithPattern(http.MethodPost, "/api/v1/quotes", "/api/v1/quotes", strings.NewReader(`{"patient":{}}`))
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if handlerCalled {
		t.Fatalf("handler should not run without idempotency key")
	}
}

func TestIdempotencyMiddlewareReplaysStoredResponse(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, nil)
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"data":{"status":"presented"}}`))
	})

	url := "/api/v1/quotes/7c1c1f39-6ef2-4c4c-9d59-0d5a8d1f8c11/transition"
	body := `{"to":"presented","presentationMethod":"email"}`
	req := requestWithPattern(http.MethodPost, url, transitionPattern, strings.NewReader(body))
	req.Header.Set("Idempotency-Key", "abc")
	req = req.WithContext(WithStaffID(req.Context(), "staff-1"))
	mw(handler).ServeHTTP(httptest.NewRecorder(), req)

	replay := requestWithPattern(http.MethodPost, url, transitionPattern, strings.NewReader(body))
	replay.Header.Set("Idempotency-Key", "abc")
	replay = replay.WithContext(WithStaffID(replay.Context(), "staff-1"))
	rec := httptest.NewRecorder()
	mw(handler).ServeHTTP(rec, replay)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected replay status 200 got %d", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("expected content-type header preserved")
	}
	if strings.TrimSpace(rec.Body.String()) != `{"data":{"status":"presented"}}` {
		t.Fatalf("expected stored body got %s", rec.Body.String())
	}
	if calls != 1 {
		t.Fatalf("handler executed %d times, expected 1", calls)
	}
}

func TestIdempotencyScopeIsPerStaff(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, nil)
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	})

	for _, staff := range []string{"staff-1", "staff-2"} {
		req := requestWithPattern(http.MethodPost, "/api/v1/quotes", "/api/v1/quotes", strings.NewReader(`{}`))
		req.Header.Set("Idempotency-Key", "same")
		req = req.WithContext(WithStaffID(req.Context(), staff))
		mw(handler).ServeHTTP(httptest.NewRecorder(), req)
	}
	if calls != 2 {
		t.Fatalf("expected both staff requests to run, got %d", calls)
	}
}

func TestIdempotencyMiddlewareDetectsBodyChange(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, nil)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := requestWithPattern(http.MethodPost, "/api/v1/quotes", "/api/v1/quotes", strings.NewReader(`{"foo":"bar"}`))
	req.Header.Set("Idempotency-Key", "xyz")
	mw(handler).ServeHTTP(httptest.NewRecorder(), req)

	replay := requestWithPattern(http.MethodPost, "/api/v1/quotes", "/api/v1/quotes", strings.NewReader(`{"foo":"diff"}`))
	replay.Header.Set("Idempotency-Key", "xyz")
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, replay)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse error response: %v", err)
	}
	if payload.Error.Code != string(pkgerrors.CodeIdempotency) {
		t.Fatalf("expected error code %s got %s", pkgerrors.CodeIdempotency, payload.Error.Code)
	}
}

func TestIdempotencyMiddlewareSkipsRetryableOutcomes(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"lock conflict", http.StatusConflict, `{"error":{"code":"CONFLICT"}}`},
		{"dependency failure", http.StatusServiceUnavailable, `{"error":{"code":"DEPENDENCY_ERROR"}}`},
		{"not persisted", http.StatusOK, `{"data":{"status":"presented","warnings":[{"type":"EXTERNAL_SERVICE_FAILURE","retryable":true}]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			mw := Idempotency(store, nil)
			var calls int
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				if calls == 1 {
					w.WriteHeader(tt.status)
					_, _ = w.Write([]byte(tt.body))
					return
				}
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte(`{"data":{"status":"presented","warnings":[]}}`))
			})

			url := "/api/v1/quotes/abc/transition"
			var last *httptest.ResponseRecorder
			for i := 0; i < 2; i++ {
				req := requestWithPattern(http.MethodPost, url, transitionPattern, strings.NewReader(`{"to":"presented"}`))
				req.Header.Set("Idempotency-Key", "k1")
				last = httptest.NewRecorder()
				mw(handler).ServeHTTP(last, req)
			}

			if calls != 2 {
				t.Fatalf("expected retry to reach the handler, ran %d times", calls)
			}
			if last.Code != http.StatusOK {
				t.Fatalf("expected retry to succeed with 200, got %d", last.Code)
			}
			if len(store.data) != 1 {
				t.Fatalf("expected only the successful response stored, got %d records", len(store.data))
			}
		})
	}
}

func TestCacheableResponse(t *testing.T) {
	tests := []struct {
		status int
		body   string
		want   bool
	}{
		{http.StatusCreated, `{"data":{"id":"q1","warnings":[{"type":"INSURANCE_UNAVAILABLE"}]}}`, true},
		{http.StatusOK, `not json`, true},
		{http.StatusOK, `{"data":{"warnings":[{"type":"EXTERNAL_SERVICE_FAILURE"}]}}`, false},
		{http.StatusConflict, `{}`, false},
		{http.StatusInternalServerError, `{}`, false},
	}
	for _, tt := range tests {
		if got := cacheableResponse(tt.status, []byte(tt.body)); got != tt.want {
			t.Fatalf("status %d body %s: expected %v got %v", tt.status, tt.body, tt.want, got)
		}
	}
}
