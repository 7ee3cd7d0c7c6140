//go:build !integration

package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"course-payments/internal/config"
	"course-payments/internal/domain"
	"course-payments/internal/domain/model"
	"course-payments/internal/infra/adapters/provider"
	"course-payments/internal/usecase"
)

const testSecret = "regional-secret"

//
// ---------------- mocks ----------------
//

type mockReconcile struct {
	ApplyFunc func(ctx context.Context, resolved *model.ResolvedPaymentEvent) (*usecase.ApplyResult, error)
	GetFunc   func(ctx context.Context, id string) (*model.Enrollment, error)
}

func (m *mockReconcile) Apply(ctx context.Context, resolved *model.ResolvedPaymentEvent) (*usecase.ApplyResult, error) {
	return m.ApplyFunc(ctx, resolved)
}

func (m *mockReconcile) GetEnrollment(ctx context.Context, id string) (*model.Enrollment, error) {
	if m.GetFunc == nil {
		return nil, domain.ErrNotFound
	}
	return m.GetFunc(ctx, id)
}

type mockDispatch struct {
	mu    sync.Mutex
	calls int
	first bool
}

func (m *mockDispatch) Dispatch(ctx context.Context, enr *model.Enrollment, ev *model.PaymentEvent, firstPayment bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.first = firstPayment
}

//
// ---------------- helpers ----------------
//

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:           0,
			RequestTimeout: 5 * time.Second,
			AdminJWTSecret: "admin-secret",
		},
	}
}

func newTestServer(t *testing.T, reconcile usecase.ReconcileUseCase, dispatch usecase.DispatchUseCase) *Server {
	t.Helper()
	logger := zerolog.New(io.Discard)

	regional, err := provider.NewRegionalGatewayAdapter(testSecret, &logger)
	if err != nil {
		t.Fatalf("regional adapter: %v", err)
	}
	card, err := provider.NewCardGatewayAdapter("whsec_test", &logger)
	if err != nil {
		t.Fatalf("card adapter: %v", err)
	}

	return NewServer(testConfig(), card, regional, usecase.NewResolverUseCase(&logger), reconcile, dispatch, nil, &logger)
}

func signedRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/regional-gateway", bytes.NewBufferString(body))
	req.Header.Set("x-regional-signature", provider.Sign(testSecret, []byte(body)))
	return req
}

func chargeBody(eventID int, enrollmentID string) string {
	return fmt.Sprintf(`{
		"event": "charge.success",
		"data": {
			"id": %d,
			"reference": "ref-1",
			"amount": 5000,
			"currency": "USD",
			"metadata": {"enrollment_id": %q, "learning_track": "self_paced"}
		}
	}`, eventID, enrollmentID)
}

//
// ---------------- tests ----------------
//

func TestWebhook_OutcomeMapping(t *testing.T) {
	okResult := func(duplicate, first, completed bool) *usecase.ApplyResult {
		return &usecase.ApplyResult{
			Enrollment: &model.Enrollment{
				ID:          "enr-1",
				PaymentType: model.PaymentTypeInstallment,
				Currency:    "USD",
			},
			Duplicate:    duplicate,
			FirstPayment: first,
			Completed:    completed,
		}
	}

	t.Run("applied returns 200 and dispatches", func(t *testing.T) {
		dispatch := &mockDispatch{}
		srv := newTestServer(t, &mockReconcile{
			ApplyFunc: func(ctx context.Context, resolved *model.ResolvedPaymentEvent) (*usecase.ApplyResult, error) {
				if resolved.EnrollmentID != "enr-1" {
					t.Errorf("enrollment id = %s", resolved.EnrollmentID)
				}
				if resolved.LearningTrack == nil || *resolved.LearningTrack != model.TrackSelfPaced {
					t.Errorf("track not resolved: %v", resolved.LearningTrack)
				}
				return okResult(false, true, false), nil
			},
		}, dispatch)

		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, signedRequest(chargeBody(1001, "enr-1")))

		if rec.Code != http.StatusOK {
			t.Fatalf("want 200, got %d, body=%s", rec.Code, rec.Body.String())
		}
		if dispatch.calls != 1 || !dispatch.first {
			t.Errorf("dispatch calls=%d first=%v", dispatch.calls, dispatch.first)
		}
	})

	t.Run("duplicate returns 200 without dispatch", func(t *testing.T) {
		dispatch := &mockDispatch{}
		srv := newTestServer(t, &mockReconcile{
			ApplyFunc: func(ctx context.Context, resolved *model.ResolvedPaymentEvent) (*usecase.ApplyResult, error) {
				return okResult(true, false, false), nil
			},
		}, dispatch)

		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, signedRequest(chargeBody(1001, "enr-1")))

		if rec.Code != http.StatusOK {
			t.Fatalf("want 200, got %d", rec.Code)
		}
		if dispatch.calls != 0 {
			t.Errorf("duplicate must not dispatch, got %d calls", dispatch.calls)
		}
	})

	t.Run("invalid signature returns 400", func(t *testing.T) {
		srv := newTestServer(t, &mockReconcile{}, &mockDispatch{})

		body := chargeBody(1001, "enr-1")
		req := httptest.NewRequest(http.MethodPost, "/webhooks/regional-gateway", bytes.NewBufferString(body))
		req.Header.Set("x-regional-signature", provider.Sign("wrong-secret", []byte(body)))
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("want 400, got %d", rec.Code)
		}
	})

	t.Run("malformed payload returns 400", func(t *testing.T) {
		srv := newTestServer(t, &mockReconcile{}, &mockDispatch{})

		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, signedRequest("{not json"))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("want 400, got %d", rec.Code)
		}
	})

	t.Run("ignored event type returns 200", func(t *testing.T) {
		srv := newTestServer(t, &mockReconcile{}, &mockDispatch{})

		body := `{"event":"transfer.success","data":{"id":9009,"reference":"ref-9"}}`
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, signedRequest(body))

		if rec.Code != http.StatusOK {
			t.Fatalf("want 200, got %d", rec.Code)
		}
	})

	t.Run("unresolvable reference returns 200", func(t *testing.T) {
		dispatch := &mockDispatch{}
		srv := newTestServer(t, &mockReconcile{}, dispatch)

		body := `{"event":"charge.success","data":{"id":2002,"reference":"ref-2","amount":100,"currency":"USD","metadata":{}}}`
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, signedRequest(body))

		if rec.Code != http.StatusOK {
			t.Fatalf("want 200, got %d", rec.Code)
		}
		if dispatch.calls != 0 {
			t.Error("unresolvable event must not dispatch")
		}
	})

	t.Run("enrollment not found returns 200", func(t *testing.T) {
		srv := newTestServer(t, &mockReconcile{
			ApplyFunc: func(ctx context.Context, resolved *model.ResolvedPaymentEvent) (*usecase.ApplyResult, error) {
				return nil, domain.ErrEnrollmentNotFound
			},
		}, &mockDispatch{})

		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, signedRequest(chargeBody(1001, "enr-unknown")))

		if rec.Code != http.StatusOK {
			t.Fatalf("want 200, got %d", rec.Code)
		}
	})

	t.Run("transient apply error returns 500", func(t *testing.T) {
		srv := newTestServer(t, &mockReconcile{
			ApplyFunc: func(ctx context.Context, resolved *model.ResolvedPaymentEvent) (*usecase.ApplyResult, error) {
				return nil, errors.New("db down")
			},
		}, &mockDispatch{})

		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, signedRequest(chargeBody(1001, "enr-1")))

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("want 500, got %d", rec.Code)
		}
	})
}

func TestAdminEnrollmentEndpoint(t *testing.T) {
	track := model.TrackOneOnOne
	enr := &model.Enrollment{
		ID:            "enr-1",
		UserID:        "user-1",
		CourseID:      "course-1",
		CourseName:    "Backend Bootcamp",
		LearningTrack: &track,
		PaymentType:   model.PaymentTypeInstallment,
		PaymentStatus: model.PaymentStatusPartiallyPaid,
		AmountPaid:    5000,
		Currency:      "USD",
		HasAccess:     true,
	}
	srv := newTestServer(t, &mockReconcile{
		GetFunc: func(ctx context.Context, id string) (*model.Enrollment, error) {
			if id == enr.ID {
				return enr, nil
			}
			return nil, domain.ErrNotFound
		},
	}, &mockDispatch{})
	router := srv.Router()

	t.Run("missing token returns 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/enrollments/enr-1", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("want 401, got %d", rec.Code)
		}
	})

	t.Run("valid token returns the enrollment", func(t *testing.T) {
		token, err := srv.auth.Mint()
		if err != nil {
			t.Fatalf("mint: %v", err)
		}
		req := httptest.NewRequest(http.MethodGet, "/admin/enrollments/enr-1", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("want 200, got %d, body=%s", rec.Code, rec.Body.String())
		}
		if !bytes.Contains(rec.Body.Bytes(), []byte(`"payment_status":"partially_paid"`)) {
			t.Errorf("unexpected body: %s", rec.Body.String())
		}
	})

	t.Run("unknown id returns 404", func(t *testing.T) {
		token, _ := srv.auth.Mint()
		req := httptest.NewRequest(http.MethodGet, "/admin/enrollments/nope", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("want 404, got %d", rec.Code)
		}
	})

	t.Run("forged token returns 401", func(t *testing.T) {
		other := NewAuthManager("other-secret", time.Minute)
		token, _ := other.Mint()
		req := httptest.NewRequest(http.MethodGet, "/admin/enrollments/enr-1", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("want 401, got %d", rec.Code)
		}
	})
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, &mockReconcile{}, &mockDispatch{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
}
