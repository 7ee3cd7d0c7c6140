package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"course-payments/internal/config"
	"course-payments/internal/domain"
	"course-payments/internal/domain/model"
	"course-payments/internal/domain/ports/adapter"
	"course-payments/internal/infra/logging"
	"course-payments/internal/infra/metrics"
	"course-payments/internal/infra/worker"
	"course-payments/internal/usecase"
)

const maxWebhookBody = 1 << 20 // 1 MiB

// Server owns the webhook ingestion surface. Handlers are thin: adapter
// verifies and normalizes, resolver recovers identifiers, reconcile applies,
// and side effects go to the worker pool after the transaction committed.
type Server struct {
	cfg       *config.Config
	card      adapter.ProviderAdapter
	regional  adapter.ProviderAdapter
	resolver  usecase.ResolverUseCase
	reconcile usecase.ReconcileUseCase
	dispatch  usecase.DispatchUseCase
	pool      *worker.Pool
	auth      *AuthManager
	log       *zerolog.Logger
	server    *http.Server
}

func NewServer(
	cfg *config.Config,
	card adapter.ProviderAdapter,
	regional adapter.ProviderAdapter,
	resolver usecase.ResolverUseCase,
	reconcile usecase.ReconcileUseCase,
	dispatch usecase.DispatchUseCase,
	pool *worker.Pool,
	logger *zerolog.Logger,
) *Server {
	compLog := logger.With().Str("component", "HTTPServer").Logger()
	return &Server{
		cfg:       cfg,
		card:      card,
		regional:  regional,
		resolver:  resolver,
		reconcile: reconcile,
		dispatch:  dispatch,
		pool:      pool,
		auth:      NewAuthManager(cfg.Server.AdminJWTSecret, 30*time.Minute),
		log:       &compLog,
	}
}

// Router builds the chi mux; split out from Start so tests can drive it with
// httptest.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(TraceID())
	r.Use(Recover(s.log))
	r.Use(RequestLog(s.log))
	r.Use(Timeout(s.cfg.Server.RequestTimeout))

	r.Post("/webhooks/card-gateway", s.handleWebhook(s.card))
	r.Post("/webhooks/regional-gateway", s.handleWebhook(s.regional))

	r.Group(func(r chi.Router) {
		r.Use(s.auth.Guard)
		r.Get("/admin/enrollments/{id}", s.handleGetEnrollment)
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler: s.Router(),
	}
	s.log.Info().Int("port", s.cfg.Server.Port).Msg("http server listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// writeStatus acknowledges a webhook with its terminal outcome.
func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}

// handleWebhook maps every terminal condition onto the provider contract:
// 400 only for signature or parse failures, 500 only for transient internal
// errors worth a provider retry, 200 for everything else including duplicates
// and unresolvable events.
func (s *Server) handleWebhook(prov adapter.ProviderAdapter) http.HandlerFunc {
	name := string(prov.Name())
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithProvider(r.Context(), name)
		l := logging.With(ctx, s.log)

		body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			metrics.IncWebhookEvent(name, "malformed")
			writeStatus(w, http.StatusBadRequest, "malformed")
			return
		}

		ev, err := prov.VerifyAndParse(ctx, body, r.Header.Get(prov.SignatureHeader()))
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrSignatureInvalid):
				metrics.IncWebhookEvent(name, "signature_rejected")
				l.Warn().Msg("webhook signature rejected")
				writeStatus(w, http.StatusBadRequest, "signature_rejected")
			default:
				metrics.IncWebhookEvent(name, "malformed")
				l.Warn().Err(err).Msg("webhook payload rejected")
				writeStatus(w, http.StatusBadRequest, "malformed")
			}
			return
		}
		if ev == nil {
			// Verified but not an event type the core processes.
			metrics.IncWebhookEvent(name, "ignored")
			writeStatus(w, http.StatusOK, "ignored")
			return
		}

		ctx = logging.WithEventID(ctx, ev.ProviderEventID)
		l = logging.With(ctx, s.log)

		resolved, err := s.resolver.Resolve(ctx, ev)
		if err != nil {
			if errors.Is(err, domain.ErrUnresolvableReference) {
				// Logged by the resolver; retrying cannot fix it.
				metrics.IncWebhookEvent(name, "unresolvable")
				writeStatus(w, http.StatusOK, "unresolvable")
				return
			}
			metrics.IncWebhookEvent(name, "error")
			writeStatus(w, http.StatusInternalServerError, "error")
			return
		}
		ctx = logging.WithEnrollmentID(ctx, resolved.EnrollmentID)
		l = logging.With(ctx, s.log)

		start := time.Now()
		res, err := s.reconcile.Apply(ctx, resolved)
		metrics.ObserveApplyLatency(name, float64(time.Since(start).Milliseconds()))
		if err != nil {
			if errors.Is(err, domain.ErrEnrollmentNotFound) {
				metrics.IncWebhookEvent(name, "enrollment_not_found")
				l.Warn().Msg("payment for unknown enrollment acknowledged")
				writeStatus(w, http.StatusOK, "enrollment_not_found")
				return
			}
			metrics.IncWebhookEvent(name, "error")
			l.Error().Err(err).Msg("apply failed")
			writeStatus(w, http.StatusInternalServerError, "error")
			return
		}

		if res.Duplicate {
			metrics.IncWebhookEvent(name, "duplicate")
			writeStatus(w, http.StatusOK, "duplicate")
			return
		}

		metrics.IncWebhookEvent(name, "applied")
		metrics.IncPaymentApplied(string(res.Enrollment.PaymentType))
		metrics.AddPaymentRevenue(ev.Currency, ev.Amount)
		if res.Completed {
			metrics.IncEnrollmentCompleted()
		}

		s.submitDispatch(res.Enrollment, ev, res.FirstPayment)
		writeStatus(w, http.StatusOK, "applied")
	}
}

// submitDispatch hands side effects to the pool; the webhook response never
// waits on them. A saturated queue runs them inline as a fallback.
func (s *Server) submitDispatch(enr *model.Enrollment, ev *model.PaymentEvent, firstPayment bool) {
	task := func(ctx context.Context) error {
		s.dispatch.Dispatch(ctx, enr, ev, firstPayment)
		return nil
	}
	if s.pool == nil {
		_ = task(context.Background())
		return
	}
	if err := s.pool.Submit(task); err != nil {
		s.log.Warn().Err(err).Msg("worker queue full; dispatching inline")
		go func() { _ = task(context.Background()) }()
	}
}

type enrollmentResponse struct {
	ID                string     `json:"id"`
	UserID            string     `json:"user_id"`
	CourseID          string     `json:"course_id"`
	CourseName        string     `json:"course_name"`
	LearningTrack     *string    `json:"learning_track,omitempty"`
	PaymentType       string     `json:"payment_type"`
	TotalInstallments int        `json:"total_installments"`
	PaymentStatus     string     `json:"payment_status"`
	AmountPaid        int64      `json:"amount_paid"`
	Currency          string     `json:"currency"`
	InstallmentsPaid  int        `json:"installments_paid"`
	HasAccess         bool       `json:"has_access"`
	NextPaymentDue    *time.Time `json:"next_payment_due,omitempty"`
	TransactionID     string     `json:"transaction_id,omitempty"`
}

func (s *Server) handleGetEnrollment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	enr, err := s.reconcile.GetEnrollment(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrEnrollmentNotFound):
			http.Error(w, "not found", http.StatusNotFound)
		case errors.Is(err, domain.ErrInvalidArgument):
			http.Error(w, "bad request", http.StatusBadRequest)
		default:
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	resp := enrollmentResponse{
		ID:                enr.ID,
		UserID:            enr.UserID,
		CourseID:          enr.CourseID,
		CourseName:        enr.CourseName,
		PaymentType:       string(enr.PaymentType),
		TotalInstallments: enr.TotalInstallments,
		PaymentStatus:     string(enr.PaymentStatus),
		AmountPaid:        enr.AmountPaid,
		Currency:          enr.Currency,
		InstallmentsPaid:  enr.InstallmentsPaid,
		HasAccess:         enr.HasAccess,
		NextPaymentDue:    enr.NextPaymentDue,
		TransactionID:     enr.TransactionID,
	}
	if enr.LearningTrack != nil {
		t := string(*enr.LearningTrack)
		resp.LearningTrack = &t
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
