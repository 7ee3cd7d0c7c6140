//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"course-payments/internal/domain"
	"course-payments/internal/domain/model"
	"course-payments/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

// MockTxManager executes the callback inline. The mutex stands in for the
// row lock: concurrent WithTx calls serialize, like deliveries for the same
// enrollment would against Postgres.
type MockTxManager struct {
	mu         sync.Mutex
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

func NewMockTxManager() *MockTxManager { return &MockTxManager{} }

func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx, nil)
}

// MockEnrollmentRepo is a small in-memory implementation used by unit tests.
type MockEnrollmentRepo struct {
	mu       sync.RWMutex
	store    map[string]*model.Enrollment
	SaveFunc func(ctx context.Context, tx repository.Tx, e *model.Enrollment) error
}

func NewMockEnrollmentRepo() *MockEnrollmentRepo {
	return &MockEnrollmentRepo{store: make(map[string]*model.Enrollment)}
}

func (m *MockEnrollmentRepo) Save(ctx context.Context, tx repository.Tx, e *model.Enrollment) error {
	if m.SaveFunc != nil {
		if err := m.SaveFunc(ctx, tx, e); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	m.store[e.ID] = &cp
	return nil
}

func (m *MockEnrollmentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Enrollment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *MockEnrollmentRepo) ListAll(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.Enrollment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var all []*model.Enrollment
	for _, e := range m.store {
		cp := *e
		all = append(all, &cp)
	}
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

// MockLedgerRepo keeps ledger lines in memory and enforces the
// unique-installment-number invariant the way the real table does.
type MockLedgerRepo struct {
	mu         sync.RWMutex
	records    map[string][]*model.InstallmentPaymentRecord // by enrollment id
	AppendFunc func(ctx context.Context, tx repository.Tx, rec *model.InstallmentPaymentRecord) error
}

func NewMockLedgerRepo() *MockLedgerRepo {
	return &MockLedgerRepo{records: make(map[string][]*model.InstallmentPaymentRecord)}
}

func (m *MockLedgerRepo) Append(ctx context.Context, tx repository.Tx, rec *model.InstallmentPaymentRecord) error {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, tx, rec)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.records[rec.EnrollmentID] {
		if existing.InstallmentNumber == rec.InstallmentNumber {
			return domain.ErrDuplicateInstallment
		}
	}
	cp := *rec
	m.records[rec.EnrollmentID] = append(m.records[rec.EnrollmentID], &cp)
	return nil
}

func (m *MockLedgerRepo) ListByEnrollment(ctx context.Context, tx repository.Tx, enrollmentID string) ([]*model.InstallmentPaymentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.InstallmentPaymentRecord, 0, len(m.records[enrollmentID]))
	for _, r := range m.records[enrollmentID] {
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MockLedgerRepo) SumPaid(ctx context.Context, tx repository.Tx, enrollmentID string) (int64, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var sum int64
	for _, r := range m.records[enrollmentID] {
		sum += r.Amount
	}
	return sum, len(m.records[enrollmentID]), nil
}

// MockProcessedEventRepo is the in-memory idempotency set.
type MockProcessedEventRepo struct {
	mu         sync.Mutex
	seen       map[string]bool
	RecordFunc func(ctx context.Context, tx repository.Tx, provider model.Provider, providerEventID, enrollmentID string) error
	SeenFunc   func(ctx context.Context, tx repository.Tx, provider model.Provider, providerEventID string) (bool, error)
}

func NewMockProcessedEventRepo() *MockProcessedEventRepo {
	return &MockProcessedEventRepo{seen: make(map[string]bool)}
}

func eventKey(provider model.Provider, id string) string { return string(provider) + "/" + id }

func (m *MockProcessedEventRepo) Record(ctx context.Context, tx repository.Tx, provider model.Provider, providerEventID, enrollmentID string) error {
	if m.RecordFunc != nil {
		return m.RecordFunc(ctx, tx, provider, providerEventID, enrollmentID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := eventKey(provider, providerEventID)
	if m.seen[key] {
		return domain.ErrDuplicateEvent
	}
	m.seen[key] = true
	return nil
}

func (m *MockProcessedEventRepo) Seen(ctx context.Context, tx repository.Tx, provider model.Provider, providerEventID string) (bool, error) {
	if m.SeenFunc != nil {
		return m.SeenFunc(ctx, tx, provider, providerEventID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seen[eventKey(provider, providerEventID)], nil
}

// MockEmailSender / MockReferralNotifier count invocations for dispatcher tests.
type MockEmailSender struct {
	mu    sync.Mutex
	Calls int
	Err   error
}

func (m *MockEmailSender) SendPaymentConfirmation(ctx context.Context, enr *model.Enrollment, ev *model.PaymentEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	return m.Err
}

type MockReferralNotifier struct {
	mu    sync.Mutex
	Calls int
	Err   error
}

func (m *MockReferralNotifier) CompleteReferral(ctx context.Context, enr *model.Enrollment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	return m.Err
}
