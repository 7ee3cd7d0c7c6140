package sched

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"course-payments/internal/domain"
	red "course-payments/internal/infra/redis"
	"course-payments/internal/usecase"
)

const auditorLockKey = "lock:ledger-auditor"

// LedgerAuditor periodically re-checks the installment ledger against the
// enrollment aggregates. Mismatches are reported (log + metric) and left for
// manual investigation; the auditor never rewrites financial state. A Redis
// lock keeps the sweep on a single instance per tick.
type LedgerAuditor struct {
	uc        usecase.AuditUseCase
	locker    red.Locker
	interval  time.Duration
	batchSize int
	log       *zerolog.Logger
}

func NewLedgerAuditor(uc usecase.AuditUseCase, locker red.Locker, interval time.Duration, batchSize int, logger *zerolog.Logger) *LedgerAuditor {
	if interval <= 0 {
		interval = time.Hour
	}
	if batchSize <= 0 {
		batchSize = 200
	}
	compLog := logger.With().Str("component", "LedgerAuditor").Logger()
	return &LedgerAuditor{uc: uc, locker: locker, interval: interval, batchSize: batchSize, log: &compLog}
}

func (w *LedgerAuditor) Start(ctx context.Context) {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *LedgerAuditor) tick(ctx context.Context) {
	if w.locker != nil {
		token, err := w.locker.TryLock(ctx, auditorLockKey, w.interval)
		if err != nil {
			if !errors.Is(err, domain.ErrLockNotAcquired) {
				w.log.Warn().Err(err).Msg("auditor lock error")
			}
			return
		}
		defer func() { _ = w.locker.Unlock(ctx, auditorLockKey, token) }()
	}

	checked, mismatched, err := w.uc.Sweep(ctx, w.batchSize)
	if err != nil {
		w.log.Error().Err(err).Int("checked", checked).Msg("ledger sweep aborted")
		return
	}
	w.log.Info().Int("checked", checked).Int("mismatched", mismatched).Msg("ledger sweep finished")
}
