package postgres

import (
	"context"
	"fmt"
	"time"

	"course-payments/internal/domain"
	"course-payments/internal/domain/model"
	"course-payments/internal/domain/ports/repository"
	"course-payments/internal/infra/metrics"
	red "course-payments/internal/infra/redis"
)

var _ repository.ProcessedEventRepository = (*processedEventRepoCacheDecorator)(nil)

// processedEventRepoCacheDecorator keeps a Redis shadow of the idempotency
// set so replayed deliveries can short-circuit before touching Postgres.
// The unique index stays authoritative: Record always goes to the database,
// and the cache is only written for facts already durable there.
type processedEventRepoCacheDecorator struct {
	inner repository.ProcessedEventRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewProcessedEventRepoCacheDecorator(inner repository.ProcessedEventRepository, cache red.RedisClient, ttl time.Duration) repository.ProcessedEventRepository {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &processedEventRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl}
}

func eventKey(provider model.Provider, providerEventID string) string {
	return fmt.Sprintf("pe:%s:%s", provider, providerEventID)
}

func (d *processedEventRepoCacheDecorator) Record(ctx context.Context, tx repository.Tx, provider model.Provider, providerEventID, enrollmentID string) error {
	err := d.inner.Record(ctx, tx, provider, providerEventID, enrollmentID)
	// Only a confirmed duplicate is safe to cache here; a fresh insert is
	// still inside an uncommitted transaction.
	if err == domain.ErrDuplicateEvent {
		_ = d.cache.Set(ctx, eventKey(provider, providerEventID), "1", d.ttl)
	}
	return err
}

func (d *processedEventRepoCacheDecorator) Seen(ctx context.Context, tx repository.Tx, provider model.Provider, providerEventID string) (bool, error) {
	key := eventKey(provider, providerEventID)
	if _, err := d.cache.Get(ctx, key); err == nil {
		metrics.IncCacheRequest("processed_event", "hit")
		return true, nil
	}

	metrics.IncCacheRequest("processed_event", "miss")
	seen, err := d.inner.Seen(ctx, tx, provider, providerEventID)
	if err != nil {
		return false, err
	}
	if seen {
		_ = d.cache.Set(ctx, key, "1", d.ttl)
	}
	return seen, nil
}
