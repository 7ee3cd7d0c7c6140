//go:build !integration

package postgres

import (
	"context"
	"time"

	"course-payments/internal/domain/model"
	"course-payments/internal/domain/ports/repository"
	red "course-payments/internal/infra/redis"
)

// --- Mocks for Cache Decorator Tests ---

// mockInnerProcessedEventRepo mocks the database repository the decorator wraps.
type mockInnerProcessedEventRepo struct {
	RecordFunc func(ctx context.Context, tx repository.Tx, provider model.Provider, providerEventID, enrollmentID string) error
	SeenFunc   func(ctx context.Context, tx repository.Tx, provider model.Provider, providerEventID string) (bool, error)
}

func (m *mockInnerProcessedEventRepo) Record(ctx context.Context, tx repository.Tx, provider model.Provider, providerEventID, enrollmentID string) error {
	return m.RecordFunc(ctx, tx, provider, providerEventID, enrollmentID)
}
func (m *mockInnerProcessedEventRepo) Seen(ctx context.Context, tx repository.Tx, provider model.Provider, providerEventID string) (bool, error) {
	return m.SeenFunc(ctx, tx, provider, providerEventID)
}

// mockRedisClient mocks our Redis client wrapper.
type mockRedisClient struct {
	GetFunc    func(ctx context.Context, key string) (string, error)
	SetFunc    func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc    func(ctx context.Context, keys ...string) error
	PingFunc   func(ctx context.Context) error
	IncrFunc   func(ctx context.Context, key string) (int64, error)
	ExpireFunc func(ctx context.Context, key string, expiration time.Duration) error
	CloseFunc  func() error
}

var _ red.RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) Ping(ctx context.Context) error { return m.PingFunc(ctx) }
func (m *mockRedisClient) Incr(ctx context.Context, key string) (int64, error) {
	return m.IncrFunc(ctx, key)
}
func (m *mockRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return m.ExpireFunc(ctx, key, expiration)
}
func (m *mockRedisClient) Close() error { return m.CloseFunc() }
