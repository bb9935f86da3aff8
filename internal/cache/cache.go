package cache

import (
	"context"
	"time"

	"zirng/backend/internal/domain"
)

// CatalogCache holds a short-lived copy of the product catalog. Only the
// catalog is cached: it is read-only to the engine, so a stale entry can
// never desynchronize balances or statistics.
type CatalogCache interface {
	Get(ctx context.Context, key string) ([]domain.Product, bool, error)
	Set(ctx context.Context, key string, products []domain.Product, ttl time.Duration) error
}

type NoopCatalogCache struct{}

func (NoopCatalogCache) Get(_ context.Context, _ string) ([]domain.Product, bool, error) {
	return nil, false, nil
}

func (NoopCatalogCache) Set(_ context.Context, _ string, _ []domain.Product, _ time.Duration) error {
	return nil
}
