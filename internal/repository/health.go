package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type DatabaseHealthRepository struct {
	db *pgxpool.Pool
}

func NewDatabaseHealthRepository(db *pgxpool.Pool) *DatabaseHealthRepository {
	return &DatabaseHealthRepository{
		db: db,
	}
}

func (r *DatabaseHealthRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// CacheHealthRepository checks the redis instance backing the payment method cache.
type CacheHealthRepository struct {
	client redis.Cmdable
}

func NewCacheHealthRepository(client redis.Cmdable) *CacheHealthRepository {
	return &CacheHealthRepository{
		client: client,
	}
}

func (r *CacheHealthRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
