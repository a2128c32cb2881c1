package service

import (
	"context"

	"withdrawal-service/internal/repository"
)

// Transactor runs fn in a single database transaction, handing it the transaction as ext.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, ext repository.RepoExtension) error) error
}
