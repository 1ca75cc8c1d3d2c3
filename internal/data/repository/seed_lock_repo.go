package repository

import (
	"context"
	"fmt"

	"gig-booking/pkg/database"

	"go.uber.org/zap"
)

// SeedLockRepository serializes check-then-insert seeding across
// connections. The lock is held until the surrounding transaction ends.
type SeedLockRepository interface {
	Lock(ctx context.Context, name string) error
}

type seedLockRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewSeedLockRepository(db database.Querier, log *zap.Logger) SeedLockRepository {
	return &seedLockRepository{
		db:  db,
		log: log.With(zap.String("repository", "seed_lock")),
	}
}

func (r *seedLockRepository) Lock(ctx context.Context, name string) error {
	if _, err := r.db.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, name); err != nil {
		r.log.Error("Failed to take seed lock", zap.Error(err), zap.String("name", name))
		return fmt.Errorf("seed lock %s: %w", name, err)
	}
	return nil
}
