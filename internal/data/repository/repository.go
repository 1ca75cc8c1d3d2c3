package repository

import (
	"context"
	"errors"

	"gig-booking/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// ErrDuplicate is returned when an insert hits a unique constraint.
var ErrDuplicate = errors.New("duplicate key")

// Transactor runs fn against a Repository bound to a single transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(repo *Repository) error) error
}

type Repository struct {
	Tx Transactor

	Venue       VenueRepository
	JobType     JobTypeRepository
	Insurance   InsuranceRepository
	Contract    ContractRepository
	Gig         GigRepository
	Booking     BookingRepository
	Audit       AuditRepository
	RelayCursor RelayCursorRepository
	SeedLock    SeedLockRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	repo := newRepository(db, log)
	repo.Tx = &pgxTransactor{db: db, log: log}
	return repo
}

func newRepository(q database.Querier, log *zap.Logger) *Repository {
	return &Repository{
		Venue:       NewVenueRepository(q, log),
		JobType:     NewJobTypeRepository(q, log),
		Insurance:   NewInsuranceRepository(q, log),
		Contract:    NewContractRepository(q, log),
		Gig:         NewGigRepository(q, log),
		Booking:     NewBookingRepository(q, log),
		Audit:       NewAuditRepository(q, log),
		RelayCursor: NewRelayCursorRepository(q, log),
		SeedLock:    NewSeedLockRepository(q, log),
	}
}

type pgxTransactor struct {
	db  database.PgxIface
	log *zap.Logger
}

func (t *pgxTransactor) WithinTx(ctx context.Context, fn func(repo *Repository) error) error {
	return database.WithinTx(ctx, t.db, func(tx pgx.Tx) error {
		repo := newRepository(tx, t.log)
		repo.Tx = joinedTx{repo: repo}
		return fn(repo)
	})
}

// joinedTx reuses the enclosing transaction for nested WithinTx calls.
type joinedTx struct {
	repo *Repository
}

func (j joinedTx) WithinTx(_ context.Context, fn func(repo *Repository) error) error {
	return fn(j.repo)
}
