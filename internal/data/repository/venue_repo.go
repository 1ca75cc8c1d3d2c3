package repository

import (
	"context"
	"fmt"

	"gig-booking/internal/data/entity"
	"gig-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type VenueRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Venue, error)
}

type venueRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewVenueRepository(db database.Querier, log *zap.Logger) VenueRepository {
	return &venueRepository{
		db:  db,
		log: log.With(zap.String("repository", "venue")),
	}
}

func (r *venueRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Venue, error) {
	query := `
		SELECT id, owner_id, name, payment_customer_id, created_at, updated_at
		FROM venues
		WHERE id = $1
	`

	var venue entity.Venue
	err := r.db.QueryRow(ctx, query, id).Scan(
		&venue.ID,
		&venue.OwnerID,
		&venue.Name,
		&venue.PaymentCustomerID,
		&venue.CreatedAt,
		&venue.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find venue by ID",
			zap.Error(err),
			zap.String("venue_id", id.String()),
		)
		return nil, fmt.Errorf("find venue by ID %s: %w", id.String(), err)
	}

	return &venue, nil
}
