package usecase

import (
	"context"
	"errors"

	"gig-booking/internal/data/repository"

	"github.com/google/uuid"
)

// ErrVenueMissing is returned by VenueOwnership when the venue does not exist.
var ErrVenueMissing = errors.New("venue does not exist")

// VenueOwnership answers whether a user owns a venue. The repository argument
// lets callers run the check inside their transaction.
type VenueOwnership interface {
	IsOwner(ctx context.Context, repo *repository.Repository, venueID, userID uuid.UUID) (bool, error)
}

type venueOwnership struct{}

func NewVenueOwnership() VenueOwnership { return venueOwnership{} }

func (venueOwnership) IsOwner(ctx context.Context, repo *repository.Repository, venueID, userID uuid.UUID) (bool, error) {
	venue, err := repo.Venue.FindByID(ctx, venueID)
	if err != nil {
		return false, err
	}
	if venue == nil {
		return false, ErrVenueMissing
	}
	return venue.OwnerID == userID, nil
}

// requireVenueOwner maps the ownership answer onto API errors.
func requireVenueOwner(ctx context.Context, o VenueOwnership, repo *repository.Repository, venueID, userID uuid.UUID) error {
	owner, err := o.IsOwner(ctx, repo, venueID, userID)
	if errors.Is(err, ErrVenueMissing) {
		return ErrVenueNotFound
	}
	if err != nil {
		return err
	}
	if !owner {
		return ErrNotVenueOwner
	}
	return nil
}
