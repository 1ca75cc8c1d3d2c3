package usecase

import (
	"context"
	"fmt"
	"time"

	"gig-booking/internal/data/entity"
	"gig-booking/internal/data/repository"
	"gig-booking/internal/dto/request"
	"gig-booking/internal/dto/response"
	"gig-booking/pkg/apperr"
	"gig-booking/pkg/metrics"
	"gig-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BookingService interface {
	// Worker endpoints
	ApplyToGig(ctx context.Context, actor entity.Actor, req *request.ApplyToGigRequest, meta entity.ClientMeta) (*response.BookingResponse, error)
	ConfirmAttendance(ctx context.Context, actor entity.Actor, bookingID string, meta entity.ClientMeta) (*response.BookingResponse, error)

	// Venue and admin endpoints
	AcceptBooking(ctx context.Context, actor entity.Actor, bookingID string, meta entity.ClientMeta) (*response.BookingResponse, error)

	ListBookings(ctx context.Context, actor entity.Actor, req *request.PaginatedRequest) (*response.PaginatedResponse[*response.BookingResponse], error)
}

type bookingService struct {
	repo      *repository.Repository
	ownership VenueOwnership
	audit     AuditService
	metrics   *metrics.Metrics
	log       *zap.Logger
}

func NewBookingService(repo *repository.Repository, ownership VenueOwnership, audit AuditService, m *metrics.Metrics, log *zap.Logger) BookingService {
	return &bookingService{
		repo:      repo,
		ownership: ownership,
		audit:     audit,
		metrics:   m,
		log:       log.With(zap.String("service", "booking")),
	}
}

func parseBookingID(raw string) (uuid.UUID, error) {
	id, err := utils.ParseUUID(raw)
	if err != nil {
		return uuid.Nil, apperr.Invalid("INVALID_BOOKING_ID", "booking id must be a UUID")
	}
	return id, nil
}

func (s *bookingService) ApplyToGig(ctx context.Context, actor entity.Actor, req *request.ApplyToGigRequest, meta entity.ClientMeta) (*response.BookingResponse, error) {
	if !actor.Is(entity.RoleWorker) {
		return nil, ErrOnlyWorkerCanApply
	}
	gigID, err := parseGigID(req.GigID)
	if err != nil {
		return nil, err
	}

	var booking *entity.Booking
	err = s.repo.Tx.WithinTx(ctx, func(repo *repository.Repository) error {
		gig, err := repo.Gig.FindByID(ctx, gigID)
		if err != nil {
			return err
		}
		if gig == nil {
			return ErrGigNotFound
		}
		if gig.PublishStatus != entity.GigStatusPublished {
			return ErrGigNotPublished
		}

		now := time.Now().UTC()
		worker := actor.UserID
		startsAt := gig.StartTime
		endsAt := gig.EndTime
		booking = &entity.Booking{
			Base:              entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
			GigID:             gig.ID,
			VenueID:           gig.VenueID,
			CreatedByUserID:   actor.UserID,
			JobTypeID:         gig.JobTypeID,
			WorkerUserID:      &worker,
			Status:            entity.BookingStatusPending,
			StartsAt:          &startsAt,
			EndsAt:            &endsAt,
			InsuranceSnapshot: gig.InsuranceSnapshot.Clone(),
		}

		if err := repo.Booking.Create(ctx, booking); err != nil {
			return err
		}

		return s.audit.Log(ctx, repo, AuditEntry{
			Actor:      &actor,
			EntityType: entity.AuditEntityBooking,
			EntityID:   &booking.ID,
			Action:     entity.ActionBookingApplied,
			Payload: map[string]any{
				"booking_id": booking.ID.String(),
				"gig_id":     gig.ID.String(),
				"venue_id":   gig.VenueID.String(),
				"status":     string(booking.Status),
			},
			Meta: meta,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Transition(string(entity.AuditEntityBooking), string(entity.ActionBookingApplied))
	s.log.Info("Worker applied to gig",
		zap.String("booking_id", booking.ID.String()),
		zap.String("gig_id", booking.GigID.String()),
	)

	return response.NewBookingResponse(booking), nil
}

func (s *bookingService) AcceptBooking(ctx context.Context, actor entity.Actor, bookingID string, meta entity.ClientMeta) (*response.BookingResponse, error) {
	if !actor.Is(entity.RoleVenue, entity.RoleAdmin) {
		return nil, ErrWorkerCannotAccept
	}
	id, err := parseBookingID(bookingID)
	if err != nil {
		return nil, err
	}

	var accepted *entity.Booking
	err = s.repo.Tx.WithinTx(ctx, func(repo *repository.Repository) error {
		booking, err := repo.Booking.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if booking == nil {
			return ErrBookingNotFound
		}

		// ownership before state, so non-owners learn nothing about the booking
		if !actor.Is(entity.RoleAdmin) {
			if err := requireVenueOwner(ctx, s.ownership, repo, booking.VenueID, actor.UserID); err != nil {
				return err
			}
		}
		if !booking.Status.CanTransitionTo(entity.BookingStatusConfirmed) {
			return ErrBookingNotPending
		}

		now := time.Now().UTC()
		if err := repo.Booking.UpdateStatus(ctx, booking.ID, entity.BookingStatusConfirmed, now); err != nil {
			return err
		}
		from := booking.Status
		booking.Status = entity.BookingStatusConfirmed
		booking.UpdatedAt = now

		if err := s.audit.Log(ctx, repo, AuditEntry{
			Actor:      &actor,
			EntityType: entity.AuditEntityBooking,
			EntityID:   &booking.ID,
			Action:     entity.ActionBookingAccepted,
			Payload: map[string]any{
				"gig_id": booking.GigID.String(),
				"from":   string(from),
				"to":     string(booking.Status),
			},
			Meta: meta,
		}); err != nil {
			return err
		}

		accepted = booking
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Transition(string(entity.AuditEntityBooking), string(entity.ActionBookingAccepted))
	s.log.Info("Booking accepted",
		zap.String("booking_id", accepted.ID.String()),
		zap.String("role", string(actor.Role)),
	)

	return response.NewBookingResponse(accepted), nil
}

// ConfirmAttendance records the worker's confirmation. The booking status is
// left as is.
func (s *bookingService) ConfirmAttendance(ctx context.Context, actor entity.Actor, bookingID string, meta entity.ClientMeta) (*response.BookingResponse, error) {
	if !actor.Is(entity.RoleWorker) {
		return nil, ErrOnlyWorkerCanConfirm
	}
	id, err := parseBookingID(bookingID)
	if err != nil {
		return nil, err
	}

	var booking *entity.Booking
	err = s.repo.Tx.WithinTx(ctx, func(repo *repository.Repository) error {
		var err error
		booking, err = repo.Booking.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if booking == nil {
			return ErrBookingNotFound
		}
		if !booking.IsWorker(actor.UserID) {
			return ErrNotBookingWorker
		}
		if booking.Status != entity.BookingStatusConfirmed {
			return ErrBookingNotConfirmed
		}

		return s.audit.Log(ctx, repo, AuditEntry{
			Actor:      &actor,
			EntityType: entity.AuditEntityBooking,
			EntityID:   &booking.ID,
			Action:     entity.ActionAttendanceConfirmed,
			Payload: map[string]any{
				"gig_id": booking.GigID.String(),
				"status": string(booking.Status),
			},
			Meta: meta,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Transition(string(entity.AuditEntityBooking), string(entity.ActionAttendanceConfirmed))
	s.log.Info("Attendance confirmed", zap.String("booking_id", booking.ID.String()))

	return response.NewBookingResponse(booking), nil
}

// ListBookings is not scoped by role yet: every authenticated caller sees
// every booking.
func (s *bookingService) ListBookings(ctx context.Context, actor entity.Actor, req *request.PaginatedRequest) (*response.PaginatedResponse[*response.BookingResponse], error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit()

	bookings, err := s.repo.Booking.FindAll(ctx, limit, utils.CalculateOffset(page, limit))
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	total, err := s.repo.Booking.CountAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("count bookings: %w", err)
	}

	s.log.Debug("Bookings listed",
		zap.String("role", string(actor.Role)),
		zap.Int("count", len(bookings)),
	)

	data := make([]*response.BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		data = append(data, response.NewBookingResponse(b))
	}

	return response.NewPaginatedResponse(data, page, limit, total), nil
}
