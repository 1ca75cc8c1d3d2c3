package response

import (
	"time"

	"gig-booking/internal/data/entity"

	"github.com/google/uuid"
)

type BookingResponse struct {
	ID                string                    `json:"id"`
	GigID             string                    `json:"gig_id"`
	VenueID           string                    `json:"venue_id"`
	CreatedByUserID   string                    `json:"created_by_user_id"`
	JobTypeID         *string                   `json:"job_type_id,omitempty"`
	WorkerUserID      *string                   `json:"worker_user_id,omitempty"`
	Status            entity.BookingStatus      `json:"status"`
	StartsAt          *time.Time                `json:"starts_at,omitempty"`
	EndsAt            *time.Time                `json:"ends_at,omitempty"`
	InsuranceSnapshot *entity.InsuranceSnapshot `json:"insurance_snapshot"`
	PaymentSnapshot   *entity.PaymentSnapshot   `json:"payment_snapshot"`
	CreatedAt         time.Time                 `json:"created_at"`
	UpdatedAt         time.Time                 `json:"updated_at"`
}

func NewBookingResponse(b *entity.Booking) *BookingResponse {
	return &BookingResponse{
		ID:                b.ID.String(),
		GigID:             b.GigID.String(),
		VenueID:           b.VenueID.String(),
		CreatedByUserID:   b.CreatedByUserID.String(),
		JobTypeID:         uuidString(b.JobTypeID),
		WorkerUserID:      uuidString(b.WorkerUserID),
		Status:            b.Status,
		StartsAt:          b.StartsAt,
		EndsAt:            b.EndsAt,
		InsuranceSnapshot: b.InsuranceSnapshot,
		PaymentSnapshot:   b.PaymentSnapshot,
		CreatedAt:         b.CreatedAt,
		UpdatedAt:         b.UpdatedAt,
	}
}

func uuidString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
