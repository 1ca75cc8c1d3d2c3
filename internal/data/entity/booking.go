package entity

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusDraft     BookingStatus = "draft"
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

// Only edges with an implemented operation are listed. Draft, cancelled and
// completed exist in the schema but nothing here moves a booking into or out
// of them.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending: {BookingStatusConfirmed},
}

func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Booking struct {
	Base
	GigID             uuid.UUID          `db:"gig_id"`
	VenueID           uuid.UUID          `db:"venue_id"`
	CreatedByUserID   uuid.UUID          `db:"created_by_user_id"`
	JobTypeID         *uuid.UUID         `db:"job_type_id"`
	WorkerUserID      *uuid.UUID         `db:"worker_user_id"`
	Status            BookingStatus      `db:"status"`
	StartsAt          *time.Time         `db:"starts_at"`
	EndsAt            *time.Time         `db:"ends_at"`
	InsuranceSnapshot *InsuranceSnapshot `db:"insurance_snapshot"`
	PaymentSnapshot   *PaymentSnapshot   `db:"payment_snapshot"`
}

func (b *Booking) IsWorker(userID uuid.UUID) bool {
	return b.WorkerUserID != nil && *b.WorkerUserID == userID
}
