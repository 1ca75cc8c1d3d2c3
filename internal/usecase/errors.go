package usecase

import "gig-booking/pkg/apperr"

// Stable failure codes returned to API clients.
var (
	ErrForbiddenRole = apperr.Forbidden("FORBIDDEN", "Your role cannot perform this action")

	ErrGigNotFound      = apperr.NotFound("GIG_NOT_FOUND", "Gig not found")
	ErrVenueNotFound    = apperr.NotFound("VENUE_NOT_FOUND", "Venue not found")
	ErrNotVenueOwner    = apperr.Forbidden("NOT_VENUE_OWNER", "You do not own this venue")
	ErrJobTypeNotFound  = apperr.NotFound("JOB_TYPE_NOT_FOUND", "Job type not found")
	ErrProductNotFound  = apperr.NotFound("INSURANCE_PRODUCT_NOT_FOUND", "Insurance product not found")
	ErrTemplateNotFound = apperr.NotFound("CONTRACT_TEMPLATE_NOT_FOUND", "Contract template not found")

	ErrGigNotDraft         = apperr.Conflict("GIG_NOT_DRAFT", "Gig must be a draft")
	ErrGigNotPreauthorized = apperr.Conflict("GIG_NOT_PREAUTHORIZED", "Gig must be preauthorized before publishing")
	ErrGigNotPublished     = apperr.Conflict("GIG_NOT_PUBLISHED", "You can only apply to published gigs")

	ErrJobTypeRequired       = apperr.Precondition("JOB_TYPE_REQUIRED", "Gig has no job type")
	ErrInsuranceRequired     = apperr.Precondition("INSURANCE_REQUIRED", "No insurance product could be resolved")
	ErrContractRequired      = apperr.Precondition("CONTRACT_REQUIRED", "No contract template could be resolved")
	ErrPaymentMethodRequired = apperr.Precondition("PAYMENT_METHOD_REQUIRED", "Provide a card token or register a payment customer for the venue")

	ErrOnlyWorkerCanApply   = apperr.Forbidden("ONLY_WORKER_CAN_APPLY", "Only workers can apply to gigs")
	ErrWorkerCannotAccept   = apperr.Forbidden("WORKER_CANNOT_ACCEPT", "Workers cannot accept bookings")
	ErrOnlyWorkerCanConfirm = apperr.Forbidden("ONLY_WORKER_CAN_CONFIRM_ATTENDANCE", "Only workers can confirm attendance")
	ErrNotBookingWorker     = apperr.Forbidden("NOT_BOOKING_WORKER", "This booking belongs to another worker")
	ErrBookingNotFound      = apperr.NotFound("BOOKING_NOT_FOUND", "Booking not found")
	ErrBookingNotPending    = apperr.Conflict("BOOKING_NOT_PENDING", "Only pending bookings can be accepted")
	ErrBookingNotConfirmed  = apperr.Conflict("BOOKING_NOT_CONFIRMED", "Attendance can be confirmed only after the venue accepted the booking")
)

func errPayBelowMinimum(minimum string) *apperr.Error {
	return apperr.Precondition("PAY_BELOW_MINIMUM", "pay_amount must be positive and at least "+minimum)
}

func errPreauthFailed(err error) *apperr.Error {
	return apperr.Unavailable("PAYMENT_PREAUTH_FAILED", "Payment preauthorization failed", err)
}
