package adaptor

import (
	"net/http"

	"gig-booking/internal/dto/request"
	"gig-booking/internal/usecase"
	"gig-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type BookingHandler struct {
	service usecase.BookingService
	log     *zap.Logger
}

func NewBookingHandler(service usecase.BookingService, log *zap.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log.With(zap.String("handler", "booking")),
	}
}

// ApplyToGig handles POST /api/bookings
func (h *BookingHandler) ApplyToGig(w http.ResponseWriter, r *http.Request) {
	actor, meta, ok := requestContext(w, r)
	if !ok {
		return
	}

	var req request.ApplyToGigRequest
	if !decodeAndValidate(w, r, &req, false) {
		return
	}

	booking, err := h.service.ApplyToGig(r.Context(), actor, &req, meta)
	if err != nil {
		handleServiceError(w, h.log, err, "apply to gig")
		return
	}

	utils.ResponseCreated(w, "Application submitted successfully", booking)
}

// ListBookings handles GET /api/bookings?page=&per_page=
func (h *BookingHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	actor, _, ok := requestContext(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	req := &request.PaginatedRequest{
		Page:    utils.ParseInt(query.Get("page"), 1),
		PerPage: utils.ParseInt(query.Get("per_page"), 10),
	}
	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	bookings, err := h.service.ListBookings(r.Context(), actor, req)
	if err != nil {
		handleServiceError(w, h.log, err, "list bookings")
		return
	}

	utils.ResponseSuccess(w, "Bookings retrieved successfully", bookings)
}

// AcceptBooking handles POST /api/bookings/{id}/accept
func (h *BookingHandler) AcceptBooking(w http.ResponseWriter, r *http.Request) {
	actor, meta, ok := requestContext(w, r)
	if !ok {
		return
	}

	booking, err := h.service.AcceptBooking(r.Context(), actor, chi.URLParam(r, "id"), meta)
	if err != nil {
		handleServiceError(w, h.log, err, "accept booking")
		return
	}

	utils.ResponseSuccess(w, "Booking accepted successfully", booking)
}

// ConfirmAttendance handles POST /api/bookings/{id}/confirm-attendance
func (h *BookingHandler) ConfirmAttendance(w http.ResponseWriter, r *http.Request) {
	actor, meta, ok := requestContext(w, r)
	if !ok {
		return
	}

	booking, err := h.service.ConfirmAttendance(r.Context(), actor, chi.URLParam(r, "id"), meta)
	if err != nil {
		handleServiceError(w, h.log, err, "confirm attendance")
		return
	}

	utils.ResponseSuccess(w, "Attendance confirmed", booking)
}
