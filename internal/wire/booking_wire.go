package wire

import (
	"gig-booking/internal/adaptor"
	"gig-booking/pkg/middleware"
	"gig-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireBooking(
	r chi.Router,
	bookingHandler *adaptor.BookingHandler,
	config *utils.Config,
	log *zap.Logger,
) {
	r.Route("/api/bookings", func(r chi.Router) {
		r.Use(middleware.AuthJWT(config.JWT.Secret, log))

		r.Post("/", bookingHandler.ApplyToGig)
		r.Get("/", bookingHandler.ListBookings)
		r.Post("/{id}/accept", bookingHandler.AcceptBooking)
		r.Post("/{id}/confirm-attendance", bookingHandler.ConfirmAttendance)
	})
}
