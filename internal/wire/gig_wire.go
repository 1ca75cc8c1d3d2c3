package wire

import (
	"gig-booking/internal/adaptor"
	"gig-booking/pkg/middleware"
	"gig-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireGig(
	r chi.Router,
	gigHandler *adaptor.GigHandler,
	config *utils.Config,
	log *zap.Logger,
) {
	// Role checks live in the service so each failure keeps its own code.
	r.Route("/api/gigs", func(r chi.Router) {
		r.Use(middleware.AuthJWT(config.JWT.Secret, log))

		r.Post("/", gigHandler.CreateGig)
		r.Get("/", gigHandler.ListGigs)
		r.Get("/{id}", gigHandler.GetGig)
		r.Post("/{id}/preauthorize", gigHandler.PreauthorizeGig)
		r.Post("/{id}/publish", gigHandler.PublishGig)
	})
}
