package wire

import (
	"gig-booking/internal/adaptor"
	"gig-booking/internal/data/entity"
	"gig-booking/pkg/middleware"
	"gig-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireAdmin(
	r chi.Router,
	adminHandler *adaptor.AdminHandler,
	config *utils.Config,
	log *zap.Logger,
) {
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.AuthJWT(config.JWT.Secret, log))
		r.Use(middleware.RequireRole(log, entity.RoleAdmin))

		r.Get("/audit", adminHandler.ListAuditEvents)
		r.Post("/catalog/seed", adminHandler.SeedCatalog)
	})
}
