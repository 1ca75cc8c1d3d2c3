package usecase

import (
	"gig-booking/internal/data/repository"
	"gig-booking/internal/payment"
	"gig-booking/pkg/metrics"
	"gig-booking/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Audit   AuditService
	Catalog CatalogService
	Gig     GigService
	Booking BookingService
}

func NewService(repo *repository.Repository, config *utils.Config, authorizer payment.Authorizer, m *metrics.Metrics, log *zap.Logger) *Service {
	audit := NewAuditService(repo, log)
	catalog := NewCatalogService(repo, audit, log)
	ownership := NewVenueOwnership()

	return &Service{
		Audit:   audit,
		Catalog: catalog,
		Gig:     NewGigService(repo, catalog, ownership, audit, authorizer, GigSettingsFromConfig(config), m, log),
		Booking: NewBookingService(repo, ownership, audit, m, log),
	}
}
