package wire

import (
	"net/http"

	"gig-booking/internal/adaptor"
	"gig-booking/internal/data/repository"
	"gig-booking/internal/payment"
	"gig-booking/internal/usecase"
	"gig-booking/pkg/metrics"
	"gig-booking/pkg/middleware"
	"gig-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// App holds the wired router and services.
type App struct {
	Router  http.Handler
	Service *usecase.Service
}

// Wiring builds services, handlers and routes.
func Wiring(repo *repository.Repository, config *utils.Config, authorizer payment.Authorizer, m *metrics.Metrics, logger *zap.Logger) *App {
	service := usecase.NewService(repo, config, authorizer, m, logger)
	handler := adaptor.NewHandler(service, logger)

	router := setupRouter(handler, config, m, logger)

	return &App{
		Router:  otelhttp.NewHandler(router, config.App.Name),
		Service: service,
	}
}

func setupRouter(
	handler *adaptor.Handler,
	config *utils.Config,
	m *metrics.Metrics,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.ClientMeta)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS(config.App.CORSAllowedOrigins))
	if m != nil {
		r.Use(m.Middleware)
		r.Handle("/metrics", m.Handler())
	}

	wireGig(r, handler.Gig, config, logger)
	wireBooking(r, handler.Booking, config, logger)
	wireAdmin(r, handler.Admin, config, logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
