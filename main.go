// main.go
package main

import (
	"context"
	"log"

	"gig-booking/cmd"
	"gig-booking/internal/data/repository"
	"gig-booking/internal/payment"
	"gig-booking/internal/wire"
	"gig-booking/internal/worker"
	"gig-booking/pkg/database"
	"gig-booking/pkg/metrics"
	"gig-booking/pkg/mq"
	"gig-booking/pkg/tracing"
	"gig-booking/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.String("environment", config.App.Environment),
		zap.Bool("debug", config.App.Debug),
	)

	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	if config.Database.AutoMigrate {
		if err := database.Migrate(context.Background(), db, logger); err != nil {
			logger.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	shutdownTracer, err := tracing.InitTracer(tracing.Config{
		ServiceName:  config.App.Name,
		Environment:  config.App.Environment,
		OTLPEndpoint: config.Telemetry.OTLPEndpoint,
	})
	if err != nil {
		logger.Fatal("Failed to init tracer", zap.Error(err))
	}

	m := metrics.New("gig_booking")

	authorizer, err := payment.NewOmise(config.Payment.OmisePublicKey, config.Payment.OmiseSecretKey, logger)
	if err != nil {
		logger.Fatal("Failed to init payment provider", zap.Error(err))
	}
	logger.Info("Payment provider ready", zap.String("provider", authorizer.Provider()))

	// Initialize all repositories
	repos := repository.NewRepository(db, logger)

	// Wire all dependencies
	app := wire.Wiring(repos, config, authorizer, m, logger)

	// The relay is optional; without a broker the ledger stays in the database only.
	relayCtx, stopRelay := context.WithCancel(context.Background())
	defer stopRelay()

	var publisher *mq.Publisher
	if config.Relay.RabbitMQURL != "" {
		publisher, err = mq.NewPublisher(config.Relay.RabbitMQURL, config.Relay.Exchange)
		if err != nil {
			logger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}

		relay := worker.NewAuditRelay(repos, publisher, worker.RelayOptions{
			Interval:  config.Relay.Interval,
			BatchSize: config.Relay.BatchSize,
		}, m, logger)
		go relay.Run(relayCtx)
	}

	// Start server
	err = cmd.APIServer(app.Router, config.App.Port, logger, func(ctx context.Context) {
		stopRelay()
		if publisher != nil {
			if err := publisher.Close(); err != nil {
				logger.Warn("Failed to close RabbitMQ publisher", zap.Error(err))
			}
		}
		if err := shutdownTracer(ctx); err != nil {
			logger.Warn("Failed to flush traces", zap.Error(err))
		}
	})
	if err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}
}
