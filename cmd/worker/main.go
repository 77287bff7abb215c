package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"clubsphere/internal/config"
	"clubsphere/internal/logger"
	"clubsphere/internal/services"
	"clubsphere/internal/tasks"
)

func main() {
	cfg := config.Load()

	if err := logger.Init(logger.Config{Debug: cfg.Debug, LogToFile: cfg.LogToFile, LogsDir: cfg.LogsDir}); err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.Named("worker")

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	db, err := services.InitDB(cfg.DatabaseURL, cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := services.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Info("Shutting down worker...")
		cancel()
	}()

	var publisher *services.Publisher
	if cfg.AMQPURL != "" {
		if publisher, err = services.NewPublisher(cfg.AMQPURL); err != nil {
			log.Warnf("RabbitMQ unavailable, domain events disabled: %v", err)
			publisher = nil
		} else {
			defer publisher.Close()
		}
	}

	notifier := services.NewNotifier(db)
	memberships := services.NewMembershipService(db, notifier, publisher)
	registrations := services.NewRegistrationService(db, notifier, publisher)

	deps := tasks.Dependencies{
		DB:     db,
		Mailer: services.NewEmailService(cfg),
	}
	if cfg.StripeSecretKey != "" {
		deps.Payments = services.NewPaymentService(db, services.NewStripeService(cfg.StripeSecretKey), cfg.StripeCurrency, memberships, registrations, publisher)
		if _, err := tasks.EnsureFulfillPaymentsTask(ctx, db); err != nil {
			log.Errorf("Failed to schedule payment fulfillment: %v", err)
		}
	} else {
		log.Warn("STRIPE_SECRET_KEY not set, payment fulfillment disabled")
	}

	registry := tasks.NewRegistry()
	tasks.DefineTasks(registry, deps)

	log.Infof("Worker started, checking tasks every %s", cfg.WorkerInterval)
	tasks.NewRunner(db, registry).Run(ctx, cfg.WorkerInterval)
}
