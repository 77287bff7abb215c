package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.mongodb.org/mongo-driver/mongo"

	"clubsphere/internal/config"
	"clubsphere/internal/handlers"
	"clubsphere/internal/logger"
	authMiddleware "clubsphere/internal/middleware"
	"clubsphere/internal/services"
)

func main() {
	cfg := config.Load()

	if err := logger.Init(logger.Config{Debug: cfg.Debug, LogToFile: cfg.LogToFile, LogsDir: cfg.LogsDir}); err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.Log

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

	ctx := context.Background()

	// Verifier and Sessions stay nil interfaces when Firebase is unavailable; every credential is then rejected
	deps := handlers.Dependencies{
		JWTSecret:    cfg.JWTSecret,
		SecureCookie: cfg.IsProduction(),
	}
	authClient, err := services.InitFirebase(ctx, cfg)
	if err != nil {
		log.Warnf("Firebase initialization failed: %v", err)
		log.Warn("Auth features will not work until valid credentials are provided")
	} else {
		deps.Verifier = authClient
		deps.Sessions = authClient
	}

	var cache *services.RedisCache
	if cfg.RedisURL != "" {
		if cache, err = services.NewRedisCache(cfg.RedisURL); err != nil {
			log.Warnf("Redis unavailable, caching disabled: %v", err)
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	var audit *services.AuditLogger
	if cfg.MongoURI != "" {
		var mongoClient *mongo.Client
		if audit, mongoClient, err = services.NewAuditLogger(ctx, cfg.MongoURI, cfg.MongoDatabase); err != nil {
			log.Warnf("MongoDB unavailable, audit log disabled: %v", err)
		} else {
			defer mongoClient.Disconnect(context.Background())
		}
	}

	var publisher *services.Publisher
	if cfg.AMQPURL != "" {
		if publisher, err = services.NewPublisher(cfg.AMQPURL); err != nil {
			log.Warnf("RabbitMQ unavailable, domain events disabled: %v", err)
			publisher = nil
		} else {
			defer publisher.Close()
		}
	}

	if cfg.StripeSecretKey == "" {
		log.Warn("STRIPE_SECRET_KEY not set, payment endpoints will fail")
	}

	notifier := services.NewNotifier(db)
	memberships := services.NewMembershipService(db, notifier, publisher)
	registrations := services.NewRegistrationService(db, notifier, publisher)

	deps.Users = services.NewUserService(db, cache, audit)
	deps.Clubs = services.NewClubService(db, notifier, audit, publisher)
	deps.Events = services.NewEventService(db, audit)
	deps.Memberships = memberships
	deps.Registrations = registrations
	deps.Payments = services.NewPaymentService(db, services.NewStripeService(cfg.StripeSecretKey), cfg.StripeCurrency, memberships, registrations, publisher)
	deps.Stats = services.NewStatsService(db, cache)
	deps.Audit = audit

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = authMiddleware.ErrorHandler

	e.Use(middleware.Recover())
	e.Use(authMiddleware.RequestLogger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{cfg.ClientURL},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))

	handlers.RegisterRoutes(e, deps)

	go func() {
		log.Infof("Server starting on port %s", cfg.Port)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server stopped: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Graceful shutdown failed: %v", err)
	}
}
