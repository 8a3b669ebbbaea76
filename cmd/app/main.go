package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"huletfish/internal/booking"
	"huletfish/internal/config"
	"huletfish/internal/db"
	"huletfish/internal/email"
	"huletfish/internal/logger"
	"huletfish/internal/offering"
	"huletfish/internal/server"
	"huletfish/internal/tracing"
	"huletfish/internal/user"

	"github.com/redis/go-redis/v9"
)

// @title Hulet Fish API
// @version 1.0
// @description Booking service for Hulet Fish cultural experiences.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	logger.Info("Starting Hulet Fish booking service", "timezone", cfg.Timezone.String())

	tp, err := tracing.NewTracerProvider(cfg.ServiceName, cfg.JaegerEndpoint)
	if err != nil {
		logger.Fatalf("Failed to initialize tracing: %v", err)
	}

	logger.Info("Connecting to database...")
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	logger.Info("Database connected")

	if err := db.RunMigrations(database, cfg.Migrations); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Migrations completed")

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	emailService := email.New(rdb, email.NewSMTPSender(
		cfg.SMTPHost,
		cfg.SMTPPort,
		cfg.SMTPUser,
		cfg.SMTPPass,
		cfg.EmailFrom,
		cfg.EmailFromName,
	))
	defer emailService.Close()
	logger.Info("Email service initialized")

	var counter booking.Counter = booking.NewPostgresCounter(database)
	if cfg.BookingIDCounter == config.CounterRedis {
		counter = booking.NewRedisCounter(rdb)
	}
	logger.Info("Booking id counter selected", "backend", cfg.BookingIDCounter)

	userRepo := user.NewRepository(database)
	offeringRepo := offering.NewRepository(database)
	bookingService := booking.NewService(
		booking.NewRepository(database),
		offeringRepo,
		userRepo,
		booking.NewGenerator(counter, cfg.Timezone),
		emailService,
		booking.Config{
			Location:           cfg.Timezone,
			CancellationWindow: cfg.CancellationWindow,
			CreateRetries:      cfg.CreateRetries,
		},
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go emailService.Start(ctx)
	go emailService.MonitorQueue(ctx, 15*time.Second)

	srv := server.New(cfg, server.Handlers{
		Users:     user.NewHandler(user.NewService(userRepo, cfg.JWTSecret)),
		Offerings: offering.NewHandler(offering.NewService(offeringRepo, userRepo)),
		Bookings:  booking.NewHandler(bookingService),
	}, map[string]server.Check{
		"db":    database.PingContext,
		"redis": emailService.Ping,
	})

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on port %s", cfg.Port)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErrChan:
		logger.Errorf("Server error: %v", err)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}
	cancel()

	if err := tracing.Shutdown(shutdownCtx, tp); err != nil {
		logger.Errorf("Error flushing traces: %v", err)
	}

	logger.Info("Server stopped")
}
