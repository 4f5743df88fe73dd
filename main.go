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
	echoMw "github.com/labstack/echo/v4/middleware"
	"github.com/manos-expertas/scheduling-service/config"
	"github.com/manos-expertas/scheduling-service/internal/consumer"
	"github.com/manos-expertas/scheduling-service/internal/handler"
	"github.com/manos-expertas/scheduling-service/internal/middleware"
	"github.com/manos-expertas/scheduling-service/internal/repository"
	"github.com/manos-expertas/scheduling-service/internal/service"
	"github.com/manos-expertas/scheduling-service/pkg/cache"
	"github.com/manos-expertas/scheduling-service/pkg/database"
	"github.com/manos-expertas/scheduling-service/pkg/logger"
	"github.com/manos-expertas/scheduling-service/pkg/rabbitmq"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.IsProduction())
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	db, err := database.NewPostgresDB(cfg.DSN())
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Repositories
	workerRepo := repository.NewWorkerRepository(db)
	userRepo := repository.NewUserRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	reviewRepo := repository.NewReviewRepository(db)

	// RabbitMQ consumer: sync worker and user profiles from the directory
	mqConsumer, err := rabbitmq.NewConsumer(cfg.RabbitURL, log)
	if err != nil {
		log.Fatal("failed to connect to RabbitMQ", zap.Error(err))
	}
	defer mqConsumer.Close()

	msgs, err := mqConsumer.Consume()
	if err != nil {
		log.Fatal("failed to start consuming", zap.Error(err))
	}
	consumer.NewDirectoryConsumer(workerRepo, userRepo, log).Start(msgs)

	publisher, err := rabbitmq.NewPublisher(cfg.RabbitURL, log)
	if err != nil {
		log.Fatal("failed to connect to RabbitMQ", zap.Error(err))
	}
	defer publisher.Close()

	// Rating cache is optional; without Redis every aggregate hits the database
	var ratingCache service.RatingCache
	if cfg.RedisAddr != "" {
		client, err := cache.NewRedisClient(context.Background(), cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Warn("rating cache disabled", zap.Error(err))
		} else {
			defer client.Close()
			ratingCache = cache.NewRatingCache(client, cfg.RatingCacheTTL, log)
		}
	}

	// Services
	bookingSvc := service.NewBookingService(bookingRepo, workerRepo, userRepo, cfg.MaxHoursPerDay, log)
	availabilitySvc := service.NewAvailabilityService(bookingRepo, workerRepo, cfg.MaxHoursPerDay)
	ratingSvc := service.NewRatingService(reviewRepo, bookingRepo, ratingCache, log)

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.Validator = middleware.NewValidator()
	e.HTTPErrorHandler = middleware.NewErrorHandler(log)
	e.Use(echoMw.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(echoMw.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "service": "scheduling-service"})
	})

	api := e.Group("/api/v1")
	handler.NewBookingHandler(bookingSvc, availabilitySvc, publisher, cfg.MaxAvailabilityDays, log).RegisterRoutes(api)
	handler.NewReviewHandler(ratingSvc, publisher, log).RegisterRoutes(api)

	go func() {
		log.Info("scheduling service starting", zap.String("port", cfg.ServerPort))
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
	log.Info("scheduling service stopped")
}
