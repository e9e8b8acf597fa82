package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"

	"github.com/abanoub-dev/score-tracker/config"
	"github.com/abanoub-dev/score-tracker/db"
	"github.com/abanoub-dev/score-tracker/handlers"
	"github.com/abanoub-dev/score-tracker/live"
	"github.com/abanoub-dev/score-tracker/middleware"
	"github.com/abanoub-dev/score-tracker/repositories"
	api "github.com/abanoub-dev/score-tracker/routes"
	"github.com/abanoub-dev/score-tracker/services"
	"github.com/abanoub-dev/score-tracker/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	var uploader storage.FileUploader
	if cfg.ArchivingEnabled() {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Info("game result archiving disabled")
	}

	wsHub := live.NewHub(logger)
	go wsHub.Run()
	logger.Info("WebSocket hub started")

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	historyRepo := repositories.NewPostgresScoreHistoryRepository(dbConn)
	lastActionRepo := repositories.NewPostgresLastActionRepository(dbConn)
	cardRepo := repositories.NewPostgresCardPenaltyRepository(dbConn)
	sessionRepo := repositories.NewPostgresGameSessionRepository(dbConn)
	resultRepo := repositories.NewPostgresTeamResultRepository(dbConn)
	txManager := repositories.NewTxManager(dbConn)
	logger.Info("repositories initialized")

	authService := services.NewAuthService(userRepo)
	teamService := services.NewTeamService(teamRepo)
	ledgerService := services.NewLedgerService(txManager, teamRepo, historyRepo, lastActionRepo, cardRepo)
	sessionService := services.NewSessionService(sessionRepo, resultRepo, uploader, logger)
	trackerService := services.NewTrackerService(teamService, ledgerService, sessionService, wsHub, logger)
	logger.Info("services initialized")

	timersCtx, stopTimers := context.WithCancel(context.Background())
	defer stopTimers()
	go trackerService.RunTimers(timersCtx)
	logger.Info("countdown timers started")

	authHandler := handlers.NewAuthHandler(authService, cfg.JWTSecretKey)
	teamHandler := handlers.NewTeamHandler(trackerService)
	sessionHandler := handlers.NewSessionHandler(trackerService)
	timerHandler := handlers.NewTimerHandler(trackerService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, logger)
	authenticator := middleware.NewAuthenticator(cfg.JWTSecretKey)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		authenticator,
		authHandler,
		teamHandler,
		sessionHandler,
		timerHandler,
		webSocketHandler,
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
