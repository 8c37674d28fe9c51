package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cclient/license-server-go/internal/config"
	"github.com/cclient/license-server-go/internal/database"
	"github.com/cclient/license-server-go/internal/handler"
	"github.com/cclient/license-server-go/internal/jobs"
	"github.com/cclient/license-server-go/internal/middleware"
	"github.com/cclient/license-server-go/internal/notify"
	"github.com/cclient/license-server-go/internal/redis"
	"github.com/cclient/license-server-go/internal/repository"
	"github.com/cclient/license-server-go/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("FLY_APP_NAME") != ""
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	licenseRepo := repository.NewLicenseRepository(db.DB)
	codeRepo := repository.NewAccessCodeRepository(db.DB)
	subRepo := repository.NewSubscriptionRepository(db.DB)
	authRepo := repository.NewAuthRequestRepository(db)
	banRepo := repository.NewBanRepository(db.DB)
	activityRepo := repository.NewActivityRepository(db.DB)
	messageRepo := repository.NewMessageRepository(db.DB)

	subscriptionService := service.NewSubscriptionService(subRepo, activityRepo)
	banService := service.NewBanService(banRepo, activityRepo)
	licenseService := service.NewLicenseService(
		licenseRepo, activityRepo, banService, subscriptionService, cfg.DeviceStaleAfter(),
	)
	codeService := service.NewAccessCodeService(codeRepo, banService, subscriptionService)
	messageService := service.NewMessageService(messageRepo)

	var (
		notifier  notify.Notifier
		responder handler.CallbackResponder
	)
	if cfg.TelegramBotToken != "" {
		tg := notify.NewTelegramNotifier(cfg.TelegramBotToken)
		notifier, responder = tg, tg
	} else {
		log.Warn().Msg("running without a Telegram bot token: approval prompts are disabled")
		notifier, responder = notify.NopNotifier{}, notify.NopNotifier{}
	}

	authService := service.NewAuthRequestService(authRepo, codeService, notifier, cfg.AuthRequestTTL())
	telegramHandler := handler.NewTelegramHandler(authService, responder)

	sweeper := jobs.NewSweeper(authRepo, subRepo, activityRepo, codeRepo, cfg.SweepBatchSize)

	rateLimitMiddleware := middleware.NewRedisRateLimitMiddleware(redisClient.Client, cfg.RateLimitPerMin)
	adminKeyMiddleware := middleware.NewAdminKeyMiddleware(cfg.AdminAPIKey)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)

	deviceHandler := handler.NewDeviceHandler(licenseService, codeService, authService, messageService)
	adminHandler := handler.NewAdminHandler(licenseService, subscriptionService, banService, messageService, sweeper)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(bodyLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(rateLimitMiddleware.Handler)
		r.Mount("/", deviceHandler.Routes())
	})

	r.Post("/telegram/webhook", telegramHandler.Webhook)

	r.Route("/admin", func(r chi.Router) {
		r.Use(adminKeyMiddleware.Handler)
		r.Mount("/", adminHandler.Routes())
	})

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
