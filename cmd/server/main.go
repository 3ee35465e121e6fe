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

	"github.com/woox/commerce-relay-go/internal/channel"
	"github.com/woox/commerce-relay-go/internal/config"
	"github.com/woox/commerce-relay-go/internal/database"
	"github.com/woox/commerce-relay-go/internal/handler"
	"github.com/woox/commerce-relay-go/internal/jobs"
	"github.com/woox/commerce-relay-go/internal/llm"
	"github.com/woox/commerce-relay-go/internal/middleware"
	"github.com/woox/commerce-relay-go/internal/redis"
	"github.com/woox/commerce-relay-go/internal/repository"
	"github.com/woox/commerce-relay-go/internal/service"
	"github.com/woox/commerce-relay-go/internal/sse"
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

	merchantRepo := repository.NewMerchantRepository(db.DB)
	customerRepo := repository.NewCustomerRepository(db.DB)
	convRepo := repository.NewConversationRepository(db.DB)
	messageRepo := repository.NewMessageRepository(db.DB)
	orderRepo := repository.NewOrderRepository(db.DB)
	productRepo := repository.NewProductRepository(db.DB)

	broker := sse.NewBroker(redisClient)
	defer broker.Close()

	registry := channel.NewRegistry()
	merchantService := service.NewMerchantService(merchantRepo, cfg.EncryptionKey)
	identityService := service.NewIdentityService(customerRepo, convRepo)
	promptBuilder := service.NewPromptBuilder(productRepo, messageRepo, cfg.HistoryWindow, cfg.CatalogLimit)
	cartStore := service.NewCartStore(redisClient)
	dispatcher := service.NewDispatcher(registry, merchantService, messageRepo, convRepo, broker)
	gateway := llm.NewGateway()

	pipeline := service.NewPipeline(service.PipelineDeps{
		Registry:         registry,
		Merchants:        merchantService,
		Identity:         identityService,
		Prompts:          promptBuilder,
		Gateway:          gateway,
		Dispatcher:       dispatcher,
		Carts:            cartStore,
		Customers:        customerRepo,
		Conversations:    convRepo,
		Messages:         messageRepo,
		Orders:           orderRepo,
		ScheduleFallback: config.DefaultScheduleMessage,
		Apology:          config.ProviderFailureMessage,
	})

	signatureMiddleware := middleware.NewWebhookSignatureMiddleware(cfg.MetaAppSecret, cfg.TelegramSecretToken)
	serviceAuthMiddleware := middleware.NewServiceAuthMiddleware(cfg.ServiceTokenHash)
	rateLimitMiddleware := middleware.NewRedisRateLimitMiddleware(redisClient.Client, config.DefaultRateLimitPerMin)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)

	webhookHandler := handler.NewWebhookHandler(pipeline, merchantService)
	apiHandler := handler.NewAPIHandler(convRepo, messageRepo, orderRepo, pipeline)
	eventsHandler := handler.NewEventsHandler(broker)

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

	r.Route("/webhooks/{channel}", func(r chi.Router) {
		r.Get("/", webhookHandler.Verify)
		r.With(signatureMiddleware.Handler, rateLimitMiddleware.Handler).
			Post("/", webhookHandler.Receive)
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(serviceAuthMiddleware.Handler)
		r.Get("/merchants/{merchantID}/conversations", apiHandler.ListConversations)
		r.Get("/merchants/{merchantID}/orders", apiHandler.ListOrders)
		r.Get("/merchants/{merchantID}/events", eventsHandler.ServeHTTP)
		r.Get("/conversations/{conversationID}/messages", apiHandler.ListMessages)
		r.Post("/conversations/{conversationID}/deliver", apiHandler.Deliver)
	})

	remarketingJob := jobs.NewRemarketingJob(
		merchantRepo, convRepo, customerRepo, dispatcher, cfg.RemarketingScanInterval(),
	)
	remarketingJob.Start()
	defer remarketingJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0,
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
