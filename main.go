package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flightbot/config"
	"flightbot/cron"
	"flightbot/database"
	airlineRepo "flightbot/database/repository/airline"
	airportRepo "flightbot/database/repository/airport"
	"flightbot/handlers"
	"flightbot/middleware"
	"flightbot/routes"
	"flightbot/services/airports"
	"flightbot/services/dialog"
	"flightbot/services/flights"
	"flightbot/services/intelligence"
	"flightbot/services/speech"
	"flightbot/services/tasks"
	"flightbot/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger := utils.GetLogger()
	defer logger.Sync()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	sessionClient := utils.GetSessionClient()

	// Airport directory.
	var airportSource airports.Source
	switch cfg.AirportSource {
	case "mongo":
		repo := airportRepo.NewMongoAirportRepo(database.MongoDatabase())
		if err := repo.EnsureIndexes(ctx); err != nil {
			logger.Warn("main: failed to ensure airport indexes", zap.Error(err))
		}
		airportSource = airports.NewMongoSource(repo)
	default:
		airportSource = airports.NewHTTPSource(cfg.AirportDataURL, &http.Client{Timeout: cfg.ExternalCallTimeout})
	}
	directory := airports.NewDirectory(airportSource, logger, cfg.ExternalCallTimeout)

	// Language model backed extraction and affirmation.
	gemini, err := intelligence.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize gemini client: %v", err)
	}
	defer gemini.Close()
	extractor := intelligence.NewSlotExtractor(gemini, logger, cfg.ExternalCallTimeout, config.Location())
	classifier := intelligence.NewAffirmationClassifier(gemini, logger, cfg.ExternalCallTimeout)

	// Flight offers.
	carriers := flights.NewCarrierTable(nil)
	if cfg.AirlinesDSN != "" {
		db, err := database.OpenAirlinesDB(cfg.AirlinesDSN)
		if err != nil {
			logger.Warn("main: airline names unavailable, using built-in table", zap.Error(err))
		} else {
			carriers = flights.LoadCarrierTable(ctx, airlineRepo.NewGormAirlineRepo(db), logger)
		}
	}
	amadeus := flights.NewAmadeusSource(ctx, flights.AmadeusConfig{
		ClientID:     cfg.AmadeusClientID,
		ClientSecret: cfg.AmadeusClientSecret,
		TokenURL:     cfg.AmadeusTokenURL,
		OffersURL:    cfg.AmadeusOffersURL,
		Currency:     cfg.OfferCurrency,
		MaxResults:   cfg.OfferMaxResults,
		ExpiryMargin: cfg.TokenExpiryMargin,
		Timeout:      cfg.ExternalCallTimeout,
	}, logger)
	offers := flights.NewOfferAggregator(
		flights.NewRateLimitedSource(amadeus, cfg.OfferRequestsPerSec),
		carriers, logger, cfg.SearchTimeout,
	)

	// Booking hand-off.
	var notifier dialog.Notifier = tasks.NewLogNotifier(logger)
	var worker *asynq.Server
	if cfg.BookingQueueEnabled {
		queue := asynq.NewClient(cron.RedisOpt())
		defer queue.Close()
		notifier = tasks.NewQueueNotifier(queue, logger)
		worker = cron.InitBookingWorker(ctx, logger)
	}

	engine := dialog.New(dialog.Deps{
		Store:      dialog.NewRedisSessionStore(sessionClient, cfg.SessionTTL),
		Airports:   directory,
		Extractor:  extractor,
		Classifier: classifier,
		Offers:     offers,
		Notifier:   notifier,
		Logger:     logger,
	}, dialog.Config{
		RetryLimit: cfg.CollectRetryLimit,
		Location:   config.Location(),
	})

	health := utils.NewHealthMonitor(map[string]utils.HealthCheck{
		"redis": func(ctx context.Context) error {
			return sessionClient.Ping(ctx).Err()
		},
		"airports": directory.Warm,
	}, cfg.ExternalCallTimeout, logger)
	health.Start(ctx, time.Minute)

	conversationHandler := handlers.NewConversationHandler(engine, logger)
	handlerBundle := &handlers.HandlerBundle{
		StartConversation: conversationHandler.StartConversation,
		PostActivity:      conversationHandler.PostActivity,
		ResetConversation: conversationHandler.ResetConversation,
		Health:            handlers.HealthHandler(health),
	}

	transcriber, err := speech.NewGoogleTranscriber(ctx, cfg.GoogleServiceAccountFile, cfg.ExternalCallTimeout)
	if err != nil {
		logger.Warn("main: voice turns disabled", zap.Error(err))
	} else {
		defer transcriber.Close()
		handlerBundle.PostVoice = handlers.NewVoiceHandler(conversationHandler, transcriber).PostVoice
	}

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.RateLimitMiddleware(cfg.MaxRequestsPerMin))

	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}
	if worker != nil {
		worker.Shutdown()
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
