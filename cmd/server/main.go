package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/mamadbah2/meatdesk/internal/config"
	"github.com/mamadbah2/meatdesk/internal/metrics"
	"github.com/mamadbah2/meatdesk/internal/repository/mongodb"
	redisrepo "github.com/mamadbah2/meatdesk/internal/repository/redis"
	"github.com/mamadbah2/meatdesk/internal/repository/sheets"
	"github.com/mamadbah2/meatdesk/internal/scheduler"
	"github.com/mamadbah2/meatdesk/internal/server/handlers"
	"github.com/mamadbah2/meatdesk/internal/server/router"
	alertsvc "github.com/mamadbah2/meatdesk/internal/service/alerts"
	commandsvc "github.com/mamadbah2/meatdesk/internal/service/commands"
	"github.com/mamadbah2/meatdesk/internal/service/predictive"
	"github.com/mamadbah2/meatdesk/internal/service/pricing"
	reportingsvc "github.com/mamadbah2/meatdesk/internal/service/reporting"
	"github.com/mamadbah2/meatdesk/internal/service/scoring"
	"github.com/mamadbah2/meatdesk/internal/service/triggers"
	whatsappsvc "github.com/mamadbah2/meatdesk/internal/service/whatsapp"
	"github.com/mamadbah2/meatdesk/pkg/clients/anthropic"
	whatsappclient "github.com/mamadbah2/meatdesk/pkg/clients/whatsapp"
	"github.com/mamadbah2/meatdesk/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoRepo, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
	if err != nil {
		baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
	}
	defer func() {
		if err := mongoRepo.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	redisClient, err := redisrepo.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		baseLogger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer func() { _ = redisClient.Close() }()

	var prices scheduler.PricePublisher
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		prices = sheetsRepo
	} else {
		baseLogger.Warn("google sheets not configured, price publication disabled")
	}

	registry := metrics.NewRegistry(prometheus.DefaultRegisterer)

	engines := reportingsvc.Engines{
		Triggers:   triggers.NewEngine(triggers.DefaultRegistry(cfg.Insights.Triggers()), baseLogger.Named("engine.triggers"), registry),
		Predictive: predictive.NewEngine(predictive.DefaultConfig()),
		Pricing:    pricing.NewEngine(cfg.Insights.Pricing()),
		Scoring:    scoring.NewEngine(scoring.DefaultConfig()),
	}
	reportingSvc := reportingsvc.NewService(mongoRepo, mongoRepo, engines, registry, cfg.Reporting.Location(), baseLogger.Named("svc.reporting"))

	aiClient := anthropic.NewClient(cfg.AI.AnthropicKey, cfg.AI.Model)
	if cfg.AI.AnthropicKey == "" {
		baseLogger.Warn("anthropic api key missing, free-text questions disabled")
	}
	assistant := whatsappsvc.NewAssistant(reportingSvc, aiClient, whatsappsvc.NewSessionManager(), baseLogger.Named("svc.assistant"))

	whatsClient := whatsappclient.NewClient(cfg.WhatsApp)
	dispatcher := alertsvc.NewDispatcher(
		redisrepo.NewDedupStore(redisClient, redisrepo.DefaultTTL),
		whatsClient,
		registry,
		cfg.WhatsApp.ManagerID,
		baseLogger.Named("svc.alerts"),
	)

	commandDispatcher := commandsvc.NewService(reportingSvc, assistant, baseLogger.Named("svc.commands"))
	messagingSvc := whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, whatsClient, commandDispatcher, baseLogger.Named("svc.whatsapp"))

	webhookHandler := handlers.NewWebhookHandler(messagingSvc, baseLogger.Named("handlers.whatsapp"))
	insightsHandler := handlers.NewInsightsHandler(reportingSvc, baseLogger.Named("handlers.insights"))
	engine := router.New(webhookHandler, insightsHandler, prometheus.DefaultGatherer, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(*cfg, reportingSvc, mongoRepo, dispatcher, prices, baseLogger.Named("scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
