package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/nixolabs/triage-service/internal/api/http"
	"github.com/nixolabs/triage-service/internal/api/http/handlers"
	"github.com/nixolabs/triage-service/internal/config"
	"github.com/nixolabs/triage-service/internal/events"
	"github.com/nixolabs/triage-service/internal/llm"
	"github.com/nixolabs/triage-service/internal/observability"
	"github.com/nixolabs/triage-service/internal/persistence"
	"github.com/nixolabs/triage-service/internal/realtime"
	"github.com/nixolabs/triage-service/internal/repository"
	"github.com/nixolabs/triage-service/internal/service"
	"github.com/nixolabs/triage-service/internal/slack"
	"github.com/nixolabs/triage-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	messageRepo := repository.NewMessageRepository(pool)

	var completer llm.Completer
	if client := llm.NewClient(cfg.LLM); client != nil {
		completer = client
	} else {
		logger.Warn("LLM_API_KEY not set; classification and topic extraction run on fallbacks only")
	}

	dispatcher := events.NewInMemoryDispatcher()
	realtimePublisher := realtime.NewPublisher(redis.Client, cfg.Redis.EventChannel, logger)
	realtimePublisher.RegisterHandlers(dispatcher)

	classifier := service.NewClassifier(completer, logger, metrics)
	extractor := service.NewTopicExtractor(completer, logger)
	matcher := service.NewSimilarityMatcher(ticketRepo, logger, metrics)
	groupingService := service.NewGroupingService(service.GroupingDependencies{
		TicketRepo:  ticketRepo,
		MessageRepo: messageRepo,
		Extractor:   extractor,
		Matcher:     matcher,
		Dispatcher:  dispatcher,
		Logger:      logger,
		Metrics:     metrics,
	})
	adminService := service.NewTicketAdminService(ticketRepo, messageRepo, dispatcher, logger)

	groupingWorker := worker.NewGroupingWorker(classifier, groupingService, cfg.Worker, logger)
	groupingWorker.Start()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:          handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Slack:           handlers.NewSlackHandler(groupingWorker, logger),
		Tickets:         handlers.NewTicketsHandler(adminService),
		SlackMiddleware: slack.VerifyMiddleware(cfg.Slack, logger),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
	groupingWorker.Stop()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
