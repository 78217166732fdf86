package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/facility-ops/internal/api/http"
	"github.com/spec-kit/facility-ops/internal/api/http/handlers"
	"github.com/spec-kit/facility-ops/internal/config"
	"github.com/spec-kit/facility-ops/internal/events"
	"github.com/spec-kit/facility-ops/internal/observability"
	"github.com/spec-kit/facility-ops/internal/persistence"
	"github.com/spec-kit/facility-ops/internal/repository"
	"github.com/spec-kit/facility-ops/internal/service"
	"github.com/spec-kit/facility-ops/internal/sla"
	"github.com/spec-kit/facility-ops/internal/worker"
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

	matrix, err := buildMatrix(cfg.SLA)
	if err != nil {
		// an invalid matrix must stop the process, not surface per ticket
		logger.Fatal("invalid SLA matrix", zap.Error(err))
	}

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

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	historyRepo := repository.NewTicketHistoryRepository(pool)
	assetRepo := repository.NewAssetRepository(pool)
	technicianRepo := repository.NewTechnicianRepository(pool)
	txManager := repository.NewTxManager(pool)

	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()
	evaluator := sla.NewEvaluator(matrix)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  ticketRepo,
		HistoryRepo: historyRepo,
		Dispatcher:  dispatcher,
		Evaluator:   evaluator,
	})
	reactionRule := service.NewReactionRule(ticketRepo, redis, cfg.SLA.DedupTTL(), logger)
	assetService := service.NewAssetService(service.AssetDependencies{
		AssetRepo:  assetRepo,
		Reaction:   reactionRule,
		TxManager:  txManager,
		Dispatcher: dispatcher,
		Metrics:    metrics,
	})
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		TicketRepo:     ticketRepo,
		TechnicianRepo: technicianRepo,
		HistoryRepo:    historyRepo,
		Dispatcher:     dispatcher,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	notificationService.RegisterHandlers()

	escalationWorker := worker.NewEscalationWorker(worker.WorkerDependencies{
		TicketRepo:  ticketRepo,
		HistoryRepo: historyRepo,
		Dispatcher:  dispatcher,
		Evaluator:   evaluator,
		Metrics:     metrics,
		Logger:      logger,
		Interval:    cfg.SLA.PollInterval(),
	})
	go escalationWorker.Run(ctx)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:      handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Tickets:     handlers.NewTicketsHandler(ticketService, assignmentService),
		Assets:      handlers.NewAssetsHandler(assetService),
		Technicians: handlers.NewTechniciansHandler(technicianRepo),
		SLA:         handlers.NewSLAHandler(matrix, ticketService, metrics),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

// buildMatrix constructs the tier table from config overrides, falling back
// to the built-in defaults when none are set.
func buildMatrix(cfg config.SLAConfig) (*sla.Matrix, error) {
	if len(cfg.MatrixPairs) == 0 {
		return sla.Default(), nil
	}
	tiers := make([]sla.Tier, 0, len(cfg.MatrixPairs))
	for i, pair := range cfg.MatrixPairs {
		tiers = append(tiers, sla.Tier{
			Level:             i,
			ResponseMinutes:   pair[0],
			ResolutionMinutes: pair[1],
		})
	}
	return sla.NewMatrix(tiers)
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
