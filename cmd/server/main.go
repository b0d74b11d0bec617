package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/dropwave/backend/api/handler"
	"github.com/dropwave/backend/internal/config"
	"github.com/dropwave/backend/internal/infrastructure/journal"
	"github.com/dropwave/backend/internal/infrastructure/monitor"
	pgInfra "github.com/dropwave/backend/internal/infrastructure/postgres"
	redisInfra "github.com/dropwave/backend/internal/infrastructure/redis"
	"github.com/dropwave/backend/internal/infrastructure/whatsapp"
	"github.com/dropwave/backend/internal/middleware"
	"github.com/dropwave/backend/internal/router"
	"github.com/dropwave/backend/internal/services"
	"github.com/dropwave/backend/internal/services/lifecycle"
	"github.com/dropwave/backend/pkg/clock"
	"github.com/dropwave/backend/pkg/httpcontext"
	"github.com/dropwave/backend/pkg/logger"
	"github.com/dropwave/backend/repository/postgres"
	redisRepo "github.com/dropwave/backend/repository/redis"
	dropUC "github.com/dropwave/backend/usecase/drop"
	ticketUC "github.com/dropwave/backend/usecase/ticket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})

	redisClient, err := redisInfra.NewClient(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})

	journalStore, err := journal.Open(cfg.Journal.Path, "journal")
	if err != nil {
		zapLogger.Fatal("failed to open journal store", zap.Error(err))
	}
	manager.Register("journal", func(ctx context.Context) error {
		return journalStore.Close()
	})

	mon := monitor.New(pool, redisClient, journalStore, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	dropRepo := postgres.NewDropRepository(pool)
	historyRepo := postgres.NewSendHistoryRepository(pool)
	articleRepo := postgres.NewArticleRepository(pool)
	groupRepo := redisRepo.NewGroupCache(redisClient, postgres.NewGroupRepository(pool), cfg.Redis.GroupTTL)
	orderRepo := postgres.NewOrderRepository(pool)
	ticketRepo := postgres.NewTicketRepository(pool)

	drainer := services.NewJournalDrainer(
		journalStore,
		mon,
		historyRepo,
		zapLogger,
		services.DrainerConfig{
			Interval:   cfg.Journal.DrainInterval,
			BatchSize:  cfg.Journal.BatchSize,
			MaxRetries: cfg.Journal.MaxRetry,
		},
	)
	drainer.Start()
	manager.Register("journal_drainer", func(ctx context.Context) error {
		drainer.Stop(ctx)
		return nil
	})

	recorder := services.NewFallbackRecorder(historyRepo, journalStore, mon, zapLogger)

	sysClock := clock.System()
	idGen := clock.UUID()
	location := cfg.Location()

	guard := dropUC.NewGuard(historyRepo, location)
	sender := whatsapp.NewClient(cfg.WhatsApp, zapLogger)
	executor := dropUC.NewExecutor(sender, recorder, sysClock, idGen, zapLogger, dropUC.ExecutorConfig{
		GroupConcurrency: cfg.Dispatch.GroupConcurrency,
		PairTimeout:      cfg.Dispatch.PairTimeout,
		Location:         location,
	})

	dropUseCase := dropUC.New(dropRepo, articleRepo, groupRepo, guard, executor, sysClock, idGen, zapLogger, cfg.Dispatch.Timeout)
	ticketUseCase := ticketUC.New(ticketRepo, orderRepo, sysClock, idGen, zapLogger, cfg.Ticket.DefaultTTL)

	scheduler := services.NewDropScheduler(dropUseCase, cfg.Dispatch.SweepInterval, zapLogger)
	scheduler.Start()
	manager.Register("drop_scheduler", func(ctx context.Context) error {
		scheduler.Stop(ctx)
		return nil
	})

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Drop:   apiHandler.NewDropHandler(dropUseCase, ctxAdapter, zapLogger),
		Ticket: apiHandler.NewTicketHandler(ticketUseCase, ctxAdapter, zapLogger),
		Health: apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(cfg.JWT.Secret, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}
	if cfg.HTTP.MaxConn > 0 {
		server.Concurrency = cfg.HTTP.MaxConn
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
