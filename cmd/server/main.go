// Command server runs the notification service: the HTTP API plus the
// background worker that fires due reminders. main only wires dependencies;
// behavior lives in the internal packages.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"pretor/internal/execution"
	"pretor/internal/lawsuit"
	"pretor/internal/movimentation"
	"pretor/internal/notification"
	"pretor/internal/notifier"
	"pretor/internal/platform/config"
	"pretor/internal/platform/httpserver"
	"pretor/internal/platform/logger"
	"pretor/internal/platform/postgres"
	redisplatform "pretor/internal/platform/redis"
	"pretor/internal/publication"
	"pretor/internal/reconcile"
	"pretor/internal/registry"
	"pretor/internal/registry/judice"
	registrymetrics "pretor/internal/registry/metrics"
	"pretor/internal/scheduler"
	transport "pretor/internal/transport/http"
	"pretor/internal/whatsapp"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer db.Close()

	rdb, err := redisplatform.New(cfg.Redis)
	if err != nil {
		return err
	}
	if rdb == nil {
		return errors.New("REDIS_URL must be set: reminders are scheduled through redis")
	}
	defer rdb.Close()

	lawsuits := lawsuit.NewPostgresStore(db)
	movimentations := movimentation.NewPostgresStore(db)
	publications := publication.NewPostgresStore(db)
	notifications := notification.NewPostgresStore(db)
	executions := execution.NewPostgresStore(db)

	judiceClient := judice.New(cfg.Registry, log)
	sessions := registry.NewSessionManager(judiceClient)
	registryClient := registry.NewRetrying(judiceClient, sessions,
		cfg.Registry.CallTimeout, log, registrymetrics.New())

	importer := movimentation.NewImporter(movimentations)
	syncService := lawsuit.NewSyncService(lawsuits, registryClient, importer, log)
	engine := reconcile.NewEngine(registryClient, syncService,
		lawsuits, movimentations, publications, log, reconcile.NewMetrics())

	reminders := scheduler.NewRedisScheduler(rdb.Client)
	lifecycle := notification.NewLifecycle(
		notifications, movimentations, lawsuits, syncService,
		notification.NewRenderer(), whatsapp.New(cfg.Whatsapp, log), reminders,
		cfg.Scheduler.ReminderLead, log, notification.NewMetrics())

	tracker := execution.NewTracker(executions, notifications, log)
	orchestrator := notifier.New(syncService, engine, lifecycle, tracker,
		notifications, lawsuits, log)

	handler := transport.NewHandler(orchestrator, lifecycle, tracker, log)
	srv := httpserver.New(cfg.Server.Addr, transport.NewRouter(handler, rdb))
	worker := scheduler.NewWorker(reminders, lifecycle, cfg.Scheduler.PollInterval, log)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return worker.Run(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("shutdown complete")
	return nil
}
