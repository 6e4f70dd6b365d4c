package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"wishlistapp/internal/config"
	"wishlistapp/internal/http/handlers"
	"wishlistapp/internal/jobs"
	applog "wishlistapp/internal/log"
	"wishlistapp/internal/repos"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := applog.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Background profile refreshes and metafield pushes
	dispatcher := jobs.NewDispatcher(jobs.Config{
		Workers:     cfg.Sync.Workers,
		QueueSize:   cfg.Sync.QueueSize,
		MaxAttempts: cfg.Sync.MaxAttempts,
		RetryMin:    cfg.Sync.RetryMin,
		RetryMax:    cfg.Sync.RetryMax,
	})
	dispatcher.Start(context.Background())

	deps, err := handlers.NewDeps(db, cfg, dispatcher)
	if err != nil {
		log.Fatal(err)
	}
	app := handlers.NewApp(cfg, deps)
	if cfg.AdminToken == "" {
		applog.Event("admin.open", map[string]any{"hint": "set ADMIN_TOKEN to protect /app"})
	}

	go func() {
		<-ctx.Done()
		applog.Event("server.shutdown", nil)
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			applog.Fail("server.shutdown.fail", err, nil)
		}
	}()

	applog.Event("server.start", map[string]any{"port": cfg.Port, "environment": cfg.Environment})
	if err := app.Listen(":" + cfg.Port); err != nil {
		applog.Fail("server.listen.fail", err, nil)
	}

	// Drain queued pushes so the last changes reach Shopify
	drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := dispatcher.Close(drainCtx); err != nil {
		applog.Fail("jobs.drain.fail", err, nil)
	}
}
