// @title        BANGKA Console Gateway API
// @version      1.0
// @description  Session and authorization gateway for the BANGKA registry console.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bangka/console-gateway/internal/api"
	"github.com/bangka/console-gateway/internal/api/handler"
	"github.com/bangka/console-gateway/internal/core/service"
	"github.com/bangka/console-gateway/internal/infrastructure/backend"
	"github.com/bangka/console-gateway/internal/infrastructure/config"
	mongostore "github.com/bangka/console-gateway/internal/infrastructure/db/mongo"
	redisstore "github.com/bangka/console-gateway/internal/infrastructure/db/redis"
	"github.com/bangka/console-gateway/internal/infrastructure/queue"
	"github.com/bangka/console-gateway/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		logger.Init(logger.Options{})
		bootLog := logger.Get()
		bootLog.Fatal().Err(err).Msg("load configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "console-gateway",
	})

	mongoClient, db, err := mongostore.Connect(ctx, mongostore.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  "bangka-console-gateway",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect mongodb")
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("disconnect mongodb")
		}
	}()

	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect redis")
	}
	defer rdb.Close()

	auditRepo := mongostore.NewAuditRepository(db)
	if err := auditRepo.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("ensure audit indexes")
	}
	dispatcher := queue.NewDispatcher(cfg.AuditWorkers,
		service.NewAuditService(auditRepo, logger.Component("audit")),
		logger.Component("audit_dispatcher"))
	dispatcher.Start(context.WithoutCancel(ctx))

	shell, assets := loadBundle(cfg.StaticDir)

	e := api.NewRouter(api.Dependencies{
		Config:  cfg,
		Log:     logger.Component("http"),
		Mongo:   db,
		Redis:   rdb,
		Backend: backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout),
		Audit:   dispatcher,
		Shell:   shell,
		Assets:  assets,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("console gateway listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	dispatcher.Close()
}

// loadBundle opens the built console. A missing bundle falls back to the
// bare shell so the API stays usable.
func loadBundle(dir string) ([]byte, fs.FS) {
	log := logger.Get()
	bundle := os.DirFS(dir)

	shell, err := handler.LoadShell(bundle)
	if err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("console bundle not found, serving default shell")
		return handler.DefaultShell, nil
	}

	assets, err := fs.Sub(bundle, "assets")
	if err != nil {
		return shell, nil
	}
	return shell, assets
}
