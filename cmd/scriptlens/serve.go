package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bryanwahyu/scriptlens/internal/application"
	"github.com/bryanwahyu/scriptlens/internal/application/export"
	appws "github.com/bryanwahyu/scriptlens/internal/application/workspace"
	"github.com/bryanwahyu/scriptlens/internal/config"
	"github.com/bryanwahyu/scriptlens/internal/domain/archive"
	mysqlp "github.com/bryanwahyu/scriptlens/internal/infra/db/mysql"
	pgp "github.com/bryanwahyu/scriptlens/internal/infra/db/postgres"
	"github.com/bryanwahyu/scriptlens/internal/infra/httpserver"
	minioStore "github.com/bryanwahyu/scriptlens/internal/infra/storage"
	"github.com/bryanwahyu/scriptlens/internal/logging"
	"github.com/bryanwahyu/scriptlens/internal/middleware"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config load error: %w", err)
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	svc, err := newAIService(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("ai provider init error: %w", err)
	}
	log.Info("ai provider ready", zap.String("provider", svc.Provider()))

	checkers := map[string]middleware.HealthChecker{}
	wsOpts := []appws.Option{
		appws.WithLogger(log),
		appws.WithLiveDelay(cfg.Workspace.LiveDelay),
		appws.WithMaxConcurrent(cfg.Workspace.MaxConcurrent),
	}

	// archive database, optional
	if cfg.ArchiveEnabled() {
		db, repo, err := openArchive(ctx, cfg)
		if err != nil {
			return fmt.Errorf("%s connect error: %w", cfg.Database.Driver, err)
		}
		defer db.Close()
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: db}
		wsOpts = append(wsOpts, appws.WithArchive(repo))
		log.Info("archive enabled", zap.String("driver", cfg.Database.Driver))
	}

	// init minio, optional
	var reports archive.ReportStore
	if cfg.PublishEnabled() {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			return fmt.Errorf("minio init error: %w", err)
		}
		reports = store
		checkers["storage"] = middleware.CheckFunc(store.Check)
		log.Info("report publishing enabled", zap.String("bucket", cfg.Minio.BucketName))
	}

	registry := appws.NewRegistry(svc, cfg.Workspace.MaxWorkspaces, wsOpts...)
	defer registry.Close()

	var limiter *middleware.RateLimiter
	if cfg.Server.RateLimit.Capacity > 0 {
		limiter = middleware.NewRateLimiter(cfg.Server.RateLimit.Capacity, cfg.Server.RateLimit.RefillRate)
		defer limiter.Close()
	}

	handler := httpserver.NewRouter(httpserver.Deps{
		Registry:    registry,
		Renderer:    export.NewRenderer(),
		Reports:     reports,
		Clock:       application.SystemClock{},
		Logger:      log,
		Provider:    svc.Provider(),
		APIKeys:     cfg.Server.APIKeys,
		CORSOrigins: cfg.Server.CORSOrigins,
		Limiter:     limiter,
		Checkers:    checkers,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-stop:
	}
	log.Info("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Warn("shutdown error", zap.Error(err))
	}
	return nil
}

func openArchive(ctx context.Context, cfg *config.Config) (*sql.DB, archive.Repository, error) {
	switch cfg.Database.Driver {
	case "postgres":
		db, err := pgp.Connect(ctx, cfg.DSN())
		if err != nil {
			return nil, nil, err
		}
		if err := pgp.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return db, pgp.NewArchiveRepository(db), nil
	default:
		db, err := mysqlp.Connect(ctx, cfg.DSN())
		if err != nil {
			return nil, nil, err
		}
		if err := mysqlp.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return db, mysqlp.NewArchiveRepository(db), nil
	}
}
