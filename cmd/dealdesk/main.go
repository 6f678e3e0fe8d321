// DealDesk — Multi-Tenant Sales Pipeline CRM
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	dealdeskapi "github.com/dealdesk/dealdesk/internal/api"
	"github.com/dealdesk/dealdesk/internal/api/handler"
	"github.com/dealdesk/dealdesk/internal/auth"
	"github.com/dealdesk/dealdesk/internal/blob"
	"github.com/dealdesk/dealdesk/internal/config"
	"github.com/dealdesk/dealdesk/internal/db"
	"github.com/dealdesk/dealdesk/internal/health"
	"github.com/dealdesk/dealdesk/internal/invite"
	"github.com/dealdesk/dealdesk/internal/live"
	"github.com/dealdesk/dealdesk/internal/observability"
	"github.com/dealdesk/dealdesk/internal/seed"
	"github.com/dealdesk/dealdesk/internal/store"
	"github.com/dealdesk/dealdesk/internal/version"
	"github.com/dealdesk/dealdesk/internal/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Observability -------------------------------------------------------
	obs, log, err := observability.New(ctx, &observability.Config{
		ServiceName:    "dealdesk",
		ServiceVersion: version.Version,
		LogLevel:       cfg.Log.Level,
		LogFormat:      cfg.Log.Format,
		OTLPEndpoint:   cfg.OTel.OTLPEndpoint,
	})
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}
	defer obs.Shutdown(context.Background())
	slog.SetDefault(log)
	log.Info("starting dealdesk", "version", version.Version, "commit", version.Commit, "db_driver", cfg.DB.Driver)

	// --- Database ------------------------------------------------------------
	// db.New opens the connection, runs migrations (AutoMigrate for SQLite,
	// golang-migrate for Postgres), and returns the GORM handle plus an
	// optional pgxpool (non-nil only for postgres, used by River).
	gormDB, pool, err := db.New(ctx, &cfg.DB)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	if pool != nil {
		defer pool.Close()
	}
	log.Info("database ready", "driver", cfg.DB.Driver)

	// --- Seed owner ----------------------------------------------------------
	if err := seed.EnsureOwner(ctx, gormDB, seed.OwnerOptions{
		Email:    cfg.App.SeedOwnerEmail,
		Password: cfg.App.SeedOwnerPassword,
		OrgName:  cfg.App.SeedOrgName,
	}, log); err != nil {
		return fmt.Errorf("seed owner: %w", err)
	}

	// --- Live snapshot fanout ------------------------------------------------
	hub := live.NewHub()
	var bus live.Broadcaster = hub
	if cfg.Redis.URL != "" {
		redisOpts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("parse redis url: %w", err)
		}
		bridge := live.NewRedisBridge(hub, redis.NewClient(redisOpts), log)
		go bridge.Run(ctx)
		bus = bridge
		log.Info("redis live fanout enabled")
	}

	st := store.New(gormDB, bus, log)
	invites := invite.NewService(gormDB, cfg.Invite.TTL)
	refresh := auth.NewRefreshStore(gormDB, cfg.JWT.RefreshTTL)

	// --- Blob storage --------------------------------------------------------
	blobs, err := blob.NewFSStore(cfg.Blob.Dir, cfg.Blob.BaseURL)
	if err != nil {
		return fmt.Errorf("init blob store: %w", err)
	}

	// --- Worker queue --------------------------------------------------------
	// River migrations only run when Postgres is available.
	if pool != nil {
		if err := worker.MigrateRiver(ctx, pool); err != nil {
			return fmt.Errorf("river migrations: %w", err)
		}
		log.Info("river migrations applied")
	}

	wq, err := worker.New(ctx, pool, cfg.DB.Driver, cfg.Worker.Concurrency, invites, log)
	if err != nil {
		return fmt.Errorf("create worker: %w", err)
	}
	if err := wq.Start(ctx); err != nil {
		return fmt.Errorf("start worker: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := wq.Stop(stopCtx); err != nil {
			log.Error("worker stop error", "err", err)
		}
	}()

	// --- HTTP routes ---------------------------------------------------------
	mux := http.NewServeMux()
	dealdeskapi.RegisterRoutes(mux, dealdeskapi.Handlers{
		Health:      health.New(db.NewPinger(gormDB)),
		Auth:        handler.NewAuthHandler(st, invites, refresh, cfg.JWT.Secret, cfg.JWT.AccessTTL),
		Deals:       handler.NewDealHandler(st),
		Pipeline:    handler.NewPipelineHandler(st),
		Fields:      handler.NewCustomFieldHandler(st),
		Notes:       handler.NewNoteHandler(st, blobs, log),
		Team:        handler.NewTeamHandler(st, invites),
		Profile:     handler.NewProfileHandler(st, blobs, log),
		Reports:     handler.NewReportHandler(st),
		Live:        handler.NewLiveHandler(hub, log),
		JWTSecret:   cfg.JWT.Secret,
		UploadsDir:  cfg.Blob.Dir,
		UploadsPath: cfg.Blob.BaseURL,
	})
	// Prometheus metrics endpoint
	mux.Handle("GET /metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Start server --------------------------------------------------------
	log.Info("http server listening", "addr", srv.Addr)
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info("server stopped cleanly")
	return nil
}
