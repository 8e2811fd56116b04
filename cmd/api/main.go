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

	"companion-platform/internal/audit"
	"companion-platform/internal/auth"
	"companion-platform/internal/calls"
	"companion-platform/internal/config"
	"companion-platform/internal/httpapi"
	"companion-platform/internal/metrics"
	"companion-platform/internal/onboarding"
	"companion-platform/internal/payment"
	"companion-platform/internal/paywall"
	"companion-platform/internal/rbac"
	"companion-platform/internal/reporting"
	"companion-platform/internal/wallet"
	"companion-platform/pkg/logger"
	"companion-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// .env is optional; real environments set variables directly.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("dotenv load failed", "err", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := utils.ApplySchema(rootCtx, db, wallet.Schema, audit.Schema); err != nil {
		log.Error("schema init failed", "err", err)
		os.Exit(1)
	}

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	walletSvc := wallet.NewService(wallet.NewPostgresStore(db))
	auditSvc := audit.NewService(audit.NewPostgresRepo(db))
	recorder := audit.NewRecorder(auditSvc, log, 1024)

	catalog := paywall.DefaultCatalog()
	adapter := payment.NewAdapter(cfg.Payment)
	broker := payment.NewBroker(adapter)

	manager := calls.NewManager(calls.ManagerOptions{
		Call:         cfg.Call,
		Catalog:      catalog,
		Handoff:      broker,
		Entitlements: walletSvc,
		Observers:    []calls.Observer{recorder, metrics.Observer()},
		Logger:       log,
	})

	go manager.Run(rootCtx, cfg.Call.SeatIdleTimeout/4, cfg.Call.SeatIdleTimeout)

	h := httpapi.Handlers{
		Auth:        authManager,
		Roles:       rbac.NewResolver(cfg.Auth.AdminUserIDs),
		DevLogin:    !cfg.IsProduction(),
		Calls:       manager,
		Catalog:     catalog,
		Broker:      broker,
		Adapter:     adapter,
		PaymentSalt: cfg.Payment.MerchantSalt,
		Wallet:      walletSvc,
		Audit:       auditSvc,
		Reports:     reporting.NewService(reporting.Sources{Audit: auditSvc, Wallet: walletSvc}),
		Onboarding:  onboarding.NewRedisStore(rdb),
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	ready := func(ctx context.Context) error {
		if err := utils.PingPostgres(ctx, db, time.Second); err != nil {
			return err
		}
		return utils.PingRedis(ctx, rdb, time.Second)
	}
	registerPublicRoutes(r, h, ready)
	registerProtectedRoutes(r, h, auth.RequireAccessToken(authManager))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	// Machines first so their final transitions reach the recorder.
	manager.Close()
	recorder.Close()
	if n := recorder.Dropped(); n > 0 {
		log.Warn("audit events dropped", "count", n)
	}
}
