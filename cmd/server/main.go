package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/recebimento/internal/config"
	"github.com/mamadbah2/recebimento/internal/domain/models"
	"github.com/mamadbah2/recebimento/internal/metrics"
	"github.com/mamadbah2/recebimento/internal/repository/mongodb"
	"github.com/mamadbah2/recebimento/internal/repository/sheets"
	"github.com/mamadbah2/recebimento/internal/repository/sqlstore"
	"github.com/mamadbah2/recebimento/internal/scheduler"
	"github.com/mamadbah2/recebimento/internal/server/handlers"
	"github.com/mamadbah2/recebimento/internal/server/router"
	"github.com/mamadbah2/recebimento/internal/service/access"
	"github.com/mamadbah2/recebimento/internal/service/auditing"
	"github.com/mamadbah2/recebimento/internal/service/catalog"
	"github.com/mamadbah2/recebimento/internal/service/notify"
	"github.com/mamadbah2/recebimento/internal/service/receiving"
	reportingsvc "github.com/mamadbah2/recebimento/internal/service/reporting"
	whatsappclient "github.com/mamadbah2/recebimento/pkg/clients/whatsapp"
	"github.com/mamadbah2/recebimento/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	ctx := context.Background()
	loc := cfg.Location()

	store, err := sqlstore.Open(ctx, cfg.Database, logger.Named(baseLogger, "repo.sql"))
	if err != nil {
		baseLogger.Fatal("failed to open database", zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			baseLogger.Error("failed to close database", zap.Error(err))
		}
	}()
	if err := store.Migrate(ctx); err != nil {
		baseLogger.Fatal("failed to migrate database", zap.Error(err))
	}

	reg := metrics.NewRegistry()

	authSvc := access.NewService(store, cfg.Auth, logger.Named(baseLogger, "svc.access"))
	if err := authSvc.EnsureSeedAdmin(ctx, cfg.Auth.SeedAdminID, cfg.Auth.SeedAdminPassword); err != nil {
		baseLogger.Fatal("failed to seed admin", zap.Error(err))
	}

	dispatcher := notify.NewDispatcher(reg).
		Add("log", notify.NewLogNotifier(logger.Named(baseLogger, "notify.log")))

	// sender stays a nil interface unless WhatsApp is configured.
	var sender notify.TextSender
	if cfg.WhatsApp.Enabled() {
		wa := notify.NewWhatsApp(whatsappclient.NewClient(cfg.WhatsApp), cfg.WhatsApp.ManagerID, loc, logger.Named(baseLogger, "notify.whatsapp"))
		dispatcher.Add("whatsapp", wa)
		sender = wa
		baseLogger.Info("whatsapp notifications enabled")
	} else {
		baseLogger.Warn("whatsapp token missing, divergence alerts and digests are only logged")
	}

	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, logger.Named(baseLogger, "repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		dispatcher.Add("sheets", notify.NewSheetMirror(sheetsRepo, sheets.AuditRange, loc))
		baseLogger.Info("google sheets audit mirror enabled")
	}

	var archive mongodb.Repository
	if cfg.MongoDB.Enabled() {
		mongoRepo, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		archive = mongoRepo
	}

	defaultMode, err := models.ParseAuditMode(cfg.Audit.Mode, models.ModeConsolidated)
	if err != nil {
		baseLogger.Fatal("invalid audit mode", zap.Error(err))
	}

	catalogSvc := catalog.NewService(store, reg, logger.Named(baseLogger, "svc.catalog"))
	receivingSvc := receiving.NewService(store, reg, logger.Named(baseLogger, "svc.receiving"))
	auditingSvc := auditing.NewService(store, dispatcher, reg, auditing.Options{
		DefaultMode:     defaultMode,
		AutoResolveZero: cfg.Audit.AutoResolveZero,
	}, logger.Named(baseLogger, "svc.auditing"))
	reportingSvc := reportingsvc.NewService(store, loc, logger.Named(baseLogger, "svc.reporting"))

	engine := router.New(router.Handlers{
		Auth:      handlers.NewAuthHandler(authSvc, logger.Named(baseLogger, "handlers.auth")),
		Catalog:   handlers.NewCatalogHandler(catalogSvc, logger.Named(baseLogger, "handlers.catalog")),
		Reception: handlers.NewReceptionHandler(receivingSvc, logger.Named(baseLogger, "handlers.receptions")),
		Audit:     handlers.NewAuditHandler(auditingSvc, logger.Named(baseLogger, "handlers.audits")),
		Report:    handlers.NewReportHandler(reportingSvc, logger.Named(baseLogger, "handlers.reports")),
	}, authSvc, reg, logger.Named(baseLogger, "router"))

	sched := scheduler.NewScheduler(*cfg, reportingSvc, archive, sender, logger.Named(baseLogger, "scheduler"))
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

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-sigCtx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
