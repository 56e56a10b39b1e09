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

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/winrichdynamic/crm-service/internal/app"
	"github.com/winrichdynamic/crm-service/internal/approvals"
	"github.com/winrichdynamic/crm-service/internal/masterdata/products"
	"github.com/winrichdynamic/crm-service/internal/platform/cache"
	"github.com/winrichdynamic/crm-service/internal/platform/db"
	"github.com/winrichdynamic/crm-service/internal/sales/quotations"
	"github.com/winrichdynamic/crm-service/internal/settings"
	"github.com/winrichdynamic/crm-service/jobs"
	"github.com/winrichdynamic/crm-service/report"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		// Redis only backs the policy cache and the notify queue; the
		// service degrades without it.
		logger.Warn("redis unavailable", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

	settingsRepo := settings.NewRepository(pool)
	settingsService := settings.NewService(settingsRepo, redisClient, cfg.PolicyCacheTTL, logger)

	productRepo := products.NewRepository(pool)
	productService := products.NewService(productRepo)

	recorder := approvals.NewRecorder(pool, logger)

	var notifier quotations.Notifier
	var asynqClient *asynq.Client
	if redisClient != nil {
		asynqClient = asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		defer func() {
			if err := asynqClient.Close(); err != nil {
				logger.Warn("asynq close", slog.Any("error", err))
			}
		}()
		notifier = jobs.NewEnqueuer(asynqClient)
	}

	quotationRepo := quotations.NewRepository(pool)
	quotationService := quotations.NewService(quotationRepo, settingsService, recorder, notifier, productService, logger)
	quotationHandler := quotations.NewHandler(logger, quotationService, recorder)
	reportHandler := report.NewHandler(report.NewClient(cfg.GotenbergURL), quotationService, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		QuotationHandler: quotationHandler,
		ReportHandler:    reportHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}
