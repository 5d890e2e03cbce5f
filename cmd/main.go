package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gmarchetti87/portfolio_report/config"
	"github.com/gmarchetti87/portfolio_report/data/marketCache"
	"github.com/gmarchetti87/portfolio_report/data/memoCache"
	"github.com/gmarchetti87/portfolio_report/data/repository/jsonRepo"
	"github.com/gmarchetti87/portfolio_report/internal/externalApi/cloudStorageApi/googleDriveApi"
	"github.com/gmarchetti87/portfolio_report/internal/externalApi/yahooApi"
	"github.com/gmarchetti87/portfolio_report/internal/reportGenerator/xlsxGenerator"
	"github.com/gmarchetti87/portfolio_report/internal/scheduler"
	"github.com/gmarchetti87/portfolio_report/internal/service/portfolioService"
	"github.com/gmarchetti87/portfolio_report/utils"
)

func main() {
	cfg := config.MustLoad()

	setupLogger(cfg)

	slog.Debug("config", slog.Any("cfg", cfg))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := jsonRepo.New(cfg)
	snapshotStore := marketCache.New(cfg)
	memo := memoCache.New(cfg.Cache.MemoTTL)
	marketApi := yahooApi.New(cfg)
	reportGenerator := xlsxGenerator.New()

	var cloudStorage portfolioService.CloudStorage
	if cfg.GoogleDrive.CredentialsFile != "" {
		cloudStorage = googleDriveApi.New(ctx, cfg)
	}

	portfolioSrv := portfolioService.New(cfg, repo, snapshotStore, memo, marketApi, reportGenerator, cloudStorage)

	sched := scheduler.New()
	sched.NewIntervalJob("fill market cache", portfolioSrv.FillMarketCache, cfg.Jobs.FillMarketCacheInterval, true)
	if cloudStorage != nil {
		sched.NewIntervalJob("cleanup cloud storage", portfolioSrv.CleanupCloudStorage, cfg.Jobs.DriveCleanupInterval, false)
	}
	sched.Start()
	defer sched.Stop()

	rqCtx := utils.CreateCtxWithRqID(ctx)
	report, err := portfolioSrv.BuildReport(rqCtx)
	if err != nil {
		slog.Error("can't build portfolio report", slog.String("err", err.Error()))
	} else {
		slog.Info("portfolio report ready", slog.Int("positions", len(report.Positions)), slog.Int("years", len(report.Annual)))
		slog.Info(portfolioSrv.GenerateMetricsMessage(report))
	}

	// Waiting interruption signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	<-interrupt
}

func setupLogger(cfg *config.Config) {
	var logLevel slog.Level

	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(log)
}
