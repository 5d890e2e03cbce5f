package portfolioService

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/gmarchetti87/portfolio_report/config"
	"github.com/gmarchetti87/portfolio_report/data/marketCache"
	"github.com/gmarchetti87/portfolio_report/data/memoCache"
	"github.com/gmarchetti87/portfolio_report/internal/model"
	"github.com/gmarchetti87/portfolio_report/internal/portfolio"
	"github.com/gmarchetti87/portfolio_report/internal/service"
	"github.com/gmarchetti87/portfolio_report/utils"
)

type MarketApi interface {
	GetPriceHistory(ctx context.Context, ticker, period, granularity string) (model.PriceSeries, error)
}

type SnapshotStore interface {
	Load(period, granularity string) (model.MarketSnapshot, error)
	Save(snapshot model.MarketSnapshot) error
}

type MemoCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

type Repository interface {
	LoadPortfolio() (model.Portfolio, error)
}

type ReportGenerator interface {
	Generate(ctx context.Context, report model.PortfolioReport) (fileBytes []byte, fileExtension string, err error)
}

type CloudStorage interface {
	UploadFile(ctx context.Context, reader io.Reader, filename string) (downloadLink string, err error)
	DeleteOldFiles(ctx context.Context) error
}

type PortfolioService struct {
	cfg             *config.Config
	repo            Repository
	store           SnapshotStore
	memo            MemoCache
	marketApi       MarketApi
	reportGenerator ReportGenerator
	cloudStorage    CloudStorage // nil when no credentials are configured
	now             func() time.Time
}

func New(
	cfg *config.Config,
	repo Repository,
	store SnapshotStore,
	memo MemoCache,
	marketApi MarketApi,
	reportGenerator ReportGenerator,
	cloudStorage CloudStorage,
) *PortfolioService {
	return &PortfolioService{
		cfg:             cfg,
		repo:            repo,
		store:           store,
		memo:            memo,
		marketApi:       marketApi,
		reportGenerator: reportGenerator,
		cloudStorage:    cloudStorage,
		now:             time.Now,
	}
}

// GetMarketData returns a price series per requested ticker, serving from
// the persisted snapshot when it is younger than the configured TTL and
// refetching only the tickers it misses. A merged snapshot is re-persisted
// with a fresh timestamp covering the whole document. Provider failures
// leave the affected ticker with an empty series and never abort the batch.
func (s *PortfolioService) GetMarketData(ctx context.Context, tickers []string) (map[string]model.PriceSeries, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.GetMarketData"

	slog.Debug("GetMarketData start", slog.String("rqID", rqID), slog.String("op", op), slog.Int("tickers", len(tickers)))
	defer func() {
		slog.Debug("GetMarketData finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	period := s.cfg.Market.Period
	granularity := s.cfg.Market.Granularity

	snapshot, err := s.store.Load(period, granularity)
	if err == nil && s.now().Sub(snapshot.Timestamp) < s.cfg.Cache.SnapshotTTL {
		missing := make([]string, 0)
		for _, ticker := range tickers {
			if _, ok := snapshot.Series[ticker]; !ok {
				missing = append(missing, ticker)
			}
		}

		if len(missing) == 0 {
			slog.Debug("market data served from cache", slog.String("rqID", rqID), slog.String("op", op))
			return snapshot.Series, nil
		}

		slog.Info("refreshing missing tickers", slog.String("rqID", rqID), slog.String("op", op), slog.Int("missing", len(missing)))
		for _, ticker := range missing {
			snapshot.Series[ticker] = s.fetchSeries(ctx, ticker)
			time.Sleep(s.cfg.Market.FetchDelay)
		}

		snapshot.Timestamp = s.now()
		if err := s.store.Save(snapshot); err != nil {
			slog.Error("can't persist merged market snapshot", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}

		return snapshot.Series, nil
	}

	if err != nil && !errors.Is(err, marketCache.ErrCacheMiss) {
		slog.Warn("unexpected snapshot load error, refetching everything", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
	}

	snapshot = model.MarketSnapshot{
		Period:      period,
		Granularity: granularity,
		Series:      make(map[string]model.PriceSeries, len(tickers)),
	}
	for i, ticker := range tickers {
		slog.Info("fetching price history", slog.String("rqID", rqID), slog.String("op", op), slog.String("ticker", ticker), slog.Int("n", i+1), slog.Int("of", len(tickers)))
		snapshot.Series[ticker] = s.fetchSeries(ctx, ticker)
		time.Sleep(s.cfg.Market.FetchDelay)
	}

	snapshot.Timestamp = s.now()
	if err := s.store.Save(snapshot); err != nil {
		slog.Error("can't persist market snapshot", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
	}

	return snapshot.Series, nil
}

// fetchSeries wraps the provider call; any failure degrades to an empty
// series so the computation proceeds with partial coverage.
func (s *PortfolioService) fetchSeries(ctx context.Context, ticker string) model.PriceSeries {
	series, err := s.marketApi.GetPriceHistory(ctx, ticker, s.cfg.Market.Period, s.cfg.Market.Granularity)
	if err != nil {
		slog.Warn("price history fetch failed, using empty series", slog.String("ticker", ticker), slog.String("err", err.Error()))
		return model.PriceSeries{}
	}
	return series
}

// BuildReport assembles the full portfolio report: position table with the
// TOTALE row, annual breakdown, geography and market-type distributions.
// The result is memoized per (period, granularity) for the memo TTL.
func (s *PortfolioService) BuildReport(ctx context.Context) (model.PortfolioReport, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.BuildReport"

	slog.Debug("BuildReport start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		slog.Debug("BuildReport finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	memoKey := memoCache.Key("BuildReport", s.cfg.Market.Period, s.cfg.Market.Granularity)
	if cached, ok := s.memo.Get(memoKey); ok {
		if report, ok := cached.(model.PortfolioReport); ok {
			slog.Debug("report served from memo cache", slog.String("rqID", rqID), slog.String("op", op))
			return report, nil
		}
	}

	pf, err := s.repo.LoadPortfolio()
	if err != nil {
		slog.Error("can't load portfolio definition", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.PortfolioReport{}, fmt.Errorf("%w: %w", service.ErrPortfolioUnavailable, err)
	}

	prices, err := s.GetMarketData(ctx, pf.Tickers())
	if err != nil {
		return model.PortfolioReport{}, err
	}

	now := s.now()
	ledger := portfolio.BuildLedger(pf.Events, prices)
	geo, market, _ := portfolio.BuildDistributions(pf, prices)

	report := model.PortfolioReport{
		Positions:   portfolio.BuildPositionReports(ledger, prices, pf, now),
		Annual:      portfolio.BuildAnnualSnapshots(pf.Events, prices, pf, now),
		Operations:  portfolio.BuildOperationReports(pf, prices),
		Geography:   geo,
		MarketTypes: market,
		Warnings:    ledger.Warnings(),
		GeneratedAt: now,
	}

	s.memo.Set(memoKey, report)

	return report, nil
}

// GenerateMetricsMessage renders the short aggregate summary sent to the
// front-end alongside the tables.
func (s *PortfolioService) GenerateMetricsMessage(report model.PortfolioReport) string {
	for _, pos := range report.Positions {
		if !pos.IsTotal() {
			continue
		}
		return fmt.Sprintf(
			"📊 Metriche Portafoglio\n\n"+
				"💰 Valore Totale: € %s\n"+
				"📈 Guadagno Netto: € %s\n"+
				"📊 Rendimento Netto: %s%%\n"+
				"📉 CAGR: %s%%\n"+
				"💸 Costi Annuali: € %s\n"+
				"\n🕐 Aggiornato: %s",
			pos.CurrentValue.StringFixed(2),
			pos.NetGain.StringFixed(2),
			pos.NetReturn.StringFixed(2),
			pos.CAGR.StringFixed(2),
			pos.AnnualCost.StringFixed(2),
			report.GeneratedAt.Format("02/01/2006 15:04"),
		)
	}
	return "📊 Metriche Portafoglio\n\nNessun dato disponibile"
}

// ExportReport renders the report to a workbook and uploads it to cloud
// storage, returning the share link.
func (s *PortfolioService) ExportReport(ctx context.Context) (downloadLink string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.ExportReport"

	slog.Debug("ExportReport start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		slog.Debug("ExportReport finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	if s.cloudStorage == nil {
		return "", service.ErrStorageNotConfigured
	}

	report, err := s.BuildReport(ctx)
	if err != nil {
		return "", err
	}

	fileBytes, ext, err := s.reportGenerator.Generate(ctx, report)
	if err != nil {
		slog.Error("got error from reportGenerator.Generate", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return "", err
	}

	filename := fmt.Sprintf("portafoglio_%s%s", report.GeneratedAt.Format("2006-01-02"), ext)
	link, err := s.cloudStorage.UploadFile(ctx, bytes.NewReader(fileBytes), filename)
	if err != nil {
		slog.Error("got error from cloudStorage.UploadFile", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return "", err
	}

	return link, nil
}

// FillMarketCache is the scheduled cache-warm job: it refreshes the
// persisted snapshot for every instrument of the portfolio.
func (s *PortfolioService) FillMarketCache(ctx context.Context) error {
	ctx = utils.CreateCtxWithRqID(ctx)

	pf, err := s.repo.LoadPortfolio()
	if err != nil {
		return fmt.Errorf("%w: %w", service.ErrPortfolioUnavailable, err)
	}

	_, err = s.GetMarketData(ctx, pf.Tickers())
	return err
}

// CleanupCloudStorage is the scheduled retention job for uploaded reports.
func (s *PortfolioService) CleanupCloudStorage(ctx context.Context) error {
	if s.cloudStorage == nil {
		return nil
	}
	return s.cloudStorage.DeleteOldFiles(utils.CreateCtxWithRqID(ctx))
}
