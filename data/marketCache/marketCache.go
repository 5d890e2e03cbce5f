// Package marketCache persists market-data snapshots as one JSON document
// per (period, granularity) pair, in the same file format the rest of the
// tooling reads: cache_mercato_<period>_<granularity>.json with parallel
// index/close arrays per ticker.
package marketCache

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gmarchetti87/portfolio_report/config"
	"github.com/gmarchetti87/portfolio_report/internal/marketdata"
	"github.com/gmarchetti87/portfolio_report/internal/model"
	"github.com/shopspring/decimal"
)

// ErrCacheMiss covers an absent, unreadable or corrupt snapshot file; the
// caller reacts with a full refetch, never with a failure.
var ErrCacheMiss = errors.New("market cache miss")

const dateLayout = "2006-01-02"

type FileCache struct {
	dir string
}

func New(cfg *config.Config) *FileCache {
	return &FileCache{dir: cfg.Cache.Dir}
}

type snapshotDoc struct {
	Timestamp   string               `json:"timestamp"`
	Period      string               `json:"periodo"`
	Granularity string               `json:"granularita"`
	Series      map[string]seriesDoc `json:"dati"`
}

type seriesDoc struct {
	Index []string  `json:"index"`
	Close []float64 `json:"close"`
}

func (c *FileCache) path(period, granularity string) string {
	return filepath.Join(c.dir, fmt.Sprintf("cache_mercato_%s_%s.json", period, granularity))
}

// Load reads the persisted snapshot for the key. Any problem with the file
// is reported as ErrCacheMiss.
func (c *FileCache) Load(period, granularity string) (model.MarketSnapshot, error) {
	path := c.path(period, granularity)

	raw, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("can't read market cache file", slog.String("path", path), slog.String("err", err.Error()))
		}
		return model.MarketSnapshot{}, ErrCacheMiss
	}

	doc := snapshotDoc{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		slog.Warn("corrupt market cache file, treating as miss", slog.String("path", path), slog.String("err", err.Error()))
		return model.MarketSnapshot{}, ErrCacheMiss
	}

	timestamp, err := time.Parse(time.RFC3339, doc.Timestamp)
	if err != nil {
		slog.Warn("invalid timestamp in market cache file, treating as miss", slog.String("path", path), slog.String("err", err.Error()))
		return model.MarketSnapshot{}, ErrCacheMiss
	}

	snapshot := model.MarketSnapshot{
		Timestamp:   timestamp,
		Period:      doc.Period,
		Granularity: doc.Granularity,
		Series:      make(map[string]model.PriceSeries, len(doc.Series)),
	}

	for ticker, s := range doc.Series {
		if len(s.Index) != len(s.Close) {
			slog.Warn("index/close length mismatch in cache, ticker dropped", slog.String("ticker", ticker))
			continue
		}
		series := model.PriceSeries{}
		for i, dateStr := range s.Index {
			date, err := time.Parse(dateLayout, dateStr)
			if err != nil {
				continue
			}
			series.Dates = append(series.Dates, date)
			series.Closes = append(series.Closes, decimal.NewFromFloat(s.Close[i]))
		}
		snapshot.Series[ticker] = marketdata.Normalize(series)
	}

	return snapshot, nil
}

// Save persists the snapshot, overwriting any previous document for the
// same key. Empty series are left out of the file, matching the "no data"
// convention of the readers.
func (c *FileCache) Save(snapshot model.MarketSnapshot) error {
	doc := snapshotDoc{
		Timestamp:   snapshot.Timestamp.Format(time.RFC3339),
		Period:      snapshot.Period,
		Granularity: snapshot.Granularity,
		Series:      make(map[string]seriesDoc, len(snapshot.Series)),
	}

	for ticker, series := range snapshot.Series {
		if series.Empty() {
			continue
		}
		s := seriesDoc{
			Index: make([]string, 0, series.Len()),
			Close: make([]float64, 0, series.Len()),
		}
		for i, date := range series.Dates {
			s.Index = append(s.Index, date.Format(dateLayout))
			s.Close = append(s.Close, series.Closes[i].InexactFloat64())
		}
		doc.Series[ticker] = s
	}

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	path := c.path(snapshot.Period, snapshot.Granularity)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		slog.Error("can't write market cache file", slog.String("path", path), slog.String("err", err.Error()))
		return err
	}

	return nil
}
