package marketCache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gmarchetti87/portfolio_report/config"
	"github.com/gmarchetti87/portfolio_report/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *FileCache {
	t.Helper()
	cfg := &config.Config{}
	cfg.Cache.Dir = t.TempDir()
	return New(cfg)
}

func TestFileCacheSaveLoadRoundtrip(t *testing.T) {
	cache := newTestCache(t)

	saved := model.MarketSnapshot{
		Timestamp:   time.Date(2025, time.March, 1, 10, 30, 0, 0, time.UTC),
		Period:      "1y",
		Granularity: "1d",
		Series: map[string]model.PriceSeries{
			"AAA": {
				Dates:  []time.Time{time.Date(2025, time.February, 3, 0, 0, 0, 0, time.UTC), time.Date(2025, time.February, 4, 0, 0, 0, 0, time.UTC)},
				Closes: []decimal.Decimal{decimal.NewFromFloat(101.5), decimal.NewFromFloat(102.25)},
			},
			"EMPTY": {},
		},
	}
	require.NoError(t, cache.Save(saved))

	loaded, err := cache.Load("1y", "1d")
	require.NoError(t, err)

	assert.True(t, loaded.Timestamp.Equal(saved.Timestamp))
	assert.Equal(t, "1y", loaded.Period)
	assert.Equal(t, "1d", loaded.Granularity)

	require.Contains(t, loaded.Series, "AAA")
	series := loaded.Series["AAA"]
	require.Equal(t, 2, series.Len())
	assert.Equal(t, saved.Series["AAA"].Dates, series.Dates)
	assert.True(t, series.Closes[0].Equal(decimal.NewFromFloat(101.5)))
	assert.True(t, series.Closes[1].Equal(decimal.NewFromFloat(102.25)))

	// empty series never reach the file
	assert.NotContains(t, loaded.Series, "EMPTY")
}

func TestFileCacheMissingFileIsMiss(t *testing.T) {
	cache := newTestCache(t)

	_, err := cache.Load("1y", "1d")
	assert.True(t, errors.Is(err, ErrCacheMiss))
}

func TestFileCacheCorruptFileIsMiss(t *testing.T) {
	cache := newTestCache(t)
	path := cache.path("1y", "1d")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := cache.Load("1y", "1d")
	assert.True(t, errors.Is(err, ErrCacheMiss))
}

func TestFileCacheBadTimestampIsMiss(t *testing.T) {
	cache := newTestCache(t)
	path := cache.path("1y", "1d")
	doc := `{"timestamp":"yesterday","periodo":"1y","granularita":"1d","dati":{}}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	_, err := cache.Load("1y", "1d")
	assert.True(t, errors.Is(err, ErrCacheMiss))
}

func TestFileCacheDropsMismatchedSeries(t *testing.T) {
	cache := newTestCache(t)
	path := cache.path("1y", "1d")
	doc := `{
  "timestamp": "2025-03-01T10:30:00Z",
  "periodo": "1y",
  "granularita": "1d",
  "dati": {
    "BAD": {"index": ["2025-02-03", "2025-02-04"], "close": [100]},
    "GOOD": {"index": ["2025-02-03"], "close": [100]}
  }
}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	loaded, err := cache.Load("1y", "1d")
	require.NoError(t, err)
	assert.NotContains(t, loaded.Series, "BAD")
	assert.Contains(t, loaded.Series, "GOOD")
}

func TestFileCachePathLayout(t *testing.T) {
	cache := newTestCache(t)

	path := cache.path("5y", "1wk")
	assert.Equal(t, "cache_mercato_5y_1wk.json", filepath.Base(path))
}
