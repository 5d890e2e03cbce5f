package marketdata

import (
	"testing"
	"time"

	"github.com/gmarchetti87/portfolio_report/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func series(points map[string]float64, order ...string) model.PriceSeries {
	s := model.PriceSeries{}
	for _, d := range order {
		s.Dates = append(s.Dates, day(d))
		s.Closes = append(s.Closes, decimal.NewFromFloat(points[d]))
	}
	return s
}

func TestNearestDateTieFavorsFirstSeen(t *testing.T) {
	s := series(map[string]float64{"2024-01-10": 100, "2024-01-12": 101}, "2024-01-10", "2024-01-12")

	resolved, ok := NearestDate(s, day("2024-01-11"))

	require.True(t, ok)
	assert.Equal(t, day("2024-01-10"), resolved)
}

func TestNearestDateExactMatch(t *testing.T) {
	s := series(map[string]float64{"2024-01-10": 100, "2024-01-12": 101}, "2024-01-10", "2024-01-12")

	resolved, ok := NearestDate(s, day("2024-01-12"))

	require.True(t, ok)
	assert.Equal(t, day("2024-01-12"), resolved)
}

func TestNearestDateEmptySeries(t *testing.T) {
	_, ok := NearestDate(model.PriceSeries{}, day("2024-01-11"))
	assert.False(t, ok)
}

func TestCloseAtOrBefore(t *testing.T) {
	s := series(map[string]float64{"2024-03-01": 100, "2024-06-01": 110, "2024-09-02": 120},
		"2024-03-01", "2024-06-01", "2024-09-02")

	price, ok := CloseAtOrBefore(s, day("2024-07-15"))
	require.True(t, ok)
	assert.True(t, price.Equal(decimal.NewFromInt(110)))

	_, ok = CloseAtOrBefore(s, day("2024-01-01"))
	assert.False(t, ok)
}

func TestYearStartCloseUsesLastPrecedingPrice(t *testing.T) {
	s := series(map[string]float64{"2023-12-28": 95, "2024-01-03": 100}, "2023-12-28", "2024-01-03")

	price, ok := YearStartClose(s, 2024)

	require.True(t, ok)
	assert.True(t, price.Equal(decimal.NewFromInt(95)))
}

func TestYearStartCloseFallsBackToFirstJanuaryPrice(t *testing.T) {
	s := series(map[string]float64{"2024-01-03": 100, "2024-02-01": 105}, "2024-01-03", "2024-02-01")

	price, ok := YearStartClose(s, 2024)

	require.True(t, ok)
	assert.True(t, price.Equal(decimal.NewFromInt(100)))
}

func TestNormalizeSortsAndDeduplicates(t *testing.T) {
	s := model.PriceSeries{
		Dates: []time.Time{day("2024-01-12"), day("2024-01-10"), day("2024-01-12")},
		Closes: []decimal.Decimal{
			decimal.NewFromInt(101), decimal.NewFromInt(100), decimal.NewFromInt(999),
		},
	}

	out := Normalize(s)

	require.Equal(t, 2, out.Len())
	assert.Equal(t, day("2024-01-10"), out.Dates[0])
	assert.Equal(t, day("2024-01-12"), out.Dates[1])
	// first occurrence wins on duplicate dates
	assert.True(t, out.Closes[1].Equal(decimal.NewFromInt(101)))
}

func TestYearsSinceUsesWholeDays(t *testing.T) {
	from := day("2023-01-01")
	now := day("2024-01-01")

	assert.InDelta(t, 365.0/365.25, YearsSince(from, now), 1e-9)
}
