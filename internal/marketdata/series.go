// Package marketdata holds the pure price-series primitives: date
// normalization, nearest-trading-day resolution and the close lookups the
// valuation code builds on. Trade dates rarely coincide with available
// price observations, so every lookup goes through one of these helpers.
package marketdata

import (
	"sort"
	"time"

	"github.com/gmarchetti87/portfolio_report/internal/model"
	"github.com/shopspring/decimal"
)

// NormalizeDate strips time-of-day and timezone, leaving a UTC calendar day.
func NormalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(a, b time.Time) int {
	diff := int(NormalizeDate(a).Sub(NormalizeDate(b)).Hours() / 24)
	if diff < 0 {
		return -diff
	}
	return diff
}

// NearestDate resolves target to the closest date present in the series.
// The scan keeps the first date with the strictly smallest day distance, so
// ties favor the earlier position in the series. Returns false for an empty
// series.
func NearestDate(series model.PriceSeries, target time.Time) (time.Time, bool) {
	if series.Empty() {
		return time.Time{}, false
	}

	target = NormalizeDate(target)

	best := -1
	bestDiff := 0
	for i, d := range series.Dates {
		diff := daysBetween(d, target)
		if best == -1 || diff < bestDiff {
			best = i
			bestDiff = diff
		}
	}

	return NormalizeDate(series.Dates[best]), true
}

// CloseAt returns the close recorded exactly on date.
func CloseAt(series model.PriceSeries, date time.Time) (decimal.Decimal, bool) {
	date = NormalizeDate(date)
	for i, d := range series.Dates {
		if NormalizeDate(d).Equal(date) {
			return series.Closes[i], true
		}
	}
	return decimal.Decimal{}, false
}

// CloseNearest resolves date to the nearest trading day and returns that
// day's close.
func CloseNearest(series model.PriceSeries, date time.Time) (decimal.Decimal, time.Time, bool) {
	resolved, ok := NearestDate(series, date)
	if !ok {
		return decimal.Decimal{}, time.Time{}, false
	}
	price, ok := CloseAt(series, resolved)
	if !ok {
		return decimal.Decimal{}, time.Time{}, false
	}
	return price, resolved, true
}

// CloseAtOrBefore returns the latest close dated at or before limit.
func CloseAtOrBefore(series model.PriceSeries, limit time.Time) (decimal.Decimal, bool) {
	limit = NormalizeDate(limit)
	for i := series.Len() - 1; i >= 0; i-- {
		if !NormalizeDate(series.Dates[i]).After(limit) {
			return series.Closes[i], true
		}
	}
	return decimal.Decimal{}, false
}

// YearStartClose finds the close to value a position with at Jan 1 of year:
// the latest close at or before Jan 1, falling back to the first available
// January close when nothing precedes it.
func YearStartClose(series model.PriceSeries, year int) (decimal.Decimal, bool) {
	jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)

	var price decimal.Decimal
	found := false
	for i, d := range series.Dates {
		d = NormalizeDate(d)
		if d.Year() < year || d.Equal(jan1) {
			price = series.Closes[i]
			found = true
		} else if d.Year() == year && d.Month() == time.January {
			if !found {
				price = series.Closes[i]
				found = true
			}
			break
		}
	}

	return price, found
}

// Normalize sorts a series ascending by calendar day and drops duplicate
// dates, keeping the first occurrence. Lookups assume this form.
func Normalize(series model.PriceSeries) model.PriceSeries {
	type point struct {
		date  time.Time
		close decimal.Decimal
	}

	points := make([]point, 0, series.Len())
	for i, d := range series.Dates {
		points = append(points, point{date: NormalizeDate(d), close: series.Closes[i]})
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].date.Before(points[j].date)
	})

	out := model.PriceSeries{
		Dates:  make([]time.Time, 0, len(points)),
		Closes: make([]decimal.Decimal, 0, len(points)),
	}
	for _, p := range points {
		if n := len(out.Dates); n > 0 && out.Dates[n-1].Equal(p.date) {
			continue
		}
		out.Dates = append(out.Dates, p.date)
		out.Closes = append(out.Closes, p.close)
	}

	return out
}

// YearsSince reports elapsed years between two dates using whole days over
// the mean year length, matching how holding periods are measured for CAGR.
func YearsSince(from, now time.Time) float64 {
	days := int(now.Sub(from).Hours() / 24)
	return float64(days) / 365.25
}
