package portfolio

import (
	"sort"
	"time"

	"github.com/gmarchetti87/portfolio_report/internal/marketdata"
	"github.com/gmarchetti87/portfolio_report/internal/model"
	"github.com/shopspring/decimal"
)

// BuildAnnualSnapshots computes one snapshot per calendar year touched by
// either a trade or a price observation. Each year rebuilds the ledger from
// scratch at its boundaries: correctness rests on full deterministic replay
// in the original event order, so no incremental state is carried between
// years.
func BuildAnnualSnapshots(events []model.TradeEvent, prices map[string]model.PriceSeries, pf model.Portfolio, now time.Time) []model.AnnualSnapshot {
	years := touchedYears(events, prices)
	if len(years) == 0 {
		return nil
	}

	snapshots := make([]model.AnnualSnapshot, 0, len(years))
	for _, year := range years {
		snapshots = append(snapshots, buildYearSnapshot(year, events, prices, pf, now))
	}

	return snapshots
}

func touchedYears(events []model.TradeEvent, prices map[string]model.PriceSeries) []int {
	seen := make(map[int]struct{})
	for _, e := range events {
		seen[e.Date.Year()] = struct{}{}
	}
	for _, series := range prices {
		for _, d := range series.Dates {
			seen[d.Year()] = struct{}{}
		}
	}

	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)

	return years
}

func buildYearSnapshot(year int, events []model.TradeEvent, prices map[string]model.PriceSeries, pf model.Portfolio, now time.Time) model.AnnualSnapshot {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	if year == now.Year() {
		end = marketdata.NormalizeDate(now)
	}

	// Value at Jan 1: state from everything strictly before the year,
	// priced at or before the year boundary.
	initial := decimal.Zero
	startLedger := BuildLedgerBefore(events, prices, start)
	for _, ticker := range startLedger.Tickers() {
		lots := startLedger.Lots(ticker)
		if len(lots) == 0 {
			continue
		}
		price, ok := marketdata.YearStartClose(prices[ticker], year)
		if !ok {
			continue
		}
		initial = initial.Add(startLedger.Quantity(ticker).Mul(price))
	}

	inflows := flowsInWindow(events, prices, model.Buy, start, end, year)
	outflows := flowsInWindow(events, prices, model.Sell, start, end, year)

	// Value at the window end, plus the TER cost on each final position.
	final := decimal.Zero
	cost := decimal.Zero
	endLedger := BuildLedgerThrough(events, prices, end)
	for _, ticker := range endLedger.Tickers() {
		lots := endLedger.Lots(ticker)
		if len(lots) == 0 {
			continue
		}
		price, ok := marketdata.CloseAtOrBefore(prices[ticker], end)
		if !ok {
			continue
		}
		value := endLedger.Quantity(ticker).Mul(price)
		final = final.Add(value)
		cost = cost.Add(value.Mul(terOf(pf, ticker)).Div(hundred))
	}

	snapshot := model.AnnualSnapshot{
		Year:         year,
		InitialValue: initial.Round(2),
		Inflows:      inflows.Round(2),
		Outflows:     outflows.Round(2),
		FinalValue:   final.Round(2),
		AnnualCost:   cost.Round(2),
	}

	base := initial.Add(inflows).Sub(outflows)
	if !base.IsPositive() {
		return snapshot
	}

	gain := final.Sub(base)
	netGain := gain.Sub(cost)
	snapshot.Gain = gain.Round(2)
	snapshot.Return = percentOf(gain, base)
	snapshot.NetGain = netGain.Round(2)
	snapshot.NetReturn = percentOf(netGain, base)

	// Over a single year the compounding exponent is 1, so CAGR collapses
	// to the plain return; the net variant discounts the year's cost first.
	if final.IsPositive() {
		snapshot.CAGR = final.Div(base).Sub(decimal.NewFromInt(1)).Mul(hundred).Round(2)
	}
	if finalNet := final.Sub(cost); finalNet.IsPositive() {
		snapshot.NetCAGR = finalNet.Div(base).Sub(decimal.NewFromInt(1)).Mul(hundred).Round(2)
	}

	return snapshot
}

// flowsInWindow sums the value moved by events of one side inside the year
// window, each valued at its own resolved trade price.
func flowsInWindow(events []model.TradeEvent, prices map[string]model.PriceSeries, side model.TradeSide, start, end time.Time, year int) decimal.Decimal {
	total := decimal.Zero

	for _, e := range events {
		if e.Side != side || e.Date.Year() != year {
			continue
		}
		date := marketdata.NormalizeDate(e.Date)
		if date.Before(start) || date.After(end) {
			continue
		}
		series, ok := prices[e.Ticker]
		if !ok || series.Empty() {
			continue
		}
		price, _, ok := marketdata.CloseNearest(series, e.Date)
		if !ok {
			continue
		}
		total = total.Add(e.Quantity.Mul(price))
	}

	return total
}
