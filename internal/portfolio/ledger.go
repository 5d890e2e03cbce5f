// Package portfolio implements the computation core: FIFO lot accounting
// over the trade ledger, position valuation, the per-year breakdown and the
// category-weight aggregation. Everything here is pure and synchronous; a
// computation owns all state it creates.
package portfolio

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gmarchetti87/portfolio_report/internal/marketdata"
	"github.com/gmarchetti87/portfolio_report/internal/model"
	"github.com/shopspring/decimal"
)

// Ledger holds one FIFO queue of open lots per ticker, built by replaying
// trade events in input order. Events are never re-sorted by date: the
// ingestion order is the processing order.
type Ledger struct {
	tickers  []string
	lots     map[string][]model.Lot
	warnings []string
}

// BuildLedger replays every event against the price series.
func BuildLedger(events []model.TradeEvent, prices map[string]model.PriceSeries) *Ledger {
	return buildLedger(events, prices, func(model.TradeEvent) bool { return true })
}

// BuildLedgerBefore replays only events dated strictly before cutoff,
// producing the lot state "as of" that morning.
func BuildLedgerBefore(events []model.TradeEvent, prices map[string]model.PriceSeries, cutoff time.Time) *Ledger {
	cutoff = marketdata.NormalizeDate(cutoff)
	return buildLedger(events, prices, func(e model.TradeEvent) bool {
		return marketdata.NormalizeDate(e.Date).Before(cutoff)
	})
}

// BuildLedgerThrough replays events dated at or before end.
func BuildLedgerThrough(events []model.TradeEvent, prices map[string]model.PriceSeries, end time.Time) *Ledger {
	end = marketdata.NormalizeDate(end)
	return buildLedger(events, prices, func(e model.TradeEvent) bool {
		return !marketdata.NormalizeDate(e.Date).After(end)
	})
}

func buildLedger(events []model.TradeEvent, prices map[string]model.PriceSeries, keep func(model.TradeEvent) bool) *Ledger {
	l := &Ledger{lots: make(map[string][]model.Lot)}

	for _, event := range events {
		if !keep(event) {
			continue
		}
		l.apply(event, prices)
	}

	return l
}

func (l *Ledger) apply(event model.TradeEvent, prices map[string]model.PriceSeries) {
	series, ok := prices[event.Ticker]
	if !ok || series.Empty() {
		l.warn(fmt.Sprintf("no price data for %s, %s of %s skipped", event.Ticker, event.Side, event.Date.Format("2006-01-02")))
		return
	}

	l.track(event.Ticker)

	price, resolvedDate, ok := marketdata.CloseNearest(series, event.Date)
	if !ok {
		l.warn(fmt.Sprintf("can't resolve trade date %s for %s, event skipped", event.Date.Format("2006-01-02"), event.Ticker))
		return
	}

	switch event.Side {
	case model.Buy:
		l.lots[event.Ticker] = append(l.lots[event.Ticker], model.Lot{
			Date:     resolvedDate,
			Quantity: event.Quantity,
			Price:    price,
		})
	case model.Sell:
		l.consume(event.Ticker, event.Quantity)
	}
}

// consume takes quantity from the head of the ticker's queue, oldest lot
// first. Selling more than is held empties the queue and drops the excess.
func (l *Ledger) consume(ticker string, quantity decimal.Decimal) {
	remaining := quantity
	for remaining.IsPositive() && len(l.lots[ticker]) > 0 {
		head := l.lots[ticker][0]
		if head.Quantity.LessThanOrEqual(remaining) {
			remaining = remaining.Sub(head.Quantity)
			l.lots[ticker] = l.lots[ticker][1:]
		} else {
			head.Quantity = head.Quantity.Sub(remaining)
			l.lots[ticker][0] = head
			remaining = decimal.Zero
		}
	}

	if remaining.IsPositive() {
		l.warn(fmt.Sprintf("oversell of %s: %s units dropped", ticker, remaining))
	}
}

func (l *Ledger) track(ticker string) {
	if _, ok := l.lots[ticker]; !ok {
		l.lots[ticker] = []model.Lot{}
		l.tickers = append(l.tickers, ticker)
	}
}

func (l *Ledger) warn(msg string) {
	slog.Warn(msg)
	l.warnings = append(l.warnings, msg)
}

// Tickers returns tickers in first-seen order, including fully sold ones.
func (l *Ledger) Tickers() []string {
	return l.tickers
}

func (l *Ledger) Lots(ticker string) []model.Lot {
	return l.lots[ticker]
}

func (l *Ledger) Quantity(ticker string) decimal.Decimal {
	total := decimal.Zero
	for _, lot := range l.lots[ticker] {
		total = total.Add(lot.Quantity)
	}
	return total
}

// EarliestLotDate reports the oldest remaining acquisition date across the
// whole ledger.
func (l *Ledger) EarliestLotDate() (time.Time, bool) {
	var earliest time.Time
	found := false
	for _, ticker := range l.tickers {
		for _, lot := range l.lots[ticker] {
			if !found || lot.Date.Before(earliest) {
				earliest = lot.Date
				found = true
			}
		}
	}
	return earliest, found
}

// Warnings lists the non-fatal events skipped or truncated during replay.
func (l *Ledger) Warnings() []string {
	return l.warnings
}
