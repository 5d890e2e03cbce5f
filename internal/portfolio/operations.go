package portfolio

import (
	"github.com/gmarchetti87/portfolio_report/internal/marketdata"
	"github.com/gmarchetti87/portfolio_report/internal/model"
	"github.com/shopspring/decimal"
)

// BuildOperationReports renders the raw operations log as report rows,
// in file order, each valued at its resolved trade price.
func BuildOperationReports(pf model.Portfolio, prices map[string]model.PriceSeries) []model.OperationReport {
	rows := make([]model.OperationReport, 0, len(pf.Events))
	for _, e := range pf.Events {
		rows = append(rows, model.OperationReport{
			Date:          e.Date,
			Ticker:        e.Ticker,
			Name:          nameOf(pf, e.Ticker),
			Side:          e.Side,
			Quantity:      e.Quantity,
			Amount:        e.Amount,
			InvestedValue: tradeValue(e, prices),
		})
	}
	return rows
}

// tradeValue is quantity × the close nearest to the trade date. When the
// price cannot be resolved the declared traded amount stands in, which is
// the only place that field is consulted.
func tradeValue(e model.TradeEvent, prices map[string]model.PriceSeries) decimal.Decimal {
	series, ok := prices[e.Ticker]
	if !ok || series.Empty() {
		return e.Amount
	}
	price, _, ok := marketdata.CloseNearest(series, e.Date)
	if !ok {
		return e.Amount
	}
	return e.Quantity.Mul(price).Round(2)
}
