package portfolio

import (
	"github.com/gmarchetti87/portfolio_report/internal/model"
	"github.com/shopspring/decimal"
)

// BuildDistributions aggregates geography and market-type weights across
// the current positions. Each instrument's share of total market value fans
// out over its allocation lists; instruments without metadata for a
// dimension contribute nothing to it, so a dimension's sum can stay below 1
// and is not renormalized.
func BuildDistributions(pf model.Portfolio, prices map[string]model.PriceSeries) (geo, market model.Distribution, totalValue decimal.Decimal) {
	geo = make(model.Distribution)
	market = make(model.Distribution)

	values := currentMarketValues(pf.Events, prices)

	totalValue = decimal.Zero
	for _, v := range values {
		totalValue = totalValue.Add(v)
	}
	if !totalValue.IsPositive() {
		return geo, market, totalValue
	}

	for _, instr := range pf.Instruments {
		value, held := values[instr.Ticker]
		if !held {
			continue
		}
		weight := value.Div(totalValue)

		for _, alloc := range instr.GeoAllocations {
			geo[alloc.Label] = geo[alloc.Label].Add(weight.Mul(alloc.Percent.Div(hundred)))
		}
		for _, alloc := range instr.MarketAllocations {
			market[alloc.Label] = market[alloc.Label].Add(weight.Mul(alloc.Percent.Div(hundred)))
		}
	}

	return geo, market, totalValue
}

// currentMarketValues nets buys against sells per ticker and values the
// positive remainders at the latest close. A position without price data
// stays in the map with value zero.
func currentMarketValues(events []model.TradeEvent, prices map[string]model.PriceSeries) map[string]decimal.Decimal {
	quantities := make(map[string]decimal.Decimal)
	for _, e := range events {
		switch e.Side {
		case model.Buy:
			quantities[e.Ticker] = quantities[e.Ticker].Add(e.Quantity)
		case model.Sell:
			quantities[e.Ticker] = quantities[e.Ticker].Sub(e.Quantity)
		}
	}

	values := make(map[string]decimal.Decimal)
	for ticker, qty := range quantities {
		if !qty.IsPositive() {
			continue
		}
		last, ok := prices[ticker].LastClose()
		if !ok {
			values[ticker] = decimal.Zero
			continue
		}
		values[ticker] = qty.Mul(last)
	}

	return values
}
