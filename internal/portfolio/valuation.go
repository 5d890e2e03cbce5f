package portfolio

import (
	"math"
	"time"

	"github.com/gmarchetti87/portfolio_report/internal/marketdata"
	"github.com/gmarchetti87/portfolio_report/internal/model"
	"github.com/shopspring/decimal"
)

// defaultTER is assumed for instruments the definition file carries no
// expense ratio for (0.10% per year).
var defaultTER = decimal.NewFromFloat(0.10)

var hundred = decimal.NewFromInt(100)

// minCAGRYears gates CAGR on positions younger than 30 days.
const minCAGRYears = 30.0 / 365.25

// BuildPositionReports values every open position of the ledger at its
// latest close and appends the synthetic TOTALE row. Tickers whose queue
// was fully consumed are left out.
func BuildPositionReports(ledger *Ledger, prices map[string]model.PriceSeries, pf model.Portfolio, now time.Time) []model.PositionReport {
	reports := make([]model.PositionReport, 0, len(ledger.Tickers())+1)

	totalInitial := decimal.Zero
	totalCurrent := decimal.Zero
	totalCost := decimal.Zero
	var earliestOverall time.Time
	haveEarliest := false

	for _, ticker := range ledger.Tickers() {
		lots := ledger.Lots(ticker)
		if len(lots) == 0 {
			continue
		}

		series, ok := prices[ticker]
		if !ok || series.Empty() {
			continue
		}
		currentPrice, _ := series.LastClose()

		initial := decimal.Zero
		quantity := decimal.Zero
		earliest := lots[0].Date
		for _, lot := range lots {
			initial = initial.Add(lot.Quantity.Mul(lot.Price))
			quantity = quantity.Add(lot.Quantity)
			if lot.Date.Before(earliest) {
				earliest = lot.Date
			}
		}
		current := quantity.Mul(currentPrice)

		ter := terOf(pf, ticker)
		annualCost := current.Mul(ter).Div(hundred)

		grossGain := current.Sub(initial)
		netGain := grossGain.Sub(annualCost)

		reports = append(reports, model.PositionReport{
			Ticker:       ticker,
			Name:         nameOf(pf, ticker),
			Quantity:     quantity,
			CurrentPrice: currentPrice.Round(2),
			InitialValue: initial.Round(2),
			CurrentValue: current.Round(2),
			GrossGain:    grossGain.Round(2),
			GrossReturn:  percentOf(grossGain, initial),
			AnnualCost:   annualCost.Round(2),
			NetGain:      netGain.Round(2),
			NetReturn:    percentOf(netGain, initial),
			CAGR:         cagrPercent(initial, current, marketdata.YearsSince(earliest, now)),
		})

		totalInitial = totalInitial.Add(initial)
		totalCurrent = totalCurrent.Add(current)
		totalCost = totalCost.Add(annualCost)
		if !haveEarliest || earliest.Before(earliestOverall) {
			earliestOverall = earliest
			haveEarliest = true
		}
	}

	totalGross := totalCurrent.Sub(totalInitial)
	totalNet := totalGross.Sub(totalCost)

	totalCAGR := decimal.Zero
	if haveEarliest {
		totalCAGR = cagrPercent(totalInitial, totalCurrent, marketdata.YearsSince(earliestOverall, now))
	}

	reports = append(reports, model.PositionReport{
		Ticker:       model.TotalTicker,
		Name:         model.TotalTicker,
		InitialValue: totalInitial.Round(2),
		CurrentValue: totalCurrent.Round(2),
		GrossGain:    totalGross.Round(2),
		GrossReturn:  percentOf(totalGross, totalInitial),
		AnnualCost:   totalCost.Round(2),
		NetGain:      totalNet.Round(2),
		NetReturn:    percentOf(totalNet, totalInitial),
		CAGR:         totalCAGR,
	})

	return reports
}

// percentOf is gain/base×100 with a zero guard: a non-positive base yields
// zero instead of a division error.
func percentOf(gain, base decimal.Decimal) decimal.Decimal {
	if !base.IsPositive() {
		return decimal.Zero
	}
	return gain.Div(base).Mul(hundred).Round(2)
}

// cagrPercent computes the compounded annual growth percent. Positions
// younger than 30 days, without growth or without a positive cost basis
// report zero, a deliberate policy rather than an undefined value.
func cagrPercent(initial, current decimal.Decimal, years float64) decimal.Decimal {
	if years <= minCAGRYears || !initial.IsPositive() || !current.GreaterThan(initial) {
		return decimal.Zero
	}

	ratio := current.InexactFloat64() / initial.InexactFloat64()
	cagr := (math.Pow(ratio, 1/years) - 1) * 100

	return decimal.NewFromFloat(cagr).Round(2)
}

func terOf(pf model.Portfolio, ticker string) decimal.Decimal {
	if instr, ok := pf.InstrumentByTicker(ticker); ok && !instr.TER.IsZero() {
		return instr.TER
	}
	return defaultTER
}

func nameOf(pf model.Portfolio, ticker string) string {
	if instr, ok := pf.InstrumentByTicker(ticker); ok && instr.Name != "" {
		return instr.Name
	}
	return ticker
}
