package portfolio

import (
	"testing"

	"github.com/gmarchetti87/portfolio_report/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findPosition(t *testing.T, reports []model.PositionReport, ticker string) model.PositionReport {
	t.Helper()
	for _, r := range reports {
		if r.Ticker == ticker {
			return r
		}
	}
	t.Fatalf("no report for %s", ticker)
	return model.PositionReport{}
}

func TestBuildPositionReportsCAGR(t *testing.T) {
	prices := map[string]model.PriceSeries{
		"AAA": seriesOf(pt("2023-06-30", 100), pt("2025-06-30", 121)),
	}
	events := []model.TradeEvent{buy("2023-06-30", "AAA", 10)}

	ledger := BuildLedger(events, prices)
	reports := BuildPositionReports(ledger, prices, model.Portfolio{}, day("2025-06-30"))

	pos := findPosition(t, reports, "AAA")
	assert.True(t, pos.InitialValue.Equal(decimal.NewFromInt(1000)))
	assert.True(t, pos.CurrentValue.Equal(decimal.NewFromInt(1210)))
	// 21% over two years compounds to ~10% per year
	assert.InDelta(t, 10.0, pos.CAGR.InexactFloat64(), 0.1)
}

func TestBuildPositionReportsCAGRZeroForYoungPosition(t *testing.T) {
	prices := map[string]model.PriceSeries{
		"AAA": seriesOf(pt("2025-06-20", 100), pt("2025-06-30", 150)),
	}
	events := []model.TradeEvent{buy("2025-06-20", "AAA", 10)}

	ledger := BuildLedger(events, prices)
	reports := BuildPositionReports(ledger, prices, model.Portfolio{}, day("2025-06-30"))

	pos := findPosition(t, reports, "AAA")
	assert.True(t, pos.GrossGain.Equal(decimal.NewFromInt(500)))
	assert.True(t, pos.CAGR.IsZero())
}

func TestBuildPositionReportsZeroCostBasis(t *testing.T) {
	prices := map[string]model.PriceSeries{
		"AAA": seriesOf(pt("2023-01-02", 0), pt("2024-01-02", 50)),
	}
	events := []model.TradeEvent{buy("2023-01-02", "AAA", 10)}

	ledger := BuildLedger(events, prices)
	reports := BuildPositionReports(ledger, prices, model.Portfolio{}, day("2024-01-02"))

	pos := findPosition(t, reports, "AAA")
	assert.True(t, pos.InitialValue.IsZero())
	assert.True(t, pos.GrossReturn.IsZero())
	assert.True(t, pos.NetReturn.IsZero())
	assert.True(t, pos.CAGR.IsZero())
}

func TestBuildPositionReportsAnnualCost(t *testing.T) {
	prices := map[string]model.PriceSeries{
		"AAA": seriesOf(pt("2024-01-02", 100)),
		"BBB": seriesOf(pt("2024-01-02", 100)),
	}
	pf := model.Portfolio{Instruments: []model.Instrument{
		{Ticker: "AAA", TER: decimal.NewFromFloat(0.22)},
		{Ticker: "BBB"}, // no expense ratio in the definition file
	}}
	events := []model.TradeEvent{
		buy("2024-01-02", "AAA", 10),
		buy("2024-01-02", "BBB", 10),
	}

	ledger := BuildLedger(events, prices)
	reports := BuildPositionReports(ledger, prices, pf, day("2024-06-30"))

	assert.True(t, findPosition(t, reports, "AAA").AnnualCost.Equal(decimal.NewFromFloat(2.2)))
	assert.True(t, findPosition(t, reports, "BBB").AnnualCost.Equal(decimal.NewFromInt(1)))
}

func TestBuildPositionReportsTotalRow(t *testing.T) {
	prices := map[string]model.PriceSeries{
		"AAA": seriesOf(pt("2023-01-02", 100), pt("2024-01-02", 110)),
		"BBB": seriesOf(pt("2023-01-02", 50), pt("2024-01-02", 40)),
	}
	events := []model.TradeEvent{
		buy("2023-01-02", "AAA", 10),
		buy("2023-01-02", "BBB", 20),
	}

	ledger := BuildLedger(events, prices)
	reports := BuildPositionReports(ledger, prices, model.Portfolio{}, day("2024-01-02"))

	require.Len(t, reports, 3)
	total := reports[len(reports)-1]
	require.True(t, total.IsTotal())
	assert.Equal(t, model.TotalTicker, total.Name)
	assert.True(t, total.InitialValue.Equal(decimal.NewFromInt(2000)))
	assert.True(t, total.CurrentValue.Equal(decimal.NewFromInt(1900)))
	assert.True(t, total.GrossGain.Equal(decimal.NewFromInt(-100)))
	assert.True(t, total.GrossReturn.Equal(decimal.NewFromInt(-5)))
}

func TestBuildPositionReportsSkipsClosedPositions(t *testing.T) {
	prices := map[string]model.PriceSeries{
		"AAA": seriesOf(pt("2024-01-02", 100)),
		"BBB": seriesOf(pt("2024-01-02", 50)),
	}
	events := []model.TradeEvent{
		buy("2024-01-02", "AAA", 10),
		buy("2024-01-02", "BBB", 10),
		sell("2024-01-05", "BBB", 10),
	}

	ledger := BuildLedger(events, prices)
	reports := BuildPositionReports(ledger, prices, model.Portfolio{}, day("2024-06-30"))

	require.Len(t, reports, 2)
	assert.Equal(t, "AAA", reports[0].Ticker)
	assert.True(t, reports[1].IsTotal())
}
