package portfolio

import (
	"testing"

	"github.com/gmarchetti87/portfolio_report/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDistributionsFansOutAllocations(t *testing.T) {
	prices := map[string]model.PriceSeries{
		"AAA": seriesOf(pt("2024-01-02", 100)),
		"BBB": seriesOf(pt("2024-01-02", 50)),
	}
	pf := model.Portfolio{
		Instruments: []model.Instrument{
			{
				Ticker:            "AAA",
				GeoAllocations:    []model.Allocation{{Label: "USA", Percent: decimal.NewFromInt(60)}, {Label: "Europa", Percent: decimal.NewFromInt(40)}},
				MarketAllocations: []model.Allocation{{Label: "Sviluppato", Percent: decimal.NewFromInt(100)}},
			},
			{
				Ticker:         "BBB",
				GeoAllocations: []model.Allocation{{Label: "USA", Percent: decimal.NewFromInt(100)}},
			},
		},
		Events: []model.TradeEvent{
			buy("2024-01-02", "AAA", 10), // 1000, weight 2/3
			buy("2024-01-02", "BBB", 10), // 500, weight 1/3
		},
	}

	geo, market, total := BuildDistributions(pf, prices)

	assert.True(t, total.Equal(decimal.NewFromInt(1500)))
	// 2/3×0.60 + 1/3×1.00
	assert.InDelta(t, 0.7333, geo["USA"].InexactFloat64(), 1e-4)
	assert.InDelta(t, 0.2667, geo["Europa"].InexactFloat64(), 1e-4)
	assert.InDelta(t, 0.6667, market["Sviluppato"].InexactFloat64(), 1e-4)
}

func TestBuildDistributionsNotRenormalized(t *testing.T) {
	prices := map[string]model.PriceSeries{
		"AAA": seriesOf(pt("2024-01-02", 100)),
		"BBB": seriesOf(pt("2024-01-02", 100)),
	}
	// only one of two equally weighted instruments carries geography
	pf := model.Portfolio{
		Instruments: []model.Instrument{
			{Ticker: "AAA", GeoAllocations: []model.Allocation{{Label: "USA", Percent: decimal.NewFromInt(100)}}},
			{Ticker: "BBB"},
		},
		Events: []model.TradeEvent{
			buy("2024-01-02", "AAA", 10),
			buy("2024-01-02", "BBB", 10),
		},
	}

	geo, _, _ := BuildDistributions(pf, prices)

	require.Len(t, geo, 1)
	assert.True(t, geo["USA"].Equal(decimal.NewFromFloat(0.5)))
}

func TestBuildDistributionsNetsSells(t *testing.T) {
	prices := map[string]model.PriceSeries{
		"AAA": seriesOf(pt("2024-01-02", 100)),
		"BBB": seriesOf(pt("2024-01-02", 100)),
	}
	pf := model.Portfolio{
		Instruments: []model.Instrument{
			{Ticker: "AAA", GeoAllocations: []model.Allocation{{Label: "USA", Percent: decimal.NewFromInt(100)}}},
			{Ticker: "BBB", GeoAllocations: []model.Allocation{{Label: "Europa", Percent: decimal.NewFromInt(100)}}},
		},
		Events: []model.TradeEvent{
			buy("2024-01-02", "AAA", 10),
			buy("2024-01-02", "BBB", 10),
			sell("2024-02-02", "BBB", 10),
		},
	}

	geo, _, total := BuildDistributions(pf, prices)

	assert.True(t, total.Equal(decimal.NewFromInt(1000)))
	require.Len(t, geo, 1)
	assert.True(t, geo["USA"].Equal(decimal.NewFromInt(1)))
}

func TestBuildDistributionsEmptyWithoutValue(t *testing.T) {
	geo, market, total := BuildDistributions(model.Portfolio{}, nil)

	assert.True(t, total.IsZero())
	assert.Empty(t, geo)
	assert.Empty(t, market)
}
