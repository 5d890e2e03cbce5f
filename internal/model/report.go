package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TotalTicker marks the synthetic aggregate row of a position report.
const TotalTicker = "TOTALE"

type Lot struct {
	Date     time.Time
	Quantity decimal.Decimal
	Price    decimal.Decimal
}

type PositionReport struct {
	Ticker       string
	Name         string
	Quantity     decimal.Decimal
	CurrentPrice decimal.Decimal
	InitialValue decimal.Decimal
	CurrentValue decimal.Decimal
	GrossGain    decimal.Decimal
	GrossReturn  decimal.Decimal // percent
	AnnualCost   decimal.Decimal
	NetGain      decimal.Decimal
	NetReturn    decimal.Decimal // percent
	CAGR         decimal.Decimal // percent
}

func (r PositionReport) IsTotal() bool {
	return r.Ticker == TotalTicker
}

type AnnualSnapshot struct {
	Year         int
	InitialValue decimal.Decimal
	Inflows      decimal.Decimal
	Outflows     decimal.Decimal
	FinalValue   decimal.Decimal
	Gain         decimal.Decimal
	Return       decimal.Decimal // percent
	CAGR         decimal.Decimal // percent
	AnnualCost   decimal.Decimal
	NetGain      decimal.Decimal
	NetReturn    decimal.Decimal // percent
	NetCAGR      decimal.Decimal // percent
}

// OperationReport is one row of the operations log as it appears in the
// exported workbook: the raw event plus its value at the resolved trade
// price.
type OperationReport struct {
	Date          time.Time
	Ticker        string
	Name          string
	Side          TradeSide
	Quantity      decimal.Decimal
	Amount        decimal.Decimal
	InvestedValue decimal.Decimal
}

// Distribution maps a category label (country or market type) to the
// fraction of total portfolio value allocated to it. Sums can stay below 1
// when some instruments carry no metadata for the dimension.
type Distribution map[string]decimal.Decimal

type PortfolioReport struct {
	Positions   []PositionReport
	Annual      []AnnualSnapshot
	Operations  []OperationReport
	Geography   Distribution
	MarketTypes Distribution
	Warnings    []string
	GeneratedAt time.Time
}
