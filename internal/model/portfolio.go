package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type TradeSide int

const (
	Buy TradeSide = iota
	Sell
)

func (s TradeSide) String() string {
	if s == Sell {
		return "vendita"
	}
	return "acquisto"
}

// Allocation is one slice of an instrument's category breakdown,
// e.g. ("USA", 62.5) for geography or ("Sviluppato", 89.0) for market type.
type Allocation struct {
	Label   string
	Percent decimal.Decimal
}

type Instrument struct {
	Ticker            string
	Name              string
	ISIN              string
	TER               decimal.Decimal // percent per year, e.g. 0.10 = 0.10%
	Link              string
	GeoAllocations    []Allocation
	MarketAllocations []Allocation
}

// TradeEvent is a single buy or sell from the operations ledger.
// Amount is an optional fallback value used only when no price can be
// resolved for the trade date; zero when absent.
type TradeEvent struct {
	Date     time.Time
	Ticker   string
	Quantity decimal.Decimal
	Side     TradeSide
	Amount   decimal.Decimal
}

type Portfolio struct {
	Instruments []Instrument
	Events      []TradeEvent
}

func (p Portfolio) InstrumentByTicker(ticker string) (Instrument, bool) {
	for _, instr := range p.Instruments {
		if instr.Ticker == ticker {
			return instr, true
		}
	}
	return Instrument{}, false
}

func (p Portfolio) Tickers() []string {
	tickers := make([]string, 0, len(p.Instruments))
	for _, instr := range p.Instruments {
		tickers = append(tickers, instr.Ticker)
	}
	return tickers
}
