package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceSeries holds the daily closes of one ticker as parallel slices,
// ascending by date, timezone-naive (UTC midnight). An empty series is a
// valid "no data" state, not an error.
type PriceSeries struct {
	Dates  []time.Time
	Closes []decimal.Decimal
}

func (s PriceSeries) Len() int {
	return len(s.Dates)
}

func (s PriceSeries) Empty() bool {
	return len(s.Dates) == 0
}

// LastClose returns the most recent close of the series.
func (s PriceSeries) LastClose() (decimal.Decimal, bool) {
	if s.Empty() {
		return decimal.Decimal{}, false
	}
	return s.Closes[len(s.Closes)-1], true
}

// MarketSnapshot is one persisted market-data document: every fetched
// ticker's series for a (period, granularity) pair, stamped at save time.
type MarketSnapshot struct {
	Timestamp   time.Time
	Period      string
	Granularity string
	Series      map[string]PriceSeries
}
