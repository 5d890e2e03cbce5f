// Package jsonRepo loads the portfolio definition from its JSON file
// (instrument registry plus the buy/sell operations ledger). Parsing
// problems are surfaced to the caller, which treats them as the
// empty-result condition; a failure here is the only thing that halts a
// report.
package jsonRepo

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gmarchetti87/portfolio_report/config"
	"github.com/gmarchetti87/portfolio_report/data/repository"
	"github.com/gmarchetti87/portfolio_report/internal/model"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

type JsonRepo struct {
	path string
}

func New(cfg *config.Config) *JsonRepo {
	return &JsonRepo{path: cfg.PortfolioFile}
}

type portfolioDoc struct {
	Instruments []instrumentDoc `json:"nomi_titoli"`
	Operations  []operationDoc  `json:"operazioni"`
}

type instrumentDoc struct {
	Name           string          `json:"nome"`
	ISIN           string          `json:"ISIN"`
	Ticker         string          `json:"TICKER"`
	TER            float64         `json:"TER"`
	Link           string          `json:"link"`
	GeoBreakdown   []allocationDoc `json:"distribuzione_geografica"`
	MarketTypology []typologyDoc   `json:"tipologia_mercato"`
}

type allocationDoc struct {
	Country string  `json:"nazione"`
	Percent float64 `json:"percentuale"`
}

type typologyDoc struct {
	Type    string  `json:"tipo"`
	Percent float64 `json:"percentuale"`
}

type operationDoc struct {
	Date     string   `json:"data"`
	Quantity float64  `json:"quote"`
	Side     string   `json:"operazione"`
	Ticker   string   `json:"titolo"`
	Amount   *float64 `json:"importo_scambiato"`
}

func (r *JsonRepo) LoadPortfolio() (model.Portfolio, error) {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.Portfolio{}, fmt.Errorf("portfolio file %s: %w", r.path, repository.ErrNotFound)
		}
		return model.Portfolio{}, fmt.Errorf("read portfolio file: %w", err)
	}

	doc := portfolioDoc{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return model.Portfolio{}, fmt.Errorf("parse portfolio file: %w", err)
	}

	pf := model.Portfolio{
		Instruments: make([]model.Instrument, 0, len(doc.Instruments)),
		Events:      make([]model.TradeEvent, 0, len(doc.Operations)),
	}

	for _, d := range doc.Instruments {
		instr := model.Instrument{
			Ticker: d.Ticker,
			Name:   d.Name,
			ISIN:   d.ISIN,
			TER:    decimal.NewFromFloat(d.TER),
			Link:   d.Link,
		}
		for _, g := range d.GeoBreakdown {
			instr.GeoAllocations = append(instr.GeoAllocations, model.Allocation{
				Label:   g.Country,
				Percent: decimal.NewFromFloat(g.Percent),
			})
		}
		for _, t := range d.MarketTypology {
			instr.MarketAllocations = append(instr.MarketAllocations, model.Allocation{
				Label:   t.Type,
				Percent: decimal.NewFromFloat(t.Percent),
			})
		}
		pf.Instruments = append(pf.Instruments, instr)
	}

	// Events keep their file order: the ledger processes them as listed.
	for _, d := range doc.Operations {
		event, ok := parseOperation(d)
		if !ok {
			continue
		}
		pf.Events = append(pf.Events, event)
	}

	return pf, nil
}

func parseOperation(d operationDoc) (model.TradeEvent, bool) {
	date, err := time.Parse(dateLayout, d.Date)
	if err != nil {
		slog.Warn("operation with unparsable date skipped", slog.String("date", d.Date), slog.String("ticker", d.Ticker))
		return model.TradeEvent{}, false
	}

	var side model.TradeSide
	switch strings.ToLower(d.Side) {
	case "acquisto":
		side = model.Buy
	case "vendita":
		side = model.Sell
	default:
		slog.Warn("operation with unknown side skipped", slog.String("side", d.Side), slog.String("ticker", d.Ticker))
		return model.TradeEvent{}, false
	}

	event := model.TradeEvent{
		Date:     date,
		Ticker:   d.Ticker,
		Quantity: decimal.NewFromFloat(d.Quantity),
		Side:     side,
	}
	if d.Amount != nil {
		event.Amount = decimal.NewFromFloat(*d.Amount)
	}

	return event, true
}
