package yahooApi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gmarchetti87/portfolio_report/config"
	"github.com/gmarchetti87/portfolio_report/internal/externalApi"
	"github.com/gmarchetti87/portfolio_report/internal/marketdata"
	"github.com/gmarchetti87/portfolio_report/internal/model"
	"github.com/gmarchetti87/portfolio_report/utils"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

type YahooApi struct {
	client *resty.Client
}

func New(cfg *config.Config) *YahooApi {
	client := resty.New().
		SetDebug(cfg.API.Debug).
		SetTimeout(cfg.API.Timeout).
		SetBaseURL(cfg.API.YahooApi.Url)
	return &YahooApi{client: client}
}

type rawChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// GetPriceHistory fetches the daily close history of one ticker. The
// returned series is ascending, deduplicated and timezone-naive; points
// without a close are dropped.
func (a *YahooApi) GetPriceHistory(ctx context.Context, ticker, period, granularity string) (model.PriceSeries, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	url := fmt.Sprintf("/v8/finance/chart/%s", ticker)
	params := map[string]string{
		"range":    period,
		"interval": granularity,
	}

	slog.Debug("start YahooApi.GetPriceHistory request", slog.String("rqID", rqID), slog.String("ticker", ticker))

	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParams(params).
		Get(url)

	if err != nil {
		slog.Error("error while dialing YahooApi", slog.String("err", err.Error()), slog.String("rqID", rqID), slog.String("ticker", ticker))
		return model.PriceSeries{}, err
	}

	raw := rawChart{}
	err = json.Unmarshal(resp.Body(), &raw)
	if err != nil {
		slog.Error("can't unmarshall YahooApi chart response", slog.String("err", err.Error()), slog.String("rqID", rqID), slog.String("ticker", ticker))
		return model.PriceSeries{}, err
	}

	if raw.Chart.Error != nil {
		slog.Error("YahooApi returned error", slog.String("code", raw.Chart.Error.Code), slog.String("rqID", rqID), slog.String("ticker", ticker))
		return model.PriceSeries{}, fmt.Errorf("yahoo chart error: %s", raw.Chart.Error.Code)
	}

	if len(raw.Chart.Result) == 0 {
		slog.Warn("YahooApi returned no result", slog.String("rqID", rqID), slog.String("ticker", ticker))
		return model.PriceSeries{}, externalApi.ErrNotFound
	}

	result := raw.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return model.PriceSeries{}, externalApi.ErrNotFound
	}

	closes := result.Indicators.Quote[0].Close
	series := model.PriceSeries{}
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		series.Dates = append(series.Dates, time.Unix(ts, 0).UTC())
		series.Closes = append(series.Closes, decimal.NewFromFloat(*closes[i]))
	}

	slog.Debug("YahooApi.GetPriceHistory request complete", slog.String("rqID", rqID), slog.String("ticker", ticker), slog.Int("points", series.Len()))

	return marketdata.Normalize(series), nil
}
