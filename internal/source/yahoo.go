package source

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"AssetHist/internal/domain/models"
	"AssetHist/internal/domain/repository"
	xhttp "AssetHist/pkg/http"
	applogger "AssetHist/pkg/logger"
	"AssetHist/pkg/util"
)

// YahooConfig configures the Yahoo Finance chart adapter.
type YahooConfig struct {
	Client  *xhttp.Client
	Logger  *applogger.Logger
	BaseURL string
	Retries int
}

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency string `json:"currency"`
				Symbol   string `json:"symbol"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close  []*float64 `json:"close"`
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
				Adjclose []struct {
					Adjclose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
			Events struct {
				Dividends map[string]struct {
					Amount float64 `json:"amount"`
				} `json:"dividends"`
				Splits map[string]struct {
					Numerator   float64 `json:"numerator"`
					Denominator float64 `json:"denominator"`
				} `json:"splits"`
			} `json:"events"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Yahoo fetches daily close prices from the Yahoo Finance v8 chart
// API. It serves stocks, ETFs, FX pairs ("USDBRL=X") and rate indices
// ("^IRX") alike.
type Yahoo struct {
	cfg YahooConfig
}

// NewYahoo creates the Yahoo Finance source.
func NewYahoo(cfg YahooConfig) *Yahoo { return &Yahoo{cfg: cfg} }

func (y *Yahoo) Type() repository.DataSource { return repository.SourceStockYahoo }

func (y *Yahoo) GetData(ctx context.Context, p repository.GetDataParams) (*models.AssetSeries, error) {
	if err := p.Require("assetCode", "minDate", "maxDate"); err != nil {
		return nil, fmt.Errorf("yahoo: %w", err)
	}

	resp, err := y.fetchChart(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("yahoo %s: %w", p.AssetCode, err)
	}

	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo %s: %s: %s",
			p.AssetCode, resp.Chart.Error.Code, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo %s: empty result", p.AssetCode)
	}

	result := resp.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo %s: no quote data", p.AssetCode)
	}
	quote := result.Indicators.Quote[0]
	closes := quote.Close
	var adjCloses []*float64
	if len(result.Indicators.Adjclose) > 0 {
		adjCloses = result.Indicators.Adjclose[0].Adjclose
	}

	series := &models.AssetSeries{
		Key:         p.AssetCode,
		Type:        assetTypeForSymbol(p.AssetCode),
		Granularity: models.GranularityDay,
		Metadata: models.Metadata{
			Currency: result.Meta.Currency,
			MinDate:  p.MinDate,
			MaxDate:  p.MaxDate,
			Errors:   []models.ErrorRecord{},
		},
	}

	for i, ts := range result.Timestamp {
		date := util.StartOfDay(time.Unix(ts, 0).UTC())
		if date.Before(p.MinDate) || date.After(util.EndOfDay(p.MaxDate)) {
			continue
		}
		if i >= len(closes) || closes[i] == nil {
			series.AddError(date, "missing close", p.AssetCode)
			continue
		}

		point := models.AssetPoint{
			AssetCode: p.AssetCode,
			Date:      date,
			Value:     *closes[i],
			Currency:  result.Meta.Currency,
			Open:      sampleAt(quote.Open, i),
			High:      sampleAt(quote.High, i),
			Low:       sampleAt(quote.Low, i),
			Volume:    sampleAt(quote.Volume, i),
		}
		if adj := sampleAt(adjCloses, i); adj != 0 && point.Value != 0 {
			point.AdjClose = adj
			point.AdjRatio = adj / point.Value
		}

		// Corporate events are keyed by the raw bar timestamp.
		key := strconv.FormatInt(ts, 10)
		if div, ok := result.Events.Dividends[key]; ok {
			point.DividendAmount = div.Amount
		}
		if split, ok := result.Events.Splits[key]; ok && split.Denominator != 0 {
			point.SplitCoefficient = split.Numerator / split.Denominator
		}

		series.Data = append(series.Data, point)
	}

	return series, nil
}

// sampleAt reads an optional indicator column, zero when absent.
func sampleAt(vals []*float64, i int) float64 {
	if i >= len(vals) || vals[i] == nil {
		return 0
	}
	return *vals[i]
}

func (y *Yahoo) fetchChart(ctx context.Context, p repository.GetDataParams) (*yahooChartResponse, error) {
	url := fmt.Sprintf("%s/%s", strings.TrimRight(y.cfg.BaseURL, "/"), p.AssetCode)

	var resp yahooChartResponse
	err := xhttp.Retry(ctx, xhttp.RetryConfig{Retries: y.cfg.Retries, Backoff: time.Second}, func(ctx context.Context) error {
		resp = yahooChartResponse{}
		err := y.cfg.Client.SendAndParse(ctx, &xhttp.RequestOptions{
			Method: xhttp.MethodGet,
			URL:    url,
			QueryParams: map[string][]string{
				"period1":              {strconv.FormatInt(p.MinDate.Unix(), 10)},
				"period2":              {strconv.FormatInt(util.EndOfDay(p.MaxDate).Unix(), 10)},
				"interval":             {"1d"},
				"events":               {"div,splits"},
				"includeAdjustedClose": {"true"},
			},
			Headers: map[string]string{
				"User-Agent": "Mozilla/5.0",
			},
		}, &resp)
		if err != nil && y.cfg.Logger != nil {
			y.cfg.Logger.Warn("yahoo fetch retry",
				applogger.String("symbol", p.AssetCode),
				applogger.Error(err),
			)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func assetTypeForSymbol(symbol string) models.AssetType {
	switch {
	case strings.HasSuffix(symbol, "=X"):
		return models.AssetForex
	case strings.HasPrefix(symbol, "^IRX"):
		return models.AssetIRX
	default:
		return models.AssetStock
	}
}
