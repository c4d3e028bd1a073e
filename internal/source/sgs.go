package source

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"AssetHist/internal/domain/models"
	"AssetHist/internal/domain/repository"
	"AssetHist/internal/transform"
	xhttp "AssetHist/pkg/http"
	applogger "AssetHist/pkg/logger"
	"AssetHist/pkg/util"
)

// SGS series codes published by the Brazilian central bank.
const (
	sgsCodeSelicDay   = 11
	sgsCodeSelicMonth = 4390
	sgsCodeIpcaMonth  = 433
	sgsCodeImabDay    = 12467
)

const sgsDateFormat = "02/01/2006"

// SgsConfig configures the SGS adapters.
type SgsConfig struct {
	Client  *xhttp.Client
	Logger  *applogger.Logger
	BaseURL string
	Retries int
	// MaxSpanYears caps each request's date span; SGS rejects wider
	// windows for daily series. Wider ranges are fetched in chunks.
	MaxSpanYears int
}

type sgsRow struct {
	Data  string `json:"data"`
	Valor string `json:"valor"`
}

// Sgs fetches one SGS series and normalizes it to an AssetSeries.
type Sgs struct {
	cfg         SgsConfig
	code        int
	sourceType  repository.DataSource
	assetType   models.AssetType
	granularity models.Granularity
	// castPercent divides values by 100: SGS publishes rates as
	// percentages but index levels (IMAB) as-is.
	castPercent bool
}

// NewSelicDaySgs fetches the daily Selic rate (series 11).
func NewSelicDaySgs(cfg SgsConfig) *Sgs {
	return &Sgs{cfg: cfg, code: sgsCodeSelicDay, sourceType: repository.SourceSelicDaySgs,
		assetType: models.AssetSelic, granularity: models.GranularityDay, castPercent: true}
}

// NewSelicMonthSgs fetches the monthly Selic rate (series 4390).
func NewSelicMonthSgs(cfg SgsConfig) *Sgs {
	return &Sgs{cfg: cfg, code: sgsCodeSelicMonth, sourceType: repository.SourceSelicMonthSgs,
		assetType: models.AssetSelic, granularity: models.GranularityMonth, castPercent: true}
}

// NewIpcaMonthSgs fetches the monthly IPCA inflation rate (series 433).
func NewIpcaMonthSgs(cfg SgsConfig) *Sgs {
	return &Sgs{cfg: cfg, code: sgsCodeIpcaMonth, sourceType: repository.SourceIpcaMonthSgs,
		assetType: models.AssetIPCA, granularity: models.GranularityMonth, castPercent: true}
}

// NewImabDaySgs fetches the daily IMA-B index level (series 12467).
func NewImabDaySgs(cfg SgsConfig) *Sgs {
	return &Sgs{cfg: cfg, code: sgsCodeImabDay, sourceType: repository.SourceImabDaySgs,
		assetType: models.AssetIMAB, granularity: models.GranularityDay, castPercent: false}
}

func (s *Sgs) Type() repository.DataSource { return s.sourceType }

func (s *Sgs) GetData(ctx context.Context, p repository.GetDataParams) (*models.AssetSeries, error) {
	if err := p.Require("assetCode", "minDate", "maxDate"); err != nil {
		return nil, fmt.Errorf("sgs %d: %w", s.code, err)
	}

	series := &models.AssetSeries{
		Key:         p.AssetCode,
		Type:        s.assetType,
		Granularity: s.granularity,
		Metadata: models.Metadata{
			Currency: "BRL",
			MinDate:  p.MinDate,
			MaxDate:  p.MaxDate,
			Errors:   []models.ErrorRecord{},
		},
	}

	maxYears := s.cfg.MaxSpanYears
	if maxYears <= 0 {
		maxYears = 9
	}

	for _, rng := range util.SplitDateRanges(p.MinDate, p.MaxDate, maxYears) {
		rows, err := s.fetchRange(ctx, rng[0], rng[1])
		if err != nil {
			return nil, fmt.Errorf("sgs %d [%s..%s]: %w",
				s.code, util.ISODate(rng[0]), util.ISODate(rng[1]), err)
		}

		for _, row := range rows {
			date, err := time.Parse(sgsDateFormat, row.Data)
			if err != nil {
				series.AddError(time.Time{}, "unparseable date", row.Data)
				continue
			}
			value, err := strconv.ParseFloat(strings.TrimSpace(row.Valor), 64)
			if err != nil {
				series.AddError(date, "unparseable value", row.Valor)
				continue
			}
			if s.castPercent {
				value /= 100
			}
			series.Data = append(series.Data, models.AssetPoint{
				AssetCode: p.AssetCode,
				Date:      date,
				Value:     value,
				Currency:  "BRL",
			})
		}
	}

	return series, nil
}

func (s *Sgs) fetchRange(ctx context.Context, start, end time.Time) ([]sgsRow, error) {
	url := fmt.Sprintf("%s/bcdata.sgs.%d/dados", strings.TrimRight(s.cfg.BaseURL, "/"), s.code)

	var rows []sgsRow
	err := xhttp.Retry(ctx, xhttp.RetryConfig{Retries: s.cfg.Retries, Backoff: time.Second}, func(ctx context.Context) error {
		rows = rows[:0]
		err := s.cfg.Client.SendAndParse(ctx, &xhttp.RequestOptions{
			Method: xhttp.MethodGet,
			URL:    url,
			QueryParams: map[string][]string{
				"formato":     {"json"},
				"dataInicial": {start.Format(sgsDateFormat)},
				"dataFinal":   {end.Format(sgsDateFormat)},
			},
		}, &rows)
		if err != nil && s.cfg.Logger != nil {
			s.cfg.Logger.Warn("sgs fetch retry",
				applogger.Int("code", s.code),
				applogger.Error(err),
			)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// IpcaDay derives a daily IPCA series by spreading the monthly rate
// over each month's business days.
type IpcaDay struct {
	monthly repository.AssetSource
}

// NewIpcaDaySgs derives daily IPCA from the monthly SGS series.
func NewIpcaDaySgs(monthly repository.AssetSource) *IpcaDay {
	return &IpcaDay{monthly: monthly}
}

func (s *IpcaDay) Type() repository.DataSource { return repository.SourceIpcaDaySgs }

func (s *IpcaDay) GetData(ctx context.Context, p repository.GetDataParams) (*models.AssetSeries, error) {
	if err := p.Require("assetCode", "minDate", "maxDate"); err != nil {
		return nil, fmt.Errorf("ipca day: %w", err)
	}

	// Widen to whole months so the first month spreads correctly.
	monthlyParams := p
	monthlyParams.MinDate = util.FirstOfMonth(p.MinDate)

	monthly, err := s.monthly.GetData(ctx, monthlyParams)
	if err != nil {
		return nil, err
	}

	daily := transform.DailyfyPercents(monthly.Data, p.MaxDate)

	filtered := daily[:0]
	for _, pt := range daily {
		if pt.Date.Before(p.MinDate) {
			continue
		}
		filtered = append(filtered, pt)
	}

	out := *monthly
	out.Granularity = models.GranularityDay
	out.Metadata.MinDate = p.MinDate
	out.Data = filtered
	return &out, nil
}
