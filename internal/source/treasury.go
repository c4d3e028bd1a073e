package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"AssetHist/internal/domain/models"
	"AssetHist/internal/domain/repository"
	xhttp "AssetHist/pkg/http"
	applogger "AssetHist/pkg/logger"
)

// bondTitles maps the short bond codes used in asset keys to the
// product names published in the treasury transparency CSV.
var bondTitles = map[string]string{
	"LFT":     "Tesouro Selic",
	"LTN":     "Tesouro Prefixado",
	"NTN-F":   "Tesouro Prefixado com Juros Semestrais",
	"NTN-B-P": "Tesouro IPCA+",
	"NTN-B":   "Tesouro IPCA+ com Juros Semestrais",
	"NTN-C":   "Tesouro IGPM+ com Juros Semestrais",
	"NTN-R":   "Tesouro Renda+ Aposentadoria Extra",
	"NTN-E":   "Tesouro Educa+",
}

const treasuryDateFormat = "02/01/2006"

// TreasuryConfig configures the government bond adapter.
type TreasuryConfig struct {
	Client  *xhttp.Client
	Logger  *applogger.Logger
	URL     string
	Retries int
}

// Treasury fetches historical government bond unit prices from the
// treasury transparency portal's full-history CSV. Asset codes name a
// bond type and maturity year, e.g. "LFT/2029".
type Treasury struct {
	cfg TreasuryConfig
}

// NewTreasury creates the government bond source.
func NewTreasury(cfg TreasuryConfig) *Treasury { return &Treasury{cfg: cfg} }

func (t *Treasury) Type() repository.DataSource { return repository.SourceGovBondTransparent }

func (t *Treasury) GetData(ctx context.Context, p repository.GetDataParams) (*models.AssetSeries, error) {
	if err := p.Require("assetCode", "minDate", "maxDate"); err != nil {
		return nil, fmt.Errorf("treasury: %w", err)
	}

	bond, maturityYear, err := parseBondCode(p.AssetCode)
	if err != nil {
		return nil, err
	}
	title := bondTitles[bond]

	raw, err := t.fetchCSV(ctx)
	if err != nil {
		return nil, fmt.Errorf("treasury: %w", err)
	}

	series := &models.AssetSeries{
		Key:         p.AssetCode,
		Type:        models.AssetGovBond,
		Granularity: models.GranularityDay,
		Metadata: models.Metadata{
			Currency: "BRL",
			MinDate:  p.MinDate,
			MaxDate:  p.MaxDate,
			Errors:   []models.ErrorRecord{},
		},
	}

	r := csv.NewReader(strings.NewReader(string(raw)))
	r.Comma = ';'
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("treasury: parse csv: %w", err)
	}

	for i, rec := range records {
		if i == 0 || len(rec) == 0 {
			continue // header
		}
		if len(rec) < 8 {
			series.AddError(time.Time{}, "short row", strings.Join(rec, ";"))
			continue
		}
		if rec[0] != title {
			continue
		}

		maturity, err := time.Parse(treasuryDateFormat, rec[1])
		if err != nil || maturity.Year() != maturityYear {
			continue
		}

		date, err := time.Parse(treasuryDateFormat, rec[2])
		if err != nil {
			series.AddError(time.Time{}, "unparseable base date", rec[2])
			continue
		}
		if date.Before(p.MinDate) || date.After(p.MaxDate) {
			continue
		}

		value, err := parseDecimalComma(rec[7])
		if err != nil {
			series.AddError(date, "unparseable unit price", rec[7])
			continue
		}

		series.Data = append(series.Data, models.AssetPoint{
			AssetCode: p.AssetCode,
			Date:      date,
			Value:     value,
			Currency:  "BRL",
		})
	}

	sort.Slice(series.Data, func(i, j int) bool {
		return series.Data[i].Date.Before(series.Data[j].Date)
	})

	return series, nil
}

func (t *Treasury) fetchCSV(ctx context.Context) ([]byte, error) {
	var body []byte
	err := xhttp.Retry(ctx, xhttp.RetryConfig{Retries: t.cfg.Retries, Backoff: time.Second}, func(ctx context.Context) error {
		body = nil
		err := t.cfg.Client.SendAndParse(ctx, &xhttp.RequestOptions{
			Method: xhttp.MethodGet,
			URL:    t.cfg.URL,
		}, &body)
		if err != nil && t.cfg.Logger != nil {
			t.cfg.Logger.Warn("treasury fetch retry", applogger.Error(err))
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// parseBondCode splits "NTN-B/2035" into the bond code and maturity
// year, validating both.
func parseBondCode(assetCode string) (string, int, error) {
	idx := strings.LastIndex(assetCode, "/")
	if idx < 0 {
		return "", 0, fmt.Errorf("treasury: invalid bond code %q", assetCode)
	}

	bond := assetCode[:idx]
	if _, ok := bondTitles[bond]; !ok {
		return "", 0, fmt.Errorf("treasury: unknown bond type %q", bond)
	}

	year, err := strconv.Atoi(assetCode[idx+1:])
	if err != nil {
		return "", 0, fmt.Errorf("treasury: invalid maturity year in %q", assetCode)
	}

	return bond, year, nil
}

// parseDecimalComma parses Brazilian-formatted decimals ("13.805,44").
func parseDecimalComma(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	return strconv.ParseFloat(s, 64)
}
