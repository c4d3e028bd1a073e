package source

import (
	"context"
	"fmt"

	"AssetHist/internal/domain/models"
	"AssetHist/internal/domain/repository"
	"AssetHist/internal/transform"
)

// FixedRate synthesizes a constant-yield series locally, one point per
// business day. No upstream is involved.
type FixedRate struct{}

// NewFixedRate creates the synthetic fixed-rate source.
func NewFixedRate() *FixedRate { return &FixedRate{} }

func (f *FixedRate) Type() repository.DataSource { return repository.SourceFixedRate }

func (f *FixedRate) GetData(ctx context.Context, p repository.GetDataParams) (*models.AssetSeries, error) {
	if err := p.Require("assetCode", "minDate", "maxDate", "rate"); err != nil {
		return nil, fmt.Errorf("fixed rate: %w", err)
	}

	data := transform.GenerateFixedRate(p.AssetCode, p.MinDate, p.MaxDate, transform.FixedRateInitValue, p.Rate)

	return &models.AssetSeries{
		Key:         p.AssetCode,
		Type:        models.AssetFixedRate,
		Granularity: models.GranularityDay,
		Metadata: models.Metadata{
			MinDate: p.MinDate,
			MaxDate: p.MaxDate,
			Errors:  []models.ErrorRecord{},
		},
		Data: data,
	}, nil
}
