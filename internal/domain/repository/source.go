package repository

import (
	"context"
	"fmt"
	"time"

	"AssetHist/internal/domain/models"
)

// DataSource identifies a concrete upstream feed.
type DataSource string

const (
	SourceFixedRate          DataSource = "FixedRate"
	SourceSelicDaySgs        DataSource = "SelicDaySgs"
	SourceSelicMonthSgs      DataSource = "SelicMonthSgs"
	SourceIpcaMonthSgs       DataSource = "IpcaMonthSgs"
	SourceIpcaDaySgs         DataSource = "IpcaDaySgs"
	SourceImabDaySgs         DataSource = "ImabDaySgs"
	SourceGovBondTransparent DataSource = "GovBondDayTransparente"
	SourceStockYahoo         DataSource = "StockYahoo"
)

// GetDataParams are the inputs every source accepts. Sources validate
// the subset they require and reject the rest descriptively.
type GetDataParams struct {
	AssetCode string
	MinDate   time.Time
	MaxDate   time.Time
	Rate      float64
}

// Require validates that the named fields are set. Field names mirror
// the params struct; minDate/maxDate together also check ordering.
func (p GetDataParams) Require(fields ...string) error {
	var hasMin, hasMax bool
	for _, f := range fields {
		switch f {
		case "assetCode":
			if p.AssetCode == "" {
				return fmt.Errorf("invalid params: assetCode")
			}
		case "minDate":
			hasMin = true
			if p.MinDate.IsZero() {
				return fmt.Errorf("invalid params: minDate")
			}
		case "maxDate":
			hasMax = true
			if p.MaxDate.IsZero() {
				return fmt.Errorf("invalid params: maxDate")
			}
		case "rate":
			if p.Rate == 0 {
				return fmt.Errorf("invalid params: rate")
			}
		}
	}
	if hasMin && hasMax && p.MinDate.After(p.MaxDate) {
		return fmt.Errorf("invalid params: minDate > maxDate")
	}
	return nil
}

// AssetSource fetches a historical series from one upstream feed.
// Implementations return points already filtered to [MinDate, MaxDate]
// and sorted ascending by date.
type AssetSource interface {
	Type() DataSource
	GetData(ctx context.Context, params GetDataParams) (*models.AssetSeries, error)
}
