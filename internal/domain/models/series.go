package models

import "time"

// AssetType tags the kind of instrument a series describes.
type AssetType string

const (
	AssetFixedRate AssetType = "FixedRate"
	AssetSelic     AssetType = "Selic"
	AssetIPCA      AssetType = "IPCA"
	AssetIMAB      AssetType = "IMAB"
	AssetGovBond   AssetType = "GovBond"
	AssetStock     AssetType = "Stock"
	AssetForex     AssetType = "Forex" // USDBRL=X
	AssetIRX       AssetType = "IRX"   // US 13-week treasury rate
)

// Granularity is the nominal sampling interval of a series.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityMonth Granularity = "month"
)

// AssetPoint is one dated observation. Value semantics (percent, index
// level or price) are defined by the owning series and never mixed.
// The OHLC, adjusted-close and corporate-event fields are populated by
// price sources only and pass through transforms untouched.
type AssetPoint struct {
	AssetCode        string    `json:"assetCode,omitempty"`
	Date             time.Time `json:"date"`
	Value            float64   `json:"value"`
	Currency         string    `json:"currency,omitempty"`
	Volume           float64   `json:"volume,omitempty"`
	Open             float64   `json:"open,omitempty"`
	High             float64   `json:"high,omitempty"`
	Low              float64   `json:"low,omitempty"`
	AdjRatio         float64   `json:"adjRatio,omitempty"`
	AdjClose         float64   `json:"adjClose,omitempty"`
	DividendAmount   float64   `json:"dividendAmount,omitempty"`
	SplitCoefficient float64   `json:"splitCoefficient,omitempty"`
}

// ErrorRecord is a non-fatal per-point validation failure. Collected
// instead of raised so partial data stays usable.
type ErrorRecord struct {
	Date    time.Time `json:"date"`
	Message string    `json:"message"`
	Data    string    `json:"data,omitempty"`
}

// Metadata describes how a series was produced.
type Metadata struct {
	AssetCode  string        `json:"assetCode,omitempty"`
	Currency   string        `json:"currency,omitempty"`
	MinDate    time.Time     `json:"minDate,omitempty"`
	MaxDate    time.Time     `json:"maxDate,omitempty"`
	AssetTypes []string      `json:"assetTypes,omitempty"`
	Errors     []ErrorRecord `json:"errors"`
}

// AssetSeries is a normalized historical series. Data is sorted
// ascending by date and no two points share a date. Key uniquely
// identifies the derivation (raw code or composite expression).
type AssetSeries struct {
	Key         string       `json:"key"`
	Type        AssetType    `json:"type"`
	Granularity Granularity  `json:"granularity"`
	Metadata    Metadata     `json:"metadata"`
	Data        []AssetPoint `json:"data"`
}

// AddError records a skipped point on the series metadata.
func (s *AssetSeries) AddError(date time.Time, message, data string) {
	s.Metadata.Errors = append(s.Metadata.Errors, ErrorRecord{Date: date, Message: message, Data: data})
}
