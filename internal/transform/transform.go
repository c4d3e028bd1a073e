// Package transform holds the pure time-series transforms applied to
// normalized asset series: percent spreading, compounding, currency
// conversion, leverage, fixed-rate generation and output cleanup.
package transform

import (
	"math"
	"time"

	"AssetHist/internal/domain/models"
	"AssetHist/pkg/util"
)

const (
	// BaseIndexValue is the initial level for compounded and combined series.
	BaseIndexValue = 100.0
	// FixedRateInitValue is the initial level of synthetic fixed-rate series.
	FixedRateInitValue = 1000.0
)

// DailyfyPercents spreads each monthly percent-change point across that
// month's business days so the compounded daily rates reproduce the
// monthly rate. Truncates at maxDate when set.
func DailyfyPercents(monthly []models.AssetPoint, maxDate time.Time) []models.AssetPoint {
	var daily []models.AssetPoint

	for _, p := range monthly {
		days := util.BusinessDaysRange(util.FirstOfMonth(p.Date), util.LastOfMonth(p.Date))
		if len(days) == 0 {
			continue
		}
		dailyValue := math.Pow(1+p.Value, 1/float64(len(days))) - 1

		for _, day := range days {
			if !maxDate.IsZero() && day.After(maxDate) {
				break
			}
			daily = append(daily, models.AssetPoint{
				AssetCode: p.AssetCode,
				Date:      day,
				Value:     dailyValue,
				Currency:  p.Currency,
			})
		}
	}

	return daily
}

// Assetfy converts a percent-change series into an index level series
// starting at initValue, each point's percent applied to the running
// level.
func Assetfy(points []models.AssetPoint, initValue float64) []models.AssetPoint {
	out := make([]models.AssetPoint, 0, len(points))
	level := initValue

	for i, p := range points {
		if i > 0 {
			level = level * (1 + p.Value)
		}
		p.Value = level
		out = append(out, p)
	}

	return out
}

// ConvertCurrency multiplies each point by the FX rate of the same
// date, carrying the last known rate forward over gaps and dropping
// points before the first available rate. The currency label is taken
// from the FX series.
func ConvertCurrency(points, fx []models.AssetPoint) []models.AssetPoint {
	fxByDate := make(map[string]models.AssetPoint, len(fx))
	for _, f := range fx {
		fxByDate[util.ISODate(f.Date)] = f
	}

	var out []models.AssetPoint
	var last models.AssetPoint
	haveRate := false

	for _, p := range points {
		if f, ok := fxByDate[util.ISODate(p.Date)]; ok {
			last = f
			haveRate = true
		}
		if !haveRate {
			continue
		}
		out = append(out, models.AssetPoint{
			AssetCode: p.AssetCode,
			Date:      p.Date,
			Value:     p.Value * last.Value,
			Currency:  last.Currency,
		})
	}

	return out
}

// GenerateFixedRate produces one point per business day compounding
// annualRate over the business days of each calendar year crossed.
func GenerateFixedRate(assetCode string, start, end time.Time, initValue, annualRate float64) []models.AssetPoint {
	dates := util.BusinessDaysRange(start, end)
	out := make([]models.AssetPoint, 0, len(dates))

	periodsByYear := make(map[int]float64)
	for year := start.Year(); year <= end.Year(); year++ {
		periods := float64(util.BusinessDaysInYear(year) - 1)
		if periods <= 0 {
			periods = 260
		}
		periodsByYear[year] = periods
	}

	for i, date := range dates {
		rate := math.Pow(1+annualRate, float64(i)/periodsByYear[date.Year()])
		out = append(out, models.AssetPoint{
			AssetCode: assetCode,
			Date:      date,
			Value:     initValue * rate,
		})
	}

	return out
}

// ApplyLeverage rebalances the day-over-day change by a constant
// factor. Factor <= 0 or == 1 returns the input unchanged. floorAtZero
// clamps a leveraged value that would go negative.
func ApplyLeverage(points []models.AssetPoint, factor float64, floorAtZero bool) []models.AssetPoint {
	if factor <= 0 || factor == 1 || len(points) == 0 {
		return points
	}

	out := make([]models.AssetPoint, 0, len(points))
	current := points[0].Value
	out = append(out, points[0])

	for i := 1; i < len(points); i++ {
		change := (points[i].Value - points[i-1].Value) * factor
		value := current + change
		if floorAtZero && value < 0 {
			value = 0
		}

		p := points[i]
		p.Value = value
		out = append(out, p)

		current = value
	}

	return out
}

// CleanUp hoists the first point's assetCode/currency into the series
// metadata, strips the per-point copies and rounds index levels to two
// decimals. Values at or below 1 are raw percentages and stay
// unrounded; a point sitting exactly at 1 is indistinguishable from a
// percent under this heuristic.
func CleanUp(s *models.AssetSeries) *models.AssetSeries {
	cleaned := make([]models.AssetPoint, 0, len(s.Data))

	for _, p := range s.Data {
		if s.Metadata.AssetCode == "" && p.AssetCode != "" {
			s.Metadata.AssetCode = p.AssetCode
		}
		if s.Metadata.Currency == "" && p.Currency != "" {
			s.Metadata.Currency = p.Currency
		}

		value := p.Value
		if value > 1 {
			value = round2(value)
		}
		cleaned = append(cleaned, models.AssetPoint{Date: p.Date, Value: value})
	}

	s.Data = cleaned
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
