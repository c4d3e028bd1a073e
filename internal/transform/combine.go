package transform

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"AssetHist/internal/domain/models"
	"AssetHist/pkg/util"
)

const (
	// SumOp joins operands whose variation multiplies in.
	SumOp = "+"
	// SubOp joins operands whose variation divides out.
	SubOp = "~"
)

var (
	// sumOpRe matches the combination operators of a composite key,
	// e.g. "VTI+TSLA~USDBRL=X".
	sumOpRe = regexp.MustCompile(`[+~]`)
	// trimRe matches the trim bracket of a composite key,
	// e.g. "SELIC.SA[2010-01-01|2019-12-31]"; either bound optional.
	trimRe = regexp.MustCompile(`\[(\d{4}-\d{2}-\d{2})?\|(\d{4}-\d{2}-\d{2})?\]`)
)

// IsSumKey reports whether key combines operands with + or ~.
func IsSumKey(key string) bool { return sumOpRe.MatchString(key) }

// IsTrimKey reports whether key carries a trim bracket.
func IsTrimKey(key string) bool { return trimRe.MatchString(key) }

// StripTrim removes the trim bracket from key.
func StripTrim(key string) string { return trimRe.ReplaceAllString(key, "") }

// SplitSum splits a combination key into its operand keys. A plain key
// comes back as a single operand.
func SplitSum(key string) []string { return splitNonEmpty(key, sumOpRe) }

// SumAssets evaluates a combination key ("A+B~C") over already
// resolved operand series. Each operand contributes the cumulative
// relative return since its own first observation; + multiplies the
// variation in, ~ divides it out; the product is scaled by the base
// index value. Last known values carry forward across dates missing
// from one operand. All operands must share one currency.
func SumAssets(key string, series ...*models.AssetSeries) (*models.AssetSeries, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("no series provided for %s", key)
	}

	operandKeys := splitNonEmpty(key, sumOpRe)
	operators := sumOpRe.FindAllString(key, -1)

	operands := make([]*models.AssetSeries, len(operandKeys))
	for i, ok := range operandKeys {
		operands[i] = findByKey(series, ok)
		if operands[i] == nil || len(operands[i].Data) == 0 {
			return nil, fmt.Errorf("missing asset %q for %s", ok, key)
		}
	}

	currency := seriesCurrency(operands[0])
	for _, op := range operands {
		if seriesCurrency(op) != currency {
			return nil, fmt.Errorf("currency mismatch in %s", key)
		}
	}

	valuesByDate := make([]map[string]float64, len(operands))
	dateSet := make(map[string]struct{})
	for i, op := range operands {
		valuesByDate[i] = make(map[string]float64, len(op.Data))
		for _, p := range op.Data {
			iso := util.ISODate(p.Date)
			valuesByDate[i][iso] = p.Value
			dateSet[iso] = struct{}{}
		}
	}

	dates := make([]string, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	initValues := make([]float64, len(operands))
	latestValues := make([]float64, len(operands))

	points := make([]models.AssetPoint, 0, len(dates))
	for _, iso := range dates {
		combined := BaseIndexValue

		for i := range operands {
			current, ok := valuesByDate[i][iso]
			if !ok {
				current = latestValues[i]
			}
			if current == 0 {
				continue // operand not observed yet, no variation
			}
			if initValues[i] == 0 {
				initValues[i] = current
			}

			variation := current / initValues[i]
			if i > 0 && operators[i-1] == SubOp {
				combined /= variation
			} else {
				combined *= variation
			}
		}

		for i := range operands {
			if v, ok := valuesByDate[i][iso]; ok {
				latestValues[i] = v
			}
		}

		date, _ := time.Parse(util.ISODateFormat, iso)
		points = append(points, models.AssetPoint{
			AssetCode: key,
			Date:      date,
			Value:     combined,
			Currency:  currency,
		})
	}

	types := make([]string, len(operands))
	for i, op := range operands {
		types[i] = string(op.Type)
	}

	return &models.AssetSeries{
		Key:         key,
		Type:        models.AssetType(strings.Join(types, "+")),
		Granularity: operands[0].Granularity,
		Metadata: models.Metadata{
			Currency:   currency,
			AssetTypes: types,
			MinDate:    operands[0].Metadata.MinDate,
			MaxDate:    operands[0].Metadata.MaxDate,
			Errors:     []models.ErrorRecord{},
		},
		Data: points,
	}, nil
}

// TrimAssets evaluates a trim key ("X[start|end]") over resolved
// series, filtering the named series to the inclusive date window.
func TrimAssets(key string, series ...*models.AssetSeries) (*models.AssetSeries, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("no series provided for %s", key)
	}

	m := trimRe.FindStringSubmatch(key)
	if m == nil {
		return nil, fmt.Errorf("invalid trim expression %q", key)
	}
	assetKey := StripTrim(key)

	src := findByKey(series, assetKey)
	if src == nil || len(src.Data) == 0 {
		return nil, fmt.Errorf("missing asset %q for %s", assetKey, key)
	}

	var start, end time.Time
	if m[1] != "" {
		t, err := time.Parse(util.ISODateFormat, m[1])
		if err != nil {
			return nil, fmt.Errorf("invalid trim start %q: %w", m[1], err)
		}
		start = util.StartOfDay(t)
	}
	if m[2] != "" {
		t, err := time.Parse(util.ISODateFormat, m[2])
		if err != nil {
			return nil, fmt.Errorf("invalid trim end %q: %w", m[2], err)
		}
		end = util.EndOfDay(t)
	}

	var trimmed []models.AssetPoint
	for _, p := range src.Data {
		if !start.IsZero() && p.Date.Before(start) {
			continue
		}
		if !end.IsZero() && p.Date.After(end) {
			continue
		}
		trimmed = append(trimmed, p)
	}

	out := *src
	out.Key = key
	out.Data = trimmed
	return &out, nil
}

func seriesCurrency(s *models.AssetSeries) string {
	if s.Metadata.Currency != "" {
		return s.Metadata.Currency
	}
	if len(s.Data) > 0 {
		return s.Data[0].Currency
	}
	return ""
}

func findByKey(series []*models.AssetSeries, key string) *models.AssetSeries {
	for _, s := range series {
		if s.Key == key {
			return s
		}
	}
	return nil
}

func splitNonEmpty(s string, re *regexp.Regexp) []string {
	var out []string
	for _, part := range re.Split(s, -1) {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
