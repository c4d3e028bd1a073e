package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"AssetHist/internal/domain/models"
	"AssetHist/internal/domain/repository"
	"AssetHist/internal/source"
	"AssetHist/internal/transform"
	applogger "AssetHist/pkg/logger"
	"AssetHist/pkg/metrics"
	"AssetHist/pkg/parallel"
	"AssetHist/pkg/util"
)

// Sentinel errors let callers distinguish bad requests from upstream
// failures.
var (
	ErrTooManyAssets = errors.New("too many assets")
	ErrInvalidAsset  = errors.New("invalid asset expression")
)

// Options tune the resolver.
type Options struct {
	// MaxAssets caps distinct atomic assets per request.
	MaxAssets int
	// Concurrency caps parallel upstream fetches.
	Concurrency int
	// LeverageFloor clamps leveraged values at zero instead of letting
	// them go negative.
	LeverageFloor bool
}

// Service resolves composite asset expressions.
type Service struct {
	sources source.Registry
	log     *applogger.Logger
	rec     *metrics.Recorder
	opts    Options
}

// NewService creates the search resolver.
func NewService(sources source.Registry, log *applogger.Logger, rec *metrics.Recorder, opts Options) *Service {
	if opts.MaxAssets <= 0 {
		opts.MaxAssets = 10
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 5
	}
	return &Service{sources: sources, log: log, rec: rec, opts: opts}
}

// Search resolves each requested key into a normalized series.
// Composite keys ("VTI+TSLA~USDBRL=X", trim brackets, currency and
// leverage suffixes) are evaluated over their atomic assets, which are
// fetched concurrently and fail the whole request on first error.
// Results come back in request order with duplicates removed.
func (s *Service) Search(ctx context.Context, assets []string, minDate, maxDate time.Time) ([]*models.AssetSeries, error) {
	start := time.Now()

	keys := dedupe(assets)
	atomics := atomicCodes(keys)
	if len(atomics) > s.opts.MaxAssets {
		return nil, fmt.Errorf("%w: %d atomic assets requested, limit is %d",
			ErrTooManyAssets, len(atomics), s.opts.MaxAssets)
	}

	fx := newFxCache()

	tasks := make([]parallel.Task[*models.AssetSeries], len(atomics))
	for i, raw := range atomics {
		raw := raw
		tasks[i] = func(ctx context.Context) (*models.AssetSeries, error) {
			return s.resolveAtomic(ctx, raw, minDate, maxDate, fx)
		}
	}

	resolved, err := parallel.Run(ctx, tasks, s.opts.Concurrency)
	if err != nil {
		s.recordSearch("error", start)
		return nil, err
	}

	out := make([]*models.AssetSeries, 0, len(keys))
	for _, key := range keys {
		series, err := s.assemble(key, resolved)
		if err != nil {
			s.recordSearch("error", start)
			return nil, err
		}
		out = append(out, series)
	}

	if s.log != nil {
		s.log.Info("search resolved",
			applogger.Strings("assets", keys),
			applogger.Int("atomics", len(atomics)),
			applogger.Duration("took", time.Since(start)),
		)
	}
	s.recordSearch("ok", start)
	return out, nil
}

// assemble evaluates one requested key over the resolved atomics.
func (s *Service) assemble(key string, resolved []*models.AssetSeries) (*models.AssetSeries, error) {
	stripped := transform.StripTrim(key)

	var series *models.AssetSeries
	if transform.IsSumKey(stripped) {
		combined, err := transform.SumAssets(stripped, resolved...)
		if err != nil {
			return nil, err
		}
		series = combined
	} else {
		for _, r := range resolved {
			if r.Key == stripped {
				series = r
				break
			}
		}
		if series == nil {
			return nil, fmt.Errorf("unresolved asset %q", stripped)
		}
	}

	if transform.IsTrimKey(key) {
		trimmed, err := transform.TrimAssets(key, series)
		if err != nil {
			return nil, err
		}
		series = trimmed
	}
	return series, nil
}

// resolveAtomic fetches and transforms one atomic asset expression.
func (s *Service) resolveAtomic(ctx context.Context, raw string, minDate, maxDate time.Time, fx *fxCache) (*models.AssetSeries, error) {
	ticker, err := ParseTicker(raw)
	if err != nil {
		return nil, err
	}

	kind := ResolveKind(ticker.Code)
	src := s.sources.Get(SourceFor(kind))
	if src == nil {
		return nil, fmt.Errorf("no source for %q", raw)
	}

	params := repository.GetDataParams{
		AssetCode: SourceCode(kind, ticker.Code),
		MinDate:   minDate,
		MaxDate:   maxDate,
	}
	if kind == KindFixedRate {
		params.Rate = ticker.Modifier
	}

	series, err := src.GetData(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", raw, err)
	}

	series.Data = s.transformData(kind, ticker, series.Data)

	if ticker.Currency != "" {
		from := series.Metadata.Currency
		if from != "" && from != ticker.Currency {
			if err := s.convertCurrency(ctx, series, ticker.Currency, minDate, maxDate, fx); err != nil {
				return nil, fmt.Errorf("resolve %s: %w", raw, err)
			}
		} else {
			// Assets with no native currency (synthetic fixed rates) are
			// priced directly in the requested one.
			series.Metadata.Currency = ticker.Currency
			for i := range series.Data {
				series.Data[i].Currency = ticker.Currency
			}
		}
		labeled := ticker.Code + ":" + ticker.Currency
		for i := range series.Data {
			series.Data[i].AssetCode = labeled
		}
	}

	series = transform.CleanUp(series)
	series.Key = raw
	return series, nil
}

// transformData applies the per-kind transform chain to raw upstream
// values.
func (s *Service) transformData(kind AssetKind, ticker Ticker, data []models.AssetPoint) []models.AssetPoint {
	floor := s.opts.LeverageFloor

	switch kind {
	case KindFixedRate:
		// Already an index series; the modifier was the rate.
		return data
	case KindSelic, KindIpca:
		// Daily percent changes compound into an index.
		data = transform.Assetfy(data, transform.BaseIndexValue)
		return transform.ApplyLeverage(data, ticker.Modifier, floor)
	case KindIrx:
		// Annualized percent yields: cast to a fraction, spread over the
		// year's business days and compound.
		daily := make([]models.AssetPoint, len(data))
		for i, p := range data {
			periods := float64(util.BusinessDaysInYear(p.Date.Year()) - 1)
			if periods <= 0 {
				periods = 260
			}
			p.Value = math.Pow(1+p.Value/100, 1/periods) - 1
			daily[i] = p
		}
		daily = transform.Assetfy(daily, transform.BaseIndexValue)
		return transform.ApplyLeverage(daily, ticker.Modifier, floor)
	default:
		// Index levels and prices pass through.
		return transform.ApplyLeverage(data, ticker.Modifier, floor)
	}
}

// convertCurrency fetches the FX pair and rebases the series, reusing
// an in-flight fetch for the same pair within this request.
func (s *Service) convertCurrency(ctx context.Context, series *models.AssetSeries, target string, minDate, maxDate time.Time, fx *fxCache) error {
	from := series.Metadata.Currency
	if from == "" {
		return fmt.Errorf("unknown source currency for %s", series.Key)
	}
	pair := from + target + "=X"

	rates, err := fx.get(ctx, pair, func(ctx context.Context) (*models.AssetSeries, error) {
		src := s.sources.Get(repository.SourceStockYahoo)
		if src == nil {
			return nil, fmt.Errorf("no source for fx pair %s", pair)
		}
		return src.GetData(ctx, repository.GetDataParams{
			AssetCode: pair,
			MinDate:   minDate,
			MaxDate:   maxDate,
		})
	})
	if err != nil {
		return fmt.Errorf("fx %s: %w", pair, err)
	}

	series.Data = transform.ConvertCurrency(series.Data, rates.Data)
	series.Metadata.Currency = target
	return nil
}

func (s *Service) recordSearch(outcome string, start time.Time) {
	if s.rec != nil {
		s.rec.RecordSearchDuration(outcome, time.Since(start).Seconds())
	}
}

// fxCache deduplicates FX fetches within one request: concurrent
// atomics converting through the same pair share a single fetch.
type fxCache struct {
	mu sync.Mutex
	m  map[string]*fxEntry
}

type fxEntry struct {
	ready  chan struct{}
	series *models.AssetSeries
	err    error
}

func newFxCache() *fxCache {
	return &fxCache{m: make(map[string]*fxEntry)}
}

func (c *fxCache) get(ctx context.Context, pair string, fetch func(context.Context) (*models.AssetSeries, error)) (*models.AssetSeries, error) {
	c.mu.Lock()
	if e, ok := c.m[pair]; ok {
		c.mu.Unlock()
		select {
		case <-e.ready:
			return e.series, e.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	e := &fxEntry{ready: make(chan struct{})}
	c.m[pair] = e
	c.mu.Unlock()

	e.series, e.err = fetch(ctx)
	close(e.ready)
	return e.series, e.err
}

// dedupe removes duplicate keys preserving first-seen order.
func dedupe(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// atomicCodes expands the requested keys into their distinct atomic
// asset expressions, trim brackets stripped.
func atomicCodes(keys []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, key := range keys {
		stripped := transform.StripTrim(key)
		for _, atomic := range transform.SplitSum(stripped) {
			if _, ok := seen[atomic]; ok {
				continue
			}
			seen[atomic] = struct{}{}
			out = append(out, atomic)
		}
	}
	return out
}
