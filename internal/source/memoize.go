// Package source implements the upstream data source adapters: SGS
// series from the Brazilian central bank, government bond prices from
// the treasury transparency portal, stock and FX quotes from Yahoo
// Finance, and synthetic fixed-rate series. Each adapter normalizes
// its feed into an AssetSeries and is memoized on a logical-day
// bucket so one upstream fetch serves a whole day of requests.
package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	"AssetHist/internal/domain/models"
	"AssetHist/internal/domain/repository"
	"AssetHist/pkg/memoize"
	"AssetHist/pkg/metrics"
	"AssetHist/pkg/util"
)

// CacheOptions control how a source's results are memoized.
type CacheOptions struct {
	Store memoize.Store
	// BucketOffsetHours shifts the logical-day rollover past midnight
	// UTC so late-arriving daily data lands in the previous bucket.
	BucketOffsetHours int
	Disabled          bool
	Metrics           *metrics.Recorder
}

type fetchedFlagKey struct{}

type memoizedSource struct {
	inner repository.AssetSource
	rec   *metrics.Recorder
	get   func(context.Context, repository.GetDataParams) (*models.AssetSeries, error)
}

// Memoized wraps src so GetData results are cached per logical-day
// bucket. Keys embed the bucket; every call first sweeps entries from
// older buckets, so a bucket rollover invalidates the whole store at
// once.
func Memoized(src repository.AssetSource, opts CacheOptions) repository.AssetSource {
	offset := opts.BucketOffsetHours
	name := string(src.Type())

	fetch := func(ctx context.Context, p repository.GetDataParams) (*models.AssetSeries, error) {
		if flag, ok := ctx.Value(fetchedFlagKey{}).(*bool); ok {
			*flag = true
		}
		if opts.Metrics != nil {
			opts.Metrics.RecordCacheMiss(name)
			opts.Metrics.RecordFetch(name)
			start := time.Now()
			s, err := src.GetData(ctx, p)
			opts.Metrics.RecordFetchDuration(name, time.Since(start).Seconds())
			if err != nil {
				opts.Metrics.RecordError(name, "fetch")
			}
			return s, err
		}
		return src.GetData(ctx, p)
	}

	get := memoize.Wrap(fetch, memoize.Config{
		Store:    opts.Store,
		Disabled: opts.Disabled,
		Key: func(arg any) string {
			p := arg.(repository.GetDataParams)
			return cacheKey(src.Type(), p, offset)
		},
		OnCall: func(s memoize.Store) {
			prefix := util.LogicalDay(time.Now().UTC(), offset) + "|"
			s.Invalidate(func(key string, _ memoize.Entry) bool {
				return !strings.HasPrefix(key, prefix)
			})
		},
	})

	return &memoizedSource{inner: src, rec: opts.Metrics, get: get}
}

func (m *memoizedSource) Type() repository.DataSource { return m.inner.Type() }

func (m *memoizedSource) GetData(ctx context.Context, p repository.GetDataParams) (*models.AssetSeries, error) {
	var fetched bool
	ctx = context.WithValue(ctx, fetchedFlagKey{}, &fetched)

	s, err := m.get(ctx, p)
	if m.rec != nil && err == nil && !fetched {
		m.rec.RecordCacheHit(string(m.inner.Type()))
	}
	return s, err
}

func cacheKey(t repository.DataSource, p repository.GetDataParams, offset int) string {
	bucket := util.LogicalDay(time.Now().UTC(), offset)
	return fmt.Sprintf("%s|%s|%s|%s|%s|%g",
		bucket, t, p.AssetCode, util.ISODate(p.MinDate), util.ISODate(p.MaxDate), p.Rate)
}
