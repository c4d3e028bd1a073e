package source

import (
	"context"
	"testing"
	"time"

	"AssetHist/internal/domain/models"
	"AssetHist/internal/domain/repository"
	"AssetHist/pkg/memoize"
)

type countingSource struct {
	calls int
}

func (c *countingSource) Type() repository.DataSource { return repository.SourceStockYahoo }

func (c *countingSource) GetData(ctx context.Context, p repository.GetDataParams) (*models.AssetSeries, error) {
	c.calls++
	return &models.AssetSeries{Key: p.AssetCode, Type: models.AssetStock}, nil
}

func TestMemoizedServesSecondCallFromCache(t *testing.T) {
	inner := &countingSource{}
	src := Memoized(inner, CacheOptions{Store: memoize.NewMemoryStore(), BucketOffsetHours: 7})

	params := repository.GetDataParams{
		AssetCode: "VTI",
		MinDate:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		MaxDate:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	}

	for i := 0; i < 3; i++ {
		s, err := src.GetData(context.Background(), params)
		if err != nil {
			t.Fatalf("GetData: %v", err)
		}
		if s.Key != "VTI" {
			t.Fatalf("key: %q", s.Key)
		}
	}
	if inner.calls != 1 {
		t.Fatalf("expected 1 upstream call, got %d", inner.calls)
	}

	// Different params miss.
	params.AssetCode = "TSLA"
	if _, err := src.GetData(context.Background(), params); err != nil {
		t.Fatalf("GetData: %v", err)
	}
	if inner.calls != 2 {
		t.Fatalf("expected 2 upstream calls, got %d", inner.calls)
	}
}

func TestMemoizedSweepsOldBuckets(t *testing.T) {
	store := memoize.NewMemoryStore()
	inner := &countingSource{}
	src := Memoized(inner, CacheOptions{Store: store, BucketOffsetHours: 7})

	params := repository.GetDataParams{
		AssetCode: "VTI",
		MinDate:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		MaxDate:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	}
	if _, err := src.GetData(context.Background(), params); err != nil {
		t.Fatalf("GetData: %v", err)
	}

	// Seed an entry from a previous bucket; the next call sweeps it.
	store.Set("1999-01-01|StockYahoo|OLD|2024-01-01|2024-01-31|0", memoize.Entry{Date: time.Now()})
	if store.Len() != 2 {
		t.Fatalf("setup: %d entries", store.Len())
	}

	if _, err := src.GetData(context.Background(), params); err != nil {
		t.Fatalf("GetData: %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("stale bucket not swept: %d entries", store.Len())
	}
}

func TestMemoizedDisabled(t *testing.T) {
	inner := &countingSource{}
	src := Memoized(inner, CacheOptions{Store: memoize.NewMemoryStore(), Disabled: true})

	params := repository.GetDataParams{AssetCode: "VTI"}
	for i := 0; i < 2; i++ {
		if _, err := src.GetData(context.Background(), params); err != nil {
			t.Fatalf("GetData: %v", err)
		}
	}
	if inner.calls != 2 {
		t.Fatalf("disabled cache must call through, got %d calls", inner.calls)
	}
}
