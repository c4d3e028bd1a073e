package source

import (
	"context"
	"testing"
	"time"

	"AssetHist/internal/domain/models"
	"AssetHist/internal/domain/repository"
)

func TestFixedRateGetData(t *testing.T) {
	src := NewFixedRate()

	series, err := src.GetData(context.Background(), repository.GetDataParams{
		AssetCode: "FIXED",
		MinDate:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		MaxDate:   time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		Rate:      0.1,
	})
	if err != nil {
		t.Fatalf("GetData: %v", err)
	}

	if series.Type != models.AssetFixedRate {
		t.Fatalf("type: %s", series.Type)
	}
	if len(series.Data) != 5 {
		t.Fatalf("expected 5 business days, got %d", len(series.Data))
	}
	if series.Data[0].Value != 1000 {
		t.Fatalf("initial level: %v", series.Data[0].Value)
	}
	for i := 1; i < len(series.Data); i++ {
		if series.Data[i].Value <= series.Data[i-1].Value {
			t.Fatalf("positive rate must grow monotonically: %+v", series.Data)
		}
	}
}

func TestFixedRateRequiresRate(t *testing.T) {
	src := NewFixedRate()
	_, err := src.GetData(context.Background(), repository.GetDataParams{
		AssetCode: "FIXED",
		MinDate:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		MaxDate:   time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
	})
	if err == nil {
		t.Fatalf("expected params error without rate")
	}
}
