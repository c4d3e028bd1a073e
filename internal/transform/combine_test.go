package transform

import (
	"math"
	"strings"
	"testing"
	"time"

	"AssetHist/internal/domain/models"
)

func indexSeries(key, currency string, start time.Time, values ...float64) *models.AssetSeries {
	data := make([]models.AssetPoint, len(values))
	for i, v := range values {
		data[i] = models.AssetPoint{
			AssetCode: key,
			Date:      start.AddDate(0, 0, i),
			Value:     v,
			Currency:  currency,
		}
	}
	return &models.AssetSeries{Key: key, Type: models.AssetStock, Data: data}
}

func TestIsSumKey(t *testing.T) {
	cases := []struct {
		key  string
		want bool
	}{
		{"VTI", false},
		{"VTI+TSLA", true},
		{"VTI~USDBRL=X", true},
		{"SELIC.SA", false},
	}
	for _, c := range cases {
		if got := IsSumKey(c.key); got != c.want {
			t.Fatalf("IsSumKey(%q) = %v, want %v", c.key, got, c.want)
		}
	}
}

func TestStripTrim(t *testing.T) {
	cases := []struct {
		key, want string
	}{
		{"SELIC.SA[2010-01-01|2019-12-31]", "SELIC.SA"},
		{"VTI[|2020-01-01]", "VTI"},
		{"VTI[2020-01-01|]", "VTI"},
		{"VTI", "VTI"},
	}
	for _, c := range cases {
		if got := StripTrim(c.key); got != c.want {
			t.Fatalf("StripTrim(%q) = %q, want %q", c.key, got, c.want)
		}
	}
}

func TestSumAssetsVariationProduct(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a := indexSeries("A", "BRL", start, 100, 110, 121)
	b := indexSeries("B", "BRL", start, 200, 100, 400)

	out, err := SumAssets("A+B", a, b)
	if err != nil {
		t.Fatalf("SumAssets: %v", err)
	}
	if len(out.Data) != 3 {
		t.Fatalf("expected 3 points, got %d", len(out.Data))
	}
	// First date: both at their own base, so the index starts at 100.
	if out.Data[0].Value != BaseIndexValue {
		t.Fatalf("first value: got %f", out.Data[0].Value)
	}
	// Second date: 100 * (110/100) * (100/200) = 55.
	if math.Abs(out.Data[1].Value-55) > 1e-9 {
		t.Fatalf("second value: got %f want 55", out.Data[1].Value)
	}
	// Third date: 100 * 1.21 * 2 = 242.
	if math.Abs(out.Data[2].Value-242) > 1e-9 {
		t.Fatalf("third value: got %f want 242", out.Data[2].Value)
	}
	if out.Key != "A+B" {
		t.Fatalf("key: got %q", out.Key)
	}
}

func TestSumAssetsSubtractDividesOut(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a := indexSeries("A", "BRL", start, 100, 200)
	b := indexSeries("B", "BRL", start, 50, 100)

	out, err := SumAssets("A~B", a, b)
	if err != nil {
		t.Fatalf("SumAssets: %v", err)
	}
	// Both double, so the ratio stays at the base index.
	for i, p := range out.Data {
		if math.Abs(p.Value-BaseIndexValue) > 1e-9 {
			t.Fatalf("point %d: got %f want %f", i, p.Value, BaseIndexValue)
		}
	}
}

func TestSumAssetsCarryForward(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a := indexSeries("A", "BRL", start, 100, 110, 121)
	// B misses the middle date.
	b := &models.AssetSeries{Key: "B", Type: models.AssetStock, Data: []models.AssetPoint{
		{AssetCode: "B", Date: start, Value: 200, Currency: "BRL"},
		{AssetCode: "B", Date: start.AddDate(0, 0, 2), Value: 300, Currency: "BRL"},
	}}

	out, err := SumAssets("A+B", a, b)
	if err != nil {
		t.Fatalf("SumAssets: %v", err)
	}
	if len(out.Data) != 3 {
		t.Fatalf("expected the union of dates, got %d points", len(out.Data))
	}
	// Middle date uses B's last known value: 100 * 1.1 * (200/200) = 110.
	if math.Abs(out.Data[1].Value-110) > 1e-9 {
		t.Fatalf("carry-forward value: got %f want 110", out.Data[1].Value)
	}
}

func TestSumAssetsCurrencyMismatch(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a := indexSeries("A", "BRL", start, 100)
	b := indexSeries("B", "USD", start, 100)

	_, err := SumAssets("A+B", a, b)
	if err == nil || !strings.Contains(err.Error(), "currency mismatch") {
		t.Fatalf("expected currency mismatch error, got %v", err)
	}
}

func TestSumAssetsMissingOperand(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a := indexSeries("A", "BRL", start, 100)

	_, err := SumAssets("A+B", a)
	if err == nil {
		t.Fatalf("expected error for missing operand")
	}
}

func TestTrimAssets(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a := indexSeries("A", "BRL", start, 100, 110, 121, 133, 146)

	out, err := TrimAssets("A[2024-01-02|2024-01-04]", a)
	if err != nil {
		t.Fatalf("TrimAssets: %v", err)
	}
	if len(out.Data) != 3 {
		t.Fatalf("expected 3 points inside the window, got %d", len(out.Data))
	}
	if out.Data[0].Value != 110 || out.Data[2].Value != 133 {
		t.Fatalf("window bounds not inclusive: %+v", out.Data)
	}
	if out.Key != "A[2024-01-02|2024-01-04]" {
		t.Fatalf("key: got %q", out.Key)
	}
	// Source series is untouched.
	if len(a.Data) != 5 {
		t.Fatalf("source mutated")
	}
}

func TestTrimAssetsOpenBounds(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a := indexSeries("A", "BRL", start, 100, 110, 121)

	out, err := TrimAssets("A[|2024-01-02]", a)
	if err != nil {
		t.Fatalf("TrimAssets: %v", err)
	}
	if len(out.Data) != 2 {
		t.Fatalf("open start bound: got %d points", len(out.Data))
	}

	out, err = TrimAssets("A[2024-01-03|]", a)
	if err != nil {
		t.Fatalf("TrimAssets: %v", err)
	}
	if len(out.Data) != 1 || out.Data[0].Value != 121 {
		t.Fatalf("open end bound: %+v", out.Data)
	}
}
