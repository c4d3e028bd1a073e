package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"AssetHist/internal/domain/models"
	"AssetHist/internal/domain/repository"
	"AssetHist/internal/ratelimit"
	"AssetHist/internal/search"
	"AssetHist/internal/source"
	xlogger "AssetHist/pkg/logger"

	"github.com/labstack/echo/v4"
)

type stubSource struct{}

func (s *stubSource) Type() repository.DataSource { return repository.SourceStockYahoo }

func (s *stubSource) GetData(ctx context.Context, p repository.GetDataParams) (*models.AssetSeries, error) {
	return &models.AssetSeries{
		Key:  p.AssetCode,
		Type: models.AssetStock,
		Metadata: models.Metadata{
			Currency: "USD",
			Errors:   []models.ErrorRecord{},
		},
		Data: []models.AssetPoint{{
			AssetCode: p.AssetCode,
			Date:      time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			Value:     238.41,
			Currency:  "USD",
		}},
	}, nil
}

func newTestHandler(t *testing.T) (*AssetsHandler, *echo.Echo) {
	t.Helper()
	log, err := xlogger.New(&xlogger.Config{Level: "error", Format: "json", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	reg := source.Registry{repository.SourceStockYahoo: &stubSource{}}
	svc := search.NewService(reg, log, nil, search.Options{MaxAssets: 10, Concurrency: 5})

	h := NewAssetsHandler(log, svc, nil, ratelimit.New(1000, 1000))

	e := echo.New()
	h.RegisterRoutes(e)
	return h, e
}

func doRequest(e *echo.Echo, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestSearchEndpoint(t *testing.T) {
	_, e := newTestHandler(t)

	rec := doRequest(e, http.MethodGet, "/api/search?assets=VTI&minDate=2024-01-01&maxDate=2024-01-31")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Status int `json:"status"`
		Data   []struct {
			Key  string `json:"key"`
			Data []struct {
				Value float64 `json:"value"`
			} `json:"data"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Data) != 1 || body.Data[0].Key != "VTI" {
		t.Fatalf("body: %s", rec.Body.String())
	}
	if body.Data[0].Data[0].Value != 238.41 {
		t.Fatalf("value: %v", body.Data[0].Data[0].Value)
	}
}

func TestSearchEndpointMissingParams(t *testing.T) {
	_, e := newTestHandler(t)

	rec := doRequest(e, http.MethodGet, "/api/search?assets=VTI")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	// Validation errors come back in the response envelope with a 400
	// status field.
	var body struct {
		Status int `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != http.StatusBadRequest {
		t.Fatalf("envelope status: %d, body %s", body.Status, rec.Body.String())
	}
}

func TestSearchEndpointBadDates(t *testing.T) {
	_, e := newTestHandler(t)

	rec := doRequest(e, http.MethodGet, "/api/search?assets=VTI&minDate=2024-12-31&maxDate=2024-01-01")
	var body struct {
		Status int `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != http.StatusBadRequest {
		t.Fatalf("envelope status: %d", body.Status)
	}
}

func TestSearchEndpointTooManyAssets(t *testing.T) {
	_, e := newTestHandler(t)

	rec := doRequest(e, http.MethodGet,
		"/api/search?assets=A%2BB%2BC%2BD%2BE%2BF%2BG%2BH%2BI%2BJ%2BK&minDate=2024-01-01&maxDate=2024-01-31")
	var body struct {
		Status int `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != http.StatusBadRequest {
		t.Fatalf("limit violation must map to 400, got %d: %s", body.Status, rec.Body.String())
	}
}

func TestHealthEndpoint(t *testing.T) {
	_, e := newTestHandler(t)

	rec := doRequest(e, http.MethodGet, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestSchedulerEndpointDisabled(t *testing.T) {
	_, e := newTestHandler(t)

	rec := doRequest(e, http.MethodPost, "/api/scheduler/run")
	var body struct {
		Status int `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != http.StatusBadRequest {
		t.Fatalf("disabled scheduler must map to 400, got %d", body.Status)
	}
}
