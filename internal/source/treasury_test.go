package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"AssetHist/internal/domain/repository"
	xhttp "AssetHist/pkg/http"
)

const treasuryCSV = `Tipo Titulo;Data Vencimento;Data Base;Taxa Compra Manha;Taxa Venda Manha;PU Compra Manha;PU Venda Manha;PU Base Manha
Tesouro Selic;01/03/2029;02/01/2024;0,04;0,08;14.387,72;14.381,97;14.381,97
Tesouro Selic;01/03/2029;03/01/2024;0,04;0,08;14.391,12;14.385,37;14.385,37
Tesouro Selic;01/03/2027;02/01/2024;0,01;0,05;14.200,00;14.195,00;14.195,00
Tesouro Prefixado;01/01/2027;02/01/2024;10,50;10,62;7.400,00;7.390,00;7.390,00
Tesouro Selic;01/03/2029;04/01/2024;0,04;0,08;bad;bad;not-a-number
`

func newTreasuryTest(t *testing.T, body string) *Treasury {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)

	return NewTreasury(TreasuryConfig{
		Client:  xhttp.NewClient(xhttp.WithTimeout(5 * time.Second)),
		URL:     srv.URL,
		Retries: 0,
	})
}

func TestTreasuryGetData(t *testing.T) {
	src := newTreasuryTest(t, treasuryCSV)
	series, err := src.GetData(context.Background(), repository.GetDataParams{
		AssetCode: "LFT/2029",
		MinDate:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		MaxDate:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("GetData: %v", err)
	}

	// Two valid rows match LFT maturing in 2029; the 2027 maturity, the
	// Prefixado rows and the broken row are excluded.
	if len(series.Data) != 2 {
		t.Fatalf("expected 2 points, got %d: %+v", len(series.Data), series.Data)
	}
	if series.Data[0].Value != 14381.97 {
		t.Fatalf("decimal comma parse: got %v", series.Data[0].Value)
	}
	if series.Data[0].Currency != "BRL" {
		t.Fatalf("currency: %q", series.Data[0].Currency)
	}
	if len(series.Metadata.Errors) != 1 {
		t.Fatalf("expected 1 error record for the broken row, got %d", len(series.Metadata.Errors))
	}
	if !strings.Contains(series.Metadata.Errors[0].Message, "unit price") {
		t.Fatalf("error message: %q", series.Metadata.Errors[0].Message)
	}
}

func TestTreasuryDateWindow(t *testing.T) {
	src := newTreasuryTest(t, treasuryCSV)
	series, err := src.GetData(context.Background(), repository.GetDataParams{
		AssetCode: "LFT/2029",
		MinDate:   time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
		MaxDate:   time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("GetData: %v", err)
	}
	if len(series.Data) != 1 || series.Data[0].Value != 14385.37 {
		t.Fatalf("window filter: %+v", series.Data)
	}
}

func TestTreasuryUnknownBond(t *testing.T) {
	src := newTreasuryTest(t, treasuryCSV)
	_, err := src.GetData(context.Background(), repository.GetDataParams{
		AssetCode: "XYZ/2029",
		MinDate:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		MaxDate:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	})
	if err == nil || !strings.Contains(err.Error(), "unknown bond type") {
		t.Fatalf("expected unknown bond error, got %v", err)
	}
}

func TestParseBondCode(t *testing.T) {
	bond, year, err := parseBondCode("NTN-B-P/2035")
	if err != nil {
		t.Fatalf("parseBondCode: %v", err)
	}
	if bond != "NTN-B-P" || year != 2035 {
		t.Fatalf("got %q %d", bond, year)
	}

	if _, _, err := parseBondCode("LFT"); err == nil {
		t.Fatalf("expected error for missing maturity")
	}
	if _, _, err := parseBondCode("LFT/notayear"); err == nil {
		t.Fatalf("expected error for bad year")
	}
}

func TestParseDecimalComma(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"14.381,97", 14381.97},
		{"0,04", 0.04},
		{"100", 100},
	}
	for _, c := range cases {
		got, err := parseDecimalComma(c.in)
		if err != nil {
			t.Fatalf("parseDecimalComma(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("parseDecimalComma(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}
