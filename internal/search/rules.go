// Package search resolves composite asset expressions into normalized
// historical series: it classifies each atomic code, fetches the raw
// data from the right source, applies the per-kind transforms and
// combines the results.
package search

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"AssetHist/internal/domain/repository"
)

// AssetKind classifies an atomic asset code and selects its data
// source and transform chain.
type AssetKind int

const (
	KindStock AssetKind = iota
	KindFixedRate
	KindSelic
	KindIpca
	KindImab
	KindGovBond
	KindForex
	KindIrx
)

func (k AssetKind) String() string {
	switch k {
	case KindFixedRate:
		return "fixedRate"
	case KindSelic:
		return "selic"
	case KindIpca:
		return "ipca"
	case KindImab:
		return "imab"
	case KindGovBond:
		return "govBond"
	case KindForex:
		return "forex"
	case KindIrx:
		return "irx"
	default:
		return "stock"
	}
}

var (
	// tickerRe splits "CODE:CURRENCY*MODIFIER"; currency and modifier
	// are optional.
	tickerRe = regexp.MustCompile(`^([^\:\*]+)(?:\:(\w+))?(?:\*([\w\.]+))?`)
	// govBondRe matches treasury bond codes like "NTN-B/2035.SA".
	govBondRe = regexp.MustCompile(`^(LFT|LTN|NTN-F|NTN-B-P|NTN-B|NTN-C|NTN-R|NTN-E)/\d{4}\.SA$`)
)

// Ticker is one parsed atomic asset expression. Modifier carries the
// annual rate for fixed-rate assets and the leverage factor for
// everything else.
type Ticker struct {
	Raw      string
	Code     string
	Currency string
	Modifier float64
}

// ParseTicker splits an atomic expression into code, target currency
// and numeric modifier.
func ParseTicker(raw string) (Ticker, error) {
	m := tickerRe.FindStringSubmatch(raw)
	if m == nil || m[1] == "" {
		return Ticker{}, fmt.Errorf("%w: %q", ErrInvalidAsset, raw)
	}

	t := Ticker{Raw: raw, Code: m[1], Currency: strings.ToUpper(m[2])}
	if m[3] != "" {
		mod, err := strconv.ParseFloat(m[3], 64)
		if err != nil {
			return Ticker{}, fmt.Errorf("%w: modifier %q in %q", ErrInvalidAsset, m[3], raw)
		}
		t.Modifier = mod
	}
	return t, nil
}

// ResolveKind classifies an asset code. Rules are ordered; the first
// match wins and unmatched codes fall through to stock.
func ResolveKind(code string) AssetKind {
	switch {
	case strings.HasPrefix(code, "FIXED"):
		return KindFixedRate
	case code == "SELIC.SA":
		return KindSelic
	case code == "IPCA.SA":
		return KindIpca
	case code == "IMAB.SA":
		return KindImab
	case govBondRe.MatchString(code):
		return KindGovBond
	case strings.HasSuffix(code, "=X"):
		return KindForex
	case strings.HasPrefix(code, "^IRX"):
		return KindIrx
	default:
		return KindStock
	}
}

// SourceFor maps a kind to its upstream data source.
func SourceFor(kind AssetKind) repository.DataSource {
	switch kind {
	case KindFixedRate:
		return repository.SourceFixedRate
	case KindSelic:
		return repository.SourceSelicDaySgs
	case KindIpca:
		return repository.SourceIpcaDaySgs
	case KindImab:
		return repository.SourceImabDaySgs
	case KindGovBond:
		return repository.SourceGovBondTransparent
	default:
		return repository.SourceStockYahoo
	}
}

// SourceCode translates the public asset code into the code the
// upstream source expects: the ".SA" suffix is local routing, not part
// of any upstream symbol.
func SourceCode(kind AssetKind, code string) string {
	switch kind {
	case KindSelic, KindIpca, KindImab, KindGovBond:
		return strings.TrimSuffix(code, ".SA")
	default:
		return code
	}
}
