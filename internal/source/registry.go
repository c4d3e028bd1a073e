package source

import (
	"AssetHist/internal/domain/repository"
	"AssetHist/pkg/config"
	xhttp "AssetHist/pkg/http"
	applogger "AssetHist/pkg/logger"
	"AssetHist/pkg/memoize"
	"AssetHist/pkg/metrics"
)

// Registry maps source identifiers to ready-to-use adapters.
type Registry map[repository.DataSource]repository.AssetSource

// NewRegistry assembles every adapter from config, memoizing each on
// the shared store.
func NewRegistry(cfg *config.Config, client *xhttp.Client, log *applogger.Logger, store memoize.Store, rec *metrics.Recorder) Registry {
	cache := CacheOptions{
		Store:             store,
		BucketOffsetHours: cfg.Cache.BucketOffsetHours,
		Disabled:          cfg.Cache.Disabled,
		Metrics:           rec,
	}

	sgsCfg := SgsConfig{
		Client:       client,
		Logger:       log.With("sgs"),
		BaseURL:      cfg.Sources.Sgs.BaseURL,
		Retries:      cfg.Sources.Sgs.Retries,
		MaxSpanYears: cfg.Sources.Sgs.MaxSpanYears,
	}

	reg := Registry{}
	add := func(src repository.AssetSource) {
		reg[src.Type()] = Memoized(src, cache)
	}

	add(NewFixedRate())
	add(NewSelicDaySgs(sgsCfg))
	add(NewSelicMonthSgs(sgsCfg))
	add(NewImabDaySgs(sgsCfg))

	ipcaMonth := NewIpcaMonthSgs(sgsCfg)
	add(ipcaMonth)
	// Derives from the already memoized monthly series.
	add(NewIpcaDaySgs(reg[ipcaMonth.Type()]))

	add(NewTreasury(TreasuryConfig{
		Client:  client,
		Logger:  log.With("treasury"),
		URL:     cfg.Sources.Treasury.URL,
		Retries: cfg.Sources.Treasury.Retries,
	}))
	add(NewYahoo(YahooConfig{
		Client:  client,
		Logger:  log.With("yahoo"),
		BaseURL: cfg.Sources.Yahoo.BaseURL,
		Retries: cfg.Sources.Yahoo.Retries,
	}))

	return reg
}

// Get returns the adapter for t, or nil.
func (r Registry) Get(t repository.DataSource) repository.AssetSource { return r[t] }
