package di

import (
	"fmt"
	"time"

	"AssetHist/internal/handler/api"
	"AssetHist/internal/ratelimit"
	"AssetHist/internal/scheduler"
	"AssetHist/internal/search"
	"AssetHist/internal/source"
	"AssetHist/pkg/config"
	xhttp "AssetHist/pkg/http"
	applogger "AssetHist/pkg/logger"
	"AssetHist/pkg/memoize"
	"AssetHist/pkg/metrics"
	"AssetHist/pkg/server"
)

// ProvideLogger creates the structured application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates the Prometheus metrics recorder.
func ProvideMetrics() *metrics.Recorder {
	return metrics.New()
}

// ProvideHTTPClient creates the outbound HTTP client shared by all
// source adapters.
func ProvideHTTPClient() *xhttp.Client {
	return xhttp.NewClient(xhttp.WithTimeout(60 * time.Second))
}

// ProvideStore creates the memoization backend selected by config.
func ProvideStore(cfg *config.Config, log *applogger.Logger) (memoize.Store, error) {
	switch cfg.Cache.Backend {
	case "file":
		store, err := memoize.NewFileStore(cfg.Cache.Dir+"/cache.json", log.With("cache"))
		if err != nil {
			return nil, fmt.Errorf("file store: %w", err)
		}
		return store, nil
	case "redis":
		store, err := memoize.NewRedisStore(
			cfg.Cache.Redis.Addr,
			cfg.Cache.Redis.Password,
			cfg.Cache.Redis.DB,
			cfg.Cache.Redis.Prefix,
		)
		if err != nil {
			return nil, fmt.Errorf("redis store: %w", err)
		}
		return store, nil
	default:
		return memoize.NewMemoryStore(), nil
	}
}

// ProvideSources assembles the memoized source registry.
func ProvideSources(cfg *config.Config, client *xhttp.Client, log *applogger.Logger, store memoize.Store, rec *metrics.Recorder) source.Registry {
	return source.NewRegistry(cfg, client, log, store, rec)
}

// ProvideSearch creates the composite expression resolver.
func ProvideSearch(cfg *config.Config, sources source.Registry, log *applogger.Logger, rec *metrics.Recorder) *search.Service {
	return search.NewService(sources, log.With("search"), rec, search.Options{
		MaxAssets:     cfg.Search.MaxAssets,
		Concurrency:   cfg.Search.Concurrency,
		LeverageFloor: cfg.Search.LeverageFloor,
	})
}

// ProvideScheduler creates the cache warm-up scheduler, nil when
// disabled.
func ProvideScheduler(cfg *config.Config, svc *search.Service, log *applogger.Logger) *scheduler.Scheduler {
	if !cfg.Scheduler.Enabled {
		return nil
	}
	return scheduler.New(svc, log.With("scheduler"), scheduler.Config{
		Assets:          cfg.Scheduler.Sources,
		Concurrency:     cfg.Scheduler.Concurrency,
		Preload:         cfg.Scheduler.Preload,
		RolloverHourUTC: cfg.Cache.BucketOffsetHours,
	})
}

// ProvideHandler creates the HTTP handler.
func ProvideHandler(cfg *config.Config, log *applogger.Logger, svc *search.Service, sched *scheduler.Scheduler) xhttp.Handler {
	rl := ratelimit.New(float64(cfg.Server.RateLimit.Burst), cfg.Server.RateLimit.RefillPerSec)
	return api.NewAssetsHandler(log.With("api"), svc, sched, rl)
}

// ProvideApp creates the application.
func ProvideApp(cfg *config.Config, log *applogger.Logger, handler xhttp.Handler, sched *scheduler.Scheduler) *server.App {
	return server.New(cfg, log, handler, sched)
}
