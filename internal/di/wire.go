//go:build wireinject
// +build wireinject

package di

import (
	"AssetHist/pkg/config"
	"AssetHist/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,
		ProvideHTTPClient,
		ProvideStore,
		ProvideSources,
		ProvideSearch,
		ProvideScheduler,
		ProvideHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
