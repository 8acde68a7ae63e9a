//go:build wireinject
// +build wireinject

package di

import (
	"MarketCal/pkg/config"
	"MarketCal/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideCache,

		// Exchange clients
		ProvideMarketDataSource,
		ProvideStreamSession,

		// Use cases
		ProvideLiveSession,
		ProvidePatternRunner,
		ProvideCalendarUsecase,
		ProvideAlertUsecase,

		// HTTP surface
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
