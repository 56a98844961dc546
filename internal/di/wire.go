//go:build wireinject
// +build wireinject

package di

import (
	drepo "Indicadores/internal/domain/repository"
	"Indicadores/pkg/config"
	"Indicadores/pkg/metrics"
	"Indicadores/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,
		wire.Bind(new(drepo.Metrics), new(*metrics.Recorder)),

		// Infrastructure clients
		ProvideHTTPClient,
		ProvideIndicatorSource,
		ProvideCache,

		// Repositories
		ProvideSessionStore,

		// Use cases
		ProvideRegistry,

		// Presentation
		ProvideLimiter,
		ProvidePageBuilder,
		ProvideHandlers,
		ProvideHTTPServer,

		// Application
		ProvideApp,
	)
	return nil, nil, nil
}
