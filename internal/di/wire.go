//go:build wireinject
// +build wireinject

package di

import (
	"ChiliPulse/pkg/config"
	"ChiliPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideSessionStore,
		ProvideKafkaProducer,

		// Repositories and upstream services
		ProvideEventPublisher,
		ProvideOutlierService,

		// Use cases
		ProvideOutlierView,
		ProvideDashboard,

		// Transport
		ProvideRateLimiter,
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
