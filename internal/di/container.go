// Package di provides dependency injection configuration for the Tilawah server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/tilawahapp/tilawah-server/internal/auth"
	"github.com/tilawahapp/tilawah-server/internal/config"
	"github.com/tilawahapp/tilawah-server/internal/di/providers"
	"github.com/tilawahapp/tilawah-server/internal/logger"
	"github.com/tilawahapp/tilawah-server/internal/playback"
	"github.com/tilawahapp/tilawah-server/internal/service"
	"github.com/tilawahapp/tilawah-server/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)
	do.Provide(injector, providers.ProvideValidator)

	// Storage layer
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvidePreferenceStore)
	do.Provide(injector, providers.ProvideSearchIndex)

	// Content layer
	do.Provide(injector, providers.ProvideContentClient)
	do.Provide(injector, providers.ProvideQuranManager)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)
	do.Provide(injector, providers.ProvideIdentityProvider)
	do.Provide(injector, providers.ProvideSignInLimiter)

	// Business services
	do.Provide(injector, providers.ProvideSessionService)
	do.Provide(injector, providers.ProvideBookmarkService)
	do.Provide(injector, providers.ProvideLastReadService)
	do.Provide(injector, providers.ProvidePlayerRegistry)

	// Workers
	do.Provide(injector, providers.ProvideSessionCleanupJob)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services. Invoking everything up front makes
// configuration and storage errors fail startup instead of the first request.
func Bootstrap(injector *do.RootScope) error {
	invokers := []func() error{
		invoke[*config.Config](injector),
		invoke[*logger.Logger](injector),
		invoke[providers.AuthKey](injector),
		invoke[*validation.Validator](injector),
		invoke[*providers.SSEManagerHandle](injector),
		invoke[*providers.StoreHandle](injector),
		invoke[*providers.PreferenceStoreHandle](injector),
		invoke[*providers.SearchIndexHandle](injector),
		invoke[*providers.ContentClientHandle](injector),
		invoke[*providers.QuranManagerHandle](injector),
		invoke[*auth.TokenService](injector),
		invoke[*providers.IdentityProviderHandle](injector),
		invoke[*providers.SignInLimiterHandle](injector),
		invoke[*service.SessionService](injector),
		invoke[*service.BookmarkService](injector),
		invoke[*service.LastReadService](injector),
		invoke[*playback.Registry](injector),
		invoke[*providers.SessionCleanupJob](injector),
		invoke[*providers.HTTPServerHandle](injector),
	}
	for _, fn := range invokers {
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}

func invoke[T any](injector do.Injector) func() error {
	return func() error {
		_, err := do.Invoke[T](injector)
		return err
	}
}
