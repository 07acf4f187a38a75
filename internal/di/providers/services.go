package providers

import (
	"github.com/samber/do/v2"

	"github.com/tilawahapp/tilawah-server/internal/api"
	"github.com/tilawahapp/tilawah-server/internal/auth"
	"github.com/tilawahapp/tilawah-server/internal/config"
	"github.com/tilawahapp/tilawah-server/internal/domain"
	"github.com/tilawahapp/tilawah-server/internal/logger"
	"github.com/tilawahapp/tilawah-server/internal/playback"
	"github.com/tilawahapp/tilawah-server/internal/service"
	"github.com/tilawahapp/tilawah-server/internal/sse"
	"github.com/tilawahapp/tilawah-server/internal/validation"
)

// ProvideValidator provides the shared request validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideSessionService provides sign-in and session management.
func ProvideSessionService(i do.Injector) (*service.SessionService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	providerHandle := do.MustInvoke[*IdentityProviderHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	// A nil *auth.Provider must not become a non-nil interface.
	var provider service.IdentityProvider
	if providerHandle.Provider != nil {
		provider = providerHandle.Provider
	}

	svc := service.NewSessionService(storeHandle.Store, tokenService, provider, nil, sseHandle.Manager, log.Logger)
	svc.Subscribe(func(change domain.AuthStateChange) {
		sseHandle.PublishAuthState(change)
	})
	return svc, nil
}

// ProvideBookmarkService provides bookmark management.
func ProvideBookmarkService(i do.Injector) (*service.BookmarkService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	quranHandle := do.MustInvoke[*QuranManagerHandle](i)
	validator := do.MustInvoke[*validation.Validator](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewBookmarkService(storeHandle.Store, quranHandle.Manager, validator, sseHandle.Manager, log.Logger), nil
}

// ProvideLastReadService provides last-read tracking.
func ProvideLastReadService(i do.Injector) (*service.LastReadService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	quranHandle := do.MustInvoke[*QuranManagerHandle](i)
	validator := do.MustInvoke[*validation.Validator](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewLastReadService(storeHandle.Store, quranHandle.Manager, validator, sseHandle.Manager, log.Logger), nil
}

// ProvidePlayerRegistry provides the audio player registry. Players follow
// their owner's session: signing out closes them.
func ProvidePlayerRegistry(i do.Injector) (*playback.Registry, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	sessions := do.MustInvoke[*service.SessionService](i)

	opener, err := playback.NewCacheOpener(cfg.Playback.CachePath, log.Logger)
	if err != nil {
		return nil, err
	}

	registry := playback.NewRegistry(playback.RegistryOptions{
		Opener:        opener,
		Notifier:      sseHandle.Manager,
		Logger:        log.Logger,
		DefaultVolume: cfg.Playback.DefaultVolume,
		MaxPlayers:    cfg.Playback.MaxPlayers,
		OnChange: func(playerID, owner string, status playback.Status) {
			sseHandle.Emit(sse.NewPlayerStateEvent(owner, api.NewPlayerResponse(playerID, status)))
		},
	})

	sessions.Subscribe(func(change domain.AuthStateChange) {
		if change.Event != domain.AuthSignedOut {
			return
		}
		if n := registry.RemoveOwner(change.UserID); n > 0 {
			log.Info("Closed players after sign-out", "user_id", change.UserID, "players", n)
		}
	})

	log.Info("Player registry ready", "cache_path", cfg.Playback.CachePath, "max_players", cfg.Playback.MaxPlayers)

	return registry, nil
}
