package providers

import (
	"context"
	"sync"

	"github.com/samber/do/v2"

	"github.com/tilawahapp/tilawah-server/internal/config"
	"github.com/tilawahapp/tilawah-server/internal/content"
	"github.com/tilawahapp/tilawah-server/internal/domain"
	"github.com/tilawahapp/tilawah-server/internal/logger"
	"github.com/tilawahapp/tilawah-server/internal/quran"
	"github.com/tilawahapp/tilawah-server/internal/sse"
)

// ContentClientHandle wraps the remote content client.
type ContentClientHandle struct {
	*content.Client
}

// Shutdown implements do.Shutdownable.
func (h *ContentClientHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideContentClient provides the rate-limited Quran content client.
func ProvideContentClient(i do.Injector) (*ContentClientHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	client, err := content.New(content.Options{
		BaseURL:           cfg.Content.BaseURL,
		Timeout:           cfg.Content.Timeout,
		RequestsPerSecond: cfg.Content.RequestsPerSecond,
		Burst:             cfg.Content.Burst,
	}, log.Logger)
	if err != nil {
		return nil, err
	}

	return &ContentClientHandle{Client: client}, nil
}

// QuranManagerHandle wraps the content state manager.
type QuranManagerHandle struct {
	*quran.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *QuranManagerHandle) Shutdown() error {
	h.cancel()
	return h.Close()
}

// ProvideQuranManager provides the content state manager and starts loading
// the chapter list in the background.
func ProvideQuranManager(i do.Injector) (*QuranManagerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	client := do.MustInvoke[*ContentClientHandle](i)
	prefStore := do.MustInvoke[*PreferenceStoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	manager := quran.New(quran.Options{
		Source:   client.Client,
		Prefs:    prefStore.Store,
		Notifier: sseHandle.Manager,
		Indexer:  indexHandle.VerseIndex,
		Logger:   log.Logger,
	})

	// Preferences are installation-wide, so every stream hears about changes.
	var (
		mu   sync.Mutex
		last domain.Preferences
	)
	manager.Subscribe(func(snap quran.Snapshot) {
		p := snap.Preferences()
		mu.Lock()
		changed := p != last
		last = p
		mu.Unlock()
		if changed {
			sseHandle.Emit(sse.NewPreferencesEvent(p))
		}
	})

	// Preferences are in place before the server takes requests; only the
	// chapter list loads in the background.
	manager.LoadPreferences()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		loadCtx, done := context.WithTimeout(ctx, 2*cfg.Content.Timeout)
		defer done()
		if err := manager.Initialize(loadCtx); err != nil {
			log.Warn("Chapter list unavailable", "error", err)
		}
	}()

	return &QuranManagerHandle{Manager: manager, cancel: cancel}, nil
}
