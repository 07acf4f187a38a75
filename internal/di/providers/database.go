package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/tilawahapp/tilawah-server/internal/config"
	"github.com/tilawahapp/tilawah-server/internal/logger"
	"github.com/tilawahapp/tilawah-server/internal/prefs"
	"github.com/tilawahapp/tilawah-server/internal/sse"
	"github.com/tilawahapp/tilawah-server/internal/store/sqlite"
)

// SSEManagerHandle wraps the SSE manager with its context for lifecycle management.
type SSEManagerHandle struct {
	*sse.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideSSEManager provides the server-sent events manager.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	manager := sse.NewManager(log.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	log.Info("SSE manager started")

	return &SSEManagerHandle{
		Manager: manager,
		cancel:  cancel,
	}, nil
}

// StoreHandle wraps the sqlite store with shutdown capability.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the account and bookmark database.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	dbPath := cfg.Data.DatabasePath()
	db, err := sqlite.Open(dbPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", dbPath)

	return &StoreHandle{Store: db}, nil
}

// PreferenceStoreHandle wraps the badger preference store.
type PreferenceStoreHandle struct {
	*prefs.Store
}

// Shutdown implements do.Shutdownable.
func (h *PreferenceStoreHandle) Shutdown() error {
	return h.Close()
}

// ProvidePreferenceStore provides the installation-wide preference store.
func ProvidePreferenceStore(i do.Injector) (*PreferenceStoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	path := cfg.Data.PreferencesPath()
	st, err := prefs.Open(path, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Preference store opened", "path", path)

	return &PreferenceStoreHandle{Store: st}, nil
}
