package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/fitchallenge/fitchallenge-server/internal/config"
	"github.com/fitchallenge/fitchallenge-server/internal/logger"
	"github.com/fitchallenge/fitchallenge-server/internal/sse"
	"github.com/fitchallenge/fitchallenge-server/internal/store/kv"
	"github.com/fitchallenge/fitchallenge-server/internal/store/sqlite"
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

	// Start in background
	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	log.Info("SSE manager started")

	return &SSEManagerHandle{
		Manager: manager,
		cancel:  cancel,
	}, nil
}

// ProvideAuthBroadcaster provides the per-user auth state broadcaster.
func ProvideAuthBroadcaster(i do.Injector) (*sse.AuthBroadcaster, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return sse.NewAuthBroadcaster(log.Logger), nil
}

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the SQLite store.
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

// KVHandle wraps the Badger token store with shutdown capability.
type KVHandle struct {
	*kv.Store
}

// Shutdown implements do.Shutdownable.
func (h *KVHandle) Shutdown() error {
	return h.Close()
}

// ProvideKV provides the key/value store holding password reset tokens.
func ProvideKV(i do.Injector) (*KVHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	path := cfg.Data.KVPath()
	store, err := kv.Open(kv.Options{Path: path, Logger: log.Logger})
	if err != nil {
		return nil, err
	}

	log.Info("Token store initialized", "path", path)

	return &KVHandle{Store: store}, nil
}
