package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/fitchallenge/fitchallenge-server/internal/api"
	"github.com/fitchallenge/fitchallenge-server/internal/config"
	"github.com/fitchallenge/fitchallenge-server/internal/logger"
	"github.com/fitchallenge/fitchallenge-server/internal/service"
	"github.com/fitchallenge/fitchallenge-server/internal/sse"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	handler *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Server.Shutdown(ctx)
	h.handler.Close()
	return err
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	kvHandle := do.MustInvoke[*KVHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	authEvents := do.MustInvoke[*sse.AuthBroadcaster](i)
	storage := do.MustInvoke[*MediaStorage](i)
	log := do.MustInvoke[*logger.Logger](i)

	services := &api.Services{
		Auth:        do.MustInvoke[*service.AuthService](i),
		Session:     do.MustInvoke[*service.SessionService](i),
		Profile:     do.MustInvoke[*service.ProfileService](i),
		Challenge:   do.MustInvoke[*service.ChallengeService](i),
		Post:        do.MustInvoke[*service.PostService](i),
		Leaderboard: do.MustInvoke[*service.LeaderboardService](i),
		Media:       do.MustInvoke[*service.MediaService](i),
	}

	opts := api.Options{
		CORSOrigins:   cfg.Server.CORSOrigins,
		MaxUploadSize: cfg.Media.MaxUploadSize,
	}
	// Cloudinary serves its own URLs.
	if storage.Local != nil {
		opts.MediaHandler = storage.Local.Handler()
	}

	handler := api.NewServer(api.Deps{
		Store:       storeHandle.Store,
		KV:          kvHandle.Store,
		SearchIndex: indexHandle.SearchIndex,
		Services:    services,
		SSEManager:  sseHandle.Manager,
		AuthEvents:  authEvents,
	}, opts, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr, "public_url", cfg.Server.PublicURL)

	return &HTTPServerHandle{Server: srv, handler: handler}, nil
}
