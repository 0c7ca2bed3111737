package sse

import (
	"log/slog"
	"net/http"
	"time"
)

// Handler streams challenge, post and leaderboard events.
// Endpoint: GET /api/v1/events[?challenge_id=...]
type Handler struct {
	manager   *Manager
	logger    *slog.Logger
	heartbeat time.Duration
}

// NewHandler creates a new SSE Handler.
func NewHandler(manager *Manager, logger *slog.Logger) *Handler {
	return &Handler{
		manager:   manager,
		logger:    logger,
		heartbeat: DefaultHeartbeatInterval,
	}
}

// SetHeartbeatInterval overrides the keepalive interval.
func (h *Handler) SetHeartbeatInterval(d time.Duration) {
	h.heartbeat = d
}

// Stream serves one client until it disconnects or the manager shuts down.
// userID comes from the caller's authentication.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Early client disconnect.
	if r.Context().Err() != nil {
		return
	}

	rc := openStream(w, h.logger)
	if rc == nil {
		return
	}

	challengeID := r.URL.Query().Get("challenge_id")
	client := h.manager.Connect(userID, challengeID)
	defer h.manager.Disconnect(client.ID)

	clientLogger := h.logger.With(slog.String("client_id", client.ID))

	if err := writeEvent(w, rc, "connected", map[string]string{
		"client_id":    client.ID,
		"challenge_id": challengeID,
		"message":      "SSE connection established",
	}, h.logger); err != nil {
		clientLogger.Warn("failed to send initial connection message", slog.String("error", err.Error()))
		return
	}

	ctx := r.Context()
	heartbeatTicker := time.NewTicker(h.heartbeat)
	defer heartbeatTicker.Stop()

	for {
		select {
		case event, ok := <-client.EventChan:
			if !ok {
				clientLogger.Info("client closed by manager")
				return
			}
			if err := writeEvent(w, rc, string(event.Type), event, h.logger); err != nil {
				clientLogger.Info("client disconnected during send")
				return
			}

		case <-heartbeatTicker.C:
			heartbeat := NewHeartbeatEvent()
			if err := writeEvent(w, rc, string(heartbeat.Type), heartbeat, h.logger); err != nil {
				clientLogger.Info("client disconnected during heartbeat")
				return
			}

		case <-client.Done:
			clientLogger.Info("client closed by manager")
			return

		case <-ctx.Done():
			clientLogger.Info("client context canceled")
			return
		}
	}
}
