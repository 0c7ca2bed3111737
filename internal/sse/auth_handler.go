package sse

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/fitchallenge/fitchallenge-server/internal/domain"
)

// AuthStreamHandler streams a user's auth state.
// Endpoint: GET /api/v1/auth/stream
//
// The first frame is always the current user, so a fresh client does not need
// a separate /me call. The stream ends after a signed_out event.
type AuthStreamHandler struct {
	broadcaster *AuthBroadcaster
	logger      *slog.Logger
	heartbeat   time.Duration
}

// NewAuthStreamHandler creates a handler backed by broadcaster.
func NewAuthStreamHandler(broadcaster *AuthBroadcaster, logger *slog.Logger) *AuthStreamHandler {
	return &AuthStreamHandler{
		broadcaster: broadcaster,
		logger:      logger,
		heartbeat:   DefaultHeartbeatInterval,
	}
}

// SetHeartbeatInterval overrides the keepalive interval.
func (h *AuthStreamHandler) SetHeartbeatInterval(d time.Duration) {
	h.heartbeat = d
}

// Stream serves the auth stream of an authenticated user session.
func (h *AuthStreamHandler) Stream(w http.ResponseWriter, r *http.Request, user *domain.User, sessionID string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if r.Context().Err() != nil {
		return
	}

	rc := openStream(w, h.logger)
	if rc == nil {
		return
	}

	sub := h.broadcaster.Subscribe(user.ID, sessionID)
	defer h.broadcaster.Unsubscribe(sub)

	subLogger := h.logger.With(slog.String("user_id", user.ID))

	current := AuthEvent{Type: AuthSignedIn, User: user, Timestamp: time.Now()}
	if err := writeEvent(w, rc, "auth", current, h.logger); err != nil {
		subLogger.Warn("failed to send initial auth state", slog.String("error", err.Error()))
		return
	}

	ctx := r.Context()
	heartbeatTicker := time.NewTicker(h.heartbeat)
	defer heartbeatTicker.Stop()

	for {
		select {
		case event, ok := <-sub.EventChan:
			if !ok {
				return
			}
			if err := writeEvent(w, rc, "auth", event, h.logger); err != nil {
				subLogger.Info("client disconnected during auth send")
				return
			}
			if event.Type == AuthSignedOut {
				subLogger.Info("signed out, closing auth stream")
				return
			}

		case <-heartbeatTicker.C:
			heartbeat := NewHeartbeatEvent()
			if err := writeEvent(w, rc, string(heartbeat.Type), heartbeat, h.logger); err != nil {
				subLogger.Info("client disconnected during heartbeat")
				return
			}

		case <-sub.Done:
			return

		case <-ctx.Done():
			subLogger.Info("client context canceled")
			return
		}
	}
}
