package api

import (
	"net/http"

	domainerrors "github.com/fitchallenge/fitchallenge-server/internal/errors"
	"github.com/fitchallenge/fitchallenge-server/internal/http/response"
)

// handleEventStream streams live challenge, post and leaderboard updates.
// Anonymous clients may watch; ?challenge_id= narrows the stream to one challenge.
func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	if s.sseHandler == nil {
		response.Error(w, http.StatusServiceUnavailable, domainerrors.CodeInternal, "event stream unavailable", s.logger)
		return
	}

	userID := ""
	if r.Header.Get("Authorization") != "" || r.URL.Query().Has("access_token") {
		user, _, err := s.streamUser(r)
		if err != nil {
			response.HandleError(w, err, s.logger)
			return
		}
		userID = user.ID
	}

	s.logger.Debug("event stream opened", "user_id", userID, "ip", getClientIP(r))
	s.sseHandler.Stream(w, r, userID)
}

// handleAuthStream streams sign-in, sign-out and account changes for the caller.
func (s *Server) handleAuthStream(w http.ResponseWriter, r *http.Request) {
	if s.authStream == nil {
		response.Error(w, http.StatusServiceUnavailable, domainerrors.CodeInternal, "auth stream unavailable", s.logger)
		return
	}

	user, sessionID, err := s.streamUser(r)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	s.authStream.Stream(w, r, user, sessionID)
}
