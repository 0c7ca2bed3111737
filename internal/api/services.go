package api

import (
	"github.com/fitchallenge/fitchallenge-server/internal/service"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Auth        *service.AuthService
	Session     *service.SessionService
	Profile     *service.ProfileService
	Challenge   *service.ChallengeService
	Post        *service.PostService
	Leaderboard *service.LeaderboardService
	Media       *service.MediaService
}
