package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/fitchallenge/fitchallenge-server/internal/service"
)

func (s *Server) registerLeaderboardRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getLeaderboard",
		Method:      http.MethodGet,
		Path:        "/api/v1/challenges/{id}/leaderboard",
		Summary:     "Challenge leaderboard",
		Description: "Ranks participants by total upvotes received on their posts",
		Tags:        []string{"Leaderboard"},
	}, s.handleGetLeaderboard)
}

// LeaderboardResponse contains the standings of a challenge.
type LeaderboardResponse struct {
	ChallengeID string                   `json:"challenge_id" doc:"Challenge ID"`
	Entries     []service.LeaderboardRow `json:"entries" doc:"Entries sorted by points, highest first"`
}

// LeaderboardOutput wraps the leaderboard for Huma.
type LeaderboardOutput struct {
	Body LeaderboardResponse
}

func (s *Server) handleGetLeaderboard(ctx context.Context, input *ChallengeIDInput) (*LeaderboardOutput, error) {
	rows, err := s.services.Leaderboard.ForChallenge(ctx, input.ID, optionalUserID(ctx))
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []service.LeaderboardRow{}
	}
	return &LeaderboardOutput{Body: LeaderboardResponse{ChallengeID: input.ID, Entries: rows}}, nil
}
