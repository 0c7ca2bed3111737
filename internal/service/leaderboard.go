package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fitchallenge/fitchallenge-server/internal/color"
	domainerrors "github.com/fitchallenge/fitchallenge-server/internal/errors"
	"github.com/fitchallenge/fitchallenge-server/internal/leaderboard"
	"github.com/fitchallenge/fitchallenge-server/internal/store"
)

// LeaderboardService serves challenge standings.
type LeaderboardService struct {
	store  store.Store
	logger *slog.Logger
}

// NewLeaderboardService creates a new leaderboard service.
func NewLeaderboardService(store store.Store, logger *slog.Logger) *LeaderboardService {
	return &LeaderboardService{store: store, logger: logger}
}

// LeaderboardRow is a ranked entry decorated for display.
type LeaderboardRow struct {
	leaderboard.Entry
	AvatarColor   string `json:"avatar_color"`
	IsCurrentUser bool   `json:"is_current_user"`
}

// ForChallenge ranks the authors of a challenge's posts by upvotes received.
func (s *LeaderboardService) ForChallenge(ctx context.Context, challengeID, viewerID string) ([]LeaderboardRow, error) {
	if _, err := s.store.GetChallenge(ctx, challengeID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound(msgChallengeNotFound)
		}
		return nil, fmt.Errorf("get challenge: %w", err)
	}

	entries, err := computeStandings(ctx, s.store, challengeID)
	if err != nil {
		return nil, err
	}

	rows := make([]LeaderboardRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, LeaderboardRow{
			Entry:         e,
			AvatarColor:   color.ForUser(e.UserID),
			IsCurrentUser: viewerID != "" && e.UserID == viewerID,
		})
	}
	return rows, nil
}
