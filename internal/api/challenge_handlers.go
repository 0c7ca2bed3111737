package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/fitchallenge/fitchallenge-server/internal/search"
	"github.com/fitchallenge/fitchallenge-server/internal/service"
	"github.com/fitchallenge/fitchallenge-server/internal/timer"
)

func (s *Server) registerChallengeRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listChallenges",
		Method:      http.MethodGet,
		Path:        "/api/v1/challenges",
		Summary:     "List challenges",
		Description: "Returns all challenges, newest first, with their timer state",
		Tags:        []string{"Challenges"},
	}, s.handleListChallenges)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createChallenge",
		Method:        http.MethodPost,
		Path:          "/api/v1/challenges",
		Summary:       "Create challenge",
		Description:   "Creates a challenge. The creator joins it automatically.",
		Tags:          []string{"Challenges"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateChallenge)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchChallenges",
		Method:      http.MethodGet,
		Path:        "/api/v1/challenges/search",
		Summary:     "Search challenges",
		Description: "Full-text search over challenge titles and creator names",
		Tags:        []string{"Challenges"},
	}, s.handleSearchChallenges)

	huma.Register(s.api, huma.Operation{
		OperationID: "challengeHistory",
		Method:      http.MethodGet,
		Path:        "/api/v1/challenges/history",
		Summary:     "Challenge history",
		Description: "Returns the challenges the caller takes part in with their points and rank",
		Tags:        []string{"Challenges"},
		Security:    bearerSecurity,
	}, s.handleChallengeHistory)

	huma.Register(s.api, huma.Operation{
		OperationID: "getChallenge",
		Method:      http.MethodGet,
		Path:        "/api/v1/challenges/{id}",
		Summary:     "Get challenge",
		Description: "Returns a challenge with its timer state",
		Tags:        []string{"Challenges"},
	}, s.handleGetChallenge)

	huma.Register(s.api, huma.Operation{
		OperationID: "joinChallenge",
		Method:      http.MethodPost,
		Path:        "/api/v1/challenges/{id}/join",
		Summary:     "Join challenge",
		Description: "Adds the caller to the participants. Joining twice is a no-op.",
		Tags:        []string{"Challenges"},
		Security:    bearerSecurity,
	}, s.handleJoinChallenge)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteChallenge",
		Method:      http.MethodDelete,
		Path:        "/api/v1/challenges/{id}",
		Summary:     "Delete challenge",
		Description: "Deletes a challenge with its posts and upvotes. Creator only.",
		Tags:        []string{"Challenges"},
		Security:    bearerSecurity,
	}, s.handleDeleteChallenge)
}

// === DTOs ===

// ChallengeResponse contains challenge data in API responses.
type ChallengeResponse struct {
	ID           string      `json:"id" doc:"Challenge ID"`
	Title        string      `json:"title" doc:"Challenge title"`
	CreatorID    string      `json:"creator_id" doc:"User who created the challenge"`
	CreatorName  string      `json:"creator_name" doc:"Creator display name"`
	StartAt      time.Time   `json:"start_at" doc:"Start of the challenge"`
	ExpiresAt    *time.Time  `json:"expires_at,omitempty" doc:"End of the challenge; absent for open-ended challenges"`
	Participants []string    `json:"participants" doc:"Participant user IDs in join order"`
	Joined       bool        `json:"joined" doc:"Whether the caller is a participant"`
	Timer        timer.State `json:"timer" doc:"Progress and countdown at request time"`
	CreatedAt    time.Time   `json:"created_at" doc:"Creation time"`
}

// ListChallengesResponse contains a list of challenges.
type ListChallengesResponse struct {
	Challenges []ChallengeResponse `json:"challenges" doc:"Challenges, newest first"`
}

// ListChallengesOutput wraps the list response for Huma.
type ListChallengesOutput struct {
	Body ListChallengesResponse
}

// ChallengeOutput wraps a single challenge for Huma.
type ChallengeOutput struct {
	Body ChallengeResponse
}

// ChallengeIDInput identifies a challenge in the path.
type ChallengeIDInput struct {
	ID string `path:"id" doc:"Challenge ID"`
}

// CreateChallengeRequest is the request body for creating a challenge.
type CreateChallengeRequest struct {
	Title     string    `json:"title,omitempty" doc:"Challenge title"`
	StartAt   *FlexTime `json:"start_at,omitempty" doc:"Start time"`
	ExpiresAt *FlexTime `json:"expires_at,omitempty" doc:"Expiration time"`
}

// CreateChallengeInput wraps the create request for Huma.
type CreateChallengeInput struct {
	Body CreateChallengeRequest
}

// SearchChallengesInput contains search parameters.
type SearchChallengesInput struct {
	Query string `query:"q" doc:"Search text"`
	Limit int    `query:"limit" minimum:"0" maximum:"100" doc:"Maximum hits (default 20)"`
}

// SearchChallengesOutput wraps search results for Huma.
type SearchChallengesOutput struct {
	Body *search.Result
}

// ChallengeHistoryResponse lists the caller's challenges.
type ChallengeHistoryResponse struct {
	Entries []service.HistoryEntry `json:"entries" doc:"Challenges the caller participates in"`
}

// ChallengeHistoryOutput wraps the history response for Huma.
type ChallengeHistoryOutput struct {
	Body ChallengeHistoryResponse
}

// === Handlers ===

func (s *Server) handleListChallenges(ctx context.Context, _ *struct{}) (*ListChallengesOutput, error) {
	views, err := s.services.Challenge.List(ctx, time.Now())
	if err != nil {
		return nil, err
	}

	viewerID := optionalUserID(ctx)
	resp := make([]ChallengeResponse, len(views))
	for i := range views {
		resp[i] = mapChallengeResponse(&views[i], viewerID)
	}
	return &ListChallengesOutput{Body: ListChallengesResponse{Challenges: resp}}, nil
}

func (s *Server) handleCreateChallenge(ctx context.Context, input *CreateChallengeInput) (*ChallengeOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	c, err := s.services.Challenge.Create(ctx, userID, service.CreateChallengeRequest{
		Title:     input.Body.Title,
		StartAt:   input.Body.StartAt.Ptr(),
		ExpiresAt: input.Body.ExpiresAt.Ptr(),
	})
	if err != nil {
		return nil, err
	}

	view, err := s.services.Challenge.Get(ctx, c.ID, time.Now())
	if err != nil {
		return nil, err
	}
	return &ChallengeOutput{Body: mapChallengeResponse(view, userID)}, nil
}

func (s *Server) handleGetChallenge(ctx context.Context, input *ChallengeIDInput) (*ChallengeOutput, error) {
	view, err := s.services.Challenge.Get(ctx, input.ID, time.Now())
	if err != nil {
		return nil, err
	}
	return &ChallengeOutput{Body: mapChallengeResponse(view, optionalUserID(ctx))}, nil
}

func (s *Server) handleJoinChallenge(ctx context.Context, input *ChallengeIDInput) (*ChallengeOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := s.services.Challenge.Join(ctx, input.ID, userID); err != nil {
		return nil, err
	}

	view, err := s.services.Challenge.Get(ctx, input.ID, time.Now())
	if err != nil {
		return nil, err
	}
	return &ChallengeOutput{Body: mapChallengeResponse(view, userID)}, nil
}

func (s *Server) handleDeleteChallenge(ctx context.Context, input *ChallengeIDInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Challenge.Delete(ctx, input.ID, userID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Challenge deleted"}}, nil
}

func (s *Server) handleSearchChallenges(ctx context.Context, input *SearchChallengesInput) (*SearchChallengesOutput, error) {
	limit := input.Limit
	if limit == 0 {
		limit = DefaultSearchLimit
	}

	res, err := s.services.Challenge.Search(ctx, input.Query, limit)
	if err != nil {
		return nil, err
	}
	return &SearchChallengesOutput{Body: res}, nil
}

func (s *Server) handleChallengeHistory(ctx context.Context, _ *struct{}) (*ChallengeHistoryOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := s.services.Challenge.History(ctx, userID, time.Now())
	if err != nil {
		return nil, err
	}
	return &ChallengeHistoryOutput{Body: ChallengeHistoryResponse{Entries: entries}}, nil
}

func mapChallengeResponse(v *service.ChallengeView, viewerID string) ChallengeResponse {
	participants := v.Participants
	if participants == nil {
		participants = []string{}
	}
	return ChallengeResponse{
		ID:           v.ID,
		Title:        v.Title,
		CreatorID:    v.CreatorID,
		CreatorName:  v.CreatorName,
		StartAt:      v.StartAt,
		ExpiresAt:    v.ExpiresAt,
		Participants: participants,
		Joined:       viewerID != "" && v.HasParticipant(viewerID),
		Timer:        v.Timer,
		CreatedAt:    v.CreatedAt,
	}
}
