package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fitchallenge/fitchallenge-server/internal/domain"
	domainerrors "github.com/fitchallenge/fitchallenge-server/internal/errors"
	"github.com/fitchallenge/fitchallenge-server/internal/id"
	"github.com/fitchallenge/fitchallenge-server/internal/leaderboard"
	"github.com/fitchallenge/fitchallenge-server/internal/search"
	"github.com/fitchallenge/fitchallenge-server/internal/sse"
	"github.com/fitchallenge/fitchallenge-server/internal/store"
	"github.com/fitchallenge/fitchallenge-server/internal/timer"
)

const (
	msgTitleRequired         = "Title is required."
	msgDatesRequired         = "Start and expiration dates are required."
	msgExpirationBeforeStart = "Expiration must not be before the start date."
	msgChallengeNotFound     = "Challenge not found."
	msgNotChallengeOwner     = "Only the creator can delete this challenge."
)

// ChallengeService creates, lists and deletes challenges and manages membership.
type ChallengeService struct {
	store  store.Store
	index  *search.SearchIndex
	events store.EventEmitter
	media  MediaRemover
	logger *slog.Logger
}

// NewChallengeService creates a new challenge service. index may be nil, in
// which case search returns an empty result and nothing is indexed.
func NewChallengeService(store store.Store, index *search.SearchIndex, events store.EventEmitter, logger *slog.Logger) *ChallengeService {
	return &ChallengeService{
		store:  store,
		index:  index,
		events: events,
		logger: logger,
	}
}

// SetMediaRemover wires deletion of the posts' uploaded files when a challenge is deleted.
func (s *ChallengeService) SetMediaRemover(media MediaRemover) {
	s.media = media
}

// CreateChallengeRequest is the input for Create.
type CreateChallengeRequest struct {
	Title     string     `json:"title" validate:"max=120"`
	StartAt   *time.Time `json:"start_at"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// ChallengeView is a challenge with its timer state at the time of the request.
type ChallengeView struct {
	*domain.Challenge
	CreatorName string      `json:"creator_name"`
	Timer       timer.State `json:"timer"`
}

// HistoryEntry summarises one challenge the user takes part in.
type HistoryEntry struct {
	ChallengeID  string      `json:"challenge_id"`
	Title        string      `json:"title"`
	Phase        timer.Phase `json:"phase"`
	Timer        timer.State `json:"timer"`
	Participants int         `json:"participants"`
	Points       int         `json:"points"`
	// Rank is 0 when the user has no posts in the challenge yet.
	Rank int `json:"rank"`
}

// Create validates req and stores a new challenge with the creator as its first participant.
func (s *ChallengeService) Create(ctx context.Context, userID string, req CreateChallengeRequest) (*domain.Challenge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, domainerrors.Validation(msgTitleRequired)
	}
	if req.StartAt == nil || req.ExpiresAt == nil || req.StartAt.IsZero() || req.ExpiresAt.IsZero() {
		return nil, domainerrors.Validation(msgDatesRequired)
	}
	if req.ExpiresAt.Before(*req.StartAt) {
		return nil, domainerrors.Validation(msgExpirationBeforeStart)
	}
	req.Title = title
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	creator, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound(msgUserNotFound)
		}
		return nil, fmt.Errorf("get creator: %w", err)
	}

	challengeID, err := id.Generate(id.PrefixChallenge)
	if err != nil {
		return nil, fmt.Errorf("generate challenge ID: %w", err)
	}

	expires := req.ExpiresAt.UTC()
	challenge := &domain.Challenge{
		Entity:       domain.Entity{ID: challengeID},
		Title:        title,
		CreatorID:    userID,
		StartAt:      req.StartAt.UTC(),
		ExpiresAt:    &expires,
		Participants: []string{userID},
	}
	challenge.InitTimestamps()

	if err := s.store.CreateChallenge(ctx, challenge); err != nil {
		return nil, fmt.Errorf("create challenge: %w", err)
	}

	s.logger.Info("challenge created",
		"challenge_id", challengeID,
		"creator_id", userID,
		"title", title,
	)

	s.indexChallenge(challenge, creator.Name())
	s.events.Emit(sse.NewChallengeCreatedEvent(challenge))

	return challenge, nil
}

// List returns every challenge, newest first, with its timer state at now.
func (s *ChallengeService) List(ctx context.Context, now time.Time) ([]ChallengeView, error) {
	challenges, err := s.store.ListChallenges(ctx)
	if err != nil {
		return nil, fmt.Errorf("list challenges: %w", err)
	}
	return s.views(ctx, challenges, now)
}

// Get returns one challenge with its timer state at now.
func (s *ChallengeService) Get(ctx context.Context, challengeID string, now time.Time) (*ChallengeView, error) {
	challenge, err := s.load(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	views, err := s.views(ctx, []*domain.Challenge{challenge}, now)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Join adds userID to the challenge. Joining twice is a no-op and emits nothing.
func (s *ChallengeService) Join(ctx context.Context, challengeID, userID string) (*domain.Challenge, error) {
	added, err := s.store.AddParticipant(ctx, challengeID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound(msgChallengeNotFound)
		}
		return nil, fmt.Errorf("add participant: %w", err)
	}

	challenge, err := s.load(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if !added {
		return challenge, nil
	}

	s.logger.Info("challenge joined",
		"challenge_id", challengeID,
		"user_id", userID,
	)

	if s.index != nil {
		names, err := userNames(ctx, s.store, []string{challenge.CreatorID})
		if err != nil {
			s.logger.Warn("skipping search reindex after join",
				"challenge_id", challengeID,
				"error", err,
			)
		} else {
			s.indexChallenge(challenge, names[challenge.CreatorID])
		}
	}
	s.events.Emit(sse.NewChallengeJoinedEvent(challengeID, userID, len(challenge.Participants)))

	return challenge, nil
}

// Delete removes a challenge together with its posts and upvotes. Only the creator may delete.
func (s *ChallengeService) Delete(ctx context.Context, challengeID, userID string) error {
	challenge, err := s.load(ctx, challengeID)
	if err != nil {
		return err
	}
	if !challenge.IsCreator(userID) {
		return domainerrors.Forbidden(msgNotChallengeOwner)
	}

	// Posts cascade with the challenge; collect their media first.
	posts, err := s.store.ListPostsByChallenge(ctx, challengeID)
	if err != nil {
		return fmt.Errorf("list posts: %w", err)
	}

	if err := s.store.DeleteChallenge(ctx, challengeID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound(msgChallengeNotFound)
		}
		return fmt.Errorf("delete challenge: %w", err)
	}

	if s.index != nil {
		if err := s.index.DeleteDocument(challengeID); err != nil {
			s.logger.Warn("failed to remove challenge from search index",
				"challenge_id", challengeID,
				"error", err,
			)
		}
	}

	s.logger.Info("challenge deleted", "challenge_id", challengeID, "user_id", userID)
	removePostMedia(ctx, s.media, posts, s.logger)
	s.events.Emit(sse.NewChallengeDeletedEvent(challengeID))
	return nil
}

// Search finds challenges whose title or creator name matches query.
func (s *ChallengeService) Search(ctx context.Context, query string, limit int) (*search.Result, error) {
	if s.index == nil {
		return &search.Result{Query: query, Hits: []search.Hit{}}, nil
	}
	res, err := s.index.Search(ctx, search.Params{Query: query, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("search challenges: %w", err)
	}
	return res, nil
}

// History lists the challenges userID participates in with the user's points and rank.
func (s *ChallengeService) History(ctx context.Context, userID string, now time.Time) ([]HistoryEntry, error) {
	challenges, err := s.store.ListChallengesByParticipant(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user challenges: %w", err)
	}

	history := make([]HistoryEntry, 0, len(challenges))
	for _, c := range challenges {
		posts, err := s.store.ListPostsByChallenge(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("list posts for %s: %w", c.ID, err)
		}

		state := timer.ComputeState(now, c.StartAt, c.ExpiresAt)
		entry := HistoryEntry{
			ChallengeID:  c.ID,
			Title:        c.Title,
			Phase:        state.Phase,
			Timer:        state,
			Participants: len(c.Participants),
		}
		for _, e := range leaderboard.Compute(posts, nil) {
			if e.UserID == userID {
				entry.Points = e.Points
				entry.Rank = e.Rank
				break
			}
		}
		history = append(history, entry)
	}
	return history, nil
}

// Reindex rebuilds the search index from the store and returns the number of indexed challenges.
func (s *ChallengeService) Reindex(ctx context.Context) (int, error) {
	if s.index == nil {
		return 0, nil
	}

	challenges, err := s.store.ListChallenges(ctx)
	if err != nil {
		return 0, fmt.Errorf("list challenges: %w", err)
	}

	creatorIDs := make([]string, 0, len(challenges))
	for _, c := range challenges {
		creatorIDs = append(creatorIDs, c.CreatorID)
	}
	names, err := userNames(ctx, s.store, creatorIDs)
	if err != nil {
		return 0, err
	}

	if err := s.index.Rebuild(); err != nil {
		return 0, fmt.Errorf("rebuild index: %w", err)
	}
	docs := make([]*search.Document, 0, len(challenges))
	for _, c := range challenges {
		docs = append(docs, search.ChallengeToDocument(c, names[c.CreatorID]))
	}
	if err := s.index.IndexDocuments(docs); err != nil {
		return 0, fmt.Errorf("index challenges: %w", err)
	}

	s.logger.Info("search index rebuilt", "challenges", len(docs))
	return len(docs), nil
}

func (s *ChallengeService) load(ctx context.Context, challengeID string) (*domain.Challenge, error) {
	challenge, err := s.store.GetChallenge(ctx, challengeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound(msgChallengeNotFound)
		}
		return nil, fmt.Errorf("get challenge: %w", err)
	}
	return challenge, nil
}

func (s *ChallengeService) views(ctx context.Context, challenges []*domain.Challenge, now time.Time) ([]ChallengeView, error) {
	creatorIDs := make([]string, 0, len(challenges))
	for _, c := range challenges {
		creatorIDs = append(creatorIDs, c.CreatorID)
	}
	names, err := userNames(ctx, s.store, creatorIDs)
	if err != nil {
		return nil, err
	}

	views := make([]ChallengeView, 0, len(challenges))
	for _, c := range challenges {
		views = append(views, ChallengeView{
			Challenge:   c,
			CreatorName: displayName(c.CreatorID, names),
			Timer:       timer.ComputeState(now, c.StartAt, c.ExpiresAt),
		})
	}
	return views, nil
}

func (s *ChallengeService) indexChallenge(c *domain.Challenge, creatorName string) {
	if s.index == nil {
		return
	}
	if err := s.index.IndexDocument(search.ChallengeToDocument(c, creatorName)); err != nil {
		s.logger.Warn("failed to index challenge",
			"challenge_id", c.ID,
			"error", err,
		)
	}
}

// userNames resolves display names for userIDs. Missing users are left out.
func userNames(ctx context.Context, st store.Store, userIDs []string) (map[string]string, error) {
	users, err := st.GetUsersByIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("get users: %w", err)
	}
	names := make(map[string]string, len(users))
	for uid, u := range users {
		names[uid] = u.Name()
	}
	return names, nil
}

func displayName(userID string, names map[string]string) string {
	if name := names[userID]; name != "" {
		return name
	}
	return userID
}
