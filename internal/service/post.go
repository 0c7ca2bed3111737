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
	"github.com/fitchallenge/fitchallenge-server/internal/sse"
	"github.com/fitchallenge/fitchallenge-server/internal/store"
)

const (
	msgContentRequired = "Post content cannot be empty."
	msgPostNotFound    = "Post not found."
	msgNotPostAuthor   = "Only the author can delete this post."
)

// PostService manages progress posts and upvotes.
type PostService struct {
	store  store.Store
	events store.EventEmitter
	media  MediaRemover
	logger *slog.Logger
}

// NewPostService creates a new post service.
func NewPostService(store store.Store, events store.EventEmitter, logger *slog.Logger) *PostService {
	return &PostService{
		store:  store,
		events: events,
		logger: logger,
	}
}

// SetMediaRemover wires deletion of uploaded files when a post is deleted.
func (s *PostService) SetMediaRemover(media MediaRemover) {
	s.media = media
}

// CreatePostRequest is the input for Create. Media fields come from a prior upload.
type CreatePostRequest struct {
	Content       string `json:"content" validate:"max=5000"`
	MediaURL      string `json:"media_url,omitempty" validate:"max=2048"`
	MediaBlurHash string `json:"media_blurhash,omitempty" validate:"max=100"`
}

// PostView is a post as shown in a challenge feed.
type PostView struct {
	domain.Post
	AuthorName string `json:"author_name"`
	// Upvoted reports whether the viewer already upvoted the post.
	Upvoted bool `json:"upvoted"`
}

// Create adds a progress post to a challenge.
func (s *PostService) Create(ctx context.Context, userID, challengeID string, req CreatePostRequest) (*PostView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, domainerrors.Validation(msgContentRequired)
	}
	req.MediaURL = strings.TrimSpace(req.MediaURL)
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	if _, err := s.store.GetChallenge(ctx, challengeID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound(msgChallengeNotFound)
		}
		return nil, fmt.Errorf("get challenge: %w", err)
	}

	postID, err := id.Generate(id.PrefixPost)
	if err != nil {
		return nil, fmt.Errorf("generate post ID: %w", err)
	}

	post := &domain.Post{
		ID:          postID,
		ChallengeID: challengeID,
		UserID:      userID,
		Content:     content,
		MediaURL:    req.MediaURL,
		MediaKind:   domain.MediaKindFor(req.MediaURL),
		CreatedAt:   time.Now().UTC(),
	}
	if post.MediaKind == domain.MediaImage {
		post.MediaBlurHash = req.MediaBlurHash
	}

	if err := s.store.CreatePost(ctx, post); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound(msgChallengeNotFound)
		}
		return nil, fmt.Errorf("create post: %w", err)
	}

	names, err := userNames(ctx, s.store, []string{userID})
	if err != nil {
		return nil, err
	}
	authorName := displayName(userID, names)

	s.logger.Info("post created",
		"post_id", postID,
		"challenge_id", challengeID,
		"user_id", userID,
		"media_kind", post.MediaKind,
	)

	s.events.Emit(sse.NewPostCreatedEvent(post, authorName))
	s.emitLeaderboard(ctx, challengeID)

	return &PostView{Post: *post, AuthorName: authorName}, nil
}

// List returns a challenge's posts newest first, flagging the ones viewerID already upvoted.
func (s *PostService) List(ctx context.Context, challengeID, viewerID string) ([]PostView, error) {
	if _, err := s.store.GetChallenge(ctx, challengeID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound(msgChallengeNotFound)
		}
		return nil, fmt.Errorf("get challenge: %w", err)
	}

	posts, err := s.store.ListPostsByChallenge(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	authorIDs := make([]string, 0, len(posts))
	for i := range posts {
		authorIDs = append(authorIDs, posts[i].UserID)
	}
	names, err := userNames(ctx, s.store, authorIDs)
	if err != nil {
		return nil, err
	}

	upvoted := map[string]bool{}
	if viewerID != "" {
		upvoted, err = s.store.UpvotedPostIDs(ctx, challengeID, viewerID)
		if err != nil {
			return nil, fmt.Errorf("list upvotes: %w", err)
		}
	}

	views := make([]PostView, 0, len(posts))
	for _, p := range posts {
		views = append(views, PostView{
			Post:       p,
			AuthorName: displayName(p.UserID, names),
			Upvoted:    upvoted[p.ID],
		})
	}
	return views, nil
}

// Delete removes a post. Only its author may delete it.
func (s *PostService) Delete(ctx context.Context, postID, userID string) error {
	post, err := s.load(ctx, postID)
	if err != nil {
		return err
	}
	if !post.IsAuthor(userID) {
		return domainerrors.Forbidden(msgNotPostAuthor)
	}

	if err := s.store.DeletePost(ctx, postID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound(msgPostNotFound)
		}
		return fmt.Errorf("delete post: %w", err)
	}

	s.logger.Info("post deleted", "post_id", postID, "user_id", userID)
	removePostMedia(ctx, s.media, []domain.Post{*post}, s.logger)

	s.events.Emit(sse.NewPostDeletedEvent(postID, post.ChallengeID))
	s.emitLeaderboard(ctx, post.ChallengeID)
	return nil
}

// Upvote records voterID's upvote on a post. A repeated upvote leaves the count
// unchanged and returns Applied=false without emitting anything.
func (s *PostService) Upvote(ctx context.Context, postID, voterID string) (*domain.UpvoteResult, error) {
	post, err := s.load(ctx, postID)
	if err != nil {
		return nil, err
	}

	result, err := s.store.TryUpvote(ctx, postID, voterID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound(msgPostNotFound)
		}
		return nil, fmt.Errorf("upvote post: %w", err)
	}
	if !result.Applied {
		return result, nil
	}

	s.logger.Debug("post upvoted",
		"post_id", postID,
		"voter_id", voterID,
		"upvotes", result.Upvotes,
	)

	s.events.Emit(sse.NewPostUpvotedEvent(postID, post.ChallengeID, voterID, result.Upvotes))
	s.emitLeaderboard(ctx, post.ChallengeID)
	return result, nil
}

func (s *PostService) load(ctx context.Context, postID string) (*domain.Post, error) {
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound(msgPostNotFound)
		}
		return nil, fmt.Errorf("get post: %w", err)
	}
	return post, nil
}

// emitLeaderboard recomputes the standings and broadcasts them. Failures are
// logged only; the triggering write already succeeded.
func (s *PostService) emitLeaderboard(ctx context.Context, challengeID string) {
	entries, err := computeStandings(ctx, s.store, challengeID)
	if err != nil {
		s.logger.Warn("failed to compute leaderboard",
			"challenge_id", challengeID,
			"error", err,
		)
		return
	}
	s.events.Emit(sse.NewLeaderboardUpdatedEvent(challengeID, entries))
}

// computeStandings loads a challenge's posts and author names and ranks them.
func computeStandings(ctx context.Context, st store.Store, challengeID string) ([]leaderboard.Entry, error) {
	posts, err := st.ListPostsByChallenge(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	authorIDs := make([]string, 0, len(posts))
	for i := range posts {
		authorIDs = append(authorIDs, posts[i].UserID)
	}
	names, err := userNames(ctx, st, authorIDs)
	if err != nil {
		return nil, err
	}
	return leaderboard.Compute(posts, names), nil
}
