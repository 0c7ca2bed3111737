package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/fitchallenge/fitchallenge-server/internal/domain"
	"github.com/fitchallenge/fitchallenge-server/internal/service"
)

func (s *Server) registerPostRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listPosts",
		Method:      http.MethodGet,
		Path:        "/api/v1/challenges/{id}/posts",
		Summary:     "List posts",
		Description: "Returns the progress posts of a challenge, newest first",
		Tags:        []string{"Posts"},
	}, s.handleListPosts)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createPost",
		Method:        http.MethodPost,
		Path:          "/api/v1/challenges/{id}/posts",
		Summary:       "Create post",
		Description:   "Posts progress to a challenge, optionally with an uploaded photo or video",
		Tags:          []string{"Posts"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusCreated,
	}, s.handleCreatePost)

	huma.Register(s.api, huma.Operation{
		OperationID: "deletePost",
		Method:      http.MethodDelete,
		Path:        "/api/v1/posts/{id}",
		Summary:     "Delete post",
		Description: "Deletes a post and its upvotes. Author only.",
		Tags:        []string{"Posts"},
		Security:    bearerSecurity,
	}, s.handleDeletePost)

	huma.Register(s.api, huma.Operation{
		OperationID: "upvotePost",
		Method:      http.MethodPost,
		Path:        "/api/v1/posts/{id}/upvote",
		Summary:     "Upvote post",
		Description: "Records one upvote per user. A repeated upvote reports applied=false and changes nothing.",
		Tags:        []string{"Posts"},
		Security:    bearerSecurity,
	}, s.handleUpvotePost)
}

// === DTOs ===

// PostResponse contains post data in API responses.
type PostResponse struct {
	ID            string           `json:"id" doc:"Post ID"`
	ChallengeID   string           `json:"challenge_id" doc:"Challenge the post belongs to"`
	UserID        string           `json:"user_id" doc:"Author ID"`
	AuthorName    string           `json:"author_name" doc:"Author display name"`
	Content       string           `json:"content" doc:"Post text"`
	MediaURL      string           `json:"media_url,omitempty" doc:"Attached photo or video"`
	MediaKind     domain.MediaKind `json:"media_kind,omitempty" enum:"image,video" doc:"Attachment kind"`
	MediaBlurHash string           `json:"media_blurhash,omitempty" doc:"BlurHash placeholder for images"`
	Upvotes       int              `json:"upvotes" doc:"Upvote count"`
	Upvoted       bool             `json:"upvoted" doc:"Whether the caller upvoted this post"`
	CreatedAt     time.Time        `json:"created_at" doc:"Creation time"`
}

// ListPostsResponse contains a challenge feed.
type ListPostsResponse struct {
	Posts []PostResponse `json:"posts" doc:"Posts, newest first"`
}

// ListPostsOutput wraps the feed for Huma.
type ListPostsOutput struct {
	Body ListPostsResponse
}

// PostOutput wraps a single post for Huma.
type PostOutput struct {
	Body PostResponse
}

// CreatePostRequest is the request body for a progress post.
type CreatePostRequest struct {
	Content       string `json:"content,omitempty" doc:"Progress update text"`
	MediaURL      string `json:"media_url,omitempty" doc:"URL returned by the media upload"`
	MediaBlurHash string `json:"media_blurhash,omitempty" doc:"BlurHash returned by the media upload"`
}

// CreatePostInput wraps the create request for Huma.
type CreatePostInput struct {
	ChallengeID string `path:"id" doc:"Challenge ID"`
	Body        CreatePostRequest
}

// PostIDInput identifies a post in the path.
type PostIDInput struct {
	ID string `path:"id" doc:"Post ID"`
}

// UpvoteResponse reports the outcome of an upvote.
type UpvoteResponse struct {
	PostID  string `json:"post_id" doc:"Post ID"`
	Applied bool   `json:"applied" doc:"False when the caller had already upvoted"`
	Upvotes int    `json:"upvotes" doc:"Upvote count after the operation"`
}

// UpvoteOutput wraps the upvote response for Huma.
type UpvoteOutput struct {
	Body UpvoteResponse
}

// === Handlers ===

func (s *Server) handleListPosts(ctx context.Context, input *ChallengeIDInput) (*ListPostsOutput, error) {
	posts, err := s.services.Post.List(ctx, input.ID, optionalUserID(ctx))
	if err != nil {
		return nil, err
	}

	resp := make([]PostResponse, len(posts))
	for i := range posts {
		resp[i] = mapPostResponse(&posts[i])
	}
	return &ListPostsOutput{Body: ListPostsResponse{Posts: resp}}, nil
}

func (s *Server) handleCreatePost(ctx context.Context, input *CreatePostInput) (*PostOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	post, err := s.services.Post.Create(ctx, userID, input.ChallengeID, service.CreatePostRequest{
		Content:       input.Body.Content,
		MediaURL:      input.Body.MediaURL,
		MediaBlurHash: input.Body.MediaBlurHash,
	})
	if err != nil {
		return nil, err
	}
	return &PostOutput{Body: mapPostResponse(post)}, nil
}

func (s *Server) handleDeletePost(ctx context.Context, input *PostIDInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Post.Delete(ctx, input.ID, userID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Post deleted"}}, nil
}

func (s *Server) handleUpvotePost(ctx context.Context, input *PostIDInput) (*UpvoteOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	res, err := s.services.Post.Upvote(ctx, input.ID, userID)
	if err != nil {
		return nil, err
	}
	return &UpvoteOutput{Body: UpvoteResponse{
		PostID:  input.ID,
		Applied: res.Applied,
		Upvotes: res.Upvotes,
	}}, nil
}

func mapPostResponse(p *service.PostView) PostResponse {
	return PostResponse{
		ID:            p.ID,
		ChallengeID:   p.ChallengeID,
		UserID:        p.UserID,
		AuthorName:    p.AuthorName,
		Content:       p.Content,
		MediaURL:      p.MediaURL,
		MediaKind:     p.MediaKind,
		MediaBlurHash: p.MediaBlurHash,
		Upvotes:       p.Upvotes,
		Upvoted:       p.Upvoted,
		CreatedAt:     p.CreatedAt,
	}
}
