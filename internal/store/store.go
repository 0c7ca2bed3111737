// Package store defines the persistence contract for the FitChallenge server.
package store

import (
	"context"

	"github.com/fitchallenge/fitchallenge-server/internal/domain"
)

// Store is implemented by the SQLite store. Services depend on this interface only.
type Store interface {
	Close() error
	Ping(ctx context.Context) error

	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error

	// Sessions
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	GetSessionByRefreshToken(ctx context.Context, tokenHash string) (*domain.Session, error)
	UpdateSession(ctx context.Context, session *domain.Session) error
	DeleteSession(ctx context.Context, id string) error
	DeleteUserSessions(ctx context.Context, userID string) (int, error)
	DeleteExpiredSessions(ctx context.Context) (int, error)

	// Challenges
	CreateChallenge(ctx context.Context, c *domain.Challenge) error
	GetChallenge(ctx context.Context, id string) (*domain.Challenge, error)
	ListChallenges(ctx context.Context) ([]*domain.Challenge, error)
	ListChallengesByParticipant(ctx context.Context, userID string) ([]*domain.Challenge, error)
	AddParticipant(ctx context.Context, challengeID, userID string) (bool, error)
	DeleteChallenge(ctx context.Context, id string) error

	// Posts
	CreatePost(ctx context.Context, p *domain.Post) error
	GetPost(ctx context.Context, id string) (*domain.Post, error)
	ListPostsByChallenge(ctx context.Context, challengeID string) ([]domain.Post, error)
	DeletePost(ctx context.Context, id string) error

	// Upvotes
	TryUpvote(ctx context.Context, postID, voterID string) (*domain.UpvoteResult, error)
	UpvotedPostIDs(ctx context.Context, challengeID, userID string) (map[string]bool, error)
}

// EventEmitter broadcasts change notifications without depending on the SSE package.
type EventEmitter interface {
	Emit(event any)
}

// NoopEmitter drops every event. Used in tests and tools.
type NoopEmitter struct{}

// Emit implements EventEmitter.Emit as a no-op.
func (NoopEmitter) Emit(_ any) {}

// NewNoopEmitter creates a new no-op emitter.
func NewNoopEmitter() EventEmitter {
	return NoopEmitter{}
}
