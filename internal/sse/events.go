// Package sse implements Server-Sent Events for live challenge updates and
// for the per-user auth state stream.
package sse

import (
	"time"

	"github.com/fitchallenge/fitchallenge-server/internal/domain"
	"github.com/fitchallenge/fitchallenge-server/internal/leaderboard"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventChallengeCreated is sent when a new challenge is created.
	EventChallengeCreated EventType = "challenge.created"
	// EventChallengeJoined is sent when a user joins a challenge.
	EventChallengeJoined EventType = "challenge.joined"
	// EventChallengeDeleted is sent when the creator deletes a challenge.
	EventChallengeDeleted EventType = "challenge.deleted"

	EventPostCreated EventType = "post.created"
	EventPostDeleted EventType = "post.deleted"
	EventPostUpvoted EventType = "post.upvoted"

	// EventLeaderboardUpdated carries the freshly computed standings of one challenge.
	EventLeaderboardUpdated EventType = "leaderboard.updated"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`

	// Filtering fields, never sent to clients. Empty means "everyone".
	UserID      string `json:"-"`
	ChallengeID string `json:"-"`
}

// ChallengeEventData is the payload of challenge.created.
type ChallengeEventData struct {
	Challenge *domain.Challenge `json:"challenge"`
}

// ChallengeJoinedEventData is the payload of challenge.joined.
type ChallengeJoinedEventData struct {
	ChallengeID  string `json:"challenge_id"`
	UserID       string `json:"user_id"`
	Participants int    `json:"participants"`
}

// ChallengeDeletedEventData is the payload of challenge.deleted.
type ChallengeDeletedEventData struct {
	DeletedAt   time.Time `json:"deleted_at"`
	ChallengeID string    `json:"challenge_id"`
}

// PostEventData is the payload of post.created. AuthorName is resolved
// up front so clients can render the post without another request.
type PostEventData struct {
	Post       *domain.Post `json:"post"`
	AuthorName string       `json:"author_name"`
}

// PostDeletedEventData is the payload of post.deleted.
type PostDeletedEventData struct {
	DeletedAt   time.Time `json:"deleted_at"`
	PostID      string    `json:"post_id"`
	ChallengeID string    `json:"challenge_id"`
}

// PostUpvotedEventData is the payload of post.upvoted.
type PostUpvotedEventData struct {
	PostID      string `json:"post_id"`
	ChallengeID string `json:"challenge_id"`
	VoterID     string `json:"voter_id"`
	Upvotes     int    `json:"upvotes"`
}

// LeaderboardEventData is the payload of leaderboard.updated.
type LeaderboardEventData struct {
	ChallengeID string              `json:"challenge_id"`
	Entries     []leaderboard.Entry `json:"entries"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewChallengeCreatedEvent creates a challenge.created event.
func NewChallengeCreatedEvent(c *domain.Challenge) Event {
	return Event{
		Type:        EventChallengeCreated,
		Data:        ChallengeEventData{Challenge: c},
		Timestamp:   time.Now(),
		ChallengeID: c.ID,
	}
}

// NewChallengeJoinedEvent creates a challenge.joined event.
func NewChallengeJoinedEvent(challengeID, userID string, participants int) Event {
	return Event{
		Type: EventChallengeJoined,
		Data: ChallengeJoinedEventData{
			ChallengeID:  challengeID,
			UserID:       userID,
			Participants: participants,
		},
		Timestamp:   time.Now(),
		ChallengeID: challengeID,
	}
}

// NewChallengeDeletedEvent creates a challenge.deleted event.
func NewChallengeDeletedEvent(challengeID string) Event {
	now := time.Now()
	return Event{
		Type:        EventChallengeDeleted,
		Data:        ChallengeDeletedEventData{ChallengeID: challengeID, DeletedAt: now},
		Timestamp:   now,
		ChallengeID: challengeID,
	}
}

// NewPostCreatedEvent creates a post.created event.
func NewPostCreatedEvent(p *domain.Post, authorName string) Event {
	return Event{
		Type:        EventPostCreated,
		Data:        PostEventData{Post: p, AuthorName: authorName},
		Timestamp:   time.Now(),
		ChallengeID: p.ChallengeID,
	}
}

// NewPostDeletedEvent creates a post.deleted event.
func NewPostDeletedEvent(postID, challengeID string) Event {
	now := time.Now()
	return Event{
		Type: EventPostDeleted,
		Data: PostDeletedEventData{
			PostID:      postID,
			ChallengeID: challengeID,
			DeletedAt:   now,
		},
		Timestamp:   now,
		ChallengeID: challengeID,
	}
}

// NewPostUpvotedEvent creates a post.upvoted event.
func NewPostUpvotedEvent(postID, challengeID, voterID string, upvotes int) Event {
	return Event{
		Type: EventPostUpvoted,
		Data: PostUpvotedEventData{
			PostID:      postID,
			ChallengeID: challengeID,
			VoterID:     voterID,
			Upvotes:     upvotes,
		},
		Timestamp:   time.Now(),
		ChallengeID: challengeID,
	}
}

// NewLeaderboardUpdatedEvent creates a leaderboard.updated event.
func NewLeaderboardUpdatedEvent(challengeID string, entries []leaderboard.Entry) Event {
	return Event{
		Type:        EventLeaderboardUpdated,
		Data:        LeaderboardEventData{ChallengeID: challengeID, Entries: entries},
		Timestamp:   time.Now(),
		ChallengeID: challengeID,
	}
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	now := time.Now()
	return Event{
		Type:      EventHeartbeat,
		Data:      HeartbeatEventData{ServerTime: now},
		Timestamp: now,
	}
}
