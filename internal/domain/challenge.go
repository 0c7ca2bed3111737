package domain

import (
	"slices"
	"time"
)

// Challenge is a time-boxed fitness goal that users join and post progress to.
type Challenge struct {
	Entity
	Title     string     `json:"title"`
	CreatorID string     `json:"creator_id"`
	StartAt   time.Time  `json:"start_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	// Participants holds user IDs in join order. The creator is always first.
	Participants []string `json:"participants"`
}

// HasParticipant reports whether userID has joined the challenge.
func (c *Challenge) HasParticipant(userID string) bool {
	return slices.Contains(c.Participants, userID)
}

// IsCreator reports whether userID created the challenge.
func (c *Challenge) IsCreator(userID string) bool {
	return c.CreatorID == userID
}
